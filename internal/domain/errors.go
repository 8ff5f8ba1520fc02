package domain

import "errors"

var (
	ErrTrackNotFound       = errors.New("track not found")
	ErrSessionNotFound     = errors.New("session not found")
	ErrDuplicateVote       = errors.New("user already voted on this track")
	ErrDuplicateMembership = errors.New("track already added to this session")
	ErrDuplicateName       = errors.New("session name already in use")
)
