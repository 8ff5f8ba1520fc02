package domain

import (
	"time"

	"github.com/google/uuid"
)

// Vote is a single user's rating and comment on a track. A user identifier
// appears at most once per track; the repository enforces this.
type Vote struct {
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Track is a rateable catalog item. Rating and VoteCount are derived from
// Votes and recomputed on every vote, never incrementally adjusted.
type Track struct {
	ID        uuid.UUID       `json:"id"`
	Title     string          `json:"title"`
	Artists   []string        `json:"artists"`
	Link      string          `json:"link"`
	Votes     map[string]Vote `json:"votes"`
	Rating    float64         `json:"rating"`
	VoteCount int             `json:"voteCount"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// VoteSummary is the refreshed aggregate returned by a successful vote.
type VoteSummary struct {
	VoteCount int     `json:"voteCount"`
	Rating    float64 `json:"rating"`
}

// TrackFilter selects and paginates tracks. Search matches the title as a
// case-insensitive substring. Session restricts to members of the named
// session; empty means no restriction. Page is 1-indexed.
type TrackFilter struct {
	Search   string
	Session  string
	Page     int
	PageSize int
}

// TrackPage is one page of listing results. An empty match set yields
// TotalPages 0 and an empty Tracks slice.
type TrackPage struct {
	Tracks     []Track `json:"tracks"`
	Page       int     `json:"page"`
	TotalPages int     `json:"totalPages"`
}
