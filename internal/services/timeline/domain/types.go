// Package domain holds the types and ports of the timeline service
package domain

import "time"

// Target names the repository to report on and where its teams live
type Target struct {
	// Org owns the teams; defaults to Owner
	Org        string `json:"org"`
	Owner      string `json:"owner" validate:"required"`
	Repo       string `json:"repo" validate:"required"`
	TeamFilter string `json:"team_filter"`

	// Total caps the pull requests read, newest first
	Total int `json:"total" validate:"min=0"`
	// MaxTeams caps the teams read for the roster
	MaxTeams int `json:"max_teams" validate:"min=0"`
}

// Slug is "owner/repo"
func (t Target) Slug() string { return t.Owner + "/" + t.Repo }

// TeamOrg is the org whose roster is read
func (t Target) TeamOrg() string {
	if t.Org != "" {
		return t.Org
	}
	return t.Owner
}

// Summary describes a finished run
type Summary struct {
	Teams        int           `json:"teams"`
	Pages        int           `json:"pages"`
	PullRequests int           `json:"pull_requests"`
	Events       int           `json:"events"`
	Elapsed      time.Duration `json:"elapsed"`
}
