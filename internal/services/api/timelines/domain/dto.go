// Package domain holds the transport types of the timelines API
package domain

import (
	"prtimeline/internal/core/timeline"
	tldomain "prtimeline/internal/services/timeline/domain"
)

// TimelinesQuery is bound from the query string. A zero Total uses the server default
type TimelinesQuery struct {
	Total      int    `json:"total"       validate:"omitempty,min=1,max=1000"`
	Org        string `json:"org"         validate:"omitempty,max=100"`
	TeamFilter string `json:"team_filter" validate:"omitempty,max=100"`
}

// Target resolves q against the path repository
func (q TimelinesQuery) Target(owner, repo string, defaultTotal int) tldomain.Target {
	total := q.Total
	if total == 0 {
		total = defaultTotal
	}
	return tldomain.Target{
		Org:        q.Org,
		Owner:      owner,
		Repo:       repo,
		TeamFilter: q.TeamFilter,
		Total:      total,
	}
}

// Event is one timeline entry
type Event struct {
	Timestamp      string   `json:"timestamp"`
	Actor          string   `json:"actor"`
	Kind           string   `json:"kind"`
	DelayHours     float64  `json:"delay_hours"`
	Teams          []string `json:"teams"`
	ReviewState    *string  `json:"review_state,omitempty"`
	ReviewComments *int     `json:"review_comments,omitempty"`
	SHA            *string  `json:"sha,omitempty"`
}

// PullRequest is one assembled timeline
type PullRequest struct {
	Number         int      `json:"number"`
	Title          string   `json:"title"`
	DiffSize       int      `json:"diff_size"`
	Author         string   `json:"author"`
	Reviewers      []string `json:"reviewers"`
	AuthoringTeams []string `json:"authoring_teams"`
	ReviewingTeams []string `json:"reviewing_teams"`
	Events         []Event  `json:"events"`
}

// FromPullRequests maps assembled timelines to their transport form; never nil
func FromPullRequests(prs []timeline.PullRequest) []PullRequest {
	out := make([]PullRequest, 0, len(prs))
	for _, pr := range prs {
		out = append(out, FromPullRequest(pr))
	}
	return out
}

// FromPullRequest maps one assembled timeline
func FromPullRequest(pr timeline.PullRequest) PullRequest {
	evs := make([]Event, 0, len(pr.Events))
	for _, ev := range pr.Events {
		e := Event{
			Timestamp:  ev.Timestamp,
			Actor:      ev.Actor,
			Kind:       ev.Kind().String(),
			DelayHours: ev.Delay,
			Teams:      orEmpty(ev.Teams),
		}
		switch d := ev.Detail.(type) {
		case timeline.Review:
			state, comments := d.State.String(), d.Comments
			e.ReviewState, e.ReviewComments = &state, &comments
		case timeline.Commit:
			sha := d.SHA
			e.SHA = &sha
		}
		evs = append(evs, e)
	}
	return PullRequest{
		Number:         pr.Number,
		Title:          pr.Title,
		DiffSize:       pr.DiffSize,
		Author:         pr.Author,
		Reviewers:      orEmpty(pr.Reviewers),
		AuthoringTeams: orEmpty(pr.AuthoringTeams),
		ReviewingTeams: orEmpty(pr.ReviewingTeams),
		Events:         evs,
	}
}

func orEmpty(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}
