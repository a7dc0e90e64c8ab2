// Package timelinetest provides an in-memory Source for tests of the timeline
// service and the packages built on it
package timelinetest

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"prtimeline/internal/core/pager"
	"prtimeline/internal/core/teams"
	"prtimeline/internal/core/timeline"
)

// Source serves Teams and PRs with opaque numeric cursors and records every request
type Source struct {
	Teams []teams.Team
	PRs   []timeline.RawPullRequest

	// Fail makes the request with this 1-based index fail, across both kinds
	Fail    int
	FailErr error

	mu       sync.Mutex
	requests []pager.Request
}

// FetchTeams implements domain.Source
func (s *Source) FetchTeams(ctx context.Context, req pager.Request) (pager.Page[teams.Team], error) {
	return serve(ctx, s, req, s.Teams)
}

// FetchPullRequests implements domain.Source
func (s *Source) FetchPullRequests(ctx context.Context, req pager.Request) (pager.Page[timeline.RawPullRequest], error) {
	return serve(ctx, s, req, s.PRs)
}

// Requests returns a copy of the requests received so far
func (s *Source) Requests() []pager.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]pager.Request(nil), s.requests...)
}

func serve[T any](ctx context.Context, s *Source, req pager.Request, all []T) (pager.Page[T], error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	n := len(s.requests)
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return pager.Page[T]{}, err
	}
	if s.Fail == n {
		err := s.FailErr
		if err == nil {
			err = fmt.Errorf("request %d failed", n)
		}
		return pager.Page[T]{}, err
	}

	start := 0
	if req.After != nil {
		start, _ = strconv.Atoi(*req.After)
	}
	end := min(start+req.Limit, len(all))
	cur := strconv.Itoa(end)
	return pager.Page[T]{
		Records:     all[start:end],
		EndCursor:   &cur,
		HasNextPage: end < len(all),
	}, nil
}

// PR decodes a GraphQL pull request node, panicking on bad JSON
func PR(doc string) timeline.RawPullRequest {
	var pr timeline.RawPullRequest
	if err := json.Unmarshal([]byte(doc), &pr); err != nil {
		panic(err)
	}
	return pr
}

// SimplePR is pull request n by author, opened at created and approved by
// reviewer one hour later
func SimplePR(n int, author, reviewer, created string) timeline.RawPullRequest {
	return PR(fmt.Sprintf(`{
		"number": %d, "title": "pr %d", "additions": 3, "deletions": 1,
		"createdAt": %q, "author": {"login": %q},
		"timelineItems": {"nodes": [
			{"__typename": "PullRequestReview", "publishedAt": %q, "state": "APPROVED",
			 "author": {"login": %q}, "comments": {"totalCount": 1}}
		]}
	}`, n, n, created, author, plusHour(created), reviewer))
}

func plusHour(ts string) string {
	// callers use whole hour RFC3339 UTC stamps like 2024-03-01T09:00:00Z
	h, _ := strconv.Atoi(ts[11:13])
	return fmt.Sprintf("%s%02d%s", ts[:11], (h+1)%24, ts[13:])
}
