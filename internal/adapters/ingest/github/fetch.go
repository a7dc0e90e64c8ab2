package github

import (
	"context"

	"prtimeline/internal/core/pager"
	"prtimeline/internal/core/teams"
	"prtimeline/internal/core/timeline"
	perr "prtimeline/internal/platform/errors"
)

// FetchTeams reads one page of org teams. req.Owner is the org login and
// req.Name the optional team name filter
func (c *Client) FetchTeams(ctx context.Context, req pager.Request) (pager.Page[teams.Team], error) {
	vars := map[string]any{
		"org":   req.Owner,
		"first": req.Limit,
		"after": req.After,
	}
	if req.Name != "" {
		vars["query"] = req.Name
	}

	var data teamsData
	if err := c.Query(ctx, "teams", teamsQuery, vars, &data); err != nil {
		return pager.Page[teams.Team]{}, err
	}
	if data.Organization == nil {
		return pager.Page[teams.Team]{}, perr.FetchFailedf("github teams: organization %q not found", req.Owner)
	}

	conn := data.Organization.Teams
	out := make([]teams.Team, 0, len(conn.Nodes))
	for _, n := range conn.Nodes {
		if n.Members.TotalCount > len(n.Members.Nodes) {
			c.log.Warn().
				Str("team", n.Name).
				Int("members", n.Members.TotalCount).
				Int("fetched", len(n.Members.Nodes)).
				Msg("team roster truncated")
		}
		t := teams.Team{Name: n.Name, Members: make([]string, 0, len(n.Members.Nodes))}
		for _, m := range n.Members.Nodes {
			t.Members = append(t.Members, m.Login)
		}
		out = append(out, t)
	}
	return pager.Page[teams.Team]{
		Records:     out,
		EndCursor:   conn.PageInfo.EndCursor,
		HasNextPage: conn.PageInfo.HasNextPage,
	}, nil
}

// FetchPullRequests reads one page of pull requests, newest first, with their timeline items
func (c *Client) FetchPullRequests(ctx context.Context, req pager.Request) (pager.Page[timeline.RawPullRequest], error) {
	vars := map[string]any{
		"owner": req.Owner,
		"name":  req.Name,
		"first": req.Limit,
		"after": req.After,
		"items": c.opts.TimelineItems,
	}

	var data pullRequestsData
	if err := c.Query(ctx, "pullRequests", pullRequestsQuery, vars, &data); err != nil {
		return pager.Page[timeline.RawPullRequest]{}, err
	}
	if data.Repository == nil {
		return pager.Page[timeline.RawPullRequest]{}, perr.FetchFailedf("github pullRequests: repository %s/%s not found", req.Owner, req.Name)
	}

	conn := data.Repository.PullRequests
	return pager.Page[timeline.RawPullRequest]{
		Records:     conn.Nodes,
		EndCursor:   conn.PageInfo.EndCursor,
		HasNextPage: conn.PageInfo.HasNextPage,
	}, nil
}
