package github

import "prtimeline/internal/core/timeline"

type pageInfo struct {
	EndCursor   *string `json:"endCursor"`
	HasNextPage bool    `json:"hasNextPage"`
}

type teamsData struct {
	Organization *struct {
		Teams struct {
			PageInfo pageInfo   `json:"pageInfo"`
			Nodes    []teamNode `json:"nodes"`
		} `json:"teams"`
	} `json:"organization"`
}

type teamNode struct {
	Name    string `json:"name"`
	Members struct {
		TotalCount int `json:"totalCount"`
		Nodes      []struct {
			Login string `json:"login"`
		} `json:"nodes"`
	} `json:"members"`
}

type pullRequestsData struct {
	Repository *struct {
		PullRequests struct {
			PageInfo pageInfo                  `json:"pageInfo"`
			Nodes    []timeline.RawPullRequest `json:"nodes"`
		} `json:"pullRequests"`
	} `json:"repository"`
}
