package timeline

import (
	"encoding/json"
)

// GraphQL __typename values of the timeline items we request
const (
	TypeCommit = "PullRequestCommit"
	TypeReview = "PullRequestReview"
	TypeMerged = "MergedEvent"
	TypeClosed = "ClosedEvent"
)

// Login is the {login} object GitHub uses for actors and authors
type Login struct {
	Login *string `json:"login" validate:"required"`
}

// Connection wraps a GraphQL nodes list
type Connection[T any] struct {
	Nodes []T `json:"nodes"`
}

// RawPullRequest is one pull request node as served by the GraphQL API.
// Pointer fields distinguish absent from zero so validation can name what is missing
type RawPullRequest struct {
	Number        *int                  `json:"number" validate:"required"`
	Title         *string               `json:"title" validate:"required"`
	Additions     *int                  `json:"additions" validate:"required"`
	Deletions     *int                  `json:"deletions" validate:"required"`
	CreatedAt     *string               `json:"createdAt" validate:"required"`
	Author        *Login                `json:"author"`
	TimelineItems *Connection[RawEvent] `json:"timelineItems" validate:"required"`
}

// RawCommit is the payload of a PullRequestCommit item
type RawCommit struct {
	Commit *struct {
		OID           *string `json:"oid"`
		CommittedDate *string `json:"committedDate"`
		Author        *struct {
			User *Login `json:"user"`
		} `json:"author"`
	} `json:"commit"`
}

// RawReview is the payload of a PullRequestReview item
type RawReview struct {
	PublishedAt *string `json:"publishedAt"`
	State       *string `json:"state"`
	Author      *Login  `json:"author"`
	Comments    *struct {
		TotalCount *int `json:"totalCount"`
	} `json:"comments"`
}

// RawActorEvent is the payload shared by MergedEvent and ClosedEvent
type RawActorEvent struct {
	CreatedAt *string `json:"createdAt"`
	Actor     *Login  `json:"actor"`
}

// RawEvent is a timeline item tagged by its GraphQL typename.
// At most one payload is set; unknown typenames keep only Typename so the normalizer can reject them
type RawEvent struct {
	Typename string
	Commit   *RawCommit
	Review   *RawReview
	Merged   *RawActorEvent
	Closed   *RawActorEvent
}

// UnmarshalJSON decodes the payload selected by __typename
func (e *RawEvent) UnmarshalJSON(b []byte) error {
	var head struct {
		Typename string `json:"__typename"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return err
	}
	*e = RawEvent{Typename: head.Typename}

	var dst any
	switch head.Typename {
	case TypeCommit:
		e.Commit = &RawCommit{}
		dst = e.Commit
	case TypeReview:
		e.Review = &RawReview{}
		dst = e.Review
	case TypeMerged:
		e.Merged = &RawActorEvent{}
		dst = e.Merged
	case TypeClosed:
		e.Closed = &RawActorEvent{}
		dst = e.Closed
	default:
		return nil
	}
	return json.Unmarshal(b, dst)
}

// MarshalJSON flattens the payload back next to __typename
func (e RawEvent) MarshalJSON() ([]byte, error) {
	var payload any
	switch {
	case e.Commit != nil:
		payload = e.Commit
	case e.Review != nil:
		payload = e.Review
	case e.Merged != nil:
		payload = e.Merged
	case e.Closed != nil:
		payload = e.Closed
	}

	fields := map[string]json.RawMessage{}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(b, &fields); err != nil {
			return nil, err
		}
	}
	tn, _ := json.Marshal(e.Typename)
	fields["__typename"] = tn
	return json.Marshal(fields)
}
