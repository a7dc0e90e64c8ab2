// Package timeline turns raw pull request records into ordered, team-attributed event timelines
package timeline

import (
	"time"

	perr "prtimeline/internal/platform/errors"
)

// Kind names an event variant
type Kind uint8

const (
	KindOpen Kind = iota + 1
	KindCommit
	KindReview
	KindMerged
	KindClosed
)

// String is the report name of the kind
func (k Kind) String() string {
	switch k {
	case KindOpen:
		return "OPEN"
	case KindCommit:
		return "COMMIT"
	case KindReview:
		return "REVIEW"
	case KindMerged:
		return "MERGED"
	case KindClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// ReviewState is the outcome of a pull request review
type ReviewState uint8

const (
	ReviewPending ReviewState = iota + 1
	ReviewCommented
	ReviewApproved
	ReviewChangesRequested
	ReviewDismissed
)

var reviewStates = []struct {
	state   ReviewState
	wire    string
	display string
}{
	{ReviewPending, "PENDING", "Pending"},
	{ReviewCommented, "COMMENTED", "Commented"},
	{ReviewApproved, "APPROVED", "Approved"},
	{ReviewChangesRequested, "CHANGES_REQUESTED", "Changes requested"},
	{ReviewDismissed, "DISMISSED", "Dismissed"},
}

// ParseReviewState maps the GraphQL enum value; anything else is UnrecognizedReviewState
func ParseReviewState(s string) (ReviewState, error) {
	for _, r := range reviewStates {
		if r.wire == s {
			return r.state, nil
		}
	}
	return 0, perr.WithField(perr.Newf(perr.ErrorCodeUnrecognizedReviewState, "unrecognized review state %q", s), "state")
}

// String is the GraphQL enum value
func (s ReviewState) String() string {
	for _, r := range reviewStates {
		if r.state == s {
			return r.wire
		}
	}
	return ""
}

// DisplayName is the human form used in reports
func (s ReviewState) DisplayName() string {
	for _, r := range reviewStates {
		if r.state == s {
			return r.display
		}
	}
	return ""
}

// Detail is the kind specific payload of an Event. The set of implementations is closed
type Detail interface {
	Kind() Kind
	detail()
}

// Open is synthesized from the pull request creation
type Open struct{}

// Commit is a commit pushed to the pull request
type Commit struct{ SHA string }

// Review is a submitted review
type Review struct {
	State    ReviewState
	Comments int
}

// Merged is the merge of the pull request
type Merged struct{}

// Closed is the pull request being closed
type Closed struct{}

func (Open) Kind() Kind   { return KindOpen }
func (Commit) Kind() Kind { return KindCommit }
func (Review) Kind() Kind { return KindReview }
func (Merged) Kind() Kind { return KindMerged }
func (Closed) Kind() Kind { return KindClosed }

func (Open) detail()   {}
func (Commit) detail() {}
func (Review) detail() {}
func (Merged) detail() {}
func (Closed) detail() {}

// Event is one normalized timeline entry
type Event struct {
	// Actor is the login, empty when the account is unknown or deleted
	Actor string
	// Teams of Actor, empty when Actor is
	Teams []string
	// Timestamp is the source text, At its parsed instant
	Timestamp string
	At        time.Time
	// Delay is the elapsed hours since the previous event of the pull request
	Delay  float64
	Detail Detail
}

// Kind is shorthand for e.Detail.Kind()
func (e Event) Kind() Kind { return e.Detail.Kind() }

// PullRequest is the assembled timeline of one pull request
type PullRequest struct {
	Number         int
	Title          string
	DiffSize       int
	Author         string
	Events         []Event
	Reviewers      []string
	AuthoringTeams []string
	ReviewingTeams []string
}

// TeamLookup resolves logins to teams
type TeamLookup interface {
	Lookup(login string) []string
	LookupMany(logins ...string) []string
}
