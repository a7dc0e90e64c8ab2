package timeline

import (
	"fmt"
	"slices"
	"time"

	perr "prtimeline/internal/platform/errors"
	ptime "prtimeline/internal/platform/time"
	"prtimeline/internal/platform/validate"
)

// Build assembles the timeline of one pull request: a synthetic Open at creation,
// every timeline item normalized, stable chronological order and per event delays.
// Any bad item fails the whole pull request
func Build(raw RawPullRequest, idx TeamLookup) (PullRequest, error) {
	if err := validate.Get().Validator.Struct(raw); err != nil {
		field, _ := validate.FieldAndMessage(err)
		return PullRequest{}, perr.MissingFieldf(field, "pull request %s: missing %s", label(raw), field)
	}
	number := *raw.Number

	created, err := parseTime(*raw.CreatedAt, "createdAt")
	if err != nil {
		return PullRequest{}, annotate(err, number, -1)
	}

	// a deleted account comes back as a null author
	author := ""
	if raw.Author != nil {
		author = *raw.Author.Login
	}

	items := raw.TimelineItems.Nodes
	events := make([]Event, 0, len(items)+1)
	events = append(events, Event{
		Actor:     author,
		Teams:     teamsOf(idx, author),
		Timestamp: *raw.CreatedAt,
		At:        created,
		Detail:    Open{},
	})

	var reviewers []string
	for i, item := range items {
		ev, err := Normalize(item, idx)
		if err != nil {
			return PullRequest{}, annotate(err, number, i)
		}
		if ev.Kind() == KindReview && ev.Actor != "" {
			reviewers = append(reviewers, ev.Actor)
		}
		events = append(events, ev)
	}
	slices.Sort(reviewers)
	reviewers = slices.Compact(reviewers)
	if reviewers == nil {
		reviewers = []string{}
	}

	slices.SortStableFunc(events, func(a, b Event) int { return a.At.Compare(b.At) })
	for i := 1; i < len(events); i++ {
		events[i].Delay = DelayHours(events[i].At.Sub(events[i-1].At))
	}

	var reviewing []string
	if idx != nil {
		reviewing = idx.LookupMany(reviewers...)
	} else {
		reviewing = []string{}
	}

	return PullRequest{
		Number:         number,
		Title:          *raw.Title,
		DiffSize:       *raw.Additions + *raw.Deletions,
		Author:         author,
		Events:         events,
		Reviewers:      reviewers,
		AuthoringTeams: teamsOf(idx, author),
		ReviewingTeams: reviewing,
	}, nil
}

// DelayHours counts whole elapsed minutes, truncated toward zero, expressed in hours
func DelayHours(d time.Duration) float64 { return ptime.Hours(d) }

// annotate prefixes err with the pull request and item position, keeping code and field
func annotate(err error, number, item int) error {
	e, ok := perr.As(err)
	if !ok {
		return err
	}
	where := fmt.Sprintf("pull request #%d", number)
	if item >= 0 {
		where += fmt.Sprintf(" timeline item %d", item)
	}
	return perr.WithField(perr.Wrapf(err, e.Code(), "%s", where), e.Field())
}

func label(raw RawPullRequest) string {
	if raw.Number == nil {
		return "?"
	}
	return fmt.Sprintf("#%d", *raw.Number)
}
