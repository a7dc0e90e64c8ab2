package timeline

import (
	"time"

	perr "prtimeline/internal/platform/errors"
)

// Normalize converts one raw timeline item into an Event with Delay left at 0.
// It is pure: the same input and lookup always produce the same Event
func Normalize(raw RawEvent, idx TeamLookup) (Event, error) {
	var (
		ts     *string
		tsName string
		actor  *Login
		detail Detail
	)

	switch raw.Typename {
	case TypeCommit:
		c := raw.Commit
		if c == nil || c.Commit == nil {
			return Event{}, perr.MissingFieldf("commit", "%s without commit", raw.Typename)
		}
		if c.Commit.OID == nil {
			return Event{}, perr.MissingFieldf("commit.oid", "%s without commit.oid", raw.Typename)
		}
		ts, tsName = c.Commit.CommittedDate, "commit.committedDate"
		if a := c.Commit.Author; a != nil {
			actor = a.User
		}
		detail = Commit{SHA: *c.Commit.OID}

	case TypeReview:
		r := raw.Review
		if r == nil {
			return Event{}, perr.MissingFieldf(raw.Typename, "%s without payload", raw.Typename)
		}
		if r.State == nil {
			return Event{}, perr.MissingFieldf("state", "%s without state", raw.Typename)
		}
		state, err := ParseReviewState(*r.State)
		if err != nil {
			return Event{}, err
		}
		if r.Comments == nil || r.Comments.TotalCount == nil {
			return Event{}, perr.MissingFieldf("comments.totalCount", "%s without comments.totalCount", raw.Typename)
		}
		ts, tsName, actor = r.PublishedAt, "publishedAt", r.Author
		detail = Review{State: state, Comments: *r.Comments.TotalCount}

	case TypeMerged, TypeClosed:
		a := raw.Merged
		detail = Detail(Merged{})
		if raw.Typename == TypeClosed {
			a, detail = raw.Closed, Closed{}
		}
		if a == nil {
			return Event{}, perr.MissingFieldf(raw.Typename, "%s without payload", raw.Typename)
		}
		ts, tsName, actor = a.CreatedAt, "createdAt", a.Actor

	default:
		return Event{}, perr.WithField(perr.Newf(perr.ErrorCodeUnrecognizedEventKind, "unrecognized event kind %q", raw.Typename), "__typename")
	}

	if ts == nil {
		return Event{}, perr.MissingFieldf(tsName, "%s without %s", raw.Typename, tsName)
	}
	at, err := parseTime(*ts, tsName)
	if err != nil {
		return Event{}, err
	}

	login := ""
	if actor != nil && actor.Login != nil {
		login = *actor.Login
	}
	return Event{
		Actor:     login,
		Teams:     teamsOf(idx, login),
		Timestamp: *ts,
		At:        at,
		Detail:    detail,
	}, nil
}

// parseTime accepts RFC 3339 as GitHub's DateTime scalar is serialized
func parseTime(s, field string) (time.Time, error) {
	at, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, perr.WithField(perr.Wrapf(err, perr.ErrorCodeInvalidTimestamp, "invalid %s %q", field, s), field)
	}
	return at, nil
}

func teamsOf(idx TeamLookup, login string) []string {
	if login == "" || idx == nil {
		return []string{}
	}
	return idx.Lookup(login)
}
