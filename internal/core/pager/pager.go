// Package pager walks a cursor-paginated source in bounded pages up to a target total
package pager

import (
	"context"
	"iter"

	perr "prtimeline/internal/platform/errors"
)

// MaxPageSize is the largest page the GitHub GraphQL API serves
const MaxPageSize = 100

// Request asks the source for one page
type Request struct {
	Owner string
	Name  string
	Limit int
	After *string
}

// Page is one response from the source
type Page[T any] struct {
	Records     []T
	EndCursor   *string
	HasNextPage bool
}

// FetchFunc retrieves one page. It is the only blocking step of the cursor
type FetchFunc[T any] func(ctx context.Context, req Request) (Page[T], error)

// Cursor is a restartable, finite producer of pages. Not safe for concurrent use
type Cursor[T any] struct {
	owner string
	name  string
	total int
	fetch FetchFunc[T]

	after   *string
	fetched int
	pages   int
	done    bool
}

// New returns a cursor that yields at most total records from fetch
func New[T any](owner, name string, total int, fetch FetchFunc[T]) *Cursor[T] {
	if total < 0 {
		total = 0
	}
	return &Cursor[T]{owner: owner, name: name, total: total, fetch: fetch}
}

// Next fetches the next batch. ok is false once the sequence is exhausted or has failed.
// Records already returned stand when a later page fails
func (c *Cursor[T]) Next(ctx context.Context) (batch []T, ok bool, err error) {
	remaining := c.total - c.fetched
	if c.done || remaining <= 0 {
		c.done = true
		return nil, false, nil
	}

	req := Request{Owner: c.owner, Name: c.name, Limit: min(MaxPageSize, remaining), After: c.after}
	page, err := c.fetch(ctx, req)
	if err != nil {
		c.done = true
		if perr.IsCode(err, perr.ErrorCodeFetchFailed) {
			return nil, false, err
		}
		return nil, false, perr.Wrapf(err, perr.ErrorCodeFetchFailed, "fetch %s/%s page %d failed", c.owner, c.name, c.pages+1)
	}

	recs := page.Records
	if len(recs) > req.Limit {
		recs = recs[:req.Limit]
	}
	if page.HasNextPage {
		switch {
		case page.EndCursor == nil || *page.EndCursor == "":
			c.done = true
			return nil, false, perr.FetchFailedf("fetch %s/%s page %d: more pages claimed without an end cursor", c.owner, c.name, c.pages+1)
		case len(recs) == 0:
			c.done = true
			return nil, false, perr.FetchFailedf("fetch %s/%s page %d: empty page while more pages claimed", c.owner, c.name, c.pages+1)
		}
	}

	c.pages++
	c.fetched += len(recs)
	c.after = page.EndCursor
	if !page.HasNextPage || c.fetched >= c.total {
		c.done = true
	}
	if len(recs) == 0 {
		return nil, false, nil
	}
	return recs, true, nil
}

// All adapts Next to a range-over-func iterator. Iteration stops after the first error
func (c *Cursor[T]) All(ctx context.Context) iter.Seq2[[]T, error] {
	return func(yield func([]T, error) bool) {
		for {
			batch, ok, err := c.Next(ctx)
			if err != nil {
				yield(nil, err)
				return
			}
			if !ok || !yield(batch, nil) {
				return
			}
		}
	}
}

// Reset rewinds the cursor to the first page
func (c *Cursor[T]) Reset() {
	c.after = nil
	c.fetched = 0
	c.pages = 0
	c.done = false
}

// Fetched reports how many records have been yielded so far
func (c *Cursor[T]) Fetched() int { return c.fetched }

// Pages reports how many pages have been fetched so far
func (c *Cursor[T]) Pages() int { return c.pages }

// Total is the target number of records
func (c *Cursor[T]) Total() int { return c.total }
