// Package report flattens pull request timelines into one row per event
package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"prtimeline/internal/core/timeline"
	perr "prtimeline/internal/platform/errors"
)

// Format selects the delimiter of the text report
type Format string

const (
	FormatTSV Format = "tsv"
	FormatCSV Format = "csv"
)

// Header is the fixed column order
var Header = []string{
	"timestamp", "actor", "event_type", "delay", "pr_number",
	"pr_size", "from_teams", "to_teams", "review_state", "review_comments",
}

// Row is one event of one pull request
type Row struct {
	Timestamp      string   `json:"timestamp"`
	Actor          string   `json:"actor"`
	EventType      string   `json:"event_type"`
	Delay          float64  `json:"delay"`
	PRNumber       int      `json:"pr_number"`
	PRSize         int      `json:"pr_size"`
	FromTeams      []string `json:"from_teams"`
	ToTeams        []string `json:"to_teams"`
	ReviewState    string   `json:"review_state"`
	ReviewComments int      `json:"review_comments"`
}

// Rows expands a pull request into its event rows, in timeline order
func Rows(pr timeline.PullRequest) []Row {
	out := make([]Row, 0, len(pr.Events))
	for _, ev := range pr.Events {
		r := Row{
			Timestamp: ev.Timestamp,
			Actor:     ev.Actor,
			EventType: ev.Kind().String(),
			Delay:     ev.Delay,
			PRNumber:  pr.Number,
			PRSize:    pr.DiffSize,
			FromTeams: pr.AuthoringTeams,
			ToTeams:   pr.ReviewingTeams,
		}
		switch d := ev.Detail.(type) {
		case timeline.Review:
			r.ReviewState = d.State.DisplayName()
			r.ReviewComments = d.Comments
		case timeline.Open, timeline.Commit, timeline.Merged, timeline.Closed:
		default:
			panic("report: unhandled event detail " + ev.Kind().String())
		}
		out = append(out, r)
	}
	return out
}

// Record renders the row in Header order
func (r Row) Record() []string {
	return []string{
		r.Timestamp,
		r.Actor,
		r.EventType,
		strconv.FormatFloat(r.Delay, 'f', 3, 64),
		strconv.Itoa(r.PRNumber),
		strconv.Itoa(r.PRSize),
		strings.Join(r.FromTeams, ","),
		strings.Join(r.ToTeams, ","),
		r.ReviewState,
		strconv.Itoa(r.ReviewComments),
	}
}

// Writer streams rows as delimited text. The header is written before the first row
type Writer struct {
	w      *csv.Writer
	header bool
}

// NewWriter returns a Writer; unknown formats fall back to tsv
func NewWriter(w io.Writer, f Format) *Writer {
	cw := csv.NewWriter(w)
	if f != FormatCSV {
		cw.Comma = '\t'
	}
	return &Writer{w: cw}
}

// WriteHeader writes the header once
func (w *Writer) WriteHeader() error {
	if w.header {
		return nil
	}
	w.header = true
	return perr.WrapIf(w.w.Write(Header), perr.ErrorCodeUnknown, "write report header")
}

// Write appends every event row of pr
func (w *Writer) Write(pr timeline.PullRequest) error {
	if err := w.WriteHeader(); err != nil {
		return err
	}
	for _, r := range Rows(pr) {
		if err := w.w.Write(r.Record()); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeUnknown, "write report row for pull request #%d", pr.Number)
		}
	}
	return nil
}

// Flush pushes buffered rows to the underlying writer
func (w *Writer) Flush() error {
	w.w.Flush()
	return perr.WrapIf(w.w.Error(), perr.ErrorCodeUnknown, "flush report")
}
