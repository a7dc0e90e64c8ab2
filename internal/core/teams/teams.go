// Package teams resolves GitHub logins to the org teams they belong to
package teams

import (
	"slices"

	"golang.org/x/text/cases"
)

// Team is one roster entry as returned by the org teams query
type Team struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// Index is a read-only login -> team names mapping. Safe for concurrent reads
type Index struct {
	byLogin map[string][]string
}

// Build indexes a roster. A member listed in several teams gains every team name
func Build(roster []Team) *Index {
	idx := &Index{byLogin: make(map[string][]string)}
	for _, t := range roster {
		for _, m := range t.Members {
			k := key(m)
			if k == "" || slices.Contains(idx.byLogin[k], t.Name) {
				continue
			}
			idx.byLogin[k] = append(idx.byLogin[k], t.Name)
		}
	}
	for k := range idx.byLogin {
		slices.Sort(idx.byLogin[k])
	}
	return idx
}

// key folds a login; GitHub treats logins case-insensitively.
// A Caser is stateful so each call gets its own
func key(login string) string { return cases.Fold().String(login) }

// Lookup returns the sorted teams of login, empty for unknown logins
func (x *Index) Lookup(login string) []string {
	if x == nil || login == "" {
		return []string{}
	}
	ts, ok := x.byLogin[key(login)]
	if !ok {
		return []string{}
	}
	return slices.Clone(ts)
}

// LookupMany returns the sorted, deduplicated union of the teams of every login
func (x *Index) LookupMany(logins ...string) []string {
	out := []string{}
	if x == nil {
		return out
	}
	for _, l := range logins {
		if l == "" {
			continue
		}
		out = append(out, x.byLogin[key(l)]...)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Len reports how many distinct logins are indexed
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.byLogin)
}
