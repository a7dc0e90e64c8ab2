// Package strings provides small string and slice helpers
package strings

import std "strings"

// IfEmpty returns def if in is empty, otherwise returns in
func IfEmpty[T any](in []T, def []T) []T {
	if len(in) == 0 {
		return def
	}
	return in
}

// MustPrefix normalizes a route prefix to one leading slash and no trailing slash.
// "" and "/" normalize to "" so a module can mount at the root
func MustPrefix(s string) string {
	s = std.Trim(std.TrimSpace(s), "/")
	if s == "" {
		return ""
	}
	if std.ContainsAny(s, " \t") {
		panic("route prefix contains whitespace: " + s)
	}
	return "/" + s
}

// SQLNull returns nil if s is blank, else s, so blanks are written as NULL
func SQLNull(s string) any {
	if std.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// Join is strings.Join that renders a nil slice the same as an empty one
func Join(xs []string, sep string) string {
	if len(xs) == 0 {
		return ""
	}
	return std.Join(xs, sep)
}
