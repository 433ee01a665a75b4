package server

import (
	"iter"
	"strings"
)

// lines yields the newline separated pieces of s, dropping a trailing
// carriage return from each. A trailing newline does not yield an empty
// last piece.
func lines(s string) iter.Seq[string] {
	return func(yield func(string) bool) {
		s = strings.TrimSuffix(s, "\n")
		found := true
		var piece string
		for found {
			piece, s, found = strings.Cut(s, "\n")
			if !yield(strings.TrimSuffix(piece, "\r")) {
				return
			}
		}
	}
}
