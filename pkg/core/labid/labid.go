// Package labid implements the fixed-width lab identifier keyspace.
//
// An identifier is exactly 10 characters: a 6-character opaque prefix
// (usually an operator-assigned date) followed by a 4-digit zero-padded
// counter in [1, 9999]. Inputs of any other length pass through the codec
// unchanged; they are never rejected.
//
// The counter wraps inside its own 4 digits and never carries into the
// prefix, so Next("2510019999") is "2510010001", not the next day's first id.
package labid

import (
	"fmt"
)

const (
	// Length is the only identifier length the codec operates on.
	Length = 10
	// PrefixLength is the size of the opaque leading part.
	PrefixLength = 6
	// MaxCounter is the largest counter value before wrap.
	MaxCounter = 9999
	// MaxRange caps Range output as a runaway-loop guard.
	MaxRange = 500
)

// Next returns the successor of id.
func Next(id string) string {
	if len(id) != Length {
		return id
	}
	prefix, counter := split(id)
	if counter >= MaxCounter {
		return prefix + "0001"
	}
	return format(prefix, counter+1)
}

// Prev returns the predecessor of id.
func Prev(id string) string {
	if len(id) != Length {
		return id
	}
	prefix, counter := split(id)
	if counter <= 1 {
		return prefix + "9999"
	}
	return format(prefix, counter-1)
}

// Range expands [start, end] into the ordered identifiers between them.
//
// The result is empty when either bound has the wrong length or start sorts
// after end. Generation stops at end or after MaxRange entries, whichever
// comes first. Each call returns a fresh slice.
func Range(start, end string) []string {
	if len(start) != Length || len(end) != Length {
		return []string{}
	}
	if start > end {
		return []string{}
	}

	ids := make([]string, 0, min(MaxRange, 64))
	current := start
	for current <= end {
		ids = append(ids, current)
		if current == end || len(ids) >= MaxRange {
			break
		}
		current = Next(current)
	}
	return ids
}

// Valid reports whether id has the identifier shape: 10 characters with a
// numeric counter. The codec functions do not consult it.
func Valid(id string) bool {
	if len(id) != Length {
		return false
	}
	for _, c := range id[PrefixLength:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Counter returns the numeric counter of id, or 0 for malformed input.
func Counter(id string) int {
	if len(id) != Length {
		return 0
	}
	_, counter := split(id)
	return counter
}

// split parses the leading digits of the tail, so "12ab" counts as 12. A
// tail with no leading digit counts as 0: Next yields 0001, Prev wraps to 9999.
func split(id string) (string, int) {
	prefix := id[:PrefixLength]
	counter := 0
	for _, c := range []byte(id[PrefixLength:]) {
		if c < '0' || c > '9' {
			break
		}
		counter = counter*10 + int(c-'0')
	}
	return prefix, counter
}

func format(prefix string, counter int) string {
	return prefix + fmt.Sprintf("%04d", counter)
}
