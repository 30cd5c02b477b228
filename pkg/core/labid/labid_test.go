package labid

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "increments counter", in: "2510014360", want: "2510014361"},
		{name: "carries across digits", in: "2510010099", want: "2510010100"},
		{name: "wraps without touching prefix", in: "2510019999", want: "2510010001"},
		{name: "short input unchanged", in: "251001", want: "251001"},
		{name: "long input unchanged", in: "25100143600", want: "25100143600"},
		{name: "empty input unchanged", in: "", want: ""},
		{name: "non-numeric counter restarts", in: "251001abcd", want: "2510010001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Next(tt.in))
		})
	}
}

func TestPrev(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "decrements counter", in: "2510014361", want: "2510014360"},
		{name: "borrows across digits", in: "2510010100", want: "2510010099"},
		{name: "wraps at one", in: "2510010001", want: "2510019999"},
		{name: "wraps at zero", in: "2510010000", want: "2510019999"},
		{name: "malformed length unchanged", in: "abc", want: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Prev(tt.in))
		})
	}
}

func TestPrevInvertsNext(t *testing.T) {
	for counter := 1; counter < MaxCounter; counter += 97 {
		id := fmt.Sprintf("251001%04d", counter)
		assert.Equal(t, id, Prev(Next(id)), "id %s", id)
		if counter > 1 {
			assert.Equal(t, id, Next(Prev(id)), "id %s", id)
		}
	}
}

func TestWrapBoundaries(t *testing.T) {
	// 9999 -> 0001 -> 9999: predecessor of the wrapped id is the max counter.
	assert.Equal(t, "2510019999", Prev(Next("2510019999")))
	// 0001 -> 9999 -> 0001
	assert.Equal(t, "2510010001", Next(Prev("2510010001")))
	// The prefix never rolls over.
	assert.Equal(t, "251001", Next("2510019999")[:PrefixLength])
}

func TestRange(t *testing.T) {
	t.Run("inclusive same prefix", func(t *testing.T) {
		got := Range("2510014360", "2510014370")
		require.Len(t, got, 11)
		assert.Equal(t, "2510014360", got[0])
		assert.Equal(t, "2510014370", got[10])
		for i := 1; i < len(got); i++ {
			assert.Equal(t, Next(got[i-1]), got[i])
		}
	})

	t.Run("single element", func(t *testing.T) {
		assert.Equal(t, []string{"2510014360"}, Range("2510014360", "2510014360"))
	})

	t.Run("reversed bounds are empty", func(t *testing.T) {
		assert.Empty(t, Range("2510014370", "2510014360"))
	})

	t.Run("malformed bounds are empty", func(t *testing.T) {
		assert.Empty(t, Range("251001436", "2510014370"))
		assert.Empty(t, Range("2510014360", "25100143700"))
	})

	t.Run("capped at max range", func(t *testing.T) {
		got := Range("2510010001", "2510019999")
		require.Len(t, got, MaxRange)
		assert.Equal(t, "2510010500", got[MaxRange-1])
	})

	t.Run("unreachable end stops at cap", func(t *testing.T) {
		// Different prefix: the counter wraps inside 251001 forever.
		got := Range("2510019990", "2510020005")
		assert.Len(t, got, MaxRange)
	})

	t.Run("fresh slice per call", func(t *testing.T) {
		a := Range("2510010001", "2510010003")
		a[0] = "mutated"
		b := Range("2510010001", "2510010003")
		assert.Equal(t, "2510010001", b[0])
	})
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("2510014360"))
	assert.True(t, Valid("ABCDEF0001"))
	assert.False(t, Valid("251001436"))
	assert.False(t, Valid("251001abcd"))
}

func TestCounter(t *testing.T) {
	assert.Equal(t, 4360, Counter("2510014360"))
	assert.Equal(t, 0, Counter("bad"))
	assert.Equal(t, 12, Counter("25100112ab"))
	assert.Equal(t, 0, Counter("251001ab12"))
}

func TestPartlyNumericCounter(t *testing.T) {
	assert.Equal(t, "2510010013", Next("25100112ab"))
	assert.Equal(t, "2510010011", Prev("25100112ab"))
	assert.Equal(t, "2510010001", Next("251001ab12"))
	assert.Equal(t, "2510019999", Prev("251001ab12"))
}
