package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_Format(t *testing.T) {
	testCases := []struct {
		name     string
		value    Value
		expected string
		raw      string
	}{
		{name: "zero", value: Int(0), expected: "0", raw: "0"},
		{name: "below a thousand", value: Int(365), expected: "365", raw: "365"},
		{name: "one group", value: Int(1234), expected: "1,234", raw: "1234"},
		{name: "several groups", value: Int(1234567), expected: "1,234,567", raw: "1234567"},
		{name: "text is untouched", value: Text("Go, Shell"), expected: "Go, Shell", raw: "Go, Shell"},
		{name: "zero value is integer zero", value: Value{}, expected: "0", raw: "0"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.value.Format())
			assert.Equal(t, tc.raw, tc.value.Raw())
		})
	}
}

// Formatting depends on n alone: stripping the separators and formatting
// again gives the same string.
func TestValue_FormatIsPure(t *testing.T) {
	for _, n := range []int{0, 7, 999, 1000, 65536, 1000000, 987654321} {
		first := Int(n).Format()
		var reparsed int
		_, err := fmt.Sscan(strings.ReplaceAll(first, ",", ""), &reparsed)
		require.NoError(t, err)
		assert.Equal(t, n, reparsed)
		assert.Equal(t, first, Int(reparsed).Format())
	}
}

func TestSnapshot(t *testing.T) {
	s := NewSnapshot()
	s.Set(Followers, Int(42))
	s.Set(Repos, Int(6))
	s.Set(Age, Text("22 years, 1 month, 3 days"))
	s.Set(Followers, Int(43))

	assert.Equal(t, []Counter{Followers, Repos, Age}, s.Names())
	assert.Equal(t, 3, s.Len())

	v, ok := s.Get(Followers)
	require.True(t, ok)
	assert.Equal(t, "43", v.Raw())

	_, ok = s.Get(Stars)
	assert.False(t, ok)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, `{"followers":43,"repos":6,"age":"22 years, 1 month, 3 days"}`, string(data))
}

func TestErrors_Unwrap(t *testing.T) {
	cause := errors.New("boom")

	var fetchErr *FetchError
	err := fmt.Errorf("collect: %w", &FetchError{Op: "stars", Err: cause})
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, "stars", fetchErr.Op)
	assert.ErrorIs(t, err, cause)

	var docErr *DocumentError
	err = &DocumentError{Path: "banner.svg", Err: cause}
	require.True(t, errors.As(err, &docErr))
	assert.Equal(t, "document banner.svg: boom", err.Error())
}
