package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUptime(t *testing.T) {
	birthday := time.Date(2004, time.April, 4, 0, 0, 0, 0, time.UTC)
	testCases := []struct {
		name     string
		now      time.Time
		expected string
	}{
		{
			name:     "exact birthday",
			now:      time.Date(2026, time.April, 4, 12, 0, 0, 0, time.UTC),
			expected: "22 years, 0 months, 0 days",
		},
		{
			name:     "singular units",
			now:      time.Date(2005, time.May, 5, 0, 0, 0, 0, time.UTC),
			expected: "1 year, 1 month, 1 day",
		},
		{
			name:     "day borrow from previous month",
			now:      time.Date(2026, time.October, 2, 0, 0, 0, 0, time.UTC),
			expected: "22 years, 5 months, 28 days",
		},
		{
			name:     "month borrow from previous year",
			now:      time.Date(2027, time.February, 10, 0, 0, 0, 0, time.UTC),
			expected: "22 years, 10 months, 6 days",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Uptime(birthday, tc.now))
		})
	}
}
