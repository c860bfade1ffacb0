package domain

import (
	"fmt"
	"time"
)

// Uptime describes the calendar distance from birthday to now,
// e.g. "22 years, 1 month, 3 days".
func Uptime(birthday, now time.Time) string {
	years := now.Year() - birthday.Year()
	months := int(now.Month()) - int(birthday.Month())
	days := now.Day() - birthday.Day()

	if days < 0 {
		months--
		// Borrow the length of the month preceding now's month.
		days += time.Date(now.Year(), now.Month(), 0, 0, 0, 0, 0, time.UTC).Day()
	}
	if months < 0 {
		years--
		months += 12
	}
	return fmt.Sprintf("%s, %s, %s", plural(years, "year"), plural(months, "month"), plural(days, "day"))
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
