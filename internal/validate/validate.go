// Package validate holds the input format checks shared by the booking and
// doctor directory flows. They check shape only, never calendar or clock
// ranges.
package validate

import "regexp"

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern  = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// Email accepts anything shaped like local@domain.tld.
func Email(s string) bool { return emailPattern.MatchString(s) }

// Date accepts YYYY-MM-DD digit groups; 2025-13-40 passes.
func Date(s string) bool { return datePattern.MatchString(s) }

// Time accepts HH:MM digit groups; 25:99 passes.
func Time(s string) bool { return timePattern.MatchString(s) }
