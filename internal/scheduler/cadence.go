// Cambist - Currency Exchange Operations Dashboard
// Copyright 2026 Cambist Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cambist/cambist/internal/models"
)

// maxScanDays bounds the day-by-day search for the next trigger. Any
// valid cadence fires within 366 days (monthly day 29 across a leap
// year boundary is the worst case).
const maxScanDays = 366

// Cadence is the recurrence rule of one schedule, detached from its
// persistence row so the time math is testable on its own.
type Cadence struct {
	Type        models.CadenceType
	TriggerTime string
	DaysOfWeek  []int
	DayOfMonth  int
}

// CadenceOf extracts the recurrence rule from a schedule row.
func CadenceOf(s *models.BackupSchedule) Cadence {
	return Cadence{
		Type:        s.CadenceType,
		TriggerTime: s.TriggerTime,
		DaysOfWeek:  s.DaysOfWeek,
		DayOfMonth:  s.DayOfMonth,
	}
}

// Validate checks the rule is well-formed.
func (c Cadence) Validate() error {
	if _, _, err := parseTriggerTime(c.TriggerTime); err != nil {
		return err
	}

	switch c.Type {
	case models.CadenceDaily:
		return nil
	case models.CadenceWeekly:
		if len(c.DaysOfWeek) == 0 {
			return fmt.Errorf("weekly cadence needs at least one weekday")
		}
		for _, d := range c.DaysOfWeek {
			if d < 0 || d > 6 {
				return fmt.Errorf("weekday out of range: %d", d)
			}
		}
		return nil
	case models.CadenceMonthly:
		if c.DayOfMonth < 1 || c.DayOfMonth > 31 {
			return fmt.Errorf("day of month out of range: %d", c.DayOfMonth)
		}
		return nil
	default:
		return fmt.Errorf("unknown cadence type: %q", c.Type)
	}
}

// NextRun computes the first trigger strictly after the given instant,
// evaluated in loc. It scans day by day from the reference date and
// returns the first day the rule matches whose trigger time has not
// passed yet. A monthly day beyond a month's length clamps to that
// month's last day, so day 31 still fires in April and day 29 in
// February outside leap years.
func (c Cadence) NextRun(after time.Time, loc *time.Location) (time.Time, error) {
	hour, minute, err := parseTriggerTime(c.TriggerTime)
	if err != nil {
		return time.Time{}, err
	}
	if err := c.Validate(); err != nil {
		return time.Time{}, err
	}

	local := after.In(loc)
	for offset := 0; offset <= maxScanDays; offset++ {
		day := local.AddDate(0, 0, offset)
		if !c.matchesDay(day) {
			continue
		}
		candidate := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
		if candidate.After(after) {
			return candidate, nil
		}
	}
	return time.Time{}, fmt.Errorf("no trigger within %d days", maxScanDays)
}

func (c Cadence) matchesDay(day time.Time) bool {
	switch c.Type {
	case models.CadenceDaily:
		return true
	case models.CadenceWeekly:
		weekday := int(day.Weekday())
		for _, d := range c.DaysOfWeek {
			if d == weekday {
				return true
			}
		}
		return false
	case models.CadenceMonthly:
		target := c.DayOfMonth
		if last := lastDayOfMonth(day); target > last {
			target = last
		}
		return day.Day() == target
	default:
		return false
	}
}

func lastDayOfMonth(day time.Time) int {
	firstOfNext := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location()).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1).Day()
}

// parseTriggerTime parses a "HH:MM" 24h clock time.
func parseTriggerTime(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid trigger time %q, want HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid trigger hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid trigger minute in %q", s)
	}
	return hour, minute, nil
}
