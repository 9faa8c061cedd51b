// Cambist - Currency Exchange Operations Dashboard
// Copyright 2026 Cambist Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package scheduler

import (
	"testing"
	"time"

	"github.com/cambist/cambist/internal/models"
)

func mustLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("time zone database missing %s: %v", name, err)
	}
	return loc
}

func TestNextRunDaily(t *testing.T) {
	cadence := Cadence{Type: models.CadenceDaily, TriggerTime: "02:30"}
	loc := time.UTC

	// Before the trigger time: fires today.
	after := time.Date(2026, 3, 10, 1, 0, 0, 0, loc)
	next, err := cadence.NextRun(after, loc)
	if err != nil {
		t.Fatalf("NextRun failed: %v", err)
	}
	want := time.Date(2026, 3, 10, 2, 30, 0, 0, loc)
	if !next.Equal(want) {
		t.Errorf("next = %v, want %v", next, want)
	}

	// At the trigger instant: fires tomorrow, never the same instant.
	next, err = cadence.NextRun(want, loc)
	if err != nil {
		t.Fatalf("NextRun failed: %v", err)
	}
	if !next.Equal(want.AddDate(0, 0, 1)) {
		t.Errorf("next = %v, want tomorrow", next)
	}
}

func TestNextRunWeekly(t *testing.T) {
	// Mondays and Fridays at 18:00.
	cadence := Cadence{Type: models.CadenceWeekly, TriggerTime: "18:00", DaysOfWeek: []int{1, 5}}
	loc := time.UTC

	// Wednesday 2026-03-11; the next match is Friday the 13th.
	after := time.Date(2026, 3, 11, 9, 0, 0, 0, loc)
	next, err := cadence.NextRun(after, loc)
	if err != nil {
		t.Fatalf("NextRun failed: %v", err)
	}
	want := time.Date(2026, 3, 13, 18, 0, 0, 0, loc)
	if !next.Equal(want) {
		t.Errorf("next = %v, want %v", next, want)
	}

	// Friday after the trigger passed: rolls to Monday the 16th.
	after = time.Date(2026, 3, 13, 19, 0, 0, 0, loc)
	next, err = cadence.NextRun(after, loc)
	if err != nil {
		t.Fatalf("NextRun failed: %v", err)
	}
	want = time.Date(2026, 3, 16, 18, 0, 0, 0, loc)
	if !next.Equal(want) {
		t.Errorf("next = %v, want %v", next, want)
	}
}

func TestNextRunMonthlyClampsShortMonths(t *testing.T) {
	cadence := Cadence{Type: models.CadenceMonthly, TriggerTime: "01:00", DayOfMonth: 31}
	loc := time.UTC

	// April has 30 days; day 31 fires on the 30th.
	after := time.Date(2026, 4, 2, 0, 0, 0, 0, loc)
	next, err := cadence.NextRun(after, loc)
	if err != nil {
		t.Fatalf("NextRun failed: %v", err)
	}
	want := time.Date(2026, 4, 30, 1, 0, 0, 0, loc)
	if !next.Equal(want) {
		t.Errorf("next = %v, want %v", next, want)
	}
}

func TestNextRunMonthlyFebruary(t *testing.T) {
	cadence := Cadence{Type: models.CadenceMonthly, TriggerTime: "04:00", DayOfMonth: 29}
	loc := time.UTC

	// 2026 is not a leap year; day 29 fires on February 28.
	after := time.Date(2026, 2, 1, 0, 0, 0, 0, loc)
	next, err := cadence.NextRun(after, loc)
	if err != nil {
		t.Fatalf("NextRun failed: %v", err)
	}
	want := time.Date(2026, 2, 28, 4, 0, 0, 0, loc)
	if !next.Equal(want) {
		t.Errorf("next = %v, want %v", next, want)
	}
}

func TestNextRunEvaluatesInBusinessTimezone(t *testing.T) {
	cadence := Cadence{Type: models.CadenceDaily, TriggerTime: "09:00"}
	loc := mustLocation(t, "America/New_York")

	// 13:00 UTC on 2026-03-10 is 09:00 in New York (EDT, UTC-4); one
	// minute past means the trigger fires tomorrow, New York time.
	after := time.Date(2026, 3, 10, 13, 1, 0, 0, time.UTC)
	next, err := cadence.NextRun(after, loc)
	if err != nil {
		t.Fatalf("NextRun failed: %v", err)
	}
	want := time.Date(2026, 3, 11, 9, 0, 0, 0, loc)
	if !next.Equal(want) {
		t.Errorf("next = %v, want %v", next, want)
	}
}

func TestNextRunNeverReturnsPast(t *testing.T) {
	cadence := Cadence{Type: models.CadenceWeekly, TriggerTime: "00:00", DaysOfWeek: []int{0}}
	loc := time.UTC
	after := time.Date(2026, 3, 8, 0, 0, 0, 0, loc) // Sunday midnight exactly

	next, err := cadence.NextRun(after, loc)
	if err != nil {
		t.Fatalf("NextRun failed: %v", err)
	}
	if !next.After(after) {
		t.Errorf("next = %v, must be strictly after %v", next, after)
	}
}

func TestCadenceValidate(t *testing.T) {
	cases := []struct {
		name    string
		cadence Cadence
		wantErr bool
	}{
		{"daily", Cadence{Type: models.CadenceDaily, TriggerTime: "02:00"}, false},
		{"weekly", Cadence{Type: models.CadenceWeekly, TriggerTime: "02:00", DaysOfWeek: []int{0, 6}}, false},
		{"monthly", Cadence{Type: models.CadenceMonthly, TriggerTime: "02:00", DayOfMonth: 15}, false},
		{"bad time", Cadence{Type: models.CadenceDaily, TriggerTime: "25:00"}, true},
		{"no colon", Cadence{Type: models.CadenceDaily, TriggerTime: "0200"}, true},
		{"weekly without days", Cadence{Type: models.CadenceWeekly, TriggerTime: "02:00"}, true},
		{"weekday out of range", Cadence{Type: models.CadenceWeekly, TriggerTime: "02:00", DaysOfWeek: []int{7}}, true},
		{"monthly day zero", Cadence{Type: models.CadenceMonthly, TriggerTime: "02:00"}, true},
		{"monthly day 32", Cadence{Type: models.CadenceMonthly, TriggerTime: "02:00", DayOfMonth: 32}, true},
		{"unknown type", Cadence{Type: "hourly", TriggerTime: "02:00"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cadence.Validate()
			if tc.wantErr && err == nil {
				t.Error("expected an error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
