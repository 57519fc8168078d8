// Package reminder sweeps open payment obligations and sends escalating
// deadline reminders. Cadence tightens as the deadline approaches; the
// notification history makes each sweep idempotent within a tier's window.
package reminder

import (
	"fmt"
	"math"
	"time"
)

// Tier pairs a remaining-time threshold with the reminder interval that
// applies while more than HoursBeforeDeadline hours remain.
type Tier struct {
	HoursBeforeDeadline float64
	Interval            time.Duration
}

// DefaultTiers is the escalation ladder. Thresholds are strict: exactly 24h
// remaining falls into the 120-minute tier, not the 360-minute one.
var DefaultTiers = []Tier{
	{HoursBeforeDeadline: 24, Interval: 360 * time.Minute},
	{HoursBeforeDeadline: 3, Interval: 120 * time.Minute},
	{HoursBeforeDeadline: 1, Interval: 60 * time.Minute},
	{HoursBeforeDeadline: 0, Interval: 15 * time.Minute},
}

// TierFor selects the interval for the given remaining time.
func TierFor(tiers []Tier, remaining time.Duration) time.Duration {
	hours := remaining.Hours()
	for _, t := range tiers {
		if hours > t.HoursBeforeDeadline {
			return t.Interval
		}
	}
	return tiers[len(tiers)-1].Interval
}

// UrgencyLabel grades the reminder title by remaining time.
func UrgencyLabel(remaining time.Duration) string {
	switch {
	case remaining <= time.Hour:
		return "URGENT"
	case remaining <= 3*time.Hour:
		return "High Priority"
	case remaining <= 24*time.Hour:
		return "Reminder"
	default:
		return "Notice"
	}
}

// FormatRemaining renders the remaining time for the reminder message:
// minutes under an hour, rounded whole hours under a day, then days with an
// optional hours remainder.
func FormatRemaining(remaining time.Duration) string {
	if remaining < time.Hour {
		minutes := int(remaining.Minutes())
		return fmt.Sprintf("%d minutes", minutes)
	}
	if remaining < 24*time.Hour {
		hours := int(math.Round(remaining.Hours()))
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	days := int(remaining.Hours()) / 24
	hours := int(remaining.Hours()) % 24
	dayWord := "days"
	if days == 1 {
		dayWord = "day"
	}
	if hours == 0 {
		return fmt.Sprintf("%d %s", days, dayWord)
	}
	hourWord := "hours"
	if hours == 1 {
		hourWord = "hour"
	}
	return fmt.Sprintf("%d %s and %d %s", days, dayWord, hours, hourWord)
}
