// Package fitness holds the daily routines behind the fitness features:
// medicine reminders, water intake and the guided workout.
package fitness

import (
	"fmt"
	"strings"
	"time"

	"github.com/xaenox/safefit-bot/internal/models"
)

const clockLayout = "15:04"

// ParseClock accepts a 24-hour "H:MM" or "HH:MM" time and returns it as
// "HH:MM".
func ParseClock(s string) (string, error) {
	t, err := time.Parse(clockLayout, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid time %q, use HH:MM", s)
	}
	return t.Format(clockLayout), nil
}

// fireTime is when r goes off on the day of now, in now's location.
func fireTime(r *models.Reminder, now time.Time) (time.Time, bool) {
	clock, err := time.Parse(clockLayout, r.Clock)
	if err != nil {
		return time.Time{}, false
	}
	y, m, d := now.Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, now.Location()), true
}

// Due reports whether r should be sent at now. A reminder fires once a day,
// at or after its clock time, and never on the day it was created if that
// time had already passed.
func Due(r *models.Reminder, now time.Time) bool {
	fire, ok := fireTime(r, now)
	if !ok || now.Before(fire) {
		return false
	}
	if r.CreatedAt.After(fire) {
		return false
	}
	return r.LastSentAt.Before(fire)
}

const (
	// GlassML is the size of one logged glass.
	GlassML = 250
	// DailyWaterGoal is counted in glasses.
	DailyWaterGoal = 8
)

// WaterGlasses converts a water reading to glasses. Readings in ml or l are
// converted; any other unit counts as glasses.
func WaterGlasses(m *models.HealthMetric) float64 {
	switch strings.ToLower(m.Unit) {
	case "ml":
		return m.Value / GlassML
	case "l":
		return m.Value * 1000 / GlassML
	default:
		return m.Value
	}
}

// WaterProgress sums the water readings in metrics and returns the glasses
// drunk and the share of DailyWaterGoal, capped at 100.
func WaterProgress(metrics []*models.HealthMetric) (glasses, percent float64) {
	for _, m := range metrics {
		if m.Type == "water" {
			glasses += WaterGlasses(m)
		}
	}
	percent = glasses / DailyWaterGoal * 100
	if percent > 100 {
		percent = 100
	}
	return glasses, percent
}

// Exercise is one step of the guided workout.
type Exercise struct {
	Name     string
	Duration time.Duration
}

var routine = []Exercise{
	{"Push-ups", 30 * time.Second},
	{"Squats", 45 * time.Second},
	{"Plank", 60 * time.Second},
	{"Burpees", 30 * time.Second},
	{"Mountain Climbers", 40 * time.Second},
}

// Routine returns the guided workout in order.
func Routine() []Exercise {
	out := make([]Exercise, len(routine))
	copy(out, routine)
	return out
}

// RoutineDuration is the total time of Routine.
func RoutineDuration() time.Duration {
	var total time.Duration
	for _, e := range routine {
		total += e.Duration
	}
	return total
}
