// Package health holds the query helpers behind the vitals dashboard.
package health

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xaenox/safefit-bot/internal/models"
)

// Timeframe selects how far back metric history is loaded.
type Timeframe string

const (
	TimeframeToday Timeframe = "today"
	Timeframe7d    Timeframe = "7d"
	Timeframe15d   Timeframe = "15d"
	Timeframe30d   Timeframe = "30d"
)

const DefaultTimeframe = Timeframe7d

// ParseTimeframe accepts today, 7d, 15d and 30d. An empty string yields the
// default window.
func ParseTimeframe(s string) (Timeframe, error) {
	switch tf := Timeframe(strings.ToLower(strings.TrimSpace(s))); tf {
	case "":
		return DefaultTimeframe, nil
	case TimeframeToday, Timeframe7d, Timeframe15d, Timeframe30d:
		return tf, nil
	default:
		return "", fmt.Errorf("unknown timeframe %q", s)
	}
}

// Start returns the earliest RecordedAt included in the window ending at now.
// "today" starts at local midnight of now.
func (tf Timeframe) Start(now time.Time) time.Time {
	switch tf {
	case TimeframeToday:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	case Timeframe15d:
		return now.AddDate(0, 0, -15)
	case Timeframe30d:
		return now.AddDate(0, 0, -30)
	default:
		return now.AddDate(0, 0, -7)
	}
}

// ByType filters metrics to a single type, keeping their order.
func ByType(metrics []*models.HealthMetric, metricType string) []*models.HealthMetric {
	var out []*models.HealthMetric
	for _, m := range metrics {
		if m.Type == metricType {
			out = append(out, m)
		}
	}
	return out
}

// Latest returns the most recently recorded metric of metricType, or nil.
func Latest(metrics []*models.HealthMetric, metricType string) *models.HealthMetric {
	var latest *models.HealthMetric
	for _, m := range ByType(metrics, metricType) {
		if latest == nil || m.RecordedAt.After(latest.RecordedAt) {
			latest = m
		}
	}
	return latest
}

// Summary is the latest value per metric type, sorted by type name.
func Summary(metrics []*models.HealthMetric) []*models.HealthMetric {
	seen := make(map[string]bool)
	var out []*models.HealthMetric
	for _, m := range metrics {
		if seen[m.Type] {
			continue
		}
		seen[m.Type] = true
		out = append(out, Latest(metrics, m.Type))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// ParseReading parses "<type> <value> [unit]" as typed by a user, e.g.
// "heart_rate 72 bpm".
func ParseReading(s string) (metricType string, value float64, unit string, err error) {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return "", 0, "", fmt.Errorf("expected <type> <value> [unit]")
	}
	value, err = strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return "", 0, "", fmt.Errorf("invalid value %q: %w", fields[1], err)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "", 0, "", fmt.Errorf("invalid value %q", fields[1])
	}
	metricType = strings.ToLower(fields[0])
	if len(fields) > 2 {
		unit = strings.Join(fields[2:], " ")
	}
	return metricType, value, unit, nil
}
