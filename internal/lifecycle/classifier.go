// Package lifecycle holds the classification rule that maps a page's
// last-modified age onto a lifecycle phase, and the handling of
// lifecycle_ignore opt-out labels.
package lifecycle

import (
	"strings"
	"time"

	"confluence-lifecycle/internal/models"
)

// IgnoreLabel opts a page out of lifecycle management. Bare, it ignores
// the page forever; with "=YYYYMMDD" appended, it ignores the page until
// after that date.
const IgnoreLabel = "lifecycle_ignore"

// DeprecatedLabels are earlier bare forms of the phase labels. They are
// removed from any page that still carries them.
var DeprecatedLabels = []string{"fresh", "stale", "rotten"}

// ignoreDateFormats accepted in a dated ignore label, tried in order.
var ignoreDateFormats = []string{"20060102", "2006-01-02"}

// Classify maps a page's last-modified timestamp to a lifecycle phase.
// Age is measured in whole days; partial days round down. A page dated
// in the future classifies as fresh.
func Classify(lastModified, now time.Time, t models.Thresholds) models.LifecyclePhase {
	ageDays := int(now.Sub(lastModified).Hours() / 24)

	switch {
	case ageDays >= t.RottenDays:
		return models.PhaseRotten
	case ageDays >= t.StaleDays:
		return models.PhaseStale
	default:
		return models.PhaseFresh
	}
}

// IsIgnored reports whether a label blocks lifecycle changes for its
// page at the given time. A bare ignore label (or one with an empty
// value) blocks forever; a dated one blocks until after the date; a
// label whose date cannot be parsed does not block at all.
func IsIgnored(label string, now time.Time) bool {
	if !strings.HasPrefix(label, IgnoreLabel) {
		return false
	}

	rest := label[len(IgnoreLabel):]
	if !strings.Contains(rest, "=") {
		return true
	}

	value := rest[strings.Index(rest, "=")+1:]
	if value == "" {
		return true
	}

	for _, format := range ignoreDateFormats {
		until, err := time.Parse(format, value)
		if err != nil {
			continue
		}
		return !now.After(until)
	}

	// Unparseable date: treat the label as absent and manage the page.
	return false
}

// IsDeprecated reports whether a label is one of the retired bare phase
// labels.
func IsDeprecated(label string) bool {
	for _, deprecated := range DeprecatedLabels {
		if label == deprecated {
			return true
		}
	}
	return false
}
