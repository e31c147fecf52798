package models

import "time"

// LifecyclePhase is the classification of a page by last-modified age.
type LifecyclePhase string

const (
	PhaseFresh  LifecyclePhase = "fresh"
	PhaseStale  LifecyclePhase = "stale"
	PhaseRotten LifecyclePhase = "rotten"
)

// Rank orders phases by severity, fresh lowest.
func (p LifecyclePhase) Rank() int {
	switch p {
	case PhaseStale:
		return 1
	case PhaseRotten:
		return 2
	default:
		return 0
	}
}

// Thresholds are the age boundaries, in whole days, between phases.
// RottenDays must be >= StaleDays; both must be positive.
type Thresholds struct {
	StaleDays  int `json:"stale_days"`
	RottenDays int `json:"rotten_days"`
}

// LabelSet maps each lifecycle phase to the Confluence label that encodes it.
type LabelSet struct {
	Fresh  string `json:"fresh"`
	Stale  string `json:"stale"`
	Rotten string `json:"rotten"`
}

// DefaultLabelSet returns the labels the tool applies out of the box.
func DefaultLabelSet() LabelSet {
	return LabelSet{
		Fresh:  "lifecycle_phase=fresh",
		Stale:  "lifecycle_phase=stale",
		Rotten: "lifecycle_phase=rotten",
	}
}

// For returns the label string for a phase.
func (ls LabelSet) For(p LifecyclePhase) string {
	switch p {
	case PhaseStale:
		return ls.Stale
	case PhaseRotten:
		return ls.Rotten
	default:
		return ls.Fresh
	}
}

// All returns the three labels in phase order.
func (ls LabelSet) All() []string {
	return []string{ls.Fresh, ls.Stale, ls.Rotten}
}

// Phase resolves a label string back to its phase. The second return is
// false when the label is not one of the set's three labels.
func (ls LabelSet) Phase(label string) (LifecyclePhase, bool) {
	switch label {
	case ls.Fresh:
		return PhaseFresh, true
	case ls.Stale:
		return PhaseStale, true
	case ls.Rotten:
		return PhaseRotten, true
	}
	return "", false
}

// ProcessResult records the outcome of processing a single page. One is
// produced per walked page, in listing order, whether or not the page's
// label changed.
type ProcessResult struct {
	PageID        string         `json:"page_id"`
	Title         string         `json:"title"`
	LastModified  time.Time      `json:"last_modified"`
	LastEditedBy  string         `json:"last_edited_by,omitempty"`
	Phase         LifecyclePhase `json:"phase"`
	PreviousLabel string         `json:"previous_label,omitempty"`
	NewLabel      string         `json:"new_label,omitempty"`
	Changed       bool           `json:"changed"`
	Ignored       bool           `json:"ignored"`
	Error         string         `json:"error,omitempty"`
}

// PhaseCounts holds per-phase tallies for one measure.
type PhaseCounts struct {
	Fresh  int `json:"fresh"`
	Stale  int `json:"stale"`
	Rotten int `json:"rotten"`
}

// Add increments the counter for a phase.
func (c *PhaseCounts) Add(p LifecyclePhase) {
	switch p {
	case PhaseStale:
		c.Stale++
	case PhaseRotten:
		c.Rotten++
	default:
		c.Fresh++
	}
}

// Total sums the three counters.
func (c PhaseCounts) Total() int {
	return c.Fresh + c.Stale + c.Rotten
}

// RunStats aggregates a walk: how many pages landed in each phase, how
// many had their label changed, and how many were blocked by an ignore
// label even though a change was wanted.
type RunStats struct {
	Pages   PhaseCounts `json:"pages"`
	Changed PhaseCounts `json:"changed"`
	Ignored PhaseCounts `json:"ignored"`
	Errors  int         `json:"errors"`
}

// RunRecord is one complete walk over a space, persisted to the run
// history store and used to build the report page.
type RunRecord struct {
	Space      string          `json:"space"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	ReadOnly   bool            `json:"read_only"`
	Thresholds Thresholds      `json:"thresholds"`
	Stats      RunStats        `json:"stats"`
	Results    []ProcessResult `json:"results"`
}
