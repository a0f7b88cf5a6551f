package alertpop

import "time"

// Kind is the category of an [Alert]. It selects the card icon and label.
type Kind string

const (
	// KindCandidateShortlisted marks a candidate moved to the shortlist.
	KindCandidateShortlisted Kind = "candidate_shortlisted"

	// KindCandidateSelected marks a candidate selected for a position.
	KindCandidateSelected Kind = "candidate_selected"
)

// Priority is either [PriorityNormal] or [PriorityHigh].
type Priority string

const (
	// PriorityNormal alerts are dismissed automatically after a delay.
	PriorityNormal Priority = "normal"

	// PriorityHigh alerts stay on screen until dismissed explicitly.
	PriorityHigh Priority = "high"
)

// ParsePriority maps the wire value to a [Priority]. Anything other than
// "high" is normal.
func ParsePriority(s string) Priority {
	if Priority(s) == PriorityHigh {
		return PriorityHigh
	}
	return PriorityNormal
}

// Alert is a server-originated record of a pending event needing attention.
//
// Alerts are read-only to the client. ID is stable across polls until the
// alert is acknowledged.
type Alert struct {
	// ID is the opaque unique identifier.
	ID string `json:"id"`

	// Kind selects the icon and label.
	Kind Kind `json:"kind"`

	// Priority controls automatic dismissal.
	Priority Priority `json:"priority"`

	// Message is the display text.
	Message string `json:"message"`

	// SubjectName describes who or what the alert is about.
	SubjectName string `json:"subject_name"`

	// SubjectContext adds context to SubjectName (e.g., a position).
	SubjectContext string `json:"subject_context"`

	// SubjectRef identifies the subject for the follow-up link.
	SubjectRef string `json:"subject_ref"`

	// CreatedAt is used for the relative-age display. May be zero.
	CreatedAt time.Time `json:"created_at"`
}

// HighPriority reports whether the alert is exempt from automatic dismissal.
func (a Alert) HighPriority() bool {
	return a.Priority == PriorityHigh
}

// State is the display state of an alert id within a [Client].
//
// The lifecycle is unknown → displayed → dismissing → gone. Registry
// membership ends when dismissing starts.
type State string

const (
	StateUnknown    State = "unknown"
	StateDisplayed  State = "displayed"
	StateDismissing State = "dismissing"
	StateGone       State = "gone"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}
