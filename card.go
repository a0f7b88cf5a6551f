package alertpop

import (
	"net/url"
	"strings"
	"time"
)

const (
	defaultLinkTemplate = "/candidate/{ref}"
	refPlaceholder      = "{ref}"
)

// KindLabel is the icon and label shown in a card header.
type KindLabel struct {
	Icon  string `json:"icon" yaml:"icon"`
	Label string `json:"label" yaml:"label"`
}

// Labels is the catalog of user-facing strings used to build cards.
//
// The zero value is not useful; start from [DefaultLabels] and override.
type Labels struct {
	// Kinds maps alert kinds to their header.
	Kinds map[Kind]KindLabel

	// Fallback is used for kinds missing from Kinds.
	Fallback KindLabel

	// Action is the text of the follow-up link.
	Action string

	// Dismiss is the text of the dismiss control.
	Dismiss string

	// Close is the text of the close control.
	Close string

	// UnknownName replaces an empty SubjectName.
	UnknownName string

	// UnknownContext replaces an empty SubjectContext.
	UnknownContext string
}

// DefaultLabels returns the English catalog.
func DefaultLabels() Labels {
	return Labels{
		Kinds: map[Kind]KindLabel{
			KindCandidateShortlisted: {Icon: "🎯", Label: "Candidate Shortlisted"},
			KindCandidateSelected:    {Icon: "⭐", Label: "Candidate Selected"},
		},
		Fallback:       KindLabel{Icon: "🔔", Label: "Notification"},
		Action:         "View Candidate",
		Dismiss:        "Dismiss",
		Close:          "×",
		UnknownName:    "Unknown",
		UnknownContext: "Unknown Position",
	}
}

// Kind returns the header for k, or the fallback.
func (l Labels) Kind(k Kind) KindLabel {
	if kl, ok := l.Kinds[k]; ok {
		return kl
	}
	return l.Fallback
}

// Card is the renderable form of an [Alert].
type Card struct {
	ID             string    `json:"id"`
	Priority       Priority  `json:"priority"`
	Icon           string    `json:"icon"`
	Title          string    `json:"title"`
	CloseLabel     string    `json:"close_label"`
	Message        string    `json:"message"`
	ActionLabel    string    `json:"action_label"`
	ActionURL      string    `json:"action_url"`
	DismissLabel   string    `json:"dismiss_label"`
	SubjectName    string    `json:"subject_name"`
	SubjectContext string    `json:"subject_context"`
	Age            string    `json:"age"`
	CreatedAt      time.Time `json:"created_at"`
}

// HighPriority reports whether the card is exempt from automatic dismissal.
func (c Card) HighPriority() bool {
	return c.Priority == PriorityHigh
}

// BuildCard turns an alert into a [Card] using the label catalog and link
// template. base resolves relative links and may be nil.
func BuildCard(a Alert, now time.Time, labels Labels, linkTemplate string, base *url.URL) Card {
	header := labels.Kind(a.Kind)

	name := a.SubjectName
	if name == "" {
		name = labels.UnknownName
	}
	subjectCtx := a.SubjectContext
	if subjectCtx == "" {
		subjectCtx = labels.UnknownContext
	}

	age := ""
	if !a.CreatedAt.IsZero() {
		age = FormatAge(now, a.CreatedAt)
	}

	return Card{
		ID:             a.ID,
		Priority:       a.Priority,
		Icon:           header.Icon,
		Title:          header.Label,
		CloseLabel:     labels.Close,
		Message:        a.Message,
		ActionLabel:    labels.Action,
		ActionURL:      BuildLink(linkTemplate, base, a.SubjectRef),
		DismissLabel:   labels.Dismiss,
		SubjectName:    name,
		SubjectContext: subjectCtx,
		Age:            age,
		CreatedAt:      a.CreatedAt,
	}
}

// BuildLink substitutes the path-escaped ref into template's "{ref}"
// placeholder and resolves the result against base when base is non-nil.
func BuildLink(template string, base *url.URL, ref string) string {
	if template == "" {
		template = defaultLinkTemplate
	}
	link := strings.ReplaceAll(template, refPlaceholder, url.PathEscape(ref))
	if base == nil {
		return link
	}
	rel, err := url.Parse(link)
	if err != nil {
		return link
	}
	return base.ResolveReference(rel).String()
}
