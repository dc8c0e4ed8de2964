// Package composer holds the post composer: the text and image a user is
// writing, the per-platform previews, the active platform tab and the score
// request workflow against POST /api/score_post.
//
// The Controller owns all of this state and pushes a Snapshot to a View after
// every change. A View is whatever draws the composer (a terminal, a test
// recorder); it never holds state of its own.
package composer

import (
	"strconv"

	"github.com/sujalbistaa/postscore/internal/models"
)

// Texts shown by the composer.
const (
	Placeholder = "Your post will appear here..."

	EmptyPostMessage        = "Post content cannot be empty. Please write something."
	PendingScore            = "--/100"
	PendingFeedback         = "Analyzing... please wait."
	ErrorScore              = "Error"
	NotAvailableScore       = "N/A"
	ServerFailureMessage    = "Failed to get score. Please try again."
	TransportFailureMessage = "An error occurred while contacting the scoring service."
)

// RequestState tracks the score request lifecycle.
type RequestState int

const (
	Idle RequestState = iota
	InFlight
	Done
)

func (s RequestState) String() string {
	switch s {
	case Idle:
		return "idle"
	case InFlight:
		return "in-flight"
	case Done:
		return "done"
	}
	return "unknown"
}

// Tab is one platform selector.
type Tab struct {
	Platform models.Platform
	Active   bool
}

// Preview is one platform's rendering of the post.
type Preview struct {
	Platform     models.Platform
	Visible      bool
	Text         string
	ImageSrc     string
	ImageVisible bool
}

// ScoreDisplay is the score panel.
type ScoreDisplay struct {
	Visible            bool
	Value              string
	Feedback           string
	Suggestions        string
	SuggestionsVisible bool
}

// Snapshot is everything a View needs to draw the composer.
type Snapshot struct {
	Tabs               []Tab
	Previews           []Preview
	Score              ScoreDisplay
	TriggerEnabled     bool
	RemoveImageVisible bool
	State              RequestState
}

// Preview returns the preview for p.
func (s Snapshot) Preview(p models.Platform) (Preview, bool) {
	for _, pv := range s.Previews {
		if pv.Platform == p {
			return pv, true
		}
	}
	return Preview{}, false
}

// ActiveTabs returns the platforms whose tab is marked active.
func (s Snapshot) ActiveTabs() []models.Platform {
	var out []models.Platform
	for _, t := range s.Tabs {
		if t.Active {
			out = append(out, t.Platform)
		}
	}
	return out
}

// VisiblePreviews returns the platforms whose preview panel is shown.
func (s Snapshot) VisiblePreviews() []models.Platform {
	var out []models.Platform
	for _, pv := range s.Previews {
		if pv.Visible {
			out = append(out, pv.Platform)
		}
	}
	return out
}

// View draws the composer. Render is called with the controller lock held,
// so implementations must not call back into the Controller.
type View interface {
	Render(Snapshot)
}

// ViewFunc adapts a function to View.
type ViewFunc func(Snapshot)

func (f ViewFunc) Render(s Snapshot) { f(s) }

// ScoreResult is the outcome of the last completed score request.
type ScoreResult struct {
	Score       *float64
	Feedback    string
	Suggestions string
}

// FormatScore renders a score the way the score panel shows it, e.g. "87/100".
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64) + "/100"
}
