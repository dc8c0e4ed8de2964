// Package scoring rates social media posts with a language model.
package scoring

import (
	"context"
	"errors"

	"github.com/sujalbistaa/postscore/internal/models"
)

var (
	// ErrUnavailable means no model is configured.
	ErrUnavailable = errors.New("scoring unavailable")
	// ErrBlocked means the model refused the prompt for safety reasons.
	ErrBlocked = errors.New("prompt blocked by safety filters")
)

// Input is one post to score.
type Input struct {
	Text      string
	Platform  models.Platform
	Image     []byte
	ImageMIME string
}

// Result is a score for one post.
type Result struct {
	Score              int    `json:"score"`
	Feedback           string `json:"feedback"`
	ContentSuggestions string `json:"content_suggestions,omitempty"`
	Partial            bool   `json:"partial"` // model output did not parse cleanly
}

type Scorer interface {
	Score(ctx context.Context, in Input) (*Result, error)
}
