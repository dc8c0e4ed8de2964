package scoring

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

const promptTemplate = `
Analyze the following social media post intended for %[1]s.

Post content:"%[2]s"
%[3]sProvide a performance score from 0 to 100 based on the following criteria:
1.  Engagement Potential (likes, comments, shares).
2.  Clarity (clear, concise, understandable).
3.  Message Quality (valuable, informative, or entertaining for %[1]s).
4.  Hashtag Effectiveness (relevance, visibility, or if beneficial if absent).

Return your response ONLY as a valid JSON object with three keys: "score" (an integer between 0 and 100), "feedback" (a brief string, max 150 characters, explaining the score) and "content_suggestions" (a short string with 1-2 concrete improvement suggestions, or an empty string if none are needed).

Example JSON Response:
{
  "score": 85,
  "feedback": "Great clarity and a strong hook.",
  "content_suggestions": "Consider adding a question to boost engagement."
}
`

const imageNote = "An image is attached to the post; take it into account.\n"

// BuildPrompt renders the scoring prompt for one post.
func BuildPrompt(in Input) string {
	note := ""
	if len(in.Image) > 0 {
		note = imageNote
	}
	return fmt.Sprintf(promptTemplate, in.Platform.DisplayName(), in.Text, note)
}

type generateFunc func(ctx context.Context, contents []*genai.Content) (*genai.GenerateContentResponse, error)

// GeminiScorer scores posts with a Gemini model.
type GeminiScorer struct {
	generate generateFunc
	log      *logrus.Logger
}

// NewGeminiScorer connects to the Gemini API. It returns ErrUnavailable when
// apiKey is empty.
func NewGeminiScorer(ctx context.Context, apiKey, model string, log *logrus.Logger) (*GeminiScorer, error) {
	if apiKey == "" {
		return nil, ErrUnavailable
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	config := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	return &GeminiScorer{
		generate: func(ctx context.Context, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
			return client.Models.GenerateContent(ctx, model, contents, config)
		},
		log: log,
	}, nil
}

func (g *GeminiScorer) Score(ctx context.Context, in Input) (*Result, error) {
	parts := []*genai.Part{genai.NewPartFromText(BuildPrompt(in))}
	if len(in.Image) > 0 {
		parts = append(parts, genai.NewPartFromBytes(in.Image, in.ImageMIME))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := g.generate(ctx, contents)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("%w: %s", ErrBlocked, resp.PromptFeedback.BlockReason)
	}

	raw := responseText(resp)
	res := ParseModelOutput(raw)
	if res.Partial {
		g.log.WithFields(logrus.Fields{
			"platform": in.Platform,
			"raw":      raw,
		}).Warn("Could not parse model response as JSON, used fallback")
	}
	return res, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}
