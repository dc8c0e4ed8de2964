package scoring

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// PartialFeedback replaces the model's feedback when only a score could be
// recovered from its output.
const PartialFeedback = "AI analysis was partially successful. Could not fully parse detailed feedback from the AI. Please try rephrasing your post."

const fallbackScore = 50

var (
	scorePattern    = regexp.MustCompile(`"score":\s*(\d+)`)
	feedbackPattern = regexp.MustCompile(`(?s)"feedback":\s*"(.*?)"`)
)

// ParseModelOutput turns raw model text into a Result. Output that is not a
// clean JSON object with an integer score in [0,100] and a string feedback is
// salvaged with pattern matching and marked Partial; it never fails.
func ParseModelOutput(raw string) *Result {
	cleaned := stripCodeFence(raw)
	if res, ok := parseStrict(cleaned); ok {
		return res
	}

	res := &Result{Score: fallbackScore, Feedback: PartialFeedback, Partial: true}
	m := scorePattern.FindStringSubmatch(cleaned)
	if m == nil {
		return res
	}
	if n, err := strconv.Atoi(m[1]); err == nil && n >= 0 && n <= 100 {
		res.Score = n
	}
	if fm := feedbackPattern.FindStringSubmatch(cleaned); fm != nil {
		res.Feedback = strings.TrimSpace(fm[1])
	}
	return res
}

func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func parseStrict(s string) (*Result, bool) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, false
	}

	num, ok := obj["score"].(json.Number)
	if !ok {
		return nil, false
	}
	score, err := num.Int64()
	if err != nil || score < 0 || score > 100 {
		return nil, false
	}
	feedback, ok := obj["feedback"].(string)
	if !ok {
		return nil, false
	}
	suggestions, _ := obj["content_suggestions"].(string)

	return &Result{Score: int(score), Feedback: feedback, ContentSuggestions: suggestions}, true
}
