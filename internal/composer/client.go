package composer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sujalbistaa/postscore/internal/models"
)

// ScorePath is the scoring endpoint, relative to the server base URL.
const ScorePath = "/api/score_post"

const maxReplyBytes = 1 << 20

// Reply is a successful score reply.
type Reply struct {
	Score              float64
	Feedback           string
	ContentSuggestions string
}

type replyBody struct {
	Score              *float64 `json:"score"`
	Feedback           string   `json:"feedback"`
	ContentSuggestions string   `json:"content_suggestions"`
	Error              string   `json:"error"`
}

// HTTPClient talks to the scoring service over HTTP.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient returns a client for the server at baseURL. A nil httpClient
// uses http.DefaultClient.
func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *HTTPClient) Score(ctx context.Context, req models.ScoreRequest) (*Reply, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode score request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ScorePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	var rb replyBody
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxReplyBytes)).Decode(&rb)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServerError{StatusCode: resp.StatusCode, Message: rb.Error}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: decode reply: %w", ErrTransport, decodeErr)
	}
	if rb.Score == nil {
		if rb.Error != "" {
			return nil, &ServerError{StatusCode: resp.StatusCode, Message: rb.Error}
		}
		return nil, fmt.Errorf("%w: reply has no score", ErrTransport)
	}

	return &Reply{
		Score:              *rb.Score,
		Feedback:           rb.Feedback,
		ContentSuggestions: rb.ContentSuggestions,
	}, nil
}
