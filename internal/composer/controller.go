package composer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sujalbistaa/postscore/internal/models"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultMaxImageBytes  = 5 << 20
)

// ScoreClient sends one score request.
type ScoreClient interface {
	Score(ctx context.Context, req models.ScoreRequest) (*Reply, error)
}

type options struct {
	defaultPlatform models.Platform
	imagesEnabled   bool
	requestTimeout  time.Duration
	maxImageBytes   int64
	logger          *logrus.Logger
}

// Option configures a Controller.
type Option func(*options)

// WithDefaultPlatform sets the platform that is active at start.
func WithDefaultPlatform(p models.Platform) Option {
	return func(o *options) { o.defaultPlatform = p }
}

// WithImages turns image attachments on or off. They are on by default.
func WithImages(enabled bool) Option {
	return func(o *options) { o.imagesEnabled = enabled }
}

// WithRequestTimeout bounds each score request. Zero means no bound.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

func WithMaxImageBytes(n int64) Option {
	return func(o *options) { o.maxImageBytes = n }
}

func WithLogger(l *logrus.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Controller is the post composer. It is safe for concurrent use; the lock is
// never held across a score request or an image decode.
type Controller struct {
	client ScoreClient
	view   View
	opts   options
	log    *logrus.Logger

	mu       sync.Mutex
	platform models.Platform
	text     string
	image    *Image
	imageGen uint64
	result   ScoreResult
	display  ScoreDisplay
	state    RequestState
}

// New builds a controller and renders its initial state: default platform
// active, placeholder text, no image. view may be nil.
func New(client ScoreClient, view View, opts ...Option) *Controller {
	o := options{
		defaultPlatform: models.Facebook,
		imagesEnabled:   true,
		requestTimeout:  defaultRequestTimeout,
		maxImageBytes:   defaultMaxImageBytes,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.defaultPlatform.Valid() {
		o.defaultPlatform = models.Facebook
	}
	log := o.logger
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}

	c := &Controller{
		client:   client,
		view:     view,
		opts:     o,
		log:      log,
		platform: o.defaultPlatform,
	}

	c.mu.Lock()
	c.renderLocked()
	c.mu.Unlock()
	return c
}

// SelectPlatform makes p the single active platform.
func (c *Controller) SelectPlatform(p models.Platform) error {
	if !p.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownPlatform, p)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.platform = p
	c.renderLocked()
	return nil
}

// SetText replaces the post text; every preview mirrors it.
func (c *Controller) SetText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.text = text
	c.renderLocked()
}

// RequestScore validates the post, sends it for scoring and renders the
// outcome. The returned error is ErrEmptyPost, ErrRequestInFlight, a
// *ServerError or an error wrapping ErrTransport; the score panel already
// shows the matching message when it returns.
func (c *Controller) RequestScore(ctx context.Context) (ScoreResult, error) {
	req, err := c.beginRequest()
	if err != nil {
		return ScoreResult{}, err
	}
	defer c.endRequest()

	if c.opts.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.requestTimeout)
		defer cancel()
	}

	reply, err := c.client.Score(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applyLocked(reply, err)
}

func (c *Controller) beginRequest() (models.ScoreRequest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	text := strings.TrimSpace(c.text)
	if text == "" {
		c.result = ScoreResult{}
		c.display = ScoreDisplay{Visible: true, Value: NotAvailableScore, Feedback: EmptyPostMessage}
		c.renderLocked()
		return models.ScoreRequest{}, ErrEmptyPost
	}
	if c.state == InFlight {
		return models.ScoreRequest{}, ErrRequestInFlight
	}

	c.state = InFlight
	c.result = ScoreResult{}
	c.display = ScoreDisplay{Visible: true, Value: PendingScore, Feedback: PendingFeedback}
	c.renderLocked()

	req := models.ScoreRequest{PostText: text, Platform: c.platform}
	if c.image != nil {
		req.ImageBase64 = c.image.Base64
	}
	return req, nil
}

// endRequest re-enables the trigger. It runs on every exit path of
// RequestScore, including a panicking client.
func (c *Controller) endRequest() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = Done
	c.renderLocked()
}

func (c *Controller) applyLocked(reply *Reply, err error) (ScoreResult, error) {
	if err == nil && reply == nil {
		err = fmt.Errorf("%w: empty reply", ErrTransport)
	}
	if err != nil {
		msg := TransportFailureMessage
		var serverErr *ServerError
		if errors.As(err, &serverErr) {
			msg = serverErr.Message
			if strings.TrimSpace(msg) == "" {
				msg = ServerFailureMessage
			}
			c.log.WithField("status", serverErr.StatusCode).Warn("Score request rejected by server")
		} else {
			c.log.WithError(err).Warn("Score request failed")
		}
		c.display = ScoreDisplay{Visible: true, Value: ErrorScore, Feedback: msg}
		return ScoreResult{}, err
	}

	score := reply.Score
	c.result = ScoreResult{Score: &score, Feedback: reply.Feedback, Suggestions: reply.ContentSuggestions}
	c.display = ScoreDisplay{Visible: true, Value: FormatScore(score), Feedback: reply.Feedback}
	if strings.TrimSpace(reply.ContentSuggestions) != "" {
		c.display.Suggestions = reply.ContentSuggestions
		c.display.SuggestionsVisible = true
	}
	return c.result, nil
}

// Snapshot returns the current rendering state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) Platform() models.Platform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.platform
}

func (c *Controller) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// Image returns the attached image, or nil.
func (c *Controller) Image() *Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.image
}

// Result returns the last completed score result.
func (c *Controller) Result() ScoreResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

func (c *Controller) State() RequestState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) snapshotLocked() Snapshot {
	text := c.text
	if text == "" {
		text = Placeholder
	}

	s := Snapshot{
		Tabs:               make([]Tab, 0, len(models.Platforms)),
		Previews:           make([]Preview, 0, len(models.Platforms)),
		Score:              c.display,
		TriggerEnabled:     c.state != InFlight,
		RemoveImageVisible: c.image != nil,
		State:              c.state,
	}
	for _, p := range models.Platforms {
		s.Tabs = append(s.Tabs, Tab{Platform: p, Active: p == c.platform})
		pv := Preview{Platform: p, Visible: p == c.platform, Text: text}
		if c.image != nil {
			pv.ImageSrc = c.image.DataURL
			pv.ImageVisible = true
		}
		s.Previews = append(s.Previews, pv)
	}
	return s
}

func (c *Controller) renderLocked() {
	if c.view != nil {
		c.view.Render(c.snapshotLocked())
	}
}
