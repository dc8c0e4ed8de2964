package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sujalbistaa/postscore/internal/models"
	"github.com/sujalbistaa/postscore/internal/scoring"
)

type stubScorer struct {
	mu  sync.Mutex
	got []scoring.Input
	res scoring.Result
	err error
}

func (s *stubScorer) Score(_ context.Context, in scoring.Input) (*scoring.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, in)
	if s.err != nil {
		return nil, s.err
	}
	res := s.res
	return &res, nil
}

type testServer struct {
	router *gin.Engine
	env    *Env
}

func newTestServer(t *testing.T, scorer scoring.Scorer, cfg RouteConfig) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ScoreRecord{}))

	log := logrus.New()
	log.SetOutput(io.Discard)

	env := &Env{
		DB:            db,
		Scorer:        scorer,
		Log:           log,
		Metrics:       NewMetrics(),
		MaxImageBytes: 1 << 20,
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 1000
		cfg.RateLimitBurst = 1000
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	router := gin.New()
	gin.DefaultWriter = io.Discard
	require.NoError(t, SetupRoutes(ctx, router, env, cfg))
	return &testServer{router: router, env: env}
}

func (s *testServer) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, _ := json.Marshal(b)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func pngBase64(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestScorePost_Success(t *testing.T) {
	scorer := &stubScorer{res: scoring.Result{Score: 87, Feedback: "Great post!", ContentSuggestions: "Add a hashtag."}}
	s := newTestServer(t, scorer, RouteConfig{})

	w := s.do(http.MethodPost, "/api/score_post", gin.H{"post_text": "Big launch today", "platform": "twitter"}, nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.ScoreResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 87, resp.Score)
	assert.Equal(t, "Great post!", resp.Feedback)
	assert.Equal(t, "Add a hashtag.", resp.ContentSuggestions)

	require.Len(t, scorer.got, 1)
	assert.Equal(t, models.Twitter, scorer.got[0].Platform)
	assert.Empty(t, scorer.got[0].Image)

	var records []models.ScoreRecord
	require.NoError(t, s.env.DB.Find(&records).Error)
	require.Len(t, records, 1)
	assert.Equal(t, 87, records[0].Score)
	assert.NotEmpty(t, records[0].RequestID)
}

func TestScorePost_WithImage(t *testing.T) {
	scorer := &stubScorer{res: scoring.Result{Score: 70, Feedback: "ok"}}
	s := newTestServer(t, scorer, RouteConfig{})

	w := s.do(http.MethodPost, "/api/score_post",
		gin.H{"post_text": "pic", "platform": "facebook", "image_base64": pngBase64(t)}, nil)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, scorer.got, 1)
	assert.NotEmpty(t, scorer.got[0].Image)
	assert.Equal(t, "image/png", scorer.got[0].ImageMIME)
}

func TestScorePost_NoScorerConfigured(t *testing.T) {
	s := newTestServer(t, nil, RouteConfig{})

	w := s.do(http.MethodPost, "/api/score_post", gin.H{"post_text": "hi", "platform": "twitter"}, nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, msgUnavailable, errorOf(t, w))
}

func TestScorePost_Validation(t *testing.T) {
	tests := []struct {
		name   string
		body   any
		status int
		msg    string
	}{
		{"not json", "post_text=hi", http.StatusBadRequest, msgMissingFields},
		{"missing platform", gin.H{"post_text": "hi"}, http.StatusBadRequest, msgMissingFields},
		{"missing text", gin.H{"platform": "twitter"}, http.StatusBadRequest, msgMissingFields},
		{"unknown platform", gin.H{"post_text": "hi", "platform": "myspace"}, http.StatusBadRequest, msgBadPlatform},
		{"blank text", gin.H{"post_text": "   ", "platform": "twitter"}, http.StatusBadRequest, msgEmptyPost},
		{"bad base64", gin.H{"post_text": "hi", "platform": "twitter", "image_base64": "%%%"}, http.StatusBadRequest, msgBadImage},
		{"not an image", gin.H{"post_text": "hi", "platform": "twitter",
			"image_base64": base64.StdEncoding.EncodeToString([]byte("plain text file"))}, http.StatusBadRequest, msgBadImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := &stubScorer{res: scoring.Result{Score: 1, Feedback: "x"}}
			s := newTestServer(t, scorer, RouteConfig{})

			w := s.do(http.MethodPost, "/api/score_post", tt.body, nil)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.msg, errorOf(t, w))
			assert.Empty(t, scorer.got)
		})
	}
}

func TestScorePost_ImageTooLarge(t *testing.T) {
	scorer := &stubScorer{res: scoring.Result{Score: 1, Feedback: "x"}}
	s := newTestServer(t, scorer, RouteConfig{})
	s.env.MaxImageBytes = 16

	w := s.do(http.MethodPost, "/api/score_post",
		gin.H{"post_text": "pic", "platform": "facebook", "image_base64": pngBase64(t)}, nil)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Empty(t, scorer.got)
}

func TestScorePost_ScorerErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		msg    string
	}{
		{scoring.ErrBlocked, http.StatusBadRequest, msgBlocked},
		{scoring.ErrUnavailable, http.StatusServiceUnavailable, msgUnavailable},
		{errors.New("model exploded"), http.StatusInternalServerError, msgScoreFailed},
	}

	for _, tt := range tests {
		s := newTestServer(t, &stubScorer{err: tt.err}, RouteConfig{})

		w := s.do(http.MethodPost, "/api/score_post", gin.H{"post_text": "hi", "platform": "linkedin"}, nil)

		assert.Equal(t, tt.status, w.Code, tt.err.Error())
		assert.Equal(t, tt.msg, errorOf(t, w))

		var count int64
		s.env.DB.Model(&models.ScoreRecord{}).Count(&count)
		assert.Zero(t, count)
	}
}

func TestScorePost_RateLimited(t *testing.T) {
	s := newTestServer(t, &stubScorer{res: scoring.Result{Score: 5, Feedback: "x"}},
		RouteConfig{RateLimitRPS: 0.001, RateLimitBurst: 1})

	first := s.do(http.MethodPost, "/api/score_post", gin.H{"post_text": "hi", "platform": "twitter"}, nil)
	second := s.do(http.MethodPost, "/api/score_post", gin.H{"post_text": "hi", "platform": "twitter"}, nil)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "Too many requests. Please wait.", errorOf(t, second))
}

func seedRecords(t *testing.T, db *gorm.DB) []models.ScoreRecord {
	t.Helper()
	records := []models.ScoreRecord{
		{RequestID: uuid.NewString(), Platform: models.Twitter, PostText: "a", Score: 10, Feedback: "f"},
		{RequestID: uuid.NewString(), Platform: models.LinkedIn, PostText: "b", Score: 20, Feedback: "f"},
		{RequestID: uuid.NewString(), Platform: models.Twitter, PostText: "c", Score: 30, Feedback: "f", Hidden: true},
	}
	require.NoError(t, db.Create(&records).Error)
	return records
}

func TestGetRecentScores(t *testing.T) {
	s := newTestServer(t, nil, RouteConfig{})
	seedRecords(t, s.env.DB)

	w := s.do(http.MethodGet, "/api/scores", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all []models.ScoreRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Len(t, all, 2)

	w = s.do(http.MethodGet, "/api/scores?platform=twitter", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var twitter []models.ScoreRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &twitter))
	require.Len(t, twitter, 1)
	assert.Equal(t, "a", twitter[0].PostText)

	w = s.do(http.MethodGet, "/api/scores?platform=myspace", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHideScore(t *testing.T) {
	s := newTestServer(t, nil, RouteConfig{AdminToken: "secret"})
	records := seedRecords(t, s.env.DB)
	path := "/api/scores/" + strconv.FormatUint(uint64(records[0].ID), 10)

	w := s.do(http.MethodDelete, path, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodDelete, path, nil, map[string]string{"X-Admin-Token": "nope"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodDelete, path, nil, map[string]string{"X-Admin-Token": "secret"})
	assert.Equal(t, http.StatusOK, w.Code)

	var got models.ScoreRecord
	require.NoError(t, s.env.DB.First(&got, records[0].ID).Error)
	assert.True(t, got.Hidden)

	w = s.do(http.MethodDelete, "/api/scores/9999", nil, map[string]string{"X-Admin-Token": "secret"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodDelete, "/api/scores/abc", nil, map[string]string{"X-Admin-Token": "secret"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHideScore_NoTokenConfigured(t *testing.T) {
	s := newTestServer(t, nil, RouteConfig{})
	records := seedRecords(t, s.env.DB)

	w := s.do(http.MethodDelete, "/api/scores/"+strconv.FormatUint(uint64(records[0].ID), 10), nil,
		map[string]string{"X-Admin-Token": ""})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestFrontendAndHealth(t *testing.T) {
	s := newTestServer(t, nil, RouteConfig{})

	w := s.do(http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `id="postContent"`)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "img-src 'self' data:")

	w = s.do(http.MethodGet, "/static/app.js", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, &stubScorer{res: scoring.Result{Score: 64, Feedback: "x"}}, RouteConfig{})
	s.do(http.MethodPost, "/api/score_post", gin.H{"post_text": "hi", "platform": "twitter"}, nil)

	w := s.do(http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `postscore_scores_total{outcome="ok",platform="twitter"} 1`)
	assert.Contains(t, body, "postscore_http_requests_total")
}
