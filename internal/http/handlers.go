package http

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/sujalbistaa/postscore/internal/models"
	"github.com/sujalbistaa/postscore/internal/scoring"
	"github.com/sujalbistaa/postscore/internal/ws"
)

const (
	recentScoresLimit = 20
	// JSON overhead allowed on top of the base64 image
	bodySlackBytes = 64 << 10
)

// Error messages returned to the composer.
const (
	msgUnavailable   = "AI scoring is currently unavailable. API key not configured or configuration failed."
	msgMissingFields = "Missing post_text or platform in request"
	msgBadPlatform   = "Unsupported platform. Use twitter, facebook or linkedin."
	msgEmptyPost     = "Post content cannot be empty."
	msgBadImage      = "Invalid image_base64 payload."
	msgImageTooLarge = "Image is too large."
	msgBlocked       = "Your request was blocked by the AI for safety reasons. Please modify your post content."
	msgScoreFailed   = "An unexpected error occurred while scoring the post."
)

// ScorePostInput is bound from the score request. Pointers tell a missing
// field apart from an empty one.
type ScorePostInput struct {
	PostText    *string `json:"post_text"`
	Platform    *string `json:"platform"`
	ImageBase64 string  `json:"image_base64"`
}

// WsMessage is the envelope of every live feed message.
type WsMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Env carries handler dependencies. Scorer is nil when no model is configured.
type Env struct {
	DB            *gorm.DB
	Hub           *ws.Hub
	Scorer        scoring.Scorer
	Log           *logrus.Logger
	Metrics       *Metrics
	MaxImageBytes int64
}

func (e *Env) ScorePost(c *gin.Context) {
	if e.Scorer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": msgUnavailable})
		return
	}

	if e.MaxImageBytes > 0 {
		limit := base64.StdEncoding.EncodedLen(int(e.MaxImageBytes)) + bodySlackBytes
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, int64(limit))
	}

	var input ScorePostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": msgImageTooLarge})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": msgMissingFields})
		return
	}
	if input.PostText == nil || input.Platform == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgMissingFields})
		return
	}

	platform, err := models.ParsePlatform(*input.Platform)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgBadPlatform})
		return
	}
	if strings.TrimSpace(*input.PostText) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgEmptyPost})
		return
	}

	in := scoring.Input{Text: *input.PostText, Platform: platform}
	if input.ImageBase64 != "" {
		image, err := base64.StdEncoding.DecodeString(input.ImageBase64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": msgBadImage})
			return
		}
		if e.MaxImageBytes > 0 && int64(len(image)) > e.MaxImageBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": msgImageTooLarge})
			return
		}
		mime := mimetype.Detect(image).String()
		if !strings.HasPrefix(mime, "image/") {
			c.JSON(http.StatusBadRequest, gin.H{"error": msgBadImage})
			return
		}
		in.Image = image
		in.ImageMIME = mime
	}

	requestID := uuid.NewString()
	log := e.Log.WithFields(logrus.Fields{
		"request_id": requestID,
		"platform":   platform,
		"has_image":  len(in.Image) > 0,
	})

	res, err := e.Scorer.Score(c.Request.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, scoring.ErrBlocked):
			log.WithError(err).Warn("Scoring request blocked")
			e.Metrics.ObserveScore(platform, "blocked", nil)
			c.JSON(http.StatusBadRequest, gin.H{"error": msgBlocked})
		case errors.Is(err, scoring.ErrUnavailable):
			e.Metrics.ObserveScore(platform, "unavailable", nil)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": msgUnavailable})
		default:
			log.WithError(err).Error("Unexpected error while scoring post")
			e.Metrics.ObserveScore(platform, "error", nil)
			c.JSON(http.StatusInternalServerError, gin.H{"error": msgScoreFailed})
		}
		return
	}

	outcome := "ok"
	if res.Partial {
		outcome = "partial"
	}
	e.Metrics.ObserveScore(platform, outcome, res)

	record := models.ScoreRecord{
		RequestID:          requestID,
		Platform:           platform,
		PostText:           *input.PostText,
		HasImage:           len(in.Image) > 0,
		Score:              res.Score,
		Feedback:           res.Feedback,
		ContentSuggestions: res.ContentSuggestions,
		Partial:            res.Partial,
	}
	if err := e.DB.Create(&record).Error; err != nil {
		// History is best effort; the caller still gets its score.
		log.WithError(err).Error("Error saving score record")
	} else {
		e.broadcastMessage(WsMessage{Type: "score", Data: record})
	}

	log.WithField("score", res.Score).Info("Post scored")
	c.JSON(http.StatusOK, models.ScoreResponse{
		Score:              res.Score,
		Feedback:           res.Feedback,
		ContentSuggestions: res.ContentSuggestions,
	})
}

func (e *Env) GetRecentScores(c *gin.Context) {
	query := e.DB.Where("hidden = ?", false)
	if p := c.Query("platform"); p != "" {
		platform, err := models.ParsePlatform(p)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": msgBadPlatform})
			return
		}
		query = query.Where("platform = ?", platform)
	}

	var records []models.ScoreRecord
	if err := query.Order("created_at desc").Order("id desc").Limit(recentScoresLimit).Find(&records).Error; err != nil {
		e.Log.WithError(err).Error("Error fetching recent scores")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch scores"})
		return
	}
	c.JSON(http.StatusOK, records)
}

func (e *Env) HideScore(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid score ID"})
		return
	}

	var record models.ScoreRecord
	errNotFound := errors.New("score not found")

	err = e.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&record, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errNotFound
			}
			return err
		}
		return tx.Model(&record).Update("hidden", true).Error
	})
	if err != nil {
		if errors.Is(err, errNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Score not found"})
			return
		}
		e.Log.WithError(err).Error("Error hiding score")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hide score"})
		return
	}

	e.broadcastMessage(WsMessage{Type: "hide", Data: gin.H{"id": record.ID}})
	c.JSON(http.StatusOK, gin.H{"message": "Score hidden successfully"})
}

// broadcastMessage never blocks a request: when the hub is backed up the
// message is dropped.
func (e *Env) broadcastMessage(msg WsMessage) {
	if e.Hub == nil {
		return
	}
	jsonMsg, err := json.Marshal(msg)
	if err != nil {
		e.Log.WithError(err).Error("Error marshalling WS message")
		return
	}
	select {
	case e.Hub.Broadcast <- jsonMsg:
	default:
		e.Log.WithField("type", msg.Type).Warn("Live feed backed up, dropping message")
	}
}
