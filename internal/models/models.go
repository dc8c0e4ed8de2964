package models

import (
	"time"
)

// ScoreRecord is one completed scoring of a post, kept for the history feed.
type ScoreRecord struct {
	ID                 uint      `gorm:"primarykey" json:"id"`
	RequestID          string    `gorm:"not null;uniqueIndex;size:36" json:"requestId"`
	Platform           Platform  `gorm:"not null;index;size:16" json:"platform"`
	PostText           string    `gorm:"not null" json:"postText"`
	HasImage           bool      `gorm:"not null;default:false" json:"hasImage"`
	Score              int       `gorm:"not null" json:"score"`
	Feedback           string    `gorm:"not null" json:"feedback"`
	ContentSuggestions string    `json:"contentSuggestions,omitempty"`
	Partial            bool      `gorm:"not null;default:false" json:"partial"` // Model output needed the fallback parser
	Hidden             bool      `gorm:"not null;default:false" json:"-"`       // Hidden from API responses
	CreatedAt          time.Time `json:"createdAt"`
}
