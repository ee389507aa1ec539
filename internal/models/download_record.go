package models

import "gorm.io/gorm"

// DownloadRecord is one download attempt in the history database
type DownloadRecord struct {
	gorm.Model
	Subscription string  `json:"subscription" gorm:"index"`
	EpisodeID    string  `json:"episodeId" gorm:"index"`
	URL          string  `json:"url" gorm:"not null"`
	OutPath      string  `json:"outPath"`
	OK           bool    `json:"ok" gorm:"index"`
	Bytes        int64   `json:"bytes"`
	ErrorMessage string  `json:"errorMessage,omitempty"`
	DurationMS   int64   `json:"durationMs"`
	Seconds      float64 `json:"seconds,omitempty"` // probed audio length
	Attempt      int     `json:"attempt"`
	Method       string  `json:"method"` // audio, image
}
