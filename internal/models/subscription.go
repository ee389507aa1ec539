package models

import "time"

// Subscription is one record in the ordered subscriptions registry.
// Path fields are derived once at subscribe time and persisted so that
// later config changes never orphan existing folders.
type Subscription struct {
	URL             string    `json:"url"`
	Title           string    `json:"title,omitempty"`
	Folder          string    `json:"folder"`
	Dir             string    `json:"dir"`
	Prefix          string    `json:"prefix"`
	Playlist        string    `json:"playlist"`
	Catalog         string    `json:"catalog"`
	CoverURL        string    `json:"coverUrl,omitempty"`
	ScanLimit       int       `json:"scanLimit,omitempty"`
	DownloadCount   int       `json:"downloadCount,omitempty"`
	DownloadedCount int       `json:"downloadedCount,omitempty"`
	AutoDownload    bool      `json:"autoDownload,omitempty"`
	AddedAt         time.Time `json:"addedAt,omitempty"`
	UpdatedAt       time.Time `json:"updatedAt,omitempty"`
}

// SubscriptionRegistry is the persisted registry document. Order is
// meaningful: newest subscriptions come first.
type SubscriptionRegistry struct {
	Items []Subscription `json:"items"`
}

// SubscriptionInfo is a registry record enriched with live catalog state
// for list responses
type SubscriptionInfo struct {
	Subscription
	CatalogCount  int        `json:"catalogCount"`
	PlaylistBuilt *time.Time `json:"playlistBuilt,omitempty"`
}
