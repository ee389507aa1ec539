package models

import "time"

// OrphanTitle marks local files whose identifier no longer appears in the
// scanned feed window
const OrphanTitle = "(downloaded — not in feed scan)"

// Episode is the reconciled view of one episode: feed state merged with
// local download state
type Episode struct {
	ID           string     `json:"id"`
	Key          string     `json:"key"`
	Title        string     `json:"title"`
	Date         string     `json:"date,omitempty"` // YYYY-MM-DD
	Published    *time.Time `json:"published,omitempty"`
	EnclosureURL string     `json:"enclosure,omitempty"`
	ImageURL     string     `json:"imageUrl,omitempty"`
	Downloaded   bool       `json:"downloaded"`
	Filename     string     `json:"filename,omitempty"`
	LibraryPath  string     `json:"file,omitempty"`
	InFeed       bool       `json:"inFeed"`
}

// WorkSummary totals the outcome of a download batch plus the catalog and
// playlist sizes after it
type WorkSummary struct {
	Downloaded int `json:"downloaded"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
	MapCount   int `json:"mapCount"`
	M3UCount   int `json:"m3uCount"`
}

// DeleteReport accounts for every requested key in exactly one bucket
type DeleteReport struct {
	Deleted    []string `json:"deleted"`
	Missing    []string `json:"missing"`
	FileErrors []string `json:"fileErrors,omitempty"`
}
