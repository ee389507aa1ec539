package models

// CatalogEntry describes one installed episode in a subscription's catalog
type CatalogEntry struct {
	Artist   string `json:"artist,omitempty"`
	Album    string `json:"album,omitempty"`
	Title    string `json:"title,omitempty"`
	Date     string `json:"date,omitempty"` // YYYY-MM-DD
	Genre    string `json:"genre,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
	File     string `json:"file"`     // library-relative path
	Filename string `json:"filename"` // basename on disk
}

// CatalogDocument is the persisted per-subscription catalog. Keys are
// "id:<stem>" where stem is the 12-hex episode identifier.
type CatalogDocument struct {
	ItemsByKey map[string]CatalogEntry `json:"itemsByKey"`
}

// NewCatalogDocument returns an empty catalog ready for upserts
func NewCatalogDocument() *CatalogDocument {
	return &CatalogDocument{ItemsByKey: make(map[string]CatalogEntry)}
}

// EntryKey builds the catalog key for an episode identifier
func EntryKey(id string) string {
	return "id:" + id
}
