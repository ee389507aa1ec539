package catalog

import (
	"encoding/json"
	"log"
	"os"
	"sync"

	"github.com/castkeep/castkeep-api/internal/fsutil"
	"github.com/castkeep/castkeep-api/internal/models"
	"github.com/castkeep/castkeep-api/internal/services/inventory"
	apperrors "github.com/castkeep/castkeep-api/pkg/errors"
)

// Store owns the per-subscription catalog documents and the playlists
// derived from them. Every mutating operation is serialized per catalog
// path, so concurrent requests against the same subscription cannot lose
// each other's read-modify-write cycles. Every successful mutation also
// rewrites the playlist: the two files move together or not at all.
type Store struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{locks: make(map[string]*sync.Mutex)}
}

func (s *Store) lock(path string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[path]
	if !ok {
		l = &sync.Mutex{}
		s.locks[path] = l
	}
	return l
}

// Load reads a catalog document. A missing file is an empty catalog. A
// file that exists but does not parse is a CONSISTENCY error; callers
// recover by rebuilding from disk.
func (s *Store) Load(path string) (*models.CatalogDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.NewCatalogDocument(), nil
		}
		return nil, apperrors.IOError("read", path, err)
	}

	var doc models.CatalogDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeConsistency, "catalog file is corrupt").
			WithDetail("path", path)
	}
	if doc.ItemsByKey == nil {
		doc.ItemsByKey = make(map[string]models.CatalogEntry)
	}

	return &doc, nil
}

// loadOrEmpty degrades a corrupt catalog to an empty one. Mutating
// operations use it so freshly installed files are never dropped on the
// floor because an old document rotted.
func (s *Store) loadOrEmpty(path string) *models.CatalogDocument {
	doc, err := s.Load(path)
	if err != nil {
		log.Printf("[WARN] Starting with empty catalog, load failed for %s: %v", path, err)
		return models.NewCatalogDocument()
	}
	return doc
}

// Count returns the number of entries without taking the write lock
func (s *Store) Count(path string) int {
	doc, err := s.Load(path)
	if err != nil {
		return 0
	}
	return len(doc.ItemsByKey)
}

// Upsert merges entries into the subscription's catalog and persists
func (s *Store) Upsert(sub *models.Subscription, entries map[string]models.CatalogEntry) (*models.CatalogDocument, error) {
	l := s.lock(sub.Catalog)
	l.Lock()
	defer l.Unlock()

	doc := s.loadOrEmpty(sub.Catalog)
	for key, entry := range entries {
		doc.ItemsByKey[key] = entry
	}

	if err := s.persist(sub, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Rebuild reconstructs the catalog from the directory inventory, taking
// metadata from meta (keyed by identifier) where the feed knows the
// episode. The catalog<->disk invariant is restored without downloading
// anything.
func (s *Store) Rebuild(sub *models.Subscription, inv map[string]inventory.FileEntry, meta map[string]models.CatalogEntry) (*models.CatalogDocument, error) {
	l := s.lock(sub.Catalog)
	l.Lock()
	defer l.Unlock()

	doc := models.NewCatalogDocument()
	for id, file := range inv {
		entry, known := meta[id]
		if !known {
			entry = models.CatalogEntry{
				Artist: sub.Title,
				Album:  sub.Title,
				Title:  id,
				Genre:  "Podcast",
			}
		}
		entry.File = sub.Prefix + "/" + file.Filename
		entry.Filename = file.Filename
		doc.ItemsByKey[models.EntryKey(id)] = entry
	}

	if err := s.persist(sub, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Delete removes the given keys from the catalog, unlinking files
// best-effort. Every requested key lands in exactly one of the report's
// deleted or missing buckets; unlink failures are additionally noted but
// the entry still leaves the catalog.
func (s *Store) Delete(sub *models.Subscription, keys []string) (*models.DeleteReport, *models.CatalogDocument, error) {
	l := s.lock(sub.Catalog)
	l.Lock()
	defer l.Unlock()

	doc := s.loadOrEmpty(sub.Catalog)
	report := &models.DeleteReport{Deleted: []string{}, Missing: []string{}}

	for _, key := range keys {
		entry, ok := doc.ItemsByKey[key]
		if !ok {
			report.Missing = append(report.Missing, key)
			continue
		}

		if entry.Filename != "" {
			target := sub.Dir + string(os.PathSeparator) + entry.Filename
			if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
				log.Printf("[WARN] Could not unlink %s: %v", target, err)
				report.FileErrors = append(report.FileErrors, key)
			}
		}

		delete(doc.ItemsByKey, key)
		report.Deleted = append(report.Deleted, key)
	}

	if err := s.persist(sub, doc); err != nil {
		return nil, nil, err
	}
	return report, doc, nil
}

// persist writes the catalog document and regenerates the playlist, both
// atomically. Callers must hold the catalog lock.
func (s *Store) persist(sub *models.Subscription, doc *models.CatalogDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "encoding catalog")
	}

	if err := fsutil.WriteFileAtomic(sub.Catalog, data, 0644); err != nil {
		return apperrors.IOError("write", sub.Catalog, err)
	}

	playlist := FromCatalog(doc)
	if err := fsutil.WriteFileAtomic(sub.Playlist, []byte(playlist), 0644); err != nil {
		return apperrors.IOError("write", sub.Playlist, err)
	}

	log.Printf("[DEBUG] Persisted catalog %s (%d entries)", sub.Catalog, len(doc.ItemsByKey))
	return nil
}
