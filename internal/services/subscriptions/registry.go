package subscriptions

import (
	"encoding/json"
	"os"
	"strings"
	"sync"

	"github.com/castkeep/castkeep-api/internal/fsutil"
	"github.com/castkeep/castkeep-api/internal/models"
	apperrors "github.com/castkeep/castkeep-api/pkg/errors"
)

// Registry is the ordered subscriptions file. The feed URL (trimmed) is the
// identity key; newer subscriptions sit before older ones. All access goes
// through one mutex, the file is small.
type Registry struct {
	mu   sync.Mutex
	path string
}

// NewRegistry creates a registry backed by the given JSON file
func NewRegistry(path string) *Registry {
	return &Registry{path: path}
}

// NormalizeURL trims the identity key form of a feed URL
func NormalizeURL(rawURL string) string {
	return strings.TrimSpace(rawURL)
}

func (r *Registry) load() (*models.SubscriptionRegistry, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &models.SubscriptionRegistry{Items: []models.Subscription{}}, nil
		}
		return nil, apperrors.IOError("read", r.path, err)
	}

	var reg models.SubscriptionRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeConsistency, "subscriptions registry is corrupt").
			WithDetail("path", r.path)
	}
	if reg.Items == nil {
		reg.Items = []models.Subscription{}
	}
	return &reg, nil
}

func (r *Registry) save(reg *models.SubscriptionRegistry) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "encoding registry")
	}
	if err := fsutil.WriteFileAtomic(r.path, data, 0644); err != nil {
		return apperrors.IOError("write", r.path, err)
	}
	return nil
}

// List returns all records in registry order
func (r *Registry) List() ([]models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, err := r.load()
	if err != nil {
		return nil, err
	}
	return reg.Items, nil
}

// Get looks a record up by feed URL
func (r *Registry) Get(rawURL string) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, err := r.load()
	if err != nil {
		return nil, err
	}

	key := NormalizeURL(rawURL)
	for i := range reg.Items {
		if NormalizeURL(reg.Items[i].URL) == key {
			sub := reg.Items[i]
			return &sub, nil
		}
	}
	return nil, apperrors.NotFound("subscription", key)
}

// GetByPlaylist looks a record up by its playlist path
func (r *Registry) GetByPlaylist(playlist string) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, err := r.load()
	if err != nil {
		return nil, err
	}

	for i := range reg.Items {
		if reg.Items[i].Playlist == playlist {
			sub := reg.Items[i]
			return &sub, nil
		}
	}
	return nil, apperrors.NotFound("subscription", playlist)
}

// Upsert replaces the record matching sub.URL in place, or prepends it as
// the newest subscription
func (r *Registry) Upsert(sub models.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, err := r.load()
	if err != nil {
		return err
	}

	key := NormalizeURL(sub.URL)
	for i := range reg.Items {
		if NormalizeURL(reg.Items[i].URL) == key {
			reg.Items[i] = sub
			return r.save(reg)
		}
	}

	reg.Items = append([]models.Subscription{sub}, reg.Items...)
	return r.save(reg)
}

// Update applies fn to the record matching rawURL and persists
func (r *Registry) Update(rawURL string, fn func(*models.Subscription)) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, err := r.load()
	if err != nil {
		return nil, err
	}

	key := NormalizeURL(rawURL)
	for i := range reg.Items {
		if NormalizeURL(reg.Items[i].URL) == key {
			fn(&reg.Items[i])
			if err := r.save(reg); err != nil {
				return nil, err
			}
			sub := reg.Items[i]
			return &sub, nil
		}
	}
	return nil, apperrors.NotFound("subscription", key)
}

// Remove drops the record matching rawURL. Files on disk are untouched.
func (r *Registry) Remove(rawURL string) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, err := r.load()
	if err != nil {
		return nil, err
	}

	key := NormalizeURL(rawURL)
	for i := range reg.Items {
		if NormalizeURL(reg.Items[i].URL) == key {
			sub := reg.Items[i]
			reg.Items = append(reg.Items[:i], reg.Items[i+1:]...)
			if err := r.save(reg); err != nil {
				return nil, err
			}
			return &sub, nil
		}
	}
	return nil, apperrors.NotFound("subscription", key)
}
