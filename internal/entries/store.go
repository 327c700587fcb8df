// Package entries persists config entries, one per external account.
package entries

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pysugar/twitch-nexus/internal/db/models"
	"gorm.io/gorm"
)

// Store wraps entry persistence. At most one entry exists per unique ID;
// the unique index on the column backs up the lookup-before-create checks
// done by the flow manager.
type Store struct {
	db *gorm.DB
}

// NewStore creates an entry store on top of an initialized database.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// ByUniqueID returns the entry for an external account ID, or nil when no
// such entry exists.
func (s *Store) ByUniqueID(uniqueID string) (*models.Entry, error) {
	var entry models.Entry
	err := s.db.Where("unique_id = ?", uniqueID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup entry by unique id: %w", err)
	}
	return &entry, nil
}

// ByID returns the entry with the given row ID.
func (s *Store) ByID(id string) (*models.Entry, error) {
	var entry models.Entry
	if err := s.db.First(&entry, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("lookup entry %s: %w", id, err)
	}
	return &entry, nil
}

// Create inserts a new entry.
func (s *Store) Create(entry *models.Entry) error {
	if err := s.db.Create(entry).Error; err != nil {
		return fmt.Errorf("create entry: %w", err)
	}
	return nil
}

// Save persists changes to an existing entry.
func (s *Store) Save(entry *models.Entry) error {
	if err := s.db.Save(entry).Error; err != nil {
		return fmt.Errorf("save entry: %w", err)
	}
	return nil
}

// All returns every entry, oldest first.
func (s *Store) All() ([]models.Entry, error) {
	var all []models.Entry
	if err := s.db.Order("created_at").Find(&all).Error; err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return all, nil
}

// Count returns the number of stored entries.
func (s *Store) Count() (int64, error) {
	var n int64
	if err := s.db.Model(&models.Entry{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// MergeChannels appends incoming channels to existing ones, keeping the
// existing order and dropping duplicates. Merging the same list twice is a
// no-op.
func MergeChannels(existing, incoming []string) []string {
	merged := make([]string, 0, len(existing)+len(incoming))
	seen := make(map[string]bool, len(existing)+len(incoming))
	for _, c := range existing {
		if !seen[c] {
			seen[c] = true
			merged = append(merged, c)
		}
	}
	for _, c := range incoming {
		if !seen[c] {
			seen[c] = true
			merged = append(merged, c)
		}
	}
	return merged
}

// EncodeChannels serializes a channel list for the Channels column.
func EncodeChannels(channels []string) string {
	if channels == nil {
		channels = []string{}
	}
	b, _ := json.Marshal(channels)
	return string(b)
}

// DecodeChannels parses the Channels column back into a list. A malformed
// or empty column decodes to an empty list.
func DecodeChannels(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var channels []string
	if err := json.Unmarshal([]byte(raw), &channels); err != nil {
		return []string{}
	}
	return channels
}
