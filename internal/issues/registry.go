// Package issues records user-visible diagnostics raised by flows.
package issues

import (
	"fmt"
	"log"

	"github.com/pysugar/twitch-nexus/internal/db/models"
	"gorm.io/gorm"
)

// Severity levels for reported issues.
const (
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Registry is an append-only set of issues keyed by a stable issue ID.
type Registry struct {
	db *gorm.DB
}

// NewRegistry creates an issue registry on top of an initialized database.
func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

// Report records an issue. Reporting the same ID again leaves the original
// row untouched, so the observable issue count stays stable across retries.
func (r *Registry) Report(id, severity, message string) error {
	issue := models.Issue{ID: id, Severity: severity, Message: message}
	if err := r.db.Where("id = ?", id).FirstOrCreate(&issue).Error; err != nil {
		return fmt.Errorf("report issue %s: %w", id, err)
	}
	log.Printf("[issues] reported %s (%s)", id, severity)
	return nil
}

// Count returns the number of recorded issues.
func (r *Registry) Count() (int64, error) {
	var n int64
	if err := r.db.Model(&models.Issue{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count issues: %w", err)
	}
	return n, nil
}

// All returns every recorded issue, oldest first.
func (r *Registry) All() ([]models.Issue, error) {
	var all []models.Issue
	if err := r.db.Order("created_at").Find(&all).Error; err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	return all, nil
}
