package catalog

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/glowcart-dev/glowcart/internal/models"
)

// ErrNotFound is returned when an item id does not exist
var ErrNotFound = errors.New("item not found")

// Service provides read access to the product catalog
type Service struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewService creates a new catalog service
func NewService(db *gorm.DB, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger.With().Str("component", "catalog").Logger(),
	}
}

// List returns the full catalog, newest first
func (s *Service) List() ([]models.Item, error) {
	var items []models.Item
	if err := s.db.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// Get returns a single item by id
func (s *Service) Get(id string) (*models.Item, error) {
	var item models.Item
	if err := models.FindByID(s.db, id, &item); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load item: %w", err)
	}
	return &item, nil
}

// Paginate returns one page of items plus the total count. Page numbers are
// 1-based; out-of-range values are clamped to sane defaults.
func (s *Service) Paginate(page, limit int) ([]models.Item, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var total int64
	if err := s.db.Model(&models.Item{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count items: %w", err)
	}

	var items []models.Item
	err := s.db.
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to paginate items: %w", err)
	}
	return items, total, nil
}

// seedFile mirrors the structure of seed/items.yaml
type seedFile struct {
	Items []seedItem `yaml:"items"`
}

type seedItem struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	PriceCents  int64  `yaml:"price_cents"`
	Currency    string `yaml:"currency"`
	SkinType    string `yaml:"skin_type"`
	ImageURL    string `yaml:"image_url"`
	InStock     *bool  `yaml:"in_stock"`
}

// SeedFromYAML loads the catalog from a YAML file when the items table is
// empty. An already-populated table is left untouched.
func (s *Service) SeedFromYAML(path string) error {
	var count int64
	if err := s.db.Model(&models.Item{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count items: %w", err)
	}
	if count > 0 {
		s.logger.Debug().Int64("items", count).Msg("Catalog already populated - skipping seed")
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info().Str("path", path).Msg("No catalog seed file - starting with empty catalog")
			return nil
		}
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	for _, entry := range seed.Items {
		item := models.Item{
			Name:        entry.Name,
			Description: entry.Description,
			PriceCents:  entry.PriceCents,
			Currency:    entry.Currency,
			SkinType:    entry.SkinType,
			ImageURL:    entry.ImageURL,
			InStock:     true,
		}
		if item.Currency == "" {
			item.Currency = "USD"
		}
		if entry.InStock != nil {
			item.InStock = *entry.InStock
		}
		if err := s.db.Create(&item).Error; err != nil {
			return fmt.Errorf("failed to seed item %q: %w", entry.Name, err)
		}
	}

	s.logger.Info().Int("items", len(seed.Items)).Str("path", path).Msg("Catalog seeded")
	return nil
}
