package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/glowcart-dev/glowcart/internal/models"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.sqlite")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	return NewService(db, zerolog.Nop())
}

const seedYAML = `items:
  - name: Hydra Cream
    description: Daily moisturizer
    price_cents: 2450
    skin_type: dry
  - name: Clear Gel
    description: Oil-control cleanser
    price_cents: 1890
    currency: EUR
    skin_type: oily
    in_stock: false
`

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "items.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestSeedFromYAML(t *testing.T) {
	svc := newTestService(t)

	require.NoError(t, svc.SeedFromYAML(writeSeed(t, seedYAML)))

	items, err := svc.List()
	require.NoError(t, err)
	require.Len(t, items, 2)

	byName := map[string]models.Item{}
	for _, item := range items {
		byName[item.Name] = item
	}
	require.Equal(t, "USD", byName["Hydra Cream"].Currency, "currency defaults to USD")
	require.True(t, byName["Hydra Cream"].InStock, "stock defaults to true")
	require.Equal(t, "EUR", byName["Clear Gel"].Currency)
	require.False(t, byName["Clear Gel"].InStock)
}

func TestSeedSkipsPopulatedCatalog(t *testing.T) {
	svc := newTestService(t)

	require.NoError(t, svc.SeedFromYAML(writeSeed(t, seedYAML)))
	require.NoError(t, svc.SeedFromYAML(writeSeed(t, seedYAML)))

	items, err := svc.List()
	require.NoError(t, err)
	require.Len(t, items, 2, "second seed must not duplicate items")
}

func TestSeedMissingFileIsFine(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.SeedFromYAML(filepath.Join(t.TempDir(), "absent.yaml")))
}

func TestGet(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.SeedFromYAML(writeSeed(t, seedYAML)))

	items, err := svc.List()
	require.NoError(t, err)

	got, err := svc.Get(items[0].ID)
	require.NoError(t, err)
	require.Equal(t, items[0].Name, got.Name)

	_, err = svc.Get("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPaginate(t *testing.T) {
	svc := newTestService(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, svc.db.Create(&models.Item{
			Name:       "Item",
			PriceCents: int64(100 * (i + 1)),
			Currency:   "USD",
			InStock:    true,
		}).Error)
	}

	page, total, err := svc.Paginate(1, 2)
	require.NoError(t, err)
	require.EqualValues(t, 5, total)
	require.Len(t, page, 2)

	last, _, err := svc.Paginate(3, 2)
	require.NoError(t, err)
	require.Len(t, last, 1)

	// Out-of-range inputs are clamped, not errors
	clamped, _, err := svc.Paginate(-1, 0)
	require.NoError(t, err)
	require.Len(t, clamped, 5)
}
