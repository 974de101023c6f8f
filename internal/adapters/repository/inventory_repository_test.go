package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmastock/core/internal/domain/entities"
	"github.com/pharmastock/core/internal/infrastructure/logger"
	"github.com/pharmastock/core/internal/ports"
)

const bundledInventory = `[
  {
    "name": "Bisoprolol Aristo 5mg Filmtabletten",
    "activeIngredient": "Bisoprolol Fumarat",
    "quantity": 600,
    "expiryDate": "2026-02-01",
    "batchNumber": "BIS-2024-019"
  }
]`

func sampleMedications() []entities.Medication {
	return []entities.Medication{
		entities.NewMedication("Alpha Lipon Aristo 600mg Filmtabletten", "Thioctsäure (Alpha-Lipoic Acid)", 300,
			entities.NewDate(2026, time.March, 31), "ALA-2024-001"),
		entities.NewMedication("Ibuprofen Aristo 400mg Filmtabletten", "Ibuprofen", 1500,
			entities.NewDate(2025, time.October, 1), "IBU-2024-007"),
	}
}

func TestJSONInventoryRepository_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	dataDir := filepath.Join(t.TempDir(), "data")
	repo := NewJSONInventoryRepository(dataDir, "inventory.json", nil, logger.NewNop())

	require.NoError(t, repo.Save(ctx, sampleMedications()))
	assert.FileExists(t, filepath.Join(dataDir, "inventory.json"))

	loaded, source, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, ports.InventorySourceExternal, source)
	assert.Equal(t, sampleMedications(), loaded)
}

func TestJSONInventoryRepository_SaveOverwritesWholeDocument(t *testing.T) {
	ctx := context.Background()
	dataDir := t.TempDir()
	repo := NewJSONInventoryRepository(dataDir, "inventory.json", nil, logger.NewNop())

	require.NoError(t, repo.Save(ctx, sampleMedications()))
	require.NoError(t, repo.Save(ctx, sampleMedications()[:1]))

	loaded, _, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 1)

	entries, err := os.ReadDir(dataDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestJSONInventoryRepository_SaveEmptyWritesArray(t *testing.T) {
	ctx := context.Background()
	dataDir := t.TempDir()
	repo := NewJSONInventoryRepository(dataDir, "inventory.json", nil, logger.NewNop())

	require.NoError(t, repo.Save(ctx, nil))

	data, err := os.ReadFile(repo.Location())
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestJSONInventoryRepository_PrettyPrintedISODates(t *testing.T) {
	ctx := context.Background()
	repo := NewJSONInventoryRepository(t.TempDir(), "inventory.json", nil, logger.NewNop())
	require.NoError(t, repo.Save(ctx, sampleMedications()[1:]))

	data, err := os.ReadFile(repo.Location())
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  {\n    \"name\": \"Ibuprofen Aristo 400mg Filmtabletten\",")
	assert.Contains(t, string(data), `"expiryDate": "2025-10-01"`)
}

func TestJSONInventoryRepository_FallsBackToBundled(t *testing.T) {
	bundled := fstest.MapFS{
		"data/inventory.json": &fstest.MapFile{Data: []byte(bundledInventory)},
	}
	repo := NewJSONInventoryRepository(t.TempDir(), "inventory.json", bundled, logger.NewNop())

	loaded, source, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ports.InventorySourceBundled, source)
	require.Len(t, loaded, 1)
	assert.Equal(t, "BIS-2024-019", loaded[0].BatchNumber)
	assert.Equal(t, entities.NewDate(2026, time.February, 1), loaded[0].ExpiryDate)
}

func TestJSONInventoryRepository_ExternalWinsOverBundled(t *testing.T) {
	ctx := context.Background()
	bundled := fstest.MapFS{
		"data/inventory.json": &fstest.MapFile{Data: []byte(bundledInventory)},
	}
	repo := NewJSONInventoryRepository(t.TempDir(), "inventory.json", bundled, logger.NewNop())
	require.NoError(t, repo.Save(ctx, sampleMedications()))

	loaded, source, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, ports.InventorySourceExternal, source)
	assert.Len(t, loaded, 2)
}

func TestJSONInventoryRepository_NotFound(t *testing.T) {
	tests := []struct {
		name    string
		bundled fstest.MapFS
	}{
		{"no_bundled_fs", nil},
		{"bundled_fs_without_file", fstest.MapFS{"data/other.json": &fstest.MapFile{Data: []byte("[]")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var repo *JSONInventoryRepository
			if tt.bundled == nil {
				repo = NewJSONInventoryRepository(t.TempDir(), "inventory.json", nil, logger.NewNop())
			} else {
				repo = NewJSONInventoryRepository(t.TempDir(), "inventory.json", tt.bundled, logger.NewNop())
			}

			_, _, err := repo.Load(context.Background())
			assert.ErrorIs(t, err, ports.ErrInventoryNotFound)
		})
	}
}

func TestJSONInventoryRepository_CorruptExternalDoesNotFallBack(t *testing.T) {
	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "inventory.json"), []byte(`[{"name": `), 0o644))
	bundled := fstest.MapFS{
		"data/inventory.json": &fstest.MapFile{Data: []byte(bundledInventory)},
	}
	repo := NewJSONInventoryRepository(dataDir, "inventory.json", bundled, logger.NewNop())

	_, _, err := repo.Load(context.Background())
	assert.ErrorIs(t, err, ports.ErrInventoryCorrupt)
}

func TestJSONInventoryRepository_CorruptBundled(t *testing.T) {
	bundled := fstest.MapFS{
		"data/inventory.json": &fstest.MapFile{Data: []byte(`{"not": "an array"}`)},
	}
	repo := NewJSONInventoryRepository(t.TempDir(), "inventory.json", bundled, logger.NewNop())

	_, _, err := repo.Load(context.Background())
	assert.ErrorIs(t, err, ports.ErrInventoryCorrupt)
}

func TestJSONInventoryRepository_ReadsArrayDates(t *testing.T) {
	dataDir := t.TempDir()
	doc := `[{"name":"Simvastatin Aristo 20mg Filmtabletten","activeIngredient":"Simvastatin",` +
		`"quantity":750,"expiryDate":[2025,12,24],"batchNumber":"SIM-2024-027"}]`
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "inventory.json"), []byte(doc), 0o644))
	repo := NewJSONInventoryRepository(dataDir, "inventory.json", nil, logger.NewNop())

	loaded, _, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, entities.NewDate(2025, time.December, 24), loaded[0].ExpiryDate)
}

func TestJSONInventoryRepository_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	repo := NewJSONInventoryRepository(t.TempDir(), "inventory.json", nil, logger.NewNop())

	_, _, err := repo.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, repo.Save(ctx, sampleMedications()), context.Canceled)
}
