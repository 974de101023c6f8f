package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/pharmastock/core/internal/domain/entities"
	"github.com/pharmastock/core/internal/infrastructure/logger"
	"github.com/pharmastock/core/internal/ports"
)

// bundledDir is the directory of the inventory file inside the resource root
const bundledDir = "data"

// JSONInventoryRepository mirrors the inventory to a JSON document on disk.
// Reads prefer the writable external file and fall back to a read-only
// bundled copy; writes always go to the external file.
type JSONInventoryRepository struct {
	filePath string
	bundled  fs.FS
	fileName string
	logger   *logger.Logger
}

// NewJSONInventoryRepository creates a repository writing to dataDir/fileName.
// bundled may be nil when no bundled copy ships with the application.
func NewJSONInventoryRepository(dataDir, fileName string, bundled fs.FS, logger *logger.Logger) *JSONInventoryRepository {
	return &JSONInventoryRepository{
		filePath: filepath.Join(dataDir, fileName),
		bundled:  bundled,
		fileName: fileName,
		logger:   logger.WithComponent("inventory_repository"),
	}
}

// Location returns the external file path
func (r *JSONInventoryRepository) Location() string {
	return r.filePath
}

// Load reads the external file, or the bundled copy when the external file
// does not exist. A corrupt external file does not fall through to the
// bundled copy.
func (r *JSONInventoryRepository) Load(ctx context.Context) ([]entities.Medication, ports.InventorySource, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	data, err := os.ReadFile(r.filePath)
	if err == nil {
		meds, err := decode(data, r.filePath)
		if err != nil {
			return nil, "", err
		}
		r.logger.Infow("Loaded inventory from external file", "path", r.filePath, "count", len(meds))
		return meds, ports.InventorySourceExternal, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, "", fmt.Errorf("read inventory file %s: %w", r.filePath, err)
	}

	if r.bundled == nil {
		return nil, "", ports.ErrInventoryNotFound
	}

	name := path.Join(bundledDir, r.fileName)
	data, err = fs.ReadFile(r.bundled, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", ports.ErrInventoryNotFound
		}
		return nil, "", fmt.Errorf("read bundled inventory %s: %w", name, err)
	}

	meds, err := decode(data, name)
	if err != nil {
		return nil, "", err
	}
	r.logger.Infow("Loaded inventory from bundled resources", "path", name, "count", len(meds))
	return meds, ports.InventorySourceBundled, nil
}

// Save overwrites the external file with the full inventory
func (r *JSONInventoryRepository) Save(ctx context.Context, medications []entities.Medication) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if medications == nil {
		medications = []entities.Medication{}
	}

	data, err := json.MarshalIndent(medications, "", "  ")
	if err != nil {
		return fmt.Errorf("encode inventory: %w", err)
	}

	dir := filepath.Dir(r.filePath)
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
		r.logger.Infow("Created data directory", "path", dir)
	}

	if err := writeFileAtomic(r.filePath, data); err != nil {
		return fmt.Errorf("write inventory file %s: %w", r.filePath, err)
	}

	r.logger.Infow("Inventory saved", "path", r.filePath, "count", len(medications))
	return nil
}

func decode(data []byte, name string) ([]entities.Medication, error) {
	var meds []entities.Medication
	if err := json.Unmarshal(data, &meds); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ports.ErrInventoryCorrupt, name, err)
	}
	if meds == nil {
		meds = []entities.Medication{}
	}
	return meds, nil
}

// writeFileAtomic writes to a temp file in the target directory and renames
// it over the target, so readers never observe a partial document.
func writeFileAtomic(target string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), filepath.Base(target)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
