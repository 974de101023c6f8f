package ports

import (
	"context"
	"errors"

	"github.com/pharmastock/core/internal/domain/entities"
)

// Persistence errors
var (
	// ErrInventoryNotFound means neither the external nor the bundled file exists.
	ErrInventoryNotFound = errors.New("inventory file not found")
	// ErrInventoryCorrupt means a file exists but does not parse.
	ErrInventoryCorrupt = errors.New("inventory file corrupt")
)

// InventorySource tells where a loaded inventory came from
type InventorySource string

const (
	InventorySourceExternal InventorySource = "external"
	InventorySourceBundled  InventorySource = "bundled"
)

// InventoryRepository defines how the inventory is mirrored to durable storage.
// Save replaces the whole stored document.
type InventoryRepository interface {
	Load(ctx context.Context) ([]entities.Medication, InventorySource, error)
	Save(ctx context.Context, medications []entities.Medication) error
	Location() string
}
