package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pharmastock/core/internal/domain/entities"
	"github.com/pharmastock/core/internal/infrastructure/logger"
	"github.com/pharmastock/core/internal/ports"
)

// InventoryService owns the in-memory inventory and its load/seed/save lifecycle.
// Initialize must run once before use and Cleanup once at shutdown.
type InventoryService struct {
	repo   ports.InventoryRepository
	logger *logger.Logger
	now    func() time.Time

	mu          sync.RWMutex
	inventory   []entities.Medication
	initialized bool
}

// InventoryOption configures an InventoryService
type InventoryOption func(*InventoryService)

// WithClock overrides the clock used to date seed records
func WithClock(now func() time.Time) InventoryOption {
	return func(s *InventoryService) {
		s.now = now
	}
}

// NewInventoryService creates a new inventory service. A nil repo gives the
// pure in-memory variant: every Initialize seeds and Cleanup writes nothing.
func NewInventoryService(repo ports.InventoryRepository, logger *logger.Logger, opts ...InventoryOption) *InventoryService {
	s := &InventoryService{
		repo:   repo,
		logger: logger.WithComponent("inventory"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize populates the inventory from storage, or from the seed set when
// nothing usable is stored. It never fails; persistence problems are logged
// and degrade to seed data held in memory.
func (s *InventoryService) Initialize(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("Initializing pharmaceutical inventory")

	s.inventory = make([]entities.Medication, 0)

	if s.repo == nil {
		s.inventory = append(s.inventory, s.seed(minimalSeed)...)
	} else {
		s.loadOrSeed(ctx)
	}

	s.initialized = true
	s.logger.Infow("Inventory initialized", "count", len(s.inventory))
}

func (s *InventoryService) loadOrSeed(ctx context.Context) {
	loaded, source, err := s.repo.Load(ctx)
	if err == nil {
		s.inventory = append(s.inventory, loaded...)
		s.logger.Infow("Inventory loaded", "source", source, "count", len(loaded))
		return
	}

	if !errors.Is(err, ports.ErrInventoryNotFound) && !errors.Is(err, ports.ErrInventoryCorrupt) {
		s.logger.Errorw("Inventory initialization failed, falling back to sample data", "error", err)
		s.inventory = append(s.inventory, s.seed(fullSeed)...)
		return
	}

	if errors.Is(err, ports.ErrInventoryCorrupt) {
		s.logger.Warnw("Inventory file unreadable, recreating initial data", "error", err)
	} else {
		s.logger.Info("No existing inventory file found, creating initial data")
	}

	s.inventory = append(s.inventory, s.seed(fullSeed)...)
	if err := s.repo.Save(ctx, s.inventory); err != nil {
		// the seed stays in memory only; the next startup tries again
		s.logger.Errorw("Saving initial inventory failed, keeping sample data in memory", "error", err,
			"path", s.repo.Location())
	}
}

// Cleanup flushes the inventory to storage and marks the service uninitialized.
// Save failures are logged, never returned.
func (s *InventoryService) Cleanup(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("Performing cleanup and saving inventory state")

	if s.inventory != nil && s.repo != nil {
		s.logger.Infow("Final inventory count", "count", len(s.inventory))
		if err := s.repo.Save(ctx, s.inventory); err != nil {
			s.logger.Errorw("Saving inventory failed", "error", err, "path", s.repo.Location())
		} else {
			s.logger.Infow("Inventory state saved", "path", s.repo.Location())
		}
	}

	s.initialized = false
	s.logger.Info("Inventory cleanup completed")
}

// IsInitialized reports whether the service is between Initialize and Cleanup
func (s *InventoryService) IsInitialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// GetAllMedications returns a copy of the inventory
func (s *InventoryService) GetAllMedications() ([]entities.Medication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, entities.ErrNotInitialized
	}

	out := make([]entities.Medication, len(s.inventory))
	copy(out, s.inventory)
	return out, nil
}

// GetTotalMedications returns the number of records, 0 before initialization
func (s *InventoryService) GetTotalMedications() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.inventory)
}

// GetTotalUnits returns the summed quantity of all records, 0 before initialization
func (s *InventoryService) GetTotalUnits() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return entities.TotalUnits(s.inventory)
}

// AddMedication appends a record. No deduplication or validation is done.
func (s *InventoryService) AddMedication(medication entities.Medication) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return entities.ErrNotInitialized
	}

	s.inventory = append(s.inventory, medication)
	s.logger.LogInventoryChange("add", medication.BatchNumber, len(s.inventory))
	return nil
}

// RemoveMedication removes every record with the given batch number and
// reports whether any was removed.
func (s *InventoryService) RemoveMedication(batchNumber string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return false, entities.ErrNotInitialized
	}

	kept := s.inventory[:0]
	for _, m := range s.inventory {
		if m.BatchNumber != batchNumber {
			kept = append(kept, m)
		}
	}
	removed := len(s.inventory) - len(kept)
	// zero the tail
	for i := len(kept); i < len(s.inventory); i++ {
		s.inventory[i] = entities.Medication{}
	}
	s.inventory = kept

	if removed > 0 {
		s.logger.LogInventoryChange("remove", batchNumber, len(s.inventory))
	}
	return removed > 0, nil
}
