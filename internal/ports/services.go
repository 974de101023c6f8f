package ports

import (
	"context"

	"github.com/pharmastock/core/internal/domain/entities"
)

// InventoryService is the inventory store consumed by the boundary layer
type InventoryService interface {
	Initialize(ctx context.Context)
	Cleanup(ctx context.Context)
	IsInitialized() bool

	GetAllMedications() ([]entities.Medication, error)
	GetTotalMedications() int
	GetTotalUnits() int

	AddMedication(medication entities.Medication) error
	RemoveMedication(batchNumber string) (bool, error)
}

// CreateMedicationRequest is the body accepted when adding a medication
type CreateMedicationRequest struct {
	Name             string        `json:"name"`
	ActiveIngredient string        `json:"activeIngredient"`
	Quantity         int           `json:"quantity" validate:"gte=0"`
	ExpiryDate       entities.Date `json:"expiryDate" validate:"required"`
	BatchNumber      string        `json:"batchNumber" validate:"required"`
}

// ToMedication converts the request into a record
func (r CreateMedicationRequest) ToMedication() entities.Medication {
	return entities.NewMedication(r.Name, r.ActiveIngredient, r.Quantity, r.ExpiryDate, r.BatchNumber)
}

// InventoryResponse is the JSON form of the inventory view
type InventoryResponse struct {
	Medications      []entities.Medication `json:"medications"`
	TotalMedications int                   `json:"totalMedications"`
	TotalUnits       int                   `json:"totalUnits"`
	SystemStatus     string                `json:"systemStatus"`
	Error            string                `json:"error,omitempty"`
}

// InventorySummary carries the lenient counters
type InventorySummary struct {
	TotalMedications int  `json:"totalMedications"`
	TotalUnits       int  `json:"totalUnits"`
	Initialized      bool `json:"initialized"`
}
