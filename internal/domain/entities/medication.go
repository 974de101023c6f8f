package entities

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrNotInitialized     = errors.New("inventory store not initialized")
	ErrMedicationNotFound = errors.New("medication not found")
)

// Medication is one inventory line item
type Medication struct {
	Name             string `json:"name"`
	ActiveIngredient string `json:"activeIngredient"`
	Quantity         int    `json:"quantity"`
	ExpiryDate       Date   `json:"expiryDate"`
	// BatchNumber identifies a record for removal. It is not enforced unique.
	BatchNumber string `json:"batchNumber"`
}

// NewMedication builds a medication record
func NewMedication(name, activeIngredient string, quantity int, expiry Date, batchNumber string) Medication {
	return Medication{
		Name:             name,
		ActiveIngredient: activeIngredient,
		Quantity:         quantity,
		ExpiryDate:       expiry,
		BatchNumber:      batchNumber,
	}
}

// IsExpired reports whether the record expires before the given day
func (m Medication) IsExpired(today Date) bool {
	return m.ExpiryDate.Before(today)
}

func (m Medication) String() string {
	return fmt.Sprintf("Medication{name=%q, activeIngredient=%q, quantity=%d, expiryDate=%s, batchNumber=%q}",
		m.Name, m.ActiveIngredient, m.Quantity, m.ExpiryDate, m.BatchNumber)
}

// TotalUnits sums the quantity of every record
func TotalUnits(meds []Medication) int {
	total := 0
	for _, m := range meds {
		total += m.Quantity
	}
	return total
}
