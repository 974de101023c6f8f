package services

import (
	"github.com/pharmastock/core/internal/domain/entities"
)

type seedItem struct {
	name             string
	activeIngredient string
	quantity         int
	expiresInMonths  int
	batchNumber      string
}

// fullSeed is written to storage on first boot
var fullSeed = []seedItem{
	{"Alpha Lipon Aristo 600mg Filmtabletten", "Thioctsäure (Alpha-Lipoic Acid)", 300, 9, "ALA-2024-001"},
	{"Ibuprofen Aristo 400mg Filmtabletten", "Ibuprofen", 1500, 3, "IBU-2024-007"},
	{"Paracetamol Aristo 500mg Tabletten", "Paracetamol", 2000, 7, "PAR-2024-015"},
	{"Amoxicillin Aristo 750mg Filmtabletten", "Amoxicillin", 800, 1, "AMO-2024-023"},
	{"Omeprazol Aristo 20mg Kapseln", "Omeprazol", 1200, 11, "OMP-2024-041"},
	{"Metformin Aristo 850mg Filmtabletten", "Metformin HCl", 950, 8, "MET-2024-033"},
	{"Bisoprolol Aristo 5mg Filmtabletten", "Bisoprolol Fumarat", 600, 4, "BIS-2024-019"},
	{"Simvastatin Aristo 20mg Filmtabletten", "Simvastatin", 750, 6, "SIM-2024-027"},
}

// minimalSeed backs the in-memory variant
var minimalSeed = fullSeed[:3]

// seed builds records from items, dating expiry relative to today
func (s *InventoryService) seed(items []seedItem) []entities.Medication {
	today := entities.DateOf(s.now())

	meds := make([]entities.Medication, 0, len(items))
	for _, it := range items {
		meds = append(meds, entities.NewMedication(it.name, it.activeIngredient, it.quantity,
			today.AddMonths(it.expiresInMonths), it.batchNumber))
	}

	s.logger.Infow("Sample inventory created", "count", len(meds))
	return meds
}
