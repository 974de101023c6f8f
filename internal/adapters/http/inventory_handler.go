package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pharmastock/core/internal/domain/entities"
	"github.com/pharmastock/core/internal/infrastructure/logger"
	"github.com/pharmastock/core/internal/ports"
)

// InventoryHandler serves the inventory view and the inventory API
type InventoryHandler struct {
	inventory ports.InventoryService
	logger    *logger.Logger
	now       func() time.Time
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(inventory ports.InventoryService, logger *logger.Logger) *InventoryHandler {
	return &InventoryHandler{
		inventory: inventory,
		logger:    logger.WithComponent("inventory_handler"),
		now:       time.Now,
	}
}

// MedicationRow is one table row of the inventory view
type MedicationRow struct {
	entities.Medication
	Expired bool
}

// IndexPage is the data handed to the index template
type IndexPage struct {
	Medications      []MedicationRow
	TotalMedications int
	TotalUnits       int
	SystemStatus     string
	Error            string
}

// ShowInventory renders the inventory page. Store failures still render the
// page, with an error message and the Error status.
func (h *InventoryHandler) ShowInventory(c echo.Context) error {
	meds, err := h.inventory.GetAllMedications()
	if err != nil {
		h.logger.Errorw("Inventory request failed", "error", err)
		return c.Render(http.StatusOK, "index", IndexPage{
			SystemStatus: StatusError,
			Error:        unavailableMessage,
		})
	}

	today := entities.DateOf(h.now())
	rows := make([]MedicationRow, 0, len(meds))
	for _, m := range meds {
		rows = append(rows, MedicationRow{Medication: m, Expired: m.IsExpired(today)})
	}

	page := IndexPage{
		Medications:      rows,
		TotalMedications: h.inventory.GetTotalMedications(),
		TotalUnits:       h.inventory.GetTotalUnits(),
		SystemStatus:     StatusOnline,
	}
	h.logger.Debugw("Inventory view prepared", "total_medications", page.TotalMedications)

	return c.Render(http.StatusOK, "index", page)
}

// ListMedications returns the inventory as JSON
func (h *InventoryHandler) ListMedications(c echo.Context) error {
	meds, err := h.inventory.GetAllMedications()
	if err != nil {
		h.logger.Errorw("List medications failed", "error", err)
		return c.JSON(http.StatusServiceUnavailable, ports.InventoryResponse{
			Medications:  []entities.Medication{},
			SystemStatus: StatusError,
			Error:        unavailableMessage,
		})
	}

	return c.JSON(http.StatusOK, ports.InventoryResponse{
		Medications:      meds,
		TotalMedications: h.inventory.GetTotalMedications(),
		TotalUnits:       h.inventory.GetTotalUnits(),
		SystemStatus:     StatusOnline,
	})
}

// GetSummary returns the summary counters. It never fails.
func (h *InventoryHandler) GetSummary(c echo.Context) error {
	return c.JSON(http.StatusOK, ports.InventorySummary{
		TotalMedications: h.inventory.GetTotalMedications(),
		TotalUnits:       h.inventory.GetTotalUnits(),
		Initialized:      h.inventory.IsInitialized(),
	})
}

// CreateMedication adds a medication to the inventory
func (h *InventoryHandler) CreateMedication(c echo.Context) error {
	var req ports.CreateMedicationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	med := req.ToMedication()
	if err := h.inventory.AddMedication(med); err != nil {
		h.logger.Errorw("Add medication failed", "error", err, "batch_number", med.BatchNumber)
		return storeError(err)
	}

	return c.JSON(http.StatusCreated, med)
}

// DeleteMedication removes every medication with the batch number in the path
func (h *InventoryHandler) DeleteMedication(c echo.Context) error {
	batchNumber := c.Param("batchNumber")
	if batchNumber == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Batch number is required")
	}

	removed, err := h.inventory.RemoveMedication(batchNumber)
	if err != nil {
		h.logger.Errorw("Remove medication failed", "error", err, "batch_number", batchNumber)
		return storeError(err)
	}

	if !removed {
		return echo.NewHTTPError(http.StatusNotFound, entities.ErrMedicationNotFound.Error())
	}

	return c.JSON(http.StatusOK, RemoveResponse{BatchNumber: batchNumber, Removed: true})
}
