package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pharmastock/core/internal/domain/entities"
)

// System status values shown by the inventory view
const (
	StatusOnline = "Online"
	StatusError  = "Error"
)

const unavailableMessage = "Inventory system unavailable"

// Request/Response types
type MessageResponse struct {
	Message string `json:"message"`
}

type RemoveResponse struct {
	BatchNumber string `json:"batchNumber"`
	Removed     bool   `json:"removed"`
}

// storeError maps an inventory store error to an HTTP error
func storeError(err error) *echo.HTTPError {
	if errors.Is(err, entities.ErrNotInitialized) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, unavailableMessage).SetInternal(err)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "Inventory operation failed").SetInternal(err)
}
