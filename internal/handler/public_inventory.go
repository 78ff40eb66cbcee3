// Package handler exposes HTTP handlers for both public and admin
// endpoints.  This file defines the unauthenticated inventory browsing
// API: section counts for the storefront's section picker, ranged views
// of the number board, and the package catalogue.
package handler

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/raffle-ticket-reservation/internal/model"
    "github.com/iliyamo/raffle-ticket-reservation/internal/repository"
    "github.com/iliyamo/raffle-ticket-reservation/internal/service"
)

// InventoryHandler aggregates the read-side services needed for
// unauthenticated browsing.
type InventoryHandler struct {
    Inventory *service.InventoryService
}

// NewInventoryHandler constructs an InventoryHandler.  The inventory
// service must be non-nil.
func NewInventoryHandler(inv *service.InventoryService) *InventoryHandler {
    if inv == nil {
        panic("nil service passed to NewInventoryHandler")
    }
    return &InventoryHandler{Inventory: inv}
}

// GetSections handles GET /v1/tickets/sections.  It returns the count
// of available tickets per fixed 1,000-wide section plus the overall
// total.  Counts come from the aggregate cache and may lag concurrent
// reservations by the cache TTL.
func (h *InventoryHandler) GetSections(c echo.Context) error {
    ctx := c.Request().Context()
    counts, err := h.Inventory.SectionCounts(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    total, err := h.Inventory.TotalAvailable(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "items": counts,
        "total": total,
    })
}

// GetRange handles GET /v1/tickets?low=&high=.  It returns every ticket
// in the inclusive range with its current availability so the number
// board can render a section.  Defaults cover the first section.
func (h *InventoryHandler) GetRange(c echo.Context) error {
    low := 0
    high := model.SectionWidth - 1
    if s := c.QueryParam("low"); s != "" {
        n, err := strconv.Atoi(s)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid low"})
        }
        low = n
    }
    if s := c.QueryParam("high"); s != "" {
        n, err := strconv.Atoi(s)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid high"})
        }
        high = n
    }
    tickets, err := h.Inventory.Range(c.Request().Context(), low, high)
    if err != nil {
        if errors.Is(err, repository.ErrInvalidTicketNumber) {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "range out of bounds"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "items": tickets,
        "count": len(tickets),
    })
}

// GetPackages handles GET /v1/packages.  It lists the fixed package
// tiers so the storefront can render the package picker.
func (h *InventoryHandler) GetPackages(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{"items": model.Packages})
}
