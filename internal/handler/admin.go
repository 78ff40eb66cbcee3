package handler

// This file defines HTTP handlers for administrators to review and
// reconcile reservations.  All routes sit behind JWT authentication
// plus a server-side ADMIN role check; there is no client-settable
// admin flag anywhere.  Status changes never touch ticket
// availability — only deleting a reservation frees its numbers.

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/raffle-ticket-reservation/internal/repository"
    "github.com/iliyamo/raffle-ticket-reservation/internal/service"
)

// AdminHandler groups the services needed to list, inspect, reconcile
// and delete reservations.
type AdminHandler struct {
    Reservations *repository.ReservationRepo
    Reconcile    *service.ReconcileService
    Inventory    *service.InventoryService
}

// NewAdminHandler constructs an AdminHandler.  All dependencies must be
// non-nil.
func NewAdminHandler(resRepo *repository.ReservationRepo, rec *service.ReconcileService, inv *service.InventoryService) *AdminHandler {
    if resRepo == nil || rec == nil || inv == nil {
        panic("nil dependency passed to NewAdminHandler")
    }
    return &AdminHandler{Reservations: resRepo, Reconcile: rec, Inventory: inv}
}

// ListReservations handles GET /v1/admin/reservations.  It returns
// every reservation newest first, each with its ticket numbers, so the
// dashboard can match incoming WhatsApp confirmations against codes.
func (h *AdminHandler) ListReservations(c echo.Context) error {
    items, err := h.Reservations.ListAll(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "items": items,
        "count": len(items),
    })
}

// GetReservation handles GET /v1/admin/reservations/:id.
func (h *AdminHandler) GetReservation(c echo.Context) error {
    id := c.Param("id")
    res, err := h.Reservations.GetByID(c.Request().Context(), id)
    if err != nil {
        if errors.Is(err, repository.ErrReservationNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"item": res})
}

// SetStatus handles PATCH /v1/admin/reservations/:id/status.  The body
// carries the target status; "bought" is accepted as an alias for
// "approved".  Returns the updated reservation.
func (h *AdminHandler) SetStatus(c echo.Context) error {
    id := c.Param("id")
    var body struct {
        Status string `json:"status"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    res, err := h.Reconcile.SetStatus(c.Request().Context(), id, body.Status)
    if err != nil {
        if errors.Is(err, service.ErrInvalidStatus) {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
        }
        if errors.Is(err, repository.ErrReservationNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"item": res})
}

// DeleteReservation handles DELETE /v1/admin/reservations/:id.  It
// releases the reservation's ticket numbers back to available and
// removes the row in one transaction.  A repeat delete returns 404
// rather than double-releasing tickets.
func (h *AdminHandler) DeleteReservation(c echo.Context) error {
    id := c.Param("id")
    if err := h.Reconcile.Delete(c.Request().Context(), id); err != nil {
        if errors.Is(err, repository.ErrReservationNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
    }
    h.Inventory.Invalidate(c.Request().Context())
    return c.NoContent(http.StatusNoContent)
}
