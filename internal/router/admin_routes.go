package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/raffle-ticket-reservation/internal/handler"
	"github.com/iliyamo/raffle-ticket-reservation/internal/middleware"
	"github.com/iliyamo/raffle-ticket-reservation/internal/model"
)

// RegisterAdmin registers the reconciliation endpoints under
// /v1/admin.  Every route requires a valid JWT whose role claim is
// ADMIN; the check happens server-side on each request.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.GET("/reservations", h.ListReservations)
	g.GET("/reservations/:id", h.GetReservation)
	g.PATCH("/reservations/:id/status", h.SetStatus)
	g.DELETE("/reservations/:id", h.DeleteReservation)
}
