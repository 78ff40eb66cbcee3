package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/raffle-ticket-reservation/internal/handler"
	"github.com/iliyamo/raffle-ticket-reservation/internal/middleware"
)

// RegisterPublic registers the unauthenticated storefront endpoints:
// inventory browsing, the package catalogue, the three reservation
// shapes and buyer self-serve lookups.  The reserve routes accept an
// optional access token so authenticated buyers get their reservations
// tagged with an owner, and sit behind the token-bucket rate limiter to
// blunt claim-hammering.
func RegisterPublic(e *echo.Echo, inv *handler.InventoryHandler, res *handler.ReservationHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	// Browsing endpoints: availability per section, ranged number board,
	// package tiers.
	e.GET("/v1/tickets/sections", inv.GetSections)
	e.GET("/v1/tickets", inv.GetRange)
	e.GET("/v1/packages", inv.GetPackages)

	// Reservation endpoints.  Anonymous buyers are fully supported; a
	// valid Bearer token merely sets the reservation's owner.
	g := e.Group("/v1/reservations", middleware.OptionalAuth(jwtSecret), limiter)
	g.POST("", res.ReserveExplicit)
	g.POST("/package", res.ReservePackage)
	g.POST("/random", res.ReserveRandom)

	// Self-serve status lookup by reservation code.
	e.GET("/v1/reservations/code/:code", res.GetByCode)
}
