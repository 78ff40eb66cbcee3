package handler

// This file defines the buyer-facing reservation endpoints.  All three
// request shapes (explicit numbers, package, lucky numbers) funnel into
// the allocation service, which normalizes them into an explicit list
// before the shared atomic claim.  A successful response carries the
// reservation, the formatted payment message and the WhatsApp deep
// link; the buyer completes payment out of band quoting the code.

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/raffle-ticket-reservation/internal/model"
    "github.com/iliyamo/raffle-ticket-reservation/internal/queue"
    "github.com/iliyamo/raffle-ticket-reservation/internal/repository"
    "github.com/iliyamo/raffle-ticket-reservation/internal/service"
)

// ReservationHandler bundles the services behind the reserve and
// lookup endpoints.
type ReservationHandler struct {
    Allocation   *service.AllocationService
    Inventory    *service.InventoryService
    Reservations *repository.ReservationRepo
    StorePhone   string // WhatsApp destination for payment confirmations
}

// NewReservationHandler constructs a ReservationHandler.  All service
// dependencies must be non-nil.
func NewReservationHandler(alloc *service.AllocationService, inv *service.InventoryService, resRepo *repository.ReservationRepo, storePhone string) *ReservationHandler {
    if alloc == nil || inv == nil || resRepo == nil {
        panic("nil dependency passed to NewReservationHandler")
    }
    return &ReservationHandler{Allocation: alloc, Inventory: inv, Reservations: resRepo, StorePhone: storePhone}
}

type buyerPart struct {
    Name  string `json:"name"`
    Phone string `json:"phone"`
    State string `json:"state"`
}

func (b buyerPart) toModel() model.Buyer {
    return model.Buyer{Name: b.Name, Phone: b.Phone, State: b.State}
}

// ReserveExplicit handles POST /v1/reservations.  The body carries the
// exact ticket numbers wanted plus optional buyer metadata.  Returns
// 201 with the reservation on success; 409 with the conflicting
// numbers when any pick was already claimed.
func (h *ReservationHandler) ReserveExplicit(c echo.Context) error {
    var body struct {
        Numbers []int     `json:"numbers"`
        Buyer   buyerPart `json:"buyer"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    req := service.ReserveRequest{
        Kind:    service.KindExplicit,
        Numbers: body.Numbers,
        Buyer:   body.Buyer.toModel(),
        OwnerID: optionalUserID(c),
    }
    return h.reserve(c, req)
}

// ReservePackage handles POST /v1/reservations/package.  The engine
// draws the tier's ticket count at random from the available pool,
// excluding numbers the session already picked.
func (h *ReservationHandler) ReservePackage(c echo.Context) error {
    var body struct {
        PackageID string    `json:"package_id"`
        Exclude   []int     `json:"exclude"`
        Buyer     buyerPart `json:"buyer"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    req := service.ReserveRequest{
        Kind:      service.KindPackage,
        PackageID: body.PackageID,
        Exclude:   body.Exclude,
        Buyer:     body.Buyer.toModel(),
        OwnerID:   optionalUserID(c),
    }
    return h.reserve(c, req)
}

// ReserveRandom handles POST /v1/reservations/random.  The body names
// how many lucky numbers to draw (1–1000).
func (h *ReservationHandler) ReserveRandom(c echo.Context) error {
    var body struct {
        Count   int       `json:"count"`
        Exclude []int     `json:"exclude"`
        Buyer   buyerPart `json:"buyer"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    req := service.ReserveRequest{
        Kind:    service.KindRandom,
        Count:   body.Count,
        Exclude: body.Exclude,
        Buyer:   body.Buyer.toModel(),
        OwnerID: optionalUserID(c),
    }
    return h.reserve(c, req)
}

// reserve runs the shared allocation path and shapes the response.
func (h *ReservationHandler) reserve(c echo.Context, req service.ReserveRequest) error {
    res, err := h.Allocation.Reserve(c.Request().Context(), req)
    if err != nil {
        return reserveError(c, err)
    }

    // The reservation is committed; everything below is best-effort.
    h.Inventory.Invalidate(c.Request().Context())
    message := service.BuildPaymentMessage(res)
    event := queue.ReservationCreatedEvent{
        ReservationID:    res.ID,
        ReservationCode:  res.ReservationCode,
        TicketNumbers:    res.TicketNumbers,
        TotalAmountCents: res.TotalAmountCents,
        Message:          message,
        CreatedAt:        res.CreatedAt.UTC().Format(time.RFC3339),
    }
    if res.BuyerName != nil {
        event.BuyerName = *res.BuyerName
    }
    if res.BuyerPhone != nil {
        event.BuyerPhone = *res.BuyerPhone
    }
    go func() {
        ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        defer cancel()
        _ = service.PublishReservationCreated(ctx, event)
    }()

    return c.JSON(http.StatusCreated, echo.Map{
        "reservation":   res,
        "message":       message,
        "whatsapp_link": service.WhatsAppLink(h.StorePhone, message),
    })
}

// reserveError maps allocation failures onto HTTP responses.  The
// response always distinguishes "nothing happened, adjust and retry"
// from "something went wrong, try again later".
func reserveError(c echo.Context, err error) error {
    var unavailable *repository.TicketsUnavailableError
    if errors.As(err, &unavailable) {
        preview, more := unavailable.Preview()
        return c.JSON(http.StatusConflict, echo.Map{
            "error":       "tickets unavailable",
            "unavailable": preview,
            "more":        more,
        })
    }
    var supply *repository.InsufficientSupplyError
    if errors.As(err, &supply) {
        return c.JSON(http.StatusConflict, echo.Map{
            "error":     "insufficient supply",
            "requested": supply.Requested,
            "available": supply.Available,
        })
    }
    switch {
    case errors.Is(err, repository.ErrInvalidTicketNumber):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket number"})
    case errors.Is(err, service.ErrInvalidCount):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    case errors.Is(err, service.ErrUnknownPackage):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown package"})
    case errors.Is(err, repository.ErrReservationCreationFailed):
        // The claimed tickets were rolled back; the buyer may retry.
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "reservation creation failed, please retry"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
}

// GetByCode handles GET /v1/reservations/code/:code.  Buyers use it for
// self-serve status lookups with the code from their WhatsApp message.
func (h *ReservationHandler) GetByCode(c echo.Context) error {
    code := c.Param("code")
    if code == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "code is required"})
    }
    res, err := h.Reservations.GetByCode(c.Request().Context(), code)
    if err != nil {
        if errors.Is(err, repository.ErrReservationNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"item": res})
}
