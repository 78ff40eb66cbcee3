package model

import "time"

// Reservation statuses.  A reservation starts as pending when the
// allocation engine claims its tickets and moves to approved once an
// administrator confirms the out-of-band payment.  Tickets stay
// unavailable in both states; only deleting the reservation frees them.
const (
    StatusPending  = "pending"
    StatusApproved = "approved"
)

// Reservation groups a set of claimed ticket numbers under a single
// purchase.  The buyer quotes ReservationCode when sending proof of
// payment over WhatsApp; the administrator resolves the code back to
// this record when approving.
//
// Fields:
//  ID               – opaque UUID, primary key.
//  ReservationCode  – human-shareable identifier (TKT-<6 digits>-<3 alnum>).
//  TicketNumbers    – the ticket numbers claimed by this reservation.
//  TotalAmountCents – total price in cents for all tickets.
//  Status           – pending or approved.
//  BuyerName        – optional free-text buyer name.
//  BuyerPhone       – optional buyer phone number.
//  BuyerState       – optional buyer state/region.
//  OwnerID          – authenticated user who placed the reservation, nil
//                     for anonymous WhatsApp-only buyers.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Reservation struct {
    ID               string    `json:"id"`                   // reservations.id
    ReservationCode  string    `json:"reservation_code"`     // reservations.reservation_code
    TicketNumbers    []int     `json:"ticket_numbers"`       // reservation_tickets.ticket_number
    TotalAmountCents uint32    `json:"total_amount_cents"`   // reservations.total_amount_cents
    Status           string    `json:"status"`               // reservations.status
    BuyerName        *string   `json:"buyer_name,omitempty"` // reservations.buyer_name (nullable)
    BuyerPhone       *string   `json:"buyer_phone,omitempty"` // reservations.buyer_phone (nullable)
    BuyerState       *string   `json:"buyer_state,omitempty"` // reservations.buyer_state (nullable)
    OwnerID          *uint64   `json:"owner_id,omitempty"`   // reservations.owner_id (nullable)
    CreatedAt        time.Time `json:"created_at"`           // reservations.created_at
    UpdatedAt        time.Time `json:"updated_at"`           // reservations.updated_at
}

// Buyer carries the optional metadata supplied with a reservation
// request.  Every field may be empty; an anonymous reservation with no
// buyer details at all is a supported state.
type Buyer struct {
    Name  string `json:"name"`
    Phone string `json:"phone"`
    State string `json:"state"`
}
