// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationCreatedEvent is published after a reservation commits.  It
// carries enough for downstream consumers to log, notify staff, or feed
// analytics without querying the primary database.  Delivery is
// fire-and-forget: the reservation flow never depends on the broker.
type ReservationCreatedEvent struct {
    ReservationID    string `json:"reservation_id"`
    ReservationCode  string `json:"reservation_code"`
    TicketNumbers    []int  `json:"ticket_numbers"`
    TotalAmountCents uint32 `json:"total_amount_cents"`
    BuyerName        string `json:"buyer_name,omitempty"`
    BuyerPhone       string `json:"buyer_phone,omitempty"`
    Message          string `json:"message"`
    CreatedAt        string `json:"created_at"`
}
