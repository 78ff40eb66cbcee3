package service

import (
    "context"
    "fmt"
    "log"
    "strings"

    "github.com/iliyamo/raffle-ticket-reservation/internal/model"
    "github.com/iliyamo/raffle-ticket-reservation/internal/repository"
)

// ErrInvalidStatus is returned when a status update names a state
// outside the two-state machine.
var ErrInvalidStatus = fmt.Errorf("status must be %q or %q", model.StatusPending, model.StatusApproved)

// ReconcileService is the admin-side state machine over reservations.
// The machine has two states, pending and approved, and transitions in
// either direction never touch ticket availability: the available flag
// means "claimed by an active reservation", not "paid".  Only deleting
// a reservation releases its numbers back to the pool.
type ReconcileService struct {
    tickets      *repository.TicketRepo
    reservations *repository.ReservationRepo
}

// NewReconcileService wires the reconciliation service.
func NewReconcileService(tickets *repository.TicketRepo, reservations *repository.ReservationRepo) *ReconcileService {
    return &ReconcileService{tickets: tickets, reservations: reservations}
}

// CanonicalStatus maps the status labels used across the storefront
// onto the canonical pair.  The admin dashboard historically said
// "bought" where the buyer flow said "approved"; both name the same
// state.
func CanonicalStatus(status string) (string, error) {
    switch strings.ToLower(strings.TrimSpace(status)) {
    case model.StatusPending:
        return model.StatusPending, nil
    case model.StatusApproved, "bought":
        return model.StatusApproved, nil
    default:
        return "", ErrInvalidStatus
    }
}

// SetStatus moves a reservation between pending and approved and
// returns the updated record.  The transition is idempotent with
// respect to inventory: no Ticket row changes in either direction.
func (s *ReconcileService) SetStatus(ctx context.Context, id, status string) (*model.Reservation, error) {
    canonical, err := CanonicalStatus(status)
    if err != nil {
        return nil, err
    }
    if err := s.reservations.UpdateStatus(ctx, id, canonical); err != nil {
        return nil, err
    }
    return s.reservations.GetByID(ctx, id)
}

// Delete releases every ticket number held by the reservation back to
// available and removes the reservation row, all in one transaction.
// Either the whole release+delete commits or none of it does, so
// tickets are never stranded as unavailable by a failed delete.  A
// second delete of the same reservation finds no row and returns
// ErrReservationNotFound without touching the inventory again.
func (s *ReconcileService) Delete(ctx context.Context, id string) error {
    tx, err := s.tickets.DB().BeginTx(ctx, nil)
    if err != nil {
        return fmt.Errorf("delete reservation: begin: %w", err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    numbers, err := s.reservations.TicketNumbersTx(ctx, tx, id)
    if err != nil {
        return err
    }
    if err := s.tickets.ReleaseTx(ctx, tx, numbers); err != nil {
        return err
    }
    if err := s.reservations.DeleteTx(ctx, tx, id); err != nil {
        log.Printf("delete reservation %s: row delete failed after release, rolling back: %v", id, err)
        return err
    }
    if err := tx.Commit(); err != nil {
        return fmt.Errorf("delete reservation: commit: %w", err)
    }
    committed = true
    return nil
}
