// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrReservationNotFound maps to an HTTP 404, while the typed
// TicketsUnavailableError carries the conflicting numbers so the
// storefront can tell the buyer exactly which picks were lost.
package repository

import (
    "errors"
    "fmt"
    "strings"
)

// ErrReservationNotFound is returned when a lookup, update or delete
// references a reservation id or code that does not resolve. Handlers
// should translate this into an HTTP 404 response.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrInvalidTicketNumber is returned when a request references a ticket
// number outside [0, 9999] or one that does not exist in the inventory.
// The request is not retryable without correction.
var ErrInvalidTicketNumber = errors.New("invalid ticket number")

// ErrReservationCreationFailed is returned when the reservation row could
// not be inserted after the tickets were claimed (code collisions
// exhausted or a storage fault). The claim is rolled back before this
// error surfaces, so the caller may simply retry.
var ErrReservationCreationFailed = errors.New("reservation creation failed")

// ErrStorageUnavailable wraps storage-layer faults that are neither
// conflicts nor not-found conditions, such as a claim UPDATE touching
// fewer rows than the locks it holds guarantee. Handlers translate it
// into a generic HTTP 500.
var ErrStorageUnavailable = errors.New("storage unavailable")

// conflictPreviewMax bounds how many conflicting ticket numbers an error
// message spells out; the remainder is summarized as a count.
const conflictPreviewMax = 5

// TicketsUnavailableError reports that one or more requested ticket
// numbers were already claimed by another reservation. No partial
// reservation is ever created when this error is returned.
type TicketsUnavailableError struct {
    Conflicts []int // the requested numbers that were not available
}

func (e *TicketsUnavailableError) Error() string {
    n := len(e.Conflicts)
    preview := e.Conflicts
    if n > conflictPreviewMax {
        preview = e.Conflicts[:conflictPreviewMax]
    }
    parts := make([]string, len(preview))
    for i, num := range preview {
        parts[i] = fmt.Sprintf("%d", num)
    }
    msg := fmt.Sprintf("tickets unavailable: %s", strings.Join(parts, ", "))
    if n > conflictPreviewMax {
        msg += fmt.Sprintf(" and %d more", n-conflictPreviewMax)
    }
    return msg
}

// Preview returns at most five conflicting numbers plus the count of
// any remainder, for inclusion in structured API responses.
func (e *TicketsUnavailableError) Preview() ([]int, int) {
    if len(e.Conflicts) <= conflictPreviewMax {
        return e.Conflicts, 0
    }
    return e.Conflicts[:conflictPreviewMax], len(e.Conflicts) - conflictPreviewMax
}

// InsufficientSupplyError reports that a random or package draw asked
// for more tickets than the inventory currently has available. The
// Available field carries the actual remaining count so the buyer can
// lower their request.
type InsufficientSupplyError struct {
    Requested int // how many tickets the caller asked for
    Available int // how many tickets are actually available
}

func (e *InsufficientSupplyError) Error() string {
    return fmt.Sprintf("insufficient supply: requested %d tickets, only %d available", e.Requested, e.Available)
}
