package repository

import (
    "context"
    "database/sql"
    "fmt"
    "strings"

    "github.com/iliyamo/raffle-ticket-reservation/internal/model"
)

// TicketRepo provides data access to the fixed ticket inventory.  The
// tickets table is the single source of truth for availability: a
// number is available when no active reservation claims it.  All
// mutations that participate in a reservation run through the ...Tx
// variants so the claim and the ledger insert share one transaction.
type TicketRepo struct {
    db *sql.DB
}

// NewTicketRepo returns a new TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// DB exposes the underlying handle so services can begin transactions.
func (r *TicketRepo) DB() *sql.DB { return r.db }

// ListAll returns every ticket with its current availability, ordered
// by number.  Used for full-board rendering and aggregate recomputes.
func (r *TicketRepo) ListAll(ctx context.Context) ([]model.Ticket, error) {
    return r.list(ctx, `SELECT number, available FROM tickets ORDER BY number`)
}

// ListByRange returns tickets with low <= number <= high, inclusive.
// The storefront uses it for the ten fixed 1,000-wide section views.
func (r *TicketRepo) ListByRange(ctx context.Context, low, high int) ([]model.Ticket, error) {
    return r.list(ctx,
        `SELECT number, available FROM tickets WHERE number BETWEEN ? AND ? ORDER BY number`,
        low, high)
}

func (r *TicketRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.Ticket, error) {
    rows, err := r.db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, fmt.Errorf("list tickets: %w", err)
    }
    defer rows.Close()
    tickets := make([]model.Ticket, 0, 1024)
    for rows.Next() {
        var t model.Ticket
        if err := rows.Scan(&t.Number, &t.Available); err != nil {
            return nil, fmt.Errorf("scan ticket: %w", err)
        }
        tickets = append(tickets, t)
    }
    return tickets, rows.Err()
}

// SetAvailability bulk-updates the availability flag for exactly the
// given set of ticket numbers.  If any number does not exist the whole
// call fails with ErrInvalidTicketNumber and no row is modified.
func (r *TicketRepo) SetAvailability(ctx context.Context, numbers []int, available bool) error {
    if len(numbers) == 0 {
        return nil
    }
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return fmt.Errorf("set availability: begin: %w", err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    placeholders, args := inList(numbers)
    res, err := tx.ExecContext(ctx,
        `UPDATE tickets SET available = ? WHERE number IN (`+placeholders+`)`,
        append([]interface{}{available}, args...)...)
    if err != nil {
        return fmt.Errorf("set availability: %w", err)
    }
    affected, err := res.RowsAffected()
    if err != nil {
        return fmt.Errorf("set availability: rows affected: %w", err)
    }
    // Rows already holding the target value do not count as affected, so
    // verify existence separately before treating a shortfall as an error.
    if int(affected) != len(numbers) {
        var present int
        if err := tx.QueryRowContext(ctx,
            `SELECT COUNT(*) FROM tickets WHERE number IN (`+placeholders+`)`,
            args...).Scan(&present); err != nil {
            return fmt.Errorf("set availability: verify: %w", err)
        }
        if present != len(numbers) {
            return ErrInvalidTicketNumber
        }
    }
    if err := tx.Commit(); err != nil {
        return fmt.Errorf("set availability: commit: %w", err)
    }
    committed = true
    return nil
}

// ClaimTx atomically flips the requested numbers from available to
// unavailable inside the provided transaction.  It is the critical
// section of the allocation engine: the requested rows are locked and
// read first, then claimed with a conditional UPDATE.  Reading
// availability after the UPDATE would report this request's own fresh
// claims as conflicts, so the order matters.  On a conflict the
// numbers another reservation holds are collected into a
// TicketsUnavailableError and nothing is modified; the caller must
// still roll back.
func (r *TicketRepo) ClaimTx(ctx context.Context, tx *sql.Tx, numbers []int) error {
    if len(numbers) == 0 {
        return nil
    }
    placeholders, args := inList(numbers)
    rows, err := tx.QueryContext(ctx,
        `SELECT number, available FROM tickets WHERE number IN (`+placeholders+`) FOR UPDATE`,
        args...)
    if err != nil {
        return fmt.Errorf("claim tickets: lock rows: %w", err)
    }
    available := make(map[int]bool, len(numbers))
    for rows.Next() {
        var n int
        var avail bool
        if err := rows.Scan(&n, &avail); err != nil {
            rows.Close()
            return fmt.Errorf("claim tickets: scan row: %w", err)
        }
        available[n] = avail
    }
    err = rows.Err()
    rows.Close()
    if err != nil {
        return fmt.Errorf("claim tickets: lock rows: %w", err)
    }
    // A requested number absent from the table entirely is a validation
    // failure, not a race.
    if len(available) != len(numbers) {
        return ErrInvalidTicketNumber
    }
    conflicts := make([]int, 0, len(numbers))
    for _, n := range numbers {
        if !available[n] {
            conflicts = append(conflicts, n)
        }
    }
    if len(conflicts) > 0 {
        return &TicketsUnavailableError{Conflicts: conflicts}
    }
    res, err := tx.ExecContext(ctx,
        `UPDATE tickets SET available = 0 WHERE number IN (`+placeholders+`) AND available = 1`,
        args...)
    if err != nil {
        return fmt.Errorf("claim tickets: %w", err)
    }
    affected, err := res.RowsAffected()
    if err != nil {
        return fmt.Errorf("claim tickets: rows affected: %w", err)
    }
    if int(affected) != len(numbers) {
        // The row locks held above make a shortfall here a storage
        // fault, not a lost race.
        return fmt.Errorf("%w: claim affected %d of %d tickets", ErrStorageUnavailable, affected, len(numbers))
    }
    return nil
}

// ReleaseTx flips the given numbers back to available inside the
// provided transaction.  Used when a reservation is deleted.
func (r *TicketRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, numbers []int) error {
    if len(numbers) == 0 {
        return nil
    }
    placeholders, args := inList(numbers)
    if _, err := tx.ExecContext(ctx,
        `UPDATE tickets SET available = 1 WHERE number IN (`+placeholders+`)`,
        args...); err != nil {
        return fmt.Errorf("release tickets: %w", err)
    }
    return nil
}

// AvailableNumbersTx returns every currently available ticket number
// within the transaction.  The allocation engine draws random and
// package selections from this pool.
func (r *TicketRepo) AvailableNumbersTx(ctx context.Context, tx *sql.Tx) ([]int, error) {
    rows, err := tx.QueryContext(ctx, `SELECT number FROM tickets WHERE available = 1`)
    if err != nil {
        return nil, fmt.Errorf("available numbers: %w", err)
    }
    defer rows.Close()
    var numbers []int
    for rows.Next() {
        var n int
        if err := rows.Scan(&n); err != nil {
            return nil, fmt.Errorf("scan available number: %w", err)
        }
        numbers = append(numbers, n)
    }
    return numbers, rows.Err()
}

// CountAvailable returns how many tickets are currently available.
func (r *TicketRepo) CountAvailable(ctx context.Context) (int, error) {
    var n int
    if err := r.db.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM tickets WHERE available = 1`).Scan(&n); err != nil {
        return 0, fmt.Errorf("count available: %w", err)
    }
    return n, nil
}

// SectionCounts partitions the inventory into ten fixed 1,000-wide
// windows and counts the available tickets per window.  Sections with
// zero available tickets are still reported.
func (r *TicketRepo) SectionCounts(ctx context.Context) ([]model.SectionCount, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT number DIV ? AS section, SUM(available) AS avail
         FROM tickets GROUP BY section ORDER BY section`,
        model.SectionWidth)
    if err != nil {
        return nil, fmt.Errorf("section counts: %w", err)
    }
    defer rows.Close()
    bySection := make(map[int]int, 10)
    for rows.Next() {
        var section, avail int
        if err := rows.Scan(&section, &avail); err != nil {
            return nil, fmt.Errorf("scan section count: %w", err)
        }
        bySection[section] = avail
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    counts := make([]model.SectionCount, 0, 10)
    for s := 0; s < 10; s++ {
        counts = append(counts, model.SectionCount{Section: s, Available: bySection[s]})
    }
    return counts, nil
}

// inList builds a "?, ?, ..." placeholder string and the matching args
// slice for an IN clause over ticket numbers.
func inList(numbers []int) (string, []interface{}) {
    placeholders := make([]string, len(numbers))
    args := make([]interface{}, len(numbers))
    for i, n := range numbers {
        placeholders[i] = "?"
        args[i] = n
    }
    return strings.Join(placeholders, ","), args
}
