package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "strings"

    "github.com/go-sql-driver/mysql"

    "github.com/iliyamo/raffle-ticket-reservation/internal/model"
)

// ErrCodeCollision is returned by CreateTx when the generated
// reservation code already exists.  Code generation is practically
// collision-free but not guaranteed, so the allocation engine catches
// this error and retries with a freshly generated code instead of
// silently overwriting.
var ErrCodeCollision = errors.New("reservation code collision")

// mysqlDuplicateEntry is the server error number for a unique key violation.
const mysqlDuplicateEntry = 1062

// ReservationRepo provides CRUD operations for reservations and the
// ticket numbers they own.  Ticket numbers claimed under a reservation
// are stored in the reservation_tickets table.  All timestamp fields
// are stored in UTC.
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// CreateTx inserts a new reservation and its ticket numbers within the
// scope of an existing transaction.  The caller must commit or roll
// back.  A unique-key violation on the reservation code surfaces as
// ErrCodeCollision so the caller can regenerate and retry; the ticket
// rows are only inserted once the reservation row is in place.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
    const q = `INSERT INTO reservations
               (id, reservation_code, status, total_amount_cents, buyer_name, buyer_phone, buyer_state, owner_id)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
    _, err := tx.ExecContext(ctx, q,
        res.ID, res.ReservationCode, res.Status, res.TotalAmountCents,
        res.BuyerName, res.BuyerPhone, res.BuyerState, res.OwnerID)
    if err != nil {
        var me *mysql.MySQLError
        if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
            return ErrCodeCollision
        }
        return fmt.Errorf("insert reservation: %w", err)
    }
    if len(res.TicketNumbers) == 0 {
        return fmt.Errorf("insert reservation: empty ticket set")
    }
    query := `INSERT INTO reservation_tickets (reservation_id, ticket_number) VALUES `
    args := make([]interface{}, 0, len(res.TicketNumbers)*2)
    for i, n := range res.TicketNumbers {
        if i > 0 {
            query += ","
        }
        query += "(?, ?)"
        args = append(args, res.ID, n)
    }
    if _, err := tx.ExecContext(ctx, query, args...); err != nil {
        return fmt.Errorf("insert reservation tickets: %w", err)
    }
    // Query back the row to populate the DB-assigned timestamps.
    const sel = `SELECT created_at, updated_at FROM reservations WHERE id = ?`
    if err := tx.QueryRowContext(ctx, sel, res.ID).Scan(&res.CreatedAt, &res.UpdatedAt); err != nil {
        return fmt.Errorf("reload reservation: %w", err)
    }
    return nil
}

const reservationColumns = `id, reservation_code, status, total_amount_cents,
                            buyer_name, buyer_phone, buyer_state, owner_id, created_at, updated_at`

// scanReservation reads one reservation row.  Ticket numbers are loaded
// separately because they live in the join table.
func scanReservation(row *sql.Row) (*model.Reservation, error) {
    var res model.Reservation
    var name, phone, state sql.NullString
    var owner sql.NullInt64
    err := row.Scan(&res.ID, &res.ReservationCode, &res.Status, &res.TotalAmountCents,
        &name, &phone, &state, &owner, &res.CreatedAt, &res.UpdatedAt)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrReservationNotFound
        }
        return nil, fmt.Errorf("scan reservation: %w", err)
    }
    if name.Valid {
        res.BuyerName = &name.String
    }
    if phone.Valid {
        res.BuyerPhone = &phone.String
    }
    if state.Valid {
        res.BuyerState = &state.String
    }
    if owner.Valid {
        id := uint64(owner.Int64)
        res.OwnerID = &id
    }
    return &res, nil
}

// GetByID returns a single reservation with its ticket numbers, or
// ErrReservationNotFound.
func (r *ReservationRepo) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
    res, err := scanReservation(r.db.QueryRowContext(ctx,
        `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id))
    if err != nil {
        return nil, err
    }
    if res.TicketNumbers, err = r.ticketNumbers(ctx, res.ID); err != nil {
        return nil, err
    }
    return res, nil
}

// GetByCode resolves a buyer-facing reservation code to its
// reservation.  Codes are matched exactly; buyers use this for
// self-serve status lookups.
func (r *ReservationRepo) GetByCode(ctx context.Context, code string) (*model.Reservation, error) {
    res, err := scanReservation(r.db.QueryRowContext(ctx,
        `SELECT `+reservationColumns+` FROM reservations WHERE reservation_code = ?`, code))
    if err != nil {
        return nil, err
    }
    if res.TicketNumbers, err = r.ticketNumbers(ctx, res.ID); err != nil {
        return nil, err
    }
    return res, nil
}

func (r *ReservationRepo) ticketNumbers(ctx context.Context, reservationID string) ([]int, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT ticket_number FROM reservation_tickets WHERE reservation_id = ? ORDER BY ticket_number`,
        reservationID)
    if err != nil {
        return nil, fmt.Errorf("load ticket numbers: %w", err)
    }
    defer rows.Close()
    numbers := make([]int, 0, 8)
    for rows.Next() {
        var n int
        if err := rows.Scan(&n); err != nil {
            return nil, fmt.Errorf("scan ticket number: %w", err)
        }
        numbers = append(numbers, n)
    }
    return numbers, rows.Err()
}

// ListAll returns every reservation ordered by creation time descending
// (newest first), each populated with its ticket numbers.  The ticket
// numbers for all reservations are fetched in a single query.
func (r *ReservationRepo) ListAll(ctx context.Context) ([]model.Reservation, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+reservationColumns+` FROM reservations ORDER BY created_at DESC`)
    if err != nil {
        return nil, fmt.Errorf("list reservations: %w", err)
    }
    defer rows.Close()
    reservations := make([]model.Reservation, 0)
    index := make(map[string]int)
    for rows.Next() {
        var res model.Reservation
        var name, phone, state sql.NullString
        var owner sql.NullInt64
        if err := rows.Scan(&res.ID, &res.ReservationCode, &res.Status, &res.TotalAmountCents,
            &name, &phone, &state, &owner, &res.CreatedAt, &res.UpdatedAt); err != nil {
            return nil, fmt.Errorf("scan reservation: %w", err)
        }
        if name.Valid {
            res.BuyerName = &name.String
        }
        if phone.Valid {
            res.BuyerPhone = &phone.String
        }
        if state.Valid {
            res.BuyerState = &state.String
        }
        if owner.Valid {
            id := uint64(owner.Int64)
            res.OwnerID = &id
        }
        res.TicketNumbers = []int{}
        index[res.ID] = len(reservations)
        reservations = append(reservations, res)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    if len(reservations) == 0 {
        return reservations, nil
    }
    ids := make([]interface{}, 0, len(reservations))
    placeholders := make([]string, 0, len(reservations))
    for _, res := range reservations {
        ids = append(ids, res.ID)
        placeholders = append(placeholders, "?")
    }
    trows, err := r.db.QueryContext(ctx,
        `SELECT reservation_id, ticket_number FROM reservation_tickets
         WHERE reservation_id IN (`+strings.Join(placeholders, ",")+`)
         ORDER BY reservation_id, ticket_number`,
        ids...)
    if err != nil {
        return nil, fmt.Errorf("list reservation tickets: %w", err)
    }
    defer trows.Close()
    for trows.Next() {
        var rid string
        var n int
        if err := trows.Scan(&rid, &n); err != nil {
            return nil, fmt.Errorf("scan reservation ticket: %w", err)
        }
        if idx, ok := index[rid]; ok {
            reservations[idx].TicketNumbers = append(reservations[idx].TicketNumbers, n)
        }
    }
    return reservations, trows.Err()
}

// UpdateStatus sets the status of a reservation and refreshes its
// updated_at timestamp.  It returns ErrReservationNotFound when the id
// does not resolve.  Ticket availability is deliberately untouched:
// the available flag reflects "claimed by an active reservation", not
// payment state.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id, status string) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE reservations SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
        status, id)
    if err != nil {
        return fmt.Errorf("update reservation status: %w", err)
    }
    affected, err := res.RowsAffected()
    if err != nil {
        return fmt.Errorf("update reservation status: rows affected: %w", err)
    }
    if affected == 0 {
        // Either the row is missing or the status already matched.
        var exists int
        if err := r.db.QueryRowContext(ctx,
            `SELECT COUNT(*) FROM reservations WHERE id = ?`, id).Scan(&exists); err != nil {
            return fmt.Errorf("update reservation status: verify: %w", err)
        }
        if exists == 0 {
            return ErrReservationNotFound
        }
    }
    return nil
}

// TicketNumbersTx returns the ticket numbers owned by a reservation
// within the transaction, or ErrReservationNotFound when the
// reservation row does not exist.  Used by the delete flow to release
// the right numbers before removing the row.
func (r *ReservationRepo) TicketNumbersTx(ctx context.Context, tx *sql.Tx, id string) ([]int, error) {
    var exists int
    if err := tx.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM reservations WHERE id = ?`, id).Scan(&exists); err != nil {
        return nil, fmt.Errorf("load reservation: %w", err)
    }
    if exists == 0 {
        return nil, ErrReservationNotFound
    }
    rows, err := tx.QueryContext(ctx,
        `SELECT ticket_number FROM reservation_tickets WHERE reservation_id = ?`, id)
    if err != nil {
        return nil, fmt.Errorf("load ticket numbers: %w", err)
    }
    defer rows.Close()
    var numbers []int
    for rows.Next() {
        var n int
        if err := rows.Scan(&n); err != nil {
            return nil, fmt.Errorf("scan ticket number: %w", err)
        }
        numbers = append(numbers, n)
    }
    return numbers, rows.Err()
}

// DeleteTx removes the reservation row and its ticket links within the
// transaction.  The caller releases the ticket numbers in the same
// transaction so a failed delete never strands tickets as unavailable.
func (r *ReservationRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id string) error {
    if _, err := tx.ExecContext(ctx,
        `DELETE FROM reservation_tickets WHERE reservation_id = ?`, id); err != nil {
        return fmt.Errorf("delete reservation tickets: %w", err)
    }
    res, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
    if err != nil {
        return fmt.Errorf("delete reservation: %w", err)
    }
    affected, err := res.RowsAffected()
    if err != nil {
        return fmt.Errorf("delete reservation: rows affected: %w", err)
    }
    if affected == 0 {
        return ErrReservationNotFound
    }
    return nil
}
