package service

import (
    "context"
    "errors"
    "regexp"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"

    "github.com/iliyamo/raffle-ticket-reservation/internal/model"
    "github.com/iliyamo/raffle-ticket-reservation/internal/repository"
)

func TestCanonicalStatus(t *testing.T) {
    cases := []struct {
        in   string
        want string
    }{
        {"pending", model.StatusPending},
        {"approved", model.StatusApproved},
        {"bought", model.StatusApproved},
        {"  Approved ", model.StatusApproved},
        {"BOUGHT", model.StatusApproved},
        {"Pending", model.StatusPending},
    }
    for _, tc := range cases {
        got, err := CanonicalStatus(tc.in)
        if err != nil {
            t.Errorf("CanonicalStatus(%q) error = %v, want nil", tc.in, err)
            continue
        }
        if got != tc.want {
            t.Errorf("CanonicalStatus(%q) = %q, want %q", tc.in, got, tc.want)
        }
    }
}

func TestCanonicalStatusRejectsUnknown(t *testing.T) {
    for _, in := range []string{"", "cancelled", "paid", "expired"} {
        if _, err := CanonicalStatus(in); !errors.Is(err, ErrInvalidStatus) {
            t.Errorf("CanonicalStatus(%q) error = %v, want ErrInvalidStatus", in, err)
        }
    }
}

func newMockReconcile(t *testing.T) (*ReconcileService, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock.New() error = %v", err)
    }
    t.Cleanup(func() { db.Close() })
    return NewReconcileService(repository.NewTicketRepo(db), repository.NewReservationRepo(db)), mock
}

func TestSetStatusLeavesInventoryAlone(t *testing.T) {
    svc, mock := newMockReconcile(t)
    now := time.Now()
    mock.ExpectExec(regexp.QuoteMeta(`UPDATE reservations SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`)).
        WithArgs(model.StatusApproved, "res-1").
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectQuery(`SELECT id, reservation_code`).
        WithArgs("res-1").
        WillReturnRows(sqlmock.NewRows([]string{
            "id", "reservation_code", "status", "total_amount_cents",
            "buyer_name", "buyer_phone", "buyer_state", "owner_id", "created_at", "updated_at",
        }).AddRow("res-1", "TKT-123456-ABC", model.StatusApproved, 400, nil, nil, nil, nil, now, now))
    mock.ExpectQuery(regexp.QuoteMeta(`SELECT ticket_number FROM reservation_tickets WHERE reservation_id = ? ORDER BY ticket_number`)).
        WithArgs("res-1").
        WillReturnRows(sqlmock.NewRows([]string{"ticket_number"}).AddRow(7).AddRow(42))

    res, err := svc.SetStatus(context.Background(), "res-1", "bought")
    if err != nil {
        t.Fatalf("SetStatus() error = %v", err)
    }
    if res.Status != model.StatusApproved {
        t.Errorf("SetStatus().Status = %q, want %q", res.Status, model.StatusApproved)
    }
    // Every statement the transition issued is accounted for above, so
    // the tickets table was not touched in either direction.
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Errorf("unmet expectations: %v", err)
    }
}

func TestDeleteReleasesTicketsAndRow(t *testing.T) {
    svc, mock := newMockReconcile(t)
    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM reservations WHERE id = ?`)).
        WithArgs("res-1").
        WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
    mock.ExpectQuery(regexp.QuoteMeta(`SELECT ticket_number FROM reservation_tickets WHERE reservation_id = ?`)).
        WithArgs("res-1").
        WillReturnRows(sqlmock.NewRows([]string{"ticket_number"}).AddRow(5).AddRow(6))
    mock.ExpectExec(regexp.QuoteMeta(`UPDATE tickets SET available = 1 WHERE number IN (?,?)`)).
        WithArgs(5, 6).
        WillReturnResult(sqlmock.NewResult(0, 2))
    mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM reservation_tickets WHERE reservation_id = ?`)).
        WithArgs("res-1").
        WillReturnResult(sqlmock.NewResult(0, 2))
    mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM reservations WHERE id = ?`)).
        WithArgs("res-1").
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    if err := svc.Delete(context.Background(), "res-1"); err != nil {
        t.Fatalf("Delete() error = %v", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Errorf("unmet expectations: %v", err)
    }
}

func TestDeleteMissingReservation(t *testing.T) {
    svc, mock := newMockReconcile(t)
    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM reservations WHERE id = ?`)).
        WithArgs("missing").
        WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
    mock.ExpectRollback()

    err := svc.Delete(context.Background(), "missing")
    if !errors.Is(err, repository.ErrReservationNotFound) {
        t.Fatalf("Delete() error = %v, want ErrReservationNotFound", err)
    }
    // The inventory is untouched when the reservation is already gone.
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Errorf("unmet expectations: %v", err)
    }
}
