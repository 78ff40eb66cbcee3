package repository

import (
    "context"
    "errors"
    "regexp"
    "testing"

    "github.com/DATA-DOG/go-sqlmock"

    "github.com/iliyamo/raffle-ticket-reservation/internal/model"
)

func newMockRepo(t *testing.T) (*TicketRepo, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock.New() error = %v", err)
    }
    t.Cleanup(func() { db.Close() })
    return NewTicketRepo(db), mock
}

func TestClaimTxReportsOnlyTakenNumbers(t *testing.T) {
    repo, mock := newMockRepo(t)
    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta(`SELECT number, available FROM tickets WHERE number IN (?,?,?) FOR UPDATE`)).
        WithArgs(1, 2, 3).
        WillReturnRows(sqlmock.NewRows([]string{"number", "available"}).
            AddRow(1, true).AddRow(2, true).AddRow(3, false))
    mock.ExpectRollback()

    tx, err := repo.DB().Begin()
    if err != nil {
        t.Fatalf("Begin() error = %v", err)
    }
    err = repo.ClaimTx(context.Background(), tx, []int{1, 2, 3})
    _ = tx.Rollback()

    var unavailable *TicketsUnavailableError
    if !errors.As(err, &unavailable) {
        t.Fatalf("ClaimTx() error = %v, want TicketsUnavailableError", err)
    }
    if len(unavailable.Conflicts) != 1 || unavailable.Conflicts[0] != 3 {
        t.Errorf("ClaimTx() conflicts = %v, want [3]", unavailable.Conflicts)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Errorf("unmet expectations: %v", err)
    }
}

func TestClaimTxClaimsAllAvailableNumbers(t *testing.T) {
    repo, mock := newMockRepo(t)
    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta(`SELECT number, available FROM tickets WHERE number IN (?,?) FOR UPDATE`)).
        WithArgs(7, 42).
        WillReturnRows(sqlmock.NewRows([]string{"number", "available"}).
            AddRow(7, true).AddRow(42, true))
    mock.ExpectExec(regexp.QuoteMeta(`UPDATE tickets SET available = 0 WHERE number IN (?,?) AND available = 1`)).
        WithArgs(7, 42).
        WillReturnResult(sqlmock.NewResult(0, 2))
    mock.ExpectCommit()

    tx, err := repo.DB().Begin()
    if err != nil {
        t.Fatalf("Begin() error = %v", err)
    }
    if err := repo.ClaimTx(context.Background(), tx, []int{7, 42}); err != nil {
        t.Fatalf("ClaimTx() error = %v, want nil", err)
    }
    if err := tx.Commit(); err != nil {
        t.Fatalf("Commit() error = %v", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Errorf("unmet expectations: %v", err)
    }
}

func TestClaimTxUnknownNumber(t *testing.T) {
    repo, mock := newMockRepo(t)
    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta(`SELECT number, available FROM tickets WHERE number IN (?,?,?) FOR UPDATE`)).
        WithArgs(1, 2, 3).
        WillReturnRows(sqlmock.NewRows([]string{"number", "available"}).
            AddRow(1, true).AddRow(2, true))
    mock.ExpectRollback()

    tx, err := repo.DB().Begin()
    if err != nil {
        t.Fatalf("Begin() error = %v", err)
    }
    err = repo.ClaimTx(context.Background(), tx, []int{1, 2, 3})
    _ = tx.Rollback()
    if !errors.Is(err, ErrInvalidTicketNumber) {
        t.Errorf("ClaimTx() error = %v, want ErrInvalidTicketNumber", err)
    }
}

func TestClaimTxShortfallIsStorageFault(t *testing.T) {
    repo, mock := newMockRepo(t)
    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta(`SELECT number, available FROM tickets WHERE number IN (?,?) FOR UPDATE`)).
        WithArgs(7, 42).
        WillReturnRows(sqlmock.NewRows([]string{"number", "available"}).
            AddRow(7, true).AddRow(42, true))
    mock.ExpectExec(regexp.QuoteMeta(`UPDATE tickets SET available = 0 WHERE number IN (?,?) AND available = 1`)).
        WithArgs(7, 42).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectRollback()

    tx, err := repo.DB().Begin()
    if err != nil {
        t.Fatalf("Begin() error = %v", err)
    }
    err = repo.ClaimTx(context.Background(), tx, []int{7, 42})
    _ = tx.Rollback()
    // Losing rows between the locking read and the write cannot be a
    // race; it surfaces as a storage fault.
    if !errors.Is(err, ErrStorageUnavailable) {
        t.Errorf("ClaimTx() error = %v, want ErrStorageUnavailable", err)
    }
}

func TestReleaseTxIsIdempotent(t *testing.T) {
    repo, mock := newMockRepo(t)
    mock.ExpectBegin()
    mock.ExpectExec(regexp.QuoteMeta(`UPDATE tickets SET available = 1 WHERE number IN (?,?)`)).
        WithArgs(5, 6).
        WillReturnResult(sqlmock.NewResult(0, 2))
    // A second release of the same numbers touches no rows but must
    // still succeed.
    mock.ExpectExec(regexp.QuoteMeta(`UPDATE tickets SET available = 1 WHERE number IN (?,?)`)).
        WithArgs(5, 6).
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectCommit()

    tx, err := repo.DB().Begin()
    if err != nil {
        t.Fatalf("Begin() error = %v", err)
    }
    if err := repo.ReleaseTx(context.Background(), tx, []int{5, 6}); err != nil {
        t.Fatalf("ReleaseTx() first call error = %v", err)
    }
    if err := repo.ReleaseTx(context.Background(), tx, []int{5, 6}); err != nil {
        t.Fatalf("ReleaseTx() second call error = %v", err)
    }
    if err := tx.Commit(); err != nil {
        t.Fatalf("Commit() error = %v", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Errorf("unmet expectations: %v", err)
    }
}

func TestSetAvailability(t *testing.T) {
    repo, mock := newMockRepo(t)
    mock.ExpectBegin()
    mock.ExpectExec(regexp.QuoteMeta(`UPDATE tickets SET available = ? WHERE number IN (?,?)`)).
        WithArgs(false, 5, 6).
        WillReturnResult(sqlmock.NewResult(0, 2))
    mock.ExpectCommit()

    if err := repo.SetAvailability(context.Background(), []int{5, 6}, false); err != nil {
        t.Fatalf("SetAvailability() error = %v, want nil", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Errorf("unmet expectations: %v", err)
    }
}

func TestSetAvailabilityUnknownNumber(t *testing.T) {
    repo, mock := newMockRepo(t)
    mock.ExpectBegin()
    mock.ExpectExec(regexp.QuoteMeta(`UPDATE tickets SET available = ? WHERE number IN (?,?)`)).
        WithArgs(true, 5, 12345).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM tickets WHERE number IN (?,?)`)).
        WithArgs(5, 12345).
        WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
    mock.ExpectRollback()

    err := repo.SetAvailability(context.Background(), []int{5, 12345}, true)
    if !errors.Is(err, ErrInvalidTicketNumber) {
        t.Errorf("SetAvailability() error = %v, want ErrInvalidTicketNumber", err)
    }
}

func TestListAll(t *testing.T) {
    repo, mock := newMockRepo(t)
    mock.ExpectQuery(regexp.QuoteMeta(`SELECT number, available FROM tickets ORDER BY number`)).
        WillReturnRows(sqlmock.NewRows([]string{"number", "available"}).
            AddRow(0, true).AddRow(1, false))

    tickets, err := repo.ListAll(context.Background())
    if err != nil {
        t.Fatalf("ListAll() error = %v", err)
    }
    if len(tickets) != 2 {
        t.Fatalf("ListAll() returned %d tickets, want 2", len(tickets))
    }
    if tickets[0].Number != 0 || !tickets[0].Available {
        t.Errorf("ListAll()[0] = %+v, want number 0 available", tickets[0])
    }
    if tickets[1].Number != 1 || tickets[1].Available {
        t.Errorf("ListAll()[1] = %+v, want number 1 unavailable", tickets[1])
    }
}

func TestSectionCountsFillsEmptySections(t *testing.T) {
    repo, mock := newMockRepo(t)
    mock.ExpectQuery(regexp.QuoteMeta(`SELECT number DIV ? AS section, SUM(available) AS avail`)).
        WithArgs(model.SectionWidth).
        WillReturnRows(sqlmock.NewRows([]string{"section", "avail"}).
            AddRow(0, 998).AddRow(4, 7))

    counts, err := repo.SectionCounts(context.Background())
    if err != nil {
        t.Fatalf("SectionCounts() error = %v", err)
    }
    if len(counts) != 10 {
        t.Fatalf("SectionCounts() returned %d sections, want 10", len(counts))
    }
    if counts[0].Available != 998 {
        t.Errorf("SectionCounts()[0].Available = %d, want 998", counts[0].Available)
    }
    if counts[4].Available != 7 {
        t.Errorf("SectionCounts()[4].Available = %d, want 7", counts[4].Available)
    }
    for _, s := range []int{1, 2, 3, 5, 6, 7, 8, 9} {
        if counts[s].Available != 0 {
            t.Errorf("SectionCounts()[%d].Available = %d, want 0", s, counts[s].Available)
        }
    }
}
