package service

import (
    "context"
    "errors"
    "math/rand"
    "regexp"
    "sort"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"

    "github.com/iliyamo/raffle-ticket-reservation/internal/model"
    "github.com/iliyamo/raffle-ticket-reservation/internal/repository"
)

func TestValidateNumbers(t *testing.T) {
    got, err := validateNumbers([]int{42, 7, 42, 0, 9999})
    if err != nil {
        t.Fatalf("validateNumbers() error = %v, want nil", err)
    }
    want := []int{0, 7, 42, 9999}
    if len(got) != len(want) {
        t.Fatalf("validateNumbers() = %v, want %v", got, want)
    }
    for i := range want {
        if got[i] != want[i] {
            t.Errorf("validateNumbers()[%d] = %v, want %v", i, got[i], want[i])
        }
    }
}

func TestValidateNumbersRejects(t *testing.T) {
    cases := []struct {
        name    string
        numbers []int
    }{
        {"empty", nil},
        {"negative", []int{-1}},
        {"too large", []int{10000}},
        {"mixed valid and invalid", []int{5, 12000}},
    }
    for _, tc := range cases {
        if _, err := validateNumbers(tc.numbers); !errors.Is(err, repository.ErrInvalidTicketNumber) {
            t.Errorf("validateNumbers(%s) error = %v, want ErrInvalidTicketNumber", tc.name, err)
        }
    }
}

func TestExcludeNumbers(t *testing.T) {
    pool := []int{1, 2, 3, 4, 5}
    got := excludeNumbers(pool, []int{2, 4, 99})
    want := []int{1, 3, 5}
    if len(got) != len(want) {
        t.Fatalf("excludeNumbers() = %v, want %v", got, want)
    }
    for i := range want {
        if got[i] != want[i] {
            t.Errorf("excludeNumbers()[%d] = %v, want %v", i, got[i], want[i])
        }
    }
}

func TestExcludeNumbersNoExclusions(t *testing.T) {
    pool := []int{1, 2, 3}
    got := excludeNumbers(pool, nil)
    if len(got) != 3 {
        t.Errorf("excludeNumbers() dropped numbers: got %v", got)
    }
}

func TestDrawNumbers(t *testing.T) {
    rng := rand.New(rand.NewSource(1))
    pool := make([]int, 100)
    for i := range pool {
        pool[i] = i
    }
    got := drawNumbers(rng, pool, 10)
    if len(got) != 10 {
        t.Fatalf("drawNumbers() returned %d numbers, want 10", len(got))
    }
    seen := make(map[int]struct{}, len(got))
    for _, n := range got {
        if n < 0 || n > 99 {
            t.Errorf("drawNumbers() produced %d, outside the pool", n)
        }
        if _, ok := seen[n]; ok {
            t.Errorf("drawNumbers() produced duplicate %d", n)
        }
        seen[n] = struct{}{}
    }
}

func TestDrawNumbersDeterministic(t *testing.T) {
    draw := func() []int {
        rng := rand.New(rand.NewSource(7))
        pool := make([]int, 50)
        for i := range pool {
            pool[i] = i
        }
        return drawNumbers(rng, pool, 5)
    }
    a, b := draw(), draw()
    for i := range a {
        if a[i] != b[i] {
            t.Fatalf("drawNumbers() not deterministic for a fixed seed: %v vs %v", a, b)
        }
    }
}

func TestDrawNumbersFullPool(t *testing.T) {
    rng := rand.New(rand.NewSource(3))
    pool := []int{10, 11, 12, 13}
    got := drawNumbers(rng, pool, 4)
    sort.Ints(got)
    want := []int{10, 11, 12, 13}
    for i := range want {
        if got[i] != want[i] {
            t.Fatalf("drawNumbers() full draw = %v, want permutation of %v", got, want)
        }
    }
}

func TestNewReservationCode(t *testing.T) {
    rng := rand.New(rand.NewSource(2))
    now := time.Unix(1712345678, 0)
    code := NewReservationCode(now, rng)
    pattern := regexp.MustCompile(`^TKT-\d{6}-[A-Z0-9]{3}$`)
    if !pattern.MatchString(code) {
        t.Fatalf("NewReservationCode() = %q, want match for %s", code, pattern)
    }
    if code[4:10] != "345678" {
        t.Errorf("NewReservationCode() digit block = %q, want %q", code[4:10], "345678")
    }
}

func TestReserveRejectsBadRequests(t *testing.T) {
    svc := NewAllocationService(nil, nil, NewRand(), 100)
    ctx := context.Background()

    if _, err := svc.Reserve(ctx, ReserveRequest{Kind: KindPackage, PackageID: "pack999"}); !errors.Is(err, ErrUnknownPackage) {
        t.Errorf("Reserve(unknown package) error = %v, want ErrUnknownPackage", err)
    }
    if _, err := svc.Reserve(ctx, ReserveRequest{Kind: KindRandom, Count: 0}); !errors.Is(err, ErrInvalidCount) {
        t.Errorf("Reserve(count 0) error = %v, want ErrInvalidCount", err)
    }
    if _, err := svc.Reserve(ctx, ReserveRequest{Kind: KindRandom, Count: 1001}); !errors.Is(err, ErrInvalidCount) {
        t.Errorf("Reserve(count 1001) error = %v, want ErrInvalidCount", err)
    }
    if _, err := svc.Reserve(ctx, ReserveRequest{Kind: KindExplicit, Numbers: []int{10000}}); !errors.Is(err, repository.ErrInvalidTicketNumber) {
        t.Errorf("Reserve(out of range) error = %v, want ErrInvalidTicketNumber", err)
    }
}

func newMockAllocation(t *testing.T) (*AllocationService, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock.New() error = %v", err)
    }
    t.Cleanup(func() { db.Close() })
    tickets := repository.NewTicketRepo(db)
    reservations := repository.NewReservationRepo(db)
    return NewAllocationService(tickets, reservations, rand.New(rand.NewSource(11)), 200), mock
}

func TestReserveRandomInsufficientSupply(t *testing.T) {
    svc, mock := newMockAllocation(t)
    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta(`SELECT number FROM tickets WHERE available = 1`)).
        WillReturnRows(sqlmock.NewRows([]string{"number"}).AddRow(3).AddRow(8))
    mock.ExpectRollback()

    _, err := svc.Reserve(context.Background(), ReserveRequest{Kind: KindRandom, Count: 5})
    var supply *repository.InsufficientSupplyError
    if !errors.As(err, &supply) {
        t.Fatalf("Reserve() error = %v, want InsufficientSupplyError", err)
    }
    if supply.Requested != 5 || supply.Available != 2 {
        t.Errorf("InsufficientSupplyError = %+v, want requested 5, available 2", supply)
    }
    // A supply shortfall is not a lost race; no fresh draw is attempted.
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Errorf("unmet expectations: %v", err)
    }
}

func TestReserveExplicitConflictDoesNotRetry(t *testing.T) {
    svc, mock := newMockAllocation(t)
    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta(`SELECT number, available FROM tickets WHERE number IN (?,?) FOR UPDATE`)).
        WithArgs(7, 42).
        WillReturnRows(sqlmock.NewRows([]string{"number", "available"}).
            AddRow(7, true).AddRow(42, false))
    mock.ExpectRollback()

    _, err := svc.Reserve(context.Background(), ReserveRequest{Kind: KindExplicit, Numbers: []int{7, 42}})
    var unavailable *repository.TicketsUnavailableError
    if !errors.As(err, &unavailable) {
        t.Fatalf("Reserve() error = %v, want TicketsUnavailableError", err)
    }
    if len(unavailable.Conflicts) != 1 || unavailable.Conflicts[0] != 42 {
        t.Errorf("Reserve() conflicts = %v, want only the taken number [42]", unavailable.Conflicts)
    }
    // An explicit pick surfaces the conflict immediately instead of
    // drawing again, so exactly one transaction is opened.
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Errorf("unmet expectations: %v", err)
    }
}

func TestReserveExplicitCommitsClaimAndLedger(t *testing.T) {
    svc, mock := newMockAllocation(t)
    now := time.Now()
    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta(`SELECT number, available FROM tickets WHERE number IN (?,?) FOR UPDATE`)).
        WithArgs(7, 42).
        WillReturnRows(sqlmock.NewRows([]string{"number", "available"}).
            AddRow(7, true).AddRow(42, true))
    mock.ExpectExec(regexp.QuoteMeta(`UPDATE tickets SET available = 0 WHERE number IN (?,?) AND available = 1`)).
        WithArgs(7, 42).
        WillReturnResult(sqlmock.NewResult(0, 2))
    mock.ExpectExec(`INSERT INTO reservations`).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(`INSERT INTO reservation_tickets`).
        WillReturnResult(sqlmock.NewResult(0, 2))
    mock.ExpectQuery(regexp.QuoteMeta(`SELECT created_at, updated_at FROM reservations WHERE id = ?`)).
        WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
    mock.ExpectCommit()

    res, err := svc.Reserve(context.Background(), ReserveRequest{Kind: KindExplicit, Numbers: []int{42, 7}})
    if err != nil {
        t.Fatalf("Reserve() error = %v", err)
    }
    if res.Status != model.StatusPending {
        t.Errorf("Reserve().Status = %q, want %q", res.Status, model.StatusPending)
    }
    if res.TotalAmountCents != 400 {
        t.Errorf("Reserve().TotalAmountCents = %d, want 400", res.TotalAmountCents)
    }
    if len(res.TicketNumbers) != 2 || res.TicketNumbers[0] != 7 || res.TicketNumbers[1] != 42 {
        t.Errorf("Reserve().TicketNumbers = %v, want sorted [7 42]", res.TicketNumbers)
    }
    if res.ID == "" {
        t.Error("Reserve().ID is empty, want a generated id")
    }
    if !regexp.MustCompile(`^TKT-\d{6}-[A-Z0-9]{3}$`).MatchString(res.ReservationCode) {
        t.Errorf("Reserve().ReservationCode = %q, want TKT-<6 digits>-<3 alnum>", res.ReservationCode)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Errorf("unmet expectations: %v", err)
    }
}
