// Package service implements the business logic between the HTTP
// handlers and the repository layer: ticket allocation, status
// reconciliation, availability aggregation and the WhatsApp hand-off.
package service

import (
    "context"
    "errors"
    "fmt"
    "math/rand"
    "sort"
    "sync"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/raffle-ticket-reservation/internal/model"
    "github.com/iliyamo/raffle-ticket-reservation/internal/repository"
)

// ErrInvalidCount is returned when a lucky-number request asks for a
// count outside [1, 1000].
var ErrInvalidCount = errors.New("count must be between 1 and 1000")

// ErrUnknownPackage is returned when a package reservation references a
// package id that does not exist.
var ErrUnknownPackage = errors.New("unknown package")

// RequestKind tags the three reservation request shapes.  All shapes
// are normalized into an explicit ticket-number list before the shared
// atomic claim, so the concurrency-sensitive path exists exactly once.
type RequestKind int

const (
    // KindExplicit carries the exact ticket numbers the buyer picked.
    KindExplicit RequestKind = iota
    // KindPackage draws a fixed tier's worth of random numbers.
    KindPackage
    // KindRandom draws a caller-chosen count of lucky numbers.
    KindRandom
)

// ReserveRequest is the tagged union consumed by Reserve.  Exactly the
// fields relevant to Kind are read; the rest are ignored.
type ReserveRequest struct {
    Kind      RequestKind
    Numbers   []int       // explicit: the exact numbers wanted
    PackageID string      // package: which tier to draw
    Exclude   []int       // package/random: numbers already picked in this session
    Count     int         // random: how many lucky numbers to draw
    Buyer     model.Buyer // optional buyer metadata
    OwnerID   *uint64     // authenticated owner, nil for anonymous buyers
}

// Rand is the randomness source behind the lucky-number and package
// draws.  It is an interface so tests can inject a seeded source and
// assert deterministic draws.  No cryptographic quality is required:
// the draw is a fairness nice-to-have, not a security control.
type Rand interface {
    Intn(n int) int
}

// lockedRand serializes access to a math/rand source so concurrent
// reservation requests can share one generator.
type lockedRand struct {
    mu  sync.Mutex
    src *rand.Rand
}

func (l *lockedRand) Intn(n int) int {
    l.mu.Lock()
    defer l.mu.Unlock()
    return l.src.Intn(n)
}

// NewRand returns the default randomness source, seeded from the clock.
func NewRand() Rand {
    return &lockedRand{src: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// drawRetries bounds how often a package or random draw is re-attempted
// after losing the conditional claim to a concurrent reservation.
const drawRetries = 3

// codeRetries bounds how many fresh reservation codes are tried when an
// insert hits the unique constraint.
const codeRetries = 5

// AllocationService turns reservation requests into committed,
// availability-respecting reservations.  The claim of the ticket
// numbers and the insert of the ledger row share one transaction, so a
// failed insert rolls the claim back and the inventory is untouched.
type AllocationService struct {
    tickets      *repository.TicketRepo
    reservations *repository.ReservationRepo
    rng          Rand
    unitCents    uint32
    now          func() time.Time
}

// NewAllocationService wires the allocation engine.  unitCents is the
// price of a single ticket; rng may be a seeded source in tests.
func NewAllocationService(tickets *repository.TicketRepo, reservations *repository.ReservationRepo, rng Rand, unitCents int) *AllocationService {
    return &AllocationService{
        tickets:      tickets,
        reservations: reservations,
        rng:          rng,
        unitCents:    uint32(unitCents),
        now:          func() time.Time { return time.Now().UTC() },
    }
}

// Reserve validates the request, normalizes it to an explicit ticket
// list, atomically claims the tickets and inserts the reservation with
// status pending.  A lost race on a draw-based request retries with a
// fresh pool a bounded number of times; an explicit request surfaces
// the conflicting numbers immediately so the buyer can re-pick.
func (s *AllocationService) Reserve(ctx context.Context, req ReserveRequest) (*model.Reservation, error) {
    var pkg model.TicketPackage
    switch req.Kind {
    case KindExplicit:
        var err error
        if req.Numbers, err = validateNumbers(req.Numbers); err != nil {
            return nil, err
        }
    case KindPackage:
        var ok bool
        if pkg, ok = model.PackageByID(req.PackageID); !ok {
            return nil, ErrUnknownPackage
        }
    case KindRandom:
        if req.Count < 1 || req.Count > 1000 {
            return nil, ErrInvalidCount
        }
    default:
        return nil, fmt.Errorf("unknown request kind %d", req.Kind)
    }

    attempts := 1
    if req.Kind != KindExplicit {
        attempts = drawRetries
    }
    var lastErr error
    for attempt := 0; attempt < attempts; attempt++ {
        res, err := s.reserveOnce(ctx, req, pkg)
        if err == nil {
            return res, nil
        }
        lastErr = err
        // Only a lost claim race is worth a fresh draw.
        var unavailable *repository.TicketsUnavailableError
        if req.Kind == KindExplicit || !errors.As(err, &unavailable) {
            return nil, err
        }
    }
    return nil, lastErr
}

// reserveOnce performs one full claim+insert attempt in a single
// transaction.  Rolling the transaction back is the compensating
// action for every failure past the claim.
func (s *AllocationService) reserveOnce(ctx context.Context, req ReserveRequest, pkg model.TicketPackage) (*model.Reservation, error) {
    tx, err := s.tickets.DB().BeginTx(ctx, nil)
    if err != nil {
        return nil, fmt.Errorf("reserve: begin: %w", err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    numbers := req.Numbers
    amount := s.unitCents * uint32(len(numbers))
    if req.Kind != KindExplicit {
        count := req.Count
        if req.Kind == KindPackage {
            count = pkg.TicketCount
        }
        pool, err := s.tickets.AvailableNumbersTx(ctx, tx)
        if err != nil {
            return nil, err
        }
        pool = excludeNumbers(pool, req.Exclude)
        if len(pool) < count {
            return nil, &repository.InsufficientSupplyError{Requested: count, Available: len(pool)}
        }
        numbers = drawNumbers(s.rng, pool, count)
        sort.Ints(numbers)
        if req.Kind == KindPackage {
            amount = pkg.PriceCents
        } else {
            amount = s.unitCents * uint32(count)
        }
    }

    if err := s.tickets.ClaimTx(ctx, tx, numbers); err != nil {
        return nil, err
    }

    res := &model.Reservation{
        ID:               uuid.New().String(),
        TicketNumbers:    numbers,
        TotalAmountCents: amount,
        Status:           model.StatusPending,
    }
    if req.Buyer.Name != "" {
        res.BuyerName = &req.Buyer.Name
    }
    if req.Buyer.Phone != "" {
        res.BuyerPhone = &req.Buyer.Phone
    }
    if req.Buyer.State != "" {
        res.BuyerState = &req.Buyer.State
    }
    res.OwnerID = req.OwnerID

    // Codes are practically collision-free but not by construction: a
    // duplicate is caught by the unique constraint and retried with a
    // freshly generated code, never silently overwritten.
    inserted := false
    for i := 0; i < codeRetries; i++ {
        res.ReservationCode = NewReservationCode(s.now(), s.rng)
        err := s.reservations.CreateTx(ctx, tx, res)
        if err == nil {
            inserted = true
            break
        }
        if !errors.Is(err, repository.ErrCodeCollision) {
            return nil, fmt.Errorf("%w: %v", repository.ErrReservationCreationFailed, err)
        }
    }
    if !inserted {
        return nil, repository.ErrReservationCreationFailed
    }

    if err := tx.Commit(); err != nil {
        return nil, fmt.Errorf("reserve: commit: %w", err)
    }
    committed = true
    return res, nil
}

// validateNumbers deduplicates and sorts an explicit selection,
// rejecting empty selections and numbers outside the inventory.
func validateNumbers(numbers []int) ([]int, error) {
    if len(numbers) == 0 {
        return nil, repository.ErrInvalidTicketNumber
    }
    seen := make(map[int]struct{}, len(numbers))
    out := make([]int, 0, len(numbers))
    for _, n := range numbers {
        if n < 0 || n >= 10000 {
            return nil, repository.ErrInvalidTicketNumber
        }
        if _, ok := seen[n]; ok {
            continue
        }
        seen[n] = struct{}{}
        out = append(out, n)
    }
    sort.Ints(out)
    return out, nil
}

// excludeNumbers removes the session's already-picked numbers from the
// draw pool so a buyer building a cart never draws a duplicate.
func excludeNumbers(pool, exclude []int) []int {
    if len(exclude) == 0 {
        return pool
    }
    skip := make(map[int]struct{}, len(exclude))
    for _, n := range exclude {
        skip[n] = struct{}{}
    }
    out := pool[:0]
    for _, n := range pool {
        if _, ok := skip[n]; !ok {
            out = append(out, n)
        }
    }
    return out
}

// drawNumbers picks count numbers uniformly at random without
// replacement using a partial Fisher–Yates shuffle over the pool.  The
// pool slice is shuffled in place; output order is not meaningful.
func drawNumbers(rng Rand, pool []int, count int) []int {
    for i := 0; i < count; i++ {
        j := i + rng.Intn(len(pool)-i)
        pool[i], pool[j] = pool[j], pool[i]
    }
    out := make([]int, count)
    copy(out, pool[:count])
    return out
}

// codeAlphabet holds the characters used for the reservation code
// suffix.  Ambiguous characters are acceptable here; buyers paste the
// code rather than transcribe it.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewReservationCode builds a human-shareable reservation identifier of
// the form TKT-<6 digits>-<3 alphanumeric>.  The digit block derives
// from the creation time and the suffix from the injected randomness
// source, which makes collisions practically (not provably) impossible.
func NewReservationCode(now time.Time, rng Rand) string {
    digits := now.Unix() % 1000000
    suffix := make([]byte, 3)
    for i := range suffix {
        suffix[i] = codeAlphabet[rng.Intn(len(codeAlphabet))]
    }
    return fmt.Sprintf("TKT-%06d-%s", digits, suffix)
}
