package service

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/raffle-ticket-reservation/internal/config"
    "github.com/iliyamo/raffle-ticket-reservation/internal/model"
    "github.com/iliyamo/raffle-ticket-reservation/internal/repository"
)

// InventoryService serves the read side of the storefront: section
// counts and totals for browsing, and raw ranges for the number board.
// Aggregates are cached in Redis with a short TTL, so browsers may see
// counts up to one TTL stale.  That is acceptable by design — the
// allocation engine never trusts these aggregates and re-reads ground
// truth inside its claim transaction.
type InventoryService struct {
    tickets *repository.TicketRepo
    rdb     *redis.Client
    cache   config.AggregateCacheConfig
}

// NewInventoryService wires the read side.  rdb may be nil, in which
// case every call recomputes from the database.
func NewInventoryService(tickets *repository.TicketRepo, rdb *redis.Client, cache config.AggregateCacheConfig) *InventoryService {
    return &InventoryService{tickets: tickets, rdb: rdb, cache: cache}
}

func (s *InventoryService) cacheEnabled() bool {
    return s.cache.Enabled && s.rdb != nil
}

// SectionCounts returns the number of available tickets in each of the
// ten fixed 1,000-wide sections, serving from cache when fresh.
func (s *InventoryService) SectionCounts(ctx context.Context) ([]model.SectionCount, error) {
    key := s.cache.Prefix + ":sections"
    if s.cacheEnabled() {
        if raw, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
            var counts []model.SectionCount
            if json.Unmarshal(raw, &counts) == nil {
                return counts, nil
            }
        }
    }
    counts, err := s.tickets.SectionCounts(ctx)
    if err != nil {
        return nil, err
    }
    if s.cacheEnabled() {
        if raw, err := json.Marshal(counts); err == nil {
            _ = s.rdb.Set(ctx, key, raw, s.cache.TTL).Err()
        }
    }
    return counts, nil
}

// TotalAvailable returns the count of available tickets across the
// whole inventory, cached like SectionCounts.
func (s *InventoryService) TotalAvailable(ctx context.Context) (int, error) {
    key := s.cache.Prefix + ":total"
    if s.cacheEnabled() {
        if n, err := s.rdb.Get(ctx, key).Int(); err == nil {
            return n, nil
        }
    }
    n, err := s.tickets.CountAvailable(ctx)
    if err != nil {
        return 0, err
    }
    if s.cacheEnabled() {
        _ = s.rdb.Set(ctx, key, n, s.cache.TTL).Err()
    }
    return n, nil
}

// Invalidate drops the cached aggregates.  Called after a reservation
// commits or is deleted so the storefront converges faster than the
// TTL alone would allow.
func (s *InventoryService) Invalidate(ctx context.Context) {
    if !s.cacheEnabled() {
        return
    }
    ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
    defer cancel()
    _ = s.rdb.Del(ctx, s.cache.Prefix+":sections", s.cache.Prefix+":total").Err()
}

// Range returns the tickets with low <= number <= high.  Bounds are
// validated against the fixed inventory.
func (s *InventoryService) Range(ctx context.Context, low, high int) ([]model.Ticket, error) {
    if low < 0 || high >= 10000 || low > high {
        return nil, fmt.Errorf("%w: range [%d, %d]", repository.ErrInvalidTicketNumber, low, high)
    }
    return s.tickets.ListByRange(ctx, low, high)
}
