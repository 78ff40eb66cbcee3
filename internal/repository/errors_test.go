package repository

import (
    "strings"
    "testing"
)

func TestTicketsUnavailableErrorShortList(t *testing.T) {
    err := &TicketsUnavailableError{Conflicts: []int{7, 42}}
    if got := err.Error(); got != "tickets unavailable: 7, 42" {
        t.Errorf("Error() = %q, want %q", got, "tickets unavailable: 7, 42")
    }
    preview, more := err.Preview()
    if len(preview) != 2 || more != 0 {
        t.Errorf("Preview() = %v, %d, want full list and 0 remainder", preview, more)
    }
}

func TestTicketsUnavailableErrorLongList(t *testing.T) {
    err := &TicketsUnavailableError{Conflicts: []int{1, 2, 3, 4, 5, 6, 7, 8}}
    msg := err.Error()
    if !strings.Contains(msg, "1, 2, 3, 4, 5") {
        t.Errorf("Error() = %q, want the first five conflicts", msg)
    }
    if !strings.Contains(msg, "and 3 more") {
        t.Errorf("Error() = %q, want remainder summary", msg)
    }
    preview, more := err.Preview()
    if len(preview) != 5 {
        t.Errorf("Preview() returned %d numbers, want 5", len(preview))
    }
    if more != 3 {
        t.Errorf("Preview() remainder = %d, want 3", more)
    }
}

func TestInsufficientSupplyError(t *testing.T) {
    err := &InsufficientSupplyError{Requested: 20, Available: 3}
    want := "insufficient supply: requested 20 tickets, only 3 available"
    if got := err.Error(); got != want {
        t.Errorf("Error() = %q, want %q", got, want)
    }
}
