package model

import "testing"

func TestPackageByID(t *testing.T) {
    pkg, ok := PackageByID("pack15")
    if !ok {
        t.Fatal("PackageByID(pack15) not found")
    }
    if pkg.TicketCount != 15 {
        t.Errorf("PackageByID(pack15).TicketCount = %d, want 15", pkg.TicketCount)
    }
    if pkg.PriceCents != 2100 {
        t.Errorf("PackageByID(pack15).PriceCents = %d, want 2100", pkg.PriceCents)
    }
}

func TestPackageByIDUnknown(t *testing.T) {
    if _, ok := PackageByID("pack99"); ok {
        t.Error("PackageByID(pack99) = ok, want not found")
    }
}

func TestPackagesAreDiscounted(t *testing.T) {
    // A bigger tier must always cost less per ticket than a smaller one,
    // otherwise the tier has no reason to exist.
    for i := 1; i < len(Packages); i++ {
        prev, cur := Packages[i-1], Packages[i]
        if cur.PriceCents*uint32(prev.TicketCount) >= prev.PriceCents*uint32(cur.TicketCount) {
            t.Errorf("package %s per-ticket price is not below package %s", cur.ID, prev.ID)
        }
    }
}
