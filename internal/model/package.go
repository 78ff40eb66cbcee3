package model

// TicketPackage is a fixed tier offering a set number of randomly drawn
// tickets at a discounted flat price.  The flat price overrides the
// count × unit-price rule that applies to explicit and lucky-number
// reservations.
type TicketPackage struct {
    ID          string `json:"id"`           // stable package identifier
    TicketCount int    `json:"ticket_count"` // how many tickets the package draws
    PriceCents  uint32 `json:"price_cents"`  // flat price for the whole package
}

// Packages lists the tiers offered by the storefront, cheapest first.
var Packages = []TicketPackage{
    {ID: "pack10", TicketCount: 10, PriceCents: 1500},
    {ID: "pack15", TicketCount: 15, PriceCents: 2100},
    {ID: "pack20", TicketCount: 20, PriceCents: 2600},
}

// PackageByID looks up a package tier by its identifier.  The second
// return value reports whether the package exists.
func PackageByID(id string) (TicketPackage, bool) {
    for _, p := range Packages {
        if p.ID == id {
            return p, true
        }
    }
    return TicketPackage{}, false
}
