package model

// Ticket is one numbered entry in the fixed raffle inventory.  All
// 10,000 rows are created once at startup and never deleted; only the
// availability flag changes over the life of the system.
//
// Fields:
//  Number    – unique ticket number in [0, 9999], immutable identity.
//  Available – whether the ticket can still be reserved.
type Ticket struct {
    Number    int  `json:"number"`    // tickets.number
    Available bool `json:"available"` // tickets.available
}

// SectionWidth is the size of a browsing window over the inventory.
// The 10,000 tickets are partitioned into ten fixed sections of 1,000
// numbers each for the storefront's section view.
const SectionWidth = 1000

// SectionCount holds the number of still-available tickets inside one
// fixed 1,000-wide section of the inventory.
type SectionCount struct {
    Section   int `json:"section"`   // section index 0..9
    Available int `json:"available"` // count of available tickets in the section
}
