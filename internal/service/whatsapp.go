package service

// This file builds the out-of-band payment hand-off.  The core's only
// contract with the notification channel is an opaque formatted string
// plus a destination phone number: the buyer opens the deep link, the
// message lands in the store's WhatsApp, and a human confirms payment.
// The core never learns whether the message was delivered.

import (
    "fmt"
    "net/url"
    "strconv"
    "strings"

    "github.com/iliyamo/raffle-ticket-reservation/internal/model"
)

// messageTicketPreview bounds how many ticket numbers the WhatsApp
// message spells out before summarizing the remainder.
const messageTicketPreview = 10

// BuildPaymentMessage formats the human-readable confirmation message a
// buyer sends alongside their proof of payment.  It quotes the
// reservation code, a preview of the ticket numbers and the total.
func BuildPaymentMessage(res *model.Reservation) string {
    numbers := res.TicketNumbers
    extra := 0
    if len(numbers) > messageTicketPreview {
        extra = len(numbers) - messageTicketPreview
        numbers = numbers[:messageTicketPreview]
    }
    parts := make([]string, len(numbers))
    for i, n := range numbers {
        parts[i] = fmt.Sprintf("%04d", n)
    }
    list := strings.Join(parts, ", ")
    if extra > 0 {
        list += fmt.Sprintf(" (+%d more)", extra)
    }
    var b strings.Builder
    b.WriteString("Hello! I reserved raffle tickets.\n")
    b.WriteString("Code: " + res.ReservationCode + "\n")
    b.WriteString(fmt.Sprintf("Tickets (%d): %s\n", len(res.TicketNumbers), list))
    b.WriteString("Total: $" + formatCents(res.TotalAmountCents) + "\n")
    b.WriteString("Sending payment proof now.")
    return b.String()
}

// WhatsAppLink builds the wa.me deep link that opens a chat with the
// store, pre-filled with the payment message.  phone must be in
// international format without the leading plus.
func WhatsAppLink(phone, message string) string {
    return "https://wa.me/" + strings.TrimPrefix(phone, "+") + "?text=" + url.QueryEscape(message)
}

// formatCents renders a cent amount as a dollars string, e.g. 1500 -> "15.00".
func formatCents(cents uint32) string {
    return strconv.FormatUint(uint64(cents/100), 10) + fmt.Sprintf(".%02d", cents%100)
}
