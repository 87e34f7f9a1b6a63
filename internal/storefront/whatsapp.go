package storefront

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/lalith-99/storefront/internal/models"
)

const DefaultWhatsAppBaseURL = "https://wa.me"

// Digits keeps only the ASCII digits of s.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// WhatsAppLink builds a click-to-chat URL for phone with text prefilled.
// Everything but digits is dropped from phone; an empty text adds no
// query.
func WhatsAppLink(baseURL, phone, text string) string {
	link := strings.TrimRight(baseURL, "/") + "/" + Digits(phone)
	if text == "" {
		return link
	}
	// Spaces as %20 so the prefilled text renders the same on every client.
	return link + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}

// InquiryMessage is the text a shopper sends when asking about a single
// product.
func InquiryMessage(storeName string, p models.Product) string {
	return fmt.Sprintf("Hi %s! I'm interested in %s (%s). Is it still available?",
		storeName, p.Name, formatPrice(p.Price))
}

// OrderMessage summarizes an order for the shop's WhatsApp chat.
func OrderMessage(storeName, customerName string, items []models.LeadItem, total float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s! I'd like to order:\n", storeName)
	for _, it := range items {
		fmt.Fprintf(&b, "- %d x %s (%s)\n", it.Quantity, it.Name, formatPrice(it.Price))
	}
	fmt.Fprintf(&b, "Total: %s", formatPrice(total))
	if customerName != "" {
		fmt.Fprintf(&b, "\nName: %s", customerName)
	}
	return b.String()
}

func formatPrice(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

// categoryLabel upper-cases the first letter of a category id.
func categoryLabel(id string) string {
	for i, r := range id {
		return string(unicode.ToUpper(r)) + id[i+len(string(r)):]
	}
	return id
}
