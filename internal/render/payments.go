package render

import (
	"html/template"
	"strings"
)

// paymentIconSVGs maps normalized payment method names to inline icons.
// Unknown methods fall back to a generic card icon so templates never render
// a broken slot.
var paymentIconSVGs = map[string]template.HTML{
	"visa":         `<svg viewBox="0 0 48 32" class="pay-icon pay-visa"><rect width="48" height="32" rx="4" fill="#1a1f71"/><text x="24" y="21" fill="#fff" font-size="11" text-anchor="middle" font-family="Arial">VISA</text></svg>`,
	"mastercard":   `<svg viewBox="0 0 48 32" class="pay-icon pay-mastercard"><rect width="48" height="32" rx="4" fill="#f4f4f4"/><circle cx="20" cy="16" r="9" fill="#eb001b"/><circle cx="28" cy="16" r="9" fill="#f79e1b" fill-opacity="0.9"/></svg>`,
	"paypal":       `<svg viewBox="0 0 48 32" class="pay-icon pay-paypal"><rect width="48" height="32" rx="4" fill="#003087"/><text x="24" y="21" fill="#fff" font-size="9" text-anchor="middle" font-family="Arial">PayPal</text></svg>`,
	"skrill":       `<svg viewBox="0 0 48 32" class="pay-icon pay-skrill"><rect width="48" height="32" rx="4" fill="#811053"/><text x="24" y="21" fill="#fff" font-size="9" text-anchor="middle" font-family="Arial">Skrill</text></svg>`,
	"neteller":     `<svg viewBox="0 0 48 32" class="pay-icon pay-neteller"><rect width="48" height="32" rx="4" fill="#83ba3b"/><text x="24" y="21" fill="#fff" font-size="8" text-anchor="middle" font-family="Arial">NETELLER</text></svg>`,
	"apple pay":    `<svg viewBox="0 0 48 32" class="pay-icon pay-applepay"><rect width="48" height="32" rx="4" fill="#000"/><text x="24" y="21" fill="#fff" font-size="9" text-anchor="middle" font-family="Arial">Pay</text></svg>`,
	"bank transfer": `<svg viewBox="0 0 48 32" class="pay-icon pay-bank"><rect width="48" height="32" rx="4" fill="#444"/><path d="M24 7l12 6H12z" fill="#fff"/><rect x="14" y="15" width="4" height="8" fill="#fff"/><rect x="22" y="15" width="4" height="8" fill="#fff"/><rect x="30" y="15" width="4" height="8" fill="#fff"/></svg>`,
}

var paymentIconDefault = template.HTML(`<svg viewBox="0 0 48 32" class="pay-icon pay-generic"><rect width="48" height="32" rx="4" fill="#666"/><rect x="6" y="10" width="36" height="4" fill="#fff"/><rect x="6" y="19" width="14" height="3" fill="#fff"/></svg>`)

// paymentIcons builds the method-to-icon map for one page's brand set.
func paymentIcons(methods []string) map[string]template.HTML {
	if len(methods) == 0 {
		return nil
	}
	icons := make(map[string]template.HTML, len(methods))
	for _, m := range methods {
		key := strings.ToLower(strings.TrimSpace(m))
		if icon, ok := paymentIconSVGs[key]; ok {
			icons[m] = icon
		} else {
			icons[m] = paymentIconDefault
		}
	}
	return icons
}
