// Package brandinfo resolves the three-layer brand override chain into the
// flat per-brand view every template consumes.
package brandinfo

import (
	"strings"

	"github.com/free-plinko-game/aff-web-gen/internal/store"
)

// Info is the merged, template-facing view of one ranked brand.
type Info struct {
	Rank           int
	Name           string
	Slug           string
	Logo           string
	AffiliateLink  string
	Description    string
	SellingPoints  []string
	WelcomeBonus   string
	BonusCode      string
	Rating         float64
	Founded        string
	Headquarters   string
	LicenseInfo    string
	PaymentMethods []string

	// AI-authored copy merged in per page; empty outside enriched copies.
	AICopy map[string]any
}

// Merge layers one brand view. Precedence: site override > GEO row > global
// brand. Empty strings and zero ratings never override the layer below.
func Merge(bv store.BrandView) Info {
	info := Info{
		Rank:          bv.Rank,
		Name:          bv.Brand.Name,
		Slug:          bv.Brand.Slug,
		Logo:          bv.Brand.Logo,
		AffiliateLink: bv.Brand.AffiliateLink,
		Description:   bv.Brand.Description,
		Rating:        bv.Brand.Rating,
		Founded:       bv.Brand.Founded,
		Headquarters:  bv.Brand.Headquarters,
	}
	if g := bv.Geo; g != nil {
		if g.WelcomeBonus != "" {
			info.WelcomeBonus = g.WelcomeBonus
		}
		if g.BonusCode != "" {
			info.BonusCode = g.BonusCode
		}
		if g.LicenseInfo != "" {
			info.LicenseInfo = g.LicenseInfo
		}
		if g.PaymentMethods != "" {
			info.PaymentMethods = splitList(g.PaymentMethods)
		}
		if g.Rating != 0 {
			info.Rating = g.Rating
		}
	}
	if o := bv.Override; o != nil {
		if o.Description != "" {
			info.Description = o.Description
		}
		if o.SellingPoints != "" {
			info.SellingPoints = splitList(o.SellingPoints)
		}
		if o.AffiliateLink != "" {
			info.AffiliateLink = o.AffiliateLink
		}
		if o.WelcomeBonus != "" {
			info.WelcomeBonus = o.WelcomeBonus
		}
		if o.BonusCode != "" {
			info.BonusCode = o.BonusCode
		}
	}
	return info
}

// MergeAll merges every ranked brand of a site, preserving rank order.
func MergeAll(views []store.BrandView) []Info {
	out := make([]Info, 0, len(views))
	for _, bv := range views {
		out = append(out, Merge(bv))
	}
	return out
}

// Lookup indexes merged brands by both slug and display name. Generated
// content references brands by either key, so both map to the same record.
func Lookup(infos []Info) map[string]*Info {
	m := make(map[string]*Info, len(infos)*2)
	for i := range infos {
		m[infos[i].Slug] = &infos[i]
		m[infos[i].Name] = &infos[i]
	}
	return m
}

// splitList parses a newline- or comma-separated list field.
func splitList(s string) []string {
	sep := ","
	if strings.Contains(s, "\n") {
		sep = "\n"
	}
	var out []string
	for _, part := range strings.Split(s, sep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
