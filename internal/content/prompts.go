// Package content orchestrates batch text generation for a site's pages:
// synchronous prompt building, bounded concurrent dispatch, and synchronous
// persistence of whatever succeeded.
package content

import (
	"fmt"
	"strings"

	"github.com/free-plinko-game/aff-web-gen/internal/brandinfo"
	"github.com/free-plinko-game/aff-web-gen/internal/store"
)

// promptSpec maps a page type to its instruction block and the JSON fields
// the model must return.
var promptSpecs = map[string]struct {
	instructions string
	fields       string
}{
	"homepage": {
		instructions: "Write the homepage copy for an affiliate comparison site.",
		fields:       `"intro", "top_brands" (array of {"name", "short_description", "selling_points"}), "faq" (array of {"question", "answer"})`,
	},
	"comparison": {
		instructions: "Write a ranked comparison of the listed brands.",
		fields:       `"intro", "comparison_rows" (array of {"name", "short_description", "selling_points"}), "verdict", "faq"`,
	},
	"brand-review": {
		instructions: "Write an in-depth review of the brand.",
		fields:       `"intro", "pros" (array), "cons" (array), "sections" (array of {"heading", "body"}), "verdict", "rating", "faq"`,
	},
	"bonus-review": {
		instructions: "Write a review of the brand's welcome bonus and how to claim it.",
		fields:       `"intro", "bonus_terms", "claim_steps" (array), "verdict", "faq"`,
	},
	"evergreen": {
		instructions: "Write an evergreen guide on the topic.",
		fields:       `"intro", "sections" (array of {"heading", "body"}), "summary", "faq"`,
	},
}

var defaultSpec = struct {
	instructions string
	fields       string
}{
	instructions: "Write the page copy.",
	fields:       `"intro", "sections" (array of {"heading", "body"})`,
}

// BuildPrompt assembles the generation prompt for one page. Deterministic and
// side-effect free; runs in the synchronous phase before dispatch.
func BuildPrompt(g *store.SiteGraph, page store.PageView, brands []brandinfo.Info) string {
	spec, ok := promptSpecs[page.TypeSlug]
	if !ok {
		spec = defaultSpec
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Site: %s (%s, %s market).\n", g.Site.Name, g.Vertical.Name, g.Geo.Name)
	fmt.Fprintf(&b, "Page: %s", page.Title)
	if page.EvergreenTopic != nil {
		fmt.Fprintf(&b, " (topic: %s)", *page.EvergreenTopic)
	}
	b.WriteString(".\n\n")
	b.WriteString(spec.instructions)
	b.WriteString("\n")

	if page.BrandSlug != "" {
		for _, info := range brands {
			if info.Slug == page.BrandSlug {
				fmt.Fprintf(&b, "\nBrand facts:\n%s", brandFacts(info))
				break
			}
		}
	} else if len(brands) > 0 && (page.TypeSlug == "homepage" || page.TypeSlug == "comparison") {
		b.WriteString("\nBrands, in ranked order:\n")
		for _, info := range brands {
			b.WriteString(brandFacts(info))
		}
	}

	fmt.Fprintf(&b, "\nRespond with a single JSON object containing: %s.\n", spec.fields)

	if note := strings.TrimSpace(page.RegenerationNote); note != "" {
		fmt.Fprintf(&b, "\nEditor notes for this revision:\n%s\n", note)
	}
	return b.String()
}

func brandFacts(info brandinfo.Info) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- %s (slug %s)", info.Name, info.Slug)
	if info.WelcomeBonus != "" {
		fmt.Fprintf(&b, "; welcome bonus: %s", info.WelcomeBonus)
	}
	if info.BonusCode != "" {
		fmt.Fprintf(&b, "; bonus code: %s", info.BonusCode)
	}
	if info.LicenseInfo != "" {
		fmt.Fprintf(&b, "; license: %s", info.LicenseInfo)
	}
	if len(info.PaymentMethods) > 0 {
		fmt.Fprintf(&b, "; payments: %s", strings.Join(info.PaymentMethods, ", "))
	}
	b.WriteString("\n")
	return b.String()
}
