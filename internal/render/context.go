package render

import (
	"encoding/json"
	"html/template"
	"strings"
	"time"

	"github.com/free-plinko-game/aff-web-gen/internal/brandinfo"
	"github.com/free-plinko-game/aff-web-gen/internal/nav"
	"github.com/free-plinko-game/aff-web-gen/internal/store"
)

// CTAEntry is one visible CTA row joined with its merged brand.
type CTAEntry struct {
	Brand   brandinfo.Info
	CTAText string
	Badge   string
}

// CTAData is a resolved CTA table ready for a template.
type CTAData struct {
	Name    string
	Entries []CTAEntry
}

// ArticlePreview is a roll-up entry for listing pages and the homepage hub.
type ArticlePreview struct {
	Title     string
	URL       string
	Published *time.Time
	Summary   string
}

// PageData is the context every page template receives.
type PageData struct {
	SiteName        string
	Domain          string
	Title           string
	MetaTitle       string
	MetaDescription string
	URL             string
	AssetPrefix     string

	Content map[string]any

	Brands      []brandinfo.Info
	BrandLookup map[string]*brandinfo.Info
	Brand       *brandinfo.Info
	OtherBrands []brandinfo.Info

	Nav     []nav.Link
	Footer  *nav.FooterLinks
	Cluster []nav.Link

	CTA        *CTAData
	CustomHead template.HTML
	Schema     template.HTML

	Author        *store.Author
	PublishedDate *time.Time

	// Listing and homepage hub roll-ups.
	Articles    []ArticlePreview
	NewsPreview []ArticlePreview
	TipsPreview []ArticlePreview
	PageCount   int

	PaymentIcons map[string]template.HTML
}

// parseContent decodes a page's content JSON; a missing or invalid payload
// yields an empty map rather than failing the whole build.
func parseContent(raw string) map[string]any {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return map[string]any{}
	}
	return m
}

// assetPrefix returns the relative prefix back to the release root for a
// page URL ("" at root, "../" one level down).
func assetPrefix(pageURL string) string {
	trimmed := strings.Trim(pageURL, "/")
	if trimmed == "" {
		return ""
	}
	depth := strings.Count(trimmed, "/")
	return strings.Repeat("../", depth)
}

// enrichBrands merges AI-authored per-brand copy onto a fresh copy of the
// canonical brand list. Entries are matched by slug or display name; the
// shared list is never mutated.
func enrichBrands(brands []brandinfo.Info, content map[string]any) []brandinfo.Info {
	entries := aiBrandEntries(content)
	out := make([]brandinfo.Info, len(brands))
	copy(out, brands)
	if len(entries) == 0 {
		return out
	}
	for i := range out {
		entry := entries[out[i].Slug]
		if entry == nil {
			entry = entries[out[i].Name]
		}
		if entry == nil {
			continue
		}
		out[i].AICopy = entry
		if points, ok := entry["selling_points"].([]any); ok && len(points) > 0 {
			var sp []string
			for _, p := range points {
				if s, ok := p.(string); ok && s != "" {
					sp = append(sp, s)
				}
			}
			if len(sp) > 0 {
				out[i].SellingPoints = sp
			}
		}
	}
	return out
}

// aiBrandEntries indexes the AI brand copy blocks by their slug/name keys.
func aiBrandEntries(content map[string]any) map[string]map[string]any {
	var raw []any
	if v, ok := content["top_brands"].([]any); ok {
		raw = v
	} else if v, ok := content["comparison_rows"].([]any); ok {
		raw = v
	}
	if len(raw) == 0 {
		return nil
	}
	entries := make(map[string]map[string]any)
	for _, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		for _, key := range []string{"slug", "name", "brand"} {
			if k, _ := entry[key].(string); k != "" {
				entries[k] = entry
			}
		}
	}
	return entries
}

// resolveCTA joins a CTA table's visible rows with the merged brand list.
func resolveCTA(table *store.CTATable, byBrandID map[int64]*brandinfo.Info) *CTAData {
	if table == nil {
		return nil
	}
	data := &CTAData{Name: table.Name}
	for _, row := range table.Rows {
		if !row.IsVisible {
			continue
		}
		info := byBrandID[row.BrandID]
		if info == nil {
			continue
		}
		data.Entries = append(data.Entries, CTAEntry{Brand: *info, CTAText: row.CTAText, Badge: row.Badge})
	}
	return data
}
