// Package seo generates schema.org JSON-LD blocks for rendered pages.
package seo

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/free-plinko-game/aff-web-gen/internal/brandinfo"
	"github.com/free-plinko-game/aff-web-gen/internal/store"
)

// Input carries everything the generator needs for one page.
type Input struct {
	PageType    string
	Content     map[string]any
	PageTitle   string
	SiteName    string
	Domain      string
	PageURL     string
	Brand       *brandinfo.Info
	Rating      float64
	GeneratedAt *time.Time
	Author      *store.Author
}

// Generate returns zero or more <script type="application/ld+json"> blocks
// for the page, or "" when no schema applies. A FAQPage block is appended
// whenever the content carries a non-empty FAQ list, independent of page type.
func Generate(in Input) string {
	var blocks []map[string]any

	if primary := primarySchema(in); primary != nil {
		blocks = append(blocks, primary)
	}
	if faq := faqSchema(in.Content); faq != nil {
		blocks = append(blocks, faq)
	}
	if len(blocks) == 0 {
		return ""
	}

	var b strings.Builder
	for i, block := range blocks {
		data, err := json.Marshal(block)
		if err != nil {
			continue
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(`<script type="application/ld+json">`)
		b.Write(data)
		b.WriteString(`</script>`)
	}
	return b.String()
}

func primarySchema(in Input) map[string]any {
	switch in.PageType {
	case "homepage":
		return map[string]any{
			"@context": "https://schema.org",
			"@type":    "WebSite",
			"name":     in.SiteName,
			"url":      "https://" + in.Domain,
		}
	case "brand-review", "bonus-review":
		return reviewSchema(in)
	case "comparison":
		return itemListSchema(in)
	case "evergreen", "news-article", "tips-article":
		return articleSchema(in)
	default:
		return nil
	}
}

func authorBlock(in Input) map[string]any {
	if in.Author != nil {
		a := map[string]any{
			"@type": "Person",
			"name":  in.Author.Name,
		}
		if in.Author.URL != "" {
			a["url"] = in.Author.URL
		}
		if in.Author.JobTitle != "" {
			a["jobTitle"] = in.Author.JobTitle
		}
		return a
	}
	return map[string]any{"@type": "Organization", "name": in.SiteName}
}

func reviewSchema(in Input) map[string]any {
	if in.Brand == nil {
		return nil
	}
	rating := in.Rating
	if rating == 0 {
		rating = in.Brand.Rating
	}
	schema := map[string]any{
		"@context": "https://schema.org",
		"@type":    "Review",
		"itemReviewed": map[string]any{
			"@type": "Organization",
			"name":  in.Brand.Name,
		},
		"author": authorBlock(in),
		"name":   in.PageTitle,
	}
	if rating > 0 {
		schema["reviewRating"] = map[string]any{
			"@type":       "Rating",
			"ratingValue": fmt.Sprintf("%.1f", rating),
			"bestRating":  "5",
		}
	}
	if in.GeneratedAt != nil {
		schema["datePublished"] = in.GeneratedAt.Format("2006-01-02")
	}
	return schema
}

func itemListSchema(in Input) map[string]any {
	brands, _ := in.Content["top_brands"].([]any)
	var items []map[string]any
	for i, raw := range brands {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		name, _ := entry["name"].(string)
		if name == "" {
			name, _ = entry["brand"].(string)
		}
		if name == "" {
			continue
		}
		items = append(items, map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     name,
		})
	}
	if len(items) == 0 {
		return nil
	}
	return map[string]any{
		"@context":        "https://schema.org",
		"@type":           "ItemList",
		"name":            in.PageTitle,
		"itemListElement": items,
	}
}

func articleSchema(in Input) map[string]any {
	schema := map[string]any{
		"@context": "https://schema.org",
		"@type":    "Article",
		"headline": in.PageTitle,
		"author":   authorBlock(in),
		"publisher": map[string]any{
			"@type": "Organization",
			"name":  in.SiteName,
		},
		"mainEntityOfPage": "https://" + in.Domain + in.PageURL,
	}
	if in.GeneratedAt != nil {
		schema["datePublished"] = in.GeneratedAt.Format("2006-01-02")
	}
	return schema
}

func faqSchema(content map[string]any) map[string]any {
	raw, _ := content["faq"].([]any)
	var entities []map[string]any
	for _, item := range raw {
		pair, ok := item.(map[string]any)
		if !ok {
			continue
		}
		q, _ := pair["question"].(string)
		a, _ := pair["answer"].(string)
		if q == "" || a == "" {
			continue
		}
		entities = append(entities, map[string]any{
			"@type": "Question",
			"name":  q,
			"acceptedAnswer": map[string]any{
				"@type": "Answer",
				"text":  a,
			},
		})
	}
	if len(entities) == 0 {
		return nil
	}
	return map[string]any{
		"@context":   "https://schema.org",
		"@type":      "FAQPage",
		"mainEntity": entities,
	}
}
