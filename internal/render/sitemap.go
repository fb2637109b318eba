package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/free-plinko-game/aff-web-gen/internal/nav"
	"github.com/free-plinko-game/aff-web-gen/internal/store"
)

const placeholderDomain = "example.com"

// sitemapXML renders one <url> entry per page. lastmod is the page's
// generation date, falling back to today.
func sitemapXML(domain string, pages []store.PageView, today time.Time) string {
	if domain == "" {
		domain = placeholderDomain
	}
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")
	for _, p := range pages {
		lastmod := today
		if p.GeneratedAt != nil {
			lastmod = *p.GeneratedAt
		}
		fmt.Fprintf(&b, "  <url>\n    <loc>https://%s%s</loc>\n    <lastmod>%s</lastmod>\n  </url>\n",
			domain, nav.URLFor(p), lastmod.Format("2006-01-02"))
	}
	b.WriteString("</urlset>\n")
	return b.String()
}

// robotsTxt returns the site's custom override verbatim, or a default that
// points at the sitemap.
func robotsTxt(customRobots, domain string) string {
	if strings.TrimSpace(customRobots) != "" {
		return customRobots
	}
	if domain == "" {
		domain = placeholderDomain
	}
	return fmt.Sprintf("User-agent: *\nAllow: /\n\nSitemap: https://%s/sitemap.xml\n", domain)
}
