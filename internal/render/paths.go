package render

import (
	"path/filepath"
	"strings"

	"github.com/free-plinko-game/aff-web-gen/internal/nav"
	"github.com/free-plinko-game/aff-web-gen/internal/store"
)

// destPath maps a page to its file path inside the release directory,
// derived from its canonical URL.
func destPath(p store.PageView) string {
	url := nav.URLFor(p)
	if url == "/" {
		return "index.html"
	}
	trimmed := strings.Trim(url, "/")
	// Listing pages own a directory index.
	if p.TypeSlug == nav.TypeNews || p.TypeSlug == nav.TypeTips {
		return filepath.Join(trimmed, "index.html")
	}
	return filepath.FromSlash(trimmed) + ".html"
}
