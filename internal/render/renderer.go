// Package render turns a loaded site graph into a complete release directory:
// one HTML file per page plus assets, logos, favicon, sitemap, and robots.txt.
package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/free-plinko-game/aff-web-gen/internal/apperr"
	"github.com/free-plinko-game/aff-web-gen/internal/brandinfo"
	"github.com/free-plinko-game/aff-web-gen/internal/logfields"
	"github.com/free-plinko-game/aff-web-gen/internal/nav"
	"github.com/free-plinko-game/aff-web-gen/internal/seo"
	"github.com/free-plinko-game/aff-web-gen/internal/store"
)

// Renderer builds release directories. Safe to reuse across sites; builds of
// the same site must be serialized by the caller.
type Renderer struct {
	TemplateDir string
	AssetsDir   string
	UploadsDir  string
	OutputBase  string
	Logger      *slog.Logger

	tmplMu    sync.Mutex
	tmplCache map[string]*template.Template
}

// New constructs a Renderer over the configured directories.
func New(templateDir, assetsDir, uploadsDir, outputBase string, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		TemplateDir: templateDir,
		AssetsDir:   assetsDir,
		UploadsDir:  uploadsDir,
		OutputBase:  outputBase,
		Logger:      logger,
		tmplCache:   make(map[string]*template.Template),
	}
}

// sharedContext is built once per site build and reused for every page.
type sharedContext struct {
	graph      *store.SiteGraph
	domain     string
	brands     []brandinfo.Info
	lookup     map[string]*brandinfo.Info
	byBrandID  map[int64]*brandinfo.Info
	navLinks   []nav.Link
	footer     *nav.FooterLinks
	newsRollup []ArticlePreview
	tipsRollup []ArticlePreview
}

func (r *Renderer) buildShared(g *store.SiteGraph) *sharedContext {
	sc := &sharedContext{
		graph:    g,
		brands:   brandinfo.MergeAll(g.Brands),
		navLinks: nav.BuildNav(g.Pages),
		footer:   nav.BuildFooter(g.Pages),
	}
	sc.lookup = brandinfo.Lookup(sc.brands)
	sc.byBrandID = make(map[int64]*brandinfo.Info, len(sc.brands))
	for i := range sc.brands {
		sc.byBrandID[g.Brands[i].Brand.ID] = &sc.brands[i]
	}
	if g.Domain != nil {
		sc.domain = g.Domain.Name
	}
	sc.newsRollup = articleRollup(g.Pages, nav.TypeNewsArticle)
	sc.tipsRollup = articleRollup(g.Pages, nav.TypeTipsArticle)
	return sc
}

// articleRollup builds previews for one article type, newest first.
func articleRollup(pages []store.PageView, typeSlug string) []ArticlePreview {
	var out []ArticlePreview
	for _, p := range pages {
		if p.TypeSlug != typeSlug {
			continue
		}
		published := p.PublishedDate
		if published == nil {
			published = p.GeneratedAt
		}
		content := parseContent(p.ContentJSON)
		summary, _ := content["summary"].(string)
		out = append(out, ArticlePreview{
			Title:     p.Title,
			URL:       nav.URLFor(p),
			Published: published,
			Summary:   summary,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].Published, out[j].Published
		switch {
		case ti == nil:
			return false
		case tj == nil:
			return true
		default:
			return ti.After(*tj)
		}
	})
	return out
}

// BuildSite renders every page of the site into a fresh release directory
// {outputBase}/{siteID}/v{currentVersion} and returns its path. Re-running
// for the same version replaces that version's directory cleanly; other
// versions and other sites are never touched.
func (r *Renderer) BuildSite(ctx context.Context, g *store.SiteGraph) (string, error) {
	start := time.Now()
	releaseDir := filepath.Join(r.OutputBase,
		strconv.FormatInt(g.Site.ID, 10),
		fmt.Sprintf("v%d", g.Site.CurrentVersion))

	if err := os.RemoveAll(releaseDir); err != nil {
		return "", apperr.Wrap(err, apperr.CategoryFileSystem, apperr.SeverityError, "clear release directory")
	}
	if err := os.MkdirAll(releaseDir, 0o755); err != nil {
		return "", apperr.Wrap(err, apperr.CategoryFileSystem, apperr.SeverityError, "create release directory")
	}

	sc := r.buildShared(g)

	for _, page := range g.Pages {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		html, err := r.renderPage(sc, page, true)
		if err != nil {
			return "", apperr.Wrap(err, apperr.CategoryRender, apperr.SeverityError,
				fmt.Sprintf("render page %q", page.Slug))
		}
		dest := filepath.Join(releaseDir, destPath(page))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return "", apperr.Wrap(err, apperr.CategoryFileSystem, apperr.SeverityError, "create page directory")
		}
		if err := os.WriteFile(dest, html, 0o644); err != nil {
			return "", apperr.Wrap(err, apperr.CategoryFileSystem, apperr.SeverityError, "write page")
		}
		r.Logger.Debug("rendered page", logfields.SiteID(g.Site.ID), logfields.Page(page.Slug))
	}

	if err := copyDir(r.AssetsDir, filepath.Join(releaseDir, "assets")); err != nil {
		return "", apperr.Wrap(err, apperr.CategoryFileSystem, apperr.SeverityError, "copy assets")
	}
	var logos []string
	for _, b := range sc.brands {
		logos = append(logos, b.Logo)
	}
	if err := r.copyLogos(releaseDir, logos); err != nil {
		return "", apperr.Wrap(err, apperr.CategoryFileSystem, apperr.SeverityError, "copy logos")
	}

	favicon := faviconSVG(g.Site.Name, g.Vertical.Slug)
	if err := os.WriteFile(filepath.Join(releaseDir, "favicon.svg"), []byte(favicon), 0o644); err != nil {
		return "", apperr.Wrap(err, apperr.CategoryFileSystem, apperr.SeverityError, "write favicon")
	}
	sitemap := sitemapXML(sc.domain, g.Pages, time.Now())
	if err := os.WriteFile(filepath.Join(releaseDir, "sitemap.xml"), []byte(sitemap), 0o644); err != nil {
		return "", apperr.Wrap(err, apperr.CategoryFileSystem, apperr.SeverityError, "write sitemap")
	}
	robots := robotsTxt(g.Site.CustomRobots, sc.domain)
	if err := os.WriteFile(filepath.Join(releaseDir, "robots.txt"), []byte(robots), 0o644); err != nil {
		return "", apperr.Wrap(err, apperr.CategoryFileSystem, apperr.SeverityError, "write robots.txt")
	}

	r.Logger.Info("site rendered",
		logfields.SiteID(g.Site.ID),
		logfields.Version(g.Site.CurrentVersion),
		slog.Int("pages", len(g.Pages)),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return releaseDir, nil
}

// RenderPageHTML renders a single page in memory, without touching disk and
// without structured-data generation. Used by the preview server.
func (r *Renderer) RenderPageHTML(g *store.SiteGraph, page store.PageView) ([]byte, error) {
	sc := r.buildShared(g)
	return r.renderPage(sc, page, false)
}

func (r *Renderer) renderPage(sc *sharedContext, page store.PageView, withSchema bool) ([]byte, error) {
	data := r.pageData(sc, page, withSchema)
	tmpl, err := r.template(page.TemplateFile)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", page.TemplateFile, err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) template(filename string) (*template.Template, error) {
	r.tmplMu.Lock()
	if tmpl, ok := r.tmplCache[filename]; ok {
		r.tmplMu.Unlock()
		return tmpl, nil
	}
	r.tmplMu.Unlock()

	tmpl, err := r.loadTemplate(filename)
	if err != nil {
		return nil, err
	}
	r.tmplMu.Lock()
	r.tmplCache[filename] = tmpl
	r.tmplMu.Unlock()
	return tmpl, nil
}

// InvalidateTemplates drops the parsed template cache; the preview server
// calls this when the template directory changes.
func (r *Renderer) InvalidateTemplates() {
	r.tmplMu.Lock()
	r.tmplCache = make(map[string]*template.Template)
	r.tmplMu.Unlock()
}

func (r *Renderer) pageData(sc *sharedContext, page store.PageView, withSchema bool) *PageData {
	g := sc.graph
	content := parseContent(page.ContentJSON)
	url := nav.URLFor(page)

	title := page.Title
	if title == "" {
		title = g.Site.Name
	}
	metaTitle := page.MetaTitle
	if metaTitle == "" {
		metaTitle = title
	}

	data := &PageData{
		SiteName:        g.Site.Name,
		Domain:          sc.domain,
		Title:           title,
		MetaTitle:       metaTitle,
		MetaDescription: page.MetaDescription,
		URL:             url,
		AssetPrefix:     assetPrefix(url),
		Content:         content,
		BrandLookup:     sc.lookup,
		Nav:             sc.navLinks,
		Footer:          sc.footer,
		Cluster:         nav.ClusterLinks(page, g.Pages),
		Author:          page.Author,
		PublishedDate:   page.PublishedDate,
	}

	// Homepage and comparison pages get their own enriched brand copy;
	// everything else shares the canonical list.
	switch page.TypeSlug {
	case nav.TypeHomepage, nav.TypeComparison:
		data.Brands = enrichBrands(sc.brands, content)
	default:
		data.Brands = sc.brands
	}

	if page.BrandSlug != "" {
		if info, ok := sc.lookup[page.BrandSlug]; ok {
			data.Brand = info
			for _, b := range sc.brands {
				if b.Slug != info.Slug {
					data.OtherBrands = append(data.OtherBrands, b)
				}
			}
		}
	}

	if page.CTATableID != nil {
		data.CTA = resolveCTA(g.CTATables[*page.CTATableID], sc.byBrandID)
	}

	head := strings.TrimSpace(g.Site.CustomHead)
	if pageHead := strings.TrimSpace(page.CustomHead); pageHead != "" {
		if head != "" {
			head += "\n"
		}
		head += pageHead
	}
	data.CustomHead = template.HTML(head)

	switch page.TypeSlug {
	case nav.TypeHomepage:
		data.NewsPreview = previewOf(sc.newsRollup, 3)
		data.TipsPreview = previewOf(sc.tipsRollup, 3)
		data.PageCount = len(g.Pages)
	case nav.TypeNews:
		data.Articles = sc.newsRollup
	case nav.TypeTips:
		data.Articles = sc.tipsRollup
	}

	var methods []string
	if data.Brand != nil {
		methods = data.Brand.PaymentMethods
	} else {
		seen := map[string]bool{}
		for _, b := range data.Brands {
			for _, m := range b.PaymentMethods {
				if !seen[m] {
					seen[m] = true
					methods = append(methods, m)
				}
			}
		}
	}
	data.PaymentIcons = paymentIcons(methods)

	if withSchema {
		data.Schema = template.HTML(seo.Generate(seo.Input{
			PageType:    page.TypeSlug,
			Content:     content,
			PageTitle:   title,
			SiteName:    g.Site.Name,
			Domain:      sc.domain,
			PageURL:     url,
			Brand:       data.Brand,
			GeneratedAt: page.GeneratedAt,
			Author:      page.Author,
		}))
	}
	return data
}

func previewOf(articles []ArticlePreview, n int) []ArticlePreview {
	if len(articles) <= n {
		return articles
	}
	return articles[:n]
}
