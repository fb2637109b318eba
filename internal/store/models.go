package store

import "time"

// Site statuses. The in-progress statuses double as soft locks: an operation
// refuses to start while the row is in one of them.
const (
	StatusDraft      = "draft"
	StatusGenerating = "generating"
	StatusGenerated  = "generated"
	StatusBuilding   = "building"
	StatusBuilt      = "built"
	StatusDeploying  = "deploying"
	StatusDeployed   = "deployed"
	StatusFailed     = "failed"
)

// Domain statuses.
const (
	DomainAvailable = "available"
	DomainAssigned  = "assigned"
	DomainDeployed  = "deployed"
)

// InProgress reports whether a site status names a running operation.
func InProgress(status string) bool {
	switch status {
	case StatusGenerating, StatusBuilding, StatusDeploying:
		return true
	}
	return false
}

// Geo is a market/jurisdiction brands are licensed for.
type Geo struct {
	ID   int64
	Name string
	Code string
}

// Vertical is a product niche (sports betting, casino, ...).
type Vertical struct {
	ID   int64
	Name string
	Slug string
}

// PageType is reference data mapping a page category to its template file.
type PageType struct {
	ID           int64
	Name         string
	Slug         string
	TemplateFile string
}

// Author is an optional byline for content pages.
type Author struct {
	ID       int64
	Name     string
	URL      string
	JobTitle string
}

// Domain is a globally unique hostname a site can be assigned.
type Domain struct {
	ID             int64
	Name           string
	Status         string
	SSLProvisioned bool
}

// Brand is the global identity of an operator.
type Brand struct {
	ID            int64
	Name          string
	Slug          string
	Logo          string
	AffiliateLink string
	Description   string
	Founded       string
	Headquarters  string
	Rating        float64
}

// BrandGeo carries the GEO-specific facts for a brand.
type BrandGeo struct {
	ID             int64
	BrandID        int64
	GeoID          int64
	WelcomeBonus   string
	BonusCode      string
	LicenseInfo    string
	PaymentMethods string
	Rating         float64
}

// SiteBrandOverride holds site-specific copy overrides. Empty fields do not
// override the layers below.
type SiteBrandOverride struct {
	ID            int64
	SiteBrandID   int64
	Description   string
	SellingPoints string
	AffiliateLink string
	WelcomeBonus  string
	BonusCode     string
}

// Site is the root aggregate of the pipeline.
type Site struct {
	ID             int64
	Name           string
	GeoID          int64
	VerticalID     int64
	DomainID       *int64
	Status         string
	OutputPath     string
	CurrentVersion int
	BuiltAt        *time.Time
	DeployedAt     *time.Time
	CustomRobots   string
	CustomHead     string
	FreshnessDays  int
	CommentsAPI    bool
}

// SitePage is the unit of renderable content.
type SitePage struct {
	ID               int64
	SiteID           int64
	PageTypeID       int64
	BrandID          *int64
	EvergreenTopic   *string
	Slug             string
	Title            string
	MetaTitle        string
	MetaDescription  string
	ContentJSON      string
	IsGenerated      bool
	GeneratedAt      *time.Time
	CTATableID       *int64
	AuthorID         *int64
	ShowInNav        bool
	ShowInFooter     bool
	NavOrder         int
	NavLabel         string
	NavParentID      *int64
	CustomHead       string
	FixtureID        *string
	PublishedDate    *time.Time
	RegenerationNote string
}

// ContentHistory is one superseded content snapshot for a page.
type ContentHistory struct {
	ID           int64
	PageID       int64
	Version      int
	ContentJSON  string
	SupersededAt time.Time
}

// CTATable is a named, site-scoped ordered list of call-to-action rows.
type CTATable struct {
	ID     int64
	SiteID int64
	Name   string
	Rows   []CTARow
}

// CTARow is one brand entry in a CTA table.
type CTARow struct {
	ID        int64
	TableID   int64
	BrandID   int64
	Rank      int
	IsVisible bool
	CTAText   string
	Badge     string
}

// PageView is a SitePage joined with its reference data, as the renderer and
// nav builder consume it.
type PageView struct {
	SitePage
	TypeSlug     string
	TemplateFile string
	ParentSlug   string
	BrandSlug    string
	BrandName    string
	Author       *Author
}

// BrandView is one ranked site-brand with its GEO layer and site override,
// before merging.
type BrandView struct {
	Rank     int
	Brand    Brand
	Geo      *BrandGeo
	Override *SiteBrandOverride
}

// SiteGraph is everything the renderer needs for one site, loaded in one shot.
type SiteGraph struct {
	Site     Site
	Geo      Geo
	Vertical Vertical
	Domain   *Domain
	Pages    []PageView
	Brands   []BrandView
	CTATables map[int64]*CTATable
}
