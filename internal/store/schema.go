package store

const schema = `
CREATE TABLE IF NOT EXISTS geos (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	code TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS verticals (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS page_types (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE,
	template_file TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS authors (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	url TEXT NOT NULL DEFAULT '',
	job_title TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS domains (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	status TEXT NOT NULL DEFAULT 'available',
	ssl_provisioned INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS brands (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE,
	logo TEXT NOT NULL DEFAULT '',
	affiliate_link TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	founded TEXT NOT NULL DEFAULT '',
	headquarters TEXT NOT NULL DEFAULT '',
	rating REAL NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS brand_geos (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	brand_id INTEGER NOT NULL REFERENCES brands(id),
	geo_id INTEGER NOT NULL REFERENCES geos(id),
	welcome_bonus TEXT NOT NULL DEFAULT '',
	bonus_code TEXT NOT NULL DEFAULT '',
	license_info TEXT NOT NULL DEFAULT '',
	payment_methods TEXT NOT NULL DEFAULT '',
	rating REAL NOT NULL DEFAULT 0,
	UNIQUE(brand_id, geo_id)
);
CREATE TABLE IF NOT EXISTS brand_verticals (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	brand_id INTEGER NOT NULL REFERENCES brands(id),
	vertical_id INTEGER NOT NULL REFERENCES verticals(id),
	UNIQUE(brand_id, vertical_id)
);
CREATE TABLE IF NOT EXISTS sites (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	geo_id INTEGER NOT NULL REFERENCES geos(id),
	vertical_id INTEGER NOT NULL REFERENCES verticals(id),
	domain_id INTEGER REFERENCES domains(id),
	status TEXT NOT NULL DEFAULT 'draft',
	output_path TEXT NOT NULL DEFAULT '',
	current_version INTEGER NOT NULL DEFAULT 1,
	built_at INTEGER,
	deployed_at INTEGER,
	custom_robots TEXT NOT NULL DEFAULT '',
	custom_head TEXT NOT NULL DEFAULT '',
	freshness_days INTEGER NOT NULL DEFAULT 0,
	comments_api INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS site_brands (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	site_id INTEGER NOT NULL REFERENCES sites(id),
	brand_id INTEGER NOT NULL REFERENCES brands(id),
	rank INTEGER NOT NULL,
	UNIQUE(site_id, brand_id)
);
CREATE TABLE IF NOT EXISTS site_brand_overrides (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	site_brand_id INTEGER NOT NULL UNIQUE REFERENCES site_brands(id),
	description TEXT NOT NULL DEFAULT '',
	selling_points TEXT NOT NULL DEFAULT '',
	affiliate_link TEXT NOT NULL DEFAULT '',
	welcome_bonus TEXT NOT NULL DEFAULT '',
	bonus_code TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS cta_tables (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	site_id INTEGER NOT NULL REFERENCES sites(id),
	name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS cta_table_rows (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	cta_table_id INTEGER NOT NULL REFERENCES cta_tables(id),
	brand_id INTEGER NOT NULL REFERENCES brands(id),
	rank INTEGER NOT NULL,
	is_visible INTEGER NOT NULL DEFAULT 1,
	cta_text TEXT NOT NULL DEFAULT '',
	badge TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS site_pages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	site_id INTEGER NOT NULL REFERENCES sites(id),
	page_type_id INTEGER NOT NULL REFERENCES page_types(id),
	brand_id INTEGER REFERENCES brands(id),
	evergreen_topic TEXT,
	slug TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT '',
	meta_title TEXT NOT NULL DEFAULT '',
	meta_description TEXT NOT NULL DEFAULT '',
	content_json TEXT NOT NULL DEFAULT '',
	is_generated INTEGER NOT NULL DEFAULT 0,
	generated_at INTEGER,
	cta_table_id INTEGER REFERENCES cta_tables(id),
	author_id INTEGER REFERENCES authors(id),
	show_in_nav INTEGER NOT NULL DEFAULT 0,
	show_in_footer INTEGER NOT NULL DEFAULT 0,
	nav_order INTEGER NOT NULL DEFAULT 0,
	nav_label TEXT NOT NULL DEFAULT '',
	nav_parent_id INTEGER REFERENCES site_pages(id),
	custom_head TEXT NOT NULL DEFAULT '',
	fixture_id TEXT,
	published_date INTEGER,
	regeneration_note TEXT NOT NULL DEFAULT ''
);

-- Page identity is unique per site within its category: global pages by type,
-- brand pages by (type, brand), evergreen pages by (type, topic).
CREATE UNIQUE INDEX IF NOT EXISTS idx_page_identity_global
	ON site_pages(site_id, page_type_id)
	WHERE brand_id IS NULL AND evergreen_topic IS NULL;
CREATE UNIQUE INDEX IF NOT EXISTS idx_page_identity_brand
	ON site_pages(site_id, page_type_id, brand_id)
	WHERE brand_id IS NOT NULL;
CREATE UNIQUE INDEX IF NOT EXISTS idx_page_identity_topic
	ON site_pages(site_id, page_type_id, evergreen_topic)
	WHERE evergreen_topic IS NOT NULL;

CREATE INDEX IF NOT EXISTS idx_site_pages_site ON site_pages(site_id);

CREATE TABLE IF NOT EXISTS content_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	page_id INTEGER NOT NULL REFERENCES site_pages(id),
	version INTEGER NOT NULL,
	content_json TEXT NOT NULL,
	superseded_at INTEGER NOT NULL,
	UNIQUE(page_id, version)
);
`
