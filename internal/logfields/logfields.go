package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeySiteID     = "site_id"
	KeySiteName   = "site_name"
	KeyDomain     = "domain"
	KeyVersion    = "version"
	KeyRelease    = "release"
	KeyPage       = "page"
	KeyPageID     = "page_id"
	KeyPageType   = "page_type"
	KeyJobID      = "job_id"
	KeyJobKind    = "job_kind"
	KeyStatus     = "status"
	KeyDurationMS = "duration_ms"
	KeyWorker     = "worker"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func SiteID(id int64) slog.Attr       { return slog.Int64(KeySiteID, id) }
func SiteName(n string) slog.Attr     { return slog.String(KeySiteName, n) }
func Domain(d string) slog.Attr       { return slog.String(KeyDomain, d) }
func Version(v int) slog.Attr         { return slog.Int(KeyVersion, v) }
func Release(r string) slog.Attr      { return slog.String(KeyRelease, r) }
func Page(slug string) slog.Attr      { return slog.String(KeyPage, slug) }
func PageID(id int64) slog.Attr       { return slog.Int64(KeyPageID, id) }
func PageType(t string) slog.Attr     { return slog.String(KeyPageType, t) }
func JobID(id string) slog.Attr       { return slog.String(KeyJobID, id) }
func JobKind(k string) slog.Attr      { return slog.String(KeyJobKind, k) }
func Status(s string) slog.Attr       { return slog.String(KeyStatus, s) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Worker(n int) slog.Attr          { return slog.Int(KeyWorker, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
