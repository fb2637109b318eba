package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/free-plinko-game/aff-web-gen/internal/apperr"
	"github.com/free-plinko-game/aff-web-gen/internal/config"
	"github.com/free-plinko-game/aff-web-gen/internal/logfields"
)

// Input describes one deploy: the local artifact and the domain state.
type Input struct {
	Domain         string
	SSLProvisioned bool
	CommentsAPI    bool
	OutputPath     string // local release directory produced by the renderer
}

// Result reports what the deploy did.
type Result struct {
	RemoteRelease  string
	SSLProvisioned bool // true when certbot succeeded this run (or was already done)
	Pruned         []string
}

// Deployer ships releases over a Transport following the
// releases/ + current-symlink protocol.
type Deployer struct {
	Cfg    config.DeployConfig
	Logger *slog.Logger
}

// NewDeployer constructs a Deployer.
func NewDeployer(cfg config.DeployConfig, logger *slog.Logger) *Deployer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Deployer{Cfg: cfg, Logger: logger}
}

var releasePattern = regexp.MustCompile(`^v(\d+)$`)

// releaseName derives the release identity from the artifact's own folder
// name, so re-deploys always ship under the name of what is actually on disk.
func releaseName(outputPath string) (string, error) {
	name := filepath.Base(filepath.Clean(outputPath))
	if !releasePattern.MatchString(name) {
		return "", apperr.ValidationError(
			fmt.Sprintf("output path %q is not a versioned release directory", outputPath))
	}
	return name, nil
}

// Deploy runs the full release protocol. Steps run strictly in order; any
// failure propagates unmodified except TLS provisioning, which is logged and
// swallowed. Partial progress is left for the next deploy or a rollback to
// recover.
func (d *Deployer) Deploy(ctx context.Context, t Transport, in Input) (*Result, error) {
	if in.Domain == "" {
		return nil, apperr.ValidationError("site has no domain assigned")
	}
	if in.OutputPath == "" {
		return nil, apperr.ValidationError("site has never been built")
	}
	release, err := releaseName(in.OutputPath)
	if err != nil {
		return nil, err
	}

	base := path.Join(d.Cfg.WebRoot, in.Domain)
	releasesDir := path.Join(base, "releases")
	remoteRelease := path.Join(releasesDir, release)

	if err := d.upload(ctx, t, in.OutputPath, remoteRelease); err != nil {
		return nil, err
	}
	if err := d.verifyNonEmpty(ctx, t, remoteRelease); err != nil {
		return nil, err
	}
	if _, err := t.Run(ctx, fmt.Sprintf("ln -sfn %s %s",
		shellQuote(path.Join("releases", release)), shellQuote(path.Join(base, "current")))); err != nil {
		return nil, apperr.Wrap(err, apperr.CategoryDeploy, apperr.SeverityError, "repoint current symlink")
	}

	sslNow := in.SSLProvisioned
	if err := d.installVhost(ctx, t, in.Domain, sslNow, in.CommentsAPI); err != nil {
		return nil, err
	}
	if !sslNow {
		if d.provisionTLS(ctx, t, in.Domain) {
			sslNow = true
			// Re-render the vhost with the 443 block now that the cert exists.
			if err := d.installVhost(ctx, t, in.Domain, true, in.CommentsAPI); err != nil {
				return nil, err
			}
		}
	}

	pruned, err := d.prune(ctx, t, base)
	if err != nil {
		return nil, err
	}

	d.Logger.Info("deploy complete",
		logfields.Domain(in.Domain), logfields.Release(release), slog.Int("pruned", len(pruned)))
	return &Result{RemoteRelease: remoteRelease, SSLProvisioned: sslNow, Pruned: pruned}, nil
}

// upload transfers every file of the local release, preserving relative paths
// with POSIX separators on the remote side.
func (d *Deployer) upload(ctx context.Context, t Transport, localDir, remoteDir string) error {
	if err := t.MkdirAll(ctx, remoteDir); err != nil {
		return apperr.Wrap(err, apperr.CategoryDeploy, apperr.SeverityError, "create remote release directory")
	}
	err := filepath.Walk(localDir, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(localDir, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		return t.Upload(ctx, data, path.Join(remoteDir, filepath.ToSlash(rel)))
	})
	if err != nil {
		return apperr.Wrap(err, apperr.CategoryDeploy, apperr.SeverityError, "upload release files")
	}
	return nil
}

// verifyNonEmpty aborts before the symlink flip if the upload produced an
// empty directory; serving an empty release is worse than failing the deploy.
func (d *Deployer) verifyNonEmpty(ctx context.Context, t Transport, remoteRelease string) error {
	out, err := t.Run(ctx, fmt.Sprintf("find %s -type f | head -n 1", shellQuote(remoteRelease)))
	if err != nil {
		return apperr.Wrap(err, apperr.CategoryDeploy, apperr.SeverityError, "verify remote release")
	}
	if strings.TrimSpace(out) == "" {
		return apperr.New(apperr.CategoryDeploy, apperr.SeverityFatal,
			fmt.Sprintf("remote release %s is empty after upload", remoteRelease))
	}
	return nil
}

func (d *Deployer) installVhost(ctx context.Context, t Transport, domain string, ssl, comments bool) error {
	cfgText, err := renderVhost(vhostParams{
		Domain:      domain,
		Root:        path.Join(d.Cfg.WebRoot, domain, "current"),
		SSL:         ssl,
		CommentsAPI: comments,
	})
	if err != nil {
		return apperr.Wrap(err, apperr.CategoryDeploy, apperr.SeverityError, "render vhost")
	}
	tmp := path.Join("/tmp", domain+".conf")
	available := path.Join(d.Cfg.NginxAvailableDir, domain+".conf")
	enabled := path.Join(d.Cfg.NginxEnabledDir, domain+".conf")

	if err := t.Upload(ctx, []byte(cfgText), tmp); err != nil {
		return apperr.Wrap(err, apperr.CategoryDeploy, apperr.SeverityError, "upload vhost config")
	}
	steps := []string{
		fmt.Sprintf("mv %s %s", shellQuote(tmp), shellQuote(available)),
		fmt.Sprintf("ln -sfn %s %s", shellQuote(available), shellQuote(enabled)),
		"nginx -t",
		"systemctl reload nginx",
	}
	for _, cmd := range steps {
		if _, err := t.Sudo(ctx, cmd); err != nil {
			return apperr.Wrap(err, apperr.CategoryDeploy, apperr.SeverityError, "install vhost: "+cmd)
		}
	}
	return nil
}

// provisionTLS runs certbot once per domain. Failure is non-fatal: the site
// stays reachable over plain HTTP and the next deploy retries.
func (d *Deployer) provisionTLS(ctx context.Context, t Transport, domain string) bool {
	cmd := fmt.Sprintf("certbot --nginx -d %s -d www.%s --non-interactive --agree-tos", domain, domain)
	if d.Cfg.CertbotEmail != "" {
		cmd += " -m " + d.Cfg.CertbotEmail
	} else {
		cmd += " --register-unsafely-without-email"
	}
	if _, err := t.Sudo(ctx, cmd); err != nil {
		d.Logger.Warn("tls provisioning failed; continuing over http",
			logfields.Domain(domain), logfields.Error(err))
		return false
	}
	return true
}

// prune removes old releases, keeping the most recent KeepReleases by numeric
// version. The release the current symlink points at is never removed, even
// outside the keep window.
func (d *Deployer) prune(ctx context.Context, t Transport, base string) ([]string, error) {
	releasesDir := path.Join(base, "releases")
	out, err := t.Run(ctx, "ls -1 "+shellQuote(releasesDir))
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CategoryDeploy, apperr.SeverityError, "list releases")
	}
	type rel struct {
		name string
		n    int
	}
	var releases []rel
	for _, line := range strings.Split(out, "\n") {
		name := strings.TrimSpace(line)
		m := releasePattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		releases = append(releases, rel{name: name, n: n})
	}
	sort.Slice(releases, func(i, j int) bool { return releases[i].n > releases[j].n })

	keep := d.Cfg.KeepReleases
	if keep <= 0 {
		keep = 3
	}
	if len(releases) <= keep {
		return nil, nil
	}

	current, err := t.Run(ctx, "readlink "+shellQuote(path.Join(base, "current")))
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CategoryDeploy, apperr.SeverityError, "read current symlink")
	}
	currentName := path.Base(strings.TrimSpace(current))

	var pruned []string
	for _, r := range releases[keep:] {
		if r.name == currentName {
			continue
		}
		if _, err := t.Run(ctx, "rm -rf "+shellQuote(path.Join(releasesDir, r.name))); err != nil {
			return nil, apperr.Wrap(err, apperr.CategoryDeploy, apperr.SeverityError, "remove release "+r.name)
		}
		pruned = append(pruned, r.name)
	}
	return pruned, nil
}

// shellQuote wraps a path in single quotes for remote shells.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
