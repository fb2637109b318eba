package deploy

import (
	"context"
	"fmt"
	"path"

	"github.com/free-plinko-game/aff-web-gen/internal/apperr"
	"github.com/free-plinko-game/aff-web-gen/internal/logfields"
)

// RollbackInput addresses a retained release to serve again.
type RollbackInput struct {
	Domain         string
	CurrentVersion int
	// TargetVersion of 0 defaults to CurrentVersion-1.
	TargetVersion int
}

// Rollback repoints the current symlink at an already-retained release and
// reloads the web server. No files are transferred and no version bookkeeping
// changes; only what is physically served moves.
func (d *Deployer) Rollback(ctx context.Context, t Transport, in RollbackInput) (int, error) {
	if in.Domain == "" {
		return 0, apperr.ValidationError("site has no domain assigned")
	}
	target := in.TargetVersion
	if target == 0 {
		target = in.CurrentVersion - 1
	}
	if target < 1 {
		return 0, apperr.ValidationError("no prior release to roll back to")
	}

	base := path.Join(d.Cfg.WebRoot, in.Domain)
	release := fmt.Sprintf("v%d", target)
	if _, err := t.Run(ctx, fmt.Sprintf("ln -sfn %s %s",
		shellQuote(path.Join("releases", release)), shellQuote(path.Join(base, "current")))); err != nil {
		return 0, apperr.Wrap(err, apperr.CategoryDeploy, apperr.SeverityError, "repoint current symlink")
	}
	if _, err := t.Sudo(ctx, "systemctl reload nginx"); err != nil {
		return 0, apperr.Wrap(err, apperr.CategoryDeploy, apperr.SeverityError, "reload nginx")
	}

	d.Logger.Info("rolled back", logfields.Domain(in.Domain), logfields.Release(release))
	return target, nil
}
