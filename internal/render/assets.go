package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// copyDir recursively copies src into dst. Missing src is not an error: a
// site without a static bundle still renders.
func copyDir(src, dst string) error {
	info, err := os.Stat(src)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", src)
	}
	return filepath.Walk(src, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if fi.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("mkdir for %s: %w", dst, err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %s: %w", dst, err)
	}
	return out.Close()
}

// copyLogos copies only the logo files referenced by this site's merged
// brands. A referenced file missing on disk is skipped silently so pages
// never link a broken image for a brand without an uploaded logo.
func (r *Renderer) copyLogos(releaseDir string, logoFiles []string) error {
	logoDir := filepath.Join(releaseDir, "assets", "logos")
	for _, name := range logoFiles {
		if name == "" {
			continue
		}
		src := filepath.Join(r.UploadsDir, "logos", name)
		if _, err := os.Stat(src); os.IsNotExist(err) {
			continue
		}
		if err := os.MkdirAll(logoDir, 0o755); err != nil {
			return fmt.Errorf("mkdir logos: %w", err)
		}
		if err := copyFile(src, filepath.Join(logoDir, name)); err != nil {
			return err
		}
	}
	return nil
}
