// Package storage keeps uploaded documentation photos on local disk under
// day folders.
package storage

import (
	"errors"
	"fmt"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Prefix starts every stored relative path and every public URL.
const Prefix = "uploads"

var ErrInvalidPath = errors.New("invalid photo path")

type Photos struct {
	root       string
	thumbWidth int
}

func New(root string, thumbWidth int) *Photos {
	if thumbWidth <= 0 {
		thumbWidth = 320
	}
	return &Photos{root: root, thumbWidth: thumbWidth}
}

func (p *Photos) Root() string {
	return p.root
}

// Save writes r to <root>/<yyyy-MM-dd>/<unix millis><ext> and returns the
// relative path uploads/<yyyy-MM-dd>/<file>. Clashing names move forward by
// one millisecond.
func (p *Photos) Save(now time.Time, ext string, r io.Reader) (string, int64, error) {
	ext = normalizeExt(ext)
	day := now.Format("2006-01-02")
	dir := filepath.Join(p.root, day)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create upload dir: %w", err)
	}

	stamp := now.UnixMilli()
	for attempt := 0; attempt < 1000; attempt++ {
		name := fmt.Sprintf("%d%s", stamp+int64(attempt), ext)
		f, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", 0, fmt.Errorf("create photo: %w", err)
		}
		n, err := io.Copy(f, r)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(f.Name())
			return "", 0, fmt.Errorf("write photo: %w", err)
		}
		return path.Join(Prefix, day, name), n, nil
	}
	return "", 0, fmt.Errorf("no free photo name for %d", stamp)
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || ext == "." {
		return ".jpg"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ".jpg"
		}
	}
	return ext
}

// Resolve maps a stored relative path to its file on disk.
func (p *Photos) Resolve(rel string) (string, error) {
	rel = strings.TrimPrefix(strings.TrimPrefix(rel, "/"), Prefix+"/")
	clean := path.Clean(rel)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") || path.IsAbs(clean) {
		return "", ErrInvalidPath
	}
	return filepath.Join(p.root, filepath.FromSlash(clean)), nil
}

// ThumbnailPath is the relative path of the thumbnail of rel.
func ThumbnailPath(rel string) string {
	ext := path.Ext(rel)
	return strings.TrimSuffix(rel, ext) + "_thumb.jpg"
}

// Thumbnail renders a JPEG preview next to the photo and returns its
// relative path.
func (p *Photos) Thumbnail(rel string) (string, error) {
	src, err := p.Resolve(rel)
	if err != nil {
		return "", err
	}
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decode photo: %w", err)
	}
	if img.Bounds().Dx() > p.thumbWidth {
		img = imaging.Resize(img, p.thumbWidth, 0, imaging.Lanczos)
	}
	thumbRel := ThumbnailPath(rel)
	dst, err := p.Resolve(thumbRel)
	if err != nil {
		return "", err
	}
	if err := imaging.Save(img, dst, imaging.JPEGQuality(80)); err != nil {
		return "", fmt.Errorf("save thumbnail: %w", err)
	}
	return thumbRel, nil
}

// Remove deletes a photo and its thumbnail. Missing files are not an error.
func (p *Photos) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	for _, target := range []string{rel, ThumbnailPath(rel)} {
		abs, err := p.Resolve(target)
		if err != nil {
			return err
		}
		if err := os.Remove(abs); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// URL is the public path a stored photo is served under.
func URL(rel string) string {
	if rel == "" {
		return ""
	}
	if strings.HasPrefix(rel, "/") {
		return rel
	}
	return "/" + rel
}
