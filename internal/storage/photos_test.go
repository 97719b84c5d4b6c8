package storage

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestSaveUsesDayFolderAndMillis(t *testing.T) {
	photos := New(t.TempDir(), 0)
	now := time.Date(2024, time.May, 6, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		ext  string
		data string
		want string
	}{
		{"", "abc", "uploads/2024-05-06/1714986000000.jpg"},
		{".PNG", "def", "uploads/2024-05-06/1714986000000.png"},
		{".jpg", "ghi", "uploads/2024-05-06/1714986000001.jpg"},
	}
	var first string
	for i, tc := range cases {
		rel, n, err := photos.Save(now, tc.ext, strings.NewReader(tc.data))
		if err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
		if rel != tc.want || n != int64(len(tc.data)) {
			t.Fatalf("save %d: expected %s (%d bytes), got %s (%d bytes)", i, tc.want, len(tc.data), rel, n)
		}
		if i == 0 {
			first = rel
		}
	}

	abs, err := photos.Resolve(first)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "abc" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestResolveRejectsTraversal(t *testing.T) {
	photos := New(t.TempDir(), 0)
	for _, rel := range []string{"uploads/../../etc/passwd", ""} {
		if _, err := photos.Resolve(rel); !errors.Is(err, ErrInvalidPath) {
			t.Fatalf("%q: expected ErrInvalidPath, got %v", rel, err)
		}
	}
}

func TestThumbnailAndRemove(t *testing.T) {
	photos := New(t.TempDir(), 100)
	rel, _, err := photos.Save(time.Now(), ".png", bytes.NewReader(pngBytes(t, 400, 200)))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	thumb, err := photos.Thumbnail(rel)
	if err != nil {
		t.Fatalf("thumbnail: %v", err)
	}
	if !strings.HasSuffix(thumb, "_thumb.jpg") {
		t.Fatalf("unexpected thumbnail path %s", thumb)
	}

	abs, err := photos.Resolve(thumb)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	img, err := imaging.Open(abs)
	if err != nil {
		t.Fatalf("open thumbnail: %v", err)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 50 {
		t.Fatalf("expected 100x50, got %v", img.Bounds())
	}

	if err := photos.Remove(rel); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(abs); !os.IsNotExist(err) {
		t.Fatalf("expected thumbnail removed, got %v", err)
	}
	if err := photos.Remove(rel); err != nil {
		t.Fatalf("second remove: %v", err)
	}
}

func TestURL(t *testing.T) {
	cases := map[string]string{
		"uploads/a.jpg":  "/uploads/a.jpg",
		"/uploads/a.jpg": "/uploads/a.jpg",
		"":               "",
	}
	for in, want := range cases {
		if got := URL(in); got != want {
			t.Fatalf("URL(%q) = %q, want %q", in, got, want)
		}
	}
}
