package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/simdigmanuda/pdp.sim/internal/auth"
	"github.com/simdigmanuda/pdp.sim/internal/config"
	"github.com/simdigmanuda/pdp.sim/internal/db"
	"github.com/simdigmanuda/pdp.sim/internal/settings"
	"github.com/simdigmanuda/pdp.sim/internal/storage"
)

func newIntegrationServer(t *testing.T) *Server {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, url)
	if err != nil {
		t.Fatalf("db connection failed: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := db.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("schema: %v", err)
	}
	dir := t.TempDir()
	cfg := config.Config{
		JWTSecret:      testSecret,
		JWTIssuer:      "pdp-test",
		AccessTokenTTL: time.Hour,
		Timezone:       "Asia/Jakarta",
		UploadMaxBytes: 3 << 20,
	}
	srv, err := NewServer(cfg, db.NewStore(pool), storage.New(filepath.Join(dir, "uploads"), 0),
		settings.NewStore(filepath.Join(dir, "settings.json"), config.SchoolFallback{}), nil)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	srv.now = func() time.Time {
		return time.Date(2024, time.May, 8, 9, 0, 0, 0, srv.loc)
	}
	return srv
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func createdID(t *testing.T, rec *httptest.ResponseRecorder) int64 {
	t.Helper()
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d %s", rec.Code, rec.Body.String())
	}
	var out struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil || out.ID == 0 {
		t.Fatalf("decode id: %v %s", err, rec.Body.String())
	}
	return out.ID
}

func uploadRequest(t *testing.T, path string, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := mw.WriteField(key, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	part, err := mw.CreateFormFile("foto", "kelas.png")
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	if err := png.Encode(part, image.NewRGBA(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadFlow(t *testing.T) {
	srv := newIntegrationServer(t)
	router := srv.Router()
	admin := tokenFor(t, auth.RoleAdmin)
	suffix := uuid.NewString()[:8]

	rec := doJSON(t, router, http.MethodPost, "/admin/teachers", admin, map[string]string{"name": "Guru " + suffix})
	var teacher teacherResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &teacher); err != nil || rec.Code != http.StatusCreated {
		t.Fatalf("create teacher: %d %s", rec.Code, rec.Body.String())
	}
	if teacher.Token == "" || !strings.HasSuffix(teacher.UploadURL, "/u/"+teacher.Token) {
		t.Fatalf("unexpected teacher %+v", teacher)
	}
	t.Cleanup(func() {
		doJSON(t, router, http.MethodDelete, fmt.Sprintf("/admin/teachers/%d", teacher.ID), admin, nil)
	})

	classID := createdID(t, doJSON(t, router, http.MethodPost, "/admin/classes", admin, map[string]string{"name": "7" + suffix}))
	subjectID := createdID(t, doJSON(t, router, http.MethodPost, "/admin/subjects", admin, map[string]string{"name": "IPA " + suffix}))

	rec = doJSON(t, router, http.MethodGet, "/u/"+teacher.Token, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload page: %d %s", rec.Code, rec.Body.String())
	}
	var page uploadPageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.Teacher.ID != teacher.ID || page.Date != "2024-05-08" || page.Day != "Rabu" {
		t.Fatalf("unexpected page %+v", page)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "/u/"+teacher.Token+"/upload", map[string]string{
		"mapelId": fmt.Sprint(subjectID),
		"kelasId": fmt.Sprint(classID),
		"jamKe":   "11,12",
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload: %d %s", rec.Code, rec.Body.String())
	}
	var uploaded struct {
		OK            bool   `json:"ok"`
		Count         int    `json:"count"`
		BatchID       string `json:"batchId"`
		LocationValid *bool  `json:"locationValid"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &uploaded); err != nil {
		t.Fatalf("decode upload: %v", err)
	}
	if !uploaded.OK || uploaded.Count != 2 || uploaded.BatchID == "" || uploaded.LocationValid != nil {
		t.Fatalf("unexpected upload response %+v", uploaded)
	}

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/admin/reports?mode=invalid&teacherId=%d", teacher.ID), admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reports: %d %s", rec.Code, rec.Body.String())
	}
	var reports struct {
		Rows []struct {
			PeriodList []int    `json:"periodList"`
			BatchIDs   []string `json:"batchIds"`
		} `json:"rows"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &reports); err != nil {
		t.Fatalf("decode reports: %v", err)
	}
	if len(reports.Rows) != 1 || len(reports.Rows[0].PeriodList) != 2 || reports.Rows[0].BatchIDs[0] != uploaded.BatchID {
		t.Fatalf("expected one unmatched row, got %s", rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/admin/gallery?teacherId=%d", teacher.ID), admin, nil)
	var gallery []galleryItem
	if err := json.Unmarshal(rec.Body.Bytes(), &gallery); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("gallery: %d %s", rec.Code, rec.Body.String())
	}
	if len(gallery) != 1 || gallery[0].BatchID != uploaded.BatchID || gallery[0].ThumbnailURL == "" {
		t.Fatalf("unexpected gallery %s", rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/admin/reports/photos/delete", admin, map[string][]string{"batchIds": {uploaded.BatchID}})
	if rec.Code != http.StatusOK {
		t.Fatalf("delete photos: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "/u/"+teacher.Token+"/upload", map[string]string{
		"mapelId": fmt.Sprint(subjectID),
		"kelasId": fmt.Sprint(classID),
	}))
	if rec.Code != http.StatusBadRequest || decodeBody(t, rec)["error"] != "missing_period" {
		t.Fatalf("expected missing_period, got %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "/u/not-a-token/upload", map[string]string{"jamKe": "1"}))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown token, got %d", rec.Code)
	}
}

func TestCatalogImportAndBulkDelete(t *testing.T) {
	srv := newIntegrationServer(t)
	router := srv.Router()
	admin := tokenFor(t, auth.RoleAdmin)
	suffix := uuid.NewString()[:8]

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "guru.csv")
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	fmt.Fprintf(part, "nama;nip\r\nImpor A %s;1\r\nImpor B %s;\r\n", suffix, suffix)
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/admin/teachers/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+admin)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("import: %d %s", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["imported"] != float64(2) {
		t.Fatalf("unexpected import result %v", body)
	}

	rec = doJSON(t, router, http.MethodGet, "/admin/teachers", admin, nil)
	var teachers []teacherResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &teachers); err != nil {
		t.Fatalf("decode teachers: %v", err)
	}
	var ids []int64
	for _, tc := range teachers {
		if strings.HasSuffix(tc.Name, suffix) {
			if tc.Token == "" {
				t.Fatalf("imported teacher without token %+v", tc)
			}
			ids = append(ids, tc.ID)
		}
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 imported teachers, got %d", len(ids))
	}

	rec = doJSON(t, router, http.MethodPost, "/admin/teachers/bulk-delete", admin, map[string][]int64{"ids": append(ids, ids[0])})
	if rec.Code != http.StatusOK || decodeBody(t, rec)["deleted"] != float64(2) {
		t.Fatalf("bulk delete: %d %s", rec.Code, rec.Body.String())
	}
}
