package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/simdigmanuda/pdp.sim/internal/auth"
	"github.com/simdigmanuda/pdp.sim/internal/config"
	"github.com/simdigmanuda/pdp.sim/internal/db"
	"github.com/simdigmanuda/pdp.sim/internal/operations"
	"github.com/simdigmanuda/pdp.sim/internal/settings"
	"github.com/simdigmanuda/pdp.sim/internal/storage"
)

type Server struct {
	cfg      config.Config
	store    *db.Store
	photos   *storage.Photos
	settings *settings.Store
	redis    *redis.Client
	limiter  *RateLimiter
	loc      *time.Location
	now      func() time.Time
}

func NewServer(cfg config.Config, store *db.Store, photos *storage.Photos, settingsStore *settings.Store, redisClient *redis.Client) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret required")
	}
	if photos == nil || settingsStore == nil {
		return nil, errors.New("photo and settings stores required")
	}
	return &Server{
		cfg:      cfg,
		store:    store,
		photos:   photos,
		settings: settingsStore,
		redis:    redisClient,
		limiter:  NewRateLimiter(redisClient, cfg.UploadRateLimit, cfg.UploadRateWindow),
		loc:      cfg.Location(),
		now:      time.Now,
	}, nil
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/"+storage.Prefix+"/*", http.StripPrefix("/"+storage.Prefix+"/", http.FileServer(http.Dir(s.photos.Root()))))

	r.Get("/u/{token}", s.handleUploadPage)
	r.Post("/u/{token}/upload", s.handleUpload)

	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Post("/logout", s.handleLogout)
			r.Get("/me", s.handleGetMe)
			r.Put("/me/password", s.handleChangePassword)

			r.Get("/dashboard", s.handleDashboard)
			r.Get("/realtime", s.handleRealtime)
			r.Get("/reports", s.handleReports)
			r.Get("/reports.csv", s.handleReportsCSV)
			r.Get("/reports.xlsx", s.handleReportsXLSX)
			r.Post("/reports/photos/delete", s.handleDeletePhotos)
			r.Get("/gallery", s.handleGallery)
			r.Post("/gallery/delete", s.handleDeletePhotos)

			r.Get("/teachers", s.handleListTeachers)
			r.Post("/teachers", s.handleCreateTeacher)
			r.Put("/teachers/{id}", s.handleUpdateTeacher)
			r.Delete("/teachers/{id}", s.handleDeleteTeacher)
			r.Post("/teachers/{id}/token", s.handleRotateTeacherToken)
			r.Get("/teachers/template.csv", s.handleTeacherTemplate)
			r.Post("/teachers/import", s.handleImportTeachers)
			r.Post("/teachers/bulk-delete", s.handleBulkDeleteTeachers)

			r.Get("/classes", s.handleListClasses)
			r.Post("/classes", s.handleCreateClass)
			r.Put("/classes/{id}", s.handleUpdateClass)
			r.Delete("/classes/{id}", s.handleDeleteClass)
			r.Post("/classes/bulk-delete", s.handleBulkDeleteClasses)

			r.Get("/subjects", s.handleListSubjects)
			r.Post("/subjects", s.handleCreateSubject)
			r.Put("/subjects/{id}", s.handleUpdateSubject)
			r.Delete("/subjects/{id}", s.handleDeleteSubject)
			r.Get("/subjects/template.csv", s.handleSubjectTemplate)
			r.Post("/subjects/import", s.handleImportSubjects)
			r.Post("/subjects/bulk-delete", s.handleBulkDeleteSubjects)

			r.Get("/allocation", s.handleListAllocation)
			r.Post("/allocation", s.handleCreateAllocation)
			r.Put("/allocation/{id}", s.handleUpdateAllocation)
			r.Delete("/allocation/{id}", s.handleDeleteAllocation)
			r.Post("/allocation/bulk-delete", s.handleBulkDeleteAllocation)

			r.Get("/timetable", s.handleListTimetable)
			r.Post("/timetable", s.handleCreateTimetable)
			r.Put("/timetable/{id}", s.handleUpdateTimetable)
			r.Delete("/timetable/{id}", s.handleDeleteTimetable)
			r.Post("/timetable/bulk-delete", s.handleBulkDeleteTimetable)

			r.Get("/settings", s.handleGetSettings)
			r.Put("/settings/locations", s.handlePutLocations)
			r.Put("/settings/school", s.handlePutSchool)

			r.With(s.requireSuperAdmin).Get("/users", s.handleListUsers)
			r.With(s.requireSuperAdmin).Post("/users", s.handleCreateUser)
			r.With(s.requireSuperAdmin).Delete("/users/{id}", s.handleDeleteUser)
		})
	})

	return r
}

// Auth

type claimsKey struct{}

const revokedKeyPrefix = "pdp:revoked:"

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}
		claims, err := auth.ParseToken(s.cfg.JWTSecret, token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		if s.redis != nil && claims.ID != "" {
			revoked, err := s.redis.Exists(r.Context(), revokedKeyPrefix+claims.ID).Result()
			if err != nil {
				log.Printf("revocation lookup error: %v", err)
			} else if revoked > 0 {
				writeError(w, http.StatusUnauthorized, "revoked_token")
				return
			}
		}
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireSuperAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		if claims == nil || !claims.IsSuperAdmin() {
			writeError(w, http.StatusForbidden, "superadmin_only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func claimsFromContext(ctx context.Context) *auth.Claims {
	value := ctx.Value(claimsKey{})
	claims, _ := value.(*auth.Claims)
	return claims
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Helpers

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func writeMessage(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}

// writeOperationError maps operation failures to responses. Anything that is
// not an *operations.Error is logged and reported as a server error.
func writeOperationError(w http.ResponseWriter, err error) {
	var opErr *operations.Error
	if !errors.As(err, &opErr) {
		if db.IsUniqueViolation(err) {
			writeError(w, http.StatusConflict, "already_exists")
			return
		}
		log.Printf("operation error: %v", err)
		writeError(w, http.StatusInternalServerError, operations.ErrServerError)
		return
	}
	status := http.StatusBadRequest
	switch opErr.Code {
	case operations.ErrInvalidToken:
		status = http.StatusNotFound
	case operations.ErrPhotoTooLarge:
		status = http.StatusRequestEntityTooLarge
	case operations.ErrStorage, operations.ErrServerError:
		status = http.StatusInternalServerError
	}
	writeMessage(w, status, opErr.Code, opErr.Message())
}

// writeStoreError handles the usual outcomes of a single-row query.
func writeStoreError(w http.ResponseWriter, err error, notFound string) {
	switch {
	case db.IsNotFound(err):
		writeError(w, http.StatusNotFound, notFound)
	case db.IsUniqueViolation(err):
		writeError(w, http.StatusConflict, "already_exists")
	default:
		log.Printf("store error: %v", err)
		writeError(w, http.StatusInternalServerError, "server_error")
	}
}

func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func queryInt64(r *http.Request, key string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(r.URL.Query().Get(key)), 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
