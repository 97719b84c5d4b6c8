package http

import (
	"log"
	"net/http"
	"strings"

	"github.com/simdigmanuda/pdp.sim/internal/auth"
	"github.com/simdigmanuda/pdp.sim/internal/crypto"
	"github.com/simdigmanuda/pdp.sim/internal/db"
)

type loginRequest struct {
	Username string `json:"username" validate:"required,notblank"`
	Password string `json:"password" validate:"required"`
}

type adminSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type loginResponse struct {
	AccessToken string       `json:"accessToken"`
	User        adminSummary `json:"user"`
}

func summarizeAdmin(u db.AdminUser) adminSummary {
	return adminSummary{ID: u.ID, Username: u.Username, Name: u.Name, Role: u.Role}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	user, err := s.store.Queries.GetAdminUserByUsername(r.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		if db.IsNotFound(err) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials")
			return
		}
		writeStoreError(w, err, "")
		return
	}
	if err := crypto.CheckPassword(user.PasswordHash, req.Password); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}
	token, err := auth.NewAccessToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.AccessTokenTTL, auth.Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{AccessToken: token, User: summarizeAdmin(user)})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	if s.redis != nil && claims.ID != "" {
		if ttl := claims.Remaining(s.now()); ttl > 0 {
			if err := s.redis.Set(r.Context(), revokedKeyPrefix+claims.ID, "1", ttl).Err(); err != nil {
				log.Printf("token revoke error: %v", err)
				writeError(w, http.StatusInternalServerError, "server_error")
				return
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	user, err := s.store.Queries.GetAdminUser(r.Context(), claims.UserID)
	if err != nil {
		writeStoreError(w, err, "user_not_found")
		return
	}
	writeJSON(w, http.StatusOK, summarizeAdmin(user))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,nefield=CurrentPassword"`
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	claims := claimsFromContext(r.Context())
	user, err := s.store.Queries.GetAdminUser(r.Context(), claims.UserID)
	if err != nil {
		writeStoreError(w, err, "user_not_found")
		return
	}
	if err := crypto.CheckPassword(user.PasswordHash, req.CurrentPassword); err != nil {
		writeError(w, http.StatusBadRequest, "wrong_password")
		return
	}
	hash, err := crypto.HashPassword(req.NewPassword)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if err := s.store.Queries.UpdateAdminPassword(r.Context(), user.ID, hash); err != nil {
		writeStoreError(w, err, "user_not_found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createUserRequest struct {
	Username string `json:"username" validate:"required,notblank,max=64"`
	Name     string `json:"name" validate:"max=120"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=admin superadmin"`
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.Queries.ListAdminUsers(r.Context())
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	items := make([]adminSummary, 0, len(users))
	for _, u := range users {
		items = append(items, summarizeAdmin(u))
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.Role == "" {
		req.Role = auth.RoleAdmin
	}
	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	user, err := s.store.Queries.CreateAdminUser(r.Context(), db.CreateAdminUserParams{
		Username:     strings.TrimSpace(req.Username),
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		Role:         req.Role,
	})
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, summarizeAdmin(user))
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	if claims := claimsFromContext(r.Context()); claims != nil && claims.UserID == id {
		writeError(w, http.StatusBadRequest, "cannot_delete_self")
		return
	}
	deleted, err := s.store.Queries.DeleteAdminUser(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "user_not_found")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "user_not_found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
