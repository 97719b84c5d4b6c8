package http

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/simdigmanuda/pdp.sim/internal/crypto"
	"github.com/simdigmanuda/pdp.sim/internal/db"
)

func sortedItems(m map[int64]string) []namedItem {
	items := make([]namedItem, 0, len(m))
	for id, name := range m {
		items = append(items, namedItem{ID: id, Name: name})
	}
	sort.Slice(items, func(i, j int) bool {
		if a, b := strings.ToLower(items[i].Name), strings.ToLower(items[j].Name); a != b {
			return a < b
		}
		return items[i].ID < items[j].ID
	})
	return items
}

// Teachers

type teacherResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	NIP       string `json:"nip"`
	Active    bool   `json:"active"`
	Token     string `json:"token"`
	UploadURL string `json:"uploadUrl"`
}

type teacherRequest struct {
	Name   string `json:"name" validate:"required,notblank,max=120"`
	NIP    string `json:"nip" validate:"max=40"`
	Active *bool  `json:"active"`
}

func (s *Server) teacherResponse(r *http.Request, t db.Teacher) teacherResponse {
	return teacherResponse{
		ID:        t.ID,
		Name:      t.Name,
		NIP:       t.NIP,
		Active:    t.Active,
		Token:     t.UploadToken,
		UploadURL: s.baseURL(r) + "/u/" + t.UploadToken,
	}
}

func (s *Server) handleListTeachers(w http.ResponseWriter, r *http.Request) {
	teachers, err := s.store.Queries.ListTeachers(r.Context())
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	items := make([]teacherResponse, 0, len(teachers))
	for _, t := range teachers {
		items = append(items, s.teacherResponse(r, t))
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateTeacher(w http.ResponseWriter, r *http.Request) {
	var req teacherRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	token, err := crypto.NewUploadToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	teacher, err := s.store.Queries.CreateTeacher(r.Context(), db.CreateTeacherParams{
		Name:        strings.TrimSpace(req.Name),
		NIP:         strings.TrimSpace(req.NIP),
		UploadToken: token,
		Active:      active,
	})
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, s.teacherResponse(r, teacher))
}

func (s *Server) handleUpdateTeacher(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	var req teacherRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	current, err := s.store.Queries.GetTeacher(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "teacher_not_found")
		return
	}
	active := current.Active
	if req.Active != nil {
		active = *req.Active
	}
	teacher, err := s.store.Queries.UpdateTeacher(r.Context(), db.UpdateTeacherParams{
		ID:     id,
		Name:   strings.TrimSpace(req.Name),
		NIP:    strings.TrimSpace(req.NIP),
		Active: active,
	})
	if err != nil {
		writeStoreError(w, err, "teacher_not_found")
		return
	}
	writeJSON(w, http.StatusOK, s.teacherResponse(r, teacher))
}

func (s *Server) handleRotateTeacherToken(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	token, err := crypto.NewUploadToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}
	teacher, err := s.store.Queries.RotateTeacherToken(r.Context(), id, token)
	if err != nil {
		writeStoreError(w, err, "teacher_not_found")
		return
	}
	writeJSON(w, http.StatusOK, s.teacherResponse(r, teacher))
}

func (s *Server) handleDeleteTeacher(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, s.store.Queries.DeleteTeacher, "teacher_not_found")
}

func (s *Server) deleteByID(w http.ResponseWriter, r *http.Request, del func(context.Context, int64) (bool, error), notFound string) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	deleted, err := del(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, notFound)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, notFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Classes

type classRequest struct {
	Name  string `json:"name" validate:"required,notblank,max=60"`
	Grade string `json:"grade" validate:"max=20"`
}

type classResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Grade string `json:"grade"`
}

func (s *Server) handleListClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := s.store.Queries.ListClasses(r.Context())
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	items := make([]classResponse, 0, len(classes))
	for _, c := range classes {
		items = append(items, classResponse{ID: c.ID, Name: c.Name, Grade: c.Grade})
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateClass(w http.ResponseWriter, r *http.Request) {
	var req classRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	c, err := s.store.Queries.CreateClass(r.Context(), strings.TrimSpace(req.Name), strings.TrimSpace(req.Grade))
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, classResponse{ID: c.ID, Name: c.Name, Grade: c.Grade})
}

func (s *Server) handleUpdateClass(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	var req classRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	c, err := s.store.Queries.UpdateClass(r.Context(), id, strings.TrimSpace(req.Name), strings.TrimSpace(req.Grade))
	if err != nil {
		writeStoreError(w, err, "class_not_found")
		return
	}
	writeJSON(w, http.StatusOK, classResponse{ID: c.ID, Name: c.Name, Grade: c.Grade})
}

func (s *Server) handleDeleteClass(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, s.store.Queries.DeleteClass, "class_not_found")
}

// Subjects

type subjectRequest struct {
	Name string `json:"name" validate:"required,notblank,max=120"`
	Code string `json:"code" validate:"max=20"`
}

type subjectResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

func (s *Server) handleListSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := s.store.Queries.ListSubjects(r.Context())
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	items := make([]subjectResponse, 0, len(subjects))
	for _, sub := range subjects {
		items = append(items, subjectResponse{ID: sub.ID, Name: sub.Name, Code: sub.Code})
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateSubject(w http.ResponseWriter, r *http.Request) {
	var req subjectRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	sub, err := s.store.Queries.CreateSubject(r.Context(), strings.TrimSpace(req.Name), strings.TrimSpace(req.Code))
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, subjectResponse{ID: sub.ID, Name: sub.Name, Code: sub.Code})
}

func (s *Server) handleUpdateSubject(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	var req subjectRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	sub, err := s.store.Queries.UpdateSubject(r.Context(), id, strings.TrimSpace(req.Name), strings.TrimSpace(req.Code))
	if err != nil {
		writeStoreError(w, err, "subject_not_found")
		return
	}
	writeJSON(w, http.StatusOK, subjectResponse{ID: sub.ID, Name: sub.Name, Code: sub.Code})
}

func (s *Server) handleDeleteSubject(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, s.store.Queries.DeleteSubject, "subject_not_found")
}
