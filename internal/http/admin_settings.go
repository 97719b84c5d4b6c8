package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/simdigmanuda/pdp.sim/internal/geofence"
	"github.com/simdigmanuda/pdp.sim/internal/operations"
	"github.com/simdigmanuda/pdp.sim/internal/settings"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	current, err := s.settings.Load()
	if err != nil {
		log.Printf("settings load error: %v", err)
		writeError(w, http.StatusInternalServerError, "settings_error")
		return
	}
	writeJSON(w, http.StatusOK, current)
}

type locationRequest struct {
	Name   string  `json:"name" validate:"max=120"`
	Lat    float64 `json:"lat" validate:"latitude"`
	Lng    float64 `json:"lng" validate:"longitude"`
	Radius float64 `json:"radius" validate:"gt=0"`
}

type locationsRequest struct {
	Locations []locationRequest `json:"locations" validate:"required,min=1,dive"`
}

func (s *Server) handlePutLocations(w http.ResponseWriter, r *http.Request) {
	var req locationsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	locs := make([]geofence.Location, 0, len(req.Locations))
	for _, l := range req.Locations {
		locs = append(locs, geofence.Location{Name: l.Name, Lat: l.Lat, Lng: l.Lng, RadiusMeters: l.Radius})
	}
	saved, err := s.settings.SaveLocations(locs)
	if err != nil {
		if errors.Is(err, settings.ErrNoValidLocation) {
			writeOperationError(w, &operations.Error{Code: operations.ErrNoValidLocation})
			return
		}
		log.Printf("settings save error: %v", err)
		writeError(w, http.StatusInternalServerError, "settings_error")
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

type schoolRequest struct {
	Name string `json:"schoolName" validate:"max=160"`
}

func (s *Server) handlePutSchool(w http.ResponseWriter, r *http.Request) {
	var req schoolRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	saved, err := s.settings.SaveSchoolName(req.Name)
	if err != nil {
		log.Printf("settings save error: %v", err)
		writeError(w, http.StatusInternalServerError, "settings_error")
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
