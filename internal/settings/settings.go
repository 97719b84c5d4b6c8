// Package settings persists the school name and geofence locations in a
// versioned JSON file. The file is read again on every Load so edits made
// by another process are never served stale.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/simdigmanuda/pdp.sim/internal/config"
	"github.com/simdigmanuda/pdp.sim/internal/geofence"
)

var ErrNoValidLocation = errors.New("at least one valid location is required")

type Settings struct {
	Version    int                 `json:"version"`
	SchoolName string              `json:"schoolName"`
	Locations  []geofence.Location `json:"locations"`
	UpdatedAt  *time.Time          `json:"updatedAt,omitempty"`
}

type Store struct {
	path     string
	fallback config.SchoolFallback
	mu       sync.Mutex
}

func NewStore(path string, fallback config.SchoolFallback) *Store {
	return &Store{path: path, fallback: fallback}
}

// Load reads the settings file. A missing file yields the environment
// fallback at version 0.
func (s *Store) Load() (Settings, error) {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return s.fromFallback(), nil
	}

	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}

	out := Settings{
		Version:    v.GetInt("version"),
		SchoolName: strings.TrimSpace(v.GetString("schoolName")),
	}
	if out.SchoolName == "" {
		out.SchoolName = strings.TrimSpace(v.GetString("namaSekolah"))
	}
	if ts := v.GetTime("updatedAt"); !ts.IsZero() {
		out.UpdatedAt = &ts
	}

	switch {
	case v.IsSet("locations"):
		var raw []map[string]interface{}
		if err := v.UnmarshalKey("locations", &raw); err != nil {
			return Settings{}, fmt.Errorf("decode locations: %w", err)
		}
		locs := make([]geofence.Location, 0, len(raw))
		for _, item := range raw {
			locs = append(locs, geofence.Location{
				Name:         strings.TrimSpace(fmt.Sprint(valueOr(item["name"], ""))),
				Lat:          toFloat(item["lat"]),
				Lng:          toFloat(item["lng"]),
				RadiusMeters: toFloat(item["radius"]),
			})
		}
		out.Locations = Sanitize(locs)
	case v.IsSet("lat") && v.IsSet("lng") && v.IsSet("radius"):
		out.Locations = Sanitize([]geofence.Location{{
			Lat:          v.GetFloat64("lat"),
			Lng:          v.GetFloat64("lng"),
			RadiusMeters: v.GetFloat64("radius"),
		}})
	}
	return out, nil
}

func (s *Store) fromFallback() Settings {
	out := Settings{SchoolName: strings.TrimSpace(s.fallback.Name)}
	out.Locations = Sanitize([]geofence.Location{{
		Lat:          s.fallback.Lat,
		Lng:          s.fallback.Lng,
		RadiusMeters: s.fallback.RadiusMeters,
	}})
	return out
}

// SaveLocations replaces the location list. Invalid entries are dropped and
// at least one valid entry must remain.
func (s *Store) SaveLocations(locations []geofence.Location) (Settings, error) {
	clean := Sanitize(locations)
	if len(clean) == 0 {
		return Settings{}, ErrNoValidLocation
	}
	return s.update(func(cur *Settings) {
		cur.Locations = clean
	})
}

// SaveSchoolName keeps the previous name when name is blank.
func (s *Store) SaveSchoolName(name string) (Settings, error) {
	return s.update(func(cur *Settings) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			cur.SchoolName = trimmed
		}
	})
}

func (s *Store) update(apply func(*Settings)) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.Load()
	if err != nil {
		return Settings{}, err
	}
	apply(&cur)
	cur.Version++
	now := time.Now().UTC()
	cur.UpdatedAt = &now
	if cur.Locations == nil {
		cur.Locations = []geofence.Location{}
	}
	if err := s.write(cur); err != nil {
		return Settings{}, err
	}
	return cur, nil
}

func (s *Store) write(cur Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	data, err := json.MarshalIndent(cur, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".settings-*.json")
	if err != nil {
		return fmt.Errorf("create temp settings: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Sanitize drops locations with non-finite coordinates or a radius that is
// not positive, and names unnamed ones after their input position.
func Sanitize(locations []geofence.Location) []geofence.Location {
	out := make([]geofence.Location, 0, len(locations))
	for i, loc := range locations {
		if !finite(loc.Lat) || !finite(loc.Lng) || !finite(loc.RadiusMeters) || loc.RadiusMeters <= 0 {
			continue
		}
		loc.Name = strings.TrimSpace(loc.Name)
		if loc.Name == "" {
			loc.Name = fmt.Sprintf("Lokasi %d", i+1)
		}
		out = append(out, loc)
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func valueOr(v interface{}, fallback interface{}) interface{} {
	if v == nil {
		return fallback
	}
	return v
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}
