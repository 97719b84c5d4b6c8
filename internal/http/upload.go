package http

import (
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/simdigmanuda/pdp.sim/internal/crypto"
	"github.com/simdigmanuda/pdp.sim/internal/db"
	"github.com/simdigmanuda/pdp.sim/internal/metrics"
	"github.com/simdigmanuda/pdp.sim/internal/operations"
	"github.com/simdigmanuda/pdp.sim/internal/period"
	"github.com/simdigmanuda/pdp.sim/internal/report"
	"github.com/simdigmanuda/pdp.sim/internal/schedule"
)

const (
	multipartMemory  = 1 << 20
	formFieldsBudget = 64 << 10
)

type namedItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type periodSlotResponse struct {
	Period int    `json:"period"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

type scheduledGroupResponse struct {
	ClassID   int64  `json:"classId"`
	SubjectID int64  `json:"subjectId"`
	Class     string `json:"class"`
	Subject   string `json:"subject"`
	Periods   []int  `json:"periods"`
}

type uploadPageResponse struct {
	Teacher  namedItem                `json:"teacher"`
	Date     string                   `json:"date"`
	Day      string                   `json:"day"`
	Subjects []namedItem              `json:"subjects"`
	Classes  []namedItem              `json:"classes"`
	Periods  []periodSlotResponse     `json:"periods"`
	Schedule []scheduledGroupResponse `json:"schedule"`
}

func (s *Server) teacherFromToken(w http.ResponseWriter, r *http.Request) (db.Teacher, bool) {
	token := strings.TrimSpace(chi.URLParam(r, "token"))
	if token == "" {
		writeOperationError(w, &operations.Error{Code: operations.ErrInvalidToken})
		return db.Teacher{}, false
	}
	teacher, err := s.store.Queries.GetTeacherByToken(r.Context(), token)
	if err != nil {
		if db.IsNotFound(err) {
			writeOperationError(w, &operations.Error{Code: operations.ErrInvalidToken})
			return db.Teacher{}, false
		}
		writeStoreError(w, err, "teacher_not_found")
		return db.Teacher{}, false
	}
	return teacher, true
}

func (s *Server) handleUploadPage(w http.ResponseWriter, r *http.Request) {
	teacher, ok := s.teacherFromToken(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	labels, err := operations.LoadLabels(ctx, s.store.Queries)
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	now := s.now().In(s.loc)
	day := int(now.Weekday())
	slots, err := s.store.Queries.ListAllocationSlotsByDay(ctx, day)
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	entries, err := s.store.Queries.ListTimetableEntriesByDay(ctx, day)
	if err != nil {
		writeStoreError(w, err, "")
		return
	}

	resp := uploadPageResponse{
		Teacher:  namedItem{ID: teacher.ID, Name: teacher.Name},
		Date:     now.Format("2006-01-02"),
		Day:      report.DayLabel(day),
		Subjects: sortedItems(labels.SubjectNames),
		Classes:  sortedItems(labels.Classes),
		Periods:  []periodSlotResponse{},
		Schedule: []scheduledGroupResponse{},
	}
	converted := make([]schedule.AllocationSlot, 0, len(slots))
	for _, slot := range slots {
		converted = append(converted, slot.Schedule())
	}
	alloc := schedule.NewAllocation(converted)
	for _, p := range alloc.PeriodsForDay(day) {
		resp.Periods = append(resp.Periods, periodSlotResponse{
			Period: p.Period,
			Start:  report.ClockLabel(p.StartMinute),
			End:    report.ClockLabel(p.EndMinute),
		})
	}
	var timetable []schedule.TimetableEntry
	for _, e := range entries {
		timetable = append(timetable, e.Schedule())
	}
	for _, g := range schedule.BuildDayFromAllocation(day, alloc, timetable).TeacherGroups(teacher.ID) {
		resp.Schedule = append(resp.Schedule, scheduledGroupResponse{
			ClassID:   g.ClassID,
			SubjectID: g.SubjectID,
			Class:     labels.Class(g.ClassID),
			Subject:   labels.Subject(g.SubjectID),
			Periods:   g.Periods.Ints(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type uploadForm struct {
	SubjectID string
	ClassID   string
	Periods   []string
	Latitude  string `form:"latitude" validate:"omitempty,latitude"`
	Longitude string `form:"longitude" validate:"omitempty,longitude"`
}

func readUploadForm(form *multipart.Form) uploadForm {
	first := func(key string) string {
		if values := form.Value[key]; len(values) > 0 {
			return strings.TrimSpace(values[0])
		}
		return ""
	}
	periods := append([]string{}, form.Value["jamKe"]...)
	periods = append(periods, form.Value["jamKe[]"]...)
	return uploadForm{
		SubjectID: first("mapelId"),
		ClassID:   first("kelasId"),
		Periods:   periods,
		Latitude:  first("latitude"),
		Longitude: first("longitude"),
	}
}

func (f uploadForm) input() operations.UploadInput {
	subjectID, _ := strconv.ParseInt(f.SubjectID, 10, 64)
	classID, _ := strconv.ParseInt(f.ClassID, 10, 64)
	return operations.UploadInput{
		SubjectID: subjectID,
		ClassID:   classID,
		Periods:   period.ParseValues(f.Periods),
		Latitude:  parseCoordinate(f.Latitude),
		Longitude: parseCoordinate(f.Longitude),
	}
}

// withValidCoordinates blanks coordinates that are not a valid latitude or
// longitude; the location then counts as unknown.
func (f uploadForm) withValidCoordinates() uploadForm {
	if fields := validationErrors(validate.Struct(f)); fields != nil {
		if _, bad := fields["latitude"]; bad {
			f.Latitude = ""
		}
		if _, bad := fields["longitude"]; bad {
			f.Longitude = ""
		}
	}
	if f.Latitude == "" || f.Longitude == "" {
		f.Latitude, f.Longitude = "", ""
	}
	return f
}

func parseCoordinate(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

// isImage trusts the part's declared type and falls back to sniffing when
// the client sent none.
func isImage(header *multipart.FileHeader, file multipart.File) bool {
	declared := strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))
	if declared != "" && declared != "application/octet-stream" {
		return strings.HasPrefix(declared, "image/")
	}
	buf := make([]byte, 512)
	n, _ := io.ReadFull(file, buf)
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return false
	}
	return strings.HasPrefix(http.DetectContentType(buf[:n]), "image/")
}

func (s *Server) rejectUpload(w http.ResponseWriter, result string, err error) {
	metrics.ObserveUpload(result, 0)
	writeOperationError(w, err)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	teacher, ok := s.teacherFromToken(w, r)
	if !ok {
		metrics.ObserveUpload("invalid_token", 0)
		return
	}

	allowed, err := s.limiter.Allow(r.Context(), crypto.HashToken(teacher.UploadToken))
	if err != nil {
		log.Printf("rate limit error: %v", err)
	}
	if !allowed {
		metrics.ObserveUpload("rate_limited", 0)
		writeMessage(w, http.StatusTooManyRequests, "rate_limited", "Terlalu banyak unggahan, coba lagi nanti")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.UploadMaxBytes+formFieldsBudget)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.rejectUpload(w, "too_large", &operations.Error{Code: operations.ErrPhotoTooLarge})
			return
		}
		s.rejectUpload(w, "invalid", &operations.Error{Code: operations.ErrMissingPhoto})
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("foto")
	if err != nil {
		s.rejectUpload(w, "invalid", &operations.Error{Code: operations.ErrMissingPhoto})
		return
	}
	defer file.Close()
	if header.Size > s.cfg.UploadMaxBytes {
		s.rejectUpload(w, "too_large", &operations.Error{Code: operations.ErrPhotoTooLarge})
		return
	}
	if !isImage(header, file) {
		s.rejectUpload(w, "invalid", &operations.Error{Code: operations.ErrNotImage})
		return
	}

	form := readUploadForm(r.MultipartForm).withValidCoordinates()

	current, err := s.settings.Load()
	if err != nil {
		log.Printf("settings load error: %v", err)
	}

	in := form.input()
	in.TeacherID = teacher.ID
	in.Ext = filepath.Ext(header.Filename)
	in.Photo = file
	in.Now = s.now()
	res, err := operations.Upload(r.Context(), s.store, s.photos, current.Locations, in)
	if err != nil {
		var opErr *operations.Error
		if errors.As(err, &opErr) {
			s.rejectUpload(w, "invalid", err)
			return
		}
		s.rejectUpload(w, "error", err)
		return
	}

	metrics.ObserveUpload("accepted", res.Size)
	if outcome, err := operations.ClassifyUpload(r.Context(), s.store.Queries, s.loc, in, res); err != nil {
		log.Printf("classify upload %s: %v", res.BatchID, err)
	} else {
		metrics.ObserveOutcomes(outcome.Outcome())
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":              true,
		"count":           len(res.Periods),
		"jamKe":           res.Periods.Ints(),
		"batchId":         res.BatchID,
		"locationValid":   res.LocationValid,
		"nearestLocation": res.Nearest,
		"distanceMeters":  res.DistanceMeters,
	})
}
