package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/simdigmanuda/pdp.sim/internal/db"
	"github.com/simdigmanuda/pdp.sim/internal/operations"
	"github.com/simdigmanuda/pdp.sim/internal/period"
	"github.com/simdigmanuda/pdp.sim/internal/report"
	"github.com/simdigmanuda/pdp.sim/internal/schedule"
)

// parseClock turns "HH:MM" into minutes after midnight. "24:00" is accepted
// as the end of the day.
func parseClock(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "24:00" {
		return 24 * 60, nil
	}
	t, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", raw)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Allocation

type allocationResponse struct {
	ID       int64  `json:"id"`
	Day      int    `json:"day"`
	DayLabel string `json:"dayLabel"`
	Period   *int   `json:"period"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Note     string `json:"note"`
}

func allocationItem(s db.AllocationSlot) allocationResponse {
	return allocationResponse{
		ID:       s.ID,
		Day:      s.Day,
		DayLabel: report.DayLabel(s.Day),
		Period:   s.Period,
		Start:    report.ClockLabel(s.StartMinute),
		End:      report.ClockLabel(s.EndMinute),
		Note:     s.Note,
	}
}

type createAllocationRequest struct {
	Days   []int  `json:"days" validate:"required,min=1,dive,min=0,max=6"`
	Period *int   `json:"period" validate:"omitempty,min=1,max=12"`
	Start  string `json:"start" validate:"required"`
	End    string `json:"end" validate:"required"`
	Note   string `json:"note" validate:"max=120"`
}

type updateAllocationRequest struct {
	Day    int    `json:"day" validate:"min=0,max=6"`
	Period *int   `json:"period" validate:"omitempty,min=1,max=12"`
	Start  string `json:"start" validate:"required"`
	End    string `json:"end" validate:"required"`
	Note   string `json:"note" validate:"max=120"`
}

func clockRange(start, end string) (int, int, error) {
	from, err := parseClock(start)
	if err != nil {
		return 0, 0, &operations.Error{Code: operations.ErrInvalidTimeRange}
	}
	to, err := parseClock(end)
	if err != nil {
		return 0, 0, &operations.Error{Code: operations.ErrInvalidTimeRange}
	}
	return from, to, nil
}

func (s *Server) handleListAllocation(w http.ResponseWriter, r *http.Request) {
	var (
		slots []db.AllocationSlot
		err   error
	)
	if day := queryInt(r, "day", -1); day >= 0 && day <= 6 {
		slots, err = s.store.Queries.ListAllocationSlotsByDay(r.Context(), day)
	} else {
		slots, err = s.store.Queries.ListAllocationSlots(r.Context())
	}
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	items := make([]allocationResponse, 0, len(slots))
	for _, slot := range slots {
		items = append(items, allocationItem(slot))
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateAllocation(w http.ResponseWriter, r *http.Request) {
	var req createAllocationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	start, end, err := clockRange(req.Start, req.End)
	if err != nil {
		writeOperationError(w, err)
		return
	}
	res, err := operations.CreateAllocation(r.Context(), s.store.Queries, operations.AllocationInput{
		Days:        req.Days,
		Period:      req.Period,
		StartMinute: start,
		EndMinute:   end,
		Note:        strings.TrimSpace(req.Note),
	})
	if err != nil {
		writeOperationError(w, err)
		return
	}
	created := make([]allocationResponse, 0, len(res.Created))
	for _, slot := range res.Created {
		created = append(created, allocationItem(slot))
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"created":     created,
		"skippedDays": res.Skipped,
	})
}

func (s *Server) handleUpdateAllocation(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	var req updateAllocationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	start, end, err := clockRange(req.Start, req.End)
	if err == nil {
		err = operations.ValidateSlot(req.Day, req.Period, start, end)
	}
	if err != nil {
		writeOperationError(w, err)
		return
	}
	slot, err := s.store.Queries.UpdateAllocationSlot(r.Context(), id, db.AllocationSlotParams{
		Day:         req.Day,
		Period:      req.Period,
		StartMinute: start,
		EndMinute:   end,
		Note:        strings.TrimSpace(req.Note),
	})
	if err != nil {
		writeStoreError(w, err, "slot_not_found")
		return
	}
	writeJSON(w, http.StatusOK, allocationItem(slot))
}

func (s *Server) handleDeleteAllocation(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, s.store.Queries.DeleteAllocationSlot, "slot_not_found")
}

// Timetable

type timetableResponse struct {
	ID        int64  `json:"id"`
	TeacherID int64  `json:"teacherId"`
	SubjectID int64  `json:"subjectId"`
	ClassID   int64  `json:"classId"`
	Teacher   string `json:"teacher"`
	Subject   string `json:"subject"`
	Class     string `json:"class"`
	Day       int    `json:"day"`
	DayLabel  string `json:"dayLabel"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Period    int    `json:"period"`
	Periods   []int  `json:"periods"`
}

type createTimetableRequest struct {
	TeacherID int64 `json:"teacherId" validate:"required,gt=0"`
	SubjectID int64 `json:"subjectId" validate:"required,gt=0"`
	ClassID   int64 `json:"classId" validate:"required,gt=0"`
	Day       int   `json:"day" validate:"min=0,max=6"`
	Periods   []int `json:"periods" validate:"required,min=1,dive,min=1,max=12"`
}

type updateTimetableRequest struct {
	TeacherID int64  `json:"teacherId" validate:"required,gt=0"`
	SubjectID int64  `json:"subjectId" validate:"required,gt=0"`
	ClassID   int64  `json:"classId" validate:"required,gt=0"`
	Day       int    `json:"day" validate:"min=0,max=6"`
	Start     string `json:"start" validate:"required"`
	End       string `json:"end" validate:"required"`
}

func (s *Server) handleListTimetable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	labels, err := operations.LoadLabels(ctx, s.store.Queries)
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	slots, err := s.store.Queries.ListAllocationSlots(ctx)
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	entries, err := s.store.Queries.ListTimetableEntries(ctx)
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	converted := make([]schedule.AllocationSlot, 0, len(slots))
	for _, slot := range slots {
		converted = append(converted, slot.Schedule())
	}
	alloc := schedule.NewAllocation(converted)
	timetable := make([]schedule.TimetableEntry, 0, len(entries))
	for _, e := range entries {
		timetable = append(timetable, e.Schedule())
	}
	numbers := alloc.EntryPeriods(timetable)

	day := queryInt(r, "day", -1)
	teacherID := queryInt64(r, "teacherId")
	items := make([]timetableResponse, 0, len(entries))
	for i, e := range entries {
		if day >= 0 && day <= 6 && e.Day != day {
			continue
		}
		if teacherID > 0 && e.TeacherID != teacherID {
			continue
		}
		var covered []int
		for _, p := range alloc.PeriodsForDay(e.Day) {
			if schedule.Overlaps(p.StartMinute, p.EndMinute, e.StartMinute, e.EndMinute) {
				covered = append(covered, p.Period)
			}
		}
		items = append(items, timetableResponse{
			ID:        e.ID,
			TeacherID: e.TeacherID,
			SubjectID: e.SubjectID,
			ClassID:   e.ClassID,
			Teacher:   labels.Teacher(e.TeacherID),
			Subject:   labels.Subject(e.SubjectID),
			Class:     labels.Class(e.ClassID),
			Day:       e.Day,
			DayLabel:  report.DayLabel(e.Day),
			Start:     report.ClockLabel(e.StartMinute),
			End:       report.ClockLabel(e.EndMinute),
			Period:    numbers[i],
			Periods:   period.Of(covered...).Ints(),
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateTimetable(w http.ResponseWriter, r *http.Request) {
	var req createTimetableRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	res, err := operations.CreateTimetable(r.Context(), s.store.Queries, operations.TimetableInput{
		TeacherID: req.TeacherID,
		SubjectID: req.SubjectID,
		ClassID:   req.ClassID,
		Day:       req.Day,
		Periods:   period.Of(req.Periods...),
	})
	if err != nil {
		writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"created":        len(res.Created),
		"skipped":        res.Skipped,
		"missing":        len(res.Missing),
		"missingPeriods": res.Missing,
	})
}

func (s *Server) handleUpdateTimetable(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	var req updateTimetableRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	start, end, err := clockRange(req.Start, req.End)
	if err == nil && end <= start {
		err = &operations.Error{Code: operations.ErrInvalidTimeRange}
	}
	if err != nil {
		writeOperationError(w, err)
		return
	}
	entry, err := s.store.Queries.UpdateTimetableEntry(r.Context(), id, db.TimetableEntryParams{
		TeacherID:   req.TeacherID,
		SubjectID:   req.SubjectID,
		ClassID:     req.ClassID,
		Day:         req.Day,
		StartMinute: start,
		EndMinute:   end,
	})
	if err != nil {
		writeStoreError(w, err, "entry_not_found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"id": entry.ID})
}

func (s *Server) handleDeleteTimetable(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, s.store.Queries.DeleteTimetableEntry, "entry_not_found")
}
