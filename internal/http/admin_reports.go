package http

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/simdigmanuda/pdp.sim/internal/operations"
	"github.com/simdigmanuda/pdp.sim/internal/report"
)

const (
	defaultPageSize = 10
	maxPageSize     = 500
	maxReportDays   = 366
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := operations.LoadDashboard(r.Context(), s.store.Queries, s.now(), s.loc)
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

// parseDate reads yyyy-MM-dd in loc.
func parseDate(raw string, loc *time.Location) (time.Time, bool) {
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(raw), loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func pageParams(r *http.Request) (int, int) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", defaultPageSize)
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

type realtimeResponse struct {
	Date    string               `json:"date"`
	Day     string               `json:"day"`
	Rows    []report.RealtimeRow `json:"rows"`
	Page    report.Page          `json:"pagination"`
	Invalid []report.Row         `json:"invalid"`
	Summary map[string]int       `json:"summary"`
}

func (s *Server) handleRealtime(w http.ResponseWriter, r *http.Request) {
	date := report.DateOf(s.now().In(s.loc))
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, ok := parseDate(raw, s.loc)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_date")
			return
		}
		date = parsed
	}
	ctx := r.Context()
	labels, err := operations.LoadLabels(ctx, s.store.Queries)
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	days, err := operations.LoadDays(ctx, s.store.Queries, date, date, s.loc, operations.Scope{})
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	day := days[0]

	rows := report.Realtime(day.Groups, day.Submissions, labels)
	invalid := report.RealtimeInvalid(day.Groups, day.Submissions, labels, s.loc)
	summary := map[string]int{"total": len(rows), report.StatusMatched: 0, report.StatusPending: 0, "invalid": len(invalid)}
	for _, row := range rows {
		summary[row.Status]++
	}

	q := r.URL.Query()
	rows = report.FilterRealtime(rows, q.Get("q"))
	report.SortRealtime(rows, q.Get("sort"), q.Get("order"))
	page, limit := pageParams(r)
	pageRows, info := report.Paginate(rows, page, limit)
	report.Number(pageRows, (info.Page-1)*info.Limit)

	writeJSON(w, http.StatusOK, realtimeResponse{
		Date:    date.Format("2006-01-02"),
		Day:     report.DayLabel(day.Weekday()),
		Rows:    pageRows,
		Page:    info,
		Invalid: report.FilterRows(invalid, q.Get("q")),
		Summary: summary,
	})
}

type reportQuery struct {
	Mode   report.Mode
	Start  time.Time
	End    time.Time
	Scope  operations.Scope
	Day    int
	Period int
	Search string
	Sort   string
	Order  string
}

func (s *Server) parseReportQuery(r *http.Request) (reportQuery, error) {
	q := r.URL.Query()
	today := report.DateOf(s.now().In(s.loc))
	out := reportQuery{
		Mode:   report.ParseMode(q.Get("mode")),
		Start:  today,
		End:    today,
		Day:    queryInt(r, "day", -1),
		Period: queryInt(r, "period", 0),
		Search: q.Get("q"),
		Sort:   q.Get("sort"),
		Order:  q.Get("order"),
		Scope: operations.Scope{
			TeacherID: queryInt64(r, "teacherId"),
			ClassID:   queryInt64(r, "classId"),
			SubjectID: queryInt64(r, "subjectId"),
		},
	}
	if raw := q.Get("date"); raw != "" {
		d, ok := parseDate(raw, s.loc)
		if !ok {
			return out, fmt.Errorf("invalid date %q", raw)
		}
		out.Start, out.End = d, d
	}
	if raw := q.Get("start"); raw != "" {
		d, ok := parseDate(raw, s.loc)
		if !ok {
			return out, fmt.Errorf("invalid start %q", raw)
		}
		out.Start = d
		if q.Get("end") == "" && q.Get("date") == "" {
			out.End = d
		}
	}
	if raw := q.Get("end"); raw != "" {
		d, ok := parseDate(raw, s.loc)
		if !ok {
			return out, fmt.Errorf("invalid end %q", raw)
		}
		out.End = d
	}
	if out.End.Before(out.Start) {
		out.Start, out.End = out.End, out.Start
	}
	if out.End.Sub(out.Start) > maxReportDays*24*time.Hour {
		return out, fmt.Errorf("range longer than %d days", maxReportDays)
	}
	if out.Day > 6 {
		out.Day = -1
	}
	return out, nil
}

type reportResult struct {
	Mode  report.Mode
	Rows  []report.Row
	Recap []report.RecapRow
}

func (s *Server) buildReport(ctx context.Context, rq reportQuery) (reportResult, error) {
	labels, err := operations.LoadLabels(ctx, s.store.Queries)
	if err != nil {
		return reportResult{}, err
	}
	scope := rq.Scope
	if rq.Mode == report.ModeRecap {
		// Recap rows come from the timetable; submissions are narrowed in memory.
		scope = operations.Scope{}
	}
	days, err := operations.LoadDays(ctx, s.store.Queries, rq.Start, rq.End, s.loc, scope)
	if err != nil {
		return reportResult{}, err
	}

	if rq.Mode == report.ModeRecap {
		rows := report.Recap(days, labels, report.RecapFilter{
			TeacherID: rq.Scope.TeacherID,
			ClassID:   rq.Scope.ClassID,
			Day:       rq.Day,
			Period:    rq.Period,
		})
		if rq.Scope.SubjectID > 0 {
			kept := rows[:0]
			for _, row := range rows {
				if row.SubjectID == rq.Scope.SubjectID {
					kept = append(kept, row)
				}
			}
			rows = kept
		}
		rows = report.FilterRecap(rows, rq.Search)
		report.SortRecap(rows, rq.Sort, rq.Order)
		return reportResult{Mode: rq.Mode, Recap: rows}, nil
	}

	rows := report.Aggregate(days, labels, rq.Mode)
	kept := rows[:0]
	for _, row := range rows {
		if rq.Day >= 0 && row.Day != rq.Day {
			continue
		}
		if rq.Period > 0 && !containsInt(row.PeriodList, rq.Period) {
			continue
		}
		kept = append(kept, row)
	}
	rows = report.FilterRows(kept, rq.Search)
	report.SortRows(rows, rq.Sort, rq.Order)
	return reportResult{Mode: rq.Mode, Rows: rows}, nil
}

func containsInt(values []int, target int) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	rq, err := s.parseReportQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query")
		return
	}
	result, err := s.buildReport(r.Context(), rq)
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	page, limit := pageParams(r)
	resp := map[string]interface{}{
		"mode":  result.Mode,
		"start": rq.Start.Format("2006-01-02"),
		"end":   rq.End.Format("2006-01-02"),
	}
	if result.Mode == report.ModeRecap {
		rows, info := report.Paginate(result.Recap, page, limit)
		resp["rows"], resp["pagination"] = rows, info
	} else {
		rows, info := report.Paginate(result.Rows, page, limit)
		resp["rows"], resp["pagination"] = rows, info
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) exportTable(w http.ResponseWriter, r *http.Request) (report.Table, string, bool) {
	rq, err := s.parseReportQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query")
		return report.Table{}, "", false
	}
	result, err := s.buildReport(r.Context(), rq)
	if err != nil {
		writeStoreError(w, err, "")
		return report.Table{}, "", false
	}
	name := fmt.Sprintf("laporan-%s-%s_%s", result.Mode, rq.Start.Format("20060102"), rq.End.Format("20060102"))
	if result.Mode == report.ModeRecap {
		return report.RecapTable(result.Recap, s.loc), name, true
	}
	return report.RowsTable(result.Mode, result.Rows, s.baseURL(r), s.loc), name, true
}

func (s *Server) baseURL(r *http.Request) string {
	if s.cfg.PublicBaseURL != "" {
		return s.cfg.PublicBaseURL
	}
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func (s *Server) handleReportsCSV(w http.ResponseWriter, r *http.Request) {
	table, name, ok := s.exportTable(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, table); err != nil {
		log.Printf("csv export error: %v", err)
		writeError(w, http.StatusInternalServerError, "export_error")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleReportsXLSX(w http.ResponseWriter, r *http.Request) {
	table, name, ok := s.exportTable(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, table); err != nil {
		log.Printf("xlsx export error: %v", err)
		writeError(w, http.StatusInternalServerError, "export_error")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

type deletePhotosRequest struct {
	BatchIDs []string `json:"batchIds" validate:"required,min=1,dive,uuid"`
}

func (s *Server) handleDeletePhotos(w http.ResponseWriter, r *http.Request) {
	var req deletePhotosRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	n, err := operations.DeletePhotos(r.Context(), s.store.Queries, s.photos, req.BatchIDs)
	if err != nil {
		writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}
