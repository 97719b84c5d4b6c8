package http

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/simdigmanuda/pdp.sim/internal/operations"
	"github.com/simdigmanuda/pdp.sim/internal/report"
	"github.com/simdigmanuda/pdp.sim/internal/storage"
)

const importMaxBytes = 2 << 20

// Bulk delete

type bulkDeleteRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1"`
}

func (s *Server) bulkDelete(w http.ResponseWriter, r *http.Request, del operations.BulkDeleter) {
	var req bulkDeleteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	n, err := operations.DeleteMany(r.Context(), del, req.IDs)
	if err != nil {
		writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func (s *Server) handleBulkDeleteTeachers(w http.ResponseWriter, r *http.Request) {
	s.bulkDelete(w, r, s.store.Queries.DeleteTeachers)
}

func (s *Server) handleBulkDeleteClasses(w http.ResponseWriter, r *http.Request) {
	s.bulkDelete(w, r, s.store.Queries.DeleteClasses)
}

func (s *Server) handleBulkDeleteSubjects(w http.ResponseWriter, r *http.Request) {
	s.bulkDelete(w, r, s.store.Queries.DeleteSubjects)
}

func (s *Server) handleBulkDeleteAllocation(w http.ResponseWriter, r *http.Request) {
	s.bulkDelete(w, r, s.store.Queries.DeleteAllocationSlots)
}

func (s *Server) handleBulkDeleteTimetable(w http.ResponseWriter, r *http.Request) {
	s.bulkDelete(w, r, s.store.Queries.DeleteTimetableEntries)
}

// CSV import

type importer func(ctx context.Context, file io.Reader) (operations.ImportResult, error)

func (s *Server) importCSV(w http.ResponseWriter, r *http.Request, run importer) {
	r.Body = http.MaxBytesReader(w, r.Body, importMaxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeOperationError(w, &operations.Error{Code: operations.ErrMissingFile})
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		writeOperationError(w, &operations.Error{Code: operations.ErrMissingFile})
		return
	}
	defer file.Close()

	res, err := run(r.Context(), file)
	if err != nil {
		writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleImportTeachers(w http.ResponseWriter, r *http.Request) {
	s.importCSV(w, r, func(ctx context.Context, file io.Reader) (operations.ImportResult, error) {
		return operations.ImportTeachers(ctx, s.store.Queries, file)
	})
}

func (s *Server) handleImportSubjects(w http.ResponseWriter, r *http.Request) {
	s.importCSV(w, r, func(ctx context.Context, file io.Reader) (operations.ImportResult, error) {
		return operations.ImportSubjects(ctx, s.store.Queries, file)
	})
}

func writeCSVTemplate(w http.ResponseWriter, t report.Table, name string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, name))
	w.WriteHeader(http.StatusOK)
	if err := report.WriteCSV(w, t); err != nil {
		log.Printf("template export error: %v", err)
	}
}

func (s *Server) handleTeacherTemplate(w http.ResponseWriter, r *http.Request) {
	writeCSVTemplate(w, operations.TeacherTemplate(), "template_guru")
}

func (s *Server) handleSubjectTemplate(w http.ResponseWriter, r *http.Request) {
	writeCSVTemplate(w, operations.SubjectTemplate(), "template_mapel")
}

// Gallery

type galleryItem struct {
	BatchID      string `json:"batchId"`
	TeacherID    int64  `json:"teacherId"`
	Teacher      string `json:"teacher"`
	Class        string `json:"class"`
	Subject      string `json:"subject"`
	Time         string `json:"time"`
	PhotoURL     string `json:"photoUrl"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request) {
	rq, err := s.parseReportQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query")
		return
	}
	batches, err := operations.LoadGallery(r.Context(), s.store.Queries, operations.GalleryFilter{
		Start:     rq.Start,
		End:       rq.End,
		TeacherID: rq.Scope.TeacherID,
		SubjectID: rq.Scope.SubjectID,
	})
	if err != nil {
		writeOperationError(w, err)
		return
	}
	labels, err := operations.LoadLabels(r.Context(), s.store.Queries)
	if err != nil {
		writeOperationError(w, err)
		return
	}

	items := make([]galleryItem, 0, len(batches))
	for _, b := range batches {
		items = append(items, galleryItem{
			BatchID:      b.IDString(),
			TeacherID:    b.TeacherID,
			Teacher:      labels.Teacher(b.TeacherID),
			Class:        labels.Class(b.ClassID),
			Subject:      labels.Subject(b.SubjectID),
			Time:         b.CreatedAt.In(s.loc).Format("2006-01-02 15:04"),
			PhotoURL:     storage.URL(*b.PhotoPath),
			ThumbnailURL: storage.URL(storage.ThumbnailPath(*b.PhotoPath)),
		})
	}
	writeJSON(w, http.StatusOK, items)
}
