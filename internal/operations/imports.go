package operations

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"log"
	"strings"

	"github.com/simdigmanuda/pdp.sim/internal/crypto"
	"github.com/simdigmanuda/pdp.sim/internal/db"
	"github.com/simdigmanuda/pdp.sim/internal/report"
)

type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

type TeacherCreator interface {
	CreateTeacher(ctx context.Context, arg db.CreateTeacherParams) (db.Teacher, error)
}

type SubjectCreator interface {
	CreateSubject(ctx context.Context, name, code string) (db.Subject, error)
}

// TeacherTemplate is the sample file offered for the teacher import.
func TeacherTemplate() report.Table {
	return report.Table{
		Sheet:   "Guru",
		Headers: []string{"nama", "nip"},
		Records: [][]any{
			{"Budi Santoso", "198001012005011001"},
			{"Siti Aminah", "198502142010012002"},
			{"Ahmad Fauzi", ""},
			{"Dewi Lestari", ""},
		},
	}
}

// SubjectTemplate is the sample file offered for the subject import.
func SubjectTemplate() report.Table {
	return report.Table{
		Sheet:   "Mapel",
		Headers: []string{"nama", "kode"},
		Records: [][]any{
			{"Matematika", "MAT"},
			{"Bahasa Indonesia", "BIN"},
			{"Fisika", "FIS"},
			{"Biologi", "BIO"},
			{"Bahasa Inggris", "ENG"},
		},
	}
}

// ImportTeachers creates one active teacher with a fresh upload token per
// row. Rows without a name and rows that clash with an existing teacher are
// skipped.
func ImportTeachers(ctx context.Context, w TeacherCreator, r io.Reader) (ImportResult, error) {
	rows, err := readImport(r, "nama", "nip")
	if err != nil {
		return ImportResult{}, err
	}
	var res ImportResult
	for _, row := range rows {
		if row[0] == "" {
			res.Skipped++
			continue
		}
		token, err := crypto.NewUploadToken()
		if err != nil {
			return res, err
		}
		_, err = w.CreateTeacher(ctx, db.CreateTeacherParams{
			Name:        row[0],
			NIP:         row[1],
			UploadToken: token,
			Active:      true,
		})
		switch {
		case err == nil:
			res.Imported++
		case db.IsUniqueViolation(err):
			res.Skipped++
		default:
			log.Printf("import teacher %q: %v", row[0], err)
			res.Failed++
		}
	}
	return res, nil
}

// ImportSubjects creates one subject per row. Duplicate names are skipped.
func ImportSubjects(ctx context.Context, w SubjectCreator, r io.Reader) (ImportResult, error) {
	rows, err := readImport(r, "nama", "kode")
	if err != nil {
		return ImportResult{}, err
	}
	var res ImportResult
	for _, row := range rows {
		if row[0] == "" {
			res.Skipped++
			continue
		}
		_, err := w.CreateSubject(ctx, row[0], row[1])
		switch {
		case err == nil:
			res.Imported++
		case db.IsUniqueViolation(err):
			res.Skipped++
		default:
			log.Printf("import subject %q: %v", row[0], err)
			res.Failed++
		}
	}
	return res, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readImport parses an uploaded CSV into rows holding one trimmed value per
// requested column. A leading BOM is dropped and ';' separates fields when
// the first line has more of them than commas. A first row naming none of
// the columns is data, read in column order.
func readImport(r io.Reader, columns ...string) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &Error{Code: ErrInvalidCSV}
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	first := data
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		first = data[:i]
	}
	cr := csv.NewReader(bytes.NewReader(data))
	if bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		cr.Comma = ';'
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, &Error{Code: ErrInvalidCSV}
	}
	if len(records) == 0 {
		return nil, nil
	}

	index := make([]int, len(columns))
	hasHeader := false
	for i, col := range columns {
		index[i] = -1
		for j, name := range records[0] {
			if strings.EqualFold(strings.TrimSpace(name), col) {
				index[i] = j
				hasHeader = true
				break
			}
		}
	}
	if hasHeader {
		records = records[1:]
	} else {
		for i := range index {
			index[i] = i
		}
	}

	out := make([][]string, 0, len(records))
	for _, rec := range records {
		row := make([]string, len(columns))
		blank := true
		for i, j := range index {
			if j >= 0 && j < len(rec) {
				row[i] = strings.TrimSpace(rec[j])
			}
			if row[i] != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}
