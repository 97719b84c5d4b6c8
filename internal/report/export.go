package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Table is a header row plus records, the shape both exports share.
type Table struct {
	Sheet   string
	Headers []string
	Records [][]any
}

const timeLayout = "02/01/2006 15.04.05"

func optionalFloat(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func absoluteURL(baseURL, path string) string {
	if path == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + path
}

// RowsTable renders report rows. Photo links are made absolute with baseURL.
func RowsTable(mode Mode, rows []Row, baseURL string, loc *time.Location) Table {
	if loc == nil {
		loc = time.Local
	}
	t := Table{Sheet: "Valid", Headers: []string{"Waktu", "Nama Guru", "Mapel", "Kelas", "Jam Dikirim"}}
	if mode == ModeInvalid {
		t.Sheet = "Tidak Sesuai"
		t.Headers = append(t.Headers, "Alasan")
	}
	t.Headers = append(t.Headers, "Lokasi", "Latitude", "Longitude", "Foto URL")
	for _, r := range rows {
		rec := []any{r.Time.In(loc).Format(timeLayout), r.Teacher, r.Subject, r.Class, r.Periods}
		if mode == ModeInvalid {
			rec = append(rec, r.Reasons)
		}
		rec = append(rec,
			LocationLabel(r.LocationValid),
			optionalFloat(r.Latitude),
			optionalFloat(r.Longitude),
			absoluteURL(baseURL, r.PhotoURL),
		)
		t.Records = append(t.Records, rec)
	}
	return t
}

// RecapTable renders recap rows.
func RecapTable(rows []RecapRow, loc *time.Location) Table {
	if loc == nil {
		loc = time.Local
	}
	t := Table{
		Sheet:   "Rekap",
		Headers: []string{"Tanggal", "Hari", "Nama Guru", "Mapel", "Kelas", "Jam Ke", "Jumlah Jam", "Status", "Waktu Kirim", "Foto", "Lokasi"},
	}
	for _, r := range rows {
		sent := ""
		if r.Time != nil {
			sent = r.Time.In(loc).Format(timeLayout)
		}
		t.Records = append(t.Records, []any{
			r.Date, r.DayLabel, r.Teacher, r.Subject, r.Class, r.Periods, r.PeriodCount,
			r.Status, sent, r.PhotoStatus, r.LocationValid,
		})
	}
	return t
}

// WriteCSV writes the table with CRLF line endings.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.Write(t.Headers); err != nil {
		return err
	}
	for _, rec := range t.Records {
		line := make([]string, len(rec))
		for i, v := range rec {
			line[i] = fmt.Sprint(v)
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the table as a single-sheet workbook.
func WriteXLSX(w io.Writer, t Table) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()
	sheet := t.Sheet
	if sheet == "" {
		sheet = "Sheet1"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	header := make([]any, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if len(t.Headers) > 0 {
		last, err := excelize.CoordinatesToCellName(len(t.Headers), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
			return err
		}
		lastCol, err := excelize.ColumnNumberToName(len(t.Headers))
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
			return err
		}
	}

	for i, rec := range t.Records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := rec
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	_, err = f.WriteTo(w)
	return err
}
