package operations

const (
	ErrInvalidToken     = "invalid_token"
	ErrMissingPhoto     = "missing_photo"
	ErrNotImage         = "not_image"
	ErrPhotoTooLarge    = "photo_too_large"
	ErrMissingSelection = "missing_subject_or_class"
	ErrMissingPeriod    = "missing_period"
	ErrUnknownReference = "unknown_subject_or_class"
	ErrInvalidDay       = "invalid_day"
	ErrInvalidPeriod    = "invalid_period"
	ErrInvalidTimeRange = "invalid_time_range"
	ErrNoValidLocation  = "no_valid_location"
	ErrInvalidBatchID   = "invalid_batch_id"
	ErrNothingToDelete  = "nothing_to_delete"
	ErrMissingFile      = "missing_file"
	ErrInvalidCSV       = "invalid_csv"
	ErrStorage          = "storage_error"
	ErrServerError      = "server_error"
)

// Messages are shown to teachers on the upload page.
var Messages = map[string]string{
	ErrInvalidToken:     "Link tidak valid",
	ErrMissingPhoto:     "File foto wajib ada",
	ErrNotImage:         "File bukan gambar",
	ErrPhotoTooLarge:    "Ukuran dokumen foto maksimal 3MB",
	ErrMissingSelection: "Mapel dan Kelas wajib dipilih",
	ErrMissingPeriod:    "Jam Mengajar wajib dipilih",
	ErrUnknownReference: "Mapel/Kelas tidak valid",
	ErrStorage:          "Gagal menyimpan foto",
	ErrServerError:      "Terjadi kesalahan server",
}

type Error struct {
	Code string
}

func (e *Error) Error() string {
	return e.Code
}

// Message is the user-facing text of the error, or its code when there is
// none.
func (e *Error) Message() string {
	if msg, ok := Messages[e.Code]; ok {
		return msg
	}
	return e.Code
}
