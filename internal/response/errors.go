package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden          ErrCode = "FORBIDDEN"
	ErrPermissionDenied   ErrCode = "PERMISSION_DENIED"
	ErrAdminAccessOnly    ErrCode = "ADMIN_ACCESS_ONLY"
	ErrRespondentOnly     ErrCode = "RESPONDENT_ACCESS_ONLY"
	ErrPurgeDisabled      ErrCode = "PURGE_DISABLED"
	ErrInvalidConfirmCode ErrCode = "INVALID_CONFIRMATION_CODE"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Survey-specific ───────────────────────────────────────────────
	ErrDuplicateIdentifier ErrCode = "DUPLICATE_IDENTIFIER"
	ErrUnknownRespondent   ErrCode = "UNKNOWN_RESPONDENT"
	ErrCategoryNotFound    ErrCode = "CATEGORY_NOT_FOUND"
	ErrIncompleteStep      ErrCode = "INCOMPLETE_STEP"
	ErrSurveyCompleted     ErrCode = "SURVEY_ALREADY_COMPLETED"
	ErrPersistence         ErrCode = "PERSISTENCE_ERROR"
	ErrQuestionInUse       ErrCode = "QUESTION_IN_USE"
	ErrDuplicateCode       ErrCode = "DUPLICATE_QUESTION_CODE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Username atau kata sandi salah."
	case ErrTokenRequired:
		return "Token autentikasi diperlukan."
	case ErrTokenInvalid:
		return "Token autentikasi tidak valid."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "Anda tidak memiliki izin untuk mengakses sumber daya ini."
	case ErrPermissionDenied:
		return "Izin ditolak."
	case ErrAdminAccessOnly:
		return "Sumber daya ini terbatas untuk administrator."
	case ErrRespondentOnly:
		return "Sumber daya ini terbatas untuk responden survei."
	case ErrPurgeDisabled:
		return "Penghapusan seluruh data tidak diaktifkan di server ini."
	case ErrInvalidConfirmCode:
		return "Kode konfirmasi tidak valid."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validasi gagal. Silakan periksa masukan Anda."
	case ErrInvalidID:
		return "Format ID tidak valid."
	case ErrInvalidPayload:
		return "Payload permintaan tidak valid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Sumber daya tidak ditemukan."
	case ErrConflict:
		return "Sumber daya sudah ada."

	// ─── Survey-specific ───────────────────────────────────────────────
	case ErrDuplicateIdentifier:
		return "NIM sudah terdaftar. Gunakan NIM lain."
	case ErrUnknownRespondent:
		return "Data responden tidak ditemukan. Silakan daftar terlebih dahulu."
	case ErrCategoryNotFound:
		return "Bagian survei tidak ditemukan."
	case ErrIncompleteStep:
		return "Harap jawab semua pertanyaan dengan nilai 1 sampai 5."
	case ErrSurveyCompleted:
		return "Survei sudah selesai diisi. Terima kasih."
	case ErrPersistence:
		return "Jawaban gagal disimpan. Silakan kirim ulang."
	case ErrQuestionInUse:
		return "Kategori pertanyaan tidak dapat diubah karena sudah memiliki jawaban."
	case ErrDuplicateCode:
		return "Kode pertanyaan sudah digunakan."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Terlalu banyak permintaan. Silakan coba lagi nanti."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Terjadi kesalahan server internal."
	default:
		return "Terjadi kesalahan yang tidak terduga."
	}
}
