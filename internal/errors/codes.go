// Package errors provides coded errors for the knowledge base engine.
//
// Codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: configuration
//   - 2XX: storage and filesystem
//   - 4XX: invalid caller input
//   - 5XX: internal failures
package errors

// Category groups error codes by the layer that raised them.
type Category string

const (
	CategoryConfig     Category = "CONFIG"
	CategoryStorage    Category = "STORAGE"
	CategoryValidation Category = "VALIDATION"
	CategoryInternal   Category = "INTERNAL"
)

// Severity tells callers whether the operation can continue.
type Severity string

const (
	// SeverityFatal means the index must be rebuilt or repaired before retrying.
	SeverityFatal Severity = "FATAL"
	// SeverityError means the single operation failed.
	SeverityError Severity = "ERROR"
)

const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Storage errors (200-299)
	ErrCodeFileNotFound   = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFileRead       = "ERR_202_FILE_READ"
	ErrCodeCorruptIndex   = "ERR_205_CORRUPT_INDEX"
	ErrCodeSchemaMissing  = "ERR_206_SCHEMA_MISSING"
	ErrCodeIndexLocked    = "ERR_207_INDEX_LOCKED"
	ErrCodeStorageFailure = "ERR_208_STORAGE_FAILURE"

	// Validation errors (400-499)
	ErrCodeInvalidInput = "ERR_401_INVALID_INPUT"
	ErrCodeInvalidQuery = "ERR_403_INVALID_QUERY"
	ErrCodeQueryEmpty   = "ERR_404_QUERY_EMPTY"
	ErrCodeInvalidPath  = "ERR_406_INVALID_PATH"

	// Internal errors (500-599)
	ErrCodeInternal     = "ERR_501_INTERNAL"
	ErrCodeSearchFailed = "ERR_503_SEARCH_FAILED"
	ErrCodeIndexFailed  = "ERR_505_INDEX_FAILED"
)

// categoryFromCode reads the hundreds digit of the code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryStorage
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeCorruptIndex, ErrCodeSchemaMissing:
		return SeverityFatal
	}
	return SeverityError
}
