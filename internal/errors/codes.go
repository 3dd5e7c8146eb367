package errors

// ErrorCode represents a standardized error code used throughout the API
type ErrorCode string

// Parse error codes (PARSE_*)
const (
	ParseFileTooShort    ErrorCode = "PARSE_001"
	ParseUnknownKind     ErrorCode = "PARSE_002"
	ParseNoUsableColumns ErrorCode = "PARSE_003"
	ParseFailed          ErrorCode = "PARSE_004"
)

// Categorization error codes (CATEGORY_*)
const (
	CategoryInvalidRule   ErrorCode = "CATEGORY_001"
	CategoryModelDisabled ErrorCode = "CATEGORY_002"
)

// Export error codes (EXPORT_*)
const (
	ExportUnknownDialect ErrorCode = "EXPORT_001"
)

// Admission gate error codes (GATE_*)
const (
	GateLimitExceeded ErrorCode = "GATE_001"
	GateUnavailable   ErrorCode = "GATE_002"
)

// Validation error codes (VALIDATION_*)
const (
	ValidationGeneral       ErrorCode = "VALIDATION_001"
	ValidationRequiredField ErrorCode = "VALIDATION_002"
	ValidationInvalidFormat ErrorCode = "VALIDATION_003"
)

// System error codes (SYSTEM_*)
const (
	SystemInternalError      ErrorCode = "SYSTEM_001"
	SystemDatabaseError      ErrorCode = "SYSTEM_002"
	SystemServiceUnavailable ErrorCode = "SYSTEM_003"
)

// errorMessages maps error codes to their default human-readable messages
var errorMessages = map[ErrorCode]string{
	// Parse errors
	ParseFileTooShort:    "File must contain a header and at least one data row",
	ParseUnknownKind:     "Unrecognized file kind",
	ParseNoUsableColumns: "No date or amount columns could be identified",
	ParseFailed:          "File could not be parsed",

	// Categorization errors
	CategoryInvalidRule:   "Custom rule is invalid",
	CategoryModelDisabled: "External model classification is disabled",

	// Export errors
	ExportUnknownDialect: "Unknown export dialect",

	// Gate errors
	GateLimitExceeded: "Too many concurrent imports for this client",
	GateUnavailable:   "Admission store is unavailable",

	// Validation errors
	ValidationGeneral:       "Validation failed",
	ValidationRequiredField: "Required field is missing",
	ValidationInvalidFormat: "Invalid field format",

	// System errors
	SystemInternalError:      "An internal error occurred",
	SystemDatabaseError:      "A database error occurred",
	SystemServiceUnavailable: "Service temporarily unavailable",
}

// GetErrorMessage returns the default message for an error code
func GetErrorMessage(code ErrorCode) string {
	if message, exists := errorMessages[code]; exists {
		return message
	}
	return "An unknown error occurred"
}
