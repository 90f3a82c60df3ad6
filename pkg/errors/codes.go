package errors

import (
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
)

// Data Source Error Codes
const (
	ErrCodeDataSourceUnavailable ErrorCode = "SRC_001"
	ErrCodeDataSourceRateLimited ErrorCode = "SRC_002"
	ErrCodeDataSourceAuthFailed  ErrorCode = "SRC_003"
	ErrCodeDataSourceParseError  ErrorCode = "SRC_004"
	ErrCodeDataSourceTruncated   ErrorCode = "SRC_005"
)

// Extract Module Error Codes
const (
	ErrCodeMissingKey        ErrorCode = "EXT_001"
	ErrCodeMalformedCategory ErrorCode = "EXT_002"
	ErrCodeSinkWrite         ErrorCode = "EXT_003"
	ErrCodeUnknownExtract    ErrorCode = "EXT_004"
	ErrCodeEncodingFailed    ErrorCode = "EXT_005"
)

// Aliases
const (
	CodeUnknown      = ErrorCode("UNKNOWN")
	CodeOK           = ErrorCode("OK")
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeUnauthorized = ErrCodeUnauthorized
	CodeNotFound     = ErrCodeNotFound
	CodeRateLimit    = ErrCodeTooManyRequests

	CodeDataSourceUnavailable = ErrCodeDataSourceUnavailable
	CodeDataSourceAuthFailed  = ErrCodeDataSourceAuthFailed
	CodeDataSourceParseError  = ErrCodeDataSourceParseError
	CodeDataSourceTruncated   = ErrCodeDataSourceTruncated

	CodeMissingKey        = ErrCodeMissingKey
	CodeMalformedCategory = ErrCodeMalformedCategory
	CodeSinkWrite         = ErrCodeSinkWrite
	CodeUnknownExtract    = ErrCodeUnknownExtract
	CodeEncodingFailed    = ErrCodeEncodingFailed

	CodeDatabaseError     = ErrCodeDatabaseError
	CodeCacheError        = ErrCodeCacheError
	CodeMessageQueueError = ErrCodeExternalService
	CodeStorageError      = ErrCodeExternalService
	CodeSearchError       = ErrCodeExternalService
)

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeNotFound:           "resource not found",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",

	ErrCodeDataSourceUnavailable: "data source unavailable",
	ErrCodeDataSourceRateLimited: "data source rate limited",
	ErrCodeDataSourceAuthFailed:  "data source authentication failed",
	ErrCodeDataSourceParseError:  "failed to parse data source response",
	ErrCodeDataSourceTruncated:   "data source result truncated at query limit",

	ErrCodeMissingKey:        "record lacks patent_id",
	ErrCodeMalformedCategory: "malformed field-of-research category",
	ErrCodeSinkWrite:         "failed to persist extract",
	ErrCodeUnknownExtract:    "unknown extract",
	ErrCodeEncodingFailed:    "failed to encode extract",
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
