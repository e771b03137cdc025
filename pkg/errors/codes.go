package errors

import "net/http"

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

const (
	CodeOK            ErrorCode = "OK"
	CodeUnknown       ErrorCode = "UNKNOWN"
	CodeInvalidParam  ErrorCode = "INVALID_PARAM"
	CodeInvalidMethod ErrorCode = "INVALID_METHOD"
	CodeStageFailed   ErrorCode = "STAGE_FAILED"
	CodeIO            ErrorCode = "IO"
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeInternal      ErrorCode = "INTERNAL"
)

var httpStatus = map[ErrorCode]int{
	CodeOK:            http.StatusOK,
	CodeInvalidParam:  http.StatusBadRequest,
	CodeInvalidMethod: http.StatusBadRequest,
	CodeNotFound:      http.StatusNotFound,
	CodeStageFailed:   http.StatusUnprocessableEntity,
	CodeIO:            http.StatusInternalServerError,
	CodeInternal:      http.StatusInternalServerError,
}

// HTTPStatusForCode maps an error code onto the status the API answers with.
// Unknown codes map to 500.
func HTTPStatusForCode(code ErrorCode) int {
	if s, ok := httpStatus[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// IsClientError reports whether the code describes a caller mistake.
func IsClientError(code ErrorCode) bool {
	s := HTTPStatusForCode(code)
	return s >= 400 && s < 500
}
