package errors

import "strconv"

// ErrorCode is the machine-readable code returned in error bodies
type ErrorCode int32

const (
	ErrorCode_UNSPECIFIED ErrorCode = 0
	ErrorCode_HTTP_OK     ErrorCode = 200

	// General
	ErrorCode_INTERNAL         ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT ErrorCode = 1001
	ErrorCode_NOT_FOUND        ErrorCode = 1002
	ErrorCode_INVALID_PAYLOAD  ErrorCode = 1003
	ErrorCode_TIMEOUT          ErrorCode = 1004

	// Upload
	ErrorCode_UPLOAD_UNSUPPORTED_FORMAT ErrorCode = 2000
	ErrorCode_UPLOAD_FILE_TOO_LARGE     ErrorCode = 2001
	ErrorCode_UPLOAD_EMPTY_FILE         ErrorCode = 2002
	ErrorCode_UPLOAD_FAILED             ErrorCode = 2003

	// Task lifecycle
	ErrorCode_TASK_NOT_FOUND        ErrorCode = 3000
	ErrorCode_TASK_ALREADY_TERMINAL ErrorCode = 3001
	ErrorCode_TASK_NOT_COMPLETED    ErrorCode = 3002
	ErrorCode_CAPACITY_EXCEEDED     ErrorCode = 3003

	// Integrations
	ErrorCode_STORE_UNAVAILABLE    ErrorCode = 4001
	ErrorCode_REPORT_EXPORT_FAILED ErrorCode = 4002
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_UNSPECIFIED:                "UNSPECIFIED",
	ErrorCode_HTTP_OK:                    "HTTP_OK",
	ErrorCode_INTERNAL:                   "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:           "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                  "NOT_FOUND",
	ErrorCode_INVALID_PAYLOAD:            "INVALID_PAYLOAD",
	ErrorCode_TIMEOUT:                    "TIMEOUT",
	ErrorCode_UPLOAD_UNSUPPORTED_FORMAT:  "UPLOAD_UNSUPPORTED_FORMAT",
	ErrorCode_UPLOAD_FILE_TOO_LARGE:      "UPLOAD_FILE_TOO_LARGE",
	ErrorCode_UPLOAD_EMPTY_FILE:          "UPLOAD_EMPTY_FILE",
	ErrorCode_UPLOAD_FAILED:              "UPLOAD_FAILED",
	ErrorCode_TASK_NOT_FOUND:             "TASK_NOT_FOUND",
	ErrorCode_TASK_ALREADY_TERMINAL:      "TASK_ALREADY_TERMINAL",
	ErrorCode_TASK_NOT_COMPLETED:         "TASK_NOT_COMPLETED",
	ErrorCode_CAPACITY_EXCEEDED:          "CAPACITY_EXCEEDED",
	ErrorCode_STORE_UNAVAILABLE:          "STORE_UNAVAILABLE",
	ErrorCode_REPORT_EXPORT_FAILED:       "REPORT_EXPORT_FAILED",
}

// String returns the symbolic name of the code
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "ErrorCode(" + strconv.Itoa(int(c)) + ")"
}

// MarshalText encodes the code by name in JSON bodies
func (c ErrorCode) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
