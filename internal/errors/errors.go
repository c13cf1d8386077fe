// Package errors defines GDBT's error hierarchy: a flat set of codes
// attached to a single Error type, rendered by the CLI as
// "[ERROR] [code]: message: details".
package errors

import "fmt"

// Code identifies the kind of failure, matching the table in spec §7.
type Code string

const (
	CodeUnknown Code = "ERR_UNKNOWN"

	CodeProvider         Code = "ERR_PROVIDER"
	CodeProviderNotFound Code = "ERR_PROVIDER_NOT_FOUND"

	CodeGrafana                 Code = "ERR_GRAFANA"
	CodeGrafanaServerError      Code = "ERR_GRAFANA_SERVER"
	CodeGrafanaResourceNotFound Code = "ERR_GRAFANA_NOT_FOUND"

	CodeFile             Code = "ERR_FILE"
	CodeFileNotFound     Code = "ERR_FILE_NOT_FOUND"
	CodeFileAccessDenied Code = "ERR_FILE_ACCESS_DENIED"

	CodeConsul            Code = "ERR_CONSUL"
	CodeConsulKeyNotFound Code = "ERR_CONSUL_KEY_NOT_FOUND"

	CodeS3               Code = "ERR_S3"
	CodeS3BucketNotFound Code = "ERR_S3_BUCKET_NOT_FOUND"
	CodeS3ObjectNotFound Code = "ERR_S3_OBJECT_NOT_FOUND"
	CodeS3AccessDenied   Code = "ERR_S3_ACCESS_DENIED"

	CodeVariable            Code = "ERR_VARIABLE"
	CodeVariableNotFound    Code = "ERR_VARIABLE_NOT_FOUND"
	CodeVariableNotIterable Code = "ERR_VARIABLE_NOT_ITERABLE"

	CodeConfig                       Code = "ERR_CONFIG"
	CodeConfigFileNotFound           Code = "ERR_CONFIG_FILE_NOT_FOUND"
	CodeConfigEmpty                  Code = "ERR_CONFIG_EMPTY"
	CodeConfigFormatInvalid          Code = "ERR_CONFIG_FORMAT_INVALID"
	CodeConfigEvaluationKindNotFound Code = "ERR_CONFIG_EVALUATION_KIND_INVALID"

	CodeState                    Code = "ERR_STATE"
	CodeStateVersionIncompatible Code = "ERR_STATE_VERSION_INCOMPATIBLE"
	CodeStateCorrupted           Code = "ERR_STATE_CORRUPTED"
	CodeStateLockError           Code = "ERR_STATE_LOCK_ERROR"
	CodeStateAlreadyLocked       Code = "ERR_STATE_ALREADY_LOCKED"
	CodeStateUnlockError         Code = "ERR_STATE_UNLOCK_ERROR"

	CodeData Code = "ERR_DATA"

	CodeConcurrencyTimeout Code = "ERR_CONCURRENCY_TIMEOUT"
)

var messages = map[Code]string{
	CodeUnknown: "Unknown error",

	CodeProvider:         "Provider error",
	CodeProviderNotFound: "Provider not found",

	CodeGrafana:                 "Grafana API error",
	CodeGrafanaServerError:      "Grafana server error",
	CodeGrafanaResourceNotFound: "Grafana resource not found",

	CodeFile:             "File error",
	CodeFileNotFound:     "File not found",
	CodeFileAccessDenied: "File access denied",

	CodeConsul:            "Consul error",
	CodeConsulKeyNotFound: "Consul key not found",

	CodeS3:               "S3 error",
	CodeS3BucketNotFound: "S3 bucket not found",
	CodeS3ObjectNotFound: "S3 object not found",
	CodeS3AccessDenied:   "S3 access denied",

	CodeVariable:            "Variable error",
	CodeVariableNotFound:    "Variable not found",
	CodeVariableNotIterable: "Variable is not iterable",

	CodeConfig:                       "Configuration error",
	CodeConfigFileNotFound:           "Configuration file not found",
	CodeConfigEmpty:                  "Configuration is empty",
	CodeConfigFormatInvalid:          "Configuration format invalid",
	CodeConfigEvaluationKindNotFound: "Invalid kind of evaluation",

	CodeState:                    "State error",
	CodeStateVersionIncompatible: "State version incompatible",
	CodeStateCorrupted:           "State is corrupted",
	CodeStateLockError:           "Could not acquire state lock",
	CodeStateAlreadyLocked:       "State is already locked",
	CodeStateUnlockError:         "Could not release state lock",

	CodeData: "Invalid data",

	CodeConcurrencyTimeout: "Timed out waiting for concurrent operations to finish",
}

// Error is GDBT's single error type. All packages below the CLI return
// *Error (or wrap one with fmt.Errorf+%w for pure plumbing).
type Error struct {
	Code    Code
	Details string
	Cause   error
}

func New(code Code, details string) *Error {
	return &Error{Code: code, Details: details}
}

func Wrap(code Code, cause error, details string) *Error {
	return &Error{Code: code, Details: details, Cause: cause}
}

func (e *Error) message() string {
	if m, ok := messages[e.Code]; ok {
		return m
	}
	return messages[CodeUnknown]
}

func (e *Error) Error() string {
	msg := e.message()
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Render formats the error the way the CLI prints it on exit.
func (e *Error) Render() string {
	return fmt.Sprintf("[ERROR] [%s]: %s", e.Code, e.Error())
}

// IsRetryable reports whether the enclosing phase should retry the call
// that produced err, per spec §5/§7: server-class Grafana errors always,
// ResourceNotFound only meaningful on a get (the caller decides that).
func IsRetryable(err error) bool {
	var ge *Error
	if !As(err, &ge) {
		return false
	}
	return ge.Code == CodeGrafanaServerError || ge.Code == CodeGrafanaResourceNotFound
}

// As is a tiny errors.As shim kept local so this package has no import
// cycle against the stdlib errors package name.
func As(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func ProviderNotFound(name string) *Error {
	return New(CodeProviderNotFound, name)
}

func GrafanaError(cause error) *Error {
	return Wrap(CodeGrafana, cause, "")
}

func GrafanaServerError(cause error) *Error {
	return Wrap(CodeGrafanaServerError, cause, "")
}

func GrafanaResourceNotFound(uid string) *Error {
	return New(CodeGrafanaResourceNotFound, uid)
}

func VariableNotFound(path string) *Error {
	return New(CodeVariableNotFound, path)
}

func VariableNotIterable(path string) *Error {
	return New(CodeVariableNotIterable, path)
}

func DataError(details string) *Error {
	return New(CodeData, details)
}

func ConcurrencyTimeout(details string) *Error {
	return New(CodeConcurrencyTimeout, details)
}

func ConfigFormatInvalid(details string) *Error {
	return New(CodeConfigFormatInvalid, details)
}

func StateVersionIncompatible(got, want int) *Error {
	return New(CodeStateVersionIncompatible, fmt.Sprintf("got %d, want %d", got, want))
}

func StateCorrupted(name string) *Error {
	return New(CodeStateCorrupted, name)
}
