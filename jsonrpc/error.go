package jsonrpc

import "github.com/gorilla/rpc/v2/json2"

const (
	CodeParseError     = int(json2.E_PARSE)
	CodeInvalidRequest = int(json2.E_INVALID_REQ)
	CodeMethodNotFound = int(json2.E_NO_METHOD)
	CodeInvalidParams  = int(json2.E_BAD_PARAMS)
	CodeInternal       = int(json2.E_INTERNAL)

	// A2A task errors.
	CodeTaskNotFound      = -32001
	CodeTaskNotCancelable = -32002
)

// NewError returns an error that is sent back with exactly this code.
func NewError(code int, message string) *json2.Error {
	return &json2.Error{
		Code:    json2.ErrorCode(code),
		Message: message,
	}
}
