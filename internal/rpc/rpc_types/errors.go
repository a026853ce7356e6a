package rpc_types

import (
	"errors"
	"fmt"

	"github.com/LeJamon/goPriceOracle/internal/core/oracle"
)

// RpcError is the error half of an RPC response. Oracle errors keep their
// own non-negative codes, protocol errors use negative ones.
type RpcError struct {
	Code        int    `json:"error_code"`
	ErrorString string `json:"error"`
	Message     string `json:"error_message,omitempty"`
}

func (e RpcError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.ErrorString
}

// Protocol error codes
const (
	RpcPARSE_ERROR      = -32700
	RpcINVALID_REQUEST  = -32600
	RpcMETHOD_NOT_FOUND = -32601
	RpcINVALID_PARAMS   = -32602
	RpcINTERNAL         = -32603

	RpcUNAUTHENTICATED = -32001
	RpcSLOW_DOWN       = -32005
)

func NewRpcError(code int, errorString, message string) *RpcError {
	return &RpcError{
		Code:        code,
		ErrorString: errorString,
		Message:     message,
	}
}

func RpcErrorParse(message string) *RpcError {
	return NewRpcError(RpcPARSE_ERROR, "jsonInvalid", message)
}

func RpcErrorMissingCommand() *RpcError {
	return NewRpcError(RpcINVALID_REQUEST, "missingCommand", "Missing method field")
}

func RpcErrorInvalidParams(message string) *RpcError {
	return NewRpcError(RpcINVALID_PARAMS, "invalidParams", message)
}

func RpcErrorMissingField(field string) *RpcError {
	return NewRpcError(RpcINVALID_PARAMS, "invalidParams", fmt.Sprintf("Missing field '%s'.", field))
}

func RpcErrorMethodNotFound(method string) *RpcError {
	return NewRpcError(RpcMETHOD_NOT_FOUND, "unknownCmd", "Unknown method: "+method)
}

func RpcErrorInternal(message string) *RpcError {
	return NewRpcError(RpcINTERNAL, "internal", message)
}

func RpcErrorUnauthenticated(message string) *RpcError {
	return NewRpcError(RpcUNAUTHENTICATED, "unauthenticated", message)
}

func RpcErrorSlowDown() *RpcError {
	return NewRpcError(RpcSLOW_DOWN, "slowDown", "You are placing too much load on the server.")
}

// FromError converts an error returned by an oracle call. Oracle error
// kinds keep their code and name, anything else is internal.
func FromError(err error) *RpcError {
	var oe *oracle.Error
	if errors.As(err, &oe) {
		return NewRpcError(int(oe.Code), oe.Name, oe.Error())
	}
	return RpcErrorInternal(err.Error())
}

// AsOracleError returns the oracle error kind e carries, or nil for
// protocol errors.
func (e *RpcError) AsOracleError() *oracle.Error {
	if e == nil || e.Code < 0 {
		return nil
	}
	oe := oracle.ErrorByCode(uint32(e.Code))
	if oe == nil || oe.Name != e.ErrorString {
		return nil
	}
	return oe
}
