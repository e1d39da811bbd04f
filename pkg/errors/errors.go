// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Engram Contributors

package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeStoreKeyEmpty           Code = "store.key.invalid_input"
	CodeStoreLimitInvalid       Code = "store.limit.invalid_value"
	CodeStoreRecordNotFound     Code = "store.record.not_found"
	CodeStoreBackendUnsupported Code = "store.backend.unsupported"
	CodeStoreInternalFailure    Code = "store.internal.failure"

	CodeConfigLoadReadFailure      Code = "config.load.read.failure"
	CodeConfigParseInvalidFormat   Code = "config.parse.invalid_format"
	CodeConfigValidateInvalidValue Code = "config.validate.invalid_value"

	CodeLoadFileReadFailure  Code = "load.file.read.failure"
	CodeLoadFileCorrupt      Code = "load.file.corrupt"
	CodeLoadRecordCorrupt    Code = "load.record.corrupt"
	CodeSnapshotWriteFailure Code = "snapshot.write.failure"

	CodeRPCParseError       Code = "rpc.request.parse_error"
	CodeRPCInvalidRequest   Code = "rpc.request.invalid"
	CodeRPCUnknownOperation Code = "rpc.operation.unknown"
	CodeRPCInvalidArguments Code = "rpc.arguments.invalid_input"
	CodeRPCInternalFailure  Code = "rpc.internal.failure"
	CodeRPCShuttingDown     Code = "rpc.lifecycle.shutting_down"

	CodeTransportListenFailure Code = "transport.listen.failure"
	CodeTransportReadFailure   Code = "transport.read.failure"
	CodeTransportWriteFailure  Code = "transport.write.failure"

	CodeServerConfigInvalid   Code = "server.config.invalid_value"
	CodeServerStartFailure    Code = "server.start.failure"
	CodeServerShutdownFailure Code = "server.shutdown.failure"
	CodeServerInternalFailure Code = "server.internal.failure"

	CodeTelemetrySetupFailure    Code = "telemetry.setup.failure"
	CodeTelemetryShutdownFailure Code = "telemetry.shutdown.failure"

	CodeCLISetupFailure     Code = "cli.setup.failure"
	CodeCLIDaemonNotRunning Code = "cli.daemon.not_running"
	CodeCLIRequestFailure   Code = "cli.request.failure"
	CodeCLIResponseInvalid  Code = "cli.response.invalid"
)

// Attr is a structured key/value pair attached to an error.
type Attr struct {
	Key   string
	Value any
}

// Field creates a structured error field.
func Field(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

func FieldKey(value string) Attr {
	return Field("key", value)
}

func FieldOperation(value string) Attr {
	return Field("operation", value)
}

func FieldConnID(value string) Attr {
	return Field("conn_id", value)
}

func FieldPath(value string) Attr {
	return Field("path", value)
}

func FieldBackend(value string) Attr {
	return Field("backend", value)
}

func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).Wrapf(err, format, args...)
}

// With adds structured fields to an existing error chain.
func With(err error, fields ...Attr) error {
	if err == nil {
		return nil
	}

	code := CodeOf(err)
	if code == "" {
		code = CodeRPCInternalFailure
	}

	return oops.Code(code).With(flatten(fields)...).Wrap(err)
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}

	if code, ok := oopsErr.Code().(Code); ok {
		return code
	}

	if code, ok := oopsErr.Code().(string); ok {
		return Code(code)
	}

	return Code(fmt.Sprintf("%v", oopsErr.Code()))
}

func FieldsOf(err error) map[string]any {
	if err == nil {
		return nil
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}

	return oopsErr.Context()
}

func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

func IsNotFound(err error) bool {
	return reason(CodeOf(err)) == "not_found"
}

func IsInvalidInput(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid" || r == "invalid_input" || r == "invalid_value" || r == "invalid_format"
}

func IsCorrupt(err error) bool {
	return reason(CodeOf(err)) == "corrupt"
}

func IsShuttingDown(err error) bool {
	return reason(CodeOf(err)) == "shutting_down"
}

func IsUnknownOperation(err error) bool {
	return reason(CodeOf(err)) == "unknown"
}

// JSON-RPC 2.0 error codes. The -32000..-32099 range is reserved for
// implementation-defined server errors; drain rejection lives there.
const (
	JSONRPCParseError     = -32700
	JSONRPCInvalidRequest = -32600
	JSONRPCMethodNotFound = -32601
	JSONRPCInvalidParams  = -32602
	JSONRPCInternalError  = -32603
	JSONRPCShuttingDown   = -32001
)

// JSONRPCCode maps a classified error to its wire-level JSON-RPC code.
func JSONRPCCode(err error) int {
	switch {
	case HasCode(err, CodeRPCParseError):
		return JSONRPCParseError
	case HasCode(err, CodeRPCInvalidRequest):
		return JSONRPCInvalidRequest
	case IsUnknownOperation(err):
		return JSONRPCMethodNotFound
	case IsInvalidInput(err):
		return JSONRPCInvalidParams
	case IsShuttingDown(err):
		return JSONRPCShuttingDown
	default:
		return JSONRPCInternalError
	}
}

// KindOf returns the stable classification string carried in error
// envelopes alongside the numeric code.
func KindOf(err error) string {
	switch {
	case HasCode(err, CodeRPCParseError):
		return "parse_error"
	case HasCode(err, CodeRPCInvalidRequest):
		return "invalid_request"
	case IsUnknownOperation(err):
		return "unknown_operation"
	case IsInvalidInput(err):
		return "invalid_arguments"
	case IsNotFound(err):
		return "not_found"
	case IsShuttingDown(err):
		return "shutting_down"
	case IsCorrupt(err):
		return "startup_data_corrupt"
	default:
		return "internal_fault"
	}
}

func Join(errs ...error) error {
	return oops.Code(CodeServerInternalFailure).Wrap(stderrors.Join(errs...))
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		pairs = append(pairs, field.Key, field.Value)
	}
	return pairs
}

func reason(code Code) string {
	if code == "" {
		return ""
	}

	raw := string(code)
	idx := strings.LastIndex(raw, ".")
	if idx == -1 || idx == len(raw)-1 {
		return raw
	}
	return raw[idx+1:]
}
