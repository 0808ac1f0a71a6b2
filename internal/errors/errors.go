// Package errors provides standardized error handling for pixed.
// It defines the error kinds raised by the editor engine, typed errors that
// carry the offending layer, source or service operation, and helpers for
// consistent creation, wrapping and inspection.
package errors

import (
	"errors"
	"fmt"
)

// Standard errors package errors that we re-export for convenience
var (
	// Unwrap unwraps an error to access the underlying error
	Unwrap = errors.Unwrap
	// Is reports whether any error in err's chain matches target
	Is = errors.Is
	// As finds the first error in err's chain that matches target
	As = errors.As
)

// ErrorKind represents the kind of error
type ErrorKind int

// Error kinds
const (
	Unknown ErrorKind = iota
	// Layer error kinds
	LayerNotFound
	PinnedLayer
	// Raster error kinds
	RasterNotReady
	DecodeFailed
	EncodeFailed
	UnsupportedSource
	// AI service error kinds
	ServiceFailed
	EmptyResult
	NoSelection
	EmptyPrompt
	TaskCanceled
	// Config error kinds
	InvalidConfig
	ConfigNotFound
	// Generic
	InvalidInputData
)

// Common error constants for frequently occurring errors
var (
	ErrLayerNotFound  = NewLayerError("layer not found", "", LayerNotFound, nil)
	ErrPinnedLayer    = NewLayerError("operation not allowed on the background layer", "", PinnedLayer, nil)
	ErrRasterNotReady = NewLayerError("layer raster is not loaded", "", RasterNotReady, nil)
	ErrNoSelection    = NewServiceError("a selection is required", "generative-fill", NoSelection, nil)
	ErrEmptyPrompt    = NewServiceError("a prompt is required", "generative-fill", EmptyPrompt, nil)
	ErrInvalidConfig  = NewConfigError("invalid configuration", "", InvalidConfig, nil)
)

// ApplicationError is the base error type for all application errors
type ApplicationError struct {
	msg  string
	err  error
	kind ErrorKind
}

// Error returns the error message
func (e *ApplicationError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

// Unwrap returns the wrapped error
func (e *ApplicationError) Unwrap() error {
	return e.err
}

// Kind returns the kind of error
func (e *ApplicationError) Kind() ErrorKind {
	return e.kind
}

// LayerError represents errors tied to a layer of the stack
type LayerError struct {
	ApplicationError
	layerID string
}

// NewLayerError creates a new layer error
func NewLayerError(msg string, layerID string, kind ErrorKind, err error) *LayerError {
	return &LayerError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		layerID: layerID,
	}
}

// Error returns the layer error message
func (e *LayerError) Error() string {
	if e.layerID != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.layerID, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.layerID)
	}
	return e.ApplicationError.Error()
}

// LayerID returns the layer id associated with the error
func (e *LayerError) LayerID() string {
	return e.layerID
}

// Is matches another LayerError of the same kind, so callers can compare
// against the sentinel values regardless of the layer id.
func (e *LayerError) Is(target error) bool {
	var other *LayerError
	if errors.As(target, &other) {
		return other.kind == e.kind
	}
	return false
}

// RasterError represents errors decoding or encoding pixel data
type RasterError struct {
	ApplicationError
	source string
}

// NewRasterError creates a new raster error
func NewRasterError(msg string, source string, kind ErrorKind, err error) *RasterError {
	return &RasterError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		source: source,
	}
}

// Error returns the raster error message
func (e *RasterError) Error() string {
	if e.source != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.source, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.source)
	}
	return e.ApplicationError.Error()
}

// Source returns the raster source associated with the error
func (e *RasterError) Source() string {
	return e.source
}

// ServiceError represents errors from the external AI services
type ServiceError struct {
	ApplicationError
	operation string
	context   map[string]interface{}
}

// NewServiceError creates a new service error
func NewServiceError(msg string, operation string, kind ErrorKind, err error) *ServiceError {
	return &ServiceError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		operation: operation,
		context:   make(map[string]interface{}),
	}
}

// WithContext adds context information to the service error
func (e *ServiceError) WithContext(key string, value interface{}) *ServiceError {
	e.context[key] = value
	return e
}

// Error returns the service error message
func (e *ServiceError) Error() string {
	if e.operation != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: operation=%s: %v", e.msg, e.operation, e.err)
		}
		return fmt.Sprintf("%s: operation=%s", e.msg, e.operation)
	}
	return e.ApplicationError.Error()
}

// Operation returns the service operation associated with the error
func (e *ServiceError) Operation() string {
	return e.operation
}

// Context returns the context information associated with the error
func (e *ServiceError) Context() map[string]interface{} {
	return e.context
}

// Is matches another ServiceError of the same kind.
func (e *ServiceError) Is(target error) bool {
	var other *ServiceError
	if errors.As(target, &other) {
		return other.kind == e.kind
	}
	return false
}

// ConfigError represents errors related to configuration
type ConfigError struct {
	ApplicationError
	param string
}

// NewConfigError creates a new configuration error
func NewConfigError(msg string, param string, kind ErrorKind, err error) *ConfigError {
	return &ConfigError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		param: param,
	}
}

// Error returns the config error message
func (e *ConfigError) Error() string {
	if e.param != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.param, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.param)
	}
	return e.ApplicationError.Error()
}

// Param returns the configuration parameter associated with the error
func (e *ConfigError) Param() string {
	return e.param
}

// New creates a new error with a message
func New(msg string) error {
	return &ApplicationError{
		msg:  msg,
		kind: Unknown,
	}
}

// Newf creates a new error with a formatted message
func Newf(format string, args ...interface{}) error {
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		kind: Unknown,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  msg,
		err:  err,
		kind: Unknown,
	}
}

// Wrapf wraps an existing error with additional formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		err:  err,
		kind: Unknown,
	}
}

// KindOf returns the kind of the first application error in err's chain.
func KindOf(err error) ErrorKind {
	for err != nil {
		if k, ok := err.(interface{ Kind() ErrorKind }); ok && k.Kind() != Unknown {
			return k.Kind()
		}
		err = errors.Unwrap(err)
	}
	return Unknown
}

// IsLayerNotFound checks if the error is an unknown layer error
func IsLayerNotFound(err error) bool {
	return KindOf(err) == LayerNotFound
}

// IsPinnedLayer checks if the error is a rejected background-layer operation
func IsPinnedLayer(err error) bool {
	return KindOf(err) == PinnedLayer
}

// IsServiceError checks if the error came from an AI service
func IsServiceError(err error) bool {
	var svcErr *ServiceError
	return errors.As(err, &svcErr)
}

// IsEmptyResult checks if the service answered without an image
func IsEmptyResult(err error) bool {
	return KindOf(err) == EmptyResult
}

// IsCanceled checks if the error reports a cancelled task
func IsCanceled(err error) bool {
	return KindOf(err) == TaskCanceled
}

// IsInvalidConfig checks if the error is an invalid configuration error
func IsInvalidConfig(err error) bool {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr.Kind() == InvalidConfig
	}
	return false
}

// IsDecodeFailed checks if the error is a raster decode failure
func IsDecodeFailed(err error) bool {
	return KindOf(err) == DecodeFailed
}
