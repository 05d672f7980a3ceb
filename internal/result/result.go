// internal/result/result.go
//
// Every public operation in the release engine reports through this envelope.
// Callers branch on Success and must not infer failure from Data alone: a
// successful call can carry partially-populated data (version suggestion
// leaves fields nil for increments it could not compute).

package result

import "fmt"

// Result is the uniform envelope returned across component boundaries.
type Result[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

// Ok builds a successful envelope.
func Ok[T any](data T, format string, args ...any) Result[T] {
	return Result[T]{Success: true, Message: fmt.Sprintf(format, args...), Data: data}
}

// Fail builds a failed envelope with a zero Data value.
func Fail[T any](format string, args ...any) Result[T] {
	return Result[T]{Success: false, Message: fmt.Sprintf(format, args...)}
}

// FromErr translates an internal error into a failed envelope.
func FromErr[T any](err error) Result[T] {
	if err == nil {
		return Result[T]{Success: true}
	}
	return Result[T]{Success: false, Message: err.Error()}
}
