package envloader

import (
	"fmt"
	"reflect"
)

// InvalidTargetError indica que o destino não é um ponteiro para struct.
type InvalidTargetError struct {
	Value reflect.Type
}

func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("envloader: target must be a pointer to struct, got %s", e.Value)
}

// FieldError indica falha na conversão de uma variável de ambiente.
type FieldError struct {
	FieldName string
	EnvVar    string
	Value     string
	Err       error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("envloader: field %s (env %s=%q): %v", e.FieldName, e.EnvVar, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// UnsupportedTypeError indica um tipo de campo sem conversão suportada.
type UnsupportedTypeError struct {
	Type reflect.Type
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("envloader: unsupported field type %s", e.Type)
}
