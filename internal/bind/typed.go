package bind

// ParamType labels the intended SQL type of a wrapped parameter.
type ParamType string

// Parameter types understood by Typed. The label documents intent; the
// engine form is always decided by the wrapped value.
const (
	TypeNull     ParamType = "null"
	TypeInteger  ParamType = "integer"
	TypeBigInt   ParamType = "bigint"
	TypeReal     ParamType = "real"
	TypeText     ParamType = "text"
	TypeBlob     ParamType = "blob"
	TypeBoolean  ParamType = "boolean"
	TypeDateTime ParamType = "datetime"
)

// Typed wraps a parameter with an explicit type label. Wrappers may nest;
// Adapt unwraps until it reaches a plain value.
type Typed struct {
	Type  ParamType
	Value any
}

// As returns v wrapped with type t.
func As(t ParamType, v any) Typed {
	return Typed{Type: t, Value: v}
}
