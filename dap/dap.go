// Package dap defines the value model shared by dataset handlers: the
// protocol scalar types, attribute trees, streamed rows, and the hyperslab
// slices and projection paths that make up a client request.
package dap

import "time"

// Type identifies the protocol-facing scalar type of a variable.
type Type int

// Protocol scalar types.
const (
	Unknown Type = iota
	Byte
	Int16
	UInt16
	Int32
	UInt32
	Float32
	Float64
	String
)

var typeNames = map[Type]string{
	Unknown: "Unknown",
	Byte:    "Byte",
	Int16:   "Int16",
	UInt16:  "UInt16",
	Int32:   "Int32",
	UInt32:  "UInt32",
	Float32: "Float32",
	Float64: "Float64",
	String:  "String",
}

// String returns the protocol name of the type.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// TypeOf maps a driver-returned value to a protocol type. Integer widths
// collapse onto the 32-bit protocol tags; temporal and unrecognized values
// are served as strings.
func TypeOf(v interface{}) Type {
	switch v.(type) {
	case nil:
		return Unknown
	case bool:
		return Byte
	case int, int8, int16, int32, int64:
		return Int32
	case uint, uint8, uint16, uint32, uint64:
		return UInt32
	case float32:
		return Float32
	case float64:
		return Float64
	case []byte, string:
		return String
	case time.Time:
		return String
	default:
		return String
	}
}

// Row is one streamed record, values in projection order.
type Row []interface{}

// NormalizeValue converts driver byte slices to strings; other values pass
// through unchanged.
func NormalizeValue(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// Attributes is an arbitrarily nested metadata tree attached to datasets,
// sequences, and variables.
type Attributes map[string]interface{}

// Clone returns a deep copy. Nested maps and lists are copied; scalar
// values are shared.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case Attributes:
		return t.Clone()
	case map[string]interface{}:
		return map[string]interface{}(Attributes(t).Clone())
	case []interface{}:
		out := make([]interface{}, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	default:
		return v
	}
}
