package ir

import "fmt"

// ValueType is the closed set of scalar types an expression can have.
type ValueType uint8

const (
	// TypeNull is the unknown/untyped sentinel. It is never the type of a
	// real value; the type resolver returns it for ill-typed trees.
	TypeNull ValueType = iota
	TypeInt64
	TypeUint64
	TypeDouble
	TypeBoolean
	TypeString
	TypeAny
)

var typeNames = [...]string{
	TypeNull:    "null",
	TypeInt64:   "int64",
	TypeUint64:  "uint64",
	TypeDouble:  "double",
	TypeBoolean: "boolean",
	TypeString:  "string",
	TypeAny:     "any",
}

// String returns the lowercase name used in catalogs and expression files.
func (t ValueType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("ValueType(%d)", uint8(t))
}

// Valid reports whether t is one of the enumerated types.
func (t ValueType) Valid() bool {
	return int(t) < len(typeNames)
}

// ParseValueType is the inverse of ValueType.String.
func ParseValueType(s string) (ValueType, error) {
	for i, name := range typeNames {
		if name == s {
			return ValueType(i), nil
		}
	}
	return TypeNull, fmt.Errorf("unknown value type %q", s)
}

// TypesEqual compares two argument type lists element by element.
// No coercion is applied: int64 never equals double.
func TypesEqual(a, b []ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// FormatTypes renders a type list as "(int64, double)".
func FormatTypes(types []ValueType) string {
	buf := make([]byte, 0, 16*len(types)+2)
	buf = append(buf, '(')
	for i, t := range types {
		if i > 0 {
			buf = append(buf, ", "...)
		}
		buf = append(buf, t.String()...)
	}
	buf = append(buf, ')')
	return string(buf)
}

// MarshalText implements encoding.TextMarshaler.
func (t ValueType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid value type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ValueType) UnmarshalText(text []byte) error {
	v, err := ParseValueType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
