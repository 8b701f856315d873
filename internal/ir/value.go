package ir

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Value is a tagged scalar payload.
//
// ID names the column the value came from and Length carries the size of
// the variable part for string-like payloads; both are carried through
// untouched and never interpreted by the compiler.
type Value struct {
	ID     int8
	Type   ValueType
	Length int32

	bits uint64 // Int64, Uint64, Boolean (0/1), Double (IEEE-754 bits)
	str  string
}

// NewInt64 creates an int64 value.
func NewInt64(n int64) Value {
	return Value{Type: TypeInt64, bits: uint64(n)}
}

// NewUint64 creates a uint64 value.
func NewUint64(n uint64) Value {
	return Value{Type: TypeUint64, bits: n}
}

// NewDouble creates a double value.
func NewDouble(f float64) Value {
	return Value{Type: TypeDouble, bits: math.Float64bits(f)}
}

// NewBool creates a boolean value.
func NewBool(b bool) Value {
	v := Value{Type: TypeBoolean}
	if b {
		v.bits = 1
	}
	return v
}

// NewString creates a string value. Length is set to the byte length.
func NewString(s string) Value {
	return Value{Type: TypeString, Length: int32(len(s)), str: s}
}

// Int64 returns the payload as int64.
func (v Value) Int64() int64 { return int64(v.bits) }

// Uint64 returns the payload as uint64.
func (v Value) Uint64() uint64 { return v.bits }

// Double returns the payload as float64.
func (v Value) Double() float64 { return math.Float64frombits(v.bits) }

// Bool returns the payload as bool.
func (v Value) Bool() bool { return v.bits != 0 }

// Str returns the string payload.
func (v Value) Str() string { return v.str }

// Bits returns the raw 64-bit payload. Used for bit-exact comparison
// and canonical encoding of doubles.
func (v Value) Bits() uint64 { return v.bits }

// WithID returns a copy of v carrying the column id.
func (v Value) WithID(id int8) Value {
	v.ID = id
	return v
}

// Equal reports whether two values have the same type and payload.
// Doubles compare bit-for-bit, so NaN equals an identical NaN.
func (v Value) Equal(o Value) bool {
	return v.Type == o.Type && v.bits == o.bits && v.str == o.str
}

// String formats the payload for diagnostics and LIR listings.
func (v Value) String() string {
	switch v.Type {
	case TypeInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case TypeUint64:
		return strconv.FormatUint(v.Uint64(), 10) + "u"
	case TypeDouble:
		s := strconv.FormatFloat(v.Double(), 'g', -1, 64)
		if !containsAny(s, ".eEnN") {
			s += ".0"
		}
		return s
	case TypeBoolean:
		return strconv.FormatBool(v.Bool())
	case TypeString:
		return strconv.Quote(v.str)
	case TypeNull:
		return "null"
	default:
		return fmt.Sprintf("<%s>", v.Type)
	}
}

func containsAny(s, chars string) bool {
	for i := 0; i < len(s); i++ {
		for j := 0; j < len(chars); j++ {
			if s[i] == chars[j] {
				return true
			}
		}
	}
	return false
}

// ValueOf converts a decoded YAML/JSON scalar into a Value of type t.
// Numbers may arrive as int, int64, uint64 or float64 depending on the decoder.
func ValueOf(t ValueType, raw any) (Value, error) {
	switch t {
	case TypeInt64:
		switch n := raw.(type) {
		case int:
			return NewInt64(int64(n)), nil
		case int64:
			return NewInt64(n), nil
		case uint64:
			if n > math.MaxInt64 {
				return Value{}, fmt.Errorf("%d overflows int64", n)
			}
			return NewInt64(int64(n)), nil
		case float64:
			if n != math.Trunc(n) {
				return Value{}, fmt.Errorf("%v is not an integer", n)
			}
			return NewInt64(int64(n)), nil
		case json.Number:
			i, err := n.Int64()
			if err != nil {
				return Value{}, err
			}
			return NewInt64(i), nil
		}
	case TypeUint64:
		switch n := raw.(type) {
		case int:
			if n < 0 {
				return Value{}, fmt.Errorf("%d is negative", n)
			}
			return NewUint64(uint64(n)), nil
		case int64:
			if n < 0 {
				return Value{}, fmt.Errorf("%d is negative", n)
			}
			return NewUint64(uint64(n)), nil
		case uint64:
			return NewUint64(n), nil
		case float64:
			if n < 0 || n != math.Trunc(n) {
				return Value{}, fmt.Errorf("%v is not an unsigned integer", n)
			}
			return NewUint64(uint64(n)), nil
		case json.Number:
			u, err := strconv.ParseUint(string(n), 10, 64)
			if err != nil {
				return Value{}, err
			}
			return NewUint64(u), nil
		}
	case TypeDouble:
		switch n := raw.(type) {
		case int:
			return NewDouble(float64(n)), nil
		case int64:
			return NewDouble(float64(n)), nil
		case uint64:
			return NewDouble(float64(n)), nil
		case float64:
			return NewDouble(n), nil
		case json.Number:
			f, err := n.Float64()
			if err != nil {
				return Value{}, err
			}
			return NewDouble(f), nil
		}
	case TypeBoolean:
		if b, ok := raw.(bool); ok {
			return NewBool(b), nil
		}
	case TypeString:
		if s, ok := raw.(string); ok {
			return NewString(s), nil
		}
	default:
		return Value{}, fmt.Errorf("type %s has no literal values", t)
	}
	return Value{}, fmt.Errorf("cannot use %v (%T) as %s", raw, raw, t)
}

// Interface returns the payload as a plain Go value for encoders.
func (v Value) Interface() any {
	switch v.Type {
	case TypeInt64:
		return v.Int64()
	case TypeUint64:
		return v.Uint64()
	case TypeDouble:
		return v.Double()
	case TypeBoolean:
		return v.Bool()
	case TypeString:
		return v.str
	default:
		return nil
	}
}

type valueJSON struct {
	Type   ValueType       `json:"type"`
	ID     int8            `json:"id,omitempty"`
	Length int32           `json:"length,omitempty"`
	Value  json.RawMessage `json:"value,omitempty"`
}

// MarshalJSON implements json.Marshaler.
// Doubles are written by their bit pattern so the round trip is exact.
func (v Value) MarshalJSON() ([]byte, error) {
	out := valueJSON{Type: v.Type, ID: v.ID, Length: v.Length}
	var payload any
	switch v.Type {
	case TypeDouble:
		payload = strconv.FormatUint(v.bits, 16)
	case TypeNull, TypeAny:
		payload = nil
	default:
		payload = v.Interface()
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		out.Value = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var in valueJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	out := Value{Type: in.Type, ID: in.ID, Length: in.Length}
	if len(in.Value) > 0 {
		switch in.Type {
		case TypeInt64, TypeUint64:
			if err := json.Unmarshal(in.Value, &out.bits); err != nil {
				var n int64
				if err := json.Unmarshal(in.Value, &n); err != nil {
					return fmt.Errorf("value: %w", err)
				}
				out.bits = uint64(n)
			}
		case TypeDouble:
			var hex string
			if err := json.Unmarshal(in.Value, &hex); err != nil {
				return fmt.Errorf("value: %w", err)
			}
			bits, err := strconv.ParseUint(hex, 16, 64)
			if err != nil {
				return fmt.Errorf("value: %w", err)
			}
			out.bits = bits
		case TypeBoolean:
			var b bool
			if err := json.Unmarshal(in.Value, &b); err != nil {
				return fmt.Errorf("value: %w", err)
			}
			if b {
				out.bits = 1
			}
		case TypeString:
			if err := json.Unmarshal(in.Value, &out.str); err != nil {
				return fmt.Errorf("value: %w", err)
			}
		}
	}
	*v = out
	return nil
}
