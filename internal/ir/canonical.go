package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 canonical JSON for hashing.
// This is the only serialization used for content-addressed identity.
//
// Differences from json.Marshal:
//  1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//  2. No HTML escaping
//  3. Strings are NFC normalized
//  4. No floats: callers encode doubles by bit pattern (see canonicalExpr)
//  5. No null
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		return writeCanonicalString(buf, val)
	case int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(val, 10))
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		slices.SortFunc(keys, compareKeysRFC8785)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonicalString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("object[%q]: %w", k, err)
			}
		}
		buf.WriteByte('}')
	case float64, float32:
		return fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

// compareKeysRFC8785 compares strings by UTF-16 code units as RFC 8785
// requires. Go's native string order is UTF-8 and differs for
// characters outside the BMP.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}

// writeCanonicalString writes an NFC-normalized JSON string without HTML
// escaping. U+2028 and U+2029 are written literally.
func writeCanonicalString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	out := bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'})
	buf.Write(unescapeLineSeparators(out))
	return nil
}

// unescapeLineSeparators turns the \u2028 and \u2029 escapes emitted by
// encoding/json back into literal characters, leaving an escaped
// backslash followed by "u2028" untouched.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == '\\' && i+1 < len(data) && data[i+1] == '\\' {
			out = append(out, '\\', '\\')
			i++
			continue
		}
		if data[i] == '\\' && i+5 < len(data) && string(data[i+1:i+5]) == "u202" {
			switch data[i+5] {
			case '8':
				out = append(out, "\u2028"...)
				i += 5
				continue
			case '9':
				out = append(out, "\u2029"...)
				i += 5
				continue
			}
		}
		out = append(out, data[i])
	}
	return out
}

// canonicalValue encodes a literal payload. Doubles go by IEEE-754 bits
// so the encoding stays integer-only and -0.0 differs from 0.0.
func canonicalValue(v Value) map[string]any {
	obj := map[string]any{"type": v.Type.String()}
	switch v.Type {
	case TypeInt64:
		obj["value"] = v.Int64()
	case TypeUint64:
		obj["value"] = v.Uint64()
	case TypeDouble:
		obj["bits"] = v.Bits()
	case TypeBoolean:
		obj["value"] = v.Bool()
	case TypeString:
		obj["value"] = v.Str()
	}
	if v.ID != 0 {
		obj["id"] = int64(v.ID)
	}
	if v.Length != 0 {
		obj["length"] = int64(v.Length)
	}
	return obj
}

// canonicalExpr converts a tree into the generic form MarshalCanonical
// accepts. Shared subtrees are expanded in place.
func canonicalExpr(e Expr) (map[string]any, error) {
	switch n := e.(type) {
	case *Literal:
		return map[string]any{
			"kind":  "literal",
			"type":  n.Type.String(),
			"value": canonicalValue(n.Value),
		}, nil
	case *BinaryOp:
		if !n.Op.Valid() {
			return nil, fmt.Errorf("invalid opcode %d", uint8(n.Op))
		}
		lhs, err := canonicalExpr(n.Lhs)
		if err != nil {
			return nil, fmt.Errorf("lhs: %w", err)
		}
		rhs, err := canonicalExpr(n.Rhs)
		if err != nil {
			return nil, fmt.Errorf("rhs: %w", err)
		}
		return map[string]any{
			"kind": "binary_op",
			"type": n.Type.String(),
			"op":   n.Op.Name(),
			"lhs":  lhs,
			"rhs":  rhs,
		}, nil
	case *FunctionCall:
		args := make([]any, len(n.Args))
		for i, a := range n.Args {
			c, err := canonicalExpr(a)
			if err != nil {
				return nil, fmt.Errorf("args[%d]: %w", i, err)
			}
			args[i] = c
		}
		return map[string]any{
			"kind": "function_call",
			"type": n.Type.String(),
			"name": n.Name,
			"args": args,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported expression %T", e)
	}
}

// MarshalCanonicalExpr returns the canonical JSON of an expression tree.
func MarshalCanonicalExpr(e Expr) ([]byte, error) {
	c, err := canonicalExpr(e)
	if err != nil {
		return nil, err
	}
	return MarshalCanonical(c)
}
