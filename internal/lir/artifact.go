package lir

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/roach88/scalarjit/internal/ir"
)

// ArtifactExt is the file extension of serialized LIR artifacts.
const ArtifactExt = ".lir"

// artifactVersion guards the on-disk format.
const artifactVersion = 1

type moduleJSON struct {
	Version   int            `json:"version"`
	Name      string         `json:"name"`
	ID        string         `json:"id,omitempty"`
	Source    string         `json:"source,omitempty"`
	Functions []functionJSON `json:"functions"`
}

type functionJSON struct {
	Name    string         `json:"name"`
	Params  []ir.ValueType `json:"params"`
	Return  ir.ValueType   `json:"return"`
	Declare bool           `json:"declare,omitempty"`
	Body    []instrJSON    `json:"body,omitempty"`
}

type instrJSON struct {
	Op     string       `json:"op"`
	Type   ir.ValueType `json:"type"`
	Args   []int        `json:"args,omitempty"`
	Const  *ir.Value    `json:"const,omitempty"`
	Index  int          `json:"index,omitempty"`
	Callee string       `json:"callee,omitempty"`
}

// Marshal encodes m as JSON.
func Marshal(m *Module) ([]byte, error) {
	out := moduleJSON{
		Version:   artifactVersion,
		Name:      m.Name,
		ID:        m.ID,
		Source:    m.Source,
		Functions: make([]functionJSON, 0, len(m.funcs)),
	}
	for _, f := range m.funcs {
		fj := functionJSON{
			Name:    f.Name,
			Params:  f.Params,
			Return:  f.Return,
			Declare: f.IsDeclaration(),
		}
		if fj.Params == nil {
			fj.Params = []ir.ValueType{}
		}
		for _, in := range f.Body {
			ij := instrJSON{Op: in.Op.String(), Type: in.Type, Args: in.Args, Index: in.Index, Callee: in.Callee}
			if in.Op == OpConst {
				c := in.Const
				ij.Const = &c
			}
			fj.Body = append(fj.Body, ij)
		}
		out.Functions = append(out.Functions, fj)
	}
	return json.Marshal(out)
}

// Unmarshal decodes a module written by Marshal.
// The module is not verified; call VerifyModule before executing it.
func Unmarshal(data []byte) (*Module, error) {
	var in moduleJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("lir: decode module: %w", err)
	}
	if in.Version != artifactVersion {
		return nil, fmt.Errorf("lir: unsupported artifact version %d", in.Version)
	}
	m := NewModule(in.Name)
	m.ID = in.ID
	m.Source = in.Source
	for _, fj := range in.Functions {
		if m.Function(fj.Name) != nil {
			return nil, fmt.Errorf("lir: duplicate function @%s", fj.Name)
		}
		f := &Function{Name: fj.Name, Params: fj.Params, Return: fj.Return}
		if !fj.Declare {
			f.Body = make([]Instr, 0, len(fj.Body))
			for i, ij := range fj.Body {
				op, ok := parseOp(ij.Op)
				if !ok {
					return nil, fmt.Errorf("lir: @%s: %%%d: unknown op %q", fj.Name, i, ij.Op)
				}
				in := Instr{Op: op, Type: ij.Type, Args: ij.Args, Index: ij.Index, Callee: ij.Callee}
				if ij.Const != nil {
					in.Const = *ij.Const
				}
				f.Body = append(f.Body, in)
			}
		}
		m.add(f)
	}
	return m, nil
}

// EncodeArtifact serializes m and compresses it with zstd.
func EncodeArtifact(m *Module) ([]byte, error) {
	raw, err := Marshal(m)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("lir: zstd writer: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(raw, nil), nil
}

// DecodeArtifact reverses EncodeArtifact and verifies the result.
func DecodeArtifact(data []byte) (*Module, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("lir: zstd reader: %w", err)
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("lir: decompress artifact: %w", err)
	}
	m, err := Unmarshal(raw)
	if err != nil {
		return nil, err
	}
	if err := VerifyModule(m); err != nil {
		return nil, err
	}
	return m, nil
}
