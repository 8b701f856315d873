package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for algorithm migration.
const (
	DomainExpr        = "scalarjit/expr/v1"
	DomainSignature   = "scalarjit/signature/v1"
	DomainArtifact    = "scalarjit/artifact/v1"
	DomainCompilation = "scalarjit/compilation/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ExprHash computes the content-addressed identity of an expression tree.
// Structurally equal trees hash equally regardless of node sharing.
func ExprHash(e Expr) (string, error) {
	canonical, err := MarshalCanonicalExpr(e)
	if err != nil {
		return "", fmt.Errorf("ExprHash: %w", err)
	}
	return hashWithDomain(DomainExpr, canonical), nil
}

// SignatureID computes the identity of an overload from its name, link
// symbol and types. Two registrations with equal fields share an ID.
func SignatureID(name, link string, args []ValueType, ret ValueType) string {
	types := make([]any, len(args))
	for i, t := range args {
		types[i] = t.String()
	}
	obj := map[string]any{
		"name":    name,
		"link":    link,
		"args":    types,
		"returns": ret.String(),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		// Only strings and lists of strings are encoded above.
		panic(fmt.Sprintf("ir: SignatureID: %v", err))
	}
	return hashWithDomain(DomainSignature, canonical)
}

// CompilationKey identifies a compiled module: the expression, its result
// type, the IDs of the signatures its call sites resolved to and the
// compiler version. Signature order does not matter.
func CompilationKey(exprHash string, result ValueType, signatureIDs []string) string {
	ids := slices.Clone(signatureIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	sigs := make([]any, len(ids))
	for i, id := range ids {
		sigs[i] = id
	}
	obj := map[string]any{
		"expr":       exprHash,
		"returns":    result.String(),
		"signatures": sigs,
		"compiler":   CompilerVersion,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		panic(fmt.Sprintf("ir: CompilationKey: %v", err))
	}
	return hashWithDomain(DomainCompilation, canonical)
}

// ArtifactHash computes the identity of a serialized artifact payload.
func ArtifactHash(payload []byte) string {
	return hashWithDomain(DomainArtifact, payload)
}

// MustExprHash is like ExprHash but panics on error.
// Use only in tests or when the tree is known to be valid.
func MustExprHash(e Expr) string {
	h, err := ExprHash(e)
	if err != nil {
		panic(err)
	}
	return h
}
