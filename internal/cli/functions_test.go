package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunctions(t *testing.T) {
	out, err := execute(t, "functions")
	require.NoError(t, err)

	assert.Contains(t, out, "@add.int64")
	assert.Contains(t, out, "overload(s)")
	assert.NotContains(t, out, "extern")
}

func TestFunctions_CatalogJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "--catalog", catalogFile, "functions")
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   []FunctionInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	var twice *FunctionInfo
	for i := range resp.Data {
		if resp.Data[i].Name == "twice" {
			twice = &resp.Data[i]
		}
		if resp.Data[i].Symbol == "add.int64" {
			assert.False(t, resp.Data[i].Extern)
		}
	}
	require.NotNil(t, twice)
	assert.True(t, twice.Extern)
	assert.Equal(t, "_twice", twice.Symbol)
	assert.Equal(t, []string{"int64"}, twice.Args)
	assert.Equal(t, "int64", twice.Returns)
}

func TestFunctions_BadCatalog(t *testing.T) {
	_, err := execute(t, "--catalog", "testdata/catalog/missing.cue", "functions")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
