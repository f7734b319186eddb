package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGolden_EssayWithPaste(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "essay_with_paste.yaml"))
	require.NoError(t, err)

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestSnapshot_NilReplay(t *testing.T) {
	s := Snapshot("empty", NewResult())

	data, err := MarshalSnapshot(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"scenario":"empty","duration_ms":0,"compressed_ms":0,"events":[],"index":[],"markers":[],"verdicts":[]}`, string(data))
}
