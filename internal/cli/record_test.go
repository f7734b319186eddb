package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const essayScenario = "../harness/testdata/scenarios/essay_with_paste.yaml"

func TestRecord_StoresScenario(t *testing.T) {
	db := newTestDB(t)

	out, _, err := execute(NewRecordCommand(jsonOpts(db)), "", essayScenario, "--session", "essay-1")
	require.NoError(t, err)

	var result RecordResult
	decodeData(t, out, &result)
	assert.Equal(t, "essay_with_paste", result.Scenario)
	assert.Equal(t, "essay-1", result.SessionID)
	assert.True(t, result.Pass, result.Errors)
	assert.Equal(t, []string{"allow", "allow", "block"}, result.Verdicts)
	assert.Equal(t, 2, result.Messages)

	// The recording is an ordinary stored session.
	out, _, err = execute(NewSessionsCommand(jsonOpts(db)), "")
	require.NoError(t, err)
	var sessions SessionsResult
	decodeData(t, out, &sessions)
	require.Equal(t, 1, sessions.Total)
	assert.Equal(t, "essay-1", sessions.Sessions[0].ID)
	assert.Equal(t, result.Events, sessions.Sessions[0].EventCount)
}

func TestRecord_RefusesExistingSession(t *testing.T) {
	db := newTestDB(t)

	_, _, err := execute(NewRecordCommand(textOpts(db)), "", essayScenario, "--session", "essay-1")
	require.NoError(t, err)

	_, _, err = execute(NewRecordCommand(textOpts(db)), "", essayScenario, "--session", "essay-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "already exists")
}

func TestRecord_FailedAssertion(t *testing.T) {
	db := newTestDB(t)
	path := filepath.Join(t.TempDir(), "wrong.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`name: wrong
description: "An outside paste expected to pass"
steps:
  - at: 0
    action: snapshot
    lines: ["Hello"]
  - at: 1000
    action: paste
    text: "from elsewhere"
    expect: allow
assertions:
  - type: event_count
    event: paste_internal
    count: 1
`), 0o644))

	out, _, err := execute(NewRecordCommand(textOpts(db)), "", path, "--session", "wrong-1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Recorded wrong as wrong-1")
	assert.Contains(t, out, "FAIL ")
	assert.Contains(t, err.Error(), "2 check(s) failed")
}

func TestRecord_InvalidScenario(t *testing.T) {
	db := newTestDB(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: bad\ndescription: unknown action\nsteps:\n  - at: 0\n    action: dance\n"), 0o644))

	_, _, err := execute(NewRecordCommand(textOpts(db)), "", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
