package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "prelude", cmd.Use)
	assert.Contains(t, cmd.Long, "compressed timeline")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"sessions", "replay", "timeline", "play", "export", "record", "write"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	dbFlag := cmd.PersistentFlags().Lookup("db")
	require.NotNil(t, dbFlag)
	// Falls back to PRELUDE_DB_PATH, so the flag default is empty
	assert.Equal(t, "", dbFlag.DefValue)
}

func TestSubcommandFlags(t *testing.T) {
	cmd := NewRootCommand()

	tests := []struct {
		command string
		flag    string
		def     string
	}{
		{"replay", "at", ""},
		{"replay", "conversation", "all"},
		{"timeline", "width", "60"},
		{"play", "speed", "0"},
		{"play", "from", ""},
		{"play", "tick", "100ms"},
		{"export", "output", ""},
		{"record", "session", ""},
		{"write", "session", ""},
		{"write", "reply", "[]"},
	}
	for _, tt := range tests {
		t.Run(tt.command+"/"+tt.flag, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{tt.command})
			require.NoError(t, err)
			f := sub.Flags().Lookup(tt.flag)
			require.NotNil(t, f)
			assert.Equal(t, tt.def, f.DefValue)
		})
	}
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))
	assert.True(t, isValidFormat("yaml"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "invalid", "sessions"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRootCommand_InvalidEnvironment(t *testing.T) {
	t.Setenv("PRELUDE_LOG_LEVEL", "loud")

	_, _, err := execute(NewRootCommand(), "", "sessions")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRootCommand_EndToEnd(t *testing.T) {
	db := newTestDB(t)
	seedSession(t, db)
	t.Setenv("PRELUDE_OTEL_ENABLED", "false")

	out, _, err := execute(NewRootCommand(), "", "--db", db, "sessions")
	require.NoError(t, err)
	assert.Contains(t, out, "test-session")
}
