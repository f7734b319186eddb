package provenance

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pasteRecord struct {
	text     string
	internal bool
}

type recordingTracker struct{ pastes []pasteRecord }

func (r *recordingTracker) TrackPaste(text string, internal bool) {
	r.pastes = append(r.pastes, pasteRecord{text, internal})
}

func TestGuard_InternalPasteAllowedAndBufferCleared(t *testing.T) {
	v, _ := newTestValidator()
	rec := &recordingTracker{}
	g := NewGuard(v, rec, nil)

	v.RegisterChatMessage("assistant reply text")
	g.OnCopy("my own sentence")

	assert.Equal(t, Allow, g.OnPaste("my own sentence"))
	assert.Equal(t, 0, v.Len(), "buffer cleared after internal paste")
	assert.Equal(t, []pasteRecord{{"my own sentence", true}}, rec.pastes)
}

func TestGuard_ExternalPasteBlockedButRecorded(t *testing.T) {
	v, _ := newTestValidator()
	rec := &recordingTracker{}
	g := NewGuard(v, rec, nil)

	assert.Equal(t, Block, g.OnPaste("copied from the web"))
	assert.Equal(t, []pasteRecord{{"copied from the web", false}}, rec.pastes)
}

func TestGuard_EmptyPasteIgnored(t *testing.T) {
	v, _ := newTestValidator()
	rec := &recordingTracker{}
	g := NewGuard(v, rec, nil)

	assert.Equal(t, Allow, g.OnPaste(""))
	assert.Empty(t, rec.pastes)
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "allow", Allow.String())
	assert.Equal(t, "block", Block.String())
	assert.Equal(t, "unknown", Verdict(0).String())
}

func TestSystemClipboard_Unavailable(t *testing.T) {
	c := NewSystemClipboard(nil)
	c.read = func() (string, error) { return "", errors.New("no clipboard") }
	c.write = func(string) error { return errors.New("no clipboard") }

	v, _ := newTestValidator()
	g := NewGuard(v, nil, nil)

	assert.False(t, c.Write("x"))
	c.Copy(g, "still registered")
	assert.Equal(t, 1, v.Len(), "copy registers even if the OS clipboard fails")

	text, verdict := c.Paste(g)
	assert.Equal(t, "", text)
	assert.Equal(t, Allow, verdict)
}

func TestSystemClipboard_RoundTrip(t *testing.T) {
	var buf string
	c := NewSystemClipboard(nil)
	c.read = func() (string, error) { return buf, nil }
	c.write = func(s string) error { buf = s; return nil }

	v, _ := newTestValidator()
	g := NewGuard(v, nil, nil)

	c.Copy(g, "from the editor")
	text, verdict := c.Paste(g)
	require.Equal(t, Allow, verdict)
	assert.Equal(t, "from the editor", text)

	buf = "from another app"
	text, verdict = c.Paste(g)
	assert.Equal(t, Block, verdict)
	assert.Equal(t, "", text)
}
