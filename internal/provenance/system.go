package provenance

import (
	"log/slog"

	"github.com/atotto/clipboard"
)

// SystemClipboard reads and writes the OS clipboard.
//
// Clipboard access can be unavailable (headless hosts, denied permissions).
// Every failure degrades to a silent no-op with a debug log.
type SystemClipboard struct {
	logger *slog.Logger
	read   func() (string, error)
	write  func(string) error
}

// NewSystemClipboard returns a clipboard backed by github.com/atotto/clipboard.
func NewSystemClipboard(logger *slog.Logger) *SystemClipboard {
	if logger == nil {
		logger = slog.Default()
	}
	return &SystemClipboard{
		logger: logger,
		read:   clipboard.ReadAll,
		write:  clipboard.WriteAll,
	}
}

// Available reports whether the platform clipboard is supported at all.
func (c *SystemClipboard) Available() bool {
	return !clipboard.Unsupported
}

// Read returns the clipboard text, or ok=false if it cannot be read.
func (c *SystemClipboard) Read() (text string, ok bool) {
	text, err := c.read()
	if err != nil {
		c.logger.Debug("clipboard read unavailable", "error", err)
		return "", false
	}
	return text, true
}

// Write places text on the clipboard, reporting whether it succeeded.
func (c *SystemClipboard) Write(text string) bool {
	if err := c.write(text); err != nil {
		c.logger.Debug("clipboard write unavailable", "error", err)
		return false
	}
	return true
}

// Copy writes text to the OS clipboard and registers it with the handler as
// an in-app copy.
func (c *SystemClipboard) Copy(h Clipboard, text string) {
	c.Write(text)
	h.OnCopy(text)
}

// Paste reads the OS clipboard and passes it through the handler. It returns
// the text the host should insert, or "" if the paste was blocked or the
// clipboard is unavailable.
func (c *SystemClipboard) Paste(h Clipboard) (string, Verdict) {
	text, ok := c.Read()
	if !ok || text == "" {
		return "", Allow
	}
	v := h.OnPaste(text)
	if v == Block {
		return "", Block
	}
	return text, Allow
}
