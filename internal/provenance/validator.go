package provenance

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/prelude/internal/ir"
)

// Default registry limits.
const (
	DefaultTTL        = 5 * time.Minute
	DefaultMaxEntries = 50
)

// SourceKind names the surface a registry entry came from.
type SourceKind string

const (
	SourceEditorSelection SourceKind = "editor-selection"
	SourceChatMessage     SourceKind = "chat-message"
)

// Entry is one copy registration.
type Entry struct {
	Fingerprint string
	Source      SourceKind
	RecordedAt  time.Time

	text string // normalized content, needed for substring matching
}

// Validator tracks which text the student may paste.
//
// Thread-safety: safe for concurrent use. The copy handler and the chat
// renderer may register from different goroutines than the paste handler.
type Validator struct {
	mu         sync.Mutex
	entries    []Entry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithTTL sets how long an entry authorizes pastes. Zero disables expiry.
func WithTTL(d time.Duration) Option {
	return func(v *Validator) { v.ttl = d }
}

// WithMaxEntries bounds the registry; the oldest entries are evicted first.
func WithMaxEntries(n int) Option {
	return func(v *Validator) {
		if n > 0 {
			v.maxEntries = n
		}
	}
}

// WithNow injects the wall clock used for expiry.
func WithNow(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

// WithLogger sets the validator's logger.
func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) { v.logger = l }
}

// NewValidator creates an empty registry for one session.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		ttl:        DefaultTTL,
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// RegisterChatMessage records chat content as internal. Assistant replies are
// always internal since they originate from the system.
func (v *Validator) RegisterChatMessage(text string) {
	v.add(text, SourceChatMessage)
}

// MarkInternalCopy records a selection copied from the editor or chat panel.
func (v *Validator) MarkInternalCopy(selectedText string) {
	v.add(selectedText, SourceEditorSelection)
}

// ValidatePaste reports whether candidate equals or is contained in a live
// registry entry.
//
// Every call consumes the entries it matched plus every pending copy entry,
// so one authorization cannot be reused for an unrelated later paste. Chat
// registrations survive unmatched pastes; they leave the registry when
// matched or expired.
func (v *Validator) ValidatePaste(candidate string) bool {
	text := normalize(candidate)

	v.mu.Lock()
	defer v.mu.Unlock()

	v.expireLocked()
	if text == "" {
		v.dropCopiesLocked()
		return false
	}

	fp := fingerprint(text)
	matched := false
	kept := v.entries[:0]
	for _, e := range v.entries {
		hit := e.Fingerprint == fp || strings.Contains(e.text, text)
		if hit {
			matched = true
			continue
		}
		if e.Source == SourceEditorSelection {
			continue
		}
		kept = append(kept, e)
	}
	clear(v.entries[len(kept):])
	v.entries = kept

	v.logger.Debug("paste validated", "internal", matched, "remaining", len(v.entries))
	return matched
}

// ClearCopyBuffer empties the registry.
func (v *Validator) ClearCopyBuffer() {
	v.mu.Lock()
	defer v.mu.Unlock()
	clear(v.entries)
	v.entries = v.entries[:0]
}

// Len returns the number of live entries.
func (v *Validator) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.expireLocked()
	return len(v.entries)
}

// Entries returns a copy of the live entries, oldest first.
func (v *Validator) Entries() []Entry {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.expireLocked()
	out := make([]Entry, len(v.entries))
	copy(out, v.entries)
	return out
}

func (v *Validator) add(raw string, src SourceKind) {
	text := normalize(raw)
	if text == "" {
		return
	}
	fp := fingerprint(text)

	v.mu.Lock()
	defer v.mu.Unlock()

	v.expireLocked()

	// Re-registering identical content refreshes it instead of duplicating.
	for i, e := range v.entries {
		if e.Fingerprint == fp && e.Source == src {
			v.entries = append(v.entries[:i], v.entries[i+1:]...)
			break
		}
	}

	v.entries = append(v.entries, Entry{
		Fingerprint: fp,
		Source:      src,
		RecordedAt:  v.now(),
		text:        text,
	})
	if over := len(v.entries) - v.maxEntries; over > 0 {
		v.entries = append(v.entries[:0], v.entries[over:]...)
	}
}

func (v *Validator) expireLocked() {
	if v.ttl <= 0 {
		return
	}
	cutoff := v.now().Add(-v.ttl)
	kept := v.entries[:0]
	for _, e := range v.entries {
		if e.RecordedAt.After(cutoff) {
			kept = append(kept, e)
		}
	}
	clear(v.entries[len(kept):])
	v.entries = kept
}

func (v *Validator) dropCopiesLocked() {
	kept := v.entries[:0]
	for _, e := range v.entries {
		if e.Source != SourceEditorSelection {
			kept = append(kept, e)
		}
	}
	clear(v.entries[len(kept):])
	v.entries = kept
}

// normalize maps clipboard text to a comparable form: NFC, LF line endings,
// surrounding whitespace trimmed. Browsers and editors disagree on all three.
func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.TrimSpace(norm.NFC.String(s))
}

// fingerprint hashes normalized text under the clipboard domain.
func fingerprint(text string) string {
	return ir.ClipboardHash(text)
}
