package ir

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaSource string

// payloadSchema holds the compiled CUE definitions. cue.Context is not safe
// for concurrent use, so every evaluation holds mu.
type payloadSchema struct {
	mu   sync.Mutex
	ctx  *cue.Context
	root cue.Value
}

var (
	schemaOnce sync.Once
	schema     *payloadSchema
	schemaErr  error
)

func loadSchema() (*payloadSchema, error) {
	schemaOnce.Do(func() {
		ctx := cuecontext.New()
		root := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
		if err := root.Err(); err != nil {
			schemaErr = fmt.Errorf("compile payload schema: %w", err)
			return
		}
		schema = &payloadSchema{ctx: ctx, root: root}
	})
	return schema, schemaErr
}

// definitionFor maps an event type to its CUE definition.
func definitionFor(t EventType) (string, bool) {
	switch t {
	case EventSnapshot, EventSubmission:
		return "#Document", true
	case EventTransactionStep:
		return "#Step", true
	case EventPasteInternal, EventPasteExternal:
		return "#Paste", true
	}
	return "", false
}

// ValidatePayload checks an event payload against the schema for its type.
func ValidatePayload(t EventType, data json.RawMessage) error {
	def, ok := definitionFor(t)
	if !ok {
		return fmt.Errorf("unknown event type %q", t)
	}
	if len(data) == 0 {
		return fmt.Errorf("empty payload")
	}

	s, err := loadSchema()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.ctx.CompileBytes(data, cue.Filename("payload.json"))
	if err := v.Err(); err != nil {
		return fmt.Errorf("parse payload: %w", err)
	}
	unified := s.root.LookupPath(cue.ParsePath(def)).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("payload does not match %s: %w", def, err)
	}
	return nil
}

// ValidateEvent validates an event's type and payload, returning a
// *PayloadError on failure.
func ValidateEvent(ev EditorEvent) error {
	if !ValidEventTypes[ev.Type] {
		return &PayloadError{Seq: ev.Seq, EventType: ev.Type, Err: fmt.Errorf("unknown event type")}
	}
	if err := ValidatePayload(ev.Type, ev.Data); err != nil {
		return &PayloadError{Seq: ev.Seq, EventType: ev.Type, Err: err}
	}
	return nil
}
