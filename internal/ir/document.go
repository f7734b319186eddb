package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Block is one top-level node of an editor document. The editor owns the
// block schema; only "type" is required.
type Block map[string]any

// Document is the full editor tree stored by snapshot and submission events.
type Document []Block

// EmptyDocument returns the document shown before any snapshot exists:
// a single empty paragraph.
func EmptyDocument() Document {
	return Document{{"type": "paragraph", "content": []any{}}}
}

// ParagraphDocument builds a document with one plain-text paragraph per line.
func ParagraphDocument(lines []string) Document {
	if len(lines) == 0 {
		return EmptyDocument()
	}
	doc := make(Document, 0, len(lines))
	for _, line := range lines {
		content := []any{}
		if line != "" {
			content = append(content, map[string]any{
				"type":   "text",
				"text":   line,
				"styles": map[string]any{},
			})
		}
		doc = append(doc, Block{"type": "paragraph", "content": content})
	}
	return doc
}

// Equal reports whether two documents are identical under canonical JSON.
func (d Document) Equal(other Document) bool {
	a, err := MarshalCanonical(d)
	if err != nil {
		return false
	}
	b, err := MarshalCanonical(other)
	if err != nil {
		return false
	}
	return bytes.Equal(a, b)
}

// PlainText flattens the document to text, one line per block. Inline
// nodes contribute their "text"; nested "content" is walked depth first.
func (d Document) PlainText() string {
	var b strings.Builder
	for i, block := range d {
		if i > 0 {
			b.WriteByte('\n')
		}
		writeInlineText(&b, block["content"])
	}
	return b.String()
}

func writeInlineText(b *strings.Builder, content any) {
	items, ok := content.([]any)
	if !ok {
		return
	}
	for _, item := range items {
		node, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if text, ok := node["text"].(string); ok {
			b.WriteString(text)
		}
		writeInlineText(b, node["content"])
	}
}

// StepPayload describes one atomic document mutation.
type StepPayload struct {
	StepType string          `json:"stepType"`        // operation kind, e.g. "replace"
	From     int             `json:"from"`            // start of affected range
	To       int             `json:"to"`              // end of affected range
	Slice    json.RawMessage `json:"slice,omitempty"` // inserted content, if any
}

// PastePayload records pasted text for audit and replay display.
type PastePayload struct {
	Content string `json:"content"`
}

// EncodeDocument marshals a document as an event payload.
func EncodeDocument(doc Document) (json.RawMessage, error) {
	if doc == nil {
		doc = EmptyDocument()
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

// DecodeDocument parses a snapshot or submission payload.
// Numbers are preserved as json.Number so canonical output matches the input.
func DecodeDocument(data json.RawMessage) (Document, error) {
	var doc Document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("decode document: not an array")
	}
	return doc, nil
}

// DecodeStep parses a transaction_step payload.
func DecodeStep(data json.RawMessage) (StepPayload, error) {
	var step StepPayload
	if err := json.Unmarshal(data, &step); err != nil {
		return StepPayload{}, fmt.Errorf("decode step: %w", err)
	}
	return step, nil
}

// DecodePaste parses a paste payload.
func DecodePaste(data json.RawMessage) (PastePayload, error) {
	var p PastePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return PastePayload{}, fmt.Errorf("decode paste: %w", err)
	}
	return p, nil
}
