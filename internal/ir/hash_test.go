package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClipboardHashDeterminism(t *testing.T) {
	h1 := ClipboardHash("Once upon a time")
	h2 := ClipboardHash("Once upon a time")

	assert.Equal(t, h1, h2, "ClipboardHash must be deterministic")
	assert.Len(t, h1, 64, "SHA-256 hex is 64 characters")
	assert.NotEqual(t, h1, ClipboardHash("Once upon a time!"))
}

func TestDocumentHashIgnoresKeyOrder(t *testing.T) {
	a := Document{{"type": "paragraph", "content": []any{}, "attrs": map[string]any{"x": 1, "y": 2}}}
	b := Document{{"attrs": map[string]any{"y": 2, "x": 1}, "content": []any{}, "type": "paragraph"}}

	ha, err := DocumentHash(a)
	require.NoError(t, err)
	hb, err := DocumentHash(b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)
}

func TestDocumentHashChangesWithContent(t *testing.T) {
	h1 := MustDocumentHash(ParagraphDocument([]string{"Draft"}))
	h2 := MustDocumentHash(ParagraphDocument([]string{"Draft", ""}))
	h3 := MustDocumentHash(EmptyDocument())

	assert.NotEqual(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.NotEqual(t, h2, h3)
}

func TestDomainSeparation(t *testing.T) {
	// The same bytes hash differently under each domain.
	doc := EmptyDocument()
	canonical, err := MarshalCanonical(doc)
	require.NoError(t, err)

	assert.NotEqual(t, ClipboardHash(string(canonical)), MustDocumentHash(doc))
	assert.Equal(t, hashWithDomain(DomainDocument, canonical), MustDocumentHash(doc))
}
