package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix lets the algorithm
// change without colliding with values computed by an older build.
const (
	DomainClipboard = "prelude/clipboard/v1"
	DomainDocument  = "prelude/document/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data) as hex. The null
// separator keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ClipboardHash fingerprints clipboard text. Callers normalize first.
func ClipboardHash(text string) string {
	return hashWithDomain(DomainClipboard, []byte(text))
}

// DocumentHash is the content hash of a document's canonical JSON, so two
// trees with the same content hash equally regardless of key order.
func DocumentHash(doc Document) (string, error) {
	canonical, err := MarshalCanonical(doc)
	if err != nil {
		return "", fmt.Errorf("DocumentHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDocument, canonical), nil
}

// MustDocumentHash is like DocumentHash but panics on error.
// Use only in tests or when the document came from a decoded payload.
func MustDocumentHash(doc Document) string {
	h, err := DocumentHash(doc)
	if err != nil {
		panic(err)
	}
	return h
}
