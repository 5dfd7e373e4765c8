// Package ingest implements the CSV import core: byte decoding, column
// resolution, row normalization and whole-file orchestration.
//
// File-level problems (undecodable bytes, missing columns, no usable rows)
// are fatal; individual bad rows are collected and never abort an import.
package ingest

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/financetrack/financetrack-go/internal/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// encodingCandidate is one entry of the prioritized decode list.
type encodingCandidate struct {
	name   string
	decode func([]byte) (string, bool)
}

// decodeCandidates are tried in order; the first success wins. Latin-1 and
// ISO-8859-1 share a table but both names stay in the list so error messages
// report the full set of encodings attempted.
var decodeCandidates = []encodingCandidate{
	{"utf-8", func(b []byte) (string, bool) {
		if bytes.HasPrefix(b, utf8BOM) || !utf8.Valid(b) {
			return "", false
		}
		return string(b), true
	}},
	{"utf-8-sig", func(b []byte) (string, bool) {
		if !bytes.HasPrefix(b, utf8BOM) {
			return "", false
		}
		rest := b[len(utf8BOM):]
		if !utf8.Valid(rest) {
			return "", false
		}
		return string(rest), true
	}},
	{"latin-1", decodeCharmap(charmap.ISO8859_1)},
	{"windows-1252", decodeCharmap(charmap.Windows1252)},
	{"iso-8859-1", decodeCharmap(charmap.ISO8859_1)},
}

func decodeCharmap(cm *charmap.Charmap) func([]byte) (string, bool) {
	return func(b []byte) (string, bool) {
		out, err := cm.NewDecoder().Bytes(b)
		if err != nil {
			return "", false
		}
		return string(out), true
	}
}

// DecodeBytes converts raw file bytes to text using the prioritized encoding
// list. Returns *domain.ErrDecode when no candidate succeeds.
func DecodeBytes(raw []byte) (string, error) {
	for _, c := range decodeCandidates {
		if s, ok := c.decode(raw); ok {
			return s, nil
		}
	}
	tried := make([]string, 0, len(decodeCandidates))
	for _, c := range decodeCandidates {
		tried = append(tried, c.name)
	}
	return "", &domain.ErrDecode{Tried: tried}
}
