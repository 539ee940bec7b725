package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// ErrUndecodable is returned when no candidate encoding yields valid JSON.
var ErrUndecodable = errors.New("no candidate encoding produced valid JSON")

// Document is one successfully decoded log file.
type Document struct {
	Encoding string // name of the candidate that succeeded
	Text     []byte // UTF-8 JSON text
	Value    any    // generic decode of Text
}

// decodeCandidate turns raw bytes into UTF-8 text, or reports false if the encoding does not apply.
type decodeCandidate struct {
	name   string
	decode func(raw []byte) ([]byte, bool)
}

// candidates are tried in order; the first that yields valid JSON wins.
var candidates = []decodeCandidate{
	{name: "utf-8-sig", decode: strictUTF8(unicode.UTF8BOM)},
	{name: "utf-8", decode: func(raw []byte) ([]byte, bool) { return raw, utf8.Valid(raw) }},
	{name: "utf-16", decode: evenLength(viaEncoding(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)))},
	{name: "utf-8-replace", decode: func(raw []byte) ([]byte, bool) {
		return []byte(strings.ToValidUTF8(string(raw), string(utf8.RuneError))), true
	}},
}

// LoadDocument decodes raw bytes using the candidate encodings in order.
func LoadDocument(raw []byte) (*Document, error) {
	for _, c := range candidates {
		text, ok := c.decode(raw)
		if !ok || !json.Valid(text) {
			continue
		}
		var value any
		if err := json.Unmarshal(text, &value); err != nil {
			continue
		}
		return &Document{Encoding: c.name, Text: text, Value: value}, nil
	}
	return nil, fmt.Errorf("%w (%d bytes)", ErrUndecodable, len(raw))
}

// strictUTF8 applies enc only to input that is already valid UTF-8.
func strictUTF8(enc encoding.Encoding) func([]byte) ([]byte, bool) {
	decode := viaEncoding(enc)
	return func(raw []byte) ([]byte, bool) {
		if !utf8.Valid(raw) {
			return nil, false
		}
		return decode(raw)
	}
}

// evenLength rejects inputs that cannot be whole UTF-16 code units.
func evenLength(decode func([]byte) ([]byte, bool)) func([]byte) ([]byte, bool) {
	return func(raw []byte) ([]byte, bool) {
		if len(raw)%2 != 0 {
			return nil, false
		}
		return decode(raw)
	}
}

func viaEncoding(enc encoding.Encoding) func([]byte) ([]byte, bool) {
	return func(raw []byte) ([]byte, bool) {
		if len(raw) == 0 {
			return nil, false
		}
		text, err := enc.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, false
		}
		return text, true
	}
}
