package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

type jsonParser struct {
	dec  *json.Decoder
	data []byte
}

func parseJSON(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{Format: FormatJSON, Msg: "empty input"}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	p := &jsonParser{dec: dec, data: data}

	doc, err := p.value(0)
	if err != nil {
		return nil, err
	}

	// Exactly one top-level value is allowed.
	pos := p.next()
	tok, err := dec.Token()
	switch {
	case errors.Is(err, io.EOF):
		return doc, nil
	case err != nil:
		return nil, p.fail(err)
	default:
		return nil, &ParseError{Format: FormatJSON, Line: pos.Line, Column: pos.Column,
			Msg: fmt.Sprintf("unexpected content after top-level value: %v", tok)}
	}
}

// next returns the position of the next token start, skipping whitespace and
// the separators the decoder consumes implicitly.
func (p *jsonParser) next() Position {
	off := int(p.dec.InputOffset())
	for off < len(p.data) {
		switch p.data[off] {
		case ' ', '\t', '\r', '\n', ',', ':':
			off++
			continue
		}
		break
	}
	line, col := lineCol(p.data, off)
	return Position{Line: line, Column: col}
}

func (p *jsonParser) value(depth int) (*Document, error) {
	pos := p.next()
	if depth > maxDepth {
		return nil, depthError(FormatJSON, pos)
	}

	tok, err := p.dec.Token()
	if err != nil {
		return nil, p.fail(err)
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return p.object(pos, depth)
		case '[':
			return p.array(pos, depth)
		default:
			return nil, &ParseError{Format: FormatJSON, Line: pos.Line, Column: pos.Column,
				Msg: fmt.Sprintf("unexpected %q", rune(t))}
		}
	case nil:
		return Null().at(pos), nil
	case bool:
		return Bool(t).at(pos), nil
	case json.Number:
		return Number(t).at(pos), nil
	case string:
		return String(t).at(pos), nil
	default:
		return nil, &ParseError{Format: FormatJSON, Line: pos.Line, Column: pos.Column,
			Msg: fmt.Sprintf("unexpected token %v", tok)}
	}
}

func (p *jsonParser) object(pos Position, depth int) (*Document, error) {
	doc := Mapping().at(pos)
	for p.dec.More() {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, p.fail(err)
		}
		key, ok := tok.(string)
		if !ok {
			at := p.next()
			return nil, &ParseError{Format: FormatJSON, Line: at.Line, Column: at.Column,
				Msg: fmt.Sprintf("object key must be a string, got %v", tok)}
		}
		v, err := p.value(depth + 1)
		if err != nil {
			return nil, err
		}
		doc.set(key, v)
	}
	if _, err := p.dec.Token(); err != nil {
		return nil, p.fail(err)
	}
	return doc, nil
}

func (p *jsonParser) array(pos Position, depth int) (*Document, error) {
	var items []*Document
	for p.dec.More() {
		v, err := p.value(depth + 1)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	if _, err := p.dec.Token(); err != nil {
		return nil, p.fail(err)
	}
	return Sequence(items...).at(pos), nil
}

// fail converts a decoder error into a ParseError with a location.
func (p *jsonParser) fail(err error) error {
	var syn *json.SyntaxError
	if errors.As(err, &syn) {
		// The decoder's offset is not reliable across Token and value reads;
		// its input offset rests on the offending token.
		at := p.next()
		return &ParseError{Format: FormatJSON, Line: at.Line, Column: at.Column, Msg: syn.Error(), Err: err}
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		line, col := lineCol(p.data, len(p.data))
		return &ParseError{Format: FormatJSON, Line: line, Column: col, Msg: "unexpected end of input", Err: io.ErrUnexpectedEOF}
	}
	return &ParseError{Format: FormatJSON, Msg: err.Error(), Err: err}
}
