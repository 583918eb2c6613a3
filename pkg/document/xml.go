package document

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
)

// XML elements map onto documents as follows: the root element's content is
// the document; attributes become "@name" fields; child elements become fields
// named by their local name, with repeated siblings collected into a sequence;
// non-blank text next to attributes or children becomes "#text"; an element
// with neither attributes nor children is a string scalar.
const (
	XMLAttrPrefix = "@"
	XMLTextKey    = "#text"
)

type xmlParser struct {
	dec *xml.Decoder
}

func parseXML(data []byte) (*Document, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charsetReader
	p := &xmlParser{dec: dec}

	var root *Document
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, p.fail(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if root != nil {
				return nil, p.failf("multiple root elements (found <%s>)", t.Name.Local)
			}
			root, err = p.element(t, p.pos(), 0)
			if err != nil {
				return nil, err
			}
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return nil, p.failf("text outside the root element")
			}
		}
	}

	if root == nil {
		return nil, &ParseError{Format: FormatXML, Msg: "no root element"}
	}
	return root, nil
}

func (p *xmlParser) pos() Position {
	line, col := p.dec.InputPos()
	return Position{Line: line, Column: col}
}

type xmlEntry struct {
	key    string
	pos    Position
	values []*Document
}

func (p *xmlParser) element(start xml.StartElement, pos Position, depth int) (*Document, error) {
	if depth > maxDepth {
		return nil, depthError(FormatXML, pos)
	}

	var (
		entries []*xmlEntry
		byKey   = map[string]*xmlEntry{}
		text    strings.Builder
	)
	add := func(key string, at Position, v *Document) {
		if e, ok := byKey[key]; ok {
			e.values = append(e.values, v)
			return
		}
		e := &xmlEntry{key: key, pos: at, values: []*Document{v}}
		byKey[key] = e
		entries = append(entries, e)
	}

	for _, a := range start.Attr {
		if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			continue
		}
		add(XMLAttrPrefix+a.Name.Local, pos, String(a.Value).at(pos))
	}

	for {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, p.fail(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			at := p.pos()
			child, err := p.element(t, at, depth+1)
			if err != nil {
				return nil, err
			}
			add(t.Name.Local, at, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			body := strings.TrimSpace(text.String())
			if len(entries) == 0 {
				return String(body).at(pos), nil
			}
			if body != "" {
				add(XMLTextKey, pos, String(body).at(pos))
			}
			doc := Mapping().at(pos)
			for _, e := range entries {
				if len(e.values) == 1 {
					doc.set(e.key, e.values[0])
					continue
				}
				doc.set(e.key, Sequence(e.values...).at(e.pos))
			}
			return doc, nil
		}
	}
}

func (p *xmlParser) fail(err error) error {
	var syn *xml.SyntaxError
	if errors.As(err, &syn) {
		return &ParseError{Format: FormatXML, Line: syn.Line, Msg: syn.Msg, Err: err}
	}
	if errors.Is(err, io.EOF) {
		at := p.pos()
		return &ParseError{Format: FormatXML, Line: at.Line, Column: at.Column, Msg: "unexpected end of input", Err: io.ErrUnexpectedEOF}
	}
	at := p.pos()
	return &ParseError{Format: FormatXML, Line: at.Line, Column: at.Column, Msg: err.Error(), Err: err}
}

func (p *xmlParser) failf(format string, args ...any) error {
	at := p.pos()
	return &ParseError{Format: FormatXML, Line: at.Line, Column: at.Column, Msg: fmt.Sprintf(format, args...)}
}

// charsetReader decodes documents that declare a non UTF-8 encoding.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}
