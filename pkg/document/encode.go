package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Encode serialises a document in the given format, keeping mapping order.
// XML has no lossless encoding for arbitrary documents and returns
// ErrEncodeUnsupported.
func Encode(format Format, d *Document) ([]byte, error) {
	switch format {
	case FormatJSON:
		var buf bytes.Buffer
		if err := encodeJSON(&buf, d, 0); err != nil {
			return nil, err
		}
		buf.WriteByte('\n')
		return buf.Bytes(), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(yamlNode(d)); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrEncodeUnsupported, format)
	}
}

func encodeJSON(buf *bytes.Buffer, d *Document, indent int) error {
	pad := strings.Repeat("  ", indent+1)
	switch d.Kind() {
	case KindMapping:
		if d.Len() == 0 {
			buf.WriteString("{}")
			return nil
		}
		buf.WriteString("{\n")
		for i, f := range d.Fields() {
			key, err := json.Marshal(f.Key)
			if err != nil {
				return err
			}
			buf.WriteString(pad)
			buf.Write(key)
			buf.WriteString(": ")
			if err := encodeJSON(buf, f.Value, indent+1); err != nil {
				return err
			}
			if i < d.Len()-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		buf.WriteString(strings.Repeat("  ", indent))
		buf.WriteByte('}')
	case KindSequence:
		if d.Len() == 0 {
			buf.WriteString("[]")
			return nil
		}
		buf.WriteString("[\n")
		for i, it := range d.Items() {
			buf.WriteString(pad)
			if err := encodeJSON(buf, it, indent+1); err != nil {
				return err
			}
			if i < d.Len()-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		buf.WriteString(strings.Repeat("  ", indent))
		buf.WriteByte(']')
	case KindString:
		b, err := json.Marshal(d.StringValue())
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindNumber:
		if _, ok := d.Float64(); !ok {
			return fmt.Errorf("encode json: invalid number %q", d.NumberLiteral())
		}
		buf.WriteString(d.NumberLiteral().String())
	default:
		buf.WriteString(d.Literal())
	}
	return nil
}

func yamlNode(d *Document) *yaml.Node {
	switch d.Kind() {
	case KindMapping:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, f := range d.Fields() {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Key},
				yamlNode(f.Value))
		}
		return n
	case KindSequence:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, it := range d.Items() {
			n.Content = append(n.Content, yamlNode(it))
		}
		return n
	case KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: d.StringValue()}
	case KindNumber:
		tag := "!!float"
		if d.IsInteger() && !strings.ContainsAny(d.NumberLiteral().String(), ".eE") {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: d.NumberLiteral().String()}
	case KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: d.Literal()}
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}
