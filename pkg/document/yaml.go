package document

import (
	"encoding/json"
	"fmt"
	"math/big"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

var yamlLineRe = regexp.MustCompile(`line (\d+)`)

// Alias expansion is bounded by the number of nodes it would materialize, so
// a few hundred bytes of nested anchors cannot blow up into millions of
// nodes. The budget grows with the input size.
const (
	minAliasBudget     = 100_000
	aliasBudgetPerByte = 100
)

func parseYAML(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		pe := &ParseError{Format: FormatYAML, Msg: err.Error(), Err: err}
		if m := yamlLineRe.FindStringSubmatch(err.Error()); m != nil {
			pe.Line, _ = strconv.Atoi(m[1])
		}
		return nil, pe
	}
	// Empty stream.
	if root.Kind == 0 {
		return Null().at(Position{Line: 1, Column: 1}), nil
	}
	c := &yamlConverter{
		anchors: map[*yaml.Node]yamlAnchor{},
		budget:  max(minAliasBudget, aliasBudgetPerByte*len(data)),
	}
	doc, _, err := c.convert(&root, 0)
	return doc, err
}

// yamlAnchor is a converted anchored node and the number of nodes it holds.
type yamlAnchor struct {
	doc  *Document
	size int
}

type yamlConverter struct {
	// anchors caches converted anchored nodes. Documents are immutable, so
	// every alias shares the same value.
	anchors map[*yaml.Node]yamlAnchor

	// expanded counts nodes materialized through aliases.
	expanded int
	budget   int
}

func yamlPos(n *yaml.Node) Position {
	return Position{Line: n.Line, Column: n.Column}
}

// convert returns the document for n and its node count.
func (c *yamlConverter) convert(n *yaml.Node, depth int) (*Document, int, error) {
	if depth > maxDepth {
		return nil, 0, depthError(FormatYAML, yamlPos(n))
	}
	if a, ok := c.anchors[n]; ok {
		return a.doc, a.size, nil
	}

	doc, size, err := c.convertNode(n, depth)
	if err != nil {
		return nil, 0, err
	}
	if n.Anchor != "" {
		c.anchors[n] = yamlAnchor{doc: doc, size: size}
	}
	return doc, size, nil
}

func (c *yamlConverter) convertNode(n *yaml.Node, depth int) (*Document, int, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null().at(yamlPos(n)), 1, nil
		}
		return c.convert(n.Content[0], depth)

	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, 0, &ParseError{Format: FormatYAML, Line: n.Line, Column: n.Column, Msg: "unresolved alias " + n.Value}
		}
		v, size, err := c.convert(n.Alias, depth+1)
		if err != nil {
			return nil, 0, err
		}
		c.expanded += size
		if c.expanded > c.budget {
			return nil, 0, &ParseError{
				Format: FormatYAML,
				Line:   n.Line,
				Column: n.Column,
				Msg:    fmt.Sprintf("alias *%s expands the document beyond %d nodes", n.Value, c.budget),
			}
		}
		return v, size, nil

	case yaml.SequenceNode:
		items := make([]*Document, 0, len(n.Content))
		total := 1
		for _, item := range n.Content {
			v, size, err := c.convert(item, depth+1)
			if err != nil {
				return nil, 0, err
			}
			items = append(items, v)
			total += size
		}
		return Sequence(items...).at(yamlPos(n)), total, nil

	case yaml.MappingNode:
		return c.convertMapping(n, depth)

	case yaml.ScalarNode:
		doc, err := convertYAMLScalar(n)
		return doc, 1, err
	}

	return nil, 0, &ParseError{Format: FormatYAML, Line: n.Line, Column: n.Column, Msg: fmt.Sprintf("unsupported node kind %d", n.Kind)}
}

// convertMapping builds a mapping. Explicit keys always win over keys
// brought in through "<<" merges, whatever their order in the source.
func (c *yamlConverter) convertMapping(n *yaml.Node, depth int) (*Document, int, error) {
	doc := Mapping().at(yamlPos(n))
	explicit := map[string]bool{}
	total := 1

	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]

		if k.Kind == yaml.ScalarNode && k.ShortTag() == "!!merge" {
			size, err := c.merge(doc, explicit, v, depth)
			if err != nil {
				return nil, 0, err
			}
			total += size
			continue
		}

		if k.Kind != yaml.ScalarNode {
			return nil, 0, &ParseError{Format: FormatYAML, Line: k.Line, Column: k.Column, Msg: "mapping keys must be scalars"}
		}
		val, size, err := c.convert(v, depth+1)
		if err != nil {
			return nil, 0, err
		}
		doc.set(k.Value, val)
		explicit[k.Value] = true
		total += size
	}
	return doc, total, nil
}

func (c *yamlConverter) merge(doc *Document, explicit map[string]bool, src *yaml.Node, depth int) (int, error) {
	sources := []*yaml.Node{src}
	if src.Kind == yaml.SequenceNode {
		sources = src.Content
	}

	total := 0
	for _, s := range sources {
		m, size, err := c.convert(s, depth+1)
		if err != nil {
			return 0, err
		}
		if m.Kind() != KindMapping {
			return 0, &ParseError{Format: FormatYAML, Line: s.Line, Column: s.Column, Msg: "merge value must be a mapping"}
		}
		total += size
		for _, f := range m.Fields() {
			if explicit[f.Key] {
				continue
			}
			if _, seen := doc.Get(f.Key); seen {
				continue
			}
			doc.set(f.Key, f.Value)
		}
	}
	return total, nil
}

func convertYAMLScalar(n *yaml.Node) (*Document, error) {
	pos := yamlPos(n)
	fail := func(err error) error {
		return &ParseError{Format: FormatYAML, Line: n.Line, Column: n.Column, Msg: err.Error(), Err: err}
	}

	switch n.ShortTag() {
	case "!!null":
		return Null().at(pos), nil

	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, fail(err)
		}
		return Bool(b).at(pos), nil

	case "!!int":
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fail(err)
		}
		switch x := v.(type) {
		case int:
			return Int(int64(x)).at(pos), nil
		case int64:
			return Int(x).at(pos), nil
		case uint64:
			return Number(json.Number(strconv.FormatUint(x, 10))).at(pos), nil
		case float64:
			return Float(x).at(pos), nil
		}
		// Out of range for the decoder: keep the exact value when it is a
		// plain base-10 integer.
		if bi, ok := new(big.Int).SetString(n.Value, 10); ok {
			return Number(json.Number(bi.String())).at(pos), nil
		}
		return String(n.Value).at(pos), nil

	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, fail(err)
		}
		return Float(f).at(pos), nil

	default:
		// !!str, !!timestamp, !!binary and custom tags keep their text.
		return String(n.Value).at(pos), nil
	}
}
