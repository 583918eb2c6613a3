package schema

import (
	"math"
	"strings"

	"github.com/3leaps/fsdv/pkg/document"
)

// Sample builds a document that satisfies s with every required field
// populated. Optional fields are left out. Patterns are not inverted: a
// pattern-constrained string gets the first enum value when there is one,
// otherwise a placeholder that may not match.
func Sample(s *Schema) *document.Document {
	if s == nil {
		return document.String("sample")
	}
	if len(s.Constraints.Enum) > 0 {
		return s.Constraints.Enum[0]
	}

	switch s.Variant {
	case VariantObject:
		var fields []document.Field
		for _, f := range s.Fields {
			if !f.Required {
				continue
			}
			fields = append(fields, document.Field{Key: f.Name, Value: Sample(f.Schema)})
		}
		return document.Mapping(fields...)

	case VariantArray:
		n := 1
		if s.Constraints.MinItems != nil && *s.Constraints.MinItems > n {
			n = *s.Constraints.MinItems
		}
		if s.Constraints.MaxItems != nil && *s.Constraints.MaxItems < n {
			n = *s.Constraints.MaxItems
		}
		items := make([]*document.Document, n)
		for i := range items {
			items[i] = Sample(s.Items)
		}
		return document.Sequence(items...)
	}

	if len(s.Types) == 0 {
		return document.String("sample")
	}
	switch s.Types[0] {
	case TypeInteger:
		return document.Int(int64(math.Ceil(sampleNumber(s.Constraints))))
	case TypeNumber:
		return document.Float(sampleNumber(s.Constraints))
	case TypeBoolean:
		return document.Bool(true)
	case TypeNull:
		return document.Null()
	case TypeObject:
		return document.Mapping()
	case TypeArray:
		return document.Sequence()
	default:
		return document.String(sampleString(s.Constraints))
	}
}

// sampleNumber picks a value inside the declared range.
func sampleNumber(c Constraints) float64 {
	lo := math.Inf(-1)
	if c.Minimum != nil {
		lo = *c.Minimum
	}
	if c.ExclusiveMinimum != nil && *c.ExclusiveMinimum >= lo {
		lo = math.Floor(*c.ExclusiveMinimum) + 1
	}
	hi := math.Inf(1)
	if c.Maximum != nil {
		hi = *c.Maximum
	}
	if c.ExclusiveMaximum != nil && *c.ExclusiveMaximum <= hi {
		hi = math.Ceil(*c.ExclusiveMaximum) - 1
	}

	switch {
	case !math.IsInf(lo, 0):
		return lo
	case !math.IsInf(hi, 0) && hi < 0:
		return hi
	default:
		return 0
	}
}

func sampleString(c Constraints) string {
	s := "sample"
	if c.MinLength != nil && len(s) < *c.MinLength {
		s += strings.Repeat("x", *c.MinLength-len(s))
	}
	if c.MaxLength != nil && len(s) > *c.MaxLength {
		s = s[:*c.MaxLength]
	}
	return s
}
