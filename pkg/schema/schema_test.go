package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/3leaps/fsdv/pkg/document"
)

func TestType_Matches(t *testing.T) {
	tests := []struct {
		typ  Type
		doc  *document.Document
		want bool
	}{
		{TypeString, document.String("x"), true},
		{TypeString, document.Int(1), false},
		{TypeNumber, document.Float(1.5), true},
		{TypeInteger, document.Int(3), true},
		{TypeInteger, document.Float(3.0), true},
		{TypeInteger, document.Float(3.5), false},
		{TypeBoolean, document.Bool(false), true},
		{TypeNull, document.Null(), true},
		{TypeObject, document.Mapping(), true},
		{TypeArray, document.Sequence(), true},
		{TypeArray, document.Mapping(), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ)+"/"+tt.doc.Literal(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.Matches(tt.doc))
		})
	}
}

func TestSchema_TypeMatches(t *testing.T) {
	assert.True(t, (&Schema{}).TypeMatches(document.Bool(true)), "no declared type accepts anything")

	s := Scalar(TypeString, TypeNull)
	assert.True(t, s.TypeMatches(document.Null()))
	assert.False(t, s.TypeMatches(document.Int(1)))
	assert.Equal(t, "string|null", s.TypeNames())
}

func TestSample(t *testing.T) {
	minAge := 18.0
	three := 3
	s := ClosedObject(
		Required("name", Scalar(TypeString).WithConstraints(Constraints{MinLength: &three})),
		Required("age", Scalar(TypeInteger).WithConstraints(Constraints{Minimum: &minAge})),
		Optional("nickname", Scalar(TypeString)),
		Required("role", (&Schema{}).WithConstraints(Constraints{Enum: []*document.Document{document.String("admin")}})),
		Required("tags", Array(Scalar(TypeString)).WithConstraints(Constraints{MinItems: &three})),
	)

	doc := Sample(s)
	assert.Equal(t, 4, doc.Len())

	_, hasNick := doc.Get("nickname")
	assert.False(t, hasNick)

	age, _ := doc.Get("age")
	assert.Equal(t, "18", age.Literal())

	role, _ := doc.Get("role")
	assert.Equal(t, "admin", role.StringValue())

	tags, _ := doc.Get("tags")
	assert.Equal(t, 3, tags.Len())
}
