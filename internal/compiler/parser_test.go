package compiler_test

import (
	"testing"

	"github.com/aretw0/waypoint/internal/compiler"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		line string
		want domain.Directive
	}{
		{"heading depth 0", "# Setup", domain.SetContext{Depth: 0, Label: "Setup"}},
		{"heading depth 2", "### Deep section", domain.SetContext{Depth: 2, Label: "Deep section"}},
		{"indented heading", "  ## B", domain.SetContext{Depth: 1, Label: "B"}},
		{"hash without space", "#tag", nil},
		{"set", "%%workflow set X = 1%%", domain.SetVariable{Name: "X", Value: "1"}},
		{"set with spaces before close", "%%workflow set X = hello world  %%", domain.SetVariable{Name: "X", Value: "hello world"}},
		{"set without split", "%%workflow set X=1%%", nil},
		{"set with two splits", "%%workflow set X = 1 = 2%%", nil},
		{"set_temp", "%%workflow set_temp answer = yes%%", domain.SetTemporaryVariable{Name: "answer", Value: "yes"}},
		{"unset", "%%workflow unset X%%", domain.UnsetVariable{Name: "X"}},
		{"get", "%%workflow get name%%", domain.GetVariable{Name: "name", Position: 42}},
		{"if", "%%workflow if X = yes%%", domain.Conditional{Variable: "X", Expected: "yes"}},
		{"if malformed", "%%workflow if X%%", nil},
		{"bullet", "- Step 1", nil},
		{"plain", "some text", nil},
		{"start marker", "%%workflow start%%", nil},
		{"answered", "%%workflow got name%%", nil},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, compiler.Parse(tt.line, 42))
		})
	}
}

func TestParse_UnsetWithEmptyName(t *testing.T) {
	// Legacy leniency: an empty field is accepted rather than rejected.
	assert.Equal(t, domain.UnsetVariable{Name: ""}, compiler.Parse("%%workflow unset %%", 0))
}

func TestParser_CustomMarkers(t *testing.T) {
	m := domain.DefaultMarkers()
	m.Open = "<!--"
	m.Close = "-->"
	m.Keyword = "wf"
	p := compiler.NewParser(compiler.WithMarkers(m))

	assert.Equal(t, domain.SetVariable{Name: "X", Value: "1"}, p.Parse("<!--wf set X = 1-->", 0))
	assert.Nil(t, p.Parse("%%workflow set X = 1%%", 0))
	assert.True(t, p.IsStart("<!--wf start-->"))
	assert.True(t, p.IsEnd("  <!--wf end-->  "))
}

func TestParser_Classification(t *testing.T) {
	p := compiler.NewParser()

	assert.True(t, p.IsControl("%%workflow here%%"))
	assert.True(t, p.IsControl("%%workflow got name%%"))
	assert.True(t, p.IsControl("## Heading"))
	assert.True(t, p.IsControl("%%workflow if X = 1%%"))
	assert.False(t, p.IsControl("- a step"))
	assert.False(t, p.IsControl("%%workflow set X=1%%"))

	assert.True(t, p.IsMalformed("%%workflow set X=1%%"))
	assert.True(t, p.IsMalformed("%%workflow frobnicate%%"))
	assert.False(t, p.IsMalformed("%%workflow set X = 1%%"))
	assert.False(t, p.IsMalformed("plain"))

	assert.True(t, p.IsResume("\t%%workflow here%%"))
	assert.False(t, p.IsStart("%%workflow here%%"))
	assert.True(t, p.IsStructural("%%workflow start%%"))
	assert.True(t, p.IsStructural("  %%workflow end%%"))
	assert.False(t, p.IsStructural("%%workflow set X = 1%%"))

	assert.True(t, p.IsTemporary("  %%workflow set_temp a = b%%"))
	name, ok := p.AnsweredName("%%workflow got city%%")
	assert.True(t, ok)
	assert.Equal(t, "city", name)
}

func TestIsBullet(t *testing.T) {
	assert.True(t, compiler.IsBullet("- a"))
	assert.True(t, compiler.IsBullet("    - nested"))
	assert.True(t, compiler.IsBullet("\t-"))
	assert.False(t, compiler.IsBullet("* star"))
	assert.False(t, compiler.IsBullet("text - dash"))
}

func TestHeadingDepth(t *testing.T) {
	assert.Equal(t, 1, compiler.HeadingDepth("# A"))
	assert.Equal(t, 3, compiler.HeadingDepth("### C"))
	assert.Equal(t, 0, compiler.HeadingDepth("###"))
	assert.Equal(t, 0, compiler.HeadingDepth("- # not"))
}
