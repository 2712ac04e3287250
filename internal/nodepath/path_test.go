package nodepath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParentAndChild(t *testing.T) {
	p := MustParse("/soc/region0")

	assert.Equal(t, "region0", p.Name())
	assert.Equal(t, "/soc", p.Parent().String())
	assert.Equal(t, "/", p.Parent().Parent().String())
	assert.True(t, Root().Parent().IsRoot())
	assert.Equal(t, "/soc/region0/clk0", p.Child("clk0").String())

	// Child must not alias the receiver's backing array.
	a := p.Child("a")
	b := p.Child("b")
	assert.Equal(t, "/soc/region0/a", a.String())
	assert.Equal(t, "/soc/region0/b", b.String())
}

func TestEqual(t *testing.T) {
	assert.True(t, MustParse("/a/b").Equal(MustParse("/a/b")))
	assert.False(t, MustParse("/a/b").Equal(MustParse("/a")))
	assert.False(t, MustParse("/a/b").Equal(MustParse("/a/c")))
	assert.True(t, Root().Equal(MustParse("/")))
}
