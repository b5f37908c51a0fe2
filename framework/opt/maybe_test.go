package opt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type account struct {
	Address string
}

func TestNone(t *testing.T) {
	assert.False(t, None[string]().IsDefined())
	assert.Equal(t, 0, None[int]().Value())
	assert.Equal(t, account{}, None[account]().Value())
	assert.Equal(t, "[none]", None[int]().String())
}

func TestSome(t *testing.T) {
	assert.True(t, Some("").IsDefined())
	assert.Equal(t, "x", Some("x").Value())
	assert.Equal(t, "12", Some(12).String())
}

func TestOrElse(t *testing.T) {
	assert.Equal(t, 3, None[int]().OrElse(3))
	assert.Equal(t, 4, Some(4).OrElse(3))
}
