package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashString(t *testing.T) {
	assert.Equal(t, HashString("abc"), HashString("abc"))
	assert.NotEqual(t, HashString("abc"), HashString("acb"))
	assert.Equal(t, fnvOffset64, HashString(""))
}

func TestCombineIsOrderSensitive(t *testing.T) {
	a, b := HashString("a"), HashString("b")
	assert.NotEqual(t, Combine(Combine(0, a), b), Combine(Combine(0, b), a))
	assert.Equal(t, Mix(a)+Mix(b), Mix(b)+Mix(a))
}

func TestHashUint64(t *testing.T) {
	assert.NotEqual(t, HashUint64(fnvOffset64, 1), HashUint64(fnvOffset64, 256))
}
