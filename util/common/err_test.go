package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombine(t *testing.T) {
	assert.NoError(t, Combine(nil, nil))

	a := errors.New("a")
	err := Combine(nil, a)
	assert.ErrorIs(t, err, a)
}

func TestRecover(t *testing.T) {
	var got any
	func() {
		defer func() { got = recover() }()
		func() {
			defer Recover("test")
			panic("boom")
		}()
	}()
	assert.Nil(t, got)
}
