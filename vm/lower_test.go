package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLowerFiltersToRecognisedSymbols(t *testing.T) {
	program := Lower([]byte("+-><[],. this is a comment\n\t"))

	assert.Equal(t, UnlinkedProgram{
		Incr(1, 0),
		Incr(-1, 0),
		IncrDp(1),
		IncrDp(-1),
		BranchIfZero(0),
		BranchIfNotZero(0),
		Read(),
		Write(),
	}, program)
}

func TestLowerEmptyOnNoRecognisedSymbols(t *testing.T) {
	program := Lower([]byte("hello world"))
	assert.Empty(t, program)
}

func TestLowerNeverFails(t *testing.T) {
	assert.NotPanics(t, func() {
		Lower([]byte{})
	})
}
