package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkResolvesNestedBrackets(t *testing.T) {
	program := Lower([]byte("[[]]"))
	linked, err := Link(program)
	require.NoError(t, err)

	require.Len(t, linked, 4)
	assert.EqualValues(t, 3, linked[0].Dest)
	assert.EqualValues(t, 2, linked[1].Dest)
	assert.EqualValues(t, 1, linked[2].Dest)
	assert.EqualValues(t, 0, linked[3].Dest)
}

func TestLinkMissingClosingBracket(t *testing.T) {
	_, err := Link(Lower([]byte("[[]")))

	var missing *MissingClosingBracketError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, 0, missing.Position)
}

func TestLinkMissingOpeningBracket(t *testing.T) {
	_, err := Link(Lower([]byte("]")))

	var missing *MissingOpeningBracketError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, 0, missing.Position)
}

func TestLinkDoesNotReorderInstructions(t *testing.T) {
	program := Lower([]byte("+[-]+"))
	linked, err := Link(program)
	require.NoError(t, err)

	require.Len(t, linked, len(program))
	for i := range program {
		assert.Equal(t, program[i].Op, linked[i].Op)
	}
}
