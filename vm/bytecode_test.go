package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytecodeRoundTrip(t *testing.T) {
	linked, err := Link(Lower([]byte("++[->+++>+<<]>.")))
	require.NoError(t, err)

	encoded := Encode(linked)
	decoded, err := Decode(encoded)
	require.NoError(t, err)

	assert.True(t, linked.Equal(decoded), "decode(encode(P)) should equal P")
}

func TestBytecodeEncodesBigEndian(t *testing.T) {
	linked, err := Link(UnlinkedProgram{IncrDp(1)})
	require.NoError(t, err)

	encoded := Encode(linked)
	require.Len(t, encoded, 9)
	assert.Equal(t, bytecodeIncrDp, encoded[0])
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 1}, encoded[1:])
}

func TestDecodeRejectsUnknownOpcode(t *testing.T) {
	_, err := Decode([]byte{0xFF})

	var unknown *UnknownBytecodeOpcodeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, byte(0xFF), unknown.Opcode)
}

func TestDecodeRejectsTruncatedInstruction(t *testing.T) {
	_, err := Decode([]byte{bytecodeIncrDp, 0, 0, 0})

	var ioErr *InputOutputFailureError
	require.ErrorAs(t, err, &ioErr)
}
