package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runAndCapture runs an already linked (possibly optimised) program with no
// input errors expected and returns the resulting tape for inspection.
func runAndCapture(t *testing.T, linked LinkedProgram, input []byte) [tapeSize]byte {
	t.Helper()

	var out bytes.Buffer
	interp := NewInterpreter(linked, bytes.NewReader(input), &out)
	require.NoError(t, interp.Run())
	return interp.tape
}

func runSource(t *testing.T, source string, input []byte) string {
	t.Helper()

	linked, err := Link(Lower([]byte(source)))
	require.NoError(t, err)

	var out bytes.Buffer
	interp := NewInterpreter(linked, bytes.NewReader(input), &out)
	require.NoError(t, interp.Run())
	return out.String()
}

func TestHelloWorld(t *testing.T) {
	source := "++++++++[>++++[>++>+++>+++>+<<<<-]>+>+>->>+[<]<-]>>.>---.+++++++..+++.>>.<-.<.+++.------.--------.>>+.>++."
	assert.Equal(t, "Hello World!\n", runSource(t, source, nil))
}

func TestCatUntilEOF(t *testing.T) {
	linked, err := Link(Lower([]byte(",[.,]")))
	require.NoError(t, err)

	var out bytes.Buffer
	interp := NewInterpreter(linked, strings.NewReader("abc\n"), &out)
	err = interp.Run()

	assert.Equal(t, "abc\n", out.String())

	var eofErr *CouldNotReadInputError
	require.ErrorAs(t, err, &eofErr)
}

func TestClearLeavesCellZero(t *testing.T) {
	tape := runAndCapture(t, mustLink(t, Lower([]byte("+++[-]"))), nil)
	assert.EqualValues(t, 0, tape[0])
}

func TestUnbalancedBrackets(t *testing.T) {
	_, err := Link(Lower([]byte("[[]")))
	var missingClose *MissingClosingBracketError
	require.ErrorAs(t, err, &missingClose)
	assert.Equal(t, 0, missingClose.Position)

	_, err = Link(Lower([]byte("]")))
	var missingOpen *MissingOpeningBracketError
	require.ErrorAs(t, err, &missingOpen)
	assert.Equal(t, 0, missingOpen.Position)
}

func TestWrapTapeIndexHandlesNegativeMotion(t *testing.T) {
	assert.EqualValues(t, tapeSize-1, wrapTapeIndex(-1))
	assert.EqualValues(t, 0, wrapTapeIndex(tapeSize))
	assert.EqualValues(t, 5, wrapTapeIndex(tapeSize+5))
}

func mustLink(t *testing.T, program UnlinkedProgram) LinkedProgram {
	t.Helper()
	linked, err := Link(program)
	require.NoError(t, err)
	return linked
}
