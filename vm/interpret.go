package vm

import (
	"bufio"
	"io"
)

// tapeSize is the fixed size of the ring tape every Interpreter operates
// over. The data pointer wraps modulo this value in both directions.
const tapeSize = 65536

// Interpreter is a direct-threaded evaluator over a linked program and a
// fixed-size ring tape. Input and output are buffered the same way the
// teacher VM buffers its own stdin/stdout.
type Interpreter struct {
	program LinkedProgram
	tape    [tapeSize]byte
	dp      int64
	ip      uint64

	reader *bufio.Reader
	writer *bufio.Writer
}

// NewInterpreter builds an Interpreter ready to run program, reading from
// in and writing to out.
func NewInterpreter(program LinkedProgram, in io.Reader, out io.Writer) *Interpreter {
	return &Interpreter{
		program: program,
		reader:  bufio.NewReader(in),
		writer:  bufio.NewWriter(out),
	}
}

// Run executes the program to completion. It returns CouldNotReadInputError
// when a Read instruction hits EOF, InputOutputFailureError for any other
// I/O failure, and nil once the program falls off the end of the
// instruction stream.
func (vm *Interpreter) Run() error {
	for vm.ip < uint64(len(vm.program)) {
		inst := vm.program[vm.ip]

		switch inst.Op {
		case OpIncrDp:
			vm.dp = wrapTapeIndex(vm.dp + inst.Amount)
			vm.ip++

		case OpIncr:
			addr := wrapTapeIndex(vm.dp + inst.Offset)
			vm.tape[addr] += byte(inst.Byte)
			vm.ip++

		case OpSet:
			addr := wrapTapeIndex(vm.dp + inst.Offset)
			vm.tape[addr] = byte(inst.Byte)
			vm.ip++

		case OpMul:
			addr := wrapTapeIndex(vm.dp + inst.Offset)
			vm.tape[addr] += vm.tape[vm.dp] * byte(inst.Byte)
			vm.ip++

		case OpBranchIfZero:
			if vm.tape[vm.dp] == 0 {
				vm.ip = inst.Dest
			} else {
				vm.ip++
			}

		case OpBranchIfNotZero:
			if vm.tape[vm.dp] != 0 {
				vm.ip = inst.Dest
			} else {
				vm.ip++
			}

		case OpRead:
			if err := vm.writer.Flush(); err != nil {
				return &InputOutputFailureError{Cause: err}
			}
			b, err := vm.reader.ReadByte()
			if err != nil {
				if err == io.EOF {
					return &CouldNotReadInputError{}
				}
				return &InputOutputFailureError{Cause: err}
			}
			vm.tape[vm.dp] = b
			vm.ip++

		case OpWrite:
			if err := vm.writer.WriteByte(vm.tape[vm.dp]); err != nil {
				return &InputOutputFailureError{Cause: err}
			}
			vm.ip++
		}
	}

	if err := vm.writer.Flush(); err != nil {
		return &InputOutputFailureError{Cause: err}
	}
	return nil
}

// wrapTapeIndex folds an arbitrary signed offset into [0, tapeSize) using
// signed modulo semantics, so a negative dp never underflows the way it
// would if the pointer were stored in an unsigned type.
func wrapTapeIndex(i int64) int64 {
	m := i % tapeSize
	if m < 0 {
		m += tapeSize
	}
	return m
}
