package vm

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Bytecode opcodes. These numbers are the wire format and must not be
// renumbered without bumping a format version; they intentionally do not
// match Op's in-memory ordering.
const (
	bytecodeIncrDp          byte = 0
	bytecodeIncr            byte = 1
	bytecodeBranchIfZero    byte = 2
	bytecodeBranchIfNotZero byte = 3
	bytecodeRead            byte = 4
	bytecodeWrite           byte = 5
	bytecodeSet             byte = 6
	bytecodeMul             byte = 7
)

// Encode serialises a linked program to the big-endian bytecode format.
func Encode(program LinkedProgram) []byte {
	out := make([]byte, 0, len(program)*9)

	for _, inst := range program {
		switch inst.Op {
		case OpIncrDp:
			out = append(out, bytecodeIncrDp)
			out = appendInt64(out, inst.Amount)
		case OpIncr:
			out = append(out, bytecodeIncr)
			out = append(out, byte(inst.Byte))
			out = appendInt64(out, inst.Offset)
		case OpBranchIfZero:
			out = append(out, bytecodeBranchIfZero)
			out = appendUint64(out, inst.Dest)
		case OpBranchIfNotZero:
			out = append(out, bytecodeBranchIfNotZero)
			out = appendUint64(out, inst.Dest)
		case OpRead:
			out = append(out, bytecodeRead)
		case OpWrite:
			out = append(out, bytecodeWrite)
		case OpSet:
			out = append(out, bytecodeSet)
			out = append(out, byte(inst.Byte))
			out = appendInt64(out, inst.Offset)
		case OpMul:
			out = append(out, bytecodeMul)
			out = append(out, byte(inst.Byte))
			out = appendInt64(out, inst.Offset)
		}
	}

	return out
}

// Decode parses a byte stream produced by Encode back into a linked
// program. Decoding is strict: an unrecognised opcode byte or a stream
// that truncates mid-instruction is an error, never silently skipped.
func Decode(data []byte) (LinkedProgram, error) {
	program := make(LinkedProgram, 0, len(data)/2)

	pos := 0
	for pos < len(data) {
		opcode := data[pos]
		start := pos
		pos++

		switch opcode {
		case bytecodeIncrDp:
			amount, err := readInt64(data, &pos)
			if err != nil {
				return nil, wrapTruncated(start, err)
			}
			program = append(program, IncrDp(amount))
		case bytecodeIncr:
			amount, err := readByte(data, &pos)
			if err != nil {
				return nil, wrapTruncated(start, err)
			}
			offset, err := readInt64(data, &pos)
			if err != nil {
				return nil, wrapTruncated(start, err)
			}
			program = append(program, Incr(int8(amount), offset))
		case bytecodeBranchIfZero:
			dest, err := readUint64(data, &pos)
			if err != nil {
				return nil, wrapTruncated(start, err)
			}
			program = append(program, BranchIfZero(dest))
		case bytecodeBranchIfNotZero:
			dest, err := readUint64(data, &pos)
			if err != nil {
				return nil, wrapTruncated(start, err)
			}
			program = append(program, BranchIfNotZero(dest))
		case bytecodeRead:
			program = append(program, Read())
		case bytecodeWrite:
			program = append(program, Write())
		case bytecodeSet:
			amount, err := readByte(data, &pos)
			if err != nil {
				return nil, wrapTruncated(start, err)
			}
			offset, err := readInt64(data, &pos)
			if err != nil {
				return nil, wrapTruncated(start, err)
			}
			program = append(program, Set(int8(amount), offset))
		case bytecodeMul:
			amount, err := readByte(data, &pos)
			if err != nil {
				return nil, wrapTruncated(start, err)
			}
			offset, err := readInt64(data, &pos)
			if err != nil {
				return nil, wrapTruncated(start, err)
			}
			program = append(program, Mul(int8(amount), offset))
		default:
			return nil, &UnknownBytecodeOpcodeError{Opcode: opcode, Position: start}
		}
	}

	return program, nil
}

func appendInt64(buf []byte, v int64) []byte {
	return appendUint64(buf, uint64(v))
}

func appendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

func readInt64(data []byte, pos *int) (int64, error) {
	v, err := readUint64(data, pos)
	return int64(v), err
}

func readUint64(data []byte, pos *int) (uint64, error) {
	if *pos+8 > len(data) {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.BigEndian.Uint64(data[*pos : *pos+8])
	*pos += 8
	return v, nil
}

func readByte(data []byte, pos *int) (byte, error) {
	if *pos+1 > len(data) {
		return 0, io.ErrUnexpectedEOF
	}
	b := data[*pos]
	*pos++
	return b, nil
}

func wrapTruncated(position int, cause error) error {
	return &InputOutputFailureError{Cause: &truncatedBytecodeError{Position: position, Cause: cause}}
}

type truncatedBytecodeError struct {
	Position int
	Cause    error
}

func (e *truncatedBytecodeError) Error() string {
	return fmt.Sprintf("truncated bytecode instruction starting at byte %d: %s", e.Position, e.Cause)
}

func (e *truncatedBytecodeError) Unwrap() error {
	return e.Cause
}
