// Package vm implements the lexer, linker, optimisation pipeline, bytecode
// codec and interpreter for an eight-symbol tape language.
package vm

import "fmt"

// Op identifies the variant of an Instruction. The source language only
// ever lowers to IncrDp, Incr, BranchIfZero, BranchIfNotZero, Read and
// Write; Set and Mul are synthesized by the optimiser.
type Op byte

const (
	OpIncrDp Op = iota
	OpIncr
	OpSet
	OpMul
	OpBranchIfZero
	OpBranchIfNotZero
	OpRead
	OpWrite
)

func (o Op) String() string {
	switch o {
	case OpIncrDp:
		return "IncrDp"
	case OpIncr:
		return "Incr"
	case OpSet:
		return "Set"
	case OpMul:
		return "Mul"
	case OpBranchIfZero:
		return "BranchIfZero"
	case OpBranchIfNotZero:
		return "BranchIfNotZero"
	case OpRead:
		return "Read"
	case OpWrite:
		return "Write"
	default:
		return "?unknown?"
	}
}

// Instruction is the closed tagged variant described by the IR: every
// opcode is known at compile time and every pass/interpreter switches on
// Op. Only the fields relevant to a given Op are meaningful:
//
//	OpIncrDp          Amount (i64 pointer delta)
//	OpIncr, OpSet      Byte (i8 cell delta or value), Offset
//	OpMul              Byte (i8 multiplier), Offset
//	OpBranchIfZero     Dest (partner index, set by the linker)
//	OpBranchIfNotZero  Dest (partner index, set by the linker)
//	OpRead, OpWrite    (no payload)
type Instruction struct {
	Op     Op
	Amount int64
	Byte   int8
	Offset int64
	Dest   uint64
}

// IncrDp builds an IncrDp instruction.
func IncrDp(amount int64) Instruction { return Instruction{Op: OpIncrDp, Amount: amount} }

// Incr builds an Incr instruction.
func Incr(amount int8, offset int64) Instruction {
	return Instruction{Op: OpIncr, Byte: amount, Offset: offset}
}

// Set builds a Set instruction.
func Set(amount int8, offset int64) Instruction {
	return Instruction{Op: OpSet, Byte: amount, Offset: offset}
}

// Mul builds a Mul instruction.
func Mul(amount int8, offset int64) Instruction {
	return Instruction{Op: OpMul, Byte: amount, Offset: offset}
}

// BranchIfZero builds an unlinked BranchIfZero instruction.
func BranchIfZero(dest uint64) Instruction { return Instruction{Op: OpBranchIfZero, Dest: dest} }

// BranchIfNotZero builds an unlinked BranchIfNotZero instruction.
func BranchIfNotZero(dest uint64) Instruction {
	return Instruction{Op: OpBranchIfNotZero, Dest: dest}
}

// Read builds a Read instruction.
func Read() Instruction { return Instruction{Op: OpRead} }

// Write builds a Write instruction.
func Write() Instruction { return Instruction{Op: OpWrite} }

// String renders an instruction for debug output, the same spirit as the
// bytecode-to-mnemonic conversion the teacher VM does for its own opcodes.
func (i Instruction) String() string {
	switch i.Op {
	case OpIncrDp:
		return fmt.Sprintf("IncrDp %d", i.Amount)
	case OpIncr:
		return fmt.Sprintf("Incr %d @%d", i.Byte, i.Offset)
	case OpSet:
		return fmt.Sprintf("Set %d @%d", i.Byte, i.Offset)
	case OpMul:
		return fmt.Sprintf("Mul %d @%d", i.Byte, i.Offset)
	case OpBranchIfZero:
		return fmt.Sprintf("BranchIfZero -> %d", i.Dest)
	case OpBranchIfNotZero:
		return fmt.Sprintf("BranchIfNotZero -> %d", i.Dest)
	case OpRead:
		return "Read"
	case OpWrite:
		return "Write"
	default:
		return "?unknown?"
	}
}

// UnlinkedProgram is IR whose branch destinations have not been resolved
// yet. It can freely have instructions inserted or removed.
type UnlinkedProgram []Instruction

// LinkedProgram is IR in which every branch holds its partner's index.
type LinkedProgram []Instruction

// Equal reports whether two linked programs are instruction-for-instruction
// identical. The optimiser's convergence loop uses this to detect a fixed
// point.
func (p LinkedProgram) Equal(other LinkedProgram) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}
