package vm

import "sort"

// maxOptimiseIterations bounds the convergence loop. The spec requires a
// cap of at least 20; this mirrors the teacher's habit of keeping hard
// iteration limits generous rather than exact (see the teacher's own
// stackSize/numRegisters constants, picked with headroom rather than
// tuned to a minimum).
const maxOptimiseIterations = 32

// Optimisations is a bitmask of the four independently togglable passes.
type Optimisations uint8

const (
	CombineClears Optimisations = 1 << iota
	GroupInstructions
	ReorderInstructions
	CombineMultiplyLoops
)

// Has reports whether flag is set in o.
func (o Optimisations) Has(flag Optimisations) bool {
	return o&flag != 0
}

// ParseOptimisations builds an Optimisations mask from the CLI's
// comma-delimited `-o`/`--optimise` values. "all" enables every pass.
// Unrecognised names are ignored, matching the reference implementation's
// own from_strings (unknown flags are silently dropped, not rejected).
func ParseOptimisations(names []string) Optimisations {
	var opts Optimisations
	for _, n := range names {
		switch n {
		case "all":
			opts |= CombineClears | GroupInstructions | ReorderInstructions | CombineMultiplyLoops
		case "combine-clears":
			opts |= CombineClears
		case "group-instructions":
			opts |= GroupInstructions
		case "reorder-instructions":
			opts |= ReorderInstructions
		case "combine-multiply-loops":
			opts |= CombineMultiplyLoops
		}
	}
	return opts
}

// Optimise runs the enabled passes to a fixed point (or the iteration cap)
// and returns the resulting linked program. Linking is the only failure
// mode: a pass never fails, it just may not converge before the cap.
func Optimise(program UnlinkedProgram, opts Optimisations) (LinkedProgram, error) {
	previous, err := Link(program)
	if err != nil {
		return nil, err
	}

	for iter := 0; iter < maxOptimiseIterations; iter++ {
		current := UnlinkedProgram(append(LinkedProgram(nil), previous...))

		if opts.Has(CombineClears) {
			current = clearLoopFusion(LinkedProgram(current))
		}
		if opts.Has(GroupInstructions) {
			current = runLengthGroup(LinkedProgram(current))
		}
		if opts.Has(ReorderInstructions) {
			current = reorderOffsets(current)
		}
		if opts.Has(CombineMultiplyLoops) {
			relinked, err := Link(current)
			if err != nil {
				return nil, err
			}
			current = multiplyLoopFuse(relinked)
		}

		next, err := Link(current)
		if err != nil {
			return nil, err
		}

		if next.Equal(previous) {
			return next, nil
		}
		previous = next
	}

	return previous, nil
}

// clearLoopFusion replaces `[` `Incr{±1,0}` `]` with a single Set{0,0}.
// Anything that doesn't match the full three-instruction pattern is
// re-emitted unchanged, one instruction at a time, so a lone `[` followed
// by an unrelated instruction falls through untouched.
func clearLoopFusion(program LinkedProgram) UnlinkedProgram {
	result := make(UnlinkedProgram, 0, len(program))

	i := 0
	for i < len(program) {
		inst := program[i]

		if inst.Op == OpBranchIfZero && i+2 < len(program) {
			body := program[i+1]
			closing := program[i+2]

			if body.Op == OpIncr && body.Offset == 0 && (body.Byte == 1 || body.Byte == -1) &&
				closing.Op == OpBranchIfNotZero {
				result = append(result, Set(0, 0))
				i += 3
				continue
			}
		}

		result = append(result, inst)
		i++
	}

	return result
}

// runLengthGroup fuses adjacent Incr/Set/IncrDp instructions that touch
// the same offset, then drops any instruction whose net effect is zero.
func runLengthGroup(program LinkedProgram) UnlinkedProgram {
	result := make(UnlinkedProgram, 0, len(program))

	for _, inst := range program {
		if len(result) > 0 {
			if fused, ok := fuseAdjacent(result[len(result)-1], inst); ok {
				result[len(result)-1] = fused
				continue
			}
		}
		result = append(result, inst)
	}

	filtered := result[:0]
	for _, inst := range result {
		if inst.Op == OpIncr && inst.Byte == 0 {
			continue
		}
		if inst.Op == OpIncrDp && inst.Amount == 0 {
			continue
		}
		filtered = append(filtered, inst)
	}

	return filtered
}

func fuseAdjacent(prev, curr Instruction) (Instruction, bool) {
	switch {
	case prev.Op == OpIncr && curr.Op == OpIncr && prev.Offset == curr.Offset:
		return Incr(prev.Byte+curr.Byte, prev.Offset), true
	case prev.Op == OpIncrDp && curr.Op == OpIncrDp:
		return IncrDp(prev.Amount + curr.Amount), true
	case prev.Op == OpIncr && curr.Op == OpSet && prev.Offset == curr.Offset:
		return curr, true
	case prev.Op == OpSet && curr.Op == OpIncr && prev.Offset == curr.Offset:
		return Set(prev.Byte+curr.Byte, prev.Offset), true
	case prev.Op == OpSet && curr.Op == OpSet && prev.Offset == curr.Offset:
		return curr, true
	default:
		return Instruction{}, false
	}
}

// reorderOffsets hoists pointer motion out of maximal runs of
// Incr/Set/IncrDp, splitting at every branch or IO barrier.
func reorderOffsets(program UnlinkedProgram) UnlinkedProgram {
	result := make(UnlinkedProgram, 0, len(program))
	var run []Instruction

	flush := func() {
		if len(run) == 0 {
			return
		}
		result = append(result, reorderRun(run)...)
		run = nil
	}

	for _, inst := range program {
		switch inst.Op {
		case OpIncr, OpSet, OpIncrDp:
			run = append(run, inst)
		default:
			flush()
			result = append(result, inst)
		}
	}
	flush()

	return result
}

type offsetInstruction struct {
	inst   Instruction
	offset int64
}

func reorderRun(run []Instruction) []Instruction {
	placed := make([]offsetInstruction, 0, len(run))
	var cursor int64

	for _, inst := range run {
		switch inst.Op {
		case OpIncr:
			off := cursor + inst.Offset
			placed = append(placed, offsetInstruction{Incr(inst.Byte, off), off})
		case OpSet:
			off := cursor + inst.Offset
			placed = append(placed, offsetInstruction{Set(inst.Byte, off), off})
		case OpIncrDp:
			cursor += inst.Amount
		}
	}

	// Stable sort preserves original relative order within an offset, so
	// the Incr/Set composition rules from the grouping pass still apply
	// correctly on a later iteration.
	sort.SliceStable(placed, func(i, j int) bool {
		return placed[i].offset < placed[j].offset
	})

	result := make([]Instruction, 0, len(placed)+1)
	for _, p := range placed {
		result = append(result, p.inst)
	}
	if cursor != 0 {
		result = append(result, IncrDp(cursor))
	}

	return result
}

// multiplyLoopFuse recognises loop bodies that only shift and increment,
// have net-zero pointer motion, decrement cell 0 by exactly one per
// iteration, and touch at least one other cell. Such a loop is replaced by
// a fixed number of Mul instructions and a trailing Set{0,0}.
func multiplyLoopFuse(program LinkedProgram) UnlinkedProgram {
	result := make(UnlinkedProgram, 0, len(program))

	i := 0
	for i < len(program) {
		inst := program[i]

		if inst.Op == OpBranchIfZero {
			j := int(inst.Dest)
			if j > i && j < len(program) && program[j].Op == OpBranchIfNotZero {
				body := program[i+1 : j]
				if deltas, ok := qualifyMultiplyLoop(body); ok {
					offsets := make([]int64, 0, len(deltas))
					for offset, delta := range deltas {
						if offset != 0 && delta != 0 {
							offsets = append(offsets, offset)
						}
					}
					sort.Slice(offsets, func(a, b int) bool { return offsets[a] < offsets[b] })

					for _, offset := range offsets {
						result = append(result, Mul(deltas[offset], offset))
					}
					result = append(result, Set(0, 0))

					i = j + 1
					continue
				}
			}
		}

		result = append(result, inst)
		i++
	}

	return result
}

// qualifyMultiplyLoop checks the multiply-loop conditions for a loop body
// and, on success, returns the per-offset byte deltas already wrapped to
// 8 bits.
func qualifyMultiplyLoop(body []Instruction) (map[int64]int8, bool) {
	rawDeltas := map[int64]int64{}
	var cursor int64

	for _, inst := range body {
		switch inst.Op {
		case OpIncr:
			rawDeltas[cursor+inst.Offset] += int64(inst.Byte)
		case OpIncrDp:
			cursor += inst.Amount
		default:
			return nil, false
		}
	}

	if cursor != 0 {
		return nil, false
	}

	deltas := make(map[int64]int8, len(rawDeltas))
	for offset, delta := range rawDeltas {
		deltas[offset] = int8(delta)
	}

	if deltas[0] != -1 {
		return nil, false
	}

	wroteElsewhere := false
	for offset, delta := range deltas {
		if offset != 0 && delta != 0 {
			wroteElsewhere = true
			break
		}
	}
	if !wroteElsewhere {
		return nil, false
	}

	return deltas, true
}
