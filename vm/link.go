package vm

// Link resolves '[' / ']' pairings by a single stack walk over the
// instruction indices, writing each branch's partner index into the
// instruction itself. It never reorders instructions, so it may safely be
// re-run after any optimisation pass that rewrites the sequence.
func Link(program UnlinkedProgram) (LinkedProgram, error) {
	linked := make(LinkedProgram, len(program))
	copy(linked, LinkedProgram(program))

	openBrackets := make([]int, 0, 8)

	for i := range linked {
		switch linked[i].Op {
		case OpBranchIfZero:
			openBrackets = append(openBrackets, i)
		case OpBranchIfNotZero:
			if len(openBrackets) == 0 {
				return nil, &MissingOpeningBracketError{Position: i}
			}

			opening := openBrackets[len(openBrackets)-1]
			openBrackets = openBrackets[:len(openBrackets)-1]

			linked[i].Dest = uint64(opening)
			linked[opening].Dest = uint64(i)
		}
	}

	if len(openBrackets) > 0 {
		// Matches the reference implementation: report the top of the
		// still-open stack, not the first entry pushed.
		return nil, &MissingClosingBracketError{Position: openBrackets[len(openBrackets)-1]}
	}

	return linked, nil
}
