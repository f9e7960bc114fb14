package cpu

// microOp is one machine-cycle (4 T-cycle) slice of an instruction. apply is
// nil for cycles that exist purely to account for time already spent fetching
// opcode/operand bytes during decode; non-nil apply functions carry the
// instruction's actual register/memory mutation.
type microOp struct {
	apply func(c *CPU)
}

func nop() microOp {
	return microOp{}
}

func op(fn func(c *CPU)) microOp {
	return microOp{apply: fn}
}

// padded returns a queue of the given total length with fn as its last,
// real-effect micro-op and plain nops filling the rest. This is the shape
// nearly every fixed-length instruction takes: the decode already did the
// addressing work, the trailing cycles are what the real hardware spent
// fetching/settling.
func padded(length int, fn func(c *CPU)) []microOp {
	ops := make([]microOp, length)
	for i := 0; i < length-1; i++ {
		ops[i] = nop()
	}
	ops[length-1] = op(fn)
	return ops
}
