package chunk

import (
	"fmt"
	"strings"
)

// Disassemble renders the full chunk as human-readable text, one
// instruction per line. It is debug/test tooling only, used by
// lang/chunk's own tests and, via internal/cli, by a REPL debugging aid.
func (c *Chunk) Disassemble(name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		var line string
		line, offset = c.DisassembleInstruction(offset)
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// DisassembleInstruction renders the single instruction at offset and
// returns the offset of the next instruction.
func (c *Chunk) DisassembleInstruction(offset int) (string, int) {
	var b strings.Builder
	fmt.Fprintf(&b, "%04d ", offset)
	if offset > 0 && c.Lines[offset] == c.Lines[offset-1] {
		b.WriteString("   | ")
	} else {
		fmt.Fprintf(&b, "%4d ", c.Lines[offset])
	}

	op := Op(c.Code[offset])
	switch op {
	case CONSTANT, DEFINE_GLOBAL, GET_GLOBAL, SET_GLOBAL, GET_SUPER:
		idx := c.Code[offset+1]
		fmt.Fprintf(&b, "%-14s%4d '%v'", op, idx, c.Constants[idx])
		return b.String(), offset + 2

	case GET_LOCAL, SET_LOCAL, GET_UPVALUE, SET_UPVALUE, GET_PROPERTY, SET_PROPERTY, METHOD, CLASS:
		idx := c.Code[offset+1]
		fmt.Fprintf(&b, "%-14s%4d", op, idx)
		return b.String(), offset + 2

	case CALL:
		argc := c.Code[offset+1]
		fmt.Fprintf(&b, "%-14s%4d args", op, argc)
		return b.String(), offset + 2

	case INVOKE, SUPER_CALL:
		idx := c.Code[offset+1]
		argc := c.Code[offset+2]
		fmt.Fprintf(&b, "%-14s(%d args) %4d '%v'", op, argc, idx, c.Constants[idx])
		return b.String(), offset + 3

	case JUMP, JUMP_IF_FALSE:
		jump := c.ReadShort(offset + 1)
		fmt.Fprintf(&b, "%-14s%4d -> %d", op, offset, int(offset)+3+int(jump))
		return b.String(), offset + 3

	case LOOP:
		jump := c.ReadShort(offset + 1)
		fmt.Fprintf(&b, "%-14s%4d -> %d", op, offset, int(offset)+3-int(jump))
		return b.String(), offset + 3

	case CLOSURE:
		constIdx := c.Code[offset+1]
		upvalCount := int(c.Code[offset+2])
		fmt.Fprintf(&b, "%-14s%4d '%v' (%d upvalues)", op, constIdx, c.Constants[constIdx], upvalCount)
		next := offset + 3
		for i := 0; i < upvalCount; i++ {
			isLocal := c.Code[next]
			idx := c.Code[next+1]
			kind := "upvalue"
			if isLocal != 0 {
				kind = "local"
			}
			fmt.Fprintf(&b, "\n%04d      |                     %s %d", next, kind, idx)
			next += 2
		}
		return b.String(), next

	default:
		fmt.Fprintf(&b, "%s", op)
		return b.String(), offset + 1
	}
}
