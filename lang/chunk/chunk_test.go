package chunk_test

import (
	"testing"

	"ember/lang/chunk"
	"ember/lang/value"

	"github.com/kylelemons/godebug/diff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddConstantCapsAt256(t *testing.T) {
	var c chunk.Chunk
	for i := 0; i < chunk.MaxConstants; i++ {
		_, err := c.AddConstant(value.Number(i))
		require.NoError(t, err)
	}
	assert.Len(t, c.Constants, chunk.MaxConstants)

	_, err := c.AddConstant(value.Number(256))
	assert.ErrorContains(t, err, "Too many constants")
}

func TestPatchJumpRejectsOverflow(t *testing.T) {
	var c chunk.Chunk
	offset := c.EmitJump(chunk.JUMP_IF_FALSE, 1)
	// pad the chunk past the u16 jump range
	for i := 0; i < chunk.MaxJump+1; i++ {
		c.Write(0, 1)
	}
	err := c.PatchJump(offset)
	assert.ErrorContains(t, err, "Too much code to jump over")
}

func TestPatchJumpAtExactBoundaryCompiles(t *testing.T) {
	var c chunk.Chunk
	offset := c.EmitJump(chunk.JUMP_IF_FALSE, 1)
	for i := 0; i < chunk.MaxJump; i++ {
		c.Write(0, 1)
	}
	assert.NoError(t, c.PatchJump(offset))
}

func TestDisassembleSimpleProgram(t *testing.T) {
	var c chunk.Chunk
	idx, err := c.AddConstant(value.Number(1))
	require.NoError(t, err)
	c.WriteOp(chunk.CONSTANT, 1)
	c.Write(idx, 1)
	idx2, err := c.AddConstant(value.Number(2))
	require.NoError(t, err)
	c.WriteOp(chunk.CONSTANT, 1)
	c.Write(idx2, 1)
	c.WriteOp(chunk.ADD, 1)
	c.WriteOp(chunk.RETURN, 1)

	got := c.Disassemble("test")
	want := `== test ==
0000    1 constant         0 '1'
0002    | constant         1 '2'
0004    | add
0005    | return
`
	if d := diff.Diff(want, got); d != "" {
		t.Fatalf("disassembly mismatch:\n%s", d)
	}
}
