package textir

import (
	"testing"

	"github.com/stretchr/testify/require"

	"midir/internal/ir"
)

const s1Source = `
fun @main() : i32 {
  entry:
    %x = add 2 i32, 3 i32
    return %x
}
`

func TestParseAndBuildConstantFold(t *testing.T) {
	file, err := ParseString("s1.mir", s1Source)
	require.NoError(t, err)
	require.Len(t, file.Functions, 1)

	prog, err := Build(file, "main")
	require.NoError(t, err)

	fn := prog.Entry()
	require.NotNil(t, fn)
	require.Len(t, fn.Blocks, 1)

	entry := fn.Blocks[0]
	require.Len(t, entry.Instructions, 1)
	bin, ok := entry.Instructions[0].(*ir.BinaryOp)
	require.True(t, ok)
	require.Equal(t, ir.Add, bin.Op)

	ret, ok := entry.Term.(*ir.Return)
	require.True(t, ok)
	require.Equal(t, ir.Value(bin), ret.Val)
}

const mem2regSource = `
fun @main(%c: i1) : i32 {
  entry:
    %a = alloc i32
    branch %c, then, else
  then:
    store %a, 1 i32
    jump join
  else:
    store %a, 2 i32
    jump join
  join:
    %v = load %a
    return %v
}
`

func TestParseAndBuildMem2Reg(t *testing.T) {
	file, err := ParseString("s2.mir", mem2regSource)
	require.NoError(t, err)

	prog, err := Build(file, "main")
	require.NoError(t, err)

	fn := prog.Entry()
	require.Len(t, fn.Blocks, 4)
	join := fn.BlockByLabel("join")
	require.NotNil(t, join)
	require.Len(t, join.Instructions, 1)
	load, ok := join.Instructions[0].(*ir.Load)
	require.True(t, ok)
	require.Equal(t, "i32", load.Pointer.(*ir.Alloc).InnerType.String())
}

func TestPrintRoundTrip(t *testing.T) {
	file, err := ParseString("s1.mir", s1Source)
	require.NoError(t, err)
	prog, err := Build(file, "main")
	require.NoError(t, err)

	printed := Print(prog)
	require.Contains(t, printed, "fun @main()")
	require.Contains(t, printed, "add")
	require.Contains(t, printed, "return")

	reparsedFile, err := ParseString("roundtrip.mir", printed)
	require.NoError(t, err)
	reprog, err := Build(reparsedFile, "main")
	require.NoError(t, err)
	require.Equal(t, Print(prog), Print(reprog))
}

func TestSplitFixture(t *testing.T) {
	src := "//before\n" + s1Source + "//after\nfun @main() : i32 {\n  entry:\n    return 5 i32\n}\n"
	fx := SplitFixture(src)
	require.False(t, fx.Unchanged)
	require.Contains(t, fx.Before, "add 2 i32, 3 i32")
	require.Contains(t, fx.After, "return 5 i32")
}

func TestSplitFixtureUnchanged(t *testing.T) {
	src := "//unchanged\n" + s1Source
	fx := SplitFixture(src)
	require.True(t, fx.Unchanged)
	require.Contains(t, fx.Before, "add 2 i32, 3 i32")
}
