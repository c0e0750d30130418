package linker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"z64hdrgen/pkg/contract"
)

func TestParseLinkerScript(t *testing.T) {
	text := `/* z64hdr symbols
   generated = 0xDEAD; (inside block comment) */
FOO = 0x80123456;
  gSaveContext   =   0x8015E660 ;   // trailing comment
// BAR = 0x80000000;

SECTIONS {
Actor_Kill = 0x80020EB4;
FOO = 0x80123456;
`
	syms, err := ParseLinkerScript(text)
	require.NoError(t, err)
	assert.Equal(t, []contract.Symbol{
		{Name: "FOO", Addr: 0x80123456},
		{Name: "gSaveContext", Addr: 0x8015E660},
		{Name: "Actor_Kill", Addr: 0x80020EB4},
		{Name: "FOO", Addr: 0x80123456},
	}, syms)
}

func TestParseLinkerScriptCRLF(t *testing.T) {
	syms, err := ParseLinkerScript("A = 0x80000001;\r\n\r\nB = 0x80000002;\r\n")
	require.NoError(t, err)
	require.Len(t, syms, 2)
	assert.Equal(t, uint32(0x80000002), syms[1].Addr)
}

func TestParseLinkerScriptSkipsNonSymbolLines(t *testing.T) {
	syms, err := ParseLinkerScript("ENTRY(main)\na = b = 0x1;\n")
	require.NoError(t, err)
	assert.Empty(t, syms)
}

func TestParseLinkerScriptMalformed(t *testing.T) {
	for _, in := range []string{
		"FOO = 0xZZZ;\n",
		"FOO = ;\n",
		"FOO = 0x100000000;\n",
	} {
		_, err := ParseLinkerScript(in)
		require.ErrorIs(t, err, contract.ErrMalformedSymbolLine, in)
	}
}

func TestParserInterface(t *testing.T) {
	var p contract.SymbolParser = New()
	syms, err := p.Parse("X = 0x80000000;")
	require.NoError(t, err)
	assert.Equal(t, "X = 0x80000000;", syms[0].String())
}
