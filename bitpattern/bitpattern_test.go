package bitpattern_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"

	"github.com/rqou/openfpga/bitpattern"
)

func TestBoolEncode(t *testing.T) {
	t.Parallel()

	bits, err := bitpattern.Bool().Encode("true")
	require.NoError(t, err)
	require.Equal(t, []bool{true}, bits)

	bits, err = bitpattern.Bool().Encode("false")
	require.NoError(t, err)
	require.Equal(t, []bool{false}, bits)
}

func TestBoolDecode(t *testing.T) {
	t.Parallel()

	name, err := bitpattern.Bool().Decode([]bool{true})
	require.NoError(t, err)
	require.Equal(t, "true", name)

	name, err = bitpattern.Bool().Decode([]bool{false})
	require.NoError(t, err)
	require.Equal(t, "false", name)
}

func TestBoolDocTable(t *testing.T) {
	t.Parallel()

	reference := `0 |       |
--+-------+------
0 | false | false
1 | true  | true
`
	require.Equal(t, reference, bitpattern.Bool().DocTable())
}

func TestEnumEncodeDecode(t *testing.T) {
	t.Parallel()

	e := bitpattern.MustEnum([]string{"0", "1"},
		bitpattern.Variant{Name: "Choice1", Desc: "first choice", Bits: "00"},
		bitpattern.Variant{Name: "Choice2", Desc: "second choice", Bits: "01"},
		bitpattern.Variant{Name: "Choice3", Desc: "third choice", Bits: "10"},
		bitpattern.Variant{Name: "Choice4", Desc: "fourth choice", Bits: "11"},
	)
	require.Equal(t, 2, e.BitCount())

	for name, bits := range map[string][]bool{
		"Choice1": {false, false},
		"Choice2": {false, true},
		"Choice3": {true, false},
		"Choice4": {true, true},
	} {
		got, err := e.Encode(name)
		require.NoError(t, err)
		require.Equal(t, bits, got)

		back, err := e.Decode(bits)
		require.NoError(t, err)
		require.Equal(t, name, back)
	}

	_, err := e.Encode("Choice5")
	require.Error(t, err)

	_, err = e.Decode([]bool{true})
	require.Error(t, err)
}

func TestEnumDontCare(t *testing.T) {
	t.Parallel()

	e := bitpattern.MustEnum([]string{"0", "1"},
		bitpattern.Variant{Name: "disabled", Desc: "output disabled", Bits: "0x"},
		bitpattern.Variant{Name: "enabled", Desc: "output enabled", Bits: "1x"},
	)

	for _, low := range []bool{false, true} {
		name, err := e.Decode([]bool{false, low})
		require.NoError(t, err)
		require.Equal(t, "disabled", name)

		name, err = e.Decode([]bool{true, low})
		require.NoError(t, err)
		require.Equal(t, "enabled", name)
	}

	// An 'x' encodes as 0.
	bits, err := e.Encode("enabled")
	require.NoError(t, err)
	require.Equal(t, []bool{true, false}, bits)
}

func TestEnumNoMatch(t *testing.T) {
	t.Parallel()

	e := bitpattern.MustEnum([]string{"0"},
		bitpattern.Variant{Name: "only", Desc: "only variant", Bits: "0"},
	)
	_, err := e.Decode([]bool{true})
	require.True(t, xerrors.Is(err, bitpattern.ErrNoMatch))
}

func TestNewEnumValidation(t *testing.T) {
	t.Parallel()

	_, err := bitpattern.NewEnum(nil)
	require.Error(t, err)

	_, err = bitpattern.NewEnum([]string{"0"})
	require.Error(t, err)

	_, err = bitpattern.NewEnum([]string{"0", "1"},
		bitpattern.Variant{Name: "short", Bits: "0"},
	)
	require.Error(t, err)

	_, err = bitpattern.NewEnum([]string{"0"},
		bitpattern.Variant{Name: "bad", Bits: "2"},
	)
	require.Error(t, err)
}
