package bitpattern_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rqou/openfpga/bitpattern"
)

func choiceEnum() *bitpattern.Enum {
	return bitpattern.MustEnum([]string{"0", "1"},
		bitpattern.Variant{Name: "Choice1", Desc: "first choice", Bits: "00"},
		bitpattern.Variant{Name: "Choice2", Desc: "second choice", Bits: "01"},
		bitpattern.Variant{Name: "Choice3", Desc: "third choice", Bits: "10"},
		bitpattern.Variant{Name: "Choice4", Desc: "fourth choice", Bits: "11"},
	)
}

func TestFieldPlace(t *testing.T) {
	t.Parallel()

	e := choiceEnum()
	field := bitpattern.Field{Positions: []int{1, 2}}

	place := func(dst []bool, name string, base int, mirror bool) {
		t.Helper()
		bits, err := e.Encode(name)
		require.NoError(t, err)
		require.NoError(t, field.Place(dst, bits, base, mirror))
	}

	out := make([]bool, 3)
	place(out, "Choice2", 0, false)
	require.Equal(t, []bool{false, false, true}, out)

	place(out, "Choice3", 0, false)
	require.Equal(t, []bool{false, true, false}, out)

	// offset
	out = []bool{true, true, true, true, true}
	place(out, "Choice2", 1, false)
	require.Equal(t, []bool{true, true, false, true, true}, out)

	out = []bool{true, true, true, true, true}
	place(out, "Choice3", 1, false)
	require.Equal(t, []bool{true, true, true, false, true}, out)

	// mirroring
	out = make([]bool, 3)
	place(out, "Choice2", 2, true)
	require.Equal(t, []bool{true, false, false}, out)

	out = []bool{true, true, true, true, true}
	place(out, "Choice3", 3, true)
	require.Equal(t, []bool{true, false, true, true, true}, out)
}

func TestFieldExtract(t *testing.T) {
	t.Parallel()

	e := choiceEnum()
	field := bitpattern.Field{Positions: []int{1, 2}}

	extract := func(src []bool, base int, mirror bool) string {
		t.Helper()
		bits, err := field.Extract(src, base, mirror)
		require.NoError(t, err)
		name, err := e.Decode(bits)
		require.NoError(t, err)
		return name
	}

	require.Equal(t, "Choice1", extract([]bool{true, false, false}, 0, false))
	require.Equal(t, "Choice4", extract([]bool{false, true, true}, 0, false))

	// offset
	require.Equal(t, "Choice1", extract([]bool{false, false, false, true, false, false}, 3, false))
	require.Equal(t, "Choice4", extract([]bool{true, true, true, false, true, true}, 3, false))

	// mirroring
	require.Equal(t, "Choice2", extract([]bool{true, false, false}, 2, true))
	require.Equal(t, "Choice3", extract([]bool{true, true, true, false, true, true}, 5, true))
}

func TestFieldBounds(t *testing.T) {
	t.Parallel()

	field := bitpattern.Field{Positions: []int{0, 1}}

	err := field.Place(make([]bool, 1), []bool{true, true}, 0, false)
	require.Error(t, err)

	_, err = field.Extract(make([]bool, 1), 0, true)
	require.Error(t, err)

	err = field.Place(make([]bool, 4), []bool{true}, 0, false)
	require.Error(t, err)
}

// testFragment lays out one bool followed by six two-bit enums, thirteen
// bits in total.
func testFragment(t *testing.T) *bitpattern.Fragment {
	t.Helper()
	e := choiceEnum()
	fields := []bitpattern.NamedField{
		{Name: "b", Pattern: bitpattern.Bool(), Field: bitpattern.Field{Positions: []int{0}}},
	}
	for i := 0; i < 6; i++ {
		fields = append(fields, bitpattern.NamedField{
			Name:    fmt.Sprintf("e%d", i),
			Pattern: e,
			Field:   bitpattern.Field{Positions: []int{1 + 2*i, 2 + 2*i}},
		})
	}
	fr, err := bitpattern.NewFragment(fields...)
	require.NoError(t, err)
	return fr
}

func TestFragmentEncode(t *testing.T) {
	t.Parallel()

	fr := testFragment(t)

	values := map[string]string{
		"b":  "true",
		"e0": "Choice1", "e1": "Choice2", "e2": "Choice3",
		"e3": "Choice4", "e4": "Choice1", "e5": "Choice4",
	}
	want := []bool{true,
		false, false,
		false, true,
		true, false,
		true, true,
		false, false,
		true, true}

	out := make([]bool, 13)
	require.NoError(t, fr.Encode(out, values, 0, false))
	require.Equal(t, want, out)

	// Mirrored at the far end the whole fragment reverses.
	reversed := make([]bool, 13)
	for i, b := range want {
		reversed[12-i] = b
	}
	out = make([]bool, 13)
	require.NoError(t, fr.Encode(out, values, 12, true))
	require.Equal(t, reversed, out)

	values = map[string]string{
		"b":  "true",
		"e0": "Choice2", "e1": "Choice3", "e2": "Choice4",
		"e3": "Choice1", "e4": "Choice1", "e5": "Choice3",
	}
	want = []bool{true,
		false, true,
		true, false,
		true, true,
		false, false,
		false, false,
		true, false}

	out = make([]bool, 13)
	require.NoError(t, fr.Encode(out, values, 0, false))
	require.Equal(t, want, out)
}

func TestFragmentDecode(t *testing.T) {
	t.Parallel()

	fr := testFragment(t)

	src := []bool{false,
		true, true,
		false, true,
		true, false,
		false, false,
		false, true,
		true, false}
	want := map[string]string{
		"b":  "false",
		"e0": "Choice4", "e1": "Choice2", "e2": "Choice3",
		"e3": "Choice1", "e4": "Choice2", "e5": "Choice3",
	}

	values, err := fr.Decode(src, 0, false)
	require.NoError(t, err)
	require.Equal(t, want, values)

	reversed := make([]bool, 13)
	for i, b := range src {
		reversed[12-i] = b
	}
	values, err = fr.Decode(reversed, 12, true)
	require.NoError(t, err)
	require.Equal(t, want, values)
}

func TestFragmentEncodeMissingValue(t *testing.T) {
	t.Parallel()

	fr, err := bitpattern.NewFragment(bitpattern.NamedField{
		Name:    "b",
		Pattern: bitpattern.Bool(),
		Field:   bitpattern.Field{Positions: []int{0}},
	})
	require.NoError(t, err)

	err = fr.Encode(make([]bool, 1), map[string]string{}, 0, false)
	require.Error(t, err)
}

func TestNewFragmentValidation(t *testing.T) {
	t.Parallel()

	_, err := bitpattern.NewFragment()
	require.Error(t, err)

	_, err = bitpattern.NewFragment(bitpattern.NamedField{
		Name:    "b",
		Pattern: bitpattern.Bool(),
		Field:   bitpattern.Field{Positions: []int{0, 1}},
	})
	require.Error(t, err)

	dup := bitpattern.NamedField{
		Name:    "b",
		Pattern: bitpattern.Bool(),
		Field:   bitpattern.Field{Positions: []int{0}},
	}
	_, err = bitpattern.NewFragment(dup, dup)
	require.Error(t, err)
}
