// Package bitpattern encodes and decodes named bit patterns of the kind used
// to describe device configuration fields. An Enum maps a set of named
// variants onto fixed-width bit strings, and a Fragment places patterns into
// a larger bit array at arbitrary, optionally mirrored positions.
package bitpattern

import (
	"strings"

	"golang.org/x/xerrors"
)

// ErrNoMatch is returned by Decode when no variant matches the input bits.
var ErrNoMatch = xerrors.New("bitpattern: no variant matches")

// Variant is one encodable value of an Enum.
type Variant struct {
	Name string
	Desc string
	// Bits holds one character per pattern bit: '0', '1', or 'x'. An 'x'
	// matches either value when decoding and encodes as 0.
	Bits string
}

// Enum is a fixed-width bit pattern with a finite set of named variants.
type Enum struct {
	bitNames []string
	variants []Variant
}

// NewEnum builds an Enum. bitNames names the pattern's bit positions (most
// significant first in documentation output); every variant's Bits must have
// exactly one character per bit.
func NewEnum(bitNames []string, variants ...Variant) (*Enum, error) {
	if len(bitNames) == 0 {
		return nil, xerrors.New("bitpattern: enum needs at least one bit")
	}
	if len(variants) == 0 {
		return nil, xerrors.New("bitpattern: enum needs at least one variant")
	}
	for _, v := range variants {
		if len(v.Bits) != len(bitNames) {
			return nil, xerrors.Errorf("bitpattern: variant %s has %d bits, want %d", v.Name, len(v.Bits), len(bitNames))
		}
		for _, c := range v.Bits {
			if c != '0' && c != '1' && c != 'x' {
				return nil, xerrors.Errorf("bitpattern: variant %s has invalid bit %q", v.Name, c)
			}
		}
	}
	return &Enum{bitNames: bitNames, variants: variants}, nil
}

// MustEnum is NewEnum for static tables known to be valid.
func MustEnum(bitNames []string, variants ...Variant) *Enum {
	e, err := NewEnum(bitNames, variants...)
	if err != nil {
		panic(err)
	}
	return e
}

// BitCount returns the pattern width in bits.
func (e *Enum) BitCount() int {
	return len(e.bitNames)
}

// Variants returns the variant table in declaration order.
func (e *Enum) Variants() []Variant {
	return e.variants
}

// Encode returns the bits of the named variant.
func (e *Enum) Encode(name string) ([]bool, error) {
	for _, v := range e.variants {
		if v.Name != name {
			continue
		}
		bits := make([]bool, len(v.Bits))
		for i, c := range v.Bits {
			bits[i] = c == '1'
		}
		return bits, nil
	}
	return nil, xerrors.Errorf("bitpattern: unknown variant %q", name)
}

// Decode returns the name of the first variant whose bits match. Input
// length must equal BitCount.
func (e *Enum) Decode(bits []bool) (string, error) {
	if len(bits) != len(e.bitNames) {
		return "", xerrors.Errorf("bitpattern: got %d bits, want %d", len(bits), len(e.bitNames))
	}
	for _, v := range e.variants {
		if v.matches(bits) {
			return v.Name, nil
		}
	}
	return "", ErrNoMatch
}

func (v Variant) matches(bits []bool) bool {
	for i, c := range v.Bits {
		if c == 'x' {
			continue
		}
		if (c == '1') != bits[i] {
			return false
		}
	}
	return true
}

// DocTable renders the variant table as ASCII documentation.
func (e *Enum) DocTable() string {
	var b strings.Builder

	maxName, maxDesc := 0, 0
	for _, v := range e.variants {
		if len(v.Name) > maxName {
			maxName = len(v.Name)
		}
		if len(v.Desc) > maxDesc {
			maxDesc = len(v.Desc)
		}
	}

	// Header
	for _, name := range e.bitNames {
		b.WriteString(name)
	}
	b.WriteString(" | ")
	b.WriteString(strings.Repeat(" ", maxName))
	b.WriteString(" |\n")

	// Separator
	b.WriteString(strings.Repeat("-", len(e.bitNames)))
	b.WriteString("-+-")
	b.WriteString(strings.Repeat("-", maxName))
	b.WriteString("-+-")
	b.WriteString(strings.Repeat("-", maxDesc))
	b.WriteString("\n")

	// Data
	for _, v := range e.variants {
		b.WriteString(v.Bits)
		b.WriteString(" | ")
		b.WriteString(v.Name)
		b.WriteString(strings.Repeat(" ", maxName-len(v.Name)))
		b.WriteString(" | ")
		b.WriteString(v.Desc)
		b.WriteString("\n")
	}

	return b.String()
}

var boolEnum = MustEnum([]string{"0"},
	Variant{Name: "false", Desc: "false", Bits: "0"},
	Variant{Name: "true", Desc: "true", Bits: "1"},
)

// Bool returns the single-bit pattern with variants "false" and "true".
func Bool() *Enum {
	return boolEnum
}
