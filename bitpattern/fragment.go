package bitpattern

import "golang.org/x/xerrors"

// Field maps the bits of one pattern onto positions in a larger bit array.
// Positions[i] is the offset of pattern bit i relative to the fragment base.
// When a fragment is mirrored the offsets are subtracted from the base
// instead of added, which is how mirrored halves of a fuse array are
// addressed.
type Field struct {
	Positions []int
}

func (f Field) index(base, pos int, mirror bool) int {
	if mirror {
		return base - pos
	}
	return base + pos
}

// Place writes bits into dst at the field's positions.
func (f Field) Place(dst, bits []bool, base int, mirror bool) error {
	if len(bits) != len(f.Positions) {
		return xerrors.Errorf("bitpattern: got %d bits for a %d-bit field", len(bits), len(f.Positions))
	}
	for i, pos := range f.Positions {
		idx := f.index(base, pos, mirror)
		if idx < 0 || idx >= len(dst) {
			return xerrors.Errorf("bitpattern: bit %d at index %d outside array of %d", i, idx, len(dst))
		}
		dst[idx] = bits[i]
	}
	return nil
}

// Extract reads the field's bits back out of src.
func (f Field) Extract(src []bool, base int, mirror bool) ([]bool, error) {
	bits := make([]bool, len(f.Positions))
	for i, pos := range f.Positions {
		idx := f.index(base, pos, mirror)
		if idx < 0 || idx >= len(src) {
			return nil, xerrors.Errorf("bitpattern: bit %d at index %d outside array of %d", i, idx, len(src))
		}
		bits[i] = src[idx]
	}
	return bits, nil
}

// NamedField couples a pattern with its placement inside a fragment.
type NamedField struct {
	Name    string
	Pattern *Enum
	Field   Field
}

// Fragment is an ordered set of named fields describing one region of a bit
// array. Encode and Decode operate on variant names keyed by field name.
type Fragment struct {
	fields []NamedField
}

func NewFragment(fields ...NamedField) (*Fragment, error) {
	if len(fields) == 0 {
		return nil, xerrors.New("bitpattern: fragment needs at least one field")
	}
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return nil, xerrors.New("bitpattern: field name must not be empty")
		}
		if seen[f.Name] {
			return nil, xerrors.Errorf("bitpattern: duplicate field %q", f.Name)
		}
		seen[f.Name] = true
		if f.Pattern == nil {
			return nil, xerrors.Errorf("bitpattern: field %q has no pattern", f.Name)
		}
		if f.Pattern.BitCount() != len(f.Field.Positions) {
			return nil, xerrors.Errorf("bitpattern: field %q pattern is %d bits but has %d positions",
				f.Name, f.Pattern.BitCount(), len(f.Field.Positions))
		}
	}
	return &Fragment{fields: fields}, nil
}

// Encode writes the variant chosen for every field into dst at base. Each
// field must have an entry in values.
func (fr *Fragment) Encode(dst []bool, values map[string]string, base int, mirror bool) error {
	for _, f := range fr.fields {
		name, ok := values[f.Name]
		if !ok {
			return xerrors.Errorf("bitpattern: no value for field %q", f.Name)
		}
		bits, err := f.Pattern.Encode(name)
		if err != nil {
			return xerrors.Errorf("field %q: %w", f.Name, err)
		}
		if err := f.Field.Place(dst, bits, base, mirror); err != nil {
			return xerrors.Errorf("field %q: %w", f.Name, err)
		}
	}
	return nil
}

// Decode reads every field out of src and returns the matched variant names.
func (fr *Fragment) Decode(src []bool, base int, mirror bool) (map[string]string, error) {
	values := make(map[string]string, len(fr.fields))
	for _, f := range fr.fields {
		bits, err := f.Field.Extract(src, base, mirror)
		if err != nil {
			return nil, xerrors.Errorf("field %q: %w", f.Name, err)
		}
		name, err := f.Pattern.Decode(bits)
		if err != nil {
			return nil, xerrors.Errorf("field %q: %w", f.Name, err)
		}
		values[f.Name] = name
	}
	return values, nil
}
