// Package bitfield provides typed accessors over packed 32-bit words:
// the primitive extract/insert/sign-extend operations. The decoders,
// instruction handlers and memory controller do their own shifting and
// masking and do not import this package. Everything here is pure arithmetic on the backing word; no
// allocation is involved.
package bitfield

// Extract returns the unsigned value of word[hi:lo] (inclusive, hi >= lo).
func Extract(word uint32, hi, lo int) uint32 {
	width := hi - lo + 1
	mask := uint32(1)<<uint(width) - 1
	return (word >> uint(lo)) & mask
}

// Insert returns word with bits [hi:lo] replaced by the low bits of v.
func Insert(word uint32, hi, lo int, v uint32) uint32 {
	width := hi - lo + 1
	mask := uint32(1)<<uint(width) - 1
	word &^= mask << uint(lo)
	word |= (v & mask) << uint(lo)
	return word
}

// Bit returns true if bit i of word is set.
func Bit(word uint32, i int) bool {
	return (word>>uint(i))&1 != 0
}

// SignExtend sign-extends the low `width` bits of v to a full int32,
// returned as uint32 (e.g. width 24 for a branch offset field).
func SignExtend(v uint32, width int) uint32 {
	shift := uint(32 - width)
	return uint32(int32(v<<shift) >> shift)
}

// Field describes a named bit range within a word.
type Field struct {
	Name   string
	Hi, Lo int
}

// FieldView binds a set of named bit-range descriptors to a word type,
// exposing get/set per field without any allocation beyond the map
// built once at construction.
type FieldView struct {
	fields map[string]Field
}

// NewFieldView builds a view over the given field descriptors.
func NewFieldView(fields ...Field) *FieldView {
	fv := &FieldView{fields: make(map[string]Field, len(fields))}
	for _, f := range fields {
		fv.fields[f.Name] = f
	}
	return fv
}

// Get reads the named field out of word. It panics if the name is unknown,
// since field views are built once at startup from a fixed descriptor list.
func (fv *FieldView) Get(word uint32, name string) uint32 {
	f, ok := fv.fields[name]
	if !ok {
		panic("bitfield: unknown field " + name)
	}
	return Extract(word, f.Hi, f.Lo)
}

// Set returns word with the named field replaced by v.
func (fv *FieldView) Set(word uint32, name string, v uint32) uint32 {
	f, ok := fv.fields[name]
	if !ok {
		panic("bitfield: unknown field " + name)
	}
	return Insert(word, f.Hi, f.Lo, v)
}
