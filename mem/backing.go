package mem

import "fmt"

// Backing is what a Region maps to: either a RAM block or a Device. All
// accesses are byte-granular at the interface; Controller assembles
// halfwords/words from repeated byte calls so RAM and devices share one
// contract (spec: "Memory controller client contract").
type Backing interface {
	ReadByte(offset uint32) (byte, error)
	WriteByte(offset uint32, v byte) error
}

// RAM is a flat byte-addressable backing store. The same *RAM may be
// installed at more than one base address to model mirrored regions
// (e.g. instruction TCM mirrored across a stripe).
type RAM struct {
	Data []byte
}

// NewRAM allocates a zeroed RAM block of the given size.
func NewRAM(size uint32) *RAM {
	return &RAM{Data: make([]byte, size)}
}

func (r *RAM) ReadByte(offset uint32) (byte, error) {
	if offset >= uint32(len(r.Data)) {
		return 0, fmt.Errorf("ram: offset 0x%X out of bounds (size 0x%X)", offset, len(r.Data))
	}
	return r.Data[offset], nil
}

func (r *RAM) WriteByte(offset uint32, v byte) error {
	if offset >= uint32(len(r.Data)) {
		return fmt.Errorf("ram: offset 0x%X out of bounds (size 0x%X)", offset, len(r.Data))
	}
	r.Data[offset] = v
	return nil
}

// ReadBuf and WriteBuf give DMA-style bulk access without a byte-at-a-time
// round trip through Backing; Controller prefers these when a backing
// implements them (see BulkBacking).
func (r *RAM) ReadBuf(offset uint32, out []byte) error {
	if offset+uint32(len(out)) > uint32(len(r.Data)) {
		return fmt.Errorf("ram: bulk read [0x%X, 0x%X) out of bounds (size 0x%X)", offset, offset+uint32(len(out)), len(r.Data))
	}
	copy(out, r.Data[offset:])
	return nil
}

func (r *RAM) WriteBuf(offset uint32, in []byte) error {
	if offset+uint32(len(in)) > uint32(len(r.Data)) {
		return fmt.Errorf("ram: bulk write [0x%X, 0x%X) out of bounds (size 0x%X)", offset, offset+uint32(len(in)), len(r.Data))
	}
	copy(r.Data[offset:], in)
	return nil
}

// BulkBacking is implemented by backings that can satisfy a multi-byte
// transfer without per-byte dispatch overhead.
type BulkBacking interface {
	ReadBuf(offset uint32, out []byte) error
	WriteBuf(offset uint32, in []byte) error
}
