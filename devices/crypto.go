package devices

import (
	"crypto/aes"
	"fmt"

	"github.com/twincore/armduo/mem"
)

// Crypto register offsets. The CNT layout and the little_endian/
// normal_order byte-swizzle flags are carried over bit-for-bit from
// the RSA coprocessor register block in original_source/ (spec §9
// calls for exact replication of that convention); the operation
// performed is AES-128-ECB on one 16-byte block rather than a modular
// exponentiation, since no bignum/RSA library appears anywhere in the
// retrieved pack and stdlib crypto/aes is the one crypto primitive
// available without inventing a dependency.
//
// original_source loads a key slot through a word-at-a-time FIFO
// register with an auto-incrementing write position; this core's
// memory controller resolves every register write one byte at a time
// even for a single ARM word store (see mem.RegisterFile), so a FIFO
// that assumes "one write = one whole word arrived" cannot be
// expressed faithfully. Each key slot is a flat addressable byte range
// instead, written directly the same way the message buffer is.
const (
	cryptoCnt = 0x000 // bit0 busy, bits1:2 keyslot, bit8 little_endian, bit9 normal_order
	slot0Base = 0x020
	slotStride = blockSize
)

const (
	cryptoCntBusy         = 1 << 0
	cryptoCntKeyslotShift = 1
	cryptoCntKeyslotMask  = 0x3
	cryptoCntLittleEndian = 1 << 8
	cryptoCntNormalOrder  = 1 << 9
)

const (
	keySlotCount = 4
	blockSize    = aes.BlockSize // 16
	messageBase  = 0x100
)

// Crypto is a single-block AES-ECB engine behind a register window
// shaped like the original RSA coprocessor: four key slots and a
// message buffer that CNT.busy encrypts in place. There is no decrypt
// mode.
type Crypto struct {
	*mem.RegisterFile
}

// NewCrypto wires the register window: the CNT register, four key
// slot ranges, and the message range.
func NewCrypto() *Crypto {
	c := &Crypto{}
	c.RegisterFile = mem.NewRegisterFile(c)

	c.DefineRegister(cryptoCnt, 0, nil, onCryptoCntWrite)
	for slot := 0; slot < keySlotCount; slot++ {
		c.DefineRange(slot0Base+uint32(slot)*slotStride, blockSize, nil, nil)
	}
	c.DefineRange(messageBase, blockSize, nil, nil)
	return c
}

func onCryptoCntWrite(rf *mem.RegisterFile, _ uint32, _, newValue uint32) {
	if newValue&cryptoCntBusy == 0 {
		return
	}

	slot := int((newValue >> cryptoCntKeyslotShift) & cryptoCntKeyslotMask)
	littleEndian := newValue&cryptoCntLittleEndian != 0
	normalOrder := newValue&cryptoCntNormalOrder != 0

	key := make([]byte, blockSize)
	copy(key, rf.RawRange(slot0Base+uint32(slot)*slotStride))

	var block [blockSize]byte
	copy(block[:], rf.RawRange(messageBase))

	if !littleEndian {
		byteSwapInner(&block)
	}
	if !normalOrder {
		wordSwap(&block)
	}

	cipher, err := aes.NewCipher(key)
	if err == nil {
		cipher.Encrypt(block[:], block[:])
	}

	if !littleEndian {
		byteSwapInner(&block)
	}
	if !normalOrder {
		wordSwap(&block)
	}
	copy(rf.RawRange(messageBase), block[:])

	rf.SetRawWord(cryptoCnt, newValue&^cryptoCntBusy)
}

// byteSwapInner reverses the bytes within each 4-byte chunk, mirroring
// original_source's byte_swap_inner.
func byteSwapInner(buf *[blockSize]byte) {
	for base := 0; base+4 <= len(buf); base += 4 {
		buf[base], buf[base+3] = buf[base+3], buf[base]
		buf[base+1], buf[base+2] = buf[base+2], buf[base+1]
	}
}

// wordSwap reverses the order of the 4-byte chunks themselves,
// mirroring original_source's word_swap.
func wordSwap(buf *[blockSize]byte) {
	chunks := len(buf) / 4
	for i := 0; i < chunks/2; i++ {
		j := chunks - 1 - i
		for b := 0; b < 4; b++ {
			buf[i*4+b], buf[j*4+b] = buf[j*4+b], buf[i*4+b]
		}
	}
}

// Message returns a copy of the current 16-byte message/result buffer.
func (c *Crypto) Message() [blockSize]byte {
	var block [blockSize]byte
	copy(block[:], c.RawRange(messageBase))
	return block
}

// LoadKey sets key slot i directly, for tests and for a loader that
// wants to seed a key database without synthesizing register writes.
func (c *Crypto) LoadKey(slot int, key []byte) error {
	if slot < 0 || slot >= keySlotCount {
		return fmt.Errorf("devices: key slot %d out of range", slot)
	}
	if len(key) != blockSize {
		return fmt.Errorf("devices: AES-128 key must be %d bytes, got %d", blockSize, len(key))
	}
	copy(c.RawRange(slot0Base+uint32(slot)*slotStride), key)
	return nil
}

var _ mem.Device = (*Crypto)(nil)
