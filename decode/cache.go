package decode

import "sync"

// ArmCache memoizes ClassifyARM over the opcodes a core actually
// fetches; a tight loop re-decodes the same handful of opcodes every
// iteration, so caching turns repeated pattern-table scans into a map
// lookup (spec §3, "Decoder cache").
type ArmCache struct {
	mu    sync.RWMutex
	table map[uint32]ArmOp
}

// NewArmCache creates an empty cache.
func NewArmCache() *ArmCache {
	return &ArmCache{table: make(map[uint32]ArmOp)}
}

// Decode returns the cached classification for opcode, computing and
// storing it on first sight.
func (c *ArmCache) Decode(opcode uint32) ArmOp {
	c.mu.RLock()
	op, ok := c.table[opcode]
	c.mu.RUnlock()
	if ok {
		return op
	}

	op = ClassifyARM(opcode)
	c.mu.Lock()
	c.table[opcode] = op
	c.mu.Unlock()
	return op
}

// ThumbCache is ArmCache's 16-bit-opcode counterpart.
type ThumbCache struct {
	mu    sync.RWMutex
	table map[uint16]ThumbOp
}

// NewThumbCache creates an empty cache.
func NewThumbCache() *ThumbCache {
	return &ThumbCache{table: make(map[uint16]ThumbOp)}
}

// Decode returns the cached classification for opcode, computing and
// storing it on first sight.
func (c *ThumbCache) Decode(opcode uint16) ThumbOp {
	c.mu.RLock()
	op, ok := c.table[opcode]
	c.mu.RUnlock()
	if ok {
		return op
	}

	op = ClassifyThumb(opcode)
	c.mu.Lock()
	c.table[opcode] = op
	c.mu.Unlock()
	return op
}
