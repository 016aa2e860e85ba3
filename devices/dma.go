package devices

import "github.com/twincore/armduo/mem"

// CryptoBus is the narrow capability a DMA engine needs from a Crypto
// block: whether it has a result ready, and a way to pull it out. This
// is the "explicit bus descriptor" pattern spec §9 calls for instead
// of giving the DMA engine shared ownership of the crypto device, so
// device ownership stays a tree (Crypto owns its own state; DMA only
// holds a narrow view of it).
type CryptoBus interface {
	Ready() bool
	Drain() [blockSize]byte
}

// cryptoReadySource adapts a *Crypto into a CryptoBus: ready means the
// busy bit is currently clear, i.e. the last triggered operation (if
// any) has completed.
type cryptoReadySource struct {
	c *Crypto
}

// AsBus exposes c through the narrow CryptoBus capability a DMA engine
// is given at construction.
func (c *Crypto) AsBus() CryptoBus {
	return cryptoReadySource{c: c}
}

func (s cryptoReadySource) Ready() bool {
	return s.c.RawWord(cryptoCnt)&cryptoCntBusy == 0
}

func (s cryptoReadySource) Drain() [blockSize]byte {
	return s.c.Message()
}

// DMA register offsets.
const (
	dmaSrc    = 0x00
	dmaDst    = 0x04
	dmaLen    = 0x08
	dmaCtrl   = 0x0C // bit0: start, bit1: source-is-crypto-bus
	dmaStatus = 0x10 // bit0: busy, bit1: done
)

const (
	dmaCtrlStart      = 1 << 0
	dmaCtrlFromCrypto = 1 << 1
	dmaStatusBusy      = 1 << 0
	dmaStatusDone      = 1 << 1
)

// DMA moves bytes between two addresses in a shared mem.Controller, or
// (when dmaCtrlFromCrypto is set) drains a CryptoBus into the
// destination address once the bus reports ready. Transfers run
// synchronously inside the CTRL register's write hook.
type DMA struct {
	*mem.RegisterFile

	mem    *mem.Controller
	source CryptoBus
}

// NewDMA wires a DMA engine against the controller it moves bytes
// through and an optional crypto bus (nil if this DMA never drains a
// crypto block).
func NewDMA(m *mem.Controller, source CryptoBus) *DMA {
	d := &DMA{mem: m, source: source}
	d.RegisterFile = mem.NewRegisterFile(d)
	d.DefineRegister(dmaSrc, 0, nil, nil)
	d.DefineRegister(dmaDst, 0, nil, nil)
	d.DefineRegister(dmaLen, 0, nil, nil)
	d.DefineRegister(dmaCtrl, 0, nil, onDMACtrlWrite)
	d.DefineRegister(dmaStatus, 0, nil, nil)
	return d
}

func onDMACtrlWrite(rf *mem.RegisterFile, _ uint32, _, newValue uint32) {
	if newValue&dmaCtrlStart == 0 {
		return
	}
	d := rf.Owner.(*DMA)

	if newValue&dmaCtrlFromCrypto != 0 {
		d.serviceCryptoDrain()
		return
	}
	d.serviceMemCopy()
}

func (d *DMA) serviceMemCopy() {
	src := d.RawWord(dmaSrc)
	dst := d.RawWord(dmaDst)
	length := d.RawWord(dmaLen)

	buf := make([]byte, length)
	if err := d.mem.ReadBuf(src, buf); err == nil {
		_ = d.mem.WriteBuf(dst, buf)
	}
	d.SetRawWord(dmaStatus, dmaStatusDone)
}

// serviceCryptoDrain copies the crypto block's result buffer to the
// destination address, but only once the bus reports ready; otherwise
// it sets STATUS to busy and returns. Nothing retries the drain until
// CTRL is written with the start bit again.
func (d *DMA) serviceCryptoDrain() {
	if d.source == nil || !d.source.Ready() {
		d.SetRawWord(dmaStatus, dmaStatusBusy)
		return
	}
	block := d.source.Drain()
	dst := d.RawWord(dmaDst)
	_ = d.mem.WriteBuf(dst, block[:])
	d.SetRawWord(dmaStatus, dmaStatusDone)
}

var _ mem.Device = (*DMA)(nil)
