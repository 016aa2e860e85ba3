package devices

import "github.com/twincore/armduo/mem"

// FramebufferFormat documents the pixel layout of one exported buffer
// (spec §6: "two read-only byte buffers sourced from fixed addresses
// in main RAM with documented (width, height, bytes-per-pixel)").
type FramebufferFormat struct {
	Width, Height int
	BytesPerPixel int
}

func (f FramebufferFormat) size() int {
	return f.Width * f.Height * f.BytesPerPixel
}

// Framebuffer exports the top and bottom screen buffers a guest OS
// renders into main RAM, as read-only snapshots. It holds no state of
// its own beyond the two addresses and the format; every read goes
// straight to the backing mem.Controller; so it's never stale, and
// never needs to be invalidated.
type Framebuffer struct {
	mem *mem.Controller

	topAddr, bottomAddr uint32
	format              FramebufferFormat
}

// NewFramebuffer wires a Framebuffer against m at the given fixed
// addresses, sharing one format between both screens.
func NewFramebuffer(m *mem.Controller, topAddr, bottomAddr uint32, format FramebufferFormat) *Framebuffer {
	return &Framebuffer{mem: m, topAddr: topAddr, bottomAddr: bottomAddr, format: format}
}

// Format returns the documented (width, height, bytes-per-pixel) any
// caller needs to interpret Top/Bottom's bytes.
func (f *Framebuffer) Format() FramebufferFormat {
	return f.format
}

// Top returns a freshly read copy of the top-screen buffer.
func (f *Framebuffer) Top() ([]byte, error) {
	return f.read(f.topAddr)
}

// Bottom returns a freshly read copy of the bottom-screen buffer.
func (f *Framebuffer) Bottom() ([]byte, error) {
	return f.read(f.bottomAddr)
}

func (f *Framebuffer) read(addr uint32) ([]byte, error) {
	out := make([]byte, f.format.size())
	if err := f.mem.ReadBuf(addr, out); err != nil {
		return nil, err
	}
	return out, nil
}
