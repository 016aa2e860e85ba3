package decode

// ThumbOp identifies which of the 16-bit Thumb instruction formats an
// opcode belongs to. Several formats that the cpu package handles with
// one function (e.g. the two register-offset load/store formats) share
// one ThumbOp; the handler re-reads the distinguishing bits itself,
// the same coarseness the ARM side uses.
type ThumbOp int

const (
	ThumbUndefined ThumbOp = iota
	ThumbShiftImmediate
	ThumbAddSubtract
	ThumbImmediateOp
	ThumbALU
	ThumbHiRegisterOp
	ThumbPCRelativeLoad
	ThumbLoadStoreRegisterOffset
	ThumbLoadStoreImmediateOffset
	ThumbLoadStoreHalfword
	ThumbSPRelativeLoadStore
	ThumbLoadAddress
	ThumbAddOffsetToSP
	ThumbPushPop
	ThumbLoadStoreMultiple
	ThumbConditionalBranch
	ThumbSoftwareInterrupt
	ThumbUnconditionalBranch
	ThumbLongBranchLink
)

type thumbPattern struct {
	mask, value uint16
	op          ThumbOp
}

// thumbPatterns is checked in order, most specific first, mirroring the
// 19 Thumb instruction formats from the architecture reference manual.
var thumbPatterns = []thumbPattern{
	{0xFF00, 0xDF00, ThumbSoftwareInterrupt}, // 1101 1111 xxxx xxxx

	{0xF800, 0xE000, ThumbUnconditionalBranch}, // 11100 xxx xxxx xxxx
	{0xF000, 0xD000, ThumbConditionalBranch},   // 1101 cccc xxxx xxxx (cccc != 1111, checked above)
	{0xF000, 0xF000, ThumbLongBranchLink},      // 1111 / 1110(BLX suffix) h xxxxxxxxxxx
	{0xF800, 0xE800, ThumbLongBranchLink},      // 11101 xxxxxxxxxxx (BLX suffix)

	{0xF000, 0xC000, ThumbLoadStoreMultiple}, // 1100 xxxx xxxx xxxx

	{0xFF00, 0xB000, ThumbAddOffsetToSP}, // 1011 0000 xxxx xxxx
	{0xF600, 0xB400, ThumbPushPop},       // 1011 x10x xxxx xxxx

	{0xF000, 0xA000, ThumbLoadAddress}, // 1010 xxxx xxxx xxxx

	{0xF000, 0x9000, ThumbSPRelativeLoadStore}, // 1001 xxxx xxxx xxxx

	{0xF000, 0x8000, ThumbLoadStoreHalfword}, // 1000 xxxx xxxx xxxx

	{0xE000, 0x6000, ThumbLoadStoreImmediateOffset}, // 011x xxxx xxxx xxxx

	{0xF200, 0x5200, ThumbLoadStoreRegisterOffset}, // 0101 xx1x xxxx xxxx (sign-extended forms, bit9=1, still register-offset shaped)
	{0xF200, 0x5000, ThumbLoadStoreRegisterOffset}, // 0101 xx0x xxxx xxxx (plain register offset, bit9=0)

	{0xF800, 0x4800, ThumbPCRelativeLoad}, // 01001 xxx xxxx xxxx

	{0xFC00, 0x4400, ThumbHiRegisterOp}, // 010001 xx xxxx xxxx

	{0xFC00, 0x4000, ThumbALU}, // 010000 xxxx xxxx xx

	{0xE000, 0x2000, ThumbImmediateOp}, // 001x xxxx xxxx xxxx

	{0xF800, 0x1800, ThumbAddSubtract}, // 00011 xxx xxxx xxxx

	{0xE000, 0x0000, ThumbShiftImmediate}, // 000xx xxx xxxx xxxx (MOV LSL #0 included)
}

// ClassifyThumb runs the ordered pattern table against a 16-bit opcode.
func ClassifyThumb(opcode uint16) ThumbOp {
	for _, p := range thumbPatterns {
		if opcode&p.mask == p.value {
			return p.op
		}
	}
	return ThumbUndefined
}
