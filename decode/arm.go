// Package decode classifies raw ARM and Thumb instruction words into the
// instruction-group enums the cpu package dispatches on. Classification
// is a static, ordered pattern table (first match wins, per spec §4.3,
// "Decoder cache"); Cache memoizes the table lookup per opcode so a
// hot loop only pays the pattern scan once per distinct opcode.
package decode

// ArmOp identifies which ARM instruction-group handler a 32-bit opcode
// belongs to. The grouping mirrors the condition/type split in the ARM
// architecture reference manual, not any particular mnemonic.
type ArmOp int

const (
	ArmUndefined ArmOp = iota
	ArmDataProcessing
	ArmMultiply
	ArmMultiplyLong
	ArmPSRTransfer
	ArmBranchExchange
	ArmBranchExchangeLink // BLX (register form)
	ArmLoadStore
	ArmLoadStoreHalfword
	ArmLoadStoreMultiple
	ArmBranch
	ArmBranchLinkExchangeImmediate // BLX (immediate, cond field reused as half-word select)
	ArmSoftwareInterrupt
	ArmCoprocessor
)

type armPattern struct {
	mask, value uint32
	op          ArmOp
}

// armPatterns is checked in order; the first entry whose (opcode&mask)
// equals value wins. Order matters: more specific patterns (BX, MRS,
// MSR, multiply) must precede the general data-processing catch-all
// they would otherwise also match.
var armPatterns = []armPattern{
	// BLX (immediate): cond field is 1111, bit24 selects the extra half-word bit.
	{0xFE000000, 0xFA000000, ArmBranchLinkExchangeImmediate},

	// BX: bits[27:4] = 0x12FFF1
	{0x0FFFFFF0, 0x012FFF10, ArmBranchExchange},
	// BLX (register): bits[27:4] = 0x12FFF3
	{0x0FFFFFF0, 0x012FFF30, ArmBranchExchangeLink},

	// Multiply / multiply-accumulate: bits[27:22]=000000, bits[7:4]=1001
	{0x0FC000F0, 0x00000090, ArmMultiply},
	// Multiply long: bits[27:23]=00001, bits[7:4]=1001
	{0x0F8000F0, 0x00800090, ArmMultiplyLong},

	// MRS: bits[27:23]=00010, [21:20]=00, [19:16]=1111, [11:0]=0
	{0x0FBF0FFF, 0x010F0000, ArmPSRTransfer},
	// MSR register form: bits[27:23]=00010, [21]=1, [20]=0, [7:4]=0000
	{0x0FB000F0, 0x01200000, ArmPSRTransfer},
	// MSR immediate form: bits[27:23]=00110, [21]=1, [20]=0
	{0x0FB00000, 0x03200000, ArmPSRTransfer},

	// Load/store multiple: bits[27:25]=100
	{0x0E000000, 0x08000000, ArmLoadStoreMultiple},

	// Branch / branch with link: bits[27:25]=101
	{0x0E000000, 0x0A000000, ArmBranch},

	// Software interrupt: bits[27:24]=1111
	{0x0F000000, 0x0F000000, ArmSoftwareInterrupt},

	// Coprocessor data/register transfer: bits[27:25]=110 or 1110
	{0x0E000000, 0x0C000000, ArmCoprocessor},
	{0x0F000010, 0x0E000010, ArmCoprocessor},

	// Single load/store: bits[27:26]=01
	{0x0C000000, 0x04000000, ArmLoadStore},

	// Halfword/signed load-store: bits[27:25]=000, bit7=1, bit4=1.
	// This must come after BX/multiply/PSR (which also have bits[27:25]=000)
	// and before the data-processing catch-all.
	{0x0E000090, 0x00000090, ArmLoadStoreHalfword},

	// Data processing catch-all: bits[27:26]=00
	{0x0C000000, 0x00000000, ArmDataProcessing},
}

// ClassifyARM runs the ordered pattern table against a 32-bit opcode.
func ClassifyARM(opcode uint32) ArmOp {
	for _, p := range armPatterns {
		if opcode&p.mask == p.value {
			return p.op
		}
	}
	return ArmUndefined
}
