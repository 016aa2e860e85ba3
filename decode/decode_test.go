package decode

import "testing"

func TestClassifyARM(t *testing.T) {
	cases := []struct {
		name   string
		opcode uint32
		want   ArmOp
	}{
		{"BX LR", 0xE12FFF1E, ArmBranchExchange},
		{"BLX R0", 0xE12FFF30, ArmBranchExchangeLink},
		{"MUL R0,R1,R2", 0xE0000291, ArmMultiply},
		{"UMULL R0,R1,R2,R3", 0xE0810392, ArmMultiplyLong},
		{"MRS R0,CPSR", 0xE10F0000, ArmPSRTransfer},
		{"MSR CPSR_f,R0", 0xE128F000, ArmPSRTransfer},
		{"MOV R0,R1", 0xE1A00001, ArmDataProcessing},
		{"ADD R0,R1,#1", 0xE2810001, ArmDataProcessing},
		{"LDR R0,[R1]", 0xE5910000, ArmLoadStore},
		{"LDRH R0,[R1]", 0xE1D100B0, ArmLoadStoreHalfword},
		{"STMFD SP!,{R0-R3}", 0xE92D000F, ArmLoadStoreMultiple},
		{"B #0", 0xEA000000, ArmBranch},
		{"BL #0", 0xEB000000, ArmBranch},
		{"SWI #0", 0xEF000000, ArmSoftwareInterrupt},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyARM(tc.opcode); got != tc.want {
				t.Errorf("ClassifyARM(0x%08X) = %v, want %v", tc.opcode, got, tc.want)
			}
		})
	}
}

func TestClassifyThumb(t *testing.T) {
	cases := []struct {
		name   string
		opcode uint16
		want   ThumbOp
	}{
		{"LSL R0,R1,#2", 0x0088, ThumbShiftImmediate},
		{"ADD R0,R1,R2", 0x1888, ThumbAddSubtract},
		{"MOV R0,#1", 0x2001, ThumbImmediateOp},
		{"AND R0,R1", 0x4008, ThumbALU},
		{"BX R1", 0x4708, ThumbHiRegisterOp},
		{"LDR R0,[PC,#4]", 0x4801, ThumbPCRelativeLoad},
		{"STR R0,[R1,R2]", 0x5088, ThumbLoadStoreRegisterOffset},
		{"LDR R0,[R1,#4]", 0x6840, ThumbLoadStoreImmediateOffset},
		{"STRH R0,[R1,#0]", 0x8008, ThumbLoadStoreHalfword},
		{"STR R0,[SP,#4]", 0x9001, ThumbSPRelativeLoadStore},
		{"ADD R0,PC,#4", 0xA001, ThumbLoadAddress},
		{"ADD SP,#4", 0xB001, ThumbAddOffsetToSP},
		{"PUSH {R0,LR}", 0xB500, ThumbPushPop},
		{"STMIA R0!,{R1}", 0xC002, ThumbLoadStoreMultiple},
		{"BEQ #0", 0xD000, ThumbConditionalBranch},
		{"SWI #0", 0xDF00, ThumbSoftwareInterrupt},
		{"B #0", 0xE000, ThumbUnconditionalBranch},
		{"BL #0 (high)", 0xF000, ThumbLongBranchLink},
		{"BL #0 (low)", 0xF800, ThumbLongBranchLink},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyThumb(tc.opcode); got != tc.want {
				t.Errorf("ClassifyThumb(0x%04X) = %v, want %v", tc.opcode, got, tc.want)
			}
		})
	}
}

func TestArmCacheMemoizes(t *testing.T) {
	c := NewArmCache()
	opcode := uint32(0xE12FFF1E)
	if got := c.Decode(opcode); got != ArmBranchExchange {
		t.Fatalf("first Decode = %v, want ArmBranchExchange", got)
	}
	if got := c.Decode(opcode); got != ArmBranchExchange {
		t.Fatalf("cached Decode = %v, want ArmBranchExchange", got)
	}
	if len(c.table) != 1 {
		t.Errorf("cache has %d entries, want 1", len(c.table))
	}
}

func TestThumbCacheMemoizes(t *testing.T) {
	c := NewThumbCache()
	opcode := uint16(0x4708)
	if got := c.Decode(opcode); got != ThumbHiRegisterOp {
		t.Fatalf("first Decode = %v, want ThumbHiRegisterOp", got)
	}
	if got := c.Decode(opcode); got != ThumbHiRegisterOp {
		t.Fatalf("cached Decode = %v, want ThumbHiRegisterOp", got)
	}
}
