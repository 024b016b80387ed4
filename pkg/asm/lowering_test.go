package asm_test

import (
	"errors"
	"testing"

	"n2t.dev/toolchain/pkg/asm"
	"n2t.dev/toolchain/pkg/errs"
	"n2t.dev/toolchain/pkg/hack"
)

func TestLowerResolvesLabels(t *testing.T) {
	// (LOOP) @LOOP 0;JMP -- the label is declared before its only use and
	// resolves to the ROM address of the instruction that follows it.
	program := asm.Program{
		asm.LabelDecl{Name: "LOOP"},
		asm.AInstruction{Location: "LOOP"},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
	}

	lowerer := asm.NewLowerer(program)
	instructions, table, err := lowerer.Lower()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(instructions) != 2 {
		t.Fatalf("expected 2 ROM instructions (label decl doesn't occupy one), got %d", len(instructions))
	}
	if table["LOOP"] != 0 {
		t.Fatalf("expected LOOP to resolve to address 0, got %d", table["LOOP"])
	}

	aInst, ok := instructions[0].(hack.AInstruction)
	if !ok || aInst.LocType != hack.Label || aInst.LocName != "LOOP" {
		t.Fatalf("expected first instruction to reference label LOOP, got %#v", instructions[0])
	}
}

func TestLowerDetectsDuplicateLabels(t *testing.T) {
	program := asm.Program{
		asm.LabelDecl{Name: "LOOP"},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
		asm.LabelDecl{Name: "LOOP"},
	}

	_, _, err := asm.NewLowerer(program).Lower()
	if err == nil || !errors.Is(err, errs.SymbolConflict) {
		t.Fatalf("expected errs.SymbolConflict, got %v", err)
	}
}

func TestLowerRejectsOverridingBuiltinLabel(t *testing.T) {
	program := asm.Program{
		asm.LabelDecl{Name: "SP"},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
	}

	_, _, err := asm.NewLowerer(program).Lower()
	if err == nil || !errors.Is(err, errs.SymbolConflict) {
		t.Fatalf("expected errs.SymbolConflict for overriding a built-in symbol, got %v", err)
	}
}

func TestLowerClassifiesAInstructionLocations(t *testing.T) {
	program := asm.Program{
		asm.AInstruction{Location: "42"},
		asm.AInstruction{Location: "SCREEN"},
		asm.AInstruction{Location: "counter"},
	}

	instructions, _, err := asm.NewLowerer(program).Lower()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []hack.LocationType{hack.Raw, hack.BuiltIn, hack.Label}
	for i, w := range want {
		inst, ok := instructions[i].(hack.AInstruction)
		if !ok || inst.LocType != w {
			t.Fatalf("instruction %d: expected LocType %v, got %#v", i, w, instructions[i])
		}
	}
}

func TestLowerAllowsDestAndJumpTogether(t *testing.T) {
	program := asm.Program{asm.CInstruction{Comp: "D-1", Dest: "MD", Jump: "JGT"}}

	instructions, _, err := asm.NewLowerer(program).Lower()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	inst, ok := instructions[0].(hack.CInstruction)
	if !ok || inst.Dest != "MD" || inst.Comp != "D-1" || inst.Jump != "JGT" {
		t.Fatalf("expected dest+comp+jump preserved, got %#v", instructions[0])
	}
}
