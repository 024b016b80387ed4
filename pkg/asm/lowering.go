package asm

import (
	"fmt"
	"strconv"

	"n2t.dev/toolchain/pkg/errs"
	"n2t.dev/toolchain/pkg/hack"
)

// ----------------------------------------------------------------------------
// Asm Lowerer

// The Lowerer takes an 'asm.Program' and produces its 'hack.Program' counterpart.
//
// Since we get a tree-like struct we are able to traverse it using a Depth First Search (DFS) algorithm
// on it. For each instruction node visited we produce it's 'hack.Instruction' counterpart (either
// A Instruction or C Instruction) as well as validating the input before proceeding.
type Lowerer struct{ program Program }

// Initializes and returns to the caller a brand new 'Lowerer' struct.
// Requires the argument Program to be not nil nor empty.
func NewLowerer(p Program) Lowerer {
	return Lowerer{program: p}
}

// Triggers the lowering process. It iterates instruction by instruction and recursively
// calls the specified helper function based on the instruction type (much like a recursive
// descend parser but for lowering), this means the AST is visited in DFS order.
func (l *Lowerer) Lower() (hack.Program, hack.SymbolTable, error) {
	converted, table := hack.Program{}, hack.NewSymbolTable()

	if l.program == nil || len(l.program) == 0 {
		return nil, nil, fmt.Errorf("%w: the given 'program' is empty", errs.SyntaxError)
	}

	// Pass 1: walk the statement list resolving label declarations to the ROM
	// address of the instruction that follows them (L commands never occupy
	// their own address). Variables are left for pkg/hack's codegen, which
	// allocates them lazily on first reference during pass 2.
	for _, asmInst := range l.program {
		switch tAsmInst := asmInst.(type) {
		case LabelDecl:
			label, err := l.HandleLabelDecl(tAsmInst)
			if label == "" || err != nil {
				return nil, nil, err
			}
			if addr, found := table[label]; found {
				return nil, nil, fmt.Errorf("%w: label '%s' already resolves to address %d", errs.SymbolConflict, label, addr)
			}
			table[label] = uint16(len(converted))
		case AInstruction, CInstruction:
			converted = append(converted, nil) // reserve the ROM slot, filled in pass 2
		default:
			return nil, nil, fmt.Errorf("%w: unrecognized instruction '%T'", errs.SyntaxError, asmInst)
		}
	}

	// Pass 2: re-walk the statement list (skipping label declarations, which
	// contribute no ROM instruction) lowering each A/C instruction in place.
	rom := 0
	for _, asmInst := range l.program {
		switch tAsmInst := asmInst.(type) {
		case AInstruction:
			hackInst, err := l.HandleAInst(tAsmInst)
			if hackInst == nil || err != nil {
				return nil, nil, err
			}
			converted[rom] = hackInst
			rom++

		case CInstruction:
			hackInst, err := l.HandleCInst(tAsmInst)
			if hackInst == nil || err != nil {
				return nil, nil, err
			}
			converted[rom] = hackInst
			rom++

		case LabelDecl:
			continue
		}
	}

	return converted, table, nil
}

// Specialized function to convert a 'asm.AInstruction' node to an 'hack.AInstruction'.
func (Lowerer) HandleAInst(inst AInstruction) (hack.Instruction, error) {
	// Based on one of the following cases below (the type of the symbol) we do different things:
	// 1) If it's present in the BuiltInTable is we set the 'LocType'to 'BuiltIn' accordingly
	if _, found := hack.BuiltInTable[inst.Location]; found {
		return hack.AInstruction{LocType: hack.BuiltIn, LocName: inst.Location}, nil
	}
	// 2) If it can be parsed as an int we set the 'LocType' to 'Raw' accordingly
	if _, err := strconv.ParseInt(inst.Location, 10, 64); err == nil {
		return hack.AInstruction{LocType: hack.Raw, LocName: inst.Location}, nil
	}
	// 3) Else it's a user defined label and we set 'LocType' to 'Label' accordingly
	return hack.AInstruction{LocType: hack.Label, LocName: inst.Location}, nil
}

// Specialized function to convert a 'asm.CInstruction' node to an 'hack.CInstruction'.
//
// Dest and Jump are independently optional (a C instruction may carry either,
// both, e.g. "D=D-1;JGT", or neither); only Comp is mandatory.
func (Lowerer) HandleCInst(inst CInstruction) (hack.Instruction, error) {
	if inst.Comp == "" {
		return nil, fmt.Errorf("%w: 'Comp' sub-instruction should always be provided", errs.SyntaxError)
	}
	return hack.CInstruction{Dest: inst.Dest, Comp: inst.Comp, Jump: inst.Jump}, nil
}

// Specialized function to extract from a 'asm.LabelDecl' node to the identifier of the label.
func (Lowerer) HandleLabelDecl(inst LabelDecl) (string, error) {
	return inst.Name, nil
}
