package vm

import (
	"fmt"

	"n2t.dev/toolchain/pkg/asm"
	"n2t.dev/toolchain/pkg/errs"
)

// segmentBase names the Hack symbol holding the base address of a relocatable
// memory segment; 'addr = RAM[base] + offset' for local/argument/this/that.
var segmentBase = map[SegmentType]string{
	Local:    "LCL",
	Argument: "ARG",
	This:     "THIS",
	That:     "THAT",
}

// ----------------------------------------------------------------------------
// Vm Lowerer

// The Lowerer takes a single 'vm.Module' (one translation unit, i.e. one .vm
// file) and produces its 'asm.Program' counterpart, implementing the full
// calling convention: push/pop segment access, eq/gt/lt with unique labels,
// branching, and function declaration/call/return with frame save/restore.
//
// A Lowerer is scoped to exactly one translation unit: 'prefix' both names
// the unit's static segment (`<prefix>.<i>`) and seeds the namespace for
// every label the Lowerer itself mints (`<prefix>.TRUE.<n>`, `<prefix>.
// END.<n>`, `RET.<prefix>.<n>`), so two units lowered into the same ROM image
// never collide on a generated label.
type Lowerer struct {
	module Module
	prefix string
	nLabel int
}

// NewLowerer returns a Lowerer for 'module', a single translation unit whose
// static segment and generated labels are namespaced under 'prefix' (the
// unit's base file name, without extension).
func NewLowerer(module Module, prefix string) Lowerer {
	return Lowerer{module: module, prefix: prefix}
}

// Lower walks the module operation by operation (in source order, the VM
// language has no forward references to resolve before codegen) producing
// the equivalent asm.Program.
func (l *Lowerer) Lower() (asm.Program, error) {
	program := asm.Program{}

	for _, op := range l.module {
		var lowered []asm.Instruction
		var err error

		switch tOp := op.(type) {
		case MemoryOp:
			lowered, err = l.lowerMemoryOp(tOp)
		case ArithmeticOp:
			lowered, err = l.lowerArithmeticOp(tOp)
		case LabelDecl:
			lowered, err = l.lowerLabelDecl(tOp)
		case GotoOp:
			lowered, err = l.lowerGotoOp(tOp)
		case FuncDecl:
			lowered, err = l.lowerFuncDecl(tOp)
		case FuncCallOp:
			lowered, err = l.lowerFuncCallOp(tOp)
		case ReturnOp:
			lowered, err = l.lowerReturnOp(tOp)
		default:
			return nil, fmt.Errorf("%w: unrecognized operation '%T'", errs.SyntaxError, op)
		}

		if err != nil {
			return nil, err
		}
		program = append(program, lowered...)
	}

	return program, nil
}

// nextLabel mints a fresh, unit-scoped label suffix and bumps the counter.
func (l *Lowerer) nextLabel() int {
	n := l.nLabel
	l.nLabel++
	return n
}

// ----------------------------------------------------------------------------
// Memory access (push/pop)

// lowerMemoryOp implements push/pop for every segment per §4.5. 'pop constant'
// is rejected with InvalidPop (a constant has no address to store into) and
// pointer/temp offsets outside their fixed ranges are IndexOutOfRange.
func (l *Lowerer) lowerMemoryOp(op MemoryOp) ([]asm.Instruction, error) {
	if op.Operation == Pop && op.Segment == Constant {
		return nil, fmt.Errorf("%w: 'pop constant %d' has no destination address", errs.InvalidPop, op.Offset)
	}

	addr, err := l.resolveAddress(op.Segment, op.Offset)
	if err != nil {
		return nil, err
	}

	if op.Operation == Push {
		load := asm.CInstruction{Dest: "D", Comp: "M"}
		if op.Segment == Constant {
			load = asm.CInstruction{Dest: "D", Comp: "A"}
		}
		program := append(addr, load)
		return append(program, pushD()...), nil
	}

	// Pop: stash the destination address in R13 before popping, since
	// popping clobbers A/D and the address computation may need both.
	program := append(addr, asm.CInstruction{Dest: "D", Comp: "A"})
	program = append(program, asm.AInstruction{Location: "R13"}, asm.CInstruction{Dest: "M", Comp: "D"})
	program = append(program, popToD()...)
	program = append(program, asm.AInstruction{Location: "R13"}, asm.CInstruction{Dest: "A", Comp: "M"}, asm.CInstruction{Dest: "M", Comp: "D"})
	return program, nil
}

// resolveAddress emits the instructions that leave A pointing at the segment
// cell. For 'constant' it emits a single raw A instruction, so A holds the
// literal itself and the push path above reads it with D=A instead of D=M.
func (l *Lowerer) resolveAddress(segment SegmentType, offset uint16) ([]asm.Instruction, error) {
	switch segment {
	case Constant:
		return []asm.Instruction{asm.AInstruction{Location: fmt.Sprint(offset)}}, nil

	case Local, Argument, This, That:
		return []asm.Instruction{
			asm.AInstruction{Location: segmentBase[segment]},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.AInstruction{Location: fmt.Sprint(offset)},
			asm.CInstruction{Dest: "A", Comp: "D+A"},
		}, nil

	case Pointer:
		if offset > 1 {
			return nil, fmt.Errorf("%w: 'pointer' offset must be 0 or 1, got %d", errs.IndexOutOfRange, offset)
		}
		target := "THIS"
		if offset == 1 {
			target = "THAT"
		}
		return []asm.Instruction{asm.AInstruction{Location: target}}, nil

	case Temp:
		if offset > 7 {
			return nil, fmt.Errorf("%w: 'temp' offset must be 0-7, got %d", errs.IndexOutOfRange, offset)
		}
		return []asm.Instruction{asm.AInstruction{Location: fmt.Sprint(5 + offset)}}, nil

	case Static:
		return []asm.Instruction{asm.AInstruction{Location: fmt.Sprintf("%s.%d", l.prefix, offset)}}, nil
	}

	return nil, fmt.Errorf("%w: unrecognized segment '%s'", errs.SyntaxError, segment)
}

// pushD appends the canonical "push whatever is in D" tail: *SP = D; SP++.
func pushD() []asm.Instruction {
	return []asm.Instruction{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "M+1"},
	}
}

// popToD appends the canonical "pop into D" head: SP--; D = *SP.
func popToD() []asm.Instruction {
	return []asm.Instruction{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
	}
}

// ----------------------------------------------------------------------------
// Arithmetic

func (l *Lowerer) lowerArithmeticOp(op ArithmeticOp) ([]asm.Instruction, error) {
	switch op.Operation {
	case Neg, Not:
		comp := "-M"
		if op.Operation == Not {
			comp = "!M"
		}
		return []asm.Instruction{
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "A", Comp: "M-1"},
			asm.CInstruction{Dest: "M", Comp: comp},
		}, nil

	case Add, Sub, And, Or:
		comp := map[ArithOpType]string{Add: "D+M", Sub: "M-D", And: "D&M", Or: "D|M"}[op.Operation]
		return []asm.Instruction{
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "AM", Comp: "M-1"},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.CInstruction{Dest: "A", Comp: "A-1"},
			asm.CInstruction{Dest: "M", Comp: comp},
		}, nil

	case Eq, Gt, Lt:
		return l.lowerComparisonOp(op.Operation)
	}

	return nil, fmt.Errorf("%w: unrecognized arithmetic operation '%s'", errs.SyntaxError, op.Operation)
}

// lowerComparisonOp implements eq/gt/lt via a unique TRUE/END label pair per
// occurrence, materializing the boolean encoding (true=-1, false=0) per §4.5.
func (l *Lowerer) lowerComparisonOp(op ArithOpType) ([]asm.Instruction, error) {
	jump := map[ArithOpType]string{Eq: "JEQ", Gt: "JGT", Lt: "JLT"}[op]
	n := l.nextLabel()
	trueLabel := fmt.Sprintf("%s.TRUE.%d", l.prefix, n)
	endLabel := fmt.Sprintf("%s.END.%d", l.prefix, n)

	return []asm.Instruction{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.CInstruction{Dest: "A", Comp: "A-1"},
		asm.CInstruction{Dest: "D", Comp: "M-D"},
		asm.AInstruction{Location: trueLabel},
		asm.CInstruction{Comp: "D", Jump: jump},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M-1"},
		asm.CInstruction{Dest: "M", Comp: "0"},
		asm.AInstruction{Location: endLabel},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
		asm.LabelDecl{Name: trueLabel},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M-1"},
		asm.CInstruction{Dest: "M", Comp: "-1"},
		asm.LabelDecl{Name: endLabel},
	}, nil
}

// ----------------------------------------------------------------------------
// Branching

func (l *Lowerer) lowerLabelDecl(op LabelDecl) ([]asm.Instruction, error) {
	if op.Name == "" {
		return nil, fmt.Errorf("%w: unable to produce empty label declaration", errs.SyntaxError)
	}
	return []asm.Instruction{asm.LabelDecl{Name: op.Name}}, nil
}

func (l *Lowerer) lowerGotoOp(op GotoOp) ([]asm.Instruction, error) {
	if op.Label == "" {
		return nil, fmt.Errorf("%w: unable to produce empty jump label", errs.SyntaxError)
	}

	if op.Jump == Unconditional {
		return []asm.Instruction{
			asm.AInstruction{Location: op.Label},
			asm.CInstruction{Comp: "0", Jump: "JMP"},
		}, nil
	}

	// if-goto: pop the top of stack into D, jump iff D != 0.
	program := popToD()
	return append(program,
		asm.AInstruction{Location: op.Label},
		asm.CInstruction{Comp: "D", Jump: "JNE"},
	), nil
}

// ----------------------------------------------------------------------------
// Function declaration, call and return

func (l *Lowerer) lowerFuncDecl(op FuncDecl) ([]asm.Instruction, error) {
	if op.Name == "" {
		return nil, fmt.Errorf("%w: unable to produce empty function declaration", errs.SyntaxError)
	}

	program := []asm.Instruction{asm.LabelDecl{Name: op.Name}}
	// Push 'false' (0) once per local slot to zero-initialize them.
	zero := []asm.Instruction{asm.AInstruction{Location: "0"}, asm.CInstruction{Dest: "D", Comp: "A"}}
	for i := uint8(0); i < op.NLocal; i++ {
		program = append(program, zero...)
		program = append(program, pushD()...)
	}
	return program, nil
}

// lowerFuncCallOp implements the 5-word frame push plus ARG/LCL repositioning
// described in §4.5: a fresh RET.<prefix>.<n> label makes every call site's
// return label globally unique within the unit.
func (l *Lowerer) lowerFuncCallOp(op FuncCallOp) ([]asm.Instruction, error) {
	if op.Name == "" {
		return nil, fmt.Errorf("%w: unable to produce empty function call", errs.SyntaxError)
	}

	retLabel := fmt.Sprintf("RET.%s.%d", l.prefix, l.nextLabel())
	program := []asm.Instruction{}

	// Push the return address, then the caller's LCL/ARG/THIS/THAT.
	program = append(program, asm.AInstruction{Location: retLabel}, asm.CInstruction{Dest: "D", Comp: "A"})
	program = append(program, pushD()...)
	for _, saved := range []string{"LCL", "ARG", "THIS", "THAT"} {
		program = append(program, asm.AInstruction{Location: saved}, asm.CInstruction{Dest: "D", Comp: "M"})
		program = append(program, pushD()...)
	}

	// ARG = SP - nArgs - 5 (repositioned below the pushed args and frame).
	program = append(program,
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: fmt.Sprint(int(op.NArgs) + 5)}, asm.CInstruction{Dest: "D", Comp: "D-A"},
		asm.AInstruction{Location: "ARG"}, asm.CInstruction{Dest: "M", Comp: "D"},
	)
	// LCL = SP
	program = append(program,
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "LCL"}, asm.CInstruction{Dest: "M", Comp: "D"},
	)
	// goto f; (RET.<prefix>.<n>)
	program = append(program,
		asm.AInstruction{Location: op.Name}, asm.CInstruction{Comp: "0", Jump: "JMP"},
		asm.LabelDecl{Name: retLabel},
	)

	return program, nil
}

// lowerReturnOp implements the frame unwind of §4.5 using R13 (FRAME) and R14
// (RET) as scratch registers. RET is read before *ARG is written because for a
// 0-argument call ARG==LCL-5, i.e. ARG points at the saved return address.
func (l *Lowerer) lowerReturnOp(ReturnOp) ([]asm.Instruction, error) {
	program := []asm.Instruction{}

	// FRAME (R13) = LCL
	program = append(program,
		asm.AInstruction{Location: "LCL"}, asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "R13"}, asm.CInstruction{Dest: "M", Comp: "D"},
	)
	// RET (R14) = *(FRAME - 5)
	program = append(program,
		asm.AInstruction{Location: "R13"}, asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "5"}, asm.CInstruction{Dest: "A", Comp: "D-A"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "R14"}, asm.CInstruction{Dest: "M", Comp: "D"},
	)
	// *ARG = pop()
	program = append(program, popToD()...)
	program = append(program,
		asm.AInstruction{Location: "ARG"}, asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "M", Comp: "D"},
	)
	// SP = ARG + 1
	program = append(program,
		asm.AInstruction{Location: "ARG"}, asm.CInstruction{Dest: "D", Comp: "M+1"},
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "M", Comp: "D"},
	)
	// Restore THAT, THIS, ARG, LCL from FRAME-1..FRAME-4 (in that order, so
	// the still-unread saved ARG/LCL aren't overwritten before they're used).
	for i, dest := range []string{"THAT", "THIS", "ARG", "LCL"} {
		program = append(program,
			asm.AInstruction{Location: "R13"}, asm.CInstruction{Dest: "D", Comp: "M"},
			asm.AInstruction{Location: fmt.Sprint(i + 1)}, asm.CInstruction{Dest: "A", Comp: "D-A"},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.AInstruction{Location: dest}, asm.CInstruction{Dest: "M", Comp: "D"},
		)
	}
	// goto RET
	program = append(program,
		asm.AInstruction{Location: "R14"}, asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
	)

	return program, nil
}
