/*
 * sm1xlate - in-memory reference Emitter
 *
 * Permission is hereby granted, free of charge, to any person obtaining a
 * copy of this software and associated documentation files (the "Software"),
 * to deal in the Software without restriction, including without limitation
 * the rights to use, copy, modify, merge, publish, distribute, sublicense,
 * and/or sell copies of the Software, and to permit persons to whom the
 * Software is furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
 * FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER
 * DEALINGS IN THE SOFTWARE.
 */

package ir

import "errors"

// Decl records one declared register.
type Decl struct {
	Kind     DeclKind
	Index    int
	Sem      Semantic
	Mask     uint8
	Target   SamplerTarget
	Interp   bool
	OrderNum int
}

// Inst records one emitted instruction, including control-flow markers.
type Inst struct {
	Op  Op
	Dst []Dst
	Src []Operand
}

// ImmF4 / ImmI4 back the immediate tables.
type ImmF4 [4]float32
type ImmI4 [4]int32

// Program is a growable, slice-backed Emitter. It owns every allocation
// made during one translation and is released on Destroy, mirroring how a
// single translation owns its emitter for its entire duration (see the
// module's concurrency notes).
type Program struct {
	Decls  []Decl
	Insns  []Inst
	F4     []ImmF4
	I4     []ImmI4
	F1     []float32
	U1     []uint32
	nTemp  int
	nLabel int
	final  bool
	freed  bool

	labelTargets map[Label]int
}

// NewProgram allocates an empty program.
func NewProgram() *Program {
	return &Program{}
}

func (p *Program) declare(kind DeclKind, index int, sem Semantic, mask uint8, target SamplerTarget, interp bool) Ref {
	p.Decls = append(p.Decls, Decl{
		Kind: kind, Index: index, Sem: sem, Mask: mask, Target: target,
		Interp: interp, OrderNum: len(p.Insns),
	})
	return Ref{Kind: kind, Index: index}
}

func (p *Program) DeclareTemp(index int) Ref {
	if index+1 > p.nTemp {
		p.nTemp = index + 1
	}
	return p.declare(DeclTemp, index, Semantic{}, 0, 0, false)
}

func (p *Program) DeclareAddress() Ref {
	return p.declare(DeclAddress, 0, Semantic{}, 0, 0, false)
}

func (p *Program) DeclarePredicate() Ref {
	return p.declare(DeclPredicate, 0, Semantic{}, 0, 0, false)
}

func (p *Program) DeclareSampler(index int, target SamplerTarget) Ref {
	return p.declare(DeclSampler, index, Semantic{}, 0, target, false)
}

func (p *Program) DeclareVSInput(index int) Ref {
	return p.declare(DeclVSInput, index, Semantic{}, 0, 0, false)
}

func (p *Program) DeclareFSInput(index int, sem Semantic, interpolated bool) Ref {
	return p.declare(DeclFSInputInterpolated, index, sem, 0, 0, interpolated)
}

func (p *Program) DeclareOutput(index int, sem Semantic) Ref {
	return p.declare(DeclOutput, index, sem, 0, 0, false)
}

func (p *Program) DeclareMaskedOutput(index int, sem Semantic, mask uint8) Ref {
	return p.declare(DeclMaskedOutput, index, sem, mask, 0, false)
}

func (p *Program) DeclareConstSlot(index int) Ref {
	return p.declare(DeclConst, index, Semantic{}, 0, 0, false)
}

func (p *Program) ImmediateFloat4(v [4]float32) ImmHandle {
	p.F4 = append(p.F4, ImmF4(v))
	return ImmHandle(len(p.F4) - 1)
}

func (p *Program) ImmediateInt4(v [4]int32) ImmHandle {
	p.I4 = append(p.I4, ImmI4(v))
	return ImmHandle(len(p.I4) - 1)
}

func (p *Program) ImmediateFloat1(v float32) ImmHandle {
	p.F1 = append(p.F1, v)
	return ImmHandle(len(p.F1) - 1)
}

func (p *Program) ImmediateUint1(v uint32) ImmHandle {
	p.U1 = append(p.U1, v)
	return ImmHandle(len(p.U1) - 1)
}

func (p *Program) Emit(op Op, dst []Dst, src []Operand) error {
	if p.freed {
		return errors.New("ir: emit on destroyed program")
	}
	p.Insns = append(p.Insns, Inst{Op: op, Dst: dst, Src: src})
	return nil
}

func (p *Program) NewLabel() Label {
	p.nLabel++
	return Label(p.nLabel - 1)
}

// labelTargets maps a label to the instruction index it was fixed at.
// Declared lazily on first fix-up; grown as needed like the decode-side
// label table in the handlers package.
func (p *Program) ensureLabelTargets() {
	if p.labelTargets == nil {
		p.labelTargets = map[Label]int{}
	}
}

func (p *Program) FixLabel(l Label) {
	p.ensureLabelTargets()
	p.labelTargets[l] = len(p.Insns)
}

func (p *Program) BeginIf(src Operand) Label {
	l := p.NewLabel()
	_ = p.Emit(OpIf, nil, []Operand{src})
	return l
}

func (p *Program) BeginElse(l Label) Label {
	p.FixLabel(l)
	_ = p.Emit(OpElse, nil, nil)
	return p.NewLabel()
}

func (p *Program) EndIf(l Label) {
	p.FixLabel(l)
	_ = p.Emit(OpEndIf, nil, nil)
}

func (p *Program) BeginLoop() Label {
	l := p.NewLabel()
	_ = p.Emit(OpLoop, nil, nil)
	return l
}

func (p *Program) EndLoop(l Label) {
	p.FixLabel(l)
	_ = p.Emit(OpEndLoop, nil, nil)
}

func (p *Program) Break() {
	_ = p.Emit(OpBreak, nil, nil)
}

func (p *Program) BreakC(src Operand) {
	_ = p.Emit(OpBreakc, nil, []Operand{src})
}

func (p *Program) Call(target Label) {
	p.ensureLabelTargets()
	_ = p.Emit(OpCall, nil, nil)
}

func (p *Program) CallNz(target Label, predicate Operand, negate bool) {
	p.ensureLabelTargets()
	_ = p.Emit(OpCallNz, nil, []Operand{predicate})
}

func (p *Program) Ret() {
	_ = p.Emit(OpRet, nil, nil)
}

func (p *Program) Finalize() error {
	if p.freed {
		return errors.New("ir: finalize on destroyed program")
	}
	p.final = true
	return nil
}

func (p *Program) Destroy() {
	p.freed = true
	p.Decls = nil
	p.Insns = nil
}

// Finalized reports whether Finalize succeeded, for tests.
func (p *Program) Finalized() bool { return p.final }

// LabelCount reports how many labels have been allocated, for the dump
// REPL's "labels" command.
func (p *Program) LabelCount() int { return p.nLabel }

// Labels returns the fix-up table (label -> instruction index) built so
// far, for the dump REPL's "labels" command.
func (p *Program) Labels() map[Label]int {
	p.ensureLabelTargets()
	return p.labelTargets
}
