/*
 * sm1xlate - downstream IR types and emitter contract
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

// Package ir defines the downstream GPU intermediate representation the
// translator lowers into. The real backend compiler is out of scope (see
// the top-level module docs); Emitter is the narrow contract the
// translator is written against, and Program is an in-memory reference
// implementation used by tests and the dump tool.
package ir

// Op identifies a target IR opcode emitted by the translator.
type Op int

const (
	OpNop Op = iota
	OpMov
	OpAdd
	OpSub
	OpMad
	OpMul
	OpRcp
	OpRsq
	OpDp3
	OpDp4
	OpMin
	OpMax
	OpSlt
	OpSge
	OpExp
	OpLog
	OpLit
	OpDst
	OpLrp
	OpFrc
	OpPow
	OpXpd
	OpSsg
	OpAbs
	OpCrs
	OpSinCos
	OpNrm
	OpSgn
	OpCmp
	OpCnd
	OpDp2a
	OpDdx
	OpDdy
	OpEnd

	// Texture family.
	OpTex
	OpTxp
	OpTxb
	OpTxl
	OpTxd
	OpTexKill

	// Control flow.
	OpIf
	OpElse
	OpEndIf
	OpLoop
	OpEndLoop
	OpBreak
	OpBreakc
	OpCall
	OpCallNz
	OpRet

	// Comparisons, used when lowering IFC/BREAKC relational flags.
	OpSetGT
	OpSetEQ
	OpSetGE
	OpSetLT
	OpSetNE
	OpSetLE

	// Scratch arithmetic used by modifier lowering (bias/sign/comp/x2/not).
	OpNeg
	OpBitNot
)

// DeclKind distinguishes the register classes the Emitter can declare.
type DeclKind int

const (
	DeclTemp DeclKind = iota
	DeclAddress
	DeclPredicate
	DeclSampler
	DeclVSInput
	DeclFSInputInterpolated
	DeclOutput
	DeclMaskedOutput
	DeclConst
)

// SamplerTarget is the texture-coordinate dimensionality of a sampler.
type SamplerTarget int

const (
	Target1D SamplerTarget = iota
	Target2D
	Target3D
	TargetCube
	TargetUnknown
)

// Semantic is the IR's input/output semantic system (position, texcoord,
// color, generic-indexed, etc). Values are opaque identifiers the
// translator constructs from DCL usage tokens; the downstream backend
// interprets them.
type Semantic struct {
	Name  string
	Index int
}

// Operand is a fully-lowered operand ready for the Emitter: either a
// register reference (possibly indirect) or an immediate handle.
type Operand struct {
	Reg       Ref
	Indirect  *Operand // non-nil for relative addressing
	Swizzle   [4]uint8
	Immediate ImmHandle
	IsImm     bool
}

// IdentitySwizzle is the default xyzw component selector.
var IdentitySwizzle = [4]uint8{0, 1, 2, 3}

// Ref names a previously declared register.
type Ref struct {
	Kind  DeclKind
	Index int
}

// ImmHandle is an opaque handle to a previously registered immediate value.
type ImmHandle int

// Dst is a fully-lowered destination operand.
type Dst struct {
	Reg       Ref
	WriteMask uint8
	Saturate  bool
}

// Label identifies a branch/call target fixed up once the destination
// instruction number is known.
type Label int

// Emitter is the opaque downstream IR builder the translator drives. It is
// an external collaborator per the module's scope: the reference
// implementation in this package (*Program) exists only to make the rest
// of the module independently testable.
type Emitter interface {
	// Declarations. Idempotent from the translator's point of view: it
	// only calls these at first touch of a register.
	DeclareTemp(index int) Ref
	DeclareAddress() Ref
	DeclarePredicate() Ref
	DeclareSampler(index int, target SamplerTarget) Ref
	DeclareVSInput(index int) Ref
	DeclareFSInput(index int, sem Semantic, interpolated bool) Ref
	DeclareOutput(index int, sem Semantic) Ref
	DeclareMaskedOutput(index int, sem Semantic, mask uint8) Ref
	DeclareConstSlot(index int) Ref

	// Immediates.
	ImmediateFloat4(v [4]float32) ImmHandle
	ImmediateInt4(v [4]int32) ImmHandle
	ImmediateFloat1(v float32) ImmHandle
	ImmediateUint1(v uint32) ImmHandle

	// Generic emission: opcode plus destination(s) and source(s). Most
	// instructions go through this; special handlers call it too once
	// they've computed their own operands.
	Emit(op Op, dst []Dst, src []Operand) error

	// Control flow with deferred label fix-up.
	NewLabel() Label
	FixLabel(l Label)
	BeginIf(src Operand) Label
	BeginElse(l Label) Label
	EndIf(l Label)
	BeginLoop() Label
	EndLoop(l Label)
	Break()
	BreakC(src Operand)
	Call(target Label)
	CallNz(target Label, predicate Operand, negate bool)
	Ret()

	// Program finalisation.
	Finalize() error
	Destroy()
}
