/*
 * sm1xlate - special-case opcode lowerings
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

// Package handlers implements every bytecode opcode whose lowering is not
// a plain "target_ir_op(dst[], src[])" emission: matrix multiplies,
// control flow (LOOP/REP/IF/IFC/BREAKC, CALL/CALLNZ/LABEL/RET), DCL,
// DEF/DEFI/DEFB, NRM, SINCOS, and the TEX family. Each handler is grounded
// on the corresponding DECL_SPECIAL function in the Mesa "nine" state
// tracker's nine_shader.c, the original implementation this instruction
// set was distilled from, restyled the way the teacher attaches one
// method per opcode to a flat dispatch table.
package handlers

import (
	"log/slog"
	"math"

	"github.com/sm1xlate/sm1xlate/caps"
	"github.com/sm1xlate/sm1xlate/ir"
	"github.com/sm1xlate/sm1xlate/isa"
	"github.com/sm1xlate/sm1xlate/lower"
	"github.com/sm1xlate/sm1xlate/param"
	"github.com/sm1xlate/sm1xlate/regenv"
	"github.com/sm1xlate/sm1xlate/sm1"
	"github.com/sm1xlate/sm1xlate/sm1err"
	"github.com/sm1xlate/sm1xlate/token"
)

const maxNestDepth = 64

// loopKind distinguishes a LOOP frame (shares the lane-packed aL register)
// from a REP frame (owns a private scratch counter).
type loopKind int

const (
	kindLoop loopKind = iota
	kindRep
)

type loopFrame struct {
	kind    loopKind
	label   ir.Label
	counter ir.Ref
	lane    int // valid for kindLoop only
}

// Context is the mutable state one handler dispatch needs beyond the
// decoded instruction itself: the emitter, the register environment, the
// capability profile, local-constant banks recorded by DEF/DEFI/DEFB, the
// loop/conditional nesting stacks, and the CALL/LABEL table. One Context
// lives for exactly one translation, mirroring the module's "no shared
// mutable state across invocations" rule.
type Context struct {
	Em     ir.Emitter
	Env    *regenv.Env
	Caps   caps.Profile
	Stage  sm1.Stage
	Ver    isa.Version
	Reader *token.Reader
	Log    *slog.Logger

	loopStack []loopFrame
	condStack []ir.Label

	labels     map[int]ir.Label
	lconstF    map[int][4]float32
	lconstFSet map[int]bool
	lconstI    map[int][4]int32
	lconstB    map[int]bool

	indirectConstAccess bool
	instCount           int
}

// NewContext builds an empty handler context bound to em/env for one
// translation.
func NewContext(em ir.Emitter, env *regenv.Env, prof caps.Profile, stage sm1.Stage, ver isa.Version, r *token.Reader, log *slog.Logger) *Context {
	if log == nil {
		log = slog.Default()
	}
	return &Context{
		Em: em, Env: env, Caps: prof, Stage: stage, Ver: ver, Reader: r, Log: log,
		labels:     map[int]ir.Label{},
		lconstF:    map[int][4]float32{},
		lconstFSet: map[int]bool{},
		lconstI:    map[int][4]int32{},
		lconstB:    map[int]bool{},
	}
}

// IndirectConstAccess reports whether any CONST source used relative
// addressing during this translation (see the module's local-constant
// export rule).
func (c *Context) IndirectConstAccess() bool { return c.indirectConstAccess }

// NoteConstAccess is called by the driver for every lowered CONST source;
// relative accesses flip the sticky indirect-access flag.
func (c *Context) NoteConstAccess(relative bool) {
	if relative {
		c.indirectConstAccess = true
	}
}

// LocalFloatConstants returns the recorded DEF constants, in ascending
// index order, for the driver's export-iff-indirect epilogue step.
func (c *Context) LocalFloatConstants() (indices []int, values [][4]float32) {
	for idx := range c.lconstFSet {
		indices = append(indices, idx)
	}
	for i := 0; i < len(indices); i++ {
		for j := i + 1; j < len(indices); j++ {
			if indices[j] < indices[i] {
				indices[i], indices[j] = indices[j], indices[i]
			}
		}
	}
	for _, idx := range indices {
		values = append(values, c.lconstF[idx])
	}
	return indices, values
}

// inlineFloatConst returns the literal value bound to index by a prior
// DEF and whether one exists.
func (c *Context) inlineFloatConst(index int) ([4]float32, bool) {
	ok := c.lconstFSet[index]
	return c.lconstF[index], ok
}

func labelRef(c *Context, idx int) ir.Label {
	if l, ok := c.labels[idx]; ok {
		return l
	}
	l := c.Em.NewLabel()
	c.labels[idx] = l
	return l
}

// MarkEmitted bumps the processed-instruction count that InstructionCount
// reports; the driver calls this once per decoded instruction (including
// ones lowered to zero IR instructions). Labels are not recorded against
// this count: LABEL fixes its label at the emitter's current IR
// instruction index (see ir.Emitter.FixLabel).
func (c *Context) MarkEmitted() { c.instCount++ }

// InstructionCount reports how many bytecode instructions have been
// marked emitted so far (see MarkEmitted).
func (c *Context) InstructionCount() int { return c.instCount }

// Handle dispatches one decoded instruction to its special handler. inst
// has already had its destinations/sources decoded by the driver except
// for DCL, whose semantic token and destination the handler reads from
// the token stream itself, and DEF/DEFI/DEFB, whose literal payload words
// the driver places in Src[0].Imm (see translator.go's dispatch loop for
// why those two are special-cased ahead of the generic decode).
func Handle(c *Context, h isa.Handler, inst sm1.Instruction, ver isa.Version) error {
	switch h {
	case isa.HandlerM4x4:
		return mkxn(c, inst, 4, 4)
	case isa.HandlerM4x3:
		return mkxn(c, inst, 4, 3)
	case isa.HandlerM3x4:
		return mkxn(c, inst, 3, 4)
	case isa.HandlerM3x3:
		return mkxn(c, inst, 3, 3)
	case isa.HandlerM3x2:
		return mkxn(c, inst, 3, 2)
	case isa.HandlerDEF:
		return def(c, inst)
	case isa.HandlerDEFI:
		return defi(c, inst)
	case isa.HandlerDEFB:
		return defb(c, inst)
	case isa.HandlerDCL:
		return dcl(c, ver)
	case isa.HandlerLOOP:
		return loopStart(c, inst)
	case isa.HandlerENDLOOP:
		return loopEnd(c, kindLoop)
	case isa.HandlerREP:
		return repStart(c, inst)
	case isa.HandlerENDREP:
		return loopEnd(c, kindRep)
	case isa.HandlerIF:
		return ifStart(c, inst)
	case isa.HandlerIFC:
		return ifcStart(c, inst)
	case isa.HandlerELSE:
		return elseHandler(c)
	case isa.HandlerENDIF:
		return endif(c)
	case isa.HandlerBREAKC:
		return breakc(c, inst)
	case isa.HandlerCALL:
		return call(c, inst)
	case isa.HandlerCALLNZ:
		return callnz(c, inst)
	case isa.HandlerLABEL:
		return label(c, inst)
	case isa.HandlerRET:
		c.Em.Ret()
		return nil
	case isa.HandlerSINCOS:
		return sincos(c, inst)
	case isa.HandlerNRM:
		return nrm(c, inst)
	case isa.HandlerTEX:
		return tex(c, inst)
	case isa.HandlerTEXKILL:
		return texkill(c, inst)
	case isa.HandlerTEXLDD:
		return texldd(c, inst)
	case isa.HandlerTEXLDL:
		return texldl(c, inst)
	case isa.HandlerTEXCOORD:
		return nil // superseded by DCL-driven texcoord inputs; no-op body.
	case isa.HandlerSETP, isa.HandlerBREAKP, isa.HandlerLegacyTex:
		return sm1err.ErrUnimplementedLegacyTex
	case isa.HandlerPHASE, isa.HandlerCOMMENT:
		return nil
	default:
		return nil
	}
}

// mkxn emits n dot products of size k between src0 and consecutive rows
// starting at src1; only the rows selected by the destination writemask
// are emitted, per the module's Mkxn contract.
func mkxn(c *Context, inst sm1.Instruction, k, n int) error {
	dst, err := lower.Dest(c.Env, inst.Dst[0])
	if err != nil {
		return err
	}
	src0 := c.LowerSource(inst.Src[0])
	for row := 0; row < n; row++ {
		if dst.WriteMask&(1<<uint(row)) == 0 {
			continue
		}
		rowParam := inst.Src[1]
		rowParam.Index += row
		rowSrc := c.LowerSource(rowParam)
		op := ir.OpDp3
		if k == 4 {
			op = ir.OpDp4
		}
		rowDst := ir.Dst{Reg: dst.Reg, WriteMask: 1 << uint(row), Saturate: dst.Saturate}
		if err := c.Em.Emit(op, []ir.Dst{rowDst}, []ir.Operand{src0, rowSrc}); err != nil {
			return err
		}
	}
	return nil
}

func (c *Context) LowerSource(s sm1.SourceParam) ir.Operand {
	if s.File == sm1.FileConstFloat {
		c.NoteConstAccess(s.Relative != nil)
		if s.Relative == nil {
			if v, ok := c.inlineFloatConst(s.Index); ok {
				imm := c.Em.ImmediateFloat4(v)
				return ir.Operand{Immediate: imm, IsImm: true, Swizzle: s.Swizzle}
			}
		}
	}
	return lower.Source(c.Em, c.Env, s)
}

func def(c *Context, inst sm1.Instruction) error {
	idx := inst.Dst[0].Index
	var v [4]float32
	for i, u := range inst.Src[0].Imm {
		v[i] = floatBits(u)
	}
	c.lconstF[idx] = v
	c.lconstFSet[idx] = true
	return nil
}

func defi(c *Context, inst sm1.Instruction) error {
	idx := inst.Dst[0].Index
	var v [4]int32
	for i, u := range inst.Src[0].Imm {
		v[i] = int32(u)
	}
	c.lconstI[idx] = v
	return nil
}

func defb(c *Context, inst sm1.Instruction) error {
	idx := inst.Dst[0].Index
	c.lconstB[idx] = inst.Src[0].Imm[0] != 0
	return nil
}

func floatBits(u uint32) float32 {
	return math.Float32frombits(u)
}

// dcl decodes the semantic token + destination register for a DCL
// instruction directly from the token stream: real bytecode orders these
// as [semantic token][dst param], ahead of the generic ndst/nsrc decode
// the driver applies to every other opcode (see isa.OpDCL's zero arity).
func dcl(c *Context, ver isa.Version) error {
	tok := c.Reader.Advance()
	dst := decodeDclDest(c, ver)
	if dst.WriteMask == 0 {
		return sm1err.ErrMalformedParameter
	}

	if tok&1 != 0 {
		target := ir.SamplerTarget((tok >> 1) & 0x7)
		c.Env.Sampler(dst.Index, target)
		return nil
	}

	usage := Usage((tok >> 1) & 0x1F)
	usageIndex := int((tok >> 6) & 0xF)
	sem := semanticFor(usage, usageIndex, c.Caps.PreferTexcoord)

	switch dst.File {
	case sm1.FileInput:
		if c.Stage == sm1.StageVertex {
			c.Env.Input(dst.Index)
		} else {
			interp := usage != UsagePosition
			c.Env.FragInput(dst.Index, sem, interp)
		}
	case sm1.FileColorOut:
		c.Env.Output(dst.Index, ir.Semantic{Name: "COLOR", Index: dst.Index})
	case sm1.FileDepthOut:
		c.Env.MaskedOutput(dst.Index, ir.Semantic{Name: "DEPTH"}, 0x4)
	case sm1.FileOutput, sm1.FileRastOut, sm1.FileAttrOut:
		c.Env.Output(dst.Index, sem)
	default:
		c.Env.Output(dst.Index, sem)
	}
	return nil
}

// decodeDclDest reads the destination parameter word following a DCL's
// semantic token, via the same decoder every other instruction's
// destinations go through. DCL is the one opcode exempt from the driver's
// generic ndst decode (see isa.OpDCL's zero arity) because the semantic
// token must be read before the destination word, not after.
func decodeDclDest(c *Context, ver isa.Version) sm1.DestParam {
	return param.DecodeDest(c.Reader, ver)
}

// texcoordGenericBase is the semantic index offset applied to every
// non-texcoord usage (index = texcoordGenericBase + usageOffset + usage
// index). While the capability profile prefers texcoord semantics those
// usages are packed into the generic semantic; otherwise they keep their
// own usage name with the same offset index. Texcoord usages declared
// without the texcoord preference become generic semantics at
// texcoordGenericBase + usage index.
const texcoordGenericBase = 8

func semanticFor(u Usage, index int, preferTexcoord bool) ir.Semantic {
	if u == UsageTexcoord && preferTexcoord {
		return ir.Semantic{Name: "TEXCOORD", Index: index}
	}
	if u == UsageTexcoord {
		return ir.Semantic{Name: "GENERIC", Index: texcoordGenericBase + index}
	}
	if preferTexcoord {
		return ir.Semantic{Name: "GENERIC", Index: texcoordGenericBase + usageOffset(u) + index}
	}
	return ir.Semantic{Name: u.String(), Index: texcoordGenericBase + usageOffset(u) + index}
}

func usageOffset(u Usage) int {
	switch u {
	case UsageColor:
		return 0
	case UsageFog:
		return 1
	case UsagePSize:
		return 2
	case UsageBlendWeight:
		return 3
	case UsageBlendIndices:
		return 4
	case UsageNormal:
		return 5
	case UsageTangent:
		return 6
	case UsageBinormal:
		return 7
	case UsageTessFactor:
		return 8
	case UsageDepth:
		return 9
	case UsageSample:
		return 10
	default:
		return 11
	}
}

func loopStart(c *Context, inst sm1.Instruction) error {
	if len(c.loopStack) >= maxNestDepth {
		return sm1err.ErrLoopDepth
	}
	reg, lane := c.Env.EnterLoop()
	iterIdx := inst.Src[1].Index
	vals := c.lconstI[iterIdx]
	iter, init, step := vals[0], vals[1], vals[2]

	initImm := c.Em.ImmediateInt4([4]int32{init, init, init, init})
	if err := c.Em.Emit(ir.OpMov, []ir.Dst{{Reg: reg, WriteMask: 1 << uint(lane)}},
		[]ir.Operand{{Immediate: initImm, IsImm: true, Swizzle: ir.IdentitySwizzle}}); err != nil {
		return err
	}

	label := c.Em.BeginLoop()
	limit := init + iter*step
	limitImm := c.Em.ImmediateInt4([4]int32{limit, limit, limit, limit})
	ctrOp := ir.Operand{Reg: reg, Swizzle: laneSwizzle(lane)}
	limitOp := ir.Operand{Immediate: limitImm, IsImm: true, Swizzle: ir.IdentitySwizzle}

	scratch := c.Env.Temp(-1)
	if err := c.Em.Emit(ir.OpSetGE, []ir.Dst{{Reg: scratch, WriteMask: 0x1}}, []ir.Operand{ctrOp, limitOp}); err != nil {
		return err
	}

	// The counter advances here, immediately after the break test and
	// before the loop body, not at ENDLOOP: the break test reads the
	// pre-increment value, and the body that follows reads the
	// incremented one.
	stepImm := c.Em.ImmediateInt4([4]int32{step, step, step, step})
	if err := c.Em.Emit(ir.OpAdd, []ir.Dst{{Reg: reg, WriteMask: 1 << uint(lane)}},
		[]ir.Operand{ctrOp, {Immediate: stepImm, IsImm: true, Swizzle: ir.IdentitySwizzle}}); err != nil {
		return err
	}

	c.Em.BreakC(ir.Operand{Reg: scratch, Swizzle: ir.IdentitySwizzle})

	c.loopStack = append(c.loopStack, loopFrame{kind: kindLoop, label: label, counter: reg, lane: lane})
	return nil
}

func repStart(c *Context, inst sm1.Instruction) error {
	if len(c.loopStack) >= maxNestDepth {
		return sm1err.ErrLoopDepth
	}
	limitOp := c.LowerSource(inst.Src[0])
	counter := c.Env.Temp(-1)
	zeroImm := c.Em.ImmediateInt4([4]int32{0, 0, 0, 0})
	if err := c.Em.Emit(ir.OpMov, []ir.Dst{{Reg: counter, WriteMask: 0x1}},
		[]ir.Operand{{Immediate: zeroImm, IsImm: true, Swizzle: ir.IdentitySwizzle}}); err != nil {
		return err
	}

	label := c.Em.BeginLoop()
	scratch := c.Env.Temp(-1)
	ctrOp := ir.Operand{Reg: counter, Swizzle: ir.IdentitySwizzle}
	if err := c.Em.Emit(ir.OpSetGE, []ir.Dst{{Reg: scratch, WriteMask: 0x1}}, []ir.Operand{ctrOp, limitOp}); err != nil {
		return err
	}

	// Advance before the body, mirroring loopStart: the test above read
	// the pre-increment count.
	oneImm := c.Em.ImmediateInt4([4]int32{1, 1, 1, 1})
	if err := c.Em.Emit(ir.OpAdd, []ir.Dst{{Reg: counter, WriteMask: 0x1}},
		[]ir.Operand{ctrOp, {Immediate: oneImm, IsImm: true, Swizzle: ir.IdentitySwizzle}}); err != nil {
		return err
	}
	c.Em.BreakC(ir.Operand{Reg: scratch, Swizzle: ir.IdentitySwizzle})

	c.loopStack = append(c.loopStack, loopFrame{kind: kindRep, label: label, counter: counter})
	return nil
}

// loopEnd closes the IR loop block. The counter was already advanced in
// loopStart/repStart, right after the break test and before the body; by
// the time ENDLOOP/ENDREP decodes there is nothing left to emit but the
// loop terminator itself.
func loopEnd(c *Context, kind loopKind) error {
	if len(c.loopStack) == 0 {
		return sm1err.ErrLoopDepth
	}
	f := c.loopStack[len(c.loopStack)-1]
	c.loopStack = c.loopStack[:len(c.loopStack)-1]
	c.Env.ExitLoop()

	c.Em.EndLoop(f.label)
	return nil
}

func laneSwizzle(lane int) [4]uint8 {
	l := uint8(lane)
	return [4]uint8{l, l, l, l}
}

func ifStart(c *Context, inst sm1.Instruction) error {
	if len(c.condStack) >= maxNestDepth {
		return sm1err.ErrCondDepth
	}
	src := c.LowerSource(inst.Src[0])
	label := c.Em.BeginIf(src)
	c.condStack = append(c.condStack, label)
	return nil
}

func ifcStart(c *Context, inst sm1.Instruction) error {
	if len(c.condStack) >= maxNestDepth {
		return sm1err.ErrCondDepth
	}
	cmp, err := relationalCompare(c, inst)
	if err != nil {
		return err
	}
	label := c.Em.BeginIf(cmp)
	c.condStack = append(c.condStack, label)
	return nil
}

func elseHandler(c *Context) error {
	if len(c.condStack) == 0 {
		return sm1err.ErrCondDepth
	}
	top := c.condStack[len(c.condStack)-1]
	c.condStack[len(c.condStack)-1] = c.Em.BeginElse(top)
	return nil
}

func endif(c *Context) error {
	if len(c.condStack) == 0 {
		return sm1err.ErrCondDepth
	}
	top := c.condStack[len(c.condStack)-1]
	c.condStack = c.condStack[:len(c.condStack)-1]
	c.Em.EndIf(top)
	return nil
}

func breakc(c *Context, inst sm1.Instruction) error {
	cmp, err := relationalCompare(c, inst)
	if err != nil {
		return err
	}
	c.Em.BreakC(cmp)
	return nil
}

// relationalCompare lowers an IFC/BREAKC relational flag into a scratch
// scalar compare, per the module's IFC/BREAKC contract.
func relationalCompare(c *Context, inst sm1.Instruction) (ir.Operand, error) {
	op, err := relOpFor(sm1.RelOp(inst.Flags))
	if err != nil {
		return ir.Operand{}, err
	}
	a := c.LowerSource(inst.Src[0])
	b := c.LowerSource(inst.Src[1])
	scratch := c.Env.Temp(-1)
	if err := c.Em.Emit(op, []ir.Dst{{Reg: scratch, WriteMask: 0x1}}, []ir.Operand{a, b}); err != nil {
		return ir.Operand{}, err
	}
	return ir.Operand{Reg: scratch, Swizzle: ir.IdentitySwizzle}, nil
}

func relOpFor(r sm1.RelOp) (ir.Op, error) {
	switch r {
	case sm1.RelGT:
		return ir.OpSetGT, nil
	case sm1.RelEQ:
		return ir.OpSetEQ, nil
	case sm1.RelGE:
		return ir.OpSetGE, nil
	case sm1.RelLT:
		return ir.OpSetLT, nil
	case sm1.RelNE:
		return ir.OpSetNE, nil
	case sm1.RelLE:
		return ir.OpSetLE, nil
	default:
		return 0, sm1err.ErrMalformedParameter
	}
}

func call(c *Context, inst sm1.Instruction) error {
	target := labelRef(c, inst.Src[0].Index)
	c.Em.Call(target)
	return nil
}

func callnz(c *Context, inst sm1.Instruction) error {
	target := labelRef(c, inst.Src[0].Index)
	predicate := c.LowerSource(inst.Src[1])
	negate := inst.Flags&1 == 0
	c.Em.CallNz(target, predicate, negate)
	return nil
}

func label(c *Context, inst sm1.Instruction) error {
	l := labelRef(c, inst.Src[0].Index)
	c.Em.FixLabel(l)
	return nil
}

func sincos(c *Context, inst sm1.Instruction) error {
	dst, err := lower.Dest(c.Env, inst.Dst[0])
	if err != nil {
		return err
	}
	src := c.LowerSource(inst.Src[0])
	dst.WriteMask = 0x3 // .xy
	return c.Em.Emit(ir.OpSinCos, []ir.Dst{dst}, []ir.Operand{src})
}

func nrm(c *Context, inst sm1.Instruction) error {
	dst, err := lower.Dest(c.Env, inst.Dst[0])
	if err != nil {
		return err
	}
	if dst.WriteMask == 0 {
		return nil
	}
	src := c.LowerSource(inst.Src[0])

	t1 := c.Env.Temp(-1)
	if err := c.Em.Emit(ir.OpDp3, []ir.Dst{{Reg: t1, WriteMask: 0x1}}, []ir.Operand{src, src}); err != nil {
		return err
	}
	t2 := c.Env.Temp(-1)
	dotOp := ir.Operand{Reg: t1, Swizzle: ir.IdentitySwizzle}
	if err := c.Em.Emit(ir.OpRsq, []ir.Dst{{Reg: t2, WriteMask: 0x1}}, []ir.Operand{dotOp}); err != nil {
		return err
	}
	rsqOp := ir.Operand{Reg: t2, Swizzle: ir.IdentitySwizzle}
	return c.Em.Emit(ir.OpMul, []ir.Dst{dst}, []ir.Operand{src, rsqOp})
}

// TEX flag bits, set on Instruction.Flags per the module's texture-op
// variant selection (§4.7: "TEX selects sampled/projected/bias variant by
// flags").
const (
	texFlagProj = 1 << iota
	texFlagBias
)

func tex(c *Context, inst sm1.Instruction) error {
	dst, err := lower.Dest(c.Env, inst.Dst[0])
	if err != nil {
		return err
	}
	if dst.WriteMask == 0 {
		return nil
	}
	coord := c.LowerSource(inst.Src[0])
	samplerIdx := inst.Src[1].Index
	target := c.Env.Sampler(samplerIdx, ir.TargetUnknown)

	op := ir.OpTex
	switch {
	case inst.Flags&texFlagProj != 0:
		op = ir.OpTxp
	case inst.Flags&texFlagBias != 0:
		op = ir.OpTxb
	}
	samplerOp := ir.Operand{Reg: target, Swizzle: ir.IdentitySwizzle}
	return c.Em.Emit(op, []ir.Dst{dst}, []ir.Operand{coord, samplerOp})
}

func texkill(c *Context, inst sm1.Instruction) error {
	// TEXKILL reads its "destination" register as a source per §4.7.
	asSrc := sm1.SourceParam{File: inst.Dst[0].File, Index: inst.Dst[0].Index, Swizzle: sm1.IdentitySwizzle}
	src := c.LowerSource(asSrc)
	return c.Em.Emit(ir.OpTexKill, nil, []ir.Operand{src})
}

// texldd's sampler-target lookup keys off src[1].idx, as the original Mesa
// "nine" state tracker's DECL_SPECIAL(TEXLDD) does. The only check made
// before the lookup is that four sources were decoded; src[3].idx itself
// is not range-checked. See the module's open-question log.
func texldd(c *Context, inst sm1.Instruction) error {
	if len(inst.Src) < 4 {
		return sm1err.ErrMalformedParameter
	}
	dst, err := lower.Dest(c.Env, inst.Dst[0])
	if err != nil {
		return err
	}
	if dst.WriteMask == 0 {
		return nil
	}
	coord := c.LowerSource(inst.Src[0])
	ddx := c.LowerSource(inst.Src[2])
	ddy := c.LowerSource(inst.Src[3])
	target := c.Env.Sampler(inst.Src[1].Index, ir.TargetUnknown)
	samplerOp := ir.Operand{Reg: target, Swizzle: ir.IdentitySwizzle}
	return c.Em.Emit(ir.OpTxd, []ir.Dst{dst}, []ir.Operand{coord, samplerOp, ddx, ddy})
}

func texldl(c *Context, inst sm1.Instruction) error {
	dst, err := lower.Dest(c.Env, inst.Dst[0])
	if err != nil {
		return err
	}
	if dst.WriteMask == 0 {
		return nil
	}
	coord := c.LowerSource(inst.Src[0])
	target := c.Env.Sampler(inst.Src[1].Index, ir.TargetUnknown)
	samplerOp := ir.Operand{Reg: target, Swizzle: ir.IdentitySwizzle}
	return c.Em.Emit(ir.OpTxl, []ir.Dst{dst}, []ir.Operand{coord, samplerOp})
}
