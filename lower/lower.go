/*
 * sm1xlate - operand lowering
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

// Package lower turns decoded sm1.SourceParam/sm1.DestParam values into
// ir.Operand/ir.Dst values the emitter accepts, resolving register files
// through a regenv.Env and materialising source modifiers the IR has no
// direct support for as extra scratch-temp instructions ahead of the
// instruction being lowered.
package lower

import (
	"math"

	"github.com/sm1xlate/sm1xlate/ir"
	"github.com/sm1xlate/sm1xlate/regenv"
	"github.com/sm1xlate/sm1xlate/sm1"
	"github.com/sm1xlate/sm1xlate/sm1err"
)

// Source lowers one decoded source operand. em is used both to resolve
// immediates and, when the modifier has no direct IR equivalent, to
// emit the scratch instruction that computes it.
func Source(em ir.Emitter, env *regenv.Env, s sm1.SourceParam) ir.Operand {
	if s.File == sm1.FileImmediate {
		return immediateOperand(em, s)
	}

	op := ir.Operand{Reg: resolveRef(env, s.File, s.Index), Swizzle: s.Swizzle}
	if s.File == sm1.FileConstBool {
		// Four bool constants share one declared slot; broadcast the
		// constant's own lane (index mod 4) regardless of swizzle, per
		// the module's CONSTBOOL lowering rule.
		lane := uint8(s.Index % 4)
		op.Swizzle = [4]uint8{lane, lane, lane, lane}
	}
	if s.Relative != nil {
		inner := Source(em, env, *s.Relative)
		op.Indirect = &inner
	}
	return applyModifier(em, op, s.Modifier)
}

// Dest lowers one decoded destination operand. Non-zero Shift is a
// decode-time invariant violation: Dest returns
// sm1err.ErrMalformedParameter, and the driver stops translating. The
// shift is otherwise ignored, matching the instruction-set tables for
// every opcode this translator implements (none define a live
// destination shift).
//
// WriteMask is passed through unchanged: a wire mask of 0 is a genuine
// all-components-disabled destination, not shorthand for "all
// components." Callers that emit ordinary (non-declaration)
// instructions must skip the emission entirely when WriteMask is 0
// rather than promote it to a write.
func Dest(env *regenv.Env, d sm1.DestParam) (ir.Dst, error) {
	dst := ir.Dst{
		Reg:       resolveRef(env, d.File, d.Index),
		WriteMask: d.WriteMask,
		Saturate:  d.Modifier == sm1.DstModSaturate,
	}
	if d.Shift != 0 {
		return dst, sm1err.ErrMalformedParameter
	}
	return dst, nil
}

func resolveRef(env *regenv.Env, file sm1.RegFile, index int) ir.Ref {
	switch file {
	case sm1.FileTemp, sm1.FileTempFloat16:
		return env.Temp(index)
	case sm1.FileInput:
		return env.Input(index)
	case sm1.FileConstFloat:
		return env.ConstFloat(index)
	case sm1.FileConstInt:
		return env.ConstInt(index)
	case sm1.FileConstBool:
		return env.ConstBool(index)
	case sm1.FileAddrOrTexcoord:
		return env.AddrOrTexcoord(index)
	case sm1.FilePredicate:
		return env.Predicate(index)
	case sm1.FileSampler:
		return env.SamplerRef(index)
	case sm1.FileLoopCounter:
		reg, _ := env.EnterLoop()
		env.ExitLoop() // read-only reference: restores the depth counter immediately
		return reg
	case sm1.FileRastOut, sm1.FileAttrOut, sm1.FileOutput, sm1.FileColorOut, sm1.FileDepthOut, sm1.FileMisc:
		return env.OutputLike(index)
	default:
		return env.Temp(index)
	}
}

func immediateOperand(em ir.Emitter, s sm1.SourceParam) ir.Operand {
	var h ir.ImmHandle
	switch s.Type {
	case sm1.ImmInt4:
		var v [4]int32
		for i, u := range s.Imm {
			v[i] = int32(u)
		}
		h = em.ImmediateInt4(v)
	case sm1.ImmBool:
		h = em.ImmediateUint1(s.Imm[0])
	default:
		var v [4]float32
		for i, u := range s.Imm {
			v[i] = math.Float32frombits(u)
		}
		h = em.ImmediateFloat4(v)
	}
	return ir.Operand{Immediate: h, IsImm: true, Swizzle: s.Swizzle}
}

// applyModifier materialises a source modifier. Negate/absolute/sign
// family modifiers that the IR cannot express as an operand flag are
// computed into a scratch temp with one or more extra instructions
// ahead of the consumer (the negated abs/bias/x2 forms add a NEG).
func applyModifier(em ir.Emitter, op ir.Operand, mod sm1.SrcModifier) ir.Operand {
	switch mod {
	case sm1.ModNone:
		return op
	case sm1.ModNeg:
		return scratchUnary(em, op, ir.OpNeg)
	case sm1.ModAbs:
		return scratchUnary(em, op, ir.OpAbs)
	case sm1.ModAbsNeg:
		return scratchUnary(em, scratchUnary(em, op, ir.OpAbs), ir.OpNeg)
	case sm1.ModNot:
		return scratchUnary(em, op, ir.OpBitNot)
	case sm1.ModBias, sm1.ModBiasNeg:
		return scratchBiasOrSign(em, op, -0.5, mod == sm1.ModBiasNeg)
	case sm1.ModSign, sm1.ModSignNeg:
		return scratchSign(em, op, mod == sm1.ModSignNeg)
	case sm1.ModX2, sm1.ModX2Neg:
		return scratchScale(em, op, 2.0, mod == sm1.ModX2Neg)
	case sm1.ModComp:
		return scratchComplement(em, op)
	case sm1.ModDZ:
		op.Swizzle = projectSwizzle(op.Swizzle, 2)
		return op
	case sm1.ModDW:
		op.Swizzle = projectSwizzle(op.Swizzle, 3)
		return op
	default:
		return op
	}
}

func projectSwizzle(s [4]uint8, comp uint8) [4]uint8 {
	return [4]uint8{s[0], s[1], s[2], comp}
}

func scratchTemp(em ir.Emitter) ir.Ref {
	return em.DeclareTemp(-1)
}

func scratchUnary(em ir.Emitter, src ir.Operand, op ir.Op) ir.Operand {
	t := scratchTemp(em)
	_ = em.Emit(op, []ir.Dst{{Reg: t, WriteMask: 0xF}}, []ir.Operand{src})
	return ir.Operand{Reg: t, Swizzle: ir.IdentitySwizzle}
}

func scratchBiasOrSign(em ir.Emitter, src ir.Operand, biasConst float32, negate bool) ir.Operand {
	t := scratchTemp(em)
	biasImm := em.ImmediateFloat1(biasConst)
	_ = em.Emit(ir.OpAdd, []ir.Dst{{Reg: t, WriteMask: 0xF}}, []ir.Operand{
		src, {Immediate: biasImm, IsImm: true, Swizzle: ir.IdentitySwizzle},
	})
	out := ir.Operand{Reg: t, Swizzle: ir.IdentitySwizzle}
	if negate {
		return scratchUnary(em, out, ir.OpNeg)
	}
	return out
}

// scratchSign computes 2*x-1, the D3DSPSM_SIGN source modifier (maps
// [0,1] to [-1,1]), as a single fused multiply-add; SIGNNEG folds its
// negation into the same MAD's scale/bias (-2*x+1) rather than a second
// instruction.
func scratchSign(em ir.Emitter, src ir.Operand, negate bool) ir.Operand {
	scale, bias := float32(2.0), float32(-1.0)
	if negate {
		scale, bias = -2.0, 1.0
	}
	t := scratchTemp(em)
	scaleImm := em.ImmediateFloat1(scale)
	biasImm := em.ImmediateFloat1(bias)
	_ = em.Emit(ir.OpMad, []ir.Dst{{Reg: t, WriteMask: 0xF}}, []ir.Operand{
		src,
		{Immediate: scaleImm, IsImm: true, Swizzle: ir.IdentitySwizzle},
		{Immediate: biasImm, IsImm: true, Swizzle: ir.IdentitySwizzle},
	})
	return ir.Operand{Reg: t, Swizzle: ir.IdentitySwizzle}
}

func scratchScale(em ir.Emitter, src ir.Operand, scale float32, negate bool) ir.Operand {
	t := scratchTemp(em)
	scaleImm := em.ImmediateFloat1(scale)
	_ = em.Emit(ir.OpMul, []ir.Dst{{Reg: t, WriteMask: 0xF}}, []ir.Operand{
		src, {Immediate: scaleImm, IsImm: true, Swizzle: ir.IdentitySwizzle},
	})
	out := ir.Operand{Reg: t, Swizzle: ir.IdentitySwizzle}
	if negate {
		return scratchUnary(em, out, ir.OpNeg)
	}
	return out
}

// scratchComplement computes 1-x, the D3DSPSM_COMP source modifier.
func scratchComplement(em ir.Emitter, src ir.Operand) ir.Operand {
	t := scratchTemp(em)
	oneImm := em.ImmediateFloat1(1.0)
	_ = em.Emit(ir.OpSub, []ir.Dst{{Reg: t, WriteMask: 0xF}}, []ir.Operand{
		{Immediate: oneImm, IsImm: true, Swizzle: ir.IdentitySwizzle}, src,
	})
	return ir.Operand{Reg: t, Swizzle: ir.IdentitySwizzle}
}
