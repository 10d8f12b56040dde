/*
 * sm1xlate - top-level translation driver
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

// Package translator is the driver: header parse, capability probe,
// instruction decode-dispatch-emit loop, and epilogue (END emit,
// local-constant export, IR finalisation). It owns one *regenv.Env and
// one *handlers.Context for the duration of exactly one call to
// Translate, mirroring the teacher's InitializeCPU/execute outer loop
// shape and the module's single-threaded, no-shared-state concurrency
// model.
package translator

import (
	"fmt"
	"log/slog"

	"github.com/sm1xlate/sm1xlate/caps"
	"github.com/sm1xlate/sm1xlate/handlers"
	"github.com/sm1xlate/sm1xlate/ir"
	"github.com/sm1xlate/sm1xlate/isa"
	"github.com/sm1xlate/sm1xlate/lower"
	"github.com/sm1xlate/sm1xlate/param"
	"github.com/sm1xlate/sm1xlate/regenv"
	"github.com/sm1xlate/sm1xlate/sm1"
	"github.com/sm1xlate/sm1xlate/sm1err"
	"github.com/sm1xlate/sm1xlate/token"
)

// ExportedConstant is one local-F constant the runtime must upload,
// because the program addressed the constant file indirectly somewhere.
type ExportedConstant struct {
	Index int
	Value [4]float32
}

// Result is everything the driver reports back beyond the emitted IR
// itself (which lives inside the caller-supplied ir.Emitter).
type Result struct {
	Stage               sm1.Stage
	Version             isa.Version
	InstructionCount    int
	BytesConsumed       int
	IndirectConstAccess bool
	ExportedConstants   []ExportedConstant
}

// constLimits are the per-stage, per-version local-constant bank sizes
// pre-declared before the decode loop starts (§4.8 step 4: "because
// later indirect access would otherwise require a second pass"). Values
// mirror the historical fixed-function/SM1-3.0 constant register counts.
type constLimits struct{ maxF, maxI, maxB int }

func limitsFor(stage sm1.Stage, ver isa.Version) constLimits {
	if stage == sm1.StageVertex {
		switch {
		case ver.Major < 2:
			return constLimits{maxF: 96, maxI: 0, maxB: 0}
		default:
			return constLimits{maxF: 256, maxI: 16, maxB: 16}
		}
	}
	switch {
	case ver.Major < 2:
		return constLimits{maxF: 8, maxI: 0, maxB: 0}
	case ver.Major == 2:
		return constLimits{maxF: 32, maxI: 16, maxB: 16}
	default:
		return constLimits{maxF: 224, maxI: 16, maxB: 16}
	}
}

// Translate decodes words as a bytecode program targeting expectedStage,
// lowering it into em under the given capability profile. On success it
// calls em.Finalize(); on any fatal error it calls em.Destroy() first, so
// the caller never holds a half-built IR object.
func Translate(words []uint32, expectedStage sm1.Stage, prof caps.Profile, em ir.Emitter, log *slog.Logger) (*Result, error) {
	if log == nil {
		log = slog.Default()
	}
	if len(words) == 0 {
		em.Destroy()
		return nil, sm1err.ErrInvalidHeader
	}

	r := token.New(words, log)
	header, err := parseHeader(r.Advance())
	if err != nil {
		em.Destroy()
		return nil, err
	}
	if header.Stage != expectedStage {
		em.Destroy()
		return nil, sm1err.ErrStageMismatch
	}

	env := regenv.New(em, prof, header.Stage)
	ctx := handlers.NewContext(em, env, prof, header.Stage, header.Version, r, log)

	predeclareConstants(env, limitsFor(header.Stage, header.Version))

	for !r.EOF() {
		if skipComment(r) {
			continue
		}
		done, err := dispatchOne(ctx, env, r, header.Stage, header.Version, log)
		if err != nil {
			em.Destroy()
			return nil, err
		}
		if done {
			break
		}
	}
	r.Advance() // consume the end sentinel for accurate byte accounting.

	if err := em.Emit(ir.OpEnd, nil, nil); err != nil {
		em.Destroy()
		return nil, err
	}

	result := &Result{
		Stage:               header.Stage,
		Version:             header.Version,
		InstructionCount:    ctx.InstructionCount(),
		BytesConsumed:       r.Pos() * 4,
		IndirectConstAccess: ctx.IndirectConstAccess(),
	}

	if result.IndirectConstAccess {
		indices, values := ctx.LocalFloatConstants()
		for i, idx := range indices {
			result.ExportedConstants = append(result.ExportedConstants, ExportedConstant{Index: idx, Value: values[i]})
		}
	}

	if err := em.Finalize(); err != nil {
		em.Destroy()
		return nil, fmt.Errorf("%w: %v", sm1err.ErrDriverFinalize, err)
	}
	return result, nil
}

func parseHeader(word uint32) (sm1.Header, error) {
	kind := word >> 16
	major := int((word >> 8) & 0xFF)
	minor := int(word & 0xFF)

	var stage sm1.Stage
	switch kind {
	case 0xFFFE:
		stage = sm1.StageVertex
	case 0xFFFF:
		stage = sm1.StageFragment
	default:
		return sm1.Header{}, sm1err.ErrInvalidHeader
	}
	if major > 3 {
		return sm1.Header{}, sm1err.ErrInvalidHeader
	}
	return sm1.Header{Stage: stage, Version: isa.Version{Major: major, Minor: minor}}, nil
}

func predeclareConstants(env *regenv.Env, lim constLimits) {
	for i := 0; i < lim.maxF; i++ {
		env.ConstFloat(i)
	}
	for i := 0; i < lim.maxI; i++ {
		env.ConstInt(i)
	}
	for i := 0; i < lim.maxB; i += 4 {
		env.ConstBool(i)
	}
}

// skipComment consumes a COMMENT token (opcode 0xFFFE, length in bits
// 16..30) if one sits at the cursor, reporting whether it did.
func skipComment(r *token.Reader) bool {
	word := r.Peek()
	if isa.Opcode(word&0xFFFF) != isa.OpCOMMENT {
		return false
	}
	length := int((word >> 16) & 0x7FFF)
	r.Advance()
	r.Skip(length)
	return true
}

// dispatchOne decodes, version-gates, and lowers exactly one instruction.
// done is true once the end sentinel is reached without an instruction
// being decoded (EOF was hit between iterations).
func dispatchOne(ctx *handlers.Context, env *regenv.Env, r *token.Reader, stage sm1.Stage, ver isa.Version, log *slog.Logger) (done bool, err error) {
	if r.EOF() {
		return true, nil
	}

	word := r.Advance()
	opcode := isa.Opcode(word & 0xFFFF)
	flags := uint8((word >> 16) & 0xFF)
	length := int((word >> 24) & 0xF)
	predicated := word&(1<<28) != 0
	coissue := word&(1<<30) != 0

	if ver.Major >= 2 {
		r.SetNext(r.Pos() + length)
	} else {
		r.ClearNext()
	}

	entry, ok := isa.Table[opcode]
	if !ok {
		log.Warn("sm1: unknown opcode, skipping", "opcode", opcode)
		r.JumpToNext()
		ctx.MarkEmitted()
		return false, nil
	}

	rng := entry.VertRange
	if stage == sm1.StageFragment {
		rng = entry.FragRange
	}
	if !rng.Contains(ver) {
		log.Warn("sm1: opcode unsupported at this version/stage, skipping", "opcode", opcode, "version", ver, "stage", stage)
		r.JumpToNext()
		ctx.MarkEmitted()
		return false, nil
	}

	inst := sm1.Instruction{Opcode: opcode, Flags: flags, Coissue: coissue, Predicated: predicated}

	switch opcode {
	case isa.OpDCL:
		if err := handlers.Handle(ctx, isa.HandlerDCL, inst, ver); err != nil {
			return false, err
		}
		ctx.MarkEmitted()
		r.JumpToNext()
		return false, nil
	case isa.OpDEF, isa.OpDEFI, isa.OpDEFB:
		return false, dispatchDef(ctx, r, ver, inst, opcode)
	}

	for i := 0; i < entry.NDst; i++ {
		inst.Dst = append(inst.Dst, param.DecodeDest(r, ver))
	}
	if predicated {
		inst.Predicate = param.DecodeSource(r, ver)
	}
	for i := 0; i < entry.NSrc; i++ {
		inst.Src = append(inst.Src, param.DecodeSource(r, ver))
	}

	validate(inst, log)

	if entry.Handler != isa.HandlerNone {
		if err := handlers.Handle(ctx, entry.Handler, inst, ver); err != nil {
			return false, err
		}
	} else if entry.HasTarget {
		if err := emitGeneric(ctx, env, inst, entry.TargetOp); err != nil {
			return false, err
		}
	}

	ctx.MarkEmitted()
	r.JumpToNext()
	return false, nil
}

// dispatchDef handles DEF/DEFI/DEFB: a destination parameter followed by
// an inline immediate payload (4/4/1 words) that the driver synthesises
// directly into src[0], ahead of the handler, per §4.3 step 8.
func dispatchDef(ctx *handlers.Context, r *token.Reader, ver isa.Version, inst sm1.Instruction, opcode isa.Opcode) error {
	inst.Dst = []sm1.DestParam{param.DecodeDest(r, ver)}

	n := 4
	if opcode == isa.OpDEFB {
		n = 1
	}
	var imm [4]uint32
	for i := 0; i < n; i++ {
		imm[i] = r.Advance()
	}
	typeTag := sm1.ImmFloat4
	handler := isa.HandlerDEF
	switch opcode {
	case isa.OpDEFI:
		typeTag, handler = sm1.ImmInt4, isa.HandlerDEFI
	case isa.OpDEFB:
		typeTag, handler = sm1.ImmBool, isa.HandlerDEFB
	}
	inst.Src = []sm1.SourceParam{{File: sm1.FileImmediate, Type: typeTag, Imm: imm}}

	if err := handlers.Handle(ctx, handler, inst, ver); err != nil {
		return err
	}
	ctx.MarkEmitted()
	r.JumpToNext()
	return nil
}

// validate applies the decoder's debug-assert-level checks that degrade
// to a logged warning in release mode rather than aborting (§7:
// "Malformed parameter ... in release, the behavior is to produce a
// degenerate operand and continue").
func validate(inst sm1.Instruction, log *slog.Logger) {
	if inst.Opcode == isa.OpCRS && len(inst.Dst) > 0 && inst.Dst[0].WriteMask&0x8 != 0 {
		log.Warn("sm1: CRS writes .w, result undefined there")
	}
}

// emitGeneric lowers a non-special instruction's operands and emits its
// table-given target opcode verbatim.
func emitGeneric(ctx *handlers.Context, env *regenv.Env, inst sm1.Instruction, op ir.Op) error {
	dsts := make([]ir.Dst, 0, len(inst.Dst))
	for _, d := range inst.Dst {
		ld, err := lower.Dest(env, d)
		if err != nil {
			return err
		}
		dsts = append(dsts, ld)
	}
	if allMasksZero(dsts) {
		// Every ordinary instruction in the tables this driver implements
		// declares at most one destination; an all-zero wire mask on it
		// writes nothing, so the instruction is a no-op and is never
		// emitted (spec.md's zero-writemask invariant).
		return nil
	}
	srcs := make([]ir.Operand, 0, len(inst.Src))
	for _, s := range inst.Src {
		srcs = append(srcs, ctx.LowerSource(s))
	}
	return ctx.Em.Emit(op, dsts, srcs)
}

// allMasksZero reports whether dsts is non-empty and every destination in
// it has an all-zero write mask, meaning the instruction writes nothing.
func allMasksZero(dsts []ir.Dst) bool {
	if len(dsts) == 0 {
		return false
	}
	for _, d := range dsts {
		if d.WriteMask != 0 {
			return false
		}
	}
	return true
}
