/*
 * sm1xlate - register environment
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

// Package regenv tracks the IR-side registers a program declares as its
// bytecode decode walks forward. Declarations are idempotent: asking for
// the same logical register twice returns the same ir.Ref without
// re-emitting a declaration, since the bytecode itself re-references
// registers by index on every instruction that touches them.
package regenv

import (
	"github.com/sm1xlate/sm1xlate/caps"
	"github.com/sm1xlate/sm1xlate/ir"
	"github.com/sm1xlate/sm1xlate/sm1"
)

const maxLoopDepth = 4 // one lane of the shared counter temp per nesting level

// Env is the live register environment for one program translation.
type Env struct {
	em    ir.Emitter
	prof  caps.Profile
	stage sm1.Stage

	temps     map[int]ir.Ref
	addr      *ir.Ref
	predicate map[int]ir.Ref
	samplers  map[int]ir.Ref
	inputs    map[int]ir.Ref
	outputs   map[int]ir.Ref

	loopCounters map[int]ir.Ref // bank index (loopDepth/maxLoopDepth) -> shared 4-wide temp
	loopDepth    int
	maxLoopDepth int

	constF map[int]ir.Ref
	constI map[int]ir.Ref
	constB map[int]ir.Ref
}

// New builds an environment bound to the given emitter, capability
// profile, and shader stage.
func New(em ir.Emitter, prof caps.Profile, stage sm1.Stage) *Env {
	return &Env{
		em:           em,
		prof:         prof,
		stage:        stage,
		temps:        make(map[int]ir.Ref),
		predicate:    make(map[int]ir.Ref),
		samplers:     make(map[int]ir.Ref),
		inputs:       make(map[int]ir.Ref),
		outputs:      make(map[int]ir.Ref),
		constF:       make(map[int]ir.Ref),
		constI:       make(map[int]ir.Ref),
		constB:       make(map[int]ir.Ref),
		loopCounters: make(map[int]ir.Ref),
	}
}

// Temp returns the IR temp register at index, declaring it on first use.
func (e *Env) Temp(index int) ir.Ref {
	if r, ok := e.temps[index]; ok {
		return r
	}
	r := e.em.DeclareTemp(index)
	e.temps[index] = r
	return r
}

// Address returns the single address register, declaring it on first
// use. Fragment-stage bytecode never reaches this path: FileAddrOrTexcoord
// resolves to a texcoord alias there instead (see AddrOrTexcoord).
func (e *Env) Address() ir.Ref {
	if e.addr == nil {
		r := e.em.DeclareAddress()
		e.addr = &r
	}
	return *e.addr
}

// Predicate returns the predicate register at index, declaring it on
// first use. Index is always 0 under the current capability profiles
// (MaxPredicates<=1) but the table is kept general for profiles that
// raise the limit.
func (e *Env) Predicate(index int) ir.Ref {
	if r, ok := e.predicate[index]; ok {
		return r
	}
	r := e.em.DeclarePredicate()
	e.predicate[index] = r
	return r
}

// Sampler returns the sampler register at index with the given target,
// declaring it on first use. The target is fixed by the first DCL that
// names this sampler; later references reuse it regardless of target.
func (e *Env) Sampler(index int, target ir.SamplerTarget) ir.Ref {
	if r, ok := e.samplers[index]; ok {
		return r
	}
	r := e.em.DeclareSampler(index, target)
	e.samplers[index] = r
	return r
}

// Input returns the vertex-stage input register at index, declaring it
// on first use.
func (e *Env) Input(index int) ir.Ref {
	if r, ok := e.inputs[index]; ok {
		return r
	}
	r := e.em.DeclareVSInput(index)
	e.inputs[index] = r
	return r
}

// FragInput returns the fragment-stage input register at index bound to
// sem, declaring it on first use. interpolated selects perspective
// interpolation versus the flat/texcoord-alias path.
func (e *Env) FragInput(index int, sem ir.Semantic, interpolated bool) ir.Ref {
	if r, ok := e.inputs[index]; ok {
		return r
	}
	r := e.em.DeclareFSInput(index, sem, interpolated)
	e.inputs[index] = r
	return r
}

// Output returns the output register at index bound to sem, declaring
// it on first use.
func (e *Env) Output(index int, sem ir.Semantic) ir.Ref {
	if r, ok := e.outputs[index]; ok {
		return r
	}
	r := e.em.DeclareOutput(index, sem)
	e.outputs[index] = r
	return r
}

// MaskedOutput returns a write-masked output register at index bound to
// sem, declaring it on first use. The mask recorded is the one seen on
// first declaration; later partial-mask writes narrow only their own
// instruction's Dst.WriteMask, not the declaration.
func (e *Env) MaskedOutput(index int, sem ir.Semantic, mask uint8) ir.Ref {
	if r, ok := e.outputs[index]; ok {
		return r
	}
	r := e.em.DeclareMaskedOutput(index, sem, mask)
	e.outputs[index] = r
	return r
}

// EnterLoop records one more level of LOOP/REP nesting and returns the
// loop-counter register together with the lane (component index) this
// nesting level owns. Every group of maxLoopDepth consecutive levels
// shares one 4-wide temp register (one lane each); a new level past a
// multiple of maxLoopDepth gets a fresh register instead of aliasing an
// outer loop's lane. The caller rejects depth 64 and beyond before this
// is reached (see sm1err.ErrLoopDepth).
func (e *Env) EnterLoop() (reg ir.Ref, lane int) {
	bank := e.loopDepth / maxLoopDepth
	r, ok := e.loopCounters[bank]
	if !ok {
		r = e.em.DeclareTemp(-(bank + 1)) // negative: driver-private, never bytecode-addressable
		e.loopCounters[bank] = r
	}
	lane = e.loopDepth % maxLoopDepth
	e.loopDepth++
	return r, lane
}

// ExitLoop undoes one EnterLoop.
func (e *Env) ExitLoop() {
	if e.loopDepth > 0 {
		e.loopDepth--
	}
}

// LoopDepth reports the current LOOP/REP nesting depth.
func (e *Env) LoopDepth() int { return e.loopDepth }

// ConstFloat returns the float constant slot at index, declaring only
// that slot on first use. The float bank grows lazily and sparsely: declaring slot 40
// before slot 3 never forces slots 4-39 into existence.
func (e *Env) ConstFloat(index int) ir.Ref {
	if r, ok := e.constF[index]; ok {
		return r
	}
	r := e.em.DeclareConstSlot(index)
	e.constF[index] = r
	return r
}

// ConstInt returns the integer constant slot at index, declaring it on
// first use.
func (e *Env) ConstInt(index int) ir.Ref {
	if r, ok := e.constI[index]; ok {
		return r
	}
	r := e.em.DeclareConstSlot(index)
	e.constI[index] = r
	return r
}

// ConstBool returns the IR register backing the boolean constant at
// index, declaring it on first use. Hardware packs four bool constants
// per declared slot, so the four indices 4g..4g+3 share one declaration;
// the group key g (index/4) is what is actually tracked and declared.
func (e *Env) ConstBool(index int) ir.Ref {
	group := index / 4
	if r, ok := e.constB[group]; ok {
		return r
	}
	r := e.em.DeclareConstSlot(group)
	e.constB[group] = r
	return r
}

// AddrOrTexcoord resolves a FileAddrOrTexcoord operand, which is the
// vertex-stage address register in vertex bytecode and a texcoord-alias
// fragment input in fragment bytecode (D3DSPR_ADDR is overloaded this
// way by every version this translator supports).
func (e *Env) AddrOrTexcoord(index int) ir.Ref {
	if e.stage == sm1.StageVertex {
		return e.Address()
	}
	if r, ok := e.inputs[index]; ok {
		return r
	}
	return e.FragInput(index, ir.Semantic{Name: "TEXCOORD", Index: index}, true)
}

// SamplerRef resolves a bare sampler reference with no target
// information of its own, reusing whatever target a prior DCL
// established. A sampler read before any DCL is declared with
// ir.TargetUnknown and translation continues; the driver does not
// reject such a read.
func (e *Env) SamplerRef(index int) ir.Ref {
	return e.Sampler(index, ir.TargetUnknown)
}

// OutputLike resolves a source read of an output-class register
// (rasterizer/attribute/color/depth outputs, when legally read back).
// These are rare as source operands; they are declared with an empty
// semantic if nothing has declared them as a destination yet.
func (e *Env) OutputLike(index int) ir.Ref {
	return e.Output(index, ir.Semantic{})
}

// ConstFloatSlots returns the set of float constant slots touched so
// far, used by the driver to decide which local DEF constants must be
// exported (see the driver's indirect-constant-access export rule).
func (e *Env) ConstFloatSlots() map[int]ir.Ref { return e.constF }
