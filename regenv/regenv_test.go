/*
 * sm1xlate - register environment tests
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

package regenv

import (
	"testing"

	"github.com/sm1xlate/sm1xlate/caps"
	"github.com/sm1xlate/sm1xlate/ir"
	"github.com/sm1xlate/sm1xlate/sm1"
)

func countDecls(p *ir.Program, kind ir.DeclKind) int {
	n := 0
	for _, d := range p.Decls {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

func TestTempIdempotent(t *testing.T) {
	prog := ir.NewProgram()
	env := New(prog, caps.ReferenceRasterizer, sm1.StageVertex)

	r1 := env.Temp(3)
	r2 := env.Temp(3)
	r3 := env.Temp(4)

	if r1 != r2 {
		t.Errorf("Temp(3) returned different refs: %v vs %v", r1, r2)
	}
	if r1 == r3 {
		t.Errorf("Temp(3) and Temp(4) returned the same ref: %v", r1)
	}
	if got, want := countDecls(prog, ir.DeclTemp), 2; got != want {
		t.Errorf("DeclTemp count = %d, want %d", got, want)
	}
}

func TestAddressIdempotent(t *testing.T) {
	prog := ir.NewProgram()
	env := New(prog, caps.ReferenceRasterizer, sm1.StageVertex)

	r1 := env.Address()
	r2 := env.Address()
	if r1 != r2 {
		t.Errorf("Address() returned different refs: %v vs %v", r1, r2)
	}
	if got, want := countDecls(prog, ir.DeclAddress), 1; got != want {
		t.Errorf("DeclAddress count = %d, want %d", got, want)
	}
}

func TestPredicateIdempotent(t *testing.T) {
	prog := ir.NewProgram()
	env := New(prog, caps.ReferenceRasterizer, sm1.StageVertex)

	r1 := env.Predicate(0)
	r2 := env.Predicate(0)
	if r1 != r2 {
		t.Errorf("Predicate(0) returned different refs: %v vs %v", r1, r2)
	}
	if got, want := countDecls(prog, ir.DeclPredicate), 1; got != want {
		t.Errorf("DeclPredicate count = %d, want %d", got, want)
	}
}

func TestSamplerTargetStickyFromFirstDeclare(t *testing.T) {
	prog := ir.NewProgram()
	env := New(prog, caps.ReferenceRasterizer, sm1.StageFragment)

	r1 := env.Sampler(0, ir.Target2D)
	r2 := env.Sampler(0, ir.TargetUnknown) // later bare reference, no target info
	r3 := env.SamplerRef(0)

	if r1 != r2 || r1 != r3 {
		t.Errorf("Sampler(0, ...) refs diverged: %v, %v, %v", r1, r2, r3)
	}
	if got, want := countDecls(prog, ir.DeclSampler), 1; got != want {
		t.Errorf("DeclSampler count = %d, want %d", got, want)
	}
	var decl ir.Decl
	for _, d := range prog.Decls {
		if d.Kind == ir.DeclSampler {
			decl = d
		}
	}
	if decl.Target != ir.Target2D {
		t.Errorf("sampler target = %v, want %v (sticky from first declare)", decl.Target, ir.Target2D)
	}
}

func TestInputIdempotent(t *testing.T) {
	prog := ir.NewProgram()
	env := New(prog, caps.ReferenceRasterizer, sm1.StageVertex)

	r1 := env.Input(2)
	r2 := env.Input(2)
	if r1 != r2 {
		t.Errorf("Input(2) returned different refs: %v vs %v", r1, r2)
	}
	if got, want := countDecls(prog, ir.DeclVSInput), 1; got != want {
		t.Errorf("DeclVSInput count = %d, want %d", got, want)
	}
}

func TestFragInputIdempotentIgnoresLaterSemantic(t *testing.T) {
	prog := ir.NewProgram()
	env := New(prog, caps.ReferenceRasterizer, sm1.StageFragment)

	sem := ir.Semantic{Name: "TEXCOORD", Index: 0}
	r1 := env.FragInput(0, sem, true)
	r2 := env.FragInput(0, ir.Semantic{Name: "COLOR", Index: 0}, false)

	if r1 != r2 {
		t.Errorf("FragInput(0, ...) returned different refs on second call: %v vs %v", r1, r2)
	}
	if got, want := countDecls(prog, ir.DeclFSInputInterpolated), 1; got != want {
		t.Errorf("DeclFSInputInterpolated count = %d, want %d", got, want)
	}
}

func TestOutputIdempotent(t *testing.T) {
	prog := ir.NewProgram()
	env := New(prog, caps.ReferenceRasterizer, sm1.StageVertex)

	sem := ir.Semantic{Name: "COLOR", Index: 0}
	r1 := env.Output(0, sem)
	r2 := env.Output(0, sem)
	if r1 != r2 {
		t.Errorf("Output(0, ...) returned different refs: %v vs %v", r1, r2)
	}
	if got, want := countDecls(prog, ir.DeclOutput), 1; got != want {
		t.Errorf("DeclOutput count = %d, want %d", got, want)
	}
}

func TestMaskedOutputSharesOutputSlot(t *testing.T) {
	prog := ir.NewProgram()
	env := New(prog, caps.ReferenceRasterizer, sm1.StageFragment)

	sem := ir.Semantic{Name: "DEPTH", Index: 0}
	r1 := env.MaskedOutput(0, sem, 0x4)
	r2 := env.Output(0, sem) // Output and MaskedOutput share the outputs map by index
	if r1 != r2 {
		t.Errorf("MaskedOutput(0, ...) and Output(0, ...) diverged: %v vs %v", r1, r2)
	}
	if got, want := countDecls(prog, ir.DeclMaskedOutput), 1; got != want {
		t.Errorf("DeclMaskedOutput count = %d, want %d", got, want)
	}
}

func TestConstFloatSparseDeclaration(t *testing.T) {
	prog := ir.NewProgram()
	env := New(prog, caps.ReferenceRasterizer, sm1.StageVertex)

	env.ConstFloat(40)
	env.ConstFloat(3)
	env.ConstFloat(40)

	if got, want := countDecls(prog, ir.DeclConst), 2; got != want {
		t.Errorf("DeclConst count = %d, want %d (sparse slots 3 and 40 only)", got, want)
	}
	slots := env.ConstFloatSlots()
	if _, ok := slots[40]; !ok {
		t.Error("ConstFloatSlots() missing slot 40")
	}
	if _, ok := slots[3]; !ok {
		t.Error("ConstFloatSlots() missing slot 3")
	}
	if _, ok := slots[4]; ok {
		t.Error("ConstFloatSlots() declared slot 4, which was never touched")
	}
}

func TestConstIntIdempotent(t *testing.T) {
	prog := ir.NewProgram()
	env := New(prog, caps.ReferenceRasterizer, sm1.StageVertex)

	r1 := env.ConstInt(0)
	r2 := env.ConstInt(0)
	if r1 != r2 {
		t.Errorf("ConstInt(0) returned different refs: %v vs %v", r1, r2)
	}
}

func TestConstBoolGroupsFourPerSlot(t *testing.T) {
	prog := ir.NewProgram()
	env := New(prog, caps.ReferenceRasterizer, sm1.StageVertex)

	r0 := env.ConstBool(0)
	r1 := env.ConstBool(1)
	r3 := env.ConstBool(3)
	r4 := env.ConstBool(4)

	if r0 != r1 || r0 != r3 {
		t.Errorf("ConstBool(0,1,3) should share one declared slot: %v, %v, %v", r0, r1, r3)
	}
	if r0 == r4 {
		t.Error("ConstBool(4) should be a new group, distinct from ConstBool(0..3)")
	}
	if got, want := countDecls(prog, ir.DeclConst), 2; got != want {
		t.Errorf("DeclConst count = %d, want %d (two groups: 0-3 and 4-7)", got, want)
	}
}

func TestEnterLoopLanePacking(t *testing.T) {
	prog := ir.NewProgram()
	env := New(prog, caps.ReferenceRasterizer, sm1.StageVertex)

	var regs []ir.Ref
	var lanes []int
	for i := 0; i < 6; i++ {
		r, lane := env.EnterLoop()
		regs = append(regs, r)
		lanes = append(lanes, lane)
	}

	// Depths 0-3 share one 4-wide temp, one lane each. Depth 4 starts a
	// second bank instead of aliasing depth 0's lane: reusing the same
	// register there would corrupt the outer loop's counter.
	for i := 0; i < 4; i++ {
		if regs[i] != regs[0] {
			t.Errorf("EnterLoop() at depth %d returned a different register than depth 0: %v vs %v", i, regs[i], regs[0])
		}
	}
	if regs[4] == regs[0] {
		t.Errorf("EnterLoop() at depth 4 reused depth 0's register: %v", regs[4])
	}
	if regs[5] != regs[4] {
		t.Errorf("EnterLoop() at depth 5 should share depth 4's new register: %v vs %v", regs[5], regs[4])
	}

	wantLanes := []int{0, 1, 2, 3, 0, 1}
	for i, want := range wantLanes {
		if lanes[i] != want {
			t.Errorf("lane at depth %d = %d, want %d", i, lanes[i], want)
		}
	}
	if got, want := countDecls(prog, ir.DeclTemp), 2; got != want {
		t.Errorf("DeclTemp count = %d, want %d (two loop-counter banks for depths 0-3 and 4-5)", got, want)
	}
	if got, want := env.LoopDepth(), 6; got != want {
		t.Errorf("LoopDepth() = %d, want %d", got, want)
	}
}

func TestEnterLoopDeepNestingAllocatesManyBanks(t *testing.T) {
	prog := ir.NewProgram()
	env := New(prog, caps.ReferenceRasterizer, sm1.StageVertex)

	const depth = 64 // the maximum nesting depth the handlers package permits
	seen := map[ir.Ref]bool{}
	for i := 0; i < depth; i++ {
		r, _ := env.EnterLoop()
		seen[r] = true
	}
	if got, want := len(seen), depth/maxLoopDepth; got != want {
		t.Errorf("distinct loop-counter registers = %d, want %d (one bank per %d levels)", got, want, maxLoopDepth)
	}
	if got, want := countDecls(prog, ir.DeclTemp), depth/maxLoopDepth; got != want {
		t.Errorf("DeclTemp count = %d, want %d", got, want)
	}
}

func TestExitLoopDecrementsDepth(t *testing.T) {
	prog := ir.NewProgram()
	env := New(prog, caps.ReferenceRasterizer, sm1.StageVertex)

	env.EnterLoop()
	env.EnterLoop()
	if got, want := env.LoopDepth(), 2; got != want {
		t.Fatalf("LoopDepth() = %d, want %d", got, want)
	}
	env.ExitLoop()
	if got, want := env.LoopDepth(), 1; got != want {
		t.Fatalf("LoopDepth() after one ExitLoop = %d, want %d", got, want)
	}
	env.ExitLoop()
	env.ExitLoop() // underflow guard: depth never goes negative
	if got, want := env.LoopDepth(), 0; got != want {
		t.Fatalf("LoopDepth() after extra ExitLoop = %d, want %d", got, want)
	}
}

func TestAddrOrTexcoordVertexUsesAddress(t *testing.T) {
	prog := ir.NewProgram()
	env := New(prog, caps.ReferenceRasterizer, sm1.StageVertex)

	r := env.AddrOrTexcoord(0)
	if r.Kind != ir.DeclAddress {
		t.Errorf("AddrOrTexcoord in vertex stage resolved to kind %v, want DeclAddress", r.Kind)
	}
	if got, want := countDecls(prog, ir.DeclAddress), 1; got != want {
		t.Errorf("DeclAddress count = %d, want %d", got, want)
	}
}

func TestAddrOrTexcoordFragmentUsesTexcoordAlias(t *testing.T) {
	prog := ir.NewProgram()
	env := New(prog, caps.ReferenceRasterizer, sm1.StageFragment)

	r1 := env.AddrOrTexcoord(1)
	r2 := env.AddrOrTexcoord(1)

	if r1.Kind != ir.DeclFSInputInterpolated {
		t.Errorf("AddrOrTexcoord in fragment stage resolved to kind %v, want DeclFSInputInterpolated", r1.Kind)
	}
	if r1 != r2 {
		t.Errorf("AddrOrTexcoord(1) returned different refs on second call: %v vs %v", r1, r2)
	}
	if got, want := countDecls(prog, ir.DeclFSInputInterpolated), 1; got != want {
		t.Errorf("DeclFSInputInterpolated count = %d, want %d", got, want)
	}
}

func TestOutputLikeReadsBackDeclaredOutput(t *testing.T) {
	prog := ir.NewProgram()
	env := New(prog, caps.ReferenceRasterizer, sm1.StageVertex)

	sem := ir.Semantic{Name: "COLOR", Index: 0}
	declared := env.Output(0, sem)
	read := env.OutputLike(0)
	if declared != read {
		t.Errorf("OutputLike(0) = %v, want %v (same ref as prior Output declaration)", read, declared)
	}
	if got, want := countDecls(prog, ir.DeclOutput), 1; got != want {
		t.Errorf("DeclOutput count = %d, want %d (OutputLike must not redeclare)", got, want)
	}
}
