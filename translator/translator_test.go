/*
 * sm1xlate - translation driver tests
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

package translator

import (
	"errors"
	"strings"
	"testing"

	"github.com/sm1xlate/sm1xlate/caps"
	"github.com/sm1xlate/sm1xlate/ir"
	"github.com/sm1xlate/sm1xlate/isa"
	"github.com/sm1xlate/sm1xlate/sm1"
	"github.com/sm1xlate/sm1xlate/sm1asm"
	"github.com/sm1xlate/sm1xlate/sm1err"
)

func assemble(t *testing.T, source string, stage sm1.Stage, ver isa.Version) []uint32 {
	t.Helper()
	words, err := sm1asm.Assemble(source, stage, ver)
	if err != nil {
		t.Fatalf("sm1asm.Assemble: %v", err)
	}
	return words
}

func countDecls(p *ir.Program, kind ir.DeclKind) int {
	n := 0
	for _, d := range p.Decls {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// property 1: an instruction outside its table entry's version/stage
// range emits no IR and the cursor still advances by exactly its length
// field.
func TestVersionGatingSkipsAndAdvances(t *testing.T) {
	// LOOP requires vs 3.0; encode it at vs 2.0 with its real two-word
	// operand payload so the only way the cursor reaches the end
	// sentinel is via the length-field skip, not by decoding operands.
	header := uint32(0xFFFE)<<16 | 2<<8 | 0
	instr := uint32(isa.OpLOOP) | 2<<24 // length = 2 words of operand payload
	words := []uint32{header, instr, 0, 0, 0x0000FFFF}

	prog := ir.NewProgram()
	result, err := Translate(words, sm1.StageVertex, caps.ReferenceRasterizer, prog, nil)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if result.InstructionCount != 1 {
		t.Errorf("InstructionCount = %d, want 1 (skip still counts as processed)", result.InstructionCount)
	}
	if len(prog.Insns) != 1 {
		t.Fatalf("len(Insns) = %d, want 1 (only the trailing END)", len(prog.Insns))
	}
	if prog.Insns[0].Op != ir.OpEnd {
		t.Errorf("only emitted instruction = %v, want OpEnd", prog.Insns[0].Op)
	}
	if result.BytesConsumed != len(words)*4 {
		t.Errorf("BytesConsumed = %d, want %d", result.BytesConsumed, len(words)*4)
	}
}

// property 2: a register referenced multiple times declares exactly once.
func TestLazyDeclarationIdempotent(t *testing.T) {
	ver := isa.Version{Major: 2, Minor: 0}
	words := assemble(t, "def c0, 1.0, 2.0, 3.0, 4.0\nmov r0, c0\nadd r0, r0, r0\nmul r0, r0, c0\n", sm1.StageVertex, ver)

	prog := ir.NewProgram()
	if _, err := Translate(words, sm1.StageVertex, caps.ReferenceRasterizer, prog, nil); err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if n := countDecls(prog, ir.DeclTemp); n != 1 {
		t.Errorf("temp declarations = %d, want 1 (r0 used 3 times)", n)
	}
}

// property 3: the constant banks pre-declare before any instruction runs,
// and their total matches max-F + max-I + ceil(max-B/4).
func TestConstantBankPreDeclaration(t *testing.T) {
	ver := isa.Version{Major: 2, Minor: 0}
	words := assemble(t, "mov r0, c0\n", sm1.StageVertex, ver)

	prog := ir.NewProgram()
	if _, err := Translate(words, sm1.StageVertex, caps.ReferenceRasterizer, prog, nil); err != nil {
		t.Fatalf("Translate: %v", err)
	}

	lim := limitsFor(sm1.StageVertex, ver)
	want := lim.maxF + lim.maxI + (lim.maxB + 3) / 4
	got := countDecls(prog, ir.DeclConst)
	if got != want {
		t.Errorf("const slot declarations = %d, want %d (maxF=%d maxI=%d maxB=%d)", got, want, lim.maxF, lim.maxI, lim.maxB)
	}

	// every constant decl must precede the program's only non-constant
	// temp decl, i.e. the pre-declaration happens before the loop starts.
	sawNonConst := false
	for _, d := range prog.Decls {
		if d.Kind != ir.DeclConst {
			sawNonConst = true
			continue
		}
		if sawNonConst {
			t.Fatalf("a constant decl appeared after a non-constant decl")
		}
	}
}

// property 4: local-constant export happens iff a DEF occurred and some
// CONST source used relative (indirect) addressing.
func TestLocalConstantExportIffIndirect(t *testing.T) {
	ver := isa.Version{Major: 2, Minor: 0}

	direct := assemble(t, "def c0, 1.0, 2.0, 3.0, 4.0\nmov r0, c0\n", sm1.StageVertex, ver)
	prog := ir.NewProgram()
	result, err := Translate(direct, sm1.StageVertex, caps.ReferenceRasterizer, prog, nil)
	if err != nil {
		t.Fatalf("Translate (direct): %v", err)
	}
	if result.IndirectConstAccess {
		t.Errorf("direct access: IndirectConstAccess = true, want false")
	}
	if len(result.ExportedConstants) != 0 {
		t.Errorf("direct access: ExportedConstants = %v, want none", result.ExportedConstants)
	}

	indirect := assemble(t, "def c0, 1.0, 2.0, 3.0, 4.0\nmov r0, c0[a0.x]\n", sm1.StageVertex, ver)
	prog2 := ir.NewProgram()
	result2, err := Translate(indirect, sm1.StageVertex, caps.ReferenceRasterizer, prog2, nil)
	if err != nil {
		t.Fatalf("Translate (indirect): %v", err)
	}
	if !result2.IndirectConstAccess {
		t.Errorf("indirect access: IndirectConstAccess = false, want true")
	}
	if len(result2.ExportedConstants) != 1 || result2.ExportedConstants[0].Index != 0 {
		t.Errorf("indirect access: ExportedConstants = %v, want one entry at index 0", result2.ExportedConstants)
	}
	if result2.ExportedConstants[0].Value != [4]float32{1, 2, 3, 4} {
		t.Errorf("exported constant value = %v, want [1 2 3 4]", result2.ExportedConstants[0].Value)
	}
}

// property 5: a sampler declared with target T reports that target on
// every later reference, regardless of how the reference itself spells
// its (always-unknown) target.
func TestSamplerTargetRoundTrip(t *testing.T) {
	ver := isa.Version{Major: 2, Minor: 0}
	words := assemble(t, "dcl_2d s0\ndcl_texcoord0 v0\ntex r0, v0, s0\n", sm1.StageFragment, ver)

	prog := ir.NewProgram()
	if _, err := Translate(words, sm1.StageFragment, caps.ReferenceRasterizer, prog, nil); err != nil {
		t.Fatalf("Translate: %v", err)
	}

	found := false
	for _, d := range prog.Decls {
		if d.Kind == ir.DeclSampler && d.Index == 0 {
			found = true
			if d.Target != ir.Target2D {
				t.Errorf("sampler 0 target = %v, want Target2D", d.Target)
			}
		}
	}
	if !found {
		t.Fatal("sampler 0 was never declared")
	}
	if n := countDecls(prog, ir.DeclSampler); n != 1 {
		t.Errorf("sampler declarations = %d, want 1", n)
	}
}

// property 6: nesting LOOP past the 64-level limit is rejected.
func TestLoopDepthLimit(t *testing.T) {
	ver := isa.Version{Major: 3, Minor: 0}
	var sb strings.Builder
	for i := 0; i < 65; i++ {
		sb.WriteString("loop l0, i0\n")
	}
	words := assemble(t, sb.String(), sm1.StageVertex, ver)

	prog := ir.NewProgram()
	_, err := Translate(words, sm1.StageVertex, caps.ReferenceRasterizer, prog, nil)
	if !errors.Is(err, sm1err.ErrLoopDepth) {
		t.Fatalf("err = %v, want ErrLoopDepth", err)
	}
}

// property 7: Mkxn emits a dot product only for rows selected by the
// destination writemask.
func TestMkxnWritemaskProjection(t *testing.T) {
	ver := isa.Version{Major: 2, Minor: 0}
	words := assemble(t, "def c0, 1.0, 0.0, 0.0, 0.0\ndef c1, 0.0, 1.0, 0.0, 0.0\ndef c2, 0.0, 0.0, 1.0, 0.0\nm3x3 r0.xz, v0, c0\n", sm1.StageVertex, ver)

	prog := ir.NewProgram()
	if _, err := Translate(words, sm1.StageVertex, caps.ReferenceRasterizer, prog, nil); err != nil {
		t.Fatalf("Translate: %v", err)
	}

	var dp3Masks []uint8
	for _, inst := range prog.Insns {
		if inst.Op == ir.OpDp3 {
			dp3Masks = append(dp3Masks, inst.Dst[0].WriteMask)
		}
	}
	if len(dp3Masks) != 2 {
		t.Fatalf("emitted %d DP3 instructions, want 2 (rows x and z only)", len(dp3Masks))
	}
	if dp3Masks[0] != 0x1 || dp3Masks[1] != 0x4 {
		t.Errorf("DP3 writemasks = %v, want [0x1 0x4] (row 0 then row 2)", dp3Masks)
	}
}

// property 7b: an ordinary instruction decoded with an all-zero
// destination writemask is a no-op and emits nothing, rather than being
// promoted to a full-component write.
func TestZeroWritemaskOrdinaryInstructionIsNoOp(t *testing.T) {
	ver := isa.Version{Major: 2, Minor: 0}
	words := assemble(t, "mov r0., v0\nmov r1, v0\n", sm1.StageVertex, ver)

	prog := ir.NewProgram()
	if _, err := Translate(words, sm1.StageVertex, caps.ReferenceRasterizer, prog, nil); err != nil {
		t.Fatalf("Translate: %v", err)
	}
	var movCount int
	for _, inst := range prog.Insns {
		if inst.Op == ir.OpMov {
			movCount++
			if inst.Dst[0].WriteMask != 0xF {
				t.Errorf("surviving MOV writemask = %#x, want 0xF (r1's own mask)", inst.Dst[0].WriteMask)
			}
		}
	}
	if movCount != 1 {
		t.Errorf("emitted %d MOVs, want 1 (the zero-mask MOV skipped entirely)", movCount)
	}
}

// property 7c: a DCL with an all-zero destination writemask is rejected
// as malformed rather than silently accepted.
func TestZeroWritemaskDeclarationRejected(t *testing.T) {
	ver := isa.Version{Major: 2, Minor: 0}
	words := assemble(t, "dcl_texcoord0 v0.\n", sm1.StageVertex, ver)

	prog := ir.NewProgram()
	_, err := Translate(words, sm1.StageVertex, caps.ReferenceRasterizer, prog, nil)
	if !errors.Is(err, sm1err.ErrMalformedParameter) {
		t.Fatalf("err = %v, want ErrMalformedParameter", err)
	}
}

// property 8: a comment token of length N advances the cursor N+1 words
// and emits no IR.
func TestCommentSkipping(t *testing.T) {
	ver := isa.Version{Major: 2, Minor: 0}
	header := uint32(0xFFFE)<<16 | uint32(ver.Major)<<8 | uint32(ver.Minor)
	commentLen := uint32(3)
	comment := uint32(isa.OpCOMMENT) | commentLen<<16
	words := []uint32{header, comment, 0, 0, 0, 0x0000FFFF}

	prog := ir.NewProgram()
	result, err := Translate(words, sm1.StageVertex, caps.ReferenceRasterizer, prog, nil)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if result.InstructionCount != 0 {
		t.Errorf("InstructionCount = %d, want 0 (comment is not an instruction)", result.InstructionCount)
	}
	if len(prog.Insns) != 1 || prog.Insns[0].Op != ir.OpEnd {
		t.Fatalf("Insns = %v, want only the trailing END", prog.Insns)
	}
	if result.BytesConsumed != len(words)*4 {
		t.Errorf("BytesConsumed = %d, want %d", result.BytesConsumed, len(words)*4)
	}
}

// property 9: byte accounting covers the whole consumed program,
// including the trailing end sentinel, across several fixture shapes.
func TestByteSizeAccounting(t *testing.T) {
	ver := isa.Version{Major: 2, Minor: 0}
	cases := []string{
		"",
		"mov r0, v0\n",
		"def c0, 1.0, 2.0, 3.0, 4.0\nmov r0, c0\nadd r0, r0, r0\n",
	}
	for _, src := range cases {
		words := assemble(t, src, sm1.StageVertex, ver)
		prog := ir.NewProgram()
		result, err := Translate(words, sm1.StageVertex, caps.ReferenceRasterizer, prog, nil)
		if err != nil {
			t.Fatalf("Translate(%q): %v", src, err)
		}
		if result.BytesConsumed != len(words)*4 {
			t.Errorf("Translate(%q): BytesConsumed = %d, want %d", src, result.BytesConsumed, len(words)*4)
		}
	}
}

// S1: bare header plus END.
func TestScenarioS1EmptyVertexProgram(t *testing.T) {
	ver := isa.Version{Major: 1, Minor: 1}
	words := assemble(t, "", sm1.StageVertex, ver)

	prog := ir.NewProgram()
	result, err := Translate(words, sm1.StageVertex, caps.ReferenceRasterizer, prog, nil)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if result.Stage != sm1.StageVertex {
		t.Errorf("Stage = %v, want vertex", result.Stage)
	}
	if result.InstructionCount != 0 {
		t.Errorf("InstructionCount = %d, want 0", result.InstructionCount)
	}
	lim := limitsFor(sm1.StageVertex, ver)
	want := lim.maxF + lim.maxI + (lim.maxB + 3) / 4
	if got := countDecls(prog, ir.DeclConst); got != want {
		t.Errorf("const decls = %d, want %d", got, want)
	}
	if len(prog.Insns) != 1 || prog.Insns[0].Op != ir.OpEnd {
		t.Fatalf("Insns = %v, want only END", prog.Insns)
	}
	if !prog.Finalized() {
		t.Error("program was not finalized")
	}
}

// S2: one DEF, one MOV off the inlined immediate; no export.
func TestScenarioS2InlinedLocalConstant(t *testing.T) {
	ver := isa.Version{Major: 2, Minor: 0}
	words := assemble(t, "def c0, 1.0, 2.0, 3.0, 4.0\nmov r0, c0\n", sm1.StageVertex, ver)

	prog := ir.NewProgram()
	result, err := Translate(words, sm1.StageVertex, caps.ReferenceRasterizer, prog, nil)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if len(result.ExportedConstants) != 0 {
		t.Errorf("ExportedConstants = %v, want none (no indirect access)", result.ExportedConstants)
	}
	if n := countDecls(prog, ir.DeclTemp); n != 1 {
		t.Errorf("temp decls = %d, want 1", n)
	}

	movs := 0
	for _, inst := range prog.Insns {
		if inst.Op == ir.OpMov {
			movs++
			if !inst.Src[0].IsImm {
				t.Error("MOV source should be the inlined immediate, not a constant-file reference")
			}
		}
	}
	if movs != 1 {
		t.Errorf("emitted %d MOV instructions, want 1", movs)
	}
}

// S3: fragment-stage TEX against a declared 2D sampler and texcoord input.
func TestScenarioS3FragmentTexture(t *testing.T) {
	ver := isa.Version{Major: 2, Minor: 0}
	words := assemble(t, "dcl_2d s0\ndcl_texcoord0 v0\ntex r0, v0, s0\n", sm1.StageFragment, ver)

	prog := ir.NewProgram()
	result, err := Translate(words, sm1.StageFragment, caps.ReferenceRasterizer, prog, nil)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if result.Stage != sm1.StageFragment {
		t.Errorf("Stage = %v, want fragment", result.Stage)
	}
	if n := countDecls(prog, ir.DeclFSInputInterpolated); n != 1 {
		t.Errorf("fragment-input decls = %d, want 1", n)
	}

	texOps := 0
	for _, inst := range prog.Insns {
		if inst.Op == ir.OpTex {
			texOps++
		}
	}
	if texOps != 1 {
		t.Errorf("emitted %d TEX ops, want 1", texOps)
	}
}

// S4: indirect CONST access forces an export with the right location.
func TestScenarioS4IndirectConstAccess(t *testing.T) {
	ver := isa.Version{Major: 2, Minor: 0}
	words := assemble(t, "def c0, 1.0, 2.0, 3.0, 4.0\nmov r0, c0[a0.x]\n", sm1.StageVertex, ver)

	prog := ir.NewProgram()
	result, err := Translate(words, sm1.StageVertex, caps.ReferenceRasterizer, prog, nil)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if !result.IndirectConstAccess {
		t.Fatal("IndirectConstAccess = false, want true")
	}
	if len(result.ExportedConstants) != 1 || result.ExportedConstants[0].Index != 0 {
		t.Fatalf("ExportedConstants = %v, want one entry at index 0", result.ExportedConstants)
	}

	for _, inst := range prog.Insns {
		if inst.Op == ir.OpMov {
			if inst.Src[0].IsImm {
				t.Error("MOV should address the constant file, not the inlined immediate, once accessed indirectly")
			}
			if inst.Src[0].Indirect == nil {
				t.Error("MOV source should carry an indirect addressing operand")
			}
		}
	}
}

// S5: a vs_3_0 LOOP over i0 = (4, 0, 1, _) initialises to 0, limits at 4.
func TestScenarioS5VertexLoop(t *testing.T) {
	ver := isa.Version{Major: 3, Minor: 0}
	words := assemble(t, "defi i0, 4, 0, 1, 0\nloop l0, i0\nmov r0, l0\nendloop\n", sm1.StageVertex, ver)

	prog := ir.NewProgram()
	result, err := Translate(words, sm1.StageVertex, caps.ReferenceRasterizer, prog, nil)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if result.InstructionCount != 4 {
		t.Errorf("InstructionCount = %d, want 4 (defi, loop, mov, endloop)", result.InstructionCount)
	}

	var sawLoop, sawBreakc, sawEndLoop bool
	for _, inst := range prog.Insns {
		switch inst.Op {
		case ir.OpLoop:
			sawLoop = true
		case ir.OpBreakc:
			sawBreakc = true
		case ir.OpEndLoop:
			sawEndLoop = true
		}
	}
	if !sawLoop || !sawBreakc || !sawEndLoop {
		t.Errorf("loop=%v breakc=%v endloop=%v, want all true", sawLoop, sawBreakc, sawEndLoop)
	}
}

// S6: ps_2_0 IFC_GT with ELSE/ENDIF lowers to a set-greater compare
// followed by a structured IF/ELSE/ENDIF.
func TestScenarioS6FragmentConditional(t *testing.T) {
	ver := isa.Version{Major: 2, Minor: 1}
	words := assemble(t,
		"def c1, 1.0, 0.0, 0.0, 0.0\ndef c2, 0.0, 1.0, 0.0, 0.0\nifc_gt r0.x, c0.x\nmov oc0, c1\nelse\nmov oc0, c2\nendif\n",
		sm1.StageFragment, ver)

	prog := ir.NewProgram()
	if _, err := Translate(words, sm1.StageFragment, caps.ReferenceRasterizer, prog, nil); err != nil {
		t.Fatalf("Translate: %v", err)
	}

	var sawCompare, sawIf, sawElse, sawEndIf bool
	for _, inst := range prog.Insns {
		switch inst.Op {
		case ir.OpSetGT:
			sawCompare = true
		case ir.OpIf:
			sawIf = true
		case ir.OpElse:
			sawElse = true
		case ir.OpEndIf:
			sawEndIf = true
		}
	}
	if !sawCompare || !sawIf || !sawElse || !sawEndIf {
		t.Errorf("compare=%v if=%v else=%v endif=%v, want all true", sawCompare, sawIf, sawElse, sawEndIf)
	}
}

// Malformed header (unknown shader kind) is rejected.
func TestInvalidHeaderRejected(t *testing.T) {
	prog := ir.NewProgram()
	_, err := Translate([]uint32{0x12340101, 0x0000FFFF}, sm1.StageVertex, caps.ReferenceRasterizer, prog, nil)
	if !errors.Is(err, sm1err.ErrInvalidHeader) {
		t.Fatalf("err = %v, want ErrInvalidHeader", err)
	}
}

// A header whose stage disagrees with the caller's expectation is rejected.
func TestStageMismatchRejected(t *testing.T) {
	ver := isa.Version{Major: 2, Minor: 0}
	words := assemble(t, "mov r0, v0\n", sm1.StageVertex, ver)

	prog := ir.NewProgram()
	_, err := Translate(words, sm1.StageFragment, caps.ReferenceRasterizer, prog, nil)
	if !errors.Is(err, sm1err.ErrStageMismatch) {
		t.Fatalf("err = %v, want ErrStageMismatch", err)
	}
	// Destroy clears Decls/Insns; make sure we didn't leave a half-built
	// program lying around as if it had succeeded.
	if prog.Finalized() || prog.Decls != nil {
		t.Errorf("stage mismatch left a program behind: finalized=%v decls=%d", prog.Finalized(), len(prog.Decls))
	}
}

func TestEmptyWordsRejected(t *testing.T) {
	prog := ir.NewProgram()
	_, err := Translate(nil, sm1.StageVertex, caps.ReferenceRasterizer, prog, nil)
	if !errors.Is(err, sm1err.ErrInvalidHeader) {
		t.Fatalf("err = %v, want ErrInvalidHeader", err)
	}
}
