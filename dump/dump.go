/*
 * sm1xlate - IR dumper
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

// Package dump renders a *ir.Program as human-readable text: one line per
// declaration, one line per instruction, mnemonic-first the way an
// assembly listing reads. Built the same way the teacher's disassembler
// builds instruction text: a static opcode -> mnemonic table plus a
// type-driven operand formatter, rather than a switch per opcode.
package dump

import (
	"fmt"
	"strings"

	"github.com/sm1xlate/sm1xlate/ir"
)

var mnemonic = map[ir.Op]string{
	ir.OpNop: "nop", ir.OpMov: "mov", ir.OpAdd: "add", ir.OpSub: "sub",
	ir.OpMad: "mad", ir.OpMul: "mul", ir.OpRcp: "rcp", ir.OpRsq: "rsq",
	ir.OpDp3: "dp3", ir.OpDp4: "dp4", ir.OpMin: "min", ir.OpMax: "max",
	ir.OpSlt: "slt", ir.OpSge: "sge", ir.OpExp: "exp", ir.OpLog: "log",
	ir.OpLit: "lit", ir.OpDst: "dst", ir.OpLrp: "lrp", ir.OpFrc: "frc",
	ir.OpPow: "pow", ir.OpXpd: "xpd", ir.OpSsg: "ssg", ir.OpAbs: "abs",
	ir.OpCrs: "crs", ir.OpSinCos: "sincos", ir.OpNrm: "nrm", ir.OpSgn: "sgn",
	ir.OpCmp: "cmp", ir.OpCnd: "cnd", ir.OpDp2a: "dp2add", ir.OpDdx: "ddx",
	ir.OpDdy: "ddy", ir.OpEnd: "end",
	ir.OpTex: "tex", ir.OpTxp: "texp", ir.OpTxb: "texb", ir.OpTxl: "texl",
	ir.OpTxd: "texd", ir.OpTexKill: "texkill",
	ir.OpIf: "if", ir.OpElse: "else", ir.OpEndIf: "endif",
	ir.OpLoop: "loop", ir.OpEndLoop: "endloop", ir.OpBreak: "break",
	ir.OpBreakc: "breakc", ir.OpCall: "call", ir.OpCallNz: "callnz", ir.OpRet: "ret",
	ir.OpSetGT: "setgt", ir.OpSetEQ: "seteq", ir.OpSetGE: "setge",
	ir.OpSetLT: "setlt", ir.OpSetNE: "setne", ir.OpSetLE: "setle",
	ir.OpNeg: "neg", ir.OpBitNot: "not",
}

func opName(op ir.Op) string {
	if s, ok := mnemonic[op]; ok {
		return s
	}
	return fmt.Sprintf("op%d", int(op))
}

var declKindName = map[ir.DeclKind]string{
	ir.DeclTemp: "temp", ir.DeclAddress: "addr", ir.DeclPredicate: "pred",
	ir.DeclSampler: "sampler", ir.DeclVSInput: "vs_in",
	ir.DeclFSInputInterpolated: "fs_in", ir.DeclOutput: "out",
	ir.DeclMaskedOutput: "out_masked", ir.DeclConst: "const",
}

// Program renders the full declaration and instruction listing of p.
func Program(p *ir.Program) string {
	var b strings.Builder
	for i, d := range p.Decls {
		fmt.Fprintf(&b, "decl %-10s #%-3d %s\n", declKindName[d.Kind], i, declDetail(d))
	}
	for i, inst := range p.Insns {
		fmt.Fprintf(&b, "%4d: %s\n", i, Instruction(p, inst))
	}
	return b.String()
}

func declDetail(d ir.Decl) string {
	switch d.Kind {
	case ir.DeclSampler:
		return fmt.Sprintf("index=%d target=%d", d.Index, d.Target)
	case ir.DeclOutput, ir.DeclMaskedOutput, ir.DeclFSInputInterpolated:
		if d.Sem.Name != "" {
			return fmt.Sprintf("index=%d sem=%s%d", d.Index, d.Sem.Name, d.Sem.Index)
		}
		return fmt.Sprintf("index=%d", d.Index)
	default:
		return fmt.Sprintf("index=%d", d.Index)
	}
}

// Instruction renders one instruction as "mnemonic dst, src0, src1, ...".
func Instruction(p *ir.Program, inst ir.Inst) string {
	var b strings.Builder
	b.WriteString(opName(inst.Op))
	parts := make([]string, 0, len(inst.Dst)+len(inst.Src))
	for _, d := range inst.Dst {
		parts = append(parts, formatDst(d))
	}
	for _, s := range inst.Src {
		parts = append(parts, formatOperand(p, s))
	}
	if len(parts) > 0 {
		b.WriteString(" ")
		b.WriteString(strings.Join(parts, ", "))
	}
	return b.String()
}

func formatDst(d ir.Dst) string {
	s := formatRef(d.Reg) + writeMaskSuffix(d.WriteMask)
	if d.Saturate {
		s += "_sat"
	}
	return s
}

func formatOperand(p *ir.Program, o ir.Operand) string {
	if o.IsImm {
		return formatImmediate(p, o)
	}
	s := formatRef(o.Reg) + swizzleSuffix(o.Swizzle)
	if o.Indirect != nil {
		s += "[" + formatOperand(p, *o.Indirect) + "]"
	}
	return s
}

func formatImmediate(p *ir.Program, o ir.Operand) string {
	// The handle's originating table isn't tagged on Operand, so render it
	// generically; tests and the REPL only need a stable, readable form.
	return fmt.Sprintf("imm#%d%s", int(o.Immediate), swizzleSuffix(o.Swizzle))
}

func formatRef(r ir.Ref) string {
	return fmt.Sprintf("%s%d", declKindName[r.Kind], r.Index)
}

const components = "xyzw"

func swizzleSuffix(s [4]uint8) string {
	if s == ir.IdentitySwizzle {
		return ""
	}
	var b strings.Builder
	b.WriteByte('.')
	for _, c := range s {
		b.WriteByte(components[c&0x3])
	}
	return b.String()
}

func writeMaskSuffix(mask uint8) string {
	if mask == 0xF {
		return ""
	}
	var b strings.Builder
	b.WriteByte('.')
	for i, c := range components {
		if mask&(1<<uint(i)) != 0 {
			b.WriteByte(byte(c))
		}
	}
	return b.String()
}
