/*
 * sm1xlate - static instruction table
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

// Package isa is the static, immutable opcode table: for every bytecode
// opcode it gives the target IR opcode (when the lowering is a plain 1:1
// emission), the version range supported per shader stage, the fixed
// destination/source arity, and an optional special-handler identifier.
// Modelled directly on the shape of a CPU opcode-to-mnemonic table (one
// flat map keyed by opcode, struct value carrying dispatch metadata) the
// way disassemblers and emulators in this space are built.
package isa

import "github.com/sm1xlate/sm1xlate/ir"

// Opcode is a decoded bytecode instruction opcode (bits 0..15 of the
// instruction word).
type Opcode uint16

// Opcode values, in the order the legacy instruction set defines them.
const (
	OpNOP Opcode = iota
	OpMOV
	OpADD
	OpSUB
	OpMAD
	OpMUL
	OpRCP
	OpRSQ
	OpDP3
	OpDP4
	OpMIN
	OpMAX
	OpSLT
	OpSGE
	OpEXP
	OpLOG
	OpLIT
	OpDST
	OpLRP
	OpFRC
	OpM4x4
	OpM4x3
	OpM3x4
	OpM3x3
	OpM3x2
	OpCALL
	OpCALLNZ
	OpLOOP
	OpRET
	OpENDLOOP
	OpLABEL
	OpDCL
	OpPOW
	OpCRS
	OpSGN
	OpABS
	OpNRM
	OpSINCOS
	OpREP
	OpENDREP
	OpIF
	OpIFC
	OpELSE
	OpENDIF
	OpBREAK
	OpBREAKC
	OpMOVA
	OpDEFB
	OpDEFI

	OpTEXCOORD
	OpTEXKILL
	OpTEX
	OpTEXBEM
	OpTEXBEML
	OpTEXREG2AR
	OpTEXREG2GB
	OpTEXM3x2PAD
	OpTEXM3x2TEX
	OpTEXM3x3PAD
	OpTEXM3x3TEX
	OpTEXM3x3SPEC
	OpTEXM3x3VSPEC
	OpEXPP
	OpLOGP
	OpCND
	OpDEF
	OpTEXREG2RGB
	OpTEXDP3TEX
	OpTEXM3x2DEPTH
	OpTEXDP3
	OpTEXM3x3
	OpTEXDEPTH
	OpCMP
	OpBEM
	OpDP2ADD
	OpDDX
	OpDDY
	OpTEXLDD
	OpSETP
	OpTEXLDL
	OpBREAKP

	// PHASE and COMMENT never appear in Table: the driver resolves them
	// to special singletons directly per the dispatch algorithm, keyed
	// off the raw opcode word rather than a table lookup.
	OpPHASE   Opcode = 0xFFFD
	OpCOMMENT Opcode = 0xFFFE
)

// Version is a major.minor bytecode version.
type Version struct {
	Major, Minor int
}

func (v Version) Less(o Version) bool {
	if v.Major != o.Major {
		return v.Major < o.Major
	}
	return v.Minor < o.Minor
}

func (v Version) LessEq(o Version) bool { return v == o || v.Less(o) }

// VersionRange is an inclusive [Min, Max] range for one shader stage, or
// an unsupported range (Supported == false) when the stage never had the
// opcode.
type VersionRange struct {
	Min, Max  Version
	Supported bool
}

func Supported(min, max Version) VersionRange {
	return VersionRange{Min: min, Max: max, Supported: true}
}

var Unsupported = VersionRange{}

// Contains reports whether v falls within the range for a supported stage.
func (r VersionRange) Contains(v Version) bool {
	return r.Supported && r.Min.LessEq(v) && v.LessEq(r.Max)
}

// Handler identifies a special-case lowering that does not fit the
// generic "target_ir_op(dst[], src[])" emission.
type Handler int

const (
	HandlerNone Handler = iota
	HandlerM4x4
	HandlerM4x3
	HandlerM3x4
	HandlerM3x3
	HandlerM3x2
	HandlerCALL
	HandlerCALLNZ
	HandlerLOOP
	HandlerRET
	HandlerENDLOOP
	HandlerLABEL
	HandlerDCL
	HandlerNRM
	HandlerSINCOS
	HandlerREP
	HandlerENDREP
	HandlerIF
	HandlerIFC
	HandlerELSE
	HandlerENDIF
	HandlerBREAKC
	HandlerDEFB
	HandlerDEFI
	HandlerDEF
	HandlerTEXCOORD
	HandlerTEXKILL
	HandlerTEX
	HandlerTEXLDD
	HandlerTEXLDL
	HandlerSETP
	HandlerBREAKP
	HandlerPHASE
	HandlerCOMMENT
	HandlerLegacyTex // TEXBEM family + TEXM3x*: unimplemented stubs.
)

// Entry is one instruction table row.
type Entry struct {
	TargetOp  ir.Op
	HasTarget bool
	VertRange VersionRange
	FragRange VersionRange
	NDst      int
	NSrc      int
	Handler   Handler
}

func gen(op ir.Op, vmin, vmax, fmin, fmax Version, ndst, nsrc int) Entry {
	return Entry{TargetOp: op, HasTarget: true,
		VertRange: Supported(vmin, vmax), FragRange: Supported(fmin, fmax),
		NDst: ndst, NSrc: nsrc}
}

func special(h Handler, vmin, vmax, fmin, fmax Version, ndst, nsrc int) Entry {
	return Entry{Handler: h,
		VertRange: Supported(vmin, vmax), FragRange: Supported(fmin, fmax),
		NDst: ndst, NSrc: nsrc}
}

func specialVertOnly(h Handler, vmin, vmax Version, ndst, nsrc int) Entry {
	return Entry{Handler: h, VertRange: Supported(vmin, vmax), FragRange: Unsupported, NDst: ndst, NSrc: nsrc}
}

func specialFragOnly(h Handler, fmin, fmax Version, ndst, nsrc int) Entry {
	return Entry{Handler: h, VertRange: Unsupported, FragRange: Supported(fmin, fmax), NDst: ndst, NSrc: nsrc}
}

// genVertOnly and genFragOnly are gen's single-stage counterparts, used
// for generic (non-special-handler) opcodes that only one shader stage
// ever emits.
func genVertOnly(op ir.Op, vmin, vmax Version, ndst, nsrc int) Entry {
	return Entry{TargetOp: op, HasTarget: true, VertRange: Supported(vmin, vmax), FragRange: Unsupported, NDst: ndst, NSrc: nsrc}
}

func genFragOnly(op ir.Op, fmin, fmax Version, ndst, nsrc int) Entry {
	return Entry{TargetOp: op, HasTarget: true, VertRange: Unsupported, FragRange: Supported(fmin, fmax), NDst: ndst, NSrc: nsrc}
}

func v(major, minor int) Version { return Version{Major: major, Minor: minor} }

// Table is the static opcode -> Entry map. Built once at package init,
// never mutated afterwards (see the module's "global state is absent"
// design note: this is the one piece of genuinely immutable static data).
var Table = map[Opcode]Entry{
	OpNOP: gen(ir.OpNop, v(0, 0), v(3, 0), v(0, 0), v(3, 0), 0, 0),
	OpMOV: gen(ir.OpMov, v(0, 0), v(3, 0), v(0, 0), v(3, 0), 1, 1),
	OpADD: gen(ir.OpAdd, v(0, 0), v(3, 0), v(0, 0), v(3, 0), 1, 2),
	OpSUB: gen(ir.OpSub, v(0, 0), v(3, 0), v(0, 0), v(3, 0), 1, 2),
	OpMAD: gen(ir.OpMad, v(0, 0), v(3, 0), v(0, 0), v(3, 0), 1, 3),
	OpMUL: gen(ir.OpMul, v(0, 0), v(3, 0), v(0, 0), v(3, 0), 1, 2),
	OpRCP: gen(ir.OpRcp, v(0, 0), v(3, 0), v(0, 0), v(3, 0), 1, 1),
	OpRSQ: gen(ir.OpRsq, v(0, 0), v(3, 0), v(0, 0), v(3, 0), 1, 1),
	OpDP3: gen(ir.OpDp3, v(0, 0), v(3, 0), v(0, 0), v(3, 0), 1, 2),
	OpDP4: gen(ir.OpDp4, v(0, 0), v(3, 0), v(0, 0), v(3, 0), 1, 2),
	OpMIN: gen(ir.OpMin, v(0, 0), v(3, 0), v(0, 0), v(3, 0), 1, 2),
	OpMAX: gen(ir.OpMax, v(0, 0), v(3, 0), v(0, 0), v(3, 0), 1, 2),
	OpSLT: gen(ir.OpSlt, v(0, 0), v(3, 0), v(0, 0), v(3, 0), 1, 2),
	OpSGE: gen(ir.OpSge, v(0, 0), v(3, 0), v(0, 0), v(3, 0), 1, 2),
	OpEXP: gen(ir.OpExp, v(0, 0), v(3, 0), v(0, 0), v(3, 0), 1, 1),
	OpLOG: gen(ir.OpLog, v(0, 0), v(3, 0), v(0, 0), v(3, 0), 1, 1),
	OpLIT: genVertOnly(ir.OpLit, v(0, 0), v(3, 0), 1, 1),
	OpDST: gen(ir.OpDst, v(0, 0), v(3, 0), v(0, 0), v(3, 0), 1, 2),
	OpLRP: gen(ir.OpLrp, v(0, 0), v(3, 0), v(0, 0), v(3, 0), 1, 3),
	OpFRC: gen(ir.OpFrc, v(0, 0), v(3, 0), v(0, 0), v(3, 0), 1, 1),

	OpM4x4: special(HandlerM4x4, v(0, 0), v(3, 0), v(0, 0), v(3, 0), 1, 2),
	OpM4x3: special(HandlerM4x3, v(0, 0), v(3, 0), v(0, 0), v(3, 0), 1, 2),
	OpM3x4: special(HandlerM3x4, v(0, 0), v(3, 0), v(0, 0), v(3, 0), 1, 2),
	OpM3x3: special(HandlerM3x3, v(0, 0), v(3, 0), v(0, 0), v(3, 0), 1, 2),
	OpM3x2: special(HandlerM3x2, v(0, 0), v(3, 0), v(0, 0), v(3, 0), 1, 2),

	OpCALL:    special(HandlerCALL, v(2, 0), v(3, 0), v(2, 1), v(3, 0), 0, 1),
	OpCALLNZ:  special(HandlerCALLNZ, v(2, 0), v(3, 0), v(2, 1), v(3, 0), 0, 2),
	OpLOOP:    specialVertOnly(HandlerLOOP, v(3, 0), v(3, 0), 0, 2),
	OpRET:     special(HandlerRET, v(2, 0), v(3, 0), v(2, 1), v(3, 0), 0, 0),
	OpENDLOOP: specialVertOnly(HandlerENDLOOP, v(3, 0), v(3, 0), 0, 0),
	OpLABEL:   special(HandlerLABEL, v(2, 0), v(3, 0), v(2, 1), v(3, 0), 0, 1),

	OpDCL: gen2special(HandlerDCL, v(0, 0), v(3, 0), v(0, 0), v(3, 0), 0, 0),

	OpPOW: gen(ir.OpPow, v(0, 0), v(3, 0), v(0, 0), v(3, 0), 1, 2),
	OpCRS: gen(ir.OpCrs, v(0, 0), v(3, 0), v(0, 0), v(3, 0), 1, 2),
	OpSGN: genVertOnly(ir.OpSgn, v(2, 0), v(3, 0), 1, 3),
	OpABS: gen(ir.OpAbs, v(0, 0), v(3, 0), v(0, 0), v(3, 0), 1, 1),
	OpNRM: special(HandlerNRM, v(0, 0), v(3, 0), v(0, 0), v(3, 0), 1, 1),
	OpSINCOS: special(HandlerSINCOS, v(2, 0), v(3, 0), v(2, 0), v(3, 0), 1, 1),

	OpREP:     special(HandlerREP, v(2, 0), v(3, 0), v(2, 1), v(3, 0), 0, 1),
	OpENDREP:  special(HandlerENDREP, v(2, 0), v(3, 0), v(2, 1), v(3, 0), 0, 0),
	OpIF:      special(HandlerIF, v(2, 0), v(3, 0), v(2, 1), v(3, 0), 0, 1),
	OpIFC:     special(HandlerIFC, v(2, 1), v(3, 0), v(2, 1), v(3, 0), 0, 2),
	OpELSE:    special(HandlerELSE, v(2, 0), v(3, 0), v(2, 1), v(3, 0), 0, 0),
	OpENDIF:   gen2special(HandlerENDIF, v(2, 0), v(3, 0), v(2, 1), v(3, 0), 0, 0),
	OpBREAK:   gen(ir.OpBreak, v(2, 1), v(3, 0), v(2, 1), v(3, 0), 0, 0),
	OpBREAKC:  special(HandlerBREAKC, v(2, 1), v(3, 0), v(2, 1), v(3, 0), 0, 2),

	OpMOVA: genVertOnly(ir.OpMov, v(2, 0), v(3, 0), 1, 1),
	OpDEFB: special(HandlerDEFB, v(0, 0), v(3, 0), v(0, 0), v(3, 0), 1, 0),
	OpDEFI: special(HandlerDEFI, v(0, 0), v(3, 0), v(0, 0), v(3, 0), 1, 0),

	OpTEXCOORD: specialFragOnly(HandlerTEXCOORD, v(0, 0), v(1, 4), 0, 0),
	OpTEXKILL:  specialFragOnly(HandlerTEXKILL, v(0, 0), v(3, 0), 1, 0),
	OpTEX:      specialFragOnly(HandlerTEX, v(0, 0), v(3, 0), 1, 2),

	OpTEXBEM:       specialFragOnly(HandlerLegacyTex, v(0, 0), v(1, 3), 0, 0),
	OpTEXBEML:      specialFragOnly(HandlerLegacyTex, v(0, 0), v(1, 3), 0, 0),
	OpTEXREG2AR:    specialFragOnly(HandlerLegacyTex, v(0, 0), v(1, 3), 0, 0),
	OpTEXREG2GB:    specialFragOnly(HandlerLegacyTex, v(0, 0), v(1, 3), 0, 0),
	OpTEXM3x2PAD:   specialFragOnly(HandlerLegacyTex, v(0, 0), v(1, 3), 0, 0),
	OpTEXM3x2TEX:   specialFragOnly(HandlerLegacyTex, v(0, 0), v(1, 3), 0, 0),
	OpTEXM3x3PAD:   specialFragOnly(HandlerLegacyTex, v(0, 0), v(1, 3), 0, 0),
	OpTEXM3x3TEX:   specialFragOnly(HandlerLegacyTex, v(0, 0), v(1, 3), 0, 0),
	OpTEXM3x3SPEC:  specialFragOnly(HandlerLegacyTex, v(0, 0), v(1, 3), 0, 0),
	OpTEXM3x3VSPEC: specialFragOnly(HandlerLegacyTex, v(0, 0), v(1, 3), 0, 0),

	OpEXPP: gen(ir.OpExp, v(0, 0), v(3, 0), v(0, 0), v(3, 0), 1, 1),
	OpLOGP: gen(ir.OpLog, v(0, 0), v(3, 0), v(0, 0), v(3, 0), 1, 1),
	OpCND:  genFragOnly(ir.OpCnd, v(0, 0), v(1, 4), 1, 1),
	OpDEF:  special(HandlerDEF, v(0, 0), v(3, 0), v(0, 0), v(3, 0), 1, 0),

	OpTEXREG2RGB:   specialFragOnly(HandlerLegacyTex, v(1, 2), v(1, 3), 0, 0),
	OpTEXDP3TEX:    specialFragOnly(HandlerLegacyTex, v(1, 2), v(1, 3), 0, 0),
	OpTEXM3x2DEPTH: specialFragOnly(HandlerLegacyTex, v(1, 3), v(1, 3), 0, 0),
	OpTEXDP3:       specialFragOnly(HandlerLegacyTex, v(1, 2), v(1, 3), 0, 0),
	OpTEXM3x3:      specialFragOnly(HandlerLegacyTex, v(1, 2), v(1, 3), 0, 0),
	OpTEXDEPTH:     specialFragOnly(HandlerLegacyTex, v(1, 4), v(1, 4), 0, 0),

	OpCMP:    genFragOnly(ir.OpCmp, v(1, 2), v(3, 0), 1, 3),
	OpBEM:    specialFragOnly(HandlerLegacyTex, v(1, 4), v(1, 4), 0, 0),
	OpDP2ADD: genFragOnly(ir.OpDp2a, v(2, 0), v(3, 0), 1, 3),
	OpDDX:    genFragOnly(ir.OpDdx, v(2, 1), v(3, 0), 1, 1),
	OpDDY:    genFragOnly(ir.OpDdy, v(2, 1), v(3, 0), 1, 1),
	OpTEXLDD: specialFragOnly(HandlerTEXLDD, v(2, 1), v(3, 0), 1, 4),
	OpSETP:   special(HandlerSETP, v(0, 0), v(3, 0), v(2, 1), v(3, 0), 1, 2),
	OpTEXLDL: gen2special(HandlerTEXLDL, v(3, 0), v(3, 0), v(3, 0), v(3, 0), 1, 2),
	OpBREAKP: special(HandlerBREAKP, v(0, 0), v(3, 0), v(2, 1), v(3, 0), 0, 1),
}

// gen2special builds an Entry for an opcode lowered entirely by a special
// handler (no direct generic target opcode) but supported by both stages.
func gen2special(h Handler, vmin, vmax, fmin, fmax Version, ndst, nsrc int) Entry {
	return special(h, vmin, vmax, fmin, fmax, ndst, nsrc)
}

// IsLegacyTex reports whether o's handler unconditionally fails; such
// opcodes are kept in the table (rather than omitted) so the dumper can still name
// them -- see the module's "supplemented features" notes.
func (o Opcode) IsLegacyTex() bool {
	e, ok := Table[o]
	return ok && e.Handler == HandlerLegacyTex
}
