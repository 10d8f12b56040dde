/*
 * sm1xlate - shared bytecode data model
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

// Package sm1 holds the decoded-bytecode data model shared by every
// component of the translator: register-file tags, operand modifiers, and
// the Instruction/SourceParam/DestParam types the parameter decoder
// produces and the lowering/handler packages consume.
package sm1

import "github.com/sm1xlate/sm1xlate/isa"

// Stage is the shader stage a program targets.
type Stage int

const (
	StageVertex Stage = iota
	StageFragment
)

func (s Stage) String() string {
	if s == StageVertex {
		return "vertex"
	}
	return "fragment"
}

// Header is the decoded program header (word 0 of the bytecode stream).
type Header struct {
	Stage   Stage
	Version isa.Version
}

// RegFile is the register-file tag of a decoded operand.
type RegFile int

const (
	FileTemp RegFile = iota
	FileInput
	FileConstFloat
	FileConstInt
	FileConstBool
	FileAddrOrTexcoord // D3DSPR_ADDR: address register (vertex) or texcoord alias (fragment)
	FilePredicate
	FileSampler
	FileLoopCounter
	FileMisc // position / face built-ins
	FileRastOut
	FileAttrOut
	FileOutput
	FileColorOut
	FileDepthOut
	FileImmediate
	FileLabel
	FileTempFloat16
)

// SrcModifier is a source-operand modifier.
type SrcModifier int

const (
	ModNone SrcModifier = iota
	ModNeg
	ModBias
	ModBiasNeg
	ModSign
	ModSignNeg
	ModComp
	ModX2
	ModX2Neg
	ModDZ
	ModDW
	ModAbs
	ModAbsNeg
	ModNot
)

// DstModifier is a destination-operand modifier.
type DstModifier int

const (
	DstModNone DstModifier = iota
	DstModSaturate
	DstModCentroid
)

// ImmType tags how an immediate literal's 4x32-bit payload is interpreted.
type ImmType int

const (
	ImmFloat4 ImmType = iota
	ImmInt4
	ImmBool
)

// SourceParam is a decoded operand read position. At most one level of
// indirection is modelled: Relative, when non-nil, addresses the address
// file and carries no modifier/relative/type of its own.
type SourceParam struct {
	File     RegFile
	Index    int
	Relative *SourceParam
	Swizzle  [4]uint8
	Modifier SrcModifier
	Type     ImmType
	Imm      [4]uint32 // valid iff File == FileImmediate
}

// IdentitySwizzle is the default xyzw swizzle.
var IdentitySwizzle = [4]uint8{0, 1, 2, 3}

// IsIdentitySwizzle reports whether s is the default xyzw selector.
func (s SourceParam) IsIdentitySwizzle() bool {
	return s.Swizzle == IdentitySwizzle
}

// DestParam is a decoded destination parameter.
type DestParam struct {
	File      RegFile
	Index     int
	Relative  *SourceParam
	WriteMask uint8 // 4-bit component enable, default 0xF
	Modifier  DstModifier
	Shift     int8 // signed, [-8,+7]; must be zero (see design notes)
}

// Instruction is one fully-decoded bytecode instruction.
type Instruction struct {
	Opcode     isa.Opcode
	Flags      uint8
	Coissue    bool
	Predicated bool
	Predicate  SourceParam
	Dst        []DestParam
	Src        []SourceParam
}

// RelOp is the relational compare encoded in IFC/BREAKC flags.
type RelOp int

const (
	RelGT RelOp = 1 + iota
	RelEQ
	RelGE
	RelLT
	RelNE
	RelLE
)
