/*
 * sm1xlate - bytecode fixture assembler
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

// Package sm1asm assembles a small line-oriented text syntax into the
// []uint32 bytecode word stream the translator consumes, for use by
// tests and by the CLI front ends' .asm/.sm1asm input support. It mirrors the
// teacher's Assemble(line string) ([]byte, error) shape -- one
// hand-rolled tokenizer, a name -> encoding table, line-at-a-time -- at
// the word-stream granularity this instruction set actually uses
// instead of the teacher's byte-stream one.
package sm1asm

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sm1xlate/sm1xlate/isa"
	"github.com/sm1xlate/sm1xlate/sm1"
)

var opcodeByName = map[string]isa.Opcode{
	"nop": isa.OpNOP, "mov": isa.OpMOV, "add": isa.OpADD, "sub": isa.OpSUB,
	"mad": isa.OpMAD, "mul": isa.OpMUL, "rcp": isa.OpRCP, "rsq": isa.OpRSQ,
	"dp3": isa.OpDP3, "dp4": isa.OpDP4, "min": isa.OpMIN, "max": isa.OpMAX,
	"slt": isa.OpSLT, "sge": isa.OpSGE, "exp": isa.OpEXP, "log": isa.OpLOG,
	"lit": isa.OpLIT, "dst": isa.OpDST, "lrp": isa.OpLRP, "frc": isa.OpFRC,
	"m4x4": isa.OpM4x4, "m4x3": isa.OpM4x3, "m3x4": isa.OpM3x4,
	"m3x3": isa.OpM3x3, "m3x2": isa.OpM3x2,
	"call": isa.OpCALL, "callnz": isa.OpCALLNZ, "loop": isa.OpLOOP,
	"ret": isa.OpRET, "endloop": isa.OpENDLOOP, "label": isa.OpLABEL,
	"dcl": isa.OpDCL, "pow": isa.OpPOW, "crs": isa.OpCRS, "sgn": isa.OpSGN,
	"abs": isa.OpABS, "nrm": isa.OpNRM, "sincos": isa.OpSINCOS,
	"rep": isa.OpREP, "endrep": isa.OpENDREP, "if": isa.OpIF, "ifc": isa.OpIFC,
	"else": isa.OpELSE, "endif": isa.OpENDIF, "break": isa.OpBREAK,
	"breakc": isa.OpBREAKC, "mova": isa.OpMOVA, "defb": isa.OpDEFB,
	"defi": isa.OpDEFI, "texcoord": isa.OpTEXCOORD, "texkill": isa.OpTEXKILL,
	"tex": isa.OpTEX, "def": isa.OpDEF, "cmp": isa.OpCMP,
	"dp2add": isa.OpDP2ADD, "ddx": isa.OpDDX, "ddy": isa.OpDDY,
	"texldd": isa.OpTEXLDD, "setp": isa.OpSETP, "texldl": isa.OpTEXLDL,
	"breakp": isa.OpBREAKP,
}

var fileByPrefix = map[string]sm1.RegFile{
	"r": sm1.FileTemp, "v": sm1.FileInput, "c": sm1.FileConstFloat,
	"i": sm1.FileConstInt, "b": sm1.FileConstBool, "a": sm1.FileAddrOrTexcoord,
	"p": sm1.FilePredicate, "s": sm1.FileSampler, "l": sm1.FileLoopCounter,
	"o": sm1.FileOutput, "oc": sm1.FileColorOut, "od": sm1.FileDepthOut,
	"oPos": sm1.FileRastOut, "oD": sm1.FileAttrOut, "oT": sm1.FileOutput,
}

// componentIndex maps a swizzle/writemask letter to its 0..3 lane.
var componentIndex = map[byte]uint8{'x': 0, 'y': 1, 'z': 2, 'w': 3}

// Assemble turns source (one instruction per non-blank, non-comment line)
// into a full bytecode word stream for stage/ver, including the header
// word and the trailing end sentinel. Lines beginning with ';' or '#' are
// comments; blank lines are ignored. "dcl"/"def"/"defi"/"defb" lines use
// the same token syntax as every other instruction.
func Assemble(source string, stage sm1.Stage, ver isa.Version) ([]uint32, error) {
	words := []uint32{headerWord(stage, ver)}
	for lineNo, raw := range strings.Split(source, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}
		encoded, err := assembleLine(line, ver)
		if err != nil {
			return nil, fmt.Errorf("sm1asm: line %d: %w", lineNo+1, err)
		}
		words = append(words, encoded...)
	}
	words = append(words, 0x0000FFFF)
	return words, nil
}

func headerWord(stage sm1.Stage, ver isa.Version) uint32 {
	kind := uint32(0xFFFE)
	if stage == sm1.StageFragment {
		kind = 0xFFFF
	}
	return kind<<16 | uint32(ver.Major)<<8 | uint32(ver.Minor)
}

// relOpCodes maps an IFC/BREAKC mnemonic suffix to the sm1.RelOp value
// the driver reads back out of the instruction's flags byte.
var relOpCodes = map[string]uint32{
	"gt": 1, "eq": 2, "ge": 3, "lt": 4, "ne": 5, "le": 6,
}

func assembleLine(line string, ver isa.Version) ([]uint32, error) {
	name, rest := splitMnemonic(line)
	lname := strings.ToLower(name)

	if strings.HasPrefix(lname, "dcl_") {
		return assembleDCL(lname, rest)
	}
	if strings.HasPrefix(lname, "ifc_") {
		return assembleRelOp(isa.OpIFC, strings.TrimPrefix(lname, "ifc_"), rest)
	}
	if strings.HasPrefix(lname, "breakc_") {
		return assembleRelOp(isa.OpBREAKC, strings.TrimPrefix(lname, "breakc_"), rest)
	}

	opcode, ok := opcodeByName[lname]
	if !ok {
		return nil, fmt.Errorf("unknown mnemonic %q", name)
	}
	switch opcode {
	case isa.OpDEF:
		return assembleDef(opcode, rest, encodeFloat4Imm)
	case isa.OpDEFI:
		return assembleDef(opcode, rest, encodeInt4Imm)
	case isa.OpDEFB:
		return assembleDefb(rest)
	}

	return encodeGeneric(opcode, 0, rest)
}

// assembleRelOp handles "ifc_gt"/"breakc_gt"-style mnemonics, packing the
// relational-compare suffix into the instruction's flags byte (bits
// 16..23) the way the bytecode's comparison opcodes encode it.
func assembleRelOp(opcode isa.Opcode, relName, rest string) ([]uint32, error) {
	rel, ok := relOpCodes[relName]
	if !ok {
		return nil, fmt.Errorf("unknown relational suffix %q", relName)
	}
	return encodeGeneric(opcode, rel, rest)
}

func encodeGeneric(opcode isa.Opcode, flags uint32, rest string) ([]uint32, error) {
	operands := splitOperands(rest)
	entry, ok := isa.Table[opcode]
	if !ok {
		return nil, fmt.Errorf("opcode %d has no table entry", opcode)
	}
	if len(operands) != entry.NDst+entry.NSrc {
		return nil, fmt.Errorf("opcode %d: expected %d operands, got %d", opcode, entry.NDst+entry.NSrc, len(operands))
	}

	var words []uint32
	for i := 0; i < entry.NDst; i++ {
		w, err := encodeDestToken(operands[i])
		if err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	for i := entry.NDst; i < len(operands); i++ {
		w, err := encodeSourceToken(operands[i])
		if err != nil {
			return nil, err
		}
		words = append(words, w...)
	}
	length := uint32(len(words))
	opWord := uint32(opcode) | flags<<16 | length<<24
	return append([]uint32{opWord}, words...), nil
}

func splitMnemonic(line string) (name, rest string) {
	idx := strings.IndexAny(line, " \t")
	if idx < 0 {
		return line, ""
	}
	return line[:idx], strings.TrimSpace(line[idx+1:])
}

func splitOperands(rest string) []string {
	if rest == "" {
		return nil
	}
	parts := strings.Split(rest, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

func assembleDCL(lname, rest string) ([]uint32, error) {
	usage := strings.TrimPrefix(lname, "dcl_")
	dstTok := strings.TrimSpace(rest)
	dstWord, err := encodeDestToken(dstTok)
	if err != nil {
		return nil, err
	}
	tok, err := encodeDclToken(usage)
	if err != nil {
		return nil, err
	}
	words := []uint32{tok, dstWord}
	opWord := uint32(isa.OpDCL) | uint32(len(words))<<24
	return append([]uint32{opWord}, words...), nil
}

func encodeDclToken(usage string) (uint32, error) {
	if strings.HasPrefix(usage, "2d") || strings.HasPrefix(usage, "cube") || strings.HasPrefix(usage, "volume") {
		var target uint32
		switch {
		case strings.HasPrefix(usage, "cube"):
			target = 3
		case strings.HasPrefix(usage, "volume"):
			target = 2
		default:
			target = 1
		}
		return 1 | target<<1, nil
	}
	name, index := splitUsageIndex(usage)
	u, ok := usageCodes[name]
	if !ok {
		return 0, fmt.Errorf("unknown dcl usage %q", usage)
	}
	return uint32(u)<<1 | uint32(index)<<6, nil
}

var usageCodes = map[string]int{
	"position": 0, "blendweight": 1, "blendindices": 2, "normal": 3,
	"psize": 4, "texcoord": 5, "tangent": 6, "binormal": 7,
	"tessfactor": 8, "positiont": 9, "color": 10, "fog": 11,
	"depth": 12, "sample": 13,
}

func splitUsageIndex(usage string) (string, int) {
	i := len(usage)
	for i > 0 && usage[i-1] >= '0' && usage[i-1] <= '9' {
		i--
	}
	if i == len(usage) {
		return usage, 0
	}
	n, _ := strconv.Atoi(usage[i:])
	return usage[:i], n
}

type immEncoder func([]string) ([4]uint32, error)

func assembleDef(opcode isa.Opcode, rest string, enc immEncoder) ([]uint32, error) {
	operands := splitOperands(rest)
	if len(operands) != 5 {
		return nil, fmt.Errorf("def: expected dst plus 4 literals, got %d operands", len(operands))
	}
	dstWord, err := encodeDestToken(operands[0])
	if err != nil {
		return nil, err
	}
	imm, err := enc(operands[1:])
	if err != nil {
		return nil, err
	}
	words := append([]uint32{dstWord}, imm[:]...)
	opWord := uint32(opcode) | uint32(len(words))<<24
	return append([]uint32{opWord}, words...), nil
}

func encodeFloat4Imm(lits []string) ([4]uint32, error) {
	var out [4]uint32
	for i, l := range lits {
		f, err := strconv.ParseFloat(strings.TrimSpace(l), 32)
		if err != nil {
			return out, fmt.Errorf("invalid float literal %q: %w", l, err)
		}
		out[i] = math.Float32bits(float32(f))
	}
	return out, nil
}

func encodeInt4Imm(lits []string) ([4]uint32, error) {
	var out [4]uint32
	for i, l := range lits {
		n, err := strconv.ParseInt(strings.TrimSpace(l), 10, 32)
		if err != nil {
			return out, fmt.Errorf("invalid int literal %q: %w", l, err)
		}
		out[i] = uint32(int32(n))
	}
	return out, nil
}

func assembleDefb(rest string) ([]uint32, error) {
	operands := splitOperands(rest)
	if len(operands) != 2 {
		return nil, fmt.Errorf("defb: expected dst, bool literal")
	}
	dstWord, err := encodeDestToken(operands[0])
	if err != nil {
		return nil, err
	}
	var v uint32
	switch strings.ToLower(strings.TrimSpace(operands[1])) {
	case "true", "1":
		v = 1
	case "false", "0":
		v = 0
	default:
		return nil, fmt.Errorf("invalid bool literal %q", operands[1])
	}
	opWord := uint32(isa.OpDEFB) | 2<<24
	return []uint32{opWord, dstWord, v}, nil
}

// encodeDestToken parses "r0[.mask][_sat]" into a single destination word.
// A bare register with no dot defaults to mask .xyzw (0xF); a trailing dot
// with no letters after it ("r0.") is the one way to author a literal
// all-zero writemask, for exercising the driver's zero-mask handling.
func encodeDestToken(tok string) (uint32, error) {
	sat := false
	if strings.HasSuffix(tok, "_sat") {
		sat = true
		tok = strings.TrimSuffix(tok, "_sat")
	}
	hadDot := strings.Contains(tok, ".")
	file, index, comp, err := parseRegister(tok)
	if err != nil {
		return 0, err
	}
	mask := uint8(0xF)
	if hadDot {
		mask = 0
		for i := 0; i < len(comp); i++ {
			mask |= 1 << componentIndex[comp[i]]
		}
	}
	word := encodeFileBits(file) | uint32(index)&0x7FF
	word |= uint32(mask) << 16
	if sat {
		word |= 1 << 20
	}
	return word, nil
}

// encodeSourceToken parses "[-]r0[.swizzle]" into one or two source words
// (two when the operand carries relative addressing, written "r0[a0.x]").
func encodeSourceToken(tok string) ([]uint32, error) {
	neg := false
	if strings.HasPrefix(tok, "-") {
		neg = true
		tok = tok[1:]
	}
	base := tok
	var relTok string
	hasRel := false
	if i := strings.Index(tok, "["); i >= 0 && strings.HasSuffix(tok, "]") {
		base = tok[:i]
		relTok = tok[i+1 : len(tok)-1]
		hasRel = true
	}
	file, index, comp, err := parseRegister(base)
	if err != nil {
		return nil, err
	}
	word := encodeFileBits(file) | uint32(index)&0x7FF
	word |= swizzleBits(comp) << 16
	if neg {
		word |= 1 << 24 // ModNeg, the first SrcModifier value
	}
	if !hasRel {
		return []uint32{word}, nil
	}
	word |= 1 << 31 // relBit
	relFile, relIndex, relComp, err := parseRegister(relTok)
	if err != nil {
		return nil, fmt.Errorf("invalid relative operand %q: %w", relTok, err)
	}
	relWord := encodeFileBits(relFile) | uint32(relIndex)&0x7FF
	relWord |= swizzleBits(relComp) << 16
	return []uint32{word, relWord}, nil
}

func swizzleBits(comp string) uint32 {
	swizzle := [4]byte{'x', 'y', 'z', 'w'}
	if comp != "" {
		for i := 0; i < 4 && i < len(comp); i++ {
			swizzle[i] = comp[i]
		}
		if len(comp) == 1 {
			swizzle = [4]byte{comp[0], comp[0], comp[0], comp[0]}
		}
	}
	var swiz uint32
	for i, c := range swizzle {
		swiz |= uint32(componentIndex[c]) << uint(i*2)
	}
	return swiz
}

func encodeFileBits(f sm1.RegFile) uint32 {
	tag := uint32(f)
	lo := tag & 0x7
	hi := (tag >> 3) & 0x7
	return lo<<11 | hi<<28
}

// parseRegister splits "prefix<index>.<components>" into its file,
// numeric index, and trailing component string.
func parseRegister(tok string) (sm1.RegFile, int, string, error) {
	tok = strings.TrimSpace(tok)
	comp := ""
	if i := strings.IndexByte(tok, '.'); i >= 0 {
		comp = tok[i+1:]
		tok = tok[:i]
	}
	i := 0
	for i < len(tok) && (tok[i] < '0' || tok[i] > '9') {
		i++
	}
	prefix, numStr := tok[:i], tok[i:]
	file, ok := fileByPrefix[prefix]
	if !ok {
		return 0, 0, "", fmt.Errorf("unknown register prefix %q in %q", prefix, tok)
	}
	index := 0
	if numStr != "" {
		n, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, 0, "", fmt.Errorf("invalid register index in %q", tok)
		}
		index = n
	}
	return file, index, comp, nil
}

