/*
 * sm1xlate - destination/source parameter decoder
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

// Package param decodes destination and source parameter words into the
// sm1.DestParam/sm1.SourceParam shapes, including the relative-addressing
// sub-token and the legacy CONST2/CONST3/CONST4 canonicalisation.
//
// The register-file tag is split across two non-contiguous bit ranges of
// the same word (bits 11-13 and bits 28-30) and must be OR-combined into
// one 6-bit value, matching the invariant spelled out for the file tag
// (see the module's data-model notes); this is the fuller of two bit
// widths the spec text uses for the same field, chosen because it's the
// one wide enough to address every register-file tag this ISA defines.
package param

import (
	"github.com/sm1xlate/sm1xlate/isa"
	"github.com/sm1xlate/sm1xlate/sm1"
	"github.com/sm1xlate/sm1xlate/token"
)

const (
	indexMask   = 0x7FF // bits 0..10
	fileLoShift = 11
	fileLoMask  = 0x7 // bits 11..13
	fileHiShift = 28
	fileHiMask  = 0x7 // bits 28..30
	relBit      = 1 << 31

	writemaskShift = 16
	writemaskMask  = 0xF
	dstModShift    = 20
	dstModMask     = 0xF
	shiftShift     = 24
	shiftMask      = 0xF

	swizzleShift = 16
	swizzleMask  = 0xFF
	srcModShift  = 24
	srcModMask   = 0xF
)

func decodeFile(word uint32) sm1.RegFile {
	lo := (word >> fileLoShift) & fileLoMask
	hi := (word >> fileHiShift) & fileHiMask
	tag := lo | (hi << 3)
	return canonicalFile(sm1.RegFile(tag))
}

// Legacy constant-file aliases fold into FileConstFloat with an offset
// index, per the data-model invariant (CONST2/3/4 -> CONST + 2048/4096/6144).
const (
	legacyConst2 sm1.RegFile = 32 + iota
	legacyConst3
	legacyConst4
)

func canonicalFile(f sm1.RegFile) sm1.RegFile {
	switch f {
	case legacyConst2, legacyConst3, legacyConst4:
		return sm1.FileConstFloat
	default:
		return f
	}
}

func legacyConstOffset(word uint32) int {
	lo := (word >> fileLoShift) & fileLoMask
	hi := (word >> fileHiShift) & fileHiMask
	tag := sm1.RegFile(lo | (hi << 3))
	switch tag {
	case legacyConst2:
		return 2048
	case legacyConst3:
		return 4096
	case legacyConst4:
		return 6144
	default:
		return 0
	}
}

func decodeSwizzle(word uint32) [4]uint8 {
	s := uint8((word >> swizzleShift) & swizzleMask)
	return [4]uint8{s & 0x3, (s >> 2) & 0x3, (s >> 4) & 0x3, (s >> 6) & 0x3}
}

// DecodeDest reads one destination parameter word, plus its relative
// sub-token when present.
func DecodeDest(r *token.Reader, ver isa.Version) sm1.DestParam {
	word := r.Advance()
	d := sm1.DestParam{
		File:      decodeFile(word),
		Index:     int(word&indexMask) + legacyConstOffset(word),
		WriteMask: uint8((word >> writemaskShift) & writemaskMask),
		Modifier:  sm1.DstModifier((word >> dstModShift) & dstModMask),
		Shift:     signExtend4(uint8((word >> shiftShift) & shiftMask)),
	}
	if word&relBit != 0 {
		rel := decodeRelative(r, ver)
		d.Relative = &rel
	}
	return d
}

// DecodeSource reads one source parameter word, plus its relative
// sub-token when present.
func DecodeSource(r *token.Reader, ver isa.Version) sm1.SourceParam {
	word := r.Advance()
	s := sm1.SourceParam{
		File:     decodeFile(word),
		Index:    int(word&indexMask) + legacyConstOffset(word),
		Swizzle:  decodeSwizzle(word),
		Modifier: sm1.SrcModifier((word >> srcModShift) & srcModMask),
	}
	if word&relBit != 0 {
		rel := decodeRelative(r, ver)
		s.Relative = &rel
	}
	return s
}

// decodeRelative reads the inner relative-addressing source. For
// major>=2 a second word follows with the usual source encoding; for
// major<2 there is no second word and the relative source is always
// synthesised as the address register with an identity swizzle (per the
// data-model invariant: "for major<2, always an address register with
// identity swizzle").
func decodeRelative(r *token.Reader, ver isa.Version) sm1.SourceParam {
	if ver.Major < 2 {
		return sm1.SourceParam{
			File:    sm1.FileAddrOrTexcoord,
			Swizzle: sm1.IdentitySwizzle,
		}
	}
	word := r.Advance()
	return sm1.SourceParam{
		File:    decodeFile(word),
		Index:   int(word & indexMask),
		Swizzle: decodeSwizzle(word),
	}
}

func signExtend4(v uint8) int8 {
	v &= 0xF
	if v&0x8 != 0 {
		return int8(v) - 16
	}
	return int8(v)
}
