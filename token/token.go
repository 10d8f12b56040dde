/*
 * sm1xlate - bytecode word-stream cursor
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

// Package token is the lowest layer of the translator: a forward cursor
// over the 32-bit little-endian word stream, with the peek/advance/
// jump-to-next-instruction primitives the parameter decoder and driver
// build on.
package token

import "log/slog"

// EndSentinel is the full end-of-program word (0x0000FFFF).
const EndSentinel uint32 = 0x0000FFFF

// Reader is a cursor into a bytecode word stream.
type Reader struct {
	words  []uint32
	p      int  // current position
	pNext  int  // position of the next instruction, when known
	hasNxt bool // whether pNext was set for the current instruction
	log    *slog.Logger
}

// New wraps words for sequential decoding.
func New(words []uint32, log *slog.Logger) *Reader {
	if log == nil {
		log = slog.Default()
	}
	return &Reader{words: words, log: log}
}

// Pos returns the current cursor position, in words.
func (r *Reader) Pos() int { return r.p }

// Len returns the total word count.
func (r *Reader) Len() int { return len(r.words) }

// Peek returns the word at the cursor without advancing.
func (r *Reader) Peek() uint32 {
	if r.p >= len(r.words) {
		return EndSentinel
	}
	return r.words[r.p]
}

// Advance returns the word at the cursor and moves past it.
func (r *Reader) Advance() uint32 {
	w := r.Peek()
	r.p++
	return w
}

// SetNext records the instruction-length-derived position of the next
// instruction (only available when the bytecode's major version carries a
// length field).
func (r *Reader) SetNext(pNext int) {
	r.pNext = pNext
	r.hasNxt = true
}

// ClearNext forgets any previously recorded next-instruction position.
func (r *Reader) ClearNext() {
	r.hasNxt = false
}

// JumpToNext advances the cursor to the recorded next-instruction
// position. If the cursor disagrees with that position (the instruction's
// own field-by-field decode consumed a different number of words than its
// length field claimed) the discrepancy is logged and the length field
// wins, matching how the original decoder resynchronises on drift.
func (r *Reader) JumpToNext() {
	if !r.hasNxt {
		return
	}
	if r.p != r.pNext {
		r.log.Warn("token: cursor position disagrees with instruction length field",
			"cursor", r.p, "expected", r.pNext)
		r.p = r.pNext
	}
	r.hasNxt = false
}

// EOF reports whether the cursor is at or past the end sentinel.
func (r *Reader) EOF() bool {
	return r.Peek() == EndSentinel
}

// Skip advances the cursor by n words without interpreting them, used for
// COMMENT tokens and malformed-instruction recovery.
func (r *Reader) Skip(n int) {
	r.p += n
}
