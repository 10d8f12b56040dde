/*
 * sm1xlate - translator error kinds
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

// Package sm1err holds the sentinel errors for every fatal error kind the
// translator can return, so callers can errors.Is against them instead of
// string-matching.
package sm1err

import "errors"

var (
	// ErrInvalidHeader covers an unknown shader kind or unsupported
	// major/minor version in the program header.
	ErrInvalidHeader = errors.New("sm1xlate: invalid shader header")

	// ErrStageMismatch covers a header whose shader kind disagrees with
	// what the caller asked to translate.
	ErrStageMismatch = errors.New("sm1xlate: header stage does not match caller expectation")

	// ErrAlloc covers allocation failure of a growable array, the
	// emitter, or the exported-constants buffer.
	ErrAlloc = errors.New("sm1xlate: allocation failure")

	// ErrDriverFinalize covers a failure finalising the IR into a
	// driver-owned shader object.
	ErrDriverFinalize = errors.New("sm1xlate: driver finalisation failed")

	// ErrUnimplementedLegacyTex covers the legacy TEXBEM/TEXM3x* family
	// and SETP/BREAKP, which are stubs that always fail, matching the
	// original implementation they were never ported from.
	ErrUnimplementedLegacyTex = errors.New("sm1xlate: legacy texture opcode not implemented")

	// ErrMalformedParameter covers a parameter that violates a decode
	// invariant (e.g. a nonzero destination shift, a zero writemask on a
	// declaration, an unknown relational compare flag). Translate stops
	// at the offending instruction and returns it.
	ErrMalformedParameter = errors.New("sm1xlate: malformed instruction parameter")

	// ErrLoopDepth covers loop nesting beyond the 64-level limit.
	ErrLoopDepth = errors.New("sm1xlate: loop nesting exceeds limit")

	// ErrCondDepth covers IF nesting beyond the 64-level limit.
	ErrCondDepth = errors.New("sm1xlate: conditional nesting exceeds limit")
)
