/*
 * sm1xlate - host device/driver capability probes
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

// Package caps models the four capability probes the translator consults
// once per translation (see the module's external-interfaces notes): native
// integer support, subroutine support, predicate support, and the fragment
// shader's texcoord-vs-generic semantic preference.
package caps

// Profile is the capability probe set a host device/driver exposes.
type Profile struct {
	// NativeIntegers reports whether the IR has a native integer type.
	// The translator does not read it: NOT source modifiers always lower
	// to a bitwise not, and DEFI values used by LOOP always lower to
	// integer immediates, whatever this field says.
	NativeIntegers bool

	// Subroutines reports whether CALL/CALLNZ/RET/LABEL are supported by
	// the target; shader model 2.0 pixel shaders commonly lack them.
	Subroutines bool

	// MaxPredicates is the number of hardware predicate registers
	// available; zero means predication must be lowered some other way.
	MaxPredicates int

	// PreferTexcoord selects whether fragment texcoord inputs declare a
	// dedicated texcoord semantic or a generic indexed semantic.
	PreferTexcoord bool
}

// ReferenceRasterizer models a conservative SM2-era software rasterizer:
// no native integers, no subroutines, one predicate, texcoord semantics.
var ReferenceRasterizer = Profile{
	NativeIntegers: false,
	Subroutines:    false,
	MaxPredicates:  1,
	PreferTexcoord: true,
}

// ModernCore models a contemporary GPU backend: native integers,
// subroutines, no dedicated predicate registers (predication lowers to
// select instructions), generic semantics throughout.
var ModernCore = Profile{
	NativeIntegers: true,
	Subroutines:    true,
	MaxPredicates:  0,
	PreferTexcoord: false,
}

// Named looks up a preset profile by name, for config/CLI wiring.
func Named(name string) (Profile, bool) {
	switch name {
	case "reference":
		return ReferenceRasterizer, true
	case "modern":
		return ModernCore, true
	default:
		return Profile{}, false
	}
}
