/*
 * sm1xlate - DCL semantic usage tags
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

package handlers

// Usage is the semantic usage tag carried by a DCL instruction's token
// word, mirroring D3DDECLUSAGE. Sampler declarations carry a
// ir.SamplerTarget instead and never reach this type.
type Usage int

const (
	UsagePosition Usage = iota
	UsageBlendWeight
	UsageBlendIndices
	UsageNormal
	UsagePSize
	UsageTexcoord
	UsageTangent
	UsageBinormal
	UsageTessFactor
	UsagePositionT
	UsageColor
	UsageFog
	UsageDepth
	UsageSample
)

func (u Usage) String() string {
	switch u {
	case UsagePosition:
		return "POSITION"
	case UsageBlendWeight:
		return "BLENDWEIGHT"
	case UsageBlendIndices:
		return "BLENDINDICES"
	case UsageNormal:
		return "NORMAL"
	case UsagePSize:
		return "PSIZE"
	case UsageTexcoord:
		return "TEXCOORD"
	case UsageTangent:
		return "TANGENT"
	case UsageBinormal:
		return "BINORMAL"
	case UsageTessFactor:
		return "TESSFACTOR"
	case UsagePositionT:
		return "POSITIONT"
	case UsageColor:
		return "COLOR"
	case UsageFog:
		return "FOG"
	case UsageDepth:
		return "DEPTH"
	case UsageSample:
		return "SAMPLE"
	default:
		return "UNKNOWN"
	}
}
