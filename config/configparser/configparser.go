/*
 * sm1xlate - capability profile file parser
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package configparser loads a caps.Profile from a line-oriented text
// file: one "key=value" directive per line, '#' starts a comment, blank
// lines ignored. The line cursor (skipSpace/getName/getValue) is a
// trimmed-down version of the teacher's hand-rolled optionLine scanner,
// keeping its character-at-a-time style but dropping the device-attach
// grammar this domain has no use for.
package configparser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sm1xlate/sm1xlate/caps"
)

var errMalformedLine = errors.New("configparser: malformed directive")

// optionLine is the cursor over one line of the profile file.
type optionLine struct {
	line string
	pos  int
}

func (l *optionLine) skipSpace() {
	for l.pos < len(l.line) && (l.line[l.pos] == ' ' || l.line[l.pos] == '\t') {
		l.pos++
	}
}

func (l *optionLine) isEOL() bool {
	return l.pos >= len(l.line)
}

func (l *optionLine) getName() string {
	start := l.pos
	for l.pos < len(l.line) {
		c := l.line[l.pos]
		if c == '=' || c == ' ' || c == '\t' {
			break
		}
		l.pos++
	}
	return l.line[start:l.pos]
}

func (l *optionLine) getValue() string {
	start := l.pos
	for l.pos < len(l.line) {
		c := l.line[l.pos]
		if c == ' ' || c == '\t' || c == '#' {
			break
		}
		l.pos++
	}
	return l.line[start:l.pos]
}

// parse applies one directive line to prof, returning ok=false for a
// blank or comment-only line.
func (l *optionLine) parse(prof *caps.Profile, lineNumber int) (ok bool, err error) {
	l.skipSpace()
	if l.isEOL() || l.line[l.pos] == '#' {
		return false, nil
	}
	name := l.getName()
	l.skipSpace()
	if l.isEOL() || l.line[l.pos] != '=' {
		return false, fmt.Errorf("%w at line %d: %q", errMalformedLine, lineNumber, l.line)
	}
	l.pos++ // consume '='
	l.skipSpace()
	value := strings.TrimSpace(l.getValue())

	if err := apply(prof, strings.ToLower(name), value); err != nil {
		return false, fmt.Errorf("line %d: %w", lineNumber, err)
	}
	return true, nil
}

func apply(prof *caps.Profile, name, value string) error {
	switch name {
	case "profile":
		named, ok := caps.Named(value)
		if !ok {
			return fmt.Errorf("unknown named profile %q", value)
		}
		*prof = named
	case "native_integers":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("native_integers: %w", err)
		}
		prof.NativeIntegers = b
	case "subroutines":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("subroutines: %w", err)
		}
		prof.Subroutines = b
	case "prefer_texcoord":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("prefer_texcoord: %w", err)
		}
		prof.PreferTexcoord = b
	case "max_predicates":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("max_predicates: %w", err)
		}
		prof.MaxPredicates = n
	default:
		return fmt.Errorf("unknown directive %q", name)
	}
	return nil
}

// LoadProfile reads name as a capability profile file, starting from
// caps.ReferenceRasterizer and applying each directive in order -- a
// later "profile=" line resets every field a prior directive touched,
// matching the file's top-to-bottom, last-one-wins semantics.
func LoadProfile(name string) (caps.Profile, error) {
	prof := caps.ReferenceRasterizer

	file, err := os.Open(name)
	if err != nil {
		return prof, err
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	lineNumber := 0
	for {
		raw, err := reader.ReadString('\n')
		lineNumber++
		if len(raw) == 0 && err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return prof, err
		}
		l := optionLine{line: strings.TrimRight(raw, "\r\n")}
		if _, perr := l.parse(&prof, lineNumber); perr != nil {
			return prof, perr
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return prof, err
		}
	}
	return prof, nil
}
