/*
 * sm1xlate - one-shot translator CLI
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

// Command sm1xlate translates a single legacy shader bytecode fixture
// (raw binary, or a .asm/.sm1asm text fixture) into the in-memory
// reference IR and prints a summary, the way the teacher's main.go wires
// getopt flags, a log handler, and a single top-level run. There is no
// emulated CPU to start here, so the flag set and control flow are
// trimmed to what a one-shot translate-and-report tool needs.
package main

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"strings"

	getopt "github.com/pborman/getopt/v2"

	"github.com/sm1xlate/sm1xlate/caps"
	"github.com/sm1xlate/sm1xlate/config/configparser"
	"github.com/sm1xlate/sm1xlate/dump"
	"github.com/sm1xlate/sm1xlate/ir"
	"github.com/sm1xlate/sm1xlate/isa"
	"github.com/sm1xlate/sm1xlate/sm1"
	"github.com/sm1xlate/sm1xlate/sm1asm"
	"github.com/sm1xlate/sm1xlate/translator"
	"github.com/sm1xlate/sm1xlate/util/logger"
)

func main() {
	optProfile := getopt.StringLong("profile", 'p', "reference", "Capability profile: reference, modern, or a profile file path")
	optStage := getopt.StringLong("stage", 's', "vs", "Shader stage of the input: vs or ps")
	optVersion := getopt.StringLong("version", 0, "3.0", "Bytecode version for .asm fixtures (major.minor)")
	optDump := getopt.BoolLong("dump", 'd', "Print the decoded IR after translating")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file (diagnostics also echo to stderr)")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	args := getopt.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: sm1xlate [options] <shader-file>")
		getopt.Usage()
		os.Exit(1)
	}

	var logFile *os.File
	if *optLogFile != "" {
		f, err := os.Create(*optLogFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "sm1xlate:", err)
			os.Exit(1)
		}
		logFile = f
	}
	debug := false
	log := slog.New(logger.NewHandler(logFile, &slog.HandlerOptions{Level: slog.LevelDebug}, &debug))

	prof, err := resolveProfile(*optProfile)
	if err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}

	stage, err := parseStage(*optStage)
	if err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}

	ver, err := parseVersion(*optVersion)
	if err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}

	words, err := loadWords(args[0], stage, ver)
	if err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}

	prog := ir.NewProgram()
	result, err := translator.Translate(words, stage, prof, prog, log)
	if err != nil {
		log.Error("translate failed", "err", err)
		os.Exit(1)
	}

	fmt.Printf("stage=%s version=%d.%d instructions=%d bytes=%d indirect_const_access=%v\n",
		result.Stage, result.Version.Major, result.Version.Minor,
		result.InstructionCount, result.BytesConsumed, result.IndirectConstAccess)
	for _, c := range result.ExportedConstants {
		fmt.Printf("  export c%d = %v\n", c.Index, c.Value)
	}

	if *optDump {
		fmt.Print(dump.Program(prog))
	}
}

func resolveProfile(name string) (caps.Profile, error) {
	if p, ok := caps.Named(strings.ToLower(name)); ok {
		return p, nil
	}
	return configparser.LoadProfile(name)
}

func parseStage(s string) (sm1.Stage, error) {
	switch strings.ToLower(s) {
	case "vs", "vertex":
		return sm1.StageVertex, nil
	case "ps", "fragment", "pixel":
		return sm1.StageFragment, nil
	default:
		return 0, fmt.Errorf("unknown stage %q (want vs or ps)", s)
	}
}

func parseVersion(s string) (isa.Version, error) {
	major, minor, ok := strings.Cut(s, ".")
	if !ok {
		return isa.Version{}, fmt.Errorf("malformed version %q (want major.minor)", s)
	}
	var maj, mnr int
	if _, err := fmt.Sscanf(major, "%d", &maj); err != nil {
		return isa.Version{}, fmt.Errorf("malformed version %q: %w", s, err)
	}
	if _, err := fmt.Sscanf(minor, "%d", &mnr); err != nil {
		return isa.Version{}, fmt.Errorf("malformed version %q: %w", s, err)
	}
	return isa.Version{Major: maj, Minor: mnr}, nil
}

func loadWords(path string, stage sm1.Stage, ver isa.Version) ([]uint32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, ".asm") || strings.HasSuffix(path, ".sm1asm") {
		return sm1asm.Assemble(string(data), stage, ver)
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%s: length %d is not a multiple of 4", path, len(data))
	}
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return words, nil
}
