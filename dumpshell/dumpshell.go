/*
 * sm1xlate - interactive dump shell
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

// Package dumpshell is an interactive REPL for loading a shader bytecode
// fixture, translating it, and inspecting the result: load/dump/regs/
// labels/consts/quit, with abbreviation matching and tab completion over
// the command table. The command-table-plus-abbreviation-matching shape
// and the liner wiring in Run are adapted from the teacher's console
// command parser and reader (minimum-unique-prefix dispatch, a cursor
// over one input line), with the device-attach/detach verb set replaced
// by this domain's load/dump/inspect verbs since there are no devices.
package dumpshell

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/sm1xlate/sm1xlate/caps"
	"github.com/sm1xlate/sm1xlate/dump"
	"github.com/sm1xlate/sm1xlate/ir"
	"github.com/sm1xlate/sm1xlate/isa"
	"github.com/sm1xlate/sm1xlate/sm1"
	"github.com/sm1xlate/sm1xlate/sm1asm"
	"github.com/sm1xlate/sm1xlate/translator"

	"log/slog"
)

// Shell holds everything one REPL session needs between commands: the
// capability profile translations run under, and the most recently
// loaded/translated program.
type Shell struct {
	Prof caps.Profile
	Log  *slog.Logger

	words  []uint32
	stage  sm1.Stage
	ver    isa.Version
	prog   *ir.Program
	result *translator.Result
}

// New builds a shell bound to prof; a nil log falls back to slog.Default.
func New(prof caps.Profile, log *slog.Logger) *Shell {
	if log == nil {
		log = slog.Default()
	}
	return &Shell{Prof: prof, Log: log}
}

type cmdLine struct {
	line string
	pos  int
}

func (l *cmdLine) skipSpace() {
	for l.pos < len(l.line) && (l.line[l.pos] == ' ' || l.line[l.pos] == '\t') {
		l.pos++
	}
}

func (l *cmdLine) isEOL() bool { return l.pos >= len(l.line) }

// getWord returns the next whitespace-delimited token, advancing past it.
func (l *cmdLine) getWord() string {
	l.skipSpace()
	if l.isEOL() {
		return ""
	}
	start := l.pos
	for l.pos < len(l.line) && l.line[l.pos] != ' ' && l.line[l.pos] != '\t' {
		l.pos++
	}
	return l.line[start:l.pos]
}

type cmd struct {
	name     string
	min      int // minimum unique prefix length, teacher-style abbreviation matching
	process  func(*cmdLine, *Shell) error
	complete func(*cmdLine, *Shell) []string
}

var cmdList = []cmd{
	{name: "load", min: 1, process: cmdLoad, complete: completeLoad},
	{name: "dump", min: 1, process: cmdDump},
	{name: "regs", min: 1, process: cmdRegs},
	{name: "labels", min: 1, process: cmdLabels},
	{name: "consts", min: 1, process: cmdConsts},
	{name: "help", min: 1, process: cmdHelp},
	{name: "quit", min: 1, process: cmdQuit},
}

// errQuit signals a clean shell exit from within a process function.
var errQuit = errors.New("dumpshell: quit")

func matchCommand(c cmd, name string) bool {
	if len(name) > len(c.name) || len(name) < c.min {
		return false
	}
	return c.name[:len(name)] == name
}

func matchList(name string) []cmd {
	if name == "" {
		return nil
	}
	var out []cmd
	for _, c := range cmdList {
		if matchCommand(c, name) {
			out = append(out, c)
		}
	}
	return out
}

// ProcessCommand executes one command line against sh, reporting whether
// the shell should exit.
func ProcessCommand(line string, sh *Shell) (quit bool, err error) {
	cl := &cmdLine{line: line}
	name := strings.ToLower(cl.getWord())
	if name == "" {
		return false, nil
	}

	matches := matchList(name)
	switch len(matches) {
	case 0:
		return false, fmt.Errorf("unknown command: %s", name)
	case 1:
		err := matches[0].process(cl, sh)
		if errors.Is(err, errQuit) {
			return true, nil
		}
		return false, err
	default:
		return false, fmt.Errorf("ambiguous command: %s", name)
	}
}

// CompleteCmd implements liner's tab-completion callback: command-name
// completion when still typing the verb, command-specific completion
// (currently just "load"'s file-path completion) afterwards.
func CompleteCmd(line string, sh *Shell) []string {
	cl := &cmdLine{line: line}
	name := cl.getWord()

	if !cl.isEOL() {
		matches := matchList(strings.ToLower(name))
		if len(matches) != 1 || matches[0].complete == nil {
			return nil
		}
		return matches[0].complete(cl, sh)
	}

	out := make([]string, 0, len(cmdList))
	for _, c := range cmdList {
		if strings.HasPrefix(c.name, strings.ToLower(name)) {
			out = append(out, c.name)
		}
	}
	return out
}

func completeLoad(line *cmdLine, _ *Shell) []string {
	line.skipSpace()
	prefix := line.line[line.pos:]
	matches, _ := filepath.Glob(prefix + "*")
	return matches
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
	maj, err := strconv.Atoi(major)
	if err != nil {
		return isa.Version{}, fmt.Errorf("malformed version %q: %w", s, err)
	}
	mnr, err := strconv.Atoi(minor)
	if err != nil {
		return isa.Version{}, fmt.Errorf("malformed version %q: %w", s, err)
	}
	return isa.Version{Major: maj, Minor: mnr}, nil
}

// wordsFromBytes reinterprets a raw byte buffer as little-endian 32-bit
// words, per the bytecode wire format.
func wordsFromBytes(data []byte) ([]uint32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("file length %d is not a multiple of 4", len(data))
	}
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return words, nil
}

// cmdLoad handles "load <path> <vs|ps> [major.minor]". Text fixtures
// ending in .asm/.sm1asm are run through sm1asm.Assemble (major.minor
// defaults to 3.0 for those); anything else is read as a raw little-
// endian word stream whose own header supplies the version.
func cmdLoad(line *cmdLine, sh *Shell) error {
	path := line.getWord()
	if path == "" {
		return errors.New("load: missing file path")
	}
	stageTok := line.getWord()
	if stageTok == "" {
		return errors.New("load: missing stage (vs|ps)")
	}
	stage, err := parseStage(stageTok)
	if err != nil {
		return err
	}
	ver := isa.Version{Major: 3, Minor: 0}
	if verTok := line.getWord(); verTok != "" {
		ver, err = parseVersion(verTok)
		if err != nil {
			return err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var words []uint32
	if strings.HasSuffix(path, ".asm") || strings.HasSuffix(path, ".sm1asm") {
		words, err = sm1asm.Assemble(string(data), stage, ver)
	} else {
		words, err = wordsFromBytes(data)
	}
	if err != nil {
		return err
	}

	prog := ir.NewProgram()
	result, err := translator.Translate(words, stage, sh.Prof, prog, sh.Log)
	if err != nil {
		return err
	}
	sh.words, sh.stage, sh.ver, sh.prog, sh.result = words, stage, ver, prog, result
	fmt.Printf("loaded %s: %s %d.%d, %d instructions, %d bytes\n",
		path, stage, result.Version.Major, result.Version.Minor,
		result.InstructionCount, result.BytesConsumed)
	return nil
}

func cmdDump(_ *cmdLine, sh *Shell) error {
	if sh.prog == nil {
		return errors.New("dump: nothing loaded")
	}
	fmt.Print(dump.Program(sh.prog))
	return nil
}

var declKindName = map[ir.DeclKind]string{
	ir.DeclTemp: "temp", ir.DeclAddress: "addr", ir.DeclPredicate: "pred",
	ir.DeclSampler: "sampler", ir.DeclVSInput: "vs_in",
	ir.DeclFSInputInterpolated: "fs_in", ir.DeclOutput: "out",
	ir.DeclMaskedOutput: "out_masked", ir.DeclConst: "const",
}

func cmdRegs(_ *cmdLine, sh *Shell) error {
	if sh.prog == nil {
		return errors.New("regs: nothing loaded")
	}
	for i, d := range sh.prog.Decls {
		fmt.Printf("#%-3d %-10s index=%d\n", i, declKindName[d.Kind], d.Index)
	}
	return nil
}

func cmdLabels(_ *cmdLine, sh *Shell) error {
	if sh.prog == nil {
		return errors.New("labels: nothing loaded")
	}
	labels := sh.prog.Labels()
	keys := make([]int, 0, len(labels))
	for l := range labels {
		keys = append(keys, int(l))
	}
	sort.Ints(keys)
	for _, k := range keys {
		fmt.Printf("label %d -> instruction %d\n", k, labels[ir.Label(k)])
	}
	fmt.Printf("%d label(s) allocated\n", sh.prog.LabelCount())
	return nil
}

func cmdConsts(_ *cmdLine, sh *Shell) error {
	if sh.result == nil {
		return errors.New("consts: nothing loaded")
	}
	fmt.Printf("indirect_const_access=%v\n", sh.result.IndirectConstAccess)
	for _, c := range sh.result.ExportedConstants {
		fmt.Printf("c%d = %v\n", c.Index, c.Value)
	}
	return nil
}

func cmdHelp(_ *cmdLine, _ *Shell) error {
	fmt.Println("commands: load <path> <vs|ps> [major.minor], dump, regs, labels, consts, help, quit")
	return nil
}

func cmdQuit(_ *cmdLine, _ *Shell) error { return errQuit }

// Run starts the interactive liner REPL, matching the teacher's
// ConsoleReader loop (history, ctrl-C abort, tab completion) retargeted
// at this shell's command table instead of device attach/detach/set.
func Run(sh *Shell) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(l string) []string {
		return CompleteCmd(l, sh)
	})

	for {
		text, err := line.Prompt("sm1dump> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				return
			}
			sh.Log.Error("error reading line", "err", err)
			return
		}
		line.AppendHistory(text)
		quit, err := ProcessCommand(text, sh)
		if err != nil {
			fmt.Println("error:", err)
		}
		if quit {
			return
		}
	}
}
