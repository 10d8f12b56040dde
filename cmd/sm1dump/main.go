/*
 * sm1xlate - interactive dump shell entry point
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

// Command sm1dump starts the dumpshell REPL, the way the teacher's main.go
// hands off to an interactive console reader after its one-time setup. The
// only front-matter this entry point owns is the capability profile and an
// optional log file; everything else happens inside the shell's own
// load/dump/regs/labels/consts command loop.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	getopt "github.com/pborman/getopt/v2"

	"github.com/sm1xlate/sm1xlate/caps"
	"github.com/sm1xlate/sm1xlate/config/configparser"
	"github.com/sm1xlate/sm1xlate/dumpshell"
	"github.com/sm1xlate/sm1xlate/util/logger"
)

func main() {
	optProfile := getopt.StringLong("profile", 'p', "reference", "Capability profile: reference, modern, or a profile file path")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file (diagnostics also echo to stderr)")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var logFile *os.File
	if *optLogFile != "" {
		f, err := os.Create(*optLogFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "sm1dump:", err)
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

	dumpshell.Run(dumpshell.New(prof, log))
}

func resolveProfile(name string) (caps.Profile, error) {
	if p, ok := caps.Named(strings.ToLower(name)); ok {
		return p, nil
	}
	return configparser.LoadProfile(name)
}
