/*
 * sm1xlate - batch translator CLI
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

// Command sm1batch drives translation over a directory or glob of shader
// fixtures rather than sm1xlate's single file: translate, validate (decode
// only, report errors, no IR dump), and stats (aggregate instruction/export
// counts). The subcommand shape is cobra+pflag, the way the pack's other
// multi-verb CLI structures its "enumerate/target/verify/stoke" commands
// under one root -- retargeted here at glob/translate/validate/stats instead
// of search verbs, since there's no single flat flag set that covers all
// three modes cleanly.
package main

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

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
	rootCmd := &cobra.Command{
		Use:   "sm1batch",
		Short: "Batch-translate legacy shader bytecode fixtures",
	}

	var profileName string
	var stageName string
	var versionStr string
	var quiet bool

	addCommonFlags := func(c *cobra.Command) {
		c.Flags().StringVarP(&profileName, "profile", "p", "reference", "Capability profile: reference, modern, or a profile file path")
		c.Flags().StringVarP(&stageName, "stage", "s", "vs", "Shader stage for .asm/.sm1asm fixtures: vs or ps")
		c.Flags().StringVar(&versionStr, "version", "3.0", "Bytecode version for .asm fixtures (major.minor)")
		c.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress per-file progress lines")
	}

	var dumpIR bool
	translateCmd := &cobra.Command{
		Use:   "translate [globs...]",
		Short: "Translate each matching fixture and print a summary per file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := expandGlobs(args)
			if err != nil {
				return err
			}
			prof, stage, ver, err := resolveCommon(profileName, stageName, versionStr)
			if err != nil {
				return err
			}
			log := quietLogger()

			failed := 0
			for _, path := range paths {
				result, prog, err := translateOne(path, stage, ver, prof, log)
				if err != nil {
					fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
					failed++
					continue
				}
				if !quiet {
					fmt.Printf("%s: stage=%s version=%d.%d instructions=%d bytes=%d indirect_const_access=%v\n",
						path, result.Stage, result.Version.Major, result.Version.Minor,
						result.InstructionCount, result.BytesConsumed, result.IndirectConstAccess)
				}
				if dumpIR {
					fmt.Print(dump.Program(prog))
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d/%d fixtures failed to translate", failed, len(paths))
			}
			return nil
		},
	}
	addCommonFlags(translateCmd)
	translateCmd.Flags().BoolVar(&dumpIR, "dump", false, "Print the decoded IR for each fixture")

	validateCmd := &cobra.Command{
		Use:   "validate [globs...]",
		Short: "Decode each matching fixture and report errors without printing IR",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := expandGlobs(args)
			if err != nil {
				return err
			}
			prof, stage, ver, err := resolveCommon(profileName, stageName, versionStr)
			if err != nil {
				return err
			}
			log := quietLogger()

			failed := 0
			for _, path := range paths {
				_, _, err := translateOne(path, stage, ver, prof, log)
				if err != nil {
					fmt.Printf("%s: FAIL: %v\n", path, err)
					failed++
					continue
				}
				if !quiet {
					fmt.Printf("%s: OK\n", path)
				}
			}
			fmt.Printf("\n%d/%d fixtures valid\n", len(paths)-failed, len(paths))
			if failed > 0 {
				return fmt.Errorf("%d fixtures failed validation", failed)
			}
			return nil
		},
	}
	addCommonFlags(validateCmd)

	statsCmd := &cobra.Command{
		Use:   "stats [globs...]",
		Short: "Aggregate instruction and export counts across matching fixtures",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := expandGlobs(args)
			if err != nil {
				return err
			}
			prof, stage, ver, err := resolveCommon(profileName, stageName, versionStr)
			if err != nil {
				return err
			}
			log := quietLogger()

			var totalInsns, totalBytes, totalExports, indirectCount, failed int
			for _, path := range paths {
				result, _, err := translateOne(path, stage, ver, prof, log)
				if err != nil {
					fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
					failed++
					continue
				}
				totalInsns += result.InstructionCount
				totalBytes += result.BytesConsumed
				totalExports += len(result.ExportedConstants)
				if result.IndirectConstAccess {
					indirectCount++
				}
			}
			ok := len(paths) - failed
			fmt.Printf("fixtures: %d ok, %d failed\n", ok, failed)
			fmt.Printf("instructions: %d total", totalInsns)
			if ok > 0 {
				fmt.Printf(", %.1f avg/fixture", float64(totalInsns)/float64(ok))
			}
			fmt.Println()
			fmt.Printf("bytes: %d total\n", totalBytes)
			fmt.Printf("exported local constants: %d total\n", totalExports)
			fmt.Printf("fixtures using indirect constant addressing: %d\n", indirectCount)
			if failed > 0 {
				return fmt.Errorf("%d fixtures failed to translate", failed)
			}
			return nil
		},
	}
	addCommonFlags(statsCmd)

	rootCmd.AddCommand(translateCmd, validateCmd, statsCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// quietLogger mirrors the CLI default: diagnostics only at warning+ unless
// the caller redirects output, matching sm1xlate's log-file-optional shape
// but with no file target (batch mode reports through stdout/stderr only).
func quietLogger() *slog.Logger {
	debug := false
	return slog.New(logger.NewHandler(nil, &slog.HandlerOptions{Level: slog.LevelWarn}, &debug))
}

func expandGlobs(patterns []string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, pat := range patterns {
		matches, err := filepath.Glob(pat)
		if err != nil {
			return nil, fmt.Errorf("invalid glob %q: %w", pat, err)
		}
		if len(matches) == 0 {
			matches = []string{pat}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func resolveCommon(profileName, stageName, versionStr string) (caps.Profile, sm1.Stage, isa.Version, error) {
	prof, err := resolveProfile(profileName)
	if err != nil {
		return caps.Profile{}, 0, isa.Version{}, err
	}
	stage, err := parseStage(stageName)
	if err != nil {
		return caps.Profile{}, 0, isa.Version{}, err
	}
	ver, err := parseVersion(versionStr)
	if err != nil {
		return caps.Profile{}, 0, isa.Version{}, err
	}
	return prof, stage, ver, nil
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
		return nil, fmt.Errorf("length %d is not a multiple of 4", len(data))
	}
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return words, nil
}

func translateOne(path string, stage sm1.Stage, ver isa.Version, prof caps.Profile, log *slog.Logger) (*translator.Result, *ir.Program, error) {
	words, err := loadWords(path, stage, ver)
	if err != nil {
		return nil, nil, err
	}
	prog := ir.NewProgram()
	result, err := translator.Translate(words, stage, prof, prog, log)
	if err != nil {
		return nil, nil, err
	}
	return result, prog, nil
}
