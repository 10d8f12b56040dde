package dumpshell

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sm1xlate/sm1xlate/caps"
)

func writeFixture(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestProcessCommandLoadAndDump(t *testing.T) {
	path := writeFixture(t, "test.sm1asm", "def c0, 1.0, 2.0, 3.0, 4.0\nmov r0, c0\n")
	sh := New(caps.ReferenceRasterizer, nil)

	quit, err := ProcessCommand("load "+path+" vs 2.0", sh)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if quit {
		t.Fatal("load should not quit the shell")
	}
	if sh.prog == nil || sh.result == nil {
		t.Fatal("load did not populate shell state")
	}
	if sh.result.InstructionCount != 2 {
		t.Errorf("InstructionCount = %d, want 2", sh.result.InstructionCount)
	}

	if _, err := ProcessCommand("dump", sh); err != nil {
		t.Errorf("dump: %v", err)
	}
	if _, err := ProcessCommand("regs", sh); err != nil {
		t.Errorf("regs: %v", err)
	}
	if _, err := ProcessCommand("consts", sh); err != nil {
		t.Errorf("consts: %v", err)
	}
	if _, err := ProcessCommand("labels", sh); err != nil {
		t.Errorf("labels: %v", err)
	}
}

func TestProcessCommandAbbreviation(t *testing.T) {
	sh := New(caps.ReferenceRasterizer, nil)
	// "q" is the only command starting with q, so the one-letter
	// abbreviation resolves to quit; exercise the unknown path too.
	quit, err := ProcessCommand("q", sh)
	if err != nil || !quit {
		t.Fatalf("q: quit=%v err=%v, want quit=true", quit, err)
	}
	if _, err := ProcessCommand("bogus", sh); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestProcessCommandQuit(t *testing.T) {
	sh := New(caps.ReferenceRasterizer, nil)
	quit, err := ProcessCommand("quit", sh)
	if err != nil {
		t.Fatalf("quit: %v", err)
	}
	if !quit {
		t.Fatal("quit command should report quit=true")
	}
}

func TestProcessCommandEmptyLine(t *testing.T) {
	sh := New(caps.ReferenceRasterizer, nil)
	quit, err := ProcessCommand("   ", sh)
	if err != nil || quit {
		t.Fatalf("blank line: quit=%v err=%v", quit, err)
	}
}

func TestCompleteCmdCommandNames(t *testing.T) {
	sh := New(caps.ReferenceRasterizer, nil)
	matches := CompleteCmd("du", sh)
	found := false
	for _, m := range matches {
		if m == "dump" {
			found = true
		}
	}
	if !found {
		t.Errorf("CompleteCmd(%q) = %v, want to include \"dump\"", "du", matches)
	}
}

func TestLoadMissingStage(t *testing.T) {
	path := writeFixture(t, "test.sm1asm", "mov r0, c0\n")
	sh := New(caps.ReferenceRasterizer, nil)
	if _, err := ProcessCommand("load "+path, sh); err == nil {
		t.Fatal("expected error for missing stage")
	}
}

func TestLoadRawBinary(t *testing.T) {
	// vs_1_1 header, then END sentinel.
	path := filepath.Join(t.TempDir(), "test.bin")
	words := []uint32{0xFFFE0101, 0x0000FFFF}
	buf := make([]byte, 8)
	for i, w := range words {
		buf[i*4] = byte(w)
		buf[i*4+1] = byte(w >> 8)
		buf[i*4+2] = byte(w >> 16)
		buf[i*4+3] = byte(w >> 24)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	sh := New(caps.ReferenceRasterizer, nil)
	if _, err := ProcessCommand("load "+path+" vs", sh); err != nil {
		t.Fatalf("load: %v", err)
	}
	if sh.result.InstructionCount != 0 {
		t.Errorf("InstructionCount = %d, want 0", sh.result.InstructionCount)
	}
}
