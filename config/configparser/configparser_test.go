package configparser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sm1xlate/sm1xlate/caps"
)

func writeTemp(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	name := filepath.Join(dir, "profile.cfg")
	if err := os.WriteFile(name, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return name
}

func TestLoadProfileDefaults(t *testing.T) {
	name := writeTemp(t, "")
	prof, err := LoadProfile(name)
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if prof != caps.ReferenceRasterizer {
		t.Errorf("empty file: got %+v, want %+v", prof, caps.ReferenceRasterizer)
	}
}

func TestLoadProfileNamed(t *testing.T) {
	name := writeTemp(t, "profile=modern\n")
	prof, err := LoadProfile(name)
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if prof != caps.ModernCore {
		t.Errorf("got %+v, want %+v", prof, caps.ModernCore)
	}
}

func TestLoadProfileOverridesAfterNamed(t *testing.T) {
	name := writeTemp(t, "profile=modern\nmax_predicates=2\n")
	prof, err := LoadProfile(name)
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	want := caps.ModernCore
	want.MaxPredicates = 2
	if prof != want {
		t.Errorf("got %+v, want %+v", prof, want)
	}
}

func TestLoadProfileFields(t *testing.T) {
	body := "native_integers=true\n" +
		"subroutines=true\n" +
		"max_predicates=4\n" +
		"prefer_texcoord=false\n"
	name := writeTemp(t, body)
	prof, err := LoadProfile(name)
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	want := caps.Profile{
		NativeIntegers: true,
		Subroutines:    true,
		MaxPredicates:  4,
		PreferTexcoord: false,
	}
	if prof != want {
		t.Errorf("got %+v, want %+v", prof, want)
	}
}

func TestLoadProfileIgnoresCommentsAndBlankLines(t *testing.T) {
	body := "# a profile\n\n  \nnative_integers=true  # inline comment\n"
	name := writeTemp(t, body)
	prof, err := LoadProfile(name)
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if !prof.NativeIntegers {
		t.Errorf("native_integers not applied: %+v", prof)
	}
}

func TestLoadProfileNoTrailingNewline(t *testing.T) {
	name := writeTemp(t, "subroutines=true")
	prof, err := LoadProfile(name)
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if !prof.Subroutines {
		t.Errorf("subroutines not applied: %+v", prof)
	}
}

func TestLoadProfileUnknownDirective(t *testing.T) {
	name := writeTemp(t, "frobnicate=yes\n")
	if _, err := LoadProfile(name); err == nil {
		t.Fatal("expected error for unknown directive, got nil")
	}
}

func TestLoadProfileMalformedLine(t *testing.T) {
	name := writeTemp(t, "native_integers true\n")
	if _, err := LoadProfile(name); err == nil {
		t.Fatal("expected error for missing '=', got nil")
	}
}

func TestLoadProfileUnknownNamedProfile(t *testing.T) {
	name := writeTemp(t, "profile=exotic\n")
	if _, err := LoadProfile(name); err == nil {
		t.Fatal("expected error for unknown named profile, got nil")
	}
}

func TestLoadProfileBadBool(t *testing.T) {
	name := writeTemp(t, "native_integers=maybe\n")
	if _, err := LoadProfile(name); err == nil {
		t.Fatal("expected error for invalid bool, got nil")
	}
}

func TestLoadProfileBadInt(t *testing.T) {
	name := writeTemp(t, "max_predicates=many\n")
	if _, err := LoadProfile(name); err == nil {
		t.Fatal("expected error for invalid int, got nil")
	}
}

func TestLoadProfileMissingFile(t *testing.T) {
	if _, err := LoadProfile(filepath.Join(t.TempDir(), "missing.cfg")); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}
