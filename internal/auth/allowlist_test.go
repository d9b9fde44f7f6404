package auth

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestPermitMatchesNumberVariants(t *testing.T) {
	t.Parallel()
	l := Load("+1 415-555-0100", "", discardLogger())

	cases := map[string]struct {
		sender string
		want   bool
	}{
		"bare digits":      {sender: "14155550100", want: true},
		"plus prefix":      {sender: "+14155550100", want: true},
		"whatsapp prefix":  {sender: "whatsapp:+14155550100", want: true},
		"spaced out":       {sender: "1 415 555 0100", want: true},
		"different number": {sender: "+14155550199", want: false},
		"empty sender":     {sender: "", want: false},
	}
	for name, tc := range cases {
		if got := l.Permit(tc.sender, ""); got != tc.want {
			t.Fatalf("%s: Permit(%q) = %v, want %v", name, tc.sender, got, tc.want)
		}
	}
}

func TestPermitMatchesHandleCaseInsensitively(t *testing.T) {
	t.Parallel()
	l := Load("@Dana", "", discardLogger())

	cases := map[string]struct {
		handle string
		want   bool
	}{
		"lowercase":     {handle: "dana", want: true},
		"uppercase":     {handle: "DANA", want: true},
		"with at sign":  {handle: "@dana", want: true},
		"padded":        {handle: " dana ", want: true},
		"other handle":  {handle: "mallory", want: false},
		"empty handle":  {handle: "", want: false},
		"at sign alone": {handle: "@", want: false},
	}
	for name, tc := range cases {
		if got := l.Permit("unknown-number", tc.handle); got != tc.want {
			t.Fatalf("%s: Permit(handle=%q) = %v, want %v", name, tc.handle, got, tc.want)
		}
	}
}

func TestLoadReadsEntriesFromFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "allow.txt")
	contents := "# family\n+380501112233\n\n@Grandma\n  # trailing comment\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write allow-list: %v", err)
	}

	l := Load("", path, discardLogger())

	if !l.Permit("whatsapp:+380501112233", "") {
		t.Fatalf("file number not permitted")
	}
	if !l.Permit("unknown", "grandma") {
		t.Fatalf("file handle not permitted")
	}
	if l.Permit("# family", "") {
		t.Fatalf("comment line became an entry")
	}
}

func TestInlineAndFileEntriesCombine(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "allow.txt")
	if err := os.WriteFile(path, []byte("+380501112233\n"), 0o600); err != nil {
		t.Fatalf("write allow-list: %v", err)
	}

	l := Load("14155550100,@dana", path, discardLogger())

	for _, sender := range []string{"+14155550100", "+380501112233"} {
		if !l.Permit(sender, "") {
			t.Fatalf("%s not permitted", sender)
		}
	}
	if !l.Permit("unknown", "Dana") {
		t.Fatalf("inline handle not permitted")
	}
}

func TestEmptyListDeniesEveryone(t *testing.T) {
	t.Parallel()
	l := Load("", "", discardLogger())

	if l.Permit("+14155550100", "dana") {
		t.Fatalf("empty allow-list permitted a sender")
	}
}

func TestMissingFileStillLoadsInlineEntries(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "does-not-exist.txt")
	l := Load("+14155550100", path, discardLogger())

	if !l.Permit("+14155550100", "") {
		t.Fatalf("inline entry lost when file is missing")
	}
}
