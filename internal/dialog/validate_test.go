package dialog

import (
	"strings"
	"testing"
)

func TestNormalizeTime(t *testing.T) {
	t.Parallel()

	valid := map[string]string{
		"08:30":   "08:30",
		"8:30":    "08:30",
		"8":       "08:00",
		"0":       "00:00",
		"23":      "23:00",
		"830":     "08:30",
		"0830":    "08:30",
		"1245":    "12:45",
		"2359":    "23:59",
		"000":     "00:00",
		"23:59":   "23:59",
		"0:05":    "00:05",
		" 08:30 ": "08:30",
	}
	for input, want := range valid {
		got, ok := NormalizeTime(input)
		if !ok {
			t.Fatalf("NormalizeTime(%q) rejected, want %q", input, want)
		}
		if got != want {
			t.Fatalf("NormalizeTime(%q) = %q, want %q", input, got, want)
		}
	}

	invalid := []string{
		"", "24", "24:00", "08:60", "7:5", "2400", "2360", "99999",
		"ab:cd", "8.30", "half past eight", "08:30:00", "-1", "8:3",
	}
	for _, input := range invalid {
		if got, ok := NormalizeTime(input); ok {
			t.Fatalf("NormalizeTime(%q) = %q, want rejection", input, got)
		}
	}
}

func TestValidateName(t *testing.T) {
	t.Parallel()

	if name, ok := ValidateName("  Aspirin  "); !ok || name != "Aspirin" {
		t.Fatalf("ValidateName trimmed = %q, %v", name, ok)
	}
	if _, ok := ValidateName("   "); ok {
		t.Fatalf("blank name accepted")
	}
	if _, ok := ValidateName(strings.Repeat("x", 101)); ok {
		t.Fatalf("101-char name accepted")
	}
	if _, ok := ValidateName(strings.Repeat("я", 100)); !ok {
		t.Fatalf("100-rune name rejected")
	}
}

func TestValidateDosage(t *testing.T) {
	t.Parallel()

	recognized := []string{
		"1 таблетка",
		"2 таблетки",
		"1 tablet",
		"2 tablets",
		"1 capsule",
		"10 ml",
		"10 мл",
		"0.5 g",
		"5 drops",
		"5 крапель",
		"пів таблетки",
		"half a tablet",
		"1/2 tablet",
		"3/4 таблетки",
	}
	for _, input := range recognized {
		dosage, rec, ok := ValidateDosage(input)
		if !ok || !rec {
			t.Fatalf("ValidateDosage(%q) = (%q, %v, %v), want recognized", input, dosage, rec, ok)
		}
	}

	// Free-form dosages are stored as written but flagged.
	dosage, rec, ok := ValidateDosage("one spoonful before breakfast")
	if !ok {
		t.Fatalf("short free-form dosage rejected")
	}
	if rec {
		t.Fatalf("free-form dosage reported as recognized")
	}
	if dosage != "one spoonful before breakfast" {
		t.Fatalf("free-form dosage altered: %q", dosage)
	}

	if _, _, ok := ValidateDosage(strings.Repeat("x", 51)); ok {
		t.Fatalf("51-char dosage accepted")
	}
	if _, _, ok := ValidateDosage("   "); ok {
		t.Fatalf("blank dosage accepted")
	}
}

func TestMapIntent(t *testing.T) {
	t.Parallel()

	cases := map[string]Intent{
		"Add medicine":           IntentAddMedicine,
		"add medicine":           IntentAddMedicine,
		"/add":                   IntentAddMedicine,
		"My medicines":           IntentListMedicines,
		"Delete medicine":        IntentDeleteMedicine,
		"Delete all medicines":   IntentDeleteAll,
		"Change timezone":        IntentChangeTimezone,
		"HELP":                   IntentHelp,
		"/start":                 IntentMainMenu,
		"Cancel":                 IntentCancel,
		"/cancel":                IntentCancel,
		"Save":                   IntentSave,
		"Edit":                   IntentEdit,
		"yes":                    IntentYes,
		"No":                     IntentNo,
		"Yes, delete":            IntentConfirm,
		"Yes, delete everything": IntentConfirm,
		"CONFIRM DELETE ALL":     IntentDeleteAllToken,
		"confirm delete all":     IntentText,
		"Aspirin":                IntentText,
		"08:30":                  IntentText,
	}
	for input, want := range cases {
		if got := MapIntent(input); got != want {
			t.Fatalf("MapIntent(%q) = %v, want %v", input, got, want)
		}
	}
}
