package dialog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	maxNameLength   = 100
	maxDosageLength = 50
)

var (
	timeColonRe   = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):([0-5][0-9])$`)
	timeHourRe    = regexp.MustCompile(`^([01]?[0-9]|2[0-3])$`)
	timeCompactRe = regexp.MustCompile(`^[0-9]{3,4}$`)
)

// Dosage shapes the bot recognizes outright. Anything else short enough is
// still stored, but the confirmation warns that it was not recognized.
var dosagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\d+(\.\d+)?\s*(tablets?|tabs?\.?|capsules?|caps?\.?|drops?|ml\.?|g\.?|grams?|таблетк[аи]|таб\.?|капсул[аи]|кап\.?|краплі|крапель|мл\.?|г\.?)$`),
	regexp.MustCompile(`(?i)^(half|пів)\s+(a\s+)?(tablet|capsule|таблетки|капсули)$`),
	regexp.MustCompile(`(?i)^\d+/\d+\s*(tablets?|capsules?|таблетки|капсули)$`),
}

// NormalizeTime parses the accepted clock spellings and returns canonical
// HH:MM. Accepted forms: "8:30" and "08:30", a bare hour like "8" (minutes
// become 00), and compact digits like "830" or "0830".
func NormalizeTime(input string) (string, bool) {
	s := strings.TrimSpace(input)
	if m := timeColonRe.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		return fmt.Sprintf("%02d:%02d", hour, minute), true
	}
	if timeHourRe.MatchString(s) {
		hour, _ := strconv.Atoi(s)
		return fmt.Sprintf("%02d:00", hour), true
	}
	if timeCompactRe.MatchString(s) {
		split := len(s) - 2
		hour, _ := strconv.Atoi(s[:split])
		minute, _ := strconv.Atoi(s[split:])
		if hour <= 23 && minute <= 59 {
			return fmt.Sprintf("%02d:%02d", hour, minute), true
		}
	}
	return "", false
}

// ValidateName trims the medicine name and bounds its length.
func ValidateName(input string) (string, bool) {
	name := strings.TrimSpace(input)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return "", false
	}
	return name, true
}

// ValidateDosage trims the dosage and reports whether it matches a known
// shape. Unrecognized text within the length bound is accepted as-is;
// recognized is false so the caller can warn.
func ValidateDosage(input string) (dosage string, recognized, ok bool) {
	dosage = strings.TrimSpace(input)
	if dosage == "" || utf8.RuneCountInString(dosage) > maxDosageLength {
		return "", false, false
	}
	for _, re := range dosagePatterns {
		if re.MatchString(dosage) {
			return dosage, true, true
		}
	}
	return dosage, false, true
}
