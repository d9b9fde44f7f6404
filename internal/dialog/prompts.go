package dialog

import (
	"fmt"
	"strings"

	"github.com/pathakanu/medMinder/internal/model"
)

// Button captions. Messaging transports render these as tappable options;
// the intent mapper accepts them back as text.
const (
	captionAddMedicine    = "Add medicine"
	captionListMedicines  = "My medicines"
	captionDeleteMedicine = "Delete medicine"
	captionDeleteAll      = "Delete all medicines"
	captionChangeTimezone = "Change timezone"
	captionHelp           = "Help"
	captionMainMenu       = "Main menu"
	captionCancel         = "Cancel"
	captionSave           = "Save"
	captionEdit           = "Edit"
	captionYes            = "Yes"
	captionNo             = "No"
	captionConfirmDelete  = "Yes, delete"
	captionConfirmWipe    = "Yes, delete everything"

	// tokenDeleteAll must be typed exactly, including case, to wipe all
	// medicines. A button caption is never enough for that step.
	tokenDeleteAll = "CONFIRM DELETE ALL"
)

// Preset reminder times offered alongside free-form input.
var timePresets = map[string]string{
	"Morning 08:00": "08:00",
	"Noon 14:00":    "14:00",
	"Evening 20:00": "20:00",
}

var timePresetCaptions = []string{"Morning 08:00", "Noon 14:00", "Evening 20:00"}

// timezoneOption pairs a city label with its IANA zone. Cities are what
// users pick from; zones are what gets stored.
type timezoneOption struct {
	City string
	Zone string
}

var timezoneOptions = []timezoneOption{
	{City: "Vienna", Zone: "Europe/Vienna"},
	{City: "Kyiv", Zone: "Europe/Kyiv"},
	{City: "Kharkiv", Zone: "Europe/Kyiv"},
	{City: "Starobilsk", Zone: "Europe/Kyiv"},
	{City: "Seattle", Zone: "America/Los_Angeles"},
}

func (o timezoneOption) caption() string {
	return fmt.Sprintf("%s (%s)", o.City, o.Zone)
}

// matchTimezone resolves user input against the catalogue: a 1-based index,
// a city name, or a full caption, all case-insensitively.
func matchTimezone(input string) (timezoneOption, bool) {
	s := strings.TrimSpace(input)
	s = strings.TrimSuffix(s, " [current]")
	for i, opt := range timezoneOptions {
		if s == fmt.Sprintf("%d", i+1) {
			return opt, true
		}
		if strings.EqualFold(s, opt.City) || strings.EqualFold(s, opt.caption()) {
			return opt, true
		}
	}
	return timezoneOption{}, false
}

func timezoneCaptions(current string) []string {
	captions := make([]string, 0, len(timezoneOptions))
	for _, opt := range timezoneOptions {
		caption := opt.caption()
		if current != "" && opt.Zone == current {
			caption += " [current]"
		}
		captions = append(captions, caption)
	}
	return captions
}

func mainMenuOptions() []string {
	return []string{
		captionAddMedicine,
		captionListMedicines,
		captionDeleteMedicine,
		captionChangeTimezone,
		captionHelp,
	}
}

func mainMenuReply(prefix string) Reply {
	text := "Main menu. Choose an action:"
	if prefix != "" {
		text = prefix + "\n\n" + text
	}
	return Reply{Text: text, Options: mainMenuOptions()}
}

func welcomeReply(name string) Reply {
	greeting := "Hi"
	if name != "" {
		greeting = "Hi, " + name
	}
	return Reply{
		Text: greeting + "! I can remind you to take your medicines.\n\n" +
			"First, pick your timezone so reminders arrive at the right local time:",
		Options: append(timezoneCaptions(""), captionCancel),
	}
}

func timezonePromptReply(current string) Reply {
	return Reply{
		Text:    "Pick your timezone. Reminder times are interpreted in it:",
		Options: append(timezoneCaptions(current), captionCancel),
	}
}

func askNameReply() Reply {
	return Reply{
		Text:    "Adding a medicine. What is it called?",
		Options: []string{captionCancel},
	}
}

func askTimeReply(name string) Reply {
	return Reply{
		Text: fmt.Sprintf("When should I remind you to take %s?\n"+
			"Pick a preset or type a time like 08:00.", name),
		Options: append(append([]string{}, timePresetCaptions...), captionCancel),
	}
}

func askDosageReply() Reply {
	return Reply{
		Text:    "What is the dosage? For example: 1 tablet, 10 ml, 5 drops.",
		Options: []string{captionCancel},
	}
}

func confirmAddReply(d *Draft, dosageRecognized bool) Reply {
	var sb strings.Builder
	sb.WriteString("Please check:\n\n")
	fmt.Fprintf(&sb, "Medicine: %s\n", d.MedicineName)
	fmt.Fprintf(&sb, "Time: %s\n", d.TimeOfDay)
	fmt.Fprintf(&sb, "Dosage: %s\n", d.Dosage)
	if !dosageRecognized {
		sb.WriteString("\nI did not recognize that dosage format, but I can save it as written.\n")
	}
	sb.WriteString("\nSave it?")
	return Reply{Text: sb.String(), Options: []string{captionSave, captionEdit, captionCancel}}
}

func askMoreTimesReply(name string) Reply {
	return Reply{
		Text:    fmt.Sprintf("Saved. Add another reminder time for %s?", name),
		Options: []string{captionYes, captionNo, captionMainMenu},
	}
}

func helpReply() Reply {
	text := "I send WhatsApp reminders to take your medicines.\n\n" +
		"Add medicine: name, time and dosage, several times per medicine.\n" +
		"My medicines: everything you saved with its reminder times.\n" +
		"Delete medicine: remove one reminder or a whole medicine.\n" +
		"Change timezone: reminder times follow your local clock.\n\n" +
		"Type \"cancel\" at any point to abort what you are doing."
	return Reply{Text: text, Options: mainMenuOptions()}
}

// formatMedicineList renders the saved medicines with their reminder times,
// one numbered block per medicine.
func formatMedicineList(medicines []model.Medicine) string {
	if len(medicines) == 0 {
		return "You have no saved medicines yet."
	}
	var sb strings.Builder
	sb.WriteString("Your medicines:\n")
	for i, med := range medicines {
		fmt.Fprintf(&sb, "\n%d. %s\n", i+1, med.Name)
		active := med.ActiveReminders()
		if len(active) == 0 {
			sb.WriteString("   (no active reminders)\n")
			continue
		}
		for _, rem := range active {
			fmt.Fprintf(&sb, "   %s - %s\n", rem.TimeOfDay, rem.Dosage)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// medicineCandidateCaptions renders the deletion picker, one numbered entry
// per medicine with its active reminder count.
func medicineCandidateCaptions(medicines []model.Medicine) []string {
	captions := make([]string, 0, len(medicines)+1)
	for i, med := range medicines {
		n := med.ActiveCount()
		noun := "reminders"
		if n == 1 {
			noun = "reminder"
		}
		captions = append(captions, fmt.Sprintf("%d. %s (%d %s)", i+1, med.Name, n, noun))
	}
	return append(captions, captionCancel)
}

func deleteWholeCaption(name string) string {
	return fmt.Sprintf("Delete all of %s", name)
}

func reminderCaption(r model.Reminder) string {
	return fmt.Sprintf("%s - %s", r.TimeOfDay, r.Dosage)
}

// reminderPickerCaptions lists each active reminder of a medicine plus the
// option to drop the medicine entirely.
func reminderPickerCaptions(med model.Medicine) []string {
	active := med.ActiveReminders()
	captions := make([]string, 0, len(active)+2)
	captions = append(captions, deleteWholeCaption(med.Name))
	for _, rem := range active {
		captions = append(captions, reminderCaption(rem))
	}
	return append(captions, captionCancel)
}

func reminderPickerReply(med model.Medicine) Reply {
	return Reply{
		Text: fmt.Sprintf("%s has several reminders. Delete one of them, or the whole medicine?",
			med.Name),
		Options: reminderPickerCaptions(med),
	}
}

func confirmDeletionReply(d *Draft) Reply {
	var text string
	if d.DeleteKind == deleteKindReminder {
		text = fmt.Sprintf("Delete the %s reminder for %s?",
			d.SelectedReminder.TimeOfDay, d.SelectedMedicine.Name)
	} else {
		text = fmt.Sprintf("Delete %s with all its reminders?", d.SelectedMedicine.Name)
	}
	return Reply{Text: text, Options: []string{captionConfirmDelete, captionCancel}}
}

func deleteAllWarningReply(medicines, reminders int) Reply {
	return Reply{
		Text: fmt.Sprintf("This removes ALL your data: %d medicines and %d reminders.\n"+
			"There is no undo. Continue?", medicines, reminders),
		Options: []string{captionConfirmWipe, captionCancel},
	}
}

func deleteAllFinalReply() Reply {
	return Reply{
		Text: fmt.Sprintf("Last check. To delete everything, type exactly:\n\n%s",
			tokenDeleteAll),
		Options: []string{captionCancel},
	}
}

func persistenceFailureReply() Reply {
	return mainMenuReply("Something went wrong while saving. Nothing was changed, please try again.")
}
