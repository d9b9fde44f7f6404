package dialog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pathakanu/medMinder/internal/model"
)

type transitionKey struct {
	state  State
	intent Intent
}

type transitionFunc func(e *Engine, ctx context.Context, d *Draft, in input) Reply

// transitions keys every accepted (state, intent) pair to its handler. When
// a pair is missing the dispatcher retries with IntentText, so each state
// decides what unrecognized input means there.
var transitions = map[transitionKey]transitionFunc{
	{StateIdle, IntentAddMedicine}:    (*Engine).onAddStart,
	{StateIdle, IntentListMedicines}:  (*Engine).onListMedicines,
	{StateIdle, IntentDeleteMedicine}: (*Engine).onDeleteStart,
	{StateIdle, IntentDeleteAll}:      (*Engine).onDeleteAllStart,
	{StateIdle, IntentChangeTimezone}: (*Engine).onChangeTimezone,
	{StateIdle, IntentHelp}:           (*Engine).onHelp,
	{StateIdle, IntentMainMenu}:       (*Engine).onMainMenu,
	{StateIdle, IntentText}:           (*Engine).onUnknown,

	{StateSelectingTimezone, IntentText}: (*Engine).onTimezoneChosen,
	{StateChangingTimezone, IntentText}:  (*Engine).onTimezoneChosen,

	{StateAddingName, IntentText}:   (*Engine).onNameEntered,
	{StateAddingTime, IntentText}:   (*Engine).onTimeEntered,
	{StateAddingDosage, IntentText}: (*Engine).onDosageEntered,

	{StateConfirmingAdd, IntentSave}: (*Engine).onSaveConfirmed,
	{StateConfirmingAdd, IntentEdit}: (*Engine).onEditRequested,
	{StateConfirmingAdd, IntentText}: (*Engine).onConfirmAddRetry,

	{StateAddingMoreTimes, IntentYes}:      (*Engine).onMoreTimesYes,
	{StateAddingMoreTimes, IntentNo}:       (*Engine).onMoreTimesDone,
	{StateAddingMoreTimes, IntentMainMenu}: (*Engine).onMoreTimesDone,
	{StateAddingMoreTimes, IntentText}:     (*Engine).onMoreTimesDone,

	{StateSelectingMedicine, IntentText}: (*Engine).onMedicinePicked,
	{StateSelectingReminder, IntentText}: (*Engine).onReminderPicked,

	{StateConfirmingDeletion, IntentConfirm}: (*Engine).onDeletionConfirmed,
	{StateConfirmingDeletion, IntentText}:    (*Engine).onConfirmDeletionRetry,

	{StateConfirmingDeleteAll, IntentConfirm}: (*Engine).onDeleteAllAcknowledged,
	{StateConfirmingDeleteAll, IntentText}:    (*Engine).onDeleteAllWarningRetry,

	{StateConfirmingDeleteAllFinal, IntentDeleteAllToken}: (*Engine).onDeleteAllExecuted,
	{StateConfirmingDeleteAllFinal, IntentText}:           (*Engine).onDeleteAllFinalRetry,
}

func (e *Engine) onAddStart(ctx context.Context, d *Draft, in input) Reply {
	*d = Draft{ConversationID: d.ConversationID, State: StateAddingName}
	return askNameReply()
}

func (e *Engine) onListMedicines(ctx context.Context, d *Draft, in input) Reply {
	medicines := e.store.MedicinesWithReminders(in.msg.SenderID)
	d.State = StateIdle
	reply := mainMenuReply(formatMedicineList(medicines))
	if len(medicines) > 0 {
		reply.Options = append(reply.Options, captionDeleteAll)
	}
	return reply
}

func (e *Engine) onDeleteStart(ctx context.Context, d *Draft, in input) Reply {
	medicines := e.store.MedicinesWithReminders(in.msg.SenderID)
	if len(medicines) == 0 {
		d.State = StateIdle
		return mainMenuReply("You have no saved medicines yet.")
	}
	d.Candidates = medicines
	d.State = StateSelectingMedicine
	return Reply{
		Text:    "Which medicine should I delete?",
		Options: medicineCandidateCaptions(medicines),
	}
}

func (e *Engine) onDeleteAllStart(ctx context.Context, d *Draft, in input) Reply {
	medicines := e.store.MedicinesWithReminders(in.msg.SenderID)
	if len(medicines) == 0 {
		d.State = StateIdle
		return mainMenuReply("You have no saved medicines yet.")
	}
	d.PendingMedicines = len(medicines)
	d.PendingReminders = 0
	for _, med := range medicines {
		d.PendingReminders += len(med.Reminders)
	}
	d.State = StateConfirmingDeleteAll
	return deleteAllWarningReply(d.PendingMedicines, d.PendingReminders)
}

func (e *Engine) onChangeTimezone(ctx context.Context, d *Draft, in input) Reply {
	current := ""
	if u := e.store.User(in.msg.SenderID); u != nil {
		current = u.Timezone
	}
	d.State = StateChangingTimezone
	return timezonePromptReply(current)
}

func (e *Engine) onHelp(ctx context.Context, d *Draft, in input) Reply {
	d.State = StateIdle
	return helpReply()
}

func (e *Engine) onMainMenu(ctx context.Context, d *Draft, in input) Reply {
	d.State = StateIdle
	return mainMenuReply("")
}

func (e *Engine) onUnknown(ctx context.Context, d *Draft, in input) Reply {
	d.State = StateIdle
	return mainMenuReply("I did not catch that. Pick an action below, or type \"help\".")
}

func (e *Engine) onTimezoneChosen(ctx context.Context, d *Draft, in input) Reply {
	opt, ok := matchTimezone(in.text)
	if !ok {
		current := ""
		if u := e.store.User(in.msg.SenderID); u != nil {
			current = u.Timezone
		}
		reply := timezonePromptReply(current)
		reply.Text = "I do not know that city. " + reply.Text
		return reply
	}
	if !e.store.UpsertUser(in.msg.SenderID, in.msg.DisplayName, opt.Zone) {
		d.State = StateIdle
		return persistenceFailureReply()
	}
	d.State = StateIdle
	return mainMenuReply(fmt.Sprintf("Timezone set to %s (%s).", opt.City, opt.Zone))
}

func (e *Engine) onNameEntered(ctx context.Context, d *Draft, in input) Reply {
	name, ok := ValidateName(in.text)
	if !ok {
		return Reply{
			Text:    fmt.Sprintf("A medicine name must be 1 to %d characters. Try again:", maxNameLength),
			Options: []string{captionCancel},
		}
	}
	d.MedicineName = name
	d.State = StateAddingTime
	return askTimeReply(name)
}

func (e *Engine) onTimeEntered(ctx context.Context, d *Draft, in input) Reply {
	timeOfDay, ok := timePresets[in.text]
	if !ok {
		timeOfDay, ok = NormalizeTime(in.text)
	}
	if !ok {
		return Reply{
			Text:    "I could not parse that time. Use HH:MM, for example 08:00 or 19:30.",
			Options: append(append([]string{}, timePresetCaptions...), captionCancel),
		}
	}
	d.TimeOfDay = timeOfDay
	d.State = StateAddingDosage
	return askDosageReply()
}

func (e *Engine) onDosageEntered(ctx context.Context, d *Draft, in input) Reply {
	dosage, recognized, ok := ValidateDosage(in.text)
	if !ok {
		return Reply{
			Text: fmt.Sprintf("A dosage must be 1 to %d characters. For example: 1 tablet, 10 ml.",
				maxDosageLength),
			Options: []string{captionCancel},
		}
	}
	if !recognized {
		e.logger.Printf("dialog: unrecognized dosage %q accepted for %s", dosage, in.msg.SenderID)
	}
	d.Dosage = dosage
	d.State = StateConfirmingAdd
	return confirmAddReply(d, recognized)
}

func (e *Engine) onSaveConfirmed(ctx context.Context, d *Draft, in input) Reply {
	if d.MedicineID == 0 {
		id, ok := e.store.AddMedicineWithReminder(in.msg.SenderID, d.MedicineName, d.TimeOfDay, d.Dosage)
		if !ok {
			d.State = StateIdle
			return persistenceFailureReply()
		}
		d.MedicineID = id
	} else if !e.store.AddReminder(d.MedicineID, d.TimeOfDay, d.Dosage) {
		d.State = StateIdle
		return persistenceFailureReply()
	}
	d.State = StateAddingMoreTimes
	return askMoreTimesReply(d.MedicineName)
}

func (e *Engine) onEditRequested(ctx context.Context, d *Draft, in input) Reply {
	// Once the medicine row exists, only the next reminder can be redone.
	if d.MedicineID != 0 {
		d.TimeOfDay = ""
		d.Dosage = ""
		d.State = StateAddingTime
		return askTimeReply(d.MedicineName)
	}
	d.clearMedicine()
	d.State = StateAddingName
	return askNameReply()
}

func (e *Engine) onConfirmAddRetry(ctx context.Context, d *Draft, in input) Reply {
	reply := confirmAddReply(d, true)
	reply.Text = "Please pick one of the options.\n\n" + reply.Text
	return reply
}

func (e *Engine) onMoreTimesYes(ctx context.Context, d *Draft, in input) Reply {
	d.TimeOfDay = ""
	d.Dosage = ""
	d.State = StateAddingTime
	return askTimeReply(d.MedicineName)
}

func (e *Engine) onMoreTimesDone(ctx context.Context, d *Draft, in input) Reply {
	d.State = StateIdle
	return mainMenuReply("All set. I will remind you on schedule.")
}

func (e *Engine) onMedicinePicked(ctx context.Context, d *Draft, in input) Reply {
	med, ok := matchCandidate(d.Candidates, in.text)
	if !ok {
		return Reply{
			Text:    "Pick a medicine from the list below.",
			Options: medicineCandidateCaptions(d.Candidates),
		}
	}
	d.SelectedMedicine = med
	// A single reminder means deleting it and deleting the medicine are the
	// same thing, so skip the picker.
	if len(med.ActiveReminders()) > 1 {
		d.State = StateSelectingReminder
		return reminderPickerReply(med)
	}
	d.DeleteKind = deleteKindMedicine
	d.State = StateConfirmingDeletion
	return confirmDeletionReply(d)
}

func (e *Engine) onReminderPicked(ctx context.Context, d *Draft, in input) Reply {
	med := d.SelectedMedicine
	if strings.EqualFold(in.text, deleteWholeCaption(med.Name)) {
		d.DeleteKind = deleteKindMedicine
		d.State = StateConfirmingDeletion
		return confirmDeletionReply(d)
	}
	rem, ok := matchReminder(med.ActiveReminders(), in.text)
	if !ok {
		reply := reminderPickerReply(med)
		reply.Text = "Pick a reminder from the list below."
		return reply
	}
	d.SelectedReminder = rem
	d.DeleteKind = deleteKindReminder
	d.State = StateConfirmingDeletion
	return confirmDeletionReply(d)
}

func (e *Engine) onDeletionConfirmed(ctx context.Context, d *Draft, in input) Reply {
	var ok bool
	var done string
	if d.DeleteKind == deleteKindReminder {
		ok = e.store.DeleteReminder(d.SelectedReminder.ID, in.msg.SenderID)
		done = fmt.Sprintf("Deleted the %s reminder for %s.",
			d.SelectedReminder.TimeOfDay, d.SelectedMedicine.Name)
	} else {
		ok = e.store.DeleteMedicine(d.SelectedMedicine.ID, in.msg.SenderID)
		done = fmt.Sprintf("Deleted %s with all its reminders.", d.SelectedMedicine.Name)
	}
	d.State = StateIdle
	if !ok {
		return persistenceFailureReply()
	}
	return mainMenuReply(done)
}

func (e *Engine) onConfirmDeletionRetry(ctx context.Context, d *Draft, in input) Reply {
	reply := confirmDeletionReply(d)
	reply.Text = "Please pick one of the options.\n\n" + reply.Text
	return reply
}

func (e *Engine) onDeleteAllAcknowledged(ctx context.Context, d *Draft, in input) Reply {
	d.State = StateConfirmingDeleteAllFinal
	return deleteAllFinalReply()
}

func (e *Engine) onDeleteAllWarningRetry(ctx context.Context, d *Draft, in input) Reply {
	// A bare "yes" is not enough for a full wipe.
	reply := deleteAllWarningReply(d.PendingMedicines, d.PendingReminders)
	reply.Text = "Please pick one of the options.\n\n" + reply.Text
	return reply
}

func (e *Engine) onDeleteAllExecuted(ctx context.Context, d *Draft, in input) Reply {
	n := e.store.DeleteAllMedicines(in.msg.SenderID)
	d.State = StateIdle
	if n == 0 {
		return persistenceFailureReply()
	}
	noun := "medicines"
	if n == 1 {
		noun = "medicine"
	}
	return mainMenuReply(fmt.Sprintf("Deleted %d %s and all their reminders.", n, noun))
}

func (e *Engine) onDeleteAllFinalRetry(ctx context.Context, d *Draft, in input) Reply {
	reply := deleteAllFinalReply()
	reply.Text = "That did not match.\n\n" + reply.Text
	return reply
}

// matchCandidate resolves picker input: a 1-based index, a numbered picker
// caption, or the medicine name.
func matchCandidate(candidates []model.Medicine, text string) (model.Medicine, bool) {
	s := strings.TrimSpace(text)
	if idx := strings.IndexByte(s, '.'); idx > 0 {
		if n, err := strconv.Atoi(s[:idx]); err == nil && n >= 1 && n <= len(candidates) {
			return candidates[n-1], true
		}
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= len(candidates) {
		return candidates[n-1], true
	}
	for _, med := range candidates {
		if strings.EqualFold(s, med.Name) {
			return med, true
		}
	}
	return model.Medicine{}, false
}

// matchReminder resolves a "HH:MM - dosage" caption or a bare time against
// the active reminders of the selected medicine.
func matchReminder(reminders []model.Reminder, text string) (model.Reminder, bool) {
	s := strings.TrimSpace(text)
	timePart := s
	dosagePart := ""
	if idx := strings.Index(s, " - "); idx >= 0 {
		timePart = s[:idx]
		dosagePart = strings.TrimSpace(s[idx+3:])
	}
	normalized, ok := NormalizeTime(timePart)
	if !ok {
		return model.Reminder{}, false
	}
	for _, rem := range reminders {
		if rem.TimeOfDay != normalized {
			continue
		}
		if dosagePart == "" || strings.EqualFold(dosagePart, rem.Dosage) {
			return rem, true
		}
	}
	return model.Reminder{}, false
}
