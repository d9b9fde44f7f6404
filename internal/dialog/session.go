package dialog

import (
	"sync"

	"github.com/pathakanu/medMinder/internal/model"
)

// State tags the position of a conversation inside a guided flow.
type State string

const (
	StateIdle                     State = "idle"
	StateSelectingTimezone        State = "selecting_timezone"
	StateAddingName               State = "adding_name"
	StateAddingTime               State = "adding_time"
	StateAddingDosage             State = "adding_dosage"
	StateConfirmingAdd            State = "confirming_add"
	StateAddingMoreTimes          State = "adding_more_times"
	StateChangingTimezone         State = "changing_timezone"
	StateSelectingMedicine        State = "selecting_medicine_for_deletion"
	StateSelectingReminder        State = "selecting_reminder_for_deletion"
	StateConfirmingDeletion       State = "confirming_deletion"
	StateConfirmingDeleteAll      State = "confirming_delete_all"
	StateConfirmingDeleteAllFinal State = "confirming_delete_all_final"
)

// Deletion targets carried by a draft between selection and confirmation.
const (
	deleteKindMedicine = "medicine"
	deleteKindReminder = "reminder"
)

// Draft accumulates the input of one in-progress flow. Drafts live only in
// memory: an in-flight dialog is lost on restart and the next message starts
// over from the main menu.
type Draft struct {
	ConversationID string
	State          State

	MedicineName string
	TimeOfDay    string
	Dosage       string
	// MedicineID is set once the medicine row exists, so follow-up reminders
	// in the same flow attach to it instead of creating duplicates.
	MedicineID uint

	// Deletion flow snapshot.
	Candidates       []model.Medicine
	SelectedMedicine model.Medicine
	SelectedReminder model.Reminder
	DeleteKind       string

	// Counts shown in the delete-all warning, captured when the flow starts.
	PendingMedicines int
	PendingReminders int
}

// clearMedicine resets the add-flow fields while keeping any medicine row
// already created for this draft.
func (d *Draft) clearMedicine() {
	d.MedicineName = ""
	d.TimeOfDay = ""
	d.Dosage = ""
}

// SessionStore holds one draft per active conversation. Conversations are
// independent; the store is safe for concurrent use across them.
type SessionStore struct {
	mu     sync.RWMutex
	drafts map[string]Draft
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		drafts: make(map[string]Draft),
	}
}

func (s *SessionStore) Get(conversationID string) (Draft, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drafts[conversationID]
	return d, ok
}

func (s *SessionStore) Save(d Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[d.ConversationID] = d
}

func (s *SessionStore) Clear(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, conversationID)
}
