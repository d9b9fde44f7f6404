package dialog

import "strings"

// Intent is the recognized meaning of one inbound message. Free text that
// matches no known caption or command maps to IntentText and is interpreted
// by the current state.
type Intent int

const (
	IntentText Intent = iota
	IntentAddMedicine
	IntentListMedicines
	IntentDeleteMedicine
	IntentDeleteAll
	IntentChangeTimezone
	IntentHelp
	IntentMainMenu
	IntentCancel
	IntentSave
	IntentEdit
	IntentYes
	IntentNo
	IntentConfirm
	IntentDeleteAllToken
)

func (i Intent) String() string {
	switch i {
	case IntentText:
		return "text"
	case IntentAddMedicine:
		return "add_medicine"
	case IntentListMedicines:
		return "list_medicines"
	case IntentDeleteMedicine:
		return "delete_medicine"
	case IntentDeleteAll:
		return "delete_all"
	case IntentChangeTimezone:
		return "change_timezone"
	case IntentHelp:
		return "help"
	case IntentMainMenu:
		return "main_menu"
	case IntentCancel:
		return "cancel"
	case IntentSave:
		return "save"
	case IntentEdit:
		return "edit"
	case IntentYes:
		return "yes"
	case IntentNo:
		return "no"
	case IntentConfirm:
		return "confirm"
	case IntentDeleteAllToken:
		return "delete_all_token"
	default:
		return "unknown"
	}
}

// intentAliases maps lowercased button captions and slash commands to
// intents. Anything absent here is free text for the current state.
var intentAliases = map[string]Intent{
	"add medicine":           IntentAddMedicine,
	"/add":                   IntentAddMedicine,
	"my medicines":           IntentListMedicines,
	"list medicines":         IntentListMedicines,
	"/list":                  IntentListMedicines,
	"delete medicine":        IntentDeleteMedicine,
	"/delete":                IntentDeleteMedicine,
	"delete all medicines":   IntentDeleteAll,
	"delete everything":      IntentDeleteAll,
	"change timezone":        IntentChangeTimezone,
	"/timezone":              IntentChangeTimezone,
	"help":                   IntentHelp,
	"/help":                  IntentHelp,
	"main menu":              IntentMainMenu,
	"menu":                   IntentMainMenu,
	"/start":                 IntentMainMenu,
	"start":                  IntentMainMenu,
	"cancel":                 IntentCancel,
	"/cancel":                IntentCancel,
	"save":                   IntentSave,
	"edit":                   IntentEdit,
	"yes":                    IntentYes,
	"no":                     IntentNo,
	"confirm":                IntentConfirm,
	"yes, delete":            IntentConfirm,
	"yes, delete everything": IntentConfirm,
}

// MapIntent resolves trimmed message text to an intent. The delete-all token
// is matched verbatim before any lowercasing so that a lowercase echo of it
// stays free text.
func MapIntent(text string) Intent {
	if text == tokenDeleteAll {
		return IntentDeleteAllToken
	}
	if intent, ok := intentAliases[strings.ToLower(text)]; ok {
		return intent
	}
	return IntentText
}
