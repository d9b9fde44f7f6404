package auth

import (
	"bufio"
	"log"
	"os"
	"strings"
)

// List is the access gate for inbound messages. Entries come from an inline
// comma-separated value and from a file with one entry per line; lines
// starting with # are comments. An entry starting with @ is a profile-name
// handle, anything else is a sender phone number. With no entries configured
// the gate denies everyone.
type List struct {
	ids     map[string]struct{}
	handles map[string]struct{}
	logger  *log.Logger
}

// Load builds the allow-list. A missing or unreadable file contributes
// nothing but is logged, so a typo in the path shows up at startup.
func Load(inline, path string, logger *log.Logger) *List {
	l := &List{
		ids:     make(map[string]struct{}),
		handles: make(map[string]struct{}),
		logger:  logger,
	}
	for _, entry := range strings.Split(inline, ",") {
		l.add(entry)
	}
	if path != "" {
		if err := l.loadFile(path); err != nil {
			logger.Printf("auth: allow-list file %s: %v", path, err)
		}
	}
	if len(l.ids) == 0 && len(l.handles) == 0 {
		logger.Printf("auth: allow-list is empty, every sender will be denied")
	} else {
		logger.Printf("auth: allow-list loaded, %d numbers and %d handles", len(l.ids), len(l.handles))
	}
	return l
}

func (l *List) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		l.add(scanner.Text())
	}
	return scanner.Err()
}

func (l *List) add(entry string) {
	entry = strings.TrimSpace(entry)
	if entry == "" || strings.HasPrefix(entry, "#") {
		return
	}
	if strings.HasPrefix(entry, "@") {
		if handle := strings.ToLower(strings.TrimPrefix(entry, "@")); handle != "" {
			l.handles[handle] = struct{}{}
		}
		return
	}
	if id := canonicalNumber(entry); id != "" {
		l.ids[id] = struct{}{}
	}
}

// Permit reports whether the sender may use the bot, by number first and
// profile handle second.
func (l *List) Permit(senderID, handle string) bool {
	if _, ok := l.ids[canonicalNumber(senderID)]; ok {
		return true
	}
	h := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
	if h == "" {
		return false
	}
	if _, ok := l.handles[h]; ok {
		l.logger.Printf("auth: %s authorized by handle @%s", senderID, h)
		return true
	}
	return false
}

// canonicalNumber strips transport prefixes and separators so the same phone
// number always compares equal.
func canonicalNumber(number string) string {
	n := strings.TrimSpace(number)
	n = strings.TrimPrefix(n, "whatsapp:")
	n = strings.TrimPrefix(n, "+")
	n = strings.ReplaceAll(n, " ", "")
	n = strings.ReplaceAll(n, "-", "")
	return n
}
