package notification

import (
	"fmt"
	"strings"
	"time"
)

// SentAtLayout is the canonical timestamp format for notification
// records, matching what the persisted files already contain.
const SentAtLayout = "2006-01-02T15:04:05"

const spaceLayout = "2006-01-02 15:04:05"

// Notification is a single message delivered to a user's in-app inbox.
// A notification may additionally carry a reminder: when armed, the
// sweep turns it into a fresh alert once its due time passes.
type Notification struct {
	ID             string `json:"id"`
	SentAt         string `json:"sentAt"`
	Subject        string `json:"subject"`
	Sender         string `json:"sender"`
	Body           string `json:"body"`
	RecipientEmail string `json:"recipientEmail"`
	Silenced       bool   `json:"silenced"`
	HasReminder    bool   `json:"hasReminder"`
	ReminderDueAt  string `json:"reminderDueAt"`
	ReminderActive bool   `json:"reminderActive"`
}

// ParseDueTime parses a reminder due timestamp, accepting the canonical
// layout plus the two variants found in older records: a space instead
// of the T separator, and a missing seconds component. The strings
// carry no zone and are written from local wall-clock time, so they are
// parsed in the local zone to compare correctly against time.Now.
func ParseDueTime(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	if t, err := time.ParseInLocation(SentAtLayout, v, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(spaceLayout, v, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(SentAtLayout, v+":00", time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized due time %q", value)
}
