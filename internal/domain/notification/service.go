package notification

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrNotFound is returned when a notification id does not exist.
	ErrNotFound = errors.New("notification not found")
	// ErrForbidden is returned when a caller touches a notification
	// addressed to somebody else.
	ErrForbidden = errors.New("notification belongs to another recipient")
	// ErrInvalidDueTime is returned when a reminder due time cannot be
	// parsed.
	ErrInvalidDueTime = errors.New("invalid reminder due time")
)

const (
	reminderSubjectPrefix = "[REMINDER] "
	defaultSubject        = "Reminder"
	defaultSender         = "system"
)

// Service owns notification delivery, silencing, and the reminder
// lifecycle, including the periodic sweep that fires due reminders.
type Service struct {
	repo Repository
	log  zerolog.Logger
	now  func() time.Time
}

// NewService creates a notification service on top of the given
// repository.
func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("component", "notification").Logger(),
		now:  time.Now,
	}
}

// Notify creates and stores a new notification addressed to the given
// recipient, stamped with the current time.
func (s *Service) Notify(recipient, sender, subject, body string) (Notification, error) {
	n := Notification{
		ID:             newNotificationID(s.now()),
		SentAt:         s.now().Format(SentAtLayout),
		Subject:        subject,
		Sender:         sender,
		Body:           body,
		RecipientEmail: recipient,
	}
	if err := s.repo.Create(n); err != nil {
		return Notification{}, fmt.Errorf("store notification: %w", err)
	}
	return n, nil
}

// ListForRecipient returns the recipient's notifications in storage
// order.
func (s *Service) ListForRecipient(email string) ([]Notification, error) {
	return s.repo.ListByRecipient(email)
}

// CountUnsilenced returns how many of the recipient's notifications
// are not silenced.
func (s *Service) CountUnsilenced(email string) (int, error) {
	return s.repo.CountUnsilenced(email)
}

// Get returns one notification, enforcing that the caller is its
// recipient.
func (s *Service) Get(id, callerEmail string) (Notification, error) {
	n, ok, err := s.repo.GetByID(id)
	if err != nil {
		return Notification{}, err
	}
	if !ok {
		return Notification{}, ErrNotFound
	}
	if !strings.EqualFold(n.RecipientEmail, callerEmail) {
		return Notification{}, ErrForbidden
	}
	return n, nil
}

// SetSilenced flips the silenced flag. Silencing hides a notification
// from the unread count without deleting it.
func (s *Service) SetSilenced(id, callerEmail string, silenced bool) error {
	if _, err := s.Get(id, callerEmail); err != nil {
		return err
	}
	ok, err := s.repo.SetSilenced(id, silenced)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// ArmReminder attaches an active reminder to a notification. When a
// reminder is already armed, its due time is moved instead, which also
// re-activates one that has fired.
func (s *Service) ArmReminder(id, callerEmail, dueAt string) error {
	if _, err := ParseDueTime(dueAt); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDueTime, err)
	}
	n, err := s.Get(id, callerEmail)
	if err != nil {
		return err
	}

	var ok bool
	if n.HasReminder {
		ok, err = s.repo.UpdateReminderDueAt(id, dueAt)
	} else {
		ok, err = s.repo.ArmReminder(id, dueAt)
	}
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// DeactivateReminder clears a notification's reminder flags.
func (s *Service) DeactivateReminder(id, callerEmail string) error {
	if _, err := s.Get(id, callerEmail); err != nil {
		return err
	}
	ok, err := s.repo.DeactivateReminder(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// DeleteAllForRecipient removes every notification addressed to the
// given email. Used when a user account is deleted.
func (s *Service) DeleteAllForRecipient(email string) (int, error) {
	return s.repo.DeleteAllByRecipient(email)
}

// ProcessDueReminders is the sweep: it loads the collection once,
// fires every reminder whose due time has passed, and saves the whole
// collection back in a single write. Each fired reminder produces one
// new alert notification and flips the source's reminderActive off, so
// a reminder fires at most once. "Now" is captured once so every
// record in a sweep sees the same deadline. Records with unparseable
// due times are logged and left untouched.
func (s *Service) ProcessDueReminders() (int, error) {
	now := s.now()
	fired := 0

	err := s.repo.Mutate(func(items []Notification) ([]Notification, bool, error) {
		var alerts []Notification
		for i := range items {
			n := &items[i]
			if !n.HasReminder || !n.ReminderActive {
				continue
			}
			due, err := ParseDueTime(n.ReminderDueAt)
			if err != nil {
				s.log.Warn().
					Str("notification_id", n.ID).
					Str("due_at", n.ReminderDueAt).
					Msg("skipping reminder with unparseable due time")
				continue
			}
			if due.After(now) {
				continue
			}
			alerts = append(alerts, buildReminderAlert(*n, now))
			n.ReminderActive = false
			fired++
		}
		if fired == 0 {
			return items, false, nil
		}
		return append(items, alerts...), true, nil
	})
	if err != nil {
		return 0, fmt.Errorf("reminder sweep: %w", err)
	}
	if fired > 0 {
		s.log.Info().Int("fired", fired).Msg("reminders fired")
	}
	return fired, nil
}

// buildReminderAlert synthesizes the alert notification for a fired
// reminder. The alert gets a fresh opaque id and carries no reminder
// flags of its own.
func buildReminderAlert(src Notification, now time.Time) Notification {
	subject := src.Subject
	if subject == "" {
		subject = defaultSubject
	}
	sender := src.Sender
	if sender == "" {
		sender = defaultSender
	}
	body := ""
	if src.Body != "" {
		body = "Reminder: " + src.Body
	}
	return Notification{
		ID:             "REM-" + uuid.NewString(),
		SentAt:         now.Format(SentAtLayout),
		Subject:        reminderSubjectPrefix + subject,
		Sender:         sender,
		Body:           body,
		RecipientEmail: src.RecipientEmail,
	}
}

func newNotificationID(now time.Time) string {
	return fmt.Sprintf("NOTIF-%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}
