package notification

// Repository is the persistence contract for notifications. Lookups
// that miss report absence through their return values rather than an
// error; errors are reserved for storage failures.
type Repository interface {
	// Create appends a notification to the collection.
	Create(n Notification) error

	// GetByID returns the first notification with the given id, or
	// (zero, false) when none exists. ID comparison is case-sensitive.
	GetByID(id string) (Notification, bool, error)

	// ListByRecipient returns all notifications addressed to the given
	// email, compared case-insensitively, in storage order.
	ListByRecipient(email string) ([]Notification, error)

	// CountUnsilenced counts the recipient's notifications that have
	// not been silenced.
	CountUnsilenced(email string) (int, error)

	// SetSilenced flips the silenced flag on one notification. Returns
	// false when the id does not exist.
	SetSilenced(id string, silenced bool) (bool, error)

	// DeleteAllByRecipient removes every notification addressed to the
	// given email and returns how many were removed.
	DeleteAllByRecipient(email string) (int, error)

	// ArmReminder marks a notification as carrying an active reminder
	// due at the given time. Returns false when the id does not exist.
	ArmReminder(id, dueAt string) (bool, error)

	// UpdateReminderDueAt changes the due time of an armed reminder.
	// Returns false when the notification does not exist or has no
	// reminder armed.
	UpdateReminderDueAt(id, dueAt string) (bool, error)

	// DeactivateReminder clears the reminder flags on a notification.
	// Returns false when the id does not exist.
	DeactivateReminder(id string) (bool, error)

	// Mutate runs fn over the full collection inside a single locked
	// load-mutate-save cycle. fn returns the new contents and whether
	// anything changed; an unchanged collection is not rewritten.
	Mutate(fn func(items []Notification) ([]Notification, bool, error)) error
}
