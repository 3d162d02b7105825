package notification

import (
	"strings"

	"github.com/clinic/clinic/internal/platform/jsonstore"
)

// JSONRepository stores notifications in a flat JSON file.
type JSONRepository struct {
	col *jsonstore.Collection[Notification]
}

// NewJSONRepository creates a repository backed by the given file path.
func NewJSONRepository(path string) *JSONRepository {
	return &JSONRepository{col: jsonstore.NewCollection[Notification](path)}
}

func (r *JSONRepository) Create(n Notification) error {
	return r.col.Update(func(items []Notification) ([]Notification, bool, error) {
		return append(items, n), true, nil
	})
}

func (r *JSONRepository) GetByID(id string) (Notification, bool, error) {
	items, err := r.col.Load()
	if err != nil {
		return Notification{}, false, err
	}
	for _, n := range items {
		if n.ID == id {
			return n, true, nil
		}
	}
	return Notification{}, false, nil
}

func (r *JSONRepository) ListByRecipient(email string) ([]Notification, error) {
	items, err := r.col.Load()
	if err != nil {
		return nil, err
	}
	out := make([]Notification, 0, len(items))
	for _, n := range items {
		if strings.EqualFold(n.RecipientEmail, email) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *JSONRepository) CountUnsilenced(email string) (int, error) {
	items, err := r.col.Load()
	if err != nil {
		return 0, err
	}
	count := 0
	for _, n := range items {
		if strings.EqualFold(n.RecipientEmail, email) && !n.Silenced {
			count++
		}
	}
	return count, nil
}

func (r *JSONRepository) SetSilenced(id string, silenced bool) (bool, error) {
	found := false
	err := r.col.Update(func(items []Notification) ([]Notification, bool, error) {
		for i := range items {
			if items[i].ID == id {
				items[i].Silenced = silenced
				found = true
				return items, true, nil
			}
		}
		return items, false, nil
	})
	return found, err
}

func (r *JSONRepository) DeleteAllByRecipient(email string) (int, error) {
	removed := 0
	err := r.col.Update(func(items []Notification) ([]Notification, bool, error) {
		kept := items[:0]
		for _, n := range items {
			if strings.EqualFold(n.RecipientEmail, email) {
				removed++
				continue
			}
			kept = append(kept, n)
		}
		return kept, removed > 0, nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (r *JSONRepository) ArmReminder(id, dueAt string) (bool, error) {
	found := false
	err := r.col.Update(func(items []Notification) ([]Notification, bool, error) {
		for i := range items {
			if items[i].ID == id {
				items[i].HasReminder = true
				items[i].ReminderDueAt = dueAt
				items[i].ReminderActive = true
				found = true
				return items, true, nil
			}
		}
		return items, false, nil
	})
	return found, err
}

func (r *JSONRepository) UpdateReminderDueAt(id, dueAt string) (bool, error) {
	found := false
	err := r.col.Update(func(items []Notification) ([]Notification, bool, error) {
		for i := range items {
			if items[i].ID == id && items[i].HasReminder {
				items[i].ReminderDueAt = dueAt
				items[i].ReminderActive = true
				found = true
				return items, true, nil
			}
		}
		return items, false, nil
	})
	return found, err
}

func (r *JSONRepository) DeactivateReminder(id string) (bool, error) {
	found := false
	err := r.col.Update(func(items []Notification) ([]Notification, bool, error) {
		for i := range items {
			if items[i].ID == id {
				items[i].HasReminder = false
				items[i].ReminderActive = false
				found = true
				return items, true, nil
			}
		}
		return items, false, nil
	})
	return found, err
}

func (r *JSONRepository) Mutate(fn func(items []Notification) ([]Notification, bool, error)) error {
	return r.col.Update(fn)
}
