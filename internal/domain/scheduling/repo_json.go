package scheduling

import (
	"strings"

	"github.com/clinic/clinic/internal/platform/jsonstore"
)

// JSONRepository stores appointments in a flat JSON file.
type JSONRepository struct {
	col *jsonstore.Collection[Appointment]
}

// NewJSONRepository creates a repository backed by the given file path.
func NewJSONRepository(path string) *JSONRepository {
	return &JSONRepository{col: jsonstore.NewCollection[Appointment](path)}
}

func (r *JSONRepository) Create(a Appointment) error {
	return r.col.Update(func(items []Appointment) ([]Appointment, bool, error) {
		return append(items, a), true, nil
	})
}

func (r *JSONRepository) GetByID(id string) (Appointment, bool, error) {
	items, err := r.col.Load()
	if err != nil {
		return Appointment{}, false, err
	}
	for _, a := range items {
		if a.ID == id {
			return a, true, nil
		}
	}
	return Appointment{}, false, nil
}

func (r *JSONRepository) ListByPatient(email string) ([]Appointment, error) {
	items, err := r.col.Load()
	if err != nil {
		return nil, err
	}
	out := make([]Appointment, 0, len(items))
	for _, a := range items {
		if strings.EqualFold(a.PatientEmail, email) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *JSONRepository) ListBySpecialist(name string) ([]Appointment, error) {
	items, err := r.col.Load()
	if err != nil {
		return nil, err
	}
	out := make([]Appointment, 0, len(items))
	for _, a := range items {
		if a.Specialist == name {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *JSONRepository) Update(a Appointment) (bool, error) {
	found := false
	err := r.col.Update(func(items []Appointment) ([]Appointment, bool, error) {
		for i := range items {
			if items[i].ID == a.ID {
				items[i] = a
				found = true
				return items, true, nil
			}
		}
		return items, false, nil
	})
	return found, err
}

func (r *JSONRepository) HasConflict(specialist, date, timeOfDay, excludeID string) (bool, error) {
	items, err := r.col.Load()
	if err != nil {
		return false, err
	}
	for _, a := range items {
		if a.ID == excludeID || a.Status == StatusCancelled {
			continue
		}
		if a.SameSlot(specialist, date, timeOfDay) {
			return true, nil
		}
	}
	return false, nil
}

func (r *JSONRepository) Mutate(fn func(items []Appointment) ([]Appointment, bool, error)) error {
	return r.col.Update(fn)
}
