package identity

import (
	"strings"

	"github.com/clinic/clinic/internal/platform/jsonstore"
)

// JSONRepository stores user accounts in a flat JSON file.
type JSONRepository struct {
	col *jsonstore.Collection[User]
}

// NewJSONRepository creates a repository backed by the given file path.
func NewJSONRepository(path string) *JSONRepository {
	return &JSONRepository{col: jsonstore.NewCollection[User](path)}
}

func (r *JSONRepository) Create(u User) error {
	return r.col.Update(func(items []User) ([]User, bool, error) {
		return append(items, u), true, nil
	})
}

func (r *JSONRepository) GetByEmail(email string) (User, bool, error) {
	items, err := r.col.Load()
	if err != nil {
		return User{}, false, err
	}
	for _, u := range items {
		if strings.EqualFold(u.Email, email) {
			return u, true, nil
		}
	}
	return User{}, false, nil
}

func (r *JSONRepository) GetByCedula(cedula string) (User, bool, error) {
	items, err := r.col.Load()
	if err != nil {
		return User{}, false, err
	}
	for _, u := range items {
		if u.Cedula == cedula {
			return u, true, nil
		}
	}
	return User{}, false, nil
}

func (r *JSONRepository) Update(u User) (bool, error) {
	found := false
	err := r.col.Update(func(items []User) ([]User, bool, error) {
		for i := range items {
			if items[i].Cedula == u.Cedula {
				items[i] = u
				found = true
				return items, true, nil
			}
		}
		return items, false, nil
	})
	return found, err
}

func (r *JSONRepository) DeleteByEmail(email string) (bool, error) {
	found := false
	err := r.col.Update(func(items []User) ([]User, bool, error) {
		for i := range items {
			if strings.EqualFold(items[i].Email, email) {
				found = true
				return append(items[:i], items[i+1:]...), true, nil
			}
		}
		return items, false, nil
	})
	return found, err
}

func (r *JSONRepository) ListByRole(role string) ([]User, error) {
	items, err := r.col.Load()
	if err != nil {
		return nil, err
	}
	out := make([]User, 0, len(items))
	for _, u := range items {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}
