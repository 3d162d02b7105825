package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinic/clinic/internal/platform/auth"
)

var (
	// ErrNotFound is returned when no account matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrCedulaTaken is returned when the cedula is already registered.
	ErrCedulaTaken = errors.New("cedula already registered")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrValidation wraps all registration and profile field errors.
	ErrValidation = errors.New("validation failed")
)

const minAge = 18

// NotificationPurger removes a user's notifications when the account
// is deleted.
type NotificationPurger interface {
	DeleteAllForRecipient(email string) (int, error)
}

// RegisterInput is the payload for creating an account.
type RegisterInput struct {
	Cedula    string `json:"cedula"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	BirthDate string `json:"birthDate"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	Specialty string `json:"specialty"`
}

// UpdateInput is the payload for editing a profile. The cedula is the
// account key and cannot change. Empty fields are left as they are.
type UpdateInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Specialty string `json:"specialty"`
}

// Service owns account registration, login, and profile management.
type Service struct {
	repo   Repository
	tokens *auth.Issuer
	purger NotificationPurger
	log    zerolog.Logger
	now    func() time.Time
}

// NewService creates an identity service. purger may be nil when no
// notification cleanup is wanted.
func NewService(repo Repository, tokens *auth.Issuer, purger NotificationPurger, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
		purger: purger,
		log:    log.With().Str("component", "identity").Logger(),
		now:    time.Now,
	}
}

// Register validates and stores a new account.
func (s *Service) Register(in RegisterInput) (Profile, error) {
	if err := s.validateRegistration(in); err != nil {
		return Profile{}, err
	}

	if _, exists, err := s.repo.GetByEmail(in.Email); err != nil {
		return Profile{}, err
	} else if exists {
		return Profile{}, ErrEmailTaken
	}
	if _, exists, err := s.repo.GetByCedula(in.Cedula); err != nil {
		return Profile{}, err
	} else if exists {
		return Profile{}, ErrCedulaTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return Profile{}, fmt.Errorf("hash password: %w", err)
	}

	u := User{
		Cedula:       in.Cedula,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		BirthDate:    in.BirthDate,
		Email:        strings.TrimSpace(in.Email),
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: string(hash),
		Role:         in.Role,
		Specialty:    strings.TrimSpace(in.Specialty),
		CreatedAt:    s.now().Format(time.RFC3339),
	}
	if err := s.repo.Create(u); err != nil {
		return Profile{}, fmt.Errorf("store user: %w", err)
	}
	s.log.Info().Str("cedula", u.Cedula).Str("role", u.Role).Msg("user registered")
	return u.ToProfile(), nil
}

// Login checks credentials and returns a signed bearer token.
func (s *Service) Login(email, password string) (string, Profile, error) {
	u, ok, err := s.repo.GetByEmail(email)
	if err != nil {
		return "", Profile{}, err
	}
	if !ok {
		return "", Profile{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", Profile{}, ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(u.Email, u.Role)
	if err != nil {
		return "", Profile{}, fmt.Errorf("issue token: %w", err)
	}
	return token, u.ToProfile(), nil
}

// GetProfile returns the account behind the given email.
func (s *Service) GetProfile(email string) (Profile, error) {
	u, ok, err := s.repo.GetByEmail(email)
	if err != nil {
		return Profile{}, err
	}
	if !ok {
		return Profile{}, ErrNotFound
	}
	return u.ToProfile(), nil
}

// UpdateProfile edits the caller's account. Blank input fields keep
// their current values; the cedula never changes.
func (s *Service) UpdateProfile(email string, in UpdateInput) (Profile, error) {
	u, ok, err := s.repo.GetByEmail(email)
	if err != nil {
		return Profile{}, err
	}
	if !ok {
		return Profile{}, ErrNotFound
	}

	if in.FirstName != "" {
		if !lettersOnly(in.FirstName) {
			return Profile{}, fmt.Errorf("%w: first name must contain letters only", ErrValidation)
		}
		u.FirstName = strings.TrimSpace(in.FirstName)
	}
	if in.LastName != "" {
		if !lettersOnly(in.LastName) {
			return Profile{}, fmt.Errorf("%w: last name must contain letters only", ErrValidation)
		}
		u.LastName = strings.TrimSpace(in.LastName)
	}
	if in.Phone != "" {
		u.Phone = strings.TrimSpace(in.Phone)
	}
	if in.Specialty != "" && u.Role == RoleSpecialist {
		u.Specialty = strings.TrimSpace(in.Specialty)
	}
	if in.Email != "" && !strings.EqualFold(in.Email, u.Email) {
		if _, exists, err := s.repo.GetByEmail(in.Email); err != nil {
			return Profile{}, err
		} else if exists {
			return Profile{}, ErrEmailTaken
		}
		u.Email = strings.TrimSpace(in.Email)
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return Profile{}, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = string(hash)
	}

	if _, err := s.repo.Update(u); err != nil {
		return Profile{}, fmt.Errorf("store user: %w", err)
	}
	return u.ToProfile(), nil
}

// DeleteProfile removes the account and purges its notifications.
func (s *Service) DeleteProfile(email string) error {
	ok, err := s.repo.DeleteByEmail(email)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	if s.purger != nil {
		purged, err := s.purger.DeleteAllForRecipient(email)
		if err != nil {
			s.log.Error().Err(err).Str("email", email).Msg("failed to purge notifications for deleted account")
		} else if purged > 0 {
			s.log.Info().Int("purged", purged).Msg("notifications removed with account")
		}
	}
	return nil
}

// ListSpecialists returns every specialist account as a public profile.
func (s *Service) ListSpecialists() ([]Profile, error) {
	users, err := s.repo.ListByRole(RoleSpecialist)
	if err != nil {
		return nil, err
	}
	out := make([]Profile, 0, len(users))
	for _, u := range users {
		out = append(out, u.ToProfile())
	}
	return out, nil
}

// SpecialistEmailByName resolves a specialist's full name to their
// email, for addressing appointment notices. Names are compared
// case-insensitively.
func (s *Service) SpecialistEmailByName(fullName string) (string, bool, error) {
	users, err := s.repo.ListByRole(RoleSpecialist)
	if err != nil {
		return "", false, err
	}
	for _, u := range users {
		if strings.EqualFold(u.FullName(), strings.TrimSpace(fullName)) {
			return u.Email, true, nil
		}
	}
	return "", false, nil
}

func (s *Service) validateRegistration(in RegisterInput) error {
	switch {
	case strings.TrimSpace(in.Cedula) == "":
		return fmt.Errorf("%w: cedula is required", ErrValidation)
	case !digitsOnly(in.Cedula):
		return fmt.Errorf("%w: cedula must contain digits only", ErrValidation)
	case strings.TrimSpace(in.FirstName) == "":
		return fmt.Errorf("%w: first name is required", ErrValidation)
	case !lettersOnly(in.FirstName):
		return fmt.Errorf("%w: first name must contain letters only", ErrValidation)
	case strings.TrimSpace(in.LastName) == "":
		return fmt.Errorf("%w: last name is required", ErrValidation)
	case !lettersOnly(in.LastName):
		return fmt.Errorf("%w: last name must contain letters only", ErrValidation)
	case strings.TrimSpace(in.Email) == "" || !strings.Contains(in.Email, "@"):
		return fmt.Errorf("%w: a valid email is required", ErrValidation)
	case in.Password == "":
		return fmt.Errorf("%w: password is required", ErrValidation)
	case in.Role != RolePatient && in.Role != RoleSpecialist:
		return fmt.Errorf("%w: role must be %q or %q", ErrValidation, RolePatient, RoleSpecialist)
	case in.Role == RoleSpecialist && strings.TrimSpace(in.Specialty) == "":
		return fmt.Errorf("%w: specialty is required for specialists", ErrValidation)
	}

	birth, err := time.Parse("2006-01-02", in.BirthDate)
	if err != nil {
		return fmt.Errorf("%w: birth date must be YYYY-MM-DD", ErrValidation)
	}
	if age(birth, s.now()) < minAge {
		return fmt.Errorf("%w: must be at least %d years old", ErrValidation, minAge)
	}
	return nil
}

func age(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.YearDay() < birth.YearDay() {
		years--
	}
	return years
}

func lettersOnly(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && r != ' ' {
			return false
		}
	}
	return true
}

func digitsOnly(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
