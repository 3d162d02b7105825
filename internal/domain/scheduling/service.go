package scheduling

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/domain/notification"
)

var (
	// ErrNotFound is returned when no appointment matches the id.
	ErrNotFound = errors.New("appointment not found")
	// ErrForbidden is returned when a caller touches an appointment
	// booked by somebody else.
	ErrForbidden = errors.New("appointment belongs to another patient")
	// ErrSlotTaken is returned when the specialist already has a
	// non-cancelled appointment at the requested date and time.
	ErrSlotTaken = errors.New("slot already booked")
	// ErrCancelled is returned when changing an appointment that has
	// already been cancelled.
	ErrCancelled = errors.New("appointment is cancelled")
	// ErrInvalidInput wraps booking field errors.
	ErrInvalidInput = errors.New("invalid appointment input")
)

const noticeSender = "appointments@clinic.local"

// Notifier delivers in-app notices for booking events.
type Notifier interface {
	Notify(recipient, sender, subject, body string) (notification.Notification, error)
}

// SpecialistDirectory resolves specialist display names to emails.
type SpecialistDirectory interface {
	SpecialistEmailByName(fullName string) (string, bool, error)
}

// BookInput is the payload for creating an appointment.
type BookInput struct {
	PatientName  string `json:"patientName"`
	PatientPhone string `json:"patientPhone"`
	Specialist   string `json:"specialist"`
	SpecialistID string `json:"specialistID"`
	Specialty    string `json:"specialty"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	Reason       string `json:"reason"`
}

// Service owns appointment booking and lifecycle transitions.
type Service struct {
	repo      Repository
	notifier  Notifier
	directory SpecialistDirectory
	log       zerolog.Logger
	now       func() time.Time
}

// NewService creates a scheduling service. notifier and directory may
// be nil, in which case booking notices are skipped.
func NewService(repo Repository, notifier Notifier, directory SpecialistDirectory, log zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		notifier:  notifier,
		directory: directory,
		log:       log.With().Str("component", "scheduling").Logger(),
		now:       time.Now,
	}
}

// Book validates the slot, checks for a double booking, and stores a
// new scheduled appointment. Both the patient and the specialist get a
// confirmation notice.
func (s *Service) Book(callerEmail string, in BookInput) (Appointment, error) {
	if err := validateSlot(in.Specialist, in.Date, in.Time); err != nil {
		return Appointment{}, err
	}
	if strings.TrimSpace(in.PatientName) == "" {
		return Appointment{}, fmt.Errorf("%w: patient name is required", ErrInvalidInput)
	}

	taken, err := s.repo.HasConflict(in.Specialist, in.Date, in.Time, "")
	if err != nil {
		return Appointment{}, err
	}
	if taken {
		return Appointment{}, ErrSlotTaken
	}

	a := Appointment{
		ID:           uuid.NewString(),
		PatientName:  strings.TrimSpace(in.PatientName),
		PatientEmail: callerEmail,
		PatientPhone: strings.TrimSpace(in.PatientPhone),
		Specialist:   strings.TrimSpace(in.Specialist),
		SpecialistID: in.SpecialistID,
		Specialty:    strings.TrimSpace(in.Specialty),
		Date:         in.Date,
		Time:         in.Time,
		Reason:       strings.TrimSpace(in.Reason),
		Status:       StatusScheduled,
		CreatedAt:    s.now().Format(time.RFC3339),
	}
	if err := s.repo.Create(a); err != nil {
		return Appointment{}, fmt.Errorf("store appointment: %w", err)
	}

	s.log.Info().Str("appointment_id", a.ID).Str("specialist", a.Specialist).
		Str("date", a.Date).Str("time", a.Time).Msg("appointment booked")
	s.sendNotices(a, "Appointment confirmed",
		fmt.Sprintf("Appointment with %s on %s at %s has been booked.", a.Specialist, a.Date, a.Time))
	return a, nil
}

// Get returns one appointment, enforcing that the caller booked it.
func (s *Service) Get(id, callerEmail string) (Appointment, error) {
	a, ok, err := s.repo.GetByID(id)
	if err != nil {
		return Appointment{}, err
	}
	if !ok {
		return Appointment{}, ErrNotFound
	}
	if !strings.EqualFold(a.PatientEmail, callerEmail) {
		return Appointment{}, ErrForbidden
	}
	return a, nil
}

// ListForPatient returns the caller's appointments.
func (s *Service) ListForPatient(email string) ([]Appointment, error) {
	return s.repo.ListByPatient(email)
}

// ListForSpecialist returns the appointments booked with the given
// specialist.
func (s *Service) ListForSpecialist(name string) ([]Appointment, error) {
	return s.repo.ListBySpecialist(name)
}

// Reschedule moves an appointment to a new date and time, re-running
// the double-booking check against every other appointment.
func (s *Service) Reschedule(id, callerEmail, newDate, newTime string) (Appointment, error) {
	a, err := s.Get(id, callerEmail)
	if err != nil {
		return Appointment{}, err
	}
	if a.Status == StatusCancelled {
		return Appointment{}, ErrCancelled
	}
	if err := validateSlot(a.Specialist, newDate, newTime); err != nil {
		return Appointment{}, err
	}

	taken, err := s.repo.HasConflict(a.Specialist, newDate, newTime, a.ID)
	if err != nil {
		return Appointment{}, err
	}
	if taken {
		return Appointment{}, ErrSlotTaken
	}

	a.Date = newDate
	a.Time = newTime
	if _, err := s.repo.Update(a); err != nil {
		return Appointment{}, fmt.Errorf("store appointment: %w", err)
	}

	s.log.Info().Str("appointment_id", a.ID).Str("date", newDate).Str("time", newTime).
		Msg("appointment rescheduled")
	s.sendNotices(a, "Appointment modified",
		fmt.Sprintf("Appointment with %s has been moved to %s at %s.", a.Specialist, a.Date, a.Time))
	return a, nil
}

// Cancel marks an appointment as cancelled, freeing its slot.
func (s *Service) Cancel(id, callerEmail string) error {
	a, err := s.Get(id, callerEmail)
	if err != nil {
		return err
	}
	if a.Status == StatusCancelled {
		return ErrCancelled
	}

	a.Status = StatusCancelled
	if _, err := s.repo.Update(a); err != nil {
		return fmt.Errorf("store appointment: %w", err)
	}

	s.log.Info().Str("appointment_id", a.ID).Msg("appointment cancelled")
	s.sendNotices(a, "Appointment cancelled",
		fmt.Sprintf("Appointment with %s on %s at %s has been cancelled.", a.Specialist, a.Date, a.Time))
	return nil
}

// UpdatePastDueStatuses marks every scheduled appointment whose slot
// has passed as completed, in a single write. Returns how many were
// updated.
func (s *Service) UpdatePastDueStatuses() (int, error) {
	now := s.now()
	updated := 0

	err := s.repo.Mutate(func(items []Appointment) ([]Appointment, bool, error) {
		for i := range items {
			a := &items[i]
			if a.Status != StatusScheduled {
				continue
			}
			starts, err := a.StartsAt()
			if err != nil {
				s.log.Warn().Str("appointment_id", a.ID).
					Str("date", a.Date).Str("time", a.Time).
					Msg("skipping appointment with unparseable slot")
				continue
			}
			if starts.After(now) {
				continue
			}
			a.Status = StatusCompleted
			updated++
		}
		return items, updated > 0, nil
	})
	if err != nil {
		return 0, fmt.Errorf("past-due sweep: %w", err)
	}
	if updated > 0 {
		s.log.Info().Int("completed", updated).Msg("past-due appointments marked completed")
	}
	return updated, nil
}

// sendNotices delivers a notice to the patient and, when the specialist
// can be resolved, to the specialist. Delivery failures are logged and
// do not fail the booking operation.
func (s *Service) sendNotices(a Appointment, subject, body string) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Notify(a.PatientEmail, noticeSender, subject, body); err != nil {
		s.log.Error().Err(err).Str("appointment_id", a.ID).Msg("failed to notify patient")
	}
	if s.directory == nil {
		return
	}
	email, ok, err := s.directory.SpecialistEmailByName(a.Specialist)
	if err != nil {
		s.log.Error().Err(err).Str("specialist", a.Specialist).Msg("specialist lookup failed")
		return
	}
	if !ok {
		s.log.Warn().Str("specialist", a.Specialist).Msg("specialist has no account, notice skipped")
		return
	}
	specialistBody := fmt.Sprintf("%s (patient %s)", body, a.PatientName)
	if _, err := s.notifier.Notify(email, noticeSender, subject, specialistBody); err != nil {
		s.log.Error().Err(err).Str("appointment_id", a.ID).Msg("failed to notify specialist")
	}
}

func validateSlot(specialist, date, timeOfDay string) error {
	if strings.TrimSpace(specialist) == "" {
		return fmt.Errorf("%w: specialist is required", ErrInvalidInput)
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	if _, err := time.Parse(TimeLayout, timeOfDay); err != nil {
		return fmt.Errorf("%w: time must be HH:MM", ErrInvalidInput)
	}
	return nil
}
