package scheduling

import (
	"fmt"
	"time"
)

// Appointment statuses.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Date and time formats used on the wire and in storage.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Appointment is a booked visit with a specialist. The specialist is
// referenced by display name plus cedula; the patient by email.
type Appointment struct {
	ID           string `json:"id"`
	PatientName  string `json:"patientName"`
	PatientEmail string `json:"patientEmail"`
	PatientPhone string `json:"patientPhone"`
	Specialist   string `json:"specialist"`
	SpecialistID string `json:"specialistID"`
	Specialty    string `json:"specialty"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	Reason       string `json:"reason"`
	Status       string `json:"status"`
	CreatedAt    string `json:"createdAt"`
}

// StartsAt combines the appointment's date and time into a single
// moment. The stored strings are zone-less local wall-clock values, so
// they are parsed in the local zone to compare correctly against
// time.Now.
func (a Appointment) StartsAt() (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, a.Date+" "+a.Time, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("appointment %s has invalid date/time: %w", a.ID, err)
	}
	return t, nil
}

// SameSlot reports whether the other appointment occupies the same
// specialist, date, and time.
func (a Appointment) SameSlot(specialist, date, timeOfDay string) bool {
	return a.Specialist == specialist && a.Date == date && a.Time == timeOfDay
}
