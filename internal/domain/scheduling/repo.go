package scheduling

// Repository is the persistence contract for appointments.
type Repository interface {
	Create(a Appointment) error
	GetByID(id string) (Appointment, bool, error)
	// ListByPatient matches the patient email case-insensitively.
	ListByPatient(email string) ([]Appointment, error)
	// ListBySpecialist matches the specialist display name exactly.
	ListBySpecialist(name string) ([]Appointment, error)
	// Update replaces the record with a matching id.
	Update(a Appointment) (bool, error)
	// HasConflict reports whether a non-cancelled appointment already
	// occupies the given slot. excludeID skips one appointment, so a
	// reschedule does not collide with itself.
	HasConflict(specialist, date, timeOfDay, excludeID string) (bool, error)
	// Mutate runs fn over the full collection inside a single locked
	// load-mutate-save cycle.
	Mutate(fn func(items []Appointment) ([]Appointment, bool, error)) error
}
