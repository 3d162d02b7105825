package identity

// Repository is the persistence contract for user accounts. Emails are
// compared case-insensitively everywhere; cedulas are exact matches.
type Repository interface {
	Create(u User) error
	GetByEmail(email string) (User, bool, error)
	GetByCedula(cedula string) (User, bool, error)
	// Update replaces the record matching u's cedula.
	Update(u User) (bool, error)
	DeleteByEmail(email string) (bool, error)
	ListByRole(role string) ([]User, error)
}
