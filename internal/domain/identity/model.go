package identity

// Roles a user account can hold. Specialists additionally carry a
// specialty; there is no separate specialist record type.
const (
	RolePatient    = "patient"
	RoleSpecialist = "specialist"
)

// User is a registered account, patient or specialist.
type User struct {
	Cedula       string `json:"cedula"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	BirthDate    string `json:"birthDate"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	PasswordHash string `json:"passwordHash"`
	Role         string `json:"role"`
	Specialty    string `json:"specialty,omitempty"`
	CreatedAt    string `json:"createdAt"`
}

// FullName returns the user's display name.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Profile is the public view of a user, with credentials stripped.
type Profile struct {
	Cedula    string `json:"cedula"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	BirthDate string `json:"birthDate"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
	Specialty string `json:"specialty,omitempty"`
}

// ToProfile converts a stored user into its public view.
func (u User) ToProfile() Profile {
	return Profile{
		Cedula:    u.Cedula,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		BirthDate: u.BirthDate,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
		Specialty: u.Specialty,
	}
}
