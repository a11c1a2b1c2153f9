package users

// Account is the server-side view of an employee, including the password
// hash. Only the development API server stores accounts.
type Account struct {
	Employee
	PasswordHash string   `json:"-"`
	Avatar       string   `json:"avatar,omitempty"`
	Permissions  []string `json:"permissions,omitempty"`
}

// SessionProfile is the profile returned on login, including the fields
// only the account carries
func (a *Account) SessionProfile() User {
	profile := a.Profile()
	profile.Avatar = a.Avatar
	profile.Permissions = a.Permissions
	return profile
}

type Repo interface {
	Upsert(account *Account) error
	Delete(id string) error
	GetByEmail(email string) (*Account, error)
	GetByID(id string) (*Account, error)
	List(role RoleType, offset, limit int) ([]*Account, int, error)
}
