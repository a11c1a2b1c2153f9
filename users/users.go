package users

import (
	"fmt"
	"net/mail"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode"

	apperrors "github.com/jrsteele09/go-attendance-admin/internal/errors"
	"golang.org/x/crypto/bcrypt"
)

// RoleType is the role the API assigns to an account
type RoleType string

const (
	RoleAdmin    RoleType = "admin"    // Manages employees, coordinates and tasks
	RoleEmployee RoleType = "employee" // Punches attendance and works tasks
)

// User is the profile of the signed-in account, as returned by the login
// endpoint and persisted alongside the session tokens.
type User struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Role        string   `json:"role,omitempty"`
	Avatar      string   `json:"avatar,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	UserType    string   `json:"userType,omitempty"`
}

// Merge returns a copy of u with every non-empty field of patch applied
func (u User) Merge(patch User) User {
	if patch.ID != "" {
		u.ID = patch.ID
	}
	if patch.Email != "" {
		u.Email = patch.Email
	}
	if patch.Name != "" {
		u.Name = patch.Name
	}
	if patch.Role != "" {
		u.Role = patch.Role
	}
	if patch.Avatar != "" {
		u.Avatar = patch.Avatar
	}
	if patch.Permissions != nil {
		u.Permissions = slices.Clone(patch.Permissions)
	}
	if patch.UserType != "" {
		u.UserType = patch.UserType
	}
	return u
}

// HasPermission reports whether the profile carries the named permission
func (u *User) HasPermission(permission string) bool {
	if u == nil {
		return false
	}
	return slices.Contains(u.Permissions, permission)
}

func (u *User) IsAdmin() bool {
	return u != nil && (RoleType(u.Role) == RoleAdmin || RoleType(u.UserType) == RoleAdmin)
}

// TimeWindow is an inclusive HH:MM range during which a punch is expected
type TimeWindow struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type WorkingHours struct {
	PunchIn  TimeWindow `json:"punchin"`
	PunchOut TimeWindow `json:"punchout"`
}

// Employee is a user record as managed through the users endpoints
type Employee struct {
	ID           string       `json:"_id"`
	Email        string       `json:"email"`
	Name         string       `json:"name,omitempty"`
	Role         RoleType     `json:"role,omitempty"`
	Designation  string       `json:"designation,omitempty"`
	WorkingHours WorkingHours `json:"workingHours"`
	CreatedAt    time.Time    `json:"createdAt,omitempty"`
	UpdatedAt    time.Time    `json:"updatedAt,omitempty"`
}

// Profile converts the record into the session profile shape
func (e Employee) Profile() User {
	name := e.Name
	if name == "" {
		name = strings.SplitN(e.Email, "@", 2)[0]
	}
	return User{
		ID:       e.ID,
		Email:    e.Email,
		Name:     name,
		Role:     string(e.Role),
		UserType: string(e.Role),
	}
}

// CreateEmployeeRequest is the body of POST /users
type CreateEmployeeRequest struct {
	Email        string       `json:"email"`
	Password     string       `json:"password"`
	Name         string       `json:"name,omitempty"`
	Designation  string       `json:"designation"`
	WorkingHours WorkingHours `json:"workingHours"`
}

// UpdateEmployeeRequest is the body of PUT /users/{id}; empty fields are left unchanged
type UpdateEmployeeRequest struct {
	Email        string        `json:"email,omitempty"`
	Name         string        `json:"name,omitempty"`
	Designation  string        `json:"designation,omitempty"`
	WorkingHours *WorkingHours `json:"workingHours,omitempty"`
}

// CreateAdminRequest is the body of POST /admins
type CreateAdminRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (r CreateAdminRequest) Validate() error {
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return apperrors.Validationf("email %q is not a valid address", r.Email)
	}
	if strings.TrimSpace(r.Name) == "" {
		return apperrors.Validationf("name is required")
	}
	if err := ValidatePasswordStrength(r.Password); err != nil {
		return apperrors.Validationf("%s", err)
	}
	return nil
}

var clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// Validate checks the fields the add employee form marks as required
func (r CreateEmployeeRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return apperrors.Validationf("email is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return apperrors.Validationf("email %q is not a valid address", r.Email)
	}
	if r.Password == "" {
		return apperrors.Validationf("password is required")
	}
	if strings.TrimSpace(r.Designation) == "" {
		return apperrors.Validationf("designation is required")
	}
	return r.WorkingHours.Validate()
}

// Validate checks every window is a well formed HH:MM range
func (w WorkingHours) Validate() error {
	windows := map[string]TimeWindow{"punchin": w.PunchIn, "punchout": w.PunchOut}
	for _, name := range []string{"punchin", "punchout"} {
		window := windows[name]
		if !clockPattern.MatchString(window.From) || !clockPattern.MatchString(window.To) {
			return apperrors.Validationf("%s window must be HH:MM-HH:MM, got %q-%q", name, window.From, window.To)
		}
		if window.From > window.To {
			return apperrors.Validationf("%s window starts after it ends", name)
		}
	}
	return nil
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
