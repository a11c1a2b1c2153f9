package server

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/jrsteele09/go-attendance-admin/gateway"
	apperrors "github.com/jrsteele09/go-attendance-admin/internal/errors"
	"github.com/jrsteele09/go-attendance-admin/users"
	"github.com/jrsteele09/go-attendance-admin/users/usersapi"
)

// accountKind selects which role a /users or /admins route works on
type accountKind struct {
	role  users.RoleType
	label string
}

var (
	employeeAccounts = accountKind{role: users.RoleEmployee, label: "Employee"}
	adminAccounts    = accountKind{role: users.RoleAdmin, label: "Admin"}
)

func (k accountKind) one(message string, account *users.Account) any {
	if k.role == users.RoleAdmin {
		return usersapi.AdminResponse{Message: message, Admin: account.Employee}
	}
	return usersapi.EmployeeResponse{Message: message, User: account.Employee}
}

// account loads the path's account and checks it has the route's role
func (s *Server) account(r *http.Request, kind accountKind) (*users.Account, error) {
	account, err := s.repos.Users.GetByID(r.PathValue("id"))
	if err != nil {
		return nil, err
	}
	if account.Role != kind.role {
		return nil, apperrors.ErrUserNotFound
	}
	return account, nil
}

func (s *Server) ListAccountsHandler(kind accountKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := page(r)
		accounts, total, err := s.repos.Users.List(kind.role, offset, limit)
		if err != nil {
			s.writeErr(w, r, err)
			return
		}
		employees := make([]users.Employee, 0, len(accounts))
		for _, a := range accounts {
			employees = append(employees, a.Employee)
		}

		pagination := gateway.NewPagination(total, limit, offset)
		if kind.role == users.RoleAdmin {
			writeJSON(w, http.StatusOK, usersapi.AdminListResponse{Admins: employees, Total: total, Pagination: pagination})
			return
		}
		writeJSON(w, http.StatusOK, usersapi.ListResponse{
			Users:      employees,
			Total:      total,
			Limit:      limit,
			Offset:     offset,
			Pagination: pagination,
		})
	}
}

func (s *Server) CreateEmployeeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req users.CreateEmployeeRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeErr(w, r, err)
			return
		}
		if err := req.Validate(); err != nil {
			s.writeErr(w, r, err)
			return
		}
		s.createAccount(w, r, employeeAccounts, users.Employee{
			Email:        strings.TrimSpace(req.Email),
			Name:         strings.TrimSpace(req.Name),
			Designation:  strings.TrimSpace(req.Designation),
			WorkingHours: req.WorkingHours,
		}, req.Password)
	}
}

func (s *Server) CreateAdminHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req users.CreateAdminRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeErr(w, r, err)
			return
		}
		if err := req.Validate(); err != nil {
			s.writeErr(w, r, err)
			return
		}
		s.createAccount(w, r, adminAccounts, users.Employee{
			Email:        strings.TrimSpace(req.Email),
			Name:         strings.TrimSpace(req.Name),
			Designation:  "Administrator",
			WorkingHours: DefaultWorkingHours,
		}, req.Password)
	}
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request, kind accountKind, employee users.Employee, password string) {
	hash, err := users.HashPassword(password)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	now := NowTimeFunc().UTC()
	employee.Role = kind.role
	employee.CreatedAt = now
	employee.UpdatedAt = now

	account := &users.Account{Employee: employee, PasswordHash: hash}
	if err := s.repos.Users.Upsert(account); err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, kind.one(kind.label+" created successfully", account))
}

func (s *Server) GetAccountHandler(kind accountKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, err := s.account(r, kind)
		if err != nil {
			s.writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, kind.one("", account))
	}
}

func (s *Server) UpdateAccountHandler(kind accountKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req users.UpdateEmployeeRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeErr(w, r, err)
			return
		}
		account, err := s.account(r, kind)
		if err != nil {
			s.writeErr(w, r, err)
			return
		}

		updated := *account
		if req.Email != "" {
			if _, err := mail.ParseAddress(req.Email); err != nil {
				s.writeErr(w, r, apperrors.Validationf("email %q is not a valid address", req.Email))
				return
			}
			updated.Email = req.Email
		}
		if name := strings.TrimSpace(req.Name); name != "" {
			updated.Name = name
		}
		if designation := strings.TrimSpace(req.Designation); designation != "" {
			updated.Designation = designation
		}
		if req.WorkingHours != nil {
			if err := req.WorkingHours.Validate(); err != nil {
				s.writeErr(w, r, err)
				return
			}
			updated.WorkingHours = *req.WorkingHours
		}
		updated.UpdatedAt = NowTimeFunc().UTC()

		if err := s.repos.Users.Upsert(&updated); err != nil {
			s.writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, kind.one(kind.label+" updated successfully", &updated))
	}
}

// DeleteAccountHandler removes the account and signs it out everywhere.
// An admin cannot delete their own account.
func (s *Server) DeleteAccountHandler(kind accountKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, err := s.account(r, kind)
		if err != nil {
			s.writeErr(w, r, err)
			return
		}
		if claims, ok := claimsFromContext(r.Context()); ok && claims.Subject == account.ID {
			s.writeErr(w, r, apperrors.Validationf("you cannot delete your own account"))
			return
		}
		if err := s.repos.Users.Delete(account.ID); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			s.writeErr(w, r, err)
			return
		}
		s.refresh.RevokeUser(account.ID)
		writeMessage(w, http.StatusOK, kind.label+" deleted successfully")
	}
}
