package server

import (
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/jrsteele09/go-attendance-admin/internal/errors"
	"github.com/jrsteele09/go-attendance-admin/users"
)

// DefaultWorkingHours is given to seeded and self registered accounts
var DefaultWorkingHours = users.WorkingHours{
	PunchIn:  users.TimeWindow{From: "09:00", To: "09:30"},
	PunchOut: users.TimeWindow{From: "17:00", To: "18:00"},
}

// InitialiseSystem makes sure the seed admin exists so the server can be
// signed in to straight away. An existing account is left untouched.
func (s *Server) InitialiseSystem() error {
	email := strings.TrimSpace(s.config.GetSeedAdminEmail())
	if email == "" {
		return nil
	}

	_, err := s.repos.Users.GetByEmail(email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) && !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("[Server InitialiseSystem] failed to look up seed admin: %w", err)
	}

	hash, err := users.HashPassword(s.config.GetSeedAdminPassword())
	if err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to hash password: %w", err)
	}
	now := NowTimeFunc().UTC()
	admin := &users.Account{
		Employee: users.Employee{
			Email:        email,
			Name:         "Administrator",
			Role:         users.RoleAdmin,
			Designation:  "Administrator",
			WorkingHours: DefaultWorkingHours,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		PasswordHash: hash,
	}
	if err := s.repos.Users.Upsert(admin); err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to create seed admin: %w", err)
	}

	s.logger.Info().Str("email", email).Msg("👤 Seed admin created")
	return nil
}
