package server

import (
	fakeattendancerepo "github.com/jrsteele09/go-attendance-admin/attendance/repofake"
	faketaskrepo "github.com/jrsteele09/go-attendance-admin/tasks/repofake"
	refreshrepofake "github.com/jrsteele09/go-attendance-admin/token/refresh/repofake"
	fakeuserrepo "github.com/jrsteele09/go-attendance-admin/users/repofake"
)

// NewInMemoryRepos returns empty in-memory repositories. Nothing survives a restart.
func NewInMemoryRepos() Repos {
	return Repos{
		Users:         fakeuserrepo.NewFakeUserRepo(),
		RefreshTokens: refreshrepofake.NewFakeRefreshTokenRepo(),
		Tasks:         faketaskrepo.NewFakeTaskRepo(),
		Coordinates:   fakeattendancerepo.NewFakeCoordinateRepo(),
		Records:       fakeattendancerepo.NewFakeRecordRepo(),
	}
}
