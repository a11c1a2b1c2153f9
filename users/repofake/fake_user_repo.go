package fakeuserrepo

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-attendance-admin/internal/errors"
	"github.com/jrsteele09/go-attendance-admin/internal/utils"
	"github.com/jrsteele09/go-attendance-admin/users"
)

var _ users.Repo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	accounts map[string]*users.Account
	emailIds map[string]string // email to account id
	lock     sync.RWMutex
}

func NewFakeUserRepo() users.Repo {
	return &FakeUserRepo{
		accounts: make(map[string]*users.Account),
		emailIds: make(map[string]string),
	}
}

func (ur *FakeUserRepo) Upsert(account *users.Account) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	email := strings.ToLower(account.Email)
	if existingID, ok := ur.emailIds[email]; ok && existingID != account.ID {
		return fmt.Errorf("%w: email %s is already registered", apperrors.ErrAlreadyExists, account.Email)
	}
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	if previous, ok := ur.accounts[account.ID]; ok && !strings.EqualFold(previous.Email, email) {
		delete(ur.emailIds, strings.ToLower(previous.Email))
	}
	ur.accounts[account.ID] = account
	ur.emailIds[email] = account.ID
	return nil
}

func (ur *FakeUserRepo) Delete(id string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	account, ok := ur.accounts[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	delete(ur.emailIds, strings.ToLower(account.Email))
	delete(ur.accounts, id)
	return nil
}

func (ur *FakeUserRepo) GetByEmail(email string) (*users.Account, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emailIds[strings.ToLower(email)]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return ur.accounts[id], nil
}

func (ur *FakeUserRepo) GetByID(id string) (*users.Account, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	account, ok := ur.accounts[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return account, nil
}

func (ur *FakeUserRepo) List(role users.RoleType, offset, limit int) ([]*users.Account, int, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	accountList := make([]*users.Account, 0, len(ur.accounts))
	for _, v := range ur.accounts {
		if role != "" && v.Role != role {
			continue
		}
		accountList = append(accountList, v)
	}

	sort.Slice(accountList, func(i, j int) bool {
		if accountList[i].CreatedAt.Equal(accountList[j].CreatedAt) {
			return accountList[i].ID < accountList[j].ID
		}
		return accountList[i].CreatedAt.Before(accountList[j].CreatedAt)
	})

	return utils.Paginate(accountList, offset, limit), len(accountList), nil
}
