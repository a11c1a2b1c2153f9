package faketaskrepo

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-attendance-admin/internal/errors"
	"github.com/jrsteele09/go-attendance-admin/internal/utils"
	"github.com/jrsteele09/go-attendance-admin/tasks"
)

var _ tasks.Repo = (*FakeTaskRepo)(nil)

type FakeTaskRepo struct {
	tasks map[string]*tasks.Task
	lock  sync.RWMutex
}

func NewFakeTaskRepo() tasks.Repo {
	return &FakeTaskRepo{
		tasks: make(map[string]*tasks.Task),
	}
}

func (tr *FakeTaskRepo) Upsert(task *tasks.Task) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	tr.tasks[task.ID] = task
	return nil
}

func (tr *FakeTaskRepo) Delete(id string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	if _, ok := tr.tasks[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(tr.tasks, id)
	return nil
}

func (tr *FakeTaskRepo) Get(id string) (*tasks.Task, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	task, ok := tr.tasks[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return task, nil
}

// List returns matching tasks newest first
func (tr *FakeTaskRepo) List(filter tasks.Filter, offset, limit int) ([]*tasks.Task, int, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	taskList := make([]*tasks.Task, 0, len(tr.tasks))
	for _, t := range tr.tasks {
		if filter.Matches(t) {
			taskList = append(taskList, t)
		}
	}

	sort.Slice(taskList, func(i, j int) bool {
		if taskList[i].CreatedAt.Equal(taskList[j].CreatedAt) {
			return taskList[i].ID < taskList[j].ID
		}
		return taskList[i].CreatedAt.After(taskList[j].CreatedAt)
	})

	return utils.Paginate(taskList, offset, limit), len(taskList), nil
}
