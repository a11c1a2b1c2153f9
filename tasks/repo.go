package tasks

// Filter narrows a task listing. Empty fields match everything.
type Filter struct {
	FromUserID string
	ToUserID   string
}

func (f Filter) Matches(t *Task) bool {
	if f.FromUserID != "" && t.FromUserID != f.FromUserID {
		return false
	}
	if f.ToUserID != "" && t.ToUserID != f.ToUserID {
		return false
	}
	return true
}

// Repo stores tasks for the development API server
type Repo interface {
	Upsert(task *Task) error
	Delete(id string) error
	Get(id string) (*Task, error)
	List(filter Filter, offset, limit int) ([]*Task, int, error)
}
