package tasks

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/jrsteele09/go-attendance-admin/gateway"
	apperrors "github.com/jrsteele09/go-attendance-admin/internal/errors"
)

const TasksPath = "/api/v1/tasks"

// NowTimeFunc is the clock used to validate due dates
var NowTimeFunc = time.Now

type ListQuery struct {
	Page       int
	Limit      int
	FromUserID string
	ToUserID   string
}

func (q ListQuery) values() url.Values {
	v := gateway.PageQuery{Page: q.Page, Limit: q.Limit}.LimitOffset()
	if q.FromUserID != "" {
		v.Set("fromUserId", q.FromUserID)
	}
	if q.ToUserID != "" {
		v.Set("toUserId", q.ToUserID)
	}
	return v
}

type ListResponse struct {
	Tasks      []Task             `json:"tasks"`
	Total      int                `json:"total"`
	Limit      int                `json:"limit"`
	Offset     int                `json:"offset"`
	Pagination gateway.Pagination `json:"pagination"`
}

type TaskResponse struct {
	Message string `json:"message,omitempty"`
	Task    Task   `json:"task"`
}

type statusRequest struct {
	Status Status `json:"status"`
}

type Client struct {
	gateway *gateway.Gateway
	nowTime func() time.Time
}

type ClientOption func(c *Client)

func WithNowTime(nowTime func() time.Time) ClientOption {
	return func(c *Client) {
		c.nowTime = nowTime
	}
}

func NewClient(gw *gateway.Gateway, opts ...ClientOption) (*Client, error) {
	if gw == nil {
		return nil, errors.New("[tasks.NewClient] gateway is required")
	}
	c := &Client{gateway: gw, nowTime: NowTimeFunc}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Create(ctx context.Context, req CreateRequest) (*Task, error) {
	if err := req.Validate(c.nowTime()); err != nil {
		return nil, err
	}
	resp, err := gateway.Call[TaskResponse](ctx, c.gateway, gateway.Post(TasksPath, req))
	if err != nil {
		return nil, fmt.Errorf("[Client.Create] %w", err)
	}
	return &resp.Task, nil
}

func (c *Client) List(ctx context.Context, q ListQuery) (*ListResponse, error) {
	resp, err := gateway.Call[ListResponse](ctx, c.gateway, gateway.Get(TasksPath, q.values()))
	if err != nil {
		return nil, fmt.Errorf("[Client.List] %w", err)
	}
	return resp, nil
}

func (c *Client) Get(ctx context.Context, id string) (*Task, error) {
	resp, err := gateway.Call[TaskResponse](ctx, c.gateway, gateway.Get(taskPath(id), nil))
	if err != nil {
		return nil, fmt.Errorf("[Client.Get] %w", err)
	}
	return &resp.Task, nil
}

func (c *Client) Update(ctx context.Context, id string, req UpdateRequest) (*Task, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	resp, err := gateway.Call[TaskResponse](ctx, c.gateway, gateway.Put(taskPath(id), req))
	if err != nil {
		return nil, fmt.Errorf("[Client.Update] %w", err)
	}
	return &resp.Task, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	if _, err := c.gateway.Execute(ctx, gateway.Delete(taskPath(id))); err != nil {
		return fmt.Errorf("[Client.Delete] %w", err)
	}
	return nil
}

// UpdateStatus sets the status through the dedicated endpoint, which appends
// the tracking entry server side.
func (c *Client) UpdateStatus(ctx context.Context, id string, status Status) (*Task, error) {
	if !status.Valid() {
		return nil, apperrors.Validationf("unknown task status %q", status)
	}
	resp, err := gateway.Call[TaskResponse](ctx, c.gateway, gateway.Put(taskPath(id)+"/status", statusRequest{Status: status}))
	if err != nil {
		return nil, fmt.Errorf("[Client.UpdateStatus] %w", err)
	}
	return &resp.Task, nil
}

func taskPath(id string) string {
	return TasksPath + "/" + url.PathEscape(id)
}
