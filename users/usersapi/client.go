// Package usersapi manages employee and admin accounts through the API
package usersapi

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jrsteele09/go-attendance-admin/gateway"
	"github.com/jrsteele09/go-attendance-admin/users"
)

const (
	UsersPath  = "/api/v1/users"
	AdminsPath = "/api/v1/admins"
)

type ListResponse struct {
	Users      []users.Employee   `json:"users"`
	Total      int                `json:"total"`
	Limit      int                `json:"limit"`
	Offset     int                `json:"offset"`
	Pagination gateway.Pagination `json:"pagination"`
}

type AdminListResponse struct {
	Admins     []users.Employee   `json:"admins"`
	Total      int                `json:"total"`
	Pagination gateway.Pagination `json:"pagination"`
}

type EmployeeResponse struct {
	Message string         `json:"message,omitempty"`
	User    users.Employee `json:"user"`
}

type AdminResponse struct {
	Message string         `json:"message,omitempty"`
	Admin   users.Employee `json:"admin"`
}

// Client manages employees. Lists are paged with limit/offset.
type Client struct {
	gateway *gateway.Gateway
}

func NewClient(gw *gateway.Gateway) *Client {
	return &Client{gateway: gw}
}

func (c *Client) Create(ctx context.Context, req users.CreateEmployeeRequest) (*users.Employee, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	resp, err := gateway.Call[EmployeeResponse](ctx, c.gateway, gateway.Post(UsersPath, req))
	if err != nil {
		return nil, fmt.Errorf("[Client.Create] %w", err)
	}
	return &resp.User, nil
}

func (c *Client) List(ctx context.Context, page gateway.PageQuery) (*ListResponse, error) {
	resp, err := gateway.Call[ListResponse](ctx, c.gateway, gateway.Get(UsersPath, page.LimitOffset()))
	if err != nil {
		return nil, fmt.Errorf("[Client.List] %w", err)
	}
	return resp, nil
}

func (c *Client) Get(ctx context.Context, id string) (*users.Employee, error) {
	resp, err := gateway.Call[EmployeeResponse](ctx, c.gateway, gateway.Get(userPath(id), nil))
	if err != nil {
		return nil, fmt.Errorf("[Client.Get] %w", err)
	}
	return &resp.User, nil
}

func (c *Client) Update(ctx context.Context, id string, req users.UpdateEmployeeRequest) (*users.Employee, error) {
	if req.WorkingHours != nil {
		if err := req.WorkingHours.Validate(); err != nil {
			return nil, err
		}
	}
	resp, err := gateway.Call[EmployeeResponse](ctx, c.gateway, gateway.Put(userPath(id), req))
	if err != nil {
		return nil, fmt.Errorf("[Client.Update] %w", err)
	}
	return &resp.User, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	if _, err := c.gateway.Execute(ctx, gateway.Delete(userPath(id))); err != nil {
		return fmt.Errorf("[Client.Delete] %w", err)
	}
	return nil
}

// AdminClient manages admin accounts. Lists are paged with page/limit.
type AdminClient struct {
	gateway *gateway.Gateway
}

func NewAdminClient(gw *gateway.Gateway) *AdminClient {
	return &AdminClient{gateway: gw}
}

func (c *AdminClient) Create(ctx context.Context, req users.CreateAdminRequest) (*users.Employee, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	resp, err := gateway.Call[AdminResponse](ctx, c.gateway, gateway.Post(AdminsPath, req))
	if err != nil {
		return nil, fmt.Errorf("[AdminClient.Create] %w", err)
	}
	return &resp.Admin, nil
}

func (c *AdminClient) List(ctx context.Context, page gateway.PageQuery) (*AdminListResponse, error) {
	resp, err := gateway.Call[AdminListResponse](ctx, c.gateway, gateway.Get(AdminsPath, page.PageLimit()))
	if err != nil {
		return nil, fmt.Errorf("[AdminClient.List] %w", err)
	}
	return resp, nil
}

func (c *AdminClient) Get(ctx context.Context, id string) (*users.Employee, error) {
	resp, err := gateway.Call[AdminResponse](ctx, c.gateway, gateway.Get(adminPath(id), nil))
	if err != nil {
		return nil, fmt.Errorf("[AdminClient.Get] %w", err)
	}
	return &resp.Admin, nil
}

func (c *AdminClient) Update(ctx context.Context, id string, req users.UpdateEmployeeRequest) (*users.Employee, error) {
	resp, err := gateway.Call[AdminResponse](ctx, c.gateway, gateway.Put(adminPath(id), req))
	if err != nil {
		return nil, fmt.Errorf("[AdminClient.Update] %w", err)
	}
	return &resp.Admin, nil
}

func (c *AdminClient) Delete(ctx context.Context, id string) error {
	if _, err := c.gateway.Execute(ctx, gateway.Delete(adminPath(id))); err != nil {
		return fmt.Errorf("[AdminClient.Delete] %w", err)
	}
	return nil
}

func userPath(id string) string {
	return UsersPath + "/" + url.PathEscape(id)
}

func adminPath(id string) string {
	return AdminsPath + "/" + url.PathEscape(id)
}
