package attendance

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/jrsteele09/go-attendance-admin/gateway"
	apperrors "github.com/jrsteele09/go-attendance-admin/internal/errors"
)

const (
	AttendancesPath = "/api/v1/attendances"
	PunchPath       = AttendancesPath + "/punch"
	StatsPath       = AttendancesPath + "/stats"
	CoordinatesPath = "/api/v1/attendance-coordinates"

	dateLayout = "2006-01-02"
)

type Query struct {
	Page      int
	Limit     int
	StartDate time.Time
	EndDate   time.Time
	Status    RecordStatus
	UserID    string
}

func (q Query) values() url.Values {
	v := gateway.PageQuery{Page: q.Page, Limit: q.Limit}.LimitOffset()
	addDateRange(v, q.StartDate, q.EndDate)
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if q.UserID != "" {
		v.Set("userId", q.UserID)
	}
	return v
}

type StatsQuery struct {
	StartDate time.Time
	EndDate   time.Time
	UserID    string
}

func (q StatsQuery) values() url.Values {
	v := url.Values{}
	addDateRange(v, q.StartDate, q.EndDate)
	if q.UserID != "" {
		v.Set("userId", q.UserID)
	}
	return v
}

func addDateRange(v url.Values, start, end time.Time) {
	if !start.IsZero() {
		v.Set("startDate", start.Format(dateLayout))
	}
	if !end.IsZero() {
		v.Set("endDate", end.Format(dateLayout))
	}
}

type ListResponse struct {
	Attendances []Record           `json:"attendances"`
	Total       int                `json:"total"`
	Limit       int                `json:"limit"`
	Offset      int                `json:"offset"`
	Pagination  gateway.Pagination `json:"pagination"`
}

type RecordResponse struct {
	Message    string `json:"message,omitempty"`
	Attendance Record `json:"attendance"`
}

type StatsResponse struct {
	Stats Stats `json:"stats"`
}

type CoordinateListResponse struct {
	Coordinates []Coordinate       `json:"attendanceCoordinates"`
	Total       int                `json:"total"`
	Limit       int                `json:"limit"`
	Offset      int                `json:"offset"`
	Pagination  gateway.Pagination `json:"pagination"`
}

type CoordinateResponse struct {
	Message    string     `json:"message,omitempty"`
	Coordinate Coordinate `json:"coordinate"`
}

type Client struct {
	gateway *gateway.Gateway
}

func NewClient(gw *gateway.Gateway) (*Client, error) {
	if gw == nil {
		return nil, errors.New("[attendance.NewClient] gateway is required")
	}
	return &Client{gateway: gw}, nil
}

// Punch records a punch-in or punch-out. When coord is given the user's
// location is checked against it first and a punch outside the fence
// fails with ErrOutsideGeofence without calling the API.
func (c *Client) Punch(ctx context.Context, coord *Coordinate, req PunchRequest) (*Record, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if coord != nil {
		if coord.ID != req.AttendanceCoordinateID {
			return nil, apperrors.Validationf("punch is for coordinate %q but fence %q was given", req.AttendanceCoordinateID, coord.ID)
		}
		if d := coord.DistanceTo(req.UserLocation); d > coord.Radius {
			return nil, fmt.Errorf("[Client.Punch] %.0fm from %q, radius %.0fm: %w", d, coord.Desc, coord.Radius, ErrOutsideGeofence)
		}
	}
	resp, err := gateway.Call[RecordResponse](ctx, c.gateway, gateway.Post(PunchPath, req))
	if err != nil {
		return nil, fmt.Errorf("[Client.Punch] %w", err)
	}
	return &resp.Attendance, nil
}

func (c *Client) List(ctx context.Context, q Query) (*ListResponse, error) {
	resp, err := gateway.Call[ListResponse](ctx, c.gateway, gateway.Get(AttendancesPath, q.values()))
	if err != nil {
		return nil, fmt.Errorf("[Client.List] %w", err)
	}
	return resp, nil
}

func (c *Client) Get(ctx context.Context, id string) (*Record, error) {
	resp, err := gateway.Call[RecordResponse](ctx, c.gateway, gateway.Get(recordPath(id), nil))
	if err != nil {
		return nil, fmt.Errorf("[Client.Get] %w", err)
	}
	return &resp.Attendance, nil
}

func (c *Client) Stats(ctx context.Context, q StatsQuery) (*Stats, error) {
	resp, err := gateway.Call[StatsResponse](ctx, c.gateway, gateway.Get(StatsPath, q.values()))
	if err != nil {
		return nil, fmt.Errorf("[Client.Stats] %w", err)
	}
	return &resp.Stats, nil
}

func (c *Client) Create(ctx context.Context, req RecordRequest) (*Record, error) {
	if err := req.Validate(true); err != nil {
		return nil, err
	}
	resp, err := gateway.Call[RecordResponse](ctx, c.gateway, gateway.Post(AttendancesPath, req))
	if err != nil {
		return nil, fmt.Errorf("[Client.Create] %w", err)
	}
	return &resp.Attendance, nil
}

func (c *Client) Update(ctx context.Context, id string, req RecordRequest) (*Record, error) {
	if err := req.Validate(false); err != nil {
		return nil, err
	}
	resp, err := gateway.Call[RecordResponse](ctx, c.gateway, gateway.Put(recordPath(id), req))
	if err != nil {
		return nil, fmt.Errorf("[Client.Update] %w", err)
	}
	return &resp.Attendance, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	if _, err := c.gateway.Execute(ctx, gateway.Delete(recordPath(id))); err != nil {
		return fmt.Errorf("[Client.Delete] %w", err)
	}
	return nil
}

func (c *Client) ListCoordinates(ctx context.Context, page gateway.PageQuery) (*CoordinateListResponse, error) {
	resp, err := gateway.Call[CoordinateListResponse](ctx, c.gateway, gateway.Get(CoordinatesPath, page.LimitOffset()))
	if err != nil {
		return nil, fmt.Errorf("[Client.ListCoordinates] %w", err)
	}
	return resp, nil
}

func (c *Client) GetCoordinate(ctx context.Context, id string) (*Coordinate, error) {
	resp, err := gateway.Call[CoordinateResponse](ctx, c.gateway, gateway.Get(coordinatePath(id), nil))
	if err != nil {
		return nil, fmt.Errorf("[Client.GetCoordinate] %w", err)
	}
	return &resp.Coordinate, nil
}

func (c *Client) CreateCoordinate(ctx context.Context, req CoordinateRequest) (*Coordinate, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	resp, err := gateway.Call[CoordinateResponse](ctx, c.gateway, gateway.Post(CoordinatesPath, req))
	if err != nil {
		return nil, fmt.Errorf("[Client.CreateCoordinate] %w", err)
	}
	return &resp.Coordinate, nil
}

func (c *Client) UpdateCoordinate(ctx context.Context, id string, req CoordinateUpdate) (*Coordinate, error) {
	// supplied fields are checked against a placeholder that is otherwise valid
	if _, err := req.Apply(Coordinate{Desc: "-", Radius: MinRadiusMeters}); err != nil {
		return nil, err
	}
	resp, err := gateway.Call[CoordinateResponse](ctx, c.gateway, gateway.Put(coordinatePath(id), req))
	if err != nil {
		return nil, fmt.Errorf("[Client.UpdateCoordinate] %w", err)
	}
	return &resp.Coordinate, nil
}

func (c *Client) DeleteCoordinate(ctx context.Context, id string) error {
	if _, err := c.gateway.Execute(ctx, gateway.Delete(coordinatePath(id))); err != nil {
		return fmt.Errorf("[Client.DeleteCoordinate] %w", err)
	}
	return nil
}

func recordPath(id string) string {
	return AttendancesPath + "/" + url.PathEscape(id)
}

func coordinatePath(id string) string {
	return CoordinatesPath + "/" + url.PathEscape(id)
}
