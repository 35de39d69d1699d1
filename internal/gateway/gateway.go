// Package gateway is the typed client for the external incident REST API.
// It owns the single piece of cross-cutting control flow in the portal:
// a 401 from any operation clears the persisted session and fires the
// injected expiry callback exactly once, no matter how many in-flight
// calls hit it concurrently.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/disaster-portal/internal/models"
	"github.com/example/disaster-portal/internal/observability"
	"github.com/example/disaster-portal/internal/session"
)

// DefaultNearbyRadiusKm is applied when Nearby is called with a
// non-positive radius.
const DefaultNearbyRadiusKm = 5.0

const maxErrorBody = 64 << 10

type Gateway struct {
	baseURL    string
	client     *http.Client
	session    *session.Store
	logger     *slog.Logger
	onExpired  func()
	expireOnce sync.Once
}

type Option func(*Gateway)

// WithHTTPClient overrides the underlying client, mainly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.client = c }
}

// WithOnSessionExpired installs the callback invoked (once) after a 401
// has cleared the session. The caller decides what "redirect to login"
// means for its surface.
func WithOnSessionExpired(fn func()) Option {
	return func(g *Gateway) { g.onExpired = fn }
}

func New(baseURL string, sess *session.Store, logger *slog.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL:   baseURL,
		client:    &http.Client{Timeout: 10 * time.Second},
		session:   sess,
		logger:    logger,
		onExpired: func() {},
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// listEnvelope and itemEnvelope mirror the backend's response wrappers.
type listEnvelope struct {
	Data    []models.Incident `json:"data"`
	Total   int               `json:"total"`
	Message string            `json:"message"`
}

type itemEnvelope struct {
	Data models.Incident `json:"data"`
}

type flagEnvelope struct {
	Data struct {
		Success bool `json:"success"`
	} `json:"data"`
}

// ListActive fetches all currently active incidents in server order.
func (g *Gateway) ListActive(ctx context.Context) ([]models.Incident, error) {
	var env listEnvelope
	if err := g.do(ctx, "list_active", http.MethodGet, "/incidents/active", nil, nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// ListByType fetches incidents of one disaster type.
func (g *Gateway) ListByType(ctx context.Context, t models.DisasterType) ([]models.Incident, error) {
	var env listEnvelope
	path := "/incidents/type/" + url.PathEscape(string(t))
	if err := g.do(ctx, "list_by_type", http.MethodGet, path, nil, nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (g *Gateway) GetByID(ctx context.Context, id int64) (models.Incident, error) {
	var env itemEnvelope
	if err := g.do(ctx, "get_by_id", http.MethodGet, "/incidents/"+strconv.FormatInt(id, 10), nil, nil, &env); err != nil {
		return models.Incident{}, err
	}
	return env.Data, nil
}

// Create submits a new incident report. It is deliberately not
// idempotent: repeating a Create files a duplicate report rather than
// silently deduplicating a disaster call.
func (g *Gateway) Create(ctx context.Context, req models.ReportRequest) (models.Incident, error) {
	var env itemEnvelope
	if err := g.do(ctx, "create", http.MethodPost, "/incidents", nil, req, &env); err != nil {
		return models.Incident{}, err
	}
	return env.Data, nil
}

func (g *Gateway) UpdateStatus(ctx context.Context, id int64, status string) (models.Incident, error) {
	var env itemEnvelope
	body := map[string]string{"status": status}
	path := "/incidents/" + strconv.FormatInt(id, 10) + "/status"
	if err := g.do(ctx, "update_status", http.MethodPatch, path, nil, body, &env); err != nil {
		return models.Incident{}, err
	}
	return env.Data, nil
}

func (g *Gateway) AssignVolunteers(ctx context.Context, id int64, volunteerIDs []int64) (bool, error) {
	var env flagEnvelope
	body := map[string][]int64{"volunteerIds": volunteerIDs}
	path := "/incidents/" + strconv.FormatInt(id, 10) + "/assign-volunteers"
	if err := g.do(ctx, "assign_volunteers", http.MethodPost, path, nil, body, &env); err != nil {
		return false, err
	}
	return env.Data.Success, nil
}

func (g *Gateway) SendAlert(ctx context.Context, id int64, message string, audience models.Audience) (bool, error) {
	var env flagEnvelope
	body := map[string]string{"message": message, "recipientType": string(audience)}
	path := "/incidents/" + strconv.FormatInt(id, 10) + "/send-alert"
	if err := g.do(ctx, "send_alert", http.MethodPost, path, nil, body, &env); err != nil {
		return false, err
	}
	return env.Data.Success, nil
}

// Search runs the backend's free-text incident search.
func (g *Gateway) Search(ctx context.Context, query string) ([]models.Incident, error) {
	var env listEnvelope
	q := url.Values{"q": {query}}
	if err := g.do(ctx, "search", http.MethodGet, "/incidents/search", q, nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// Nearby fetches incidents within radiusKm of coord; radiusKm <= 0 falls
// back to DefaultNearbyRadiusKm.
func (g *Gateway) Nearby(ctx context.Context, coord models.Coordinate, radiusKm float64) ([]models.Incident, error) {
	if radiusKm <= 0 {
		radiusKm = DefaultNearbyRadiusKm
	}
	var env listEnvelope
	q := url.Values{
		"latitude":  {strconv.FormatFloat(coord.Lat, 'f', 6, 64)},
		"longitude": {strconv.FormatFloat(coord.Lon, 'f', 6, 64)},
		"radius":    {strconv.FormatFloat(radiusKm, 'f', -1, 64)},
	}
	if err := g.do(ctx, "nearby", http.MethodGet, "/incidents/nearby", q, nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// Delete removes an incident. The visible set is not updated here; the
// caller re-fetches to observe the result.
func (g *Gateway) Delete(ctx context.Context, id int64) (bool, error) {
	var env flagEnvelope
	if err := g.do(ctx, "delete", http.MethodDelete, "/incidents/"+strconv.FormatInt(id, 10), nil, nil, &env); err != nil {
		return false, err
	}
	return env.Data.Success, nil
}

// do executes one request against the backend. No retries at this layer.
func (g *Gateway) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	start := time.Now()
	err := g.doOnce(ctx, op, method, path, query, body, out)
	observability.GatewayLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())

	status := "ok"
	if err != nil {
		status = "error"
		var ge *Error
		if errors.As(err, &ge) && ge.Status > 0 {
			status = strconv.Itoa(ge.Status)
		}
		g.logger.Warn("gateway call failed", "op", op, "error", err)
	}
	observability.GatewayRequests.WithLabelValues(op, status).Inc()
	return err
}

func (g *Gateway) doOnce(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	u := g.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Message: "encode request", Cause: err}
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return &Error{Op: op, Message: "build request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token := g.session.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return &Error{Op: op, Message: "No response from server. Please check your connection.", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		g.escalateExpiry()
		return &Error{Op: op, Status: resp.StatusCode, Message: "Session expired. Please log in again.", Cause: ErrSessionExpired}
	}

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &Error{Op: op, Status: resp.StatusCode, Message: normalizeMessage(resp.StatusCode, raw, nil)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Op: op, Status: resp.StatusCode, Message: "decode response", Cause: err}
	}
	return nil
}

// escalateExpiry clears the session and notifies exactly once per
// gateway lifetime, however many concurrent calls observe the 401.
func (g *Gateway) escalateExpiry() {
	g.expireOnce.Do(func() {
		observability.SessionExpiries.Inc()
		if err := g.session.Clear(); err != nil {
			g.logger.Error("clearing expired session", "error", err)
		}
		g.logger.Info("session expired, escalating to login")
		g.onExpired()
	})
}
