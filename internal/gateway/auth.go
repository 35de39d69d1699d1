package gateway

import (
	"context"
	"net/http"
	"strings"

	"github.com/example/disaster-portal/internal/models"
)

// Credentials is the citizen login payload. The backend accepts either a
// username or a phone number in the same field.
type Credentials struct {
	UsernameOrPhone string `json:"username_or_phone"`
	Password        string `json:"password"`
}

// Registration is the citizen sign-up payload.
type Registration struct {
	Username           string  `json:"username"`
	Email              string  `json:"email"`
	Password           string  `json:"password"`
	FirstName          string  `json:"first_name"`
	LastName           string  `json:"last_name"`
	PhoneNumber        string  `json:"phone_number"`
	AadharNumber       string  `json:"aadhar_number"`
	Address            string  `json:"address"`
	Latitude           float64 `json:"latitude,omitempty"`
	Longitude          float64 `json:"longitude,omitempty"`
	LocationPermission bool    `json:"location_permission"`
}

type loginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID          int64  `json:"id"`
		Username    string `json:"username"`
		Email       string `json:"email"`
		FirstName   string `json:"first_name"`
		LastName    string `json:"last_name"`
		PhoneNumber string `json:"phone_number"`
	} `json:"user"`
}

// Login authenticates a citizen and persists the tokens plus the
// reporter snapshot to the session store. The snapshot is what the SOS
// flow later attaches to reports.
func (g *Gateway) Login(ctx context.Context, creds Credentials) (models.Citizen, error) {
	var resp loginResponse
	if err := g.do(ctx, "login", http.MethodPost, "/citizen/citizens/login/", nil, creds, &resp); err != nil {
		return models.Citizen{}, err
	}

	citizen := models.Citizen{
		ID:    resp.User.ID,
		Name:  strings.TrimSpace(resp.User.FirstName + " " + resp.User.LastName),
		Phone: resp.User.PhoneNumber,
		Email: resp.User.Email,
	}
	if err := g.session.SetTokens(resp.AccessToken, resp.RefreshToken); err != nil {
		return models.Citizen{}, &Error{Op: "login", Message: "persist session", Cause: err}
	}
	if err := g.session.SetCitizen(citizen); err != nil {
		return models.Citizen{}, &Error{Op: "login", Message: "persist session", Cause: err}
	}
	g.logger.Info("citizen logged in", "citizen_id", citizen.ID)
	return citizen, nil
}

// Register creates a citizen account. It does not log the citizen in;
// callers follow up with Login.
func (g *Gateway) Register(ctx context.Context, reg Registration) error {
	return g.do(ctx, "register", http.MethodPost, "/citizen/citizens/", nil, reg, nil)
}

// Logout clears the persisted session. Purely local; the backend keeps
// no server-side session to invalidate.
func (g *Gateway) Logout() error {
	g.logger.Info("citizen logged out")
	return g.session.Clear()
}
