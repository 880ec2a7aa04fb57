package webclient

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gematik/sell-oauth/pkg/oauth2"
	"github.com/gematik/sell-oauth/pkg/sessionstore"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

var (
	//go:embed *.html
	templatesFS embed.FS
)

const (
	sessionName     = "sell-oauth-session"
	accessTokenKey  = "access_token"
	refreshTokenKey = "refresh_token"
)

const (
	msgCodeMissing    = "Authorization code not received."
	msgExchangeFailed = "Failed to get access token"
	msgNoTokens       = "No tokens found in session"
)

// TokenExchanger is the part of the OAuth2 client the handlers need.
type TokenExchanger interface {
	AuthCodeURL() string
	Exchange(ctx context.Context, code string) (*oauth2.TokenResponse, error)
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// SessionTokens is what /tokens returns.
type SessionTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Option func(*Client) error

// WithSessionStore sets the store backing the browser sessions.
func WithSessionStore(store sessions.Store) Option {
	return func(cl *Client) error {
		cl.sessionStore = store
		return nil
	}
}

// WithTokenLogging controls whether token values are logged in clear.
// When disabled, only a short prefix of each token is logged.
func WithTokenLogging(enabled bool) Option {
	return func(cl *Client) error {
		cl.logTokens = enabled
		return nil
	}
}

type Client struct {
	oauth2Client  TokenExchanger
	sessionStore  sessions.Store
	logTokens     bool
	templateIndex *template.Template
}

func New(oauth2Client TokenExchanger, opts ...Option) (*Client, error) {
	cl := &Client{
		oauth2Client:  oauth2Client,
		logTokens:     true,
		templateIndex: template.Must(template.ParseFS(templatesFS, "index.html")),
	}

	for _, opt := range opts {
		if err := opt(cl); err != nil {
			return nil, err
		}
	}

	if cl.sessionStore == nil {
		slog.Warn("No session store configured, using in-memory sessions with a random key")
		store, err := sessionstore.NewServerStore(
			sessionstore.NewMemoryStore(),
			sessionstore.GenerateRandomKey(256),
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("create session store: %w", err)
		}
		cl.sessionStore = store
	}

	return cl, nil
}

func (cl *Client) MountRoutes(g *echo.Group) {
	g.Use(
		session.Middleware(cl.sessionStore),
		ensureSession,
	)
	g.GET("/", cl.index)
	g.GET("/login", cl.login)
	g.GET("/callback", cl.callback)
	g.GET("/tokens", cl.tokens)
}

// ensureSession creates the browser session on the first request.
func ensureSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		httpSession, err := session.Get(sessionName, c)
		if err != nil {
			return serverError(c, "failed to get session", err)
		}
		if httpSession.IsNew {
			if err := httpSession.Save(c.Request(), c.Response()); err != nil {
				return serverError(c, "failed to save session", err)
			}
		}
		return next(c)
	}
}

func serverError(c echo.Context, description string, err error) error {
	slog.Error(description, "error", err, "path", c.Path())
	return c.JSON(http.StatusInternalServerError, &oauth2.Error{
		Code:        "server_error",
		Description: description,
	})
}

func (cl *Client) index(c echo.Context) error {
	var buf bytes.Buffer
	err := cl.templateIndex.Execute(&buf, map[string]interface{}{
		"LoginPath": "/login",
	})
	if err != nil {
		return fmt.Errorf("render index: %w", err)
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

func (cl *Client) login(c echo.Context) error {
	authURL := cl.oauth2Client.AuthCodeURL()
	slog.Info("Redirecting to provider", "auth_url", authURL)
	return c.Redirect(http.StatusFound, authURL)
}

func (cl *Client) callback(c echo.Context) error {
	code := c.QueryParam("code")
	if code == "" {
		slog.Warn("Callback without authorization code", "query", c.QueryString())
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgCodeMissing})
	}

	tokenResponse, err := cl.oauth2Client.Exchange(c.Request().Context(), code)
	if err != nil {
		errorResponse := ErrorResponse{
			Error:   msgExchangeFailed,
			Details: oauth2.ErrorDetails(err),
		}
		slog.Error("OAuth error", "error", errorResponse.Error, "details", fmt.Sprintf("%s", errorResponse.Details))
		return c.JSON(http.StatusBadRequest, errorResponse)
	}

	httpSession, err := session.Get(sessionName, c)
	if err != nil {
		return serverError(c, "failed to get session", err)
	}

	// both tokens go into the same save
	httpSession.Values[accessTokenKey] = tokenResponse.AccessToken
	httpSession.Values[refreshTokenKey] = tokenResponse.RefreshToken
	if err := httpSession.Save(c.Request(), c.Response()); err != nil {
		return serverError(c, "failed to save session", err)
	}

	slog.Info("OAuth tokens", "token_response", cl.loggable(tokenResponse))

	return c.JSON(http.StatusOK, tokenResponse)
}

func (cl *Client) tokens(c echo.Context) error {
	httpSession, err := session.Get(sessionName, c)
	if err != nil {
		return serverError(c, "failed to get session", err)
	}

	accessToken, _ := httpSession.Values[accessTokenKey].(string)
	refreshToken, _ := httpSession.Values[refreshTokenKey].(string)
	if accessToken == "" || refreshToken == "" {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: msgNoTokens})
	}

	return c.JSON(http.StatusOK, SessionTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

func (cl *Client) loggable(tokenResponse *oauth2.TokenResponse) oauth2.TokenResponse {
	logged := *tokenResponse
	if !cl.logTokens {
		logged.AccessToken = mask(logged.AccessToken)
		logged.RefreshToken = mask(logged.RefreshToken)
	}
	return logged
}

func mask(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "****"
}
