package oauth2

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Zendesk Sell (formerly Base) endpoints
const (
	DefaultAuthURL  = "https://api.getbase.com/oauth2/authorize"
	DefaultTokenURL = "https://api.getbase.com/oauth2/token"
)

// TokenResponse is the subset of the token endpoint response handed back to callers.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Error in the shape of RFC 6749 section 5.2.
type Error struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// ExchangeError is returned when the authorization code could not be exchanged.
// StatusCode and Body are only set if the token endpoint answered.
type ExchangeError struct {
	StatusCode int
	Body       []byte
	Err        error
}

func (e *ExchangeError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("token endpoint responded with %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("token request failed: %v", e.Err)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// Details returns what the provider said about the failure: the response body
// as raw JSON if it is JSON, the body as a string otherwise, and the error
// message if there was no response at all.
func (e *ExchangeError) Details() any {
	if len(e.Body) == 0 {
		if e.Err != nil {
			return e.Err.Error()
		}
		return http.StatusText(e.StatusCode)
	}
	if json.Valid(e.Body) {
		return json.RawMessage(e.Body)
	}
	return string(e.Body)
}

// ErrorDetails extracts the provider details from any error returned by Exchange.
func ErrorDetails(err error) any {
	var exchangeErr *ExchangeError
	if errors.As(err, &exchangeErr) {
		return exchangeErr.Details()
	}
	return err.Error()
}
