package webclient

import (
	"testing"

	"github.com/gematik/sell-oauth/pkg/oauth2"
)

func TestLoggableMasksTokens(t *testing.T) {
	tokenResponse := &oauth2.TokenResponse{
		AccessToken:  "0123456789abcdef",
		RefreshToken: "R",
		TokenType:    "bearer",
		ExpiresIn:    3600,
	}

	cl := &Client{logTokens: false}
	logged := cl.loggable(tokenResponse)
	if logged.AccessToken != "0123****" {
		t.Errorf("expected masked access token, got %q", logged.AccessToken)
	}
	if logged.RefreshToken != "****" {
		t.Errorf("expected masked refresh token, got %q", logged.RefreshToken)
	}
	if logged.TokenType != "bearer" || logged.ExpiresIn != 3600 {
		t.Errorf("unexpected non-secret fields: %+v", logged)
	}
	if tokenResponse.AccessToken != "0123456789abcdef" {
		t.Error("masking must not modify the response")
	}

	cl.logTokens = true
	if logged := cl.loggable(tokenResponse); logged.AccessToken != tokenResponse.AccessToken {
		t.Errorf("expected clear access token, got %q", logged.AccessToken)
	}
}
