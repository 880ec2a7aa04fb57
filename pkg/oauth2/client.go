package oauth2

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	xoauth2 "golang.org/x/oauth2"
)

type Config struct {
	ClientID     string `validate:"required"`
	ClientSecret string `validate:"required"`
	RedirectURI  string `validate:"required,url"`
	AuthURL      string `validate:"required,url"`
	TokenURL     string `validate:"required,url"`
	// Timeout of the token request, zero means no timeout
	Timeout time.Duration
}

// Client performs the authorization code grant against a single provider.
type Client struct {
	config     xoauth2.Config
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid oauth2 client config: %w", err)
	}

	return &Client{
		config: xoauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint: xoauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: xoauth2.AuthStyleInHeader,
			},
		},
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (c *Client) ClientID() string {
	return c.config.ClientID
}

// AuthCodeURL returns the provider URL the browser is sent to. It carries
// client_id, redirect_uri and response_type=code and nothing else.
func (c *Client) AuthCodeURL() string {
	return c.config.AuthCodeURL("")
}

// Exchange trades the authorization code for tokens. The client credentials
// are sent with HTTP Basic authentication. Failures are *ExchangeError.
func (c *Client) Exchange(ctx context.Context, code string) (*TokenResponse, error) {
	ctx = context.WithValue(ctx, xoauth2.HTTPClient, c.httpClient)

	slog.Debug("Exchanging code for token", "url", c.config.Endpoint.TokenURL, "client_id", c.config.ClientID)

	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *xoauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return nil, &ExchangeError{
				StatusCode: retrieveErr.Response.StatusCode,
				Body:       retrieveErr.Body,
				Err:        err,
			}
		}
		return nil, &ExchangeError{Err: err}
	}

	return &TokenResponse{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		ExpiresIn:    expiresIn(token),
	}, nil
}

// the provider value as sent, Token.Expiry is already relative to now
func expiresIn(token *xoauth2.Token) int64 {
	switch v := token.Extra("expires_in").(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return n
		}
	}
	return token.ExpiresIn
}
