package sessionstore

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/segmentio/ksuid"
)

// ServerStore implements sessions.Store on top of a Store. The cookie holds
// the JWS (HS256) signed session id, never the values.
type ServerStore struct {
	Options *sessions.Options
	backend Store
	sign    CryptoFunc
	verify  CryptoFunc
}

var _ sessions.Store = (*ServerStore)(nil)

func NewServerStore(backend Store, signKey []byte, options *sessions.Options) (*ServerStore, error) {
	if err := checkKey(signKey); err != nil {
		return nil, err
	}
	if options == nil {
		options = &sessions.Options{
			Path:     "/",
			MaxAge:   86400,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		}
	}
	return &ServerStore{
		Options: options,
		backend: backend,
		sign:    SignWithHS256KeyFunc(signKey),
		verify:  VerifyWithHS256KeyFunc(signKey),
	}, nil
}

// Get returns the session cached for this request or loads it.
func (s *ServerStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New loads the session referenced by the request cookie. An absent,
// tampered or expired cookie yields a fresh session.
func (s *ServerStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	cookie, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}

	id, err := s.verify([]byte(cookie.Value))
	if err != nil {
		slog.Warn("Ignoring session cookie with invalid signature", "error", err, "remote_addr", r.RemoteAddr)
		return session, nil
	}

	data, err := s.backend.Get(r.Context(), string(id))
	if errors.Is(err, ErrNotFound) {
		slog.Debug("Session cookie references unknown session", "id", string(id))
		return session, nil
	}
	if err != nil {
		return session, fmt.Errorf("load session: %w", err)
	}

	values, err := decodeValues(data)
	if err != nil {
		return session, err
	}

	session.ID = string(id)
	session.Values = values
	session.IsNew = false
	return session, nil
}

// Save persists the session values. The cookie is only written when the
// session gets its id; a negative MaxAge destroys the session.
func (s *ServerStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.backend.Destroy(r.Context(), session.ID); err != nil {
				return err
			}
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	newID := session.ID == ""
	if newID {
		session.ID = ksuid.New().String()
	}

	data, err := encodeValues(session.Values)
	if err != nil {
		return err
	}

	ttl := time.Duration(session.Options.MaxAge) * time.Second
	if err := s.backend.Set(r.Context(), session.ID, data, ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	if newID {
		signed, err := s.sign([]byte(session.ID))
		if err != nil {
			return fmt.Errorf("sign session cookie: %w", err)
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), string(signed), session.Options))
		slog.Debug("session created", "id", session.ID)
	}
	session.IsNew = false

	return nil
}
