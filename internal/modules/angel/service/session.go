package service

import (
	"context"

	"github.com/pkg/errors"
	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"

	"signal_bot/internal/models"
)

type session struct {
	JWT          string `json:"jwtToken"`
	RefreshToken string `json:"refreshToken"`
	FeedToken    string `json:"feedToken"`
}

func (s session) valid() bool { return s.JWT != "" }

// Login opens a new session with client code, password and a fresh TOTP.
func (c *Client) Login(ctx context.Context) error {
	code, err := totp.GenerateCode(c.cfg.TOTPSecret, c.now())
	if err != nil {
		return errors.Wrap(err, "generate totp")
	}

	var s session
	body := map[string]string{
		"clientcode": c.cfg.ClientCode,
		"password":   c.cfg.Password,
		"totp":       code,
	}
	if err := c.call(ctx, pathLogin, "", body, &s); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return errors.Wrapf(ErrAuth, "login: %s", apiErr.Message)
		}
		return errors.Wrap(err, "login")
	}
	if !s.valid() {
		return errors.Wrap(ErrAuth, "login: empty jwt")
	}

	c.mu.Lock()
	c.session = s
	c.mu.Unlock()

	c.log.Info("smartapi session opened", zap.String("client", c.cfg.ClientCode))
	return nil
}

// Refresh renews the jwt with the refresh token of the current session.
func (c *Client) Refresh(ctx context.Context) error {
	cur := c.current()
	if cur.RefreshToken == "" {
		return errors.Wrap(ErrAuth, "refresh: no refresh token")
	}

	var s session
	body := map[string]string{"refreshToken": cur.RefreshToken}
	if err := c.call(ctx, pathRefresh, cur.JWT, body, &s); err != nil {
		return errors.Wrap(err, "refresh")
	}
	if !s.valid() {
		return errors.Wrap(ErrAuth, "refresh: empty jwt")
	}
	if s.RefreshToken == "" {
		s.RefreshToken = cur.RefreshToken
	}

	c.mu.Lock()
	c.session = s
	c.mu.Unlock()

	c.log.Info("smartapi session refreshed")
	return nil
}

// renew tries a refresh, then a full login. Only a rejected login means the
// session is gone for good; transport errors stay transient.
func (c *Client) renew(ctx context.Context) error {
	err := c.Refresh(ctx)
	if err == nil {
		return nil
	}
	c.log.Warn("token refresh failed, logging in again", zap.Error(err))

	err = c.Login(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrAuth) {
		return errors.Wrap(models.ErrSessionLost, err.Error())
	}
	return err
}

func (c *Client) current() session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}
