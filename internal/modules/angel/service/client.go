package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	pathLogin   = "/rest/auth/angelbroking/user/v1/loginByPassword"
	pathRefresh = "/rest/auth/angelbroking/jwt/v1/generateTokens"
	pathCandles = "/rest/secure/angelbroking/historical/v1/getCandleData"
)

// ErrAuth marks a rejected or expired session.
var ErrAuth = errors.New("smartapi: authentication rejected")

var authCodes = map[string]bool{
	"AG8001": true, // invalid token
	"AG8002": true, // token expired
	"AG8003": true, // token missing
}

type Config struct {
	BaseURL    string
	APIKey     string
	ClientCode string
	Password   string
	TOTPSecret string
	Timeout    time.Duration
}

// Client is a minimal SmartAPI REST client: login, token refresh and historical candles.
type Client struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger
	now  func() time.Time

	mu      sync.Mutex
	session session
}

func NewClient(cfg Config, log *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log.With(zap.String("module", "angel")),
		now:  time.Now,
	}
}

type envelope struct {
	Status    bool            `json:"status"`
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	ErrorCode string          `json:"errorcode"`
	Data      json.RawMessage `json:"data"`
}

func (e envelope) ok() bool { return e.Status || e.Success }

// APIError is a well-formed rejection from the provider.
type APIError struct {
	HTTPStatus int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("http %d: %s %s", e.HTTPStatus, e.Code, e.Message)
}

// call posts body and decodes the data field of the response into out.
// Auth failures are returned wrapped around ErrAuth.
func (c *Client) call(ctx context.Context, path, jwt string, body, out any) error {
	payload, err := sonic.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	c.setHeaders(req, jwt)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "POST %s", path)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return errors.Wrap(err, "read response")
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return errors.Wrapf(ErrAuth, "POST %s: http %d", path, resp.StatusCode)
	}

	var env envelope
	if err := sonic.Unmarshal(raw, &env); err != nil {
		return errors.Wrapf(err, "POST %s: http %d: decode response", path, resp.StatusCode)
	}
	if authCodes[env.ErrorCode] {
		return errors.Wrapf(ErrAuth, "POST %s: %s %s", path, env.ErrorCode, env.Message)
	}
	if resp.StatusCode != http.StatusOK || !env.ok() {
		return errors.Wrapf(&APIError{HTTPStatus: resp.StatusCode, Code: env.ErrorCode, Message: env.Message}, "POST %s", path)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(env.Data, out); err != nil {
		return errors.Wrapf(err, "POST %s: decode data", path)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request, jwt string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-UserType", "USER")
	req.Header.Set("X-SourceID", "WEB")
	req.Header.Set("X-ClientLocalIP", "127.0.0.1")
	req.Header.Set("X-ClientPublicIP", "127.0.0.1")
	req.Header.Set("X-MACAddress", "00:00:00:00:00:00")
	req.Header.Set("X-PrivateKey", c.cfg.APIKey)
	if jwt != "" {
		req.Header.Set("Authorization", "Bearer "+jwt)
	}
}
