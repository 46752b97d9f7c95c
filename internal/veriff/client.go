package veriff

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pawsitter/backend/internal/config"
	"github.com/pawsitter/backend/internal/domain"
	"github.com/pawsitter/backend/pkg/hash"
	"go.uber.org/zap"
)

const (
	headerAuthClient = "X-AUTH-CLIENT"
	headerSignature  = "X-HMAC-SIGNATURE"

	defaultTimeout = 30 * time.Second
)

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	config     config.VeriffConfig
	httpClient HTTPDoer
	signer     hash.Signer
	log        *zap.Logger
}

func NewClient(cfg config.VeriffConfig, httpClient HTTPDoer, log *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Country == "" {
		cfg.Country = countryPhilippines
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		config:     cfg,
		httpClient: httpClient,
		signer:     hash.NewHMACSHA256Signer(cfg.SharedSecret),
		log:        log.Named("veriff"),
	}
}

type SessionRequest struct {
	UserID       uuid.UUID
	FirstName    string
	LastName     string
	DocumentType domain.DocumentType
	IDNumber     string
}

type Session struct {
	ID    string
	URL   string
	Token string
}

type sessionPayload struct {
	Verification sessionVerification `json:"verification"`
}

type sessionVerification struct {
	Callback   string          `json:"callback"`
	Person     sessionPerson   `json:"person"`
	Document   sessionDocument `json:"document"`
	VendorData string          `json:"vendorData"`
	Timestamp  string          `json:"timestamp"`
}

type sessionPerson struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	IDNumber  string `json:"idNumber,omitempty"`
}

type sessionDocument struct {
	Number  string       `json:"number,omitempty"`
	Type    DocumentType `json:"type"`
	Country string       `json:"country"`
}

type sessionResponse struct {
	Status       string `json:"status"`
	Verification struct {
		ID           string `json:"id"`
		URL          string `json:"url"`
		SessionToken string `json:"sessionToken"`
	} `json:"verification"`
}

type decisionResponse struct {
	Status       string               `json:"status"`
	Verification *verificationPayload `json:"verification"`
}

// CreateSession opens a remote verification session. Any failure is reported
// as ErrVendorUnavailable and writes nothing.
func (c *Client) CreateSession(ctx context.Context, in SessionRequest) (*Session, error) {
	payload := sessionPayload{
		Verification: sessionVerification{
			Callback: c.config.CallbackURL,
			Person: sessionPerson{
				FirstName: in.FirstName,
				LastName:  in.LastName,
				IDNumber:  in.IDNumber,
			},
			Document: sessionDocument{
				Number:  in.IDNumber,
				Type:    MapDocumentType(in.DocumentType),
				Country: c.config.Country,
			},
			VendorData: in.UserID.String(),
			Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal session payload: %w", err)
	}

	var resp sessionResponse
	if err := c.do(ctx, http.MethodPost, "/v1/sessions", body, "", &resp); err != nil {
		return nil, err
	}

	if resp.Verification.ID == "" {
		return nil, fmt.Errorf("%w: session id missing in response", ErrVendorUnavailable)
	}

	c.log.Debug("session created", zap.String("session_id", resp.Verification.ID), zap.Stringer("user_id", in.UserID))

	return &Session{
		ID:    resp.Verification.ID,
		URL:   resp.Verification.URL,
		Token: resp.Verification.SessionToken,
	}, nil
}

// GetDecision fetches the current decision of a session.
func (c *Client) GetDecision(ctx context.Context, sessionID string) (*Decision, error) {
	var resp decisionResponse
	path := "/v1/sessions/" + sessionID + "/decision"
	if err := c.do(ctx, http.MethodGet, path, nil, c.signer.Sign([]byte(sessionID)), &resp); err != nil {
		return nil, err
	}

	if resp.Verification == nil {
		return &Decision{SessionID: sessionID, Status: domain.VerificationStatusPending}, nil
	}

	return normalize(resp.Verification)
}

// ValidateSignature checks the HMAC of a raw webhook body.
func (c *Client) ValidateSignature(rawBody []byte, signature string) bool {
	return c.signer.Verify(rawBody, signature)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, signature string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.config.BaseURL, "/")+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerAuthClient, c.config.APIKey)
	if signature != "" {
		req.Header.Set(headerSignature, signature)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("vendor request failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrVendorUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.log.Warn("vendor returned non-2xx",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody),
		)
		return fmt.Errorf("%w: unexpected status code: %d", ErrVendorUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrVendorUnavailable, err)
	}

	return nil
}
