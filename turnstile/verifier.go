// api/turnstile/verifier.go
package turnstile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	logger "github.com/edgegate/api/logging"
)

// Outcome is the result of an upstream verification attempt. CallFailed
// covers every transport or decoding failure; clients are expected to treat
// it exactly like Invalid so a network blip never lets a token through.
type Outcome int

const (
	Valid Outcome = iota
	Invalid
	CallFailed
)

func (o Outcome) String() string {
	switch o {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return "call_failed"
	}
}

// Verifier checks a token against the upstream source of truth.
// remoteIP is optional and forwarded when non-empty.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) Outcome
}

const DefaultVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// CloudflareVerifier calls the Cloudflare Turnstile siteverify endpoint.
type CloudflareVerifier struct {
	secret    string
	verifyURL string
	client    *http.Client
}

func NewCloudflareVerifier(secret, verifyURL string, timeout time.Duration) *CloudflareVerifier {
	if verifyURL == "" {
		verifyURL = DefaultVerifyURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &CloudflareVerifier{
		secret:    secret,
		verifyURL: verifyURL,
		client:    &http.Client{Timeout: timeout},
	}
}

func (v *CloudflareVerifier) Verify(ctx context.Context, token, remoteIP string) Outcome {
	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		logger.Error("Failed to build siteverify request", zap.Error(err))
		return CallFailed
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		logger.Error("Siteverify request failed", zap.Error(err))
		return CallFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Error("Siteverify returned non-2xx status", zap.Int("status", resp.StatusCode))
		return CallFailed
	}

	var body siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		logger.Error("Failed to decode siteverify response", zap.Error(err))
		return CallFailed
	}

	if !body.Success {
		logger.Warn("Turnstile token rejected by siteverify",
			zap.Strings("errorCodes", body.ErrorCodes))
		return Invalid
	}

	return Valid
}
