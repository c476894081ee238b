package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"windalert/internal/types"
)

const twilioAPIBase = "https://api.twilio.com"

// TwilioConfig holds the configuration for creating a TwilioClient.
type TwilioConfig struct {
	AccountSID string
	AuthToken  types.SecretString
	BaseURL    string // defaults to twilioAPIBase
	Logger     *slog.Logger
}

// twilioMessageResponse is the subset of the Message resource we read.
type twilioMessageResponse struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// twilioErrorResponse is the body Twilio returns for 4xx/5xx.
type twilioErrorResponse struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
}

// TwilioClient sends SMS through the Twilio Messages API.
//
// The client makes exactly one attempt per Send; retries belong to the SMS
// dispatcher so that the backoff schedule is applied in one place.
type TwilioClient struct {
	base       *BaseClient
	accountSID string
	authToken  types.SecretString
	baseURL    string
	logger     *slog.Logger
}

// NewTwilioClient creates a TwilioClient.
func NewTwilioClient(httpClient *http.Client, cfg TwilioConfig) *TwilioClient {
	return NewTwilioClientWithBase(
		NewBaseClient(httpClient, "twilio", NoRetryPolicy(), UserAgent),
		cfg,
	)
}

// NewTwilioClientWithBase creates a TwilioClient around an existing BaseClient.
func NewTwilioClientWithBase(base *BaseClient, cfg TwilioConfig) *TwilioClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = twilioAPIBase
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &TwilioClient{
		base:       base,
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		logger:     logger,
	}
}

// SendSMS creates a message from -> to and returns the Twilio message SID.
//
// 429, 5xx and network failures come back with a transient code. Any other
// rejection (bad credentials, invalid number) is ErrCodeUpstreamSMSProvider.
func (c *TwilioClient) SendSMS(ctx context.Context, from, to, body string) (string, error) {
	form := url.Values{}
	form.Set("From", from)
	form.Set("To", to)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, url.PathEscape(c.accountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to create Twilio request",
			err,
		)
	}
	req.SetBasicAuth(c.accountSID, c.authToken.Unmask())
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.base.Do(req)
	if err != nil {
		return "", wrapProviderError("Twilio", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", c.handleErrorResponse(resp)
	}

	var msg twilioMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return "", types.NewAppError(
			types.ErrCodeUpstreamSMSProvider,
			"failed to decode Twilio response",
			err,
		)
	}
	if msg.SID == "" {
		return "", types.NewAppError(
			types.ErrCodeUpstreamSMSProvider,
			"Twilio response has no message SID",
			nil,
		)
	}

	c.logger.Debug("Twilio accepted message", "sid", msg.SID, "status", msg.Status)
	return msg.SID, nil
}

func (c *TwilioClient) handleErrorResponse(resp *http.Response) *types.AppError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var apiErr twilioErrorResponse
	_ = json.Unmarshal(raw, &apiErr)

	c.logger.Error("Twilio API error",
		"status_code", resp.StatusCode,
		"twilio_code", apiErr.Code,
		"twilio_message", apiErr.Message,
	)

	return types.NewAppErrorWithDetails(
		types.ErrCodeUpstreamSMSProvider,
		fmt.Sprintf("Twilio rejected message (%d)", resp.StatusCode),
		fmt.Errorf("twilio returned %d: %s", resp.StatusCode, string(raw)),
		map[string]any{
			"status_code": resp.StatusCode,
			"twilio_code": apiErr.Code,
		},
	)
}
