package webpush

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/predictions-league/internal/domain/player"
	"github.com/riskibarqy/predictions-league/internal/platform/id"
	"github.com/riskibarqy/predictions-league/internal/platform/logging"
	"github.com/riskibarqy/predictions-league/internal/platform/resilience"
	"github.com/riskibarqy/predictions-league/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var errPushGatewayTransient = crerr.New("push gateway transient failure")

type ClientConfig struct {
	BaseURL        string
	Token          string
	Timeout        time.Duration
	Logger         *logging.Logger
	IDs            id.Generator
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client delivers notifications through the web-push relay. The relay owns
// VAPID signing and payload encryption; this client hands it the subscription
// keys and the plaintext notification. It implements usecase.Notifier.
type Client struct {
	client         *http.Client
	baseURL        string
	token          string
	logger         *logging.Logger
	ids            id.Generator
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	ids := cfg.IDs
	if ids == nil {
		ids = id.NewRandomGenerator()
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:          strings.TrimSpace(cfg.Token),
		logger:         logger,
		ids:            ids,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

func (c *Client) Send(ctx context.Context, note usecase.Notification, sub player.Subscription) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "push gateway circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("push gateway is temporarily unavailable: %w", err)
		}
	}

	endpoint := strings.TrimSpace(sub.Endpoint)
	if endpoint == "" {
		return crerr.New("subscription endpoint is required")
	}

	baseURL, err := validateHTTPBaseURL(c.baseURL)
	if err != nil {
		return crerr.Wrap(err, "invalid WEBPUSH_BASE_URL")
	}

	messageID, err := c.ids.NewID()
	if err != nil {
		return crerr.Wrap(err, "mint push message id")
	}

	body, err := sonic.Marshal(pushRequest{
		Endpoint: endpoint,
		Auth:     sub.Auth,
		P256DH:   sub.P256DH,
		Title:    note.Title,
		Body:     note.Body,
	})
	if err != nil {
		return crerr.Wrap(err, "marshal push payload")
	}

	// Subscription keys are credentials: previews and spans carry a redacted
	// endpoint and never the request body.
	pushURL := baseURL + "/v1/messages"
	safeEndpoint := redactEndpoint(endpoint)
	curlPreview := buildPushCurlPreview(pushURL, safeEndpoint, messageID)

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("webpush.push_url", pushURL),
			attribute.String("webpush.endpoint", safeEndpoint),
			attribute.String("webpush.message_id", messageID),
			attribute.String("webpush.request_curl_preview", curlPreview),
		)
	}
	c.logger.DebugContext(ctx, "push gateway request", "endpoint", safeEndpoint, "message_id", messageID, "curl_preview", curlPreview)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pushURL, strings.NewReader(string(body)))
	if err != nil {
		return crerr.Wrap(err, "create push request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Message-Id", messageID)

	resp, err := c.client.Do(req)
	if err != nil {
		callErr := fmt.Errorf("%w: send push message_id=%s: %v", errPushGatewayTransient, messageID, err)
		c.recordCircuitResult(callErr)
		return callErr
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if isPushRetryableStatus(resp.StatusCode) {
			callErr := fmt.Errorf(
				"%w: send push status=%d message_id=%s endpoint=%s body=%s",
				errPushGatewayTransient,
				resp.StatusCode,
				messageID,
				safeEndpoint,
				strings.TrimSpace(string(raw)),
			)
			c.recordCircuitResult(callErr)
			return callErr
		}

		callErr := fmt.Errorf(
			"send push status=%d message_id=%s endpoint=%s body=%s",
			resp.StatusCode,
			messageID,
			safeEndpoint,
			strings.TrimSpace(string(raw)),
		)
		c.recordCircuitResult(callErr)
		return callErr
	}

	c.recordCircuitResult(nil)
	return nil
}

type pushRequest struct {
	Endpoint string `json:"endpoint"`
	Auth     string `json:"auth"`
	P256DH   string `json:"p256dh"`
	Title    string `json:"title"`
	Body     string `json:"body"`
}

func validateHTTPBaseURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}

	return strings.TrimRight(candidate, "/"), nil
}

// redactEndpoint keeps enough of a push endpoint to recognize the push
// service while cutting off the capability token in its path.
func redactEndpoint(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return "invalid-endpoint"
	}
	path := parsed.Path
	if len(path) > 12 {
		path = path[:12] + "..."
	}
	return parsed.Scheme + "://" + parsed.Host + path
}

func buildPushCurlPreview(pushURL, safeEndpoint, messageID string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	appendPart := func(part string) {
		if buf.Len() > 0 {
			_ = buf.WriteByte(' ')
		}
		_, _ = buf.WriteString(part)
	}
	appendFlagHeader := func(value string) {
		appendPart("-H")
		appendPart(shellQuote(value))
	}

	appendPart("curl")
	appendPart("-X")
	appendPart("POST")
	appendPart(shellQuote(pushURL))
	appendFlagHeader("Authorization: Bearer ***")
	appendFlagHeader("Content-Type: application/json")
	appendFlagHeader("X-Message-Id: " + messageID)
	appendPart("-d")
	appendPart(shellQuote("***"))
	appendPart("#")
	appendPart(shellQuote("endpoint=" + safeEndpoint))

	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "'\"'\"'") + "'"
}

func (c *Client) recordCircuitResult(err error) {
	if !c.circuitEnabled || c.breaker == nil {
		return
	}
	if err == nil {
		c.breaker.RecordSuccess()
		return
	}
	if isPushGatewayCircuitFailure(err) {
		c.breaker.RecordFailure()
		return
	}
	c.breaker.RecordSuccess()
}

func isPushGatewayCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, errPushGatewayTransient)
}

func isPushRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}
