package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/YadvendraRathor/truth-dare-notification-scheduler/internal/domain"
)

const defaultPushTimeout = 10 * time.Second

// HTTPPushSender delivers notifications through an FCM-style HTTP endpoint:
// a JSON payload addressed to /topics/<topic>, authenticated with a server
// key header. The provider answers with a numeric message id.
type HTTPPushSender struct {
	client    *http.Client
	endpoint  string
	serverKey string
	timeout   time.Duration
}

func NewHTTPPushSender(endpoint, serverKey string) *HTTPPushSender {
	return &HTTPPushSender{
		client:    &http.Client{},
		endpoint:  endpoint,
		serverKey: serverKey,
		timeout:   defaultPushTimeout,
	}
}

// WithTimeout overrides the per-request timeout.
func (s *HTTPPushSender) WithTimeout(d time.Duration) *HTTPPushSender {
	if d > 0 {
		s.timeout = d
	}
	return s
}

type pushPayload struct {
	To           string           `json:"to"`
	Notification pushNotification `json:"notification"`
}

type pushNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Image string `json:"image,omitempty"`
}

type pushResponse struct {
	MessageID int64  `json:"message_id"`
	Error     string `json:"error,omitempty"`
}

func (s *HTTPPushSender) Send(ctx context.Context, msg domain.PushMessage) domain.PushResult {
	start := time.Now()

	payload := pushPayload{
		To: "/topics/" + msg.Topic,
		Notification: pushNotification{
			Title: msg.Title,
			Body:  msg.Body,
			Image: msg.Image,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.PushResult{Error: fmt.Errorf("marshal: %w", err), Duration: time.Since(start)}
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctxTimeout, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.PushResult{Error: fmt.Errorf("create request: %w", err), Duration: time.Since(start)}
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "key="+s.serverKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return domain.PushResult{Error: fmt.Errorf("send: %w", err), Duration: time.Since(start)}
	}
	defer resp.Body.Close()

	result := domain.PushResult{StatusCode: resp.StatusCode, Duration: time.Since(start)}

	var parsed pushResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err == nil {
		if parsed.MessageID != 0 {
			result.MessageID = strconv.FormatInt(parsed.MessageID, 10)
		}
		if result.StatusCode >= 200 && result.StatusCode < 300 && parsed.Error != "" {
			// Some provider errors come back with a 200 and an error field.
			result.Error = fmt.Errorf("provider error: %s", parsed.Error)
		}
	}

	return result
}

// classifyStatus maps a provider status code and error to a bounded-cardinality
// metrics class: 2xx, 4xx, 5xx, timeout, connection_error, other_error.
func classifyStatus(statusCode int, err error) string {
	if err != nil {
		errStr := strings.ToLower(err.Error())
		if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
			return "timeout"
		}
		if strings.Contains(errStr, "connection refused") ||
			strings.Contains(errStr, "no such host") ||
			strings.Contains(errStr, "network is unreachable") ||
			strings.Contains(errStr, "dial") {
			return "connection_error"
		}
		return "other_error"
	}

	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500:
		return "5xx"
	default:
		return "other_error"
	}
}
