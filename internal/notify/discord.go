package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	ferrors "git.home.luguber.info/inful/pagewatcher/internal/foundation/errors"
)

// discordContentLimit is the maximum message length Discord accepts.
const discordContentLimit = 2000

// Discord posts messages to a Discord webhook.
type Discord struct {
	webhookURL string
	client     *http.Client
}

// NewDiscord returns a sink for webhookURL. A nil client gets a 10s timeout default.
func NewDiscord(webhookURL string, client *http.Client) *Discord {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Discord{webhookURL: webhookURL, client: client}
}

func (d *Discord) Notify(ctx context.Context, msg Message) error {
	content := msg.Text
	if r := []rune(content); len(r) > discordContentLimit {
		content = string(r[:discordContentLimit])
	}
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return ferrors.InternalError("failed to encode discord payload").WithCause(err).Build()
	}
	return postJSON(ctx, d.client, "discord", d.webhookURL, body, nil)
}

// postJSON POSTs body and treats any non-2xx response as a notify error.
func postJSON(ctx context.Context, client *http.Client, sink, url string, body []byte, headers map[string]string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNotify, "failed to build request").WithContext("sink", sink).Build()
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNotify, "notification request failed").WithContext("sink", sink).Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return ferrors.NotifyError(fmt.Sprintf("%s returned %d", sink, resp.StatusCode)).
			WithContext("sink", sink).
			WithContext("response", string(snippet)).
			Build()
	}
	return nil
}
