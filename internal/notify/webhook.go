package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/yuin/goldmark"

	ferrors "git.home.luguber.info/inful/pagewatcher/internal/foundation/errors"
	"git.home.luguber.info/inful/pagewatcher/internal/state"
)

// Webhook posts a JSON document with the message as markdown and HTML plus the event.
type Webhook struct {
	url     string
	headers map[string]string
	client  *http.Client
	md      goldmark.Markdown
}

type webhookPayload struct {
	Text  string              `json:"text"`
	HTML  string              `json:"html"`
	Event *state.TriggerEvent `json:"event,omitempty"`
}

// NewWebhook returns a sink posting to url with the extra headers.
func NewWebhook(url string, headers map[string]string, client *http.Client) *Webhook {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Webhook{url: url, headers: headers, client: client, md: goldmark.New()}
}

func (w *Webhook) Notify(ctx context.Context, msg Message) error {
	var html bytes.Buffer
	if err := w.md.Convert([]byte(msg.Text), &html); err != nil {
		return ferrors.InternalError("failed to render message").WithCause(err).Build()
	}
	body, err := json.Marshal(webhookPayload{Text: msg.Text, HTML: html.String(), Event: msg.Event})
	if err != nil {
		return ferrors.InternalError("failed to encode webhook payload").WithCause(err).Build()
	}
	return postJSON(ctx, w.client, "webhook", w.url, body, w.headers)
}
