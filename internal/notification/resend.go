package notification

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"glec/pkg/client"
)

// ResendSender posts messages to the Resend HTTP API.
type ResendSender struct {
	http *client.HttpClient
	from string
}

func NewResendSender(baseURL, apiKey, from string, timeout time.Duration) *ResendSender {
	return &ResendSender{
		http: client.NewHttpClient(baseURL, timeout).WithBearer(apiKey),
		from: from,
	}
}

func (s *ResendSender) Name() string { return "resend" }

type resendAttachment struct {
	Filename    string `json:"filename"`
	Content     string `json:"content"`
	ContentType string `json:"content_type,omitempty"`
}

type resendRequest struct {
	From        string             `json:"from"`
	To          []string           `json:"to"`
	Subject     string             `json:"subject"`
	HTML        string             `json:"html,omitempty"`
	Text        string             `json:"text,omitempty"`
	Attachments []resendAttachment `json:"attachments,omitempty"`
}

type resendResponse struct {
	ID string `json:"id"`
}

func (s *ResendSender) Send(ctx context.Context, msg *Message) (string, error) {
	req := resendRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	}
	for _, a := range msg.Attachments {
		req.Attachments = append(req.Attachments, resendAttachment{
			Filename:    a.Filename,
			Content:     base64.StdEncoding.EncodeToString(a.Content),
			ContentType: a.ContentType,
		})
	}

	var (
		resp *client.Response
		err  error
	)
	if msg.IdempotencyKey != "" {
		// Resend returns the original email for a repeated key within 24h.
		resp, err = s.http.POSTWithHeaders(ctx, "/emails", req, map[string]string{"Idempotency-Key": msg.IdempotencyKey})
	} else {
		resp, err = s.http.POST(ctx, "/emails", req)
	}
	if err != nil {
		return "", err
	}

	if !resp.IsSuccess() {
		err := fmt.Errorf("resend returned %d: %s", resp.StatusCode, client.GetErrorMessage(resp))
		// Client errors (bad address, bad key, rate limit) do not improve on retry.
		if resp.StatusCode >= http.StatusBadRequest && resp.StatusCode < http.StatusInternalServerError {
			return "", Permanent(err)
		}
		return "", err
	}

	var out resendResponse
	if err := resp.DecodeJSON(&out); err != nil {
		return "", fmt.Errorf("failed to decode resend response: %w", err)
	}
	if out.ID == "" {
		return "", errors.New("resend response has no id")
	}
	return out.ID, nil
}
