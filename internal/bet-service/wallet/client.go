package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var ErrInsufficientFunds = errors.New("insufficient funds")

// StatusError é uma resposta não-2xx do wallet-service
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("wallet %s http %d: %s", e.Op, e.Status, e.Body)
}

// Client fala com o wallet-service via HTTP
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(base, "/"),
		HTTP:    &http.Client{Timeout: 2 * time.Second},
	}
}

func (c *Client) post(ctx context.Context, op, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("wallet %s: %w", op, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		text := strings.TrimSpace(string(msg))
		if res.StatusCode == http.StatusConflict && strings.Contains(text, "insufficient funds") {
			return ErrInsufficientFunds
		}
		return &StatusError{Op: op, Status: res.StatusCode, Body: text}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

// Reserve bloqueia o valor apostado (external_ref = betID)
func (c *Client) Reserve(ctx context.Context, userID string, amount int64, externalRef string) (string, error) {
	var out reserveResponse
	if err := c.post(ctx, "reserve", "/wallet/reserve", reserveRequest{UserID: userID, Amount: amount, ExternalRef: externalRef}, &out); err != nil {
		return "", err
	}
	return out.ReservationID, nil
}

// Commit efetiva a reserva quando a aposta é liquidada
func (c *Client) Commit(ctx context.Context, userID, externalRef string) error {
	return c.post(ctx, "commit", "/wallet/commit", refRequest{UserID: userID, ExternalRef: externalRef}, nil)
}

// Refund devolve a reserva de uma aposta rejeitada
func (c *Client) Refund(ctx context.Context, userID, externalRef string) error {
	return c.post(ctx, "refund", "/wallet/refund", refRequest{UserID: userID, ExternalRef: externalRef}, nil)
}

// Payout credita o prêmio; o wallet-service ignora external_ref repetido
func (c *Client) Payout(ctx context.Context, userID string, amount int64, externalRef string) error {
	return c.post(ctx, "payout", "/wallet/payout", payoutRequest{UserID: userID, Amount: amount, ExternalRef: externalRef}, nil)
}
