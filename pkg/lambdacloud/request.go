package lambdacloud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// maxBodyInError caps how much of an undecodable body is kept in MalformedResponseError
const maxBodyInError = 512

// envelope is the wrapper around every successful payload
type envelope[T any] struct {
	Data T `json:"data"`
}

// errorEnvelope is the wrapper around every error payload
type errorEnvelope struct {
	Error *APIError `json:"error"`
}

// do sends one request and decodes the response into T.
// A nil body sends no request body at all.
func do[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var zero T

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return zero, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return zero, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", authorization(c.authMethod, c.apiKey))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return zero, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, err
	}

	c.logger.Debug("request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return zero, decodeFailure(resp.StatusCode, raw)
	}
	return decodeSuccess[T](resp.StatusCode, raw)
}

func decodeSuccess[T any](status int, raw []byte) (T, error) {
	var env envelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		var zero T
		return zero, malformed(status, raw, err)
	}
	return env.Data, nil
}

func decodeFailure(status int, raw []byte) error {
	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return malformed(status, raw, err)
	}
	if env.Error == nil {
		return malformed(status, raw, errors.New("error envelope has no error field"))
	}
	env.Error.StatusCode = status
	return env.Error
}

func malformed(status int, raw []byte, err error) *MalformedResponseError {
	body := raw
	if len(body) > maxBodyInError {
		body = body[:maxBodyInError]
		for len(body) > 0 && !utf8.Valid(body) {
			body = body[:len(body)-1]
		}
	}
	return &MalformedResponseError{
		StatusCode: status,
		Body:       string(body),
		Err:        err,
	}
}
