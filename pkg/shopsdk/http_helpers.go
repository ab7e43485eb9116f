package shopsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/aussiebroadwan/storefront/pkg/httpx"
)

// Call describes one logical API request. It is a value: retries rebuild the
// HTTP request from it and never modify it.
type Call struct {
	Method string
	Path   string
	Query  url.Values
	Body   any

	// Public calls (login, register) are sent without a credential and never
	// trigger a refresh.
	Public bool
}

func (c Call) String() string { return c.Method + " " + c.Path }

// url builds a complete URL from the base URL, path and query.
func (c *SDKClient) url(path string, query url.Values) string {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// encodeBody marshals a call body once so every attempt sends identical bytes.
func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request body: %w", ErrValidation, err)
	}
	return b, nil
}

// do encodes call and sends it once with credential.
func (c *SDKClient) do(ctx context.Context, call Call, credential string, out any) error {
	body, err := encodeBody(call.Body)
	if err != nil {
		return err
	}
	return c.send(ctx, call, body, credential, out)
}

// send performs exactly one HTTP round-trip. An empty credential sends the
// request without an Authorization header.
func (c *SDKClient) send(ctx context.Context, call Call, body []byte, credential string, out any) error {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrNetwork, err)
		}
	}

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, call.Method, c.url(call.Path, call.Query), rdr)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNetwork, call, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseErrorResponse(resp.StatusCode, respBody, call.Public)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := httpx.DecodeData(respBody, out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrServer, call, err)
	}
	return nil
}
