package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// GetJSON performs a GET and decodes the response body into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	resp, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("api: decoding %s response: %w", path, err)
	}

	return nil
}

// PostJSON performs a POST with a JSON-encoded body. out may be nil when
// the response body is not needed.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("api: encoding %s request: %w", path, err)
	}

	resp, err := c.Do(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("api: decoding %s response: %w", path, err)
	}

	return nil
}
