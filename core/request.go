package core

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// UserAgent is sent with every request the launcher makes
var UserAgent = "packlaunch/packlaunch"

// GetWithUA performs a GET request with the launcher's User-Agent, and an Accept header if contentType is set
func GetWithUA(url string, contentType string) (resp *http.Response, err error) {
	return GetWithUAContext(context.Background(), url, contentType)
}

func GetWithUAContext(ctx context.Context, url string, contentType string) (resp *http.Response, err error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", UserAgent)
	if len(contentType) > 0 {
		req.Header.Set("Accept", contentType)
	}
	return http.DefaultClient.Do(req)
}

// FetchJSON decodes the JSON document at url into v
func FetchJSON(ctx context.Context, url string, v interface{}) error {
	resp, err := GetWithUAContext(ctx, url, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("invalid response status for %s: %v", url, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", url, err)
	}
	return nil
}
