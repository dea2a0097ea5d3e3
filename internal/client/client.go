package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/agusespa/devassist/internal/types"
)

// maxErrorMessage bounds how much of an error body is surfaced to the user.
const maxErrorMessage = 512

// Client calls a devassist server's POST /analyze.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Analyze returns the raw analysis text. Every failure is a *types.TransportError.
func (c *Client) Analyze(ctx context.Context, req types.AnalysisRequest) (string, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return "", &types.TransportError{Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(jsonData))
	if err != nil {
		return "", &types.TransportError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &types.TransportError{Err: fmt.Errorf("failed to make request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &types.TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &types.TransportError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body),
		}
	}

	return string(body), nil
}

// Languages fetches the selector list from GET /languages.
func (c *Client) Languages(ctx context.Context) ([]types.Language, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/languages", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &types.TransportError{Err: fmt.Errorf("failed to make request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &types.TransportError{StatusCode: resp.StatusCode}
	}

	var langs []types.Language
	if err := json.NewDecoder(resp.Body).Decode(&langs); err != nil {
		return nil, fmt.Errorf("failed to decode languages: %w", err)
	}
	return langs, nil
}

func errorMessage(body []byte) string {
	msg := strings.TrimSpace(string(body))
	msg = strings.TrimSpace(strings.TrimPrefix(msg, "Error:"))
	if len(msg) > maxErrorMessage {
		cut := maxErrorMessage
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut] + "..."
	}
	return msg
}
