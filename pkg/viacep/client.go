// Package viacep looks up Brazilian postal codes (CEP) on the ViaCEP API.
package viacep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the public ViaCEP endpoint.
const DefaultBaseURL = "https://viacep.com.br/ws"

// ErrNotFound is returned when ViaCEP flags the code as unknown.
var ErrNotFound = errors.New("viacep: postal code not found")

// Address holds the fields ViaCEP returns for a postal code.
type Address struct {
	PostalCode string `json:"cep"`
	Street     string `json:"logradouro"`
	Complement string `json:"complemento"`
	District   string `json:"bairro"`
	City       string `json:"localidade"`
	State      string `json:"uf"`
}

// Config holds client settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client is a ViaCEP HTTP client.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client. Zero values fall back to the public endpoint and a 5s timeout.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

// response mirrors the JSON body; "erro" arrives either as a bool or as the string "true".
type response struct {
	Address
	Err errFlag `json:"erro"`
}

type errFlag bool

func (f *errFlag) UnmarshalJSON(b []byte) error {
	switch strings.Trim(string(b), `"`) {
	case "true":
		*f = true
	default:
		*f = false
	}
	return nil
}

// Lookup fetches the address for an eight digit postal code.
func (c *Client) Lookup(ctx context.Context, cep string) (*Address, error) {
	url := fmt.Sprintf("%s/%s/json/", c.baseURL, cep)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("viacep: failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("viacep: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("viacep: unexpected status %d for %s", resp.StatusCode, cep)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("viacep: failed to decode response: %w", err)
	}
	if body.Err {
		return nil, ErrNotFound
	}
	return &body.Address, nil
}
