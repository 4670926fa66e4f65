package supplierclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/dropshipapi/internal/domain"
)

// TestResult is the outcome of a connectivity probe. It carries no
// persistence side effects; the caller decides how to record it.
type TestResult struct {
	Success        bool   `json:"success"`
	ResponseTimeMS int64  `json:"response_time_ms,omitempty"`
	StatusCode     int    `json:"status_code,omitempty"`
	Message        string `json:"message"`
	ErrorDetails   string `json:"error_details,omitempty"`
}

// CatalogEntry is one row of a supplier's catalog feed
type CatalogEntry struct {
	SupplierSKU   string `json:"sku"`
	Name          string `json:"name"`
	SupplierPrice int64  `json:"price"` // minor currency units
	StockQuantity int    `json:"stock"`
}

// PlaceOrderResult is the supplier's acknowledgement of a placed order
type PlaceOrderResult struct {
	SupplierOrderID string                 `json:"supplier_order_id"`
	Raw             map[string]interface{} `json:"-"`
}

// OrderPayload is the order document sent to the supplier's endpoint
type OrderPayload struct {
	Reference       string                   `json:"reference"`
	ShippingAddress map[string]interface{}   `json:"shipping_address"`
	Items           []OrderPayloadItem       `json:"items"`
}

// OrderPayloadItem is one line of the order document
type OrderPayloadItem struct {
	SupplierSKU string `json:"sku"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
}

// Client is an interface over the external supplier endpoint so services
// can be tested without the network.
type Client interface {
	TestConnection(ctx context.Context, integration *domain.SupplierIntegration) *TestResult
	FetchCatalog(ctx context.Context, integration *domain.SupplierIntegration) ([]CatalogEntry, error)
	PlaceOrder(ctx context.Context, integration *domain.SupplierIntegration, payload OrderPayload) (*PlaceOrderResult, error)
}

type httpClient struct {
	client *http.Client
	logger *zap.Logger
}

// NewClient creates an HTTP-backed supplier client
func NewClient(logger *zap.Logger) *httpClient {
	return &httpClient{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// endpoint pulls the base URL out of the integration configuration,
// stripping scheme prefixes the way operators tend to paste them.
func endpoint(integration *domain.SupplierIntegration) (string, error) {
	raw, ok := integration.Configuration["endpoint"].(string)
	if !ok || raw == "" {
		return "", fmt.Errorf("integration %s has no endpoint configured", integration.ID)
	}
	raw = strings.TrimPrefix(raw, "https://")
	raw = strings.TrimPrefix(raw, "http://")
	raw = strings.TrimSuffix(raw, "/")
	return "https://" + raw, nil
}

func (c *httpClient) authorize(req *http.Request, integration *domain.SupplierIntegration) {
	if token, ok := integration.Authentication["api_key"].(string); ok && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
}

func (c *httpClient) TestConnection(ctx context.Context, integration *domain.SupplierIntegration) *TestResult {
	base, err := endpoint(integration)
	if err != nil {
		return &TestResult{Success: false, Message: "endpoint not configured", ErrorDetails: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/ping", nil)
	if err != nil {
		return &TestResult{Success: false, Message: "failed to build request", ErrorDetails: err.Error()}
	}
	c.authorize(req, integration)

	start := time.Now()
	resp, err := c.client.Do(req)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return &TestResult{
			Success:        false,
			ResponseTimeMS: elapsed,
			Message:        "connection failed",
			ErrorDetails:   err.Error(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &TestResult{
			Success:        false,
			ResponseTimeMS: elapsed,
			StatusCode:     resp.StatusCode,
			Message:        fmt.Sprintf("supplier endpoint returned status %d", resp.StatusCode),
		}
	}

	return &TestResult{
		Success:        true,
		ResponseTimeMS: elapsed,
		StatusCode:     resp.StatusCode,
		Message:        "connection ok",
	}
}

func (c *httpClient) FetchCatalog(ctx context.Context, integration *domain.SupplierIntegration) ([]CatalogEntry, error) {
	base, err := endpoint(integration)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/catalog", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req, integration)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("supplier API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var entries []CatalogEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}

	return entries, nil
}

func (c *httpClient) PlaceOrder(ctx context.Context, integration *domain.SupplierIntegration, payload OrderPayload) (*PlaceOrderResult, error) {
	base, err := endpoint(integration)
	if err != nil {
		return nil, err
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/orders", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req, integration)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("supplier API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	result := &PlaceOrderResult{Raw: raw}
	if id, ok := raw["supplier_order_id"].(string); ok {
		result.SupplierOrderID = id
	}

	return result, nil
}
