package openfoodfacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/franckalain/nutriscan/internal/metrics"
	"github.com/franckalain/nutriscan/internal/models"
)

// DefaultBaseURL is the public v0 API root
const DefaultBaseURL = "https://world.openfoodfacts.org/api/v0"

const userAgent = "nutriscan/1.0"

// ErrNotFound is returned when the API reports no product for a barcode
var ErrNotFound = errors.New("product not found")

// Client fetches product records by barcode
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client. A zero timeout leaves requests bounded only by ctx.
func New(baseURL string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Lookup fetches the product for barcode. A response with status != 1
// yields ErrNotFound.
func (c *Client) Lookup(ctx context.Context, barcode string) (*models.Product, error) {
	start := time.Now()
	product, err := c.fetch(ctx, barcode)

	status := "found"
	switch {
	case errors.Is(err, ErrNotFound):
		status = "not_found"
	case err != nil:
		status = "error"
	}
	metrics.LookupDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	return product, err
}

func (c *Client) fetch(ctx context.Context, barcode string) (*models.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, fmt.Errorf("empty barcode")
	}

	endpoint := fmt.Sprintf("%s/product/%s.json", c.baseURL, url.PathEscape(barcode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error requesting product %s: %w", barcode, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	// Unknown products come back as 404 with a regular status=0 body,
	// so the body is decoded whatever the HTTP status.
	var payload models.ProductResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("error parsing response (http %d): %w", resp.StatusCode, err)
	}
	if !payload.Found() {
		return nil, fmt.Errorf("%w: %s (status %d)", ErrNotFound, barcode, payload.Status)
	}
	return payload.Product, nil
}
