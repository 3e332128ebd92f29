package products

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-kvcms/internal/logging"
	"github.com/goliatone/go-kvcms/internal/objectstore"
	"github.com/goliatone/go-kvcms/pkg/interfaces"
)

var (
	ErrSKURequired     = errors.New("products: sku is required")
	ErrBaseURLRequired = errors.New("products: commerce base url is required")
	ErrStoreRequired   = errors.New("products: object store required")
)

// HTTPConfig points the catalog at a commerce product search API.
type HTTPConfig struct {
	BaseURL    string
	ProjectKey string
	Token      string
	Timeout    time.Duration
}

// HTTPCatalog finds products through the commerce product search endpoint.
type HTTPCatalog struct {
	cfg    HTTPConfig
	client *http.Client
	logger interfaces.Logger
}

var _ interfaces.ProductCatalog = (*HTTPCatalog)(nil)

type HTTPOption func(*HTTPCatalog)

// WithHTTPClient replaces the default client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(c *HTTPCatalog) {
		if client != nil {
			c.client = client
		}
	}
}

func WithHTTPLogger(logger interfaces.Logger) HTTPOption {
	return func(c *HTTPCatalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewHTTPCatalog(cfg HTTPConfig, opts ...HTTPOption) (*HTTPCatalog, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, ErrBaseURLRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &HTTPCatalog{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

type searchRequest struct {
	Query                       searchQuery    `json:"query"`
	ProductProjectionParameters map[string]any `json:"productProjectionParameters"`
}

type searchQuery struct {
	Exact exactQuery `json:"exact"`
}

type exactQuery struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type searchResponse struct {
	Results []struct {
		ProductProjection map[string]any `json:"productProjection"`
	} `json:"results"`
}

func (c *HTTPCatalog) endpoint() string {
	base := strings.TrimRight(c.cfg.BaseURL, "/")
	if key := strings.Trim(c.cfg.ProjectKey, "/"); key != "" {
		base += "/" + key
	}
	return base + "/products/search"
}

// FindBySKU returns the projection of the first product whose variant SKU
// equals sku, or nil when none matches.
func (c *HTTPCatalog) FindBySKU(ctx context.Context, sku string) (map[string]any, error) {
	if strings.TrimSpace(sku) == "" {
		return nil, goerrors.Wrap(ErrSKURequired, goerrors.CategoryBadInput, "Product SKU is required")
	}
	c.logger.Debug("products.search", "sku", sku)

	body, err := json.Marshal(searchRequest{
		Query:                       searchQuery{Exact: exactQuery{Field: "variants.sku", Value: sku}},
		ProductProjectionParameters: map[string]any{},
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, c.searchFailed(sku, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.searchFailed(sku, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	var payload searchResponse
	if err := decoder.Decode(&payload); err != nil {
		return nil, c.searchFailed(sku, err)
	}
	if len(payload.Results) == 0 {
		return nil, nil
	}
	return objectstore.CloneMap(payload.Results[0].ProductProjection), nil
}

func (c *HTTPCatalog) searchFailed(sku string, err error) error {
	c.logger.Error("products.search_failed", "sku", sku, "error", err)
	return goerrors.Wrap(err, goerrors.CategoryExternal, "Failed to fetch product by SKU")
}

// StoreCatalog serves product projections kept in an object store container,
// keyed by SKU.
type StoreCatalog struct {
	container string
	store     interfaces.ObjectStore
}

var _ interfaces.ProductCatalog = (*StoreCatalog)(nil)

func NewStoreCatalog(container string, store interfaces.ObjectStore) (*StoreCatalog, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	return &StoreCatalog{container: container, store: store}, nil
}

func (c *StoreCatalog) FindBySKU(ctx context.Context, sku string) (map[string]any, error) {
	if strings.TrimSpace(sku) == "" {
		return nil, goerrors.Wrap(ErrSKURequired, goerrors.CategoryBadInput, "Product SKU is required")
	}
	obj, err := c.store.Get(ctx, c.container, sku)
	if err != nil {
		if objectstore.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return obj.Value, nil
}

// Put stores a product projection under sku.
func (c *StoreCatalog) Put(ctx context.Context, sku string, projection map[string]any) error {
	if strings.TrimSpace(sku) == "" {
		return ErrSKURequired
	}
	_, err := c.store.Update(ctx, c.container, sku, projection)
	return err
}
