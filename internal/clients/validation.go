package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
)

const defaultCallTimeout = 5 * time.Second

// HTTPValidationClient — HTTP-адаптер ValidationClient поверх REST API
// справочника пользователей и каталога товаров.
type HTTPValidationClient struct {
	userBaseURL    string
	productBaseURL string
	httpClient     *http.Client
	logger         *log.Entry
}

// userResponse повторяет контракт GET {userServiceURL}/users/{id}.
type userResponse struct {
	ID    json.Number `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
}

// productResponse повторяет контракт GET {productServiceURL}/products/{id}.
type productResponse struct {
	ID            json.Number     `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int32           `json:"stockQuantity"`
}

// NewHTTPValidationClient создаёт клиент с ограниченным таймаутом на вызов.
// Ретраев на этом уровне нет: таймаут и недоступность трактуются так же,
// как отсутствие записи у авторитета.
func NewHTTPValidationClient(userBaseURL, productBaseURL string, timeout time.Duration, logger *log.Entry) *HTTPValidationClient {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	if logger == nil {
		logger = log.WithField("component", "validation-client")
	}
	return &HTTPValidationClient{
		userBaseURL:    userBaseURL,
		productBaseURL: productBaseURL,
		httpClient:     &http.Client{Timeout: timeout},
		logger:         logger,
	}
}

// GetBuyer запрашивает покупателя у справочника пользователей.
func (c *HTTPValidationClient) GetBuyer(ctx context.Context, buyerID string) (domain.BuyerIdentity, error) {
	var resp userResponse
	if err := c.getJSON(ctx, c.userBaseURL+"/users/"+url.PathEscape(buyerID), &resp); err != nil {
		c.logger.WithError(err).WithField("buyer_id", buyerID).Warn("buyer lookup failed")
		return domain.BuyerIdentity{}, fmt.Errorf("%w with ID: %s", domain.ErrBuyerNotFound, buyerID)
	}

	return domain.BuyerIdentity{
		ID:    resp.ID.String(),
		Name:  resp.Name,
		Email: resp.Email,
	}, nil
}

// GetProduct запрашивает снимок товара у каталога.
func (c *HTTPValidationClient) GetProduct(ctx context.Context, productID string) (domain.CatalogEntry, error) {
	var resp productResponse
	if err := c.getJSON(ctx, c.productBaseURL+"/products/"+url.PathEscape(productID), &resp); err != nil {
		c.logger.WithError(err).WithField("product_id", productID).Warn("product lookup failed")
		return domain.CatalogEntry{}, fmt.Errorf("%w with ID: %s", domain.ErrProductNotFound, productID)
	}

	return domain.CatalogEntry{
		ID:            resp.ID.String(),
		Name:          resp.Name,
		Description:   resp.Description,
		Price:         resp.Price,
		StockQuantity: resp.StockQuantity,
	}, nil
}

func (c *HTTPValidationClient) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("call %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", rawURL, err)
	}
	return nil
}

var _ domain.ValidationClient = (*HTTPValidationClient)(nil)
