package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Gateway define la interfaz hacia la pasarela de pago externa.
type Gateway interface {
	// CreateOrder registra una orden por el importe en unidades menores.
	CreateOrder(ctx context.Context, input OrderInput) (Order, error)
	// VerifySignature valida la firma del callback de éxito del widget.
	VerifySignature(orderID, paymentID, signature string) bool
	// KeyID expone la clave pública que el widget necesita para abrirse.
	KeyID() string
}

// OrderInput describe la orden a crear; Amount va en paise.
type OrderInput struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]string
}

// Order es la orden registrada en la pasarela.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// CheckoutOptions es la configuración con la que el cliente abre el widget:
// importe en unidades menores, moneda y datos de contacto prellenados.
type CheckoutOptions struct {
	Key         string  `json:"key"`
	Amount      int64   `json:"amount"`
	Currency    string  `json:"currency"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	OrderID     string  `json:"order_id"`
	Prefill     Prefill `json:"prefill"`
	ThemeColor  string  `json:"theme_color"`
}

type Prefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// Client implementa Gateway contra la API REST de la pasarela.
type Client struct {
	baseURL   string
	keyID     string
	keySecret string
	client    *http.Client
	logger    *zap.Logger
}

func NewClient(baseURL, keyID, keySecret string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://api.razorpay.com/v1"
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		keyID:     keyID,
		keySecret: keySecret,
		client:    &http.Client{Timeout: 15 * time.Second},
		logger:    logger,
	}
}

func (c *Client) KeyID() string {
	return c.keyID
}

func (c *Client) CreateOrder(ctx context.Context, input OrderInput) (Order, error) {
	if input.Currency == "" {
		input.Currency = "INR"
	}
	reqBody := orderRequest{
		Amount:   input.Amount,
		Currency: input.Currency,
		Receipt:  input.Receipt,
		Notes:    input.Notes,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return Order{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(bodyBytes))
	if err != nil {
		return Order{}, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// Fallo de carga/contacto con la pasarela: rama de error propia,
		// distinta del rechazo de un pago.
		return Order{}, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Order{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		if c.logger != nil {
			c.logger.Warn("payment gateway error",
				zap.Int("status", resp.StatusCode), zap.ByteString("body", respBody))
		}
		return Order{}, fmt.Errorf("payment gateway error: status=%d", resp.StatusCode)
	}

	var order Order
	if err := json.Unmarshal(respBody, &order); err != nil {
		return Order{}, fmt.Errorf("unmarshal response: %w", err)
	}
	return order, nil
}

// VerifySignature comprueba HMAC-SHA256(order_id|payment_id) con la clave
// secreta, en tiempo constante.
func (c *Client) VerifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

type orderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}
