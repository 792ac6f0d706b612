package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log"

	"github.com/oklog/ulid/v2"

	"gymdesk/internal/infrastructure/razorpay"
)

// GatewayOrder is a payment order handed to the browser checkout.
type GatewayOrder struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"key_id"`
}

// PaymentGateway defines the interface for online payment integrations
type PaymentGateway interface {
	// CreateOrder registers an order with the gateway before checkout.
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*GatewayOrder, error)
	// VerifySignature reports whether a capture callback is authentic.
	VerifySignature(orderID, paymentID, signature string) bool
}

// MockGateway is a PaymentGateway for development: orders are fabricated
// locally and signatures are verified against a fixed test secret.
type MockGateway struct{}

const mockGatewaySecret = "gymdesk-mock-secret"

// RazorpayAdapter adapts the razorpay.Client to PaymentGateway
type RazorpayAdapter struct {
	client *razorpay.Client
	keyID  string
}

// GatewayConfig selects and configures the gateway implementation.
type GatewayConfig struct {
	KeyID     string
	KeySecret string
	BaseURL   string
}

// NewPaymentGateway returns the appropriate PaymentGateway based on config.
// Without credentials it returns the mock, so local development never needs
// a Razorpay account.
func NewPaymentGateway(cfg GatewayConfig) PaymentGateway {
	if cfg.KeyID == "" || cfg.KeySecret == "" {
		log.Println("[Payment] Using mock payment gateway (no credentials configured)")
		return &MockGateway{}
	}

	log.Printf("[Payment] Using Razorpay gateway (key: %s)", cfg.KeyID)
	return &RazorpayAdapter{
		client: razorpay.NewClient(razorpay.Config{
			KeyID:     cfg.KeyID,
			KeySecret: cfg.KeySecret,
			BaseURL:   cfg.BaseURL,
		}),
		keyID: cfg.KeyID,
	}
}

// CreateOrder fabricates an order id locally
func (m *MockGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*GatewayOrder, error) {
	return &GatewayOrder{
		OrderID:  "order_MOCK" + ulid.Make().String(),
		Amount:   amount,
		Currency: currency,
		KeyID:    "rzp_test_mock",
	}, nil
}

// VerifySignature accepts signatures computed with the fixed mock secret,
// which is what SignMock produces.
func (m *MockGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return hmac.Equal([]byte(SignMock(orderID, paymentID)), []byte(signature))
}

// SignMock computes the signature the mock gateway expects. Exported so
// integration tests can drive the verify endpoint end to end.
func SignMock(orderID, paymentID string) string {
	h := hmac.New(sha256.New, []byte(mockGatewaySecret))
	h.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(h.Sum(nil))
}

// CreateOrder registers a real order via the Razorpay API
func (a *RazorpayAdapter) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*GatewayOrder, error) {
	order, err := a.client.CreateOrder(ctx, amount, currency, receipt)
	if err != nil {
		log.Printf("[Payment] Razorpay API error: %v", err)
		return nil, err
	}
	return &GatewayOrder{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		KeyID:    a.keyID,
	}, nil
}

func (a *RazorpayAdapter) VerifySignature(orderID, paymentID, signature string) bool {
	return a.client.VerifySignature(orderID, paymentID, signature)
}
