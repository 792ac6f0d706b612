package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func sign(secret, orderID, paymentID string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(h.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	const secret = "test_key_secret"

	tests := []struct {
		name      string
		orderID   string
		paymentID string
		signature string
		want      bool
	}{
		{
			name:      "valid signature",
			orderID:   "order_IluGWxBm9U8zJ8",
			paymentID: "pay_IluGWxBm9U8zJ8",
			signature: sign(secret, "order_IluGWxBm9U8zJ8", "pay_IluGWxBm9U8zJ8"),
			want:      true,
		},
		{
			name:      "wrong secret",
			orderID:   "order_IluGWxBm9U8zJ8",
			paymentID: "pay_IluGWxBm9U8zJ8",
			signature: sign("other_secret", "order_IluGWxBm9U8zJ8", "pay_IluGWxBm9U8zJ8"),
			want:      false,
		},
		{
			name:      "swapped order and payment ids",
			orderID:   "order_A",
			paymentID: "pay_B",
			signature: sign(secret, "pay_B", "order_A"),
			want:      false,
		},
		{
			name:      "empty signature",
			orderID:   "order_A",
			paymentID: "pay_B",
			signature: "",
			want:      false,
		},
		{
			name:      "truncated signature",
			orderID:   "order_A",
			paymentID: "pay_B",
			signature: sign(secret, "order_A", "pay_B")[:32],
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifySignature(secret, tt.orderID, tt.paymentID, tt.signature); got != tt.want {
				t.Errorf("VerifySignature() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClientVerifySignatureUsesConfiguredSecret(t *testing.T) {
	c := NewClient(Config{KeyID: "rzp_test_x", KeySecret: "abc123"})
	sig := sign("abc123", "order_1", "pay_1")
	if !c.VerifySignature("order_1", "pay_1", sig) {
		t.Error("expected signature to verify with configured secret")
	}
	if c.VerifySignature("order_1", "pay_1", sign("wrong", "order_1", "pay_1")) {
		t.Error("expected signature with wrong secret to fail")
	}
}
