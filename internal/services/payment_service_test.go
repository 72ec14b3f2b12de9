package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func signPayload(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyHMACValidSignature(t *testing.T) {
	sig := signPayload("order_1", "pay_1", "secret")
	assert.True(t, VerifyHMAC("order_1", "pay_1", sig, "secret"))
}

func TestVerifyHMACRejectsTampering(t *testing.T) {
	sig := signPayload("order_1", "pay_1", "secret")

	assert.False(t, VerifyHMAC("order_2", "pay_1", sig, "secret"))
	assert.False(t, VerifyHMAC("order_1", "pay_2", sig, "secret"))
	assert.False(t, VerifyHMAC("order_1", "pay_1", sig, "other-secret"))
	assert.False(t, VerifyHMAC("order_1", "pay_1", "", "secret"))
}

func TestNewReceiptRefUnique(t *testing.T) {
	a := NewReceiptRef()
	b := NewReceiptRef()

	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "rcpt_")
}
