package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifyPaymentSignature checks a synchronous checkout callback. The
// provider signs hex(HMAC-SHA256(orderID|paymentID)) with the key
// secret. A mismatch is a normal negative result, not an error.
func (c *Client) VerifyPaymentSignature(remoteOrderID, remotePaymentID, signature string) bool {
	expected := signHex([]byte(remoteOrderID+"|"+remotePaymentID), c.keySecret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhookSignature checks a webhook delivery. The signature is
// computed over the body bytes exactly as received; reserialized JSON
// would not verify.
func (c *Client) VerifyWebhookSignature(rawBody []byte, signature string) bool {
	expected := signHex(rawBody, c.webhookSecret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

func signHex(msg []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(msg)
	return hex.EncodeToString(mac.Sum(nil))
}
