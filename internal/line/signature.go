// Package line implements the messaging-channel edge: webhook signature
// verification, event decoding, and the reply API client.
package line

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

// ValidateSignature checks the X-Line-Signature header value against the raw
// request body: base64(HMAC-SHA256(channelSecret, body)).
func ValidateSignature(channelSecret string, body []byte, signature string) bool {
	decoded, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(body)
	return hmac.Equal(decoded, mac.Sum(nil))
}
