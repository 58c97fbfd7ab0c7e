package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
)

// Hmac512 generates a hex-encoded HMAC-SHA512 hash.
func Hmac512(body, key []byte) string {
	hash := hmac.New(sha512.New, key)
	hash.Write(body)
	return hex.EncodeToString(hash.Sum(nil))
}

func verifySignature(body []byte, signature, key string) error {
	expected := Hmac512(body, []byte(key))
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return fmt.Errorf("paystack: signature mismatch")
	}
	return nil
}
