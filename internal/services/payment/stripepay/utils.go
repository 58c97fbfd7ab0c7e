package stripepay

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// Hmac256 generates a hex-encoded HMAC-SHA256 hash.
func Hmac256(body, key []byte) string {
	hash := hmac.New(sha256.New, key)
	hash.Write(body)
	return hex.EncodeToString(hash.Sum(nil))
}

func requestID() string {
	min := big.NewInt(100000000000000000)
	max := big.NewInt(999999999999999999)
	n, err := rand.Int(rand.Reader, new(big.Int).Sub(max, min))
	if err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 10)
	}

	n.Add(n, min)
	return n.String()
}

// verifySignature validates a `t=<unix>,v1=<hex>` header. The signed
// payload is `<timestamp>.<body>` keyed by the endpoint secret.
func verifySignature(body []byte, header, key string, now time.Time, tolerance time.Duration) error {
	var ts, sig string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "v1":
			sig = v
		}
	}
	if ts == "" || sig == "" {
		return fmt.Errorf("stripepay: malformed signature header")
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return fmt.Errorf("stripepay: invalid signature timestamp")
	}
	age := now.Sub(time.Unix(unix, 0))
	if age > tolerance || age < -tolerance {
		return fmt.Errorf("stripepay: signature timestamp outside tolerance")
	}

	signed := fmt.Sprintf("%s.%s", ts, body)
	expected := Hmac256([]byte(signed), []byte(key))
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return fmt.Errorf("stripepay: signature mismatch")
	}
	return nil
}

// SignPayload builds a valid signature header for a body, used by tests
// and the development payment simulator.
func SignPayload(body []byte, key string, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	signed := fmt.Sprintf("%s.%s", ts, body)
	return fmt.Sprintf("t=%s,v1=%s", ts, Hmac256([]byte(signed), []byte(key)))
}
