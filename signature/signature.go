package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

/* Inbound verification of provider signatures and outbound signing of
 * relayed payloads. All comparisons are constant-time: a length check
 * followed by hmac.Equal, so header contents never leak secret bytes
 * through timing.
 */

// Verify checks an inbound signature header against the payload.
// None always verifies; unknown algorithms always fail.
func Verify(alg Algorithm, payload []byte, header, secret string) bool {
	switch alg {
	case None:
		return true
	case Stripe:
		return verifyStripe(payload, header, secret)
	case GitHub:
		expected := "sha256=" + hmacHex(payload, secret)
		return timingSafeCompare(expected, header)
	case Shopify:
		expected := hmacBase64(payload, secret)
		return timingSafeCompare(expected, header)
	case GenericHMACSHA256:
		expected := hmacHex(payload, secret)
		return timingSafeCompare(expected, header)
	default:
		return false
	}
}

/* Stripe signs "{t}.{payload}" and sends a comma-joined key=value header:
 * t=1492774577,v1=5257a869e7...
 */
func verifyStripe(payload []byte, header, secret string) bool {
	var timestamp, sigV1 string
	for _, element := range strings.Split(header, ",") {
		key, value, found := strings.Cut(element, "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			sigV1 = value
		}
	}
	if timestamp == "" || sigV1 == "" {
		return false
	}

	signed := timestamp + "." + string(payload)
	expected := hmacHex([]byte(signed), secret)
	return timingSafeCompare(expected, sigV1)
}

// SignOutbound produces the delivery signature header value,
// t=<unix>,v1=<hex hmac-sha256 of "<unix>.<payload>">.
func SignOutbound(payload []byte, secret string, at time.Time) string {
	ts := at.Unix()
	signed := fmt.Sprintf("%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hmacHex([]byte(signed), secret))
}

func hmacHex(data []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}

func hmacBase64(data []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(data)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func timingSafeCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return hmac.Equal([]byte(a), []byte(b))
}
