package events

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
)

// SignatureHeaders is the id/timestamp/signature triplet attached to
// signed webhook deliveries. The realtime transcript delivery path does
// not sign its requests, so the triplet may legitimately be absent.
type SignatureHeaders struct {
	ID        string
	Timestamp string
	Signature string
}

// HeadersFromRequest extracts the signature triplet from request
// headers (svix-* with webhook-* as the documented aliases).
func HeadersFromRequest(h http.Header) SignatureHeaders {
	pick := func(names ...string) string {
		for _, n := range names {
			if v := h.Get(n); v != "" {
				return v
			}
		}
		return ""
	}
	return SignatureHeaders{
		ID:        pick("svix-id", "webhook-id"),
		Timestamp: pick("svix-timestamp", "webhook-timestamp"),
		Signature: pick("svix-signature", "webhook-signature"),
	}
}

// Present reports whether the full triplet was delivered. Verification
// only applies when it was; an unsigned delivery skips it by design.
func (s SignatureHeaders) Present() bool {
	return s.ID != "" && s.Timestamp != "" && s.Signature != ""
}

// Verifier checks a webhook body against its signature triplet using a
// shared secret. Pluggable so handlers can be tested without real keys.
type Verifier func(body []byte, hdr SignatureHeaders, secret string) bool

// Verify implements the provider's HMAC-SHA256 scheme: the signed
// content is "id.timestamp.body", the secret is base64 after an
// optional "whsec_" prefix, and the signature header holds one or more
// space-separated "v1,<base64>" entries, any of which may match.
func Verify(body []byte, hdr SignatureHeaders, secret string) bool {
	if !hdr.Present() || secret == "" {
		return false
	}

	key := []byte(strings.TrimPrefix(secret, "whsec_"))
	if decoded, err := base64.StdEncoding.DecodeString(string(key)); err == nil {
		key = decoded
	}

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(hdr.ID))
	mac.Write([]byte("."))
	mac.Write([]byte(hdr.Timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	for _, entry := range strings.Fields(hdr.Signature) {
		candidate := entry
		if i := strings.IndexByte(entry, ','); i >= 0 {
			if entry[:i] != "v1" {
				continue
			}
			candidate = entry[i+1:]
		}
		if hmac.Equal([]byte(candidate), []byte(expected)) {
			return true
		}
	}
	return false
}
