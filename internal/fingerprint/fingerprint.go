// Package fingerprint derives the anonymous visitor key used for engagement
// and comment deduplication.
package fingerprint

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Size is the length of a fingerprint string.
const Size = sha256.Size * 2

const fallbackIP = "0.0.0.0"

// Identity is the outcome of one derivation.
type Identity struct {
	Fingerprint string
	// VisitorID is the durable per-visitor token the client should keep.
	VisitorID string
	// Minted is true when VisitorID was generated for this request and must
	// be persisted by the caller.
	Minted bool
}

// Deriver hashes visitor tokens and network origins with a secret key.
type Deriver struct {
	secret []byte
}

// New creates a Deriver keyed with secret.
func New(secret string) *Deriver {
	return &Deriver{secret: []byte(secret)}
}

func (d *Deriver) hash(value string) string {
	mac := hmac.New(sha256.New, d.secret)
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}

// Derive returns the fingerprint for visitorID arriving over r. An empty
// visitorID is replaced by a freshly minted one.
func (d *Deriver) Derive(visitorID string, r *http.Request) Identity {
	id := Identity{VisitorID: strings.TrimSpace(visitorID)}
	if id.VisitorID == "" {
		id.VisitorID = uuid.NewString()
		id.Minted = true
	}
	id.Fingerprint = d.hash(d.hash(id.VisitorID) + ":" + d.hash(ClientIP(r)))
	return id
}

// ClientIP returns the best-effort origin address of r: the first
// X-Forwarded-For entry, then X-Real-IP, then the transport address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	if r.RemoteAddr == "" {
		return fallbackIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
