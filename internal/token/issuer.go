// Package token mints LiveKit-compatible room join tokens. Tokens are
// ephemeral capabilities, never persisted, regenerated per request.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TTL is the fixed validity window for join tokens.
const TTL = 6 * time.Hour

// RoomName derives the media room name for a memorial.
func RoomName(memorialID string) string {
	return "memorial-" + memorialID
}

// VideoGrant is the LiveKit video grant claim.
type VideoGrant struct {
	RoomJoin     bool   `json:"roomJoin"`
	Room         string `json:"room"`
	CanPublish   bool   `json:"canPublish"`
	CanSubscribe bool   `json:"canSubscribe"`
}

// CameraGrant is publish-only: a camera never receives other participants'
// media.
func CameraGrant(room string) VideoGrant {
	return VideoGrant{RoomJoin: true, Room: room, CanPublish: true, CanSubscribe: false}
}

// SwitcherGrant is publish+subscribe: the switcher composites incoming feeds
// and publishes the program output.
func SwitcherGrant(room string) VideoGrant {
	return VideoGrant{RoomJoin: true, Room: room, CanPublish: true, CanSubscribe: true}
}

// Claims is the LiveKit access-token claim layout.
type Claims struct {
	Name  string     `json:"name,omitempty"`
	Video VideoGrant `json:"video"`
	jwt.RegisteredClaims
}

// Issuer signs join tokens with the LiveKit API key pair.
type Issuer struct {
	apiKey    string
	apiSecret string
	serverURL string
}

// NewIssuer creates a token issuer. An issuer with missing credentials is
// valid but disabled; Mint returns an empty token in that case.
func NewIssuer(apiKey, apiSecret, serverURL string) *Issuer {
	return &Issuer{apiKey: apiKey, apiSecret: apiSecret, serverURL: serverURL}
}

// Enabled reports whether signing credentials are configured.
func (i *Issuer) Enabled() bool {
	return i.apiKey != "" && i.apiSecret != ""
}

// ServerURL is the media server endpoint handed to clients alongside tokens.
func (i *Issuer) ServerURL() string { return i.serverURL }

// Mint signs a join token for an identity with the given grant. Returns
// ("", nil) when the issuer is not configured — callers surface that as a
// configuration problem, not a crash.
func (i *Issuer) Mint(identity, displayName string, grant VideoGrant) (string, error) {
	if !i.Enabled() {
		return "", nil
	}
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Name:  displayName,
		Video: grant,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.apiKey,
			Subject:   identity,
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TTL)),
		},
	})
	signed, err := tok.SignedString([]byte(i.apiSecret))
	if err != nil {
		return "", fmt.Errorf("sign join token: %w", err)
	}
	return signed, nil
}
