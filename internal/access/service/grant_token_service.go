package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/grants/internal/access/domain"
	apperrors "github.com/allisson/grants/internal/errors"
)

// grantTokenService implements GrantTokenService with HMAC-SHA256 signatures
// over a base64url-encoded JSON payload. The token is self-describing but
// carries no authority: it only names the request to re-validate against.
type grantTokenService struct {
	secret []byte
}

// tokenPayload is the wire form of a grant token's signed content.
type tokenPayload struct {
	RequestID    uuid.UUID `json:"request_id"`
	AdminID      uuid.UUID `json:"admin_id"`
	TargetUserID uuid.UUID `json:"target_user_id"`
	IssuedAt     int64     `json:"iat"`
	ExpiresAt    int64     `json:"exp"`
}

// Sign encodes the token as "base64url(payload).base64url(hmac)".
func (g *grantTokenService) Sign(token *domain.GrantToken) (string, error) {
	payload := tokenPayload{
		RequestID:    token.RequestID,
		AdminID:      token.AdminID,
		TargetUserID: token.TargetUserID,
		IssuedAt:     token.IssuedAt.Unix(),
		ExpiresAt:    token.ExpiresAt.Unix(),
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to marshal grant token payload")
	}

	body := base64.RawURLEncoding.EncodeToString(encoded)
	signature := g.sign(body)

	return body + "." + signature, nil
}

// Verify decodes a token string and checks the signature in constant time.
func (g *grantTokenService) Verify(encoded string) (*domain.GrantToken, error) {
	body, signature, found := strings.Cut(encoded, ".")
	if !found || body == "" || signature == "" {
		return nil, domain.ErrInvalidGrantToken
	}

	if !hmac.Equal([]byte(g.sign(body)), []byte(signature)) {
		return nil, domain.ErrInvalidGrantToken
	}

	raw, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return nil, domain.ErrInvalidGrantToken
	}

	var payload tokenPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, domain.ErrInvalidGrantToken
	}

	return &domain.GrantToken{
		RequestID:    payload.RequestID,
		AdminID:      payload.AdminID,
		TargetUserID: payload.TargetUserID,
		IssuedAt:     time.Unix(payload.IssuedAt, 0).UTC(),
		ExpiresAt:    time.Unix(payload.ExpiresAt, 0).UTC(),
	}, nil
}

// sign computes the base64url-encoded HMAC-SHA256 of the body.
func (g *grantTokenService) sign(body string) string {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// NewGrantTokenService creates a GrantTokenService signing with the given secret.
func NewGrantTokenService(secret string) GrantTokenService {
	return &grantTokenService{secret: []byte(secret)}
}
