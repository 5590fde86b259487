package identity

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mitchellh/mapstructure"

	"social-service/internal/apperr"
	"social-service/internal/config"
	"social-service/internal/models"
)

// TokenVerifier checks HS256 bearer tokens minted by the external identity
// provider and turns their claims into a Session.
type TokenVerifier struct {
	secret   []byte
	issuer   string
	audience string
}

func NewTokenVerifier(cfg config.Identity) *TokenVerifier {
	return &TokenVerifier{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
	}
}

func (v *TokenVerifier) Verify(raw string) (models.Session, error) {
	if len(v.secret) == 0 {
		return models.Session{}, apperr.Authentication("identity verification is not configured")
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.Session{}, apperr.Authentication("missing token")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return models.Session{}, apperr.Authentication("invalid token")
	}

	var session models.Session
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		Result:           &session,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return models.Session{}, apperr.Authentication("invalid token claims")
	}
	if err := dec.Decode(map[string]interface{}(claims)); err != nil {
		return models.Session{}, apperr.Authentication("invalid token claims")
	}
	if strings.TrimSpace(session.SubjectID) == "" {
		return models.Session{}, apperr.Authentication("token has no subject")
	}
	return session, nil
}
