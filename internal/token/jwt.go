package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dtroode/vidtube-accounts/internal/model"
)

// Claims represents JWT claims with token kind and account ID.
type Claims struct {
	jwt.RegisteredClaims
	AccountID uuid.UUID `json:"account_id"`
	TokenType string    `json:"typ"`
}

// Config contains token signing parameters.
type Config struct {
	Secret string
	// Now overrides the clock used for issuing and expiry checks. Defaults to time.Now.
	Now func() time.Time
}

// JWT implements TokenCodec backed by symmetric HMAC.
type JWT struct {
	secretKey []byte
	now       func() time.Time
}

var _ model.TokenCodec = (*JWT)(nil)

// NewJWT creates a new JWT codec with the provided configuration.
func NewJWT(cfg Config) (*JWT, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &JWT{secretKey: []byte(cfg.Secret), now: now}, nil
}

// Issue creates a signed token of the given kind that expires after ttl.
func (j *JWT) Issue(accountID uuid.UUID, kind model.TokenKind, ttl time.Duration) (string, error) {
	if !validKind(kind) {
		return "", fmt.Errorf("unknown token kind %q", kind)
	}

	now := j.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   accountID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		AccountID: accountID,
		TokenType: string(kind),
	})

	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}

	return tokenString, nil
}

// Verify validates signature and expiry and returns the decoded claims.
func (j *JWT) Verify(tokenString string) (model.TokenClaims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return j.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return model.TokenClaims{}, fmt.Errorf("%w: %v", model.ErrInvalidToken, err)
	}
	if !token.Valid {
		return model.TokenClaims{}, model.ErrInvalidToken
	}

	kind := model.TokenKind(claims.TokenType)
	if !validKind(kind) {
		return model.TokenClaims{}, fmt.Errorf("%w: unknown token kind %q", model.ErrInvalidToken, claims.TokenType)
	}
	if claims.AccountID == uuid.Nil {
		return model.TokenClaims{}, fmt.Errorf("%w: missing account id", model.ErrInvalidToken)
	}

	// NumericDate has second precision, so a token issued with a zero ttl
	// carries exp <= now and is already rejected by the parser above.
	return model.TokenClaims{
		AccountID: claims.AccountID,
		Kind:      kind,
		ID:        claims.ID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func validKind(kind model.TokenKind) bool {
	return kind == model.TokenKindAccess || kind == model.TokenKindRefresh
}
