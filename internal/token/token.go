package token

import (
	"crypto/rand"
	"fmt"
	"time"

	"crm-dialer/model"
	"github.com/dgrijalva/jwt-go"
	"github.com/rotisserie/eris"
)

var (
	errUnexpectedSigningMethod = eris.New("unexpected signing method")
	errEmptyAudioURL           = eris.New("token carries no audio url")
)

type Token struct {
	signingKey []byte
	now        func() time.Time
}

func New(signKey string) *Token {
	return &Token{
		signingKey: []byte(signKey),
		now:        time.Now,
	}
}

// NewAudioToken signs audioURL into a token that expires after ttl.
func (t *Token) NewAudioToken(audioURL string, ttl time.Duration) (string, error) {
	now := t.now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, model.AudioClaims{
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
		AudioURL: audioURL,
	})

	tokenString, err := token.SignedString(t.signingKey)
	if err != nil {
		return "", eris.Wrap(err, "failed to sign audio token")
	}

	return tokenString, nil
}

// ParseAudioToken verifies the signature and expiry and returns the audio URL.
func (t *Token) ParseAudioToken(tokenString string) (string, error) {
	claims := &model.AudioClaims{}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(tk *jwt.Token) (interface{}, error) {
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errUnexpectedSigningMethod
		}
		return t.signingKey, nil
	})
	if err != nil {
		return "", eris.Wrap(err, "invalid audio token")
	}

	if claims.AudioURL == "" {
		return "", errEmptyAudioURL
	}

	return claims.AudioURL, nil
}

// NewSigningKey returns a random hex key for processes started without a secret.
func NewSigningKey() (string, error) {
	b := make([]byte, 32)

	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", b), nil
}
