package model

import (
	"github.com/dgrijalva/jwt-go"
)

// AudioClaims travel inside the answer callback URL of a single call.
type AudioClaims struct {
	jwt.StandardClaims
	AudioURL string `json:"audio_url"`
}
