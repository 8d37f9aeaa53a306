package token

import (
	"testing"
	"time"

	"crm-dialer/model"
	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken_RoundTrip(t *testing.T) {
	tk := New("secret")

	s, err := tk.NewAudioToken("https://x/y.mp3?v=2&lang=en", time.Hour)
	require.NoError(t, err)

	url, err := tk.ParseAudioToken(s)
	assert.NoError(t, err)
	assert.Equal(t, "https://x/y.mp3?v=2&lang=en", url)
}

func TestToken_WrongKey(t *testing.T) {
	s, err := New("secret").NewAudioToken("https://x/y.mp3", time.Hour)
	require.NoError(t, err)

	_, err = New("other").ParseAudioToken(s)
	assert.Error(t, err)
}

func TestToken_Expired(t *testing.T) {
	tk := New("secret")
	tk.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	s, err := tk.NewAudioToken("https://x/y.mp3", time.Hour)
	require.NoError(t, err)

	_, err = New("secret").ParseAudioToken(s)
	assert.Error(t, err)
}

func TestToken_Garbage(t *testing.T) {
	_, err := New("secret").ParseAudioToken("not-a-token")
	assert.Error(t, err)

	_, err = New("secret").ParseAudioToken("")
	assert.Error(t, err)
}

func TestToken_NoneAlgorithmRejected(t *testing.T) {
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, model.AudioClaims{AudioURL: "https://evil/x.mp3"})
	s, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = New("secret").ParseAudioToken(s)
	assert.Error(t, err)
}

func TestNewSigningKey(t *testing.T) {
	a, err := NewSigningKey()
	require.NoError(t, err)
	b, err := NewSigningKey()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
