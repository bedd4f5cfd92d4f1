package auth

import (
	"crypto"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func b64(v any) string {
	b, _ := json.Marshal(v)
	return base64.RawURLEncoding.EncodeToString(b)
}

func hs256(t *testing.T, secret string, claims map[string]any) string {
	t.Helper()
	in := b64(map[string]string{"alg": "HS256", "typ": "JWT"}) + "." + b64(claims)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(in))
	return in + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifyDev(t *testing.T) {
	v := NewVerifier(Options{})
	p, err := v.Verify("driver-7")
	require.NoError(t, err)
	assert.Equal(t, Principal{DriverID: "driver-7", Role: "driver"}, p)

	p, err = v.Verify("driver-7:Admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", p.Role)

	_, err = v.Verify("")
	assert.Error(t, err)
}

func TestVerifyHMAC(t *testing.T) {
	v := NewVerifier(Options{Mode: "hmac", HMACSecret: "s3cret"})

	p, err := v.Verify(hs256(t, "s3cret", map[string]any{"sub": "driver-9"}))
	require.NoError(t, err)
	assert.Equal(t, "driver-9", p.DriverID)

	_, err = v.Verify(hs256(t, "other", map[string]any{"sub": "driver-9"}))
	assert.ErrorIs(t, err, ErrBadSignature)

	_, err = v.Verify(hs256(t, "s3cret", map[string]any{"name": "no subject"}))
	assert.ErrorContains(t, err, "missing driver claim")

	_, err = v.Verify("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyHMACExpiry(t *testing.T) {
	v := NewVerifier(Options{Mode: "hmac", HMACSecret: "s3cret"})
	now := time.Unix(1_700_000_000, 0)
	v.now = func() time.Time { return now }

	_, err := v.Verify(hs256(t, "s3cret", map[string]any{"sub": "d", "exp": now.Add(-time.Minute).Unix()}))
	assert.ErrorContains(t, err, "expired")

	_, err = v.Verify(hs256(t, "s3cret", map[string]any{"sub": "d", "exp": now.Add(time.Minute).Unix()}))
	assert.NoError(t, err)
}

func TestVerifyJWKS(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": []map[string]string{{
			"kty": "RSA",
			"kid": "k1",
			"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}}})
	}))
	defer srv.Close()

	in := b64(map[string]string{"alg": "RS256", "kid": "k1"}) + "." + b64(map[string]any{"driver": "driver-3"})
	h := sha256.Sum256([]byte(in))
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, h[:])
	require.NoError(t, err)

	v := NewVerifier(Options{Mode: "jwks", JWKSURL: srv.URL, DriverClaim: "driver"})
	p, err := v.Verify(in + "." + base64.RawURLEncoding.EncodeToString(sig))
	require.NoError(t, err)
	assert.Equal(t, "driver-3", p.DriverID)

	sig[0] ^= 0xff
	_, err = v.Verify(in + "." + base64.RawURLEncoding.EncodeToString(sig))
	assert.ErrorIs(t, err, ErrBadSignature)
}
