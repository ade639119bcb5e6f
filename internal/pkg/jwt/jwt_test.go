package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func TestAccessTokenRoundTrip(t *testing.T) {
	key := testKey(t)
	gen := NewGenerator(key, "kunden-service", "kunden-ui", "k1", time.Hour)
	ver := NewVerifier(&key.PublicKey, "kunden-service", "kunden-ui")

	token, jti, err := gen.GenerateAccessToken("jsmith", "John Smith", "firefox")
	require.NoError(t, err)
	require.NotEmpty(t, jti)

	claims, err := ver.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "jsmith", claims.Username)
	assert.Equal(t, "John Smith", claims.DisplayName)
	assert.Equal(t, jti, claims.ID)
}

func TestVerify_Rejects(t *testing.T) {
	key := testKey(t)
	gen := NewGenerator(key, "kunden-service", "kunden-ui", "", time.Hour)

	token, _, err := gen.GenerateAccessToken("jsmith", "John Smith", "")
	require.NoError(t, err)

	_, err = NewVerifier(&key.PublicKey, "other", "kunden-ui").VerifyAccessToken(token)
	assert.Error(t, err, "issuer mismatch")

	_, err = NewVerifier(&key.PublicKey, "kunden-service", "other").VerifyAccessToken(token)
	assert.Error(t, err, "audience mismatch")

	_, err = NewVerifier(&testKey(t).PublicKey, "kunden-service", "kunden-ui").VerifyAccessToken(token)
	assert.Error(t, err, "foreign key")

	expired := NewGenerator(key, "kunden-service", "kunden-ui", "", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.GenerateAccessToken("jsmith", "John Smith", "")
	require.NoError(t, err)
	_, err = NewVerifier(&key.PublicKey, "kunden-service", "kunden-ui").VerifyAccessToken(old)
	assert.Error(t, err, "expired")
}

func TestLoadAndBuild(t *testing.T) {
	key := testKey(t)
	dir := t.TempDir()

	privPath := filepath.Join(dir, "jwt_private.pem")
	pubPath := filepath.Join(dir, "jwt_public.pem")
	require.NoError(t, os.WriteFile(privPath, pem.EncodeToMemory(&pem.Block{
		Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key),
	}), 0o600))
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(pubPath, pem.EncodeToMemory(&pem.Block{
		Type: "PUBLIC KEY", Bytes: pubDER,
	}), 0o644))

	m, err := LoadAndBuild(Config{
		PrivPath: privPath, PubPath: pubPath, Issuer: "i", Audience: "a", TTL: time.Minute,
	})
	require.NoError(t, err)

	token, _, err := m.Generator.GenerateAccessToken("jsmith", "John Smith", "")
	require.NoError(t, err)
	_, err = m.Verifier.VerifyAccessToken(token)
	assert.NoError(t, err)

	_, err = LoadAndBuild(Config{PrivPath: filepath.Join(dir, "missing.pem"), PubPath: pubPath})
	assert.Error(t, err)
}

func TestLoadAndBuild_PublicKeyFallbackAndMismatch(t *testing.T) {
	key := testKey(t)
	dir := t.TempDir()

	privPath := filepath.Join(dir, "jwt_private.pem")
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(privPath, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), 0o600))

	m, err := LoadAndBuild(Config{PrivPath: privPath, PubPath: filepath.Join(dir, "absent.pem"), Issuer: "i", Audience: "a", TTL: time.Minute})
	require.NoError(t, err)
	token, _, err := m.Generator.GenerateAccessToken("jsmith", "John Smith", "")
	require.NoError(t, err)
	_, err = m.Verifier.VerifyAccessToken(token)
	assert.NoError(t, err)

	otherPath := filepath.Join(dir, "other_public.pem")
	require.NoError(t, os.WriteFile(otherPath, pem.EncodeToMemory(&pem.Block{
		Type: "RSA PUBLIC KEY", Bytes: x509.MarshalPKCS1PublicKey(&testKey(t).PublicKey),
	}), 0o644))
	_, err = LoadAndBuild(Config{PrivPath: privPath, PubPath: otherPath})
	assert.ErrorContains(t, err, "does not match")
}
