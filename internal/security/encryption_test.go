package security

import (
	"testing"

	"github.com/einvoicehub/einvoicehub/internal/config"
	ierr "github.com/einvoicehub/einvoicehub/internal/errors"
	"github.com/einvoicehub/einvoicehub/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAESCodecRoundTrip(t *testing.T) {
	codec := NewAESCodec()

	for _, plaintext := range []string{
		"hello",
		"",
		`{"CmdType":100,"CommandObject":{}}`,
		"unicode: hoá đơn điện tử",
	} {
		envelope, err := codec.Encrypt(plaintext, "some-shared-key")
		require.NoError(t, err)
		got, err := codec.Decrypt(envelope, "some-shared-key")
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
	}
}

func TestAESCodecFreshNoncePerCall(t *testing.T) {
	codec := NewAESCodec()

	a, err := codec.Encrypt("same payload", "key")
	require.NoError(t, err)
	b, err := codec.Encrypt("same payload", "key")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestAESCodecRefusesEmptyKey(t *testing.T) {
	codec := NewAESCodec()

	_, err := codec.Encrypt("payload", "")
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))

	_, err = codec.Decrypt("payload", "")
	require.Error(t, err)
}

func TestAESCodecWrongKeyFailsAuthentication(t *testing.T) {
	codec := NewAESCodec()

	envelope, err := codec.Encrypt("payload", "right-key")
	require.NoError(t, err)

	_, err = codec.Decrypt(envelope, "wrong-key")
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}

func TestAESCodecTamperedEnvelopeRejected(t *testing.T) {
	codec := NewAESCodec()

	envelope, err := codec.Encrypt("payload", "key")
	require.NoError(t, err)

	// Flip a character inside the base64 body
	tampered := []byte(envelope)
	if tampered[10] == 'A' {
		tampered[10] = 'B'
	} else {
		tampered[10] = 'A'
	}
	_, err = codec.Decrypt(string(tampered), "key")
	assert.Error(t, err)

	_, err = codec.Decrypt("not base64 !!", "key")
	assert.Error(t, err)

	_, err = codec.Decrypt("c2hvcnQ=", "key")
	assert.Error(t, err, "envelope shorter than a nonce must be rejected")
}

func TestEncryptionServiceRoundTrip(t *testing.T) {
	cfg := config.GetDefaultConfig()
	svc, err := NewEncryptionService(cfg, logger.L)
	require.NoError(t, err)

	out, err := svc.Encrypt("secret-credential")
	require.NoError(t, err)
	assert.NotEqual(t, "secret-credential", out)

	got, err := svc.Decrypt(out)
	require.NoError(t, err)
	assert.Equal(t, "secret-credential", got)

	// Empty values pass through untouched
	out, err = svc.Encrypt("")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestEncryptionServiceRequiresMasterKey(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Secrets.EncryptionKey = ""
	_, err := NewEncryptionService(cfg, logger.L)
	assert.Error(t, err)
}

func TestDeriveKeyDeterministic(t *testing.T) {
	a := DeriveKey("partner-token", "partner-guid")
	b := DeriveKey("partner-token", "partner-guid")
	assert.Equal(t, a, b)

	c := DeriveKey("partner-token", "other-guid")
	assert.NotEqual(t, a, c)

	d := DeriveKey("other-token", "partner-guid")
	assert.NotEqual(t, a, d)

	// 32 bytes hex encoded
	assert.Len(t, a, 64)
}
