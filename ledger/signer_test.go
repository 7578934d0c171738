package ledger

import (
	"crypto/ed25519"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

const testSeedHex = "0x9bf49a6a0755f953811fce125f2683d50429c3bb49e074147e0089a52eae155f"

func TestNewKeySignerDerivesStableSender(t *testing.T) {
	sender1, _, err := NewKeySigner(testSeedHex)
	require.NoError(t, err)
	sender2, _, err := NewKeySigner(strings.TrimPrefix(testSeedHex, "0x"))
	require.NoError(t, err)

	assert.Equal(t, sender1, sender2)
	assert.True(t, strings.HasPrefix(sender1, "0x"))
	assert.Len(t, sender1, 66)
}

func TestKeySignerSignaturesVerify(t *testing.T) {
	_, sign, err := NewKeySigner(testSeedHex)
	require.NoError(t, err)

	txBytes := []byte("serialized transaction")
	serialized, err := sign(txBytes)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(serialized)
	require.NoError(t, err)
	require.Len(t, raw, 1+ed25519.SignatureSize+ed25519.PublicKeySize)
	require.Equal(t, ed25519SchemeFlag, raw[0])

	signature := raw[1 : 1+ed25519.SignatureSize]
	publicKey := ed25519.PublicKey(raw[1+ed25519.SignatureSize:])
	message := append(append([]byte{}, transactionIntent...), txBytes...)
	digest := blake2b.Sum256(message)
	assert.True(t, ed25519.Verify(publicKey, digest[:], signature))
}

func TestNewKeySignerRejectsBadKeys(t *testing.T) {
	_, _, err := NewKeySigner("not-hex")
	assert.Error(t, err)
	_, _, err = NewKeySigner("0xabcd")
	assert.Error(t, err)
}
