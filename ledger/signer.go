package ledger

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/dapphub-labs/dapphub/util"
)

// ed25519SchemeFlag prefixes ed25519 public keys and signatures on the wire.
const ed25519SchemeFlag byte = 0x00

// transactionIntent scopes signatures to transaction data.
var transactionIntent = []byte{0, 0, 0}

// NewKeySigner derives the sender address and a SignerFunc from a hex-encoded
// ed25519 seed. The signature covers the intent-prefixed blake2b digest of the
// transaction bytes, serialized as flag || signature || public key.
func NewKeySigner(privateKeyHex string) (string, SignerFunc, error) {
	seed, err := util.DecodeHex(privateKeyHex)
	if err != nil {
		return "", nil, fmt.Errorf("decode private key: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return "", nil, fmt.Errorf("private key must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	key := ed25519.NewKeyFromSeed(seed)
	publicKey := key.Public().(ed25519.PublicKey)

	addrInput := make([]byte, 0, 1+len(publicKey))
	addrInput = append(addrInput, ed25519SchemeFlag)
	addrInput = append(addrInput, publicKey...)
	addrDigest := blake2b.Sum256(addrInput)
	sender := "0x" + hex.EncodeToString(addrDigest[:])

	sign := func(txBytes []byte) (string, error) {
		message := make([]byte, 0, len(transactionIntent)+len(txBytes))
		message = append(message, transactionIntent...)
		message = append(message, txBytes...)
		digest := blake2b.Sum256(message)
		signature := ed25519.Sign(key, digest[:])

		serialized := make([]byte, 0, 1+len(signature)+len(publicKey))
		serialized = append(serialized, ed25519SchemeFlag)
		serialized = append(serialized, signature...)
		serialized = append(serialized, publicKey...)
		return base64.StdEncoding.EncodeToString(serialized), nil
	}
	return sender, sign, nil
}
