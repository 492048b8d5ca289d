package chain

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestSignerRecoverableSignature(t *testing.T) {
	signer, err := NewSigner(testKey)
	require.NoError(t, err)

	report := []byte("encoded report bytes")
	sig, err := signer.SignReport(report)
	require.NoError(t, err)
	require.Len(t, sig, 65)

	pub, err := crypto.SigToPub(crypto.Keccak256(report), sig)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), crypto.PubkeyToAddress(*pub))
}

func TestSignerAccepts0xPrefix(t *testing.T) {
	a, err := NewSigner(testKey)
	require.NoError(t, err)
	b, err := NewSigner("0x" + testKey)
	require.NoError(t, err)

	assert.Equal(t, a.Address(), b.Address())
}

func TestSignerRejectsBadKey(t *testing.T) {
	_, err := NewSigner("not-a-key")
	assert.Error(t, err)
}
