package chain

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer signs verification reports with the node's secp256k1 key.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

func NewSigner(hexKey string) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("chain: parse node key: %w", err)
	}
	return &Signer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// Address is the node address derived from the signing key.
func (s *Signer) Address() common.Address {
	return s.address
}

// SignReport signs keccak256(report) and returns the 65-byte [R || S || V]
// signature. Pure compute; no state is touched.
func (s *Signer) SignReport(report []byte) ([]byte, error) {
	sig, err := crypto.Sign(crypto.Keccak256(report), s.key)
	if err != nil {
		return nil, fmt.Errorf("chain: sign report: %w", err)
	}
	return sig, nil
}
