package id

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

// NewContractAddress derives a fresh address for a contract-like instance
// (loan engine, bundle) created by deployer. The kind is folded into the
// init hash so loans and bundles never share an address space.
func NewContractAddress(deployer common.Address, kind string) common.Address {
	salt := uuid.New()
	var s [32]byte
	copy(s[:], crypto.Keccak256(salt[:]))
	return crypto.CreateAddress2(deployer, s, crypto.Keccak256([]byte(kind)))
}
