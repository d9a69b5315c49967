package contract

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Deployment tracks a contract creation transaction.
type Deployment struct {
	Address         common.Address // CREATE(from, nonce)
	Tx              *types.Transaction
	Receipt         *types.Receipt // set by Wait
	ConstructorArgs []byte         // ABI-encoded, as explorers expect them
}

// ConstructorArgs ABI-encodes constructor arguments.
func ConstructorArgs(parsed abi.ABI, args ...interface{}) ([]byte, error) {
	packed, err := parsed.Pack("", args...)
	if err != nil {
		return nil, fmt.Errorf("encoding constructor arguments: %w", err)
	}
	return packed, nil
}

// Deploy submits the artifact's creation code followed by the encoded
// constructor arguments. It does not wait for the transaction to be mined.
func Deploy(ctx context.Context, s *Sender, art *Artifact, args ...interface{}) (*Deployment, error) {
	parsed, err := art.EthABI()
	if err != nil {
		return nil, err
	}
	ctorArgs, err := ConstructorArgs(parsed, args...)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, len(art.Bytecode)+len(ctorArgs))
	data = append(data, art.Bytecode...)
	data = append(data, ctorArgs...)

	tx, err := s.Send(ctx, nil, data)
	if err != nil {
		return nil, fmt.Errorf("sending deployment: %w", err)
	}

	return &Deployment{
		Address:         crypto.CreateAddress(s.From(), tx.Nonce()),
		Tx:              tx,
		ConstructorArgs: ctorArgs,
	}, nil
}

// Wait blocks until the deployment is mined and checks that the receipt
// reports the expected contract address.
func (d *Deployment) Wait(ctx context.Context, s *Sender) (*types.Receipt, error) {
	receipt, err := s.WaitMined(ctx, d.Tx)
	if err != nil {
		return receipt, fmt.Errorf("waiting for deployment: %w", err)
	}
	if receipt.ContractAddress != d.Address {
		return receipt, fmt.Errorf("deployment receipt reports contract %s, expected %s",
			receipt.ContractAddress.Hex(), d.Address.Hex())
	}
	d.Receipt = receipt
	return receipt, nil
}
