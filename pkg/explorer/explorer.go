package explorer

import (
	"context"
	"errors"
)

var (
	// ErrEmptyAddressList ...
	ErrEmptyAddressList = errors.New("address list must not be empty")
	// ErrTransactionNotFound is returned when the explorer does not know a
	// transaction.
	ErrTransactionNotFound = errors.New("transaction not found")
)

// Action classifies the net effect of a transaction on a wallet.
type Action string

const (
	// Incoming means the transaction increased the wallet balance.
	Incoming Action = "incoming"
	// Outgoing means the transaction did not increase the wallet balance.
	Outgoing Action = "outgoing"
)

// UnconfirmedBlockID is the block id reported for mempool transactions and
// their outputs.
const UnconfirmedBlockID = int64(-1)

// TxActivity is the balance delta that a transaction causes to one address.
type TxActivity struct {
	Hash          string `json:"hash"`
	Address       string `json:"address,omitempty"`
	BalanceChange int64  `json:"balance_change"`
	BlockID       int64  `json:"block_id"`
	Time          int64  `json:"time"`
	Action        Action `json:"action,omitempty"`
}

// Utxo is an unspent output as reported by an explorer.
type Utxo struct {
	Address         string `json:"address"`
	BlockID         int64  `json:"block_id"`
	TransactionHash string `json:"transaction_hash"`
	Index           uint32 `json:"index"`
	Value           int64  `json:"value"`
}

// AddressInfo is the activity of a batch of addresses.
type AddressInfo struct {
	Transactions []TxActivity `json:"transactions"`
	Utxos        []Utxo       `json:"utxo"`
	LastBlock    int64        `json:"lastblock"`
}

// HasActivity returns whether any transaction involves the given address.
func (i *AddressInfo) HasActivity(address string) bool {
	for _, tx := range i.Transactions {
		if tx.Address == address {
			return true
		}
	}
	return false
}

// FeeLevel is a fee rate suggested by the explorer, in satoshi per byte.
type FeeLevel struct {
	Level      string `json:"level"`
	FeePerByte string `json:"feePerByte"`
}

// RawTx is a transaction serialized in hex format.
type RawTx struct {
	Hash    string `json:"hash"`
	RawData string `json:"rawData"`
}

// Service is the representation of a block explorer that allows to fetch
// data about addresses, fees and transactions, and to broadcast transactions.
type Service interface {
	// GetAddressInfo returns the transactions, the unspents and the current
	// chain tip for the given batch of addresses.
	GetAddressInfo(ctx context.Context, addresses []string) (*AddressInfo, error)
	// GetFees returns the fee levels suggested for the next blocks.
	GetFees(ctx context.Context) ([]FeeLevel, error)
	// GetRawTransactions returns the raw hex of the given transactions.
	GetRawTransactions(ctx context.Context, hashes []string) ([]RawTx, error)
	// BroadcastTransaction attempts to add the given tx in hex format to the
	// mempool and returns its tx hash.
	BroadcastTransaction(ctx context.Context, txHex string) (string, error)
}
