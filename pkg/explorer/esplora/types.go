package esplora

import (
	"github.com/tdex-network/utxo-wallet/pkg/explorer"
)

type status struct {
	Confirmed   bool  `json:"confirmed"`
	BlockHeight int64 `json:"block_height"`
	BlockTime   int64 `json:"block_time"`
}

func (s status) blockID() int64 {
	if !s.Confirmed {
		return explorer.UnconfirmedBlockID
	}
	return s.BlockHeight
}

type output struct {
	ScriptPubKey        string `json:"scriptpubkey"`
	ScriptPubKeyAddress string `json:"scriptpubkey_address"`
	Value               int64  `json:"value"`
}

type input struct {
	TxID    string  `json:"txid"`
	Vout    uint32  `json:"vout"`
	Prevout *output `json:"prevout"`
}

// tx is an esplora transaction in its JSON format.
type tx struct {
	TxID   string   `json:"txid"`
	Vin    []input  `json:"vin"`
	Vout   []output `json:"vout"`
	Status status   `json:"status"`
}

// balanceChange returns the sum of the outputs paying to the given address
// minus the sum of the spent outputs locked by it.
func (t tx) balanceChange(address string) int64 {
	change := int64(0)
	for _, out := range t.Vout {
		if out.ScriptPubKeyAddress == address {
			change += out.Value
		}
	}
	for _, in := range t.Vin {
		if in.Prevout != nil && in.Prevout.ScriptPubKeyAddress == address {
			change -= in.Prevout.Value
		}
	}
	return change
}

func (t tx) activity(address string) explorer.TxActivity {
	change := t.balanceChange(address)
	action := explorer.Outgoing
	if change > 0 {
		action = explorer.Incoming
	}
	return explorer.TxActivity{
		Hash:          t.TxID,
		Address:       address,
		BalanceChange: change,
		BlockID:       t.Status.blockID(),
		Time:          t.Status.BlockTime,
		Action:        action,
	}
}

type utxo struct {
	TxID   string `json:"txid"`
	Vout   uint32 `json:"vout"`
	Value  int64  `json:"value"`
	Status status `json:"status"`
}

func (u utxo) toExplorer(address string) explorer.Utxo {
	return explorer.Utxo{
		Address:         address,
		BlockID:         u.Status.blockID(),
		TransactionHash: u.TxID,
		Index:           u.Vout,
		Value:           u.Value,
	}
}
