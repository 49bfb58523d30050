package discovery

import (
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/utxo-wallet/pkg/explorer"
	"github.com/tdex-network/utxo-wallet/pkg/wallet"
)

// EmptyAddresses are the first unused addresses of the branches.
type EmptyAddresses struct {
	External wallet.AddressRecord `json:"external"`
	Internal wallet.AddressRecord `json:"internal"`
}

// Addresses are the used addresses of the branches, each list terminated by
// the empty address of its branch when the scan reached the gap limit.
type Addresses struct {
	External []wallet.AddressRecord `json:"external"`
	Internal []wallet.AddressRecord `json:"internal"`
	Empty    EmptyAddresses         `json:"empty"`
	All      []string               `json:"all"`
}

// ScannedAddresses are all the addresses queried during the scan.
type ScannedAddresses struct {
	External []string `json:"external"`
	Internal []string `json:"internal"`
	All      []string `json:"all"`
}

// Transactions lists the per-address activity reported by the explorer and
// the same merged by tx hash.
type Transactions struct {
	All    []explorer.TxActivity `json:"all"`
	Unique []explorer.TxActivity `json:"unique"`
}

// Snapshot is the state of an account at the end of a scan. It is never
// modified after being returned.
type Snapshot struct {
	Addresses    Addresses           `json:"addresses"`
	Scanned      ScannedAddresses    `json:"syncAddresses"`
	Transactions Transactions        `json:"transactions"`
	Unspents     []wallet.Unspent    `json:"unspent"`
	Balance      int64               `json:"balance"`
	LatestBlock  int64               `json:"latestBlock"`
	Fees         []explorer.FeeLevel `json:"fee"`
}

// ReceiveAddress returns the first unused address of the external branch,
// or an empty string if its scan did not complete.
func (s *Snapshot) ReceiveAddress() string {
	return s.Addresses.Empty.External.Address
}

// ChangeAddress returns the first unused address of the internal branch,
// or an empty string if its scan did not complete.
func (s *Snapshot) ChangeAddress() string {
	return s.Addresses.Empty.Internal.Address
}

func newSnapshot(external, internal *branchScan, fees []explorer.FeeLevel) *Snapshot {
	addresses := Addresses{
		External: external.records,
		Internal: internal.records,
		All:      make([]string, 0, len(external.records)+len(internal.records)),
	}
	if external.complete {
		addresses.Empty.External = external.empty
	}
	if internal.complete {
		addresses.Empty.Internal = internal.empty
	}
	for _, r := range append(append([]wallet.AddressRecord{}, external.records...), internal.records...) {
		addresses.All = append(addresses.All, r.Address)
	}

	scanned := ScannedAddresses{
		External: external.scanned,
		Internal: internal.scanned,
		All:      append(append([]string{}, external.scanned...), internal.scanned...),
	}

	allTxs := append(
		append([]explorer.TxActivity{}, external.transactions...),
		internal.transactions...,
	)
	utxos := append(append([]explorer.Utxo{}, external.utxos...), internal.utxos...)
	unspents := reconcileUnspents(utxos, external.records, internal.records)

	balance := int64(0)
	for _, u := range unspents {
		balance += u.Value
	}
	latestBlock := external.lastBlock
	if internal.lastBlock > latestBlock {
		latestBlock = internal.lastBlock
	}

	return &Snapshot{
		Addresses: addresses,
		Scanned:   scanned,
		Transactions: Transactions{
			All:    allTxs,
			Unique: mergeTransactions(allTxs),
		},
		Unspents:    unspents,
		Balance:     balance,
		LatestBlock: latestBlock,
		Fees:        fees,
	}
}

// mergeTransactions groups the activity by tx hash, in order of first
// appearance. The balance changes of a group are summed, the other fields
// are taken from its first item.
func mergeTransactions(txs []explorer.TxActivity) []explorer.TxActivity {
	unique := make([]explorer.TxActivity, 0)
	indexes := make(map[string]int)
	for _, tx := range txs {
		i, ok := indexes[tx.Hash]
		if !ok {
			indexes[tx.Hash] = len(unique)
			unique = append(unique, explorer.TxActivity{
				Hash:          tx.Hash,
				Address:       tx.Address,
				BalanceChange: tx.BalanceChange,
				BlockID:       tx.BlockID,
				Time:          tx.Time,
			})
			continue
		}
		unique[i].BalanceChange += tx.BalanceChange
	}

	for i := range unique {
		unique[i].Action = explorer.Outgoing
		if unique[i].BalanceChange > 0 {
			unique[i].Action = explorer.Incoming
		}
	}
	return unique
}

// reconcileUnspents resolves the branch and index of the key locking every
// utxo, looking for its address among the external records first. Utxos
// with unknown address are dropped.
func reconcileUnspents(
	utxos []explorer.Utxo, external, internal []wallet.AddressRecord,
) []wallet.Unspent {
	records := make(map[string]wallet.AddressRecord)
	for _, list := range [][]wallet.AddressRecord{internal, external} {
		for _, r := range list {
			records[r.Address] = r
		}
	}

	unspents := make([]wallet.Unspent, 0, len(utxos))
	for _, u := range utxos {
		if len(u.Address) <= 0 {
			log.Warnf("dropping unspent %s:%d without address", u.TransactionHash, u.Index)
			continue
		}
		record, ok := records[u.Address]
		if !ok {
			log.Warnf(
				"dropping unspent %s:%d of unknown address %s",
				u.TransactionHash, u.Index, u.Address,
			)
			continue
		}
		unspents = append(unspents, wallet.Unspent{
			Address:         u.Address,
			Branch:          record.Branch,
			DeriveIndex:     record.DeriveIndex,
			TransactionHash: u.TransactionHash,
			Index:           u.Index,
			Value:           u.Value,
			BlockID:         u.BlockID,
		})
	}
	return unspents
}
