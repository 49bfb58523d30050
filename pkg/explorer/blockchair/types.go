package blockchair

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tdex-network/utxo-wallet/pkg/explorer"
)

const timeLayout = "2006-01-02 15:04:05"

type respContext struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
	State int64  `json:"state"`
}

func (c respContext) err() error {
	if c.Code != 0 && c.Code != 200 {
		return fmt.Errorf("blockchair error %d: %s", c.Code, c.Error)
	}
	return nil
}

type transaction struct {
	BlockID       int64  `json:"block_id"`
	Hash          string `json:"hash"`
	Time          string `json:"time"`
	BalanceChange int64  `json:"balance_change"`
	Address       string `json:"address"`
}

func (t transaction) toExplorer(address string) explorer.TxActivity {
	action := explorer.Outgoing
	if t.BalanceChange > 0 {
		action = explorer.Incoming
	}
	var unix int64
	if ts, err := time.Parse(timeLayout, t.Time); err == nil {
		unix = ts.Unix()
	}
	return explorer.TxActivity{
		Hash:          t.Hash,
		Address:       address,
		BalanceChange: t.BalanceChange,
		BlockID:       t.BlockID,
		Time:          unix,
		Action:        action,
	}
}

type utxo struct {
	BlockID         int64  `json:"block_id"`
	TransactionHash string `json:"transaction_hash"`
	Index           uint32 `json:"index"`
	Value           int64  `json:"value"`
	Address         string `json:"address"`
}

func (u utxo) toExplorer(address string) explorer.Utxo {
	return explorer.Utxo{
		Address:         address,
		BlockID:         u.BlockID,
		TransactionHash: u.TransactionHash,
		Index:           u.Index,
		Value:           u.Value,
	}
}

type dashboardResponse struct {
	Data struct {
		Transactions []transaction `json:"transactions"`
		Utxo         []utxo        `json:"utxo"`
	} `json:"data"`
	Context respContext `json:"context"`
}

type statsResponse struct {
	Data struct {
		SuggestedFeePerByte float64 `json:"suggested_transaction_fee_per_byte_sat"`
		BestBlockHeight     int64   `json:"best_block_height"`
	} `json:"data"`
	Context respContext `json:"context"`
}

// rawTxResponse data is an object keyed by tx hash, or an empty array when
// the tx is unknown.
type rawTxResponse struct {
	Data    json.RawMessage `json:"data"`
	Context respContext     `json:"context"`
}

type rawTx struct {
	RawTransaction string `json:"raw_transaction"`
}

type pushResponse struct {
	Data struct {
		TransactionHash string `json:"transaction_hash"`
	} `json:"data"`
	Context respContext `json:"context"`
}

// addressResolver maps the addresses returned by blockchair back to the
// ones requested. Bitcoin cash addresses may come back with or without the
// CashAddr prefix.
type addressResolver map[string]string

func newAddressResolver(addresses []string) addressResolver {
	r := make(addressResolver, len(addresses)*2)
	for _, addr := range addresses {
		r[addr] = addr
		r[stripPrefix(addr)] = addr
	}
	return r
}

func (r addressResolver) resolve(addr string) (string, bool) {
	if a, ok := r[addr]; ok {
		return a, true
	}
	a, ok := r[stripPrefix(addr)]
	return a, ok
}

func stripPrefix(addr string) string {
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		return addr[i+1:]
	}
	return addr
}
