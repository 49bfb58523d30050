package esplora

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/utxo-wallet/pkg/explorer"
)

const (
	addr1 = "bc1qd2p69277sc3rn696ekqca7ts0f08lr0sl0e3nl"
	addr2 = "bc1qhwtfjhlups4dwsmhwjf3gahu5sqtldvjtatul0"
)

func newTestServer(t *testing.T, handlers map[string]string) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/tx" {
			body, _ := io.ReadAll(r.Body)
			if strings.TrimSpace(string(body)) == "" {
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprint(w, "empty tx")
				return
			}
			fmt.Fprint(w, "f9d79edfb75dbce1c2ffc73911013108e9218cd464d89e6df793ebc851b783da")
			return
		}
		resp, ok := handlers[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, "not found")
			return
		}
		fmt.Fprint(w, resp)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestService(t *testing.T, handlers map[string]string) explorer.Service {
	if _, ok := handlers["/blocks/tip/height"]; !ok {
		handlers["/blocks/tip/height"] = "800000"
	}
	srv := newTestServer(t, handlers)
	svc, err := NewService(ServiceOpts{APIURL: srv.URL + "/"})
	require.NoError(t, err)
	return svc
}

func mustJSON(t *testing.T, v interface{}) string {
	buf, err := json.Marshal(v)
	require.NoError(t, err)
	return string(buf)
}

func TestNewServiceFailingHealthCheck(t *testing.T) {
	srv := newTestServer(t, map[string]string{})
	_, err := NewService(ServiceOpts{APIURL: srv.URL})
	require.Error(t, err)

	_, err = NewService(ServiceOpts{})
	require.ErrorIs(t, err, ErrNullURL)
}

func TestGetAddressInfo(t *testing.T) {
	txs := []tx{
		{
			TxID: "tx-in",
			Vout: []output{
				{ScriptPubKeyAddress: addr1, Value: 15000},
				{ScriptPubKeyAddress: "other", Value: 100},
			},
			Status: status{Confirmed: true, BlockHeight: 799990, BlockTime: 1690000000},
		},
		{
			TxID: "tx-out",
			Vin: []input{
				{TxID: "tx-in", Vout: 0, Prevout: &output{ScriptPubKeyAddress: addr1, Value: 15000}},
			},
			Vout: []output{
				{ScriptPubKeyAddress: "other", Value: 10000},
				{ScriptPubKeyAddress: addr1, Value: 3570},
			},
		},
	}
	utxos := []utxo{
		{TxID: "tx-out", Vout: 1, Value: 3570},
	}

	svc := newTestService(t, map[string]string{
		"/address/" + addr1 + "/txs":  mustJSON(t, txs),
		"/address/" + addr1 + "/utxo": mustJSON(t, utxos),
		"/address/" + addr2 + "/txs":  "[]",
		"/address/" + addr2 + "/utxo": "[]",
	})

	info, err := svc.GetAddressInfo(context.Background(), []string{addr1, addr2})
	require.NoError(t, err)

	assert.Equal(t, int64(800000), info.LastBlock)
	require.Len(t, info.Transactions, 2)
	assert.Equal(t, explorer.TxActivity{
		Hash:          "tx-in",
		Address:       addr1,
		BalanceChange: 15000,
		BlockID:       799990,
		Time:          1690000000,
		Action:        explorer.Incoming,
	}, info.Transactions[0])
	assert.Equal(t, int64(-11430), info.Transactions[1].BalanceChange)
	assert.Equal(t, explorer.UnconfirmedBlockID, info.Transactions[1].BlockID)
	assert.Equal(t, explorer.Outgoing, info.Transactions[1].Action)

	require.Len(t, info.Utxos, 1)
	assert.Equal(t, explorer.Utxo{
		Address:         addr1,
		BlockID:         explorer.UnconfirmedBlockID,
		TransactionHash: "tx-out",
		Index:           1,
		Value:           3570,
	}, info.Utxos[0])

	assert.True(t, info.HasActivity(addr1))
	assert.False(t, info.HasActivity(addr2))
}

func TestGetAddressInfoPaging(t *testing.T) {
	firstPage := make([]tx, 0, chainPageSize)
	for i := 0; i < chainPageSize; i++ {
		firstPage = append(firstPage, tx{
			TxID:   fmt.Sprintf("tx-%d", i),
			Vout:   []output{{ScriptPubKeyAddress: addr1, Value: 1}},
			Status: status{Confirmed: true, BlockHeight: 100},
		})
	}
	secondPage := []tx{{
		TxID:   "tx-last",
		Vout:   []output{{ScriptPubKeyAddress: addr1, Value: 1}},
		Status: status{Confirmed: true, BlockHeight: 10},
	}}

	svc := newTestService(t, map[string]string{
		"/address/" + addr1 + "/txs": mustJSON(t, firstPage),
		fmt.Sprintf("/address/%s/txs/chain/tx-%d", addr1, chainPageSize-1): mustJSON(t, secondPage),
		"/address/" + addr1 + "/utxo": "[]",
	})

	info, err := svc.GetAddressInfo(context.Background(), []string{addr1})
	require.NoError(t, err)
	require.Len(t, info.Transactions, chainPageSize+1)
	assert.Equal(t, "tx-last", info.Transactions[chainPageSize].Hash)
}

func TestFailingGetAddressInfo(t *testing.T) {
	svc := newTestService(t, map[string]string{})

	_, err := svc.GetAddressInfo(context.Background(), nil)
	require.ErrorIs(t, err, explorer.ErrEmptyAddressList)

	_, err = svc.GetAddressInfo(context.Background(), []string{addr1})
	require.Error(t, err)
}

func TestGetFees(t *testing.T) {
	tests := []struct {
		name     string
		targets  []int
		resp     string
		expected []explorer.FeeLevel
	}{
		{
			name:    "default targets",
			resp:    `{"1": 24.3, "2": 20, "6": 10.0, "144": 1.01}`,
			expected: []explorer.FeeLevel{
				{Level: "1", FeePerByte: "25"},
				{Level: "6", FeePerByte: "10"},
			},
		},
		{
			name:    "missing target uses the next one",
			targets: []int{1, 3},
			resp:    `{"1": 5, "4": 3.2}`,
			expected: []explorer.FeeLevel{
				{Level: "1", FeePerByte: "5"},
				{Level: "3", FeePerByte: "4"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, map[string]string{
				"/blocks/tip/height": "1",
				"/fee-estimates":     tt.resp,
			})
			svc, err := NewService(ServiceOpts{APIURL: srv.URL, FeeTargets: tt.targets})
			require.NoError(t, err)

			fees, err := svc.GetFees(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, fees)
		})
	}
}

func TestGetRawTransactions(t *testing.T) {
	svc := newTestService(t, map[string]string{
		"/tx/aa/hex": "0100\n",
		"/tx/bb/hex": "0200",
	})

	txs, err := svc.GetRawTransactions(context.Background(), []string{"aa", "bb"})
	require.NoError(t, err)
	assert.Equal(t, []explorer.RawTx{
		{Hash: "aa", RawData: "0100"},
		{Hash: "bb", RawData: "0200"},
	}, txs)

	_, err = svc.GetRawTransactions(context.Background(), []string{"cc"})
	require.ErrorIs(t, err, explorer.ErrTransactionNotFound)
}

func TestBroadcastTransaction(t *testing.T) {
	svc := newTestService(t, map[string]string{})

	txid, err := svc.BroadcastTransaction(context.Background(), "0100")
	require.NoError(t, err)
	assert.Equal(t, "f9d79edfb75dbce1c2ffc73911013108e9218cd464d89e6df793ebc851b783da", txid)

	_, err = svc.BroadcastTransaction(context.Background(), "")
	var statusErr *explorer.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.Code)
}
