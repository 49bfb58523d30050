package blockchair

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/utxo-wallet/pkg/currency"
	"github.com/tdex-network/utxo-wallet/pkg/explorer"
)

const (
	dogeAddr1 = "DPfGCZM4g9Dncb69gg6QnWRjGkpCc5deYZ"
	dogeAddr2 = "D6j5i3yzQhKy9VARM7xbgXbE842uZkSSG2"
	bchAddr   = "qrqsl986x9wmee2f250lr0te3mxpkp4p35ce6qhska"
)

const dashboardJSON = `{
  "data": {
    "set": {"address_count": 2},
    "addresses": {},
    "transactions": [
      {"block_id": 4592392, "hash": "c8659b1edc0cb3d29c6596a6a2dacdb9953783923eb0687c8a5cee5274307d1f", "time": "2023-02-01 10:00:00", "balance_change": 400000000, "address": "DPfGCZM4g9Dncb69gg6QnWRjGkpCc5deYZ"},
      {"block_id": -1, "hash": "76183ee4e72c55ff9360282e50aa66942d2b25e76f09e015cc9244b9e00e66df", "time": "2023-02-02 10:00:00", "balance_change": -50000000, "address": "DPfGCZM4g9Dncb69gg6QnWRjGkpCc5deYZ"},
      {"block_id": 1, "hash": "ff", "time": "2023-02-02 10:00:00", "balance_change": 1, "address": "DUnknown"}
    ],
    "utxo": [
      {"block_id": -1, "transaction_hash": "76183ee4e72c55ff9360282e50aa66942d2b25e76f09e015cc9244b9e00e66df", "index": 0, "value": 350000000, "address": "DPfGCZM4g9Dncb69gg6QnWRjGkpCc5deYZ"}
    ]
  },
  "context": {"code": 200, "state": 4600000}
}`

type request struct {
	method string
	path   string
	query  string
	body   string
}

func newTestService(
	t *testing.T, handler func(r request) (int, string),
) (explorer.Service, *[]request) {
	requests := make([]request, 0)
	mu := &sync.Mutex{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		req := request{r.Method, r.URL.Path, r.URL.RawQuery, string(body)}
		mu.Lock()
		requests = append(requests, req)
		mu.Unlock()
		status, resp := handler(req)
		w.WriteHeader(status)
		fmt.Fprint(w, resp)
	}))
	t.Cleanup(srv.Close)

	svc, err := NewService(ServiceOpts{
		APIURL:         srv.URL,
		Chain:          "dogecoin",
		APIKey:         "secret",
		RequestTimeout: 5 * time.Second,
		RateLimit:      100,
	})
	require.NoError(t, err)
	return svc, &requests
}

func TestChain(t *testing.T) {
	tests := []struct {
		currency currency.Currency
		expected string
	}{
		{currency.BTC, "bitcoin"},
		{currency.BTCSegwit, "bitcoin"},
		{currency.DOGE, "dogecoin"},
		{currency.LTC, "litecoin"},
		{currency.BCH, "bitcoin-cash"},
	}
	for _, tt := range tests {
		chain, err := Chain(currency.Get(tt.currency))
		require.NoError(t, err)
		assert.Equal(t, tt.expected, chain)
	}

	_, err := Chain(currency.Get(currency.BTCV))
	require.ErrorIs(t, err, ErrUnsupportedCurrency)

	_, err = NewService(ServiceOpts{})
	require.ErrorIs(t, err, ErrNullChain)
}

func TestGetAddressInfo(t *testing.T) {
	svc, requests := newTestService(t, func(r request) (int, string) {
		return http.StatusOK, dashboardJSON
	})

	info, err := svc.GetAddressInfo(
		context.Background(), []string{dogeAddr1, dogeAddr2},
	)
	require.NoError(t, err)

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, "/dogecoin/dashboards/addresses/"+dogeAddr1+","+dogeAddr2, req.path)
	assert.Contains(t, req.query, "key=secret")
	assert.Contains(t, req.query, "transaction_details=true")

	assert.Equal(t, int64(4600000), info.LastBlock)
	require.Len(t, info.Transactions, 2)
	assert.Equal(t, explorer.TxActivity{
		Hash:          "c8659b1edc0cb3d29c6596a6a2dacdb9953783923eb0687c8a5cee5274307d1f",
		Address:       dogeAddr1,
		BalanceChange: 400000000,
		BlockID:       4592392,
		Time:          time.Date(2023, 2, 1, 10, 0, 0, 0, time.UTC).Unix(),
		Action:        explorer.Incoming,
	}, info.Transactions[0])
	assert.Equal(t, explorer.Outgoing, info.Transactions[1].Action)
	assert.Equal(t, explorer.UnconfirmedBlockID, info.Transactions[1].BlockID)

	require.Len(t, info.Utxos, 1)
	assert.Equal(t, explorer.Utxo{
		Address:         dogeAddr1,
		BlockID:         -1,
		TransactionHash: "76183ee4e72c55ff9360282e50aa66942d2b25e76f09e015cc9244b9e00e66df",
		Index:           0,
		Value:           350000000,
	}, info.Utxos[0])
}

func TestGetAddressInfoCashAddrPrefix(t *testing.T) {
	resp := strings.NewReplacer(
		"DPfGCZM4g9Dncb69gg6QnWRjGkpCc5deYZ", "bitcoincash:"+bchAddr,
	).Replace(dashboardJSON)
	svc, _ := newTestService(t, func(r request) (int, string) {
		return http.StatusOK, resp
	})

	info, err := svc.GetAddressInfo(context.Background(), []string{bchAddr})
	require.NoError(t, err)
	require.Len(t, info.Utxos, 1)
	assert.Equal(t, bchAddr, info.Utxos[0].Address)
	assert.True(t, info.HasActivity(bchAddr))
}

func TestFailingGetAddressInfo(t *testing.T) {
	svc, _ := newTestService(t, func(r request) (int, string) {
		return http.StatusPaymentRequired, `{"data":null,"context":{"code":402,"error":"limit"}}`
	})

	_, err := svc.GetAddressInfo(context.Background(), nil)
	require.ErrorIs(t, err, explorer.ErrEmptyAddressList)

	_, err = svc.GetAddressInfo(context.Background(), []string{dogeAddr1})
	var statusErr *explorer.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusPaymentRequired, statusErr.Code)
}

func TestGetFees(t *testing.T) {
	svc, requests := newTestService(t, func(r request) (int, string) {
		return http.StatusOK, `{"data":{"suggested_transaction_fee_per_byte_sat": 2.4},"context":{"code":200}}`
	})

	fees, err := svc.GetFees(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []explorer.FeeLevel{{Level: "optimal", FeePerByte: "3"}}, fees)
	assert.Equal(t, "/dogecoin/stats", (*requests)[0].path)
}

func TestGetRawTransactions(t *testing.T) {
	svc, _ := newTestService(t, func(r request) (int, string) {
		hash := strings.TrimPrefix(r.path, "/dogecoin/raw/transaction/")
		if hash == "missing" {
			return http.StatusOK, `{"data":[],"context":{"code":200}}`
		}
		return http.StatusOK, fmt.Sprintf(
			`{"data":{"%s":{"raw_transaction":"01%s","decoded_raw_transaction":{}}},"context":{"code":200}}`,
			hash, hash,
		)
	})

	txs, err := svc.GetRawTransactions(context.Background(), []string{"aa", "bb"})
	require.NoError(t, err)
	assert.Equal(t, []explorer.RawTx{
		{Hash: "aa", RawData: "01aa"},
		{Hash: "bb", RawData: "01bb"},
	}, txs)

	_, err = svc.GetRawTransactions(context.Background(), []string{"aa", "missing"})
	require.ErrorIs(t, err, explorer.ErrTransactionNotFound)
}

func TestBroadcastTransaction(t *testing.T) {
	svc, requests := newTestService(t, func(r request) (int, string) {
		return http.StatusOK, `{"data":{"transaction_hash":"44af4ca9d1a9ee8ae25f7f99ecf39d2e81f522bb966f3ac9c857754680855f66"},"context":{"code":200}}`
	})

	hash, err := svc.BroadcastTransaction(context.Background(), "0100")
	require.NoError(t, err)
	assert.Equal(t, "44af4ca9d1a9ee8ae25f7f99ecf39d2e81f522bb966f3ac9c857754680855f66", hash)

	req := (*requests)[0]
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/dogecoin/push/transaction", req.path)
	body := map[string]string{}
	require.NoError(t, json.Unmarshal([]byte(req.body), &body))
	assert.Equal(t, "0100", body["data"])
}
