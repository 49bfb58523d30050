package discovery

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/utxo-wallet/pkg/currency"
	"github.com/tdex-network/utxo-wallet/pkg/explorer"
	"github.com/tdex-network/utxo-wallet/pkg/wallet"
)

const (
	testMnemonic = "roast pride now nut put that balance wrestle minor gauge " +
		"trash green"
	testUnspentValue = 1000
	testBlock        = 700000
)

var testFees = []explorer.FeeLevel{
	{Level: "1", FeePerByte: "25"},
	{Level: "6", FeePerByte: "10"},
}

type testAccount struct {
	currency *currency.Descriptor
	nodes    map[wallet.Branch]wallet.ExtendedKey
}

func newTestAccount(t *testing.T) *testAccount {
	c := currency.Get(currency.BTCSegwit)
	account, err := wallet.DeriveAccount(wallet.DeriveAccountOpts{
		Mnemonic:    testMnemonic,
		ShortName:   c.ShortName,
		AddressType: c.AddressType,
	})
	require.NoError(t, err)
	return &testAccount{
		currency: c,
		nodes: map[wallet.Branch]wallet.ExtendedKey{
			wallet.External: account.ExternalNode,
			wallet.Internal: account.InternalNode,
		},
	}
}

// addresses returns the first n addresses of the given branch.
func (a *testAccount) addresses(t *testing.T, branch wallet.Branch, n int) []string {
	addresses := make([]string, 0, n)
	for i := 0; i < n; i++ {
		address, err := wallet.AddressFromNode(a.nodes[branch], uint32(i), a.currency)
		require.NoError(t, err)
		addresses = append(addresses, address)
	}
	return addresses
}

func (a *testAccount) synchronizer(t *testing.T, explorerSvc explorer.Service) *Synchronizer {
	s, err := NewSynchronizer(SynchronizerOpts{
		Currency:     a.currency,
		ExternalNode: a.nodes[wallet.External],
		InternalNode: a.nodes[wallet.Internal],
		Explorer:     explorerSvc,
	})
	require.NoError(t, err)
	return s
}

// activityResponder reports a single tx with one utxo for every used
// address. Batches starting with a failing address return an error.
func activityResponder(used map[string]bool, failing map[string]bool) addressInfoFunc {
	return func(addresses []string) (*explorer.AddressInfo, error) {
		if failing[addresses[0]] {
			return nil, errors.New("service unavailable")
		}
		info := &explorer.AddressInfo{
			Transactions: []explorer.TxActivity{},
			Utxos:        []explorer.Utxo{},
			LastBlock:    testBlock,
		}
		for _, address := range addresses {
			if !used[address] {
				continue
			}
			hash := fmt.Sprintf("tx-%s", address)
			info.Transactions = append(info.Transactions, explorer.TxActivity{
				Hash:          hash,
				Address:       address,
				BalanceChange: testUnspentValue,
				BlockID:       testBlock,
			})
			info.Utxos = append(info.Utxos, explorer.Utxo{
				Address:         address,
				BlockID:         testBlock,
				TransactionHash: hash,
				Value:           testUnspentValue,
			})
		}
		return info, nil
	}
}

func toSet(lists ...[]string) map[string]bool {
	set := make(map[string]bool)
	for _, list := range lists {
		for _, item := range list {
			set[item] = true
		}
	}
	return set
}

func TestGapLimit(t *testing.T) {
	account := newTestAccount(t)

	tests := []struct {
		used            int
		expectedScanned int
	}{
		{0, 40},
		{5, 40},
		{45, 80},
		{60, 80},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d used addresses", tt.used), func(t *testing.T) {
			used := account.addresses(t, wallet.External, tt.used)

			explorerSvc := &mockExplorer{}
			explorerSvc.On("GetAddressInfo", mock.Anything).
				Return(activityResponder(toSet(used), nil), nil)
			explorerSvc.On("GetFees").Return(testFees, nil)

			snapshot, err := account.synchronizer(t, explorerSvc).Start(context.Background())
			require.NoError(t, err)

			external := snapshot.Addresses.External
			require.Len(t, external, tt.used+1)
			for i, record := range external {
				assert.Equal(t, wallet.External, record.Branch)
				assert.Equal(t, uint32(i), record.DeriveIndex)
			}
			for i, address := range used {
				assert.Equal(t, address, external[i].Address)
			}

			empty := account.addresses(t, wallet.External, tt.used+1)[tt.used]
			assert.Equal(t, empty, snapshot.ReceiveAddress())
			assert.Equal(t, external[tt.used], snapshot.Addresses.Empty.External)
			assert.Len(t, snapshot.Scanned.External, tt.expectedScanned)

			require.Len(t, snapshot.Addresses.Internal, 1)
			assert.Equal(t, account.addresses(t, wallet.Internal, 1)[0], snapshot.ChangeAddress())
			assert.Len(t, snapshot.Scanned.Internal, BatchSize)
			assert.Len(t, snapshot.Scanned.All, tt.expectedScanned+BatchSize)
			assert.Len(t, snapshot.Addresses.All, tt.used+2)

			assert.Len(t, snapshot.Unspents, tt.used)
			assert.Len(t, snapshot.Transactions.Unique, tt.used)
			assert.Equal(t, int64(tt.used*testUnspentValue), snapshot.Balance)
			assert.Equal(t, int64(testBlock), snapshot.LatestBlock)
			assert.Equal(t, testFees, snapshot.Fees)

			explorerSvc.AssertNumberOfCalls(
				t, "GetAddressInfo", tt.expectedScanned/BatchSize+1,
			)
		})
	}
}

func TestStartReconcilesUnspents(t *testing.T) {
	account := newTestAccount(t)
	external := account.addresses(t, wallet.External, 3)
	internal := account.addresses(t, wallet.Internal, 2)

	explorerSvc := &mockExplorer{}
	explorerSvc.On("GetAddressInfo", mock.Anything).
		Return(activityResponder(toSet(external, internal), nil), nil)
	explorerSvc.On("GetFees").Return(testFees, nil)

	snapshot, err := account.synchronizer(t, explorerSvc).Start(context.Background())
	require.NoError(t, err)

	require.Len(t, snapshot.Unspents, 5)
	for i, u := range snapshot.Unspents[:3] {
		assert.Equal(t, wallet.External, u.Branch)
		assert.Equal(t, uint32(i), u.DeriveIndex)
		assert.Equal(t, external[i], u.Address)
	}
	for i, u := range snapshot.Unspents[3:] {
		assert.Equal(t, wallet.Internal, u.Branch)
		assert.Equal(t, uint32(i), u.DeriveIndex)
		assert.Equal(t, internal[i], u.Address)
	}
	assert.Equal(t, int64(5*testUnspentValue), snapshot.Balance)
}

func TestStartWithFailingBatch(t *testing.T) {
	account := newTestAccount(t)
	addresses := account.addresses(t, wallet.External, BatchSize+1)

	explorerSvc := &mockExplorer{}
	explorerSvc.On("GetAddressInfo", mock.Anything).Return(
		activityResponder(toSet(addresses), toSet(addresses[BatchSize:])), nil,
	)
	explorerSvc.On("GetFees").Return(nil, errors.New("service unavailable"))

	snapshot, err := account.synchronizer(t, explorerSvc).Start(context.Background())
	require.NoError(t, err)

	assert.Len(t, snapshot.Addresses.External, BatchSize)
	assert.Len(t, snapshot.Scanned.External, BatchSize)
	assert.Empty(t, snapshot.ReceiveAddress())
	assert.NotEmpty(t, snapshot.ChangeAddress())
	assert.Len(t, snapshot.Unspents, BatchSize)
	assert.Nil(t, snapshot.Fees)
}

func TestStartReusesDerivedAddresses(t *testing.T) {
	account := newTestAccount(t)

	explorerSvc := &mockExplorer{}
	explorerSvc.On("GetAddressInfo", mock.Anything).
		Return(activityResponder(nil, nil), nil)
	explorerSvc.On("GetFees").Return(testFees, nil)

	s := account.synchronizer(t, explorerSvc)
	assert.Nil(t, s.Snapshot())

	first, err := s.Start(context.Background())
	require.NoError(t, err)
	cached := s.caches[wallet.External].addresses
	assert.Len(t, cached, BatchSize)

	second, err := s.Start(context.Background())
	require.NoError(t, err)
	assert.Len(t, s.caches[wallet.External].addresses, BatchSize)
	assert.Equal(t, cached[0], s.caches[wallet.External].addresses[0])

	assert.NotSame(t, first, second)
	assert.Equal(t, first.Addresses, second.Addresses)
	assert.Same(t, second, s.Snapshot())
}

func TestStartWithCanceledContext(t *testing.T) {
	account := newTestAccount(t)
	explorerSvc := &mockExplorer{}
	s := account.synchronizer(t, explorerSvc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snapshot, err := s.Start(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, snapshot)
	assert.Nil(t, s.Snapshot())
	explorerSvc.AssertNotCalled(t, "GetAddressInfo", mock.Anything)
}

func TestMergeTransactions(t *testing.T) {
	txs := []explorer.TxActivity{
		{Hash: "a", Address: "addr1", BalanceChange: 500, BlockID: 10, Time: 1},
		{Hash: "b", Address: "addr2", BalanceChange: -300, BlockID: 11, Time: 2},
		{Hash: "a", Address: "addr3", BalanceChange: -200, BlockID: 12, Time: 3},
		{Hash: "c", Address: "addr3", BalanceChange: 100, BlockID: -1, Time: 4},
		{Hash: "c", Address: "addr1", BalanceChange: -100, BlockID: -1, Time: 4},
	}

	unique := mergeTransactions(txs)
	assert.Equal(t, []explorer.TxActivity{
		{
			Hash: "a", Address: "addr1", BalanceChange: 300, BlockID: 10, Time: 1,
			Action: explorer.Incoming,
		},
		{
			Hash: "b", Address: "addr2", BalanceChange: -300, BlockID: 11, Time: 2,
			Action: explorer.Outgoing,
		},
		{
			Hash: "c", Address: "addr3", BalanceChange: 0, BlockID: -1, Time: 4,
			Action: explorer.Outgoing,
		},
	}, unique)
}

func TestReconcileUnspents(t *testing.T) {
	external := []wallet.AddressRecord{
		{Branch: wallet.External, DeriveIndex: 0, Address: "ext0"},
		{Branch: wallet.External, DeriveIndex: 3, Address: "shared"},
	}
	internal := []wallet.AddressRecord{
		{Branch: wallet.Internal, DeriveIndex: 1, Address: "int1"},
		{Branch: wallet.Internal, DeriveIndex: 2, Address: "shared"},
	}
	utxos := []explorer.Utxo{
		{Address: "int1", TransactionHash: "h1", Value: 1},
		{Address: "", TransactionHash: "h2", Value: 2},
		{Address: "unknown", TransactionHash: "h3", Value: 3},
		{Address: "shared", TransactionHash: "h4", Index: 1, Value: 4},
		{Address: "ext0", TransactionHash: "h5", Value: 5, BlockID: -1},
	}

	unspents := reconcileUnspents(utxos, external, internal)
	assert.Equal(t, []wallet.Unspent{
		{
			Address: "int1", Branch: wallet.Internal, DeriveIndex: 1,
			TransactionHash: "h1", Value: 1,
		},
		{
			Address: "shared", Branch: wallet.External, DeriveIndex: 3,
			TransactionHash: "h4", Index: 1, Value: 4,
		},
		{
			Address: "ext0", Branch: wallet.External, DeriveIndex: 0,
			TransactionHash: "h5", Value: 5, BlockID: -1,
		},
	}, unspents)
}

func TestFailingNewSynchronizer(t *testing.T) {
	account := newTestAccount(t)

	tests := []struct {
		opts        SynchronizerOpts
		expectedErr error
	}{
		{
			opts: SynchronizerOpts{
				ExternalNode: account.nodes[wallet.External],
				InternalNode: account.nodes[wallet.Internal],
				Explorer:     &mockExplorer{},
			},
			expectedErr: wallet.ErrNullCurrency,
		},
		{
			opts: SynchronizerOpts{
				Currency:     account.currency,
				ExternalNode: account.nodes[wallet.External],
				Explorer:     &mockExplorer{},
			},
			expectedErr: wallet.ErrNullExtendedKey,
		},
		{
			opts: SynchronizerOpts{
				Currency:     account.currency,
				ExternalNode: account.nodes[wallet.External],
				InternalNode: account.nodes[wallet.Internal],
			},
			expectedErr: ErrNullExplorer,
		},
		{
			opts: SynchronizerOpts{
				Currency:     account.currency,
				ExternalNode: "xprv",
				InternalNode: account.nodes[wallet.Internal],
				Explorer:     &mockExplorer{},
			},
			expectedErr: wallet.ErrKeyDerivation,
		},
	}

	for _, tt := range tests {
		_, err := NewSynchronizer(tt.opts)
		assert.ErrorIs(t, err, tt.expectedErr)
	}
}
