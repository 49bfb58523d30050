package wallet

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/tdex-network/utxo-wallet/pkg/explorer"
)

// Explorer
type mockExplorer struct {
	mock.Mock
}

func (m *mockExplorer) GetAddressInfo(
	ctx context.Context, addresses []string,
) (*explorer.AddressInfo, error) {
	args := m.Called(addresses)

	var res *explorer.AddressInfo
	if a := args.Get(0); a != nil {
		res = a.(*explorer.AddressInfo)
	}
	return res, args.Error(1)
}

func (m *mockExplorer) GetFees(ctx context.Context) ([]explorer.FeeLevel, error) {
	args := m.Called()

	var res []explorer.FeeLevel
	if a := args.Get(0); a != nil {
		res = a.([]explorer.FeeLevel)
	}
	return res, args.Error(1)
}

func (m *mockExplorer) GetRawTransactions(
	ctx context.Context, hashes []string,
) ([]explorer.RawTx, error) {
	args := m.Called(hashes)

	var res []explorer.RawTx
	if a := args.Get(0); a != nil {
		res = a.([]explorer.RawTx)
	}
	return res, args.Error(1)
}

func (m *mockExplorer) BroadcastTransaction(
	ctx context.Context, txHex string,
) (string, error) {
	args := m.Called(txHex)

	var res string
	if a := args.Get(0); a != nil {
		res = a.(string)
	}
	return res, args.Error(1)
}
