package ledger

import (
	"context"

	"github.com/PREETHAM1590/waste-app/core/factory"
	coreledger "github.com/PREETHAM1590/waste-app/core/ledger"
)

// init registers built-in ledger backends.
func init() {
	_ = coreledger.RegisterClient("mock", func(map[string]any) (coreledger.Client, error) {
		return NewMockClient(), nil
	})

	_ = coreledger.RegisterClient("evm", func(conf map[string]any) (coreledger.Client, error) {
		var c EVMConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewEVMClient(context.Background(), c)
	})
}
