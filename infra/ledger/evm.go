package ledger

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	coreledger "github.com/PREETHAM1590/waste-app/core/ledger"
	"github.com/PREETHAM1590/waste-app/infra/logger"
)

const erc20ABIJSON = `[
  {"name":"transfer","type":"function","inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

var erc20ABI = func() abi.ABI {
	a, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		panic(err)
	}
	return a
}()

// EVMConfig configures the EVM ledger backend.
type EVMConfig struct {
	RPCURL       string `json:"rpc_url"`
	TokenAddress string `json:"token_address"`
	PrivateKey   string `json:"private_key"`
	Decimals     int    `json:"decimals"`
}

// SetDefaults applies default values to the configuration.
func (c *EVMConfig) SetDefaults() {
	if c.Decimals == 0 {
		c.Decimals = 18
	}
}

// Validate checks required fields.
func (c *EVMConfig) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("evm ledger: rpc_url required")
	}
	if !common.IsHexAddress(c.TokenAddress) {
		return fmt.Errorf("evm ledger: invalid token_address %q", c.TokenAddress)
	}
	if c.PrivateKey == "" {
		return fmt.Errorf("evm ledger: private_key required")
	}
	return nil
}

// EVMClient distributes an ERC-20 reward token from a treasury account.
type EVMClient struct {
	client  *ethclient.Client
	token   common.Address
	key     *ecdsa.PrivateKey
	from    common.Address
	chainID *big.Int
	unit    *big.Int
	log     logger.Logger
}

// NewEVMClient dials the RPC endpoint and resolves the chain ID. The private
// key funds gas and must hold the reward token supply.
func NewEVMClient(ctx context.Context, cfg EVMConfig) (*EVMClient, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	key, err := gethcrypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("evm ledger: parse private key: %w", err)
	}
	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("evm ledger: dial %s: %w", cfg.RPCURL, err)
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("evm ledger: chain id: %w", err)
	}
	unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(cfg.Decimals)), nil)
	return &EVMClient{
		client:  client,
		token:   common.HexToAddress(cfg.TokenAddress),
		key:     key,
		from:    gethcrypto.PubkeyToAddress(key.PublicKey),
		chainID: chainID,
		unit:    unit,
		log:     logger.New("evm-ledger"),
	}, nil
}

// Transfer sends amount whole tokens to recipient via the ERC-20 transfer
// method and waits only for transaction submission, not inclusion.
func (c *EVMClient) Transfer(ctx context.Context, recipient string, amount int64, reason string) (coreledger.TransferResult, error) {
	if !common.IsHexAddress(recipient) {
		return coreledger.TransferResult{Error: "invalid recipient address"}, fmt.Errorf("evm ledger: invalid recipient %q", recipient)
	}
	if amount <= 0 {
		return coreledger.TransferResult{Error: "non-positive amount"}, fmt.Errorf("evm ledger: non-positive amount %d", amount)
	}

	value := new(big.Int).Mul(big.NewInt(amount), c.unit)
	data, err := erc20ABI.Pack("transfer", common.HexToAddress(recipient), value)
	if err != nil {
		return coreledger.TransferResult{Error: err.Error()}, fmt.Errorf("evm ledger: pack transfer: %w", err)
	}

	nonce, err := c.client.PendingNonceAt(ctx, c.from)
	if err != nil {
		return coreledger.TransferResult{Error: err.Error()}, fmt.Errorf("evm ledger: nonce: %w", err)
	}
	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return coreledger.TransferResult{Error: err.Error()}, fmt.Errorf("evm ledger: gas price: %w", err)
	}
	gasLimit, err := c.client.EstimateGas(ctx, ethereum.CallMsg{From: c.from, To: &c.token, Data: data})
	if err != nil {
		return coreledger.TransferResult{Error: err.Error()}, fmt.Errorf("evm ledger: estimate gas: %w", err)
	}

	tx := gethtypes.NewTransaction(nonce, c.token, big.NewInt(0), gasLimit, gasPrice, data)
	signed, err := gethtypes.SignTx(tx, gethtypes.LatestSignerForChainID(c.chainID), c.key)
	if err != nil {
		return coreledger.TransferResult{Error: err.Error()}, fmt.Errorf("evm ledger: sign: %w", err)
	}
	if err := c.client.SendTransaction(ctx, signed); err != nil {
		return coreledger.TransferResult{Error: err.Error()}, fmt.Errorf("evm ledger: send: %w", err)
	}

	c.log.Infof("sent %d tokens to %s (%s): %s", amount, recipient, reason, signed.Hash().Hex())
	return coreledger.TransferResult{Success: true, TxRef: signed.Hash().Hex()}, nil
}

// BalanceOf returns the whole-token balance of an address.
func (c *EVMClient) BalanceOf(ctx context.Context, address string) (int64, error) {
	if !common.IsHexAddress(address) {
		return 0, fmt.Errorf("evm ledger: invalid address %q", address)
	}
	data, err := erc20ABI.Pack("balanceOf", common.HexToAddress(address))
	if err != nil {
		return 0, fmt.Errorf("evm ledger: pack balanceOf: %w", err)
	}
	out, err := c.client.CallContract(ctx, ethereum.CallMsg{To: &c.token, Data: data}, nil)
	if err != nil {
		return 0, fmt.Errorf("evm ledger: call balanceOf: %w", err)
	}
	raw := new(big.Int).SetBytes(out)
	return new(big.Int).Div(raw, c.unit).Int64(), nil
}

// EstimateFee predicts the native-denomination cost of a transfer.
func (c *EVMClient) EstimateFee(ctx context.Context, recipient string, amount int64) (coreledger.FeeEstimate, error) {
	if !common.IsHexAddress(recipient) {
		return coreledger.FeeEstimate{}, fmt.Errorf("evm ledger: invalid recipient %q", recipient)
	}
	value := new(big.Int).Mul(big.NewInt(amount), c.unit)
	data, err := erc20ABI.Pack("transfer", common.HexToAddress(recipient), value)
	if err != nil {
		return coreledger.FeeEstimate{}, fmt.Errorf("evm ledger: pack transfer: %w", err)
	}
	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return coreledger.FeeEstimate{}, fmt.Errorf("evm ledger: gas price: %w", err)
	}
	gasLimit, err := c.client.EstimateGas(ctx, ethereum.CallMsg{From: c.from, To: &c.token, Data: data})
	if err != nil {
		return coreledger.FeeEstimate{}, fmt.Errorf("evm ledger: estimate gas: %w", err)
	}
	fee := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(gasLimit))
	return coreledger.FeeEstimate{Fee: fee, GasLimit: gasLimit}, nil
}

func (c *EVMClient) IsValidAddress(address string) bool {
	return common.IsHexAddress(address)
}

func (c *EVMClient) Close() error {
	c.client.Close()
	return nil
}
