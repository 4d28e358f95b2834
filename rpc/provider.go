// Package rpc implements the Provider collaborator over a JSON-RPC
// Ethereum endpoint.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/kirannarayanak/vyra"
)

// receiptPollInterval is the cadence of WaitForTransaction polling.
const receiptPollInterval = 2 * time.Second

// Client is a vyra.Provider backed by go-ethereum's JSON-RPC client.
type Client struct {
	eth *ethclient.Client
}

// Dial connects to a JSON-RPC endpoint.
func Dial(ctx context.Context, url string) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &Client{eth: eth}, nil
}

// NewClient wraps an existing ethclient connection.
func NewClient(eth *ethclient.Client) *Client {
	return &Client{eth: eth}
}

// Close releases the underlying connection.
func (c *Client) Close() {
	c.eth.Close()
}

// GetBalance implements vyra.Provider.
func (c *Client) GetBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	return c.eth.BalanceAt(ctx, addr, nil)
}

// GetFeeData implements vyra.Provider. Legacy gas price is always populated;
// the EIP-1559 fields are present when the chain reports a base fee.
func (c *Client) GetFeeData(ctx context.Context) (*vyra.FeeData, error) {
	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas price: %w", err)
	}
	fd := &vyra.FeeData{GasPrice: gasPrice}

	head, err := c.eth.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch head: %w", err)
	}
	if head.BaseFee != nil {
		tip, err := c.eth.SuggestGasTipCap(ctx)
		if err != nil {
			return nil, fmt.Errorf("suggest gas tip: %w", err)
		}
		fd.MaxPriorityFeePerGas = tip
		fd.MaxFeePerGas = new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	}
	return fd, nil
}

// EstimateGas implements vyra.Provider.
func (c *Client) EstimateGas(ctx context.Context, msg vyra.CallMsg) (uint64, error) {
	to := msg.To
	return c.eth.EstimateGas(ctx, ethereum.CallMsg{
		From:  msg.From,
		To:    &to,
		Value: msg.Value,
		Data:  msg.Data,
	})
}

// ChainID implements vyra.Provider.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return c.eth.ChainID(ctx)
}

// WaitForTransaction implements vyra.Provider. It polls for the receipt and
// then for the requested confirmation depth; a pending transaction keeps
// polling until ctx expires.
func (c *Client) WaitForTransaction(ctx context.Context, hash common.Hash, confirmations uint64) (*vyra.Receipt, error) {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.eth.TransactionReceipt(ctx, hash)
		switch {
		case err == nil:
			if confirmations > 1 {
				head, err := c.eth.BlockNumber(ctx)
				if err != nil {
					return nil, fmt.Errorf("fetch block number: %w", err)
				}
				mined := receipt.BlockNumber.Uint64()
				if head < mined+confirmations-1 {
					break
				}
			}
			return &vyra.Receipt{
				TxHash:      receipt.TxHash,
				BlockNumber: receipt.BlockNumber.Uint64(),
				Status:      receipt.Status,
			}, nil
		case errors.Is(err, ethereum.NotFound):
			// Not mined yet.
		default:
			return nil, fmt.Errorf("fetch receipt: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

var _ vyra.Provider = (*Client)(nil)
