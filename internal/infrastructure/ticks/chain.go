package ticks

import (
	"context"
	"fmt"

	"loanshare/internal/domain/tick"

	"github.com/ethereum/go-ethereum/ethclient"
)

var _ tick.Source = (*Chain)(nil)

// BlockNumberer is the part of an execution client Chain needs.
// *ethclient.Client satisfies it.
type BlockNumberer interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

// Chain uses the latest block number of an EVM chain as the tick.
type Chain struct{ client BlockNumberer }

func NewChain(c BlockNumberer) *Chain { return &Chain{client: c} }

// DialChain connects to an RPC endpoint. The returned close func releases
// the connection.
func DialChain(ctx context.Context, url string) (*Chain, func(), error) {
	c, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", url, err)
	}
	if _, err := c.ChainID(ctx); err != nil {
		c.Close()
		return nil, nil, fmt.Errorf("chain id: %w", err)
	}
	return NewChain(c), c.Close, nil
}

func (c *Chain) CurrentTick(ctx context.Context) (uint64, error) {
	n, err := c.client.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("block number: %w", err)
	}
	return n, nil
}
