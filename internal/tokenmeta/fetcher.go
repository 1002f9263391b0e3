// Package tokenmeta is the memoized token-metadata effect: one fetch per
// token, shared by concurrent callers, sanitized before it is returned.
package tokenmeta

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"poolScope/internal/model"
	"poolScope/internal/network"
)

// Raw is token metadata as read from the chain, before sanitizing.
type Raw struct {
	Address  string
	Decimals *big.Int
	Symbol   string
	Name     string
}

// Source reads raw metadata for one chain.
type Source interface {
	TokenMeta(ctx context.Context, address string) (Raw, error)
}

// Fetcher memoizes token metadata per (chain, address).
type Fetcher struct {
	sources *xsync.Map[uint64, Source]
	cache   *xsync.Map[string, model.TokenMeta]
	group   singleflight.Group
	retry   RetryPolicy
	logger  *zap.Logger
}

func NewFetcher(retry RetryPolicy, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		sources: xsync.NewMap[uint64, Source](),
		cache:   xsync.NewMap[string, model.TokenMeta](),
		retry:   retry,
		logger:  logger,
	}
}

// Register sets the metadata source of a chain.
func (f *Fetcher) Register(chainID uint64, src Source) {
	f.sources.Store(chainID, src)
}

// Get returns sanitized metadata for a token. The native sentinel is answered
// from the network table without a call.
func (f *Fetcher) Get(ctx context.Context, n network.Network, address string) (model.TokenMeta, error) {
	address = strings.ToLower(address)
	if n.IsNative(address) {
		return model.TokenMeta{
			Address:  address,
			Decimals: n.NativeDecimals,
			Symbol:   n.NativeSymbol,
			Name:     n.NativeName,
		}, nil
	}

	key := model.EntityID(n.ChainID, address)
	if meta, ok := f.cache.Load(key); ok {
		return meta, nil
	}

	v, err, _ := f.group.Do(key, func() (interface{}, error) {
		if meta, ok := f.cache.Load(key); ok {
			return meta, nil
		}
		src, ok := f.sources.Load(n.ChainID)
		if !ok {
			return nil, fmt.Errorf("no token metadata source for chain %d", n.ChainID)
		}

		var raw Raw
		err := f.retry.do(ctx, func(ctx context.Context) error {
			var err error
			raw, err = src.TokenMeta(ctx, address)
			return err
		}, func(attempt int, err error) {
			f.logger.Warn("token metadata retry", zap.String("token", key), zap.Int("attempt", attempt), zap.Error(err))
		})
		if err != nil {
			return nil, fmt.Errorf("fetch token metadata %s: %w", key, err)
		}

		meta := model.TokenMeta{
			Address:  address,
			Decimals: ClampDecimals(raw.Decimals),
			Symbol:   Sanitize(raw.Symbol),
			Name:     Sanitize(raw.Name),
		}
		f.cache.Store(key, meta)
		return meta, nil
	})
	if err != nil {
		return model.TokenMeta{}, err
	}
	return v.(model.TokenMeta), nil
}
