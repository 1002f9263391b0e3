package tokenmeta

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// decimals is read as uint256 so out-of-range values reach ClampDecimals
// instead of failing to unpack.
const erc20ABIStringJSON = `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"}
]`

const erc20ABIBytes32JSON = `[
  {"inputs": [], "name": "symbol", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"}
]`

var (
	abiOnce       sync.Once
	stringABI     abi.ABI
	bytes32ABI    abi.ABI
	errABIParsing error
)

func erc20ABIs() (abi.ABI, abi.ABI, error) {
	abiOnce.Do(func() {
		stringABI, errABIParsing = abi.JSON(strings.NewReader(erc20ABIStringJSON))
		if errABIParsing != nil {
			return
		}
		bytes32ABI, errABIParsing = abi.JSON(strings.NewReader(erc20ABIBytes32JSON))
	})
	return stringABI, bytes32ABI, errABIParsing
}

// ContractCaller is the eth_call surface the ERC-20 source needs.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// ERC20Source reads token metadata from a contract over RPC.
type ERC20Source struct {
	caller ContractCaller
	logger *zap.Logger
}

func NewERC20Source(caller ContractCaller, logger *zap.Logger) *ERC20Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ERC20Source{caller: caller, logger: logger}
}

// TokenMeta calls decimals, symbol and name. Only a decimals failure is an
// error; symbol and name fall back to bytes32 and then to empty.
func (s *ERC20Source) TokenMeta(ctx context.Context, address string) (Raw, error) {
	raw := Raw{Address: address}
	if s.caller == nil {
		return raw, fmt.Errorf("contract caller is nil")
	}
	if !common.IsHexAddress(address) {
		return raw, fmt.Errorf("invalid token address: %s", address)
	}
	token := common.HexToAddress(address)

	strABI, b32ABI, err := erc20ABIs()
	if err != nil {
		return raw, fmt.Errorf("parse erc20 abi: %w", err)
	}

	call := func(method string, parsed abi.ABI) ([]interface{}, error) {
		data, err := parsed.Pack(method)
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", method, err)
		}
		resp, err := s.caller.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", method, err)
		}
		values, err := parsed.Unpack(method, resp)
		if err != nil {
			return nil, fmt.Errorf("unpack %s: %w", method, err)
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("unpack %s: empty result", method)
		}
		return values, nil
	}

	values, err := call("decimals", strABI)
	if err != nil {
		return raw, err
	}
	decimals, ok := values[0].(*big.Int)
	if !ok {
		return raw, fmt.Errorf("unsupported decimals type %T", values[0])
	}
	raw.Decimals = decimals

	text := func(method string) string {
		if values, err := call(method, strABI); err == nil {
			if v, ok := values[0].(string); ok {
				return v
			}
		}
		values, err := call(method, b32ABI)
		if err != nil {
			s.logger.Debug("token metadata call failed", zap.String("token", address), zap.String("method", method), zap.Error(err))
			return ""
		}
		v, _ := bytes32ToString(values[0])
		return v
	}
	raw.Symbol = text("symbol")
	raw.Name = text("name")

	return raw, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}
