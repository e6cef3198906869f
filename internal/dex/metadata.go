package dex

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Catorpilor/fresh-market-watcher/internal/model"
)

// ContractCaller performs read-only contract calls.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// FetchTokenMeta resolves name, symbol, and decimals for a token via
// independent eth_calls. Each field fails on its own: a reverting or missing
// method leaves that field at its default and never aborts the others.
// Decimals falls back to 18 when unavailable. Single attempt per field.
func FetchTokenMeta(ctx context.Context, caller ContractCaller, token common.Address, logger *zap.Logger) model.TokenMeta {
	meta := model.TokenMeta{Address: token.Hex(), Decimals: model.DefaultTokenDecimals}
	if caller == nil {
		return meta
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	stringABI, err := erc20ABIStringInstance()
	if err != nil {
		logger.Warn("erc20 string abi parse failed", zap.Error(err))
		return meta
	}
	bytes32ABI, err := erc20ABIBytes32Instance()
	if err != nil {
		logger.Warn("erc20 bytes32 abi parse failed", zap.Error(err))
		return meta
	}

	call := func(method string, parsed abi.ABI) ([]interface{}, error) {
		data, err := parsed.Pack(method)
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", method, err)
		}
		msg := ethereum.CallMsg{To: &token, Data: data}
		resp, err := caller.CallContract(ctx, msg, nil)
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", method, err)
		}
		values, err := parsed.Unpack(method, resp)
		if err != nil {
			return nil, fmt.Errorf("unpack %s: %w", method, err)
		}
		return values, nil
	}

	var (
		decimals uint8
		symbol   string
		name     string

		decimalsOK bool
		symbolOK   bool
		nameOK     bool
	)

	// The three fields are independent reads; fetch them concurrently and
	// collect failures instead of short-circuiting.
	var g errgroup.Group

	g.Go(func() error {
		values, err := call("decimals", stringABI)
		if err != nil {
			logger.Debug("decimals call failed", zap.String("token", token.Hex()), zap.Error(err))
			return nil
		}
		if d, err := asUint8(values[0]); err == nil {
			decimals = d
			decimalsOK = true
		}
		return nil
	})

	g.Go(func() error {
		if values, err := call("symbol", stringABI); err == nil {
			if s, ok := values[0].(string); ok {
				symbol = s
				symbolOK = true
				return nil
			}
		}
		if values, err := call("symbol", bytes32ABI); err == nil {
			if s, ok := bytes32ToString(values[0]); ok {
				symbol = s
				symbolOK = true
				return nil
			}
		} else {
			logger.Debug("symbol call failed", zap.String("token", token.Hex()), zap.Error(err))
		}
		return nil
	})

	g.Go(func() error {
		if values, err := call("name", stringABI); err == nil {
			if n, ok := values[0].(string); ok {
				name = n
				nameOK = true
				return nil
			}
		}
		if values, err := call("name", bytes32ABI); err == nil {
			if n, ok := bytes32ToString(values[0]); ok {
				name = n
				nameOK = true
				return nil
			}
		} else {
			logger.Debug("name call failed", zap.String("token", token.Hex()), zap.Error(err))
		}
		return nil
	})

	_ = g.Wait()

	if decimalsOK {
		meta.Decimals = decimals
	}
	if symbolOK {
		meta.Symbol = symbol
	}
	if nameOK {
		meta.Name = name
	}

	return meta
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

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case uint16:
		return uint8(v), nil
	case uint32:
		return uint8(v), nil
	case uint64:
		return uint8(v), nil
	case *big.Int:
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}

func int24FromBig(value *big.Int) (int32, error) {
	min := big.NewInt(-1 << 23)
	max := big.NewInt((1 << 23) - 1)
	if value.Cmp(min) < 0 || value.Cmp(max) > 0 {
		return 0, fmt.Errorf("int24 overflow: %s", value.String())
	}
	return int32(value.Int64()), nil
}
