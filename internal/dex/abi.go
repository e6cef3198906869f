package dex

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const v2FactoryABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "token0", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "token1", "type": "address"},
      {"indexed": false, "internalType": "address", "name": "pair", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "", "type": "uint256"}
    ],
    "name": "PairCreated",
    "type": "event"
  }
]`

const v3FactoryABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "token0", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "token1", "type": "address"},
      {"indexed": true, "internalType": "uint24", "name": "fee", "type": "uint24"},
      {"indexed": false, "internalType": "int24", "name": "tickSpacing", "type": "int24"},
      {"indexed": false, "internalType": "address", "name": "pool", "type": "address"}
    ],
    "name": "PoolCreated",
    "type": "event"
  }
]`

const v2PairABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "sender", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "amount0", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "amount1", "type": "uint256"}
    ],
    "name": "Mint",
    "type": "event"
  }
]`

const v3PoolABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "address", "name": "sender", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "owner", "type": "address"},
      {"indexed": true, "internalType": "int24", "name": "tickLower", "type": "int24"},
      {"indexed": true, "internalType": "int24", "name": "tickUpper", "type": "int24"},
      {"indexed": false, "internalType": "uint128", "name": "amount", "type": "uint128"},
      {"indexed": false, "internalType": "uint256", "name": "amount0", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "amount1", "type": "uint256"}
    ],
    "name": "Mint",
    "type": "event"
  }
]`

var (
	v2FactoryABI     abi.ABI
	v2FactoryABIOnce sync.Once
	v2FactoryABIErr  error

	v3FactoryABI     abi.ABI
	v3FactoryABIOnce sync.Once
	v3FactoryABIErr  error

	v2PairABI     abi.ABI
	v2PairABIOnce sync.Once
	v2PairABIErr  error

	v3PoolABI     abi.ABI
	v3PoolABIOnce sync.Once
	v3PoolABIErr  error
)

// V2FactoryABI returns the parsed V2 factory ABI.
func V2FactoryABI() (abi.ABI, error) {
	v2FactoryABIOnce.Do(func() {
		v2FactoryABI, v2FactoryABIErr = abi.JSON(strings.NewReader(v2FactoryABIJSON))
	})
	return v2FactoryABI, v2FactoryABIErr
}

// V3FactoryABI returns the parsed V3 factory ABI.
func V3FactoryABI() (abi.ABI, error) {
	v3FactoryABIOnce.Do(func() {
		v3FactoryABI, v3FactoryABIErr = abi.JSON(strings.NewReader(v3FactoryABIJSON))
	})
	return v3FactoryABI, v3FactoryABIErr
}

// V2PairABI returns the parsed V2 pair ABI.
func V2PairABI() (abi.ABI, error) {
	v2PairABIOnce.Do(func() {
		v2PairABI, v2PairABIErr = abi.JSON(strings.NewReader(v2PairABIJSON))
	})
	return v2PairABI, v2PairABIErr
}

// V3PoolABI returns the parsed V3 pool ABI.
func V3PoolABI() (abi.ABI, error) {
	v3PoolABIOnce.Do(func() {
		v3PoolABI, v3PoolABIErr = abi.JSON(strings.NewReader(v3PoolABIJSON))
	})
	return v3PoolABI, v3PoolABIErr
}

// PairCreatedTopic returns the topic0 of the V2 PairCreated event.
func PairCreatedTopic() (common.Hash, error) {
	parsed, err := V2FactoryABI()
	if err != nil {
		return common.Hash{}, err
	}
	return parsed.Events["PairCreated"].ID, nil
}

// PoolCreatedTopic returns the topic0 of the V3 PoolCreated event.
func PoolCreatedTopic() (common.Hash, error) {
	parsed, err := V3FactoryABI()
	if err != nil {
		return common.Hash{}, err
	}
	return parsed.Events["PoolCreated"].ID, nil
}
