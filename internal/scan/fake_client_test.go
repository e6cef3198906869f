package scan

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/Catorpilor/fresh-market-watcher/internal/dex"
)

// fakeClient implements EthClient for tests. Log queries are answered by
// logsFn; call counters track RPC activity for cache assertions.
type fakeClient struct {
	mu sync.Mutex

	head    uint64
	headErr error
	logsFn  func(from, to uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
	callFn  func(msg ethereum.CallMsg) ([]byte, error)

	filterCalls int
	callCalls   int
}

func (f *fakeClient) LatestBlockNumber(context.Context) (uint64, error) {
	return f.head, f.headErr
}

func (f *fakeClient) BlockTimestamp(_ context.Context, number uint64) (uint64, error) {
	return 1700000000 + number, nil
}

func (f *fakeClient) FilterLogs(_ context.Context, from, to uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error) {
	f.mu.Lock()
	f.filterCalls++
	f.mu.Unlock()
	if f.logsFn == nil {
		return nil, nil
	}
	return f.logsFn(from, to, addresses, topic0)
}

func (f *fakeClient) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	f.callCalls++
	f.mu.Unlock()
	if f.callFn == nil {
		return nil, fmt.Errorf("no contract calls expected")
	}
	return f.callFn(msg)
}

func (f *fakeClient) filterCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filterCalls
}

func topicOf(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}

func containsTopic(topics []common.Hash, want common.Hash) bool {
	for _, topic := range topics {
		if topic == want {
			return true
		}
	}
	return false
}

func pairCreatedLog(t *testing.T, factory, token0, token1, pair common.Address, block uint64) types.Log {
	t.Helper()
	parsed, err := dex.V2FactoryABI()
	if err != nil {
		t.Fatalf("v2 factory abi: %v", err)
	}
	event := parsed.Events["PairCreated"]
	data, err := event.Inputs.NonIndexed().Pack(pair, big.NewInt(1))
	if err != nil {
		t.Fatalf("pack PairCreated: %v", err)
	}
	return types.Log{
		Address:     factory,
		Topics:      []common.Hash{event.ID, topicOf(token0), topicOf(token1)},
		Data:        data,
		BlockNumber: block,
		TxHash:      common.BytesToHash(pair.Bytes()),
	}
}

func poolCreatedLog(t *testing.T, factory, token0, token1, pool common.Address, fee int64, block uint64) types.Log {
	t.Helper()
	parsed, err := dex.V3FactoryABI()
	if err != nil {
		t.Fatalf("v3 factory abi: %v", err)
	}
	event := parsed.Events["PoolCreated"]
	data, err := event.Inputs.NonIndexed().Pack(big.NewInt(60), pool)
	if err != nil {
		t.Fatalf("pack PoolCreated: %v", err)
	}
	return types.Log{
		Address:     factory,
		Topics:      []common.Hash{event.ID, topicOf(token0), topicOf(token1), common.BigToHash(big.NewInt(fee))},
		Data:        data,
		BlockNumber: block,
		TxHash:      common.BytesToHash(pool.Bytes()),
	}
}

func v2MintLog(t *testing.T, pool common.Address, amount0, amount1 *big.Int, block uint64) types.Log {
	t.Helper()
	parsed, err := dex.V2PairABI()
	if err != nil {
		t.Fatalf("v2 pair abi: %v", err)
	}
	event := parsed.Events["Mint"]
	data, err := event.Inputs.NonIndexed().Pack(amount0, amount1)
	if err != nil {
		t.Fatalf("pack v2 mint: %v", err)
	}
	sender := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	return types.Log{
		Address:     pool,
		Topics:      []common.Hash{event.ID, topicOf(sender)},
		Data:        data,
		BlockNumber: block,
	}
}

func v3MintLog(t *testing.T, pool common.Address, amount0, amount1 *big.Int, block uint64) types.Log {
	t.Helper()
	parsed, err := dex.V3PoolABI()
	if err != nil {
		t.Fatalf("v3 pool abi: %v", err)
	}
	event := parsed.Events["Mint"]
	sender := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	owner := common.HexToAddress("0x00000000000000000000000000000000000000cc")
	data, err := event.Inputs.NonIndexed().Pack(sender, big.NewInt(777), amount0, amount1)
	if err != nil {
		t.Fatalf("pack v3 mint: %v", err)
	}
	return types.Log{
		Address: pool,
		Topics: []common.Hash{
			event.ID,
			topicOf(owner),
			common.BigToHash(big.NewInt(60)),
			common.BigToHash(big.NewInt(120)),
		},
		Data:        data,
		BlockNumber: block,
	}
}

func transferLog(t *testing.T, token, from, to common.Address, value *big.Int, block uint64) types.Log {
	t.Helper()
	topic, err := dex.TransferTopic()
	if err != nil {
		t.Fatalf("transfer topic: %v", err)
	}
	return types.Log{
		Address:     token,
		Topics:      []common.Hash{topic, topicOf(from), topicOf(to)},
		Data:        common.LeftPadBytes(value.Bytes(), 32),
		BlockNumber: block,
	}
}
