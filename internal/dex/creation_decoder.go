package dex

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/Catorpilor/fresh-market-watcher/internal/model"
)

// CreationDecoder decodes factory creation logs into PoolRecords. A log is
// tried as a V2 PairCreated, else as a V3 PoolCreated, else rejected.
type CreationDecoder struct {
	v2Event abi.Event
	v3Event abi.Event
}

// NewCreationDecoder builds a decoder with both factory event shapes.
func NewCreationDecoder() (*CreationDecoder, error) {
	v2ABI, err := V2FactoryABI()
	if err != nil {
		return nil, fmt.Errorf("parse v2 factory abi: %w", err)
	}
	v3ABI, err := V3FactoryABI()
	if err != nil {
		return nil, fmt.Errorf("parse v3 factory abi: %w", err)
	}

	return &CreationDecoder{
		v2Event: v2ABI.Events["PairCreated"],
		v3Event: v3ABI.Events["PoolCreated"],
	}, nil
}

// Decode converts a raw creation log into a PoolRecord. The token order is
// exactly the emitted token0/token1 order; it is never re-sorted.
func (d *CreationDecoder) Decode(log types.Log) (model.PoolRecord, error) {
	if len(log.Topics) == 0 {
		return model.PoolRecord{}, fmt.Errorf("missing topics")
	}

	switch log.Topics[0] {
	case d.v2Event.ID:
		return d.decodePairCreated(log)
	case d.v3Event.ID:
		return d.decodePoolCreated(log)
	default:
		return model.PoolRecord{}, fmt.Errorf("unsupported topic0: %s", log.Topics[0].Hex())
	}
}

func (d *CreationDecoder) decodePairCreated(log types.Log) (model.PoolRecord, error) {
	if len(log.Topics) != 3 {
		return model.PoolRecord{}, fmt.Errorf("expected 3 topics for PairCreated, got %d", len(log.Topics))
	}

	var indexed struct {
		Token0 common.Address
		Token1 common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(d.v2Event.Inputs), log.Topics[1:]); err != nil {
		return model.PoolRecord{}, fmt.Errorf("parse topics: %w", err)
	}

	values, err := d.v2Event.Inputs.NonIndexed().Unpack(log.Data)
	if err != nil {
		return model.PoolRecord{}, fmt.Errorf("unpack PairCreated: %w", err)
	}
	if len(values) != 2 {
		return model.PoolRecord{}, fmt.Errorf("unexpected PairCreated values: %d", len(values))
	}

	pair, err := asAddress(values[0])
	if err != nil {
		return model.PoolRecord{}, fmt.Errorf("pair: %w", err)
	}

	return model.PoolRecord{
		Address:     pair.Hex(),
		Token0:      indexed.Token0.Hex(),
		Token1:      indexed.Token1.Hex(),
		Factory:     log.Address.Hex(),
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash.Hex(),
		PoolType:    model.PoolTypeV2,
	}, nil
}

func (d *CreationDecoder) decodePoolCreated(log types.Log) (model.PoolRecord, error) {
	if len(log.Topics) != 4 {
		return model.PoolRecord{}, fmt.Errorf("expected 4 topics for PoolCreated, got %d", len(log.Topics))
	}

	var indexed struct {
		Token0 common.Address
		Token1 common.Address
		Fee    *big.Int
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(d.v3Event.Inputs), log.Topics[1:]); err != nil {
		return model.PoolRecord{}, fmt.Errorf("parse topics: %w", err)
	}

	values, err := d.v3Event.Inputs.NonIndexed().Unpack(log.Data)
	if err != nil {
		return model.PoolRecord{}, fmt.Errorf("unpack PoolCreated: %w", err)
	}
	if len(values) != 2 {
		return model.PoolRecord{}, fmt.Errorf("unexpected PoolCreated values: %d", len(values))
	}

	tickSpacingInt, err := asBigInt(values[0])
	if err != nil {
		return model.PoolRecord{}, fmt.Errorf("tick spacing: %w", err)
	}
	tickSpacing, err := int24FromBig(tickSpacingInt)
	if err != nil {
		return model.PoolRecord{}, fmt.Errorf("tick spacing: %w", err)
	}

	pool, err := asAddress(values[1])
	if err != nil {
		return model.PoolRecord{}, fmt.Errorf("pool: %w", err)
	}

	return model.PoolRecord{
		Address:     pool.Hex(),
		Token0:      indexed.Token0.Hex(),
		Token1:      indexed.Token1.Hex(),
		Factory:     log.Address.Hex(),
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash.Hex(),
		PoolType:    model.PoolTypeV3,
		FeeTier:     uint32(indexed.Fee.Uint64()),
		TickSpacing: tickSpacing,
	}, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}
