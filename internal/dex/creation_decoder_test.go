package dex

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/Catorpilor/fresh-market-watcher/internal/model"
)

func topicFromAddress(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}

func TestDecodePairCreated(t *testing.T) {
	factoryABI, err := V2FactoryABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	factory := common.HexToAddress("0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f")
	token0 := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	token1 := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	pair := common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")

	data, err := factoryABI.Events["PairCreated"].Inputs.NonIndexed().Pack(pair, big.NewInt(42))
	if err != nil {
		t.Fatalf("pack: %v", err)
	}

	log := types.Log{
		Address:     factory,
		Topics:      []common.Hash{factoryABI.Events["PairCreated"].ID, topicFromAddress(token0), topicFromAddress(token1)},
		Data:        data,
		BlockNumber: 1234,
		TxHash:      common.HexToHash("0x01"),
	}

	decoder, err := NewCreationDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	record, err := decoder.Decode(log)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if record.PoolType != model.PoolTypeV2 {
		t.Fatalf("pool type mismatch: %s", record.PoolType)
	}
	if record.Address != pair.Hex() {
		t.Fatalf("pair mismatch: %s", record.Address)
	}
	if record.Token0 != token0.Hex() || record.Token1 != token1.Hex() {
		t.Fatalf("token order mismatch: %s / %s", record.Token0, record.Token1)
	}
	if record.Factory != factory.Hex() || record.BlockNumber != 1234 {
		t.Fatalf("provenance mismatch: %+v", record)
	}
}

func TestDecodePoolCreated(t *testing.T) {
	factoryABI, err := V3FactoryABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	factory := common.HexToAddress("0x1F98431c8aD98523631AE4a59f267346ea31F984")
	token0 := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	token1 := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	pool := common.HexToAddress("0xdddddddddddddddddddddddddddddddddddddddd")

	data, err := factoryABI.Events["PoolCreated"].Inputs.NonIndexed().Pack(big.NewInt(60), pool)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}

	log := types.Log{
		Address: factory,
		Topics: []common.Hash{
			factoryABI.Events["PoolCreated"].ID,
			topicFromAddress(token0),
			topicFromAddress(token1),
			common.BigToHash(big.NewInt(3000)),
		},
		Data:        data,
		BlockNumber: 5678,
		TxHash:      common.HexToHash("0x02"),
	}

	decoder, err := NewCreationDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	record, err := decoder.Decode(log)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if record.PoolType != model.PoolTypeV3 {
		t.Fatalf("pool type mismatch: %s", record.PoolType)
	}
	if record.Address != pool.Hex() {
		t.Fatalf("pool mismatch: %s", record.Address)
	}
	if record.FeeTier != 3000 || record.TickSpacing != 60 {
		t.Fatalf("fee/tick mismatch: %+v", record)
	}
	if record.Token0 != token0.Hex() || record.Token1 != token1.Hex() {
		t.Fatalf("token order mismatch: %s / %s", record.Token0, record.Token1)
	}
}

func TestDecodeRejectsUnknownShape(t *testing.T) {
	decoder, err := NewCreationDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	if _, err := decoder.Decode(types.Log{}); err == nil {
		t.Fatalf("expected error for empty log")
	}

	transferTopic, err := TransferTopic()
	if err != nil {
		t.Fatalf("transfer topic: %v", err)
	}
	log := types.Log{Topics: []common.Hash{transferTopic}}
	if _, err := decoder.Decode(log); err == nil {
		t.Fatalf("expected error for unsupported topic0")
	}
}

func TestDecodePairCreatedBadData(t *testing.T) {
	factoryABI, err := V2FactoryABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	decoder, err := NewCreationDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	log := types.Log{
		Topics: []common.Hash{
			factoryABI.Events["PairCreated"].ID,
			topicFromAddress(common.HexToAddress("0x01")),
			topicFromAddress(common.HexToAddress("0x02")),
		},
		Data: []byte{0x01, 0x02},
	}
	if _, err := decoder.Decode(log); err == nil {
		t.Fatalf("expected error for truncated data")
	}
}
