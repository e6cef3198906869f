package scan

import (
	"context"
	"reflect"
	"testing"

	"github.com/Catorpilor/fresh-market-watcher/internal/chain"
)

func TestBlocksForWindow(t *testing.T) {
	estimator := NewEstimator(chain.NewRegistry())

	// ethereum: 12s blocks, 60 minutes -> 300 blocks
	if got := estimator.BlocksForWindow("ethereum", 60); got != 300 {
		t.Fatalf("ethereum blocks mismatch: %d", got)
	}

	// bsc: 3s blocks, 10 minutes -> 200 blocks
	if got := estimator.BlocksForWindow("bsc", 10); got != 200 {
		t.Fatalf("bsc blocks mismatch: %d", got)
	}

	// floor, not round: polygon 2.1s, 1 minute -> floor(60/2.1) = 28
	if got := estimator.BlocksForWindow("polygon", 1); got != 28 {
		t.Fatalf("polygon blocks mismatch: %d", got)
	}
}

func TestBlocksForWindowUnknownChainFallsBack(t *testing.T) {
	estimator := NewEstimator(chain.NewRegistry())

	// unknown chains use the 12s default instead of erroring
	if got := estimator.BlocksForWindow("definitely-not-a-chain", 60); got != 300 {
		t.Fatalf("fallback blocks mismatch: %d", got)
	}
}

func TestSplitRange(t *testing.T) {
	got, err := SplitRange(100, 105, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []BlockRange{
		{From: 100, To: 101},
		{From: 102, To: 103},
		{From: 104, To: 105},
	}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ranges mismatch: %+v != %+v", got, want)
	}
}

func TestSplitRangeInvalid(t *testing.T) {
	if _, err := SplitRange(10, 9, 1); err == nil {
		t.Fatalf("expected error for invalid range")
	}
	if _, err := SplitRange(1, 10, 0); err == nil {
		t.Fatalf("expected error for zero batch size")
	}
}

func TestResolveRangeClampsAtGenesis(t *testing.T) {
	estimator := NewEstimator(chain.NewRegistry())
	client := &fakeClient{head: 100}

	blockRange, err := estimator.ResolveRange(context.Background(), client, "ethereum", 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if blockRange.From != 0 || blockRange.To != 100 {
		t.Fatalf("range mismatch: %+v", blockRange)
	}
}
