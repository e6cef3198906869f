package scan

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ParseFactories converts factory address strings into common.Address,
// rejecting anything that is not a hex address. Empty entries are dropped.
func ParseFactories(inputs []string) ([]common.Address, error) {
	addresses := make([]common.Address, 0, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !common.IsHexAddress(input) {
			return nil, fmt.Errorf("invalid factory address: %s", input)
		}
		addresses = append(addresses, common.HexToAddress(input))
	}
	if len(addresses) == 0 {
		return nil, fmt.Errorf("at least one factory address is required")
	}
	return addresses, nil
}
