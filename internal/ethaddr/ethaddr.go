// Package ethaddr parses user supplied account addresses.
package ethaddr

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Parse accepts a 0x-prefixed 20-byte hex address. All-lowercase and
// all-uppercase forms carry no checksum; mixed case must match EIP-55.
func Parse(s string) (common.Address, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return common.Address{}, fmt.Errorf("address %q lacks 0x prefix", s)
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("address %q is not 20 hex bytes", s)
	}
	addr := common.HexToAddress(s)
	body := s[2:]
	if body != strings.ToLower(body) && body != strings.ToUpper(body) && addr.Hex() != "0x"+body {
		return common.Address{}, fmt.Errorf("address %q has an invalid checksum", s)
	}
	return addr, nil
}
