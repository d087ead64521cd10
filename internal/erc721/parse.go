package erc721

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/metis-devops/nft-batch-mint/internal/ethaddr"
)

// ParseIDMint reads "0xRecipient:1,2,3". Token ids may be decimal or 0x hex.
func ParseIDMint(s string) (IDMint, error) {
	addr, ids, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return IDMint{}, fmt.Errorf("mint %q: want <recipient>:<id>[,<id>...]", s)
	}
	to, err := ethaddr.Parse(strings.TrimSpace(addr))
	if err != nil {
		return IDMint{}, fmt.Errorf("mint %q: recipient: %w", s, err)
	}

	var tokenIds []*big.Int
	for _, part := range strings.Split(ids, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, ok := new(big.Int).SetString(part, 0)
		if !ok || id.Sign() < 0 {
			return IDMint{}, fmt.Errorf("mint %q: bad token id %q", s, part)
		}
		tokenIds = append(tokenIds, id)
	}
	if len(tokenIds) == 0 {
		return IDMint{}, fmt.Errorf("mint %q: no token ids", s)
	}
	return IDMint{To: to, TokenIds: tokenIds}, nil
}
