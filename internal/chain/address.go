package chain

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ErrInvalidAddress is returned for anything that is not a well-formed account address.
var ErrInvalidAddress = errors.New("chain: invalid address")

// ValidateAddress parses a 20-byte hex account address, with a lowercase 0x
// prefix or none. Surrounding whitespace and an uppercase 0X are rejected.
// All-lower and all-upper hex are accepted as is; mixed case must carry a
// correct EIP-55 checksum.
func ValidateAddress(raw string) (common.Address, error) {
	if strings.HasPrefix(raw, "0X") || !common.IsHexAddress(raw) {
		return common.Address{}, ErrInvalidAddress
	}
	addr := common.HexToAddress(raw)

	digits := strings.TrimPrefix(raw, "0x")
	if digits != strings.ToLower(digits) && digits != strings.ToUpper(digits) {
		if addr.Hex()[2:] != digits {
			return common.Address{}, ErrInvalidAddress
		}
	}
	return addr, nil
}
