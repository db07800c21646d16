package zns

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/everFinance/zns/schema"
	"github.com/shopspring/decimal"
)

var labelRegexp = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// Normalize lowercases name and makes sure it carries the canonical suffix
// exactly once. A missing suffix is appended; a repeated one is rejected.
func Normalize(name string) (string, error) {
	domain := strings.ToLower(strings.TrimSpace(name))
	label := strings.TrimSuffix(domain, schema.DomainSuffix)
	if strings.HasSuffix(label, schema.DomainSuffix) {
		return "", fmt.Errorf("%w: duplicated suffix in %q", schema.ErrInvalidDomainFormat, name)
	}
	if len(label) == 0 {
		return "", fmt.Errorf("%w: empty name", schema.ErrInvalidDomainFormat)
	}
	if !labelRegexp.MatchString(label) {
		return "", fmt.Errorf("%w: %q", schema.ErrInvalidDomainFormat, name)
	}
	return label + schema.DomainSuffix, nil
}

func Label(domain string) string {
	return strings.TrimSuffix(domain, schema.DomainSuffix)
}

// ParseTarget validates a transfer recipient.
func ParseTarget(addr string) (common.Address, error) {
	addr = strings.TrimSpace(addr)
	if !common.IsHexAddress(addr) {
		return common.Address{}, fmt.Errorf("%w: %q", schema.ErrInvalidAddress, addr)
	}
	target := common.HexToAddress(addr)
	if target == schema.NoOwner {
		return common.Address{}, fmt.Errorf("%w: zero address", schema.ErrInvalidAddress)
	}
	return target, nil
}

func FormatAddress(addr common.Address) string {
	if addr == schema.NoOwner {
		return "No owner"
	}
	hex := addr.Hex()
	return hex[:6] + "..." + hex[38:]
}

func FormatAmount(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -int32(decimals)).String()
}

func amountFloat(amount *big.Int, decimals uint8) float64 {
	if amount == nil {
		return 0
	}
	f, _ := decimal.NewFromBigInt(amount, -int32(decimals)).Float64()
	return f
}
