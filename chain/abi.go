package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const DomainRegistryABI = `[
	{"type":"function","name":"resolveDomain","stateMutability":"view","inputs":[{"name":"domain","type":"string"}],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"isAvailable","stateMutability":"view","inputs":[{"name":"domain","type":"string"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"domainOwners","stateMutability":"view","inputs":[{"name":"","type":"string"}],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"domainExpiry","stateMutability":"view","inputs":[{"name":"","type":"string"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"registrationPrice","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"registerDomain","stateMutability":"nonpayable","inputs":[{"name":"domain","type":"string"}],"outputs":[]},
	{"type":"function","name":"renewDomain","stateMutability":"nonpayable","inputs":[{"name":"domain","type":"string"}],"outputs":[]},
	{"type":"function","name":"transferDomain","stateMutability":"nonpayable","inputs":[{"name":"domain","type":"string"},{"name":"newOwner","type":"address"}],"outputs":[]},
	{"type":"event","name":"DomainRegistered","anonymous":false,"inputs":[{"name":"domain","type":"string","indexed":false},{"name":"owner","type":"address","indexed":false},{"name":"expiry","type":"uint256","indexed":false}]},
	{"type":"event","name":"DomainRenewed","anonymous":false,"inputs":[{"name":"domain","type":"string","indexed":false},{"name":"newExpiry","type":"uint256","indexed":false}]},
	{"type":"event","name":"DomainTransferred","anonymous":false,"inputs":[{"name":"domain","type":"string","indexed":false},{"name":"newOwner","type":"address","indexed":false}]}
]`

const ERC20ABI = `[
	{"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`

var (
	registryABI = mustParseABI(DomainRegistryABI)
	erc20ABI    = mustParseABI(ERC20ABI)
)

func mustParseABI(js string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(js))
	if err != nil {
		panic(err)
	}
	return parsed
}
