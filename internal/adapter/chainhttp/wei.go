package chainhttp

import (
	"fmt"
	"math/big"
)

var weiPerEther = new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

// weiToEther parses a decimal wei string into an ether-denominated float.
// An empty string is treated as zero, matching the gateway's omission of
// unset amounts.
func weiToEther(wei string) (float64, error) {
	if wei == "" {
		return 0, nil
	}
	value, ok := new(big.Float).SetString(wei)
	if !ok {
		return 0, fmt.Errorf("malformed wei amount %q", wei)
	}
	ether, _ := new(big.Float).Quo(value, weiPerEther).Float64()
	return ether, nil
}

// etherToWei formats an ether amount as an integral decimal wei string.
func etherToWei(ether float64) string {
	wei, _ := new(big.Float).Mul(big.NewFloat(ether), weiPerEther).Int(nil)
	return wei.String()
}
