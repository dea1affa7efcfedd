package casino

import (
	"fmt"
	"strings"
)

// SettlementTransactionFailedError means the combined reveal+settle
// transaction was rejected on-chain after the reveal retry was spent.
type SettlementTransactionFailedError struct {
	Err error
}

func (e *SettlementTransactionFailedError) Error() string {
	return fmt.Sprintf("settlement transaction failed: %v", e.Err)
}

func (e *SettlementTransactionFailedError) Unwrap() error {
	return e.Err
}

// revealWentStale classifies a combined-transaction failure. Only failures
// that look like the reveal aged out between AwaitReveal and landing are
// worth a fresh reveal; a ledger rejection (liquidity, limits) will reject
// again no matter how fresh the reveal is, so unknown failures are terminal.
func revealWentStale(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())

	for _, marker := range []string{"stale", "expired", "randomness", "slot too old", "blockhash not found"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}

	return false
}
