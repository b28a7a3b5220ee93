package settlement

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"nftmarket/core/types"
)

const (
	EventTypePaymentApproved  = "settlement.payment.approved"
	EventTypeRevenueUnlocked  = "settlement.revenue.unlocked"
	EventTypeRevenueRetrieved = "settlement.revenue.retrieved"
	EventTypeEscrowDeposited  = "settlement.escrow.deposited"
	EventTypeEscrowRefunded   = "settlement.escrow.refunded"
)

type ledgerEvent struct {
	evt *types.Event
}

func (e ledgerEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

// Event returns the underlying payload.
func (e ledgerEvent) Event() *types.Event { return e.evt }

func newPaymentEvent(eventType string, payer, beneficiary [20]byte, currency string, amount *big.Int, feeBps uint32) *types.Event {
	attrs := map[string]string{
		"payer":       hex.EncodeToString(payer[:]),
		"beneficiary": hex.EncodeToString(beneficiary[:]),
		"currency":    currency,
		"amount":      amount.String(),
		"feeBps":      strconv.FormatUint(uint64(feeBps), 10),
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}

func newEscrowEvent(eventType string, account [20]byte, amount *big.Int) *types.Event {
	attrs := map[string]string{
		"account": hex.EncodeToString(account[:]),
		"amount":  amount.String(),
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}
