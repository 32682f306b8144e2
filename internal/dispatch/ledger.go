package dispatch

import (
	"math"

	"neighborgrid/internal/model"
)

// CreditLedger is one home's running pool credit balance in kWh.
// It is never reset mid-run and is not shared between homes.
type CreditLedger struct {
	balance float64
}

// NewCreditLedger seeds a ledger. Negative seeds are valid; such a home
// cannot draw from the pool until it earns its way back above zero.
func NewCreditLedger(initialKWh float64) *CreditLedger {
	return &CreditLedger{balance: initialKWh}
}

func (l *CreditLedger) Deposit(kwh float64)  { l.balance += kwh }
func (l *CreditLedger) Withdraw(kwh float64) { l.balance -= kwh }

// Balance is the signed running balance.
func (l *CreditLedger) Balance() float64 { return l.balance }

// Available is the drawable balance, never negative.
func (l *CreditLedger) Available() float64 { return math.Max(0, l.balance) }

// Result is the output of one home's dispatch run.
type Result struct {
	HomeID  string
	Policy  string
	Records []model.HourRecord

	FinalSOC        float64
	FinalCreditsKWh float64
}
