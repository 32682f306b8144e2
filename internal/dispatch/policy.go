package dispatch

import (
	"errors"
	"fmt"
	"math"

	"neighborgrid/internal/model"
)

const (
	PolicySelfFirst      = "self_first"
	PolicyCommunityFirst = "community_first"
)

// ErrUnknownPolicy is returned for policy names without an implementation.
var ErrUnknownPolicy = errors.New("unknown dispatch policy")

// StepInput is what a policy sees for one hour.
type StepInput struct {
	Sample  model.HourSample
	Battery *model.Battery
	Ledger  *CreditLedger

	// PoolCapKWh bounds the pool draw this hour; +Inf means unlimited.
	PoolCapKWh  float64
	PoolEnabled bool
}

// Allocation is how one hour's surplus or deficit was routed.
type Allocation struct {
	BatteryFlowKWh float64
	ToPoolKWh      float64
	FromPoolKWh    float64
	GridImportKWh  float64
}

// Policy decides one hour's allocation, mutating battery and ledger state.
type Policy interface {
	Name() string
	Allocate(in StepInput) Allocation
}

// PolicyInfo describes a policy for listings.
type PolicyInfo struct {
	Name        string
	Description string
	Implemented bool
}

// Policies lists the known policy names.
func Policies() []PolicyInfo {
	return []PolicyInfo{
		{
			Name:        PolicySelfFirst,
			Description: "Solar covers load, then battery, then community pool credits, then grid.",
			Implemented: true,
		},
		{
			Name:        PolicyCommunityFirst,
			Description: "Reserved: share surplus with the pool before charging the battery.",
			Implemented: false,
		},
	}
}

// PolicyByName resolves a policy. An empty name selects self_first.
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", PolicySelfFirst:
		return SelfFirst{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}

// SelfFirst is the solar -> battery -> pool -> grid waterfall.
type SelfFirst struct{}

func (SelfFirst) Name() string { return PolicySelfFirst }

func (SelfFirst) Allocate(in StepInput) Allocation {
	var a Allocation
	net := in.Sample.PVProductionKWh - in.Sample.LoadConsumptionKWh

	if net > 0 {
		charge := in.Battery.Charge(net)
		a.BatteryFlowKWh = charge
		net -= charge

		// Banked without checking pool demand; the community layer overrides it.
		if net > 0 && in.PoolEnabled {
			a.ToPoolKWh = net
			in.Ledger.Deposit(net)
		}
		return a
	}

	deficit := -net
	discharge := in.Battery.Discharge(deficit)
	a.BatteryFlowKWh = -discharge
	deficit -= discharge

	if deficit > 0 && in.PoolEnabled {
		draw := math.Min(deficit, math.Min(in.PoolCapKWh, in.Ledger.Available()))
		if draw > 0 {
			a.FromPoolKWh = draw
			in.Ledger.Withdraw(draw)
			deficit -= draw
		}
	}

	if deficit > 0 {
		a.GridImportKWh = deficit
	}
	return a
}
