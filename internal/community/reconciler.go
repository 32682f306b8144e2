package community

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"neighborgrid/internal/model"
)

const (
	// MatchToleranceKWh is the dead band for producer/consumer membership and
	// for turning unmet need into grid import.
	MatchToleranceKWh = 0.01
	// advanceToleranceKWh moves a cursor once its remainder is exhausted.
	advanceToleranceKWh = 0.001
)

// ErrMisaligned is returned when homes do not share the same hour sequence.
var ErrMisaligned = errors.New("home records are not hour-aligned")

// Transfer is one producer -> consumer pool movement within an hour.
type Transfer struct {
	FromHomeID string
	ToHomeID   string
	KWh        float64
}

// PoolAllocation is the matching for a single hour.
type PoolAllocation struct {
	Hour      int
	Transfers []Transfer
}

// MatchedKWh is the total energy moved through the pool this hour.
func (a PoolAllocation) MatchedKWh() float64 {
	sum := 0.0
	for _, t := range a.Transfers {
		sum += t.KWh
	}
	return sum
}

// Reconciliation is the community-wide view after matching.
type Reconciliation struct {
	// Records are ordered by hour, then home ID.
	Records     []model.HourRecord
	Allocations []PoolAllocation
}

// NetAvailable is a home's surplus (positive) or unmet deficit (negative)
// after its own battery has acted.
func NetAvailable(r model.HourRecord) float64 {
	if r.PVProductionKWh > r.LoadConsumptionKWh {
		return (r.PVProductionKWh - r.LoadConsumptionKWh) - math.Max(0, r.BatteryFlowKWh)
	}
	return -((r.LoadConsumptionKWh - r.PVProductionKWh) - math.Max(0, -r.BatteryFlowKWh))
}

// Reconcile re-derives pool transfers, grid import and credits for records
// produced with the pool disabled. The input slice is not modified.
func Reconcile(records []model.HourRecord) (*Reconciliation, error) {
	out := make([]model.HourRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Hour != out[j].Hour {
			return out[i].Hour < out[j].Hour
		}
		return out[i].HomeID < out[j].HomeID
	})

	hours, byHour, err := groupByHour(out)
	if err != nil {
		return nil, err
	}

	allocs := make([]PoolAllocation, len(hours))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, h := range hours {
		g.Go(func() error {
			rows := make([]*model.HourRecord, len(byHour[h]))
			for k, idx := range byHour[h] {
				rows[k] = &out[idx]
			}
			allocs[i] = matchHour(h, rows)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	applyCreditBalances(out)
	return &Reconciliation{Records: out, Allocations: allocs}, nil
}

// groupByHour maps each hour to the indices of its records and checks that
// every hour carries exactly the same set of homes.
func groupByHour(records []model.HourRecord) ([]int, map[int][]int, error) {
	byHour := make(map[int][]int)
	homes := make(map[string]struct{})
	for i, r := range records {
		byHour[r.Hour] = append(byHour[r.Hour], i)
		homes[r.HomeID] = struct{}{}
	}

	hours := make([]int, 0, len(byHour))
	for h, idxs := range byHour {
		seen := make(map[string]struct{}, len(idxs))
		for _, idx := range idxs {
			id := records[idx].HomeID
			if _, dup := seen[id]; dup {
				return nil, nil, fmt.Errorf("%w: home %s appears twice in hour %d", ErrMisaligned, id, h)
			}
			seen[id] = struct{}{}
		}
		if len(seen) != len(homes) {
			return nil, nil, fmt.Errorf("%w: hour %d has %d of %d homes", ErrMisaligned, h, len(seen), len(homes))
		}
		hours = append(hours, h)
	}
	sort.Ints(hours)
	return hours, byHour, nil
}

type party struct {
	rec *model.HourRecord
	net float64
}

// matchHour runs the greedy two-cursor matching for one hour and rewrites the
// pool, grid and credit delta fields of rows in place.
func matchHour(hour int, rows []*model.HourRecord) PoolAllocation {
	alloc := PoolAllocation{Hour: hour}
	nets := make([]float64, len(rows))
	var producers, consumers []party

	for i, r := range rows {
		nets[i] = NetAvailable(*r)
		r.ToPoolKWh = 0
		r.FromPoolKWh = 0
		switch {
		case nets[i] > MatchToleranceKWh:
			producers = append(producers, party{rec: r, net: nets[i]})
		case nets[i] < -MatchToleranceKWh:
			consumers = append(consumers, party{rec: r, net: nets[i]})
		}
	}

	sort.SliceStable(producers, func(i, j int) bool { return producers[i].net > producers[j].net })
	sort.SliceStable(consumers, func(i, j int) bool { return consumers[i].net < consumers[j].net })

	pi, ci := 0, 0
	var remaining, need float64
	if len(producers) > 0 {
		remaining = producers[0].net
	}
	if len(consumers) > 0 {
		need = -consumers[0].net
	}
	for pi < len(producers) && ci < len(consumers) {
		p, c := producers[pi], consumers[ci]
		amount := math.Min(remaining, need)
		p.rec.ToPoolKWh += amount
		c.rec.FromPoolKWh += amount
		alloc.Transfers = append(alloc.Transfers, Transfer{FromHomeID: p.rec.HomeID, ToHomeID: c.rec.HomeID, KWh: amount})

		remaining -= amount
		need -= amount
		if remaining < advanceToleranceKWh {
			pi++
			if pi < len(producers) {
				remaining = producers[pi].net
			}
		}
		if need < advanceToleranceKWh {
			ci++
			if ci < len(consumers) {
				need = -consumers[ci].net
			}
		}
	}

	// Unmatched surplus is dropped; unmet deficit falls back to the grid.
	for i, r := range rows {
		r.GridImportKWh = 0
		if nets[i] < 0 {
			if unmet := -nets[i] - r.FromPoolKWh; unmet > MatchToleranceKWh {
				r.GridImportKWh = unmet
			}
		}
		r.CreditsDeltaKWh = r.ToPoolKWh - r.FromPoolKWh
	}
	return alloc
}

// applyCreditBalances rebuilds each home's balance as the prefix sum of its
// own deltas. records must be ordered by hour.
func applyCreditBalances(records []model.HourRecord) {
	balances := make(map[string]float64)
	for i := range records {
		r := &records[i]
		balances[r.HomeID] += r.CreditsDeltaKWh
		r.CreditsBalanceKWh = balances[r.HomeID]
	}
}
