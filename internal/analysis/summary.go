package analysis

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"

	"neighborgrid/internal/model"
)

// Summary is a per-home reduction of dispatch output.
type Summary struct {
	HomeID string
	Hours  int

	TotalPVKWh         float64
	TotalLoadKWh       float64
	TotalToPoolKWh     float64
	TotalFromPoolKWh   float64
	TotalGridImportKWh float64

	FinalSOCPct     float64
	FinalCreditsKWh float64

	// SelfSufficiencyPct is the share of load not imported from the grid.
	SelfSufficiencyPct float64
}

// Summarize reduces one home's records, ordered by hour.
func Summarize(records []model.HourRecord) Summary {
	s := Summary{Hours: len(records)}
	if len(records) == 0 {
		return s
	}
	s.HomeID = records[0].HomeID

	pv := column(records, func(r model.HourRecord) float64 { return r.PVProductionKWh })
	load := column(records, func(r model.HourRecord) float64 { return r.LoadConsumptionKWh })
	toPool := column(records, func(r model.HourRecord) float64 { return r.ToPoolKWh })
	fromPool := column(records, func(r model.HourRecord) float64 { return r.FromPoolKWh })
	grid := column(records, func(r model.HourRecord) float64 { return r.GridImportKWh })

	s.TotalPVKWh = floats.Sum(pv)
	s.TotalLoadKWh = floats.Sum(load)
	s.TotalToPoolKWh = floats.Sum(toPool)
	s.TotalFromPoolKWh = floats.Sum(fromPool)
	s.TotalGridImportKWh = floats.Sum(grid)

	last := records[len(records)-1]
	s.FinalSOCPct = last.BatterySOC * 100
	s.FinalCreditsKWh = last.CreditsBalanceKWh
	s.SelfSufficiencyPct = percent(s.TotalLoadKWh-s.TotalGridImportKWh, s.TotalLoadKWh)
	return s
}

// SummarizeByHome groups records by home and summarizes each, ordered by home ID.
func SummarizeByHome(records []model.HourRecord) []Summary {
	byHome := map[string][]model.HourRecord{}
	for _, r := range records {
		byHome[r.HomeID] = append(byHome[r.HomeID], r)
	}
	ids := make([]string, 0, len(byHome))
	for id := range byHome {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]Summary, 0, len(ids))
	for _, id := range ids {
		rs := byHome[id]
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].Hour < rs[j].Hour })
		out = append(out, Summarize(rs))
	}
	return out
}

// Economics values pool activity at a flat per-kWh rate.
type Economics struct {
	RatePerKWh decimal.Decimal
	Earned     decimal.Decimal
	Paid       decimal.Decimal
	Net        decimal.Decimal
}

// ComputeEconomics prices energy sent to and drawn from the pool. Amounts are
// rounded to cents.
func ComputeEconomics(toPoolKWh, fromPoolKWh, ratePerKWh float64) Economics {
	rate := decimal.NewFromFloat(ratePerKWh)
	earned := decimal.NewFromFloat(toPoolKWh).Mul(rate).Round(2)
	paid := decimal.NewFromFloat(fromPoolKWh).Mul(rate).Round(2)
	return Economics{
		RatePerKWh: rate,
		Earned:     earned,
		Paid:       paid,
		Net:        earned.Sub(paid),
	}
}

// Economics prices the home's pool activity at ratePerKWh.
func (s Summary) Economics(ratePerKWh float64) Economics {
	return ComputeEconomics(s.TotalToPoolKWh, s.TotalFromPoolKWh, ratePerKWh)
}

// CommunitySummary reduces a reconciled community run.
type CommunitySummary struct {
	Homes int
	Hours int

	TotalPVKWh         float64
	TotalLoadKWh       float64
	MicrogridSharedKWh float64
	SharedPctOfLoad    float64
	TotalGridImportKWh float64
	GridPctOfLoad      float64
	// SelfConsumptionKWh is PV used directly by the producing home.
	SelfConsumptionKWh float64

	Economics Economics
}

func SummarizeCommunity(records []model.HourRecord, ratePerKWh float64) CommunitySummary {
	homes := map[string]struct{}{}
	hours := map[int]struct{}{}
	var s CommunitySummary
	var toPool float64
	for _, r := range records {
		homes[r.HomeID] = struct{}{}
		hours[r.Hour] = struct{}{}
		s.TotalPVKWh += r.PVProductionKWh
		s.TotalLoadKWh += r.LoadConsumptionKWh
		s.MicrogridSharedKWh += r.FromPoolKWh
		s.TotalGridImportKWh += r.GridImportKWh
		s.SelfConsumptionKWh += math.Min(r.PVProductionKWh, r.LoadConsumptionKWh)
		toPool += r.ToPoolKWh
	}
	s.Homes = len(homes)
	s.Hours = len(hours)
	s.SharedPctOfLoad = percent(s.MicrogridSharedKWh, s.TotalLoadKWh)
	s.GridPctOfLoad = percent(s.TotalGridImportKWh, s.TotalLoadKWh)
	s.Economics = ComputeEconomics(toPool, s.MicrogridSharedKWh, ratePerKWh)
	return s
}

func column(records []model.HourRecord, f func(model.HourRecord) float64) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = f(r)
	}
	return out
}

func percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}
