package dispatch

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"neighborgrid/internal/model"
)

var recordHeader = []string{
	"hour",
	"timestamp_hour",
	"home_id",
	"solar_capacity_kw",
	"battery_capacity_kwh",
	"pv_production_kwh",
	"load_consumption_kwh",
	"from_pool_cap_kwh",
	"battery_action",
	"battery_soc_pct",
	"battery_flow_kwh",
	"to_pool_kwh",
	"from_pool_kwh",
	"grid_import_kwh",
	"credits_delta_kwh",
	"credits_balance_kwh",
	"policy_mode",
}

// WriteRecordsCSV writes records to path, creating the parent directory.
// homes supplies the equipment columns; missing homes leave them blank.
func WriteRecordsCSV(path string, records []model.HourRecord, homes map[string]model.Home, policy string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := WriteRecords(f, records, homes, policy); err != nil {
		return err
	}
	return f.Close()
}

// WriteRecords writes the CSV form of records to w. Values are rounded here
// and nowhere else.
func WriteRecords(w io.Writer, records []model.HourRecord, homes map[string]model.Home, policy string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(recordHeader); err != nil {
		return err
	}

	for _, r := range records {
		solar, battery := "", ""
		if h, ok := homes[r.HomeID]; ok {
			solar = fmtFloat(h.SolarKW, 1)
			battery = fmtFloat(h.BatteryKWh, 1)
		}
		row := []string{
			strconv.Itoa(r.Hour),
			fmtTime(r.Timestamp),
			r.HomeID,
			solar,
			battery,
			fmtFloat(r.PVProductionKWh, 2),
			fmtFloat(r.LoadConsumptionKWh, 2),
			fmtCap(r.PoolCapKWh),
			string(r.Action),
			fmtFloat(r.BatterySOC*100, 1),
			fmtFloat(r.BatteryFlowKWh, 3),
			fmtFloat(r.ToPoolKWh, 3),
			fmtFloat(r.FromPoolKWh, 3),
			fmtFloat(r.GridImportKWh, 3),
			fmtFloat(r.CreditsDeltaKWh, 3),
			fmtFloat(r.CreditsBalanceKWh, 3),
			policy,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

// fmtCap leaves unlimited caps blank.
func fmtCap(x float64) string {
	if math.IsInf(x, 1) {
		return ""
	}
	return fmtFloat(x, 2)
}

func fmtFloat(x float64, prec int) string {
	s := strconv.FormatFloat(x, 'f', prec, 64)
	// Avoid "-0.000" for values that round to zero.
	if z := strconv.FormatFloat(0, 'f', prec, 64); s == "-"+z {
		return z
	}
	return s
}
