package data

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"neighborgrid/internal/model"
)

// DefaultCommunity is the 10-home neighborhood used when no roster is configured.
func DefaultCommunity() []model.Home {
	return []model.Home{
		{ID: "H001", SolarKW: 8.0, BatteryKWh: 13.5, LoadBaseKWh: 0.6, LoadPeakKWh: 1.2, SolarOffsetHours: -2, InitialSOC: 0.5},
		{ID: "H002", SolarKW: 6.5, BatteryKWh: 10.0, LoadBaseKWh: 0.7, LoadPeakKWh: 1.3, InitialSOC: 0.5},
		{ID: "H003", SolarKW: 7.5, BatteryKWh: 12.0, LoadBaseKWh: 0.5, LoadPeakKWh: 1.0, SolarOffsetHours: 2, InitialSOC: 0.5},
		{ID: "H004", SolarKW: 5.0, BatteryKWh: 8.0, LoadBaseKWh: 0.8, LoadPeakKWh: 1.5, LoadShiftHours: 2, InitialSOC: 0.5, IsNetConsumer: true},
		{ID: "H005", SolarKW: 6.0, BatteryKWh: 10.0, LoadBaseKWh: 0.6, LoadPeakKWh: 1.2, SolarOffsetHours: -1, InitialSOC: 0.5},
		{ID: "H006", SolarKW: 4.5, BatteryKWh: 7.0, LoadBaseKWh: 0.9, LoadPeakKWh: 1.6, LoadShiftHours: 3, InitialSOC: 0.5, IsNetConsumer: true},
		{ID: "H007", SolarKW: 5.5, BatteryKWh: 9.0, LoadBaseKWh: 0.7, LoadPeakKWh: 1.4, SolarOffsetHours: 1, LoadShiftHours: 1, InitialSOC: 0.5, IsNetConsumer: true},
		{ID: "H008", SolarKW: 7.0, BatteryKWh: 11.0, LoadBaseKWh: 0.5, LoadPeakKWh: 1.1, InitialSOC: 0.5},
		{ID: "H009", SolarKW: 3.5, BatteryKWh: 5.0, LoadBaseKWh: 1.0, LoadPeakKWh: 1.8, LoadShiftHours: 2, InitialSOC: 0.5, IsNetConsumer: true},
		{ID: "H010", SolarKW: 6.5, BatteryKWh: 10.5, LoadBaseKWh: 0.6, LoadPeakKWh: 1.3, SolarOffsetHours: 2, InitialSOC: 0.5},
	}
}

// HomesByID indexes homes by ID.
func HomesByID(homes []model.Home) map[string]model.Home {
	out := make(map[string]model.Home, len(homes))
	for _, h := range homes {
		out[h.ID] = h
	}
	return out
}

// WriteHomesCSV writes the community metadata table.
func WriteHomesCSV(path string, homes []model.Home) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"home_id",
		"solar_capacity_kw",
		"battery_capacity_kwh",
		"load_base_kwh",
		"load_peak_kwh",
		"solar_orientation",
		"load_pattern_shift_hours",
		"is_net_consumer",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, h := range homes {
		row := []string{
			h.ID,
			strconv.FormatFloat(h.SolarKW, 'f', -1, 64),
			strconv.FormatFloat(h.BatteryKWh, 'f', -1, 64),
			strconv.FormatFloat(h.LoadBaseKWh, 'f', -1, 64),
			strconv.FormatFloat(h.LoadPeakKWh, 'f', -1, 64),
			h.Orientation(),
			strconv.Itoa(h.LoadShiftHours),
			strconv.FormatBool(h.IsNetConsumer),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
