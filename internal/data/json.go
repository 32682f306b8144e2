package data

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"neighborgrid/internal/model"
)

// TimeseriesFile is the JSON shape of an externally produced input set.
//
// Example:
//
//	{
//	  "rows": [
//	    {"home_id": "H001", "hour": 0, "pv_production_kwh": 0, "load_consumption_kwh": 0.3}
//	  ]
//	}
type TimeseriesFile struct {
	Rows []TimeseriesRow `json:"rows"`
}

// TimeseriesRow is one home-hour of input.
type TimeseriesRow struct {
	HomeID string `json:"home_id"`
	model.HourSample
}

func LoadTimeseriesJSON(path string) (*TimeseriesFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f TimeseriesFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &f, nil
}

// GroupByHome splits a file into home-keyed series ordered by hour.
func GroupByHome(f *TimeseriesFile) map[string]model.Timeseries {
	out := map[string]model.Timeseries{}
	if f == nil {
		return out
	}
	for _, r := range f.Rows {
		out[r.HomeID] = append(out[r.HomeID], r.HourSample)
	}
	for _, ts := range out {
		sort.SliceStable(ts, func(i, j int) bool { return ts[i].Hour < ts[j].Hour })
	}
	return out
}
