package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"neighborgrid/internal/analysis"
	"neighborgrid/internal/data"
	"neighborgrid/internal/dispatch"
	"neighborgrid/internal/model"
	"neighborgrid/internal/simulate"
)

type singleOptions struct {
	hours          int
	start          string
	solarKW        float64
	batteryKWh     float64
	initialSOC     float64
	initialCredits float64
	poolCap        float64
	poolBase       float64
	noPool         bool
	seed           uint64
	policy         string
	input          string
	out            string
}

func newSingleCmd(root *rootOptions) *cobra.Command {
	o := &singleOptions{}
	cmd := &cobra.Command{
		Use:   "single",
		Short: "Simulate one home with the community pool treated as a bank",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSingle(cmd, root, o)
		},
	}
	f := cmd.Flags()
	f.IntVar(&o.hours, "hours", 24, "number of hours to simulate")
	f.StringVar(&o.start, "start", "", "start date YYYY-MM-DD")
	f.Float64Var(&o.solarKW, "solar-kw", 6.0, "solar capacity in kW")
	f.Float64Var(&o.batteryKWh, "battery-kwh", 10.0, "battery capacity in kWh")
	f.Float64Var(&o.initialSOC, "initial-soc", 0.5, "initial battery SOC as fraction 0-1")
	f.Float64Var(&o.initialCredits, "initial-credits", 0, "starting pool credit balance in kWh")
	f.Float64Var(&o.poolCap, "pool-cap", 0, "flat hourly pool draw cap in kWh (unset = unlimited)")
	f.Float64Var(&o.poolBase, "pool-base", 0, "generate a varying hourly pool cap around this kWh value")
	f.BoolVar(&o.noPool, "no-pool", false, "disable the community pool")
	f.Uint64Var(&o.seed, "seed", 42, "random seed for synthetic load")
	f.StringVar(&o.policy, "policy", "", "dispatch policy (default self_first)")
	f.StringVar(&o.input, "input", "", "JSON timeseries file to use instead of synthetic data")
	f.StringVar(&o.out, "out", "", "output CSV path")
	return cmd
}

func runSingle(cmd *cobra.Command, root *rootOptions, o *singleOptions) error {
	cfg, log, err := root.load()
	if err != nil {
		return err
	}

	// Flags win over the config file only when given explicitly.
	flags := cmd.Flags()
	home := cfg.Home
	sim := cfg.Simulation
	if flags.Changed("solar-kw") {
		home.SolarKW = o.solarKW
	}
	if flags.Changed("battery-kwh") {
		home.BatteryKWh = o.batteryKWh
	}
	if flags.Changed("initial-soc") {
		home.InitialSOC = o.initialSOC
	}
	if flags.Changed("initial-credits") {
		home.InitialCreditsKWh = o.initialCredits
	}
	if flags.Changed("hours") {
		sim.Hours = o.hours
	}
	if flags.Changed("seed") {
		sim.Seed = o.seed
	}
	if o.start != "" {
		sim.Start = o.start
	}
	if o.policy != "" {
		sim.Policy = o.policy
	}
	if err := home.Validate(); err != nil {
		return fmt.Errorf("home: %w", err)
	}
	start, err := sim.StartTime()
	if err != nil {
		return err
	}

	pool := simulate.PoolSettings{
		Disabled:        !cfg.Pool.Enabled || o.noPool,
		CapPerHourKWh:   cfg.Pool.CapPerHourKWh,
		BaseCapacityKWh: cfg.Pool.BaseCapacityKWh,
	}
	if flags.Changed("pool-cap") {
		if o.poolCap < 0 {
			return fmt.Errorf("--pool-cap must be >= 0")
		}
		poolCap := o.poolCap
		pool.CapPerHourKWh = &poolCap
		pool.BaseCapacityKWh = 0
	}
	if o.poolBase > 0 {
		pool.BaseCapacityKWh = o.poolBase
	}

	sc := simulate.SingleScenario{
		Home:              home.ToModel(),
		Start:             start,
		Hours:             sim.Hours,
		Seed:              sim.Seed,
		Policy:            sim.Policy,
		Pool:              pool,
		InitialCreditsKWh: home.InitialCreditsKWh,
	}
	if o.input != "" {
		f, err := data.LoadTimeseriesJSON(o.input)
		if err != nil {
			return err
		}
		series, ok := data.GroupByHome(f)[home.ID]
		if !ok {
			return fmt.Errorf("%s has no rows for home %s", o.input, home.ID)
		}
		sc.Series = series
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "\nNeighborGrid: Single Home (%s)\n", home.ID)
	fmt.Fprintf(w, "Hours: %d  |  Solar kW: %.1f  |  Battery kWh: %.1f\n", sim.Hours, home.SolarKW, home.BatteryKWh)

	started := time.Now()
	res, err := simulate.NewService(log, nil).Single(sc)
	if err != nil {
		return err
	}
	log.Debugf("single run finished in %s", time.Since(started))

	s := analysis.Summarize(res.Records)
	econ := s.Economics(sim.FairRatePerKWh)
	fmt.Fprintf(w, "Totals: PV %.1f  |  Load %.1f  |  ToPool %.1f  |  FromPool %.1f  |  GridImport %.1f\n",
		s.TotalPVKWh, s.TotalLoadKWh, s.TotalToPoolKWh, s.TotalFromPoolKWh, s.TotalGridImportKWh)
	fmt.Fprintf(w, "Final SOC: %.1f%%  |  Final Credits: %+.1f kWh\n", s.FinalSOCPct, s.FinalCreditsKWh)
	fmt.Fprintf(w, "Fair-rate ($%s/kWh): Earned $%s  |  Paid $%s  |  Net %s\n",
		econ.RatePerKWh.String(), econ.Earned.StringFixed(2), econ.Paid.StringFixed(2), signed(econ.Net.StringFixed(2)))

	out := outputPath(cfg, o.out, cfg.Output.SingleFile)
	homes := map[string]model.Home{home.ID: home.ToModel()}
	if err := dispatch.WriteRecordsCSV(out, res.Records, homes, res.Policy); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Fprintf(w, "Wrote %d rows to %s\n\n", len(res.Records), out)
	return nil
}

func signed(s string) string {
	if len(s) > 0 && s[0] != '-' {
		return "+" + s
	}
	return s
}
