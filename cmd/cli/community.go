package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"neighborgrid/internal/analysis"
	"neighborgrid/internal/data"
	"neighborgrid/internal/dispatch"
	"neighborgrid/internal/simulate"
)

type communityOptions struct {
	days          int
	start         string
	seed          uint64
	policy        string
	input         string
	outTimeseries string
	outMetadata   string
}

func newCommunityCmd(root *rootOptions) *cobra.Command {
	o := &communityOptions{}
	cmd := &cobra.Command{
		Use:   "community",
		Short: "Simulate the community roster and match surplus to neighbors hour by hour",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommunity(cmd, root, o)
		},
	}
	f := cmd.Flags()
	f.IntVar(&o.days, "days", 5, "number of days to simulate")
	f.StringVar(&o.start, "start", "", "start date YYYY-MM-DD")
	f.Uint64Var(&o.seed, "seed", 42, "random seed for synthetic load")
	f.StringVar(&o.policy, "policy", "", "dispatch policy (default self_first)")
	f.StringVar(&o.input, "input", "", "JSON timeseries file; homes it covers skip synthetic data")
	f.StringVar(&o.outTimeseries, "out-timeseries", "", "output CSV for the timeseries")
	f.StringVar(&o.outMetadata, "out-metadata", "", "output CSV for home metadata")
	return cmd
}

func runCommunity(cmd *cobra.Command, root *rootOptions, o *communityOptions) error {
	cfg, log, err := root.load()
	if err != nil {
		return err
	}

	sim := cfg.Simulation
	if cmd.Flags().Changed("days") {
		sim.Days = o.days
	}
	if cmd.Flags().Changed("seed") {
		sim.Seed = o.seed
	}
	if o.start != "" {
		sim.Start = o.start
	}
	if o.policy != "" {
		sim.Policy = o.policy
	}
	if sim.Days <= 0 {
		return fmt.Errorf("--days must be > 0")
	}
	start, err := sim.StartTime()
	if err != nil {
		return err
	}
	homes := cfg.Roster()
	if len(homes) == 0 {
		homes = data.DefaultCommunity()
	}
	hours := sim.Days * 24

	sc := simulate.CommunityScenario{
		Homes:  homes,
		Start:  start,
		Hours:  hours,
		Seed:   sim.Seed,
		Policy: sim.Policy,
	}
	if o.input != "" {
		f, err := data.LoadTimeseriesJSON(o.input)
		if err != nil {
			return err
		}
		sc.Series = data.GroupByHome(f)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "\nNeighborGrid: Community Simulation\n")
	fmt.Fprintf(w, "Homes: %d  |  Days: %d  |  Hours: %d\n", len(homes), sim.Days, hours)

	res, err := simulate.NewService(log, nil).Community(cmd.Context(), sc)
	if err != nil {
		return err
	}

	for _, d := range res.Dispatch {
		fmt.Fprintf(w, "  %s  standalone grid import %.1f kWh  final SOC %.1f%%\n",
			d.HomeID, standaloneGrid(d), d.FinalSOC*100)
	}

	cs := analysis.SummarizeCommunity(res.Records, sim.FairRatePerKWh)
	fmt.Fprintf(w, "\nCommunity Summary:\n")
	fmt.Fprintf(w, "  Total PV Production:     %8.1f kWh\n", cs.TotalPVKWh)
	fmt.Fprintf(w, "  Total Load Consumption:  %8.1f kWh\n", cs.TotalLoadKWh)
	fmt.Fprintf(w, "  Microgrid Shared:        %8.1f kWh (%.1f%% of load)\n", cs.MicrogridSharedKWh, cs.SharedPctOfLoad)
	fmt.Fprintf(w, "  Grid Import:             %8.1f kWh (%.1f%% of load)\n", cs.TotalGridImportKWh, cs.GridPctOfLoad)
	fmt.Fprintf(w, "  Self-Consumption:        %8.1f kWh\n", cs.SelfConsumptionKWh)

	econ := cs.Economics
	fmt.Fprintf(w, "\nFair-Rate Economics ($%s/kWh):\n", econ.RatePerKWh.String())
	fmt.Fprintf(w, "  Total Pool Earnings:  $%8s\n", econ.Earned.StringFixed(2))
	fmt.Fprintf(w, "  Total Pool Payments:  $%8s\n", econ.Paid.StringFixed(2))
	fmt.Fprintf(w, "  (Should balance):     $%8s\n", econ.Net.StringFixed(2))

	tsPath := outputPath(cfg, o.outTimeseries, cfg.Output.TimeseriesFile)
	metaPath := outputPath(cfg, o.outMetadata, cfg.Output.MetadataFile)
	fmt.Fprintf(w, "\nWriting outputs...\n")
	if err := dispatch.WriteRecordsCSV(tsPath, res.Records, data.HomesByID(res.Homes), res.Dispatch[0].Policy); err != nil {
		return fmt.Errorf("write %s: %w", tsPath, err)
	}
	fmt.Fprintf(w, "  Timeseries: %s\n", tsPath)
	if err := data.WriteHomesCSV(metaPath, res.Homes); err != nil {
		return fmt.Errorf("write %s: %w", metaPath, err)
	}
	fmt.Fprintf(w, "  Metadata:   %s\n\n", metaPath)
	return nil
}

func standaloneGrid(d *dispatch.Result) float64 {
	total := 0.0
	for _, r := range d.Records {
		total += r.GridImportKWh
	}
	return total
}
