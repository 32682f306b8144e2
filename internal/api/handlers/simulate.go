package handlers

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"neighborgrid/internal/analysis"
	"neighborgrid/internal/api/models"
	"neighborgrid/internal/config"
	"neighborgrid/internal/data"
	"neighborgrid/internal/logger"
	"neighborgrid/internal/model"
	"neighborgrid/internal/simulate"

	"github.com/gin-gonic/gin"
)

const (
	modeSingle    = "single"
	modeCommunity = "community"
)

// SimulationHandler runs simulations and keeps their results for retrieval
type SimulationHandler struct {
	cfg   *config.Config
	svc   *simulate.Service
	store *data.RunStore
	log   logger.Logger
}

// NewSimulationHandler creates a new simulation handler. cfg supplies defaults
// for anything a request leaves out.
func NewSimulationHandler(cfg *config.Config, svc *simulate.Service, store *data.RunStore, log logger.Logger) *SimulationHandler {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &SimulationHandler{cfg: cfg, svc: svc, store: store, log: log}
}

// RunSingle handles POST /api/v1/simulate/single
func (h *SimulationHandler) RunSingle(c *gin.Context) {
	var req models.SingleSimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	start, err := h.startTime(req.Start)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_DATE", err)
		return
	}

	// Configured home is the base, the request overrides it.
	home := applyHomeSpec(h.cfg.Home, req.Home)
	if err := home.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_HOME", err)
		return
	}

	hours := h.cfg.Simulation.Hours
	if req.Hours > 0 {
		hours = req.Hours
	}
	pool := simulate.PoolSettings{
		Disabled:        req.Pool.Disabled || !h.cfg.Pool.Enabled,
		CapPerHourKWh:   h.cfg.Pool.CapPerHourKWh,
		BaseCapacityKWh: h.cfg.Pool.BaseCapacityKWh,
	}
	if req.Pool.CapPerHourKWh != nil {
		pool.CapPerHourKWh = req.Pool.CapPerHourKWh
		pool.BaseCapacityKWh = 0
	}
	if req.Pool.BaseCapacityKWh > 0 {
		pool.BaseCapacityKWh = req.Pool.BaseCapacityKWh
	}

	policy := h.policy(req.Policy)
	res, err := h.svc.Single(simulate.SingleScenario{
		Home:              home.ToModel(),
		Start:             start,
		Hours:             hours,
		Seed:              h.seed(req.Seed),
		Policy:            policy,
		Pool:              pool,
		InitialCreditsKWh: home.InitialCreditsKWh,
	})
	if err != nil {
		respondRunError(c, err)
		return
	}

	run := &data.Run{
		Mode:           modeSingle,
		Policy:         res.Policy,
		FairRatePerKWh: h.cfg.Simulation.FairRatePerKWh,
		Homes:          []model.Home{home.ToModel()},
		Records:        res.Records,
	}
	id := h.store.Put(run)
	h.log.Infof("single run %s: home=%s hours=%d", id, home.ID, len(res.Records))

	sum := homeSummary(analysis.Summarize(res.Records), run.FairRatePerKWh)
	resp := models.SimulationResponse{
		ID:      id,
		Mode:    modeSingle,
		Policy:  res.Policy,
		Window:  window(res.Records),
		Summary: &sum,
	}
	if req.Options.IncludeRecords {
		resp.Records = recordRows(res.Records)
	}
	c.JSON(http.StatusOK, resp)
}

// RunCommunity handles POST /api/v1/simulate/community
func (h *SimulationHandler) RunCommunity(c *gin.Context) {
	var req models.CommunitySimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	start, err := h.startTime(req.Start)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_DATE", err)
		return
	}

	homes := h.cfg.Roster()
	if len(req.Homes) > 0 {
		homes = make([]model.Home, 0, len(req.Homes))
		base := h.cfg.Home
		base.ID = ""
		for i, spec := range req.Homes {
			hc := applyHomeSpec(base, spec)
			if err := hc.Validate(); err != nil {
				respondError(c, http.StatusBadRequest, "INVALID_HOME", fmt.Errorf("homes[%d]: %w", i, err))
				return
			}
			homes = append(homes, hc.ToModel())
		}
	}
	if len(homes) == 0 {
		homes = data.DefaultCommunity()
	}

	days := h.cfg.Simulation.Days
	if req.Days > 0 {
		days = req.Days
	}

	res, err := h.svc.Community(c.Request.Context(), simulate.CommunityScenario{
		Homes:  homes,
		Start:  start,
		Hours:  days * 24,
		Seed:   h.seed(req.Seed),
		Policy: h.policy(req.Policy),
	})
	if err != nil {
		respondRunError(c, err)
		return
	}

	policy := h.policy(req.Policy)
	if len(res.Dispatch) > 0 {
		policy = res.Dispatch[0].Policy
	}
	run := &data.Run{
		Mode:           modeCommunity,
		Policy:         policy,
		FairRatePerKWh: h.cfg.Simulation.FairRatePerKWh,
		Homes:          res.Homes,
		Records:        res.Records,
	}
	id := h.store.Put(run)
	h.log.Infof("community run %s: homes=%d days=%d", id, len(res.Homes), days)

	cs := analysis.SummarizeCommunity(res.Records, run.FairRatePerKWh)
	transfers := 0
	for _, a := range res.Allocations {
		transfers += len(a.Transfers)
	}
	resp := models.SimulationResponse{
		ID:     id,
		Mode:   modeCommunity,
		Policy: policy,
		Window: window(res.Records),
		Community: &models.CommunitySummary{
			Homes:              cs.Homes,
			Hours:              cs.Hours,
			TotalPVKWh:         cs.TotalPVKWh,
			TotalLoadKWh:       cs.TotalLoadKWh,
			MicrogridSharedKWh: cs.MicrogridSharedKWh,
			SharedPctOfLoad:    cs.SharedPctOfLoad,
			TotalGridImportKWh: cs.TotalGridImportKWh,
			GridPctOfLoad:      cs.GridPctOfLoad,
			SelfConsumptionKWh: cs.SelfConsumptionKWh,
			Transfers:          transfers,
			Economics:          economics(cs.Economics),
		},
	}
	for _, s := range analysis.SummarizeByHome(res.Records) {
		resp.Homes = append(resp.Homes, homeSummary(s, run.FairRatePerKWh))
	}
	if req.Options.IncludeRecords {
		resp.Records = recordRows(res.Records)
	}
	c.JSON(http.StatusOK, resp)
}

// GetRecords handles GET /api/v1/runs/:id/records
func (h *SimulationHandler) GetRecords(c *gin.Context) {
	var q models.RecordsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	run, err := h.store.Get(c.Param("id"))
	if err != nil {
		respondRunError(c, err)
		return
	}

	records := run.Records
	if q.HomeID != "" {
		records = nil
		for _, r := range run.Records {
			if r.HomeID == q.HomeID {
				records = append(records, r)
			}
		}
	}
	total := len(records)
	if q.Limit > 0 && q.Limit < len(records) {
		records = records[:q.Limit]
	}
	c.JSON(http.StatusOK, models.RecordsResponse{
		ID:      run.ID,
		Mode:    run.Mode,
		Total:   total,
		Records: recordRows(records),
	})
}

// Helper methods

func (h *SimulationHandler) startTime(s string) (time.Time, error) {
	sim := h.cfg.Simulation
	if s != "" {
		sim.Start = s
	}
	return sim.StartTime()
}

func (h *SimulationHandler) seed(s *uint64) uint64 {
	if s != nil {
		return *s
	}
	return h.cfg.Simulation.Seed
}

func (h *SimulationHandler) policy(name string) string {
	if name != "" {
		return name
	}
	return h.cfg.Simulation.Policy
}

// applyHomeSpec overlays the fields present in s onto base.
func applyHomeSpec(base config.HomeConfig, s models.HomeSpec) config.HomeConfig {
	out := base
	if s.ID != "" {
		out.ID = s.ID
	}
	setFloat(&out.SolarKW, s.SolarKW)
	setFloat(&out.BatteryKWh, s.BatteryKWh)
	setFloat(&out.LoadBaseKWh, s.LoadBaseKWh)
	setFloat(&out.LoadPeakKWh, s.LoadPeakKWh)
	setFloat(&out.InitialSOC, s.InitialSOC)
	setFloat(&out.InitialCreditsKWh, s.InitialCreditsKWh)
	if s.SolarOffsetHours != nil {
		out.SolarOffsetHours = *s.SolarOffsetHours
	}
	if s.LoadShiftHours != nil {
		out.LoadShiftHours = *s.LoadShiftHours
	}
	if s.IsNetConsumer != nil {
		out.IsNetConsumer = *s.IsNetConsumer
	}
	return out
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func homeSummary(s analysis.Summary, rate float64) models.HomeSummary {
	return models.HomeSummary{
		HomeID:             s.HomeID,
		Hours:              s.Hours,
		TotalPVKWh:         s.TotalPVKWh,
		TotalLoadKWh:       s.TotalLoadKWh,
		TotalToPoolKWh:     s.TotalToPoolKWh,
		TotalFromPoolKWh:   s.TotalFromPoolKWh,
		TotalGridImportKWh: s.TotalGridImportKWh,
		FinalSOCPct:        s.FinalSOCPct,
		FinalCreditsKWh:    s.FinalCreditsKWh,
		SelfSufficiencyPct: s.SelfSufficiencyPct,
		Economics:          economics(s.Economics(rate)),
	}
}

func economics(e analysis.Economics) models.Economics {
	return models.Economics{
		RatePerKWh: e.RatePerKWh,
		Earned:     e.Earned,
		Paid:       e.Paid,
		Net:        e.Net,
	}
}

func window(records []model.HourRecord) models.TimeWindow {
	if len(records) == 0 {
		return models.TimeWindow{}
	}
	w := models.TimeWindow{Start: records[0].Timestamp, End: records[0].Timestamp}
	for _, r := range records {
		if r.Timestamp.Before(w.Start) {
			w.Start = r.Timestamp
		}
		if r.Timestamp.After(w.End) {
			w.End = r.Timestamp
		}
	}
	w.End = w.End.Add(time.Hour)
	return w
}

func recordRows(records []model.HourRecord) []models.RecordRow {
	rows := make([]models.RecordRow, len(records))
	for i, r := range records {
		var poolCap *float64
		if !math.IsInf(r.PoolCapKWh, 1) {
			v := r.PoolCapKWh
			poolCap = &v
		}
		rows[i] = models.RecordRow{
			Hour:               r.Hour,
			Timestamp:          r.Timestamp,
			HomeID:             r.HomeID,
			PVProductionKWh:    r.PVProductionKWh,
			LoadConsumptionKWh: r.LoadConsumptionKWh,
			PoolCapKWh:         poolCap,
			Action:             string(r.Action),
			BatterySOC:         r.BatterySOC,
			BatteryFlowKWh:     r.BatteryFlowKWh,
			ToPoolKWh:          r.ToPoolKWh,
			FromPoolKWh:        r.FromPoolKWh,
			GridImportKWh:      r.GridImportKWh,
			CreditsDeltaKWh:    r.CreditsDeltaKWh,
			CreditsBalanceKWh:  r.CreditsBalanceKWh,
		}
	}
	return rows
}
