package review

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ckdreview/ckdreview/internal/domain/extract"
	"github.com/ckdreview/ckdreview/internal/domain/reference"
	"github.com/ckdreview/ckdreview/internal/domain/scoring"
	"github.com/ckdreview/ckdreview/internal/domain/temporal"
	"github.com/ckdreview/ckdreview/internal/domain/triage"
)

// ErrMissingRequiredInput is returned before any row is processed when a
// required extract or reference table is absent or unusable.
var ErrMissingRequiredInput = errors.New("missing required input")

// Options configures a pipeline run.
type Options struct {
	Match     temporal.MatchOptions
	KFRE      scoring.KFREOptions
	Policy    triage.Policy
	MergeMode MergeMode
	Workers   int
	// AsOf is the date days-since-visit is measured against. Zero means
	// today.
	AsOf time.Time
}

// DefaultOptions returns the standard pipeline options.
func DefaultOptions() Options {
	return Options{
		Match:     temporal.DefaultMatchOptions(),
		KFRE:      scoring.DefaultKFREOptions(),
		Policy:    triage.DefaultPolicy(),
		MergeMode: MergeAll,
		Workers:   runtime.NumCPU(),
	}
}

// Inputs names the extract files for one run.
type Inputs struct {
	CKDCheckPath   string
	CreatininePath string
}

type Service struct {
	tables   *reference.Tables
	guidance *scoring.Guidance
	opts     Options
	logger   zerolog.Logger
}

func NewService(tables *reference.Tables, guidance *scoring.Guidance, opts Options, logger zerolog.Logger) *Service {
	return &Service{tables: tables, guidance: guidance, opts: opts, logger: logger}
}

// LoadExtracts reads the extracts the merge mode needs. A missing extract is
// fatal when the mode depends on it alone; in merged mode one of the two may
// be absent.
func (s *Service) LoadExtracts(in Inputs) (ckd, creat *extract.Extract, err error) {
	needCKD := s.opts.MergeMode != MergeCreatinine
	needCreat := s.opts.MergeMode != MergeCKDCheck

	if needCKD {
		ckd, err = s.loadExtract(in.CKDCheckPath, extract.SourceCKDCheck, s.opts.MergeMode == MergeCKDCheck)
		if err != nil {
			return nil, nil, err
		}
	}
	if needCreat {
		creat, err = s.loadExtract(in.CreatininePath, extract.SourceCreatinine, s.opts.MergeMode == MergeCreatinine)
		if err != nil {
			return nil, nil, err
		}
	}
	if ckd == nil && creat == nil {
		return nil, nil, fmt.Errorf("%w: neither %s nor %s could be read", ErrMissingRequiredInput, in.CKDCheckPath, in.CreatininePath)
	}
	return ckd, creat, nil
}

func (s *Service) loadExtract(path string, source extract.Source, required bool) (*extract.Extract, error) {
	if path == "" {
		if required {
			return nil, fmt.Errorf("%w: no %s extract configured", ErrMissingRequiredInput, source)
		}
		return nil, nil
	}
	ex, err := extract.Load(path, source)
	switch {
	case err == nil:
		if ex.Orphaned > 0 {
			s.logger.Warn().Str("path", path).Int("rows", ex.Orphaned).Msg("dropped rows preceding the first HC Number")
		}
		s.logger.Info().Str("path", path).Str("source", string(source)).Int("rows", len(ex.Rows)).Msg("extract loaded")
		return ex, nil
	case errors.Is(err, os.ErrNotExist) && !required:
		s.logger.Warn().Str("path", path).Str("source", string(source)).Msg("extract not found, continuing without it")
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %w", ErrMissingRequiredInput, err)
	}
}

// RunFiles loads the extracts named by in and runs the pipeline.
func (s *Service) RunFiles(ctx context.Context, in Inputs) (*Result, error) {
	ckd, creat, err := s.LoadExtracts(in)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, ckd, creat)
}

// Run derives one record per patient. Patient groups are independent and are
// derived concurrently; records are returned sorted by HC Number.
func (s *Service) Run(ctx context.Context, ckd, creat *extract.Extract) (*Result, error) {
	res := &Result{
		RunID:     uuid.New(),
		AsOf:      s.asOf(),
		StartedAt: time.Now().UTC(),
		Sources:   make(map[extract.Source]string),
	}
	var ckdRows, creatRows []extract.Row
	if ckd != nil {
		ckdRows = ckd.Rows
		res.Sources[extract.SourceCKDCheck] = ckd.Path
		res.Orphaned += ckd.Orphaned
	}
	if creat != nil {
		creatRows = creat.Rows
		res.Sources[extract.SourceCreatinine] = creat.Path
		res.Orphaned += creat.Orphaned
	}

	logger := s.logger.With().Str("run_id", res.RunID.String()).Logger()
	groups := Merge(ckdRows, creatRows, s.opts.MergeMode)
	records := make([]*PatientRecord, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers())
	for i, grp := range groups {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			records[i] = s.derive(grp, res.RunID, res.AsOf, logger)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("derive records: %w", err)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].HCNumber < records[j].HCNumber
	})
	res.Records = records

	logger.Info().
		Int("patients", len(records)).
		Int("excluded", len(res.ExcludedRecords())).
		Str("merge_mode", string(s.opts.MergeMode)).
		Msg("review derived")
	return res, nil
}

// Derive runs every derivation step for one patient group.
func (s *Service) Derive(g extract.Group, runID uuid.UUID) *PatientRecord {
	return s.derive(g, runID, s.asOf(), s.logger)
}

func (s *Service) derive(g extract.Group, runID uuid.UUID, asOf time.Time, logger zerolog.Logger) *PatientRecord {
	rows := temporal.Backfill(g.Rows)
	rec := Collapse(extract.Group{HCNumber: g.HCNumber, Rows: rows})
	rec.RunID = runID

	// Prior creatinine.
	if rec.SampleDate != nil {
		if prior, ok := temporal.PriorCreatinine(rows, *rec.SampleDate, s.opts.Match); ok {
			v, d := prior.Value, prior.Date
			rec.Creatinine3mPrior, rec.Date3mPrior = &v, &d
		}
	}

	// eGFR now and 3 months ago.
	egfr, egfrOK := scoring.EGFR(scoring.EGFRInput{Age: rec.Age, Gender: rec.Gender, Creatinine: rec.Creatinine, Height: rec.Height})
	if egfrOK {
		rounded := scoring.RoundEGFR(egfr)
		rec.EGFR = &rounded
	}
	if prior, ok := scoring.EGFR(scoring.EGFRInput{Age: rec.Age, Gender: rec.Gender, Creatinine: rec.Creatinine3mPrior, Height: rec.Height}); ok {
		rounded := scoring.RoundEGFR(prior)
		rec.EGFR3mPrior = &rounded
	}
	if rec.SampleDate != nil && rec.Date3mPrior != nil {
		rec.EGFRTrend = scoring.EGFRTrend(rec.EGFR, rec.EGFR3mPrior, triage.DaysSince(*rec.Date3mPrior, *rec.SampleDate))
	} else {
		rec.EGFRTrend = scoring.TrendNoData
	}
	rec.ACRGrade = scoring.ACRGrade(rec.ACR)

	// Kidney failure risk.
	kin := scoring.KFREInput{Age: rec.Age, Gender: rec.Gender, ACR: rec.ACR}
	if egfrOK {
		kin.EGFR = &egfr
	}
	if risk, ok := scoring.KFRE(kin, s.opts.KFRE); ok {
		rec.Risk = &risk
	} else {
		rec.MissingFields = kin.Missing()
		logger.Debug().Str("hc_number", rec.HCNumber).Strs("missing", rec.MissingFields).Msg("excluded from risk scoring")
	}

	// Independent flags.
	acrZero := rec.ACR != nil && *rec.ACR == 0
	rec.BPClass = scoring.ClassifyBP(rec.Systolic, rec.Diastolic)
	rec.BPTarget = scoring.BPTarget(rec.ACR, rec.HbA1c)
	rec.BPFlag = scoring.BPFlag(rec.Systolic, rec.Diastolic, rec.BPTarget)
	rec.Anaemia = scoring.ClassifyAnaemia(rec.Haemoglobin, rec.Gender)
	rec.AnaemiaFlag = scoring.AnaemiaFlag(rec.Haemoglobin)
	rec.PotassiumFlag = scoring.ClassifyPotassium(rec.Potassium)
	rec.CalciumFlag = scoring.ClassifyCalcium(rec.Calcium)
	rec.PhosphateFlag = scoring.ClassifyPhosphate(rec.Phosphate)
	rec.BicarbonateFlag = scoring.ClassifyBicarbonate(rec.Bicarbonate)
	rec.ParathyroidFlag = scoring.ClassifyParathyroid(rec.Parathyroid)
	rec.VitaminDFlag = scoring.ClassifyVitaminD(rec.VitaminD)
	rec.CKDMBDFlag = scoring.CKDMBDFlag(rec.CalciumFlag, rec.PhosphateFlag, rec.ParathyroidFlag)
	rec.Proteinuria = scoring.ProteinuriaFlag(rec.ACR, acrZero)
	rec.HbA1cTarget = scoring.HbA1cTarget(rec.HbA1c)

	// Medication safety.
	rec.Contraindicated = scoring.Contraindicated(s.tables, rec.EGFR, rec.Medications)
	rec.DoseAdjustments = scoring.DoseAdjustments(s.tables, rec.EGFR, rec.Medications)
	rec.Statin = scoring.StatinStatus(s.tables, rec.EGFR, rec.Medications)
	rec.SGLT2 = scoring.SGLT2Status(s.tables, rec.EGFR, rec.ACR, rec.Medications)

	// Stage precedence, then everything that depends on the final stage.
	c := triage.Classify(triage.ClassifyInput{
		EGFR:      rec.EGFR,
		PriorEGFR: rec.EGFR3mPrior,
		ACR:       rec.ACR,
		Date:      rec.SampleDate,
		PriorDate: rec.Date3mPrior,
	})
	rec.BaseStage, rec.CKDStage, rec.CKDStage3m = c.Base, c.Stage, c.Prior
	if s.guidance != nil {
		rec.Recommended = s.guidance.RecommendedMedications(rec.EGFR, rec.Medications)
		rec.Lifestyle = s.guidance.LifestyleAdvice(rec.BaseStage)
	}
	rec.Indications = triage.Indicate(rec.CKDStage, rec.Risk)
	rec.CodingCheck = triage.CodingCheck(rec.EMISCKDCode, rec.CKDStage)

	tin := triage.Input{
		Stage:         rec.CKDStage,
		VisitDate:     rec.SampleDate,
		AsOf:          asOf,
		ACR:           rec.ACR,
		BPAboveTarget: rec.BPFlag == scoring.BPAboveTarget,
	}
	if rec.Risk != nil {
		five := rec.Risk.FiveYear
		tin.FiveYearRisk = &five
	}
	if rec.SampleDate != nil {
		days := triage.DaysSince(*rec.SampleDate, asOf)
		rec.DaysSinceVisit = &days
	}
	rec.Triage = triage.Assign(tin, s.opts.Policy)
	if rec.SampleDate != nil && !rec.CKDStage.Early() && !rec.CKDStage.Advanced() &&
		rec.CKDStage != scoring.NormalFunction && rec.CKDStage != scoring.AcuteInjury {
		logger.Warn().Str("hc_number", rec.HCNumber).Str("stage", string(rec.CKDStage)).Msg("unrecognised CKD stage, using fallback triage")
	}
	return rec
}

func (s *Service) asOf() time.Time {
	if !s.opts.AsOf.IsZero() {
		return s.opts.AsOf
	}
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Service) workers() int {
	if s.opts.Workers > 0 {
		return s.opts.Workers
	}
	return 1
}
