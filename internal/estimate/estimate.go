// Package estimate runs the effort and schedule estimation pipeline: fill
// missing driver ratings, resolve multipliers, build and scale the feature
// vector, predict effort and derive development time.
package estimate

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/effort-cli/internal/catalog"
	"github.com/sells-group/effort-cli/internal/features"
	"github.com/sells-group/effort-cli/internal/fpa"
	"github.com/sells-group/effort-cli/internal/model"
	"github.com/sells-group/effort-cli/internal/regress"
	"github.com/sells-group/effort-cli/internal/resolve"
	"github.com/sells-group/effort-cli/internal/scaler"
	"github.com/sells-group/effort-cli/internal/schedule"
)

var (
	// ErrInvalidRequest marks input the pipeline cannot use at all.
	ErrInvalidRequest = eris.New("estimate: invalid request")
	// ErrConfig marks artifacts that do not fit together.
	ErrConfig = eris.New("estimate: inconsistent configuration")
)

// Options are the startup inputs to New.
type Options struct {
	Catalog               *catalog.Catalog
	Classifier            resolve.Classifier
	ClassifierTimeout     time.Duration
	ClassifierConcurrency int
	Model                 *regress.Model
	InputScaler           *scaler.MinMax
	OutputScaler          *scaler.MinMax
	FeatureWidth          int
	LOCPerFP              float64
}

// Env is everything an estimate needs. It is built once at startup, never
// mutated afterwards and safe for concurrent use.
type Env struct {
	catalog     *catalog.Catalog
	multipliers *resolve.MultiplierResolver
	missing     *resolve.MissingValueResolver
	builder     *features.Builder
	inScaler    *scaler.MinMax
	predictor   *regress.Predictor
	sizer       *fpa.Sizer
	degraded    bool
}

// New validates that the artifacts agree on the feature width and wires the
// pipeline.
func New(opts Options) (*Env, error) {
	if opts.Model == nil {
		return nil, eris.Wrap(regress.ErrModelUnavailable, "estimate: no model")
	}
	c := opts.Catalog
	if c == nil {
		var err error
		if c, err = catalog.Default(); err != nil {
			return nil, eris.Wrap(err, "estimate: load default catalog")
		}
	}

	width := opts.FeatureWidth
	if width == 0 {
		width = features.DefaultWidth
	}
	builder, err := features.NewBuilder(width)
	if err != nil {
		return nil, eris.Wrap(ErrConfig, err.Error())
	}
	if opts.Model.InputWidth != width {
		return nil, eris.Wrapf(ErrConfig, "model expects %d features, builder produces %d", opts.Model.InputWidth, width)
	}

	in := opts.InputScaler
	if in == nil {
		in = scaler.Identity()
	}
	if in.Fitted() && in.Width() != width {
		return nil, eris.Wrapf(ErrConfig, "input scaler fitted on %d features, builder produces %d", in.Width(), width)
	}

	out := opts.OutputScaler
	if out == nil {
		out = scaler.Identity()
	}
	predictor, err := regress.NewPredictor(opts.Model, out)
	if err != nil {
		return nil, eris.Wrap(ErrConfig, err.Error())
	}

	env := &Env{
		catalog:     c,
		multipliers: resolve.NewMultiplierResolver(c),
		missing:     resolve.NewMissingValueResolver(c, opts.Classifier, opts.ClassifierTimeout, opts.ClassifierConcurrency),
		builder:     builder,
		inScaler:    in,
		predictor:   predictor,
		sizer:       fpa.NewSizer(opts.LOCPerFP),
		degraded:    !in.Fitted() || !out.Fitted(),
	}
	if env.degraded {
		zap.L().Warn("estimate: running without fitted scalers, results are degraded")
	}
	zap.L().Info("estimate: pipeline ready",
		zap.Int("feature_width", width),
		zap.Int("reserved_slots", builder.Reserved()),
		zap.Bool("degraded", env.degraded),
	)
	return env, nil
}

// Catalog returns the driver catalog the pipeline resolves against.
func (e *Env) Catalog() *catalog.Catalog {
	return e.catalog
}

// Request is one estimate input. EstimatedKLOC wins over FunctionPoints
// when both are set.
type Request struct {
	CostDrivers    []model.Assignment           `json:"costDrivers" yaml:"costDrivers"`
	EstimatedKLOC  *float64                     `json:"estimatedKLOC,omitempty" yaml:"estimatedKLOC,omitempty"`
	FunctionPoints *model.FunctionPointAnalysis `json:"functionPoints,omitempty" yaml:"functionPoints,omitempty"`
}

// Result is the outcome of one estimate.
type Result struct {
	RequestID             string                      `json:"requestId"`
	EstimationResults     model.EstimationResults     `json:"estimationResults"`
	FunctionPointAnalysis model.FunctionPointAnalysis `json:"functionPointAnalysis"`
	Received              []model.Assignment          `json:"receivedCostDrivers"`
	Processed             []model.ResolvedDriver      `json:"processedCostDrivers"`
}

// Estimate runs the pipeline for one request. It fails only when the size
// input is unusable (negative or non-finite); every driver-level problem
// degrades to the neutral rating instead.
func (e *Env) Estimate(ctx context.Context, req Request) (*Result, error) {
	id := uuid.NewString()
	log := zap.L().With(zap.String("request_id", id))

	var fp model.FunctionPointAnalysis
	if req.FunctionPoints != nil {
		fp = *req.FunctionPoints
	}
	size, err := e.sizer.Size(fp)
	if err != nil {
		return nil, eris.Wrap(ErrInvalidRequest, err.Error())
	}
	kloc := size.KLOC
	if req.EstimatedKLOC != nil {
		kloc = *req.EstimatedKLOC
	}
	if math.IsNaN(kloc) || math.IsInf(kloc, 0) {
		return nil, eris.Wrapf(ErrInvalidRequest, "estimatedKLOC must be finite, got %v", kloc)
	}
	if kloc < 0 {
		return nil, eris.Wrapf(ErrInvalidRequest, "estimatedKLOC must not be negative, got %v", kloc)
	}

	filled := e.missing.Fill(ctx, req.CostDrivers)
	processed := e.multipliers.ResolveAll(filled)

	vec, err := e.builder.Build(processed, kloc)
	if err != nil {
		return nil, eris.Wrap(ErrInvalidRequest, err.Error())
	}
	scaled, err := e.inScaler.Forward(vec)
	if err != nil {
		return nil, eris.Wrap(err, "estimate: scale features")
	}
	effort, err := e.predictor.Effort(scaled)
	if err != nil {
		return nil, eris.Wrap(err, "estimate: predict effort")
	}

	received := req.CostDrivers
	if received == nil {
		received = []model.Assignment{}
	}

	res := &Result{
		RequestID: id,
		EstimationResults: model.EstimationResults{
			ProjectSize:       float64(size.UnadjustedFP),
			EstimatedKLOC:     kloc,
			EffortMultiplier:  e.builder.EffortMultiplier(vec),
			DevelopmentEffort: effort,
			DevelopmentTime:   schedule.DevelopmentTime(effort),
			Degraded:          e.degraded,
		},
		FunctionPointAnalysis: fp,
		Received:              received,
		Processed:             processed,
	}

	inferred := 0
	for _, p := range processed {
		if p.Inferred {
			inferred++
		}
	}
	log.Info("estimate: complete",
		zap.Int("drivers", len(processed)),
		zap.Int("inferred", inferred),
		zap.Float64("kloc", kloc),
		zap.Float64("effort_multiplier", res.EstimationResults.EffortMultiplier),
		zap.Float64("effort", effort),
		zap.Float64("development_time", res.EstimationResults.DevelopmentTime),
		zap.Bool("degraded", e.degraded),
	)
	return res, nil
}
