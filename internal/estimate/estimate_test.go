package estimate

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/effort-cli/internal/catalog"
	"github.com/sells-group/effort-cli/internal/model"
	"github.com/sells-group/effort-cli/internal/regress"
	"github.com/sells-group/effort-cli/internal/resolve"
	"github.com/sells-group/effort-cli/internal/scaler"
	"github.com/sells-group/effort-cli/internal/schedule"
)

// stubClassifier answers every request with the same text.
type stubClassifier struct {
	answer string
	err    error
}

func (s stubClassifier) Classify(context.Context, resolve.ClassifyRequest) (string, error) {
	return s.answer, s.err
}

// klocModel predicts 2*KLOC + 5*(rely slot) for a width-15 vector.
func klocModel() *regress.Model {
	w := make([]float64, 15)
	w[0] = 5
	w[14] = 2
	return &regress.Model{
		InputWidth: 15,
		Layers:     []regress.Layer{{Weights: [][]float64{w}, Bias: []float64{0}}},
	}
}

func fitted(t *testing.T, width int) *scaler.MinMax {
	t.Helper()
	lo := make([]float64, width)
	hi := make([]float64, width)
	for i := range hi {
		hi[i] = 1
	}
	s, err := scaler.New(lo, hi, 0, 1)
	require.NoError(t, err)
	return s
}

func newEnv(t *testing.T, cls resolve.Classifier) *Env {
	t.Helper()
	env, err := New(Options{
		Classifier:   cls,
		Model:        klocModel(),
		InputScaler:  fitted(t, 15),
		OutputScaler: fitted(t, 1),
		FeatureWidth: 15,
	})
	require.NoError(t, err)
	return env
}

func kloc(v float64) *float64 { return &v }

func TestEstimate_ScenarioA(t *testing.T) {
	env := newEnv(t, nil)

	res, err := env.Estimate(context.Background(), Request{
		CostDrivers: []model.Assignment{
			{Driver: model.DriverRELY, Rating: model.Resolved("High")},
			{Driver: model.DriverDATA, Rating: model.Resolved("Nominal")},
			{Driver: model.DriverCPLX, Rating: model.Resolved("VeryHigh")},
		},
		EstimatedKLOC: kloc(10),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.RequestID)
	require.Len(t, res.Processed, 3)
	assert.Equal(t, 1.10, res.Processed[0].Multiplier)
	assert.Equal(t, 1.00, res.Processed[1].Multiplier)
	assert.Equal(t, 1.34, res.Processed[2].Multiplier)

	r := res.EstimationResults
	assert.InDelta(t, 1.474, r.EffortMultiplier, 1e-9)
	assert.InDelta(t, 10.0, r.EstimatedKLOC, 1e-12)
	// 5*1.10 + 2*10
	assert.InDelta(t, 25.5, r.DevelopmentEffort, 1e-9)
	assert.InDelta(t, schedule.DevelopmentTime(25.5), r.DevelopmentTime, 1e-9)
	assert.False(t, r.Degraded)
}

func TestEstimate_ScenarioB_InvalidClassifierAnswer(t *testing.T) {
	env := newEnv(t, stubClassifier{answer: "Extreme"})

	res, err := env.Estimate(context.Background(), Request{
		CostDrivers:   []model.Assignment{{Driver: model.DriverRELY, Rating: model.ParseRating("unresolved")}},
		EstimatedKLOC: kloc(1),
	})
	require.NoError(t, err)

	require.Len(t, res.Processed, 1)
	assert.Equal(t, "Nominal", res.Processed[0].Value)
	assert.True(t, res.Processed[0].Inferred)
	nominal, err := catalog.MustDefault().Multiplier(model.DriverRELY, model.LevelNominal)
	require.NoError(t, err)
	assert.Equal(t, nominal, res.Processed[0].Multiplier)
}

func TestEstimate_ScenarioC_ClassifierTimeout(t *testing.T) {
	env := newEnv(t, stubClassifier{err: context.DeadlineExceeded})
	invalid := newEnv(t, stubClassifier{answer: "Extreme"})

	req := Request{
		CostDrivers:   []model.Assignment{{Driver: model.DriverRELY, Rating: model.Unresolved()}},
		EstimatedKLOC: kloc(3),
	}
	a, err := env.Estimate(context.Background(), req)
	require.NoError(t, err)
	b, err := invalid.Estimate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, b.Processed, a.Processed)
	assert.Equal(t, b.EstimationResults, a.EstimationResults)
}

// countingClassifier records how often it is asked.
type countingClassifier struct {
	calls  atomic.Int32
	answer string
}

func (c *countingClassifier) Classify(context.Context, resolve.ClassifyRequest) (string, error) {
	c.calls.Add(1)
	return c.answer, nil
}

func TestEstimate_OmittedValueIsNeutralWithoutInference(t *testing.T) {
	cls := &countingClassifier{answer: "High"}
	env := newEnv(t, cls)

	var req Request
	require.NoError(t, json.Unmarshal([]byte(`{"costDrivers":[{"driver":"rely"}],"estimatedKLOC":1}`), &req))

	res, err := env.Estimate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int32(0), cls.calls.Load())
	require.Len(t, res.Processed, 1)
	assert.Equal(t, model.ResolvedDriver{Driver: model.DriverRELY, Value: "Nominal", Multiplier: 1.0}, res.Processed[0])
}

func TestEstimate_ExplicitNullIsInferred(t *testing.T) {
	cls := &countingClassifier{answer: "High"}
	env := newEnv(t, cls)

	var req Request
	require.NoError(t, json.Unmarshal([]byte(`{"costDrivers":[{"driver":"rely","value":null}],"estimatedKLOC":1}`), &req))

	res, err := env.Estimate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int32(1), cls.calls.Load())
	assert.Equal(t, model.ResolvedDriver{Driver: model.DriverRELY, Value: "High", Multiplier: 1.10, Inferred: true}, res.Processed[0])
}

func TestEstimate_NoDriversIsNeutral(t *testing.T) {
	env := newEnv(t, nil)

	res, err := env.Estimate(context.Background(), Request{EstimatedKLOC: kloc(0)})
	require.NoError(t, err)

	assert.Equal(t, 1.0, res.EstimationResults.EffortMultiplier)
	assert.NotNil(t, res.Received)
	assert.Empty(t, res.Processed)
	// 5*1.0 (absent rely) + 0
	assert.InDelta(t, 5.0, res.EstimationResults.DevelopmentEffort, 1e-9)
}

func TestEstimate_FunctionPointsSetKLOC(t *testing.T) {
	env := newEnv(t, nil)

	res, err := env.Estimate(context.Background(), Request{
		FunctionPoints: &model.FunctionPointAnalysis{
			ExternalInputs:       model.FunctionCategory{Count: 10},
			InternalLogicalFiles: model.FunctionCategory{Count: 6},
		},
	})
	require.NoError(t, err)

	// 10*4 + 6*10 = 100 UFP -> 5.3 KLOC at 53 LOC/FP
	assert.Equal(t, 100.0, res.EstimationResults.ProjectSize)
	assert.InDelta(t, 5.3, res.EstimationResults.EstimatedKLOC, 1e-9)
}

func TestEstimate_ExplicitKLOCWins(t *testing.T) {
	env := newEnv(t, nil)

	res, err := env.Estimate(context.Background(), Request{
		EstimatedKLOC:  kloc(42),
		FunctionPoints: &model.FunctionPointAnalysis{ExternalInputs: model.FunctionCategory{Count: 10}},
	})
	require.NoError(t, err)
	assert.Equal(t, 40.0, res.EstimationResults.ProjectSize)
	assert.Equal(t, 42.0, res.EstimationResults.EstimatedKLOC)
}

func TestEstimate_NegativeKLOC(t *testing.T) {
	env := newEnv(t, nil)

	_, err := env.Estimate(context.Background(), Request{EstimatedKLOC: kloc(-1)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestEstimate_NonFiniteKLOC(t *testing.T) {
	env := newEnv(t, nil)

	for _, v := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
		_, err := env.Estimate(context.Background(), Request{EstimatedKLOC: kloc(v)})
		require.Error(t, err, "kloc %v", v)
		assert.True(t, errors.Is(err, ErrInvalidRequest))
	}
}

func TestEstimate_NonFiniteKLOCFromYAML(t *testing.T) {
	env := newEnv(t, nil)

	var req Request
	require.NoError(t, yaml.Unmarshal([]byte("estimatedKLOC: .inf\n"), &req))

	_, err := env.Estimate(context.Background(), req)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestEstimate_NegativeFunctionPoints(t *testing.T) {
	env := newEnv(t, nil)

	_, err := env.Estimate(context.Background(), Request{
		FunctionPoints: &model.FunctionPointAnalysis{ExternalOutputs: model.FunctionCategory{Count: -2}},
	})
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestEstimate_ClampsNegativeEffort(t *testing.T) {
	m := klocModel()
	m.Layers[0].Bias[0] = -1000
	env, err := New(Options{Model: m, FeatureWidth: 15})
	require.NoError(t, err)

	res, err := env.Estimate(context.Background(), Request{EstimatedKLOC: kloc(1)})
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.EstimationResults.DevelopmentEffort)
	assert.Equal(t, 0.0, res.EstimationResults.DevelopmentTime)
	assert.True(t, res.EstimationResults.Degraded)
}

func TestEstimate_ConcurrentRequests(t *testing.T) {
	env := newEnv(t, stubClassifier{answer: "High"})

	errs := make(chan error, 20)
	for i := range 20 {
		go func() {
			res, err := env.Estimate(context.Background(), Request{
				CostDrivers:   []model.Assignment{{Driver: model.DriverRELY, Rating: model.Unresolved()}},
				EstimatedKLOC: kloc(float64(i)),
			})
			if err == nil && math.Abs(res.EstimationResults.EffortMultiplier-1.10) > 1e-9 {
				err = errors.New("unexpected multiplier")
			}
			errs <- err
		}()
	}
	for range 20 {
		assert.NoError(t, <-errs)
	}
}

func TestNew_WidthMismatch(t *testing.T) {
	_, err := New(Options{Model: klocModel(), FeatureWidth: 16})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfig))

	_, err = New(Options{Model: klocModel(), FeatureWidth: 15, InputScaler: fitted(t, 14)})
	assert.True(t, errors.Is(err, ErrConfig))

	_, err = New(Options{Model: klocModel(), FeatureWidth: 15, OutputScaler: fitted(t, 2)})
	assert.True(t, errors.Is(err, ErrConfig))

	_, err = New(Options{Model: klocModel(), FeatureWidth: 12})
	assert.True(t, errors.Is(err, ErrConfig))
}

func TestNew_NoModel(t *testing.T) {
	_, err := New(Options{})
	assert.True(t, errors.Is(err, regress.ErrModelUnavailable))
}

func TestNew_IdentityScalersDegrade(t *testing.T) {
	env, err := New(Options{Model: klocModel()})
	require.NoError(t, err)

	res, err := env.Estimate(context.Background(), Request{EstimatedKLOC: kloc(2)})
	require.NoError(t, err)
	assert.True(t, res.EstimationResults.Degraded)
}

func TestResult_JSON(t *testing.T) {
	env := newEnv(t, stubClassifier{answer: "Low"})

	res, err := env.Estimate(context.Background(), Request{
		CostDrivers: []model.Assignment{
			{Driver: model.DriverRELY, Rating: model.Unresolved()},
			{Driver: model.DriverTOOL, Rating: model.Resolved("high")},
		},
		EstimatedKLOC: kloc(5),
	})
	require.NoError(t, err)

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "estimationResults")
	assert.Contains(t, decoded, "functionPointAnalysis")

	received := decoded["receivedCostDrivers"].([]any)
	assert.Nil(t, received[0].(map[string]any)["value"])
	assert.Equal(t, "high", received[1].(map[string]any)["value"])

	processed := decoded["processedCostDrivers"].([]any)
	first := processed[0].(map[string]any)
	assert.Equal(t, "Low", first["value"])
	assert.Equal(t, 0.92, first["numerical_value"])
	assert.Equal(t, true, first["inferred"])
	assert.Equal(t, "High", processed[1].(map[string]any)["value"])
}
