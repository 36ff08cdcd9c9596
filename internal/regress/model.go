// Package regress evaluates the trained effort regression model.
package regress

import (
	"encoding/json"
	"math"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/effort-cli/internal/scaler"
)

var (
	// ErrModelUnavailable is returned when the model artifact is missing or invalid.
	ErrModelUnavailable = eris.New("regress: model unavailable")
	// ErrInputWidth is returned when a feature vector does not match the model.
	ErrInputWidth = eris.New("regress: input width mismatch")
)

// Activation names a layer's element-wise output function.
type Activation string

// Supported activations.
const (
	ActivationLinear  Activation = "linear"
	ActivationReLU    Activation = "relu"
	ActivationSigmoid Activation = "sigmoid"
	ActivationTanh    Activation = "tanh"
)

func (a Activation) apply(v float64) float64 {
	switch a {
	case ActivationReLU:
		return math.Max(0, v)
	case ActivationSigmoid:
		return 1 / (1 + math.Exp(-v))
	case ActivationTanh:
		return math.Tanh(v)
	default:
		return v
	}
}

func (a Activation) valid() bool {
	switch a {
	case "", ActivationLinear, ActivationReLU, ActivationSigmoid, ActivationTanh:
		return true
	}
	return false
}

// Layer is one dense layer. Weights are indexed [out][in].
type Layer struct {
	Weights    [][]float64 `json:"weights"`
	Bias       []float64   `json:"bias"`
	Activation Activation  `json:"activation"`
}

// Model is a dense feed-forward network whose last layer has one output.
// A single linear layer is plain linear regression. Immutable after Load.
type Model struct {
	InputWidth int     `json:"input_width"`
	Layers     []Layer `json:"layers"`
}

// Load reads and validates a model artifact.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(ErrModelUnavailable, "read %s: %v", path, err)
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrapf(ErrModelUnavailable, "decode %s: %v", path, err)
	}
	if err := m.validate(); err != nil {
		return nil, eris.Wrapf(ErrModelUnavailable, "%s: %v", path, err)
	}
	return &m, nil
}

func (m *Model) validate() error {
	if m.InputWidth <= 0 {
		return eris.Errorf("input_width must be positive, got %d", m.InputWidth)
	}
	if len(m.Layers) == 0 {
		return eris.New("no layers")
	}
	in := m.InputWidth
	for i, l := range m.Layers {
		if len(l.Weights) == 0 {
			return eris.Errorf("layer %d has no units", i)
		}
		if len(l.Bias) != len(l.Weights) {
			return eris.Errorf("layer %d has %d units but %d biases", i, len(l.Weights), len(l.Bias))
		}
		for j, row := range l.Weights {
			if len(row) != in {
				return eris.Errorf("layer %d unit %d has %d weights, want %d", i, j, len(row), in)
			}
		}
		if !l.Activation.valid() {
			return eris.Errorf("layer %d has unknown activation %q", i, l.Activation)
		}
		in = len(l.Weights)
	}
	if in != 1 {
		return eris.Errorf("output layer has %d units, want 1", in)
	}
	return nil
}

// Predict runs a scaled feature vector through the network and returns the
// scaled effort.
func (m *Model) Predict(x []float64) (float64, error) {
	if len(x) != m.InputWidth {
		return 0, eris.Wrapf(ErrInputWidth, "got %d features, model expects %d", len(x), m.InputWidth)
	}
	act := x
	for _, l := range m.Layers {
		next := make([]float64, len(l.Weights))
		for j, row := range l.Weights {
			sum := l.Bias[j]
			for k, w := range row {
				sum += w * act[k]
			}
			next[j] = l.Activation.apply(sum)
		}
		act = next
	}
	return act[0], nil
}

// Predictor turns a scaled feature vector into effort in person-months.
type Predictor struct {
	model  *Model
	output *scaler.MinMax
}

// NewPredictor pairs a model with the scaler fitted on its target. A fitted
// output scaler must be one feature wide.
func NewPredictor(m *Model, output *scaler.MinMax) (*Predictor, error) {
	if output == nil {
		output = scaler.Identity()
	}
	if output.Fitted() && output.Width() != 1 {
		return nil, eris.Wrapf(scaler.ErrDimension, "output scaler has %d features, want 1", output.Width())
	}
	return &Predictor{model: m, output: output}, nil
}

// InputWidth returns the width the model expects.
func (p *Predictor) InputWidth() int {
	return p.model.InputWidth
}

// Effort predicts effort from a scaled vector. Negative predictions are
// clamped to 0.
func (p *Predictor) Effort(scaled []float64) (float64, error) {
	y, err := p.model.Predict(scaled)
	if err != nil {
		return 0, err
	}
	raw, err := p.output.Inverse([]float64{y})
	if err != nil {
		return 0, err
	}
	effort := raw[0]
	if effort < 0 || math.IsNaN(effort) {
		zap.L().Warn("regress: predicted effort not positive, clamping to zero",
			zap.Float64("effort", effort),
		)
		return 0, nil
	}
	return effort, nil
}
