package resolve

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/effort-cli/internal/catalog"
	"github.com/sells-group/effort-cli/internal/model"
)

const (
	defaultInferTimeout     = 10 * time.Second
	defaultInferConcurrency = 4
)

// MissingValueResolver fills unresolved ratings by asking a Classifier. Any
// failure for one driver falls back to the neutral level for that driver only.
type MissingValueResolver struct {
	catalog     *catalog.Catalog
	classifier  Classifier
	timeout     time.Duration
	concurrency int
}

// NewMissingValueResolver creates a resolver. timeout bounds each classifier
// call; concurrency caps the number of calls in flight.
func NewMissingValueResolver(c *catalog.Catalog, cls Classifier, timeout time.Duration, concurrency int) *MissingValueResolver {
	if cls == nil {
		cls = UnavailableClassifier{}
	}
	if timeout <= 0 {
		timeout = defaultInferTimeout
	}
	if concurrency <= 0 {
		concurrency = defaultInferConcurrency
	}
	return &MissingValueResolver{
		catalog:     c,
		classifier:  cls,
		timeout:     timeout,
		concurrency: concurrency,
	}
}

// Fill returns a copy of assignments in which every rating is resolved.
// Assignments that were already resolved pass through untouched. Only ratings
// explicitly marked unresolved reach the classifier; a missing rating takes
// the neutral level directly.
func (r *MissingValueResolver) Fill(ctx context.Context, assignments []model.Assignment) []model.Assignment {
	out := make([]model.Assignment, len(assignments))
	copy(out, assignments)

	var g errgroup.Group
	g.SetLimit(r.concurrency)

	for i := range out {
		if out[i].Rating.IsResolved() {
			continue
		}
		if out[i].Rating.IsMissing() {
			zap.L().Warn("resolve: no rating supplied, defaulting to neutral",
				zap.String("driver", string(out[i].Driver)),
			)
			out[i].Rating = model.Resolved(string(model.NeutralLevel))
			continue
		}
		g.Go(func() error {
			out[i].Rating = model.Resolved(string(r.infer(ctx, out[i].Driver)))
			out[i].Inferred = true
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// infer asks the classifier for one driver and validates the answer. It
// always returns a canonical level.
func (r *MissingValueResolver) infer(ctx context.Context, driver model.Driver) model.Level {
	desc, err := r.catalog.Describe(driver)
	if err != nil {
		zap.L().Warn("resolve: cannot infer rating for unknown driver, defaulting to neutral",
			zap.String("driver", string(driver)),
		)
		return model.NeutralLevel
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	answer, err := r.classify(callCtx, ClassifyRequest{
		Driver:      driver,
		Description: desc,
		Levels:      r.catalog.Levels(),
	})
	if err != nil {
		zap.L().Warn("resolve: rating inference failed, defaulting to neutral",
			zap.String("driver", string(driver)),
			zap.Error(err),
		)
		return model.NeutralLevel
	}

	// Exact match only: the answer is untrusted and must be one of the
	// canonical symbols verbatim.
	lvl := model.Level(strings.TrimSpace(answer))
	if !r.catalog.IsLevel(lvl) {
		zap.L().Warn("resolve: invalid inferred rating, defaulting to neutral",
			zap.String("driver", string(driver)),
			zap.String("answer", answer),
		)
		return model.NeutralLevel
	}

	zap.L().Info("resolve: inferred rating",
		zap.String("driver", string(driver)),
		zap.String("value", string(lvl)),
	)
	return lvl
}

type classifyResult struct {
	answer string
	err    error
}

// classify returns when ctx is done even if the classifier ignores ctx. The
// abandoned call finishes into a buffered channel.
func (r *MissingValueResolver) classify(ctx context.Context, req ClassifyRequest) (string, error) {
	done := make(chan classifyResult, 1)
	go func() {
		answer, err := r.classifier.Classify(ctx, req)
		done <- classifyResult{answer: answer, err: err}
	}()

	select {
	case res := <-done:
		return res.answer, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
