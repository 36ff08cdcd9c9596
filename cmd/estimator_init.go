package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/effort-cli/internal/catalog"
	"github.com/sells-group/effort-cli/internal/estimate"
	"github.com/sells-group/effort-cli/internal/projects"
	"github.com/sells-group/effort-cli/internal/regress"
	"github.com/sells-group/effort-cli/internal/resolve"
	"github.com/sells-group/effort-cli/internal/scaler"
	anthropicpkg "github.com/sells-group/effort-cli/pkg/anthropic"
)

// initCatalog loads the configured multiplier table, or the embedded one.
func initCatalog() (*catalog.Catalog, error) {
	if cfg.Artifacts.MultiplierTable == "" {
		return catalog.Default()
	}
	c, err := catalog.LoadFile(cfg.Artifacts.MultiplierTable)
	if err != nil {
		return nil, eris.Wrap(err, "load multiplier table")
	}
	zap.L().Info("multiplier table loaded", zap.String("path", cfg.Artifacts.MultiplierTable))
	return c, nil
}

// initClassifier returns the Claude-backed classifier, or one that always
// fails when no API key is configured.
func initClassifier() resolve.Classifier {
	if cfg.Anthropic.Key == "" {
		zap.L().Warn("EFFORT_ANTHROPIC_KEY not set, unresolved drivers will default to Nominal")
		return resolve.UnavailableClassifier{}
	}
	client := anthropicpkg.NewClient(cfg.Anthropic.Key,
		anthropicpkg.WithBaseURL(cfg.Anthropic.BaseURL),
		anthropicpkg.WithMaxRetries(0),
	)
	return resolve.NewAnthropicClassifier(client, cfg.Anthropic, cfg.Classifier)
}

// initEstimator loads the model artifacts and builds the estimation
// pipeline. A missing model is fatal; missing scalers degrade results.
func initEstimator(mode string) (*estimate.Env, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	c, err := initCatalog()
	if err != nil {
		return nil, err
	}

	m, err := regress.Load(cfg.Artifacts.ModelPath)
	if err != nil {
		return nil, eris.Wrap(err, "load regression model")
	}

	env, err := estimate.New(estimate.Options{
		Catalog:               c,
		Classifier:            initClassifier(),
		ClassifierTimeout:     time.Duration(cfg.Classifier.TimeoutSecs) * time.Second,
		ClassifierConcurrency: cfg.Classifier.Concurrency,
		Model:                 m,
		InputScaler:           scaler.LoadOrIdentity(cfg.Artifacts.ScalerXPath),
		OutputScaler:          scaler.LoadOrIdentity(cfg.Artifacts.ScalerYPath),
		FeatureWidth:          cfg.Artifacts.FeatureWidth,
		LOCPerFP:              cfg.Sizing.LOCPerFP,
	})
	if err != nil {
		return nil, eris.Wrap(err, "build estimator")
	}
	return env, nil
}

// initStore opens and migrates the project listing database, seeding it
// with the example projects when configured. Callers should defer Close.
func initStore(ctx context.Context) (projects.Store, error) {
	st, err := projects.NewSQLite(cfg.Store.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "open project store")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate project store")
	}
	if cfg.Store.Seed {
		n, err := projects.Seed(ctx, st)
		if err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "seed project store")
		}
		if n > 0 {
			zap.L().Info("project store seeded", zap.Int("projects", n))
		}
	}
	return st, nil
}
