// Package projects persists the listing of past projects shown by the API.
package projects

import (
	"context"
	_ "embed"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/effort-cli/internal/model"
)

// Store defines the persistence interface for the project listing.
type Store interface {
	List(ctx context.Context, limit int) ([]model.Project, error)
	Create(ctx context.Context, p model.Project) (*model.Project, error)
	Count(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

//go:embed projects.yaml
var fixture []byte

type fixtureFile struct {
	Projects []fixtureProject `yaml:"projects"`
}

type fixtureProject struct {
	ProjectName           string                      `yaml:"projectName"`
	AgeDays               int                         `yaml:"ageDays"`
	FunctionPointAnalysis model.FunctionPointAnalysis `yaml:"functionPointAnalysis"`
	EstimationResults     model.EstimationResults     `yaml:"estimationResults"`
}

// Examples returns the example projects, dated relative to now.
func Examples(now time.Time) ([]model.Project, error) {
	var f fixtureFile
	if err := yaml.Unmarshal(fixture, &f); err != nil {
		return nil, eris.Wrap(err, "projects: parse fixture")
	}
	out := make([]model.Project, 0, len(f.Projects))
	for _, p := range f.Projects {
		out = append(out, model.Project{
			ProjectName:           p.ProjectName,
			DateCreated:           now.AddDate(0, 0, -p.AgeDays),
			FunctionPointAnalysis: p.FunctionPointAnalysis,
			EstimationResults:     p.EstimationResults,
		})
	}
	return out, nil
}

// Seed inserts the example projects when the store is empty. It returns the
// number of projects inserted.
func Seed(ctx context.Context, s Store) (int, error) {
	n, err := s.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	examples, err := Examples(time.Now().UTC())
	if err != nil {
		return 0, err
	}
	for _, p := range examples {
		if _, err := s.Create(ctx, p); err != nil {
			return 0, eris.Wrapf(err, "projects: seed %q", p.ProjectName)
		}
	}
	return len(examples), nil
}
