package artifact

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/ZebulonRouseFrantzich/nativefetch/internal/extract"
	"github.com/ZebulonRouseFrantzich/nativefetch/internal/selector"
)

// ErrSharedDestination is returned by ExtractAll when two jobs target the same
// destination directory.
var ErrSharedDestination = errors.New("jobs share a destination directory")

// Job is one DownloadAndExtract call of a batch.
type Job struct {
	Ref      Reference
	DestDir  string
	Selector selector.Policy
	Flatten  bool
}

// ExtractAll runs every job, at most Concurrency at a time. Jobs must have
// distinct destination directories. The results are in job order. The first
// failure cancels the jobs that have not finished.
func (m *Manager) ExtractAll(ctx context.Context, jobs []Job) ([]*extract.ExtractionResult, error) {
	seen := make(map[string]string, len(jobs))
	for _, job := range jobs {
		abs, err := filepath.Abs(job.DestDir)
		if err != nil {
			return nil, fmt.Errorf("resolve dest dir: %w", err)
		}
		if other, ok := seen[abs]; ok {
			return nil, fmt.Errorf("%w: %s and %s both extract to %s", ErrSharedDestination, other, job.Ref, abs)
		}
		seen[abs] = job.Ref.String()
	}

	results := make([]*extract.ExtractionResult, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			result, err := m.DownloadAndExtract(ctx, job.Ref, job.DestDir, job.Selector, job.Flatten)
			if err != nil {
				return fmt.Errorf("artifact %s: %w", job.Ref, err)
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
