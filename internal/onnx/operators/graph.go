package operators

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/born-ml/opgraph/internal/graph"
)

// Failure is the validation result of one failing node.
type Failure struct {
	Region string
	Node   *Node
	Err    error
}

// ValidateGraph validates every operator node of g.
//
// Nodes are validated in parallel by up to workers goroutines
// (GOMAXPROCS when workers <= 0). Validation only reads the graph, so
// nodes share no mutable state. Failures are returned in region order,
// then node insertion order. The error is non-nil only when ctx is done.
func ValidateGraph(ctx context.Context, g *graph.Graph, workers int) ([]Failure, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	type job struct {
		region *graph.Region
		node   *Node
	}
	var jobs []job
	for _, r := range g.Regions() {
		for _, n := range r.Nodes() {
			if op, ok := n.(*Node); ok {
				jobs = append(jobs, job{region: r, node: op})
			}
		}
	}

	results := make([]error, len(jobs))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, j := range jobs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = j.node.Validate(j.region)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var failures []Failure
	for i, err := range results {
		if err != nil {
			failures = append(failures, Failure{Region: jobs[i].region.Name(), Node: jobs[i].node, Err: err})
		}
	}
	return failures, nil
}
