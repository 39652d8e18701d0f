package layercluster

import "fmt"

// IndexKind selects the spatial index structure built per layer.
type IndexKind string

const (
	IndexKDTree   IndexKind = "kdtree"
	IndexBallTree IndexKind = "balltree"
	IndexBrute    IndexKind = "brute"
)

// Config controls clustering behavior.
// Start with [DefaultConfig] and override the fields you need.
type Config struct {
	// Metric is the distance function used to measure point proximity.
	// Built-in: EuclideanMetric, ManhattanMetric, ChebyshevMetric,
	// MinkowskiMetric. A custom DistanceFunc requires IndexBrute, since
	// the tree bounds cannot prune an arbitrary metric.
	// Default: EuclideanMetric.
	Metric DistanceMetric

	// Index selects the per-layer spatial index structure. All variants
	// produce the identical match set. Default: IndexKDTree.
	Index IndexKind

	// LeafSize controls the maximum number of points in a tree leaf node.
	// Larger values trade query pruning for faster tree construction.
	// Ignored by IndexBrute. Must be >= 1. Default: 16.
	LeafSize int

	// Workers controls the number of goroutines used to run radius
	// queries for independent layers concurrently. <= 1 runs
	// sequentially; the output is identical either way. Default: 1.
	Workers int
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Metric:   EuclideanMetric{},
		Index:    IndexKDTree,
		LeafSize: 16,
		Workers:  1,
	}
}

// applyDefaults fills in zero-valued config fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.Metric == nil {
		cfg.Metric = EuclideanMetric{}
	}
	if cfg.Index == "" {
		cfg.Index = IndexKDTree
	}
	if cfg.LeafSize == 0 {
		cfg.LeafSize = 16
	}
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}
}

// validateConfig checks that cfg fields are valid and returns a descriptive error if not.
func validateConfig(cfg *Config) error {
	switch cfg.Index {
	case IndexKDTree, IndexBallTree, IndexBrute:
		// valid
	default:
		return fmt.Errorf("layercluster: invalid Index %q", cfg.Index)
	}
	if cfg.LeafSize < 1 {
		return fmt.Errorf("layercluster: LeafSize must be >= 1, got %d", cfg.LeafSize)
	}
	if cfg.Workers < 1 {
		return fmt.Errorf("layercluster: Workers must be >= 1, got %d", cfg.Workers)
	}
	if m, ok := cfg.Metric.(MinkowskiMetric); ok && m.P < 1 {
		return fmt.Errorf("layercluster: MinkowskiMetric.P must be >= 1, got %f", m.P)
	}
	if _, ok := cfg.Metric.(DistanceFunc); ok && cfg.Index != IndexBrute {
		return fmt.Errorf("layercluster: DistanceFunc metric requires IndexBrute, got Index %q", cfg.Index)
	}
	return nil
}

// MultiLayerCluster clusters points from multiple layers. Points whose
// distance is at or below the matching radius are clustered together,
// transitively. An instance is not safe for concurrent use; run
// independent instances for parallel clustering jobs.
type MultiLayerCluster struct {
	cfg     Config
	set     *layerSet
	matches [][]int
	matched bool
}

// New builds the per-layer spatial indexes for the given layers.
// All points across all layers must share one dimensionality; a mismatch
// is reported here, before any query runs. Empty layers are legal and
// contribute no points.
func New(layers []Layer, cfg Config) (*MultiLayerCluster, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	set, err := newLayerSet(layers, cfg)
	if err != nil {
		return nil, err
	}

	return &MultiLayerCluster{cfg: cfg, set: set}, nil
}

// NumLayers returns the number of layers, including empty ones.
func (c *MultiLayerCluster) NumLayers() int { return c.set.numLayers() }

// NumPoints returns the total number of points across all layers.
func (c *MultiLayerCluster) NumPoints() int { return c.set.total }

// LayerOffset returns the global index of layer i's first point: the
// cumulative count of points in all preceding layers.
func (c *MultiLayerCluster) LayerOffset(i int) int { return c.set.offsets[i] }

// ClusterAllLayers finds, for every point, the points within matching
// radius of it: selfRadius bounds matches within the point's own layer,
// otherRadius bounds matches across two different layers. Radii are
// inclusive (distance <= radius); zero means exact coincidence only, and
// a negative radius is an error.
//
// The returned adjacency list has one entry per global point, each
// holding the global indices matched to that point (a point always
// matches itself under selfRadius). Each call replaces the result of any
// previous call; results never accumulate across calls.
func (c *MultiLayerCluster) ClusterAllLayers(selfRadius, otherRadius float64) ([][]int, error) {
	if selfRadius < 0 {
		return nil, fmt.Errorf("layercluster: selfRadius must be >= 0, got %f", selfRadius)
	}
	if otherRadius < 0 {
		return nil, fmt.Errorf("layercluster: otherRadius must be >= 0, got %f", otherRadius)
	}

	c.matches = buildAdjacency(c.set, selfRadius, otherRadius, c.cfg.Workers)
	c.matched = true
	return c.matches, nil
}

// CompressMatch unions every matched pair from the last ClusterAllLayers
// call and returns the resulting partition: each cluster keyed by a
// representative global index and holding the ascending global indices
// of its members. Every point appears in exactly one cluster. The choice
// of representative is an implementation detail; compare clusters by
// membership. Returns an error if ClusterAllLayers has not been called.
func (c *MultiLayerCluster) CompressMatch() (map[int][]int, error) {
	if !c.matched {
		return nil, fmt.Errorf("layercluster: CompressMatch called before ClusterAllLayers")
	}

	uf := NewUnionFind(len(c.matches))
	for i, connected := range c.matches {
		for _, j := range connected {
			uf.Union(i, j)
		}
	}
	return uf.ListUnions(), nil
}
