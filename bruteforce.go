package layercluster

// BruteIndex is an exact pairwise-scan spatial index. Queries cost
// O(n) per point, but the match set is identical to the tree variants,
// which makes it the reference implementation for equivalence tests and
// a safe choice for custom DistanceFunc metrics that the tree bounds
// cannot prune.
type BruteIndex struct {
	data   []float64 // flat row-major point data (n * dims)
	n      int
	dims   int
	metric DistanceMetric
}

// NewBruteIndex builds a brute-force index from flat row-major data with
// n points of dimensionality dims.
func NewBruteIndex(data []float64, n, dims int, metric DistanceMetric) *BruteIndex {
	dataCopy := make([]float64, len(data))
	copy(dataCopy, data)
	return &BruteIndex{data: dataCopy, n: n, dims: dims, metric: metric}
}

// --- SpatialIndex interface ---

func (b *BruteIndex) Data() []float64  { return b.data }
func (b *BruteIndex) NumPoints() int   { return b.n }
func (b *BruteIndex) NumFeatures() int { return b.dims }

// QueryRadius returns the original indices of all points within radius
// of query (inclusive boundary), in ascending index order.
func (b *BruteIndex) QueryRadius(query []float64, radius float64) []int {
	rlimit := b.metric.DistToRdist(radius)
	out := []int{}
	for i := 0; i < b.n; i++ {
		pt := b.data[i*b.dims : (i+1)*b.dims]
		if b.metric.ReducedDistance(query, pt) <= rlimit {
			out = append(out, i)
		}
	}
	return out
}
