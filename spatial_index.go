package layercluster

// NodeData describes a single node in a spatial tree.
type NodeData struct {
	IdxStart, IdxEnd int
	IsLeaf           bool
	Radius           float64 // ball tree radius; 0 for KD-tree
}

// SpatialIndex is the query interface shared by the KD-tree, ball tree,
// and brute-force index variants. An empty layer has no index at all and
// is represented as a nil SpatialIndex, never as a zero-point structure.
type SpatialIndex interface {
	// QueryRadius returns the original indices of all points whose
	// distance to point is <= radius, in ascending index order.
	QueryRadius(point []float64, radius float64) []int

	// Data returns the flat row-major point data owned by the index.
	Data() []float64

	// NumPoints returns the number of points in the index.
	NumPoints() int

	// NumFeatures returns the dimensionality of each point.
	NumFeatures() int
}

// QueryWithin returns, for every point in idx, the indices of points in
// idx within radius of it, including the point itself (self-distance is
// always zero). A nil idx yields an empty result.
func QueryWithin(idx SpatialIndex, radius float64) [][]int {
	return QueryAgainst(idx, idx, radius)
}

// QueryAgainst returns, for every point in src, the indices of points in
// dst within radius of it. A nil src yields an empty result; a nil dst
// yields one empty list per src point. No error is raised in either case.
func QueryAgainst(src, dst SpatialIndex, radius float64) [][]int {
	if src == nil {
		return [][]int{}
	}
	out := make([][]int, src.NumPoints())
	if dst == nil {
		for i := range out {
			out[i] = []int{}
		}
		return out
	}
	data := src.Data()
	dims := src.NumFeatures()
	for i := range out {
		out[i] = dst.QueryRadius(data[i*dims:(i+1)*dims], radius)
	}
	return out
}
