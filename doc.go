// Package layercluster groups k-dimensional points drawn from multiple
// ordered layers into connected clusters.
//
// Two points are connected when their distance is at or below a threshold:
// selfRadius for points in the same layer, otherRadius for points in
// different layers. Clusters are the connected components of that match
// graph, computed with per-layer spatial indexes and a union-find pass.
// Every point is addressed by its global index: its position in the
// concatenation of all layers in layer order.
//
// Basic usage:
//
//	layers := []layercluster.Layer{
//		{{1, 1}, {2, 2}, {3, 3}},
//		{{1.1, 1.1}, {0.9, 0.9}},
//	}
//	c, err := layercluster.New(layers, layercluster.DefaultConfig())
//	matches, err := c.ClusterAllLayers(0.2, 0.2)
//	clusters, err := c.CompressMatch()
//	// clusters maps a representative global index to the ascending
//	// global indices of every point in that cluster.
//
// # Index selection
//
// By default, each non-empty layer is indexed with a KD-tree. Set
// Config.Index to choose a different structure:
//
//	cfg.Index = layercluster.IndexBallTree // ball tree
//	cfg.Index = layercluster.IndexBrute    // exact pairwise scan
//
// All variants return the identical match set; they differ only in
// query cost.
package layercluster
