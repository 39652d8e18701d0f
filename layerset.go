package layercluster

import "fmt"

// Layer is an ordered sequence of k-dimensional points. A layer may be
// empty; order defines each point's local index within the layer.
type Layer [][]float64

// layerSet owns all layers: one spatial index per non-empty layer (nil
// for an empty layer) and each layer's starting offset into the
// concatenated global point sequence. Immutable after construction.
type layerSet struct {
	sizes   []int
	offsets []int
	indexes []SpatialIndex // nil entry = empty layer
	dims    int
	total   int
}

// newLayerSet validates dimensionality across all layers, flattens each
// non-empty layer to row-major form, builds its index, and computes the
// running-sum global offsets.
func newLayerSet(layers []Layer, cfg Config) (*layerSet, error) {
	ls := &layerSet{
		sizes:   make([]int, len(layers)),
		offsets: make([]int, len(layers)),
		indexes: make([]SpatialIndex, len(layers)),
	}

	// A single dimensionality must hold across every layer: cross-layer
	// queries compare points from different layers directly.
	for li, layer := range layers {
		for pi, pt := range layer {
			if ls.dims == 0 {
				ls.dims = len(pt)
			}
			if len(pt) == 0 {
				return nil, fmt.Errorf("layercluster: layer %d point %d has no coordinates", li, pi)
			}
			if len(pt) != ls.dims {
				return nil, fmt.Errorf("layercluster: layer %d point %d has %d dimensions, want %d", li, pi, len(pt), ls.dims)
			}
		}
	}

	for li, layer := range layers {
		ls.sizes[li] = len(layer)
		ls.offsets[li] = ls.total
		ls.total += len(layer)

		if len(layer) == 0 {
			continue // absent index; queries against it yield no matches
		}

		flat := make([]float64, len(layer)*ls.dims)
		for pi, pt := range layer {
			copy(flat[pi*ls.dims:], pt)
		}
		ls.indexes[li] = buildIndex(flat, len(layer), ls.dims, cfg)
	}

	return ls, nil
}

// buildIndex constructs the configured index variant. cfg must already
// have defaults applied.
func buildIndex(flat []float64, n, dims int, cfg Config) SpatialIndex {
	switch cfg.Index {
	case IndexBallTree:
		return NewBallTree(flat, n, dims, cfg.Metric, cfg.LeafSize)
	case IndexBrute:
		return NewBruteIndex(flat, n, dims, cfg.Metric)
	default:
		return NewKDTree(flat, n, dims, cfg.Metric, cfg.LeafSize)
	}
}

func (ls *layerSet) numLayers() int { return len(ls.indexes) }
