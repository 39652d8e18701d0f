package layercluster

import "sync"

// buildAdjacency produces the global adjacency list: one neighbor-index
// list per global point. For each layer i, self-matches are queried at
// selfRadius, then each later layer j gets a cross-query at otherRadius.
// A match between layers i and j (i < j) is recorded only under the
// layer-i point; the union pass downstream is symmetric, so one
// direction suffices. An empty layer contributes zero entries (it has no
// points, so its offset slice has size 0).
//
// numWorkers > 1 splits the layers across goroutines. Each layer's rows
// land in that layer's own contiguous slice of the result, so the writes
// never overlap and the output is identical to the sequential order.
func buildAdjacency(ls *layerSet, selfRadius, otherRadius float64, numWorkers int) [][]int {
	matches := make([][]int, ls.total)

	if numWorkers <= 1 || ls.numLayers() <= 1 {
		for i := 0; i < ls.numLayers(); i++ {
			fillLayerMatches(ls, i, selfRadius, otherRadius, matches)
		}
		return matches
	}

	var wg sync.WaitGroup

	layersPerWorker := (ls.numLayers() + numWorkers - 1) / numWorkers

	for w := 0; w < numWorkers; w++ {
		start := w * layersPerWorker
		end := start + layersPerWorker
		if end > ls.numLayers() {
			end = ls.numLayers()
		}
		if start >= ls.numLayers() {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fillLayerMatches(ls, i, selfRadius, otherRadius, matches)
			}
		}(start, end)
	}

	wg.Wait()
	return matches
}

// fillLayerMatches computes the completed neighbor lists for every point
// in layer i and writes them into the layer's global-offset slots.
func fillLayerMatches(ls *layerSet, i int, selfRadius, otherRadius float64, matches [][]int) {
	idx := ls.indexes[i]
	if idx == nil {
		return
	}

	rows := QueryWithin(idx, selfRadius)
	shiftIdx(rows, ls.offsets[i])

	for j := i + 1; j < ls.numLayers(); j++ {
		cross := QueryAgainst(idx, ls.indexes[j], otherRadius)
		shiftIdx(cross, ls.offsets[j])
		for k := range rows {
			rows[k] = append(rows[k], cross[k]...)
		}
	}

	copy(matches[ls.offsets[i]:ls.offsets[i]+ls.sizes[i]], rows)
}

// shiftIdx converts layer-local indices to global ones by adding the
// layer's start offset to every index in rows, in place.
func shiftIdx(rows [][]int, offset int) {
	if offset == 0 {
		return
	}
	for _, row := range rows {
		for k := range row {
			row[k] += offset
		}
	}
}
