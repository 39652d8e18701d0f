package layercluster

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// canonicalPartition reduces a root→members mapping to a deterministic
// form: groups sorted internally and ordered by smallest member. Root
// identity is an implementation detail, so comparisons go through this.
func canonicalPartition(groups map[int][]int) [][]int {
	out := make([][]int, 0, len(groups))
	for _, g := range groups {
		members := append([]int(nil), g...)
		sort.Ints(members)
		out = append(out, members)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

func clusterPartition(t *testing.T, layers []Layer, cfg Config, selfRadius, otherRadius float64) [][]int {
	t.Helper()
	c, err := New(layers, cfg)
	require.NoError(t, err)
	_, err = c.ClusterAllLayers(selfRadius, otherRadius)
	require.NoError(t, err)
	groups, err := c.CompressMatch()
	require.NoError(t, err)
	return canonicalPartition(groups)
}

// --- Scenario tests ---

func TestCluster_FourLayerScenario(t *testing.T) {
	layers := scenarioLayers()

	// Global layout: 0..2 layer 0, 3..6 layer 1, 7..8 layer 3 (layer 2
	// is empty). Three clusters connect through chains of sub-radius
	// links even where the endpoints are farther apart than the radius.
	want := [][]int{
		{0, 3, 4, 7}, // (1,1), (1.1,1.1), (0.9,0.9), (1.15,1.15)
		{1, 5},       // (2,2), (2.1,2.1)
		{2, 6, 8},    // (3,3), (3.2,3.2), (3.1,3.1)
	}

	for _, kind := range []IndexKind{IndexKDTree, IndexBallTree, IndexBrute} {
		cfg := DefaultConfig()
		cfg.Index = kind
		got := clusterPartition(t, layers, cfg, 0.2, 0.2)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%s partition mismatch (-want +got):\n%s", kind, diff)
		}
	}
}

func TestCluster_TwoFarPointsAreSingletons(t *testing.T) {
	layers := []Layer{{{0, 0}, {100, 100}}}
	got := clusterPartition(t, layers, DefaultConfig(), 1, 1)
	want := [][]int{{0}, {1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("partition mismatch (-want +got):\n%s", diff)
	}
}

func TestCluster_AllLayersEmpty(t *testing.T) {
	c, err := New([]Layer{{}, {}, {}}, DefaultConfig())
	require.NoError(t, err)

	matches, err := c.ClusterAllLayers(1, 1)
	require.NoError(t, err)
	assert.Empty(t, matches)

	groups, err := c.CompressMatch()
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestCluster_ZeroRadiusMatchesCoincidenceOnly(t *testing.T) {
	layers := []Layer{
		{{1, 1}, {1, 1.0000001}},
		{{1, 1}},
	}
	got := clusterPartition(t, layers, DefaultConfig(), 0, 0)
	// Only the exactly coincident pair merges.
	want := [][]int{{0, 2}, {1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("partition mismatch (-want +got):\n%s", diff)
	}
}

// --- Partition properties ---

func randomLayers(rng *rand.Rand, numLayers, maxPoints, dims int) []Layer {
	layers := make([]Layer, numLayers)
	for i := range layers {
		n := rng.Intn(maxPoints + 1)
		layers[i] = make(Layer, n)
		for j := range layers[i] {
			pt := make([]float64, dims)
			for d := range pt {
				pt[d] = rng.Float64() * 10
			}
			layers[i][j] = pt
		}
	}
	return layers
}

func TestCluster_PartitionIsCompleteAndDisjoint(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	layers := randomLayers(rng, 4, 30, 3)

	c, err := New(layers, DefaultConfig())
	require.NoError(t, err)
	_, err = c.ClusterAllLayers(0.8, 0.5)
	require.NoError(t, err)
	groups, err := c.CompressMatch()
	require.NoError(t, err)

	seen := make(map[int]int)
	for root, members := range groups {
		for _, m := range members {
			if prev, dup := seen[m]; dup {
				t.Errorf("point %d appears in groups %d and %d", m, prev, root)
			}
			seen[m] = root
		}
	}
	for i := 0; i < c.NumPoints(); i++ {
		if _, ok := seen[i]; !ok {
			t.Errorf("point %d missing from partition", i)
		}
	}
}

func TestCluster_RadiusMonotonicity(t *testing.T) {
	rng := rand.New(rand.NewSource(29))
	layers := randomLayers(rng, 3, 25, 2)

	small := clusterPartition(t, layers, DefaultConfig(), 0.4, 0.3)
	large := clusterPartition(t, layers, DefaultConfig(), 0.9, 0.8)

	// Growing the radii only merges clusters: every small cluster must
	// be wholly contained in one large cluster.
	largeOf := make(map[int]int)
	for gi, g := range large {
		for _, m := range g {
			largeOf[m] = gi
		}
	}
	for _, g := range small {
		for _, m := range g[1:] {
			if largeOf[m] != largeOf[g[0]] {
				t.Errorf("cluster %v split across larger-radius clusters %d and %d", g, largeOf[g[0]], largeOf[m])
			}
		}
	}
}

func TestCluster_LayerPermutationIsomorphism(t *testing.T) {
	layers := scenarioLayers()
	perm := []Layer{layers[3], layers[1], layers[0], layers[2]}

	// Membership groupings must be identical under index relabeling.
	// Compare clusters as sets of point coordinates.
	byCoords := func(ls []Layer, partition [][]int) []string {
		var flat Layer
		for _, l := range ls {
			flat = append(flat, l...)
		}
		keys := make([]string, 0, len(partition))
		for _, g := range partition {
			coords := make([]string, len(g))
			for i, m := range g {
				coords[i] = fmt.Sprintf("%v", flat[m])
			}
			sort.Strings(coords)
			keys = append(keys, fmt.Sprintf("%v", coords))
		}
		sort.Strings(keys)
		return keys
	}

	orig := byCoords(layers, clusterPartition(t, layers, DefaultConfig(), 0.2, 0.2))
	permuted := byCoords(perm, clusterPartition(t, perm, DefaultConfig(), 0.2, 0.2))
	if diff := cmp.Diff(orig, permuted); diff != "" {
		t.Errorf("permuted layers changed cluster membership (-orig +permuted):\n%s", diff)
	}
}

func TestCluster_EmptyLayersDoNotAffectPartition(t *testing.T) {
	base := []Layer{
		{{1, 1}, {5, 5}},
		{{1.1, 1}},
	}
	padded := []Layer{
		{},
		{{1, 1}, {5, 5}},
		{},
		{{1.1, 1}},
		{},
	}
	got := clusterPartition(t, base, DefaultConfig(), 0.2, 0.2)
	want := clusterPartition(t, padded, DefaultConfig(), 0.2, 0.2)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("empty layers changed the partition (-padded +base):\n%s", diff)
	}
}

func TestCluster_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(41))
	layers := randomLayers(rng, 3, 20, 2)

	first := clusterPartition(t, layers, DefaultConfig(), 0.6, 0.6)
	for i := 0; i < 5; i++ {
		again := clusterPartition(t, layers, DefaultConfig(), 0.6, 0.6)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("run %d produced a different partition (-first +again):\n%s", i, diff)
		}
	}
}

func TestCluster_IndexVariantsAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(53))
	layers := randomLayers(rng, 4, 40, 3)

	cfg := DefaultConfig()
	cfg.Index = IndexBrute
	want := clusterPartition(t, layers, cfg, 0.7, 0.5)

	for _, kind := range []IndexKind{IndexKDTree, IndexBallTree} {
		cfg := DefaultConfig()
		cfg.Index = kind
		got := clusterPartition(t, layers, cfg, 0.7, 0.5)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%s partition differs from brute force (-brute +variant):\n%s", kind, diff)
		}
	}
}

func TestCluster_ParallelWorkersMatchSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(61))
	layers := randomLayers(rng, 5, 30, 2)

	want := clusterPartition(t, layers, DefaultConfig(), 0.6, 0.4)

	cfg := DefaultConfig()
	cfg.Workers = 4
	got := clusterPartition(t, layers, cfg, 0.6, 0.4)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parallel partition differs from sequential (-seq +par):\n%s", diff)
	}
}

// --- API behavior ---

func TestClusterAllLayers_RepeatedCallsReset(t *testing.T) {
	layers := []Layer{{{0, 0}, {0.1, 0}}}
	c, err := New(layers, DefaultConfig())
	require.NoError(t, err)

	wide, err := c.ClusterAllLayers(0.2, 0.2)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1}, {0, 1}}, wide)

	// A second call replaces, not appends: the narrow result carries no
	// trace of the wide one.
	narrow, err := c.ClusterAllLayers(0.01, 0.01)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0}, {1}}, narrow)

	groups, err := c.CompressMatch()
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0}, {1}}, canonicalPartition(groups))
}

func TestCompressMatch_BeforeClusterAllLayers(t *testing.T) {
	c, err := New([]Layer{{{0, 0}}}, DefaultConfig())
	require.NoError(t, err)

	_, err = c.CompressMatch()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "before ClusterAllLayers")
}

func TestClusterAllLayers_NegativeRadius(t *testing.T) {
	c, err := New([]Layer{{{0, 0}}}, DefaultConfig())
	require.NoError(t, err)

	_, err = c.ClusterAllLayers(-0.1, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "selfRadius")

	_, err = c.ClusterAllLayers(1, -0.1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "otherRadius")
}

func TestNew_ConfigValidation(t *testing.T) {
	layers := []Layer{{{0, 0}}}

	cfg := DefaultConfig()
	cfg.Index = IndexKind("rtree")
	_, err := New(layers, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid Index")

	cfg = DefaultConfig()
	cfg.LeafSize = -1
	_, err = New(layers, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LeafSize")

	cfg = DefaultConfig()
	cfg.Workers = -2
	_, err = New(layers, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Workers")

	cfg = DefaultConfig()
	cfg.Metric = MinkowskiMetric{P: 0.5}
	_, err = New(layers, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MinkowskiMetric")

	cfg = DefaultConfig()
	cfg.Metric = DistanceFunc(func(a, b []float64) float64 { return 0 })
	_, err = New(layers, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IndexBrute")
}

func TestNew_DimensionMismatch(t *testing.T) {
	_, err := New([]Layer{{{1, 1}}, {{1, 2, 3}}}, DefaultConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimensions")
}

func TestNew_ZeroConfigGetsDefaults(t *testing.T) {
	// A zero Config is usable; defaults fill in.
	c, err := New([]Layer{{{0, 0}, {0.1, 0}}}, Config{})
	require.NoError(t, err)

	_, err = c.ClusterAllLayers(0.2, 0.2)
	require.NoError(t, err)
	groups, err := c.CompressMatch()
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1}}, canonicalPartition(groups))
}

func TestCluster_CustomDistanceFuncWithBruteIndex(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Index = IndexBrute
	cfg.Metric = DistanceFunc(func(a, b []float64) float64 {
		d := a[0] - b[0]
		if d < 0 {
			d = -d
		}
		return d // first coordinate only
	})

	layers := []Layer{{{0, 0}, {0.1, 99}, {5, 0}}}
	got := clusterPartition(t, layers, cfg, 0.2, 0.2)
	want := [][]int{{0, 1}, {2}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("partition mismatch (-want +got):\n%s", diff)
	}
}

func TestCluster_Accessors(t *testing.T) {
	c, err := New(scenarioLayers(), DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 4, c.NumLayers())
	assert.Equal(t, 9, c.NumPoints())
	assert.Equal(t, 0, c.LayerOffset(0))
	assert.Equal(t, 3, c.LayerOffset(1))
	assert.Equal(t, 7, c.LayerOffset(2))
	assert.Equal(t, 7, c.LayerOffset(3))
}
