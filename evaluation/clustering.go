package evaluation

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/combin"

	"github.com/jambit/sensAI/cluster"
	"github.com/jambit/sensAI/geom"
	"github.com/jambit/sensAI/internal/matching"
	"github.com/jambit/sensAI/tracking"
)

// SilhouetteExactLimit is the point count up to which the silhouette
// coefficient is computed exactly; larger inputs are sampled.
const SilhouetteExactLimit = 2000

// ClusterEvaluator scores a clustering model against this evaluator's
// dataset. Both the supervised and the unsupervised evaluator implement it,
// so parameter sweeps can drive either.
type ClusterEvaluator interface {
	Evaluate(m *cluster.Model) (map[string]float64, error)
	Name() string
}

// ClusteringUnsupervisedEvaluator fits a clustering model on a fixed point
// set and computes internal quality metrics: cluster count, noise fraction,
// mean cluster size, silhouette coefficient and Davies-Bouldin index.
type ClusteringUnsupervisedEvaluator struct {
	tracking.Mixin

	points []geom.Point
	seed   int64
}

var _ ClusterEvaluator = (*ClusteringUnsupervisedEvaluator)(nil)

// NewClusteringUnsupervisedEvaluator builds an evaluator over the points.
// The seed drives silhouette sampling on large inputs.
func NewClusteringUnsupervisedEvaluator(points []geom.Point, seed int64) *ClusteringUnsupervisedEvaluator {
	return &ClusteringUnsupervisedEvaluator{points: points, seed: seed}
}

// Name implements ClusterEvaluator.
func (e *ClusteringUnsupervisedEvaluator) Name() string { return "unsupervised" }

// Evaluate implements ClusterEvaluator.
func (e *ClusteringUnsupervisedEvaluator) Evaluate(m *cluster.Model) (map[string]float64, error) {
	if err := m.FitPoints(e.points); err != nil {
		return nil, fmt.Errorf("evaluation: clustering: %w", err)
	}

	labels := m.Labels()
	n := len(labels)
	metrics := map[string]float64{
		"numClusters":   float64(m.NumClusters()),
		"noiseFraction": 0,
		"meanClusterSize": func() float64 {
			if m.NumClusters() == 0 {
				return 0
			}
			return float64(n-m.NoiseCount()) / float64(m.NumClusters())
		}(),
	}
	if n > 0 {
		metrics["noiseFraction"] = float64(m.NoiseCount()) / float64(n)
	}

	metrics["silhouette"] = silhouette(e.points, labels, e.seed)
	metrics["daviesBouldin"] = daviesBouldin(m.Clusters())

	e.Track(metrics, tracking.WithContextValues(map[string]string{"algorithm": m.Name()}))
	return metrics, nil
}

// ClusteringSupervisedEvaluator fits a clustering model and scores it
// against ground-truth polygon annotations: true labels come from polygon
// membership, yielding adjusted Rand index, normalized mutual information
// and a matched precision/recall/F1 where predicted clusters are paired
// with regions by minimum-cost centroid matching.
type ClusteringSupervisedEvaluator struct {
	tracking.Mixin

	points []geom.Point
	truth  *geom.GroundTruth
	seed   int64
}

var _ ClusterEvaluator = (*ClusteringSupervisedEvaluator)(nil)

// NewClusteringSupervisedEvaluator builds an evaluator over points with
// ground-truth annotations.
func NewClusteringSupervisedEvaluator(points []geom.Point, truth *geom.GroundTruth, seed int64) (*ClusteringSupervisedEvaluator, error) {
	if truth == nil || len(truth.Regions) == 0 {
		return nil, fmt.Errorf("evaluation: ground truth with at least one region required")
	}
	return &ClusteringSupervisedEvaluator{points: points, truth: truth, seed: seed}, nil
}

// Name implements ClusterEvaluator.
func (e *ClusteringSupervisedEvaluator) Name() string { return "supervised" }

// Evaluate implements ClusterEvaluator.
func (e *ClusteringSupervisedEvaluator) Evaluate(m *cluster.Model) (map[string]float64, error) {
	if err := m.FitPoints(e.points); err != nil {
		return nil, fmt.Errorf("evaluation: clustering: %w", err)
	}

	predicted := m.Labels()
	actual := e.truth.Labels(e.points)

	metrics := map[string]float64{
		"numClusters":  float64(m.NumClusters()),
		"adjustedRand": adjustedRandIndex(actual, predicted),
		"normalizedMI": normalizedMutualInformation(actual, predicted),
	}

	precision, recall, f1 := matchedPRF(m.Clusters(), e.truth)
	metrics["matchedPrecision"] = precision
	metrics["matchedRecall"] = recall
	metrics["matchedF1"] = f1

	e.Track(metrics, tracking.WithContextValues(map[string]string{"algorithm": m.Name()}))
	return metrics, nil
}

// matchedPRF assigns predicted clusters to ground-truth regions by
// Hungarian minimum-cost matching on centroid distance. A pairing counts as
// a hit when the cluster centroid falls inside the matched region.
func matchedPRF(clusters []cluster.Summary, truth *geom.GroundTruth) (precision, recall, f1 float64) {
	if len(clusters) == 0 || len(truth.Regions) == 0 {
		return 0, 0, 0
	}

	cost := make([][]float64, len(clusters))
	for i, c := range clusters {
		cost[i] = make([]float64, len(truth.Regions))
		for j, r := range truth.Regions {
			cost[i][j] = geom.Dist(c.Centroid, r.Polygon.Centroid())
		}
	}

	assignment := matching.Assign(cost)
	hits := 0
	for i, j := range assignment {
		if j < 0 {
			continue
		}
		if truth.Regions[j].Polygon.Contains(clusters[i].Centroid) {
			hits++
		}
	}

	precision = float64(hits) / float64(len(clusters))
	recall = float64(hits) / float64(len(truth.Regions))
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return precision, recall, f1
}

// silhouette returns the mean silhouette coefficient over clustered
// points. Noise points are excluded. For inputs beyond
// SilhouetteExactLimit, a seeded sample of that size is scored instead.
func silhouette(points []geom.Point, labels []int, seed int64) float64 {
	var members []int
	for i, l := range labels {
		if l != cluster.Noise {
			members = append(members, i)
		}
	}
	if len(members) < 2 {
		return 0
	}

	scored := members
	if len(members) > SilhouetteExactLimit {
		rng := rand.New(rand.NewSource(seed))
		rng.Shuffle(len(members), func(i, j int) {
			members[i], members[j] = members[j], members[i]
		})
		scored = members[:SilhouetteExactLimit]
	}

	// Count members per label for mean-distance denominators.
	counts := make(map[int]int)
	for _, i := range members {
		counts[labels[i]]++
	}
	if len(counts) < 2 {
		return 0 // silhouette undefined for a single cluster
	}

	var total float64
	n := 0
	for _, i := range scored {
		own := labels[i]
		if counts[own] < 2 {
			continue // lone members have no intra-cluster distance
		}

		sums := make(map[int]float64)
		for _, j := range members {
			if i == j {
				continue
			}
			sums[labels[j]] += geom.Dist(points[i], points[j])
		}

		a := sums[own] / float64(counts[own]-1)
		b := math.Inf(1)
		for label, sum := range sums {
			if label == own {
				continue
			}
			if mean := sum / float64(counts[label]); mean < b {
				b = mean
			}
		}

		if max := math.Max(a, b); max > 0 {
			total += (b - a) / max
			n++
		}
	}

	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// daviesBouldin returns the Davies-Bouldin index over the cluster
// summaries, using the p95 radius as the cluster scatter. Lower is better;
// zero for fewer than two clusters. Coincident centroids make the pair
// ratio unbounded, so the index is +Inf when any two clusters share a
// centroid.
func daviesBouldin(clusters []cluster.Summary) float64 {
	k := len(clusters)
	if k < 2 {
		return 0
	}

	var sum float64
	for i := 0; i < k; i++ {
		worst := 0.0
		for j := 0; j < k; j++ {
			if i == j {
				continue
			}
			d := geom.Dist(clusters[i].Centroid, clusters[j].Centroid)
			var r float64
			if d == 0 {
				r = math.Inf(1)
			} else {
				r = (clusters[i].RadiusP95 + clusters[j].RadiusP95) / d
			}
			if r > worst {
				worst = r
			}
		}
		sum += worst
	}
	return sum / float64(k)
}

// adjustedRandIndex compares two labelings by pair counting, corrected for
// chance. Noise labels (-1) are treated as a cluster of their own.
func adjustedRandIndex(actual, predicted []int) float64 {
	n := len(actual)
	if n < 2 {
		return 0
	}

	contingency, rowSums, colSums := contingencyTable(actual, predicted)

	var sumComb, sumRowComb, sumColComb float64
	for _, row := range contingency {
		for _, c := range row {
			sumComb += binom2(c)
		}
	}
	for _, c := range rowSums {
		sumRowComb += binom2(c)
	}
	for _, c := range colSums {
		sumColComb += binom2(c)
	}

	totalComb := binom2(n)
	expected := sumRowComb * sumColComb / totalComb
	maxIndex := (sumRowComb + sumColComb) / 2

	if maxIndex == expected {
		return 0
	}
	return (sumComb - expected) / (maxIndex - expected)
}

// normalizedMutualInformation compares two labelings by mutual information
// normalized with the geometric mean of the label entropies.
func normalizedMutualInformation(actual, predicted []int) float64 {
	n := float64(len(actual))
	if n == 0 {
		return 0
	}

	contingency, rowSums, colSums := contingencyTable(actual, predicted)

	var mi float64
	for a, row := range contingency {
		for p, c := range row {
			if c == 0 {
				continue
			}
			pJoint := float64(c) / n
			pA := float64(rowSums[a]) / n
			pP := float64(colSums[p]) / n
			mi += pJoint * math.Log(pJoint/(pA*pP))
		}
	}

	hA := entropy(rowSums, n)
	hP := entropy(colSums, n)
	if hA == 0 || hP == 0 {
		return 0
	}
	return mi / math.Sqrt(hA*hP)
}

func contingencyTable(actual, predicted []int) (table map[int]map[int]int, rowSums, colSums map[int]int) {
	table = make(map[int]map[int]int)
	rowSums = make(map[int]int)
	colSums = make(map[int]int)
	for i := range actual {
		a, p := actual[i], predicted[i]
		if table[a] == nil {
			table[a] = make(map[int]int)
		}
		table[a][p]++
		rowSums[a]++
		colSums[p]++
	}
	return table, rowSums, colSums
}

func entropy(counts map[int]int, n float64) float64 {
	var h float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		h -= p * math.Log(p)
	}
	return h
}

// binom2 is n choose 2 as a float.
func binom2(n int) float64 {
	if n < 2 {
		return 0
	}
	return float64(combin.Binomial(n, 2))
}
