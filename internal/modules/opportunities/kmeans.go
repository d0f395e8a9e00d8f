package opportunities

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Clustering defaults.
const (
	DefaultClusters = 3
	DefaultSeed     = 42
	defaultRestarts = 10
	defaultMaxIter  = 300
)

var (
	// ErrTooFewSamples is returned when there are fewer samples than clusters.
	ErrTooFewSamples = errors.New("too few companies to cluster")
	// ErrDegenerate is returned when the samples hold fewer distinct points than clusters.
	ErrDegenerate = errors.New("not enough distinct companies to cluster")
)

// Clusterer partitions the rows of a matrix and returns a label per row.
type Clusterer interface {
	Cluster(x *mat.Dense) ([]int, error)
}

// KMeans is Lloyd's algorithm with k-means++ seeding. Several seeded restarts are run
// and the partition with the lowest inertia wins, so results depend only on Seed.
type KMeans struct {
	K        int
	Seed     uint64
	Restarts int
	MaxIter  int
}

// NewKMeans returns a three-cluster k-means with the fixed default seed.
func NewKMeans() KMeans {
	return KMeans{
		K:        DefaultClusters,
		Seed:     DefaultSeed,
		Restarts: defaultRestarts,
		MaxIter:  defaultMaxIter,
	}
}

// Cluster assigns every row to one of K clusters. Labels are numbered by first
// appearance so the first row is always in cluster 0.
func (km KMeans) Cluster(x *mat.Dense) ([]int, error) {
	if km.K <= 0 {
		return nil, fmt.Errorf("invalid cluster count %d", km.K)
	}
	if x == nil || x.IsEmpty() {
		return nil, ErrTooFewSamples
	}

	rows, _ := x.Dims()
	if rows < km.K {
		return nil, fmt.Errorf("%w: %d companies, %d clusters", ErrTooFewSamples, rows, km.K)
	}

	points := make([][]float64, rows)
	for i := range points {
		points[i] = mat.Row(nil, i, x)
	}
	if distinctPoints(points, km.K) < km.K {
		return nil, ErrDegenerate
	}

	restarts := max(km.Restarts, 1)
	maxIter := max(km.MaxIter, 1)
	rng := rand.New(rand.NewPCG(km.Seed, km.Seed))

	var best []int
	bestInertia := math.Inf(1)
	for r := 0; r < restarts; r++ {
		labels, inertia := lloyd(points, seedCentroids(points, km.K, rng), maxIter)
		if inertia < bestInertia {
			best, bestInertia = labels, inertia
		}
	}

	return relabel(best), nil
}

// distinctPoints counts distinct rows, stopping once limit is reached.
func distinctPoints(points [][]float64, limit int) int {
	var seen [][]float64
	for _, p := range points {
		dup := false
		for _, s := range seen {
			if floats.Equal(p, s) {
				dup = true
				break
			}
		}
		if !dup {
			seen = append(seen, p)
			if len(seen) >= limit {
				break
			}
		}
	}
	return len(seen)
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

// seedCentroids picks k starting centroids with k-means++ sampling.
func seedCentroids(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(points[rng.IntN(len(points))]))

	dist := make([]float64, len(points))
	for len(centroids) < k {
		total := 0.0
		for i, p := range points {
			dist[i] = math.Inf(1)
			for _, c := range centroids {
				dist[i] = math.Min(dist[i], sqDist(p, c))
			}
			total += dist[i]
		}

		next := len(points) - 1
		target := rng.Float64() * total
		for i, d := range dist {
			target -= d
			if target < 0 && d > 0 {
				next = i
				break
			}
		}
		centroids = append(centroids, clone(points[next]))
	}
	return centroids
}

// lloyd iterates assignment and update steps until labels stop changing.
func lloyd(points [][]float64, centroids [][]float64, maxIter int) ([]int, float64) {
	k := len(centroids)
	dims := len(points[0])
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, p := range points {
			nearest := nearestCentroid(p, centroids)
			if nearest != labels[i] {
				labels[i] = nearest
				changed = true
			}
		}
		if !changed {
			break
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dims)
		}
		for i, p := range points {
			floats.Add(sums[labels[i]], p)
			counts[labels[i]]++
		}
		for c := range centroids {
			if counts[c] == 0 {
				// Re-seed an empty cluster with the point farthest from its centroid.
				far := farthestPoint(points, labels, centroids)
				centroids[c] = clone(points[far])
				labels[far] = c
				continue
			}
			floats.Scale(1/float64(counts[c]), sums[c])
			centroids[c] = sums[c]
		}
	}

	inertia := 0.0
	for i, p := range points {
		inertia += sqDist(p, centroids[labels[i]])
	}
	return labels, inertia
}

func nearestCentroid(p []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := sqDist(p, centroid); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func farthestPoint(points [][]float64, labels []int, centroids [][]float64) int {
	far, farDist := 0, -1.0
	for i, p := range points {
		if d := sqDist(p, centroids[labels[i]]); d > farDist {
			far, farDist = i, d
		}
	}
	return far
}

// relabel renumbers labels in order of first appearance.
func relabel(labels []int) []int {
	mapping := make(map[int]int)
	out := make([]int, len(labels))
	for i, l := range labels {
		id, ok := mapping[l]
		if !ok {
			id = len(mapping)
			mapping[l] = id
		}
		out[i] = id
	}
	return out
}

func clone(p []float64) []float64 {
	out := make([]float64, len(p))
	copy(out, p)
	return out
}
