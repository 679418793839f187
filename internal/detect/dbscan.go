package detect

import "math"

// noiseLabel marks points that belong to no cluster.
const noiseLabel = -1

// dbscan assigns a cluster label to every point. Points within eps of a
// point that has at least minPts neighbors (itself included) join that
// point's cluster; unreachable points are labeled noise.
//
// The implementation is the textbook seed-expansion variant, iterating
// points in index order so labeling is deterministic for a given input
// order. With minPts=1 every point seeds its own cluster and no point is
// ever noise.
func dbscan(points [][2]float64, eps float64, minPts int) []int {
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = noiseLabel
	}

	cluster := 0
	for i := range points {
		if labels[i] != noiseLabel {
			continue
		}

		neighbors := rangeQuery(points, i, eps)
		if len(neighbors) < minPts {
			continue
		}

		labels[i] = cluster
		queue := append([]int(nil), neighbors...)
		for len(queue) > 0 {
			j := queue[0]
			queue = queue[1:]
			if labels[j] != noiseLabel {
				continue
			}
			labels[j] = cluster

			expanded := rangeQuery(points, j, eps)
			if len(expanded) >= minPts {
				queue = append(queue, expanded...)
			}
		}
		cluster++
	}
	return labels
}

// rangeQuery returns the indices of all points within eps of points[i].
// The point itself is included, matching the usual minPts definition.
func rangeQuery(points [][2]float64, i int, eps float64) []int {
	var neighbors []int
	for j := range points {
		dx := points[i][0] - points[j][0]
		dy := points[i][1] - points[j][1]
		if math.Sqrt(dx*dx+dy*dy) <= eps {
			neighbors = append(neighbors, j)
		}
	}
	return neighbors
}
