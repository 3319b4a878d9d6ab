package analytics

import "fmt"

// SimilarRange is the score distance within which peers count as similar.
const SimilarRange = 20

// Bucket is a fixed score range and how many peers fall in it.
type Bucket struct {
	Label string `json:"label"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Count int    `json:"count"`
}

// PeerComparison places a learner within the peer population.
type PeerComparison struct {
	Score         int      `json:"score"`
	Percentile    float64  `json:"percentile"`
	Population    int      `json:"population"`
	Similar       int      `json:"similar"`
	Buckets       []Bucket `json:"buckets"`
	LowConfidence bool     `json:"low_confidence"`
}

// Buckets returns the five fixed score ranges, empty.
func Buckets() []Bucket {
	ranges := [][2]int{{0, 199}, {200, 299}, {300, 399}, {400, 499}, {500, 600}}
	out := make([]Bucket, len(ranges))
	for i, r := range ranges {
		out[i] = Bucket{Label: fmt.Sprintf("%d-%d", r[0], r[1]), Min: r[0], Max: r[1]}
	}
	return out
}

// ComparePeers computes the share of other learners scoring strictly below
// score. With no peers the percentile is 50 and the result is low confidence.
func ComparePeers(score int, others []int) PeerComparison {
	pc := PeerComparison{
		Score:      score,
		Population: len(others),
		Buckets:    Buckets(),
	}
	if len(others) == 0 {
		pc.Percentile = 50
		pc.LowConfidence = true
		return pc
	}

	below := 0
	for _, o := range others {
		if o < score {
			below++
		}
		if abs(o-score) <= SimilarRange {
			pc.Similar++
		}
		for i := range pc.Buckets {
			if o >= pc.Buckets[i].Min && o <= pc.Buckets[i].Max {
				pc.Buckets[i].Count++
				break
			}
		}
	}
	pc.Percentile = float64(below) / float64(len(others)) * 100
	return pc
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
