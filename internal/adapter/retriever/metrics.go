package retriever

// Relevance metrics used by the retrieval benchmark. Items are compared by
// identity, e.g. chunk source paths.

func PrecisionAtK(retrieved, relevant []string) float64 {
	if len(retrieved) == 0 {
		return 0
	}
	relevantSet := toSet(relevant)
	hits := 0
	for _, r := range retrieved {
		if relevantSet[r] {
			hits++
		}
	}
	return float64(hits) / float64(len(retrieved))
}

func RecallAtK(retrieved, relevant []string) float64 {
	if len(relevant) == 0 {
		return 0
	}
	relevantSet := toSet(relevant)
	found := make(map[string]bool)
	for _, r := range retrieved {
		if relevantSet[r] {
			found[r] = true
		}
	}
	return float64(len(found)) / float64(len(relevantSet))
}

// ReciprocalRank is 1/rank of the first relevant item, or 0.
func ReciprocalRank(retrieved []string, relevant string) float64 {
	for i, r := range retrieved {
		if r == relevant {
			return 1.0 / float64(i+1)
		}
	}
	return 0
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[it] = true
	}
	return set
}
