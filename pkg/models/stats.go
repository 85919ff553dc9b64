package models

// GroupCount is one row of a grouped count query; the grouping column is
// selected with an AS key alias.
type GroupCount struct {
	Key   string `db:"key"`
	Count int    `db:"count"`
}

// GroupSum is one row of a grouped value-sum query
type GroupSum struct {
	Key   string  `db:"key"`
	Total float64 `db:"total"`
}

// ProposalStatusStats is the per-status slot of the composed proposal view
type ProposalStatusStats struct {
	Count      int     `json:"count"`
	TotalValue float64 `json:"total_value"`
}

// ProposalStats is the composed proposal statistics view. by_status carries a
// slot for every declared status, zero-filled for statuses with no records.
type ProposalStats struct {
	TotalCount int                            `json:"total_count"`
	TotalValue float64                        `json:"total_value"`
	ByStatus   map[string]ProposalStatusStats `json:"by_status"`
}

// BuildProposalStats composes sparse grouped counts and value sums into the
// dense statistics view. Statuses absent from both inputs appear with zeros.
func BuildProposalStats(counts map[ProposalStatus]int, totals map[ProposalStatus]float64) ProposalStats {
	stats := ProposalStats{
		ByStatus: make(map[string]ProposalStatusStats, len(ProposalStatuses())),
	}

	for _, status := range ProposalStatuses() {
		slot := ProposalStatusStats{
			Count:      counts[status],
			TotalValue: totals[status],
		}
		stats.ByStatus[string(status)] = slot
		stats.TotalCount += slot.Count
		stats.TotalValue += slot.TotalValue
	}

	return stats
}
