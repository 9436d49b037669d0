package intake

// SummaryMerger folds verification results into per-slot status.
// Merge never patches earlier output: every call rebuilds the whole map
// from its inputs, so results that arrive out of order or are re-sent in
// part leave no stale decoration behind.
type SummaryMerger struct{}

// NewSummaryMerger creates a merger
func NewSummaryMerger() *SummaryMerger {
	return &SummaryMerger{}
}

// Merge maps each live ordinal to pass or warning.
// The first result whose ordinal matches wins; ordinals without a result pass.
func (m *SummaryMerger) Merge(results []ValidationResult, slotCount int) map[int]SlotStatus {
	statuses := make(map[int]SlotStatus, slotCount)
	// ordinal slotCount+1 is the add-control row, which has nothing to decorate
	for i := 1; i <= slotCount; i++ {
		statuses[i] = statusFor(results, i)
	}
	return statuses
}

func statusFor(results []ValidationResult, ordinal int) SlotStatus {
	for _, r := range results {
		if r.Code == "" || r.Ordinal() != ordinal {
			continue
		}
		return SlotStatus{
			Status:            StatusWarning,
			Message:           r.Message,
			PasswordIncorrect: r.Message == InvalidPasswordMessage,
		}
	}
	return SlotStatus{Status: StatusPass}
}

// AnyWarning reports whether a merged map blocks submission
func AnyWarning(statuses map[int]SlotStatus) bool {
	for _, st := range statuses {
		if st.Status == StatusWarning {
			return true
		}
	}
	return false
}
