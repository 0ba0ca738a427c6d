package tracker

// MergeResult is the outcome of merging fetched names into a dataset.
type MergeResult struct {
	// existing rows in their original order followed by Appended
	Dataset  Dataset
	Appended []Record
}

func (r MergeResult) UpToDate() bool {
	return len(r.Appended) == 0
}

// Merge appends a default-valued Record for every fetched name that the
// existing dataset does not already contain. Existing records are never
// modified or reordered, new ones follow in fetch order. Names are compared
// byte for byte, empty names are dropped and a name repeated within
// `names` is appended once.
func Merge(existing Dataset, names []string, defaultStatus Status) MergeResult {
	seen := existing.Names()

	var appended []Record
	for _, name := range names {
		if name == "" {
			continue
		}
		_, ok := seen[name]
		if ok {
			continue
		}
		seen[name] = struct{}{}
		appended = append(appended, NewRecord(name, defaultStatus))
	}

	merged := make(Dataset, 0, len(existing)+len(appended))
	merged = append(merged, existing...)
	merged = append(merged, appended...)

	return MergeResult{
		Dataset:  merged,
		Appended: appended,
	}
}
