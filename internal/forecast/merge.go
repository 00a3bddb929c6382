package forecast

import "sort"

// Merge combines previously stored records with a freshly normalized batch
// into one key-unique set. Existing records are applied first and the batch
// second, in order, so for any duplicate (location, forecast time) slot the
// batch wins over the store and a later batch entry wins over an earlier
// one. The result is sorted ascending by (location, forecast time).
//
// Merge is pure; callers decide whether and where to persist the result.
func Merge(existing, batch []Record) []Record {
	merged := make(map[slotKey]Record, len(existing)+len(batch))
	for _, r := range existing {
		merged[r.key()] = r
	}
	for _, r := range batch {
		merged[r.key()] = r
	}

	out := make([]Record, 0, len(merged))
	for _, r := range merged {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Location != out[j].Location {
			return out[i].Location < out[j].Location
		}
		return out[i].ForecastTime.Before(out[j].ForecastTime)
	})
	return out
}
