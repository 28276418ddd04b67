package loader

import "github.com/Sternrassler/feedloader/pkg/pagination"

// merge folds incoming into the accumulated records. A refresh replaces the
// list; otherwise records whose ID is already held are skipped. Accepted
// records keep their arrival order after the existing ones, and the self
// record is kept at index 0. The self ID is always reserved, so a source
// record carrying it is treated as a duplicate.
//
// Callers must hold l.mu.
func (l *Loader) merge(isRefresh bool, incoming []pagination.Record) {
	if l.merging {
		MergesDropped.Inc()
		l.logger.Warn().
			Int("incoming", len(incoming)).
			Bool("refresh", isRefresh).
			Msg("Merge already running, incoming page dropped")
		return
	}
	l.merging = true
	defer func() { l.merging = false }()

	if isRefresh {
		l.records = l.records[:0]
		clear(l.seen)
		l.seen[l.self.ID] = struct{}{}
	}

	dropped := 0
	for _, r := range incoming {
		if _, dup := l.seen[r.ID]; dup {
			dropped++
			continue
		}
		l.seen[r.ID] = struct{}{}
		l.records = append(l.records, r)
	}
	if dropped > 0 {
		DuplicatesDropped.Add(float64(dropped))
		l.logger.Debug().Int("duplicates", dropped).Msg("Dropped duplicate records")
	}

	l.ensureSelf()
	RecordsHeld.Set(float64(len(l.records)))
}

// ensureSelf puts the self record at the head of the list.
func (l *Loader) ensureSelf() {
	switch {
	case len(l.records) == 0:
		l.records = append(l.records, l.self)
	case !l.records[0].IsSelf():
		l.records = append(l.records, pagination.Record{})
		copy(l.records[1:], l.records)
		l.records[0] = l.self
	}
}
