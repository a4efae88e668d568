package leadscout

import (
	"time"

	"github.com/cespare/xxhash/v2"
)

// Aggregate folds validated records, in order, into a deduplicated
// ResultSet. Nil entries (skipped sources) are ignored, so callers can pass
// a positional slice straight from per-source processing.
//
// Two records are duplicates when they share the same canonical email, or,
// when either record lacks an email, the same canonical phone. Records
// with neither email nor phone merge only when all four fields are equal:
// sparse name-and-website records must not be over-merged.
//
// The first-seen record keeps its position; later duplicates backfill its
// absent fields but never overwrite present ones. Output order is stable
// for identical input order.
func Aggregate(searchTerm string, records []*ContactRecord) *ResultSet {
	results := make([]*ContactRecord, 0, len(records))
	emailIdx := make(map[string]int)
	phoneIdx := make(map[string]int)
	sparseIdx := make(map[uint64]int)

	for _, rec := range records {
		if rec == nil {
			continue
		}
		if i, ok := findDuplicate(rec, results, emailIdx, phoneIdx, sparseIdx); ok {
			enrich(results[i], rec)
			// Backfilled email/phone keys join the index so later
			// records can match the merged result.
			indexKeys(results[i], i, emailIdx, phoneIdx)
			continue
		}
		cp := rec.Clone()
		i := len(results)
		results = append(results, cp)
		indexKeys(cp, i, emailIdx, phoneIdx)
		if cp.Email == nil && cp.Phone == nil {
			if _, seen := sparseIdx[fingerprint(cp)]; !seen {
				sparseIdx[fingerprint(cp)] = i
			}
		}
	}

	return &ResultSet{
		SearchTerm:  searchTerm,
		Results:     results,
		Count:       len(results),
		GeneratedAt: time.Now().UTC(),
	}
}

// findDuplicate locates the first-seen record the incoming one duplicates,
// if any.
func findDuplicate(rec *ContactRecord, results []*ContactRecord, emailIdx, phoneIdx map[string]int, sparseIdx map[uint64]int) (int, bool) {
	if rec.Email != nil {
		if i, ok := emailIdx[*rec.Email]; ok {
			return i, true
		}
	}
	if rec.Phone != nil {
		// Phone equivalence applies only when either record lacks an
		// email; two records with different emails stay distinct.
		if i, ok := phoneIdx[*rec.Phone]; ok && (rec.Email == nil || results[i].Email == nil) {
			return i, true
		}
	}
	if rec.Email == nil && rec.Phone == nil {
		if i, ok := sparseIdx[fingerprint(rec)]; ok && sameFields(results[i], rec) {
			return i, true
		}
	}
	return 0, false
}

// enrich backfills fields absent in the kept record from the duplicate.
// Present fields are never overwritten.
func enrich(kept, dup *ContactRecord) {
	if kept.BusinessName == nil {
		kept.BusinessName = dup.BusinessName
	}
	if kept.Email == nil {
		kept.Email = dup.Email
	}
	if kept.Phone == nil {
		kept.Phone = dup.Phone
	}
	if kept.Website == nil {
		kept.Website = dup.Website
	}
}

// indexKeys records the email and phone keys of the record at index i,
// keeping the earliest index per key (first-seen policy).
func indexKeys(rec *ContactRecord, i int, emailIdx, phoneIdx map[string]int) {
	if rec.Email != nil {
		if _, ok := emailIdx[*rec.Email]; !ok {
			emailIdx[*rec.Email] = i
		}
	}
	if rec.Phone != nil {
		if _, ok := phoneIdx[*rec.Phone]; !ok {
			phoneIdx[*rec.Phone] = i
		}
	}
}

// fingerprint hashes the four contact fields with presence markers, used as
// the exact-equality dedup key for records lacking both email and phone.
func fingerprint(rec *ContactRecord) uint64 {
	h := xxhash.New()
	for _, f := range []*string{rec.BusinessName, rec.Email, rec.Phone, rec.Website} {
		if f != nil {
			_, _ = h.Write([]byte{1})
			_, _ = h.WriteString(*f)
		}
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

func sameFields(a, b *ContactRecord) bool {
	return eqPtr(a.BusinessName, b.BusinessName) &&
		eqPtr(a.Email, b.Email) &&
		eqPtr(a.Phone, b.Phone) &&
		eqPtr(a.Website, b.Website)
}

func eqPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
