package leadscout

import "time"

// CandidateSource is one discovered location to scrape, supplied by the
// listing collaborator for a search term. Sources are transient: consumed
// once by the pipeline and not retained afterward.
type CandidateSource struct {
	URL        string `json:"url"`
	SearchTerm string `json:"searchTerm"`
}

// Validate returns an error if the source contains invalid fields.
func (s *CandidateSource) Validate() error {
	if s.URL == "" {
		return Errorf(EINVALID, "source URL required")
	}
	return nil
}

// RawPage holds the fetched markup for one candidate source. Pages are
// consumed by extraction and discarded; they are never cached.
type RawPage struct {
	URL  string
	HTML string
}

// ContactCandidate is the unvalidated extraction output for one page.
// Any field other than SourceURL may be absent. Absence is nil, never a
// sentinel value like "N/A".
type ContactCandidate struct {
	BusinessName *string
	Email        *string
	Phone        *string
	Website      *string
	SourceURL    string
}

// ContactRecord is a validated, canonicalized ContactCandidate: every
// present field has passed validation (email lowercased, phone reduced to
// digits, website with scheme). A record with none of the four contact
// fields present carries no information; NormalizeRecord never constructs
// one.
type ContactRecord struct {
	BusinessName *string `json:"business_name"`
	Email        *string `json:"email"`
	Phone        *string `json:"phone"`
	Website      *string `json:"website"`
	SourceURL    string  `json:"source_url"`
}

// HasContact reports whether any of the name, email, phone, or website
// fields is present.
func (r *ContactRecord) HasContact() bool {
	return r.BusinessName != nil || r.Email != nil || r.Phone != nil || r.Website != nil
}

// Clone returns a copy of the record. Field pointers are shared; the
// pointed-to strings are never mutated.
func (r *ContactRecord) Clone() *ContactRecord {
	cp := *r
	return &cp
}

// ResultSet is the final deduplicated output for one search. Results keep
// first-seen order and Count always equals len(Results). A ResultSet lives
// for one search invocation only.
type ResultSet struct {
	SearchTerm  string           `json:"search_term"`
	Results     []*ContactRecord `json:"results"`
	Count       int              `json:"count"`
	GeneratedAt time.Time        `json:"generated_at"`
}
