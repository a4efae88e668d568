// Package leadscout extracts business contact information from the web.
// Given a search phrase it obtains candidate page URLs from a listing
// collaborator, fetches each page, extracts and normalizes contact fields
// (business name, email, phone, website), and returns a deduplicated,
// ordered result set.
//
// This package contains domain types, interfaces, and the pure core logic
// (field validation and batch aggregation) following Ben Johnson's Standard
// Package Layout. Implementations live in subdirectories named after their
// primary dependency (e.g., goquery/, http/, rod/).
package leadscout
