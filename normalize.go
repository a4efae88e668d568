package leadscout

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	// emailRe matches an ASCII email: alphanumerics plus ._%+- in the
	// local part, dot-separated domain labels, final label letters only
	// and at least two characters long.
	emailRe = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9-]+(?:\.[A-Za-z0-9-]+)*\.[A-Za-z]{2,}$`)

	nonDigitRe = regexp.MustCompile(`\D`)
)

// ValidateEmail reports whether raw is a syntactically valid email address
// and returns its canonical form. The entire address is lowercased: local
// parts are case-sensitive in theory, but lowercasing is a deliberate
// simplification so deduplication is case-insensitive.
func ValidateEmail(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || !emailRe.MatchString(s) {
		return "", false
	}
	local, _, _ := strings.Cut(s, "@")
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") || strings.Contains(local, "..") {
		return "", false
	}
	return strings.ToLower(s), true
}

// ValidatePhone reports whether raw contains a plausible phone number and
// returns its canonical form: bare digits with no separators, between 7 and
// 15 digits (E.164-range tolerance). A + prefix is kept only when the input
// carried one; a bare country code is never promoted to +, so "919876543210"
// and "+919876543210" are distinct canonical values.
func ValidatePhone(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	digits := nonDigitRe.ReplaceAllString(s, "")
	if len(digits) < 7 || len(digits) > 15 {
		return "", false
	}
	if strings.HasPrefix(s, "+") {
		return "+" + digits, true
	}
	return digits, true
}

// ValidateWebsite reports whether raw is a usable website URL and returns
// its canonical form: https scheme assumed when missing, scheme and host
// lowercased, default ports dropped, trailing slash stripped from bare-root
// URLs. The host must contain at least one dot.
func ValidateWebsite(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if !strings.Contains(host, ".") {
		return "", false
	}
	if port := u.Port(); port != "" &&
		!(u.Scheme == "http" && port == "80") &&
		!(u.Scheme == "https" && port == "443") {
		host += ":" + port
	}
	u.Host = host
	if u.Path == "/" {
		u.Path = ""
	}
	return u.String(), true
}

// CleanName trims surrounding whitespace and collapses internal whitespace
// runs to single spaces.
func CleanName(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// NormalizeRecord validates each field of a candidate and returns the
// canonical record. Rejected fields become absent; that is not an error.
// If no field among name, email, phone, and website survives, the record
// carries no information and EINVALID is returned so the caller skips the
// page instead of accumulating an empty record.
func NormalizeRecord(c *ContactCandidate) (*ContactRecord, error) {
	rec := &ContactRecord{SourceURL: c.SourceURL}
	if c.BusinessName != nil {
		if name := CleanName(*c.BusinessName); name != "" {
			rec.BusinessName = &name
		}
	}
	if c.Email != nil {
		if v, ok := ValidateEmail(*c.Email); ok {
			rec.Email = &v
		}
	}
	if c.Phone != nil {
		if v, ok := ValidatePhone(*c.Phone); ok {
			rec.Phone = &v
		}
	}
	if c.Website != nil {
		if v, ok := ValidateWebsite(*c.Website); ok {
			rec.Website = &v
		}
	}
	if !rec.HasContact() {
		return nil, Errorf(EINVALID, "no usable contact fields for %s", c.SourceURL)
	}
	return rec, nil
}
