package shroud

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// CountryPattern is one catalog entry for a national identifier format:
// the validation pattern plus the default visible window and mask glyph
// applied when masking an identifier of that country.
type CountryPattern struct {
	Code      string // ISO 3166-1 alpha-2 country code
	Pattern   *regexp.Regexp
	KeepFirst int
	KeepLast  int
	Glyph     rune
}

// MatchLimit bounds every single pattern test. Go's regexp is linear-time
// (RE2), so in practice the limit never trips, but the bound is part of
// the contract: detection treats a timeout as "no match", an explicit
// match surfaces ErrMatchTimeout as a recoverable error.
const MatchLimit = 100 * time.Millisecond

// countryPatterns is the process-wide read-only identifier catalog,
// compiled once at init. Patterns are anchored and tested against the
// input with spaces and dashes removed.
var countryPatterns = buildCountryPatterns()

// countryOrder fixes auto-detection order. First match wins; several
// countries' purely numeric patterns overlap on short digit strings
// (e.g. an 11-digit string matches DE before HR), so this order is part
// of observable behavior and must not be resorted.
var countryOrder = []string{
	"AR", "AT", "AU", "BA", "BE", "BG", "BO", "BR", "BY", "CA",
	"CH", "CL", "CN", "CO", "CR", "CY", "CZ", "DE", "DK", "DO",
	"DZ", "EC", "EE", "EG", "ES", "FI", "FR", "GB", "GE", "GH",
	"GR", "GT", "HK", "HN", "HR", "HU", "ID", "IE", "IL", "IN",
	"IS", "IT", "JM", "JO", "JP", "KE", "KR", "KW", "KZ", "LB",
	"LK", "LT", "LU", "LV", "MA", "MD", "ME", "MK", "MT", "MX",
	"MY", "NG", "NI", "NL", "NO", "NP", "NZ", "PA", "PE", "PH",
	"PK", "PL", "PT", "PY", "QA", "RO", "RS", "RU", "SA", "SE",
	"SG", "SI", "SK", "SV", "TH", "TN", "TR", "TW", "UA", "US",
	"UY", "UZ", "VE", "VN", "ZA", "ZM", "ZW", "AE", "AL", "AM",
	"AZ", "BD",
}

// buildCountryPatterns compiles the identifier catalog.
func buildCountryPatterns() map[string]CountryPattern {
	spec := []struct {
		code      string
		pattern   string
		keepFirst int
		keepLast  int
	}{
		{"AE", `^784\d{12}$`, 3, 2},
		{"AL", `^[A-Z]\d{8}[A-Z]$`, 1, 1},
		{"AM", `^\d{10}$`, 0, 2},
		{"AR", `^\d{2}\d{8}\d$`, 2, 1},
		{"AT", `^\d{10}$`, 0, 2},
		{"AU", `^\d{9}$`, 0, 2},
		{"AZ", `^[A-Z0-9]{7}$`, 1, 1},
		{"BA", `^\d{13}$`, 0, 2},
		{"BD", `^\d{10}(\d{3}|\d{7})?$`, 0, 2},
		{"BE", `^\d{2}(0[1-9]|1[0-2])([0-2]\d|3[01])\d{3}\d{2}$`, 2, 2},
		{"BG", `^\d{10}$`, 0, 2},
		{"BO", `^\d{7,8}$`, 0, 2},
		{"BR", `^\d{3}\d{3}\d{3}\d{2}$`, 0, 2},
		{"BY", `^\d{7}[A-Z]\d{3}[A-Z]{2}\d$`, 1, 1},
		{"CA", `^\d{3}\d{3}\d{3}$`, 0, 3},
		{"CH", `^756\d{10}$`, 3, 2},
		{"CL", `^\d{7,8}[0-9K]$`, 0, 1},
		{"CN", `^\d{17}[0-9X]$`, 2, 2},
		{"CO", `^\d{6,10}$`, 0, 2},
		{"CR", `^\d{9}$`, 0, 2},
		{"CY", `^\d{8}[A-Z]$`, 0, 1},
		{"CZ", `^\d{6}\d{3,4}$`, 0, 2},
		{"DE", `^\d{11}$`, 0, 2},
		{"DK", `^\d{6}\d{4}$`, 0, 2},
		{"DO", `^\d{11}$`, 0, 2},
		{"DZ", `^\d{12}$`, 0, 2},
		{"EC", `^\d{10}$`, 0, 2},
		{"EE", `^[1-6]\d{2}(0[1-9]|1[0-2])([0-2]\d|3[01])\d{4}$`, 1, 2},
		{"EG", `^[23]\d{13}$`, 1, 2},
		{"ES", `^\d{8}[A-HJ-NP-TV-Z]$`, 0, 1},
		{"FI", `^\d{6}[+A]?\d{3}[0-9A-Y]$`, 0, 2},
		{"FR", `^[12]\d{2}(0[1-9]|1[0-2])\d{2}\d{3}\d{3}\d{2}$`, 1, 2},
		{"GB", `^[A-CEGHJ-PR-TW-Z]{2}\d{6}[A-D]$`, 2, 1},
		{"GE", `^\d{11}$`, 0, 2},
		{"GH", `^GHA\d{9}\d$`, 3, 2},
		{"GR", `^\d{11}$`, 0, 2},
		{"GT", `^\d{8,13}$`, 0, 2},
		{"HK", `^[A-Z]{1,2}\d{6}[0-9A]$`, 1, 1},
		{"HN", `^\d{13}$`, 0, 2},
		{"HR", `^\d{11}$`, 0, 2},
		{"HU", `^[1-8]\d{2}(0[1-9]|1[0-2])([0-2]\d|3[01])\d{4}$`, 1, 2},
		{"ID", `^\d{16}$`, 0, 2},
		{"IE", `^\d{7}[A-W][A-IW]?$`, 0, 1},
		{"IL", `^\d{9}$`, 0, 2},
		{"IN", `^[2-9]\d{11}$`, 0, 4},
		{"IS", `^\d{6}\d{4}$`, 0, 2},
		{"IT", `^[A-Z]{6}\d{2}[A-Z]\d{2}[A-Z]\d{3}[A-Z]$`, 3, 3},
		{"JM", `^\d{9}$`, 0, 2},
		{"JO", `^\d{10}$`, 0, 2},
		{"JP", `^\d{12}$`, 0, 2},
		{"KE", `^\d{8}$`, 0, 2},
		{"KR", `^\d{6}[1-8]\d{6}$`, 0, 2},
		{"KW", `^[123]\d{11}$`, 1, 2},
		{"KZ", `^\d{12}$`, 0, 2},
		{"LB", `^\d{1,8}$`, 0, 2},
		{"LK", `^(\d{9}[VX]|\d{12})$`, 0, 2},
		{"LT", `^[1-6]\d{2}(0[1-9]|1[0-2])([0-2]\d|3[01])\d{4}$`, 1, 2},
		{"LU", `^\d{13}$`, 0, 2},
		{"LV", `^\d{6}\d{5}$`, 0, 2},
		{"MA", `^[A-Z]{1,2}\d{5,6}$`, 1, 1},
		{"MD", `^\d{13}$`, 0, 2},
		{"ME", `^\d{13}$`, 0, 2},
		{"MK", `^\d{13}$`, 0, 2},
		{"MT", `^\d{7}[MGAPLHBZ]$`, 0, 1},
		{"MX", `^[A-Z]{4}\d{6}[HM][A-Z]{5}[0-9A-Z]\d$`, 4, 2},
		{"MY", `^\d{6}\d{2}\d{4}$`, 0, 4},
		{"NG", `^\d{11}$`, 0, 2},
		{"NI", `^\d{13}[A-Z]?$`, 0, 2},
		{"NL", `^\d{9}$`, 0, 2},
		{"NO", `^\d{6}\d{5}$`, 0, 2},
		{"NP", `^\d{2}\d{2}\d{2}\d{5}$`, 0, 2},
		{"NZ", `^[A-Z]{2}\d{6}$`, 2, 1},
		{"PA", `^\d{1,2}\d{3,4}\d{3,6}$`, 0, 2},
		{"PE", `^\d{8}$`, 0, 2},
		{"PH", `^\d{4}\d{7}\d$`, 0, 2},
		{"PK", `^\d{5}\d{7}\d$`, 0, 1},
		{"PL", `^\d{11}$`, 0, 2},
		{"PT", `^\d{9}$`, 0, 2},
		{"PY", `^\d{6,8}$`, 0, 2},
		{"QA", `^[23]\d{10}$`, 1, 2},
		{"RO", `^[1-8]\d{2}(0[1-9]|1[0-2])([0-2]\d|3[01])\d{6}$`, 1, 2},
		{"RS", `^\d{13}$`, 0, 2},
		{"RU", `^\d{11}$`, 0, 2},
		{"SA", `^[12]\d{9}$`, 1, 2},
		{"SE", `^\d{6}[-+]?\d{4}$`, 0, 2},
		{"SG", `^[STFGM]\d{7}[A-Z]$`, 1, 1},
		{"SI", `^\d{13}$`, 0, 2},
		{"SK", `^\d{6}\d{3,4}$`, 0, 2},
		{"SV", `^\d{9}$`, 0, 2},
		{"TH", `^\d{13}$`, 0, 2},
		{"TN", `^\d{8}$`, 0, 2},
		{"TR", `^[1-9]\d{10}$`, 0, 2},
		{"TW", `^[A-Z][12]\d{8}$`, 1, 2},
		{"UA", `^\d{10}$`, 0, 2},
		{"US", `^\d{3}\d{2}\d{4}$`, 0, 4},
		{"UY", `^\d{7,8}$`, 0, 1},
		{"UZ", `^\d{14}$`, 0, 2},
		{"VE", `^[VE]\d{7,9}$`, 1, 2},
		{"VN", `^\d{9}(\d{3})?$`, 0, 2},
		{"ZA", `^\d{6}\d{4}[01]8\d$`, 0, 2},
		{"ZM", `^\d{6}\d{2}\d$`, 0, 1},
		{"ZW", `^\d{2}\d{6,7}[A-Z]\d{2}$`, 2, 2},
	}

	catalog := make(map[string]CountryPattern, len(spec))
	for _, s := range spec {
		catalog[s.code] = CountryPattern{
			Code:      s.code,
			Pattern:   regexp.MustCompile(s.pattern),
			KeepFirst: s.keepFirst,
			KeepLast:  s.keepLast,
			Glyph:     '*',
		}
	}
	return catalog
}

// LookupCountry returns the catalog entry for an ISO country code.
func LookupCountry(code string) (CountryPattern, bool) {
	p, ok := countryPatterns[strings.ToUpper(code)]
	return p, ok
}

// normalizeID strips the separators national identifiers are commonly
// written with before pattern testing. Masking itself runs on the
// original string so structure survives.
func normalizeID(s string) string {
	return strings.NewReplacer(" ", "", "-", "", ".", "", "/", "").Replace(strings.ToUpper(s))
}

// boundedMatch tests one pattern against s under the match deadline.
func boundedMatch(ctx context.Context, re *regexp.Regexp, s string) (bool, error) {
	done := make(chan bool, 1)
	go func() {
		done <- re.MatchString(s)
	}()

	timer := time.NewTimer(MatchLimit)
	defer timer.Stop()
	select {
	case ok := <-done:
		return ok, nil
	case <-ctx.Done():
		return false, ErrMatchTimeout
	case <-timer.C:
		return false, ErrMatchTimeout
	}
}

// DetectCountryID tests s against the full catalog in countryOrder and
// returns the first matching country code. A pattern that exceeds the
// match deadline is skipped as a non-match; detection itself never fails.
func DetectCountryID(s string) (string, bool) {
	normalized := normalizeID(s)
	if normalized == "" {
		return "", false
	}
	ctx := context.Background()
	for _, code := range countryOrder {
		p := countryPatterns[code]
		ok, err := boundedMatch(ctx, p.Pattern, normalized)
		if err != nil {
			continue
		}
		if ok {
			return code, true
		}
	}
	return "", false
}

// CountryIDMasker masks a national identifier using one country's
// pattern and default visible window, or auto-detection across the whole
// catalog. Lookup fails closed: input not matching the pattern returns
// unchanged. Construct with NewCountryIDMasker or NewAutoCountryIDMasker.
type CountryIDMasker struct {
	entry  *CountryPattern // nil means auto-detect
	emit   func(code string)
	detect bool
}

// NewCountryIDMasker returns a masker bound to one country's identifier
// format. An unknown code is a construction error.
func NewCountryIDMasker(code string) (*CountryIDMasker, error) {
	p, ok := LookupCountry(code)
	if !ok {
		return nil, newConfigError("countryid", "code", "no catalog entry for "+strings.ToUpper(code))
	}
	return &CountryIDMasker{entry: &p}, nil
}

// NewAutoCountryIDMasker returns a masker that auto-detects the country
// by testing the catalog in its fixed order and committing to the first
// match. Input matching nothing returns unchanged.
func NewAutoCountryIDMasker() *CountryIDMasker {
	return &CountryIDMasker{detect: true}
}

// TransformText masks the identifier in s.
//
// For an explicit country, a match deadline overrun surfaces
// ErrMatchTimeout (a recoverable operational error); during
// auto-detection a timeout is treated as "no match" for that entry.
func (c *CountryIDMasker) TransformText(s string) (string, error) {
	if s == "" {
		return s, nil
	}

	if c.detect {
		code, ok := DetectCountryID(s)
		if !ok {
			return s, nil
		}
		p := countryPatterns[code]
		emitCountryDetected(context.Background(), code)
		return maskAlnumKeeping(s, p.KeepFirst, p.KeepLast, p.Glyph), nil
	}

	ok, err := boundedMatch(context.Background(), c.entry.Pattern, normalizeID(s))
	if err != nil {
		return s, err
	}
	if !ok {
		return s, nil
	}
	return maskAlnumKeeping(s, c.entry.KeepFirst, c.entry.KeepLast, c.entry.Glyph), nil
}
