package address

import (
	"regexp"
	"strings"
)

var (
	// "CA94043" -> "CA 94043"
	gluedStateZip = regexp.MustCompile(`\b([A-Za-z]{2})(\d{5})\b`)

	// state/zip block of a 3+ segment address; the state may be a full name.
	stateZipBlock = regexp.MustCompile(`^([A-Za-z][A-Za-z .'-]*?)\s+(\d{5})(?:-\d{4})?$`)

	// "Mountain View CA 94043"
	cityStateZip = regexp.MustCompile(`^(.*\S)\s+([A-Za-z]{2})\s+(\d{5})(?:-\d{4})?$`)

	// "MA 02478" after a street line.
	codeZip = regexp.MustCompile(`^([A-Za-z]{2})\s+(\d{5})(?:-\d{4})?$`)

	bareCode = regexp.MustCompile(`^[A-Za-z]{2}$`)

	trailingZip = regexp.MustCompile(`(?:^|\D)(\d{5})(?:-\d{4})?\s*$`)

	houseNumber = regexp.MustCompile(`^\d+$`)
)

// Parse splits a free-form address into its components. It never fails:
// anything it cannot place is left nil.
func Parse(raw string) ParsedAddress {
	var p ParsedAddress

	normalized := gluedStateZip.ReplaceAllString(raw, "$1 $2")
	segments := splitSegments(normalized)

	switch {
	case len(segments) >= 3:
		p.Street = ptr(segments[0])
		p.City = ptr(segments[1])
		block := strings.Join(segments[2:], " ")
		if m := stateZipBlock.FindStringSubmatch(block); m != nil {
			p.State = ptr(collapseSpaces(m[1]))
			p.Zip = ptr(m[2])
		} else {
			p.State = ptr(block)
		}

	case len(segments) == 2:
		parseTwoSegments(&p, segments[0], segments[1])

	case len(segments) == 1:
		p.Street = ptr(segments[0])
	}

	if p.Zip == nil {
		if m := trailingZip.FindStringSubmatch(normalized); m != nil {
			p.Zip = ptr(m[1])
		}
	}

	if p.Street != nil {
		p.Number, p.Street = splitHouseNumber(*p.Street)
	}

	return p
}

// parseTwoSegments handles "street, city ST zip" as well as the street-less
// forms "city, ST zip", "city, State zip" and "city, ST". A first segment
// led by a house number is always the street line.
func parseTwoSegments(p *ParsedAddress, first, second string) {
	leading, _, _ := strings.Cut(first, " ")
	if houseNumber.MatchString(leading) {
		p.Street = ptr(first)
		if m := codeZip.FindStringSubmatch(second); m != nil {
			p.State = ptr(strings.ToUpper(m[1]))
			p.Zip = ptr(m[2])
		} else if bareCode.MatchString(second) {
			p.State = ptr(strings.ToUpper(second))
		} else {
			parseCitySegment(p, second)
		}
		return
	}

	if cityStateZip.MatchString(second) {
		p.Street = ptr(first)
		parseCitySegment(p, second)
		return
	}
	if m := stateZipBlock.FindStringSubmatch(second); m != nil {
		p.City = ptr(first)
		p.State = ptr(stateToken(m[1]))
		p.Zip = ptr(m[2])
		return
	}
	if bareCode.MatchString(second) {
		p.City = ptr(first)
		p.State = ptr(strings.ToUpper(second))
		return
	}

	p.Street = ptr(first)
	parseCitySegment(p, second)
}

// parseCitySegment reads "city ST zip", or takes the whole segment as city.
func parseCitySegment(p *ParsedAddress, seg string) {
	if m := cityStateZip.FindStringSubmatch(seg); m != nil {
		p.City = ptr(m[1])
		p.State = ptr(strings.ToUpper(m[2]))
		p.Zip = ptr(m[3])
		return
	}
	p.City = ptr(seg)
}

// stateToken upper-cases two-letter codes and leaves names as written.
func stateToken(s string) string {
	s = collapseSpaces(s)
	if bareCode.MatchString(s) {
		return strings.ToUpper(s)
	}
	return s
}

func splitSegments(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = collapseSpaces(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// splitHouseNumber separates a purely numeric leading token from the street
// name. A street consisting only of a number keeps no street name.
func splitHouseNumber(street string) (number, name *string) {
	first, rest, _ := strings.Cut(street, " ")
	if !houseNumber.MatchString(first) {
		return nil, ptr(street)
	}
	if rest = strings.TrimSpace(rest); rest == "" {
		return ptr(first), nil
	}
	return ptr(first), ptr(rest)
}
