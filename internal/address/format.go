package address

import "strings"

// Standardize renders the canonical one-line form of an address:
// "number street, city, state zip". Missing parts are omitted and the
// remainder stays comma-joined.
func Standardize(number, street *string, city, state string, zip *string) string {
	var parts []string

	if line := strings.TrimSpace(deref(number) + " " + deref(street)); line != "" {
		parts = append(parts, line)
	}

	if city != "" && state != "" {
		parts = append(parts, city)
		parts = append(parts, strings.TrimSpace(state+" "+deref(zip)))
	} else {
		for _, s := range []string{city, state, deref(zip)} {
			if s != "" {
				parts = append(parts, s)
			}
		}
	}

	return strings.Join(parts, ", ")
}
