package address_test

import (
	"testing"

	"github.com/dukerupert/addressd/internal/address"
	"github.com/stretchr/testify/assert"
)

func TestStandardize(t *testing.T) {
	tests := []struct {
		name string
		in   address.Final
		want string
	}{
		{
			name: "complete",
			in:   address.Final{Number: strPtr("1600"), Street: strPtr("Amphitheatre Parkway"), City: "Mountain View", State: "CA", Zip: strPtr("94043")},
			want: "1600 Amphitheatre Parkway, Mountain View, CA 94043",
		},
		{
			name: "no street",
			in:   address.Final{City: "Belmont", State: "MA", Zip: strPtr("02478")},
			want: "Belmont, MA 02478",
		},
		{
			name: "no zip",
			in:   address.Final{City: "Springfield", State: "IL"},
			want: "Springfield, IL",
		},
		{
			name: "street without number",
			in:   address.Final{Street: strPtr("Main St"), City: "Springfield", State: "IL", Zip: strPtr("62704")},
			want: "Main St, Springfield, IL 62704",
		},
		{
			name: "number only",
			in:   address.Final{Number: strPtr("42"), City: "Springfield", State: "IL"},
			want: "42, Springfield, IL",
		},
		{
			name: "missing state degrades to comma list",
			in:   address.Final{Street: strPtr("Main St"), City: "Springfield", Zip: strPtr("62704")},
			want: "Main St, Springfield, 62704",
		},
		{
			name: "state only",
			in:   address.Final{State: "IL"},
			want: "IL",
		},
		{
			name: "nothing",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := address.Standardize(tt.in.Number, tt.in.Street, tt.in.City, tt.in.State, tt.in.Zip)
			assert.Equal(t, tt.want, got)
		})
	}
}
