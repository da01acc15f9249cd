package accounts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSelection(t *testing.T) {
	roster := []Account{
		{SteamID: "100", AccountName: "alpha"},
		{SteamID: "200", AccountName: "bravo", MostRecent: true},
		{SteamID: "300", AccountName: "charlie"},
	}

	tests := []struct {
		name    string
		boundID string
		roster  []Account
		want    string
	}{
		{"bound id wins", "300", roster, "300"},
		{"most recent when unbound", "", roster, "200"},
		{"first when nothing flagged", "", []Account{{SteamID: "100"}, {SteamID: "200"}}, "100"},
		{"empty roster", "", nil, ""},
		{"bound id even with empty roster", "42", nil, "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultSelection(tt.boundID, tt.roster))
		})
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "alpha – 100", Account{SteamID: "100", AccountName: "alpha"}.DisplayName())
	assert.Equal(t, "(unknown) – 100", Account{SteamID: "100"}.DisplayName())
}
