// Package accounts models the locally-known platform accounts offered in the
// activation dialog. The roster is never cached; it is fetched fresh each
// time the dialog opens.
package accounts

import "context"

// Account is one locally-known platform login.
type Account struct {
	SteamID     string `json:"steamid"`
	AccountName string `json:"account_name"`
	MostRecent  bool   `json:"most_recent"`
}

// Roster lists the local platform accounts.
type Roster interface {
	ListAccounts(ctx context.Context) ([]Account, error)
}

// DisplayName returns the label shown in the account selector.
func (a Account) DisplayName() string {
	name := a.AccountName
	if name == "" {
		name = "(unknown)"
	}
	return name + " – " + a.SteamID
}

// DefaultSelection picks the account the dialog pre-selects: the bound id if
// it is set, otherwise the roster's most-recent entry, otherwise the first.
// An empty roster yields "".
func DefaultSelection(boundID string, roster []Account) string {
	if boundID != "" {
		return boundID
	}
	for _, a := range roster {
		if a.MostRecent {
			return a.SteamID
		}
	}
	if len(roster) > 0 {
		return roster[0].SteamID
	}
	return ""
}
