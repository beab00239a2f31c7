package models

// MaxBucketID is the highest account id the engine can assign. Buckets
// 0..MaxBucketID are always present in a board, even if empty.
const MaxBucketID = 8

// Account is the display metadata of a strategy bucket.
type Account struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Strategy      string `json:"strategy"`
	HoldingPeriod string `json:"holdingPeriod"`
}

// DefaultAccounts is the built-in bucket catalog.
var DefaultAccounts = []Account{
	{ID: 1, Name: "SH Swing", Strategy: "Short Swing", HoldingPeriod: "1-5D"},
	{ID: 2, Name: "Swing/Sq", Strategy: "Swing / Squeeze", HoldingPeriod: "2-20D"},
	{ID: 3, Name: "POS- BO/SQ", Strategy: "Position Breakout / Squeeze", HoldingPeriod: "2-20W (6m)"},
	{ID: 4, Name: "POS-HVOL", Strategy: "Position High Volume", HoldingPeriod: "2-20W (6m)"},
	{ID: 5, Name: "POS-PAT", Strategy: "Position Patterns", HoldingPeriod: "2-20W (6m)"},
	{ID: 6, Name: "INV", Strategy: "Investment", HoldingPeriod: "3M-2Y"},
	{ID: 7, Name: "OPT-Swing", Strategy: "Options Swing", HoldingPeriod: "1D-90D"},
	{ID: 8, Name: "Lot", Strategy: "Lottery", HoldingPeriod: "1-5D"},
	{ID: 9, Name: "Ref/SOY/401K", Strategy: "Reference", HoldingPeriod: "N/A"},
}

// AccountCatalog is an ordered list of accounts.
type AccountCatalog []Account

// ByID returns the account with id, falling back to the first account.
func (c AccountCatalog) ByID(id int) Account {
	for _, a := range c {
		if a.ID == id {
			return a
		}
	}
	if len(c) == 0 {
		return Account{}
	}
	return c[0]
}
