package models

// Requests for the board HTTP endpoints. Defined in domain for reuse by handlers and tests.

type BoardRequest struct {
	AccountID int `query:"account_id" json:"account_id" default:"1" validate:"gte=0,lte=99"`
}

type TickerRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required,max=12"`
}

type HistoryRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,max=12"`
	Limit  int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=1000"`
}

type AnalyzeRequest struct {
	SnapshotEvent
}
