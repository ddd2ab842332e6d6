package dto

import (
	"github.com/reportik/reportik/internal/domain/ledger"
)

type LedgerEntryResponse struct {
	*ledger.Entry
}

type ListLedgerResponse struct {
	Items []*LedgerEntryResponse `json:"items"`
	Total int                    `json:"total"`
}
