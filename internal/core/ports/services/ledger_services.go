package services

import (
	"context"

	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/escrow_ledger_app/internal/core/ports/repositories"
	"github.com/SscSPs/escrow_ledger_app/internal/dto"
)

// LedgerReaderSvc defines read operations for ledger entries
type LedgerReaderSvc interface {
	GetEntry(ctx context.Context, entryID string) (*domain.LedgerEntry, error)
	ListEntries(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)
}

// LedgerWriterSvc is the only way for surrounding modules to move funds.
type LedgerWriterSvc interface {
	CreateEntry(ctx context.Context, req dto.CreateEntryRequest) (*domain.LedgerEntry, error)
	ApproveEntry(ctx context.Context, entryID string, approvedBy string) (*domain.LedgerEntry, error)
	RejectEntry(ctx context.Context, entryID string, reason string, rejectedBy string) (*domain.LedgerEntry, error)

	// ReverseEntry returns the new reversal entry.
	ReverseEntry(ctx context.Context, entryID string, reason string, reversedBy string) (*domain.LedgerEntry, error)
}

// LedgerVerifierSvc walks the ledger chain. It never fails; problems are reported.
type LedgerVerifierSvc interface {
	VerifyIntegrity(ctx context.Context) domain.IntegrityReport
}

// LedgerTxPoster lets another engine post entries inside its own unit of work.
type LedgerTxPoster interface {
	PostEntryInTx(ctx context.Context, tx portsrepo.TxRepositories, req dto.CreateEntryRequest) (*domain.LedgerEntry, error)
	ApproveEntryInTx(ctx context.Context, tx portsrepo.TxRepositories, entryID string, approvedBy string) (*domain.LedgerEntry, error)
	RejectEntryInTx(ctx context.Context, tx portsrepo.TxRepositories, entryID string, reason string, rejectedBy string) (*domain.LedgerEntry, error)
}

// LedgerSvcFacade combines all ledger service interfaces
type LedgerSvcFacade interface {
	LedgerReaderSvc
	LedgerWriterSvc
	LedgerVerifierSvc
	LedgerTxPoster
}
