package handlers_test

import (
	"io"
	"log/slog"
	"time"

	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validReport(chain domain.ChainName) domain.IntegrityReport {
	return domain.IntegrityReport{Chain: chain, IsValid: true, CheckedAt: time.Now().UTC()}
}

func auditFields(by string) domain.AuditFields {
	now := time.Now().UTC().Truncate(time.Second)
	return domain.AuditFields{CreatedAt: now, CreatedBy: by, LastUpdatedAt: now, LastUpdatedBy: by}
}
