package repository

import (
	"github.com/reportik/reportik/internal/domain/account"
	"github.com/reportik/reportik/internal/domain/client"
	"github.com/reportik/reportik/internal/domain/ledger"
	"github.com/reportik/reportik/internal/domain/payment"
	"github.com/reportik/reportik/internal/domain/report"
	"github.com/reportik/reportik/internal/logger"
	"github.com/reportik/reportik/internal/postgres"
	postgresRepo "github.com/reportik/reportik/internal/repository/postgres"
)

func NewAccountRepository(db *postgres.DB, logger *logger.Logger) account.Repository {
	return postgresRepo.NewAccountRepository(db, logger)
}

func NewLedgerRepository(db *postgres.DB, logger *logger.Logger) ledger.Repository {
	return postgresRepo.NewLedgerRepository(db, logger)
}

func NewPaymentRepository(db *postgres.DB, logger *logger.Logger) payment.Repository {
	return postgresRepo.NewPaymentRepository(db, logger)
}

func NewClientRepository(db *postgres.DB, logger *logger.Logger) client.Repository {
	return postgresRepo.NewClientRepository(db, logger)
}

func NewReportRepository(db *postgres.DB, logger *logger.Logger) report.Repository {
	return postgresRepo.NewReportRepository(db, logger)
}
