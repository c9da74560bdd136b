// Package handler contains the gin handlers of the ledger API.
package handler

import (
	financeapp "github.com/propledger/backend/internal/application/finance"
	identityapp "github.com/propledger/backend/internal/application/identity"
	"github.com/propledger/backend/internal/interfaces/http/dto"
	"github.com/propledger/backend/internal/interfaces/http/router"
)

// LedgerRegistrars returns the authenticated route groups of the ledger API
func LedgerRegistrars(svc *financeapp.Services, users *identityapp.UserService, money *dto.MoneyFormatter) []router.RouteRegistrar {
	return []router.RouteRegistrar{
		NewUserHandler(users),
		NewAccountHandler(svc.Accounts, money),
		NewBillingPeriodHandler(svc.BillingPeriods, svc.Invoices, svc.UtilityCharges, money),
		NewChargeTypeHandler(svc.ChargeTypes),
		NewInvoiceHandler(svc.Invoices, money),
		NewUtilityChargeHandler(svc.UtilityCharges, money),
		NewTransactionHandler(svc.Transactions, money),
		NewPaymentHandler(svc.Payments, money),
		NewRentPaymentHandler(svc.RentPayments, money),
		NewReceiptHandler(svc.Receipts, money),
		NewStatementHandler(svc.Statements, money),
	}
}
