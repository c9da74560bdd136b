package finance

// Services is the full set of ledger services sharing one BalanceEngine
type Services struct {
	Engine         *BalanceEngine
	Accounts       *AccountService
	BillingPeriods *BillingPeriodService
	ChargeTypes    *ChargeTypeService
	Invoices       *InvoiceService
	UtilityCharges *UtilityChargeService
	Transactions   *TransactionService
	Payments       *PaymentService
	RentPayments   *RentPaymentService
	Receipts       *ReceiptService
	Statements     *StatementService
}

// NewServices wires every ledger service over deps
func NewServices(deps Dependencies) *Services {
	deps = deps.withDefaults()
	engine := NewBalanceEngine(deps.Logger.Named("balance_engine"))

	chargeTypes := NewChargeTypeService(deps)
	payments := NewPaymentService(deps, engine)
	invoices := NewInvoiceService(deps, chargeTypes, payments)

	return &Services{
		Engine:         engine,
		Accounts:       NewAccountService(deps),
		BillingPeriods: NewBillingPeriodService(deps),
		ChargeTypes:    chargeTypes,
		Invoices:       invoices,
		UtilityCharges: NewUtilityChargeService(deps, invoices),
		Transactions:   NewTransactionService(deps, engine),
		Payments:       payments,
		RentPayments:   NewRentPaymentService(deps, engine),
		Receipts:       NewReceiptService(deps),
		Statements:     NewStatementService(deps),
	}
}
