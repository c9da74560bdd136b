// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
//   - base.go: BaseModel and AggregateModel
//   - identity.go: users
//   - tenancy.go: properties, units, tenants
//   - ledger.go: accounts, transactions, billing periods, charge types, invoices,
//     utility charges, payments, rent payments, receipts
//   - sequence.go: per-kind document number counters
package models

// All lists every model in dependency order, for AutoMigrate in tests and local setups.
// Production schemas come from the SQL migrations.
func All() []any {
	return []any{
		&UserModel{},
		&PropertyModel{},
		&UnitModel{},
		&TenantModel{},
		&AccountModel{},
		&BillingPeriodModel{},
		&ChargeTypeModel{},
		&InvoiceModel{},
		&InvoiceItemModel{},
		&UtilityChargeModel{},
		&TransactionModel{},
		&PaymentModel{},
		&RentPaymentModel{},
		&ReceiptModel{},
		&DocumentSequenceModel{},
	}
}
