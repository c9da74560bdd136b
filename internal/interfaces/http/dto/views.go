package dto

import (
	financeapp "github.com/propledger/backend/internal/application/finance"
)

// AccountView is an account with display strings
type AccountView struct {
	financeapp.AccountResponse
	BalanceDisplay     string `json:"balance_display"`
	CreditLimitDisplay string `json:"credit_limit_display"`
	Currency           string `json:"currency"`
}

// NewAccountView decorates an account response
func NewAccountView(a financeapp.AccountResponse, f *MoneyFormatter) AccountView {
	return AccountView{
		AccountResponse:    a,
		BalanceDisplay:     f.FormatAmount(a.Balance),
		CreditLimitDisplay: f.FormatAmount(a.CreditLimit),
		Currency:           f.Currency(),
	}
}

// NewAccountViews decorates a page of accounts
func NewAccountViews(items []financeapp.AccountResponse, f *MoneyFormatter) []AccountView {
	out := make([]AccountView, len(items))
	for i := range items {
		out[i] = NewAccountView(items[i], f)
	}
	return out
}

// InvoiceView is an invoice with display strings
type InvoiceView struct {
	financeapp.InvoiceResponse
	TotalDisplay      string `json:"total_display"`
	BalanceDueDisplay string `json:"balance_due_display"`
	Currency          string `json:"currency"`
}

// NewInvoiceView decorates an invoice response
func NewInvoiceView(inv financeapp.InvoiceResponse, f *MoneyFormatter) InvoiceView {
	return InvoiceView{
		InvoiceResponse:   inv,
		TotalDisplay:      f.FormatAmount(inv.TotalAmount),
		BalanceDueDisplay: f.FormatAmount(inv.BalanceDue),
		Currency:          f.Currency(),
	}
}

// NewInvoiceViews decorates a page of invoices
func NewInvoiceViews(items []financeapp.InvoiceResponse, f *MoneyFormatter) []InvoiceView {
	out := make([]InvoiceView, len(items))
	for i := range items {
		out[i] = NewInvoiceView(items[i], f)
	}
	return out
}

// ReceiptView is a receipt with display strings
type ReceiptView struct {
	financeapp.ReceiptResponse
	AmountDisplay string `json:"amount_display"`
	Currency      string `json:"currency"`
}

// NewReceiptView decorates a receipt response
func NewReceiptView(r financeapp.ReceiptResponse, f *MoneyFormatter) ReceiptView {
	return ReceiptView{
		ReceiptResponse: r,
		AmountDisplay:   f.FormatAmount(r.Amount),
		Currency:        f.Currency(),
	}
}

// NewReceiptViews decorates a page of receipts
func NewReceiptViews(items []financeapp.ReceiptResponse, f *MoneyFormatter) []ReceiptView {
	out := make([]ReceiptView, len(items))
	for i := range items {
		out[i] = NewReceiptView(items[i], f)
	}
	return out
}

// StatementView is a statement with display strings
type StatementView struct {
	financeapp.StatementResponse
	OpeningBalanceDisplay string `json:"opening_balance_display"`
	ClosingBalanceDisplay string `json:"closing_balance_display"`
	Currency              string `json:"currency"`
}

// NewStatementView decorates a statement response
func NewStatementView(s financeapp.StatementResponse, f *MoneyFormatter) StatementView {
	return StatementView{
		StatementResponse:     s,
		OpeningBalanceDisplay: f.FormatAmount(s.OpeningBalance),
		ClosingBalanceDisplay: f.FormatAmount(s.ClosingBalance),
		Currency:              f.Currency(),
	}
}

// PaymentResultView is a processed payment with the affected account decorated
type PaymentResultView struct {
	financeapp.PaymentResult
	Account AccountView `json:"account"`
}

// NewPaymentResultView decorates a payment result
func NewPaymentResultView(r financeapp.PaymentResult, f *MoneyFormatter) PaymentResultView {
	return PaymentResultView{
		PaymentResult: r,
		Account:       NewAccountView(r.Account, f),
	}
}
