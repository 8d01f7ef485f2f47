// Package model defines the core domain types shared across the application.
package model

import (
	"strings"
	"time"
)

// BuxferDateFormat is the calendar-day format used by the Buxfer API.
const BuxferDateFormat = "2006-01-02"

// TransactionType identifies how Buxfer classifies a transaction.
type TransactionType string

// Transaction types accepted by the Buxfer API.
const (
	TypeExpense        TransactionType = "expense"
	TypeIncome         TransactionType = "income"
	TypeRefund         TransactionType = "refund"
	TypeTransfer       TransactionType = "transfer"
	TypeInvestmentBuy  TransactionType = "investment_buy"
	TypeInvestmentSell TransactionType = "investment_sell"
	TypeCapitalGain    TransactionType = "capital_gain"
	TypeCapitalLoss    TransactionType = "capital_loss"
	TypeSharedBill     TransactionType = "sharedBill"
	TypePaidForFriend  TransactionType = "paidForFriend"
	TypeSettlement     TransactionType = "settlement"
)

// TransactionStatus is the clearing state of a transaction.
type TransactionStatus string

// Transaction statuses.
const (
	StatusPending TransactionStatus = "pending"
	StatusCleared TransactionStatus = "cleared"
)

// AccountRef identifies one leg of a remote transfer row.
type AccountRef struct {
	Name string `json:"name,omitempty"`
	ID   int64  `json:"id"`
}

// Participant is one payer or sharer on a shared bill.
type Participant struct {
	Email  string  `json:"email"`
	Amount float64 `json:"amount"`
}

// SharedBillDetails carries the extra fields of a sharedBill transaction.
type SharedBillDetails struct {
	Payers      []Participant `json:"payers,omitempty"`
	Sharers     []Participant `json:"sharers,omitempty"`
	IsEvenSplit bool          `json:"isEvenSplit,omitempty"`
}

// LoanDetails carries the extra fields of a loan-role transaction.
type LoanDetails struct {
	LoanedBy   string `json:"loanedBy,omitempty"`
	BorrowedBy string `json:"borrowedBy,omitempty"`
}

// PaidForFriendDetails carries the extra fields of a paidForFriend transaction.
type PaidForFriendDetails struct {
	PaidBy  string `json:"paidBy,omitempty"`
	PaidFor string `json:"paidFor,omitempty"`
}

// Details holds the type-specific portion of a transaction. Only the variant
// matching the transaction's Type is ever populated.
type Details struct {
	SharedBill    *SharedBillDetails    `json:"sharedBill,omitempty"`
	Loan          *LoanDetails          `json:"loan,omitempty"`
	PaidForFriend *PaidForFriendDetails `json:"paidForFriend,omitempty"`
}

// Transaction is a single financial transaction, either a locally produced
// candidate or a record read back from the Buxfer ledger. ID is zero until
// the ledger has assigned one; candidates never carry an ID before
// submission.
type Transaction struct {
	ID          int64             `json:"id,omitempty"`
	Description string            `json:"description"`
	Amount      float64           `json:"amount"`
	AccountID   int64             `json:"accountId"`
	Date        string            `json:"date"` // YYYY-MM-DD, no time component
	Type        TransactionType   `json:"type"`
	Status      TransactionStatus `json:"status"`
	Tags        []string          `json:"tagNames,omitempty"`
	FromAccount *AccountRef       `json:"fromAccount,omitempty"` // remote transfer rows only
	ToAccount   *AccountRef       `json:"toAccount,omitempty"`   // remote transfer rows only
	Details     *Details          `json:"-"`
}

// ParseDate parses the transaction's calendar day.
func (t *Transaction) ParseDate() (time.Time, error) {
	return time.Parse(BuxferDateFormat, t.Date)
}

// TagList renders the tag set as the comma-separated string the Buxfer write
// API expects.
func (t *Transaction) TagList() string {
	return strings.Join(t.Tags, ",")
}

// IsTransfer reports whether the transaction is a transfer. Transfers are
// matched per account leg rather than by fingerprint.
func (t *Transaction) IsTransfer() bool {
	return t.Type == TypeTransfer
}

// Account is a Buxfer account.
type Account struct {
	Name       string  `json:"name,omitempty"`
	Bank       string  `json:"bank,omitempty"`
	Type       string  `json:"type,omitempty"`
	LastSynced string  `json:"lastSynced,omitempty"`
	ID         int64   `json:"id"`
	Balance    float64 `json:"balance,omitempty"`
}

// Tag is a Buxfer tag.
type Tag struct {
	Name     string `json:"name"`
	ID       int64  `json:"id"`
	ParentID int64  `json:"parentId,omitempty"`
}

// Budget is a Buxfer budget.
type Budget struct {
	Name          string   `json:"name"`
	Limit         string   `json:"limit,omitempty"`
	Period        string   `json:"period,omitempty"`
	CurrentPeriod string   `json:"currentPeriod,omitempty"`
	Tags          string   `json:"tags,omitempty"`
	Keywords      []string `json:"keywords,omitempty"`
	ID            int64    `json:"id"`
	Remaining     float64  `json:"remaining,omitempty"`
}

// Loan is a Buxfer loan balance with another party.
type Loan struct {
	Entity      string  `json:"entity"`
	Type        string  `json:"type,omitempty"`
	Description string  `json:"description,omitempty"`
	Balance     float64 `json:"balance"`
}

// Reminder is a scheduled Buxfer reminder.
type Reminder struct {
	Name      string  `json:"name"`
	StartDate string  `json:"startDate,omitempty"`
	Period    string  `json:"period,omitempty"`
	ID        int64   `json:"id"`
	Amount    float64 `json:"amount,omitempty"`
	AccountID int64   `json:"accountId,omitempty"`
}

// Contact is another Buxfer user the account holder shares expenses with.
type Contact struct {
	Name    string  `json:"name"`
	Email   string  `json:"email,omitempty"`
	ID      int64   `json:"id"`
	Balance float64 `json:"balance,omitempty"`
}

// Group is a Buxfer expense-sharing group.
type Group struct {
	Name         string    `json:"name"`
	Members      []Contact `json:"members,omitempty"`
	ID           int64     `json:"id"`
	Consolidated bool      `json:"consolidated,omitempty"`
}
