package buxfer

import (
	"encoding/json"

	"github.com/ledgerkeep/buxsync/internal/model"
)

// envelope is the container every Buxfer API response arrives in.
type envelope struct {
	Response json.RawMessage `json:"response"`
	Error    *apiError       `json:"error,omitempty"`
}

// apiError is the error body Buxfer returns on rejected requests.
type apiError struct {
	Type    string `json:"type"`
	Request string `json:"request,omitempty"`
	Message string `json:"message"`
}

type loginResponse struct {
	Status string `json:"status"`
	Token  string `json:"token"`
}

type transactionsResponse struct {
	Status          string              `json:"status"`
	NumTransactions flexInt             `json:"numTransactions"`
	Transactions    []model.Transaction `json:"transactions"`
}

type accountsResponse struct {
	Status   string          `json:"status"`
	Accounts []model.Account `json:"accounts"`
}

type tagsResponse struct {
	Status string      `json:"status"`
	Tags   []model.Tag `json:"tags"`
}

type budgetsResponse struct {
	Status  string         `json:"status"`
	Budgets []model.Budget `json:"budgets"`
}

type loansResponse struct {
	Status string       `json:"status"`
	Loans  []model.Loan `json:"loans"`
}

type remindersResponse struct {
	Status    string           `json:"status"`
	Reminders []model.Reminder `json:"reminders"`
}

type groupsResponse struct {
	Status string        `json:"status"`
	Groups []model.Group `json:"groups"`
}

type contactsResponse struct {
	Status   string          `json:"status"`
	Contacts []model.Contact `json:"contacts"`
}

// flexInt tolerates Buxfer returning counters as either a number or a
// quoted string.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexInt(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	var parsed int
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		return err
	}
	*f = flexInt(parsed)
	return nil
}
