// Package buxfer provides a client for the Buxfer personal-finance API.
//
// Every call except login goes through an authenticated session whose token
// expires 30 minutes after issuance; the client renews it transparently.
package buxfer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ledgerkeep/buxsync/internal/common"
	"github.com/ledgerkeep/buxsync/internal/model"
	"github.com/ledgerkeep/buxsync/internal/service"
)

const (
	defaultBaseURL = "https://www.buxfer.com/api"

	// pageSize is the fixed upper bound of a transactions read; the API
	// returns at most 100 rows per page.
	pageSize = 100
)

// Config holds Buxfer API configuration.
type Config struct {
	Email    string
	Password string
	BaseURL  string // defaults to the public API endpoint
	Timeout  time.Duration
}

// Validate ensures all required fields are present.
func (c *Config) Validate() error {
	if c.Email == "" {
		return fmt.Errorf("%w: buxfer email is required", common.ErrMissingConfig)
	}
	if c.Password == "" {
		return fmt.Errorf("%w: buxfer password is required", common.ErrMissingConfig)
	}
	return nil
}

// Client talks to the Buxfer API. It implements service.Ledger.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	session    *session
	retryOpts  service.RetryOptions
	baseURL    string
	email      string
	password   string
}

// NewClient creates a new Buxfer client with the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	logger := slog.Default().With("component", "buxfer")

	c := &Client{
		baseURL:  baseURL,
		email:    cfg.Email,
		password: cfg.Password,
		logger:   logger,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retryOpts: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}
	c.session = newSession(c.login, logger)

	return c, nil
}

// Login establishes an authenticated session now rather than on first use.
// Credential failures surface immediately and are never retried.
func (c *Client) Login(ctx context.Context) error {
	_, err := c.session.Token(ctx)
	return err
}

// login performs the actual login call. It is the one request exempt from
// session gating; routing it through the session would recurse.
func (c *Client) login(ctx context.Context) (string, error) {
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "login", nil,
		map[string]string{"email": c.email, "password": c.password}, "", &resp)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrAuthFailed, err)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("%w: empty token in login response", common.ErrAuthFailed)
	}
	return resp.Token, nil
}

// call issues an authenticated request, renewing the session first if
// needed. A token the server rejects mid-window (password change, remote
// logout) invalidates the session and the request is reissued once with a
// fresh login.
func (c *Client) call(ctx context.Context, method, endpoint string, params url.Values, body any, out any) error {
	token, err := c.session.Token(ctx)
	if err != nil {
		return err
	}

	err = c.do(ctx, method, endpoint, params, body, token, out)
	if !errors.Is(err, common.ErrSessionExpired) {
		return err
	}

	c.logger.Debug("Token rejected, renewing session", "endpoint", endpoint)
	c.session.Invalidate()

	token, tokenErr := c.session.Token(ctx)
	if tokenErr != nil {
		return tokenErr
	}
	return c.do(ctx, method, endpoint, params, body, token, out)
}

// do builds, sends and decodes one API request. The token rides both as a
// query parameter and a bearer header, matching what the API accepts.
func (c *Client) do(ctx context.Context, method, endpoint string, params url.Values, body any, token string, out any) error {
	u, err := url.Parse(fmt.Sprintf("%s/%s", c.baseURL, endpoint))
	if err != nil {
		return fmt.Errorf("failed to build request URL: %w", err)
	}

	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	if token != "" {
		q.Set("token", token)
	}
	u.RawQuery = q.Encode()

	var reqBody io.Reader
	if body != nil {
		jsonBody, marshalErr := json.Marshal(body)
		if marshalErr != nil {
			return fmt.Errorf("failed to marshal request: %w", marshalErr)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode == http.StatusUnauthorized && token != "" {
		return fmt.Errorf("%w: %s", common.ErrSessionExpired, string(respBody))
	}
	if env.Error != nil {
		return fmt.Errorf("buxfer API error (status %d): %s", resp.StatusCode, env.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("buxfer API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if out != nil && len(env.Response) > 0 {
		if err := json.Unmarshal(env.Response, out); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
		}
	}

	return nil
}

// Transactions retrieves one page (at most 100 rows) of transactions
// matching the query.
func (c *Client) Transactions(ctx context.Context, query service.TransactionQuery) (*service.TransactionPage, error) {
	params := url.Values{}
	setIfPresent := func(key string, id int64) {
		if id != 0 {
			params.Set(key, strconv.FormatInt(id, 10))
		}
	}
	setIfPresent("accountId", query.AccountID)
	setIfPresent("tagId", query.TagID)
	setIfPresent("budgetId", query.BudgetID)
	setIfPresent("contactId", query.ContactID)
	setIfPresent("groupId", query.GroupID)
	if query.StartDate != "" {
		params.Set("startDate", query.StartDate)
	}
	if query.EndDate != "" {
		params.Set("endDate", query.EndDate)
	}
	if query.Month != "" {
		params.Set("month", query.Month)
	}
	if query.Status != "" {
		params.Set("status", string(query.Status))
	}
	if query.Page > 0 {
		params.Set("page", strconv.Itoa(query.Page))
	}

	var resp transactionsResponse
	retryErr := common.WithRetry(ctx, func() error {
		resp = transactionsResponse{}
		return c.call(ctx, http.MethodGet, "transactions", params, nil, &resp)
	}, c.retryOpts)
	if retryErr != nil {
		return nil, retryErr
	}

	return &service.TransactionPage{
		Transactions: resp.Transactions,
		Total:        int(resp.NumTransactions),
	}, nil
}

// TransactionsInWindow pages through the inclusive date window to
// exhaustion and returns every transaction in it.
func (c *Client) TransactionsInWindow(ctx context.Context, startDate, endDate string) ([]model.Transaction, error) {
	var all []model.Transaction

	for page := 1; ; page++ {
		resp, err := c.Transactions(ctx, service.TransactionQuery{
			StartDate: startDate,
			EndDate:   endDate,
			Page:      page,
		})
		if err != nil {
			return nil, err
		}

		all = append(all, resp.Transactions...)

		c.logger.Debug("Fetched transaction page",
			"page", page,
			"count", len(resp.Transactions),
			"total", resp.Total)

		if len(resp.Transactions) < pageSize || len(all) >= resp.Total {
			break
		}
	}

	c.logger.Info("Fetched remote baseline",
		"start_date", startDate,
		"end_date", endDate,
		"count", len(all))

	return all, nil
}

// AddTransaction creates a transaction in the ledger and returns the stored
// record with its assigned ID. Writes are never retried: a retry after an
// ambiguous failure could submit the same transaction twice.
func (c *Client) AddTransaction(ctx context.Context, tx model.Transaction) (*model.Transaction, error) {
	var created model.Transaction
	if err := c.call(ctx, http.MethodPost, "transaction_add", nil, writePayload(tx), &created); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrWriteRejected, err)
	}
	return &created, nil
}

// EditTransaction updates an existing ledger transaction identified by its
// ID and returns the stored record.
func (c *Client) EditTransaction(ctx context.Context, tx model.Transaction) (*model.Transaction, error) {
	if tx.ID == 0 {
		return nil, fmt.Errorf("%w: edit requires a ledger-assigned id", common.ErrWriteRejected)
	}
	payload := writePayload(tx)
	payload["id"] = tx.ID
	var updated model.Transaction
	if err := c.call(ctx, http.MethodPost, "transaction_edit", nil, payload, &updated); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrWriteRejected, err)
	}
	return &updated, nil
}

// DeleteTransaction removes a ledger transaction by ID.
func (c *Client) DeleteTransaction(ctx context.Context, id int64) error {
	params := url.Values{}
	params.Set("id", strconv.FormatInt(id, 10))
	if err := c.call(ctx, http.MethodPost, "transaction_delete", params, nil, nil); err != nil {
		return fmt.Errorf("%w: %v", common.ErrWriteRejected, err)
	}
	return nil
}

// writePayload flattens a transaction into the form the write API expects,
// including the fields of the type-specific variant.
func writePayload(tx model.Transaction) map[string]any {
	payload := map[string]any{
		"description": tx.Description,
		"amount":      tx.Amount,
		"accountId":   tx.AccountID,
		"date":        tx.Date,
		"type":        string(tx.Type),
		"status":      string(tx.Status),
	}
	if len(tx.Tags) > 0 {
		payload["tags"] = tx.TagList()
	}

	if tx.Details == nil {
		return payload
	}
	switch {
	case tx.Details.SharedBill != nil:
		d := tx.Details.SharedBill
		payload["payers"] = d.Payers
		payload["sharers"] = d.Sharers
		payload["isEvenSplit"] = d.IsEvenSplit
	case tx.Details.Loan != nil:
		d := tx.Details.Loan
		if d.LoanedBy != "" {
			payload["loanedBy"] = d.LoanedBy
		}
		if d.BorrowedBy != "" {
			payload["borrowedBy"] = d.BorrowedBy
		}
	case tx.Details.PaidForFriend != nil:
		d := tx.Details.PaidForFriend
		if d.PaidBy != "" {
			payload["paidBy"] = d.PaidBy
		}
		if d.PaidFor != "" {
			payload["paidFor"] = d.PaidFor
		}
	}

	return payload
}

// Accounts retrieves the user's accounts.
func (c *Client) Accounts(ctx context.Context) ([]model.Account, error) {
	var resp accountsResponse
	if err := c.read(ctx, "accounts", &resp); err != nil {
		return nil, err
	}
	return resp.Accounts, nil
}

// Tags retrieves the user's tags.
func (c *Client) Tags(ctx context.Context) ([]model.Tag, error) {
	var resp tagsResponse
	if err := c.read(ctx, "tags", &resp); err != nil {
		return nil, err
	}
	return resp.Tags, nil
}

// Budgets retrieves the user's budgets.
func (c *Client) Budgets(ctx context.Context) ([]model.Budget, error) {
	var resp budgetsResponse
	if err := c.read(ctx, "budgets", &resp); err != nil {
		return nil, err
	}
	return resp.Budgets, nil
}

// Loans retrieves the user's loan balances.
func (c *Client) Loans(ctx context.Context) ([]model.Loan, error) {
	var resp loansResponse
	if err := c.read(ctx, "loans", &resp); err != nil {
		return nil, err
	}
	return resp.Loans, nil
}

// Reminders retrieves the user's reminders.
func (c *Client) Reminders(ctx context.Context) ([]model.Reminder, error) {
	var resp remindersResponse
	if err := c.read(ctx, "reminders", &resp); err != nil {
		return nil, err
	}
	return resp.Reminders, nil
}

// Groups retrieves the user's expense-sharing groups.
func (c *Client) Groups(ctx context.Context) ([]model.Group, error) {
	var resp groupsResponse
	if err := c.read(ctx, "groups", &resp); err != nil {
		return nil, err
	}
	return resp.Groups, nil
}

// Contacts retrieves the user's contacts.
func (c *Client) Contacts(ctx context.Context) ([]model.Contact, error) {
	var resp contactsResponse
	if err := c.read(ctx, "contacts", &resp); err != nil {
		return nil, err
	}
	return resp.Contacts, nil
}

// read issues a parameterless GET with retry; all the simple list endpoints
// go through here.
func (c *Client) read(ctx context.Context, endpoint string, out any) error {
	return common.WithRetry(ctx, func() error {
		return c.call(ctx, http.MethodGet, endpoint, nil, nil, out)
	}, c.retryOpts)
}

// Ensure Client implements the Ledger interface.
var _ service.Ledger = (*Client)(nil)
