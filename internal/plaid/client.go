// Package plaid provides a Plaid-backed candidate transaction source.
package plaid

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ledgerkeep/buxsync/internal/common"
	"github.com/ledgerkeep/buxsync/internal/model"
	"github.com/ledgerkeep/buxsync/internal/service"
	"github.com/plaid/plaid-go/v20/plaid"
)

// Config holds Plaid API configuration.
type Config struct {
	ClientID    string
	Secret      string
	Environment string // sandbox or production
	AccessToken string
	// AccountMap maps Plaid account IDs to ledger account IDs. Plaid
	// transactions for unmapped accounts are skipped.
	AccountMap map[string]int64
}

// Validate ensures all required fields are present.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("%w: plaid client ID is required", common.ErrMissingConfig)
	}
	if c.Secret == "" {
		return fmt.Errorf("%w: plaid secret is required", common.ErrMissingConfig)
	}
	if c.AccessToken == "" {
		return fmt.Errorf("%w: plaid access token is required", common.ErrMissingConfig)
	}
	if c.Environment != "sandbox" && c.Environment != "production" {
		return fmt.Errorf("%w: plaid environment must be sandbox or production", common.ErrInvalidConfig)
	}
	if len(c.AccountMap) == 0 {
		return fmt.Errorf("%w: plaid account map is required", common.ErrMissingConfig)
	}
	return nil
}

// Client fetches transactions from Plaid and maps them into sync
// candidates. It implements service.TransactionSource.
type Client struct {
	client      *plaid.APIClient
	logger      *slog.Logger
	accountMap  map[string]int64
	accessToken string
	retryOpts   service.RetryOptions
}

// NewClient creates a new Plaid client with the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	configuration.AddDefaultHeader("PLAID-SECRET", cfg.Secret)

	switch cfg.Environment {
	case "sandbox":
		configuration.UseEnvironment(plaid.Sandbox)
	case "production":
		configuration.UseEnvironment(plaid.Production)
	}

	return &Client{
		client:      plaid.NewAPIClient(configuration),
		accessToken: cfg.AccessToken,
		accountMap:  cfg.AccountMap,
		logger:      slog.Default().With("component", "plaid"),
		retryOpts: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}, nil
}

// GetTransactions fetches transactions from Plaid within the date range and
// maps them to candidates for the configured ledger accounts.
func (c *Client) GetTransactions(ctx context.Context, startDate, endDate time.Time) ([]model.Transaction, error) {
	if startDate.After(endDate) {
		return nil, fmt.Errorf("start date must be before end date")
	}

	c.logger.Info("Fetching transactions from Plaid",
		"start_date", startDate.Format(model.BuxferDateFormat),
		"end_date", endDate.Format(model.BuxferDateFormat))

	var allTransactions []plaid.Transaction
	offset := int32(0)
	const pageSize = int32(500) // Plaid's max page size

	for {
		var page []plaid.Transaction

		retryErr := common.WithRetry(ctx, func() error {
			request := plaid.NewTransactionsGetRequest(
				c.accessToken,
				startDate.Format(model.BuxferDateFormat),
				endDate.Format(model.BuxferDateFormat),
			)
			options := plaid.TransactionsGetRequestOptions{
				Count:  plaid.PtrInt32(pageSize),
				Offset: plaid.PtrInt32(offset),
			}
			request.SetOptions(options)

			resp, _, err := c.client.PlaidApi.TransactionsGet(ctx).TransactionsGetRequest(*request).Execute()
			if err != nil {
				if plaidError := extractPlaidError(err); plaidError != nil {
					if plaidError.ErrorCode == "RATE_LIMIT_EXCEEDED" {
						c.logger.Warn("Rate limit hit, will retry", "error", plaidError.ErrorMessage)
						return &common.RetryableError{Err: err, Retryable: true}
					}
					return fmt.Errorf("plaid API error: %s - %s", plaidError.ErrorCode, plaidError.ErrorMessage)
				}
				return fmt.Errorf("failed to fetch transactions: %w", err)
			}

			page = resp.GetTransactions()
			return nil
		}, c.retryOpts)

		if retryErr != nil {
			return nil, retryErr
		}

		allTransactions = append(allTransactions, page...)

		if len(page) < int(pageSize) {
			break
		}
		offset += pageSize
	}

	candidates := make([]model.Transaction, 0, len(allTransactions))
	skipped := 0
	for _, pt := range allTransactions {
		accountID, ok := c.accountMap[pt.GetAccountId()]
		if !ok {
			skipped++
			continue
		}
		candidates = append(candidates, c.mapTransaction(pt, accountID))
	}

	c.logger.Info("Fetched Plaid candidates",
		"count", len(candidates),
		"skipped_unmapped", skipped)

	return candidates, nil
}

// mapTransaction converts a Plaid transaction into a sync candidate.
// Plaid encodes debits as positive amounts; the ledger candidate convention
// is the opposite, so the sign flips.
func (c *Client) mapTransaction(pt plaid.Transaction, accountID int64) model.Transaction {
	amount := -pt.GetAmount()

	txType := model.TypeExpense
	if amount > 0 {
		txType = model.TypeIncome
	}

	status := model.StatusCleared
	if pt.GetPending() {
		status = model.StatusPending
	}

	description := pt.GetName()
	if merchant := pt.GetMerchantName(); merchant != "" && merchant != description {
		description = fmt.Sprintf("%s | %s", merchant, description)
	}

	return model.Transaction{
		Description: description,
		Amount:      amount,
		AccountID:   accountID,
		Date:        pt.GetDate(),
		Type:        txType,
		Status:      status,
	}
}

// extractPlaidError attempts to extract a Plaid error from a generic error.
func extractPlaidError(err error) *plaid.PlaidError {
	plaidErr, convErr := plaid.ToPlaidError(err)
	if convErr != nil {
		return nil
	}
	return &plaidErr
}

// Ensure Client implements the TransactionSource interface.
var _ service.TransactionSource = (*Client)(nil)
