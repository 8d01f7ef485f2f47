package buxfer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/ledgerkeep/buxsync/internal/common"
	"github.com/ledgerkeep/buxsync/internal/model"
	"github.com/ledgerkeep/buxsync/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "abc123-test-token"

// newTestClient wires a client against an httptest server whose login
// endpoint succeeds with testToken. Extra routes are handled by handler.
func newTestClient(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *Client {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "user@example.com", creds["email"])
		assert.Equal(t, "hunter2", creds["password"])
		writeEnvelope(w, map[string]any{"status": "OK", "token": testToken})
	})
	mux.HandleFunc("/", handler)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		Email:    "user@example.com",
		Password: "hunter2",
		BaseURL:  server.URL,
		Timeout:  5 * time.Second,
	})
	require.NoError(t, err)

	client.retryOpts = service.RetryOptions{
		MaxAttempts:  2,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}

	return client
}

func writeEnvelope(w http.ResponseWriter, response any) {
	_ = json.NewEncoder(w).Encode(map[string]any{"response": response})
}

func requireAuth(t *testing.T, r *http.Request) {
	t.Helper()
	assert.Equal(t, testToken, r.URL.Query().Get("token"))
	assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{Password: "x"})
	assert.ErrorIs(t, err, common.ErrMissingConfig)

	_, err = NewClient(Config{Email: "x"})
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestLogin(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	})

	require.NoError(t, client.Login(context.Background()))
}

func TestLogin_BadCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"type": "client", "message": "Email or password incorrect."},
		})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{Email: "a@b.c", Password: "wrong", BaseURL: server.URL})
	require.NoError(t, err)

	err = client.Login(context.Background())
	assert.ErrorIs(t, err, common.ErrAuthFailed)
}

func TestLogin_EmptyToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, map[string]any{"status": "OK"})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{Email: "a@b.c", Password: "p", BaseURL: server.URL})
	require.NoError(t, err)

	assert.ErrorIs(t, client.Login(context.Background()), common.ErrAuthFailed)
}

func TestTransactions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transactions", r.URL.Path)
		requireAuth(t, r)
		assert.Equal(t, "2024-04-01", r.URL.Query().Get("startDate"))
		assert.Equal(t, "2024-04-26", r.URL.Query().Get("endDate"))

		writeEnvelope(w, map[string]any{
			"status":          "OK",
			"numTransactions": "1",
			"transactions": []map[string]any{{
				"id":          207071073,
				"description": "mock expense | some memo here",
				"amount":      11.43,
				"accountId":   123456,
				"date":        "2024-04-26",
				"type":        "expense",
				"status":      "cleared",
			}},
		})
	})

	page, err := client.Transactions(context.Background(), service.TransactionQuery{
		StartDate: "2024-04-01",
		EndDate:   "2024-04-26",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, page.Total, "quoted counter decodes")
	require.Len(t, page.Transactions, 1)
	tx := page.Transactions[0]
	assert.Equal(t, int64(207071073), tx.ID)
	assert.Equal(t, int64(123456), tx.AccountID)
	assert.Equal(t, 11.43, tx.Amount)
	assert.Equal(t, model.StatusCleared, tx.Status)
}

func TestTransactionsInWindow_Pagination(t *testing.T) {
	const total = 150

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transactions", r.URL.Path)
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		require.Positive(t, page)

		start := (page - 1) * pageSize
		count := pageSize
		if start+count > total {
			count = total - start
		}
		txs := make([]map[string]any, count)
		for i := range txs {
			txs[i] = map[string]any{
				"id":        start + i + 1,
				"amount":    1.00,
				"accountId": 123456,
				"date":      "2024-04-26",
			}
		}
		writeEnvelope(w, map[string]any{
			"status":          "OK",
			"numTransactions": total,
			"transactions":    txs,
		})
	})

	all, err := client.TransactionsInWindow(context.Background(), "2024-04-01", "2024-04-26")
	require.NoError(t, err)

	assert.Len(t, all, total)
	assert.Equal(t, int64(1), all[0].ID)
	assert.Equal(t, int64(total), all[total-1].ID)
}

func TestAddTransaction(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transaction_add", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		requireAuth(t, r)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "mock expense | some memo here", payload["description"])
		assert.Equal(t, -11.43, payload["amount"])
		assert.Equal(t, "2024-04-26", payload["date"])
		assert.Equal(t, "expense", payload["type"])
		assert.Equal(t, "cleared", payload["status"])
		assert.Equal(t, "groceries,food", payload["tags"])

		writeEnvelope(w, map[string]any{
			"id":          207071073,
			"description": payload["description"],
			"amount":      payload["amount"],
			"accountId":   123456,
			"date":        payload["date"],
		})
	})

	created, err := client.AddTransaction(context.Background(), model.Transaction{
		Description: "mock expense | some memo here",
		Amount:      -11.43,
		AccountID:   123456,
		Date:        "2024-04-26",
		Type:        model.TypeExpense,
		Status:      model.StatusCleared,
		Tags:        []string{"groceries", "food"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(207071073), created.ID)
}

func TestAddTransaction_Rejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"type": "client", "message": "Invalid accountId."},
		})
	})

	_, err := client.AddTransaction(context.Background(), model.Transaction{Date: "2024-04-26"})
	assert.ErrorIs(t, err, common.ErrWriteRejected)
	assert.Contains(t, err.Error(), "Invalid accountId")
}

func TestEditTransaction(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transaction_edit", r.URL.Path)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, float64(207071073), payload["id"])
		assert.Equal(t, "cleared", payload["status"])

		writeEnvelope(w, map[string]any{"id": 207071073, "status": "cleared"})
	})

	updated, err := client.EditTransaction(context.Background(), model.Transaction{
		ID:     207071073,
		Date:   "2024-04-26",
		Status: model.StatusCleared,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(207071073), updated.ID)
}

func TestEditTransaction_RequiresID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	})

	_, err := client.EditTransaction(context.Background(), model.Transaction{Date: "2024-04-26"})
	assert.ErrorIs(t, err, common.ErrWriteRejected)
}

func TestDeleteTransaction(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transaction_delete", r.URL.Path)
		assert.Equal(t, "207071073", r.URL.Query().Get("id"))
		writeEnvelope(w, map[string]any{"status": "OK"})
	})

	require.NoError(t, client.DeleteTransaction(context.Background(), 207071073))
}

func TestSessionReusedAcrossCalls(t *testing.T) {
	var logins, reads int

	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		logins++
		writeEnvelope(w, map[string]any{"status": "OK", "token": testToken})
	})
	mux.HandleFunc("/accounts", func(w http.ResponseWriter, r *http.Request) {
		reads++
		writeEnvelope(w, map[string]any{"accounts": []map[string]any{{"id": 123456, "name": "Checking"}}})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{Email: "a@b.c", Password: "p", BaseURL: server.URL})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		accounts, err := client.Accounts(context.Background())
		require.NoError(t, err)
		require.Len(t, accounts, 1)
	}

	assert.Equal(t, 1, logins, "token is reused within its validity window")
	assert.Equal(t, 3, reads)
}

func TestCallRenewsRejectedToken(t *testing.T) {
	// The server rejects the first token mid-window; the client must log in
	// again and reissue the request instead of surfacing the 401.
	var logins int

	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		logins++
		writeEnvelope(w, map[string]any{"status": "OK", "token": fmt.Sprintf("token-%d", logins)})
	})
	mux.HandleFunc("/accounts", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") == "token-1" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"type": "client", "message": "Access denied."},
			})
			return
		}
		writeEnvelope(w, map[string]any{"accounts": []map[string]any{{"id": 123456, "name": "Checking"}}})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{Email: "a@b.c", Password: "p", BaseURL: server.URL})
	require.NoError(t, err)

	accounts, err := client.Accounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, 2, logins, "the rejected token triggers exactly one renewal")
}

func TestReadRetriesTransientFailure(t *testing.T) {
	var attempts int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"type": "server", "message": "temporary failure"},
			})
			return
		}
		writeEnvelope(w, map[string]any{"tags": []map[string]any{{"id": 1, "name": "groceries"}}})
	})

	tags, err := client.Tags(context.Background())
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, 2, attempts)
}

func TestFlexInt(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{in: `7`, want: 7},
		{in: `"7"`, want: 7},
		{in: `0`, want: 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("input %s", tt.in), func(t *testing.T) {
			var f flexInt
			require.NoError(t, json.Unmarshal([]byte(tt.in), &f))
			assert.Equal(t, tt.want, int(f))
		})
	}
}
