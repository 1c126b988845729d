package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"tally/internal/amqp"
	"tally/internal/storage"

	"github.com/google/uuid"
)

type capturedPublisher struct {
	messages []*amqp.ImportBatchMessage
}

func (p *capturedPublisher) PublishImportBatch(ctx context.Context, msg *amqp.ImportBatchMessage) error {
	p.messages = append(p.messages, msg)
	return nil
}

func newTestServer(t *testing.T, publisher BatchPublisher) *Server {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "tally.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	srv := NewServer(":0", store, publisher, 1000)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path string, owner uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if owner != uuid.Nil {
		req.Header.Set("X-Owner-ID", owner.String())
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decodeInto(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := doJSON(t, srv, http.MethodGet, path, uuid.Nil, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestOwnerHeaderRequired(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := doJSON(t, srv, http.MethodGet, "/api/accounts", uuid.Nil, nil)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("missing header status=%d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set("X-Owner-ID", "not-a-uuid")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad header status=%d", rec.Code)
	}
}

func TestOnboardFlow(t *testing.T) {
	srv := newTestServer(t, nil)
	owner := uuid.New()

	rr := doJSON(t, srv, http.MethodPost, "/api/onboard", owner, map[string]string{
		"checking_balance": "1500.00",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("onboard status=%d body=%s", rr.Code, rr.Body.String())
	}
	var accounts []accountDTO
	decodeInto(t, rr, &accounts)
	if len(accounts) != 2 {
		t.Fatalf("onboard created %d accounts, want 2", len(accounts))
	}
	roles := map[string]bool{}
	for _, a := range accounts {
		roles[a.Role] = true
	}
	if !roles["checking"] || !roles["savings"] {
		t.Fatalf("onboard roles = %v", roles)
	}

	// Second onboard for the same owner conflicts.
	rr = doJSON(t, srv, http.MethodPost, "/api/onboard", owner, map[string]string{})
	if rr.Code != http.StatusConflict {
		t.Fatalf("repeat onboard status=%d", rr.Code)
	}
}

func TestDuplicateRoleConflicts(t *testing.T) {
	srv := newTestServer(t, nil)
	owner := uuid.New()

	create := map[string]string{"name": "Main", "role": "checking", "opening_balance": "10.00"}
	if rr := doJSON(t, srv, http.MethodPost, "/api/accounts", owner, create); rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	if rr := doJSON(t, srv, http.MethodPost, "/api/accounts", owner, create); rr.Code != http.StatusConflict {
		t.Fatalf("duplicate role status=%d", rr.Code)
	}
}

// seedAPIOwner onboards an owner and creates one category of each type that
// the flow tests need, all through the public API.
func seedAPIOwner(t *testing.T, srv *Server) (uuid.UUID, map[string]accountDTO, map[string]categoryDTO) {
	t.Helper()
	owner := uuid.New()

	rr := doJSON(t, srv, http.MethodPost, "/api/onboard", owner, map[string]string{})
	if rr.Code != http.StatusCreated {
		t.Fatalf("onboard status=%d body=%s", rr.Code, rr.Body.String())
	}
	var accountList []accountDTO
	decodeInto(t, rr, &accountList)
	accounts := map[string]accountDTO{}
	for _, a := range accountList {
		accounts[a.Role] = a
	}

	categories := map[string]categoryDTO{}
	for _, spec := range []struct{ name, typ, budget string }{
		{"Salary", "income", ""},
		{"Groceries", "cash", "400.00"},
		{"Rent", "monthly", "1200.00"},
		{"Vacation", "savings", "200.00"},
		{"Internal transfer", "transfer", ""},
	} {
		rr := doJSON(t, srv, http.MethodPost, "/api/categories", owner, map[string]string{
			"name": spec.name, "type": spec.typ, "budgeted_amount": spec.budget,
		})
		if rr.Code != http.StatusCreated {
			t.Fatalf("create category %s status=%d body=%s", spec.name, rr.Code, rr.Body.String())
		}
		var c categoryDTO
		decodeInto(t, rr, &c)
		categories[spec.typ] = c
	}
	return owner, accounts, categories
}

func TestTransactionAndSummaryFlow(t *testing.T) {
	srv := newTestServer(t, nil)
	owner, accounts, categories := seedAPIOwner(t, srv)
	checking := accounts["checking"]

	post := func(categoryID, amount, description string) {
		t.Helper()
		rr := doJSON(t, srv, http.MethodPost, "/api/transactions", owner, map[string]string{
			"account_id":  checking.ID,
			"category_id": categoryID,
			"amount":      amount,
			"description": description,
			"date":        "2024-03-10",
		})
		if rr.Code != http.StatusCreated {
			t.Fatalf("create transaction %s status=%d body=%s", description, rr.Code, rr.Body.String())
		}
	}
	post(categories["income"].ID, "3000.00", "March salary")
	post(categories["monthly"].ID, "1200.00", "Rent")
	post(categories["cash"].ID, "180.50", "Groceries")

	rr := doJSON(t, srv, http.MethodGet, "/api/accounts/"+checking.ID+"/transactions?year=2024&month=3", owner, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list transactions status=%d", rr.Code)
	}
	var txs []transactionDTO
	decodeInto(t, rr, &txs)
	if len(txs) != 3 {
		t.Fatalf("listed %d transactions, want 3", len(txs))
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/accounts/"+checking.ID+"/summary?year=2024&month=3", owner, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("summary status=%d body=%s", rr.Code, rr.Body.String())
	}
	var summary summaryDTO
	decodeInto(t, rr, &summary)
	if summary.TotalIncome != "3000.00" {
		t.Errorf("TotalIncome = %s, want 3000.00", summary.TotalIncome)
	}
	if summary.TotalExpenses != "1380.50" {
		t.Errorf("TotalExpenses = %s, want 1380.50", summary.TotalExpenses)
	}
	if summary.Net != "1619.50" {
		t.Errorf("Net = %s, want 1619.50", summary.Net)
	}

	// Month 13 is rejected before touching the store.
	rr = doJSON(t, srv, http.MethodGet, "/api/accounts/"+checking.ID+"/summary?year=2024&month=13", owner, nil)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad month status=%d", rr.Code)
	}
}

func TestFundingEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)
	owner, accounts, categories := seedAPIOwner(t, srv)

	rr := doJSON(t, srv, http.MethodPost, "/api/fund", owner, map[string]string{
		"checking_id": accounts["checking"].ID,
		"savings_id":  accounts["savings"].ID,
		"category_id": categories["savings"].ID,
		"amount":      "150.00",
		"date":        "2024-03-01",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("fund status=%d body=%s", rr.Code, rr.Body.String())
	}
	var pair fundSavingsResponse
	decodeInto(t, rr, &pair)
	if pair.Withdrawal.Amount != "-150.00" || pair.Deposit.Amount != "150.00" {
		t.Fatalf("pair amounts = %s / %s", pair.Withdrawal.Amount, pair.Deposit.Amount)
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/fund/month", owner, map[string]int{"year": 2024, "month": 4})
	if rr.Code != http.StatusOK {
		t.Fatalf("fund month status=%d body=%s", rr.Code, rr.Body.String())
	}
	var funded fundMonthResponse
	decodeInto(t, rr, &funded)
	if funded.Funded != 1 {
		t.Fatalf("funded = %d, want 1", funded.Funded)
	}

	// Same month again funds nothing.
	rr = doJSON(t, srv, http.MethodPost, "/api/fund/month", owner, map[string]int{"year": 2024, "month": 4})
	decodeInto(t, rr, &funded)
	if funded.Funded != 0 {
		t.Fatalf("repeat funded = %d, want 0", funded.Funded)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/accounts/"+accounts["savings"].ID+"/savings", owner, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("savings ledger status=%d body=%s", rr.Code, rr.Body.String())
	}
	var ledger savingsLedgerDTO
	decodeInto(t, rr, &ledger)
	if ledger.TotalBalance != "350.00" {
		t.Errorf("TotalBalance = %s, want 350.00", ledger.TotalBalance)
	}
}

func TestSynchronousImportFlow(t *testing.T) {
	srv := newTestServer(t, nil)
	owner, accounts, categories := seedAPIOwner(t, srv)

	rr := doJSON(t, srv, http.MethodPost, "/api/imports", owner, importRequest{
		TargetRole: "checking",
		Records: []importRecordRequest{
			{Description: "Coffee shop", Date: "2024-03-05", Amount: "4.50"},
			{Description: "Refund from store", Date: "2024-03-06", Amount: "80.00"},
		},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("import status=%d body=%s", rr.Code, rr.Body.String())
	}
	var imported importResponse
	decodeInto(t, rr, &imported)
	if imported.Staged != 2 || imported.Queued {
		t.Fatalf("import response = %+v", imported)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/pending?target_role=checking", owner, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list pending status=%d", rr.Code)
	}
	var pending []pendingDTO
	decodeInto(t, rr, &pending)
	if len(pending) != 2 {
		t.Fatalf("pending rows = %d, want 2", len(pending))
	}
	if pending[0].Amount != "-4.50" || pending[1].Amount != "80.00" {
		t.Fatalf("classified amounts = %s / %s", pending[0].Amount, pending[1].Amount)
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/pending/finalize", owner, finalizePendingRequest{
		Items: []finalizeItemRequest{{
			PendingID:  pending[0].ID,
			AccountID:  accounts["checking"].ID,
			CategoryID: categories["cash"].ID,
		}},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("finalize status=%d body=%s", rr.Code, rr.Body.String())
	}
	var finalized finalizePendingResponse
	decodeInto(t, rr, &finalized)
	if finalized.Finalized != 1 {
		t.Fatalf("finalized = %d, want 1", finalized.Finalized)
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/pending/ignore", owner, ignorePendingRequest{
		IDs: []string{pending[1].ID},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("ignore status=%d body=%s", rr.Code, rr.Body.String())
	}

	// Ignoring an already-consumed row is a 404.
	rr = doJSON(t, srv, http.MethodPost, "/api/pending/ignore", owner, ignorePendingRequest{
		IDs: []string{pending[1].ID},
	})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("replay ignore status=%d", rr.Code)
	}
}

func TestImportCSVUpload(t *testing.T) {
	srv := newTestServer(t, nil)
	owner, _, _ := seedAPIOwner(t, srv)

	var buf bytes.Buffer
	const boundary = "statementboundary"
	fmt.Fprintf(&buf, "--%s\r\nContent-Disposition: form-data; name=\"target_role\"\r\n\r\nchecking\r\n", boundary)
	fmt.Fprintf(&buf, "--%s\r\nContent-Disposition: form-data; name=\"statement\"; filename=\"march.csv\"\r\nContent-Type: text/csv\r\n\r\n", boundary)
	buf.WriteString("Description,Date,Amount\nCoffee shop,2024-03-05,4.50\nInterest earned,2024-03-31,1.25\n")
	fmt.Fprintf(&buf, "\r\n--%s--\r\n", boundary)

	req := httptest.NewRequest(http.MethodPost, "/api/imports", &buf)
	req.Header.Set("X-Owner-ID", owner.String())
	req.Header.Set("Content-Type", "multipart/form-data; boundary="+boundary)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("csv import status=%d body=%s", rr.Code, rr.Body.String())
	}
	var imported importResponse
	decodeInto(t, rr, &imported)
	if imported.Staged != 2 {
		t.Fatalf("staged = %d, want 2", imported.Staged)
	}
}

func TestImportPublishesWhenQueueConfigured(t *testing.T) {
	publisher := &capturedPublisher{}
	srv := newTestServer(t, publisher)
	owner := uuid.New()

	rr := doJSON(t, srv, http.MethodPost, "/api/imports", owner, importRequest{
		TargetRole: "checking",
		Records: []importRecordRequest{
			{Description: "Coffee shop", Date: "2024-03-05", Amount: "4.50"},
		},
	})
	if rr.Code != http.StatusAccepted {
		t.Fatalf("queued import status=%d body=%s", rr.Code, rr.Body.String())
	}
	if len(publisher.messages) != 1 {
		t.Fatalf("published %d messages, want 1", len(publisher.messages))
	}
	msg := publisher.messages[0]
	if msg.OwnerID != owner || msg.TargetRole != "checking" {
		t.Fatalf("message routing = %s/%s", msg.OwnerID, msg.TargetRole)
	}
	if msg.Records[0].AmountCents != 450 {
		t.Fatalf("AmountCents = %d, want 450", msg.Records[0].AmountCents)
	}

	// Nothing was staged locally; the worker owns that.
	rr = doJSON(t, srv, http.MethodGet, "/api/pending?target_role=checking", owner, nil)
	var pending []pendingDTO
	decodeInto(t, rr, &pending)
	if len(pending) != 0 {
		t.Fatalf("pending rows = %d, want 0", len(pending))
	}
}

func TestImportRowLimit(t *testing.T) {
	srv := newTestServer(t, nil)
	owner := uuid.New()
	srv.importMaxRows = 1

	rr := doJSON(t, srv, http.MethodPost, "/api/imports", owner, importRequest{
		TargetRole: "checking",
		Records: []importRecordRequest{
			{Description: "a", Date: "2024-03-05", Amount: "1.00"},
			{Description: "b", Date: "2024-03-06", Amount: "2.00"},
		},
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("over-limit import status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "limit") {
		t.Fatalf("body = %s", rr.Body.String())
	}
}

func TestBudgetOverrideEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)
	owner, _, categories := seedAPIOwner(t, srv)
	cat := categories["cash"]

	rr := doJSON(t, srv, http.MethodGet, "/api/categories/"+cat.ID+"/budget?year=2024&month=3", owner, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("resolve status=%d body=%s", rr.Code, rr.Body.String())
	}
	var budget budgetResponse
	decodeInto(t, rr, &budget)
	if budget.Amount != "400.00" {
		t.Fatalf("default budget = %s, want 400.00", budget.Amount)
	}

	rr = doJSON(t, srv, http.MethodPut, "/api/categories/"+cat.ID+"/override", owner, setOverrideRequest{
		Year: 2024, Month: 3, Amount: "250.00",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("set override status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/categories/"+cat.ID+"/budget?year=2024&month=3", owner, nil)
	decodeInto(t, rr, &budget)
	if budget.Amount != "250.00" {
		t.Fatalf("overridden budget = %s, want 250.00", budget.Amount)
	}

	// Adjacent month still resolves the default.
	rr = doJSON(t, srv, http.MethodGet, "/api/categories/"+cat.ID+"/budget?year=2024&month=4", owner, nil)
	decodeInto(t, rr, &budget)
	if budget.Amount != "400.00" {
		t.Fatalf("adjacent month budget = %s, want 400.00", budget.Amount)
	}
}

func TestOwnersAreIsolated(t *testing.T) {
	srv := newTestServer(t, nil)
	owner, accounts, _ := seedAPIOwner(t, srv)
	stranger := uuid.New()

	rr := doJSON(t, srv, http.MethodGet, "/api/accounts/"+accounts["checking"].ID+"/summary?year=2024&month=3", stranger, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("foreign summary status=%d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/accounts", owner, nil)
	var own []accountDTO
	decodeInto(t, rr, &own)
	if len(own) != 2 {
		t.Fatalf("owner sees %d accounts, want 2", len(own))
	}
	rr = doJSON(t, srv, http.MethodGet, "/api/accounts", stranger, nil)
	var others []accountDTO
	decodeInto(t, rr, &others)
	if len(others) != 0 {
		t.Fatalf("stranger sees %d accounts, want 0", len(others))
	}
}
