package http

import (
	"net/http"
	"strings"
	"time"

	"tally/internal/core"
)

type fundSavingsRequest struct {
	CheckingID  string `json:"checking_id"`
	SavingsID   string `json:"savings_id"`
	CategoryID  string `json:"category_id"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

type fundSavingsResponse struct {
	Withdrawal transactionDTO `json:"withdrawal"`
	Deposit    transactionDTO `json:"deposit"`
}

// handleFundSavings moves money from checking into one savings fund as a
// balanced transaction pair.
func (s *Server) handleFundSavings(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req fundSavingsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	checkingID, err := parseFieldID("checking_id", req.CheckingID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	savingsID, err := parseFieldID("savings_id", req.SavingsID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	categoryID, err := parseFieldID("category_id", req.CategoryID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	date := core.DateOf(time.Now())
	if req.Date != "" {
		date, err = parseDate(req.Date)
		if err != nil {
			writeError(w, r, err)
			return
		}
	}

	out, in, err := s.transfers.FundSavings(r.Context(), owner, checkingID, savingsID, categoryID, amount, date, strings.TrimSpace(req.Description))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, fundSavingsResponse{
		Withdrawal: toTransactionDTO(out),
		Deposit:    toTransactionDTO(in),
	})
}

type fundMonthRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

type fundMonthResponse struct {
	Funded int `json:"funded"`
}

// handleFundMonth runs the idempotent bulk funding pass for one month.
func (s *Server) handleFundMonth(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req fundMonthRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	funded, err := s.transfers.FundAllUnfunded(r.Context(), owner, req.Year, req.Month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fundMonthResponse{Funded: funded})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	accountID, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	year, month, err := yearMonth(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	summary, err := s.summaries.Summarize(r.Context(), owner, accountID, year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(summary))
}

func (s *Server) handleSavingsLedger(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	accountID, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ledger, err := s.savings.Ledger(r.Context(), owner, accountID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSavingsLedgerDTO(ledger))
}
