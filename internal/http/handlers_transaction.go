package http

import (
	"net/http"
	"strings"

	"tally/internal/core"

	"github.com/google/uuid"
)

type createTransactionRequest struct {
	AccountID   string `json:"account_id"`
	CategoryID  string `json:"category_id"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req createTransactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	accountID, err := parseFieldID("account_id", req.AccountID)
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
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	tx, err := s.transactions.CreateTransaction(r.Context(), owner, accountID, categoryID, amount, strings.TrimSpace(req.Description), date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(tx))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
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

	txs, err := s.transactions.ListByMonth(r.Context(), owner, accountID, year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTOs(txs))
}

type updateTransactionRequest struct {
	CategoryID  *string `json:"category_id"`
	Amount      *string `json:"amount"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req updateTransactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var patch core.TransactionPatch
	if req.CategoryID != nil {
		categoryID, err := parseFieldID("category_id", *req.CategoryID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		patch.CategoryID = &categoryID
	}
	if req.Amount != nil {
		amount, err := parseAmount(*req.Amount)
		if err != nil {
			writeError(w, r, err)
			return
		}
		patch.Amount = &amount
	}
	patch.Description = req.Description
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			writeError(w, r, err)
			return
		}
		patch.Date = &date
	}

	tx, err := s.transactions.UpdateTransaction(r.Context(), owner, id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(tx))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.transactions.DeleteTransaction(r.Context(), owner, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTransfers(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	year, month, err := yearMonth(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	txs, err := s.transactions.ListTransfers(r.Context(), owner, year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTOs(txs))
}

func parseFieldID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, invalidField(field, raw)
	}
	return id, nil
}
