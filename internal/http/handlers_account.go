package http

import (
	"net/http"

	"tally/internal/core"
)

type onboardRequest struct {
	CheckingBalance string `json:"checking_balance"`
	SavingsBalance  string `json:"savings_balance"`
}

func (s *Server) handleOnboard(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req onboardRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	checking, err := optionalAmount(req.CheckingBalance)
	if err != nil {
		writeError(w, r, err)
		return
	}
	savings, err := optionalAmount(req.SavingsBalance)
	if err != nil {
		writeError(w, r, err)
		return
	}

	accounts, err := s.accounts.Onboard(r.Context(), owner, checking, savings)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountDTOs(accounts))
}

type createAccountRequest struct {
	Name           string `json:"name"`
	Role           string `json:"role"`
	OpeningBalance string `json:"opening_balance"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req createAccountRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	balance, err := optionalAmount(req.OpeningBalance)
	if err != nil {
		writeError(w, r, err)
		return
	}

	account, err := s.accounts.CreateAccount(r.Context(), owner, req.Name, core.Role(req.Role), balance)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountDTO(account))
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	accounts, err := s.accounts.ListAccounts(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTOs(accounts))
}

// optionalAmount treats an absent field as zero; opening balances are not
// required.
func optionalAmount(s string) (core.Money, error) {
	if s == "" {
		return core.Money{}, nil
	}
	return parseAmount(s)
}
