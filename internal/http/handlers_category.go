package http

import (
	"net/http"

	"tally/internal/core"
)

type createCategoryRequest struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	BudgetedAmount string `json:"budgeted_amount"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req createCategoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	budgeted, err := parseBudgetAmount(req.BudgetedAmount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	cat, err := s.categories.CreateCategory(r.Context(), owner, req.Name, core.CategoryType(req.Type), budgeted)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryDTO(cat))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	cats, err := s.categories.ListCategories(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]categoryDTO, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryDTO(c))
	}
	writeJSON(w, http.StatusOK, out)
}

type updateCategoryRequest struct {
	Name           *string `json:"name"`
	Type           *string `json:"type"`
	BudgetedAmount *string `json:"budgeted_amount"`
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
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

	var req updateCategoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var patch core.CategoryPatch
	patch.Name = req.Name
	if req.Type != nil {
		t := core.CategoryType(*req.Type)
		patch.Type = &t
	}
	if req.BudgetedAmount != nil {
		amount, err := parseBudgetAmount(*req.BudgetedAmount)
		if err != nil {
			writeError(w, r, err)
			return
		}
		patch.BudgetedAmount = &amount
	}

	cat, err := s.categories.UpdateCategory(r.Context(), owner, id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryDTO(cat))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
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

	if err := s.categories.DeleteCategory(r.Context(), owner, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type budgetResponse struct {
	CategoryID string `json:"category_id"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	Amount     string `json:"amount"`
}

func (s *Server) handleResolveBudget(w http.ResponseWriter, r *http.Request) {
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
	year, month, err := yearMonth(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	amount, err := s.budgets.Resolve(r.Context(), owner, id, year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, budgetResponse{
		CategoryID: id.String(),
		Year:       year,
		Month:      month,
		Amount:     amount.String(),
	})
}

type setOverrideRequest struct {
	Year   int    `json:"year"`
	Month  int    `json:"month"`
	Amount string `json:"amount"`
}

func (s *Server) handleSetOverride(w http.ResponseWriter, r *http.Request) {
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

	var req setOverrideRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	amount, err := parseBudgetAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	override, err := s.budgets.SetOverride(r.Context(), owner, id, req.Year, req.Month, amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, budgetResponse{
		CategoryID: override.CategoryID.String(),
		Year:       override.Year,
		Month:      override.Month,
		Amount:     override.Amount.String(),
	})
}
