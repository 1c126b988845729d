package http

import (
	"fmt"
	"net/http"
	"strings"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/services"
	"tally/internal/statement"

	"github.com/google/uuid"
)

const maxStatementUploadBytes = 10 << 20

type importRecordRequest struct {
	Description string `json:"description"`
	Date        string `json:"date"`
	Amount      string `json:"amount"`
}

type importRequest struct {
	TargetRole string                `json:"target_role"`
	Records    []importRecordRequest `json:"records"`
}

type importResponse struct {
	Staged int  `json:"staged"`
	Queued bool `json:"queued"`
}

// handleImportStatement accepts a bank statement either as a multipart CSV
// upload (field "statement") or as a JSON record list. With a queue
// configured the batch is published for the import worker; otherwise it is
// staged synchronously.
func (s *Server) handleImportStatement(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var (
		targetRole core.Role
		records    []services.StatementRecord
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		targetRole, records, err = s.readStatementUpload(r)
	} else {
		targetRole, records, err = s.readStatementJSON(r)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	if s.importMaxRows > 0 && len(records) > s.importMaxRows {
		writeError(w, r, fmt.Errorf("%w: statement has %d rows, limit is %d", core.ErrValidation, len(records), s.importMaxRows))
		return
	}

	if s.publisher != nil {
		wire := make([]amqp.ImportRecord, 0, len(records))
		for _, rec := range records {
			wire = append(wire, amqp.ImportRecord{
				Description: rec.Description,
				Date:        rec.Date.Format("2006-01-02"),
				AmountCents: rec.Amount.Abs().Cents,
			})
		}
		msg := amqp.NewImportBatchMessage(owner, string(targetRole), wire)
		if err := s.publisher.PublishImportBatch(r.Context(), msg); err != nil {
			writeError(w, r, fmt.Errorf("publish import batch: %w", err))
			return
		}
		writeJSON(w, http.StatusAccepted, importResponse{Staged: len(records), Queued: true})
		return
	}

	staged, err := s.reconciler.ImportStatement(r.Context(), owner, targetRole, records)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, importResponse{Staged: staged})
}

func (s *Server) readStatementUpload(r *http.Request) (core.Role, []services.StatementRecord, error) {
	if err := r.ParseMultipartForm(maxStatementUploadBytes); err != nil {
		return "", nil, fmt.Errorf("%w: parse upload: %v", core.ErrValidation, err)
	}
	targetRole := core.Role(r.FormValue("target_role"))

	file, _, err := r.FormFile("statement")
	if err != nil {
		return "", nil, fmt.Errorf("%w: missing statement file", core.ErrValidation)
	}
	defer file.Close()

	parsed, err := statement.ParseCSV(file)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", core.ErrValidation, err)
	}

	records := make([]services.StatementRecord, 0, len(parsed))
	for _, rec := range parsed {
		records = append(records, services.StatementRecord{
			Description: rec.Description,
			Date:        rec.Date,
			Amount:      rec.Amount,
		})
	}
	return targetRole, records, nil
}

func (s *Server) readStatementJSON(r *http.Request) (core.Role, []services.StatementRecord, error) {
	var req importRequest
	if err := decodeBody(r, &req); err != nil {
		return "", nil, err
	}

	records := make([]services.StatementRecord, 0, len(req.Records))
	for i, rec := range req.Records {
		date, err := parseDate(rec.Date)
		if err != nil {
			return "", nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		amount, err := parseAmount(strings.TrimPrefix(strings.TrimSpace(rec.Amount), "-"))
		if err != nil {
			return "", nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		records = append(records, services.StatementRecord{
			Description: rec.Description,
			Date:        date,
			Amount:      amount,
		})
	}
	return core.Role(req.TargetRole), records, nil
}

func (s *Server) handleListPending(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	targetRole := core.Role(r.URL.Query().Get("target_role"))

	pending, err := s.reconciler.ListPending(r.Context(), owner, targetRole)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]pendingDTO, 0, len(pending))
	for _, p := range pending {
		out = append(out, toPendingDTO(p))
	}
	writeJSON(w, http.StatusOK, out)
}

type ignorePendingRequest struct {
	IDs []string `json:"ids"`
}

type ignorePendingResponse struct {
	Ignored int `json:"ignored"`
}

func (s *Server) handleIgnorePending(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req ignorePendingRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := parseFieldID("id", raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
		ids = append(ids, id)
	}

	ignored, err := s.reconciler.IgnorePending(r.Context(), owner, ids)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ignorePendingResponse{Ignored: ignored})
}

type finalizeItemRequest struct {
	PendingID  string `json:"pending_id"`
	AccountID  string `json:"account_id"`
	CategoryID string `json:"category_id"`
}

type finalizePendingRequest struct {
	Items []finalizeItemRequest `json:"items"`
}

type finalizePendingResponse struct {
	Finalized int `json:"finalized"`
}

func (s *Server) handleFinalizePending(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req finalizePendingRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	items := make([]services.FinalizeItem, 0, len(req.Items))
	for _, item := range req.Items {
		pendingID, err := parseFieldID("pending_id", item.PendingID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		accountID, err := parseFieldID("account_id", item.AccountID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		categoryID, err := parseFieldID("category_id", item.CategoryID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		items = append(items, services.FinalizeItem{
			PendingID:  pendingID,
			AccountID:  accountID,
			CategoryID: categoryID,
		})
	}

	finalized, err := s.reconciler.FinalizePending(r.Context(), owner, items)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, finalizePendingResponse{Finalized: finalized})
}
