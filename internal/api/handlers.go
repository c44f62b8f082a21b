package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tabsplit/tabsplit/internal/middleware"
	"github.com/tabsplit/tabsplit/internal/models"
	"github.com/tabsplit/tabsplit/internal/money"
	"github.com/tabsplit/tabsplit/internal/service"
)

// All monetary fields on the wire are integer cents.

type itemRequest struct {
	ID       string       `json:"id,omitempty"`
	Name     string       `json:"name"`
	Quantity int64        `json:"quantity"`
	Price    *money.Cents `json:"price,omitempty"`
}

type createReceiptRequest struct {
	ClientReceiptID string        `json:"client_receipt_id"`
	Items           []itemRequest `json:"items"`
	ReceiptTotal    *money.Cents  `json:"receipt_total,omitempty"`
	Subtotal        *money.Cents  `json:"subtotal,omitempty"`
	Tax             *money.Cents  `json:"tax,omitempty"`
	Gratuity        *money.Cents  `json:"gratuity,omitempty"`
}

type receiptResponse struct {
	ID             string                `json:"id"`
	ShareCode      string                `json:"share_code"`
	Phase          models.Phase          `json:"phase"`
	IsActive       bool                  `json:"is_active"`
	ArchivedReason models.ArchivedReason `json:"archived_reason,omitempty"`
	Items          []itemResponse        `json:"items"`
	ReceiptTotal   *money.Cents          `json:"receipt_total,omitempty"`
	Subtotal       *money.Cents          `json:"subtotal,omitempty"`
	Tax            *money.Cents          `json:"tax,omitempty"`
	Gratuity       *money.Cents          `json:"gratuity,omitempty"`
	ExtraFeesTotal money.Cents           `json:"extra_fees_total"`
	CreatedAt      int64                 `json:"created_at"`
	FinalizedAt    int64                 `json:"finalized_at,omitempty"`
}

type itemResponse struct {
	Key      string       `json:"key"`
	Name     string       `json:"name"`
	Quantity int64        `json:"quantity"`
	Price    *money.Cents `json:"price,omitempty"`
}

func toReceiptResponse(r *models.Receipt) receiptResponse {
	resp := receiptResponse{
		ID:             r.ID,
		ShareCode:      r.ShareCode,
		Phase:          r.Phase,
		IsActive:       r.IsActive,
		ArchivedReason: r.ArchivedReason,
		ReceiptTotal:   r.ReceiptTotal,
		Subtotal:       r.Subtotal,
		Tax:            r.Tax,
		Gratuity:       r.Gratuity,
		ExtraFeesTotal: r.ExtraFeesTotal,
		CreatedAt:      r.CreatedAt,
		FinalizedAt:    r.FinalizedAt,
	}
	for _, item := range r.Items {
		resp.Items = append(resp.Items, itemResponse{
			Key:      item.Key,
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}
	return resp
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (s *Server) handleCreateReceipt(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r.Context())

	var req createReceiptRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	input := service.ReceiptInput{
		ReceiptTotal: req.ReceiptTotal,
		Subtotal:     req.Subtotal,
		Tax:          req.Tax,
		Gratuity:     req.Gratuity,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, service.ItemInput{
			ClientID: item.ID,
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	receipt, err := s.settlements.CreateReceipt(r.Context(), id, req.ClientReceiptID, input)
	if err != nil {
		writeError(w, err)
		return
	}
	receiptsCreated.Inc()
	writeJSON(w, http.StatusOK, map[string]string{
		"id":         receipt.ID,
		"share_code": receipt.ShareCode,
	})
}

func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := s.settlements.GetReceipt(r.Context(), chi.URLParam(r, "shareCode"))
	if err != nil {
		writeError(w, err)
		return
	}
	if receipt == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, toReceiptResponse(receipt))
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r.Context())

	var req struct {
		DisplayName string `json:"display_name"`
	}
	// A bare join with no body is fine.
	decode(r, &req)

	receipt, err := s.settlements.Join(r.Context(), chi.URLParam(r, "shareCode"), id, req.DisplayName)
	if err != nil {
		writeError(w, err)
		return
	}
	if receipt == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, toReceiptResponse(receipt))
}

func (s *Server) handleGetSettlement(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.settlements.Snapshot(r.Context(), chi.URLParam(r, "shareCode"))
	if err != nil {
		writeError(w, err)
		return
	}
	if snapshot == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleAdjustClaim(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r.Context())

	var req struct {
		ItemKey string `json:"item_key"`
		Delta   int64  `json:"delta"`
	}
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	applied, qty, err := s.settlements.AdjustClaim(r.Context(), chi.URLParam(r, "shareCode"), req.ItemKey, id, req.Delta)
	if err != nil {
		writeError(w, err)
		return
	}
	if applied != 0 {
		claimsAdjusted.Inc()
	}
	writeJSON(w, http.StatusOK, map[string]int64{
		"applied_delta": applied,
		"quantity":      qty,
	})
}

func (s *Server) handleSetSubmission(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r.Context())

	var req struct {
		Submitted bool `json:"submitted"`
	}
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := s.settlements.SetSubmissionStatus(r.Context(), chi.URLParam(r, "shareCode"), id, req.Submitted); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"submitted": req.Submitted})
}

func (s *Server) handleRemoveParticipant(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r.Context())

	err := s.settlements.RemoveParticipant(r.Context(), chi.URLParam(r, "shareCode"), id, chi.URLParam(r, "participantKey"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r.Context())

	if err := s.settlements.Finalize(r.Context(), chi.URLParam(r, "shareCode"), id); err != nil {
		writeError(w, err)
		return
	}
	settlementsFinalized.Inc()
	writeJSON(w, http.StatusOK, map[string]string{"phase": string(models.PhaseFinalized)})
}

func (s *Server) handleMarkPayment(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r.Context())

	var req struct {
		Method string `json:"method"`
	}
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	method, err := models.ParsePaymentMethod(req.Method)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	p, err := s.settlements.MarkPaymentIntent(r.Context(), chi.URLParam(r, "shareCode"), id, method)
	if err != nil {
		writeError(w, err)
		return
	}
	if p == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"payment_status": p.PaymentStatus,
		"method":         p.PaymentMethod,
		"amount":         p.PaymentAmount,
	})
}

func (s *Server) handleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r.Context())

	confirmed, archived, err := s.settlements.ConfirmPayment(r.Context(), chi.URLParam(r, "shareCode"), id, chi.URLParam(r, "participantKey"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{
		"confirmed": confirmed,
		"archived":  archived,
	})
}

func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	receipts, err := s.settlements.ListReceipts(r.Context(), middleware.GetIdentity(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]receiptResponse, 0, len(receipts))
	for _, receipt := range receipts {
		resp = append(resp, toReceiptResponse(receipt))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	s.handleLifecycle(w, r, s.settlements.Archive)
}

func (s *Server) handleUnarchive(w http.ResponseWriter, r *http.Request) {
	s.handleLifecycle(w, r, s.settlements.Unarchive)
}

func (s *Server) handleDestroy(w http.ResponseWriter, r *http.Request) {
	s.handleLifecycle(w, r, s.settlements.Destroy)
}

func (s *Server) handleLifecycle(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, owner models.Identity, clientReceiptID string) (bool, error)) {
	id := middleware.GetIdentity(r.Context())
	ok, err := op(r.Context(), id, chi.URLParam(r, "clientReceiptID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": ok})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
		Password    string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	user, token, err := s.accounts.Register(r.Context(), req.Email, req.DisplayName, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"user_id": user.ID,
		"token":   token,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	user, token, err := s.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"user_id": user.ID,
		"token":   token,
	})
}

func (s *Server) handleSetPaymentOptions(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r.Context())

	var req struct {
		Options []struct {
			Method string `json:"method"`
			Handle string `json:"handle"`
		} `json:"options"`
	}
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	options := make([]models.PaymentOption, 0, len(req.Options))
	for _, opt := range req.Options {
		method, err := models.ParsePaymentMethod(opt.Method)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		options = append(options, models.PaymentOption{Method: method, Handle: opt.Handle})
	}

	if err := s.accounts.SetPaymentOptions(r.Context(), id, options); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": len(options)})
}

func (s *Server) handleGetPaymentOptions(w http.ResponseWriter, r *http.Request) {
	options, err := s.accounts.GetPaymentOptions(r.Context(), middleware.GetIdentity(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, options)
}
