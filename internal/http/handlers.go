package http

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"strings"

	"billtrack/internal/core"
)

type paymentDTO struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Notes       string `json:"notes,omitempty"`
}

func toPaymentDTO(p core.Payment) paymentDTO {
	return paymentDTO{
		ID:          p.ID,
		Category:    p.Category,
		AmountCents: p.Amount.Cents,
		Amount:      formatCents(p.Amount.Cents),
		Date:        p.Date,
		Notes:       p.Notes,
	}
}

// paymentInput accepts the amount as a decimal string or JSON number;
// either way it goes through the strict decimal parser.
type paymentInput struct {
	Category string      `json:"category"`
	Amount   json.Number `json:"amount"`
	Date     string      `json:"date"`
	Notes    string      `json:"notes"`
}

func (in paymentInput) toPayment() (core.Payment, error) {
	cents, err := core.ParseDecimalToCents(in.Amount.String())
	if err != nil {
		return core.Payment{}, err
	}
	return core.Payment{
		Category: strings.TrimSpace(in.Category),
		Amount:   core.Money{Cents: cents},
		Date:     strings.TrimSpace(in.Date),
		Notes:    strings.TrimSpace(in.Notes),
	}, nil
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshots.Load(r.Context(), userID(r))
	if err != nil {
		s.logger.ErrorContext(r.Context(), "snapshot load failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "data temporarily unavailable")
		return
	}
	out := make([]paymentDTO, 0, len(snap.Payments))
	for _, p := range snap.Payments.SortedNewestFirst() {
		out = append(out, toPaymentDTO(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var in paymentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	p, err := in.toPayment()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	uid := userID(r)
	created, err := s.payments.Create(r.Context(), uid, p)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.dashCache.Invalidate(uid)
	writeJSON(w, http.StatusCreated, toPaymentDTO(created))
}

func (s *Server) handleCreatePaymentsBulk(w http.ResponseWriter, r *http.Request) {
	var ins []paymentInput
	if err := json.NewDecoder(r.Body).Decode(&ins); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	if len(ins) == 0 {
		writeError(w, http.StatusBadRequest, "empty payment batch")
		return
	}

	payments := make([]core.Payment, 0, len(ins))
	for _, in := range ins {
		p, err := in.toPayment()
		if err != nil {
			writeDomainError(w, err)
			return
		}
		payments = append(payments, p)
	}

	uid := userID(r)
	created, err := s.payments.CreateBulk(r.Context(), uid, payments)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.dashCache.Invalidate(uid)

	out := make([]paymentDTO, 0, len(created))
	for _, p := range created {
		out = append(out, toPaymentDTO(p))
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleUpdatePayment(w http.ResponseWriter, r *http.Request) {
	var in paymentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	p, err := in.toPayment()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	p.ID = r.PathValue("id")

	uid := userID(r)
	if err := s.payments.Update(r.Context(), uid, p); err != nil {
		writeDomainError(w, err)
		return
	}
	s.dashCache.Invalidate(uid)
	writeJSON(w, http.StatusOK, toPaymentDTO(p))
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if err := s.payments.Delete(r.Context(), uid, r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	s.dashCache.Invalidate(uid)
	w.WriteHeader(http.StatusNoContent)
}

// handleExportPayments streams the ledger as CSV in the storage column
// order: Date, Category, Amount, Notes, ID.
func (s *Server) handleExportPayments(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshots.Load(r.Context(), userID(r))
	if err != nil {
		s.logger.ErrorContext(r.Context(), "snapshot load failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "data temporarily unavailable")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="payments.csv"`)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"Date", "Category", "Amount", "Notes", "ID"})
	for _, p := range snap.Payments.SortedNewestFirst() {
		_ = cw.Write([]string{p.Date, p.Category, formatCents(p.Amount.Cents), p.Notes, p.ID})
	}
	cw.Flush()
}

type expenseDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon,omitempty"`
	Variant     string `json:"variant"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`

	DueDay        int    `json:"due_day,omitempty"`
	DueDate       string `json:"due_date,omitempty"`
	TotalPayments int    `json:"total_payments,omitempty"`

	CurrentBalanceCents int64   `json:"current_balance_cents,omitempty"`
	MinPaymentCents     int64   `json:"min_payment_cents,omitempty"`
	CreditLimitCents    int64   `json:"credit_limit_cents,omitempty"`
	InterestRate        float64 `json:"interest_rate,omitempty"`
	BillingCloseDay     int     `json:"billing_close_day,omitempty"`
}

func toExpenseDTO(e core.Expense) expenseDTO {
	dto := expenseDTO{
		ID:                  e.ID,
		Name:                e.Name,
		Icon:                e.Icon,
		Variant:             string(e.Variant),
		AmountCents:         e.Amount.Cents,
		Amount:              formatCents(e.Amount.Cents),
		DueDay:              e.DueDay,
		TotalPayments:       e.TotalPayments,
		CurrentBalanceCents: e.CurrentBalance.Cents,
		MinPaymentCents:     e.MinPayment.Cents,
		CreditLimitCents:    e.CreditLimit.Cents,
		InterestRate:        e.InterestRate,
		BillingCloseDay:     e.BillingCloseDay,
	}
	if !e.DueDate.IsZero() {
		dto.DueDate = e.DueDate.String()
	}
	return dto
}

type expenseInput struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Icon    string      `json:"icon"`
	Variant string      `json:"variant"`
	Amount  json.Number `json:"amount"`

	DueDay        int    `json:"due_day"`
	DueDate       string `json:"due_date"`
	TotalPayments int    `json:"total_payments"`

	CurrentBalance json.Number `json:"current_balance"`
	MinPayment     json.Number `json:"min_payment"`
	CreditLimit    json.Number `json:"credit_limit"`
	InterestRate   float64     `json:"interest_rate"`
	BillingClose   int         `json:"billing_close_day"`
}

// optionalMoney parses a decimal that may be absent. Empty and "0" mean
// the field was not set.
func optionalMoney(n json.Number) (core.Money, error) {
	s := strings.TrimSpace(n.String())
	if s == "" || s == "0" {
		return core.Money{}, nil
	}
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}

func (in expenseInput) toExpense() (core.Expense, error) {
	variant, err := core.ParseVariant(in.Variant)
	if err != nil {
		return core.Expense{}, err
	}
	cents, err := core.ParseDecimalToCents(in.Amount.String())
	if err != nil {
		return core.Expense{}, err
	}

	e := core.Expense{
		ID:              strings.TrimSpace(in.ID),
		Name:            strings.TrimSpace(in.Name),
		Icon:            strings.TrimSpace(in.Icon),
		Variant:         variant,
		Amount:          core.Money{Cents: cents},
		DueDay:          in.DueDay,
		TotalPayments:   in.TotalPayments,
		InterestRate:    in.InterestRate,
		BillingCloseDay: in.BillingClose,
	}
	if d := strings.TrimSpace(in.DueDate); d != "" {
		due, err := core.ParseLocalDate(d)
		if err != nil {
			return core.Expense{}, err
		}
		e.DueDate = due
	}
	if e.CurrentBalance, err = optionalMoney(in.CurrentBalance); err != nil {
		return core.Expense{}, err
	}
	if e.MinPayment, err = optionalMoney(in.MinPayment); err != nil {
		return core.Expense{}, err
	}
	if e.CreditLimit, err = optionalMoney(in.CreditLimit); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	reg, err := s.registry.List(r.Context(), userID(r))
	if err != nil {
		s.logger.ErrorContext(r.Context(), "registry load failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "data temporarily unavailable")
		return
	}
	out := make([]expenseDTO, 0, len(reg))
	for _, e := range reg {
		out = append(out, toExpenseDTO(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var in expenseInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	e, err := in.toExpense()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	uid := userID(r)
	created, err := s.registry.Add(r.Context(), uid, e)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.dashCache.Invalidate(uid)
	writeJSON(w, http.StatusCreated, toExpenseDTO(created))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var in expenseInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	e, err := in.toExpense()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	e.ID = r.PathValue("id")

	uid := userID(r)
	if err := s.registry.Edit(r.Context(), uid, e); err != nil {
		writeDomainError(w, err)
		return
	}
	s.dashCache.Invalidate(uid)
	writeJSON(w, http.StatusOK, toExpenseDTO(e))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if err := s.registry.Delete(r.Context(), uid, r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	s.dashCache.Invalidate(uid)
	w.WriteHeader(http.StatusNoContent)
}
