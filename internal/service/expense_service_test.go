package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"github.com/mmynk/housemates/internal/metrics"
	"github.com/mmynk/housemates/internal/models"
	"github.com/mmynk/housemates/internal/settlement"
)

type flat struct {
	h, a, v account
	group   *Group
}

// setupFlat registers three flatmates sharing one group.
func setupFlat(t *testing.T, s *testServer) flat {
	t.Helper()
	f := flat{
		h: s.register(t, "h@example.com", "Harriet"),
		a: s.register(t, "a@example.com", "Arjun"),
		v: s.register(t, "v@example.com", "Vera"),
	}
	f.group = s.household(t, "Flat", f.h, f.a, f.v)
	return f
}

func (s *testServer) pay(t *testing.T, by account, groupID, amount, description string) *Payment {
	t.Helper()
	resp, err := s.expense.RecordPayment(context.Background(), authed(by, &RecordPaymentRequest{
		GroupID:     groupID,
		Amount:      amount,
		Description: description,
	}))
	if err != nil {
		t.Fatalf("RecordPayment(%s, %s) failed: %v", by.user.DisplayName, amount, err)
	}
	return resp.Msg.Payment
}

func TestRecordPayment(t *testing.T) {
	s := setupTestServer(t)
	f := setupFlat(t, s)

	p := s.pay(t, f.h, f.group.ID, "12", "Bread")
	if p.ID == "" {
		t.Error("expected payment ID")
	}
	if p.Amount != "12.00" {
		t.Errorf("Amount = %q, want 12.00", p.Amount)
	}
	if p.PayerID != f.h.user.ID || p.PayerName != "Harriet" {
		t.Errorf("payer = %s (%s), want Harriet", p.PayerID, p.PayerName)
	}
	if p.Settled {
		t.Error("new payment should not be settled")
	}

	// Recording on behalf of another member.
	resp, err := s.expense.RecordPayment(context.Background(), authed(f.h, &RecordPaymentRequest{
		GroupID:     f.group.ID,
		PayerID:     f.v.user.ID,
		Amount:      "36.50",
		Description: "Gas bill",
		Category:    "utilities",
	}))
	if err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}
	if resp.Msg.Payment.PayerName != "Vera" || resp.Msg.Payment.Category != "utilities" {
		t.Errorf("payment = %+v", resp.Msg.Payment)
	}
}

func TestRecordPaymentErrors(t *testing.T) {
	s := setupTestServer(t)
	f := setupFlat(t, s)
	outsider := s.register(t, "o@example.com", "Outsider")

	tests := []struct {
		name   string
		caller account
		req    *RecordPaymentRequest
		want   connect.Code
	}{
		{"negative amount", f.h, &RecordPaymentRequest{GroupID: f.group.ID, Amount: "-5", Description: "Refund"}, connect.CodeInvalidArgument},
		{"zero amount", f.h, &RecordPaymentRequest{GroupID: f.group.ID, Amount: "0", Description: "Nothing"}, connect.CodeInvalidArgument},
		{"not a number", f.h, &RecordPaymentRequest{GroupID: f.group.ID, Amount: "twelve", Description: "Bread"}, connect.CodeInvalidArgument},
		{"missing description", f.h, &RecordPaymentRequest{GroupID: f.group.ID, Amount: "12"}, connect.CodeInvalidArgument},
		{"payer outside group", f.h, &RecordPaymentRequest{GroupID: f.group.ID, PayerID: outsider.user.ID, Amount: "12", Description: "Bread"}, connect.CodeInvalidArgument},
		{"caller outside group", outsider, &RecordPaymentRequest{GroupID: f.group.ID, Amount: "12", Description: "Bread"}, connect.CodePermissionDenied},
		{"unknown group", f.h, &RecordPaymentRequest{GroupID: "missing", Amount: "12", Description: "Bread"}, connect.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.expense.RecordPayment(context.Background(), authed(tt.caller, tt.req))
			assertCode(t, err, tt.want)
		})
	}
}

func TestGetBalances(t *testing.T) {
	s := setupTestServer(t)
	f := setupFlat(t, s)
	ctx := context.Background()

	t.Run("no payments", func(t *testing.T) {
		resp, err := s.expense.GetBalances(ctx, authed(f.a, &GetBalancesRequest{GroupID: f.group.ID}))
		if err != nil {
			t.Fatalf("GetBalances failed: %v", err)
		}
		if len(resp.Msg.Balances) != 3 {
			t.Fatalf("balances = %d, want 3", len(resp.Msg.Balances))
		}
		for _, b := range resp.Msg.Balances {
			if b.Net != "0.00" {
				t.Errorf("%s net = %s, want 0.00", b.DisplayName, b.Net)
			}
		}
		if len(resp.Msg.Transfers) != 0 {
			t.Errorf("transfers = %+v, want none", resp.Msg.Transfers)
		}
	})

	s.pay(t, f.h, f.group.ID, "12", "Bread")
	s.pay(t, f.a, f.group.ID, "18", "Soap")
	s.pay(t, f.v, f.group.ID, "36", "Gas bill")

	t.Run("uneven spending", func(t *testing.T) {
		resp, err := s.expense.GetBalances(ctx, authed(f.a, &GetBalancesRequest{GroupID: f.group.ID}))
		if err != nil {
			t.Fatalf("GetBalances failed: %v", err)
		}
		want := map[string]string{
			f.h.user.ID: "-10.00",
			f.a.user.ID: "-4.00",
			f.v.user.ID: "14.00",
		}
		for _, b := range resp.Msg.Balances {
			if b.Net != want[b.UserID] {
				t.Errorf("%s net = %s, want %s", b.DisplayName, b.Net, want[b.UserID])
			}
		}
		if len(resp.Msg.Transfers) != 2 {
			t.Fatalf("transfers = %+v, want 2", resp.Msg.Transfers)
		}
		for _, tr := range resp.Msg.Transfers {
			if tr.ToUserID != f.v.user.ID || tr.ToName != "Vera" {
				t.Errorf("transfer %+v should pay Vera", tr)
			}
		}
	})

	t.Run("preview records nothing", func(t *testing.T) {
		resp, err := s.expense.ListSettlements(ctx, authed(f.h, &ListSettlementsRequest{GroupID: f.group.ID}))
		if err != nil {
			t.Fatalf("ListSettlements failed: %v", err)
		}
		if len(resp.Msg.Settlements) != 0 {
			t.Errorf("settlements = %d, want 0", len(resp.Msg.Settlements))
		}
	})
}

func TestSettleGroup(t *testing.T) {
	s := setupTestServer(t)
	f := setupFlat(t, s)
	ctx := context.Background()

	s.pay(t, f.h, f.group.ID, "12", "Bread")
	s.pay(t, f.a, f.group.ID, "18", "Soap")
	s.pay(t, f.v, f.group.ID, "36", "Gas bill")

	resp, err := s.expense.SettleGroup(ctx, authed(f.h, &SettleGroupRequest{GroupID: f.group.ID}))
	if err != nil {
		t.Fatalf("SettleGroup failed: %v", err)
	}
	if resp.Msg.BatchID == "" {
		t.Error("expected batch ID")
	}
	if resp.Msg.PaymentCount != 3 {
		t.Errorf("PaymentCount = %d, want 3", resp.Msg.PaymentCount)
	}

	paid := map[string]string{}
	for _, tr := range resp.Msg.Transfers {
		if tr.ToUserID != f.v.user.ID {
			t.Errorf("transfer %+v should pay Vera", tr)
		}
		paid[tr.FromUserID] = tr.Amount
	}
	if paid[f.h.user.ID] != "10.00" || paid[f.a.user.ID] != "4.00" {
		t.Errorf("transfers = %v, want Harriet 10.00 and Arjun 4.00", paid)
	}

	if got := testutil.ToFloat64(s.metrics.Settlements.WithLabelValues("ok")); got != 1 {
		t.Errorf("settlements_total{result=ok} = %v, want 1", got)
	}

	t.Run("payments are marked settled", func(t *testing.T) {
		unsettled, err := s.expense.ListPayments(ctx, authed(f.a, &ListPaymentsRequest{GroupID: f.group.ID}))
		if err != nil {
			t.Fatalf("ListPayments failed: %v", err)
		}
		if len(unsettled.Msg.Payments) != 0 {
			t.Errorf("unsettled payments = %d, want 0", len(unsettled.Msg.Payments))
		}

		all, err := s.expense.ListPayments(ctx, authed(f.a, &ListPaymentsRequest{GroupID: f.group.ID, IncludeSettled: true}))
		if err != nil {
			t.Fatalf("ListPayments failed: %v", err)
		}
		if len(all.Msg.Payments) != 3 {
			t.Fatalf("payments = %d, want 3", len(all.Msg.Payments))
		}
		for _, p := range all.Msg.Payments {
			if !p.Settled {
				t.Errorf("payment %s not settled", p.Description)
			}
		}
	})

	t.Run("settlements are listed", func(t *testing.T) {
		list, err := s.expense.ListSettlements(ctx, authed(f.v, &ListSettlementsRequest{GroupID: f.group.ID}))
		if err != nil {
			t.Fatalf("ListSettlements failed: %v", err)
		}
		if len(list.Msg.Settlements) != 2 {
			t.Fatalf("settlements = %d, want 2", len(list.Msg.Settlements))
		}
		for _, st := range list.Msg.Settlements {
			if st.BatchID != resp.Msg.BatchID {
				t.Errorf("BatchID = %s, want %s", st.BatchID, resp.Msg.BatchID)
			}
		}
	})

	t.Run("nothing left to settle", func(t *testing.T) {
		_, err := s.expense.SettleGroup(ctx, authed(f.h, &SettleGroupRequest{GroupID: f.group.ID}))
		assertCode(t, err, connect.CodeFailedPrecondition)
		if got := testutil.ToFloat64(s.metrics.Settlements.WithLabelValues("nothing_to_settle")); got != 1 {
			t.Errorf("settlements_total{result=nothing_to_settle} = %v, want 1", got)
		}
	})
}

func TestSettleGroup_RoundsToCents(t *testing.T) {
	s := setupTestServer(t)
	f := setupFlat(t, s)

	s.pay(t, f.h, f.group.ID, "10", "Milk")

	resp, err := s.expense.SettleGroup(context.Background(), authed(f.a, &SettleGroupRequest{GroupID: f.group.ID}))
	if err != nil {
		t.Fatalf("SettleGroup failed: %v", err)
	}
	if len(resp.Msg.Transfers) != 2 {
		t.Fatalf("transfers = %+v, want 2", resp.Msg.Transfers)
	}
	for _, tr := range resp.Msg.Transfers {
		if tr.ToUserID != f.h.user.ID || tr.Amount != "3.33" {
			t.Errorf("transfer = %+v, want 3.33 to Harriet", tr)
		}
	}
}

func TestSettleGroup_AlreadyEven(t *testing.T) {
	s := setupTestServer(t)
	f := setupFlat(t, s)

	s.pay(t, f.h, f.group.ID, "25.50", "Bread")
	s.pay(t, f.a, f.group.ID, "25.50", "Soap")
	s.pay(t, f.v, f.group.ID, "25.50", "Tea")

	resp, err := s.expense.SettleGroup(context.Background(), authed(f.v, &SettleGroupRequest{GroupID: f.group.ID}))
	if err != nil {
		t.Fatalf("SettleGroup failed: %v", err)
	}
	if len(resp.Msg.Transfers) != 0 {
		t.Errorf("transfers = %+v, want none", resp.Msg.Transfers)
	}
	if resp.Msg.PaymentCount != 3 {
		t.Errorf("PaymentCount = %d, want 3", resp.Msg.PaymentCount)
	}
}

func TestSettleGroup_NotMember(t *testing.T) {
	s := setupTestServer(t)
	f := setupFlat(t, s)
	outsider := s.register(t, "o@example.com", "Outsider")
	s.pay(t, f.h, f.group.ID, "10", "Milk")

	_, err := s.expense.SettleGroup(context.Background(), authed(outsider, &SettleGroupRequest{GroupID: f.group.ID}))
	assertCode(t, err, connect.CodePermissionDenied)

	_, err = s.expense.SettleGroup(context.Background(), connect.NewRequest(&SettleGroupRequest{GroupID: f.group.ID}))
	assertCode(t, err, connect.CodeUnauthenticated)
}

func TestDeletePayment(t *testing.T) {
	s := setupTestServer(t)
	f := setupFlat(t, s)
	outsider := s.register(t, "o@example.com", "Outsider")
	ctx := context.Background()

	keep := s.pay(t, f.h, f.group.ID, "12", "Bread")
	drop := s.pay(t, f.a, f.group.ID, "99", "Typo")

	_, err := s.expense.DeletePayment(ctx, authed(outsider, &DeletePaymentRequest{PaymentID: drop.ID}))
	assertCode(t, err, connect.CodePermissionDenied)

	if _, err := s.expense.DeletePayment(ctx, authed(f.v, &DeletePaymentRequest{PaymentID: drop.ID})); err != nil {
		t.Fatalf("DeletePayment failed: %v", err)
	}

	_, err = s.expense.DeletePayment(ctx, authed(f.v, &DeletePaymentRequest{PaymentID: drop.ID}))
	assertCode(t, err, connect.CodeNotFound)

	if _, err := s.expense.SettleGroup(ctx, authed(f.h, &SettleGroupRequest{GroupID: f.group.ID})); err != nil {
		t.Fatalf("SettleGroup failed: %v", err)
	}
	_, err = s.expense.DeletePayment(ctx, authed(f.h, &DeletePaymentRequest{PaymentID: keep.ID}))
	assertCode(t, err, connect.CodeFailedPrecondition)
}

func TestCompute_GroupTooLarge(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	svc := NewExpenseService(nil, 2, time.Second, m)

	_, err := svc.compute(context.Background(), []string{"a", "b", "c"}, nil)
	if !errors.Is(err, errGroupTooLarge) {
		t.Fatalf("compute() error = %v, want errGroupTooLarge", err)
	}
	if settleResult(err) != "too_large" {
		t.Errorf("settleResult = %q, want too_large", settleResult(err))
	}
	if code := connectError(err).Code(); code != connect.CodeResourceExhausted {
		t.Errorf("code = %v, want ResourceExhausted", code)
	}
}

func TestCompute_DeadlineExceeded(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	svc := NewExpenseService(nil, 4, time.Second, m)
	payments := []*models.Payment{
		{PayerID: "a", Amount: decimal.RequireFromString("30"), Description: "Rent"},
		{PayerID: "b", Amount: decimal.RequireFromString("12.40"), Description: "Bread"},
	}

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := svc.compute(ctx, []string{"a", "b", "c"}, payments)
	if !errors.Is(err, settlement.ErrSearchAborted) {
		t.Fatalf("compute() error = %v, want ErrSearchAborted", err)
	}
	if settleResult(err) != "timeout" {
		t.Errorf("settleResult = %q, want timeout", settleResult(err))
	}
	if code := connectError(err).Code(); code != connect.CodeDeadlineExceeded {
		t.Errorf("code = %v, want DeadlineExceeded", code)
	}

	canceled, stop := context.WithCancel(context.Background())
	stop()
	_, err = svc.compute(canceled, []string{"a", "b", "c"}, payments)
	if code := connectError(err).Code(); code != connect.CodeCanceled {
		t.Errorf("canceled code = %v, want Canceled", code)
	}
}
