package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/housemates/internal/metrics"
	"github.com/mmynk/housemates/internal/models"
	"github.com/mmynk/housemates/internal/settlement"
	"github.com/mmynk/housemates/internal/storage"
)

// ExpenseService implements the ExpenseService RPC interface: recording
// shared payments and settling a group's debts.
type ExpenseService struct {
	store         storage.Store
	maxMembers    int
	settleTimeout time.Duration
	metrics       *metrics.Metrics
}

// NewExpenseService creates a new ExpenseService. Each settle-up or balance
// preview gets settleTimeout to find its transfers.
func NewExpenseService(store storage.Store, maxMembers int, settleTimeout time.Duration, m *metrics.Metrics) *ExpenseService {
	return &ExpenseService{
		store:         store,
		maxMembers:    maxMembers,
		settleTimeout: settleTimeout,
		metrics:       m,
	}
}

// RecordPayment records an expense paid by one member for the whole group.
func (s *ExpenseService) RecordPayment(ctx context.Context, req *connect.Request[RecordPaymentRequest]) (*connect.Response[RecordPaymentResponse], error) {
	slog.Info("RecordPayment request received", "group_id", req.Msg.GroupID, "amount", req.Msg.Amount)

	group, userID, err := memberGroup(ctx, s.store, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}

	description := strings.TrimSpace(req.Msg.Description)
	if description == "" {
		return nil, connectError(missing("description"))
	}

	amount, err := settlement.ParseAmount(req.Msg.Amount)
	if err != nil {
		return nil, connectError(err)
	}

	payerID := req.Msg.PayerID
	if payerID == "" {
		payerID = userID
	}
	if !group.HasMember(payerID) {
		return nil, connect.NewError(connect.CodeInvalidArgument,
			fmt.Errorf("payer %s is not a member of this group", payerID))
	}

	payment := &models.Payment{
		GroupID:     group.ID,
		PayerID:     payerID,
		Amount:      amount,
		Description: description,
		Category:    strings.TrimSpace(req.Msg.Category),
		CreatedBy:   userID,
	}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		slog.Error("RecordPayment failed", "group_id", group.ID, "error", err)
		return nil, connectError(err)
	}

	slog.Info("Payment recorded", "payment_id", payment.ID, "group_id", group.ID, "payer_id", payerID)
	return connect.NewResponse(&RecordPaymentResponse{
		Payment: toPayment(payment, group.DisplayNames()),
	}), nil
}

// ListPayments returns a group's payments, newest first.
func (s *ExpenseService) ListPayments(ctx context.Context, req *connect.Request[ListPaymentsRequest]) (*connect.Response[ListPaymentsResponse], error) {
	group, _, err := memberGroup(ctx, s.store, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}

	payments, err := s.store.ListPayments(ctx, group.ID, req.Msg.IncludeSettled)
	if err != nil {
		slog.Error("ListPayments failed", "group_id", group.ID, "error", err)
		return nil, connectError(err)
	}

	names := group.DisplayNames()
	out := make([]*Payment, len(payments))
	for i, p := range payments {
		out[i] = toPayment(p, names)
	}
	return connect.NewResponse(&ListPaymentsResponse{Payments: out}), nil
}

// DeletePayment removes a payment that has not been settled yet.
func (s *ExpenseService) DeletePayment(ctx context.Context, req *connect.Request[DeletePaymentRequest]) (*connect.Response[DeletePaymentResponse], error) {
	slog.Info("DeletePayment request received", "payment_id", req.Msg.PaymentID)

	if req.Msg.PaymentID == "" {
		return nil, connectError(missing("payment_id"))
	}

	payment, err := s.store.GetPayment(ctx, req.Msg.PaymentID)
	if err != nil {
		return nil, connectError(err)
	}
	if _, _, err := memberGroup(ctx, s.store, payment.GroupID); err != nil {
		return nil, err
	}

	if err := s.store.DeletePayment(ctx, payment.ID); err != nil {
		slog.Error("DeletePayment failed", "payment_id", payment.ID, "error", err)
		return nil, connectError(err)
	}

	slog.Info("Payment deleted", "payment_id", payment.ID, "group_id", payment.GroupID)
	return connect.NewResponse(&DeletePaymentResponse{}), nil
}

// GetBalances reports every member's net position over unsettled payments
// and previews the transfers a settle-up would record.
func (s *ExpenseService) GetBalances(ctx context.Context, req *connect.Request[GetBalancesRequest]) (*connect.Response[GetBalancesResponse], error) {
	group, _, err := memberGroup(ctx, s.store, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}

	payments, err := s.store.ListPayments(ctx, group.ID, false)
	if err != nil {
		slog.Error("GetBalances failed - payments", "group_id", group.ID, "error", err)
		return nil, connectError(err)
	}

	names := group.DisplayNames()
	resp := &GetBalancesResponse{}
	members := group.MemberIDs()

	if len(payments) == 0 {
		for _, id := range members {
			resp.Balances = append(resp.Balances, &MemberBalance{
				UserID:      id,
				DisplayName: displayName(names, id),
				Net:         formatAmount(decimal.Zero),
			})
		}
		return connect.NewResponse(resp), nil
	}
	if len(members) > s.maxMembers {
		return nil, connectError(fmt.Errorf("%w: %d members", errGroupTooLarge, len(members)))
	}

	balances, err := settlement.Aggregate(members, enginePayments(payments))
	if err != nil {
		slog.Error("GetBalances failed - aggregate", "group_id", group.ID, "error", err)
		return nil, connectError(err)
	}
	for _, id := range members {
		resp.Balances = append(resp.Balances, &MemberBalance{
			UserID:      id,
			DisplayName: displayName(names, id),
			Net:         formatAmount(settlement.RoundCents(balances.Net(id))),
		})
	}

	solveCtx, cancel := context.WithTimeout(ctx, s.settleTimeout)
	defer cancel()
	transfers, err := settlement.SolveContext(solveCtx, balances)
	if err != nil {
		slog.Error("GetBalances failed - solve", "group_id", group.ID, "error", err)
		return nil, connectError(err)
	}
	for _, t := range transfers {
		resp.Transfers = append(resp.Transfers, toTransfer(t.From, t.To, t.Amount, names))
	}
	return connect.NewResponse(resp), nil
}

// SettleGroup computes the fewest transfers that zero every balance, records
// them as one batch and marks the group's unsettled payments as settled.
func (s *ExpenseService) SettleGroup(ctx context.Context, req *connect.Request[SettleGroupRequest]) (*connect.Response[SettleGroupResponse], error) {
	slog.Info("SettleGroup request received", "group_id", req.Msg.GroupID)

	group, userID, err := memberGroup(ctx, s.store, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}

	batch, err := s.store.SettleGroup(ctx, group.ID, userID, s.compute)
	s.metrics.Settlements.WithLabelValues(settleResult(err)).Inc()
	if err != nil {
		slog.Error("SettleGroup failed", "group_id", group.ID, "error", err)
		return nil, connectError(err)
	}
	s.metrics.SettleTransfers.Observe(float64(len(batch.Settlements)))

	// Members may have joined while the settle-up ran.
	names := group.DisplayNames()
	if updated, err := s.store.GetGroup(ctx, group.ID); err == nil {
		names = updated.DisplayNames()
	}

	transfers := make([]*Transfer, len(batch.Settlements))
	for i, st := range batch.Settlements {
		transfers[i] = toTransfer(st.FromUserID, st.ToUserID, st.Amount, names)
	}

	slog.Info("Group settled",
		"group_id", group.ID,
		"batch_id", batch.ID,
		"payments", batch.PaymentCount,
		"transfers", len(transfers),
	)
	return connect.NewResponse(&SettleGroupResponse{
		BatchID:      batch.ID,
		PaymentCount: batch.PaymentCount,
		Transfers:    transfers,
	}), nil
}

// compute runs the settlement engine inside the store's settle transaction.
func (s *ExpenseService) compute(ctx context.Context, members []string, payments []*models.Payment) ([]*models.Settlement, error) {
	if len(members) > s.maxMembers {
		return nil, fmt.Errorf("%w: %d members", errGroupTooLarge, len(members))
	}

	ctx, cancel := context.WithTimeout(ctx, s.settleTimeout)
	defer cancel()

	start := time.Now()
	transfers, err := settlement.SettleContext(ctx, members, enginePayments(payments))
	s.metrics.SettleDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	settlements := make([]*models.Settlement, len(transfers))
	for i, t := range transfers {
		settlements[i] = &models.Settlement{
			FromUserID: t.From,
			ToUserID:   t.To,
			Amount:     t.Amount,
		}
	}
	return settlements, nil
}

// ListSettlements returns the transfers recorded by past settle-ups.
func (s *ExpenseService) ListSettlements(ctx context.Context, req *connect.Request[ListSettlementsRequest]) (*connect.Response[ListSettlementsResponse], error) {
	group, _, err := memberGroup(ctx, s.store, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}

	settlements, err := s.store.ListSettlements(ctx, group.ID)
	if err != nil {
		slog.Error("ListSettlements failed", "group_id", group.ID, "error", err)
		return nil, connectError(err)
	}

	names := group.DisplayNames()
	out := make([]*Settlement, len(settlements))
	for i, st := range settlements {
		out[i] = toSettlement(st, names)
	}
	return connect.NewResponse(&ListSettlementsResponse{Settlements: out}), nil
}
