package service

import (
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/mmynk/housemates/internal/models"
	"github.com/mmynk/housemates/internal/settlement"
)

func unixTimestamp(sec int64) *timestamppb.Timestamp {
	if sec == 0 {
		return nil
	}
	return timestamppb.New(time.Unix(sec, 0))
}

// formatAmount renders money with exactly two decimal places.
func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func toUser(u *models.User) *User {
	return &User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   unixTimestamp(u.CreatedAt),
	}
}

func toGroup(g *models.Group) *Group {
	members := make([]*Member, len(g.Members))
	for i, m := range g.Members {
		members[i] = &Member{
			UserID:      m.UserID,
			DisplayName: m.DisplayName,
			JoinedAt:    unixTimestamp(m.JoinedAt),
		}
	}
	return &Group{
		ID:        g.ID,
		Name:      g.Name,
		CreatedBy: g.CreatedBy,
		Members:   members,
		CreatedAt: unixTimestamp(g.CreatedAt),
	}
}

// displayName falls back to the ID for users who left no name behind.
func displayName(names map[string]string, userID string) string {
	if name, ok := names[userID]; ok && name != "" {
		return name
	}
	return userID
}

func toPayment(p *models.Payment, names map[string]string) *Payment {
	return &Payment{
		ID:          p.ID,
		GroupID:     p.GroupID,
		PayerID:     p.PayerID,
		PayerName:   displayName(names, p.PayerID),
		Amount:      formatAmount(p.Amount),
		Description: p.Description,
		Category:    p.Category,
		Settled:     p.Settled(),
		CreatedAt:   unixTimestamp(p.CreatedAt),
	}
}

func toTransfer(from, to string, amount decimal.Decimal, names map[string]string) *Transfer {
	return &Transfer{
		FromUserID: from,
		FromName:   displayName(names, from),
		ToUserID:   to,
		ToName:     displayName(names, to),
		Amount:     formatAmount(amount),
	}
}

func toSettlement(s *models.Settlement, names map[string]string) *Settlement {
	return &Settlement{
		ID:        s.ID,
		BatchID:   s.BatchID,
		Transfer:  toTransfer(s.FromUserID, s.ToUserID, s.Amount, names),
		CreatedAt: unixTimestamp(s.CreatedAt),
	}
}

// enginePayments strips stored payments down to what the settlement engine needs.
func enginePayments(payments []*models.Payment) []settlement.Payment {
	out := make([]settlement.Payment, len(payments))
	for i, p := range payments {
		out[i] = settlement.Payment{
			Payer:       p.PayerID,
			Amount:      p.Amount,
			Description: p.Description,
		}
	}
	return out
}
