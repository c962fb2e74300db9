package service

import "google.golang.org/protobuf/types/known/timestamppb"

// Money amounts cross the wire as decimal strings ("12.50") so no precision
// is lost to floating point.

type User struct {
	ID          string                 `json:"id"`
	Email       string                 `json:"email"`
	DisplayName string                 `json:"display_name"`
	CreatedAt   *timestamppb.Timestamp `json:"created_at,omitempty"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type RegisterResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}

type Member struct {
	UserID      string                 `json:"user_id"`
	DisplayName string                 `json:"display_name"`
	JoinedAt    *timestamppb.Timestamp `json:"joined_at,omitempty"`
}

type Group struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	CreatedBy string                 `json:"created_by"`
	Members   []*Member              `json:"members"`
	CreatedAt *timestamppb.Timestamp `json:"created_at,omitempty"`
}

type CreateGroupRequest struct {
	Name string `json:"name"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"group_id"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

// AddMemberRequest adds the registered user with Email to the group.
type AddMemberRequest struct {
	GroupID string `json:"group_id"`
	Email   string `json:"email"`
}

type AddMemberResponse struct {
	Group *Group `json:"group"`
}

type Payment struct {
	ID          string                 `json:"id"`
	GroupID     string                 `json:"group_id"`
	PayerID     string                 `json:"payer_id"`
	PayerName   string                 `json:"payer_name"`
	Amount      string                 `json:"amount"`
	Description string                 `json:"description"`
	Category    string                 `json:"category,omitempty"`
	Settled     bool                   `json:"settled"`
	CreatedAt   *timestamppb.Timestamp `json:"created_at,omitempty"`
}

// RecordPaymentRequest records an expense. PayerID defaults to the caller.
type RecordPaymentRequest struct {
	GroupID     string `json:"group_id"`
	PayerID     string `json:"payer_id,omitempty"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
}

type RecordPaymentResponse struct {
	Payment *Payment `json:"payment"`
}

type ListPaymentsRequest struct {
	GroupID        string `json:"group_id"`
	IncludeSettled bool   `json:"include_settled"`
}

type ListPaymentsResponse struct {
	Payments []*Payment `json:"payments"`
}

type DeletePaymentRequest struct {
	PaymentID string `json:"payment_id"`
}

type DeletePaymentResponse struct{}

// MemberBalance is a member's net position: positive when owed money,
// negative when owing.
type MemberBalance struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Net         string `json:"net"`
}

type Transfer struct {
	FromUserID string `json:"from_user_id"`
	FromName   string `json:"from_name"`
	ToUserID   string `json:"to_user_id"`
	ToName     string `json:"to_name"`
	Amount     string `json:"amount"`
}

type GetBalancesRequest struct {
	GroupID string `json:"group_id"`
}

// GetBalancesResponse previews a settle-up without recording it.
type GetBalancesResponse struct {
	Balances  []*MemberBalance `json:"balances"`
	Transfers []*Transfer      `json:"transfers"`
}

type SettleGroupRequest struct {
	GroupID string `json:"group_id"`
}

type SettleGroupResponse struct {
	BatchID      string      `json:"batch_id"`
	PaymentCount int         `json:"payment_count"`
	Transfers    []*Transfer `json:"transfers"`
}

type Settlement struct {
	ID        string                 `json:"id"`
	BatchID   string                 `json:"batch_id"`
	Transfer  *Transfer              `json:"transfer"`
	CreatedAt *timestamppb.Timestamp `json:"created_at,omitempty"`
}

type ListSettlementsRequest struct {
	GroupID string `json:"group_id"`
}

type ListSettlementsResponse struct {
	Settlements []*Settlement `json:"settlements"`
}
