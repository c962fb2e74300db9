package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/housemates/internal/middleware"
	"github.com/mmynk/housemates/internal/models"
	"github.com/mmynk/housemates/internal/storage"
)

// GroupService implements the GroupService RPC interface.
type GroupService struct {
	store      storage.Store
	maxMembers int
}

// NewGroupService creates a new GroupService. AddMember refuses to grow a
// group past maxMembers.
func NewGroupService(store storage.Store, maxMembers int) *GroupService {
	return &GroupService{store: store, maxMembers: maxMembers}
}

// memberGroup loads a group the caller belongs to.
func memberGroup(ctx context.Context, store storage.Store, groupID string) (*models.Group, string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, "", connect.NewError(connect.CodeUnauthenticated, errAuthRequired)
	}
	if groupID == "" {
		return nil, "", connect.NewError(connect.CodeInvalidArgument, missing("group_id"))
	}

	group, err := store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, "", connectError(err)
	}
	if !group.HasMember(userID) {
		return nil, "", connect.NewError(connect.CodePermissionDenied, errNotMember)
	}
	return group, userID, nil
}

// CreateGroup creates a new group with the caller as its first member.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, errAuthRequired)
	}
	slog.Info("CreateGroup request received", "name", req.Msg.Name, "user_id", userID)

	group := &models.Group{
		Name:      strings.TrimSpace(req.Msg.Name),
		CreatedBy: userID,
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, connectError(err)
	}

	slog.Info("Group created", "group_id", group.ID)
	return connect.NewResponse(&CreateGroupResponse{Group: toGroup(group)}), nil
}

// GetGroup retrieves a group the caller belongs to.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error) {
	slog.Info("GetGroup request received", "group_id", req.Msg.GroupID)

	group, _, err := memberGroup(ctx, s.store, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&GetGroupResponse{Group: toGroup(group)}), nil
}

// ListGroups returns every group the caller belongs to.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[ListGroupsRequest]) (*connect.Response[ListGroupsResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, errAuthRequired)
	}

	groups, err := s.store.ListGroupsForUser(ctx, userID)
	if err != nil {
		slog.Error("ListGroups failed", "user_id", userID, "error", err)
		return nil, connectError(err)
	}

	out := make([]*Group, len(groups))
	for i, g := range groups {
		out[i] = toGroup(g)
	}

	slog.Info("ListGroups successful", "user_id", userID, "count", len(groups))
	return connect.NewResponse(&ListGroupsResponse{Groups: out}), nil
}

// AddMember adds a registered user, found by email, to the group.
func (s *GroupService) AddMember(ctx context.Context, req *connect.Request[AddMemberRequest]) (*connect.Response[AddMemberResponse], error) {
	slog.Info("AddMember request received", "group_id", req.Msg.GroupID)

	group, _, err := memberGroup(ctx, s.store, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}
	if len(group.Members) >= s.maxMembers {
		return nil, connect.NewError(connect.CodeResourceExhausted,
			fmt.Errorf("group already has the maximum of %d members", s.maxMembers))
	}
	if strings.TrimSpace(req.Msg.Email) == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, missing("email"))
	}

	user, err := s.store.GetUserByEmail(ctx, req.Msg.Email)
	if err != nil {
		slog.Error("AddMember failed - user lookup", "group_id", group.ID, "error", err)
		return nil, connectError(err)
	}
	if user == nil {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("no user registered with email %s", req.Msg.Email))
	}

	if err := s.store.AddGroupMember(ctx, group.ID, user.ID); err != nil {
		slog.Error("AddMember failed", "group_id", group.ID, "user_id", user.ID, "error", err)
		return nil, connectError(err)
	}

	updated, err := s.store.GetGroup(ctx, group.ID)
	if err != nil {
		slog.Error("Failed to fetch updated group", "group_id", group.ID, "error", err)
		return nil, connectError(err)
	}

	slog.Info("Member added", "group_id", group.ID, "user_id", user.ID, "members_count", len(updated.Members))
	return connect.NewResponse(&AddMemberResponse{Group: toGroup(updated)}), nil
}
