package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"dareduel/internal/microservices/http-api/models"
	"dareduel/internal/microservices/http-api/repository"
	"dareduel/pkg/realtime"
)

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrCannotFriendSelf      = errors.New("cannot send a friend request to yourself")
	ErrAlreadyFriends        = errors.New("users are already friends")
	ErrRequestAlreadyPending = errors.New("a friend request between these users is already pending")
	ErrRequestNotFound       = errors.New("friend request not found")
	ErrNotRequestRecipient   = errors.New("only the recipient can respond to a friend request")
	ErrRequestAlreadyHandled = errors.New("friend request has already been responded to")
	ErrUserBlocked           = errors.New("interaction between these users is blocked")
	ErrNotFriends            = errors.New("users are not friends")
)

// FriendInfo is one row of a friends list: the friend plus when the
// friendship started and whether they are connected right now.
type FriendInfo struct {
	User   models.User `json:"user"`
	Since  time.Time   `json:"since"`
	Online bool        `json:"online"`
}

// FriendsPage carries a page of friends with an online headcount so the UI
// can show "3 of 12 online" without a second call.
type FriendsPage struct {
	Friends     []FriendInfo `json:"friends"`
	Total       int64        `json:"total"`
	OnlineCount int          `json:"online_count"`
}

type FriendService interface {
	Search(ctx context.Context, userID, query string, limit, offset int) ([]models.User, int64, error)
	SendRequest(ctx context.Context, fromUserID, toUserID, message string) (*models.FriendRequest, error)
	RespondRequest(ctx context.Context, userID, requestID string, accept bool) (*models.FriendRequest, error)
	ListRequests(ctx context.Context, userID, direction string, limit, offset int) ([]models.FriendRequest, int64, error)
	ListFriends(ctx context.Context, userID string, limit, offset int) (*FriendsPage, error)
	RemoveFriend(ctx context.Context, userID, friendID string) error
	Suggestions(ctx context.Context, userID string, limit int) ([]models.User, error)
	Block(ctx context.Context, blockerID, blockedID string) error
	Unblock(ctx context.Context, blockerID, blockedID string) error
}

type friendService struct {
	userRepo      repository.UserRepository
	friendRepo    repository.FriendRepository
	notifications NotificationService
	presence      PresenceService
	publisher     Publisher
	logger        *slog.Logger
}

func NewFriendService(
	userRepo repository.UserRepository,
	friendRepo repository.FriendRepository,
	notifications NotificationService,
	presence PresenceService,
	publisher Publisher,
	logger *slog.Logger,
) FriendService {
	return &friendService{
		userRepo:      userRepo,
		friendRepo:    friendRepo,
		notifications: notifications,
		presence:      presence,
		publisher:     publisher,
		logger:        logger,
	}
}

// Search finds users by username, display name or email fragment. The caller
// and anyone in a block relationship with them never appear in results.
func (s *friendService) Search(ctx context.Context, userID, query string, limit, offset int) ([]models.User, int64, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	blocked, err := s.friendRepo.BlockedIDs(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	exclude := append(blocked, userID)
	return s.userRepo.Search(query, exclude, limit, offset)
}

func (s *friendService) SendRequest(ctx context.Context, fromUserID, toUserID, message string) (*models.FriendRequest, error) {
	if fromUserID == toUserID {
		return nil, ErrCannotFriendSelf
	}
	recipient, err := s.userRepo.FindByID(toUserID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	if blocked, err := s.friendRepo.IsBlockedEitherWay(ctx, fromUserID, toUserID); err != nil {
		return nil, err
	} else if blocked {
		return nil, ErrUserBlocked
	}
	if friends, err := s.friendRepo.AreFriends(ctx, fromUserID, toUserID); err != nil {
		return nil, err
	} else if friends {
		return nil, ErrAlreadyFriends
	}
	if pending, err := s.friendRepo.FindPendingBetween(ctx, fromUserID, toUserID); err == nil && pending != nil {
		return nil, ErrRequestAlreadyPending
	}

	request := &models.FriendRequest{
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Message:    message,
		Status:     models.FriendRequestPending,
	}
	if err := s.friendRepo.CreateRequest(ctx, request); err != nil {
		return nil, err
	}

	sender, err := s.userRepo.FindByID(fromUserID)
	if err == nil {
		s.notify(ctx, &models.Notification{
			UserID:   recipient.ID,
			Type:     models.NotificationFriendRequest,
			EntityID: request.ID,
			Title:    "New friend request",
			Message:  fmt.Sprintf("%s wants to be your friend", sender.DisplayName),
		})
	}
	s.publishEntity(realtime.TypeEntityCreated, realtime.EntityFriendRequest, request.ID, request, recipient.ID)

	return request, nil
}

func (s *friendService) RespondRequest(ctx context.Context, userID, requestID string, accept bool) (*models.FriendRequest, error) {
	request, err := s.friendRepo.FindRequestByID(ctx, requestID)
	if err != nil {
		return nil, ErrRequestNotFound
	}
	if request.ToUserID != userID {
		return nil, ErrNotRequestRecipient
	}
	if request.Status != models.FriendRequestPending {
		return nil, ErrRequestAlreadyHandled
	}

	now := time.Now()
	request.RespondedAt = &now
	if accept {
		request.Status = models.FriendRequestAccepted
		if err := s.friendRepo.CreateFriendship(ctx, request.FromUserID, request.ToUserID, request.ID); err != nil {
			return nil, err
		}
	} else {
		request.Status = models.FriendRequestRejected
	}
	if err := s.friendRepo.UpdateRequest(ctx, request); err != nil {
		return nil, err
	}

	if accept {
		responder, err := s.userRepo.FindByID(userID)
		if err == nil {
			s.notify(ctx, &models.Notification{
				UserID:   request.FromUserID,
				Type:     models.NotificationFriendAccepted,
				EntityID: request.ID,
				Title:    "Friend request accepted",
				Message:  fmt.Sprintf("%s accepted your friend request", responder.DisplayName),
			})
		}
	}
	s.publishEntity(realtime.TypeEntityUpdated, realtime.EntityFriendRequest, request.ID, request, request.FromUserID)

	return request, nil
}

func (s *friendService) ListRequests(ctx context.Context, userID, direction string, limit, offset int) ([]models.FriendRequest, int64, error) {
	if direction != repository.RequestsSent {
		direction = repository.RequestsReceived
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.friendRepo.ListRequests(ctx, userID, direction, limit, offset)
}

func (s *friendService) ListFriends(ctx context.Context, userID string, limit, offset int) (*FriendsPage, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	friendships, total, err := s.friendRepo.ListFriends(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(friendships))
	since := make(map[string]time.Time, len(friendships))
	for i, f := range friendships {
		ids[i] = f.FriendID
		since[f.FriendID] = f.CreatedAt
	}

	users, err := s.userRepo.FindByIDs(ids)
	if err != nil {
		return nil, err
	}

	online := make(map[string]bool, len(ids))
	for _, snap := range s.presence.Snapshot(ctx, ids) {
		online[snap.UserID] = snap.Online
	}

	page := &FriendsPage{Friends: make([]FriendInfo, 0, len(users)), Total: total}
	for _, u := range users {
		info := FriendInfo{User: u, Since: since[u.ID], Online: online[u.ID]}
		if info.Online {
			page.OnlineCount++
		}
		page.Friends = append(page.Friends, info)
	}
	sort.Slice(page.Friends, func(i, j int) bool {
		// Online friends first, then alphabetical.
		if page.Friends[i].Online != page.Friends[j].Online {
			return page.Friends[i].Online
		}
		return page.Friends[i].User.Username < page.Friends[j].User.Username
	})
	return page, nil
}

func (s *friendService) RemoveFriend(ctx context.Context, userID, friendID string) error {
	friends, err := s.friendRepo.AreFriends(ctx, userID, friendID)
	if err != nil {
		return err
	}
	if !friends {
		return ErrNotFriends
	}
	if err := s.friendRepo.DeleteFriendship(ctx, userID, friendID); err != nil {
		return err
	}
	s.publishEntity(realtime.TypeEntityRemoved, realtime.EntityFriendRequest, "", map[string]string{
		"user_id": userID,
	}, friendID)
	return nil
}

// Suggestions proposes friends-of-friends the user is not yet connected to,
// ranked by how many mutual friends they share.
func (s *friendService) Suggestions(ctx context.Context, userID string, limit int) ([]models.User, error) {
	if limit <= 0 || limit > 25 {
		limit = 10
	}

	friendIDs, err := s.friendRepo.FriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(friendIDs) == 0 {
		return []models.User{}, nil
	}

	skip := map[string]bool{userID: true}
	for _, id := range friendIDs {
		skip[id] = true
	}
	blocked, err := s.friendRepo.BlockedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, id := range blocked {
		skip[id] = true
	}

	mutualCount := make(map[string]int)
	for _, friendID := range friendIDs {
		theirFriends, err := s.friendRepo.FriendIDs(ctx, friendID)
		if err != nil {
			return nil, err
		}
		for _, candidate := range theirFriends {
			if !skip[candidate] {
				mutualCount[candidate]++
			}
		}
	}
	if len(mutualCount) == 0 {
		return []models.User{}, nil
	}

	candidates := make([]string, 0, len(mutualCount))
	for id := range mutualCount {
		candidates = append(candidates, id)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if mutualCount[candidates[i]] != mutualCount[candidates[j]] {
			return mutualCount[candidates[i]] > mutualCount[candidates[j]]
		}
		return candidates[i] < candidates[j]
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	users, err := s.userRepo.FindByIDs(candidates)
	if err != nil {
		return nil, err
	}
	// FindByIDs does not preserve order, restore the mutual-count ranking.
	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	ranked := make([]models.User, 0, len(users))
	for _, id := range candidates {
		if u, ok := byID[id]; ok {
			ranked = append(ranked, u)
		}
	}
	return ranked, nil
}

// Block severs any existing friendship and pending requests in addition to
// preventing future contact.
func (s *friendService) Block(ctx context.Context, blockerID, blockedID string) error {
	if blockerID == blockedID {
		return ErrCannotFriendSelf
	}
	if _, err := s.userRepo.FindByID(blockedID); err != nil {
		return ErrUserNotFound
	}

	if friends, err := s.friendRepo.AreFriends(ctx, blockerID, blockedID); err != nil {
		return err
	} else if friends {
		if err := s.friendRepo.DeleteFriendship(ctx, blockerID, blockedID); err != nil {
			return err
		}
	}
	if pending, err := s.friendRepo.FindPendingBetween(ctx, blockerID, blockedID); err == nil && pending != nil {
		now := time.Now()
		pending.Status = models.FriendRequestRejected
		pending.RespondedAt = &now
		if err := s.friendRepo.UpdateRequest(ctx, pending); err != nil {
			return err
		}
	}

	return s.friendRepo.Block(ctx, &models.BlockedUser{BlockerID: blockerID, BlockedID: blockedID})
}

func (s *friendService) Unblock(ctx context.Context, blockerID, blockedID string) error {
	return s.friendRepo.Unblock(ctx, blockerID, blockedID)
}

func (s *friendService) notify(ctx context.Context, n *models.Notification) {
	if err := s.notifications.Push(ctx, n); err != nil {
		s.logger.Warn("could not push notification", "user_id", n.UserID, "type", n.Type, "error", err)
	}
}

func (s *friendService) publishEntity(msgType realtime.MessageType, entity, entityID string, payload any, userIDs ...string) {
	msg, err := realtime.NewEntityEvent(msgType, entity, entityID, payload)
	if err != nil {
		s.logger.Warn("could not encode entity event", "entity", entity, "error", err)
		return
	}
	for _, id := range userIDs {
		s.publisher.Publish(id, msg)
	}
}
