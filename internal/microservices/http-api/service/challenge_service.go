package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dareduel/internal/microservices/http-api/models"
	"dareduel/internal/microservices/http-api/repository"
	"dareduel/pkg/realtime"
)

var (
	ErrChallengeNotFound     = errors.New("challenge not found")
	ErrCannotChallengeSelf   = errors.New("cannot challenge yourself")
	ErrNotParticipant        = errors.New("user is not a participant of this challenge")
	ErrNotChallengeRecipient = errors.New("only the recipient can respond to a challenge")
	ErrNotChallengeCreator   = errors.New("only the creator can cancel a challenge")
	ErrChallengeNotPending   = errors.New("challenge is no longer pending")
	ErrChallengeNotPlayable  = errors.New("challenge is not accepting numbers")
	ErrInvalidRange          = errors.New("range must satisfy 1 <= min < max <= 100")
	ErrNumberOutOfRange      = errors.New("number is outside the agreed range")
	ErrNumberAlreadySet      = errors.New("number has already been submitted for this side")
)

// Range bounds for the number-matching game.
const (
	RangeFloor   = 1
	RangeCeiling = 100
)

type ChallengeService interface {
	Create(ctx context.Context, fromUserID, toUserID, description string) (*models.Challenge, error)
	Respond(ctx context.Context, userID, challengeID string, accept bool, rangeMin, rangeMax int) (*models.Challenge, error)
	SubmitNumber(ctx context.Context, userID, challengeID string, number int) (*models.Challenge, error)
	Get(ctx context.Context, userID, challengeID string) (*models.Challenge, error)
	List(ctx context.Context, userID, status string, limit, offset int) ([]models.Challenge, int64, error)
	Counts(ctx context.Context, userID string) (map[string]int64, error)
	Cancel(ctx context.Context, userID, challengeID string) error

	// StalePending and Expire exist for the background sweeper.
	StalePending(ctx context.Context, olderThan time.Time, limit int) ([]models.Challenge, error)
	Expire(ctx context.Context, challenge *models.Challenge) error
}

type challengeService struct {
	challengeRepo repository.ChallengeRepository
	friendRepo    repository.FriendRepository
	userRepo      repository.UserRepository
	notifications NotificationService
	stats         StatsService
	publisher     Publisher
	logger        *slog.Logger
}

func NewChallengeService(
	challengeRepo repository.ChallengeRepository,
	friendRepo repository.FriendRepository,
	userRepo repository.UserRepository,
	notifications NotificationService,
	stats StatsService,
	publisher Publisher,
	logger *slog.Logger,
) ChallengeService {
	return &challengeService{
		challengeRepo: challengeRepo,
		friendRepo:    friendRepo,
		userRepo:      userRepo,
		notifications: notifications,
		stats:         stats,
		publisher:     publisher,
		logger:        logger,
	}
}

// Create opens a pending challenge against a friend. Challenges can only be
// sent between friends who have not blocked each other.
func (s *challengeService) Create(ctx context.Context, fromUserID, toUserID, description string) (*models.Challenge, error) {
	if fromUserID == toUserID {
		return nil, ErrCannotChallengeSelf
	}
	if _, err := s.userRepo.FindByID(toUserID); err != nil {
		return nil, ErrUserNotFound
	}
	if blocked, err := s.friendRepo.IsBlockedEitherWay(ctx, fromUserID, toUserID); err != nil {
		return nil, err
	} else if blocked {
		return nil, ErrUserBlocked
	}
	if friends, err := s.friendRepo.AreFriends(ctx, fromUserID, toUserID); err != nil {
		return nil, err
	} else if !friends {
		return nil, ErrNotFriends
	}

	challenge := &models.Challenge{
		Description: description,
		FromUserID:  fromUserID,
		ToUserID:    toUserID,
		Status:      models.ChallengePending,
	}
	if err := s.challengeRepo.Create(ctx, challenge); err != nil {
		return nil, err
	}

	if sender, err := s.userRepo.FindByID(fromUserID); err == nil {
		s.notify(ctx, &models.Notification{
			UserID:   toUserID,
			Type:     models.NotificationChallengeCreated,
			EntityID: challenge.ID,
			Title:    "New dare",
			Message:  fmt.Sprintf("%s dares you: %s", sender.DisplayName, description),
		})
	}
	s.publishEntity(realtime.TypeEntityCreated, challenge, toUserID)

	return challenge, nil
}

// Respond lets the recipient accept (with a number range) or reject a
// pending challenge. An accepted challenge moves to accepted and both sides
// may start submitting numbers.
func (s *challengeService) Respond(ctx context.Context, userID, challengeID string, accept bool, rangeMin, rangeMax int) (*models.Challenge, error) {
	challenge, err := s.challengeRepo.FindByID(ctx, challengeID)
	if err != nil {
		return nil, ErrChallengeNotFound
	}
	if challenge.ToUserID != userID {
		return nil, ErrNotChallengeRecipient
	}
	if challenge.Status != models.ChallengePending {
		return nil, ErrChallengeNotPending
	}

	if accept {
		if rangeMin < RangeFloor || rangeMax > RangeCeiling || rangeMin >= rangeMax {
			return nil, ErrInvalidRange
		}
		challenge.Status = models.ChallengeAccepted
		challenge.RangeMin = &rangeMin
		challenge.RangeMax = &rangeMax
	} else {
		challenge.Status = models.ChallengeRejected
	}
	if err := s.challengeRepo.Update(ctx, challenge); err != nil {
		return nil, err
	}

	notifType := models.NotificationChallengeRejected
	title := "Dare rejected"
	if accept {
		notifType = models.NotificationChallengeAccepted
		title = "Dare accepted"
	}
	if responder, err := s.userRepo.FindByID(userID); err == nil {
		s.notify(ctx, &models.Notification{
			UserID:   challenge.FromUserID,
			Type:     notifType,
			EntityID: challenge.ID,
			Title:    title,
			Message:  fmt.Sprintf("%s responded to your dare", responder.DisplayName),
		})
	}
	s.publishEntity(realtime.TypeEntityUpdated, challenge, challenge.FromUserID)

	return challenge, nil
}

// SubmitNumber records one player's pick. The first submission moves the
// challenge to active; the second resolves it. Equal numbers are a match
// and the creator wins the dare, otherwise the recipient wins.
func (s *challengeService) SubmitNumber(ctx context.Context, userID, challengeID string, number int) (*models.Challenge, error) {
	challenge, err := s.challengeRepo.FindByID(ctx, challengeID)
	if err != nil {
		return nil, ErrChallengeNotFound
	}
	if !challenge.IsParticipant(userID) {
		return nil, ErrNotParticipant
	}
	if challenge.Status != models.ChallengeAccepted && challenge.Status != models.ChallengeActive {
		return nil, ErrChallengeNotPlayable
	}
	if challenge.RangeMin == nil || challenge.RangeMax == nil {
		return nil, ErrChallengeNotPlayable
	}
	if number < *challenge.RangeMin || number > *challenge.RangeMax {
		return nil, ErrNumberOutOfRange
	}

	if userID == challenge.FromUserID {
		if challenge.FromNumber != nil {
			return nil, ErrNumberAlreadySet
		}
		challenge.FromNumber = &number
	} else {
		if challenge.ToNumber != nil {
			return nil, ErrNumberAlreadySet
		}
		challenge.ToNumber = &number
	}

	if challenge.BothNumbersIn() {
		s.resolve(challenge)
	} else {
		challenge.Status = models.ChallengeActive
	}
	if err := s.challengeRepo.Update(ctx, challenge); err != nil {
		return nil, err
	}

	other := challenge.FromUserID
	if userID == challenge.FromUserID {
		other = challenge.ToUserID
	}

	if challenge.Status == models.ChallengeCompleted {
		if err := s.stats.RecordResult(ctx, challenge); err != nil {
			s.logger.Error("could not record game stats", "challenge_id", challenge.ID, "error", err)
		}
		outcome := "No match, the dare is off."
		if *challenge.Result == models.ResultMatch {
			outcome = "It's a match! The dare is on."
		}
		for _, uid := range []string{challenge.FromUserID, challenge.ToUserID} {
			s.notify(ctx, &models.Notification{
				UserID:   uid,
				Type:     models.NotificationChallengeCompleted,
				EntityID: challenge.ID,
				Title:    "Dare resolved",
				Message:  outcome,
			})
		}
		s.publishEntity(realtime.TypeEntityUpdated, challenge, challenge.FromUserID, challenge.ToUserID)
	} else {
		// Only tell the other player that a number is in, never which one.
		s.publishEntity(realtime.TypeEntityUpdated, challenge, other)
	}

	return challenge, nil
}

func (s *challengeService) resolve(challenge *models.Challenge) {
	result := models.ResultNoMatch
	if *challenge.FromNumber == *challenge.ToNumber {
		result = models.ResultMatch
	}
	now := time.Now()
	challenge.Result = &result
	challenge.Status = models.ChallengeCompleted
	challenge.CompletedAt = &now
}

func (s *challengeService) Get(ctx context.Context, userID, challengeID string) (*models.Challenge, error) {
	challenge, err := s.challengeRepo.FindByID(ctx, challengeID)
	if err != nil {
		return nil, ErrChallengeNotFound
	}
	if !challenge.IsParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return challenge, nil
}

func (s *challengeService) List(ctx context.Context, userID, status string, limit, offset int) ([]models.Challenge, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.challengeRepo.ListByUser(ctx, userID, status, limit, offset)
}

func (s *challengeService) Counts(ctx context.Context, userID string) (map[string]int64, error) {
	return s.challengeRepo.CountByUserAndStatus(ctx, userID)
}

// Cancel withdraws a challenge that has not been responded to yet.
func (s *challengeService) Cancel(ctx context.Context, userID, challengeID string) error {
	challenge, err := s.challengeRepo.FindByID(ctx, challengeID)
	if err != nil {
		return ErrChallengeNotFound
	}
	if challenge.FromUserID != userID {
		return ErrNotChallengeCreator
	}
	if challenge.Status != models.ChallengePending {
		return ErrChallengeNotPending
	}
	if err := s.challengeRepo.Delete(ctx, challenge.ID); err != nil {
		return err
	}
	s.publishEntity(realtime.TypeEntityRemoved, challenge, challenge.ToUserID)
	return nil
}

func (s *challengeService) StalePending(ctx context.Context, olderThan time.Time, limit int) ([]models.Challenge, error) {
	return s.challengeRepo.FindStalePending(ctx, olderThan, limit)
}

// Expire marks one stale pending challenge as expired and tells both players.
func (s *challengeService) Expire(ctx context.Context, challenge *models.Challenge) error {
	if challenge.Status != models.ChallengePending {
		return ErrChallengeNotPending
	}
	challenge.Status = models.ChallengeExpired
	if err := s.challengeRepo.Update(ctx, challenge); err != nil {
		return err
	}
	for _, uid := range []string{challenge.FromUserID, challenge.ToUserID} {
		s.notify(ctx, &models.Notification{
			UserID:   uid,
			Type:     models.NotificationChallengeExpired,
			EntityID: challenge.ID,
			Title:    "Dare expired",
			Message:  "The dare was never answered and has expired.",
		})
	}
	s.publishEntity(realtime.TypeEntityUpdated, challenge, challenge.FromUserID, challenge.ToUserID)
	return nil
}

func (s *challengeService) notify(ctx context.Context, n *models.Notification) {
	if err := s.notifications.Push(ctx, n); err != nil {
		s.logger.Warn("could not push notification", "user_id", n.UserID, "type", n.Type, "error", err)
	}
}

func (s *challengeService) publishEntity(msgType realtime.MessageType, challenge *models.Challenge, userIDs ...string) {
	msg, err := realtime.NewEntityEvent(msgType, realtime.EntityChallenge, challenge.ID, challenge)
	if err != nil {
		s.logger.Warn("could not encode challenge event", "challenge_id", challenge.ID, "error", err)
		return
	}
	for _, id := range userIDs {
		s.publisher.Publish(id, msg)
	}
}
