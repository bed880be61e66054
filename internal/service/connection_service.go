package service

import (
	"context"
	"fmt"

	"alcyxob/blockcoach/internal/cache"
	"alcyxob/blockcoach/internal/domain"
	"alcyxob/blockcoach/internal/repository"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/multierr"
)

// RequestOutcome tells the caller what SendRequest ended up doing.
type RequestOutcome string

const (
	OutcomeRequested RequestOutcome = "requested"
	OutcomeConnected RequestOutcome = "connected" // the other side had already asked
)

// ConnectionService implements the request/accept handshake on the user
// documents' pendingRequests, sentRequests, coaches and athletes arrays.
type ConnectionService interface {
	SendRequest(ctx context.Context, actor Actor, targetID primitive.ObjectID) (RequestOutcome, error)
	Accept(ctx context.Context, actor Actor, requesterID primitive.ObjectID) error
	Decline(ctx context.Context, actor Actor, requesterID primitive.ObjectID) error
	Cancel(ctx context.Context, actor Actor, targetID primitive.ObjectID) error
	Disconnect(ctx context.Context, actor Actor, otherID primitive.ObjectID) error
	ListConnections(ctx context.Context, actor Actor) ([]domain.User, error)
	ListPending(ctx context.Context, actor Actor) ([]domain.User, error)
	ListSent(ctx context.Context, actor Actor) ([]domain.User, error)
	// AreConnected is used by other services for coach/athlete authorization.
	AreConnected(ctx context.Context, coachID, athleteID primitive.ObjectID) (bool, error)
}

type connectionService struct {
	userRepo repository.UserRepository
	profiles *cache.ProfileCache
}

func NewConnectionService(userRepo repository.UserRepository, profiles *cache.ProfileCache) ConnectionService {
	return &connectionService{userRepo: userRepo, profiles: profiles}
}

func (s *connectionService) pair(ctx context.Context, actor Actor, otherID primitive.ObjectID) (me, other *domain.User, err error) {
	if actor.ID == otherID {
		return nil, nil, ErrSelfRequest
	}
	me, err = s.userRepo.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, nil, notFound(err, ErrUserNotFound)
	}
	other, err = s.userRepo.GetByID(ctx, otherID)
	if err != nil {
		return nil, nil, notFound(err, ErrUserNotFound)
	}
	return me, other, nil
}

// SendRequest asks targetID to connect. If the target already asked us, the
// pairing is completed instead of creating a second, crossing request.
func (s *connectionService) SendRequest(ctx context.Context, actor Actor, targetID primitive.ObjectID) (RequestOutcome, error) {
	me, target, err := s.pair(ctx, actor, targetID)
	if err != nil {
		return "", err
	}
	if me.Role == target.Role {
		return "", ErrSameRole
	}
	if me.ConnectedTo(target.ID) {
		return "", ErrAlreadyConnected
	}
	if me.HasLink(domain.LinkPendingRequests, target.ID) {
		if err := s.link(ctx, me, target); err != nil {
			return "", err
		}
		return OutcomeConnected, nil
	}
	if me.HasLink(domain.LinkSentRequests, target.ID) {
		return "", ErrRequestAlreadySent
	}

	if err := s.userRepo.AddLink(ctx, me.ID, domain.LinkSentRequests, target.ID); err != nil {
		return "", fmt.Errorf("record sent request: %w", err)
	}
	if err := s.userRepo.AddLink(ctx, target.ID, domain.LinkPendingRequests, me.ID); err != nil {
		// undo our half so the two documents stay symmetric
		undoErr := s.userRepo.RemoveLink(ctx, me.ID, domain.LinkSentRequests, target.ID)
		return "", multierr.Append(fmt.Errorf("record pending request: %w", err), undoErr)
	}
	return OutcomeRequested, nil
}

// Accept completes a request that requesterID sent to the caller.
func (s *connectionService) Accept(ctx context.Context, actor Actor, requesterID primitive.ObjectID) error {
	me, requester, err := s.pair(ctx, actor, requesterID)
	if err != nil {
		return err
	}
	if !me.HasLink(domain.LinkPendingRequests, requester.ID) {
		return ErrRequestNotFound
	}
	return s.link(ctx, me, requester)
}

// link clears both request entries and writes the coach/athlete pairing on both users.
func (s *connectionService) link(ctx context.Context, me, other *domain.User) error {
	if err := s.clearRequest(ctx, other.ID, me.ID); err != nil {
		return err
	}
	if err := s.userRepo.AddLink(ctx, me.ID, me.ConnectionField(), other.ID); err != nil {
		return fmt.Errorf("link %s: %w", me.ID.Hex(), err)
	}
	if err := s.userRepo.AddLink(ctx, other.ID, other.ConnectionField(), me.ID); err != nil {
		return fmt.Errorf("link %s: %w", other.ID.Hex(), err)
	}
	log.WithFields(log.Fields{"a": me.ID.Hex(), "b": other.ID.Hex()}).Infoln("users connected")
	s.invalidate(me.ID, other.ID)
	return nil
}

// clearRequest removes a request from sender to receiver on both documents.
func (s *connectionService) clearRequest(ctx context.Context, senderID, receiverID primitive.ObjectID) error {
	return multierr.Combine(
		s.userRepo.RemoveLink(ctx, senderID, domain.LinkSentRequests, receiverID),
		s.userRepo.RemoveLink(ctx, receiverID, domain.LinkPendingRequests, senderID),
	)
}

func (s *connectionService) Decline(ctx context.Context, actor Actor, requesterID primitive.ObjectID) error {
	me, requester, err := s.pair(ctx, actor, requesterID)
	if err != nil {
		return err
	}
	if !me.HasLink(domain.LinkPendingRequests, requester.ID) {
		return ErrRequestNotFound
	}
	return s.clearRequest(ctx, requester.ID, me.ID)
}

func (s *connectionService) Cancel(ctx context.Context, actor Actor, targetID primitive.ObjectID) error {
	me, target, err := s.pair(ctx, actor, targetID)
	if err != nil {
		return err
	}
	if !me.HasLink(domain.LinkSentRequests, target.ID) {
		return ErrRequestNotFound
	}
	return s.clearRequest(ctx, me.ID, target.ID)
}

// Disconnect removes the pairing on both sides. Blocks already written for
// the athlete stay where they are.
func (s *connectionService) Disconnect(ctx context.Context, actor Actor, otherID primitive.ObjectID) error {
	me, other, err := s.pair(ctx, actor, otherID)
	if err != nil {
		return err
	}
	if !me.ConnectedTo(other.ID) {
		return ErrNotConnected
	}
	err = multierr.Combine(
		s.userRepo.RemoveLink(ctx, me.ID, me.ConnectionField(), other.ID),
		s.userRepo.RemoveLink(ctx, other.ID, other.ConnectionField(), me.ID),
	)
	s.invalidate(me.ID, other.ID)
	return err
}

func (s *connectionService) ListConnections(ctx context.Context, actor Actor) ([]domain.User, error) {
	return s.listLinked(ctx, actor, func(u *domain.User) []primitive.ObjectID { return u.Links(u.ConnectionField()) })
}

func (s *connectionService) ListPending(ctx context.Context, actor Actor) ([]domain.User, error) {
	return s.listLinked(ctx, actor, func(u *domain.User) []primitive.ObjectID { return u.PendingRequests })
}

func (s *connectionService) ListSent(ctx context.Context, actor Actor) ([]domain.User, error) {
	return s.listLinked(ctx, actor, func(u *domain.User) []primitive.ObjectID { return u.SentRequests })
}

func (s *connectionService) listLinked(ctx context.Context, actor Actor, ids func(*domain.User) []primitive.ObjectID) ([]domain.User, error) {
	me, err := s.userRepo.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	users, err := s.userRepo.GetByIDs(ctx, ids(me))
	if err != nil {
		return nil, err
	}
	return publicProfiles(users), nil
}

func (s *connectionService) AreConnected(ctx context.Context, coachID, athleteID primitive.ObjectID) (bool, error) {
	coach, err := s.userRepo.GetByID(ctx, coachID)
	if err != nil {
		return false, notFound(err, ErrUserNotFound)
	}
	return coach.IsCoach() && coach.HasLink(domain.LinkAthletes, athleteID), nil
}

func (s *connectionService) invalidate(ids ...primitive.ObjectID) {
	if s.profiles != nil {
		s.profiles.Invalidate(ids...)
	}
}
