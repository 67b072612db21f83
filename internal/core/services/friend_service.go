package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/mma_local/internal/apperrors"
	"github.com/SscSPs/mma_local/internal/core/domain"
	portssvc "github.com/SscSPs/mma_local/internal/core/ports/services"
	"github.com/SscSPs/mma_local/internal/core/queries"
	"github.com/SscSPs/mma_local/internal/dto"
	"github.com/SscSPs/mma_local/internal/store"
	"github.com/google/uuid"
)

type friendService struct {
	BaseService
}

// NewFriendService creates the contacts service.
func NewFriendService(st *store.Store, opts ...ServiceOption) portssvc.FriendSvcFacade {
	return &friendService{BaseService: newBaseService(st, opts...)}
}

var _ portssvc.FriendSvcFacade = (*friendService)(nil)

func (s *friendService) ListFriends(ctx context.Context) ([]domain.Friend, error) {
	var friends []domain.Friend
	err := s.read(ctx, func(r store.Reader) error {
		var err error
		friends, err = queries.Friends(ctx, r)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to list friends")
		return nil, err
	}
	return friends, nil
}

func (s *friendService) AddFriend(ctx context.Context, req dto.CreateFriendRequest) (*domain.Friend, error) {
	if err := s.ValidateRequest(req); err != nil {
		s.LogFailure(ctx, err, "Invalid friend request")
		return nil, err
	}

	now := s.now()
	friend := domain.Friend{
		ID:         uuid.NewString(),
		Name:       req.Name,
		Phone:      req.Phone,
		Email:      req.Email,
		Timestamps: domain.Timestamps{CreatedAt: now, UpdatedAt: now},
	}
	err := s.runInTx(ctx, "friend.add", []string{domain.TableFriends}, func(_ context.Context, tx *store.Tx) error {
		_, err := tx.Put(domain.TableFriends, friend)
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to save friend")
		return nil, err
	}
	return &friend, nil
}

func (s *friendService) UpdateFriend(ctx context.Context, friendID string, req dto.UpdateFriendRequest) (*domain.Friend, error) {
	if err := s.ValidateRequest(req); err != nil {
		s.LogFailure(ctx, err, "Invalid friend update", slog.String("friend_id", friendID))
		return nil, err
	}

	var friend domain.Friend
	err := s.runInTx(ctx, "friend.update", []string{domain.TableFriends}, func(_ context.Context, tx *store.Tx) error {
		var err error
		friend, err = mustGet[domain.Friend](tx, domain.TableFriends, friendID)
		if err != nil {
			return err
		}
		if req.Name != nil {
			friend.Name = *req.Name
		}
		if req.Phone != nil {
			friend.Phone = *req.Phone
		}
		if req.Email != nil {
			friend.Email = *req.Email
		}
		friend.UpdatedAt = s.now()
		_, err = tx.Put(domain.TableFriends, friend)
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to update friend", slog.String("friend_id", friendID))
		return nil, err
	}
	return &friend, nil
}

func (s *friendService) DeleteFriend(ctx context.Context, friendID string) error {
	err := s.runInTx(ctx, "friend.delete", []string{domain.TableFriends, domain.TableLoans}, func(_ context.Context, tx *store.Tx) error {
		if _, err := mustGet[domain.Friend](tx, domain.TableFriends, friendID); err != nil {
			return err
		}
		if s.deletePolicy == DeleteReject {
			found, err := hasDependents(tx, domain.TableLoans, "friendId", friendID)
			if err != nil {
				return err
			}
			if found {
				return fmt.Errorf("%w: friend %s has loans", apperrors.ErrHasDependents, friendID)
			}
		}
		return tx.Delete(domain.TableFriends, friendID)
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to delete friend", slog.String("friend_id", friendID))
		return err
	}

	s.LogInfo(ctx, "Friend deleted", slog.String("friend_id", friendID))
	return nil
}
