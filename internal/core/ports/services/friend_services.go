package services

import (
	"context"

	"github.com/SscSPs/mma_local/internal/core/domain"
	"github.com/SscSPs/mma_local/internal/dto"
)

// FriendSvcFacade covers contacts.
type FriendSvcFacade interface {
	ListFriends(ctx context.Context) ([]domain.Friend, error)
	AddFriend(ctx context.Context, req dto.CreateFriendRequest) (*domain.Friend, error)
	UpdateFriend(ctx context.Context, friendID string, req dto.UpdateFriendRequest) (*domain.Friend, error)
	DeleteFriend(ctx context.Context, friendID string) error
}
