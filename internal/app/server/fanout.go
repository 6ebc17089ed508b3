package server

import (
	"context"
	"errors"

	authstorage "github.com/linkedfishers/backend/internal/services/auth/storage"
	notificationdomain "github.com/linkedfishers/backend/internal/services/notifications/domain"
)

// FollowNotifier bridges the social graph to the notification sink.
type FollowNotifier struct {
	sink *notificationdomain.Service
}

// NewFollowNotifier wires follow fan-out onto the notification sink.
func NewFollowNotifier(sink *notificationdomain.Service) FollowNotifier {
	return FollowNotifier{sink: sink}
}

// AccountFollowed appends a followed_you entry to the followee's log.
func (n FollowNotifier) AccountFollowed(ctx context.Context, followerID, followeeID string) error {
	_, err := n.sink.Append(ctx, notificationdomain.AppendInput{
		SenderID:   followerID,
		ReceiverID: followeeID,
		Kind:       notificationdomain.KindFollowedYou,
	})
	return err
}

// InteractionNotifier bridges post interactions to the notification sink.
type InteractionNotifier struct {
	sink *notificationdomain.Service
}

// NewInteractionNotifier wires comment and reaction fan-out onto the
// notification sink.
func NewInteractionNotifier(sink *notificationdomain.Service) InteractionNotifier {
	return InteractionNotifier{sink: sink}
}

// PostCommented appends a commented_post entry to the post author's log.
func (n InteractionNotifier) PostCommented(ctx context.Context, commenterID, postAuthorID, postID string) error {
	_, err := n.sink.Append(ctx, notificationdomain.AppendInput{
		SenderID:   commenterID,
		ReceiverID: postAuthorID,
		Kind:       notificationdomain.KindCommentedPost,
		TargetID:   postID,
	})
	return err
}

// PostLiked appends a liked_post entry to the post author's log.
func (n InteractionNotifier) PostLiked(ctx context.Context, reactorID, postAuthorID, postID string) error {
	_, err := n.sink.Append(ctx, notificationdomain.AppendInput{
		SenderID:   reactorID,
		ReceiverID: postAuthorID,
		Kind:       notificationdomain.KindLikedPost,
		TargetID:   postID,
	})
	return err
}

// AccountDirectory answers account existence checks against account storage.
type AccountDirectory struct {
	store authstorage.AccountStore
}

// NewAccountDirectory wires existence checks onto account storage.
func NewAccountDirectory(store authstorage.AccountStore) AccountDirectory {
	return AccountDirectory{store: store}
}

// AccountExists reports whether the account id resolves to a stored account.
func (d AccountDirectory) AccountExists(ctx context.Context, accountID string) (bool, error) {
	if _, err := d.store.GetAccountByID(ctx, accountID); err != nil {
		if errors.Is(err, authstorage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
