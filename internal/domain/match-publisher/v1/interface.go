package matchpublisherv1

import "context"

// MatchPublisher defines the interface for publishing match events downstream.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=matchpublisherv1_mock
type MatchPublisher interface {
	PublishMatchEvent(ctx context.Context, matchEvent *MatchEventPayload) error
}
