// Package presence tracks which team members currently hold a live session.
// One Redis hash per member, one field per service instance, with a TTL so a
// crashed instance's claim ages out.
package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	redisclient "github.com/inacomp/contest-live-service/internal/redis"
)

const (
	presenceKeyFmt = "presence:member:%s"
	presenceTTL    = 5 * time.Minute
)

type Manager struct {
	redis      *redisclient.Client
	instanceID string
	logger     zerolog.Logger
}

func NewManager(redis *redisclient.Client, instanceID string, logger zerolog.Logger) *Manager {
	return &Manager{
		redis:      redis,
		instanceID: instanceID,
		logger:     logger.With().Str("component", "presence").Logger(),
	}
}

func (m *Manager) SetOnline(ctx context.Context, memberID string) error {
	key := fmt.Sprintf(presenceKeyFmt, memberID)
	if err := m.redis.HSet(ctx, key, m.instanceID, time.Now().Unix()); err != nil {
		return err
	}
	return m.redis.Expire(ctx, key, presenceTTL)
}

func (m *Manager) SetOffline(ctx context.Context, memberID string) error {
	key := fmt.Sprintf(presenceKeyFmt, memberID)
	return m.redis.HDel(ctx, key, m.instanceID)
}

func (m *Manager) IsOnline(ctx context.Context, memberID string) (bool, error) {
	key := fmt.Sprintf(presenceKeyFmt, memberID)
	count, err := m.redis.HLen(ctx, key)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// OnlineMembers filters memberIDs down to those with at least one live
// session. Used by the contest view to show who on the team is around.
func (m *Manager) OnlineMembers(ctx context.Context, memberIDs []string) ([]string, error) {
	online := make([]string, 0)
	for _, memberID := range memberIDs {
		isOnline, err := m.IsOnline(ctx, memberID)
		if err != nil {
			m.logger.Error().Err(err).Str("memberId", memberID).Msg("Failed to check presence")
			continue
		}
		if isOnline {
			online = append(online, memberID)
		}
	}
	return online, nil
}

// Refresh re-stamps the member's presence; called from the client heartbeat.
func (m *Manager) Refresh(ctx context.Context, memberID string) error {
	return m.SetOnline(ctx, memberID)
}
