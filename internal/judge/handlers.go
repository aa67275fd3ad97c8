package judge

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"

	"github.com/inacomp/contest-live-service/internal/hub"
	"github.com/inacomp/contest-live-service/internal/models"
	"github.com/inacomp/contest-live-service/pkg/protocol"
)

// Handlers consume judge worker verdicts: persist the attempt row and push
// the result to the member's log room and the team room.
type Handlers struct {
	hub    *hub.Hub
	db     *gorm.DB
	logger zerolog.Logger
}

func NewHandlers(h *hub.Hub, db *gorm.DB, logger zerolog.Logger) *Handlers {
	return &Handlers{
		hub:    h,
		db:     db,
		logger: logger.With().Str("component", "judge-handlers").Logger(),
	}
}

func (h *Handlers) HandleSubmissionJudged(ctx context.Context, msg kafka.Message) error {
	var event SubmissionJudgedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.Error().Err(err).Msg("Failed to unmarshal submission.judged event")
		return err
	}

	h.logger.Info().
		Str("contestId", event.ContestID).
		Str("problemId", event.ProblemID).
		Str("memberId", event.MemberID).
		Bool("success", event.Success).
		Msg("Processing submission.judged")

	if err := h.upsertAttempt(ctx, &event); err != nil {
		return err
	}

	wsMsg, err := protocol.NewMessage(protocol.MsgSubmissionJudged, event)
	if err != nil {
		return err
	}

	h.hub.SendToRoom(hub.LogRoomID(event.MemberID, event.ProblemID), wsMsg)
	h.hub.SendToRoom(hub.TeamRoomID(event.TeamID, event.ContestID), wsMsg)

	return nil
}

// upsertAttempt keeps at most one row per (submission, problem); the latest
// verdict wins, which is the aggregation rule the scoring inputs rely on.
func (h *Handlers) upsertAttempt(ctx context.Context, event *SubmissionJudgedEvent) error {
	var existing models.SubmissionProblem
	err := h.db.WithContext(ctx).
		Where("submission_id = ? AND problem_id = ?", event.ContestID, event.ProblemID).
		First(&existing).Error

	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		attempt := models.SubmissionProblem{
			ID:            uuid.New().String(),
			TeamID:        event.TeamID,
			SubmissionID:  event.ContestID,
			MemberID:      event.MemberID,
			ProblemID:     event.ProblemID,
			LanguageID:    event.LanguageID,
			Success:       event.Success,
			Code:          event.Code,
			ExecutionTime: event.ExecutionTime,
			Memory:        event.Memory,
			SubmittedAt:   time.Now(),
		}
		return h.db.WithContext(ctx).Create(&attempt).Error
	}

	existing.MemberID = event.MemberID
	existing.LanguageID = event.LanguageID
	existing.Success = event.Success
	existing.Code = event.Code
	existing.ExecutionTime = event.ExecutionTime
	existing.Memory = event.Memory
	existing.SubmittedAt = time.Now()
	return h.db.WithContext(ctx).Save(&existing).Error
}

func (h *Handlers) HandleContestStarted(ctx context.Context, msg kafka.Message) error {
	var event ContestStartedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.Error().Err(err).Msg("Failed to unmarshal contest.started event")
		return err
	}

	wsMsg, err := protocol.NewMessage(protocol.MsgContestEvent, map[string]interface{}{
		"type":      "STARTED",
		"contestId": event.ContestID,
		"title":     event.Title,
		"startTime": event.StartTime,
		"timestamp": event.Timestamp,
	})
	if err != nil {
		return err
	}

	h.hub.Broadcast(wsMsg)
	return nil
}

func (h *Handlers) HandleContestEnded(ctx context.Context, msg kafka.Message) error {
	var event ContestEndedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.Error().Err(err).Msg("Failed to unmarshal contest.ended event")
		return err
	}

	wsMsg, err := protocol.NewMessage(protocol.MsgContestEvent, map[string]interface{}{
		"type":      "ENDED",
		"contestId": event.ContestID,
		"title":     event.Title,
		"endTime":   event.EndTime,
		"timestamp": event.Timestamp,
	})
	if err != nil {
		return err
	}

	h.hub.Broadcast(wsMsg)
	return nil
}

func (h *Handlers) RegisterAll(consumer *Consumer) {
	consumer.RegisterHandler("submission.judged", h.HandleSubmissionJudged)
	consumer.RegisterHandler("contest.started", h.HandleContestStarted)
	consumer.RegisterHandler("contest.ended", h.HandleContestEnded)
}
