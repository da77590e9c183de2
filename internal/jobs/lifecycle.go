package jobs

import (
	"context"

	"tourbooking-backend/internal/domain"
	"tourbooking-backend/internal/logger"
	"tourbooking-backend/internal/metrics"
	"tourbooking-backend/internal/queue"
)

// LifecycleResult summarizes one lifecycle sweep.
type LifecycleResult struct {
	Started              []int64
	Finished             []int64
	CompletionsScheduled int
	EnqueueFailures      int
}

// AdvanceTourStatuses moves due scheduled tours to ongoing and finished
// ongoing tours to done, then schedules one completion workflow per newly
// done tour. A failed bulk update aborts the sweep; the next run picks the
// same tours up again.
func (jr *JobRunner) AdvanceTourStatuses(ctx context.Context) (LifecycleResult, error) {
	var res LifecycleResult
	now := jr.clock.Now()

	started, err := jr.repos.Tours.StartDue(ctx, now)
	if err != nil {
		return res, err
	}
	res.Started = started
	metrics.TourTransitions.WithLabelValues(string(domain.TourStatusOngoing)).Add(float64(len(started)))
	for _, id := range started {
		jr.publishTransition(ctx, id, domain.TourStatusScheduled, domain.TourStatusOngoing)
	}

	finished, err := jr.repos.Tours.FinishDue(ctx, now)
	if err != nil {
		return res, err
	}
	res.Finished = uniqueIDs(finished)
	metrics.TourTransitions.WithLabelValues(string(domain.TourStatusDone)).Add(float64(len(res.Finished)))

	for _, id := range res.Finished {
		jr.publishTransition(ctx, id, domain.TourStatusOngoing, domain.TourStatusDone)

		created, err := jr.services.Notifications.EnqueueTask(ctx,
			domain.TourCompletedKey(id),
			domain.TaskTourCompletion,
			map[string]any{"tour_id": id},
		)
		if err != nil {
			// The status change stands.
			logger.Error("Failed to schedule tour completion", "tour_id", id, "error", err)
			res.EnqueueFailures++
			continue
		}
		if created {
			res.CompletionsScheduled++
		}
	}

	logger.Info("Advanced tour statuses",
		"started", len(res.Started),
		"finished", len(res.Finished),
		"completions_scheduled", res.CompletionsScheduled,
		"enqueue_failures", res.EnqueueFailures)
	return res, nil
}

func (jr *JobRunner) publishTransition(ctx context.Context, tourID int64, from, to domain.TourStatus) {
	event := queue.NewEvent(queue.EventTourStatusChanged, jr.clock.Now(), map[string]any{
		"tour_id": tourID,
		"from":    string(from),
		"to":      string(to),
	})
	if err := jr.events.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish tour transition", "tour_id", tourID, "error", err)
	}
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
