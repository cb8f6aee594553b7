package orchestrator

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/epicbreaker/internal/domain"
	"github.com/felixgeelhaar/epicbreaker/internal/errors"
	"github.com/felixgeelhaar/epicbreaker/internal/plan"
	"github.com/felixgeelhaar/epicbreaker/internal/tracker"
)

// keyMap is the phase-1 output threaded into phase 2: every task identifier
// attempted during creation, mapped to its tracker key. Failed creations
// are present with an empty key, so phase 2 can tell "failed" apart from
// "never existed".
type keyMap map[domain.TaskID]string

// materialize runs the two-phase protocol: create every story ticket, then
// every task ticket, and only after all creations have been attempted,
// create the links. No link call ever references a key that does not exist,
// because linking is deferred until every identifier is either assigned or
// known-failed.
func (o *Orchestrator) materialize(ctx context.Context, r *run) error {
	keys, err := o.createTickets(ctx, r)
	if err != nil {
		return err
	}
	return o.createLinks(ctx, r, keys)
}

// createTickets is phase 1. Per-item failures are recorded and skipped;
// only a tracker connection failure aborts.
func (o *Orchestrator) createTickets(ctx context.Context, r *run) (keyMap, error) {
	keys := make(keyMap)

	for _, story := range r.result.Stories {
		// Incomplete existing stories already have a ticket; only their
		// tasks are new.
		if story.Key != "" {
			continue
		}

		key, err := o.createWithRetry(ctx, tracker.KindStory, tracker.Fields{
			Summary:     story.Summary,
			Description: renderStoryDescription(story),
			EpicKey:     r.epic.ID,
			Priority:    string(story.Priority),
		})
		if err != nil {
			if isFatal(err) {
				return nil, err
			}
			r.result.FailedCreations = append(r.result.FailedCreations,
				fmt.Sprintf("story %q: %v", story.Summary, err))
			o.metrics.TicketFailures.WithLabelValues(string(tracker.KindStory)).Inc()
			continue
		}

		story.Key = key
		r.result.Created[plan.CreatedStories] = append(r.result.Created[plan.CreatedStories], key)
		o.metrics.TicketsCreated.WithLabelValues(string(tracker.KindStory)).Inc()
	}

	// Task tickets reference their parent story only by the story's
	// already-assigned key, so story tickets are guaranteed to exist first.
	for _, story := range r.result.Stories {
		for _, task := range story.Tasks {
			task.StoryID = story.Key

			key, err := o.createWithRetry(ctx, tracker.KindTask, tracker.Fields{
				Summary:     task.Summary,
				Description: renderTaskDescription(task),
				EpicKey:     r.epic.ID,
				ParentKey:   story.Key,
			})
			if err != nil {
				if isFatal(err) {
					return nil, err
				}
				r.result.FailedCreations = append(r.result.FailedCreations,
					fmt.Sprintf("task %q: %v", task.Summary, err))
				o.metrics.TicketFailures.WithLabelValues(string(tracker.KindTask)).Inc()
				keys[task.ID] = ""
				continue
			}

			task.Key = key
			keys[task.ID] = key
			r.result.Created[plan.CreatedTasks] = append(r.result.Created[plan.CreatedTasks], key)
			o.metrics.TicketsCreated.WithLabelValues(string(tracker.KindTask)).Inc()
		}
	}

	return keys, nil
}

// createLinks is phase 2. An edge whose endpoint failed phase-1 creation is
// skipped and reported, never attempted against a nonexistent ticket.
func (o *Orchestrator) createLinks(ctx context.Context, r *run, keys keyMap) error {
	for _, edge := range r.result.Edges {
		blockingKey := keys[edge.BlockingID]
		dependentKey := keys[edge.DependentID]

		if blockingKey == "" || dependentKey == "" {
			r.result.RelationshipsFailed = append(r.result.RelationshipsFailed,
				fmt.Sprintf("skipped link %s -> %s: endpoint was not created",
					edge.BlockingID, edge.DependentID))
			o.metrics.LinkFailures.WithLabelValues(string(tracker.LinkBlocks), "missing_endpoint").Inc()
			continue
		}

		if err := o.tracker.Link(ctx, blockingKey, dependentKey, tracker.LinkBlocks); err != nil {
			if isFatal(err) {
				return err
			}
			r.result.RelationshipsFailed = append(r.result.RelationshipsFailed,
				fmt.Sprintf("link %s -> %s: %v", blockingKey, dependentKey, err))
			o.metrics.LinkFailures.WithLabelValues(string(tracker.LinkBlocks), "rejected").Inc()
			continue
		}

		r.result.RelationshipsCreated++
		o.metrics.LinksCreated.WithLabelValues(string(tracker.LinkBlocks)).Inc()
	}

	return nil
}

// createWithRetry wraps a creation call with a short bounded retry, since
// transient tracker errors are expected under bulk creation.
func (o *Orchestrator) createWithRetry(ctx context.Context, kind tracker.IssueKind, fields tracker.Fields) (string, error) {
	var lastErr error
	delay := o.retryDelay

	for attempt := 1; attempt <= createAttempts; attempt++ {
		started := time.Now()
		key, err := o.tracker.Create(ctx, kind, fields)
		o.metrics.TrackerLatency.WithLabelValues("create").Observe(time.Since(started).Seconds())
		if err == nil {
			return key, nil
		}

		lastErr = err
		if isFatal(err) || attempt == createAttempts {
			break
		}

		o.metrics.CreationRetries.WithLabelValues(string(kind)).Inc()
		o.logger.Warn("ticket creation failed, retrying",
			"kind", string(kind), "summary", fields.Summary, "attempt", attempt, "error", err.Error())

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return "", lastErr
}

// isFatal reports whether an error must abort the run rather than be
// recorded per item.
func isFatal(err error) bool {
	var perr *errors.PlannerError
	if stderrors.As(err, &perr) {
		return perr.Code == errors.ErrCodeTrackerUnavailable ||
			perr.Code == errors.ErrCodeTrackerAuth
	}
	return false
}
