package web

import (
	"net/http"
	"time"

	"github.com/vladislavdragonenkov/order-console/internal/domain"
	"github.com/vladislavdragonenkov/order-console/internal/service/outbox"
)

const recentActivityLimit = 100

type activityRow struct {
	Occurred   time.Time
	Kind       domain.ActivityKind
	EntityType string
	EntityID   string
	Status     domain.ActivityStatus
	Details    string
}

type activityData struct {
	Error           string
	Pending         int
	OldestPendingAt time.Time
	Relay           *outbox.Status
	Events          []activityRow
}

func (s *Server) activityPage(w http.ResponseWriter, _ *http.Request) {
	var page activityData
	if s.cfg.Relay != nil {
		status := s.cfg.Relay.Status()
		page.Relay = &status
	}

	if s.cfg.Journal == nil {
		page.Error = "Activity journal is not configured."
		s.render(w, pageActivity, "Activity", page)
		return
	}

	if stats, err := s.cfg.Journal.Stats(); err != nil {
		s.logger.WithError(err).Warn("failed to read activity stats")
	} else {
		page.Pending = stats.PendingCount
		page.OldestPendingAt = stats.OldestPendingAt
	}

	events, err := s.cfg.Journal.ListRecent(recentActivityLimit)
	if err != nil {
		s.logger.WithError(err).Error("failed to list activity")
		page.Error = "Could not load activity."
	}
	for _, event := range events {
		page.Events = append(page.Events, activityRow{
			Occurred:   event.Occurred,
			Kind:       event.Kind,
			EntityType: event.EntityType,
			EntityID:   event.EntityID,
			Status:     event.Status,
			Details:    string(event.Payload),
		})
	}
	s.render(w, pageActivity, "Activity", page)
}
