package poller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"livelink-telematics-backend/config"
	"livelink-telematics-backend/internal/livelink"
	"livelink-telematics-backend/internal/model"
	"livelink-telematics-backend/internal/normalize"
	"livelink-telematics-backend/internal/notification"
	"livelink-telematics-backend/internal/store"
	"livelink-telematics-backend/internal/tags"
)

// Poll status tag values.
const (
	StatusSuccess    = "success"
	StatusError      = "error"
	StatusAuthFailed = "auth_failed"
)

// Summary is the per-machine entry of the fleet summary tag.
type Summary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Model       string `json:"model"`
	LastUpdated string `json:"last_updated"`
}

// Service orchestrates the polling of the vendor API and the publication of
// normalized machine tags.
type Service struct {
	cfg   *config.Config
	sink  tags.Sink
	store store.Store
	pool  *notification.WorkerPool

	// client is nil when no API token is configured; every poll then
	// publishes an error status without touching the network.
	client *livelink.Client

	now func() time.Time

	mu sync.Mutex // serializes polls triggered by the loop and by commands
}

// NewService creates and initializes a new poller service. The store and
// worker pool may be nil; polling then runs without the machine registry and
// without alert notifications.
func NewService(cfg *config.Config, st store.Store, sink tags.Sink, pool *notification.WorkerPool) *Service {
	var client *livelink.Client
	if cfg.LiveLink.APIToken != "" {
		client = livelink.NewClient(cfg.LiveLink.BaseURL, cfg.LiveLink.APIToken, cfg.LiveLink.Timeout)
	} else {
		log.Printf("Warning: API token not configured - will not be able to poll API")
	}

	return &Service{
		cfg:    cfg,
		sink:   sink,
		store:  st,
		pool:   pool,
		client: client,
		now:    time.Now,
	}
}

// Run starts the polling loop. It polls once immediately and then on every
// interval tick until the context is cancelled.
func (s *Service) Run(ctx context.Context) {
	log.Println("Starting poller service...")

	if s.pool != nil {
		s.pool.Start(ctx)
	}

	s.PollOnce(ctx)

	timer := time.NewTimer(s.cfg.LiveLink.PollInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Poller service shutting down.")
			return
		case <-timer.C:
			s.PollOnce(ctx)
			timer.Reset(s.cfg.LiveLink.PollInterval)
		}
	}
}

// HandleCommand processes an inbound command message. Recognized commands
// trigger an immediate poll; anything else is logged and ignored.
func (s *Service) HandleCommand(ctx context.Context, msg map[string]any) {
	command, _ := msg["command"].(string)
	switch command {
	case "refresh", "force-refresh", "poll":
		log.Println("Manual refresh command received, triggering poll")
		s.PollOnce(ctx)
	default:
		log.Printf("Received message with no recognized command: %v", msg)
	}
}

// PollOnce performs a single poll cycle: resolve the fleet, fetch and
// normalize per-machine detail, publish tags, and record poll status.
func (s *Service) PollOnce(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log.Println("Executing poll cycle...")

	if s.client == nil {
		log.Println("HTTP client not initialised - check API token configuration")
		s.setTag("last_poll_status", StatusError)
		s.setTag("last_error", "HTTP client not initialised - API token not configured")
		return
	}

	now := s.now().UTC()

	machines, err := s.resolveFleet(ctx)
	if err != nil {
		s.recordFailure(err)
		return
	}

	if len(machines) == 0 {
		log.Println("No machines returned from API")
		s.setTag("last_poll_status", StatusSuccess)
		s.setTag("last_poll_timestamp", normalize.Timestamp(now))
		s.setTag("machine_count", 0)
		s.setTag("machines", map[string]Summary{})
		return
	}

	summary := make(map[string]Summary, len(machines))
	registry := make([]model.Machine, 0, len(machines))

	for _, rec := range machines {
		machineID := recordID(rec)
		if machineID == "" {
			continue
		}

		safeID := normalize.SanitizeID(machineID)
		detail := s.client.FetchDetail(ctx, machineID)
		doc := normalize.Normalize(merge(rec, detail), now)

		s.publishMachineTags(safeID, doc)

		summary[safeID] = Summary{
			ID:          machineID,
			Name:        doc.Info.Name,
			Model:       doc.Info.Model,
			LastUpdated: normalize.Timestamp(now),
		}
		registry = append(registry, model.Machine{
			Key:      safeID,
			RawID:    machineID,
			Name:     doc.Info.Name,
			Model:    doc.Info.Model,
			LastSeen: now,
		})

		if *s.cfg.LiveLink.IncludeAlerts && len(doc.Alerts) > 0 && s.pool != nil {
			s.pool.Dispatch(notification.Job{MachineKey: safeID, AlertCount: len(doc.Alerts)})
		}
	}

	if s.store != nil {
		if err := s.store.UpsertMachines(ctx, registry); err != nil {
			log.Printf("Warning: failed to update machine registry: %v", err)
		}
	}

	s.setTag("machines", summary)
	s.setTag("machine_count", len(summary))
	s.setTag("last_poll_status", StatusSuccess)
	s.setTag("last_poll_timestamp", normalize.Timestamp(now))
	s.setTag("last_error", "")

	log.Printf("Successfully polled %d machine(s)", len(summary))
}

// resolveFleet returns the machines to poll: stub records for a configured
// machine-id list, otherwise the fleet enumerated by the vendor API.
func (s *Service) resolveFleet(ctx context.Context) ([]map[string]any, error) {
	if ids := s.cfg.LiveLink.MachineIDs; len(ids) > 0 {
		stubs := make([]map[string]any, 0, len(ids))
		for _, id := range ids {
			stubs = append(stubs, map[string]any{"id": id})
		}
		return stubs, nil
	}
	return s.client.FetchFleet(ctx)
}

// publishMachineTags publishes the per-category tags for one machine, gated
// by the configuration toggles. Info is always published; its make field
// defaults to a non-empty value, so the document is never empty.
func (s *Service) publishMachineTags(safeID string, m normalize.Machine) {
	inc := &s.cfg.LiveLink

	s.setTag("machine_"+safeID+"_info", m.Info)

	if *inc.IncludeLocation && len(m.Location) > 0 {
		s.setTag("machine_"+safeID+"_location", m.Location)
	}
	if *inc.IncludeHours && len(m.Hours) > 0 {
		s.setTag("machine_"+safeID+"_hours", m.Hours)
	}
	if *inc.IncludeFuel && len(m.Fuel) > 0 {
		s.setTag("machine_"+safeID+"_fuel", m.Fuel)
	}
	if *inc.IncludeAlerts && len(m.Alerts) > 0 {
		s.setTag("machine_"+safeID+"_alerts", m.Alerts)
	}
	if *inc.IncludeUtilisation && len(m.Utilisation) > 0 {
		s.setTag("machine_"+safeID+"_utilisation", m.Utilisation)
	}
}

// recordFailure classifies a fatal poll error and publishes the status and
// error tags. Tags already published for machines processed before the
// failure are left intact.
func (s *Service) recordFailure(err error) {
	var statusErr *livelink.StatusError
	if errors.As(err, &statusErr) {
		log.Printf("API HTTP error: %d %s", statusErr.Code, statusErr.Reason)
		status := StatusError
		if statusErr.Code == http.StatusUnauthorized || statusErr.Code == http.StatusForbidden {
			status = StatusAuthFailed
		}
		s.setTag("last_poll_status", status)
		s.setTag("last_error", fmt.Sprintf("HTTP %d: %s", statusErr.Code, statusErr.Reason))
		return
	}

	log.Printf("Unexpected error during API poll: %v", err)
	s.setTag("last_poll_status", StatusError)
	s.setTag("last_error", fmt.Sprintf("Unexpected error: %v", err))
}

// setTag publishes a tag, logging and swallowing publish failures so a
// broken sink cannot abort a poll.
func (s *Service) setTag(name string, value any) {
	if err := s.sink.Publish(name, value); err != nil {
		log.Printf("Warning: failed to set tag %q: %v", name, err)
	}
}

// recordID derives the raw machine identifier, preferring id over
// equipmentId and skipping values that render empty.
func recordID(rec map[string]any) string {
	for _, key := range []string{"id", "equipmentId"} {
		if id := idString(rec[key]); id != "" {
			return id
		}
	}
	return ""
}

func idString(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case float64:
		// JSON numbers decode as float64; integral ids must not pick up an
		// exponent or decimal point on the way through.
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return fmt.Sprint(id)
	}
}

// merge overlays detail over the fleet-list stub; detail fields win on key
// collision. A nil detail leaves the stub untouched.
func merge(base, detail map[string]any) map[string]any {
	if detail == nil {
		return base
	}
	merged := make(map[string]any, len(base)+len(detail))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range detail {
		merged[k] = v
	}
	return merged
}
