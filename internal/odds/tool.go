package odds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/user/wagerwiz/internal/metrics"
)

// ToolInput is the model-facing argument schema for the odds tool.
type ToolInput struct {
	Sport  string `json:"sport"`
	Region string `json:"region"`
}

var validRegions = map[string]bool{"us": true, "uk": true, "eu": true}

// DefaultRegion is substituted when the model omits or invents a region.
const DefaultRegion = "us"

// Tool exposes upcoming football odds to the model. Every failure is
// returned as a short descriptive string in the tool result, never as an
// error: a broken odds lookup must not abort the surrounding stream, and
// the model can still explain the situation in natural language.
type Tool struct {
	client        *Client
	defaultSport  string
	defaultRegion string
	log           *zap.Logger
	metrics       *metrics.Metrics
}

// NewTool wraps the provider client behind the tool invocation contract.
// defaultSport and defaultRegion are used when the model omits them; an
// unknown defaultRegion falls back to DefaultRegion.
func NewTool(client *Client, defaultSport, defaultRegion string, log *zap.Logger, m *metrics.Metrics) *Tool {
	if !validRegions[defaultRegion] {
		defaultRegion = DefaultRegion
	}
	return &Tool{
		client:        client,
		defaultSport:  defaultSport,
		defaultRegion: defaultRegion,
		log:           log,
		metrics:       m,
	}
}

func (t *Tool) Name() string { return "getUpcomingFootballOdds" }

func (t *Tool) Description() string {
	return "Fetches upcoming football fixtures with head-to-head bookmaker odds for a league. " +
		"Use it whenever the user asks about odds, prices, favorites, underdogs, or upcoming matches."
}

func (t *Tool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"sport": {"type": "string", "description": "League key, e.g. soccer_epl"},
			"region": {"type": "string", "enum": ["us", "uk", "eu"], "description": "Odds format region"}
		},
		"required": []
	}`)
}

// Execute resolves the input against defaults, fetches, normalizes, and
// returns either the snapshots as one JSON payload or a short failure
// string. The caller's context carries the tool deadline.
func (t *Tool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var in ToolInput
	if len(args) > 0 {
		// Unparseable arguments fall through to the defaults rather than
		// failing schema validation at call time.
		if err := json.Unmarshal(args, &in); err != nil {
			t.log.Warn("odds tool received malformed arguments", zap.Error(err))
			in = ToolInput{}
		}
	}
	if in.Sport == "" {
		in.Sport = t.defaultSport
	}
	if !validRegions[in.Region] {
		in.Region = t.defaultRegion
	}

	events, err := t.client.FetchUpcoming(ctx, in.Sport, in.Region)
	if err != nil {
		return t.failureMessage(in, err), nil
	}

	if len(events) == 0 {
		t.metrics.ToolInvocation(metrics.OutcomeNoData)
		return fmt.Sprintf("No upcoming matches were found for %s.", in.Sport), nil
	}

	snapshots := Normalize(events)
	payload, err := json.Marshal(snapshots)
	if err != nil {
		t.metrics.ToolInvocation(metrics.OutcomeProviderError)
		t.log.Error("odds snapshots failed to marshal", zap.Error(err))
		return "The odds data could not be processed; live odds are temporarily unavailable.", nil
	}

	t.metrics.ToolInvocation(metrics.OutcomeOK)
	t.log.Debug("odds tool succeeded",
		zap.String("sport", in.Sport),
		zap.String("region", in.Region),
		zap.Int("matches", len(snapshots)),
	)
	return string(payload), nil
}

func (t *Tool) failureMessage(in ToolInput, err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		t.metrics.ToolInvocation(metrics.OutcomeTimeout)
		t.log.Warn("odds lookup timed out", zap.String("sport", in.Sport))
		return "The odds lookup timed out before the provider responded. Live odds are unavailable right now."
	case errors.Is(err, context.Canceled):
		t.metrics.ToolInvocation(metrics.OutcomeTimeout)
		return "The odds lookup was cancelled before the provider responded."
	case errors.Is(err, ErrConfig):
		t.metrics.ToolInvocation(metrics.OutcomeConfigError)
		t.log.Error("odds provider credentials missing")
		return "The odds service is not configured, so live odds are unavailable."
	default:
		t.metrics.ToolInvocation(metrics.OutcomeProviderError)
		t.log.Warn("odds provider request failed", zap.String("sport", in.Sport), zap.Error(err))
		return "The odds provider returned an error; live odds are temporarily unavailable."
	}
}
