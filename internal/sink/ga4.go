package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/BarkinBalci/lifecycle-analytics-service/internal/domain"
)

const (
	GA4Name = "ga4"

	ga4MaxNameLength  = 40
	ga4MaxValueLength = 100
)

// GA4Config holds the Measurement Protocol settings
type GA4Config struct {
	Endpoint      string
	MeasurementID string
	APISecret     string
	Debug         bool
}

// GA4 sends events through the GA4 Measurement Protocol
type GA4 struct {
	cfg    GA4Config
	client *http.Client
	ids    IDGenerator
	now    func() time.Time
	log    *zap.Logger
}

// NewGA4 creates a GA4 sink
func NewGA4(cfg GA4Config, client *http.Client, ids IDGenerator, log *zap.Logger) *GA4 {
	return &GA4{
		cfg:    cfg,
		client: client,
		ids:    ids,
		now:    time.Now,
		log:    log,
	}
}

type ga4Event struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
}

type ga4Payload struct {
	ClientID        string     `json:"client_id"`
	UserID          string     `json:"user_id,omitempty"`
	TimestampMicros int64      `json:"timestamp_micros"`
	Events          []ga4Event `json:"events"`
}

type ga4ValidationResponse struct {
	ValidationMessages []struct {
		FieldPath      string `json:"fieldPath"`
		Description    string `json:"description"`
		ValidationCode string `json:"validationCode"`
	} `json:"validationMessages"`
}

func (g *GA4) Name() string {
	return GA4Name
}

// Send posts one event. In debug mode the validation endpoint is used and any
// validation message is reported as a rejection.
func (g *GA4) Send(ctx context.Context, eventName string, props Properties) (err error) {
	defer recoverSend(GA4Name, &err)

	clientID := props.String(PropClientID)
	if clientID == "" {
		clientID = g.ids.NewID()
	}

	payload := ga4Payload{
		ClientID:        clientID,
		UserID:          props.String(PropUserID),
		TimestampMicros: props.Time(g.now).UnixMicro(),
		Events: []ga4Event{{
			Name:   sanitizeGA4Name(eventName),
			Params: ga4Params(props),
		}},
	}

	path := "/mp/collect"
	if g.cfg.Debug {
		path = "/debug/mp/collect"
	}
	query := url.Values{}
	query.Set("measurement_id", g.cfg.MeasurementID)
	query.Set("api_secret", g.cfg.APISecret)
	target := strings.TrimRight(g.cfg.Endpoint, "/") + path + "?" + query.Encode()

	body, err := postJSON(ctx, g.client, GA4Name, target, payload)
	if err != nil {
		return err
	}

	if g.cfg.Debug {
		var validation ga4ValidationResponse
		if len(body) > 0 {
			if err := json.Unmarshal(body, &validation); err != nil {
				return &domain.SinkError{Sink: GA4Name, Err: fmt.Errorf("failed to decode validation response: %w", err)}
			}
		}
		if len(validation.ValidationMessages) > 0 {
			msg := validation.ValidationMessages[0]
			return &domain.SinkError{
				Sink: GA4Name,
				Err:  fmt.Errorf("event rejected: %s (%s)", msg.Description, msg.ValidationCode),
			}
		}
		g.log.Debug("GA4 event validated",
			zap.String("event_name", payload.Events[0].Name),
			zap.String("client_id", clientID))
	}

	return nil
}

// ga4Params keeps event properties that are not top-level payload fields
func ga4Params(props Properties) map[string]any {
	params := make(map[string]any, len(props))
	for k, v := range props {
		switch k {
		case PropClientID, PropUserID, PropTimestamp:
			continue
		}
		if s, ok := v.(string); ok {
			v = truncateRunes(s, ga4MaxValueLength)
		}
		params[sanitizeGA4Name(k)] = v
	}
	return params
}

// truncateRunes cuts s to at most n characters without splitting a rune
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// sanitizeGA4Name applies GA4 naming rules: letters, digits and underscores,
// starting with a letter, at most 40 characters.
func sanitizeGA4Name(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}

	out := b.String()
	if out == "" || !unicode.IsLetter(rune(out[0])) {
		out = "e_" + out
	}
	if len(out) > ga4MaxNameLength {
		out = out[:ga4MaxNameLength]
	}
	return out
}
