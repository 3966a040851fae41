package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BarkinBalci/lifecycle-analytics-service/internal/domain"
)

const (
	MixpanelName = "mixpanel"

	mixpanelMaxInsertID = 36
)

// MixpanelConfig holds the ingestion settings
type MixpanelConfig struct {
	Endpoint string
	Token    string
}

// Mixpanel sends events to the Mixpanel ingestion API
type Mixpanel struct {
	cfg    MixpanelConfig
	client *http.Client
	ids    IDGenerator
	now    func() time.Time
	log    *zap.Logger
}

// NewMixpanel creates a Mixpanel sink
func NewMixpanel(cfg MixpanelConfig, client *http.Client, ids IDGenerator, log *zap.Logger) *Mixpanel {
	return &Mixpanel{
		cfg:    cfg,
		client: client,
		ids:    ids,
		now:    time.Now,
		log:    log,
	}
}

type mixpanelEvent struct {
	Event      string         `json:"event"`
	Properties map[string]any `json:"properties"`
}

type mixpanelResponse struct {
	Status int     `json:"status"`
	Error  *string `json:"error"`
}

func (m *Mixpanel) Name() string {
	return MixpanelName
}

// Send posts one event using verbose mode so rejections are reported in the body
func (m *Mixpanel) Send(ctx context.Context, eventName string, props Properties) (err error) {
	defer recoverSend(MixpanelName, &err)

	distinctID := props.String(PropUserID)
	if distinctID == "" {
		distinctID = props.String(PropClientID)
	}
	if distinctID == "" {
		distinctID = m.ids.NewID()
	}

	insertID := props.String(PropEventID)
	if insertID == "" {
		insertID = m.ids.NewID()
	}
	if len(insertID) > mixpanelMaxInsertID {
		insertID = insertID[:mixpanelMaxInsertID]
	}

	properties := make(map[string]any, len(props)+4)
	for k, v := range props {
		if k == PropTimestamp {
			continue
		}
		properties[k] = v
	}
	properties["token"] = m.cfg.Token
	properties["distinct_id"] = distinctID
	properties["time"] = props.Time(m.now).UnixMilli()
	properties["$insert_id"] = insertID

	target := strings.TrimRight(m.cfg.Endpoint, "/") + "/track?verbose=1"
	body, err := postJSON(ctx, m.client, MixpanelName, target, []mixpanelEvent{{Event: eventName, Properties: properties}})
	if err != nil {
		return err
	}

	var resp mixpanelResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return &domain.SinkError{Sink: MixpanelName, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if resp.Status != 1 {
		reason := "unknown error"
		if resp.Error != nil && *resp.Error != "" {
			reason = *resp.Error
		}
		return &domain.SinkError{Sink: MixpanelName, Err: errors.New("event rejected: " + reason)}
	}

	m.log.Debug("Mixpanel event accepted",
		zap.String("event_name", eventName),
		zap.String("distinct_id", distinctID))

	return nil
}
