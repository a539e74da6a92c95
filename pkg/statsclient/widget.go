package statsclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	statsUsecase "github.com/johnquangdev/meeting-stats/internal/usecase/stats"
)

// DefaultPollInterval is how often the widget refreshes over REST
const DefaultPollInterval = 30 * time.Second

const eventStatsUpdated = "stats-updated"

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Widget keeps a live statistics view: pushes from /ws/stats, with periodic
// REST polling as a fallback while the channel is down or silent.
type Widget struct {
	client *Client

	// OnUpdate receives every fresh view. Calls are serialized.
	OnUpdate func(*statsUsecase.FormattedStats)
	// PollInterval defaults to DefaultPollInterval
	PollInterval time.Duration
	// NewBackOff builds the redial policy; nil means exponential with no limit
	NewBackOff func() backoff.BackOff
	Logger     *zap.Logger
	Dialer     *websocket.Dialer

	connected atomic.Bool
	updateMu  sync.Mutex
}

// NewWidget creates a widget fed by client
func NewWidget(client *Client, onUpdate func(*statsUsecase.FormattedStats)) *Widget {
	return &Widget{
		client:       client,
		OnUpdate:     onUpdate,
		PollInterval: DefaultPollInterval,
	}
}

// Connected reports whether the push channel is currently open
func (w *Widget) Connected() bool {
	return w.connected.Load()
}

// Run refreshes once, then keeps the view current until ctx is done
func (w *Widget) Run(ctx context.Context) error {
	logger := w.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := w.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	w.refresh(ctx, logger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.subscribeLoop(ctx, logger)
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil
		case <-ticker.C:
			w.refresh(ctx, logger)
		}
	}
}

func (w *Widget) refresh(ctx context.Context, logger *zap.Logger) {
	view, err := w.client.Stats(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("stats poll failed", zap.Error(err))
		}
		return
	}
	w.publish(view)
}

func (w *Widget) publish(view *statsUsecase.FormattedStats) {
	if view == nil || w.OnUpdate == nil {
		return
	}
	w.updateMu.Lock()
	defer w.updateMu.Unlock()
	w.OnUpdate(view)
}

func (w *Widget) subscribeLoop(ctx context.Context, logger *zap.Logger) {
	var policy backoff.BackOff
	if w.NewBackOff != nil {
		policy = w.NewBackOff()
	} else {
		exp := backoff.NewExponentialBackOff()
		exp.MaxElapsedTime = 0
		exp.MaxInterval = time.Minute
		policy = exp
	}
	b := backoff.WithContext(policy, ctx)

	for {
		opened, err := w.subscribe(ctx)
		if ctx.Err() != nil {
			return
		}
		if opened {
			b.Reset()
		}

		wait := b.NextBackOff()
		if wait == backoff.Stop {
			logger.Warn("giving up on realtime channel, polling only", zap.Error(err))
			return
		}
		logger.Debug("realtime channel down, redialing", zap.Duration("in", wait), zap.Error(err))

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// subscribe holds one connection until it fails; opened reports whether the dial succeeded
func (w *Widget) subscribe(ctx context.Context) (opened bool, err error) {
	dialer := w.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+w.client.token)
	conn, _, err := dialer.DialContext(ctx, w.socketURL(), header)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	w.connected.Store(true)
	defer w.connected.Store(false)

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			return true, err
		}
		if f.Event != eventStatsUpdated {
			continue
		}
		if view := decodeView(f.Data); view != nil {
			w.publish(view)
		}
	}
}

func (w *Widget) socketURL() string {
	u, err := url.Parse(w.client.baseURL)
	if err != nil {
		return w.client.baseURL
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/stats"
	return u.String()
}

// decodeView accepts both the broadcast shape {userId, stats} and a bare view
func decodeView(data json.RawMessage) *statsUsecase.FormattedStats {
	var wrapped struct {
		Stats *statsUsecase.FormattedStats `json:"stats"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Stats != nil {
		return wrapped.Stats
	}

	var view statsUsecase.FormattedStats
	if err := json.Unmarshal(data, &view); err != nil {
		return nil
	}
	return &view
}
