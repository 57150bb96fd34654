package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AdeelRMZ/BlockShock/internal/engine"
	"github.com/AdeelRMZ/BlockShock/internal/hub"
	"github.com/AdeelRMZ/BlockShock/internal/room"
	"github.com/AdeelRMZ/BlockShock/internal/types"
)

type Options struct {
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	OriginPatterns []string
	Logger         *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 3 * time.Second
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = 30 * time.Second
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

func Handler(h *hub.Hub, opts Options) http.HandlerFunc {
	opts = opts.withDefaults()
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		rm := getRoom(h, code)
		if rm == nil {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		clientID := uuid.NewString()
		logger := opts.Logger.With(zap.String("code", code), zap.String("client", clientID))

		out := make(chan room.Snapshot, 8)
		if !rm.Send(room.Join{ClientID: clientID, Outbox: out}) {
			// The room went idle between lookup and join; its game is stored.
			if rm = getRoom(h, code); rm == nil || !rm.Send(room.Join{ClientID: clientID, Outbox: out}) {
				conn.Close(websocket.StatusGoingAway, "game closed")
				return
			}
		}
		defer rm.Send(room.Leave{ClientID: clientID})
		logger.Debug("client joined")

		write := func(ctx context.Context, msg types.ServerMessage) {
			payload, err := json.Marshal(msg)
			if err != nil {
				logger.Error("marshal server message", zap.Error(err))
				return
			}
			ctx, cancel := context.WithTimeout(ctx, opts.WriteTimeout)
			defer cancel()
			_ = conn.Write(ctx, websocket.MessageText, payload)
		}

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for snap := range out {
				write(writeCtx, types.ServerMessage{
					Type:    "StateSnapshot",
					Version: snap.Version,
					State:   types.NewGameView(snap.State, snap.HighScore),
				})
			}
			// Room dropped us (slow client) or shut down.
			conn.Close(websocket.StatusGoingAway, "game closed")
		}()

		// Reader loop
		for {
			ctx, cancel := context.WithTimeout(r.Context(), opts.ReadTimeout)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					logger.Debug("read ended", zap.Error(err))
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				write(r.Context(), types.ServerMessage{Type: "Error", Error: "bad json"})
				continue
			}

			if cm.Type == "Preview" {
				pv := make(chan *engine.Preview, 1)
				if !rm.Send(room.Preview{Slot: cm.Slot, At: engine.Position{Row: cm.Row, Col: cm.Col}, Reply: pv}) {
					return
				}
				p, ok := await(r.Context(), rm, pv)
				if !ok {
					return
				}
				if p == nil {
					p = &engine.Preview{}
				}
				write(r.Context(), types.ServerMessage{Type: "Preview", Preview: p})
				continue
			}

			cmd, ok := toEngineCommand(cm)
			if !ok {
				write(r.Context(), types.ServerMessage{Type: "Error", Error: "unknown type"})
				continue
			}

			errs := make(chan error, 1)
			if !rm.Send(room.FromClient{Cmd: cmd, Reply: errs}) {
				return
			}
			err, ok = await(r.Context(), rm, errs)
			switch {
			case !ok, errors.Is(err, room.ErrClosed):
				return
			case errors.Is(err, engine.ErrReviveLimit):
				// Reviving past the cap is a no-op, not a failure.
			case err != nil:
				write(r.Context(), types.ServerMessage{Type: "Error", Error: err.Error()})
			}
		}
	}
}

func getRoom(h *hub.Hub, code string) *room.Room {
	reply := make(chan *room.Room, 1)
	h.Inbox() <- hub.GetRoom{Code: code, Reply: reply}
	return <-reply
}

// await waits for a room's reply. ok is false when the room stopped or the
// request ended first.
func await[T any](ctx context.Context, rm *room.Room, ch chan T) (T, bool) {
	var zero T
	select {
	case v := <-ch:
		return v, true
	case <-rm.Done():
		// The loop may have answered just before exiting.
		select {
		case v := <-ch:
			return v, true
		default:
			return zero, false
		}
	case <-ctx.Done():
		return zero, false
	}
}

func toEngineCommand(m types.ClientMessage) (engine.Command, bool) {
	switch m.Type {
	case "Start":
		return engine.Command{Type: engine.CmdStart}, true
	case "Pick":
		return engine.Command{Type: engine.CmdPick, Slot: m.Slot}, true
	case "Release":
		return engine.Command{Type: engine.CmdRelease, At: engine.Position{Row: m.Row, Col: m.Col}}, true
	case "Rotate":
		return engine.Command{Type: engine.CmdRotate, Slot: m.Slot}, true
	case "Revive":
		return engine.Command{Type: engine.CmdRevive}, true
	case "Restart":
		return engine.Command{Type: engine.CmdRestart}, true
	case "Home":
		return engine.Command{Type: engine.CmdHome}, true
	default:
		return engine.Command{}, false
	}
}
