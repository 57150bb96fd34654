package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/AdeelRMZ/BlockShock/internal/engine"
	"github.com/AdeelRMZ/BlockShock/internal/hub"
	"github.com/AdeelRMZ/BlockShock/internal/room"
	"github.com/AdeelRMZ/BlockShock/internal/settings"
	"github.com/AdeelRMZ/BlockShock/internal/snapshot"
	"github.com/AdeelRMZ/BlockShock/internal/types"
)

const roomTimeout = 2 * time.Second

var errRoomGone = errors.New("game closed")

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func getRoom(h *hub.Hub, code string) *room.Room {
	reply := make(chan *room.Room, 1)
	h.Inbox() <- hub.GetRoom{Code: code, Reply: reply}
	return <-reply
}

// ask sends m to rm and waits for the reply on ch.
func ask[T any](rm *room.Room, m room.Msg, ch chan T) (T, error) {
	var zero T
	if !rm.Send(m) {
		return zero, errRoomGone
	}
	select {
	case v := <-ch:
		return v, nil
	case <-rm.Done():
		return zero, errRoomGone
	case <-time.After(roomTimeout):
		return zero, errRoomGone
	}
}

func CreateGame(h *hub.Hub, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var code string
		for {
			c, err := GenerateCode()
			if err != nil {
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}
			if getRoom(h, c) == nil {
				code = c
				break
			}
			logger.Info("collision on code, regenerating", zap.String("code", c))
		}

		reply := make(chan *room.Room, 1)
		h.Inbox() <- hub.CreateRoom{Code: code, Reply: reply}
		if <-reply == nil {
			http.Error(w, "failed to create game", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, struct {
			Code string `json:"code"`
		}{Code: code})
	}
}

type gameResponse struct {
	Code    string          `json:"code"`
	Version int             `json:"version"`
	Clients int             `json:"clients"`
	State   *types.GameView `json:"state"`
}

func GetGame(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rm := getRoom(h, chi.URLParam(r, "code"))
		if rm == nil {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}
		reply := make(chan room.View, 1)
		v, err := ask(rm, room.GetState{Reply: reply}, reply)
		if err != nil {
			http.Error(w, err.Error(), http.StatusGone)
			return
		}
		writeJSON(w, http.StatusOK, gameResponse{
			Code:    v.Code,
			Version: v.Version,
			Clients: v.NumClients,
			State:   types.NewGameView(v.State, v.HighScore),
		})
	}
}

// GetSnapshot returns the saved-game bytes of a Playing game.
func GetSnapshot(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rm := getRoom(h, chi.URLParam(r, "code"))
		if rm == nil {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}
		reply := make(chan room.EncodeResult, 1)
		res, err := ask(rm, room.Encode{Reply: reply}, reply)
		if err == nil {
			err = res.Err
		}
		switch {
		case errors.Is(err, engine.ErrNotPlaying):
			http.Error(w, err.Error(), http.StatusConflict)
			return
		case err != nil:
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		contentType := "application/json"
		if res.Format == snapshot.FormatMsgpack {
			contentType = "application/msgpack"
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(res.Data)
	}
}

// DeleteGame is "home": the session and its snapshot are discarded and the
// room is released.
func DeleteGame(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		rm := getRoom(h, code)
		if rm == nil {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}
		reply := make(chan error, 1)
		res, err := ask(rm, room.FromClient{Cmd: engine.Command{Type: engine.CmdHome}, Reply: reply}, reply)
		if err == nil {
			err = res
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		h.Inbox() <- hub.RemoveRoom{Code: code}
		w.WriteHeader(http.StatusNoContent)
	}
}

func GetSettings(s *settings.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := s.Load(r.Context())
		if err != nil {
			http.Error(w, "failed to load settings", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func PutSettings(s *settings.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p settings.Patch
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		v, err := s.Update(r.Context(), p)
		if err != nil {
			http.Error(w, "failed to save settings", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
