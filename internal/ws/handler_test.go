package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdeelRMZ/BlockShock/internal/engine"
	"github.com/AdeelRMZ/BlockShock/internal/hub"
	"github.com/AdeelRMZ/BlockShock/internal/room"
	"github.com/AdeelRMZ/BlockShock/internal/snapshot"
	"github.com/AdeelRMZ/BlockShock/internal/storage"
	"github.com/AdeelRMZ/BlockShock/internal/types"
)

func TestToEngineCommand(t *testing.T) {
	cases := []struct {
		in   types.ClientMessage
		want engine.Command
		ok   bool
	}{
		{in: types.ClientMessage{Type: "Start"}, want: engine.Command{Type: engine.CmdStart}, ok: true},
		{in: types.ClientMessage{Type: "Pick", Slot: 2}, want: engine.Command{Type: engine.CmdPick, Slot: 2}, ok: true},
		{in: types.ClientMessage{Type: "Release", Row: 3, Col: 4}, want: engine.Command{Type: engine.CmdRelease, At: engine.Position{Row: 3, Col: 4}}, ok: true},
		{in: types.ClientMessage{Type: "Rotate", Slot: -1}, want: engine.Command{Type: engine.CmdRotate, Slot: engine.HeldSlot}, ok: true},
		{in: types.ClientMessage{Type: "Revive"}, want: engine.Command{Type: engine.CmdRevive}, ok: true},
		{in: types.ClientMessage{Type: "Restart"}, want: engine.Command{Type: engine.CmdRestart}, ok: true},
		{in: types.ClientMessage{Type: "Home"}, want: engine.Command{Type: engine.CmdHome}, ok: true},
		{in: types.ClientMessage{Type: "Teleport"}, ok: false},
	}
	for _, tc := range cases {
		got, ok := toEngineCommand(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in.Type)
		if tc.ok {
			assert.Equal(t, tc.want, got, tc.in.Type)
		}
	}
}

func setup(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := hub.NewHub(ctx, hub.Options{})
	reply := make(chan *room.Room, 1)
	h.Inbox() <- hub.CreateRoom{Code: "WSTEST", Reply: reply}
	<-reply

	srv := httptest.NewServer(Handler(h, Options{}))
	t.Cleanup(srv.Close)
	return srv, "ws" + strings.TrimPrefix(srv.URL, "http") + "?code=WSTEST"
}

func readMsg(t *testing.T, c *websocket.Conn) types.ServerMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, data, err := c.Read(ctx)
	require.NoError(t, err)
	var msg types.ServerMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func send(t *testing.T, c *websocket.Conn, payload string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.Write(ctx, websocket.MessageText, []byte(payload)))
}

func TestHandler_StartAndErrors(t *testing.T) {
	_, url := setup(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer c.Close(websocket.StatusNormalClosure, "")

	first := readMsg(t, c)
	require.Equal(t, "StateSnapshot", first.Type)
	assert.Equal(t, engine.PhaseNotStarted, first.State.Phase)

	send(t, c, `{"type":"Start"}`)
	started := readMsg(t, c)
	assert.Equal(t, 1, started.Version)
	assert.Equal(t, engine.PhasePlaying, started.State.Phase)
	assert.Len(t, started.State.Pool, engine.PoolSize)

	send(t, c, `{not json`)
	assert.Equal(t, types.ServerMessage{Type: "Error", Error: "bad json"}, readMsg(t, c))

	send(t, c, `{"type":"Pick","slot":7}`)
	assert.Equal(t, types.ServerMessage{Type: "Error", Error: engine.ErrIllegalSlot.Error()}, readMsg(t, c))

	send(t, c, `{"type":"Preview","slot":0,"row":-5,"col":0}`)
	pv := readMsg(t, c)
	require.Equal(t, "Preview", pv.Type)
	assert.Empty(t, pv.Preview.Cells)
}

func TestHandler_UnknownCode(t *testing.T) {
	srv, _ := setup(t)
	resp, err := http.Get(srv.URL + "?code=MISSING")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp2, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

type memStore struct {
	mu    sync.Mutex
	saved map[string][]byte
}

func (m *memStore) SaveSnapshot(_ context.Context, code string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[code] = data
	return nil
}

func (m *memStore) LoadSnapshot(_ context.Context, code string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.saved[code]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return d, nil
}

func (m *memStore) DeleteSnapshot(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.saved, code)
	return nil
}

// lastRevives is one release away from game over with no revives left.
func lastRevives(t *testing.T) []byte {
	t.Helper()
	s := engine.NewEmptyState()
	s.Phase = engine.PhasePlaying
	s.ReviveCount = engine.MaxRevives
	s.Counters = engine.Counters{SpawnThreshold: 6, BombThreshold: 9}
	for r := range engine.Rows {
		for c := range engine.Cols {
			if (r+c)%2 == 0 {
				s.Board[r][c] = engine.Cell{Filled: true, Color: engine.ColorRed}
			}
		}
	}
	s.Held = &engine.Piece{Kind: engine.KindNormal, BaseIndex: 10, Color: engine.ColorGreen, DisplayScale: engine.NormalScale}
	s.Pool[1] = &engine.Piece{Kind: engine.KindNormal, BaseIndex: 1, Color: engine.ColorRed, Slot: 1, DisplayScale: engine.NormalScale}
	data, err := snapshot.Encode(s, snapshot.FormatJSON)
	require.NoError(t, err)
	return data
}

func TestHandler_ReviveAtCapIsSilent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	store := &memStore{saved: map[string][]byte{"CAPPED": lastRevives(t)}}
	h := hub.NewHub(ctx, hub.Options{Store: store})
	srv := httptest.NewServer(Handler(h, Options{}))
	t.Cleanup(srv.Close)

	dialCtx, dialCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer dialCancel()
	c, _, err := websocket.Dial(dialCtx, "ws"+strings.TrimPrefix(srv.URL, "http")+"?code=CAPPED", nil)
	require.NoError(t, err)
	defer c.Close(websocket.StatusNormalClosure, "")

	require.Equal(t, engine.PhasePlaying, readMsg(t, c).State.Phase)

	send(t, c, `{"type":"Release","row":0,"col":1}`)
	over := readMsg(t, c)
	require.Equal(t, engine.PhaseGameOver, over.State.Phase)

	send(t, c, `{"type":"Revive"}`)
	send(t, c, `{"type":"Teleport"}`)
	// The revive produced nothing; the next message answers the unknown type.
	assert.Equal(t, types.ServerMessage{Type: "Error", Error: "unknown type"}, readMsg(t, c))
}
