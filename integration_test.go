package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

// ---------- helpers ----------

// startTestServer spins up an httptest.Server with a Hub (no persistence)
// and returns the server and its WebSocket URL.
func startTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()

	world := NewWorld(nil)
	go world.Run()
	t.Cleanup(world.Stop)

	hub := NewHub(world, nil)
	go hub.Run()

	srv := httptest.NewServer(SetupRoutes(hub, ""))
	t.Cleanup(srv.Close)

	return srv, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

// dialWS opens a WebSocket connection to the test server.
func dialWS(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial WS: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readEnvelope reads one JSON message from the WebSocket.
func readEnvelope(t *testing.T, conn *websocket.Conn) InEnvelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read WS: %v", err)
	}
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return env
}

// readUntil reads messages until one of the given type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) InEnvelope {
	t.Helper()
	for i := 0; i < 20; i++ {
		env := readEnvelope(t, conn)
		if env.T == msgType {
			return env
		}
	}
	t.Fatalf("never received %s", msgType)
	return InEnvelope{}
}

// sendMsg sends a typed message over the WebSocket.
func sendMsg(t *testing.T, conn *websocket.Conn, msgType string, data interface{}) {
	t.Helper()
	raw, _ := json.Marshal(Envelope{T: msgType, Data: data})
	if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		t.Fatalf("write WS: %v", err)
	}
}

// ---------- tests ----------

func TestIntegrationWelcomeAndRoster(t *testing.T) {
	_, wsURL := startTestServer(t)

	a := dialWS(t, wsURL)
	welcome := readUntil(t, a, MsgWelcome)
	var wm WelcomeMsg
	if err := json.Unmarshal(welcome.D, &wm); err != nil || wm.ID == "" {
		t.Fatalf("bad welcome payload: %s", welcome.D)
	}
	if wm.Host != wm.ID {
		t.Errorf("first connection should be host, got %q", wm.Host)
	}

	b := dialWS(t, wsURL)
	readUntil(t, b, MsgWelcome)

	sendMsg(t, a, MsgJoin, JoinMsg{Position: Vec3{0, 0, 0}, Color: "#00ff00"})
	sendMsg(t, b, MsgJoin, JoinMsg{Position: Vec3{1, 0, 0}})

	// Both clients end up with a roster containing both players
	for _, conn := range []*websocket.Conn{a, b} {
		deadline := time.Now().Add(2 * time.Second)
		for {
			if time.Now().After(deadline) {
				t.Fatal("never saw a 2-entry roster")
			}
			env := readUntil(t, conn, MsgPlayers)
			var roster []PlayerSnapshot
			if err := json.Unmarshal(env.D, &roster); err != nil {
				t.Fatalf("bad roster: %v", err)
			}
			if len(roster) == 2 {
				break
			}
		}
	}
}

func TestIntegrationBinaryMoveRelay(t *testing.T) {
	_, wsURL := startTestServer(t)

	a := dialWS(t, wsURL)
	readUntil(t, a, MsgWelcome)
	b := dialWS(t, wsURL)
	readUntil(t, b, MsgWelcome)

	sendMsg(t, a, MsgJoin, JoinMsg{})
	sendMsg(t, b, MsgJoin, JoinMsg{})

	// A moves via the msgpack binary path; B sees the delta
	frame, err := msgpack.Marshal(MoveMsg{Position: Vec3{7, 0, 3}})
	if err != nil {
		t.Fatal(err)
	}
	if err := a.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		t.Fatal(err)
	}

	env := readUntil(t, b, MsgPlayerMoved)
	var moved MovedMsg
	if err := json.Unmarshal(env.D, &moved); err != nil {
		t.Fatal(err)
	}
	if moved.Position != (Vec3{7, 0, 3}) {
		t.Errorf("unexpected relayed position %v", moved.Position)
	}
}

func TestIntegrationCountdownToGameStart(t *testing.T) {
	_, wsURL := startTestServer(t)

	x := dialWS(t, wsURL)
	readUntil(t, x, MsgWelcome)
	y := dialWS(t, wsURL)
	readUntil(t, y, MsgWelcome)

	sendMsg(t, x, MsgJoin, JoinMsg{})
	sendMsg(t, y, MsgJoin, JoinMsg{})

	sendMsg(t, x, MsgEnteredZone, ZoneMsg{GameType: GameTag})
	sendMsg(t, y, MsgEnteredZone, ZoneMsg{GameType: GameTag})

	env := readUntil(t, x, MsgJoinCountdown)
	var cd CountdownMsg
	if err := json.Unmarshal(env.D, &cd); err != nil {
		t.Fatal(err)
	}
	if cd.Duration != DefaultCountdownMs || cd.RoomID == "" {
		t.Errorf("unexpected countdown payload %+v", cd)
	}
}

func TestIntegrationHealthEndpoint(t *testing.T) {
	srv, wsURL := startTestServer(t)

	conn := dialWS(t, wsURL)
	readUntil(t, conn, MsgWelcome)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var health HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "ok" || health.Clients != 1 {
		t.Errorf("unexpected health %+v", health)
	}
}

func TestIntegrationRootLiveness(t *testing.T) {
	srv, _ := startTestServer(t)
	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 from /, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("expected text liveness response, got %s", ct)
	}
}
