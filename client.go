package main

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 8192
	sendBufSize       = 256
	maxMessagesPerSec = 60
)

// Client represents a WebSocket connection. The connID doubles as the
// player id in the world; it is minted server-side and stable for the
// connection's lifetime.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	connID     string
	remoteAddr string
	msgCount   int
	msgResetAt time.Time

	// Auth state
	authAccountID int64  // 0 = guest
	authUsername  string // "" = guest
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		connID:     GenerateUUID(),
		remoteAddr: remoteAddr,
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debugf("ws error: %v", err)
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			log.Warnf("rate limit exceeded for %s, disconnecting", c.remoteAddr)
			break
		}

		// Binary frames are msgpack-encoded move updates (the high
		// frequency path); everything else is a JSON envelope.
		if msgType == websocket.BinaryMessage {
			c.handleBinaryMove(message)
		} else {
			c.handleMessage(message)
		}
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Warnf("marshal error: %v", err)
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

// handleBinaryMove decodes a msgpack move frame
func (c *Client) handleBinaryMove(raw []byte) {
	var msg MoveMsg
	if err := msgpack.Unmarshal(raw, &msg); err != nil {
		log.Debugf("msgpack decode error from %s: %v", c.remoteAddr, err)
		return
	}
	id := c.connID
	c.hub.world.Post(func() { c.hub.world.HandleMove(id, msg) })
}

// handleMessage routes incoming envelopes (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Debugf("unmarshal error: %v", err)
		return
	}

	id := c.connID
	world := c.hub.world

	switch env.T {
	case MsgJoin:
		var msg JoinMsg
		if json.Unmarshal(env.D, &msg) != nil {
			return
		}
		world.Post(func() { world.HandleJoin(id, msg) })
	case MsgMove:
		var msg MoveMsg
		if json.Unmarshal(env.D, &msg) != nil {
			return
		}
		world.Post(func() { world.HandleMove(id, msg) })
	case MsgColor:
		var msg ColorMsg
		if json.Unmarshal(env.D, &msg) != nil {
			return
		}
		world.Post(func() { world.HandleColor(id, msg) })
	case MsgEmoji:
		var msg EmojiMsg
		if json.Unmarshal(env.D, &msg) != nil || msg.Emoji == "" {
			return
		}
		world.Post(func() { world.HandleEmoji(id, msg.Emoji) })
	case MsgEmojiRemoved:
		world.Post(func() { world.HandleEmoji(id, "") })
	case MsgTagPlayer:
		var msg TagMsg
		if json.Unmarshal(env.D, &msg) != nil {
			return
		}
		world.Post(func() { world.HandleTag(id, msg) })
	case MsgEnteredZone:
		var msg ZoneMsg
		if json.Unmarshal(env.D, &msg) != nil {
			return
		}
		world.Post(func() { world.HandleEnterZone(id, msg) })
	case MsgExitedZone:
		var msg ZoneMsg
		if json.Unmarshal(env.D, &msg) != nil {
			return
		}
		world.Post(func() { world.HandleExitZone(id, msg) })
	case MsgGetGameStatus:
		var msg GameStatusReq
		if json.Unmarshal(env.D, &msg) != nil {
			return
		}
		world.Post(func() { world.HandleGameStatus(id, msg) })
	case MsgRaceCheckpoint:
		var msg CheckpointMsg
		if json.Unmarshal(env.D, &msg) != nil {
			return
		}
		world.Post(func() { world.HandleCheckpoint(id, msg) })
	case MsgRaceFinish:
		var msg FinishMsg
		if json.Unmarshal(env.D, &msg) != nil {
			return
		}
		world.Post(func() { world.HandleFinish(id, msg) })
	case MsgAddObject:
		var msg ObjectMsg
		if json.Unmarshal(env.D, &msg) != nil {
			return
		}
		world.Post(func() { world.HandleAddObject(id, msg) })
	case MsgUpdateObject:
		var msg ObjectUpdateMsg
		if json.Unmarshal(env.D, &msg) != nil {
			return
		}
		world.Post(func() { world.HandleUpdateObject(id, msg) })
	case MsgDeleteObject:
		var msg ObjectDeleteMsg
		if json.Unmarshal(env.D, &msg) != nil {
			return
		}
		world.Post(func() { world.HandleDeleteObject(id, msg) })
	case MsgRequestObjects:
		var msg ObjectsReq
		if json.Unmarshal(env.D, &msg) != nil {
			return
		}
		world.Post(func() { world.HandleRequestObjects(id, msg) })
	case MsgRegister:
		c.handleRegister(env.D)
	case MsgLogin:
		c.handleLogin(env.D)
	case MsgAuth:
		c.handleAuth(env.D)
	}
}

func (c *Client) handleRegister(data json.RawMessage) {
	if c.hub.auth == nil {
		return
	}
	var msg RegisterMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, token, err := c.hub.auth.Register(msg.Username, msg.Password)
	if err != nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: err.Error()}})
		return
	}
	c.authAccountID = id
	c.authUsername = msg.Username
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{Token: token, Username: msg.Username, PlayerID: id}})
}

func (c *Client) handleLogin(data json.RawMessage) {
	if c.hub.auth == nil {
		return
	}
	var msg LoginMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, token, err := c.hub.auth.Login(msg.Username, msg.Password, c.remoteAddr)
	if err != nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: err.Error()}})
		return
	}
	c.authAccountID = id
	c.authUsername = msg.Username
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{Token: token, Username: msg.Username, PlayerID: id}})
}

func (c *Client) handleAuth(data json.RawMessage) {
	if c.hub.auth == nil {
		return
	}
	var msg AuthMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, username, err := c.hub.auth.ValidateToken(msg.Token)
	if err != nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "invalid token"}})
		return
	}
	c.authAccountID = id
	c.authUsername = username
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{Token: msg.Token, Username: username, PlayerID: id}})
}
