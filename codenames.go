// Codenames gateway
//
// Every browser tab holds one websocket per room URL. The socket carries
// request frames from the client, each answered by an ack, and pushes
// per-viewer game state and game events back out.
//
// Routes:
//   - $path                  → redirects to a new random room
//   - $path/:roomid          → room landing page, sets the identity cookie
//   - $path/:roomid/ws       → websocket for that room
//   - $path/:roomid/qr       → PNG QR code for the room URL
//   - /api/room/:roomid      → JSON room summary
//
// Players are identified by the codenames_id cookie, which survives reconnects.
// Each socket gets a fresh connection handle. Closing a socket only marks the
// player offline; the next socket with the same cookie resumes the seat.

package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Seednode/codenames/games/codenames"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
	sendBuffer     = 64
)

// Frames coming from clients. ID is echoed back verbatim in the ack.
type ClientMessage struct {
	ID         json.RawMessage `json:"id,omitempty"`
	Type       string          `json:"type"`
	RoomID     string          `json:"roomId,omitempty"`     // room:join
	Name       string          `json:"name,omitempty"`       // room:join, player:rename
	SeatIndex  *int            `json:"seatIndex,omitempty"`  // seat:take, seat:switch
	MaxPlayers int             `json:"maxPlayers,omitempty"` // config:update
	Words      []string        `json:"words,omitempty"`      // words:set
	Theme      string          `json:"theme,omitempty"`      // words:set, words:generate
	Word       string          `json:"word,omitempty"`       // clue:give
	Count      int             `json:"count,omitempty"`      // clue:give
	CardIndex  *int            `json:"cardIndex,omitempty"`  // card:guess
}

// AckMessage answers exactly one ClientMessage, and only to its sender.
type AckMessage struct {
	Type    string          `json:"type"` // "ack"
	ID      json.RawMessage `json:"id,omitempty"`
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Kind    codenames.Kind  `json:"kind,omitempty"`
	Data    any             `json:"data,omitempty"`
}

// StateMessage carries the session as seen by the receiving player.
type StateMessage struct {
	Type     string             `json:"type"` // "game:state"
	PlayerID string             `json:"playerId"`
	Session  *codenames.Session `json:"session"`
}

// EventMessage is a one-off notification ("guess:result", "clue:new", ...).
type EventMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// WelcomeMessage is sent first on every new socket.
type WelcomeMessage struct {
	Type         string `json:"type"` // "welcome"
	RoomID       string `json:"roomId"`
	ThemeEnabled bool   `json:"themeEnabled"`
}

type JoinData struct {
	PlayerID string `json:"playerId"`
	RoomID   string `json:"roomId"`
	Rejoined bool   `json:"rejoined"`
}

type GuessEvent struct {
	codenames.GuessResult
	CardIndex  int    `json:"cardIndex"`
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

type GameEndedEvent struct {
	Winner codenames.Team      `json:"winner"`
	Reason codenames.EndReason `json:"reason"`
}

var errUnknownMessage = errors.New("unknown message type")

type Client struct {
	conn     *websocket.Conn
	send     chan any
	done     chan struct{}
	once     sync.Once
	handle   string
	identity string
}

func newClient(conn *websocket.Conn, identity string) *Client {
	return &Client{
		conn:     conn,
		send:     make(chan any, sendBuffer),
		done:     make(chan struct{}),
		handle:   uuid.NewString(),
		identity: identity,
	}
}

// push queues msg without blocking. A client too slow to drain its queue is
// dropped; its read loop then disconnects it from the game.
func (c *Client) push(msg any) {
	select {
	case <-c.done:
	case c.send <- msg:
	default:
		c.close()
	}
}

func (c *Client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Gateway connects websocket clients to the session engine.
type Gateway struct {
	cfg     *Config
	manager *codenames.Manager

	mu      sync.RWMutex
	clients map[string]*Client // connection handle -> client

	// fanout is serialised per room so the last state queued for a viewer is
	// always the latest one. Different rooms fan out in parallel.
	fanoutLocks *codenames.KeyLock
}

func newGateway(cfg *Config, manager *codenames.Manager) *Gateway {
	return &Gateway{
		cfg:         cfg,
		manager:     manager,
		clients:     make(map[string]*Client),
		fanoutLocks: codenames.NewKeyLock(),
	}
}

// newManager builds the session engine from the command line configuration.
func newManager(cfg *Config) (*codenames.Manager, error) {
	opts := codenames.Options{
		Logf: func(format string, args ...any) {
			logf(cfg, format, args...)
		},
	}

	if cfg.wordsFile != "" {
		words, err := codenames.LoadWordsFile(cfg.wordsFile)
		if err != nil {
			return nil, fmt.Errorf("loading words file %s: %w", cfg.wordsFile, err)
		}
		opts.Words = words

		logf(cfg, "START: Loaded %d words from %s", len(words), cfg.wordsFile)
	}

	if cfg.themeURL != "" {
		opts.Theme = codenames.NewOpenAIThemeGenerator(cfg.themeURL, cfg.themeKey, cfg.themeModel)

		logf(cfg, "START: Theme words enabled via %s (%s)", cfg.themeURL, cfg.themeModel)
	}

	return codenames.NewManager(opts), nil
}

func (g *Gateway) register(c *Client) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clients[c.handle] = c
}

func (g *Gateway) unregister(c *Client) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.clients[c.handle] == c {
		delete(g.clients, c.handle)
	}
}

func (g *Gateway) client(handle string) *Client {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.clients[handle]
}

// fanout sends the current state of a room to every online player, each
// with their own view, followed by any events.
func (g *Gateway) fanout(roomID string, events ...EventMessage) {
	release := g.fanoutLocks.Lock(roomID)
	defer release()

	s, err := g.manager.Snapshot(roomID)
	if err != nil {
		return
	}

	for _, p := range s.Players {
		if !p.IsOnline {
			continue
		}
		c := g.client(p.ConnectionHandle)
		if c == nil {
			continue
		}

		c.push(StateMessage{
			Type:     "game:state",
			PlayerID: p.ID,
			Session:  s.ViewFor(p.ID),
		})
		for _, e := range events {
			c.push(e)
		}
	}
}

// handle runs one client request and builds its ack. A panic is contained to
// the request that caused it.
func (g *Gateway) handle(c *Client, msg ClientMessage) (ack AckMessage) {
	ack = AckMessage{Type: "ack", ID: msg.ID}

	defer func() {
		if r := recover(); r != nil {
			logErr("Recovered from panic handling %q for %s: %v", msg.Type, c.handle, r)

			ack.Success = false
			ack.Data = nil
			ack.Error = "internal error"
			ack.Kind = codenames.KindInternal
		}
	}()

	data, err := g.dispatch(c, msg)
	if err != nil {
		ack.Error, ack.Kind = describeError(err)

		logf(g.cfg, "GAMES: Rejected %s from %s: %v", msg.Type, c.handle, err)

		return ack
	}

	ack.Success = true
	ack.Data = data

	return ack
}

func describeError(err error) (string, codenames.Kind) {
	var e *codenames.Error
	switch {
	case errors.As(err, &e):
		return e.Message, e.Kind
	case errors.Is(err, errUnknownMessage):
		return err.Error(), codenames.KindValidation
	default:
		return "internal error", codenames.KindInternal
	}
}

func (g *Gateway) dispatch(c *Client, msg ClientMessage) (any, error) {
	switch msg.Type {
	case "room:join":
		res, err := g.manager.Join(msg.RoomID, c.handle, msg.Name, c.identity)
		if err != nil {
			return nil, err
		}
		for _, prev := range res.Left {
			g.fanout(prev)
		}
		g.fanout(res.Session.RoomID)

		return JoinData{PlayerID: res.Player.ID, RoomID: res.Session.RoomID, Rejoined: res.Rejoined}, nil

	case "room:leave":
		res, err := g.manager.Leave(c.handle)
		if err != nil {
			return nil, err
		}
		if !res.Deleted {
			g.fanout(res.RoomID)
		}

		return nil, nil

	case "seat:take":
		if msg.SeatIndex == nil {
			return nil, codenames.ErrInvalidSeat
		}
		return g.apply(g.manager.TakeSeat(c.handle, *msg.SeatIndex))

	case "seat:leave":
		return g.apply(g.manager.LeaveSeat(c.handle))

	case "seat:switch":
		if msg.SeatIndex == nil {
			return nil, codenames.ErrInvalidSeat
		}
		return g.apply(g.manager.SwitchSeat(c.handle, *msg.SeatIndex))

	case "config:update":
		return g.apply(g.manager.UpdateMaxPlayers(c.handle, msg.MaxPlayers))

	case "player:rename":
		return g.apply(g.manager.Rename(c.handle, msg.Name))

	case "words:set":
		return g.apply(g.manager.SetWords(c.handle, msg.Words, msg.Theme))

	case "words:generate":
		ctx, cancel := context.WithTimeout(context.Background(), g.cfg.themeTimeout)
		defer cancel()

		return g.apply(g.manager.GenerateWords(ctx, c.handle, msg.Theme))

	case "game:start":
		return g.apply(g.manager.Start(c.handle))

	case "game:restart":
		return g.apply(g.manager.Restart(c.handle))

	case "clue:give":
		s, err := g.manager.GiveClue(c.handle, msg.Word, msg.Count)
		if err != nil {
			return nil, err
		}
		g.fanout(s.RoomID, EventMessage{Type: "clue:new", Data: s.CurrentClue})

		return nil, nil

	case "card:guess":
		if msg.CardIndex == nil {
			return nil, codenames.ErrInvalidCard
		}

		s, result, err := g.manager.GuessCard(c.handle, *msg.CardIndex)
		if err != nil {
			return nil, err
		}

		guess := s.GuessHistory[len(s.GuessHistory)-1]
		if result.AutoReveal >= 0 {
			guess = s.GuessHistory[len(s.GuessHistory)-2]
		}

		events := []EventMessage{{
			Type: "guess:result",
			Data: GuessEvent{
				GuessResult: result,
				CardIndex:   guess.CardIndex,
				PlayerID:    guess.PlayerID,
				PlayerName:  guess.PlayerName,
			},
		}}
		if result.GameEnded {
			events = append(events, gameEnded(s))
		}
		g.fanout(s.RoomID, events...)

		return result, nil

	case "turn:end":
		s, revealed, err := g.manager.EndTurn(c.handle)
		if err != nil {
			return nil, err
		}

		var events []EventMessage
		if s.Phase == codenames.PhaseEnded {
			events = append(events, gameEnded(s))
		}
		g.fanout(s.RoomID, events...)

		return map[string]int{"autoReveal": revealed}, nil

	default:
		return nil, errUnknownMessage
	}
}

// apply fans out the result of a plain state-changing operation.
func (g *Gateway) apply(s *codenames.Session, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	g.fanout(s.RoomID)
	return nil, nil
}

func gameEnded(s *codenames.Session) EventMessage {
	return EventMessage{
		Type: "game:ended",
		Data: GameEndedEvent{Winner: s.Winner, Reason: s.EndReason},
	}
}

func (g *Gateway) readPump(c *Client) {
	defer func() {
		g.unregister(c)
		c.close()

		if s := g.manager.Disconnect(c.handle); s != nil {
			g.fanout(s.RoomID)
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				logf(g.cfg, "SERVE: Connection %s closed: %v", c.handle, err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.push(AckMessage{
				Type:  "ack",
				Error: "malformed message",
				Kind:  codenames.KindValidation,
			})
			continue
		}

		c.push(g.handle(c, msg))
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const playerCookieName = "codenames_id"

// playerIdentity returns the caller's identity key, and a cookie to set when
// the caller did not have one yet.
func playerIdentity(r *http.Request) (string, *http.Cookie) {
	if c, err := r.Cookie(playerCookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}
	id := hex.EncodeToString(buf)

	return id, &http.Cookie{
		Name:     playerCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int((30 * 24 * time.Hour).Seconds()),
	}
}

func roomIDParam(ps httprouter.Params) (string, bool) {
	roomID := strings.ToLower(ps.ByName("roomid"))
	return roomID, codenames.ValidRoomID(roomID)
}

func (g *Gateway) serveWS() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		roomID, ok := roomIDParam(ps)
		if !ok {
			http.Error(w, "invalid room id", http.StatusBadRequest)
			return
		}

		identity, cookie := playerIdentity(r)

		header := http.Header{}
		if cookie != nil {
			header.Add("Set-Cookie", cookie.String())
		}

		conn, err := upgrader.Upgrade(w, r, header)
		if err != nil {
			logf(g.cfg, "SERVE: Websocket upgrade failed for %s: %v", realIP(r), err)
			return
		}

		c := newClient(conn, identity)
		g.register(c)

		go c.writePump()

		logf(g.cfg, "SERVE: Websocket %s opened for room %s by %s", c.handle, roomID, realIP(r))

		c.push(WelcomeMessage{
			Type:         "welcome",
			RoomID:       roomID,
			ThemeEnabled: g.manager.ThemeEnabled(),
		})

		if res, err := g.manager.Reconnect(identity, c.handle); err == nil {
			c.push(EventMessage{
				Type: "reconnected",
				Data: JoinData{PlayerID: res.Player.ID, RoomID: res.Session.RoomID, Rejoined: true},
			})
			g.fanout(res.Session.RoomID)
		}

		g.readPump(c)
	}
}

// serveQR generates a PNG QR code for the current room URL using go-qrcode.
func serveQR(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		startTime := time.Now()

		roomID, ok := roomIDParam(ps)
		if !ok {
			http.Error(w, "invalid room id", http.StatusBadRequest)
			return
		}

		scheme := cfg.scheme()
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		url := scheme + "://" + r.Host + strings.TrimSuffix(r.URL.Path, "/qr")

		const qrSize = 320
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		securityHeaders(cfg, w)

		written, err := w.Write(png)
		if err != nil {
			return
		}

		logf(cfg, "SERVE: QR code for %s (%s) to %s in %s",
			roomID,
			humanReadableSize(written),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

func serveRoomPage(cfg *Config, path string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		roomID, ok := roomIDParam(ps)
		if !ok {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			securityHeaders(cfg, w)
			w.WriteHeader(http.StatusNotFound)

			_, _ = w.Write([]byte(newPage(cfg, "Not Found", "That is not a valid room. Start a new one.")))

			return
		}

		if _, cookie := playerIdentity(r); cookie != nil {
			http.SetCookie(w, cookie)
		}

		roomPath := cfg.prefix + path + "/" + roomID

		var body strings.Builder
		body.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		body.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		fmt.Fprintf(&body, "<title>Codenames %s</title></head><body>", html.EscapeString(roomID))
		fmt.Fprintf(&body, "<h1>Room %s</h1>", html.EscapeString(roomID))
		fmt.Fprintf(&body, `<p>Connect a client to <code>%s/ws</code>.</p>`, html.EscapeString(roomPath))
		fmt.Fprintf(&body, `<img src="%s/qr" alt="QR code for this room" width="320" height="320">`, html.EscapeString(roomPath))
		body.WriteString(`</body></html>`)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		_, _ = w.Write([]byte(body.String()))
	}
}

func serveRoomInfo(cfg *Config, manager *codenames.Manager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		w.Header().Set("Content-Type", "application/json")
		securityHeaders(cfg, w)

		info, err := manager.Info(strings.ToLower(ps.ByName("roomid")))
		if err != nil {
			w.WriteHeader(http.StatusNotFound)

			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Room not found"})

			return
		}

		if err := json.NewEncoder(w).Encode(info); err != nil {
			errs <- err
		}
	}
}

// redirectNewGame handles GET $path by picking an unused room id and
// redirecting to $path/:roomid.
func redirectNewGame(cfg *Config, path string, manager *codenames.Manager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		roomID := manager.NewRoomID()

		logf(cfg, "GAMES: Assigned room %s to %s", roomID, realIP(r))

		http.Redirect(w, r, cfg.prefix+path+"/"+roomID, http.StatusTemporaryRedirect)
	}
}

func registerCodenamesGame(cfg *Config, path string, g *Gateway, mux *httprouter.Router, errs chan<- error) {
	mux.GET(cfg.prefix+path, redirectNewGame(cfg, path, g.manager))

	mux.GET(cfg.prefix+path+"/:roomid", serveRoomPage(cfg, path))

	mux.GET(cfg.prefix+path+"/:roomid/ws", g.serveWS())

	mux.GET(cfg.prefix+path+"/:roomid/qr", serveQR(cfg))

	mux.GET(cfg.prefix+"/api/room/:roomid", serveRoomInfo(cfg, g.manager, errs))
}
