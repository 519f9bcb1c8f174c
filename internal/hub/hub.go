package hub

import (
	"context"

	"github.com/DoyleJ11/wordlink-backend/pkg/types"
	"go.uber.org/zap"
)

type HubMsg interface{ isHubMsg() }

// Attach registers a connection for a player. A player may hold several
// connections (tabs); each gets every event addressed to the player.
type Attach struct {
	PlayerID string
	ConnID   string
	Outbox   chan types.Event
}

type Detach struct {
	PlayerID string
	ConnID   string
}

type Publish struct {
	PlayerIDs []string
	Event     types.Event
}

type ShutdownHub struct{}

// GetStats reflects internal state without data races. Test-only.
type GetStats struct {
	Reply chan Stats
}

type Stats struct {
	Players     int
	Connections int
}

func (Attach) isHubMsg()      {}
func (Detach) isHubMsg()      {}
func (Publish) isHubMsg()     {}
func (ShutdownHub) isHubMsg() {}
func (GetStats) isHubMsg()    {}

type Hub struct {
	inbox  chan HubMsg
	conns  map[string]map[string]chan types.Event
	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.Logger
}

func NewHub(parent context.Context, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		conns:  make(map[string]map[string]chan types.Event),
		ctx:    ctx,
		cancel: cancel,
		log:    logger,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// NotifyPlayers queues event for delivery to every connection of the given
// players. Delivery is best effort: players without a connection miss it.
func (h *Hub) NotifyPlayers(ctx context.Context, playerIDs []string, event string, payload any) error {
	msg := Publish{PlayerIDs: playerIDs, Event: types.Event{Type: event, Data: payload}}
	if err := h.ctx.Err(); err != nil {
		return err
	}
	select {
	case h.inbox <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.ctx.Done():
		return h.ctx.Err()
	}
}

// Connect attaches outbox to playerID. It reports false once the hub is gone.
func (h *Hub) Connect(playerID, connID string, outbox chan types.Event) bool {
	return h.send(Attach{PlayerID: playerID, ConnID: connID, Outbox: outbox})
}

func (h *Hub) Disconnect(playerID, connID string) {
	h.send(Detach{PlayerID: playerID, ConnID: connID})
}

func (h *Hub) send(m HubMsg) bool {
	if h.ctx.Err() != nil {
		return false
	}
	select {
	case h.inbox <- m:
		return true
	case <-h.ctx.Done():
		return false
	}
}

func (h *Hub) Shutdown() {
	select {
	case h.inbox <- ShutdownHub{}:
	case <-h.ctx.Done():
	}
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.closeAll()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Attach:
				if h.conns[msg.PlayerID] == nil {
					h.conns[msg.PlayerID] = make(map[string]chan types.Event)
				}
				h.conns[msg.PlayerID][msg.ConnID] = msg.Outbox

			case Detach:
				if out, ok := h.conns[msg.PlayerID][msg.ConnID]; ok {
					close(out)
					h.drop(msg.PlayerID, msg.ConnID)
				}

			case Publish:
				for _, id := range msg.PlayerIDs {
					h.deliver(id, msg.Event)
				}

			case GetStats:
				s := Stats{Players: len(h.conns)}
				for _, c := range h.conns {
					s.Connections += len(c)
				}
				msg.Reply <- s

			case ShutdownHub:
				h.closeAll()
				h.cancel()
				return
			}
		}
	}
}

func (h *Hub) deliver(playerID string, ev types.Event) {
	for connID, ch := range h.conns[playerID] {
		select {
		case ch <- ev:
			// ok
		default:
			// Connection is slow/full - drop it.
			h.log.Warn("dropping slow connection",
				zap.String("player_id", playerID),
				zap.String("conn_id", connID),
				zap.String("event", ev.Type),
			)
			close(ch)
			h.drop(playerID, connID)
		}
	}
}

func (h *Hub) drop(playerID, connID string) {
	delete(h.conns[playerID], connID)
	if len(h.conns[playerID]) == 0 {
		delete(h.conns, playerID)
	}
}

func (h *Hub) closeAll() {
	for playerID, conns := range h.conns {
		for _, ch := range conns {
			close(ch)
		}
		delete(h.conns, playerID)
	}
}
