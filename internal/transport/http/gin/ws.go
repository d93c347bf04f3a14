package httpgin

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/kirinyoku/barhop/internal/ordersync"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxInboundSize = 512
	sendBuffer     = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsClient serializes frames for one connection. Frames pushed after close
// are dropped.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
	log  *slog.Logger

	mu     sync.Mutex
	closed bool
}

func (w *wsClient) push(f WSFrame) {
	b, err := json.Marshal(f)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	select {
	case w.send <- b:
	default:
		w.log.Warn("ws send buffer full, frame dropped", slog.String("type", f.Type))
	}
}

func (w *wsClient) close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.closed {
		w.closed = true
		close(w.send)
	}
}

// @Summary  Live order updates
// @Description  WebSocket. Sends {"type":"state"} on connect and on every change,
// @Description  and {"type":"ready"} once when the order becomes ready for pickup.
// @Param    phone  query  string  true  "customer phone number"
// @Failure  400  {object}  ErrorResponse
// @Router   /ws/orders [get]
func handleOrdersWS(svcs Services, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ls, err := svcs.Orders.OpenSession(c.Request.Context(), c.Query("phone"))
		if err != nil {
			respondErr(c, err)
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			ls.Close()
			return
		}

		log := logger.With(slog.String("session_id", ls.ID))
		client := &wsClient{conn: conn, send: make(chan []byte, sendBuffer), log: log}

		ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request.Context()))

		// publish sends st and whatever effects are queued. The initial push
		// also flushes effects queued between OpenSession and Subscribe.
		var frames sync.Mutex
		publish := func(st ordersync.State) {
			frames.Lock()
			defer frames.Unlock()

			resp := newOrderStateResponse(st)
			client.push(WSFrame{Type: frameState, State: &resp})

			effects := ls.Drain()
			for _, e := range effects {
				if e.Kind == ordersync.EffectNotifyReady {
					client.push(WSFrame{Type: frameReady, Order: e.Order})
				}
			}
			if len(effects) > 0 {
				svcs.Orders.HandleEffects(ctx, effects)
			}
		}

		unsubscribe := ls.Subscribe(publish)
		publish(ls.State())

		log.Info("order session opened")

		go writePump(client)
		readPump(client)

		unsubscribe()
		ls.Close()
		cancel()
		client.close()

		log.Info("order session closed")
	}
}

func writePump(w *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = w.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-w.send:
			_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = w.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := w.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := w.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only keeps the connection alive; clients have nothing to say.
func readPump(w *wsClient) {
	w.conn.SetReadLimit(maxInboundSize)
	_ = w.conn.SetReadDeadline(time.Now().Add(pongWait))
	w.conn.SetPongHandler(func(string) error {
		return w.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := w.conn.ReadMessage(); err != nil {
			return
		}
	}
}
