package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"matrix_exam_backend/internal/model"
	"matrix_exam_backend/pkg/logger"
	"matrix_exam_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	shardCount     = 32
	sendBuffer     = 16

	hubChannel = "exam_session_channel"

	MsgTimer         = "TIMER"
	MsgSessionStart  = "SESSION_STARTED"
	MsgSessionClosed = "SESSION_SUBMITTED"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// SessionNotifier 会话状态变化时推送给学生
type SessionNotifier interface {
	NotifyStudent(studentID uint, msg WSMessage)
}

// ActiveLookup 查询学生当前会话，没有时返回 nil
type ActiveLookup func(ctx context.Context, studentID uint) (*model.ExamSessionResponse, error)

type hubClient struct {
	hub       *SessionHub
	conn      *websocket.Conn
	send      chan []byte
	studentID uint
}

// readPump 只处理 pong 和关闭，客户端不需要上行消息
func (c *hubClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Warn("WebSocket unexpected close", zap.Error(err), zap.Uint("student_id", c.studentID))
			}
			return
		}
	}
}

func (c *hubClient) writePump() {
	ping := time.NewTicker(pingPeriod)
	timer := time.NewTicker(c.hub.tickPeriod)
	defer func() {
		ping.Stop()
		timer.Stop()
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
		case <-timer.C:
			c.hub.pushTimer(c)
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type shard struct {
	clients map[uint]*hubClient
	mu      sync.RWMutex
}

// SessionHub 维护学生的 websocket 连接，推送剩余时间和交卷通知；配置 redis 时跨实例广播
type SessionHub struct {
	shards     [shardCount]*shard
	register   chan *hubClient
	unregister chan *hubClient
	Redis      *redis.Client
	Lookup     ActiveLookup
	tickPeriod time.Duration
}

type pubSubMessage struct {
	TargetUsers []uint          `json:"targetUsers"`
	Payload     json.RawMessage `json:"payload"`
}

func NewSessionHub(rdb *redis.Client, tick time.Duration) *SessionHub {
	if tick <= 0 {
		tick = 5 * time.Second
	}
	h := &SessionHub{
		register:   make(chan *hubClient),
		unregister: make(chan *hubClient),
		Redis:      rdb,
		tickPeriod: tick,
	}
	for i := 0; i < shardCount; i++ {
		h.shards[i] = &shard{clients: make(map[uint]*hubClient)}
	}
	return h
}

func (h *SessionHub) getShard(studentID uint) *shard {
	return h.shards[studentID%shardCount]
}

// Run 处理注册注销，ctx 结束时关闭所有连接
func (h *SessionHub) Run(ctx context.Context) {
	if h.Redis != nil {
		pubsub := h.Redis.Subscribe(ctx, hubChannel)
		defer pubsub.Close()
		go func() {
			for msg := range pubsub.Channel() {
				var ps pubSubMessage
				if err := json.Unmarshal([]byte(msg.Payload), &ps); err != nil {
					logger.Log.Error("PubSub unmarshal error", zap.Error(err))
					continue
				}
				h.pushLocal(ps.TargetUsers, ps.Payload)
			}
		}()
	}

	for {
		select {
		case client := <-h.register:
			s := h.getShard(client.studentID)
			s.mu.Lock()
			if old, ok := s.clients[client.studentID]; ok {
				close(old.send)
				monitoring.WSConnections.Dec()
			}
			s.clients[client.studentID] = client
			s.mu.Unlock()
			monitoring.WSConnections.Inc()

		case client := <-h.unregister:
			s := h.getShard(client.studentID)
			s.mu.Lock()
			if cur, ok := s.clients[client.studentID]; ok && cur == client {
				delete(s.clients, client.studentID)
				close(client.send)
				monitoring.WSConnections.Dec()
			}
			s.mu.Unlock()

		case <-ctx.Done():
			h.stop()
			return
		}
	}
}

func (h *SessionHub) stop() {
	for i := 0; i < shardCount; i++ {
		s := h.shards[i]
		s.mu.Lock()
		for id, client := range s.clients {
			close(client.send)
			delete(s.clients, id)
			monitoring.WSConnections.Dec()
		}
		s.mu.Unlock()
	}
	logger.Log.Info("SessionHub stopped")
}

// Connected 本实例上是否有该学生的连接
func (h *SessionHub) Connected(studentID uint) bool {
	s := h.getShard(studentID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.clients[studentID]
	return ok
}

func (h *SessionHub) NotifyStudent(studentID uint, msg WSMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		logger.Log.Error("Marshal ws message failed", zap.Error(err))
		return
	}
	if h.Redis != nil {
		data, _ := json.Marshal(pubSubMessage{TargetUsers: []uint{studentID}, Payload: payload})
		if err := h.Redis.Publish(context.Background(), hubChannel, data).Err(); err == nil {
			return
		}
		logger.Log.Warn("Redis publish failed, delivering locally", zap.Error(err))
	}
	h.pushLocal([]uint{studentID}, payload)
}

// pushLocal 发送缓冲满时丢弃，避免阻塞业务调用方
func (h *SessionHub) pushLocal(studentIDs []uint, payload []byte) {
	for _, id := range studentIDs {
		s := h.getShard(id)
		s.mu.RLock()
		if client, ok := s.clients[id]; ok {
			select {
			case client.send <- payload:
			default:
				logger.Log.Debug("WebSocket send buffer full", zap.Uint("student_id", id))
			}
		}
		s.mu.RUnlock()
	}
}

func (h *SessionHub) pushTimer(c *hubClient) {
	if h.Lookup == nil {
		return
	}
	active, err := h.Lookup(context.Background(), c.studentID)
	if err != nil {
		logger.Log.Warn("Active session lookup failed", zap.Error(err), zap.Uint("student_id", c.studentID))
		return
	}
	if active == nil {
		return
	}
	h.pushLocal([]uint{c.studentID}, mustMarshal(WSMessage{
		Type: MsgTimer,
		Data: map[string]interface{}{
			"sessionId":        active.SessionID,
			"remainingSeconds": active.RemainingSeconds,
			"deadline":         active.Deadline,
		},
	}))
}

func mustMarshal(msg WSMessage) []byte {
	b, _ := json.Marshal(msg)
	return b
}

// ServeWs 升级连接并启动读写协程
func ServeWs(h *SessionHub, w http.ResponseWriter, r *http.Request, studentID uint) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	client := &hubClient{hub: h, conn: conn, send: make(chan []byte, sendBuffer), studentID: studentID}
	h.register <- client

	go client.writePump()
	go client.readPump()
	h.pushTimer(client)
}
