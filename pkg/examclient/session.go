package examclient

import "sync"

// Session 客户端认证上下文，显式传入 Client，不依赖全局存储
type Session struct {
	mu    sync.RWMutex
	token string
	email string
	role  string
}

func NewSession() *Session {
	return &Session{}
}

// Init 登录成功后写入令牌
func (s *Session) Init(token, email, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.email = email
	s.role = role
}

// Clear 登出或收到 401 时清空
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.email = ""
	s.role = ""
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.email
}

func (s *Session) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}
