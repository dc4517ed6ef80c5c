package server

import (
	"errors"
	"sync"
	"time"

	"github.com/chaos-io/bgremover/rembg"
	"github.com/segmentio/ksuid"
)

var (
	errSessionNotFound = errors.New("session not found")
	errNoResult        = errors.New("session has no result yet")
)

// Session 一张已上传的原图及其最近一次提交的结果
// 同一会话的重复渲染由 ctrl 串行化：新请求取消旧请求
type Session struct {
	ID     string
	src    *rembg.Buffer
	ctrl   *rembg.Controller
	mu     sync.RWMutex
	result *rembg.Result
	token  rembg.Token
	access time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.access = now
	s.mu.Unlock()
}

func (s *Session) lastAccess() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

func (s *Session) commit(t rembg.Token, res *rembg.Result) {
	s.mu.Lock()
	s.result = res
	s.token = t
	s.mu.Unlock()
}

// Latest 最近一次提交的结果
func (s *Session) Latest() (*rembg.Result, rembg.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.result == nil {
		return nil, 0, errNoResult
	}
	return s.result, s.token, nil
}

// Store 内存中的会话表，超过 ttl 未访问的会话由 Sweep 清理
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (st *Store) Create(src *rembg.Buffer) *Session {
	sess := &Session{
		ID:     ksuid.New().String(),
		src:    src,
		ctrl:   rembg.NewController(),
		access: st.now(),
	}

	st.mu.Lock()
	st.sessions[sess.ID] = sess
	st.mu.Unlock()
	return sess
}

func (st *Store) Get(id string) (*Session, error) {
	st.mu.Lock()
	sess, ok := st.sessions[id]
	st.mu.Unlock()
	if !ok {
		return nil, errSessionNotFound
	}
	sess.touch(st.now())
	return sess, nil
}

func (st *Store) Delete(id string) error {
	st.mu.Lock()
	sess, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if !ok {
		return errSessionNotFound
	}
	sess.ctrl.Stop()
	return nil
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep 删除过期会话并取消其仍在运行的渲染，返回删除数量
func (st *Store) Sweep() int {
	deadline := st.now().Add(-st.ttl)

	st.mu.Lock()
	var expired []*Session
	for id, sess := range st.sessions {
		if sess.lastAccess().Before(deadline) {
			expired = append(expired, sess)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, sess := range expired {
		sess.ctrl.Stop()
	}
	return len(expired)
}
