package central

import (
	"net"
	"sync"
	"time"
)

// ============================================================================
//                              中心通告服务器
// ============================================================================

// Server 内存版中心通告服务器
//
// 存储 key -> value -> 过期时间，按 TTL 惰性淘汰。生产部署中
// 这是独立进程；这里的实现足以支撑测试和单机使用。
type Server struct {
	ln net.Listener

	mu      sync.Mutex
	entries map[string]map[string]time.Time
	conns   map[net.Conn]struct{}
	closed  bool

	wg sync.WaitGroup
}

// NewServer 创建并启动服务器
//
// addr 传 "127.0.0.1:0" 可让系统分配端口，实际地址用 Addr() 获取。
func NewServer(addr string) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	s := &Server{
		ln:      ln,
		entries: make(map[string]map[string]time.Time),
		conns:   make(map[net.Conn]struct{}),
	}

	s.wg.Add(1)
	go s.acceptLoop()

	log.Info("central server listening", "addr", ln.Addr().String())
	return s, nil
}

// Addr 返回服务器监听地址
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Close 关闭服务器及所有活动连接
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()

	err := s.ln.Close()
	s.wg.Wait()
	return err
}

// Lookup 返回某个键下所有未过期的值（测试与调试用）
func (s *Server) Lookup(key string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(key, time.Now())

	values := make([]string, 0, len(s.entries[key]))
	for value := range s.entries[key] {
		values = append(values, value)
	}
	return values
}

// ============================================================================
//                              连接处理
// ============================================================================

// acceptLoop 接受连接
func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			_ = conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

// handleConn 处理单条连接上的请求帧，直到对端关闭
func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		_ = conn.Close()
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	for {
		var req Request
		if err := ReadFrame(conn, &req); err != nil {
			return
		}

		resp := s.handle(req)
		if err := WriteFrame(conn, resp); err != nil {
			return
		}
	}
}

// handle 处理单个请求
func (s *Server) handle(req Request) Response {
	switch req.Op {
	case OpPut:
		return s.handlePut(req)
	case OpGet:
		return s.handleGet(req)
	default:
		return Response{Error: "unknown op: " + req.Op}
	}
}

// handlePut 登记一条通告
func (s *Server) handlePut(req Request) Response {
	if err := ValidateFact(req.Key, req.Value); err != nil {
		return Response{Error: err.Error()}
	}
	if req.TTLSeconds <= 0 {
		return Response{Error: "ttl must be positive"}
	}

	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(req.Key, now)

	values, ok := s.entries[req.Key]
	if !ok {
		values = make(map[string]time.Time)
		s.entries[req.Key] = values
	}
	values[req.Value] = now.Add(time.Duration(req.TTLSeconds) * time.Second)

	return Response{OK: true}
}

// handleGet 查询一个键下的有效值
func (s *Server) handleGet(req Request) Response {
	if req.Key == "" {
		return Response{Error: "key is empty"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(req.Key, time.Now())

	values := make([]string, 0, len(s.entries[req.Key]))
	for value := range s.entries[req.Key] {
		values = append(values, value)
	}
	return Response{OK: true, Values: values}
}

// pruneLocked 淘汰某个键下的过期记录（须持锁调用）
func (s *Server) pruneLocked(key string, now time.Time) {
	values, ok := s.entries[key]
	if !ok {
		return
	}
	for value, expires := range values {
		if now.After(expires) {
			delete(values, value)
		}
	}
	if len(values) == 0 {
		delete(s.entries, key)
	}
}
