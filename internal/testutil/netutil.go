package testutil

import (
	"net"
	"sync"
	"testing"
	"time"
)

// PipeConn создаёт пару net.Conn соединений через net.Pipe для тестирования.
// Автоматически закрывает соединения при завершении теста.
func PipeConn(t testing.TB) (client, server net.Conn) {
	t.Helper()

	server, client = net.Pipe()

	t.Cleanup(func() {
		_ = server.Close()
		_ = client.Close()
	})

	return client, server
}

// ListenTCP создаёт TCP listener на случайном порту для тестов.
// Возвращает listener и адрес в формате "host:port".
// Автоматически закрывает listener при завершении теста.
func ListenTCP(t testing.TB) (net.Listener, string) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create TCP listener: %v", err)
	}

	t.Cleanup(func() {
		_ = listener.Close()
	})

	return listener, listener.Addr().String()
}

// ConnWithDeadline оборачивает net.Conn и автоматически устанавливает deadline
// для каждого read/write. Зависший сервер валит тест по таймауту, а не CI.
type ConnWithDeadline struct {
	net.Conn
	deadline time.Duration
}

// NewConnWithDeadline создаёт обёртку с автоматическим deadline.
func NewConnWithDeadline(conn net.Conn, deadline time.Duration) *ConnWithDeadline {
	return &ConnWithDeadline{
		Conn:     conn,
		deadline: deadline,
	}
}

func (c *ConnWithDeadline) Read(b []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.deadline)); err != nil {
		return 0, err
	}
	return c.Conn.Read(b)
}

func (c *ConnWithDeadline) Write(b []byte) (int, error) {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(c.deadline)); err != nil {
		return 0, err
	}
	return c.Conn.Write(b)
}

// MockConn — net.Conn, который копит записанное в память. Write
// синхронизирован: writePump сессии пишет из своей горутины, а тест
// читает накопленное из своей.
type MockConn struct {
	mu       sync.Mutex
	readBuf  []byte
	writeBuf []byte
}

// NewMockConn создаёт новый MockConn экземпляр.
func NewMockConn() *MockConn {
	return &MockConn{}
}

// Read читает данные из readBuf.
func (m *MockConn) Read(b []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := copy(b, m.readBuf)
	m.readBuf = m.readBuf[n:]
	return n, nil
}

// Write записывает данные в writeBuf.
func (m *MockConn) Write(b []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeBuf = append(m.writeBuf, b...)
	return len(b), nil
}

// Written возвращает копию всего записанного в соединение.
func (m *MockConn) Written() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, len(m.writeBuf))
	copy(out, m.writeBuf)
	return out
}

// Close закрывает соединение (no-op).
func (m *MockConn) Close() error { return nil }

// LocalAddr возвращает локальный адрес (mock).
func (m *MockConn) LocalAddr() net.Addr {
	return &mockAddr{network: "tcp", address: "127.0.0.1:8080"}
}

// RemoteAddr возвращает удалённый адрес (mock).
func (m *MockConn) RemoteAddr() net.Addr {
	return &mockAddr{network: "tcp", address: "192.168.1.100:54321"}
}

// SetDeadline устанавливает deadline (no-op).
func (m *MockConn) SetDeadline(t time.Time) error { return nil }

// SetReadDeadline устанавливает read deadline (no-op).
func (m *MockConn) SetReadDeadline(t time.Time) error { return nil }

// SetWriteDeadline устанавливает write deadline (no-op).
func (m *MockConn) SetWriteDeadline(t time.Time) error { return nil }

// mockAddr — mock для net.Addr.
type mockAddr struct {
	network string
	address string
}

// Network возвращает имя сети.
func (a *mockAddr) Network() string { return a.network }

// String возвращает строковое представление адреса.
func (a *mockAddr) String() string { return a.address }
