package testutil

import (
	"fmt"
	"net"
	"testing"
	"time"
)

const pollInterval = 10 * time.Millisecond

// WaitForTCPReady поллит addr пока сервер не начнёт принимать подключения.
// Замена time.Sleep после `go srv.Serve(...)` в integration тестах.
func WaitForTCPReady(addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error

	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		lastErr = err
		time.Sleep(pollInterval)
	}

	return fmt.Errorf("server at %s not ready after %v: %w", addr, timeout, lastErr)
}

// WaitForCleanup поллит check пока условие не выполнится.
// Нужен для асинхронного разбора после disconnect: жнец, teardown матча,
// освобождение имени в реестре — всё это происходит не в момент Close.
func WaitForCleanup(t testing.TB, check func() bool, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if check() {
			return
		}
		time.Sleep(pollInterval)
	}

	t.Fatalf("cleanup timeout: condition not met within %v", timeout)
}
