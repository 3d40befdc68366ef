package testutil

import (
	"bufio"
	"fmt"
	"math/rand/v2"
	"net"
	"testing"
	"time"

	"github.com/udisondev/seabattle/internal/protocol"
)

// Client упрощает написание integration тестов для игрового сервера.
// Скриптовый клиент протокола: шлёт line-delimited JSON команды и читает
// ответные кадры с дедлайном на каждом чтении.
type Client struct {
	t    testing.TB
	conn net.Conn
	sc   *bufio.Scanner

	timeout time.Duration
}

// Dial подключается к серверу и возвращает готовый Client.
// Использует t.Cleanup() для автоматического закрытия соединения.
func Dial(t testing.TB, addr string) *Client {
	t.Helper()

	// Retry dial с экспоненциальным бэкофф + jitter: macOS TCP стек может
	// не успевать освобождать порты при массовых подключениях
	var conn net.Conn
	var err error
	for attempt := range 10 {
		conn, err = net.DialTimeout("tcp", addr, 5*time.Second)
		if err == nil {
			break
		}
		if attempt < 9 {
			base := time.Duration(20<<min(attempt, 6)) * time.Millisecond
			jitter := time.Duration(rand.IntN(int(base/2)+1)) * time.Millisecond
			time.Sleep(base + jitter)
		}
	}
	if err != nil {
		t.Fatalf("dial game server: %v", err)
	}

	// SO_LINGER=0: немедленный RST вместо TIME_WAIT, предотвращает
	// исчерпание эфемерных портов в тестах
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err := tcpConn.SetLinger(0); err != nil {
			_ = conn.Close()
			t.Fatalf("set linger: %v", err)
		}
	}

	timeout := 5 * time.Second
	sc := bufio.NewScanner(NewConnWithDeadline(conn, timeout))
	sc.Buffer(make([]byte, 0, 4096), protocol.MaxFrameSize)

	c := &Client{
		t:       t,
		conn:    conn,
		sc:      sc,
		timeout: timeout,
	}

	t.Cleanup(func() {
		_ = c.Close()
	})

	return c
}

// Close закрывает соединение. Повторный вызов безопасен.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Send отправляет одну команду с payload.
func (c *Client) Send(cmd string, payload any) {
	c.t.Helper()

	frame, err := protocol.Encode(cmd, payload)
	if err != nil {
		c.t.Fatalf("encoding %s: %v", cmd, err)
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		c.t.Fatalf("set write deadline: %v", err)
	}
	if _, err := c.conn.Write(frame); err != nil {
		c.t.Fatalf("sending %s: %v", cmd, err)
	}
}

// Next читает следующий кадр. Валит тест по дедлайну или обрыву.
func (c *Client) Next() protocol.Message {
	c.t.Helper()

	if !c.sc.Scan() {
		if err := c.sc.Err(); err != nil {
			c.t.Fatalf("reading frame: %v", err)
		}
		c.t.Fatalf("connection closed by server")
	}
	msg, err := protocol.Decode(c.sc.Bytes())
	if err != nil {
		c.t.Fatalf("decoding frame %q: %v", c.sc.Text(), err)
	}
	return msg
}

// Expect читает кадры, пока не встретит cmd, и возвращает его.
// Промежуточные кадры других типов пропускаются: во время игры сервер
// может прислать TURN_CHANGE или PING_UPDATE между ожидаемыми ответами.
func (c *Client) Expect(cmd string) protocol.Message {
	c.t.Helper()

	for {
		msg := c.Next()
		if msg.Cmd == cmd {
			return msg
		}
	}
}

// ExpectPayload — Expect с разбором payload в out.
func (c *Client) ExpectPayload(cmd string, out any) {
	c.t.Helper()

	msg := c.Expect(cmd)
	if err := msg.Bind(out); err != nil {
		c.t.Fatalf("binding %s payload: %v", cmd, err)
	}
}

// ExpectSystem ждёт SYSTEM_MSG и проверяет код.
func (c *Client) ExpectSystem(code int) protocol.SystemMsg {
	c.t.Helper()

	var sys protocol.SystemMsg
	c.ExpectPayload(protocol.SrvSystemMsg, &sys)
	if sys.Code != code {
		c.t.Fatalf("SYSTEM_MSG code = %d (%q), want %d", sys.Code, sys.Message, code)
	}
	return sys
}

// Register регистрирует аккаунт и ждёт REGISTER_SUCCESS.
func (c *Client) Register(username, password string) {
	c.t.Helper()

	c.Send(protocol.CmdRegister, protocol.Credentials{Username: username, Password: password})
	c.Expect(protocol.SrvRegisterSuccess)
}

// Login логинится и возвращает payload LOGIN_SUCCESS.
func (c *Client) Login(username, password string) protocol.LoginSuccess {
	c.t.Helper()

	c.Send(protocol.CmdLogin, protocol.Credentials{Username: username, Password: password})
	var ok protocol.LoginSuccess
	c.ExpectPayload(protocol.SrvLoginSuccess, &ok)
	return ok
}

// PlaceFleet отправляет стандартную расстановку: все корабли горизонтально
// в чётных рядах от нулевой колонки.
func (c *Client) PlaceFleet() {
	c.t.Helper()

	c.Send(protocol.CmdPlaceShips, protocol.PlaceShipsRequest{Ships: StandardFleet()})
}

// StandardFleet возвращает валидный флот для PLACE_SHIPS.
func StandardFleet() []protocol.ShipPlacement {
	return []protocol.ShipPlacement{
		{Name: "Carrier", Size: 5, Row: 0, Col: 0, Horizontal: true},
		{Name: "Battleship", Size: 4, Row: 2, Col: 0, Horizontal: true},
		{Name: "Cruiser", Size: 3, Row: 4, Col: 0, Horizontal: true},
		{Name: "Submarine", Size: 3, Row: 6, Col: 0, Horizontal: true},
		{Name: "Destroyer", Size: 2, Row: 8, Col: 0, Horizontal: true},
	}
}

// FleetCoords возвращает координаты всех клеток StandardFleet в формате
// протокола ("A0".."J9"). Выстрелы по ним топят весь флот.
func FleetCoords() []string {
	var coords []string
	for _, sp := range StandardFleet() {
		for i := range sp.Size {
			coords = append(coords, fmt.Sprintf("%c%d", 'A'+sp.Row, sp.Col+i))
		}
	}
	return coords
}
