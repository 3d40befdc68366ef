package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// MaxFrameSize ограничивает длину одной строки протокола.
// Строки длиннее считаются мусором, и соединение закрывается.
const MaxFrameSize = 64 * 1024

var (
	// ErrEmptyFrame означает пустую строку (клиент прислал только \n).
	ErrEmptyFrame = errors.New("empty frame")
	// ErrMissingCmd означает валидный JSON без поля cmd.
	ErrMissingCmd = errors.New("missing cmd field")
)

// Message is one protocol frame: {"cmd":"...","payload":{...}}.
// Payload остаётся сырым JSON до диспетчеризации — конкретный тип
// известен только обработчику команды.
type Message struct {
	Cmd     string          `json:"cmd"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Decode parses one newline-delimited frame (without the trailing \n).
// A trailing \r from CRLF clients is tolerated.
func Decode(line []byte) (Message, error) {
	line = bytes.TrimRight(line, "\r")
	if len(bytes.TrimSpace(line)) == 0 {
		return Message{}, ErrEmptyFrame
	}

	var m Message
	if err := json.Unmarshal(line, &m); err != nil {
		return Message{}, fmt.Errorf("parsing frame: %w", err)
	}
	if m.Cmd == "" {
		return Message{}, ErrMissingCmd
	}
	return m, nil
}

// Bind unmarshals the message payload into v.
// Отсутствующий payload трактуется как пустой объект.
func (m Message) Bind(v any) error {
	raw := m.Payload
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("parsing %s payload: %w", m.Cmd, err)
	}
	return nil
}

// AppendFrame serializes one frame into dst and appends the trailing
// newline. dst is typically a pooled buffer; the grown slice is returned.
// nil payload encodes as an empty object so clients always see a payload key.
func AppendFrame(dst []byte, cmd string, payload any) ([]byte, error) {
	msg := Message{Cmd: cmd}

	if payload == nil {
		msg.Payload = json.RawMessage("{}")
	} else {
		raw, err := json.Marshal(payload)
		if err != nil {
			return dst, fmt.Errorf("encoding %s payload: %w", cmd, err)
		}
		msg.Payload = raw
	}

	frame, err := json.Marshal(msg)
	if err != nil {
		return dst, fmt.Errorf("encoding %s frame: %w", cmd, err)
	}

	dst = append(dst, frame...)
	dst = append(dst, '\n')
	return dst, nil
}

// Encode is AppendFrame into a fresh buffer. Удобно в тестах и
// одноразовых отправках, где пул буферов не нужен.
func Encode(cmd string, payload any) ([]byte, error) {
	return AppendFrame(nil, cmd, payload)
}
