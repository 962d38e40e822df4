package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Event names on the realtime wire.
const (
	EventRegister    = "register"
	EventTyping      = "typing"
	EventSendMessage = "sendMessage"
	EventMarkSeen    = "markSeen"
	EventJoinRoom    = "joinRoom"
	EventCodeUpdate  = "codeUpdate"
	EventCursorMove  = "cursorMove"
	EventNewMessage  = "newMessage"

	// Outbound only.
	EventOnlineUsers   = "onlineUsers"
	EventJoinedUsers   = "joinedUsers"
	EventUserTyping    = "userTyping"
	EventStatusUpdated = "statusUpdated"
	EventNotification  = "notification"
)

var (
	ErrUnknownEvent     = errors.New("unknown event")
	ErrMalformedPayload = errors.New("malformed payload")
	ErrMissingRoom      = errors.New("missing room")
	ErrMissingField     = errors.New("missing required field")
)

// Envelope is one frame read from a client connection.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// OutboundEvent is one frame written to a client connection.
type OutboundEvent struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// InboundEvent is implemented by every decoded client event.
type InboundEvent interface {
	EventName() string
}

type RegisterEvent struct {
	Identity string
}

// DirectTypingEvent is "typing" with a plain receiver identity.
type DirectTypingEvent struct {
	To string
}

// RoomTypingEvent is "typing" sent from inside a pair-programming room.
type RoomTypingEvent struct {
	Room string `json:"room"`
	Name string `json:"name"`
}

// DirectMessage is the messageData carried by sendMessage.
type DirectMessage struct {
	ID       string `json:"id,omitempty"`
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Message  string `json:"message"`
}

type SendMessageEvent struct {
	To          string          `json:"to"`
	MessageData json.RawMessage `json:"messageData"`

	Message DirectMessage `json:"-"`
}

// Ref returns the store reference for the message being sent.
func (e SendMessageEvent) Ref() MessageRef {
	return MessageRef{
		ID:       e.Message.ID,
		Sender:   e.Message.Sender,
		Receiver: e.Message.Receiver,
		Message:  e.Message.Message,
	}
}

// WithStatus returns messageData with status merged in and identities in
// their normalized spelling. Unknown fields the client put in messageData are
// preserved.
func (e SendMessageEvent) WithStatus(status MessageStatus) map[string]any {
	merged := make(map[string]any)
	_ = json.Unmarshal(e.MessageData, &merged)
	if e.Message.Sender != "" {
		merged["sender"] = e.Message.Sender
	}
	if e.Message.Receiver != "" {
		merged["receiver"] = e.Message.Receiver
	}
	merged["status"] = string(status)
	return merged
}

// SeenReceipt is both the markSeen payload and the statusUpdated payload.
type SeenReceipt struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
}

type JoinRoomEvent struct {
	Room string `json:"room"`
	Name string `json:"name"`
}

type CodeUpdateEvent struct {
	Room string `json:"room"`
	Code string `json:"code"`
}

type CursorMoveEvent struct {
	Room     string          `json:"room"`
	Position json.RawMessage `json:"position"`
}

// RoomMessageEvent is an in-room chat message. The object is relayed as-is.
type RoomMessageEvent struct {
	Room string
	Raw  json.RawMessage
}

func (RegisterEvent) EventName() string     { return EventRegister }
func (DirectTypingEvent) EventName() string { return EventTyping }
func (RoomTypingEvent) EventName() string   { return EventTyping }
func (SendMessageEvent) EventName() string  { return EventSendMessage }
func (SeenReceipt) EventName() string       { return EventMarkSeen }
func (JoinRoomEvent) EventName() string     { return EventJoinRoom }
func (CodeUpdateEvent) EventName() string   { return EventCodeUpdate }
func (CursorMoveEvent) EventName() string   { return EventCursorMove }
func (RoomMessageEvent) EventName() string  { return EventNewMessage }

// Outbound payloads.
type TypingPayload struct {
	From string `json:"from"`
}

type CursorPayload struct {
	Position json.RawMessage `json:"position"`
}

// NormalizeIdentity is the canonical spelling of a user identity (an email):
// trimmed and lower-cased. Every identity that reaches the presence registry or
// the store goes through it.
func NormalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

// DecodeEvent validates an envelope and returns its typed event. Identities
// in the payload come back normalized.
func DecodeEvent(env Envelope) (InboundEvent, error) {
	payload := bytes.TrimSpace(env.Payload)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return nil, fmt.Errorf("%s: %w", env.Event, ErrMalformedPayload)
	}

	switch env.Event {
	case EventRegister:
		var identity string
		if err := unmarshal(env.Event, payload, &identity); err != nil {
			return nil, err
		}
		identity = NormalizeIdentity(identity)
		if identity == "" {
			return nil, fmt.Errorf("%s: identity: %w", env.Event, ErrMissingField)
		}
		return RegisterEvent{Identity: identity}, nil

	case EventTyping:
		if payload[0] == '"' {
			var to string
			if err := unmarshal(env.Event, payload, &to); err != nil {
				return nil, err
			}
			to = NormalizeIdentity(to)
			if to == "" {
				return nil, fmt.Errorf("%s: receiver: %w", env.Event, ErrMissingField)
			}
			return DirectTypingEvent{To: to}, nil
		}
		var e RoomTypingEvent
		if err := unmarshal(env.Event, payload, &e); err != nil {
			return nil, err
		}
		if e.Room == "" {
			return nil, fmt.Errorf("%s: %w", env.Event, ErrMissingRoom)
		}
		return e, nil

	case EventSendMessage:
		var e SendMessageEvent
		if err := unmarshal(env.Event, payload, &e); err != nil {
			return nil, err
		}
		e.To = NormalizeIdentity(e.To)
		if e.To == "" {
			return nil, fmt.Errorf("%s: to: %w", env.Event, ErrMissingField)
		}
		if err := unmarshal(env.Event, e.MessageData, &e.Message); err != nil {
			return nil, err
		}
		e.Message.Sender = NormalizeIdentity(e.Message.Sender)
		e.Message.Receiver = NormalizeIdentity(e.Message.Receiver)
		return e, nil

	case EventMarkSeen:
		var e SeenReceipt
		if err := unmarshal(env.Event, payload, &e); err != nil {
			return nil, err
		}
		e.Sender, e.Receiver = NormalizeIdentity(e.Sender), NormalizeIdentity(e.Receiver)
		if e.Sender == "" || e.Receiver == "" {
			return nil, fmt.Errorf("%s: sender/receiver: %w", env.Event, ErrMissingField)
		}
		return e, nil

	case EventJoinRoom:
		var e JoinRoomEvent
		if err := unmarshal(env.Event, payload, &e); err != nil {
			return nil, err
		}
		if e.Room == "" {
			return nil, fmt.Errorf("%s: %w", env.Event, ErrMissingRoom)
		}
		return e, nil

	case EventCodeUpdate:
		var e CodeUpdateEvent
		if err := unmarshal(env.Event, payload, &e); err != nil {
			return nil, err
		}
		if e.Room == "" {
			return nil, fmt.Errorf("%s: %w", env.Event, ErrMissingRoom)
		}
		return e, nil

	case EventCursorMove:
		var e CursorMoveEvent
		if err := unmarshal(env.Event, payload, &e); err != nil {
			return nil, err
		}
		if e.Room == "" {
			return nil, fmt.Errorf("%s: %w", env.Event, ErrMissingRoom)
		}
		return e, nil

	case EventNewMessage:
		var head struct {
			Room string `json:"room"`
		}
		if err := unmarshal(env.Event, payload, &head); err != nil {
			return nil, err
		}
		if head.Room == "" {
			return nil, fmt.Errorf("%s: %w", env.Event, ErrMissingRoom)
		}
		return RoomMessageEvent{Room: head.Room, Raw: json.RawMessage(payload)}, nil
	}

	return nil, fmt.Errorf("%q: %w", env.Event, ErrUnknownEvent)
}

func unmarshal(event string, data []byte, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%s: %w", event, ErrMalformedPayload)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w: %v", event, ErrMalformedPayload, err)
	}
	return nil
}
