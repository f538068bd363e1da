package message

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// Message is any decoded inbound message.
type Message interface {
	Type() string
}

// DecodeError is returned when a payload is not valid UTF-8 JSON.
type DecodeError struct {
	Cause error
}

func (err DecodeError) Error() string {
	return fmt.Sprintf("undecodable message: %s", err.Cause)
}

// ValidationError is returned when a decoded message lacks a field it
// requires.
type ValidationError struct {
	Field string
	Cause error
}

func (err ValidationError) Error() string {
	return fmt.Sprintf("invalid message field %s: %s", err.Field, err.Cause)
}

var errInvalidUTF8 = errors.New("payload is not valid utf-8")

// Decode parses raw into one of *Transaction, *SyncGraph, *KeepAlive or
// *Unrecognized.
func Decode(raw []byte) (Message, error) {
	if !utf8.Valid(raw) {
		return nil, DecodeError{Cause: errInvalidUTF8}
	}
	var head struct {
		MessageType string
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, DecodeError{Cause: err}
	}
	t := head.MessageType
	switch {
	case t == "":
		return nil, ValidationError{Field: "MessageType", Cause: errors.New("missing required field")}
	case t == TypeSyncChannelState:
		msg := &SyncGraph{}
		if err := json.Unmarshal(raw, msg); err != nil {
			return nil, DecodeError{Cause: err}
		}
		if err := msg.Validate(); err != nil {
			return nil, err
		}
		return msg, nil
	case t == TypeRegisterKeep:
		msg := &KeepAlive{}
		if err := json.Unmarshal(raw, msg); err != nil {
			return nil, DecodeError{Cause: err}
		}
		if msg.Ip == "" {
			return nil, ValidationError{Field: "Ip", Cause: errors.New("missing required field")}
		}
		return msg, nil
	case IsTransactionType(t), envelopeTypes[t]:
		msg := &Transaction{}
		if err := json.Unmarshal(raw, msg); err != nil {
			return nil, DecodeError{Cause: err}
		}
		if err := msg.Validate(); err != nil {
			return nil, err
		}
		return msg, nil
	}
	return &Unrecognized{MessageType: t, Raw: append(json.RawMessage(nil), raw...)}, nil
}

// Unwrap returns the object inside wallet RPC params, which some wallets
// send as a JSON string wrapping the object.
func Unwrap(raw json.RawMessage) json.RawMessage {
	var wrapped string
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		return json.RawMessage(wrapped)
	}
	return raw
}

// DecodeParams decodes wallet RPC params into a message.
func DecodeParams(raw json.RawMessage) (Message, error) {
	return Decode(Unwrap(raw))
}
