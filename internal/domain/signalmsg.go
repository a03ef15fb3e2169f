package domain

import (
	"encoding/json"

	"github.com/pion/webrtc/v3"
)

type MessageType string

const (
	TypeFindPartner  MessageType = "find-partner"
	TypePaired       MessageType = "paired"
	TypeWaiting      MessageType = "waiting"
	TypeOffer        MessageType = "offer"
	TypeAnswer       MessageType = "answer"
	TypeICECandidate MessageType = "ice-candidate"
	TypeChat         MessageType = "chat"
	TypeSkip         MessageType = "skip"
	TypeNext         MessageType = "next"
	TypeStop         MessageType = "stop"
	TypePartnerLeft  MessageType = "partner-left"
	TypeEvicted      MessageType = "evicted"
	TypeOnline       MessageType = "online"
	TypeWaitExpired  MessageType = "wait-expired"
	TypeError        MessageType = "error"
)

// Relayable reports whether messages of type t are forwarded to the partner.
func (t MessageType) Relayable() bool {
	switch t {
	case TypeOffer, TypeAnswer, TypeICECandidate, TypeChat:
		return true
	}
	return false
}

// SignalMessage is the single envelope used on the signaling socket in both
// directions. Payload of relayed messages is forwarded untouched.
type SignalMessage struct {
	Type       MessageType        `json:"type"`
	Room       string             `json:"room,omitempty"`
	Role       Role               `json:"role,omitempty"`
	Reason     string             `json:"reason,omitempty"`
	Action     EvictAction        `json:"action,omitempty"`
	Partner    json.RawMessage    `json:"partner,omitempty"`
	ICEServers []webrtc.ICEServer `json:"ice_servers,omitempty"`
	Payload    json.RawMessage    `json:"payload,omitempty"`
}

func PairedMessage(room RoomID, role Role, partner json.RawMessage, iceServers []webrtc.ICEServer) SignalMessage {
	return SignalMessage{
		Type:       TypePaired,
		Room:       string(room),
		Role:       role,
		Partner:    partner,
		ICEServers: iceServers,
	}
}

func WaitingMessage() SignalMessage {
	return SignalMessage{Type: TypeWaiting}
}

func PartnerLeftMessage(room RoomID, reason LeaveReason) SignalMessage {
	return SignalMessage{Type: TypePartnerLeft, Room: string(room), Reason: string(reason)}
}

func EvictedMessage(action EvictAction, reason string) SignalMessage {
	return SignalMessage{Type: TypeEvicted, Action: action, Reason: reason}
}

func OnlineMessage(count int) SignalMessage {
	payload, _ := json.Marshal(map[string]int{"count": count})
	return SignalMessage{Type: TypeOnline, Payload: payload}
}

func WaitExpiredMessage() SignalMessage {
	return SignalMessage{Type: TypeWaitExpired}
}

func ErrorMessage(reason string) SignalMessage {
	return SignalMessage{Type: TypeError, Reason: reason}
}
