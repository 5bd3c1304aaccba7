package http

import (
	"time"

	"github.com/classes-lms/roomchat/internal/core"
	"github.com/classes-lms/roomchat/internal/proto"
	"github.com/classes-lms/roomchat/internal/store"
)

func incomingFromFrame(data []byte) (core.Incoming, error) {
	in, err := proto.DecodeInbound(data)
	if err != nil {
		return core.Incoming{}, err
	}
	return core.Incoming{Username: in.Username, Text: *in.Message}, nil
}

func outboundFromEvent(ev core.Event) proto.Outbound {
	return proto.Outbound{
		Message:   ev.Message.Text,
		Username:  ev.Message.From,
		Timestamp: proto.FormatTimestamp(ev.Message.CreatedAt),
	}
}

func historyResponse(room string, msgs []core.Message) proto.HistoryResponse {
	out := proto.HistoryResponse{
		Room:     room,
		Messages: make([]proto.HistoryMessage, 0, len(msgs)),
	}
	for _, m := range msgs {
		out.Messages = append(out.Messages, proto.HistoryMessage{
			Username:  m.From,
			Content:   m.Text,
			Timestamp: proto.FormatTimestamp(m.CreatedAt),
		})
	}
	return out
}

func roomResponse(room *store.Room) proto.RoomResponse {
	return proto.RoomResponse{
		ID:        room.ID,
		Name:      room.Name,
		CreatedAt: room.CreatedAt.UTC().Format(time.RFC3339),
	}
}
