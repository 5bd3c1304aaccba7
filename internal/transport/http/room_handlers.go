package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/classes-lms/roomchat/internal/core"
	"github.com/classes-lms/roomchat/internal/proto"
)

// RoomHandlers provides HTTP handlers for the room directory and history.
type RoomHandlers struct {
	chat *core.Chat
	log  *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(chat *core.Chat, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		chat: chat,
		log:  logger,
	}
}

// CreateRoomRequest represents the create room request body.
type CreateRoomRequest struct {
	Name string `json:"name" binding:"required,max=64"`
}

// CreateRoom normalises the requested name and gets or creates the room.
// POST /api/rooms
func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create room request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	room, created, err := h.chat.CreateRoom(c.Request.Context(), req.Name)
	if err != nil {
		if errors.Is(err, core.ErrInvalidRoomName) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "room name may only contain letters, digits, '_' and '-'"})
			return
		}
		h.log.Error().Err(err).Str("room_name", req.Name).Msg("failed to create room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		h.log.Info().Str("room_name", room.Name).Int64("room_id", room.ID).Msg("room created")
	}
	c.JSON(status, roomResponse(room))
}

// ListRooms returns every room ordered by name.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	rooms, err := h.chat.Rooms(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list rooms")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]proto.RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		response = append(response, roomResponse(room))
	}
	c.JSON(http.StatusOK, response)
}

// History returns the full message log of a room, oldest first.
// GET /api/rooms/:room/messages
func (h *RoomHandlers) History(c *gin.Context) {
	name := c.Param("room")

	msgs, err := h.chat.History(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, core.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		h.log.Error().Err(err).Str("room", name).Msg("failed to load history")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, historyResponse(name, msgs))
}
