package app

import (
	"errors"
	"fmt"
	"strconv"

	chatdomain "joa_realtime/internal/chat/domain"
	"joa_realtime/internal/chat/protocol"
	errprocess "joa_realtime/pkg/err"
	"joa_realtime/pkg/logger"
	"joa_realtime/pkg/middlewares"
	"joa_realtime/pkg/token"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type apiResponse struct {
	Status bool        `json:"status"`
	Code   string      `json:"code,omitempty"`
	Data   interface{} `json:"data,omitempty"`
}

type roomListVO struct {
	RoomID           int64   `json:"roomId"`
	Name             string  `json:"name"`
	URLCode          string  `json:"urlCode"`
	Content          *string `json:"content"`
	UnCheckedMessage string  `json:"unCheckedMessage"`
}

type messageVO struct {
	Content string `json:"content"`
}

type roomMemberRequest struct {
	RoomID   int64  `json:"roomId"`
	MemberID int64  `json:"memberId"`
	Result   string `json:"result,omitempty"`
}

// RESTHandler JoA REST endpoints backed by the relay storage
type RESTHandler struct {
	roomUC    *RoomUseCase
	messageUC *SendMessageUseCase
}

// NewRESTHandler create RESTHandler
func NewRESTHandler(roomUC *RoomUseCase, messageUC *SendMessageUseCase) *RESTHandler {
	return &RESTHandler{roomUC: roomUC, messageUC: messageUC}
}

// ListRooms GET /joa/room-in-members?memberId=
// @Summary List chat rooms of a member
// @Tags Room
// @Produce json
// @Param memberId query int true "Member ID"
// @Success 200 {object} apiResponse "roomListVOs"
// @Failure 400 {object} apiResponse "Bad Request"
// @Failure 403 {object} string "Token belongs to another member"
// @Router /joa/room-in-members [get]
func (h *RESTHandler) ListRooms(c *fiber.Ctx) error {
	memberID, err := queryID(c, "memberId")
	if err != nil {
		return badRequest(c, err)
	}
	if err := tokenMember(c, memberID); err != nil {
		return forbidden(c, err)
	}
	rooms, err := h.roomUC.ListRooms(c.UserContext(), memberID)
	if err != nil {
		return failure(c, err)
	}

	vos := make([]roomListVO, 0, len(rooms))
	for _, r := range rooms {
		vo := roomListVO{
			RoomID:           r.RoomID,
			Name:             r.PeerName,
			URLCode:          r.PeerImageRef,
			UnCheckedMessage: strconv.Itoa(r.UnreadCount),
		}
		if r.LastMessage != "" {
			last := r.LastMessage
			vo.Content = &last
		}
		vos = append(vos, vo)
	}
	return c.JSON(apiResponse{Status: true, Data: fiber.Map{"roomListVOs": vos}})
}

// Messages GET /joa/messages?roomId=&memberId=
// @Summary Room history
// @Tags Message
// @Produce json
// @Param roomId query int true "Room ID"
// @Param memberId query int true "Member ID"
// @Success 200 {object} apiResponse "messageResponseList"
// @Failure 400 {object} apiResponse "Bad Request"
// @Failure 403 {object} string "Token belongs to another member"
// @Router /joa/messages [get]
func (h *RESTHandler) Messages(c *fiber.Ctx) error {
	roomID, memberID, err := roomMember(c)
	if err != nil {
		return badRequest(c, err)
	}
	if err := tokenMember(c, memberID); err != nil {
		return forbidden(c, err)
	}
	lines, err := h.messageUC.History(c.UserContext(), roomID, memberID)
	if err != nil {
		return failure(c, err)
	}

	vos := make([]messageVO, 0, len(lines))
	for _, l := range lines {
		vos = append(vos, messageVO{Content: protocol.EncodeHistoryLine(l)})
	}
	return c.JSON(apiResponse{Status: true, Data: fiber.Map{"messageResponseList": vos}})
}

// ChattingPage GET /joa/room-in-members/chatting-page?roomId=&memberId=
// @Summary Peer profile of a room
// @Tags Room
// @Produce json
// @Param roomId query int true "Room ID"
// @Param memberId query int true "Member ID"
// @Success 200 {object} apiResponse "name, urlCode, bio"
// @Failure 400 {object} apiResponse "Bad Request"
// @Failure 403 {object} string "Token belongs to another member"
// @Router /joa/room-in-members/chatting-page [get]
func (h *RESTHandler) ChattingPage(c *fiber.Ctx) error {
	roomID, memberID, err := roomMember(c)
	if err != nil {
		return badRequest(c, err)
	}
	if err := tokenMember(c, memberID); err != nil {
		return forbidden(c, err)
	}
	p, err := h.roomUC.PeerProfile(c.UserContext(), roomID, memberID)
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(apiResponse{Status: true, Data: fiber.Map{"name": p.Name, "urlCode": p.URLCode, "bio": p.Bio}})
}

// LeaveRoom PATCH /joa/room-in-members/out
// @Summary Leave a room
// @Tags Room
// @Accept json
// @Produce json
// @Param request body roomMemberRequest true "roomId and memberId"
// @Success 200 {object} apiResponse
// @Failure 400 {object} apiResponse "Bad Request"
// @Failure 403 {object} string "Token belongs to another member"
// @Router /joa/room-in-members/out [patch]
func (h *RESTHandler) LeaveRoom(c *fiber.Ctx) error {
	var req roomMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	if err := tokenMember(c, req.MemberID); err != nil {
		return forbidden(c, err)
	}
	if err := h.roomUC.Leave(c.UserContext(), req.RoomID, req.MemberID); err != nil {
		return failure(c, err)
	}
	return c.JSON(apiResponse{Status: true})
}

// Vote POST /joa/room-in-members/result
// @Summary Vote to extend a room
// @Description result "0" agrees, the answer is "0" once both agreed, "1" declined, "2" waiting
// @Tags Room
// @Accept json
// @Produce json
// @Param request body roomMemberRequest true "roomId, memberId and result"
// @Success 200 {object} apiResponse
// @Failure 400 {object} apiResponse "Bad Request"
// @Failure 403 {object} string "Token belongs to another member"
// @Router /joa/room-in-members/result [post]
func (h *RESTHandler) Vote(c *fiber.Ctx) error {
	var req roomMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	if err := tokenMember(c, req.MemberID); err != nil {
		return forbidden(c, err)
	}
	vote, err := h.roomUC.Vote(c.UserContext(), req.RoomID, req.MemberID, req.Result)
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(apiResponse{Status: true, Data: vote})
}

// CheckRoom GET /joa/rooms/:roomId, answered by status code only
// @Summary Check the 24 hour window of a room
// @Tags Room
// @Param roomId path int true "Room ID"
// @Success 204 "Room can still be extended"
// @Failure 400 "Room expired"
// @Failure 404 "Room not found"
// @Router /joa/rooms/{roomId} [get]
func (h *RESTHandler) CheckRoom(c *fiber.Ctx) error {
	roomID, err := c.ParamsInt("roomId")
	if err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}
	status, err := h.roomUC.Status(c.UserContext(), int64(roomID))
	switch {
	case errors.Is(err, errprocess.ErrRoomNotFound):
		return c.SendStatus(fiber.StatusNotFound)
	case err != nil:
		logger.Log.Error("check room failed", zap.Int("room_id", roomID), zap.Error(err))
		return c.SendStatus(fiber.StatusInternalServerError)
	case status == chatdomain.RoomExpired:
		return c.SendStatus(fiber.StatusBadRequest)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ExtendRoom PATCH /joa/rooms/:roomId
// @Summary Extend a room by seven days
// @Tags Room
// @Param roomId path int true "Room ID"
// @Success 204 "Extended"
// @Failure 404 "Room not found"
// @Failure 409 "Already extended"
// @Router /joa/rooms/{roomId} [patch]
func (h *RESTHandler) ExtendRoom(c *fiber.Ctx) error {
	roomID, err := c.ParamsInt("roomId")
	if err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}
	err = h.roomUC.Extend(c.UserContext(), int64(roomID))
	switch {
	case errors.Is(err, errprocess.ErrRoomNotFound):
		return c.SendStatus(fiber.StatusNotFound)
	case errors.Is(err, ErrAlreadyExtended):
		return c.SendStatus(fiber.StatusConflict)
	case err != nil:
		logger.Log.Error("extend room failed", zap.Int("room_id", roomID), zap.Error(err))
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// IssueToken POST /dev/tokens?memberId=, only routed outside production
// @Summary Issue a member token for local runs
// @Tags Dev
// @Produce json
// @Param memberId query int true "Member ID"
// @Success 200 {object} apiResponse "token"
// @Router /dev/tokens [post]
func (h *RESTHandler) IssueToken(c *fiber.Ctx) error {
	memberID, err := queryID(c, "memberId")
	if err != nil {
		return badRequest(c, err)
	}
	tok, err := token.GenerateJWTWrapper(memberID, string(token.RoleMember))
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(apiResponse{Status: true, Data: fiber.Map{"token": tok}})
}

// ConnectCheck check relay start
func ConnectCheck(c *fiber.Ctx) error {
	return c.SendString("relay service start!")
}

// DebugLogFlag toggle debug log flag
func DebugLogFlag(c *fiber.Ctx) error {
	status, err := strconv.ParseBool(c.Query("status"))
	if err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}
	logger.Log.SetDebugMode(status)
	return c.SendString(fmt.Sprintf("debug mode is : %t", status))
}

func queryID(c *fiber.Ctx, key string) (int64, error) {
	id, err := strconv.ParseInt(c.Query(key), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, c.Query(key))
	}
	return id, nil
}

func roomMember(c *fiber.Ctx) (int64, int64, error) {
	roomID, err := queryID(c, "roomId")
	if err != nil {
		return 0, 0, err
	}
	memberID, err := queryID(c, "memberId")
	if err != nil {
		return 0, 0, err
	}
	return roomID, memberID, nil
}

func tokenMember(c *fiber.Ctx, memberID int64) error {
	return CheckTokenMember(c.Locals(middlewares.TokenMemberID), memberID)
}

func forbidden(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"status": false, "error": err.Error()})
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": false, "error": err.Error()})
}

// failure API errors keep their code, anything else is a server error
func failure(c *fiber.Ctx, err error) error {
	if errors.Is(err, ErrNotRoomMember) {
		err = errprocess.ErrRoomMemberNotFound
	}
	var apiErr *errprocess.APIError
	if errors.As(err, &apiErr) {
		return c.Status(fiber.StatusBadRequest).JSON(apiResponse{Code: apiErr.Code})
	}
	logger.Log.Error("rest request failed", zap.String("path", c.Path()), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(apiResponse{Code: errprocess.CodeUnknown})
}
