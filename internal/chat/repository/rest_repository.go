package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"joa_realtime/internal/chat/domain"
	"joa_realtime/internal/chat/protocol"
	locdomain "joa_realtime/internal/location/domain"
	"joa_realtime/pkg/config"
	errprocess "joa_realtime/pkg/err"
	"joa_realtime/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var (
	// ErrTransport request never got a response
	ErrTransport = errors.New("rest transport failed")
	// ErrUnexpectedStatus response status the endpoint does not document
	ErrUnexpectedStatus = errors.New("unexpected rest status")
	// ErrAlreadyExtended room was extended before
	ErrAlreadyExtended = errors.New("room already extended")
)

// APIResponse JoA REST envelope
type APIResponse[T any] struct {
	Status bool   `json:"status"`
	Code   string `json:"code,omitempty"`
	Data   T      `json:"data"`
}

type roomListVO struct {
	RoomID           int64   `json:"roomId"`
	Name             string  `json:"name"`
	URLCode          string  `json:"urlCode"`
	Content          *string `json:"content"`
	UnCheckedMessage string  `json:"unCheckedMessage"`
}

type roomListData struct {
	RoomListVOs []roomListVO `json:"roomListVOs"`
}

type messageVO struct {
	Content string `json:"content"`
}

type messageListData struct {
	MessageResponseList []messageVO `json:"messageResponseList"`
}

type profileData struct {
	Name    string `json:"name"`
	URLCode string `json:"urlCode"`
	Bio     string `json:"bio"`
}

type roomMemberRequest struct {
	RoomID   int64 `json:"roomId"`
	MemberID int64 `json:"memberId"`
}

type voteRequest struct {
	RoomID   int64  `json:"roomId"`
	MemberID int64  `json:"memberId"`
	Result   string `json:"result"`
}

type locationResponse struct {
	IsContained *bool  `json:"isContained"`
	Code        string `json:"code"`
}

// RESTRepository JoA REST collaborator over fiber's HTTP client
type RESTRepository struct {
	baseURL string
	timeout time.Duration
	token   string
}

// NewRESTRepository create REST repository, token is sent as bearer when set
func NewRESTRepository(cfg config.RESTConfig, token string) *RESTRepository {
	return &RESTRepository{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
		token:   token,
	}
}

// ListRooms inbox list of memberID
func (r *RESTRepository) ListRooms(ctx context.Context, memberID int64) ([]domain.ChatRoomSummary, error) {
	var resp APIResponse[roomListData]
	q := url.Values{"memberId": {strconv.FormatInt(memberID, 10)}}
	if _, err := r.call(ctx, fiber.Get(r.url("/joa/room-in-members", q)), &resp); err != nil {
		return nil, err
	}
	if err := resp.failure(); err != nil {
		return nil, err
	}

	rooms := make([]domain.ChatRoomSummary, 0, len(resp.Data.RoomListVOs))
	for _, vo := range resp.Data.RoomListVOs {
		// 未讀數是字串, 解析失敗當 0
		unread, _ := strconv.Atoi(vo.UnCheckedMessage)
		last := ""
		if vo.Content != nil {
			last = *vo.Content
		}
		rooms = append(rooms, domain.ChatRoomSummary{
			RoomID:       vo.RoomID,
			PeerName:     vo.Name,
			PeerImageRef: vo.URLCode,
			UnreadCount:  unread,
			LastMessage:  last,
		})
	}
	return rooms, nil
}

// LoadMessages history of a room, each entry is one history line
func (r *RESTRepository) LoadMessages(ctx context.Context, roomID, memberID int64) ([]protocol.HistoryLine, error) {
	var resp APIResponse[messageListData]
	q := url.Values{
		"roomId":   {strconv.FormatInt(roomID, 10)},
		"memberId": {strconv.FormatInt(memberID, 10)},
	}
	if _, err := r.call(ctx, fiber.Get(r.url("/joa/messages", q)), &resp); err != nil {
		return nil, err
	}
	if err := resp.failure(); err != nil {
		return nil, err
	}

	lines := make([]protocol.HistoryLine, 0, len(resp.Data.MessageResponseList))
	for _, vo := range resp.Data.MessageResponseList {
		line, err := protocol.DecodeHistoryLine(vo.Content)
		if err != nil {
			logger.Log.Debug("skip history line", zap.Int64("room_id", roomID), zap.String("content", vo.Content), zap.Error(err))
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// PeerProfile header of the chat page
func (r *RESTRepository) PeerProfile(ctx context.Context, roomID, memberID int64) (domain.PeerProfile, error) {
	var resp APIResponse[profileData]
	q := url.Values{
		"roomId":   {strconv.FormatInt(roomID, 10)},
		"memberId": {strconv.FormatInt(memberID, 10)},
	}
	if _, err := r.call(ctx, fiber.Get(r.url("/joa/room-in-members/chatting-page", q)), &resp); err != nil {
		return domain.PeerProfile{}, err
	}
	if err := resp.failure(); err != nil {
		return domain.PeerProfile{}, err
	}
	return domain.PeerProfile{Name: resp.Data.Name, ImageRef: resp.Data.URLCode, Bio: resp.Data.Bio}, nil
}

// LeaveRoom leave a room for good
func (r *RESTRepository) LeaveRoom(ctx context.Context, roomID, memberID int64) error {
	var resp APIResponse[json.RawMessage]
	a := fiber.Patch(r.url("/joa/room-in-members/out", nil)).JSON(roomMemberRequest{RoomID: roomID, MemberID: memberID})
	status, err := r.call(ctx, a, &resp)
	if err != nil {
		return err
	}
	if status < 300 && resp.Code == "" {
		return nil
	}
	return resp.failure()
}

// CheckRoom 24 hour window of a room, decided by status code
func (r *RESTRepository) CheckRoom(ctx context.Context, roomID int64) (domain.RoomStatus, error) {
	status, err := r.call(ctx, fiber.Get(r.url("/joa/rooms/"+strconv.FormatInt(roomID, 10), nil)), nil)
	if err != nil {
		return "", err
	}
	switch status {
	case http.StatusNoContent, http.StatusOK:
		return domain.RoomExtendable, nil
	case http.StatusBadRequest:
		return domain.RoomExpired, nil
	case http.StatusNotFound:
		return domain.RoomUnknown, errprocess.ErrRoomNotFound
	}
	return "", fmt.Errorf("%w: %d", ErrUnexpectedStatus, status)
}

// ExtendRoom mark the room extended after both votes
func (r *RESTRepository) ExtendRoom(ctx context.Context, roomID int64) error {
	status, err := r.call(ctx, fiber.Patch(r.url("/joa/rooms/"+strconv.FormatInt(roomID, 10), nil)), nil)
	if err != nil {
		return err
	}
	switch {
	case status == http.StatusNotFound:
		return errprocess.ErrRoomNotFound
	case status == http.StatusConflict:
		return ErrAlreadyExtended
	case status >= 200 && status < 300:
		return nil
	}
	return fmt.Errorf("%w: %d", ErrUnexpectedStatus, status)
}

// VoteExtension vote to extend a room by seven days
func (r *RESTRepository) VoteExtension(ctx context.Context, roomID, memberID int64, result string) (domain.VoteResult, error) {
	var resp APIResponse[domain.VoteResult]
	a := fiber.Post(r.url("/joa/room-in-members/result", nil)).JSON(voteRequest{RoomID: roomID, MemberID: memberID, Result: result})
	if _, err := r.call(ctx, a, &resp); err != nil {
		return domain.VoteResult{}, err
	}
	if err := resp.failure(); err != nil {
		return domain.VoteResult{}, err
	}
	return resp.Data, nil
}

// UpdateLocation report a position, false when outside the campus geofence
func (r *RESTRepository) UpdateLocation(ctx context.Context, report locdomain.LocationReport) (bool, error) {
	var resp locationResponse
	a := fiber.Patch(r.url("/joa/locations", nil)).JSON(report)
	if _, err := r.call(ctx, a, &resp); err != nil {
		return false, err
	}
	if resp.Code != "" {
		return false, errprocess.Lookup(resp.Code)
	}
	if resp.IsContained == nil {
		return false, fmt.Errorf("%w: location response without isContained", ErrUnexpectedStatus)
	}
	return *resp.IsContained, nil
}

func (r *RESTRepository) url(path string, q url.Values) string {
	u := r.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// call send the request and decode a non-empty body into out
func (r *RESTRepository) call(ctx context.Context, a *fiber.Agent, out interface{}) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	// ctx 的 deadline 較短時以它為準
	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		left := time.Until(deadline)
		if left <= 0 {
			return 0, context.DeadlineExceeded
		}
		if timeout <= 0 || left < timeout {
			timeout = left
		}
	}
	if timeout > 0 {
		a.Timeout(timeout)
	}
	if r.token != "" {
		a.Set(fiber.HeaderAuthorization, "Bearer "+r.token)
	}

	status, body, errs := a.Bytes()
	if len(errs) > 0 {
		return status, fmt.Errorf("%w: %w", ErrTransport, errors.Join(errs...))
	}
	if out == nil || len(body) == 0 {
		return status, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return status, fmt.Errorf("%w: decode %d body: %w", ErrUnexpectedStatus, status, err)
	}
	return status, nil
}

// failure map a rejected envelope to its API error
func (resp APIResponse[T]) failure() error {
	if resp.Status {
		return nil
	}
	return errprocess.Lookup(resp.Code)
}
