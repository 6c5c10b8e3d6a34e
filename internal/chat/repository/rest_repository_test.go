package repository

import (
	"context"
	"net"
	"testing"
	"time"

	"joa_realtime/internal/chat/domain"
	locdomain "joa_realtime/internal/location/domain"
	"joa_realtime/pkg/config"
	errprocess "joa_realtime/pkg/err"
	"joa_realtime/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer start a fiber app on a random port
func newTestServer(t *testing.T, register func(app *fiber.App)) *RESTRepository {
	t.Helper()
	logger.SetNewNop()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	register(app)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return NewRESTRepository(config.RESTConfig{BaseURL: "http://" + ln.Addr().String() + "/", Timeout: 2 * time.Second}, "secret")
}

func TestRESTRepository_ListRooms(t *testing.T) {
	repo := newTestServer(t, func(app *fiber.App) {
		app.Get("/joa/room-in-members", func(c *fiber.Ctx) error {
			if c.Query("memberId") != "21" || c.Get(fiber.HeaderAuthorization) != "Bearer secret" {
				return c.SendStatus(fiber.StatusBadRequest)
			}
			return c.JSON(fiber.Map{
				"status": true,
				"data": fiber.Map{"roomListVOs": []fiber.Map{
					{"roomId": 4, "name": "Kim", "urlCode": "kim.png", "content": "see you", "unCheckedMessage": "3"},
					{"roomId": 9, "name": "Lee", "urlCode": "", "content": nil, "unCheckedMessage": "x"},
				}},
			})
		})
	})

	rooms, err := repo.ListRooms(context.Background(), 21)
	require.NoError(t, err)
	assert.Equal(t, []domain.ChatRoomSummary{
		{RoomID: 4, PeerName: "Kim", PeerImageRef: "kim.png", UnreadCount: 3, LastMessage: "see you"},
		{RoomID: 9, PeerName: "Lee"},
	}, rooms)
}

func TestRESTRepository_ListRoomsRejected(t *testing.T) {
	repo := newTestServer(t, func(app *fiber.App) {
		app.Get("/joa/room-in-members", func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"status": false, "code": "M004"})
		})
	})

	_, err := repo.ListRooms(context.Background(), 21)
	assert.ErrorIs(t, err, errprocess.ErrMemberSuspended)
}

func TestRESTRepository_LoadMessagesSkipsBadLines(t *testing.T) {
	repo := newTestServer(t, func(app *fiber.App) {
		app.Get("/joa/messages", func(c *fiber.Ctx) error {
			if c.Query("roomId") != "5" || c.Query("memberId") != "21" {
				return c.SendStatus(fiber.StatusBadRequest)
			}
			return c.JSON(fiber.Map{
				"status": true,
				"data": fiber.Map{"messageResponseList": []fiber.Map{
					{"content": "R 1 0 hello there"},
					{"content": "broken"},
					{"content": "L 2 1 hi"},
				}},
			})
		})
	})

	lines, err := repo.LoadMessages(context.Background(), 5, 21)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.True(t, lines[0].SenderIsSelf)
	assert.True(t, lines[0].Read)
	assert.Equal(t, "hello there", lines[0].Content)
	assert.False(t, lines[1].SenderIsSelf)
	assert.False(t, lines[1].Read)
}

func TestRESTRepository_LoadMessagesEmpty(t *testing.T) {
	repo := newTestServer(t, func(app *fiber.App) {
		app.Get("/joa/messages", func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": false, "code": "MG001"})
		})
	})

	_, err := repo.LoadMessages(context.Background(), 5, 21)
	assert.ErrorIs(t, err, errprocess.ErrNoMessages)
}

func TestRESTRepository_PeerProfile(t *testing.T) {
	repo := newTestServer(t, func(app *fiber.App) {
		app.Get("/joa/room-in-members/chatting-page", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"status": true, "data": fiber.Map{"name": "Kim", "urlCode": "kim.png", "bio": "hello"}})
		})
	})

	p, err := repo.PeerProfile(context.Background(), 5, 21)
	require.NoError(t, err)
	assert.Equal(t, domain.PeerProfile{Name: "Kim", ImageRef: "kim.png", Bio: "hello"}, p)
}

func TestRESTRepository_LeaveRoom(t *testing.T) {
	var got roomMemberRequest
	repo := newTestServer(t, func(app *fiber.App) {
		app.Patch("/joa/room-in-members/out", func(c *fiber.Ctx) error {
			if err := c.BodyParser(&got); err != nil {
				return c.SendStatus(fiber.StatusBadRequest)
			}
			return c.SendStatus(fiber.StatusNoContent)
		})
	})

	require.NoError(t, repo.LeaveRoom(context.Background(), 5, 21))
	assert.Equal(t, roomMemberRequest{RoomID: 5, MemberID: 21}, got)
}

func TestRESTRepository_LeaveRoomUnknownCode(t *testing.T) {
	repo := newTestServer(t, func(app *fiber.App) {
		app.Patch("/joa/room-in-members/out", func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": false, "code": "Z999"})
		})
	})

	err := repo.LeaveRoom(context.Background(), 5, 21)
	var apiErr *errprocess.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errprocess.CodeUnknown, apiErr.Code)
}

func TestRESTRepository_CheckRoom(t *testing.T) {
	repo := newTestServer(t, func(app *fiber.App) {
		app.Get("/joa/rooms/:id", func(c *fiber.Ctx) error {
			switch c.Params("id") {
			case "1":
				return c.SendStatus(fiber.StatusNoContent)
			case "2":
				return c.SendStatus(fiber.StatusBadRequest)
			case "3":
				return c.SendStatus(fiber.StatusNotFound)
			}
			return c.SendStatus(fiber.StatusTeapot)
		})
	})
	ctx := context.Background()

	s, err := repo.CheckRoom(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomExtendable, s)

	s, err = repo.CheckRoom(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomExpired, s)

	s, err = repo.CheckRoom(ctx, 3)
	assert.ErrorIs(t, err, errprocess.ErrRoomNotFound)
	assert.Equal(t, domain.RoomUnknown, s)

	_, err = repo.CheckRoom(ctx, 4)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestRESTRepository_ExtendRoom(t *testing.T) {
	repo := newTestServer(t, func(app *fiber.App) {
		app.Patch("/joa/rooms/:id", func(c *fiber.Ctx) error {
			if c.Params("id") == "7" {
				return c.SendStatus(fiber.StatusConflict)
			}
			return c.JSON(fiber.Map{"status": true})
		})
	})

	assert.NoError(t, repo.ExtendRoom(context.Background(), 1))
	assert.ErrorIs(t, repo.ExtendRoom(context.Background(), 7), ErrAlreadyExtended)
}

func TestRESTRepository_VoteExtension(t *testing.T) {
	repo := newTestServer(t, func(app *fiber.App) {
		app.Post("/joa/room-in-members/result", func(c *fiber.Ctx) error {
			var req voteRequest
			if err := c.BodyParser(&req); err != nil {
				return c.SendStatus(fiber.StatusBadRequest)
			}
			if req.MemberID == 99 {
				return c.JSON(fiber.Map{"status": false, "code": "RIM003"})
			}
			return c.JSON(fiber.Map{"status": true, "data": fiber.Map{"roomId": req.RoomID, "memberId": req.MemberID, "result": "0"}})
		})
	})

	v, err := repo.VoteExtension(context.Background(), 5, 21, "1")
	require.NoError(t, err)
	assert.True(t, v.Extended())
	assert.Equal(t, int64(5), v.RoomID)

	_, err = repo.VoteExtension(context.Background(), 5, 99, "1")
	assert.ErrorIs(t, err, errprocess.ErrRoomVoteExists)
}

func TestRESTRepository_UpdateLocation(t *testing.T) {
	repo := newTestServer(t, func(app *fiber.App) {
		app.Patch("/joa/locations", func(c *fiber.Ctx) error {
			var r locdomain.LocationReport
			if err := c.BodyParser(&r); err != nil {
				return c.SendStatus(fiber.StatusBadRequest)
			}
			switch r.MemberID {
			case 1:
				return c.JSON(fiber.Map{"isContained": true})
			case 2:
				return c.JSON(fiber.Map{"isContained": false})
			}
			return c.JSON(fiber.Map{"code": "L001"})
		})
	})
	ctx := context.Background()

	in, err := repo.UpdateLocation(ctx, locdomain.LocationReport{MemberID: 1, Latitude: 37.5})
	require.NoError(t, err)
	assert.True(t, in)

	in, err = repo.UpdateLocation(ctx, locdomain.LocationReport{MemberID: 2})
	require.NoError(t, err)
	assert.False(t, in)

	_, err = repo.UpdateLocation(ctx, locdomain.LocationReport{MemberID: 3})
	assert.ErrorIs(t, err, errprocess.ErrLocationUnknown)
}

func TestRESTRepository_TransportError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	repo := NewRESTRepository(config.RESTConfig{BaseURL: "http://" + addr, Timeout: time.Second}, "")
	_, err = repo.ListRooms(context.Background(), 1)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestRESTRepository_CanceledContext(t *testing.T) {
	repo := NewRESTRepository(config.RESTConfig{BaseURL: "http://127.0.0.1:1"}, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.ListRooms(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRESTRepository_ContextDeadlineBoundsRequest(t *testing.T) {
	repo := newTestServer(t, func(app *fiber.App) {
		app.Get("/joa/rooms/:roomId", func(c *fiber.Ctx) error {
			time.Sleep(1500 * time.Millisecond)
			return c.SendStatus(fiber.StatusOK)
		})
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := repo.CheckRoom(ctx, 5)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRESTRepository_ExpiredContext(t *testing.T) {
	repo := newTestServer(t, func(app *fiber.App) {})

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	_, err := repo.CheckRoom(ctx, 5)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
