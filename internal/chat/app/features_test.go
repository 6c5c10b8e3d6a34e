package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"joa_realtime/internal/chat/domain"
	"joa_realtime/internal/chat/protocol"

	"github.com/cucumber/godog"
)

// presentationState 每個 scenario 重新建立
type presentationState struct {
	codec    protocol.Codec
	timeline *Timeline
	inbox    *Inbox
}

func parseIDs(list string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(list, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *presentationState) anEmptyRoomTimeline() error {
	s.timeline = NewTimeline(fixedNow)
	return nil
}

func (s *presentationState) iSend(content string) error {
	_, err := s.timeline.AppendLocal(content)
	return err
}

func (s *presentationState) theRoomReceives(text string) error {
	frame, err := s.codec.Decode(protocol.ScopeRoom, text)
	if err != nil {
		return err
	}
	s.timeline.Apply(frame)
	return nil
}

func (s *presentationState) theRoomReceivesNotice(kind string) error {
	return s.theRoomReceives(domain.NoticeText(domain.NoticeKind(kind)))
}

func (s *presentationState) theTimelineHasMessages(n int) error {
	if got := len(s.timeline.Messages()); got != n {
		return fmt.Errorf("expected %d messages, got %d", n, got)
	}
	return nil
}

func (s *presentationState) messageIsMineAndPending(pos int) error {
	msgs := s.timeline.Messages()
	if pos < 1 || pos > len(msgs) {
		return fmt.Errorf("no message at %d", pos)
	}
	m := msgs[pos-1]
	if !m.SenderIsSelf || !m.Pending() {
		return fmt.Errorf("message %d: self=%v pending=%v", pos, m.SenderIsSelf, m.Pending())
	}
	return nil
}

func (s *presentationState) everyMessageIsRead() error {
	for i, m := range s.timeline.Messages() {
		if !m.Read {
			return fmt.Errorf("message %d unread", i+1)
		}
	}
	return nil
}

func (s *presentationState) theRoomIsClosedBy(kind string) error {
	got, closed := s.timeline.Closed()
	if !closed || got != domain.NoticeKind(kind) {
		return fmt.Errorf("expected closed by %s, got %q", kind, got)
	}
	return nil
}

func (s *presentationState) sendingFails(content string) error {
	if _, err := s.timeline.AppendLocal(content); err == nil {
		return fmt.Errorf("send of %q accepted", content)
	}
	return nil
}

func (s *presentationState) theInboxListsRooms(list string) error {
	ids, err := parseIDs(list)
	if err != nil {
		return err
	}
	rooms := make([]domain.ChatRoomSummary, 0, len(ids))
	for _, id := range ids {
		rooms = append(rooms, domain.ChatRoomSummary{RoomID: id})
	}
	s.inbox = NewInbox()
	s.inbox.Replace(rooms)
	return nil
}

func (s *presentationState) theInboxReceives(text string) error {
	frame, err := s.codec.Decode(protocol.ScopeInbox, text)
	if err != nil {
		// 格式錯誤的 frame 直接丟棄
		return nil
	}
	if u, ok := frame.(domain.InboxUpdate); ok {
		s.inbox.Apply(u.Summary)
	}
	return nil
}

func (s *presentationState) theInboxOrderIs(list string) error {
	want, err := parseIDs(list)
	if err != nil {
		return err
	}
	got := roomIDs(s.inbox.Rooms())
	if fmt.Sprint(got) != fmt.Sprint(want) {
		return fmt.Errorf("expected order %v, got %v", want, got)
	}
	return nil
}

func (s *presentationState) roomShowsUnreadWith(roomID int64, unread int, last string) error {
	for _, r := range s.inbox.Rooms() {
		if r.RoomID != roomID {
			continue
		}
		if r.UnreadCount != unread || r.LastMessage != last {
			return fmt.Errorf("room %d: unread=%d last=%q", roomID, r.UnreadCount, r.LastMessage)
		}
		return nil
	}
	return fmt.Errorf("room %d missing", roomID)
}

func InitializePresentationScenario(ctx *godog.ScenarioContext) {
	s := &presentationState{}
	ctx.Before(func(c context.Context, _ *godog.Scenario) (context.Context, error) {
		*s = presentationState{codec: protocol.Legacy{}}
		return c, nil
	})

	ctx.Step(`^an empty room timeline$`, s.anEmptyRoomTimeline)
	ctx.Step(`^I send "([^"]*)"$`, s.iSend)
	ctx.Step(`^the room receives "([^"]*)"$`, s.theRoomReceives)
	ctx.Step(`^the room receives the "([^"]*)" notice$`, s.theRoomReceivesNotice)
	ctx.Step(`^the timeline has (\d+) messages$`, s.theTimelineHasMessages)
	ctx.Step(`^message (\d+) is mine and pending$`, s.messageIsMineAndPending)
	ctx.Step(`^every message is read$`, s.everyMessageIsRead)
	ctx.Step(`^the room is closed by "([^"]*)"$`, s.theRoomIsClosedBy)
	ctx.Step(`^sending "([^"]*)" fails$`, s.sendingFails)
	ctx.Step(`^the inbox lists rooms ([\d, ]+)$`, s.theInboxListsRooms)
	ctx.Step(`^the inbox receives "([^"]*)"$`, s.theInboxReceives)
	ctx.Step(`^the inbox order is ([\d, ]+)$`, s.theInboxOrderIs)
	ctx.Step(`^room (\d+) shows (\d+) unread with "([^"]*)"$`, s.roomShowsUnreadWith)
}

func TestPresentationFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializePresentationScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
