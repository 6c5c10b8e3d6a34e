package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"joa_realtime/internal/chat/domain"
)

const (
	delimiter = " "

	// ReadAllSentinel room frame meaning the peer read everything
	ReadAllSentinel = "0"

	opRoomCreate = "R"
	opSend       = "M"

	historySelf   = "R"
	historyPeer   = "L"
	historyRead   = "0"
	historyUnread = "1"
)

// Legacy positional codec spoken by the deployed JoA server.
// Token 0 discriminates, the last field keeps its spaces.
type Legacy struct{}

// Name codec name
func (Legacy) Name() string { return NameLegacy }

// Decode parse one inbound frame
func (Legacy) Decode(scope Scope, text string) (domain.Frame, error) {
	switch scope {
	case ScopeInbox:
		return decodeInbox(text)
	case ScopeRoom:
		return decodeRoom(text)
	case ScopeUpstream:
		return decodeUpstream(text)
	}
	return nil, fmt.Errorf("%w: unknown scope %v", ErrMalformed, scope)
}

// <roomId> <name> <urlCode> <unreadCount> <lastMessage...>
func decodeInbox(text string) (domain.Frame, error) {
	tokens := strings.Split(text, delimiter)
	if len(tokens) < 5 {
		return nil, fmt.Errorf("%w: inbox frame has %d tokens", ErrMalformed, len(tokens))
	}
	roomID, err := strconv.ParseInt(tokens[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: room id %q", ErrMalformed, tokens[0])
	}
	unread, err := strconv.Atoi(tokens[3])
	if err != nil {
		return nil, fmt.Errorf("%w: unread count %q", ErrMalformed, tokens[3])
	}
	return domain.InboxUpdate{Summary: domain.ChatRoomSummary{
		RoomID:       roomID,
		PeerName:     tokens[1],
		PeerImageRef: tokens[2],
		UnreadCount:  unread,
		LastMessage:  strings.Join(tokens[4:], delimiter),
	}}, nil
}

// "0" | notice text | <messageId> <content...>
func decodeRoom(text string) (domain.Frame, error) {
	if text == ReadAllSentinel {
		return domain.ReadReceipt{All: true}, nil
	}
	if kind, ok := domain.DetectNotice(text); ok {
		return domain.Notice{Kind: kind, Text: text}, nil
	}
	tokens := strings.Split(text, delimiter)
	if len(tokens) < 2 {
		return nil, fmt.Errorf("%w: room frame has %d tokens", ErrMalformed, len(tokens))
	}
	id, err := strconv.ParseInt(tokens[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: message id %q", ErrMalformed, tokens[0])
	}
	return domain.RoomMessage{MessageID: id, Content: strings.Join(tokens[1:], delimiter)}, nil
}

// R <roomId> <memberId1> <memberId2> | M <roomId> <memberId> <content...>
func decodeUpstream(text string) (domain.Frame, error) {
	tokens := strings.Split(text, delimiter)
	if len(tokens) < 4 {
		return nil, fmt.Errorf("%w: upstream frame has %d tokens", ErrMalformed, len(tokens))
	}
	ids := make([]int64, 0, 3)
	idCount := 2
	if tokens[0] == opRoomCreate {
		idCount = 3
	}
	for _, tok := range tokens[1 : 1+idCount] {
		id, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: id %q", ErrMalformed, tok)
		}
		ids = append(ids, id)
	}

	switch tokens[0] {
	case opRoomCreate:
		if len(tokens) != 4 {
			return nil, fmt.Errorf("%w: room create has %d tokens", ErrMalformed, len(tokens))
		}
		return domain.RoomCreate{RoomID: ids[0], MemberIDs: [2]int64{ids[1], ids[2]}}, nil
	case opSend:
		return domain.SendMessage{RoomID: ids[0], MemberID: ids[1], Content: strings.Join(tokens[3:], delimiter)}, nil
	}
	return nil, fmt.Errorf("%w: op %q", ErrMalformed, tokens[0])
}

// Encode serialise a frame, positional fields must not contain a space
func (Legacy) Encode(f domain.Frame) (string, error) {
	switch v := f.(type) {
	case domain.RoomCreate:
		return joinFields(opRoomCreate, id(v.RoomID), id(v.MemberIDs[0]), id(v.MemberIDs[1]))
	case domain.SendMessage:
		return joinFields(opSend, id(v.RoomID), id(v.MemberID), v.Content)
	case domain.InboxUpdate:
		s := v.Summary
		return joinFields(id(s.RoomID), s.PeerName, s.PeerImageRef, strconv.Itoa(s.UnreadCount), s.LastMessage)
	case domain.RoomMessage:
		return joinFields(id(v.MessageID), v.Content)
	case domain.ReadReceipt:
		if !v.All {
			return "", fmt.Errorf("%w: read receipt with message ids", ErrUnsupported)
		}
		return ReadAllSentinel, nil
	case domain.Notice:
		if v.Text != "" {
			return v.Text, nil
		}
		if text := domain.NoticeText(v.Kind); text != "" {
			return text, nil
		}
		return "", fmt.Errorf("%w: notice kind %q", ErrUnsupported, v.Kind)
	}
	return "", fmt.Errorf("%w: %T", ErrUnsupported, f)
}

// joinFields every field but the last is positional
func joinFields(fields ...string) (string, error) {
	for i, f := range fields[:len(fields)-1] {
		if strings.Contains(f, delimiter) {
			return "", fmt.Errorf("%w: field %d %q", ErrDelimiterInField, i, f)
		}
	}
	return strings.Join(fields, delimiter), nil
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}

// SafeToken make a value usable as a positional field
func SafeToken(s string) string {
	return strings.ReplaceAll(s, delimiter, "_")
}

// HistoryLine one line of the REST message history
type HistoryLine struct {
	SenderIsSelf bool
	MessageID    int64
	Read         bool
	Content      string
}

// DecodeHistoryLine parse "<L|R> <messageId> <0|1> <content...>", 0 is read
func DecodeHistoryLine(text string) (HistoryLine, error) {
	tokens := strings.Split(text, delimiter)
	if len(tokens) < 4 {
		return HistoryLine{}, fmt.Errorf("%w: history line has %d tokens", ErrMalformed, len(tokens))
	}
	var line HistoryLine
	switch tokens[0] {
	case historySelf:
		line.SenderIsSelf = true
	case historyPeer:
	default:
		return HistoryLine{}, fmt.Errorf("%w: sender %q", ErrMalformed, tokens[0])
	}
	msgID, err := strconv.ParseInt(tokens[1], 10, 64)
	if err != nil {
		return HistoryLine{}, fmt.Errorf("%w: message id %q", ErrMalformed, tokens[1])
	}
	line.MessageID = msgID
	switch tokens[2] {
	case historyRead:
		line.Read = true
	case historyUnread:
	default:
		return HistoryLine{}, fmt.Errorf("%w: read flag %q", ErrMalformed, tokens[2])
	}
	line.Content = strings.Join(tokens[3:], delimiter)
	return line, nil
}

// EncodeHistoryLine inverse of DecodeHistoryLine, used by the relay
func EncodeHistoryLine(line HistoryLine) string {
	sender, read := historyPeer, historyUnread
	if line.SenderIsSelf {
		sender = historySelf
	}
	if line.Read {
		read = historyRead
	}
	return strings.Join([]string{sender, id(line.MessageID), read, line.Content}, delimiter)
}
