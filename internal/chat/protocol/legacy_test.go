package protocol

import (
	"testing"

	"joa_realtime/internal/chat/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegacyDecode_InboxUpdate(t *testing.T) {
	f, err := Legacy{}.Decode(ScopeInbox, "42 Alice code.png 3 hello there")
	require.NoError(t, err)

	assert.Equal(t, domain.InboxUpdate{Summary: domain.ChatRoomSummary{
		RoomID:       42,
		PeerName:     "Alice",
		PeerImageRef: "code.png",
		UnreadCount:  3,
		LastMessage:  "hello there",
	}}, f)
}

func TestLegacyDecode_RoomMessage(t *testing.T) {
	f, err := Legacy{}.Decode(ScopeRoom, "7 hi")
	require.NoError(t, err)
	assert.Equal(t, domain.RoomMessage{MessageID: 7, Content: "hi"}, f)

	f, err = Legacy{}.Decode(ScopeRoom, "8 see you  later")
	require.NoError(t, err)
	assert.Equal(t, domain.RoomMessage{MessageID: 8, Content: "see you  later"}, f)
}

func TestLegacyDecode_ReadAllSentinel(t *testing.T) {
	f, err := Legacy{}.Decode(ScopeRoom, "0")
	require.NoError(t, err)
	assert.Equal(t, domain.ReadReceipt{All: true}, f)
}

func TestLegacyDecode_Notices(t *testing.T) {
	for _, kind := range []domain.NoticeKind{
		domain.NoticePeerWithdrew,
		domain.NoticeExpired24h,
		domain.NoticeExpired7d,
		domain.NoticePeerLeft,
		domain.NoticeReported,
	} {
		text := domain.NoticeText(kind)
		f, err := Legacy{}.Decode(ScopeRoom, text)
		require.NoError(t, err, kind)
		assert.Equal(t, domain.Notice{Kind: kind, Text: text}, f)
	}
}

func TestLegacyDecode_Malformed(t *testing.T) {
	cases := []struct {
		name  string
		scope Scope
		text  string
	}{
		{"empty inbox", ScopeInbox, ""},
		{"short inbox", ScopeInbox, "42 Alice code.png 3"},
		{"inbox bad room id", ScopeInbox, "x Alice code.png 3 hi"},
		{"inbox bad unread", ScopeInbox, "42 Alice code.png many hi"},
		{"empty room", ScopeRoom, ""},
		{"single token room", ScopeRoom, "7"},
		{"room bad id", ScopeRoom, "seven hi"},
		{"short upstream", ScopeUpstream, "M 1 2"},
		{"unknown op", ScopeUpstream, "X 1 2 3"},
		{"room create extra", ScopeUpstream, "R 1 2 3 4"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f, err := Legacy{}.Decode(c.scope, c.text)
			assert.ErrorIs(t, err, ErrMalformed)
			assert.Nil(t, f)
		})
	}
}

func TestLegacyEncode_Outbound(t *testing.T) {
	text, err := Legacy{}.Encode(domain.RoomCreate{RoomID: 5, MemberIDs: [2]int64{11, 12}})
	require.NoError(t, err)
	assert.Equal(t, "R 5 11 12", text)

	text, err = Legacy{}.Encode(domain.SendMessage{RoomID: 5, MemberID: 11, Content: "hello there", ClientID: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, "M 5 11 hello there", text)
}

func TestLegacyEncode_DelimiterInPositionalField(t *testing.T) {
	_, err := Legacy{}.Encode(domain.InboxUpdate{Summary: domain.ChatRoomSummary{RoomID: 1, PeerName: "Kim Min", PeerImageRef: "a.png"}})
	assert.ErrorIs(t, err, ErrDelimiterInField)

	text, err := Legacy{}.Encode(domain.InboxUpdate{Summary: domain.ChatRoomSummary{
		RoomID: 1, PeerName: SafeToken("Kim Min"), PeerImageRef: "a.png", UnreadCount: 2, LastMessage: "last one",
	}})
	require.NoError(t, err)
	assert.Equal(t, "1 Kim_Min a.png 2 last one", text)
}

func TestLegacyEncode_Unsupported(t *testing.T) {
	for _, f := range []domain.Frame{
		domain.Ping{},
		domain.SendAck{ClientID: "c", MessageID: 1},
		domain.ReadReceipt{MessageIDs: []int64{1}},
		domain.Notice{Kind: "nope"},
	} {
		_, err := Legacy{}.Encode(f)
		assert.ErrorIs(t, err, ErrUnsupported)
	}
}

func TestLegacy_UpstreamDecodesWhatClientEncodes(t *testing.T) {
	frames := []domain.Frame{
		domain.RoomCreate{RoomID: 9, MemberIDs: [2]int64{1, 2}},
		domain.SendMessage{RoomID: 9, MemberID: 1, Content: "multi word body"},
		domain.SendMessage{RoomID: 9, MemberID: 1, Content: ""},
	}
	for _, f := range frames {
		text, err := Legacy{}.Encode(f)
		require.NoError(t, err)
		got, err := Legacy{}.Decode(ScopeUpstream, text)
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
}

func TestDecodeHistoryLine(t *testing.T) {
	line, err := DecodeHistoryLine("R 15 0 good morning")
	require.NoError(t, err)
	assert.Equal(t, HistoryLine{SenderIsSelf: true, MessageID: 15, Read: true, Content: "good morning"}, line)

	line, err = DecodeHistoryLine("L 16 1 hey")
	require.NoError(t, err)
	assert.Equal(t, HistoryLine{MessageID: 16, Content: "hey"}, line)

	assert.Equal(t, "L 16 1 hey", EncodeHistoryLine(line))

	for _, bad := range []string{"", "R 15 0", "X 15 0 hi", "R x 0 hi", "R 15 2 hi"} {
		_, err := DecodeHistoryLine(bad)
		assert.ErrorIs(t, err, ErrMalformed, bad)
	}
}

func TestNew(t *testing.T) {
	c, err := New("")
	require.NoError(t, err)
	assert.Equal(t, NameLegacy, c.Name())

	c, err = New(NameEnvelope)
	require.NoError(t, err)
	assert.Equal(t, NameEnvelope, c.Name())

	_, err = New("xml")
	assert.Error(t, err)
}
