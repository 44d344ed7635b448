package view_test

import (
	"testing"
	"time"

	"chatterbox/backend/internal/models"
	"chatterbox/backend/internal/view"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = models.User{ID: "a1", Username: "alice"}
	bob   = models.User{ID: "b2", Username: "bob"}
	carol = models.User{ID: "c3", Username: "carol"}
)

func msg(id string, from models.User, ts int64) models.Message {
	return models.Message{
		ID:             id,
		Text:           "text " + id,
		SenderUserID:   from.ID,
		SenderUsername: from.Username,
		Timestamp:      ts,
		Kind:           models.KindMessage,
	}
}

func TestUserColor_Deterministic(t *testing.T) {
	// 'a'(97) + '1'(49) = 146, 146 % 5 = 1
	assert.Equal(t, "chat-user2", view.UserColor("a1"))
	assert.Equal(t, view.UserColor("some-user"), view.UserColor("some-user"))
	assert.Equal(t, "chat-user1", view.UserColor(""))
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2024, 3, 9, 7, 5, 0, 0, time.UTC).UnixMilli()
	assert.Equal(t, "07:05", view.FormatTime(ts, time.UTC))

	kyiv := time.FixedZone("EET", 2*60*60)
	assert.Equal(t, "09:05", view.FormatTime(ts, kyiv))
}

func TestMessageList_GroupsConsecutiveSenders(t *testing.T) {
	messages := []models.Message{
		msg("1", bob, 1000),
		msg("2", bob, 2000),
		models.NewNotification("bob left the chat"),
		msg("3", bob, 3000),
		msg("4", alice, 4000),
		msg("5", alice, 5000),
	}

	list := view.NewMessageList(messages, "alice")

	require.Len(t, list.Groups, 4)
	assert.Len(t, list.Groups[0].Messages, 2)
	assert.False(t, list.Groups[0].Own)
	assert.Equal(t, view.UserColor("b2"), list.Groups[0].Color)

	assert.True(t, list.Groups[1].Notification)

	assert.Len(t, list.Groups[2].Messages, 1, "a notification breaks the run")

	assert.True(t, list.Groups[3].Own)
	assert.Empty(t, list.Groups[3].Color)
	assert.Len(t, list.Groups[3].Messages, 2)
	assert.Empty(t, list.EmptyText)
}

func TestMessageList_Empty(t *testing.T) {
	list := view.NewMessageList(nil, "alice")
	assert.Empty(t, list.Groups)
	assert.NotEmpty(t, list.EmptyText)
}

func TestPartnerPicker_ExcludesSelf(t *testing.T) {
	picker := view.NewPartnerPicker([]models.User{alice, bob}, alice)
	require.Len(t, picker.Partners, 1)
	assert.Equal(t, "bob", picker.Partners[0].Username)
	assert.Empty(t, picker.EmptyText)

	lonely := view.NewPartnerPicker([]models.User{alice}, alice)
	assert.Empty(t, lonely.Partners)
	assert.Equal(t, "No other users online", lonely.EmptyText)
}

func TestSubmitDisabled(t *testing.T) {
	assert.True(t, view.LoginSubmitDisabled(false, "alice"))
	assert.True(t, view.LoginSubmitDisabled(true, " a "))
	assert.False(t, view.LoginSubmitDisabled(true, "al"))
}

func TestConversationsList_SortsNewestFirstAndSumsUnread(t *testing.T) {
	convs := []models.Conversation{
		{PartnerUsername: "bob", Messages: []models.Message{msg("1", bob, 1000)}, Unread: 1},
		{PartnerUsername: "dave", Messages: []models.Message{}},
		{PartnerUsername: "carol", Messages: []models.Message{msg("2", carol, 5000)}, Unread: 3},
	}

	list := view.NewConversationsList(convs, "bob")

	require.Len(t, list.Items, 3)
	assert.Equal(t, "carol", list.Items[0].PartnerUsername)
	assert.Equal(t, "bob", list.Items[1].PartnerUsername)
	assert.True(t, list.Items[1].Active)
	assert.Equal(t, "dave", list.Items[2].PartnerUsername)
	assert.Equal(t, 4, list.UnreadTotal)
	assert.Equal(t, "text 2", list.Items[0].Preview)
}

func TestRender_PicksScreen(t *testing.T) {
	page := view.Render(models.SessionState{Connected: false}, false)
	assert.Equal(t, view.ScreenLogin, page.Screen)
	require.NotNil(t, page.Login)
	assert.NotEmpty(t, page.Login.Status)

	page = view.Render(models.SessionState{
		Connected: true,
		LoggedIn:  true,
		Username:  "alice",
		Self:      alice,
		Users:     []models.User{alice, bob},
	}, false)
	assert.Equal(t, view.ScreenPicker, page.Screen)
	require.NotNil(t, page.Picker)
	assert.Len(t, page.Picker.Partners, 1)

	page = view.Render(models.SessionState{
		Connected:      true,
		LoggedIn:       true,
		InChat:         true,
		Username:       "alice",
		Self:           alice,
		TargetUsername: "bob",
		Users:          []models.User{alice, bob},
		Messages:       []models.Message{msg("1", bob, 1000)},
		Conversations:  []models.Conversation{{PartnerUsername: "bob", Unread: 2}},
	}, true)
	assert.Equal(t, view.ScreenChat, page.Screen)
	require.NotNil(t, page.Chat)
	assert.Equal(t, "bob", page.Chat.TargetUsername)
	assert.True(t, page.Chat.Input.Disabled)
	assert.Equal(t, 2, page.Chat.Roster.Count)
	assert.True(t, page.Chat.Roster.Users[0].Self)
	assert.Equal(t, 2, page.Chat.Conversations.UnreadTotal)
}
