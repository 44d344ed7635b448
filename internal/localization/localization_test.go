package localization

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_LoadsEmbeddedLanguages(t *testing.T) {
	l := Default()

	assert.ElementsMatch(t, []string{"en", "uk"}, l.Languages())
	assert.Equal(t, "You joined the chat", l.GetString("en", "notify.you_joined"))
}

func TestGetString_FallsBackToEnglish(t *testing.T) {
	l := Default()

	// uk.json has no entry for this key
	assert.Equal(t, "Username required", l.GetString("uk", "toast.username_required.title"))
	assert.Equal(t, "missing.key", l.GetString("uk", "missing.key"))
}

func TestFormat(t *testing.T) {
	l := Default()

	assert.Equal(t, "bob joined the chat", l.Format("en", "notify.user_joined", "bob"))
	assert.Equal(t, "You started a chat with bob", l.Format("en", "notify.chat_started", "bob"))
	assert.Equal(t, "Ви розпочали чат з bob", l.Format("uk", "notify.chat_started", "bob"))
}

func TestNewLocalizer_SkipsNonJSONAndReportsBadFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"i18n/en.json":   {Data: []byte(`{"hello":"Hello"}`)},
		"i18n/README.md": {Data: []byte("ignored")},
	}
	l, err := NewLocalizer(fsys, "i18n")
	require.NoError(t, err)
	assert.Equal(t, "Hello", l.GetString("de", "hello"))

	fsys["i18n/fr.json"] = &fstest.MapFile{Data: []byte("{broken")}
	_, err = NewLocalizer(fsys, "i18n")
	assert.Error(t, err)
}
