package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
)

func TestDefaultKeyMap_Keys(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		name    string
		binding key.Binding
		keys    []string
	}{
		{"quit", km.Quit, []string{"q", "ctrl+c"}},
		{"help", km.Help, []string{"?"}},
		{"back", km.Back, []string{"esc"}},
		{"up", km.Up, []string{"up", "k"}},
		{"down", km.Down, []string{"down", "j"}},
		{"open", km.Open, []string{"enter"}},
		{"reload", km.Reload, []string{"r"}},
		{"delete", km.Delete, []string{"d", "delete"}},
		{"retry", km.Retry, []string{"R"}},
		{"confirm", km.Confirm, []string{"y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.keys, tt.binding.Keys())
			assert.NotEmpty(t, tt.binding.Help().Key)
			assert.NotEmpty(t, tt.binding.Help().Desc)
		})
	}
}

func TestReloadAndRetryDoNotCollide(t *testing.T) {
	km := DefaultKeyMap()

	assert.False(t, Matches("R", km.Reload))
	assert.False(t, Matches("r", km.Retry))
}

func TestShortHelp(t *testing.T) {
	km := DefaultKeyMap()

	bindings := km.ShortHelp()

	assert.Equal(t, []key.Binding{km.Quit, km.Help}, bindings)
}

func TestFailedHelp_IncludesRetry(t *testing.T) {
	km := DefaultKeyMap()

	assert.Contains(t, km.FailedHelp(), km.Retry)
	assert.NotContains(t, km.ListHelp(), km.Retry)
}

func TestFullHelp(t *testing.T) {
	km := DefaultKeyMap()

	bindings := km.FullHelp()

	assert.Len(t, bindings, 4)
	assert.Len(t, bindings[2], 4)
}

func TestHelpLine(t *testing.T) {
	km := DefaultKeyMap()

	assert.Equal(t, "[r] reload  [esc] back", HelpLine(km.Reload, km.Back))
	assert.Empty(t, HelpLine())
}

func TestMatches(t *testing.T) {
	km := DefaultKeyMap()

	assert.True(t, Matches("ctrl+c", km.Quit))
	assert.True(t, Matches("k", km.Up))
	assert.False(t, Matches("x", km.Quit))
	assert.False(t, Matches("down", km.Up))
}
