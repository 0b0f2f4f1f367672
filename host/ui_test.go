package host

import (
	"testing"

	"github.com/mastercactapus/gmmu/catalog"
	"github.com/mastercactapus/gmmu/mmu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUI_Dialog(t *testing.T) {
	ui := NewUI()
	defer ui.Close()

	assert.Equal(t, ErrNoDialog, ui.Answer("", catalog.Retry))

	ui.ShowError(catalog.FindaDidntSwitchOn, mmu.SourceMMU)
	d, ok := ui.Dialog()
	require.True(t, ok)
	assert.NotEmpty(t, d.ID)
	assert.Equal(t, "mmu", d.Source)
	assert.Equal(t, catalog.Title(catalog.FindaDidntSwitchOn), d.Title)
	assert.NotEmpty(t, d.Buttons)

	ui.ShowError(catalog.FindaDidntSwitchOn, mmu.SourceMMU)
	again, _ := ui.Dialog()
	assert.Equal(t, d.ID, again.ID, "repeated errors keep the dialog")

	assert.Equal(t, ErrStaleDialog, ui.Answer("nope", catalog.Retry))
	assert.Equal(t, ErrNoOperation, ui.Answer(d.ID, catalog.NoOperation))
	require.NoError(t, ui.Answer(d.ID, catalog.Retry))

	assert.Equal(t, catalog.Retry, ui.ButtonPressed())
	assert.Equal(t, catalog.NoOperation, ui.ButtonPressed())

	ui.ShowError(catalog.FindaDidntSwitchOn, mmu.SourcePrinter)
	other, _ := ui.Dialog()
	assert.NotEqual(t, d.ID, other.ID)

	require.NoError(t, ui.Answer("", catalog.Continue))
	ui.ClearError()
	_, ok = ui.Dialog()
	assert.False(t, ok)
	assert.Equal(t, catalog.NoOperation, ui.ButtonPressed(), "clearing drops unread answers")
}

func TestUI_Progress(t *testing.T) {
	ui := NewUI()
	defer ui.Close()
	ui.ShowProgress(catalog.ProgressCodeToText(catalog.FeedingToFinda))
	ui.ShowProgress(catalog.ProgressCodeToText(catalog.FeedingToFinda))
	ui.FullScreenMessage("Ejecting filament")
	ui.PublishStatus(mmu.Status{})
}
