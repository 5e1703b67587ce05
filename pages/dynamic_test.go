package pages

import (
	"fmt"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func builderWithRows(rowsRequested, rows int) *DynamicBuilder {
	b := NewDynamicBuilder(rowsRequested)
	for i := 1; i <= rows; i++ {
		b.AddRow(fmt.Sprintf("row %d", i))
	}
	return b
}

func TestBuildChunksRows(t *testing.T) {
	b := builderWithRows(3, 10)

	built, err := b.Build()
	require.NoError(t, err)
	require.Len(t, built, 4)

	for i := 0; i < 3; i++ {
		lines := strings.Split(built[i].Embed.Description, "\n")
		assert.Len(t, lines, 3, "page %d", i)
	}
	assert.Equal(t, "row 10", built[3].Embed.Description)
}

func TestBuildExactMultiple(t *testing.T) {
	b := builderWithRows(5, 10)
	built, err := b.Build()
	require.NoError(t, err)
	assert.Len(t, built, 2)
}

func TestBuildWithNoRowsOrPages(t *testing.T) {
	b := NewDynamicBuilder(3)
	_, err := b.Build()
	assert.ErrorIs(t, err, ErrNoPages)
}

func TestBuildWithOnlyMainPages(t *testing.T) {
	b := NewDynamicBuilder(3)
	b.SetMainPages(NewEmbed(&discordgo.MessageEmbed{Title: "intro"}))
	built, err := b.Build()
	require.NoError(t, err)
	require.Len(t, built, 1)
	assert.Equal(t, "intro", built[0].Embed.Title)
}

func TestBuildSplicesMainAndLastPages(t *testing.T) {
	b := builderWithRows(2, 4)
	b.SetMainPages(NewEmbed(&discordgo.MessageEmbed{Title: "first"}))
	b.SetLastPages(NewEmbed(&discordgo.MessageEmbed{Title: "last"}))

	built, err := b.Build()
	require.NoError(t, err)
	require.Len(t, built, 4)
	assert.Equal(t, "first", built[0].Embed.Title)
	assert.Equal(t, "row 1\nrow 2", built[1].Embed.Description)
	assert.Equal(t, "last", built[3].Embed.Title)
}

func TestBuildWrapsInCodeblock(t *testing.T) {
	b := builderWithRows(2, 2)
	b.WrapInCodeblock("py")

	built, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, "```py\nrow 1\nrow 2```", built[0].Embed.Description)
}

func TestBuildRejectsOversizedChunk(t *testing.T) {
	b := NewDynamicBuilder(2)
	b.AddRow(strings.Repeat("a", 3000))
	b.AddRow(strings.Repeat("b", 3000))

	_, err := b.Build()
	var oversized *ErrDescriptionOversized
	require.ErrorAs(t, err, &oversized)
	assert.Equal(t, 6001, oversized.Size)
	assert.Equal(t, MaxEmbedDescription, oversized.Max)
}

func TestBuildUsesCustomEmbedTemplate(t *testing.T) {
	b := builderWithRows(2, 2)
	b.SetCustomEmbed(&discordgo.MessageEmbed{Title: "styled", Color: 0x00ff00})

	built, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, "styled", built[0].Embed.Title)
	assert.Equal(t, 0x00ff00, built[0].Embed.Color)
	assert.Equal(t, "row 1\nrow 2", built[0].Embed.Description)
}

func TestClearRows(t *testing.T) {
	b := builderWithRows(2, 4)
	assert.Equal(t, 4, b.RowCount())
	b.ClearRows()
	assert.Equal(t, 0, b.RowCount())
}

func TestBuildRejectsBadRowsRequested(t *testing.T) {
	b := NewDynamicBuilder(0)
	b.AddRow("row")
	_, err := b.Build()
	assert.Error(t, err)
}
