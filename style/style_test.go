package style

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillmoor/discord-paginator/pages"
)

func TestNewDefaultsEmptyTemplate(t *testing.T) {
	s, err := New("")
	require.NoError(t, err)
	assert.Equal(t, "Page 2/5", s.Format(2, 5))
}

func TestNewRejectsImproperTemplates(t *testing.T) {
	for _, template := range []string{
		"Page $",
		"Page &",
		"$$ of &",
		"$ of &&",
		"no placeholders",
	} {
		_, err := New(template)
		var improper *ErrImproperFormat
		require.ErrorAs(t, err, &improper, "template %q", template)
		assert.Equal(t, template, improper.Template)
	}
}

func TestFormatCustomTemplate(t *testing.T) {
	s, err := New("On $ out of &!")
	require.NoError(t, err)
	assert.Equal(t, "On 3 out of 10!", s.Format(3, 10))
}

func TestStampEmbedCreatesFooter(t *testing.T) {
	s, _ := New("")
	p := []pages.Page{
		pages.NewEmbed(&discordgo.MessageEmbed{Title: "one"}),
		pages.NewEmbed(&discordgo.MessageEmbed{Title: "two"}),
	}
	s.Stamp(p)
	assert.Equal(t, "Page 1/2", p[0].Embed.Footer.Text)
	assert.Equal(t, "Page 2/2", p[1].Embed.Footer.Text)
}

func TestStampEmbedPrefixesExistingFooter(t *testing.T) {
	s, _ := New("")
	p := []pages.Page{pages.NewEmbed(&discordgo.MessageEmbed{
		Footer: &discordgo.MessageEmbedFooter{Text: "existing"},
	})}
	s.Stamp(p)
	assert.Equal(t, "Page 1/1: existing", p[0].Embed.Footer.Text)
}

func TestStampTextUsesBlankLine(t *testing.T) {
	s, _ := New("")
	p := []pages.Page{pages.NewText("hello"), pages.NewText("world")}
	s.Stamp(p)
	assert.Equal(t, "hello\n\nPage 1/2", p[0].Text)
	assert.Equal(t, "world\n\nPage 2/2", p[1].Text)
}

func TestStampTextEndingInCodeblockUsesSingleNewline(t *testing.T) {
	s, _ := New("")
	p := []pages.Page{pages.NewText("```go\nfmt.Println(1)\n```")}
	s.Stamp(p)
	assert.Equal(t, "```go\nfmt.Println(1)\n```\nPage 1/1", p[0].Text)
}

func TestStampTextWithDataAfterCodeblockUsesBlankLine(t *testing.T) {
	s, _ := New("")
	p := []pages.Page{pages.NewText("```go\nfmt.Println(1)\n```\ntrailing note")}
	s.Stamp(p)
	assert.Equal(t, "```go\nfmt.Println(1)\n```\ntrailing note\n\nPage 1/1", p[0].Text)
}

func TestStripEmbedRemovesDirectorPrefix(t *testing.T) {
	s, _ := New("")
	p := pages.NewEmbed(&discordgo.MessageEmbed{
		Footer: &discordgo.MessageEmbedFooter{Text: "Page 2/7: existing"},
	})
	s.Strip(&p)
	assert.Equal(t, "existing", p.Embed.Footer.Text)
}

func TestStripEmbedClearsDirectorOnlyFooter(t *testing.T) {
	s, _ := New("")
	p := pages.NewEmbed(&discordgo.MessageEmbed{
		Footer: &discordgo.MessageEmbedFooter{Text: "Page 2/7"},
	})
	s.Strip(&p)
	assert.Equal(t, "", p.Embed.Footer.Text)
}

func TestStripTextRemovesTrailingDirector(t *testing.T) {
	s, _ := New("")
	p := pages.NewText("hello\n\nPage 3/9")
	s.Strip(&p)
	assert.Equal(t, "hello", p.Text)
}

func TestStripLeavesUnstampedPagesAlone(t *testing.T) {
	s, _ := New("")
	p := pages.NewText("no director here")
	s.Strip(&p)
	assert.Equal(t, "no director here", p.Text)

	e := pages.NewEmbed(&discordgo.MessageEmbed{Title: "plain"})
	s.Strip(&e)
	assert.Nil(t, e.Embed.Footer)
}

func TestStampThenStripRoundTrip(t *testing.T) {
	s, _ := New("$ / &")
	p := []pages.Page{pages.NewText("body"), pages.NewEmbed(&discordgo.MessageEmbed{
		Footer: &discordgo.MessageEmbedFooter{Text: "kept"},
	})}
	s.Stamp(p)
	s.Strip(&p[0])
	s.Strip(&p[1])
	assert.Equal(t, "body", p[0].Text)
	assert.Equal(t, "kept", p[1].Embed.Footer.Text)
}
