package pages

import (
	"github.com/bwmarrin/discordgo"
)

// Page is one unit of menu content. A page is either an embed or plain
// text, never both.
type Page struct {
	Embed *discordgo.MessageEmbed
	Text  string
}

// NewEmbed wraps an embed as a page.
func NewEmbed(e *discordgo.MessageEmbed) Page {
	return Page{Embed: e}
}

// NewText wraps plain text as a page.
func NewText(s string) Page {
	return Page{Text: s}
}

// IsEmbed reports whether the page carries an embed.
func (p Page) IsEmbed() bool {
	return p.Embed != nil
}

// Clone returns a copy of the page. Embed pages are deep-copied so director
// stamping on one menu never leaks into another menu sharing the same source
// embed.
func (p Page) Clone() Page {
	if p.Embed == nil {
		return p
	}
	dup := *p.Embed
	if p.Embed.Footer != nil {
		footer := *p.Embed.Footer
		dup.Footer = &footer
	}
	return Page{Embed: &dup}
}

// CloneAll copies a page slice with Clone applied to every element.
func CloneAll(in []Page) []Page {
	out := make([]Page, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}
