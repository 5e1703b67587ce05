// Package style renders the "Page X/Y" director stamped onto menu pages.
package style

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/quillmoor/discord-paginator/pages"
)

// Default is the director template used when none is configured. "$" is
// replaced with the current page number and "&" with the total page count.
const Default = "Page $/&"

// ErrImproperFormat reports a director template that does not contain
// exactly one "$" and exactly one "&".
type ErrImproperFormat struct {
	Template string
}

func (e *ErrImproperFormat) Error() string {
	return fmt.Sprintf("director style %q must contain exactly one %q and exactly one %q", e.Template, "$", "&")
}

var (
	codeblock          = regexp.MustCompile("(?s)`{3}.*?`{3}")
	codeblockDataAfter = regexp.MustCompile("(?s)`{3}.*?`{3}.+")
)

// Style formats director text from a validated template.
type Style struct {
	template string
}

// New validates a director template. An empty template selects Default.
func New(template string) (Style, error) {
	if template == "" {
		template = Default
	}
	if strings.Count(template, "$") != 1 || strings.Count(template, "&") != 1 {
		return Style{}, &ErrImproperFormat{Template: template}
	}
	return Style{template: template}, nil
}

// Format renders the director text for one page. Page numbers are one-based.
func (s Style) Format(page, total int) string {
	out := strings.Replace(s.template, "$", strconv.Itoa(page), 1)
	return strings.Replace(out, "&", strconv.Itoa(total), 1)
}

// Stamp writes the director onto every page in place. Embed pages get the
// director prefixed to their footer text. Text pages get it appended after
// the body, separated by a single newline when the body ends with a fenced
// code block and a blank line otherwise.
func (s Style) Stamp(p []pages.Page) {
	total := len(p)
	for i := range p {
		director := s.Format(i+1, total)
		if p[i].IsEmbed() {
			stampEmbed(p[i].Embed, director)
		} else {
			p[i].Text = stampText(p[i].Text, director)
		}
	}
}

func stampEmbed(e *discordgo.MessageEmbed, director string) {
	if e.Footer == nil {
		e.Footer = &discordgo.MessageEmbedFooter{Text: director}
		return
	}
	if e.Footer.Text == "" {
		e.Footer.Text = director
		return
	}
	e.Footer.Text = director + ": " + e.Footer.Text
}

func stampText(body, director string) string {
	if codeblock.MatchString(body) && !codeblockDataAfter.MatchString(body) {
		return body + "\n" + director
	}
	return body + "\n\n" + director
}

// Strip removes a previously stamped director from a page, so pages handed
// back through an update are not stamped twice. Embed footers are cleared of
// the leading director text, text pages of the trailing director line.
func (s Style) Strip(p *pages.Page) {
	escaped := regexp.QuoteMeta(s.template)
	numbered := strings.Replace(escaped, `\$`, `\d+`, 1)
	numbered = strings.Replace(numbered, "&", `\d+`, 1)

	if p.IsEmbed() {
		if p.Embed.Footer == nil || p.Embed.Footer.Text == "" {
			return
		}
		re := regexp.MustCompile(numbered + ":? ?")
		p.Embed.Footer.Text = strings.TrimSpace(re.ReplaceAllString(p.Embed.Footer.Text, ""))
		return
	}
	re := regexp.MustCompile(numbered + ".*")
	p.Text = strings.TrimRight(re.ReplaceAllString(p.Text, ""), "\n")
}
