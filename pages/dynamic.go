package pages

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// MaxEmbedDescription is the ceiling Discord places on an embed description.
const MaxEmbedDescription = 4096

// ErrDescriptionOversized is returned when a built page would exceed the
// platform content ceiling. Data is never silently truncated.
type ErrDescriptionOversized struct {
	Size int
	Max  int
}

func (e *ErrDescriptionOversized) Error() string {
	return fmt.Sprintf("generated page description is %d characters, over the %d limit; lower the requested rows per page", e.Size, e.Max)
}

// DynamicBuilder turns an append-only list of text rows into embed pages.
// Rows are partitioned into chunks of at most the requested row count, each
// chunk joined by newlines becoming one page body. Fixed pages can be
// spliced in before and after the generated ones.
type DynamicBuilder struct {
	rowsRequested int
	wrapLang      string
	wrapSet       bool
	customEmbed   *discordgo.MessageEmbed

	rows      []string
	mainPages []Page
	lastPages []Page
}

// NewDynamicBuilder creates a builder producing pages of at most
// rowsRequested rows each.
func NewDynamicBuilder(rowsRequested int) *DynamicBuilder {
	return &DynamicBuilder{rowsRequested: rowsRequested}
}

// RowsRequested returns the configured rows-per-page count.
func (b *DynamicBuilder) RowsRequested() int {
	return b.rowsRequested
}

// SetRowsRequested changes how many rows each generated page holds. Takes
// effect on the next Build.
func (b *DynamicBuilder) SetRowsRequested(rows int) {
	b.rowsRequested = rows
}

// WrapInCodeblock makes each generated page body a fenced code block with
// the given language tag.
func (b *DynamicBuilder) WrapInCodeblock(lang string) {
	b.wrapLang = lang
	b.wrapSet = true
}

// SetCustomEmbed sets the embed template copied for every generated page,
// used for styling. Its description is overwritten with the chunk body.
func (b *DynamicBuilder) SetCustomEmbed(e *discordgo.MessageEmbed) {
	b.customEmbed = e
}

// AddRow appends one row of data.
func (b *DynamicBuilder) AddRow(data string) {
	b.rows = append(b.rows, data)
}

// ClearRows removes every row added so far.
func (b *DynamicBuilder) ClearRows() {
	b.rows = nil
}

// RowCount returns the number of rows added so far.
func (b *DynamicBuilder) RowCount() int {
	return len(b.rows)
}

// SetMainPages sets the pages shown before the generated data pages. Each
// call replaces the previous set.
func (b *DynamicBuilder) SetMainPages(p ...Page) {
	b.mainPages = append([]Page(nil), p...)
}

// SetLastPages sets the pages shown after the generated data pages. Each
// call replaces the previous set.
func (b *DynamicBuilder) SetLastPages(p ...Page) {
	b.lastPages = append([]Page(nil), p...)
}

// Build chunks the accumulated rows into pages and splices in the main and
// last pages. It fails if any chunk renders over the platform ceiling or if
// the result would contain no pages at all.
func (b *DynamicBuilder) Build() ([]Page, error) {
	if b.rowsRequested < 1 {
		return nil, fmt.Errorf("dynamic menu rows requested must be at least 1, got %d", b.rowsRequested)
	}

	var built []Page
	for start := 0; start < len(b.rows); start += b.rowsRequested {
		end := start + b.rowsRequested
		if end > len(b.rows) {
			end = len(b.rows)
		}
		body := strings.Join(b.rows[start:end], "\n")
		if b.wrapSet {
			body = fmt.Sprintf("```%s\n%s```", b.wrapLang, body)
		}
		if len(body) > MaxEmbedDescription {
			return nil, &ErrDescriptionOversized{Size: len(body), Max: MaxEmbedDescription}
		}
		built = append(built, Page{Embed: b.pageEmbed(body)})
	}

	out := make([]Page, 0, len(b.mainPages)+len(built)+len(b.lastPages))
	out = append(out, CloneAll(b.mainPages)...)
	out = append(out, built...)
	out = append(out, CloneAll(b.lastPages)...)

	if len(out) == 0 {
		return nil, ErrNoPages
	}
	return out, nil
}

func (b *DynamicBuilder) pageEmbed(body string) *discordgo.MessageEmbed {
	if b.customEmbed == nil {
		return &discordgo.MessageEmbed{Description: body}
	}
	dup := *b.customEmbed
	dup.Description = body
	return &dup
}
