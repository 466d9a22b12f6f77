// Package document handles generated summary documents: deciding when a chat
// request asks for one, creating it, and rendering its markdown body.
package document

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/georgeLochner/whedifaqaui/internal/api"
)

// Format is the document format requested from the backend.
const Format = "markdown"

var (
	md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)

	summaryRe = regexp.MustCompile(`(?i)\b(summari[sz]e|summary|recap)\b`)
)

// Render converts a markdown body to HTML.
func Render(markdown string) (string, error) {
	var out bytes.Buffer
	if err := md.Convert([]byte(markdown), &out); err != nil {
		return "", fmt.Errorf("render document: %w", err)
	}
	return out.String(), nil
}

// WantsSummary reports whether a chat message asks for a summary document.
func WantsSummary(message string) bool {
	return summaryRe.MatchString(message)
}

// Creator generates documents.
type Creator interface {
	CreateDocument(ctx context.Context, req api.DocumentRequest) (*api.DocumentResponse, error)
}

// SourceVideoIDs returns the distinct video ids of cs in first-seen order.
func SourceVideoIDs(cs []api.Citation) []string {
	seen := make(map[string]bool, len(cs))
	var ids []string
	for _, c := range cs {
		if c.VideoID == "" || seen[c.VideoID] {
			continue
		}
		seen[c.VideoID] = true
		ids = append(ids, c.VideoID)
	}
	return ids
}

// AutoGenerate asks the backend for a summary document built from the cited
// videos. It is best-effort: any failure is logged and reported as ok=false.
func AutoGenerate(ctx context.Context, c Creator, request string, citations []api.Citation) (*api.DocumentResponse, bool) {
	ids := SourceVideoIDs(citations)
	if len(ids) == 0 {
		log.Debug().Msg("no cited videos, skipping document generation")
		return nil, false
	}
	doc, err := c.CreateDocument(ctx, api.DocumentRequest{
		Request:        request,
		SourceVideoIDs: ids,
		Format:         Format,
	})
	if err != nil {
		log.Warn().Err(err).Strs("videos", ids).Msg("document generation failed")
		return nil, false
	}
	log.Info().Str("document_id", doc.ID).Str("title", doc.Title).Msg("document generated")
	return doc, true
}

// FileName is the download name for a document.
func FileName(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "document"
	}
	title = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == 0 {
			return '-'
		}
		return r
	}, title)
	return title + ".md"
}

// BlockKind classifies a line of a document outline.
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockHeading
	BlockListItem
	BlockCode
	BlockQuote
	BlockRow
)

// Block is one displayable line group of a document.
type Block struct {
	Kind  BlockKind
	Level int
	Text  string
}

// Blocks flattens a markdown body into blocks for terminal display.
func Blocks(markdown string) []Block {
	src := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(src))

	var blocks []Block
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			blocks = append(blocks, Block{Kind: BlockHeading, Level: node.Level, Text: inlineText(node, src)})
			return ast.WalkSkipChildren, nil
		case *ast.ListItem:
			blocks = append(blocks, Block{Kind: BlockListItem, Level: listDepth(node), Text: inlineText(node, src)})
			return ast.WalkContinue, nil
		case *east.TableHeader, *east.TableRow:
			var cells []string
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				cells = append(cells, inlineText(c, src))
			}
			blocks = append(blocks, Block{Kind: BlockRow, Text: strings.Join(cells, " | ")})
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			blocks = append(blocks, Block{Kind: BlockCode, Text: strings.TrimRight(linesText(n, src), "\n")})
			return ast.WalkSkipChildren, nil
		case *ast.Blockquote:
			blocks = append(blocks, Block{Kind: BlockQuote, Text: inlineText(node, src)})
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph, *ast.TextBlock:
			if _, inItem := n.Parent().(*ast.ListItem); inItem {
				return ast.WalkSkipChildren, nil
			}
			blocks = append(blocks, Block{Kind: BlockParagraph, Text: inlineText(n, src)})
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return blocks
}

func listDepth(n ast.Node) int {
	depth := 0
	for p := n.Parent(); p != nil; p = p.Parent() {
		if _, ok := p.(*ast.List); ok {
			depth++
		}
	}
	return depth
}

func linesText(n ast.Node, src []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
	return b.String()
}

// inlineText collects the text of n's inline descendants, joining block
// children with spaces.
func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		case *ast.CodeSpan:
			for ch := t.FirstChild(); ch != nil; ch = ch.NextSibling() {
				if tx, ok := ch.(*ast.Text); ok {
					b.Write(tx.Segment.Value(src))
				}
			}
			return ast.WalkSkipChildren, nil
		case *ast.List:
			if c != n {
				return ast.WalkSkipChildren, nil
			}
		default:
			if c != n && c.Type() == ast.TypeBlock && b.Len() > 0 {
				b.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}
