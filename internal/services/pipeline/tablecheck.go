package pipeline

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var tableMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.Table),
)

// containsMarkdownTable reports whether the markdown parses to a document
// holding at least one table. Used to sanity-check model output before it
// is persisted; a missing table is logged, not fatal.
func containsMarkdownTable(markdown string) bool {
	source := []byte(markdown)
	doc := tableMarkdown.Parser().Parse(text.NewReader(source))

	found := false
	ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if _, ok := node.(*extast.Table); ok {
			found = true
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})

	return found
}
