package application

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

const (
	defaultPostsPath  = "/blog"
	defaultImagesPath = "/images"

	// rendererVersion must be bumped whenever the extension set or a transformer changes
	// its output, so cached HTML from older builds is not reused.
	rendererVersion = "1"
)

// relativeLinkTransformer points links to sibling markdown files at their post page,
// and relative images at the image path.
type relativeLinkTransformer struct {
	postsPath  string
	imagesPath string
}

func (t *relativeLinkTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch v := n.(type) {
		case *ast.Image:
			dest := string(v.Destination)
			if isRelativeLink(dest) {
				v.Destination = []byte(t.imagesPath + "/" + path.Base(dest))
			}
		case *ast.Link:
			dest := string(v.Destination)
			if isRelativeLink(dest) && strings.HasSuffix(dest, ".md") {
				slug := strings.TrimSuffix(path.Base(dest), ".md")
				v.Destination = []byte(t.postsPath + "/" + slug)
			}
		}

		return ast.WalkContinue, nil
	})
}

func isRelativeLink(dest string) bool {
	if dest == "" || strings.HasPrefix(dest, "#") {
		return false
	}

	// Absolute path check
	if strings.HasPrefix(dest, "/") {
		return false
	}

	if strings.HasPrefix(dest, "./") || strings.HasPrefix(dest, "../") {
		return true
	}

	if strings.Contains(dest, ":") {
		return false
	}

	return true
}

// headingAnchorTransformer appends a self-link to every heading that has an id.
type headingAnchorTransformer struct{}

func (t *headingAnchorTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		id, ok := heading.AttributeString("id")
		if !ok {
			return ast.WalkSkipChildren, nil
		}
		idBytes, ok := id.([]byte)
		if !ok || len(idBytes) == 0 {
			return ast.WalkSkipChildren, nil
		}

		anchor := ast.NewLink()
		anchor.Destination = append([]byte("#"), idBytes...)
		anchor.SetAttributeString("class", []byte("anchor"))
		anchor.SetAttributeString("tabindex", []byte("-1"))
		anchor.AppendChild(anchor, ast.NewString([]byte("#")))
		heading.AppendChild(heading, anchor)

		return ast.WalkSkipChildren, nil
	})
}

// MarkdownRenderer defines the interface for converting markdown to HTML.
type MarkdownRenderer interface {
	Render(markdown []byte) (string, error)
	// Fingerprint identifies every setting that affects the rendered HTML.
	Fingerprint() string
}

type MarkdownRendererImpl struct {
	renderer    goldmark.Markdown
	fingerprint string
}

// RendererOption customizes the markdown renderer.
type RendererOption func(*relativeLinkTransformer)

// WithPostsPath sets the URL prefix used for links between posts.
func WithPostsPath(p string) RendererOption {
	return func(t *relativeLinkTransformer) {
		t.postsPath = strings.TrimSuffix(p, "/")
	}
}

// WithImagesPath sets the URL prefix used for relative images.
func WithImagesPath(p string) RendererOption {
	return func(t *relativeLinkTransformer) {
		t.imagesPath = strings.TrimSuffix(p, "/")
	}
}

func NewMarkdownRenderer(opts ...RendererOption) MarkdownRenderer {
	links := &relativeLinkTransformer{
		postsPath:  defaultPostsPath,
		imagesPath: defaultImagesPath,
	}
	for _, opt := range opts {
		opt(links)
	}

	renderer := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			emoji.Emoji,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(links, 100),
				util.Prioritized(&headingAnchorTransformer{}, 200),
			),
		),
	)

	return &MarkdownRendererImpl{
		renderer:    renderer,
		fingerprint: fmt.Sprintf("v%s;posts=%s;images=%s", rendererVersion, links.postsPath, links.imagesPath),
	}
}

func (r *MarkdownRendererImpl) Fingerprint() string {
	return r.fingerprint
}

func (r *MarkdownRendererImpl) Render(markdown []byte) (string, error) {
	var buf bytes.Buffer
	err := r.renderer.Convert(markdown, &buf)
	if err != nil {
		return "", fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}

	return buf.String(), nil
}
