package assets

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	berrors "github.com/bookforge/bookforge/internal/errors"
	"github.com/bookforge/bookforge/internal/observability"
)

// InlineTemplate rewrites the source web template into a self-contained
// variant under the output directory: stylesheet <link> elements become
// inline <style> blocks, and relative <script src> references are repointed
// at the bundled script.
func (p *Pipeline) InlineTemplate(ctx context.Context) error {
	ctx = observability.WithTask(ctx, TaskInline)
	src := p.cfg.Assets.Template
	if src == "" {
		observability.DebugContext(ctx, "No web template configured; skipping inline")
		return nil
	}

	doc, err := os.ReadFile(src)
	if err != nil {
		p.recorder.IncAssetTask(TaskInline, false)
		return berrors.AssetTaskFailed(TaskInline, err).WithContext("template", src)
	}

	inlined, err := InlineStylesheets(doc, p.resolveStylesheet(src), p.cfg.Assets.Bundle)
	if err != nil {
		p.recorder.IncAssetTask(TaskInline, false)
		return err
	}

	out := p.cfg.InlinedTemplatePath()
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		p.recorder.IncAssetTask(TaskInline, false)
		return berrors.FileSystemError("create templates directory", err)
	}
	if err := os.WriteFile(out, inlined, 0o644); err != nil {
		p.recorder.IncAssetTask(TaskInline, false)
		return berrors.FileSystemError("write inlined template", err)
	}

	p.recorder.IncAssetTask(TaskInline, true)
	observability.InfoContext(ctx, "Template inlined", slog.String("output", out))
	return nil
}

// resolveStylesheet maps a stylesheet href from the template to file content.
// The compiled stylesheet's basename resolves to the sass output; everything
// else resolves relative to the template's directory.
func (p *Pipeline) resolveStylesheet(templatePath string) func(href string) ([]byte, error) {
	compiled := p.cfg.StylesheetPath()
	return func(href string) ([]byte, error) {
		if filepath.Base(href) == filepath.Base(compiled) {
			return os.ReadFile(compiled)
		}
		return os.ReadFile(filepath.Join(filepath.Dir(templatePath), href))
	}
}

// InlineStylesheets parses an HTML document, replaces every local stylesheet
// <link> with an inline <style> element, and repoints relative script sources
// at bundlePath. Remote (http/https) references are left untouched.
func InlineStylesheets(doc []byte, resolve func(href string) ([]byte, error), bundlePath string) ([]byte, error) {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return nil, berrors.AssetTaskFailed(TaskInline, err)
	}

	var walk func(n *html.Node) error
	walk = func(n *html.Node) error {
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			if c.Type == html.ElementNode {
				switch c.DataAtom {
				case atom.Link:
					if isLocalStylesheet(c) {
						css, err := resolve(attr(c, "href"))
						if err != nil {
							return berrors.AssetTaskFailed(TaskInline, err).WithContext("href", attr(c, "href"))
						}
						style := &html.Node{
							Type:     html.ElementNode,
							DataAtom: atom.Style,
							Data:     "style",
						}
						style.AppendChild(&html.Node{Type: html.TextNode, Data: string(css)})
						n.InsertBefore(style, c)
						n.RemoveChild(c)
					}
				case atom.Script:
					if src := attr(c, "src"); src != "" && !isRemote(src) && bundlePath != "" {
						setAttr(c, "src", filepath.ToSlash(bundlePath))
					}
				}
			}
			if err := walk(c); err != nil {
				return err
			}
			c = next
		}
		return nil
	}
	if err := walk(root); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return nil, berrors.AssetTaskFailed(TaskInline, err)
	}
	return buf.Bytes(), nil
}

func isLocalStylesheet(n *html.Node) bool {
	rel := strings.ToLower(attr(n, "rel"))
	href := attr(n, "href")
	return rel == "stylesheet" && href != "" && !isRemote(href)
}

func isRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "//")
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if a.Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}
