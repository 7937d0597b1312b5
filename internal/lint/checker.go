// Package lint checks the book's chapter sources before conversion: missing
// local link and image targets, and duplicate heading anchors that would
// collide in the rendered table of contents.
package lint

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/text/unicode/norm"

	berrors "github.com/bookforge/bookforge/internal/errors"
)

// Checker verifies chapter sources against the filesystem they reference.
type Checker struct {
	md goldmark.Markdown
}

// NewChecker creates a source checker.
func NewChecker() *Checker {
	return &Checker{md: goldmark.New()}
}

// CheckSources checks every chapter in order and aggregates the issues.
// Heading anchors are tracked across chapters: the conversion tool merges
// all chapters into one document, so anchors must be globally unique.
func (c *Checker) CheckSources(sources []string) (*Result, error) {
	result := &Result{}
	anchors := map[string]string{} // anchor -> first file claiming it

	for _, path := range sources {
		if err := c.checkFile(path, result, anchors); err != nil {
			return nil, err
		}
		result.FilesTotal++
	}
	return result, nil
}

func (c *Checker) checkFile(path string, result *Result, anchors map[string]string) error {
	body, err := os.ReadFile(path)
	if err != nil {
		return berrors.FileSystemError("read chapter", err).WithContext("path", path)
	}

	root := c.md.Parser().Parse(text.NewReader(body))
	dir := filepath.Dir(path)

	return gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Link:
			c.checkDestination(path, dir, string(node.Destination), "missing-link-target", result)
		case *gmast.Image:
			c.checkDestination(path, dir, string(node.Destination), "missing-image-target", result)
		case *gmast.Heading:
			anchor := Anchor(string(node.Text(body)))
			if first, taken := anchors[anchor]; taken {
				result.Issues = append(result.Issues, Issue{
					FilePath: path,
					Severity: SeverityWarning,
					Rule:     "duplicate-anchor",
					Message:  fmt.Sprintf("heading anchor %q already used in %s", anchor, first),
				})
			} else {
				anchors[anchor] = path
			}
		}
		return gmast.WalkContinue, nil
	})
}

// checkDestination flags local file destinations that do not exist. Remote
// URLs and intra-document fragments are out of scope for a source check.
func (c *Checker) checkDestination(path, dir, dest, rule string, result *Result) {
	if dest == "" || strings.HasPrefix(dest, "#") {
		return
	}
	if u, err := url.Parse(dest); err == nil && u.Scheme != "" {
		return
	}
	target := dest
	if i := strings.IndexByte(target, '#'); i >= 0 {
		target = target[:i]
	}
	if target == "" {
		return
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(dir, target)
	}
	if _, err := os.Stat(target); err != nil {
		severity := SeverityError
		if rule == "missing-link-target" {
			severity = SeverityWarning
		}
		result.Issues = append(result.Issues, Issue{
			FilePath: path,
			Severity: severity,
			Rule:     rule,
			Message:  fmt.Sprintf("destination %q not found", dest),
		})
	}
}

// Anchor derives the heading anchor the conversion tool generates: NFC
// normalization, lower case, spaces to hyphens, punctuation stripped.
func Anchor(heading string) string {
	s := norm.NFC.String(heading)
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == ' ' || r == '-':
			b.WriteByte('-')
		case r == '_' || ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') || r > 127:
			b.WriteRune(r)
		}
	}
	return b.String()
}
