package application

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/dfryer1193/portfolio/blog/domain"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

const (
	titleKey   = "title"
	taglineKey = "tagline"
	dateKey    = "date"
	draftKey   = "draft"
)

// Frontmatter holds the metadata block of a post as flat string values.
type Frontmatter map[string]string

// yamlFormats decode with YAML 1.2 into nodes, so scalars keep their source text
// ("No" stays "No", "1.50" stays "1.50").
var yamlFormats = []*frontmatter.Format{
	frontmatter.NewFormat("---", "---", yaml.Unmarshal),
	frontmatter.NewFormat("---yaml", "---", yaml.Unmarshal),
}

// splitFrontmatter separates the metadata block from the markdown body.
// Documents without a metadata block yield an empty Frontmatter and the whole text as body.
func splitFrontmatter(raw []byte) (Frontmatter, []byte, error) {
	var meta map[string]yaml.Node
	body, err := frontmatter.Parse(bytes.NewReader(raw), &meta, yamlFormats...)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: parse frontmatter: %v", domain.ErrMalformedPost, err)
	}

	fm := make(Frontmatter, len(meta))
	for key, node := range meta {
		s, err := scalarString(&node)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: frontmatter key %q: %v", domain.ErrMalformedPost, key, err)
		}
		fm[key] = s
	}

	return fm, body, nil
}

func scalarString(node *yaml.Node) (string, error) {
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		return scalarString(node.Alias)
	}
	if node.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("expected a scalar, got %s", kindName(node.Kind))
	}
	if node.ShortTag() == "!!null" {
		return "", nil
	}
	return node.Value, nil
}

func kindName(kind yaml.Kind) string {
	switch kind {
	case yaml.MappingNode:
		return "a mapping"
	case yaml.SequenceNode:
		return "a list"
	default:
		return "an unsupported node"
	}
}

// required returns the value of key, or a MissingFieldError when it is absent or blank.
func (fm Frontmatter) required(slug, key string) (string, error) {
	v, ok := fm[key]
	if !ok || strings.TrimSpace(v) == "" {
		return "", &domain.MissingFieldError{Slug: slug, Field: key}
	}
	return v, nil
}

// date returns nil when no date is set.
func (fm Frontmatter) date() (*time.Time, error) {
	v := strings.TrimSpace(fm[dateKey])
	if v == "" {
		return nil, nil
	}

	t, err := cast.ToTimeE(v)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", domain.ErrMalformedPost, v)
	}
	return &t, nil
}

// draft treats any non-empty value as true unless it reads as a false boolean.
func (fm Frontmatter) draft() bool {
	v := strings.TrimSpace(fm[draftKey])
	if v == "" {
		return false
	}
	if b, err := cast.ToBoolE(v); err == nil {
		return b
	}
	return true
}
