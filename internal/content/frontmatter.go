// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

var (
	errNoFrontMatter   = errors.New("missing front matter")
	errUnterminated    = errors.New("unterminated front matter")
	frontMatterDelimit = []byte("---")
)

// FrontMatter is the metadata block at the top of a static post.
type FrontMatter struct {
	Title      string     `yaml:"title"`
	Excerpt    string     `yaml:"excerpt"`
	CoverImage string     `yaml:"coverImage"`
	Author     AuthorMeta `yaml:"author"`
	Date       scalar     `yaml:"date"`
	ReadTime   string     `yaml:"readTime"`
	Category   string     `yaml:"category"`
	Featured   bool       `yaml:"featured"`
	Premium    bool       `yaml:"isPremium"`
	Tags       []string   `yaml:"tags"`
}

// AuthorMeta is the author block of a static post. A bare string is read as
// the author's name.
type AuthorMeta struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	Avatar     string `yaml:"avatar"`
	Image      string `yaml:"image"`
	Bio        string `yaml:"bio"`
	IsVerified bool   `yaml:"isVerified"`
}

func (a *AuthorMeta) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		a.Name = value.Value
		return nil
	}
	type plain AuthorMeta
	return value.Decode((*plain)(a))
}

// scalar keeps the raw text of a YAML scalar so dates survive untouched
// whatever type YAML would resolve them to.
type scalar string

func (s *scalar) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar", value.Line)
	}
	*s = scalar(value.Value)
	return nil
}

// splitFrontMatter separates the YAML block delimited by "---" lines from
// the body.
func splitFrontMatter(src []byte) (meta, body []byte, err error) {
	src = bytes.TrimPrefix(src, []byte("\xef\xbb\xbf"))
	src = bytes.ReplaceAll(src, []byte("\r\n"), []byte("\n"))

	first, rest, ok := bytes.Cut(src, []byte("\n"))
	if !ok || !bytes.Equal(bytes.TrimSpace(first), frontMatterDelimit) {
		return nil, nil, errNoFrontMatter
	}

	for offset := 0; offset <= len(rest); {
		line, next, found := bytes.Cut(rest[offset:], []byte("\n"))
		if bytes.Equal(bytes.TrimSpace(line), frontMatterDelimit) {
			meta = rest[:offset]
			if found {
				body = next
			}
			return meta, body, nil
		}
		if !found {
			break
		}
		offset += len(line) + 1
	}
	return nil, nil, errUnterminated
}

// parseFrontMatter decodes a static post file into metadata and body.
func parseFrontMatter(src []byte) (FrontMatter, string, error) {
	var fm FrontMatter

	meta, body, err := splitFrontMatter(src)
	if err != nil {
		return fm, "", err
	}
	if err := yaml.Unmarshal(meta, &fm); err != nil {
		return fm, "", fmt.Errorf("decoding front matter: %w", err)
	}
	return fm, string(body), nil
}
