// Package frontmatter splits knowledge-base documents into their YAML header
// and markdown body and computes the change-detection hash.
package frontmatter

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"reforma/internal/domain"
)

var ErrUnterminated = errors.New("front matter is not terminated")

const fence = "---"

// Split separates the YAML header from the body. A document without an
// opening fence has no header.
func Split(raw []byte) (header []byte, body string, err error) {
	text := strings.TrimPrefix(string(raw), "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")

	if !strings.HasPrefix(text, fence+"\n") {
		return nil, text, nil
	}
	rest := text[len(fence)+1:]

	offset := 0
	for {
		nl := strings.IndexByte(rest[offset:], '\n')
		var line string
		if nl < 0 {
			line = rest[offset:]
		} else {
			line = rest[offset : offset+nl]
		}
		if t := strings.TrimRight(line, " \t"); t == fence || t == "..." {
			header = []byte(rest[:offset])
			if nl < 0 {
				return header, "", nil
			}
			return header, strings.TrimLeft(rest[offset+nl+1:], "\n"), nil
		}
		if nl < 0 {
			return nil, "", ErrUnterminated
		}
		offset += nl + 1
	}
}

// Parse decodes a document's front matter and returns it with the body and
// the content hash.
func Parse(raw []byte) (domain.FrontMatter, string, string, error) {
	var fm domain.FrontMatter

	header, body, err := Split(raw)
	if err != nil {
		return fm, "", "", err
	}

	var node yaml.Node
	if len(bytes.TrimSpace(header)) > 0 {
		if err := yaml.Unmarshal(header, &node); err != nil {
			return fm, "", "", fmt.Errorf("parse front matter: %w", err)
		}
		if err := node.Decode(&fm); err != nil {
			return fm, "", "", fmt.Errorf("decode front matter: %w", err)
		}
	}

	return fm, body, Hash(body, &node), nil
}

// ParseDocument parses raw file content into a Document.
func ParseDocument(path, relPath, category string, raw []byte) (domain.Document, error) {
	fm, body, hash, err := Parse(raw)
	if err != nil {
		return domain.Document{}, fmt.Errorf("%s: %w", relPath, err)
	}
	return domain.Document{
		Path:        path,
		RelPath:     relPath,
		Category:    category,
		FrontMatter: fm,
		Body:        body,
		Hash:        hash,
	}, nil
}

// Hash is sha256 over the body and the front matter serialized in source key
// order. Reordering keys changes the hash.
func Hash(body string, header *yaml.Node) string {
	h := sha256.New()
	h.Write([]byte(body))
	h.Write([]byte{0})
	var b strings.Builder
	writeNode(&b, header)
	h.Write([]byte(b.String()))
	return hex.EncodeToString(h.Sum(nil))
}

func writeNode(b *strings.Builder, n *yaml.Node) {
	if n == nil {
		b.WriteString("null")
		return
	}
	switch n.Kind {
	case yaml.DocumentNode:
		for _, c := range n.Content {
			writeNode(b, c)
		}
	case yaml.MappingNode:
		b.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				b.WriteByte(',')
			}
			writeNode(b, n.Content[i])
			b.WriteByte(':')
			writeNode(b, n.Content[i+1])
		}
		b.WriteByte('}')
	case yaml.SequenceNode:
		b.WriteByte('[')
		for i, c := range n.Content {
			if i > 0 {
				b.WriteByte(',')
			}
			writeNode(b, c)
		}
		b.WriteByte(']')
	case yaml.AliasNode:
		writeNode(b, n.Alias)
	case yaml.ScalarNode:
		b.WriteString(strconv.Quote(n.Value))
	default:
		b.WriteString("null")
	}
}
