package frontmatter

import (
	"errors"
	"testing"
)

const sample = `---
title: Alíquotas de IBS e CBS
description: Como as alíquotas de referência são definidas.
category: ibs-cbs
tags: [aliquotas, cbs]
lastVerified: 2026-03-01
status: published
---

# Introdução

Corpo do documento.
`

func TestParse(t *testing.T) {
	fm, body, hash, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	if fm.Title != "Alíquotas de IBS e CBS" || fm.Category != "ibs-cbs" {
		t.Errorf("unexpected front matter %+v", fm)
	}
	if len(fm.Tags) != 2 || fm.Tags[1] != "cbs" {
		t.Errorf("unexpected tags %v", fm.Tags)
	}
	if fm.LastVerified != "2026-03-01" {
		t.Errorf("expected date kept as text, got %q", fm.LastVerified)
	}
	if body != "# Introdução\n\nCorpo do documento.\n" {
		t.Errorf("unexpected body %q", body)
	}
	if len(hash) != 64 {
		t.Errorf("expected sha256 hex, got %q", hash)
	}
}

func TestHashStableAndSensitive(t *testing.T) {
	_, _, h1, _ := Parse([]byte(sample))
	_, _, h2, _ := Parse([]byte(sample))
	if h1 != h2 {
		t.Error("hash changed between identical parses")
	}

	crlf := []byte("---\r\ntitle: A\r\n---\r\ncorpo\r\n")
	lf := []byte("---\ntitle: A\n---\ncorpo\n")
	_, _, a, _ := Parse(crlf)
	_, _, b, _ := Parse(lf)
	if a != b {
		t.Error("line endings should not change the hash")
	}

	_, _, body, _ := Parse([]byte("---\ntitle: A\n---\noutro corpo\n"))
	if body == b {
		t.Error("body change should change the hash")
	}
	_, _, value, _ := Parse([]byte("---\ntitle: B\n---\ncorpo\n"))
	if value == b {
		t.Error("front matter change should change the hash")
	}
}

func TestHashDependsOnKeyOrder(t *testing.T) {
	_, _, a, _ := Parse([]byte("---\ntitle: A\ncategory: faq\n---\ncorpo\n"))
	_, _, b, _ := Parse([]byte("---\ncategory: faq\ntitle: A\n---\ncorpo\n"))
	if a == b {
		t.Error("reordered keys are expected to change the hash")
	}
}

func TestParseWithoutFrontMatter(t *testing.T) {
	fm, body, _, err := Parse([]byte("# Só corpo\n"))
	if err != nil {
		t.Fatal(err)
	}
	if fm.Title != "" || body != "# Só corpo\n" {
		t.Errorf("unexpected result %+v %q", fm, body)
	}
}

func TestParseErrors(t *testing.T) {
	if _, _, _, err := Parse([]byte("---\ntitle: A\ncorpo sem fim\n")); !errors.Is(err, ErrUnterminated) {
		t.Errorf("expected ErrUnterminated, got %v", err)
	}
	if _, _, _, err := Parse([]byte("---\ntitle: [a\n---\ncorpo\n")); err == nil {
		t.Error("expected YAML error")
	}
	if _, err := ParseDocument("/x/faq/a.md", "faq/a.md", "faq", []byte("---\ntags: {a: 1}\n---\n")); err == nil {
		t.Error("expected decode error for mistyped tags")
	}
}
