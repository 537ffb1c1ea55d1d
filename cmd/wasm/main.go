//go:build js && wasm

package main

import (
	"encoding/json"
	"path"
	"strings"
	"syscall/js"

	"reforma/internal/adapter/chunker"
	"reforma/internal/adapter/frontmatter"
	"reforma/internal/domain"
	"reforma/internal/usecase"
)

var chk *chunker.MarkdownChunker

func init() {
	var err error
	chk, err = chunker.NewMarkdownChunker(domain.DefaultChunkOptions())
	if err != nil {
		panic(err)
	}
}

func main() {
	c := make(chan struct{})

	js.Global().Set("reformaSimulate", js.FuncOf(simulate))
	js.Global().Set("reformaMistakes", js.FuncOf(mistakes))
	js.Global().Set("reformaSteps", js.FuncOf(steps))
	js.Global().Set("reformaChunk", js.FuncOf(chunk))

	<-c
}

// simulate takes a profile as JSON and returns the result and its teaser.
func simulate(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: reformaSimulate(profileJSON)")
	}
	var profile domain.Profile
	if err := json.Unmarshal([]byte(args[0].String()), &profile); err != nil {
		return makeError("invalid profile: " + err.Error())
	}

	in := profile.ToInput()
	result := usecase.Calculate(in)
	return makeResult(map[string]interface{}{
		"input":  in,
		"result": result,
		"teaser": usecase.GenerateTeaser(result, in),
	})
}

func mistakes(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: reformaMistakes(profileJSON, [maxItems])")
	}
	var profile domain.Profile
	if err := json.Unmarshal([]byte(args[0].String()), &profile); err != nil {
		return makeError("invalid profile: " + err.Error())
	}
	maxItems := usecase.DefaultMaxMistakes
	if len(args) > 1 {
		maxItems = args[1].Int()
	}

	in := profile.ToInput()
	found := usecase.GetCommonMistakes(in, usecase.Calculate(in), maxItems)
	if found == nil {
		found = []usecase.CommonMistake{}
	}
	return makeResult(map[string]interface{}{
		"mistakes": found,
		"prompt":   usecase.FormatMistakesForPrompt(found),
	})
}

func steps(this js.Value, args []js.Value) interface{} {
	answers := usecase.Answers{}
	if len(args) > 0 && args[0].String() != "" {
		if err := json.Unmarshal([]byte(args[0].String()), &answers); err != nil {
			return makeError("invalid answers: " + err.Error())
		}
	}
	current := 0
	if len(args) > 1 {
		current = args[1].Int()
	}

	active := usecase.GetActiveSteps(answers)
	insights := usecase.GetInsights(active, answers)
	if insights == nil {
		insights = []usecase.Insight{}
	}
	return makeResult(map[string]interface{}{
		"steps":    active,
		"progress": usecase.GetStepProgress(active, current),
		"insights": insights,
		"profile":  usecase.ProfileFromAnswers(answers),
	})
}

// chunk previews how a document would be split, so editors can check a
// draft before committing it to the knowledge base.
func chunk(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeError("usage: reformaChunk(relPath, markdown)")
	}
	relPath := path.Clean(args[0].String())
	category := ""
	if dir, _, ok := strings.Cut(relPath, "/"); ok {
		category = dir
	}

	doc, err := frontmatter.ParseDocument(relPath, relPath, category, []byte(args[1].String()))
	if err != nil {
		return makeError("frontmatter: " + err.Error())
	}
	chunks, err := chk.Chunk(doc)
	if err != nil {
		return makeError("chunking failed: " + err.Error())
	}

	output := make([]map[string]interface{}, 0, len(chunks))
	for _, c := range chunks {
		output = append(output, map[string]interface{}{
			"index":         c.ChunkIndex,
			"sectionTitle":  c.SectionTitle,
			"tokenEstimate": c.TokenEstimate,
			"overlapChars":  c.OverlapChars,
			"content":       c.Content,
		})
	}
	return makeResult(map[string]interface{}{
		"path":   relPath,
		"chunks": output,
		"stats":  chk.Stats(doc),
	})
}

func makeError(msg string) interface{} {
	result, _ := json.Marshal(map[string]interface{}{
		"error": msg,
	})
	return string(result)
}

func makeResult(data map[string]interface{}) interface{} {
	result, _ := json.Marshal(data)
	return string(result)
}
