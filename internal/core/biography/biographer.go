// Package biography drafts short registry biographies with an LLM.
package biography

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agenthands/lineage/internal/config"
	"github.com/agenthands/lineage/internal/core/common"
	"github.com/agenthands/lineage/internal/core/model"
	"github.com/agenthands/lineage/internal/llm"
)

var ErrDisabled = errors.New("biography drafting is not configured")

const defaultPrompt = `Write a short, factual biography (3-5 sentences) for a family registry entry.
Use only the facts below. Do not invent dates or places.

%s

Return a JSON object: { "biography": "..." }`

// Facts is everything the registry knows that may go into a draft.
type Facts struct {
	Member   *model.Member
	Parents  []*model.Member
	Children []*model.Member
	Spouses  []model.SpouseRef
}

type Biographer struct {
	LLM     llm.LLMClient
	Prompts config.BiographyPrompts
}

func NewBiographer(client llm.LLMClient, prompts config.BiographyPrompts) *Biographer {
	return &Biographer{LLM: client, Prompts: prompts}
}

// Draft returns a biography text. The result is not saved anywhere.
func (b *Biographer) Draft(ctx context.Context, facts Facts) (string, error) {
	if b == nil || b.LLM == nil {
		return "", ErrDisabled
	}
	tmpl := b.Prompts.Draft
	if strings.TrimSpace(tmpl) == "" {
		tmpl = defaultPrompt
	}
	prompt := fmt.Sprintf(tmpl, FormatFacts(facts))

	response, err := b.LLM.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate biography: %w", err)
	}

	result, err := common.ParseJSON[model.BiographyDraft](response)
	if err == nil && strings.TrimSpace(result.Biography) != "" {
		return strings.TrimSpace(result.Biography), nil
	}
	// Some models ignore the JSON instruction; plain prose is still usable.
	if text := strings.TrimSpace(response); text != "" && !strings.HasPrefix(text, "{") {
		return text, nil
	}
	if err == nil {
		err = errors.New("empty biography")
	}
	return "", fmt.Errorf("failed to parse biography result: %w", err)
}

// FormatFacts renders facts as a bullet list. Contact details never appear.
func FormatFacts(f Facts) string {
	m := f.Member
	var sb strings.Builder
	line := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&sb, "- %s: %s\n", label, value)
		}
	}

	line("Name", m.Name)
	line("Courtesy name", m.GivenName)
	switch m.Gender {
	case model.GenderMale:
		line("Gender", "male")
	case model.GenderFemale:
		line("Gender", "female")
	}
	line("Generation", fmt.Sprintf("%d", m.Generation))
	line("Generation word", m.GenerationWord)
	line("Branch", m.BranchName)
	line("Born", m.BirthDate)
	if !m.IsAlive {
		line("Died", orUnknown(m.DeathDate))
	}
	line("Existing notes", strings.Join(strings.Fields(m.Bio), " "))
	line("Parents", names(f.Parents))
	line("Children", names(f.Children))

	spouses := make([]string, 0, len(f.Spouses))
	for _, s := range f.Spouses {
		spouses = append(spouses, s.Name)
	}
	line("Spouses", strings.Join(spouses, ", "))
	return sb.String()
}

func names(ms []*model.Member) string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Name)
	}
	return strings.Join(out, ", ")
}

func orUnknown(s string) string {
	if s == "" {
		return "date unknown"
	}
	return s
}
