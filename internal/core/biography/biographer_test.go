package biography

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/lineage/internal/config"
	"github.com/agenthands/lineage/internal/core/model"
)

type MockLLMClient struct {
	Response string
	Err      error
	Prompts  []string
}

func (m *MockLLMClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

func facts() Facts {
	return Facts{
		Member: &model.Member{
			ID: "m1", Name: "Chen Jian", Gender: model.GenderMale, Generation: 4,
			GenerationWord: "文", BirthDate: "1901", DeathDate: "1975", Contact: "555-0100",
		},
		Parents:  []*model.Member{{Name: "Chen Guo"}},
		Children: []*model.Member{{Name: "Chen Ming"}, {Name: "Chen Hua"}},
		Spouses:  []model.SpouseRef{{Name: "Lin Mei"}},
	}
}

func TestDraft(t *testing.T) {
	mock := &MockLLMClient{Response: `{"biography": "Chen Jian was born in 1901."}`}
	b := NewBiographer(mock, config.BiographyPrompts{Draft: "facts:\n%s"})

	text, err := b.Draft(context.Background(), facts())
	require.NoError(t, err)
	assert.Equal(t, "Chen Jian was born in 1901.", text)

	require.Len(t, mock.Prompts, 1)
	assert.Contains(t, mock.Prompts[0], "- Children: Chen Ming, Chen Hua")
	assert.Contains(t, mock.Prompts[0], "- Died: 1975")
	assert.NotContains(t, mock.Prompts[0], "555-0100")
}

func TestDraft_PlainTextReply(t *testing.T) {
	mock := &MockLLMClient{Response: "Chen Jian farmed the family land."}
	text, err := NewBiographer(mock, config.BiographyPrompts{}).Draft(context.Background(), facts())
	require.NoError(t, err)
	assert.Equal(t, "Chen Jian farmed the family land.", text)
}

func TestDraft_Errors(t *testing.T) {
	_, err := NewBiographer(nil, config.BiographyPrompts{}).Draft(context.Background(), facts())
	assert.True(t, errors.Is(err, ErrDisabled))

	failing := &MockLLMClient{Err: errors.New("quota")}
	_, err = NewBiographer(failing, config.BiographyPrompts{}).Draft(context.Background(), facts())
	assert.Error(t, err)

	broken := &MockLLMClient{Response: `{"biography": `}
	_, err = NewBiographer(broken, config.BiographyPrompts{}).Draft(context.Background(), facts())
	assert.Error(t, err)
}
