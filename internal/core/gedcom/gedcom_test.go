package gedcom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/lineage/internal/core/model"
)

func sample() *model.Member {
	return &model.Member{
		ID:             "member-1",
		Name:           "张三",
		Gender:         model.GenderMale,
		Generation:     5,
		GenerationWord: "德",
		IsAlive:        true,
		BirthDate:      "1990-01-01",
		BranchName:     "长房",
	}
}

func TestExport(t *testing.T) {
	m := sample()
	m.GivenName = "字: 徳"
	m.Bio = "第一行\n第二行"
	out := Export([]*model.Member{m})

	assert.Contains(t, out, "0 HEAD\n1 SOUR LINEAGE\n1 GEDC\n2 VERS 5.5.1\n")
	assert.Contains(t, out, "1 CHAR UTF-8")
	assert.Contains(t, out, "0 @member-1@ INDI")
	assert.Contains(t, out, "1 NAME 张三 /德/")
	assert.Contains(t, out, "2 GIVN 字: 徳")
	assert.Contains(t, out, "1 SEX M")
	assert.Contains(t, out, "1 BIRT\n2 DATE 1990-01-01")
	assert.Contains(t, out, "1 NOTE 第一行 第二行")
	assert.NotContains(t, out, "DEAT")
	assert.Contains(t, out, "0 TRLR\n")
}

func TestExport_AliveMemberOmitsDeath(t *testing.T) {
	m := sample()
	m.DeathDate = "2020-01-01"
	assert.NotContains(t, Export([]*model.Member{m}), "DEAT")
}

func TestRoundTrip_Deceased(t *testing.T) {
	m := sample()
	m.IsAlive = false
	m.DeathDate = "2020-01-01"
	m.GivenName = "子明"

	got, err := Import(Export([]*model.Member{m}))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].IsAlive)
	assert.Equal(t, "2020-01-01", got[0].DeathDate)
	assert.Equal(t, "1990-01-01", got[0].BirthDate)
	assert.Equal(t, "member-1", got[0].ID)
	assert.Equal(t, "张三", got[0].Name)
	assert.Equal(t, "德", got[0].GenerationWord)
	assert.Equal(t, "子明", got[0].GivenName)
}

func TestImport_Defaults(t *testing.T) {
	got, err := Import("0 @I1@ INDI\n1 NAME Test\n0 TRLR")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.GenderMale, got[0].Gender)
	assert.Equal(t, 1, got[0].Generation)
	assert.True(t, got[0].IsAlive)
	assert.Equal(t, "Main", got[0].BranchName)
	assert.Empty(t, got[0].GenerationWord)
}

func TestImport_MultipleRecords(t *testing.T) {
	doc := "0 HEAD\r\n1 SOUR TEST\r\n0 @I1@ INDI\r\n1 NAME 王五\r\n1 SEX M\r\n" +
		"0 @I2@ INDI\r\n1 NAME 王六 /文/\r\n1 SEX F\r\n1 BIRT\r\n2 DATE 12 JAN 1901\r\n0 TRLR\r\n"
	got, err := Import(doc)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "王五", got[0].Name)
	assert.Equal(t, model.GenderFemale, got[1].Gender)
	assert.Equal(t, "文", got[1].GenerationWord)
	assert.Equal(t, "12 JAN 1901", got[1].BirthDate)
}

func TestImport_DeathWithoutBirth(t *testing.T) {
	got, err := Import("0 @I1@ INDI\n1 NAME 张三\n1 DEAT\n2 DATE 2020-01-01\n0 TRLR")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].IsAlive)
	assert.Equal(t, "2020-01-01", got[0].DeathDate)
	assert.Empty(t, got[0].BirthDate)
}

func TestImport_IgnoresFamilies(t *testing.T) {
	got, err := Import("0 HEAD\n0 @F1@ FAM\n1 HUSB @I1@\n1 WIFE @I2@\n1 CHIL @I3@\n0 TRLR")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestImport_DropsNamelessRecords(t *testing.T) {
	got, err := Import("0 @I1@ INDI\n1 SEX F\n0 TRLR")
	require.NoError(t, err)
	assert.Empty(t, got)
}
