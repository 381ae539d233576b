package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColorIdentity(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{"BG", "BG", false},
		{"gb", "BG", false},
		{"R,W,U", "WUR", false},
		{"{W}{U}{B}{R}{G}", "WUBRG", false},
		{"C", "C", false},
		{"", "C", false},
		{"X", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ci, err := ParseColorIdentity(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ci.String())
		})
	}
}

func TestColorIdentitySetOperations(t *testing.T) {
	golgari := NewColorIdentity(Black, Green)
	sultai := NewColorIdentity(Blue, Black, Green)

	assert.True(t, golgari.SubsetOf(sultai))
	assert.False(t, sultai.SubsetOf(golgari))
	assert.True(t, Colorless.SubsetOf(golgari))
	assert.True(t, golgari.Intersects(sultai))
	assert.False(t, golgari.Intersects(NewColorIdentity(Red)))
	assert.Equal(t, 3, sultai.Len())
	assert.Equal(t, []Color{Blue, Black, Green}, sultai.Colors())
}

func TestColorIdentityText(t *testing.T) {
	var ci ColorIdentity
	require.NoError(t, ci.UnmarshalText([]byte("RW")))
	text, err := ci.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "WR", string(text))
}

func TestParseEnums(t *testing.T) {
	a, err := ParseArchetype(" Control ")
	require.NoError(t, err)
	assert.Equal(t, Control, a)
	_, err = ParseArchetype("tempo")
	assert.Error(t, err)

	b, err := ParseBudgetBracket("CEDH")
	require.NoError(t, err)
	assert.Equal(t, CEDH, b)
	_, err = ParseBudgetBracket("cheap")
	assert.Error(t, err)

	c, err := ParseCategory("high-synergy")
	require.NoError(t, err)
	assert.Equal(t, HighSynergy, c)
	_, err = ParseCategory("filler")
	assert.Error(t, err)
}

func TestCategoryRank(t *testing.T) {
	assert.Greater(t, Signature.Rank(), HighSynergy.Rank())
	assert.Greater(t, HighSynergy.Rank(), Staple.Rank())
	assert.Greater(t, Staple.Rank(), Basic.Rank())
	assert.True(t, Signature.AtLeast(Staple))
	assert.False(t, Basic.AtLeast(Staple))
}

func TestBracketForPrice(t *testing.T) {
	assert.Equal(t, Budget, BracketForPrice(99))
	assert.Equal(t, Mid, BracketForPrice(150))
	assert.Equal(t, High, BracketForPrice(750))
	assert.Equal(t, CEDH, BracketForPrice(2500))
	assert.Less(t, Budget.Order(), CEDH.Order())
}

func TestDeckVariantValidate(t *testing.T) {
	valid := DeckVariant{
		Key: VariantKey{Commander: "Meren of Clan Nel Toth", Archetype: Midrange, Budget: Mid},
		Cards: []CardInclusion{
			{CardName: "Sol Ring", InclusionRate: 0.9, Category: Staple},
			{CardName: "Spore Frog", InclusionRate: 0.6, SynergyScore: 0.5, Category: HighSynergy},
		},
	}
	assert.NoError(t, valid.Validate())

	dup := valid
	dup.Cards = append([]CardInclusion{}, valid.Cards...)
	dup.Cards = append(dup.Cards, CardInclusion{CardName: "sol ring", InclusionRate: 0.1, Category: Basic})
	assert.Error(t, dup.Validate())

	badRate := valid
	badRate.Cards = []CardInclusion{{CardName: "Sol Ring", InclusionRate: 1.5, Category: Staple}}
	assert.Error(t, badRate.Validate())

	badCategory := valid
	badCategory.Cards = []CardInclusion{{CardName: "Sol Ring", InclusionRate: 0.5, Category: "filler"}}
	assert.Error(t, badCategory.Validate())

	badArchetype := valid
	badArchetype.Key.Archetype = "tempo"
	assert.Error(t, badArchetype.Validate())
}

func TestCorpusLookups(t *testing.T) {
	bg := NewColorIdentity(Black, Green)
	c := New(
		[]Commander{
			{Name: "Meren of Clan Nel Toth", ColorIdentity: &bg},
			{Name: "Atraxa, Praetors' Voice"},
		},
		[]DeckVariant{
			{Key: VariantKey{Commander: "meren of clan nel toth", Archetype: Midrange, Budget: Mid}, Themes: []string{"Reanimator"}},
			{Key: VariantKey{Commander: "Meren of Clan Nel Toth", Archetype: Combo, Budget: High}, Themes: []string{"Aristocrats"}},
		},
		[]Card{{Name: "Sol Ring"}},
	)

	cmds := c.Commanders()
	require.Len(t, cmds, 2)
	assert.Equal(t, "Atraxa, Praetors' Voice", cmds[0].Name)

	meren, ok := c.Commander("MEREN OF CLAN NEL TOTH")
	require.True(t, ok)
	assert.Equal(t, "BG", meren.ColorIdentityString())

	atraxa, _ := c.Commander("Atraxa, Praetors' Voice")
	assert.Equal(t, "?", atraxa.ColorIdentityString())

	assert.Len(t, c.Variants("Meren of Clan Nel Toth"), 2)
	assert.Empty(t, c.Variants("Atraxa, Praetors' Voice"))

	_, ok = c.CardInfo("sol ring")
	assert.True(t, ok)

	assert.True(t, c.HasTheme("reanimator"))
	assert.False(t, c.HasTheme("tokens"))
	assert.Equal(t, []string{"aristocrats", "reanimator"}, c.Themes())

	stats := c.Stats()
	assert.Equal(t, 2, stats.Commanders)
	assert.Equal(t, 2, stats.Variants)
}

func TestCorpusVariantsWithoutCommanderRow(t *testing.T) {
	bg := NewColorIdentity(Black, Green)
	c := New(
		[]Commander{{Name: "Meren of Clan Nel Toth", ColorIdentity: &bg, TotalDeckCount: 500}},
		[]DeckVariant{
			{Key: VariantKey{Commander: "Meren of Clan Nel Toth", Archetype: Midrange, Budget: Mid}},
			{Key: VariantKey{Commander: "Ghost", Archetype: Aggro, Budget: Budget}},
			{Key: VariantKey{Commander: "ghost", Archetype: Combo, Budget: High}},
		},
		nil,
	)

	cmds := c.Commanders()
	require.Len(t, cmds, 2)
	assert.Equal(t, "Ghost", cmds[0].Name)
	assert.Nil(t, cmds[0].ColorIdentity)
	assert.Nil(t, cmds[0].PopularityRank)
	assert.Zero(t, cmds[0].TotalDeckCount)

	ghost, ok := c.Commander("GHOST")
	require.True(t, ok)
	assert.Equal(t, "Ghost", ghost.Name)
	assert.Len(t, c.Variants("Ghost"), 2)

	meren, _ := c.Commander("Meren of Clan Nel Toth")
	assert.Equal(t, 500, meren.TotalDeckCount)
	assert.Equal(t, 2, c.Stats().Commanders)
}

func TestPriceBook(t *testing.T) {
	p := PriceBook{}
	p.Set("Mana Crypt", 150)
	v, ok := p.UnitPrice("mana  crypt")
	require.True(t, ok)
	assert.InDelta(t, 150.0, v, 1e-9)
	_, ok = p.UnitPrice("Sol Ring")
	assert.False(t, ok)
}
