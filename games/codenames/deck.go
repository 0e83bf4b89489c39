package codenames

// BuildDeck draws GridSize distinct words from src and returns a shuffled
// deck together with the team that owns the nine-card majority. Every call
// produces an independent deck and first-mover choice.
func BuildDeck(src WordSource, rng Source) ([]Card, Team, error) {
	words := dedupeWords(src.Words())
	if len(words) < GridSize {
		return nil, NoTeam, ErrNotEnoughWords
	}

	// partial Fisher-Yates so large lists are not copied and fully shuffled
	picked := make([]string, len(words))
	copy(picked, words)
	for i := 0; i < GridSize; i++ {
		j := i + rng.IntN(len(picked)-i)
		picked[i], picked[j] = picked[j], picked[i]
	}
	picked = picked[:GridSize]

	first := Red
	if rng.IntN(2) == 1 {
		first = Blue
	}

	colors := make([]Color, 0, GridSize)
	for range FirstTeamCards {
		colors = append(colors, colorOf(first))
	}
	for range SecondTeamCards {
		colors = append(colors, colorOf(first.Other()))
	}
	for range NeutralCards {
		colors = append(colors, ColorNeutral)
	}
	for range AssassinCards {
		colors = append(colors, ColorAssassin)
	}
	rng.Shuffle(len(colors), func(i, j int) {
		colors[i], colors[j] = colors[j], colors[i]
	})

	cards := make([]Card, GridSize)
	for i := range cards {
		cards[i] = Card{
			Index: i,
			Word:  picked[i],
			Color: colors[i],
		}
	}

	return cards, first, nil
}

// countColor returns how many cards in the deck have color c.
func countColor(cards []Card, c Color) int {
	n := 0
	for _, card := range cards {
		if card.Color == c {
			n++
		}
	}
	return n
}
