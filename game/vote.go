package game

// Tally returns every player whose TimesVotedFor equals the maximum across
// players, preserving their original order. Ties are returned whole; the
// caller decides what a multi-way tie means. Pure, no side effects.
func Tally(players []*Player) []*Player {
	if len(players) == 0 {
		return nil
	}

	max := players[0].TimesVotedFor
	for _, p := range players[1:] {
		if p.TimesVotedFor > max {
			max = p.TimesVotedFor
		}
	}

	leaders := make([]*Player, 0, 1)
	for _, p := range players {
		if p.TimesVotedFor == max {
			leaders = append(leaders, p)
		}
	}
	return leaders
}
