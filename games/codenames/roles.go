package codenames

// AssignRoles sets team and role flags on the seated players, which must be
// ordered by seat. The policy depends on the room size:
//
//	2 seats: red spymaster, red guesser
//	3 seats: red spymaster, blue spymaster, red-affiliated double agent
//	4+ seats: red spymaster, blue spymaster, red guesser, blue guesser,
//	          then alternating red/blue guessers
func AssignRoles(seated []*Player, maxPlayers int) {
	for i, p := range seated {
		p.Team = NoTeam
		p.IsSpymaster = false
		p.IsDoubleAgent = false

		switch maxPlayers {
		case 2:
			p.Team = Red
			p.IsSpymaster = i == 0
		case 3:
			switch i {
			case 0:
				p.Team, p.IsSpymaster = Red, true
			case 1:
				p.Team, p.IsSpymaster = Blue, true
			default:
				p.Team, p.IsDoubleAgent = Red, true
			}
		default:
			switch i {
			case 0:
				p.Team, p.IsSpymaster = Red, true
			case 1:
				p.Team, p.IsSpymaster = Blue, true
			default:
				if i%2 == 0 {
					p.Team = Red
				} else {
					p.Team = Blue
				}
			}
		}
	}
}

// clearRoles strips any game role from a player who is not taking part.
func clearRoles(p *Player) {
	p.Team = NoTeam
	p.IsSpymaster = false
	p.IsDoubleAgent = false
}

// effectiveTeam is the team a player acts for right now. A double agent
// always acts for whichever team holds the turn.
func effectiveTeam(s *Session, p *Player) Team {
	if p.IsDoubleAgent {
		return s.CurrentTeam
	}
	return p.Team
}

// hasGuesser reports whether anyone seated can guess on behalf of t.
func hasGuesser(s *Session, t Team) bool {
	for _, p := range s.Players {
		if !p.Seated() || p.IsSpymaster {
			continue
		}
		if p.Team == t || p.IsDoubleAgent {
			return true
		}
	}
	return false
}
