package referee

// candidate is a destination a piece may reach by its movement pattern,
// before the own-king test.
type candidate struct {
	to        Square
	kind      MoveKind
	captured  *Square
	rook      *RookMove
	promoteTo PieceType
}

func (g *grid) candidates(p *Piece, last *Move) []candidate {
	switch p.Type {
	case Pawn:
		return g.pawnCandidates(p, last)
	case Knight:
		return g.stepCandidates(p, knightDirs)
	case Bishop:
		return g.slideCandidates(p, bishopDirs)
	case Rook:
		return g.slideCandidates(p, rookDirs)
	case Queen:
		return g.slideCandidates(p, queenDirs)
	case King:
		return append(g.stepCandidates(p, queenDirs), g.castleCandidates(p)...)
	default:
		return nil
	}
}

// landing builds the candidate for p arriving on to, or false if to holds a
// piece of p's own team.
func (g *grid) landing(p *Piece, to Square) (candidate, bool) {
	target := g.at(to)
	if target == nil {
		return candidate{to: to, kind: KindNormal}, true
	}
	if target.Team == p.Team {
		return candidate{}, false
	}
	captured := to
	return candidate{to: to, kind: KindCapture, captured: &captured}, true
}

func (g *grid) pawnCandidates(p *Piece, last *Move) []candidate {
	var out []candidate
	forward := p.Team.forward()
	promote := func(c candidate) candidate {
		if c.to.Rank == p.Team.promotionRank() {
			c.kind = KindPromotion
		}
		return c
	}

	one := p.Square.offset(direction{0, forward})
	if one.Valid() && g.at(one) == nil {
		out = append(out, promote(candidate{to: one, kind: KindNormal}))
		two := one.offset(direction{0, forward})
		if p.Square.Rank == p.Team.pawnRank() && g.at(two) == nil {
			out = append(out, candidate{to: two, kind: KindNormal})
		}
	}

	epTarget, hasEP := g.enPassantTarget(last, p.Team)
	for _, df := range []int{-1, 1} {
		to := p.Square.offset(direction{df, forward})
		if !to.Valid() {
			continue
		}
		if target := g.at(to); target != nil {
			if target.Team != p.Team {
				captured := to
				out = append(out, promote(candidate{to: to, kind: KindCapture, captured: &captured}))
			}
			continue
		}
		if hasEP && to == epTarget {
			victim := last.To
			out = append(out, candidate{to: to, kind: KindEnPassant, captured: &victim})
		}
	}
	return out
}

func (g *grid) stepCandidates(p *Piece, dirs []direction) []candidate {
	var out []candidate
	for _, dir := range dirs {
		to := p.Square.offset(dir)
		if !to.Valid() {
			continue
		}
		if c, ok := g.landing(p, to); ok {
			out = append(out, c)
		}
	}
	return out
}

func (g *grid) slideCandidates(p *Piece, dirs []direction) []candidate {
	var out []candidate
	for _, dir := range dirs {
		to := p.Square.offset(dir)
		for to.Valid() {
			c, ok := g.landing(p, to)
			if !ok {
				break
			}
			out = append(out, c)
			if c.kind == KindCapture {
				break
			}
			to = to.offset(dir)
		}
	}
	return out
}

var castleSides = []struct {
	rookFile, kingTo, rookTo int
}{
	{rookFile: 7, kingTo: 6, rookTo: 5},
	{rookFile: 0, kingTo: 2, rookTo: 3},
}

// castleCandidates requires an unmoved king and rook, empty squares between
// them, a king not in check and no attacked square on the king's path.
func (g *grid) castleCandidates(p *Piece) []candidate {
	home := p.Team.homeRank()
	if p.HasMoved || p.Square != (Square{File: 4, Rank: home}) || g.inCheck(p.Team) {
		return nil
	}
	var out []candidate
	for _, side := range castleSides {
		if !g.castleRookReady(p.Team, side.rookFile) {
			continue
		}
		if !g.rankClear(home, 4, side.rookFile) || !g.pathSafe(p.Team, home, 4, side.kingTo) {
			continue
		}
		out = append(out, candidate{
			to:   Square{File: side.kingTo, Rank: home},
			kind: KindCastle,
			rook: &RookMove{
				From: Square{File: side.rookFile, Rank: home},
				To:   Square{File: side.rookTo, Rank: home},
			},
		})
	}
	return out
}

// rankClear reports whether every square strictly between files a and b on
// rank is empty.
func (g *grid) rankClear(rank, a, b int) bool {
	lo, hi := min(a, b), max(a, b)
	for file := lo + 1; file < hi; file++ {
		if g[rank][file] != nil {
			return false
		}
	}
	return true
}

func (g *grid) pathSafe(team Team, rank, from, to int) bool {
	step := 1
	if to < from {
		step = -1
	}
	for file := from + step; ; file += step {
		if g.attacked(team.Opponent(), Square{File: file, Rank: rank}) {
			return false
		}
		if file == to {
			return true
		}
	}
}
