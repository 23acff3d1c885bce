package game

import "github.com/aaronzipp/coup-online/internal/models"

// Move is one message a bot decided to send.
type Move struct {
	PlayerID string
	Action   models.ActionKind // set for top-level actions
	TargetID string
	Reaction *Reaction // set for reactions
}

// RandomMove picks a legal move for whoever is expected to act next.
// It never challenges a claim that could not be replaced from the deck,
// so a bot game cannot stall on an empty deck.
func RandomMove(s *models.Session, rng Rand) Move {
	if s.Pending == nil {
		return randomAction(s, rng)
	}
	p := s.Pending
	rule, _ := RuleFor(p.Kind)

	switch st := p.Stage.(type) {
	case models.ReactionStage:
		responder := randomOther(s, rng, p.ActorID)
		canChallenge := rule.Challengeable && s.Deck.Len() > 0 &&
			!(p.Kind == models.ActionExchange && s.Deck.Len() < 2)
		if canChallenge && rng.IntN(100) < 25 {
			return Move{PlayerID: responder, Reaction: &Reaction{Kind: ReactChallenge}}
		}
		if rule.Blockable() && rng.IntN(100) < 25 {
			blocker := responder
			if rule.TargetBlocksOnly {
				blocker = p.TargetID
			}
			card := rule.Blockers[rng.IntN(len(rule.Blockers))]
			return Move{PlayerID: blocker, Reaction: &Reaction{Kind: ReactBlock, BlockCard: card}}
		}
		return Move{PlayerID: responder, Reaction: &Reaction{Kind: ReactPass}}

	case models.BlockReactionStage:
		responder := randomOther(s, rng, st.BlockerID)
		if s.Deck.Len() > 0 && rng.IntN(100) < 30 {
			return Move{PlayerID: responder, Reaction: &Reaction{Kind: ReactChallenge}}
		}
		return Move{PlayerID: responder, Reaction: &Reaction{Kind: ReactPass}}

	case models.RevealClaimStage:
		holder := s.Player(st.AwaitingFrom)
		idx := 0
		for i, c := range holder.Hand {
			if c == st.RequiredCard && !holder.Revealed[i] {
				idx = i
				break
			}
		}
		return Move{PlayerID: holder.ID, Reaction: &Reaction{Kind: ReactSelectCard, CardIndex: idx}}

	case models.CardSelectionStage:
		holder := s.Player(st.AwaitingFrom)
		var open []int
		for i := range holder.Hand {
			if !holder.Revealed[i] {
				open = append(open, i)
			}
		}
		idx := 0
		if len(open) > 0 {
			idx = open[rng.IntN(len(open))]
		}
		return Move{PlayerID: holder.ID, Reaction: &Reaction{Kind: ReactSelectCard, CardIndex: idx}}
	}
	return Move{}
}

func randomAction(s *models.Session, rng Rand) Move {
	actor := CurrentPlayer(s)
	target := randomOther(s, rng, actor.ID)
	if actor.Coins >= 7 {
		return Move{PlayerID: actor.ID, Action: models.ActionCoup, TargetID: target}
	}

	options := []models.ActionKind{models.ActionIncome, models.ActionForeignAid, models.ActionTax}
	if t := s.Player(target); t != nil && t.Coins > 0 {
		options = append(options, models.ActionSteal)
	}
	if s.Deck.Len() > 0 {
		options = append(options, models.ActionExchange)
	}
	if actor.Coins >= 3 {
		options = append(options, models.ActionAssassinate, models.ActionAssassinate)
	}
	kind := options[rng.IntN(len(options))]
	rule, _ := RuleFor(kind)
	if !rule.NeedsTarget {
		target = ""
	}
	return Move{PlayerID: actor.ID, Action: kind, TargetID: target}
}

// randomOther returns a random alive player other than exclude.
func randomOther(s *models.Session, rng Rand, exclude string) string {
	var ids []string
	for _, p := range s.Players {
		if p.Alive() && p.ID != exclude {
			ids = append(ids, p.ID)
		}
	}
	if len(ids) == 0 {
		return ""
	}
	return ids[rng.IntN(len(ids))]
}

// Play sends m to the machine.
func (m *Machine) Play(s *models.Session, mv Move) (string, error) {
	if mv.Reaction != nil {
		return m.React(s, mv.PlayerID, *mv.Reaction)
	}
	return m.Submit(s, mv.PlayerID, mv.Action, mv.TargetID)
}
