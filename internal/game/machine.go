package game

import (
	"fmt"
	"time"

	"github.com/aaronzipp/coup-online/internal/apperr"
	"github.com/aaronzipp/coup-online/internal/models"
)

// ReactionKind is a message answering a pending action.
type ReactionKind string

const (
	ReactChallenge  ReactionKind = "challenge"
	ReactBlock      ReactionKind = "block"
	ReactPass       ReactionKind = "pass"
	ReactSelectCard ReactionKind = "select_card"
)

// Reaction is one reaction message. BlockCard is read for blocks,
// CardIndex for card selections.
type Reaction struct {
	Kind      ReactionKind
	BlockCard models.Card
	CardIndex int
}

// Machine drives a session through submitted actions and reactions.
// It mutates the session it is given; callers that need all-or-nothing
// semantics hand it a clone.
type Machine struct {
	now    func() time.Time
	window time.Duration
}

// NewMachine builds a machine with the given clock and reaction window.
func NewMachine(now func() time.Time, window time.Duration) *Machine {
	if now == nil {
		now = time.Now
	}
	if window <= 0 {
		window = ReactionWindow
	}
	return &Machine{now: now, window: window}
}

// Window is the reaction window applied to every stage.
func (m *Machine) Window() time.Duration {
	return m.window
}

// Submit validates and starts a top-level action for actorID.
func (m *Machine) Submit(s *models.Session, actorID string, kind models.ActionKind, targetID string) (string, error) {
	if s.GameOver {
		return "", apperr.New(apperr.InvalidAction, "the game is over")
	}
	actor := s.Player(actorID)
	if actor == nil {
		return "", apperr.Newf(apperr.NotFound, "player %s is not seated", actorID)
	}
	if cur := CurrentPlayer(s); cur == nil || cur.ID != actorID {
		return "", apperr.ErrOutOfTurn
	}
	if s.Pending != nil {
		return "", apperr.New(apperr.InvalidAction, "another action is still being resolved")
	}
	rule, ok := RuleFor(kind)
	if !ok {
		return "", apperr.Newf(apperr.InvalidAction, "unknown action %q", kind)
	}

	var target *models.Player
	if rule.NeedsTarget {
		if targetID == "" {
			return "", apperr.Newf(apperr.InvalidAction, "%s needs a target", kind)
		}
		if targetID == actorID {
			return "", apperr.New(apperr.InvalidAction, "you cannot target yourself")
		}
		target = s.Player(targetID)
		if target == nil {
			return "", apperr.Newf(apperr.NotFound, "target %s is not seated", targetID)
		}
		if !target.Alive() {
			return "", apperr.Newf(apperr.InvalidAction, "%s is already out of the game", target.Name)
		}
	} else {
		targetID = ""
	}
	if actor.Coins < rule.Cost {
		return "", apperr.Newf(apperr.InvalidAction, "%s costs %d coins, you have %d", kind, rule.Cost, actor.Coins)
	}

	switch kind {
	case models.ActionIncome:
		actor.Coins++
		AdvanceTurn(s)
		return fmt.Sprintf("%s takes Income (+1 coin).", actor.Name), nil
	case models.ActionCoup:
		actor.Coins -= rule.Cost
		s.Pending = &models.PendingAction{ActorID: actorID, Kind: kind, TargetID: targetID}
		m.open(s, models.CardSelectionStage{AwaitingFrom: targetID})
		return fmt.Sprintf("%s launches a Coup against %s. %s must lose a card.", actor.Name, target.Name, target.Name), nil
	}

	actor.Coins -= rule.Cost
	s.Pending = &models.PendingAction{ActorID: actorID, Kind: kind, TargetID: targetID}
	m.open(s, models.ReactionStage{})
	return announce(actor, target, rule), nil
}

func announce(actor, target *models.Player, rule ActionRule) string {
	msg := fmt.Sprintf("%s attempts %s", actor.Name, rule.Kind)
	if target != nil {
		msg += " on " + target.Name
	}
	if rule.Claim != "" {
		msg += fmt.Sprintf(" claiming %s", rule.Claim)
	}
	return msg + "."
}

// React applies one reaction to the session's pending action.
//
// An expired pending action is cleared and WindowExpired returned; that
// clearing is the one mutation that happens alongside an error.
func (m *Machine) React(s *models.Session, responderID string, r Reaction) (string, error) {
	p := s.Pending
	if p == nil {
		return "", apperr.ErrNoPendingAction
	}
	responder := s.Player(responderID)
	if responder == nil {
		return "", apperr.Newf(apperr.NotFound, "player %s is not seated", responderID)
	}
	if m.now().Sub(p.CreatedAt) > m.window {
		s.Pending = nil
		return "", apperr.New(apperr.WindowExpired, "the reaction window has closed")
	}

	switch st := p.Stage.(type) {
	case models.ReactionStage:
		return m.onReaction(s, responder, r)
	case models.BlockReactionStage:
		return m.onBlockReaction(s, st, responder, r)
	case models.RevealClaimStage:
		return m.onRevealClaim(s, st, responder, r)
	case models.CardSelectionStage:
		return m.onCardSelection(s, st, responder, r)
	}
	return "", apperr.Newf(apperr.Internal, "unknown stage %T", p.Stage)
}

func (m *Machine) onReaction(s *models.Session, responder *models.Player, r Reaction) (string, error) {
	p := s.Pending
	rule, _ := RuleFor(p.Kind)
	actor := s.Player(p.ActorID)

	switch r.Kind {
	case ReactChallenge:
		if !rule.Challengeable {
			return "", apperr.Newf(apperr.InvalidAction, "%s cannot be challenged", p.Kind)
		}
		if err := eligible(responder, p.ActorID); err != nil {
			return "", err
		}
		if actor.HasCard(rule.Claim) {
			m.open(s, models.RevealClaimStage{
				AwaitingFrom: actor.ID,
				RequiredCard: rule.Claim,
				NextLoser:    responder.ID,
				Then:         models.ContinueChallengeFailed,
			})
			return fmt.Sprintf("%s challenges %s, who must reveal %s.", responder.Name, actor.Name, rule.Claim), nil
		}
		m.open(s, models.CardSelectionStage{AwaitingFrom: actor.ID})
		return fmt.Sprintf("%s challenges %s successfully. %s does not hold %s and must lose a card.",
			responder.Name, actor.Name, actor.Name, rule.Claim), nil

	case ReactBlock:
		if !rule.Blockable() {
			return "", apperr.Newf(apperr.InvalidAction, "%s cannot be blocked", p.Kind)
		}
		if !rule.CanBlockWith(r.BlockCard) {
			return "", apperr.Newf(apperr.InvalidAction, "%q does not block %s", r.BlockCard, p.Kind)
		}
		if err := eligible(responder, p.ActorID); err != nil {
			return "", err
		}
		if rule.TargetBlocksOnly && responder.ID != p.TargetID {
			return "", apperr.Newf(apperr.WrongResponder, "only the target may block %s", p.Kind)
		}
		m.open(s, models.BlockReactionStage{BlockerID: responder.ID, BlockCard: r.BlockCard})
		return fmt.Sprintf("%s blocks %s's %s with %s.", responder.Name, actor.Name, p.Kind, r.BlockCard), nil

	case ReactPass:
		if err := eligible(responder, p.ActorID); err != nil {
			return "", err
		}
		switch p.Kind {
		case models.ActionAssassinate:
			target := s.Player(p.TargetID)
			if target == nil || !target.Alive() {
				m.finish(s)
				return fmt.Sprintf("%s's assassination has no one left to hit.", actor.Name), nil
			}
			m.open(s, models.CardSelectionStage{AwaitingFrom: target.ID})
			return fmt.Sprintf("The assassination proceeds. %s must lose a card.", target.Name), nil
		case models.ActionExchange:
			m.open(s, models.CardSelectionStage{AwaitingFrom: actor.ID, Swap: true})
			return fmt.Sprintf("No one objects. %s chooses a card to exchange.", actor.Name), nil
		}
		msg := ApplyEffect(s, p.Kind, p.ActorID, p.TargetID)
		m.finish(s)
		return msg, nil
	}
	return "", apperr.Newf(apperr.InvalidAction, "%s is not allowed while waiting for reactions", r.Kind)
}

func (m *Machine) onBlockReaction(s *models.Session, st models.BlockReactionStage, responder *models.Player, r Reaction) (string, error) {
	p := s.Pending
	blocker := s.Player(st.BlockerID)

	switch r.Kind {
	case ReactPass:
		if err := eligible(responder, st.BlockerID); err != nil {
			return "", err
		}
		m.finish(s)
		return fmt.Sprintf("%s's block stands. The %s is cancelled.", blocker.Name, p.Kind), nil

	case ReactChallenge:
		if err := eligible(responder, st.BlockerID); err != nil {
			return "", err
		}
		if blocker.HasCard(st.BlockCard) {
			m.open(s, models.RevealClaimStage{
				AwaitingFrom: blocker.ID,
				RequiredCard: st.BlockCard,
				NextLoser:    responder.ID,
				Then:         models.ContinueBlockerProved,
			})
			return fmt.Sprintf("%s challenges the block; %s must reveal %s.", responder.Name, blocker.Name, st.BlockCard), nil
		}
		m.open(s, models.CardSelectionStage{AwaitingFrom: blocker.ID, Then: models.ContinueBlockFailed})
		return fmt.Sprintf("%s exposes %s's block. %s must lose a card and the %s goes ahead.",
			responder.Name, blocker.Name, blocker.Name, p.Kind), nil
	}
	return "", apperr.Newf(apperr.InvalidAction, "%s is not allowed against a block", r.Kind)
}

func (m *Machine) onRevealClaim(s *models.Session, st models.RevealClaimStage, responder *models.Player, r Reaction) (string, error) {
	if r.Kind != ReactSelectCard {
		return "", apperr.Newf(apperr.InvalidAction, "waiting for a %s to be revealed", st.RequiredCard)
	}
	if responder.ID != st.AwaitingFrom {
		return "", apperr.ErrWrongResponder
	}
	if err := selectable(responder, r.CardIndex); err != nil {
		return "", err
	}
	if responder.Hand[r.CardIndex] != st.RequiredCard {
		return "", apperr.Newf(apperr.InvalidCardSelection, "you must reveal %s", st.RequiredCard)
	}
	if s.Deck.Len() == 0 {
		return "", apperr.New(apperr.DeckEmpty, "no card left to replace the revealed one")
	}

	s.Trash = append(s.Trash, responder.Hand[r.CardIndex])
	replacement, err := s.Deck.Draw()
	if err != nil {
		return "", err
	}
	responder.Hand[r.CardIndex] = replacement
	responder.Revealed[r.CardIndex] = false

	loser := s.Player(st.NextLoser)
	msg := fmt.Sprintf("%s reveals %s and draws a replacement.", responder.Name, st.RequiredCard)
	if loser == nil || !loser.Alive() {
		return join(msg, m.continueAfterDiscard(s, st.Then)), nil
	}
	m.open(s, models.CardSelectionStage{AwaitingFrom: loser.ID, Then: st.Then})
	return msg + fmt.Sprintf(" %s must lose a card.", loser.Name), nil
}

func (m *Machine) onCardSelection(s *models.Session, st models.CardSelectionStage, responder *models.Player, r Reaction) (string, error) {
	if r.Kind != ReactSelectCard {
		return "", apperr.New(apperr.InvalidAction, "waiting for a card to be selected")
	}
	if responder.ID != st.AwaitingFrom {
		return "", apperr.ErrWrongResponder
	}

	if st.Swap {
		msg, err := ExecuteExchange(s, responder, r.CardIndex)
		if err != nil {
			return "", err
		}
		m.finish(s)
		return msg, nil
	}

	if err := selectable(responder, r.CardIndex); err != nil {
		return "", err
	}
	lost := responder.Discard(r.CardIndex)
	s.Trash = append(s.Trash, lost)
	msg := fmt.Sprintf("%s loses %s.", responder.Name, lost)
	if !responder.Alive() {
		msg += fmt.Sprintf(" %s is out of the game.", responder.Name)
	}
	if CheckGameOver(s) {
		s.Pending = nil
		return msg, nil
	}
	return join(msg, m.continueAfterDiscard(s, st.Then)), nil
}

// continueAfterDiscard resolves what follows a completed discard.
func (m *Machine) continueAfterDiscard(s *models.Session, then models.Continuation) string {
	p := s.Pending
	actor := s.Player(p.ActorID)

	switch then {
	case models.ContinueChallengeFailed, models.ContinueBlockFailed:
		switch p.Kind {
		case models.ActionExchange:
			m.open(s, models.CardSelectionStage{AwaitingFrom: actor.ID, Swap: true})
			return fmt.Sprintf("%s now chooses a card to exchange.", actor.Name)
		}
		msg := ApplyEffect(s, p.Kind, p.ActorID, p.TargetID)
		m.finish(s)
		return msg
	case models.ContinueBlockerProved:
		m.finish(s)
		return fmt.Sprintf("The block stands. %s's %s is cancelled.", actor.Name, p.Kind)
	}
	m.finish(s)
	return ""
}

// open moves the pending action into stage and restarts its window.
func (m *Machine) open(s *models.Session, stage models.Stage) {
	s.Pending.Stage = stage
	s.Pending.CreatedAt = m.now()
}

// finish clears the pending action and passes the turn.
func (m *Machine) finish(s *models.Session) {
	s.Pending = nil
	AdvanceTurn(s)
}

// eligible checks that p may contest an action owned by excluded.
func eligible(p *models.Player, excluded string) error {
	if !p.Alive() || p.ID == excluded {
		return apperr.ErrWrongResponder
	}
	return nil
}

func selectable(p *models.Player, index int) error {
	if index < 0 || index >= len(p.Hand) {
		return apperr.Newf(apperr.InvalidCardSelection, "card index %d is out of range", index)
	}
	if p.Revealed[index] {
		return apperr.Newf(apperr.InvalidCardSelection, "card %d is already revealed", index+1)
	}
	return nil
}

func join(msg, next string) string {
	if next == "" {
		return msg
	}
	return msg + " " + next
}
