package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ActionKind is a top-level turn action.
type ActionKind string

const (
	ActionIncome      ActionKind = "income"
	ActionForeignAid  ActionKind = "foreign_aid"
	ActionTax         ActionKind = "tax"
	ActionCoup        ActionKind = "coup"
	ActionAssassinate ActionKind = "assassinate"
	ActionSteal       ActionKind = "steal"
	ActionExchange    ActionKind = "exchange"
)

// StageName identifies the variant held by PendingAction.Stage.
type StageName string

const (
	StageReaction      StageName = "reaction"
	StageBlockReaction StageName = "block_reaction"
	StageRevealClaim   StageName = "reveal_claim"
	StageCardSelection StageName = "card_selection"
)

// Continuation says how resolution proceeds once a reveal or discard completes.
type Continuation string

const (
	ContinueNone            Continuation = ""
	ContinueChallengeFailed Continuation = "challenge_failed"
	ContinueBlockFailed     Continuation = "block_failed"
	ContinueBlockerProved   Continuation = "blocker_proved"
)

// Stage is one of ReactionStage, BlockReactionStage, RevealClaimStage
// or CardSelectionStage.
type Stage interface {
	Name() StageName
	// Awaiting is the only player allowed to act, or "" when any eligible player may.
	Awaiting() string
}

// ReactionStage: other players may challenge, block or pass.
type ReactionStage struct{}

// BlockReactionStage: a block was claimed and may be challenged or accepted.
type BlockReactionStage struct {
	BlockerID string
	BlockCard Card
}

// RevealClaimStage: a challenged claimant must show RequiredCard.
// NextLoser then discards, and Then decides what follows.
type RevealClaimStage struct {
	AwaitingFrom string
	RequiredCard Card
	NextLoser    string
	Then         Continuation
}

// CardSelectionStage: AwaitingFrom picks a hand index. With Swap set the pick is
// the card to exchange with the deck, otherwise it is discarded.
type CardSelectionStage struct {
	AwaitingFrom string
	Then         Continuation
	Swap         bool
}

func (ReactionStage) Name() StageName      { return StageReaction }
func (BlockReactionStage) Name() StageName { return StageBlockReaction }
func (RevealClaimStage) Name() StageName   { return StageRevealClaim }
func (CardSelectionStage) Name() StageName { return StageCardSelection }

func (ReactionStage) Awaiting() string        { return "" }
func (BlockReactionStage) Awaiting() string   { return "" }
func (s RevealClaimStage) Awaiting() string   { return s.AwaitingFrom }
func (s CardSelectionStage) Awaiting() string { return s.AwaitingFrom }

// PendingAction is the in-flight action of a session awaiting reactions.
type PendingAction struct {
	ActorID   string
	Kind      ActionKind
	TargetID  string
	CreatedAt time.Time
	Stage     Stage
}

// Clone copies the action; stages are value types.
func (p *PendingAction) Clone() *PendingAction {
	cp := *p
	return &cp
}

// Involves reports whether id plays a named part in the action.
func (p *PendingAction) Involves(id string) bool {
	if p.ActorID == id || p.TargetID == id {
		return true
	}
	switch st := p.Stage.(type) {
	case BlockReactionStage:
		return st.BlockerID == id
	case RevealClaimStage:
		return st.AwaitingFrom == id || st.NextLoser == id
	case CardSelectionStage:
		return st.AwaitingFrom == id
	}
	return false
}

// Remaining is the time left in the reaction window at now.
func (p *PendingAction) Remaining(now time.Time, window time.Duration) time.Duration {
	left := window - now.Sub(p.CreatedAt)
	if left < 0 {
		return 0
	}
	return left
}

type pendingJSON struct {
	ActorID      string       `json:"actor_id"`
	Kind         ActionKind   `json:"action"`
	TargetID     string       `json:"target_id,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	Stage        StageName    `json:"stage"`
	AwaitingFrom string       `json:"awaiting_from,omitempty"`
	BlockerID    string       `json:"blocker_id,omitempty"`
	BlockCard    Card         `json:"block_card,omitempty"`
	RequiredCard Card         `json:"required_card,omitempty"`
	NextLoser    string       `json:"next_loser,omitempty"`
	Then         Continuation `json:"continuation,omitempty"`
	Swap         bool         `json:"swap,omitempty"`
}

func (p PendingAction) MarshalJSON() ([]byte, error) {
	out := pendingJSON{
		ActorID:   p.ActorID,
		Kind:      p.Kind,
		TargetID:  p.TargetID,
		CreatedAt: p.CreatedAt,
	}
	switch st := p.Stage.(type) {
	case ReactionStage:
		out.Stage = StageReaction
	case BlockReactionStage:
		out.Stage = StageBlockReaction
		out.BlockerID, out.BlockCard = st.BlockerID, st.BlockCard
	case RevealClaimStage:
		out.Stage = StageRevealClaim
		out.AwaitingFrom, out.RequiredCard, out.NextLoser, out.Then = st.AwaitingFrom, st.RequiredCard, st.NextLoser, st.Then
	case CardSelectionStage:
		out.Stage = StageCardSelection
		out.AwaitingFrom, out.Then, out.Swap = st.AwaitingFrom, st.Then, st.Swap
	default:
		return nil, fmt.Errorf("pending action: unknown stage %T", p.Stage)
	}
	return json.Marshal(out)
}

func (p *PendingAction) UnmarshalJSON(data []byte) error {
	var in pendingJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	p.ActorID, p.Kind, p.TargetID, p.CreatedAt = in.ActorID, in.Kind, in.TargetID, in.CreatedAt
	switch in.Stage {
	case StageReaction:
		p.Stage = ReactionStage{}
	case StageBlockReaction:
		p.Stage = BlockReactionStage{BlockerID: in.BlockerID, BlockCard: in.BlockCard}
	case StageRevealClaim:
		p.Stage = RevealClaimStage{AwaitingFrom: in.AwaitingFrom, RequiredCard: in.RequiredCard, NextLoser: in.NextLoser, Then: in.Then}
	case StageCardSelection:
		p.Stage = CardSelectionStage{AwaitingFrom: in.AwaitingFrom, Then: in.Then, Swap: in.Swap}
	default:
		return fmt.Errorf("pending action: unknown stage %q", in.Stage)
	}
	return nil
}
