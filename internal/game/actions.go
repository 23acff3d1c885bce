package game

import "github.com/aaronzipp/coup-online/internal/models"

// ActionRule describes cost, claim and reaction options of a top-level action.
type ActionRule struct {
	Kind          models.ActionKind
	Cost          int
	Claim         models.Card // "" when no role is claimed
	Blockers      []models.Card
	Challengeable bool
	NeedsTarget   bool
	// TargetBlocksOnly restricts blocking to the target; otherwise anyone but the actor may block.
	TargetBlocksOnly bool
}

var actionRules = map[models.ActionKind]ActionRule{
	models.ActionIncome:     {Kind: models.ActionIncome},
	models.ActionForeignAid: {Kind: models.ActionForeignAid, Blockers: []models.Card{models.Duke}},
	models.ActionTax:        {Kind: models.ActionTax, Claim: models.Duke, Challengeable: true},
	models.ActionCoup:       {Kind: models.ActionCoup, Cost: 7, NeedsTarget: true},
	models.ActionAssassinate: {
		Kind: models.ActionAssassinate, Cost: 3, Claim: models.Assassin,
		Blockers: []models.Card{models.Contessa}, Challengeable: true, NeedsTarget: true, TargetBlocksOnly: true,
	},
	models.ActionSteal: {
		Kind: models.ActionSteal, Claim: models.Captain,
		Blockers: []models.Card{models.Captain, models.Ambassador}, Challengeable: true, NeedsTarget: true, TargetBlocksOnly: true,
	},
	models.ActionExchange: {Kind: models.ActionExchange, Claim: models.Ambassador, Challengeable: true},
}

// RuleFor returns the rule for kind.
func RuleFor(kind models.ActionKind) (ActionRule, bool) {
	r, ok := actionRules[kind]
	return r, ok
}

// Blockable reports whether any role can block the action.
func (r ActionRule) Blockable() bool {
	return len(r.Blockers) > 0
}

// CanBlockWith reports whether claiming c blocks the action.
func (r ActionRule) CanBlockWith(c models.Card) bool {
	for _, b := range r.Blockers {
		if b == c {
			return true
		}
	}
	return false
}
