package lifecycle

import (
	"context"
)

type CancelStep string

const (
	StepReason  CancelStep = "reason"
	StepOffer   CancelStep = "offer"
	StepConfirm CancelStep = "confirm"
	StepDone    CancelStep = "done"
)

type CancelAction string

const (
	ActionSubmitReason CancelAction = "submit_reason"
	ActionAcceptOffer  CancelAction = "accept_offer"
	ActionDeclineOffer CancelAction = "decline_offer"
	ActionConfirm      CancelAction = "confirm"
	ActionAbort        CancelAction = "abort"
)

type CancelOutcome string

const (
	OutcomeRetained  CancelOutcome = "retained"
	OutcomeCancelled CancelOutcome = "cancelled"
	OutcomeAborted   CancelOutcome = "aborted"
)

// CancelFlow is the state of one cancellation conversation. The client holds
// it and sends it back with every action; nothing about it is stored.
type CancelFlow struct {
	Step    CancelStep    `json:"step"`
	Reason  string        `json:"reason,omitempty"`
	Offer   *Offer        `json:"offer,omitempty"`
	Outcome CancelOutcome `json:"outcome,omitempty"`
}

func NewCancelFlow() CancelFlow {
	return CancelFlow{Step: StepReason}
}

var cancelTransitions = map[CancelStep]map[CancelAction]bool{
	StepReason:  {ActionSubmitReason: true, ActionAbort: true},
	StepOffer:   {ActionAcceptOffer: true, ActionDeclineOffer: true, ActionAbort: true},
	StepConfirm: {ActionConfirm: true, ActionAbort: true},
}

// Allows reports whether action is valid at the flow's current step.
func (f CancelFlow) Allows(a CancelAction) bool {
	return cancelTransitions[f.Step][a]
}

// AdvanceCancelFlow applies action to flow and returns the next state. Only
// accepting the offer and confirming touch the account.
func (s *Service) AdvanceCancelFlow(ctx context.Context, accountID uint, flow CancelFlow, action CancelAction, reason string) (CancelFlow, error) {
	switch action {
	case ActionSubmitReason, ActionAcceptOffer, ActionDeclineOffer, ActionConfirm, ActionAbort:
	default:
		return flow, ErrUnknownCancelAction
	}
	if flow.Step == "" {
		flow.Step = StepReason
	}
	if !flow.Allows(action) {
		return flow, ErrInvalidTransition
	}

	next := flow
	switch action {
	case ActionAbort:
		next.Step, next.Offer, next.Outcome = StepDone, nil, OutcomeAborted

	case ActionSubmitReason:
		next.Reason = s.cleanText(reason)
		offer, err := s.CancelOffer(ctx, accountID)
		if err != nil {
			return flow, err
		}
		if offer.Available {
			next.Step, next.Offer = StepOffer, &offer
		} else {
			next.Step = StepConfirm
		}

	case ActionDeclineOffer:
		next.Step, next.Offer = StepConfirm, nil

	case ActionAcceptOffer:
		if _, err := s.AcceptCancelOffer(ctx, accountID); err != nil {
			return flow, err
		}
		next.Step, next.Offer, next.Outcome = StepDone, nil, OutcomeRetained

	case ActionConfirm:
		var r *string
		if next.Reason != "" {
			r = &next.Reason
		}
		if _, err := s.CancelSubscription(ctx, accountID, r); err != nil {
			return flow, err
		}
		next.Step, next.Outcome = StepDone, OutcomeCancelled
	}
	return next, nil
}
