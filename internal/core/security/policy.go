// Package security provides role and ownership checks for state transitions.
//
// Each guarded action is described by a CEL expression evaluated against the
// principal and the document parties. Rules are compiled once at startup.
package security

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/cel-go/cel"

	"foodchain/internal/core/apperror"
	appctx "foodchain/internal/core/context"
	"foodchain/internal/core/id"
)

// Action names a guarded operation.
type Action string

const (
	ActionMaterialWrite     Action = "material.write"
	ActionAssignmentWrite   Action = "assignment.write"
	ActionProductionRecord  Action = "production.record"
	ActionSRNCreate         Action = "srn.create"
	ActionSRNEdit           Action = "srn.edit"
	ActionSRNSubmit         Action = "srn.submit"
	ActionSRNProcess        Action = "srn.process"
	ActionDispatchCreate    Action = "dispatch.create"
	ActionDispatchExecute   Action = "dispatch.execute"
	ActionDispatchCancel    Action = "dispatch.cancel"
	ActionGRNConfirm        Action = "grn.confirm"
	ActionInvoiceGenerate   Action = "invoice.generate"
	ActionReturnRaise       Action = "return.raise"
	ActionReturnReview      Action = "return.review"
	ActionReturnResolve     Action = "return.resolve"
	ActionSaleRecord        Action = "sale.record"
	ActionCommissionPay     Action = "commission.pay"
	ActionDocumentRead      Action = "document.read"
	ActionInventoryReadSelf Action = "inventory.read"
)

// Resource describes the parties of the object an action targets.
// Zero IDs are allowed for actions that are not ownership-scoped.
type Resource struct {
	RetailerID     id.ID
	ManufacturerID id.ID
}

// DefaultRules returns the built-in rule set.
func DefaultRules() map[Action]string {
	const (
		admin        = `role == "ADMIN"`
		manufacturer = `role == "MANUFACTURER"`
		retailer     = `role == "RETAILER"`
		ownRetail    = `role == "RETAILER" && user_id == retailer_id`
		ownMfg       = `role == "MANUFACTURER" && user_id == manufacturer_id`
	)
	return map[Action]string{
		ActionMaterialWrite:     admin,
		ActionAssignmentWrite:   admin,
		ActionProductionRecord:  manufacturer,
		ActionSRNCreate:         retailer,
		ActionSRNEdit:           ownRetail,
		ActionSRNSubmit:         ownRetail,
		ActionSRNProcess:        admin,
		ActionDispatchCreate:    ownMfg,
		ActionDispatchExecute:   ownMfg,
		ActionDispatchCancel:    admin + " || (" + ownMfg + ")",
		ActionGRNConfirm:        ownRetail,
		ActionInvoiceGenerate:   admin + " || (" + ownMfg + ")",
		ActionReturnRaise:       retailer,
		ActionReturnReview:      admin,
		ActionReturnResolve:     admin,
		ActionSaleRecord:        retailer,
		ActionCommissionPay:     admin,
		ActionDocumentRead:      admin + " || user_id == retailer_id || user_id == manufacturer_id",
		ActionInventoryReadSelf: admin + " || user_id == manufacturer_id || user_id == retailer_id",
	}
}

// Policy evaluates compiled CEL rules.
type Policy struct {
	programs map[Action]cel.Program
}

// NewPolicy compiles rules. Every expression must evaluate to bool.
func NewPolicy(rules map[Action]string) (*Policy, error) {
	env, err := cel.NewEnv(
		cel.Variable("role", cel.StringType),
		cel.Variable("user_id", cel.StringType),
		cel.Variable("retailer_id", cel.StringType),
		cel.Variable("manufacturer_id", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}

	actions := make([]string, 0, len(rules))
	for a := range rules {
		actions = append(actions, string(a))
	}
	sort.Strings(actions)

	programs := make(map[Action]cel.Program, len(rules))
	for _, a := range actions {
		expr := rules[Action(a)]
		ast, iss := env.Compile(expr)
		if iss != nil && iss.Err() != nil {
			return nil, fmt.Errorf("compile rule %s: %w", a, iss.Err())
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, fmt.Errorf("rule %s must be boolean, got %s", a, ast.OutputType())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("program rule %s: %w", a, err)
		}
		programs[Action(a)] = prg
	}

	return &Policy{programs: programs}, nil
}

// MustDefaultPolicy compiles DefaultRules and panics on error.
func MustDefaultPolicy() *Policy {
	p, err := NewPolicy(DefaultRules())
	if err != nil {
		panic(err)
	}
	return p
}

// Authorize checks the principal in ctx against the rule for action.
// It returns the principal so callers can stamp actor IDs.
func (p *Policy) Authorize(ctx context.Context, action Action, res Resource) (*appctx.UserContext, error) {
	user := appctx.GetUser(ctx)
	if user == nil {
		return nil, apperror.NewUnauthorized("authentication required")
	}

	prg, ok := p.programs[action]
	if !ok {
		return nil, apperror.NewForbidden("action is not permitted").WithDetail("action", string(action))
	}

	out, _, err := prg.Eval(map[string]any{
		"role":            user.Role,
		"user_id":         user.UserID.String(),
		"retailer_id":     res.RetailerID.String(),
		"manufacturer_id": res.ManufacturerID.String(),
	})
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("evaluate rule %s: %w", action, err))
	}

	allowed, ok := out.Value().(bool)
	if !ok || !allowed {
		return nil, apperror.NewForbidden("role or ownership does not permit this action").
			WithDetail("action", string(action)).
			WithDetail("role", user.Role)
	}

	return user, nil
}

// Principal returns the authenticated user or UNAUTHORIZED.
func Principal(ctx context.Context) (*appctx.UserContext, error) {
	user := appctx.GetUser(ctx)
	if user == nil {
		return nil, apperror.NewUnauthorized("authentication required")
	}
	return user, nil
}

// PartyScope returns the list filters that restrict user to documents it is
// a party to. Both are nil for admins.
func PartyScope(user *appctx.UserContext) (retailerID, manufacturerID *id.ID) {
	switch user.Role {
	case appctx.RoleRetailer:
		uid := user.UserID
		return &uid, nil
	case appctx.RoleManufacturer:
		uid := user.UserID
		return nil, &uid
	case appctx.RoleAdmin:
		return nil, nil
	default:
		// unknown roles match nothing
		nobody := id.Nil()
		return &nobody, &nobody
	}
}
