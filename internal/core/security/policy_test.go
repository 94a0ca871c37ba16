package security

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodchain/internal/core/apperror"
	appctx "foodchain/internal/core/context"
	"foodchain/internal/core/id"
)

func asUser(role string, userID id.ID) context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{UserID: userID, Role: role})
}

func TestPolicy_OwnershipRules(t *testing.T) {
	p := MustDefaultPolicy()
	retailer := id.New()
	manufacturer := id.New()
	res := Resource{RetailerID: retailer, ManufacturerID: manufacturer}

	tests := []struct {
		name    string
		ctx     context.Context
		action  Action
		allowed bool
	}{
		{"owner retailer confirms grn", asUser(appctx.RoleRetailer, retailer), ActionGRNConfirm, true},
		{"other retailer cannot confirm grn", asUser(appctx.RoleRetailer, id.New()), ActionGRNConfirm, false},
		{"manufacturer cannot confirm grn", asUser(appctx.RoleManufacturer, manufacturer), ActionGRNConfirm, false},
		{"owner manufacturer executes dispatch", asUser(appctx.RoleManufacturer, manufacturer), ActionDispatchExecute, true},
		{"admin cannot execute dispatch", asUser(appctx.RoleAdmin, id.New()), ActionDispatchExecute, false},
		{"admin cancels dispatch", asUser(appctx.RoleAdmin, id.New()), ActionDispatchCancel, true},
		{"admin processes srn", asUser(appctx.RoleAdmin, id.New()), ActionSRNProcess, true},
		{"retailer cannot process srn", asUser(appctx.RoleRetailer, retailer), ActionSRNProcess, false},
		{"party reads document", asUser(appctx.RoleManufacturer, manufacturer), ActionDocumentRead, true},
		{"stranger cannot read document", asUser(appctx.RoleManufacturer, id.New()), ActionDocumentRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Authorize(tt.ctx, tt.action, res)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperror.Is(err, apperror.CodeForbidden), "got %v", err)
		})
	}
}

func TestPolicy_NoPrincipal(t *testing.T) {
	_, err := MustDefaultPolicy().Authorize(context.Background(), ActionSRNCreate, Resource{})
	assert.True(t, apperror.Is(err, apperror.CodeUnauthorized))
}

func TestNewPolicy_RejectsNonBooleanRule(t *testing.T) {
	_, err := NewPolicy(map[Action]string{ActionSRNCreate: `role + "x"`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be boolean")
}

func TestNewPolicy_RejectsUnknownVariable(t *testing.T) {
	_, err := NewPolicy(map[Action]string{ActionSRNCreate: `tenant == "a"`})
	require.Error(t, err)
}
