package v1

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodchain/internal/app/apptest"
	"foodchain/internal/core/apperror"
	appctx "foodchain/internal/core/context"
	"foodchain/internal/core/id"
	"foodchain/internal/domain/auth"
)

type apiClient struct {
	t      *testing.T
	router http.Handler
	jwt    *auth.JWTService
}

func newAPI(t *testing.T) (*apiClient, *apptest.Fixture) {
	t.Helper()
	f := apptest.New(t)
	jwt := auth.NewJWTService(auth.DefaultJWTConfig("test-secret"))
	router, err := NewRouter(RouterConfig{
		Services:     f.Services,
		Storage:      "memory",
		JWTValidator: jwt,
	})
	require.NoError(t, err)
	return &apiClient{t: t, router: router, jwt: jwt}, f
}

func (a *apiClient) token(role string, userID id.ID) string {
	tok, _, err := a.jwt.GenerateAccessToken(userID, "", role)
	require.NoError(a.t, err)
	return tok
}

// call sends body as JSON and decodes the response into a generic map.
func (a *apiClient) call(method, path, token string, body any) (int, map[string]any) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func lineID(t *testing.T, doc map[string]any) string {
	t.Helper()
	lines, ok := doc["lines"].([]any)
	require.True(t, ok, "lines missing: %v", doc)
	require.NotEmpty(t, lines)
	return lines[0].(map[string]any)["id"].(string)
}

func TestHealth_NoAuth(t *testing.T) {
	api, _ := newAPI(t)
	code, body := api.call(http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestAPI_RequiresToken(t *testing.T) {
	api, _ := newAPI(t)
	code, body := api.call(http.MethodGet, "/api/v1/materials", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, apperror.CodeUnauthorized, body["code"])
}

func TestMaterials_ValidationAndRoles(t *testing.T) {
	api, f := newAPI(t)
	admin := api.token(appctx.RoleAdmin, f.AdminID)
	retailer := api.token(appctx.RoleRetailer, f.RetailerID)

	req := map[string]any{
		"code":            "MLK-1",
		"name":            "Toned milk",
		"unitsPerPacket":  12,
		"hsnCode":         "04012000",
		"gstRate":         "5",
		"mrpPerPacket":    "60.00",
		"commissionType":  "PERCENTAGE",
		"commissionValue": "2",
	}

	code, body := api.call(http.MethodPost, "/api/v1/materials", retailer, req)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, apperror.CodeForbidden, body["code"])

	bad := map[string]any{}
	for k, v := range req {
		bad[k] = v
	}
	bad["hsnCode"] = "12AB"
	code, body = api.call(http.MethodPost, "/api/v1/materials", admin, bad)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, apperror.CodeValidation, body["code"])

	code, body = api.call(http.MethodPost, "/api/v1/materials", admin, req)
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, "MLK-1", body["code"])
	materialID := body["id"].(string)

	code, body = api.call(http.MethodPatch, "/api/v1/materials/"+materialID, admin, map[string]any{"unitsPerPacket": 24})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, apperror.CodeImmutableField, body["code"])

	code, body = api.call(http.MethodGet, "/api/v1/materials/not-a-uuid", retailer, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, apperror.CodeValidation, body["code"])

	code, body = api.call(http.MethodGet, "/api/v1/materials", retailer, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["totalCount"])
}

func TestSupplyChainFlow(t *testing.T) {
	api, f := newAPI(t)
	admin := api.token(appctx.RoleAdmin, f.AdminID)
	mfg := api.token(appctx.RoleManufacturer, f.ManufacturerID)
	retailer := api.token(appctx.RoleRetailer, f.RetailerID)

	m := f.Material(t, "GHEE-500", 10)

	code, body := api.call(http.MethodPost, "/api/v1/assignments", admin, map[string]any{
		"retailerId":     f.RetailerID,
		"manufacturerId": f.ManufacturerID,
	})
	require.Equal(t, http.StatusCreated, code, body)

	today := time.Now().UTC().Format(time.DateOnly)
	expiry := time.Now().UTC().AddDate(0, 6, 0).Format(time.DateOnly)
	code, body = api.call(http.MethodPost, "/api/v1/production", mfg, map[string]any{
		"materialCode":    "GHEE-500",
		"batchNumber":     "B-0001",
		"manufactureDate": today,
		"expiryDate":      expiry,
		"packets":         20,
	})
	require.Equal(t, http.StatusCreated, code, body)

	// Retailers cannot record production.
	code, _ = api.call(http.MethodPost, "/api/v1/production", retailer, map[string]any{
		"materialCode":    "GHEE-500",
		"batchNumber":     "B-0002",
		"manufactureDate": today,
		"expiryDate":      expiry,
		"packets":         1,
	})
	assert.Equal(t, http.StatusForbidden, code)

	code, srnDoc := api.call(http.MethodPost, "/api/v1/srns", retailer, map[string]any{
		"manufacturerId": f.ManufacturerID,
		"lines":          []map[string]any{{"materialId": m.ID, "packets": 4}},
	})
	require.Equal(t, http.StatusCreated, code, srnDoc)
	assert.Equal(t, "DRAFT", srnDoc["status"])
	srnID := srnDoc["id"].(string)

	code, srnDoc = api.call(http.MethodPost, "/api/v1/srns/"+srnID+"/submit", retailer, nil)
	require.Equal(t, http.StatusOK, code, srnDoc)
	assert.Equal(t, "SUBMITTED", srnDoc["status"])

	code, srnDoc = api.call(http.MethodPost, "/api/v1/srns/"+srnID+"/process", admin, map[string]any{
		"decision":  "APPROVE",
		"approvals": []map[string]any{{"lineId": lineID(t, srnDoc), "packets": 4}},
	})
	require.Equal(t, http.StatusOK, code, srnDoc)
	assert.Equal(t, "APPROVED", srnDoc["status"])

	code, dsp := api.call(http.MethodPost, "/api/v1/dispatches", mfg, map[string]any{"srnId": srnID})
	require.Equal(t, http.StatusCreated, code, dsp)
	dispatchID := dsp["id"].(string)

	code, dsp = api.call(http.MethodPost, "/api/v1/dispatches/"+dispatchID+"/execute", mfg, nil)
	require.Equal(t, http.StatusOK, code, dsp)

	code, grnDoc := api.call(http.MethodGet, "/api/v1/dispatches/"+dispatchID+"/grn", retailer, nil)
	require.Equal(t, http.StatusOK, code, grnDoc)
	grnID := grnDoc["id"].(string)

	code, res := api.call(http.MethodPost, "/api/v1/grns/"+grnID+"/confirm", retailer, map[string]any{
		"receipts": []map[string]any{{"lineId": lineID(t, grnDoc), "receivedPackets": 4}},
	})
	require.Equal(t, http.StatusOK, code, res)
	assert.Empty(t, res["discrepancies"])

	// Delivery follows GRN confirmation; there is no direct route for it.
	code, dsp = api.call(http.MethodGet, "/api/v1/dispatches/"+dispatchID, retailer, nil)
	require.Equal(t, http.StatusOK, code, dsp)
	assert.Equal(t, "DELIVERED", dsp["status"])
	for _, tok := range []string{admin, mfg, retailer} {
		code, body := api.call(http.MethodPost, "/api/v1/dispatches/"+dispatchID+"/deliver", tok, nil)
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, apperror.CodeNotFound, body["code"])
	}

	code, inv := api.call(http.MethodPost, "/api/v1/invoices", mfg, map[string]any{"grnId": grnID})
	require.Equal(t, http.StatusCreated, code, inv)
	assert.Equal(t, grnID, inv["grnId"])

	// One invoice per GRN.
	code, _ = api.call(http.MethodPost, "/api/v1/invoices", mfg, map[string]any{"grnId": grnID})
	assert.Equal(t, http.StatusConflict, code)

	code, avail := api.call(http.MethodGet, "/api/v1/inventory/available?materialId="+m.ID.String(), retailer, nil)
	require.Equal(t, http.StatusOK, code, avail)
	assert.Equal(t, map[string]any{"packets": float64(4), "looseUnits": float64(0)}, avail["available"])

	code, avail = api.call(http.MethodGet, "/api/v1/inventory/available?materialId="+m.ID.String(), mfg, nil)
	require.Equal(t, http.StatusOK, code, avail)
	assert.Equal(t, map[string]any{"packets": float64(16), "looseUnits": float64(0)}, avail["available"])

	code, sale := api.call(http.MethodPost, "/api/v1/sales", retailer, map[string]any{
		"materialId": m.ID,
		"looseUnits": 3,
	})
	require.Equal(t, http.StatusCreated, code, sale)
	assert.NotNil(t, sale["commission"])

	code, sum := api.call(http.MethodGet, "/api/v1/commissions/summary", retailer, nil)
	require.Equal(t, http.StatusOK, code, sum)
	assert.EqualValues(t, 1, sum["pendingCount"])

	code, _ = api.call(http.MethodGet, "/api/v1/audit/srn/"+srnID, retailer, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, hist := api.call(http.MethodGet, "/api/v1/audit/srn/"+srnID, admin, nil)
	require.Equal(t, http.StatusOK, code, hist)
	assert.Len(t, hist["items"], 3)
}
