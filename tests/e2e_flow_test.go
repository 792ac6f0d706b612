package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymdesk/internal/config"
	"gymdesk/internal/domain"
	"gymdesk/internal/server"
	"gymdesk/internal/service"
)

func TestGoldenPath(t *testing.T) {
	// 1. Infrastructure: MongoDB container + miniredis
	mongoClient, db, cleanupDB := SetupTestDB(t)
	defer cleanupDB()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cfg := &config.Config{}
	cfg.JWT.Secret = testJWTSecret
	// Standalone test mongod: no replica set, so no multi-document sessions
	cfg.MongoDB.UseTransactions = false

	// 2. App
	app := server.NewApp(server.AppDependencies{
		Config:      cfg,
		MongoClient: mongoClient,
		MongoDB:     db,
		RedisClient: redisClient,
		Clock:       domain.SystemClock{},
	})

	token := GymToken(t, "gym-1")

	request := func(method, path, token string, body interface{}) *http.Response {
		var bodyReader io.Reader
		if body != nil {
			jsonBytes, _ := json.Marshal(body)
			bodyReader = bytes.NewReader(jsonBytes)
		}
		req, _ := http.NewRequest(method, path, bodyReader)
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	decode := func(resp *http.Response) map[string]interface{} {
		var data map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&data))
		return data
	}

	// Unauthenticated requests bounce
	resp := request("GET", "/v1/members/", "", nil)
	assert.Equal(t, 401, resp.StatusCode)

	// ==========================================
	// STEP 1: Create plans
	// ==========================================
	resp = request("POST", "/v1/plans/", token, map[string]interface{}{
		"months": 1, "price": 1500,
	})
	require.Equal(t, 201, resp.StatusCode)
	planMonthly := decode(resp)
	planMonthlyID := planMonthly["id"].(string)
	require.NotEmpty(t, planMonthlyID)

	resp = request("POST", "/v1/plans/", token, map[string]interface{}{
		"months": 3, "price": 4000,
	})
	require.Equal(t, 201, resp.StatusCode)
	planQuarterID := decode(resp)["id"].(string)

	// Re-posting the same month count updates the price, not a new plan
	resp = request("POST", "/v1/plans/", token, map[string]interface{}{
		"months": 1, "price": 1800,
	})
	require.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, planMonthlyID, decode(resp)["id"].(string))

	resp = request("GET", "/v1/plans/", token, nil)
	require.Equal(t, 200, resp.StatusCode)

	fmt.Println("✓ Plans created")

	// ==========================================
	// STEP 2: Register a member
	// ==========================================
	resp = request("POST", "/v1/members/", token, map[string]interface{}{
		"name":    "Asha Verma",
		"email":   "asha@example.com",
		"phone":   "9876543210",
		"age":     29,
		"gender":  "female",
		"height":  165.0,
		"weight":  60.0,
		"plan_id": planMonthlyID,
	})
	require.Equal(t, 201, resp.StatusCode)
	member := decode(resp)
	memberID := member["id"].(string)
	assert.Equal(t, "Active", member["status"])

	// Duplicate phone is rejected
	resp = request("POST", "/v1/members/", token, map[string]interface{}{
		"name": "Imposter", "phone": "9876543210", "plan_id": planMonthlyID,
	})
	assert.Equal(t, 409, resp.StatusCode)

	// Unknown plan is rejected before any write
	resp = request("POST", "/v1/members/", token, map[string]interface{}{
		"name": "No Plan", "phone": "1112223334", "plan_id": "65b000000000000000000000",
	})
	assert.Equal(t, 404, resp.StatusCode)

	fmt.Println("✓ Member registered")

	// ==========================================
	// STEP 3: Listings are gym-scoped
	// ==========================================
	resp = request("GET", "/v1/members/", token, nil)
	require.Equal(t, 200, resp.StatusCode)
	listing := decode(resp)
	assert.Equal(t, float64(1), listing["total"])

	otherToken := GymToken(t, "gym-2")
	resp = request("GET", "/v1/members/", otherToken, nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, float64(0), decode(resp)["total"])

	resp = request("GET", "/v1/members/"+memberID, otherToken, nil)
	assert.Equal(t, 404, resp.StatusCode, "another gym must not see this member")

	// ==========================================
	// STEP 4: Cash renewal onto the quarterly plan
	// ==========================================
	resp = request("PUT", "/v1/members/"+memberID+"/renew", token, map[string]interface{}{
		"plan_id": planQuarterID,
	})
	require.Equal(t, 200, resp.StatusCode)
	renewal := decode(resp)
	renewedMember := renewal["member"].(map[string]interface{})
	payment := renewal["payment"].(map[string]interface{})

	assert.Equal(t, "Active", renewedMember["status"])
	assert.Equal(t, planQuarterID, renewedMember["plan_id"])
	assert.Equal(t, float64(4000), payment["amount"])
	assert.Equal(t, "cash", payment["method"])

	fmt.Println("✓ Cash renewal recorded")

	// ==========================================
	// STEP 5: Online renewal through the mock gateway
	// ==========================================
	resp = request("POST", "/v1/payments/orders", token, map[string]interface{}{
		"plan_id": planMonthlyID,
	})
	require.Equal(t, 201, resp.StatusCode)
	order := decode(resp)
	orderID := order["order_id"].(string)
	require.NotEmpty(t, orderID)

	// Bad signature: 400 and nothing written
	resp = request("POST", "/v1/payments/verify", token, map[string]interface{}{
		"member_id":  memberID,
		"plan_id":    planMonthlyID,
		"order_id":   orderID,
		"payment_id": "pay_e2e_1",
		"signature":  "deadbeef",
	})
	assert.Equal(t, 400, resp.StatusCode)

	resp = request("GET", "/v1/payments/", token, nil)
	require.Equal(t, 200, resp.StatusCode)
	var ledger []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ledger))
	require.Len(t, ledger, 1, "failed verification must not append to the ledger")

	// Good signature completes the renewal
	resp = request("POST", "/v1/payments/verify", token, map[string]interface{}{
		"member_id":  memberID,
		"plan_id":    planMonthlyID,
		"order_id":   orderID,
		"payment_id": "pay_e2e_1",
		"signature":  service.SignMock(orderID, "pay_e2e_1"),
	})
	require.Equal(t, 200, resp.StatusCode)
	online := decode(resp)
	assert.Equal(t, "online", online["payment"].(map[string]interface{})["method"])

	fmt.Println("✓ Online renewal verified")

	// ==========================================
	// STEP 6: Idempotent replay of a mutating request
	// ==========================================
	body := map[string]interface{}{"months": 6, "price": 7000}
	req, _ := http.NewRequest("POST", "/v1/plans/", bytes.NewReader(mustJSON(t, body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Correlation-ID", "corr-123")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, 201, resp.StatusCode)
	firstBody, _ := io.ReadAll(resp.Body)

	// The write above is cached asynchronously
	time.Sleep(100 * time.Millisecond)

	req, _ = http.NewRequest("POST", "/v1/plans/", bytes.NewReader(mustJSON(t, body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Correlation-ID", "corr-123")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "true", resp.Header.Get("X-Idempotent-Replay"))
	replayBody, _ := io.ReadAll(resp.Body)
	assert.Equal(t, firstBody, replayBody)

	// ==========================================
	// STEP 7: Analytics
	// ==========================================
	resp = request("GET", "/v1/analytics/monthly-revenue", token, nil)
	require.Equal(t, 200, resp.StatusCode)
	var revenue []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&revenue))
	require.NotEmpty(t, revenue)
	// Cash 4000 + online 1800 (price was updated in step 1)
	assert.Equal(t, float64(5800), revenue[0]["revenue"])

	resp = request("GET", "/v1/analytics/status-counts", token, nil)
	require.Equal(t, 200, resp.StatusCode)
	counts := decode(resp)
	assert.Equal(t, float64(1), counts["Active"])

	resp = request("GET", "/v1/analytics/plan-distribution", token, nil)
	require.Equal(t, 200, resp.StatusCode)

	fmt.Println("✓ Analytics served")

	// ==========================================
	// STEP 8: Health
	// ==========================================
	resp = request("GET", "/health", "", nil)
	assert.Equal(t, 200, resp.StatusCode)
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
