package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProductReviewRequest(t *testing.T) {
	var got CreateApprovalRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/approvals/internal", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "tenant-1", r.Header.Get("x-jwt-claim-tenant-id"))
		assert.Equal(t, "user-1", r.Header.Get("x-jwt-claim-sub"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"appr-1"}}`))
	}))
	defer server.Close()

	client := NewApprovalClient(server.URL)
	resp, err := client.CreateProductReviewRequest(context.Background(), "tenant-1", "user-1", "Acme", "prod-1", "Tee")
	require.NoError(t, err)
	require.NotNil(t, resp.Data)
	assert.Equal(t, "appr-1", resp.Data.ID)

	assert.Equal(t, "product_creation", got.WorkflowName)
	assert.Equal(t, "product", got.ResourceType)
	assert.Equal(t, "prod-1", got.ResourceID)
	assert.Equal(t, "Tee", got.ResourceRef)
	assert.Equal(t, PriorityCreationManager, got.RequiredPriority)
	assert.Equal(t, "publish", got.ActionData["action"])
}

func TestCreateProductReviewRequest_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":"workflow not found"}`))
	}))
	defer server.Close()

	client := NewApprovalClient(server.URL)
	_, err := client.CreateProductReviewRequest(context.Background(), "tenant-1", "user-1", "Acme", "prod-1", "Tee")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workflow not found")
}
