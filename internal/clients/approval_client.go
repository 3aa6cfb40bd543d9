package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ApprovalType represents the type of approval being requested
type ApprovalType string

const (
	ApprovalTypeProductCreate ApprovalType = "product_creation"
)

// PriorityCreationManager is the manager level every new product needs for review
const PriorityCreationManager = 30

// ApprovalClient provides methods to interact with the approval-service
type ApprovalClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewApprovalClient creates a new approval service client
func NewApprovalClient(baseURL string) *ApprovalClient {
	if baseURL == "" {
		baseURL = "http://approval-service:8099"
	}

	return &ApprovalClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// CreateApprovalRequest is the request body for creating approvals
type CreateApprovalRequest struct {
	WorkflowName     string         `json:"workflowName"`
	ActionType       string         `json:"actionType"`
	ResourceType     string         `json:"resourceType,omitempty"`
	ResourceID       string         `json:"resourceId,omitempty"`
	ResourceRef      string         `json:"resource_reference,omitempty"`
	RequestedByID    string         `json:"requested_by_id,omitempty"`
	RequestedByName  string         `json:"requested_by_name,omitempty"`
	RequiredPriority int            `json:"required_priority,omitempty"`
	Reason           string         `json:"reason,omitempty"`
	ActionData       map[string]any `json:"actionData,omitempty"`
}

// ApprovalRequestResponse is the response from creating approvals
type ApprovalRequestResponse struct {
	Success bool               `json:"success"`
	Data    *ApprovalRequestID `json:"data,omitempty"`
	Message string             `json:"message,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// ApprovalRequestID contains the ID of the created approval
type ApprovalRequestID struct {
	ID string `json:"id"`
}

// CreateApprovalRequestCall creates a new approval request.
// Uses the internal endpoint, which authenticates through the Istio JWT claim headers.
func (c *ApprovalClient) CreateApprovalRequestCall(ctx context.Context, req *CreateApprovalRequest, tenantID, userID string) (*ApprovalRequestResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/approvals/internal", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-jwt-claim-sub", userID)
	httpReq.Header.Set("x-jwt-claim-tenant-id", tenantID)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call approval service: %w", err)
	}
	defer resp.Body.Close()

	var approvalResp ApprovalRequestResponse
	if err := json.NewDecoder(resp.Body).Decode(&approvalResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return &approvalResp, fmt.Errorf("approval service returned %d: %s", resp.StatusCode, approvalResp.Error)
	}

	return &approvalResp, nil
}

// CreateProductReviewRequest opens a review request for a freshly published product
func (c *ApprovalClient) CreateProductReviewRequest(ctx context.Context, tenantID, sellerUserID, storeName, productID, productName string) (*ApprovalRequestResponse, error) {
	req := &CreateApprovalRequest{
		WorkflowName:     "product_creation",
		ActionType:       string(ApprovalTypeProductCreate),
		ResourceType:     "product",
		ResourceID:       productID,
		ResourceRef:      productName,
		RequestedByID:    sellerUserID,
		RequestedByName:  storeName,
		RequiredPriority: PriorityCreationManager,
		Reason:           fmt.Sprintf("Request to publish product: %s", productName),
		ActionData: map[string]any{
			"product_id":   productID,
			"product_name": productName,
			"store":        storeName,
			"action":       "publish",
		},
	}
	return c.CreateApprovalRequestCall(ctx, req, tenantID, sellerUserID)
}
