package handler

import "github.com/rl1809/stock-tracker/internal/core/domain"

type AddItemRequest struct {
	RequestID string `json:"request_id"`
	Item      string `json:"item"`
	Quantity  int    `json:"quantity"`
}

type AddItemResponse struct {
	RequestID string   `json:"request_id"`
	Quantity  int      `json:"quantity"`
	Log       []string `json:"log"`
}

type RemoveItemRequest struct {
	RequestID string `json:"request_id"`
	Item      string `json:"item"`
	Quantity  int    `json:"quantity"`
}

type RemoveItemResponse struct {
	RequestID string `json:"request_id"`
	Remaining int    `json:"remaining"`
}

type GetQuantityRequest struct {
	Item string `json:"item"`
}

type GetQuantityResponse struct {
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
}

type CheckLowItemsRequest struct {
	// Threshold defaults to service.DefaultLowThreshold when nil.
	Threshold *int `json:"threshold,omitempty"`
}

type CheckLowItemsResponse struct {
	Threshold int      `json:"threshold"`
	Items     []string `json:"items"`
}

type ListItemsRequest struct{}

type ListItemsResponse struct {
	Items []domain.Item `json:"items"`
}

type SnapshotRequest struct {
	// Path defaults to service.DefaultDataFile when empty.
	Path string `json:"path,omitempty"`
}

type SnapshotResponse struct {
	Path  string `json:"path"`
	Items int    `json:"items"`
}
