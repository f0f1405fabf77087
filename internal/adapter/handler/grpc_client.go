package handler

import (
	"context"

	"google.golang.org/grpc"
)

// InventoryClient calls inventory.v1.InventoryService using the JSON codec.
type InventoryClient struct {
	cc grpc.ClientConnInterface
}

func NewInventoryClient(cc grpc.ClientConnInterface) *InventoryClient {
	return &InventoryClient{cc: cc}
}

func (c *InventoryClient) AddItem(ctx context.Context, in *AddItemRequest, opts ...grpc.CallOption) (*AddItemResponse, error) {
	out := new(AddItemResponse)
	if err := c.cc.Invoke(ctx, addItemMethod, in, out, withJSON(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *InventoryClient) RemoveItem(ctx context.Context, in *RemoveItemRequest, opts ...grpc.CallOption) (*RemoveItemResponse, error) {
	out := new(RemoveItemResponse)
	if err := c.cc.Invoke(ctx, removeItemMethod, in, out, withJSON(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *InventoryClient) GetQuantity(ctx context.Context, in *GetQuantityRequest, opts ...grpc.CallOption) (*GetQuantityResponse, error) {
	out := new(GetQuantityResponse)
	if err := c.cc.Invoke(ctx, getQuantityMethod, in, out, withJSON(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *InventoryClient) CheckLowItems(ctx context.Context, in *CheckLowItemsRequest, opts ...grpc.CallOption) (*CheckLowItemsResponse, error) {
	out := new(CheckLowItemsResponse)
	if err := c.cc.Invoke(ctx, checkLowItemsMethod, in, out, withJSON(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *InventoryClient) ListItems(ctx context.Context, in *ListItemsRequest, opts ...grpc.CallOption) (*ListItemsResponse, error) {
	out := new(ListItemsResponse)
	if err := c.cc.Invoke(ctx, listItemsMethod, in, out, withJSON(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *InventoryClient) SaveData(ctx context.Context, in *SnapshotRequest, opts ...grpc.CallOption) (*SnapshotResponse, error) {
	out := new(SnapshotResponse)
	if err := c.cc.Invoke(ctx, saveDataMethod, in, out, withJSON(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *InventoryClient) LoadData(ctx context.Context, in *SnapshotRequest, opts ...grpc.CallOption) (*SnapshotResponse, error) {
	out := new(SnapshotResponse)
	if err := c.cc.Invoke(ctx, loadDataMethod, in, out, withJSON(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func withJSON(opts []grpc.CallOption) []grpc.CallOption {
	out := make([]grpc.CallOption, 0, len(opts)+1)
	out = append(out, grpc.CallContentSubtype(JSONCodecName))
	return append(out, opts...)
}
