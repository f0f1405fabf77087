package handler

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/stock-tracker/internal/core/domain"
	"github.com/rl1809/stock-tracker/internal/core/service"
)

const inventoryServiceName = "inventory.v1.InventoryService"

const (
	addItemMethod       = "/" + inventoryServiceName + "/AddItem"
	removeItemMethod    = "/" + inventoryServiceName + "/RemoveItem"
	getQuantityMethod   = "/" + inventoryServiceName + "/GetQuantity"
	checkLowItemsMethod = "/" + inventoryServiceName + "/CheckLowItems"
	listItemsMethod     = "/" + inventoryServiceName + "/ListItems"
	saveDataMethod      = "/" + inventoryServiceName + "/SaveData"
	loadDataMethod      = "/" + inventoryServiceName + "/LoadData"
)

// InventoryServer is the server API of inventory.v1.InventoryService.
type InventoryServer interface {
	AddItem(context.Context, *AddItemRequest) (*AddItemResponse, error)
	RemoveItem(context.Context, *RemoveItemRequest) (*RemoveItemResponse, error)
	GetQuantity(context.Context, *GetQuantityRequest) (*GetQuantityResponse, error)
	CheckLowItems(context.Context, *CheckLowItemsRequest) (*CheckLowItemsResponse, error)
	ListItems(context.Context, *ListItemsRequest) (*ListItemsResponse, error)
	SaveData(context.Context, *SnapshotRequest) (*SnapshotResponse, error)
	LoadData(context.Context, *SnapshotRequest) (*SnapshotResponse, error)
}

// InventoryServiceDesc describes inventory.v1.InventoryService for grpc.Server.RegisterService.
var InventoryServiceDesc = grpc.ServiceDesc{
	ServiceName: inventoryServiceName,
	HandlerType: (*InventoryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AddItem", Handler: unaryHandler(addItemMethod, InventoryServer.AddItem)},
		{MethodName: "RemoveItem", Handler: unaryHandler(removeItemMethod, InventoryServer.RemoveItem)},
		{MethodName: "GetQuantity", Handler: unaryHandler(getQuantityMethod, InventoryServer.GetQuantity)},
		{MethodName: "CheckLowItems", Handler: unaryHandler(checkLowItemsMethod, InventoryServer.CheckLowItems)},
		{MethodName: "ListItems", Handler: unaryHandler(listItemsMethod, InventoryServer.ListItems)},
		{MethodName: "SaveData", Handler: unaryHandler(saveDataMethod, InventoryServer.SaveData)},
		{MethodName: "LoadData", Handler: unaryHandler(loadDataMethod, InventoryServer.LoadData)},
	},
	Streams: []grpc.StreamDesc{},
}

func unaryHandler[Req, Resp any](fullMethod string, call func(InventoryServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(InventoryServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(InventoryServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var _ InventoryServer = (*GRPCHandler)(nil)

type GRPCHandler struct {
	inventory *service.Synchronized
	logger    *zap.Logger
}

func NewGRPCHandler(inventory *service.Synchronized, logger *zap.Logger) *GRPCHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GRPCHandler{inventory: inventory, logger: logger.With(zap.String("component", "grpc"))}
}

func (h *GRPCHandler) AddItem(ctx context.Context, req *AddItemRequest) (*AddItemResponse, error) {
	if req.Item == "" || req.Quantity <= 0 {
		return nil, status.Error(codes.InvalidArgument, "item and a positive quantity are required")
	}

	resp := &AddItemResponse{RequestID: requestID(req.RequestID)}
	h.inventory.Do(func(svc *service.InventoryService) error {
		var opLog domain.OperationLog
		svc.AddItem(req.Item, req.Quantity, &opLog)
		resp.Quantity = svc.GetQuantity(req.Item)
		resp.Log = opLog.Entries()
		return nil
	})

	h.logger.Info("item added", zap.String("request_id", resp.RequestID), zap.String("item", req.Item), zap.Int("quantity", req.Quantity))
	return resp, nil
}

func (h *GRPCHandler) RemoveItem(ctx context.Context, req *RemoveItemRequest) (*RemoveItemResponse, error) {
	if req.Item == "" || req.Quantity <= 0 {
		return nil, status.Error(codes.InvalidArgument, "item and a positive quantity are required")
	}

	resp := &RemoveItemResponse{RequestID: requestID(req.RequestID)}
	err := h.inventory.Do(func(svc *service.InventoryService) error {
		remaining, err := svc.DeductItem(req.Item, req.Quantity)
		resp.Remaining = remaining
		return err
	})
	if errors.Is(err, domain.ErrItemNotFound) {
		h.logger.Warn("tried to remove item that is not in stock", zap.String("request_id", resp.RequestID), zap.String("item", req.Item))
		return nil, status.Errorf(codes.NotFound, "item %q is not in stock", req.Item)
	}
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}

	return resp, nil
}

func (h *GRPCHandler) GetQuantity(ctx context.Context, req *GetQuantityRequest) (*GetQuantityResponse, error) {
	resp := &GetQuantityResponse{Item: req.Item}
	h.inventory.Do(func(svc *service.InventoryService) error {
		resp.Quantity = svc.GetQuantity(req.Item)
		return nil
	})
	return resp, nil
}

func (h *GRPCHandler) CheckLowItems(ctx context.Context, req *CheckLowItemsRequest) (*CheckLowItemsResponse, error) {
	resp := &CheckLowItemsResponse{Threshold: service.DefaultLowThreshold}
	if req.Threshold != nil {
		resp.Threshold = *req.Threshold
	}

	h.inventory.Do(func(svc *service.InventoryService) error {
		resp.Items = svc.CheckLowItems(resp.Threshold)
		return nil
	})
	return resp, nil
}

func (h *GRPCHandler) ListItems(ctx context.Context, req *ListItemsRequest) (*ListItemsResponse, error) {
	resp := &ListItemsResponse{}
	h.inventory.Do(func(svc *service.InventoryService) error {
		resp.Items = svc.Items()
		return nil
	})
	return resp, nil
}

func (h *GRPCHandler) SaveData(ctx context.Context, req *SnapshotRequest) (*SnapshotResponse, error) {
	path, ok := snapshotPath(req.Path)
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "snapshot path %q must be a relative path inside the data directory", req.Path)
	}

	resp := &SnapshotResponse{Path: path}
	err := h.inventory.Do(func(svc *service.InventoryService) error {
		resp.Items = len(svc.Items())
		return svc.SaveData(ctx, resp.Path)
	})
	if err != nil {
		h.logger.Error("save failed", zap.String("path", resp.Path), zap.Error(err))
		return nil, status.Error(codes.Internal, "save failed")
	}
	return resp, nil
}

func (h *GRPCHandler) LoadData(ctx context.Context, req *SnapshotRequest) (*SnapshotResponse, error) {
	path, ok := snapshotPath(req.Path)
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "snapshot path %q must be a relative path inside the data directory", req.Path)
	}

	resp := &SnapshotResponse{Path: path}
	err := h.inventory.Do(func(svc *service.InventoryService) error {
		if err := svc.LoadData(ctx, resp.Path); err != nil {
			return err
		}
		resp.Items = len(svc.Items())
		return nil
	})
	if err != nil {
		h.logger.Error("load failed", zap.String("path", resp.Path), zap.Error(err))
		return nil, status.Errorf(codes.DataLoss, "load %s: snapshot is unreadable", resp.Path)
	}
	return resp, nil
}

func requestID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

// snapshotPath defaults an empty path and rejects names that are absolute
// or climb out of the repository's base directory.
func snapshotPath(path string) (string, bool) {
	if path == "" {
		return service.DefaultDataFile, true
	}
	return path, filepath.IsLocal(path)
}
