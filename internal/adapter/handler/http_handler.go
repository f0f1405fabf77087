package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/rl1809/stock-tracker/internal/core/domain"
	"github.com/rl1809/stock-tracker/internal/core/service"
)

const maxRequestBody = 1 << 20

type HTTPHandler struct {
	inventory *service.Synchronized
	logger    *zap.Logger
}

type StockHTTPRequest struct {
	RequestID string `json:"request_id"`
	Item      string `json:"item"`
	Quantity  int    `json:"quantity"`
}

type StockHTTPResponse struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	RequestID string   `json:"request_id,omitempty"`
	Quantity  int      `json:"quantity"`
	Log       []string `json:"log,omitempty"`
}

func NewHTTPHandler(inventory *service.Synchronized, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{inventory: inventory, logger: logger.With(zap.String("component", "http"))}
}

// Register wires every route onto mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("GET /api/items", h.ListItems)
	mux.HandleFunc("GET /api/items/{item}", h.GetQuantity)
	mux.HandleFunc("GET /api/low-items", h.LowItems)
	mux.HandleFunc("POST /api/items/add", h.AddItem)
	mux.HandleFunc("POST /api/items/remove", h.RemoveItem)
	mux.HandleFunc("GET /api/report", h.Report)
	mux.HandleFunc("POST /api/snapshots/save", h.SaveSnapshot)
	mux.HandleFunc("POST /api/snapshots/load", h.LoadSnapshot)
}

func (h *HTTPHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeStockRequest(w, r)
	if !ok {
		return
	}

	resp := StockHTTPResponse{Success: true, Message: "stock added", RequestID: requestID(req.RequestID)}
	h.inventory.Do(func(svc *service.InventoryService) error {
		var opLog domain.OperationLog
		svc.AddItem(req.Item, req.Quantity, &opLog)
		resp.Quantity = svc.GetQuantity(req.Item)
		resp.Log = opLog.Entries()
		return nil
	})

	h.logger.Info("item added", zap.String("request_id", resp.RequestID), zap.String("item", req.Item), zap.Int("quantity", req.Quantity))
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeStockRequest(w, r)
	if !ok {
		return
	}

	id := requestID(req.RequestID)
	var remaining int
	err := h.inventory.Do(func(svc *service.InventoryService) error {
		var err error
		remaining, err = svc.DeductItem(req.Item, req.Quantity)
		return err
	})
	if err != nil {
		status := http.StatusInternalServerError
		message := "internal error"

		if errors.Is(err, domain.ErrItemNotFound) {
			status = http.StatusNotFound
			message = "item not in stock"
			h.logger.Warn("tried to remove item that is not in stock", zap.String("request_id", id), zap.String("item", req.Item))
		}

		writeJSON(w, status, StockHTTPResponse{
			Success:   false,
			Message:   message,
			RequestID: id,
		})
		return
	}

	writeJSON(w, http.StatusOK, StockHTTPResponse{
		Success:   true,
		Message:   "stock removed",
		RequestID: id,
		Quantity:  remaining,
	})
}

func (h *HTTPHandler) GetQuantity(w http.ResponseWriter, r *http.Request) {
	item := r.PathValue("item")

	var qty int
	h.inventory.Do(func(svc *service.InventoryService) error {
		qty = svc.GetQuantity(item)
		return nil
	})

	writeJSON(w, http.StatusOK, GetQuantityResponse{Item: item, Quantity: qty})
}

func (h *HTTPHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	var resp ListItemsResponse
	h.inventory.Do(func(svc *service.InventoryService) error {
		resp.Items = svc.Items()
		return nil
	})
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) LowItems(w http.ResponseWriter, r *http.Request) {
	threshold := service.DefaultLowThreshold
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, StockHTTPResponse{Success: false, Message: "threshold must be an integer"})
			return
		}
		threshold = n
	}

	resp := CheckLowItemsResponse{Threshold: threshold}
	h.inventory.Do(func(svc *service.InventoryService) error {
		resp.Items = svc.CheckLowItems(threshold)
		return nil
	})
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) Report(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	h.inventory.Do(func(svc *service.InventoryService) error {
		return svc.WriteReport(&buf)
	})

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *HTTPHandler) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSnapshotRequest(w, r)
	if !ok {
		return
	}

	path, ok := snapshotPath(req.Path)
	if !ok {
		writeJSON(w, http.StatusBadRequest, StockHTTPResponse{Success: false, Message: "snapshot path must be a relative path inside the data directory"})
		return
	}

	resp := SnapshotResponse{Path: path}
	err := h.inventory.Do(func(svc *service.InventoryService) error {
		resp.Items = len(svc.Items())
		return svc.SaveData(r.Context(), resp.Path)
	})
	if err != nil {
		h.logger.Error("save failed", zap.String("path", resp.Path), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, StockHTTPResponse{Success: false, Message: "save failed"})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) LoadSnapshot(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSnapshotRequest(w, r)
	if !ok {
		return
	}

	path, ok := snapshotPath(req.Path)
	if !ok {
		writeJSON(w, http.StatusBadRequest, StockHTTPResponse{Success: false, Message: "snapshot path must be a relative path inside the data directory"})
		return
	}

	resp := SnapshotResponse{Path: path}
	err := h.inventory.Do(func(svc *service.InventoryService) error {
		if err := svc.LoadData(r.Context(), resp.Path); err != nil {
			return err
		}
		resp.Items = len(svc.Items())
		return nil
	})
	if err != nil {
		h.logger.Error("load failed", zap.String("path", resp.Path), zap.Error(err))
		writeJSON(w, http.StatusUnprocessableEntity, StockHTTPResponse{Success: false, Message: "snapshot is unreadable"})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeStockRequest(w http.ResponseWriter, r *http.Request) (StockHTTPRequest, bool) {
	var req StockHTTPRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, StockHTTPResponse{
			Success: false,
			Message: "invalid request body",
		})
		return req, false
	}

	if req.Item == "" || req.Quantity <= 0 {
		writeJSON(w, http.StatusBadRequest, StockHTTPResponse{
			Success: false,
			Message: "missing required fields",
		})
		return req, false
	}
	return req, true
}

// decodeSnapshotRequest accepts an empty body as a request for the default path.
func decodeSnapshotRequest(w http.ResponseWriter, r *http.Request) (SnapshotRequest, bool) {
	var req SnapshotRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	err := json.NewDecoder(r.Body).Decode(&req)
	if errors.Is(err, io.EOF) {
		return req, true
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, StockHTTPResponse{
			Success: false,
			Message: "invalid request body",
		})
		return req, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
