package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/stock-tracker/internal/core/domain"
	"github.com/rl1809/stock-tracker/internal/port"
)

const (
	DefaultDataFile     = "inventory.json"
	DefaultLowThreshold = 5

	reportHeader = "--- Items Report ---"
	reportFooter = "--------------------"
)

// InventoryService is the inventory store. It owns a single mapping and is
// not safe for concurrent use; wrap it in Synchronized when sharing it.
type InventoryService struct {
	repo      port.SnapshotRepository
	inventory *domain.Inventory
	logger    *zap.Logger
	out       io.Writer
	now       func() time.Time
}

// NewInventoryService returns a store with an empty mapping. A nil logger
// discards log output and a nil out writes reports to os.Stdout.
func NewInventoryService(repo port.SnapshotRepository, logger *zap.Logger, out io.Writer) *InventoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if out == nil {
		out = os.Stdout
	}

	return &InventoryService{
		repo:      repo,
		inventory: domain.NewInventory(),
		logger:    logger.With(zap.String("component", "inventory")),
		out:       out,
		now:       time.Now,
	}
}

// AddItem increments item by qty. Empty names are ignored. When opLog is nil
// the event is recorded in a log owned by this call only.
func (s *InventoryService) AddItem(item string, qty int, opLog *domain.OperationLog) {
	if item == "" {
		return
	}
	if opLog == nil {
		opLog = &domain.OperationLog{}
	}

	total := s.inventory.Add(item, qty)
	opLog.Append(fmt.Sprintf("%s: Added %d of %s", s.now().Format(domain.OperationLogTimeLayout), qty, item))

	s.logger.Debug("added stock",
		zap.String("item", item),
		zap.Int("quantity", qty),
		zap.Int("total", total))
}

// RemoveItem decrements item by qty. Removing an absent item is reported as
// a warning and leaves the mapping unchanged.
func (s *InventoryService) RemoveItem(item string, qty int) {
	if _, err := s.DeductItem(item, qty); err != nil {
		if errors.Is(err, domain.ErrItemNotFound) {
			s.logger.Warn("tried to remove item that is not in stock",
				zap.String("item", item),
				zap.Int("quantity", qty))
			return
		}
		s.logger.Error("remove failed", zap.String("item", item), zap.Error(err))
	}
}

// DeductItem is RemoveItem with the outcome returned: the remaining
// quantity, or an error wrapping domain.ErrItemNotFound.
func (s *InventoryService) DeductItem(item string, qty int) (int, error) {
	remaining, err := s.inventory.Remove(item, qty)
	if err != nil {
		return 0, err
	}

	s.logger.Debug("removed stock",
		zap.String("item", item),
		zap.Int("quantity", qty),
		zap.Int("remaining", remaining))
	return remaining, nil
}

func (s *InventoryService) GetQuantity(item string) int {
	qty, _ := s.inventory.Quantity(item)
	return qty
}

// CheckLowItems lists items whose quantity is strictly below threshold, in
// insertion order.
func (s *InventoryService) CheckLowItems(threshold int) []string {
	return s.inventory.Below(threshold)
}

func (s *InventoryService) Items() []domain.Item {
	return s.inventory.Items()
}

// LoadData replaces the whole mapping with the snapshot at path. A missing
// snapshot resets the mapping to empty; any other failure leaves it untouched.
func (s *InventoryService) LoadData(ctx context.Context, path string) error {
	if path == "" {
		path = DefaultDataFile
	}

	inv, err := s.repo.Load(ctx, path)
	if errors.Is(err, port.ErrSnapshotNotFound) {
		s.logger.Warn("snapshot not found, starting with an empty inventory", zap.String("path", path))
		s.inventory = domain.NewInventory()
		return nil
	}
	if err != nil {
		return fmt.Errorf("load inventory from %s: %w", path, err)
	}

	s.inventory = inv
	s.logger.Info("inventory loaded", zap.String("path", path), zap.Int("items", inv.Len()))
	return nil
}

// SaveData writes the whole mapping to path, overwriting what was there.
func (s *InventoryService) SaveData(ctx context.Context, path string) error {
	if path == "" {
		path = DefaultDataFile
	}

	if err := s.repo.Save(ctx, path, s.inventory); err != nil {
		return fmt.Errorf("save inventory to %s: %w", path, err)
	}

	s.logger.Info("inventory saved", zap.String("path", path), zap.Int("items", s.inventory.Len()))
	return nil
}

// PrintData writes the items report to the service's output.
func (s *InventoryService) PrintData() {
	if err := s.WriteReport(s.out); err != nil {
		s.logger.Error("write report", zap.Error(err))
	}
}

func (s *InventoryService) WriteReport(w io.Writer) error {
	if _, err := fmt.Fprintln(w, reportHeader); err != nil {
		return err
	}
	for _, item := range s.inventory.Items() {
		if _, err := fmt.Fprintf(w, "%s -> %d\n", item.Name, item.Quantity); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, reportFooter)
	return err
}
