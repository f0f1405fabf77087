package handler

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func newTestClient(t *testing.T) (*InventoryClient, string) {
	t.Helper()

	inv, dir := newTestInventory(t)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	srv.RegisterService(&InventoryServiceDesc, NewGRPCHandler(inv, nil))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return NewInventoryClient(conn), dir
}

func TestGRPC_EndToEndScenario(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	for _, req := range []AddItemRequest{
		{Item: "apple", Quantity: 10},
		{Item: "banana", Quantity: 8},
		{Item: "oranges", Quantity: 4},
	} {
		resp, err := client.AddItem(ctx, &req)
		require.NoError(t, err)
		assert.NotEmpty(t, resp.RequestID)
		assert.Len(t, resp.Log, 1)
	}

	removed, err := client.RemoveItem(ctx, &RemoveItemRequest{Item: "apple", Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 7, removed.Remaining)

	_, err = client.RemoveItem(ctx, &RemoveItemRequest{Item: "orange", Quantity: 1})
	assert.Equal(t, codes.NotFound, status.Code(err))

	qty, err := client.GetQuantity(ctx, &GetQuantityRequest{Item: "apple"})
	require.NoError(t, err)
	assert.Equal(t, 7, qty.Quantity)

	low, err := client.CheckLowItems(ctx, &CheckLowItemsRequest{})
	require.NoError(t, err)
	assert.Equal(t, 5, low.Threshold)
	assert.Equal(t, []string{"oranges"}, low.Items)

	threshold := 9
	low, err = client.CheckLowItems(ctx, &CheckLowItemsRequest{Threshold: &threshold})
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "banana", "oranges"}, low.Items)
}

func TestGRPC_AddItemValidation(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.AddItem(context.Background(), &AddItemRequest{Item: "", Quantity: 1})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.RemoveItem(context.Background(), &RemoveItemRequest{Item: "apple", Quantity: -1})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGRPC_SaveLoadRoundTrip(t *testing.T) {
	client, dir := newTestClient(t)
	ctx := context.Background()

	_, err := client.AddItem(ctx, &AddItemRequest{Item: "apple", Quantity: 7})
	require.NoError(t, err)
	_, err = client.AddItem(ctx, &AddItemRequest{Item: "banana", Quantity: 8})
	require.NoError(t, err)

	saved, err := client.SaveData(ctx, &SnapshotRequest{Path: "grpc.json"})
	require.NoError(t, err)
	assert.Equal(t, 2, saved.Items)

	_, err = client.RemoveItem(ctx, &RemoveItemRequest{Item: "apple", Quantity: 7})
	require.NoError(t, err)

	loaded, err := client.LoadData(ctx, &SnapshotRequest{Path: "grpc.json"})
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Items)

	list, err := client.ListItems(ctx, &ListItemsRequest{})
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "apple", list.Items[0].Name)
	assert.Equal(t, 7, list.Items[0].Quantity)
	assert.Equal(t, "banana", list.Items[1].Name)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"apple": 1.5}`), 0o644))
	_, err = client.LoadData(ctx, &SnapshotRequest{Path: "bad.json"})
	assert.Equal(t, codes.DataLoss, status.Code(err))

	list, err = client.ListItems(ctx, &ListItemsRequest{})
	require.NoError(t, err)
	assert.Len(t, list.Items, 2, "a failed load must leave the inventory untouched")
}

func TestGRPC_SnapshotPathMustStayInDataDir(t *testing.T) {
	client, dir := newTestClient(t)
	ctx := context.Background()

	_, err := client.AddItem(ctx, &AddItemRequest{Item: "apple", Quantity: 7})
	require.NoError(t, err)

	outside := filepath.Join(t.TempDir(), "outside.json")
	for _, path := range []string{outside, "../escaped.json", "nested/../../escaped.json"} {
		_, err := client.SaveData(ctx, &SnapshotRequest{Path: path})
		assert.Equal(t, codes.InvalidArgument, status.Code(err), "save %s", path)

		_, err = client.LoadData(ctx, &SnapshotRequest{Path: path})
		assert.Equal(t, codes.InvalidArgument, status.Code(err), "load %s", path)
	}

	_, err = os.Stat(outside)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(filepath.Dir(dir), "escaped.json"))
	assert.True(t, os.IsNotExist(err))

	qty, err := client.GetQuantity(ctx, &GetQuantityRequest{Item: "apple"})
	require.NoError(t, err)
	assert.Equal(t, 7, qty.Quantity)
}
