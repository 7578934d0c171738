package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/dapphub-labs/dapphub/config"
)

var (
	// ErrObjectNotFound is the well-formed "absent" answer: the object, table
	// entry or event the caller asked for does not exist. Transport failures
	// are reported as distinct errors.
	ErrObjectNotFound = errors.New("object not found on ledger")
)

// Reader is the read-only query facade the aggregation services depend on.
// It shields callers from the raw RPC response shapes and normalizes
// "not found" vs "error" vs "found".
type Reader interface {
	GetObject(ctx context.Context, objectID string) (*ObjectData, error)
	MultiGetObjects(ctx context.Context, objectIDs []string) ([]*ObjectData, error)
	GetDynamicFields(ctx context.Context, parentID string) ([]*DynamicFieldInfo, error)
	GetDynamicFieldObject(ctx context.Context, parentID string, key TypedKey) (*ObjectData, error)
	QueryEvents(ctx context.Context, eventType string, limit uint64, descending bool) ([]Event, error)
}

type Client struct {
	rpcClient *rpc.Client
}

func NewClient(cfg *config.LedgerConfig) (*Client, error) {
	rpcClient, err := rpc.DialContext(context.Background(), cfg.RPCAddrs[0])
	if err != nil {
		return nil, err
	}
	return &Client{rpcClient: rpcClient}, nil
}

func (c *Client) GetObject(ctx context.Context, objectID string) (*ObjectData, error) {
	var resp objectResponse
	if err := c.rpcClient.CallContext(ctx, &resp, "sui_getObject", objectID, showContentOptions); err != nil {
		return nil, fmt.Errorf("get object %s: %w", objectID, err)
	}
	return normalizeObjectResponse(&resp)
}

// MultiGetObjects fetches a batch of objects in one RPC. Absent or deleted
// ids yield nil slots so callers can match results back to the request order.
func (c *Client) MultiGetObjects(ctx context.Context, objectIDs []string) ([]*ObjectData, error) {
	if len(objectIDs) == 0 {
		return nil, nil
	}
	var resps []objectResponse
	if err := c.rpcClient.CallContext(ctx, &resps, "sui_multiGetObjects", objectIDs, showContentOptions); err != nil {
		return nil, fmt.Errorf("multi get objects: %w", err)
	}
	objects := make([]*ObjectData, len(resps))
	for i := range resps {
		object, err := normalizeObjectResponse(&resps[i])
		if err != nil {
			// absent slots stay nil, the batch itself is fine
			continue
		}
		objects[i] = object
	}
	return objects, nil
}

// GetDynamicFields enumerates all entries of a nested collection, following
// pagination cursors until the table is exhausted.
func (c *Client) GetDynamicFields(ctx context.Context, parentID string) ([]*DynamicFieldInfo, error) {
	fields := make([]*DynamicFieldInfo, 0)
	var cursor *string
	for {
		var page dynamicFieldsPage
		if err := c.rpcClient.CallContext(ctx, &page, "suix_getDynamicFields", parentID, cursor, nil); err != nil {
			return nil, fmt.Errorf("get dynamic fields of %s: %w", parentID, err)
		}
		fields = append(fields, page.Data...)
		if !page.HasNextPage || page.NextCursor == nil {
			return fields, nil
		}
		cursor = page.NextCursor
	}
}

func (c *Client) GetDynamicFieldObject(ctx context.Context, parentID string, key TypedKey) (*ObjectData, error) {
	var resp objectResponse
	if err := c.rpcClient.CallContext(ctx, &resp, "suix_getDynamicFieldObject", parentID, key); err != nil {
		return nil, fmt.Errorf("get dynamic field object of %s: %w", parentID, err)
	}
	return normalizeObjectResponse(&resp)
}

// QueryEvents returns up to limit events of the given type, newest first when
// descending is set.
func (c *Client) QueryEvents(ctx context.Context, eventType string, limit uint64, descending bool) ([]Event, error) {
	var page eventsPage
	err := c.rpcClient.CallContext(ctx, &page, "suix_queryEvents", eventFilter{MoveEventType: eventType}, nil, limit, descending)
	if err != nil {
		return nil, fmt.Errorf("query events %s: %w", eventType, err)
	}
	return page.Data, nil
}

func normalizeObjectResponse(resp *objectResponse) (*ObjectData, error) {
	if resp.Error != nil {
		switch resp.Error.Code {
		case "notExists", "deleted", "dynamicFieldNotFound":
			return nil, ErrObjectNotFound
		default:
			return nil, fmt.Errorf("ledger object error: %s", resp.Error.Code)
		}
	}
	if resp.Data == nil {
		return nil, ErrObjectNotFound
	}
	return resp.Data, nil
}
