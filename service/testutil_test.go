package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dapphub-labs/dapphub/config"
	"github.com/dapphub-labs/dapphub/ledger"
)

// fakeReader serves canned ledger responses to the aggregation services.
type fakeReader struct {
	objects      map[string]*ledger.ObjectData
	fields       map[string][]*ledger.DynamicFieldInfo
	fieldObjects map[string]map[string]*ledger.ObjectData
	events       map[string][]ledger.Event
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		objects:      map[string]*ledger.ObjectData{},
		fields:       map[string][]*ledger.DynamicFieldInfo{},
		fieldObjects: map[string]map[string]*ledger.ObjectData{},
		events:       map[string][]ledger.Event{},
	}
}

func (f *fakeReader) GetObject(_ context.Context, objectID string) (*ledger.ObjectData, error) {
	object, ok := f.objects[objectID]
	if !ok {
		return nil, ledger.ErrObjectNotFound
	}
	return object, nil
}

func (f *fakeReader) MultiGetObjects(_ context.Context, objectIDs []string) ([]*ledger.ObjectData, error) {
	objects := make([]*ledger.ObjectData, len(objectIDs))
	for i, id := range objectIDs {
		objects[i] = f.objects[id]
	}
	return objects, nil
}

func (f *fakeReader) GetDynamicFields(_ context.Context, parentID string) ([]*ledger.DynamicFieldInfo, error) {
	return f.fields[parentID], nil
}

func (f *fakeReader) GetDynamicFieldObject(_ context.Context, parentID string, key ledger.TypedKey) (*ledger.ObjectData, error) {
	addr, _ := key.Value.(string)
	object, ok := f.fieldObjects[parentID][addr]
	if !ok {
		return nil, ledger.ErrObjectNotFound
	}
	return object, nil
}

func (f *fakeReader) QueryEvents(_ context.Context, eventType string, limit uint64, _ bool) ([]ledger.Event, error) {
	events := f.events[eventType]
	if uint64(len(events)) > limit {
		events = events[:limit]
	}
	return events, nil
}

// fakeStore resolves blob ids from a map; missing ids behave like an
// exhausted store.
type fakeStore struct {
	blobs   map[string]string
	failAll bool
}

func (f *fakeStore) Upload(_ context.Context, payload []byte) (string, error) {
	if f.failAll {
		return "", fmt.Errorf("upload unavailable: %w", errStoreDown)
	}
	return "blob-upload", nil
}

func (f *fakeStore) Fetch(_ context.Context, blobID string) (string, error) {
	if f.failAll {
		return "", errStoreDown
	}
	content, ok := f.blobs[blobID]
	if !ok {
		return "", errStoreDown
	}
	return content, nil
}

var errStoreDown = fmt.Errorf("all endpoints exhausted")

type nopCache struct{}

func (nopCache) Get(string) ([]byte, bool) { return nil, false }
func (nopCache) Set(string, []byte)        {}

func testConfig() *config.Config {
	return &config.Config{
		LedgerConfig: config.LedgerConfig{
			RPCAddrs:         []string{"http://localhost:9000"},
			RegistryObjectID: "0xreg",
			PackageID:        "0xpkg",
		},
	}
}

func objectWithFields(objectID, fieldsJSON string) *ledger.ObjectData {
	return &ledger.ObjectData{
		ObjectID: objectID,
		Content: &ledger.ObjectContent{
			DataType: "moveObject",
			Fields:   json.RawMessage(fieldsJSON),
		},
	}
}

// wrapEntry wraps entry fields in the dynamic-field value envelope.
func wrapEntry(objectID, innerJSON string) *ledger.ObjectData {
	return objectWithFields(objectID, fmt.Sprintf(`{"name":"k","value":{"type":"entry","fields":%s}}`, innerJSON))
}

func registryObject() *ledger.ObjectData {
	return objectWithFields("0xreg", `{"dapps":{"fields":{"id":{"id":"0xdapps"}}},"developers":{"fields":{"id":{"id":"0xdevs"}}}}`)
}

func dappFieldsJSON(name, descriptionRef, developer string, rank int) string {
	return fmt.Sprintf(`{
		"name":%q,"tagline":"t","category":"defi",
		"website":"https://example.org","repo":"","twitter":"","discord":"",
		"description":%q,
		"metrics":{"fields":{"users_24h":"10","users_7d":"70","users_30d":"300",
			"volume_24h":"1","volume_7d":"7","volume_30d":"30",
			"tx_24h":"2","tx_7d":"14","tx_30d":"60","tvl":"1000"}},
		"rank":"%d","rank_delta":"1","rating":"437","review_count":"2","upvote_count":"5",
		"reviews":{"fields":{"id":{"id":"0xrev-%s"}}},
		"developer":%q,"deleted":false}`, name, descriptionRef, rank, name, developer)
}

func developerEntry(objectID, name, bioRef string) *ledger.ObjectData {
	return wrapEntry(objectID, fmt.Sprintf(`{"name":%q,"bio":%q,"avatar":"","verified":true,"website":"","twitter":""}`, name, bioRef))
}

func addrField(addr, objectID string) *ledger.DynamicFieldInfo {
	return &ledger.DynamicFieldInfo{
		Name:     ledger.TypedKey{Type: "address", Value: addr},
		ObjectID: objectID,
	}
}

func event(eventType, tsMs, payloadJSON string) ledger.Event {
	return ledger.Event{
		ID:          ledger.EventID{TxDigest: "d", EventSeq: "0"},
		Type:        eventType,
		ParsedJSON:  json.RawMessage(payloadJSON),
		TimestampMs: tsMs,
	}
}
