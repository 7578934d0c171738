package ledger

import (
	"encoding/json"
)

// ObjectData is the content envelope of a single on-ledger object.
type ObjectData struct {
	ObjectID string         `json:"objectId"`
	Version  string         `json:"version"`
	Digest   string         `json:"digest"`
	Content  *ObjectContent `json:"content"`
}

type ObjectContent struct {
	DataType string          `json:"dataType"`
	Type     string          `json:"type"`
	Fields   json.RawMessage `json:"fields"`
}

// objectError is the well-formed "absent" half of an object response. The RPC
// reports notExists/deleted/dynamicFieldNotFound here instead of failing the
// call.
type objectError struct {
	Code     string `json:"code"`
	ObjectID string `json:"object_id,omitempty"`
}

type objectResponse struct {
	Data  *ObjectData  `json:"data"`
	Error *objectError `json:"error"`
}

// TypedKey addresses one entry of a keyed nested collection.
type TypedKey struct {
	Type  string      `json:"type"`
	Value interface{} `json:"value"`
}

// AddressKey builds the key for collections keyed by account address.
func AddressKey(addr string) TypedKey {
	return TypedKey{Type: "address", Value: addr}
}

// DynamicFieldInfo identifies one entry of a nested collection without its
// value; the value is fetched separately by object id.
type DynamicFieldInfo struct {
	Name       TypedKey `json:"name"`
	ObjectID   string   `json:"objectId"`
	ObjectType string   `json:"objectType"`
}

type dynamicFieldsPage struct {
	Data        []*DynamicFieldInfo `json:"data"`
	NextCursor  *string             `json:"nextCursor"`
	HasNextPage bool                `json:"hasNextPage"`
}

type EventID struct {
	TxDigest string `json:"txDigest"`
	EventSeq string `json:"eventSeq"`
}

// Event is one entry of the ledger's append-only event log.
type Event struct {
	ID          EventID         `json:"id"`
	PackageID   string          `json:"packageId"`
	Type        string          `json:"type"`
	Sender      string          `json:"sender"`
	ParsedJSON  json.RawMessage `json:"parsedJson"`
	TimestampMs string          `json:"timestampMs"`
}

type eventsPage struct {
	Data        []Event         `json:"data"`
	NextCursor  json.RawMessage `json:"nextCursor"`
	HasNextPage bool            `json:"hasNextPage"`
}

type eventFilter struct {
	MoveEventType string `json:"MoveEventType"`
}

var showContentOptions = map[string]bool{"showContent": true}
