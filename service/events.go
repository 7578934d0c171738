package service

import (
	"fmt"

	"github.com/dapphub-labs/dapphub/ledger"
	"github.com/dapphub-labs/dapphub/models"
	"github.com/dapphub-labs/dapphub/util"
)

func registeredEventType(packageID string) string {
	return fmt.Sprintf("%s::registry::DappRegistered", packageID)
}

func reviewEventType(packageID string) string {
	return fmt.Sprintf("%s::reviews::ReviewPosted", packageID)
}

func commentEventType(packageID string) string {
	return fmt.Sprintf("%s::social::CommentPosted", packageID)
}

type commentEventPayload struct {
	CommentID string  `json:"comment_id"`
	DappID    string  `json:"dapp_id"`
	Author    string  `json:"author"`
	Content   string  `json:"content"` // blob id
	ParentID  *string `json:"parent_id"`
	Upvotes   string  `json:"upvotes"`
	IsMaker   bool    `json:"is_maker"`
}

type reviewEventPayload struct {
	ReviewID string `json:"review_id"`
	DappID   string `json:"dapp_id"`
	Author   string `json:"author"`
	Title    string `json:"title"`
	Rating   string `json:"rating"`
	Upvotes  string `json:"upvotes"`
}

// commentFromEvent projects one comment event. Returns false when the
// payload is not decodable; such events are skipped, not fatal.
func commentFromEvent(ev ledger.Event) (models.Comment, bool) {
	var payload commentEventPayload
	if err := ledger.ParseEventPayload(ev, &payload); err != nil {
		return models.Comment{}, false
	}
	if payload.CommentID == "" {
		return models.Comment{}, false
	}
	comment := models.Comment{
		ID:          payload.CommentID,
		DappID:      payload.DappID,
		Author:      util.NormalizeAddress(payload.Author),
		ContentRef:  payload.Content,
		Upvotes:     parseInt64(payload.Upvotes),
		IsMaker:     payload.IsMaker,
		CreatedAtMs: parseInt64(ev.TimestampMs),
	}
	if payload.ParentID != nil {
		comment.ParentID = *payload.ParentID
	}
	return comment, true
}
