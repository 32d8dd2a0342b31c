package schema

import (
	"encoding/json"
	"fmt"

	"kb-admin-client/internal/models"

	"github.com/google/uuid"
)

type chatWire struct {
	ID            *string         `json:"id" validate:"required"`
	Title         *string         `json:"title" validate:"required"`
	EngineID      *int            `json:"engine_id"`
	EngineOptions json.RawMessage `json:"engine_options"`
	UserID        *string         `json:"user_id"`
	BrowserID     *string         `json:"browser_id"`
	CreatedAt     *Time           `json:"created_at" validate:"required"`
	UpdatedAt     *Time           `json:"updated_at" validate:"required"`
	DeletedAt     *Time           `json:"deleted_at"`
}

// Chat validates a chat payload. engine_options arrives either as an object
// or as a JSON-encoded string of an object; both become a map.
var Chat Schema[models.Chat] = func(data []byte) (models.Chat, error) {
	w, err := decodeObject[chatWire]("Chat", data)
	if err != nil {
		return models.Chat{}, err
	}

	id, issue := parseUUID("id", *w.ID)
	if issue != nil {
		return models.Chat{}, invalid("Chat", *issue)
	}
	options, issue := engineOptions(w.EngineOptions)
	if issue != nil {
		return models.Chat{}, invalid("Chat", *issue)
	}

	chat := models.Chat{
		ID:            id,
		Title:         *w.Title,
		EngineID:      w.EngineID,
		EngineOptions: options,
		BrowserID:     deref(w.BrowserID),
		CreatedAt:     w.CreatedAt.Time,
		UpdatedAt:     w.UpdatedAt.Time,
		DeletedAt:     timePtr(w.DeletedAt),
	}
	if w.UserID != nil {
		userID, issue := parseUUID("user_id", *w.UserID)
		if issue != nil {
			return models.Chat{}, invalid("Chat", *issue)
		}
		chat.UserID = &userID
	}
	return chat, nil
}

// ChatPage validates a page of chats.
var ChatPage = PageOf(Chat)

// parseUUID accepts any case and the braced or urn forms uuid.Parse knows.
func parseUUID(path, s string) (uuid.UUID, *Issue) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.UUID{}, &Issue{Path: path, Message: fmt.Sprintf("must be a UUID, received %s", s)}
	}
	return id, nil
}

func engineOptions(raw json.RawMessage) (map[string]any, *Issue) {
	if isNull(raw) {
		return nil, nil
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		if encoded == "" {
			return nil, nil
		}
		raw = json.RawMessage(encoded)
	}

	var options map[string]any
	if err := json.Unmarshal(raw, &options); err != nil {
		return nil, &Issue{Path: "engine_options", Message: "expected object or JSON-encoded object"}
	}
	return options, nil
}
