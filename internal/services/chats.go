package services

import (
	"context"

	"kb-admin-client/internal/client"
	"kb-admin-client/internal/models"
	"kb-admin-client/internal/schema"

	"github.com/google/uuid"
)

const chatsPath = "/api/v1/chats"

type ChatsClient struct {
	c *client.Client
}

func NewChatsClient(c *client.Client) *ChatsClient {
	return &ChatsClient{c: c}
}

func (ch *ChatsClient) List(ctx context.Context, params ListParams) (models.Page[models.Chat], error) {
	query, err := params.query()
	if err != nil {
		return models.Page[models.Chat]{}, err
	}
	return client.Get(ctx, ch.c, chatsPath, client.BuildURLParams(query), schema.ChatPage)
}

func (ch *ChatsClient) Get(ctx context.Context, id uuid.UUID) (models.Chat, error) {
	return client.Get(ctx, ch.c, chatsPath+"/"+id.String(), nil, schema.Chat)
}

func (ch *ChatsClient) Delete(ctx context.Context, id uuid.UUID) error {
	return client.Delete(ctx, ch.c, chatsPath+"/"+id.String())
}
