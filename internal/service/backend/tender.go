package backend

import (
	"context"
	"net/url"

	"tenderdesk/entity"
)

func (c *Client) GetTender(ctx context.Context, id string) (*entity.Tender, error) {
	var tender entity.Tender
	if err := c.Get(ctx, "/tenders/"+url.PathEscape(id), &tender); err != nil {
		return nil, err
	}
	return &tender, nil
}

func (c *Client) UpdateTender(ctx context.Context, id string, upd entity.TenderUpdate) (*entity.Tender, error) {
	var tender entity.Tender
	if err := c.Put(ctx, "/tenders/"+url.PathEscape(id), upd, &tender); err != nil {
		return nil, err
	}
	if tender.ID == "" {
		tender.ID = id
	}
	return &tender, nil
}
