package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/nhle/todosync/internal/model"
)

// Register creates an account and returns its first token.
func (c *Client) Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error) {
	var resp model.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", false, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	var resp model.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", false, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetLists returns every list owned by the current user.
func (c *Client) GetLists(ctx context.Context) ([]model.TodoList, error) {
	var lists []model.TodoList
	if err := c.do(ctx, http.MethodGet, "/api/lists", true, nil, &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

// GetList returns a single list.
func (c *Client) GetList(ctx context.Context, id string) (*model.TodoList, error) {
	var list model.TodoList
	if err := c.do(ctx, http.MethodGet, listPath(id), true, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// CreateList creates a list and returns it as stored.
func (c *Client) CreateList(ctx context.Context, in model.ListInput) (*model.TodoList, error) {
	var list model.TodoList
	if err := c.do(ctx, http.MethodPost, "/api/lists", true, in, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// UpdateList replaces a list's name and description.
func (c *Client) UpdateList(ctx context.Context, id string, in model.ListInput) error {
	return c.do(ctx, http.MethodPut, listPath(id), true, in, nil)
}

// DeleteList removes a list and, server-side, all of its items.
func (c *Client) DeleteList(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, listPath(id), true, nil, nil)
}

// GetItems returns the items of a list in backend order.
func (c *Client) GetItems(ctx context.Context, listID string) ([]model.TodoItem, error) {
	var items []model.TodoItem
	if err := c.do(ctx, http.MethodGet, itemsPath(listID), true, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetItem returns a single item.
func (c *Client) GetItem(ctx context.Context, listID, itemID string) (*model.TodoItem, error) {
	var item model.TodoItem
	if err := c.do(ctx, http.MethodGet, itemPath(listID, itemID), true, nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem appends an item to a list.
func (c *Client) CreateItem(ctx context.Context, listID string, in model.ItemInput) (*model.TodoItem, error) {
	var item model.TodoItem
	if err := c.do(ctx, http.MethodPost, itemsPath(listID), true, in, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem replaces an item's editable fields.
func (c *Client) UpdateItem(ctx context.Context, listID, itemID string, in model.ItemInput) (*model.TodoItem, error) {
	var item model.TodoItem
	if err := c.do(ctx, http.MethodPut, itemPath(listID, itemID), true, in, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteItem removes an item.
func (c *Client) DeleteItem(ctx context.Context, listID, itemID string) error {
	return c.do(ctx, http.MethodDelete, itemPath(listID, itemID), true, nil, nil)
}

// SetItemCompleted sets the completion flag of an item.
func (c *Client) SetItemCompleted(ctx context.Context, listID, itemID string, completed bool) (*model.TodoItem, error) {
	path := itemPath(listID, itemID) + "/complete?isCompleted=" + strconv.FormatBool(completed)
	var item model.TodoItem
	if err := c.do(ctx, http.MethodPatch, path, true, nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ReorderItems sends the complete id→order assignment for a list in
// one request.
func (c *Client) ReorderItems(ctx context.Context, listID string, orders map[string]int) error {
	body := model.ReorderRequest{ItemOrders: orders}
	return c.do(ctx, http.MethodPatch, itemsPath(listID)+"/reorder", true, body, nil)
}

func listPath(id string) string {
	return "/api/lists/" + url.PathEscape(id)
}

func itemsPath(listID string) string {
	return listPath(listID) + "/items"
}

func itemPath(listID, itemID string) string {
	return fmt.Sprintf("%s/%s", itemsPath(listID), url.PathEscape(itemID))
}
