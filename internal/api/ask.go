package api

import (
	"context"
	"io"
	"strings"

	apierrors "github.com/diogo/mybot/internal/errors"
	"github.com/diogo/mybot/internal/models"
)

// Ask sends a query and returns the response body as it arrives.
// The body is newline-delimited JSON; decode it with the stream package.
func (c *Client) Ask(ctx context.Context, query string) (io.ReadCloser, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apierrors.ErrEmptyPrompt
	}

	req, err := c.newJSONRequest(ctx, models.EndpointAsk, query)
	if err != nil {
		return nil, apierrors.NewNetworkError("ask", models.EndpointAsk, err)
	}
	req.Header.Set("Accept", models.ContentTypeNDJSON)

	resp, err := c.do(req)
	if err != nil {
		return nil, apierrors.NewNetworkError("ask", models.EndpointAsk, err)
	}

	if !isSuccess(resp.StatusCode) {
		body := readErrorBody(resp.Body)
		_ = resp.Body.Close()
		return nil, apierrors.NewNetworkStatusError("ask", models.EndpointAsk, resp.StatusCode, body)
	}

	c.logger.Debug("answer stream opened", "content_type", resp.Header.Get("Content-Type"))
	return resp.Body, nil
}
