package uploader

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"social-service/internal/apperr"
	"social-service/internal/config"
	"social-service/internal/logger"
	"social-service/internal/observability"
)

// Client uploads images to Imgur's v3 image endpoint.
type Client struct {
	http     *resty.Client
	endpoint string
	clientID string
	quality  int
}

type imgurResponse struct {
	Data struct {
		Link  string `json:"link"`
		Error string `json:"error"`
	} `json:"data"`
	Success bool `json:"success"`
	Status  int  `json:"status"`
}

func NewClient(cfg config.Imgur) *Client {
	return &Client{
		http:     resty.New().SetTimeout(cfg.Timeout),
		endpoint: cfg.Endpoint,
		clientID: cfg.ClientID,
		quality:  cfg.CompressQuality,
	}
}

// Enabled reports whether a client id is configured.
func (c *Client) Enabled() bool {
	return c.clientID != ""
}

// Upload compresses data when that makes it smaller and stores it on the host.
func (c *Client) Upload(ctx context.Context, data []byte) (string, error) {
	if !c.Enabled() {
		return "", apperr.Upstream("image host is not configured", nil)
	}
	if len(data) == 0 {
		return "", apperr.Validation("images", "empty image")
	}

	payload := Compress(data, c.quality)
	var out imgurResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Client-ID "+c.clientID).
		SetBody(map[string]string{
			"image": base64.StdEncoding.EncodeToString(payload),
			"type":  "base64",
		}).
		SetResult(&out).
		SetError(&out).
		Post(c.endpoint)
	if err != nil {
		return "", apperr.Upstream("image host unreachable", err)
	}
	if resp.IsError() || !out.Success || strings.TrimSpace(out.Data.Link) == "" {
		return "", apperr.Upstream("image host rejected upload: "+resp.Status()+" "+out.Data.Error, nil)
	}
	return out.Data.Link, nil
}

// UploadMany uploads at most limit images in order. Failed uploads are logged
// and left out; the result keeps the input order of the successes.
func (c *Client) UploadMany(ctx context.Context, images [][]byte, limit int) []string {
	if len(images) > limit {
		images = images[:limit]
	}
	urls := make([]string, 0, len(images))
	for i, img := range images {
		url, err := c.Upload(ctx, img)
		if err != nil {
			observability.IncAttachmentUpload("failed")
			logger.Warn("attachment upload failed, skipping", zap.Int("index", i), zap.Error(err))
			continue
		}
		observability.IncAttachmentUpload("ok")
		urls = append(urls, url)
	}
	return urls
}
