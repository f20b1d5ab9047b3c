package wechat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"AutoPress/internal/config"
	"AutoPress/internal/domain"
	"AutoPress/internal/ports"
)

const (
	defaultBaseURL = "https://api.weixin.qq.com/cgi-bin"
	maxCoverBytes  = 10 << 20
	maxDigestRunes = 100
)

// Client publishes articles through the two-phase stage-then-broadcast
// protocol: upload an optional cover, stage the news package via add_news,
// then mass-send the staged package. The access token is cached on the
// instance and refreshed ahead of expiry under a single-flight lock.
type Client struct {
	appID      string
	appSecret  string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu   sync.Mutex
	cred domain.Credential
	now  func() time.Time
}

var _ ports.Publisher = (*Client)(nil)

// NewClient builds a publish client from configuration.
func NewClient(cfg config.WeChatConfig, logger *slog.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		appID:      cfg.AppID,
		appSecret:  cfg.AppSecret,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		now:        time.Now,
	}
}

// Publish pushes one article to the platform. Cover upload failures are
// non-fatal; staging and broadcast failures surface the remote message in
// the result. Status transitions stay with the caller.
func (c *Client) Publish(ctx context.Context, article domain.Article) domain.PublishResult {
	if c.appID == "" || c.appSecret == "" {
		return domain.PublishResult{Success: false, Message: "wechat credentials are not configured"}
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return domain.PublishResult{Success: false, Message: fmt.Sprintf("获取access_token失败: %v", err)}
	}

	thumbID := ""
	if article.CoverImage != "" {
		thumbID, err = c.uploadCover(ctx, token, article.CoverImage)
		if err != nil {
			c.warn("cover upload failed, publishing without cover", "article", article.ID, "error", err)
			thumbID = ""
		}
	}

	mediaID, err := c.stageNews(ctx, token, article, thumbID)
	if err != nil {
		return domain.PublishResult{Success: false, Message: fmt.Sprintf("上传图文消息失败: %v", err)}
	}

	msgID, msgDataID, err := c.broadcast(ctx, token, mediaID)
	if err != nil {
		return domain.PublishResult{Success: false, Message: fmt.Sprintf("发布失败: %v", err)}
	}

	return domain.PublishResult{
		Success:   true,
		Message:   "发布成功",
		MsgID:     msgID,
		MsgDataID: msgDataID,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	ErrCode     int    `json:"errcode"`
	ErrMsg      string `json:"errmsg"`
}

// accessToken returns the cached token, refreshing it when it is within
// the expiry slack. The lock makes the refresh single-flight: concurrent
// publishers wait and reuse the fresh token.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cred.Usable(c.now()) {
		return c.cred.Token, nil
	}

	endpoint := fmt.Sprintf("%s/token?grant_type=client_credential&appid=%s&secret=%s",
		c.baseURL, url.QueryEscape(c.appID), url.QueryEscape(c.appSecret))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("new token request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	var parsed tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if parsed.AccessToken == "" {
		return "", fmt.Errorf("remote error %d: %s", parsed.ErrCode, parsed.ErrMsg)
	}

	expiresIn := parsed.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 7200
	}
	c.cred = domain.Credential{
		Token:     parsed.AccessToken,
		ExpiresAt: c.now().Add(time.Duration(expiresIn) * time.Second),
	}
	return c.cred.Token, nil
}

// uploadCover downloads the cover image and uploads it as platform media.
func (c *Client) uploadCover(ctx context.Context, token, imageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("new image request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download cover: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download cover: unexpected status %s", resp.Status)
	}
	image, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverBytes))
	if err != nil {
		return "", fmt.Errorf("read cover: %w", err)
	}

	var form bytes.Buffer
	writer := multipart.NewWriter(&form)
	part, err := writer.CreateFormFile("media", "cover.jpg")
	if err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return "", fmt.Errorf("write upload form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close upload form: %w", err)
	}

	endpoint := fmt.Sprintf("%s/media/upload?access_token=%s&type=image", c.baseURL, url.QueryEscape(token))
	upload, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &form)
	if err != nil {
		return "", fmt.Errorf("new upload request: %w", err)
	}
	upload.Header.Set("Content-Type", writer.FormDataContentType())

	uploadResp, err := c.httpClient.Do(upload)
	if err != nil {
		return "", fmt.Errorf("upload cover: %w", err)
	}
	defer uploadResp.Body.Close()

	var parsed struct {
		MediaID string `json:"media_id"`
		ErrCode int    `json:"errcode"`
		ErrMsg  string `json:"errmsg"`
	}
	if err := json.NewDecoder(uploadResp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if parsed.MediaID == "" {
		return "", fmt.Errorf("remote error %d: %s", parsed.ErrCode, parsed.ErrMsg)
	}
	return parsed.MediaID, nil
}

type newsArticle struct {
	Title              string `json:"title"`
	Author             string `json:"author"`
	Digest             string `json:"digest"`
	Content            string `json:"content"`
	ContentSourceURL   string `json:"content_source_url"`
	ThumbMediaID       string `json:"thumb_media_id"`
	ShowCoverPic       int    `json:"show_cover_pic"`
	NeedOpenComment    int    `json:"need_open_comment"`
	OnlyFansCanComment int    `json:"only_fans_can_comment"`
}

// stageNews uploads the news package and returns the opaque media id.
func (c *Client) stageNews(ctx context.Context, token string, article domain.Article, thumbID string) (string, error) {
	content := article.RenderedContent
	if content == "" {
		content = article.Content
	}

	payload := map[string]any{
		"articles": []newsArticle{{
			Title:            article.Title,
			Author:           article.Author,
			Digest:           digest(article.Content),
			Content:          content,
			ContentSourceURL: article.SourceURL,
			ThumbMediaID:     thumbID,
			ShowCoverPic:     1,
			NeedOpenComment:  1,
		}},
	}

	endpoint := fmt.Sprintf("%s/material/add_news?access_token=%s", c.baseURL, url.QueryEscape(token))
	var parsed struct {
		MediaID string `json:"media_id"`
		ErrCode int    `json:"errcode"`
		ErrMsg  string `json:"errmsg"`
	}
	if err := c.postJSON(ctx, endpoint, payload, &parsed); err != nil {
		return "", err
	}
	if parsed.MediaID == "" {
		return "", fmt.Errorf("remote error %d: %s", parsed.ErrCode, parsed.ErrMsg)
	}
	return parsed.MediaID, nil
}

// broadcast mass-sends the staged package to all subscribers.
func (c *Client) broadcast(ctx context.Context, token, mediaID string) (int64, int64, error) {
	payload := map[string]any{
		"filter":              map[string]any{"is_to_all": true},
		"mpnews":              map[string]any{"media_id": mediaID},
		"msgtype":             "mpnews",
		"send_ignore_reprint": 0,
	}

	endpoint := fmt.Sprintf("%s/message/mass/sendall?access_token=%s", c.baseURL, url.QueryEscape(token))
	var parsed struct {
		ErrCode   int    `json:"errcode"`
		ErrMsg    string `json:"errmsg"`
		MsgID     int64  `json:"msg_id"`
		MsgDataID int64  `json:"msg_data_id"`
	}
	if err := c.postJSON(ctx, endpoint, payload, &parsed); err != nil {
		return 0, 0, err
	}
	if parsed.ErrCode != 0 {
		return 0, 0, fmt.Errorf("remote error %d: %s", parsed.ErrCode, parsed.ErrMsg)
	}
	return parsed.MsgID, parsed.MsgDataID, nil
}

func (c *Client) postJSON(ctx context.Context, endpoint string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// digest trims the plain content into the short excerpt the platform shows
// in feeds.
func digest(content string) string {
	content = strings.TrimSpace(strings.ReplaceAll(content, "\n", " "))
	if utf8.RuneCountInString(content) <= maxDigestRunes {
		return content
	}
	runes := []rune(content)
	return string(runes[:maxDigestRunes]) + "..."
}

func (c *Client) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
