package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"

	plannererrors "github.com/felixgeelhaar/epicbreaker/internal/errors"
)

// maxDocumentSize bounds the page body read to keep prompt construction
// memory-safe.
const maxDocumentSize = 4 * 1024 * 1024

// ConfluenceClient fetches wiki pages over the Confluence REST API and
// converts their storage-format HTML into markdown sections.
type ConfluenceClient struct {
	baseURL   string
	email     string
	apiToken  string
	client    *http.Client
	converter *md.Converter
}

// ConfluenceConfig holds connection settings for the wiki.
type ConfluenceConfig struct {
	BaseURL  string
	Email    string
	APIToken string
}

// NewConfluenceClient creates a Confluence-backed document store client.
func NewConfluenceClient(config ConfluenceConfig) *ConfluenceClient {
	return &ConfluenceClient{
		baseURL:   strings.TrimRight(config.BaseURL, "/"),
		email:     config.Email,
		apiToken:  config.APIToken,
		client:    &http.Client{Timeout: 30 * time.Second},
		converter: md.NewConverter("", true, nil),
	}
}

type confluencePage struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  struct {
		Storage struct {
			Value string `json:"value"`
		} `json:"storage"`
	} `json:"body"`
}

// pageIDPattern matches the numeric page ID in Confluence page URLs
// (".../pages/123456/Title" or "?pageId=123456").
var pageIDPattern = regexp.MustCompile(`(?:pages/|pageId=)(\d+)`)

// GetSections implements Client.
func (c *ConfluenceClient) GetSections(ctx context.Context, pageURL string) (map[string]string, error) {
	pageID, err := extractPageID(pageURL)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/rest/api/content/%s?expand=body.storage", c.baseURL, pageID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.email, c.apiToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, plannererrors.NewDocsUnavailableError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, plannererrors.New(plannererrors.ErrCodeDocsPageNotFound,
			fmt.Sprintf("page %s not found", pageID))
	default:
		return nil, plannererrors.NewDocsUnavailableError(
			fmt.Errorf("http %d: %s", resp.StatusCode, string(body)))
	}

	var page confluencePage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}

	markdown, err := c.converter.ConvertString(page.Body.Storage.Value)
	if err != nil {
		return nil, fmt.Errorf("convert page body: %w", err)
	}

	return SplitSections(markdown), nil
}

func extractPageID(pageURL string) (string, error) {
	if _, err := url.Parse(pageURL); err != nil {
		return "", fmt.Errorf("invalid document URL %q: %w", pageURL, err)
	}
	match := pageIDPattern.FindStringSubmatch(pageURL)
	if match == nil {
		return "", fmt.Errorf("no page ID found in document URL %q", pageURL)
	}
	return match[1], nil
}
