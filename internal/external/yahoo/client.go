package yahoo

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/fuyaseru/brain/pkg/config"
	"github.com/fuyaseru/brain/pkg/httputil"
	"github.com/fuyaseru/brain/pkg/logger"
)

// Client handles communication with Yahoo Finance
// ⭐ SSOT: Yahoo Finance 呼び出しはこのクライアントだけ
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	cfg        config.YahooConfig
}

// NewClient creates a new Yahoo Finance client.
// The http client should have retry disabled; the fetcher owns the retry policy.
func NewClient(httpClient *httputil.Client, cfg config.YahooConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		cfg:        cfg,
	}
}

// Symbol maps a ticker code to the provider symbol (7203 → 7203.T)
func (c *Client) Symbol(code string) string {
	if c.cfg.SymbolSuffix == "" || strings.HasSuffix(code, c.cfg.SymbolSuffix) {
		return code
	}
	return code + c.cfg.SymbolSuffix
}

func (c *Client) endpoint(base, code string, params url.Values) string {
	u := fmt.Sprintf("%s/%s", strings.TrimRight(base, "/"), url.PathEscape(c.Symbol(code)))
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}
