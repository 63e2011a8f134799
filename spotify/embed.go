package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"github.com/xeptore/flaw/v8"

	"github.com/odklm/spotfetch/config"
	"github.com/odklm/spotfetch/errutil"
	"github.com/odklm/spotfetch/httputil"
	"github.com/odklm/spotfetch/log"
	"github.com/odklm/spotfetch/must"
	"github.com/odklm/spotfetch/retry"
)

const (
	defaultEmbedBaseURL    = "https://open.spotify.com"
	defaultSpclientBaseURL = "https://spclient.wg.spotify.com"

	// The embed endpoint rejects default client identifiers, so every
	// request carries a browser-like header set.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// Tokens within this window of their expiry are treated as expired.
	tokenExpirySlack = 60 * time.Second
)

var nextDataPattern = regexp.MustCompile(`<script id="__NEXT_DATA__"[^>]*>([^<]+)</script>`)

// fetcher retrieves embed pages over a single reused HTTP session and
// opportunistically caches the anonymous access token exposed in their
// payloads. It is not safe for concurrent use; the client assumes one
// logical enumeration in flight at a time.
type fetcher struct {
	client          *http.Client
	embedBaseURL    string
	spclientBaseURL string
	policy          retry.Policy
	logger          zerolog.Logger

	token          string
	tokenExpiresAt time.Time
}

func newFetcher(logger zerolog.Logger, opts Options) *fetcher {
	client := opts.HTTPClient
	if nil == client {
		client = &http.Client{} //nolint:exhaustruct
	}
	embedBaseURL := opts.EmbedBaseURL
	if embedBaseURL == "" {
		embedBaseURL = defaultEmbedBaseURL
	}
	spclientBaseURL := opts.SpclientBaseURL
	if spclientBaseURL == "" {
		spclientBaseURL = defaultSpclientBaseURL
	}
	baseDelay := opts.RetryBaseDelay
	if baseDelay == 0 {
		baseDelay = config.RetryBaseDelay
	}

	policy := retry.DefaultPolicy(isPermanentFetchErr)
	policy.BaseDelay = baseDelay
	return &fetcher{
		client:          client,
		embedBaseURL:    embedBaseURL,
		spclientBaseURL: spclientBaseURL,
		policy:          policy,
		logger:          logger,
		token:           "",
		tokenExpiresAt:  time.Time{},
	}
}

func (f *fetcher) playlistEmbedURL(id string) string {
	return f.embedBaseURL + "/embed/playlist/" + id
}

func (f *fetcher) trackEmbedURL(id string) string {
	return f.embedBaseURL + "/embed/track/" + id
}

func (f *fetcher) oembedURL() string {
	return f.embedBaseURL + "/oembed"
}

// fetchEmbed retrieves and validates the __NEXT_DATA__ payload of an embed
// page, retrying transient failures under the fetcher policy.
func (f *fetcher) fetchEmbed(ctx context.Context, pageURL string) ([]byte, error) {
	return retry.Do(ctx, f.policy, func(ctx context.Context) ([]byte, error) {
		return f.fetchEmbedOnce(ctx, pageURL)
	})
}

func (f *fetcher) fetchEmbedOnce(ctx context.Context, pageURL string) (payload []byte, err error) {
	flawP := flaw.P{"url": pageURL}

	ctx, cancel := context.WithTimeout(ctx, config.EmbedRequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if nil != err {
		if errutil.IsContext(ctx) {
			return nil, ctx.Err()
		}
		flawP["err_debug_tree"] = errutil.Tree(err).FlawP()
		return nil, flaw.From(fmt.Errorf("failed to create embed page request: %v", err)).Append(flawP)
	}
	req.Header.Add("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Add("Accept-Language", "en-US,en;q=0.9")
	req.Header.Add("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if nil != err {
		switch {
		case errutil.IsContext(ctx):
			return nil, ctx.Err()
		case errors.Is(err, context.DeadlineExceeded):
			return nil, context.DeadlineExceeded
		default:
			flawP["err_debug_tree"] = errutil.Tree(err).FlawP()
			return nil, flaw.From(fmt.Errorf("failed to fetch embed page: %v", err)).Append(flawP)
		}
	}
	defer func() {
		if closeErr := resp.Body.Close(); nil != closeErr {
			closeErr = flaw.From(fmt.Errorf("failed to close embed page response body: %v", closeErr)).Append(flawP)
			if nil != err {
				if errutil.IsFlaw(err) {
					err = must.BeFlaw(err).Join(closeErr)
				}
				return
			}
			err = closeErr
		}
	}()
	flawP["response"] = errutil.HTTPResponseFlawPayload(resp)

	switch code := resp.StatusCode; code {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrAccessDenied
	default:
		return nil, flaw.From(fmt.Errorf("embed page returned unexpected status code: %d", code)).Append(flawP)
	}

	respBytes, err := httputil.ReadResponseBody(ctx, resp)
	if nil != err {
		return nil, err
	}

	match := nextDataPattern.FindSubmatch(respBytes)
	if nil == match {
		f.logger.Error().Str("url", pageURL).Msg("Embed page is missing the __NEXT_DATA__ marker; the upstream page structure has changed")
		return nil, ErrMalformedPage
	}

	data := match[1]
	if !gjson.ValidBytes(data) {
		f.logger.Error().Str("url", pageURL).Msg("Embed page __NEXT_DATA__ blob is not valid JSON; the upstream page structure has changed")
		return nil, ErrMalformedPage
	}

	f.captureToken(data)
	return data, nil
}

// captureToken caches the anonymous session token when the payload carries
// one. Absence is not an error.
func (f *fetcher) captureToken(payload []byte) {
	session := gjson.GetBytes(payload, sessionPath)
	if !session.IsObject() {
		return
	}
	token := session.Get("accessToken").String()
	if token == "" {
		return
	}
	f.token = token
	if expiryMS := session.Get("accessTokenExpirationTimestampMs").Int(); expiryMS > 0 {
		f.tokenExpiresAt = time.UnixMilli(expiryMS)
	} else {
		f.tokenExpiresAt = time.Time{}
	}
	f.logger.Trace().Str("token", log.RedactString(f.token)).Time("expires_at", f.tokenExpiresAt).Msg("Captured anonymous access token")
}

// accessToken returns a token whose expiry is comfortably in the future,
// refetching the playlist embed page purely for its token side effect when
// the cached one is stale. The result may still be empty; callers degrade.
func (f *fetcher) accessToken(ctx context.Context, playlistID string) string {
	if f.token != "" && time.Until(f.tokenExpiresAt) > tokenExpirySlack {
		return f.token
	}

	if _, err := f.fetchEmbed(ctx, f.playlistEmbedURL(playlistID)); nil != err {
		f.logger.Debug().Err(err).Str("playlist_id", playlistID).Msg("Failed to refresh access token from embed page")
		return ""
	}
	return f.token
}

type spclientSummary struct {
	Length int `json:"length"`
	Items  []string
}

// fetchSpclientSummary queries the internal playlist service for the
// authoritative track count and the full URI list. Callers treat every
// failure as "no more data".
func (f *fetcher) fetchSpclientSummary(ctx context.Context, playlistID, token string) (out *spclientSummary, err error) {
	reqURL := f.spclientBaseURL + "/playlist/v2/playlist/" + playlistID
	flawP := flaw.P{"url": reqURL}

	ctx, cancel := context.WithTimeout(ctx, config.SpclientRequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if nil != err {
		if errutil.IsContext(ctx) {
			return nil, ctx.Err()
		}
		flawP["err_debug_tree"] = errutil.Tree(err).FlawP()
		return nil, flaw.From(fmt.Errorf("failed to create playlist service request: %v", err)).Append(flawP)
	}
	req.Header.Add("Authorization", "Bearer "+token)
	req.Header.Add("Accept", "application/json")

	resp, err := f.client.Do(req)
	if nil != err {
		switch {
		case errutil.IsContext(ctx):
			return nil, ctx.Err()
		case errors.Is(err, context.DeadlineExceeded):
			return nil, context.DeadlineExceeded
		default:
			flawP["err_debug_tree"] = errutil.Tree(err).FlawP()
			return nil, flaw.From(fmt.Errorf("failed to fetch playlist service summary: %v", err)).Append(flawP)
		}
	}
	defer func() {
		if closeErr := resp.Body.Close(); nil != closeErr {
			closeErr = flaw.From(fmt.Errorf("failed to close playlist service response body: %v", closeErr)).Append(flawP)
			if nil != err {
				if errutil.IsFlaw(err) {
					err = must.BeFlaw(err).Join(closeErr)
				}
				return
			}
			err = closeErr
		}
	}()
	flawP["response"] = errutil.HTTPResponseFlawPayload(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, flaw.From(fmt.Errorf("playlist service returned unexpected status code: %d", resp.StatusCode)).Append(flawP)
	}

	respBytes, err := httputil.ReadResponseBody(ctx, resp)
	if nil != err {
		return nil, err
	}
	var respBody struct {
		Length   int `json:"length"`
		Contents struct {
			Items []struct {
				URI string `json:"uri"`
			} `json:"items"`
		} `json:"contents"`
	}
	if err := json.Unmarshal(respBytes, &respBody); nil != err {
		flawP["response_body"] = string(respBytes)
		flawP["err_debug_tree"] = errutil.Tree(err).FlawP()
		return nil, flaw.From(fmt.Errorf("failed to decode playlist service response body: %v", err)).Append(flawP)
	}

	items := make([]string, 0, len(respBody.Contents.Items))
	for _, item := range respBody.Contents.Items {
		items = append(items, item.URI)
	}
	return &spclientSummary{Length: respBody.Length, Items: items}, nil
}
