// Package resolver turns an episode page URL into a playable stream URL.
//
// Resolution is a staged pipeline: episode page, embedded structured
// data, encrypted playlist, then a best-effort entitlement ticket. The
// playlist stages are fatal; the entitlement stage only upgrades an
// already-playable URL and its failures are logged and swallowed.
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/charmap"

	"github.com/zetlaw/mako-vod/internal/mako"
)

// Fetcher is the portal page-fetch collaborator the resolver needs.
type Fetcher interface {
	Get(ctx context.Context, url string) (string, error)
	GetBytes(ctx context.Context, url string) ([]byte, error)
	Post(ctx context.Context, url, contentType, body string) (string, error)
}

// Result is the outcome of a successful resolution. Ticketed reports
// whether the entitlement stage managed to append a ticket; playback
// works either way.
type Result struct {
	URL      string
	Ticketed bool
}

// Resolver orchestrates the multi-stage video resolution protocol.
type Resolver struct {
	fetcher        Fetcher
	log            *slog.Logger
	baseURL        string
	entitlementURL string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithBaseURL overrides the portal base URL (for testing).
func WithBaseURL(u string) Option {
	return func(r *Resolver) {
		r.baseURL = u
	}
}

// WithEntitlementURL overrides the entitlement endpoint (for testing).
func WithEntitlementURL(u string) Option {
	return func(r *Resolver) {
		r.entitlementURL = u
	}
}

// New creates a Resolver.
func New(fetcher Fetcher, log *slog.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		fetcher:        fetcher,
		log:            log.With("component", "resolver"),
		baseURL:        mako.BaseURL,
		entitlementURL: mako.EntitlementURL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// playbackDetails are the three identifiers the playlist request needs.
type playbackDetails struct {
	vcmID            string
	galleryChannelID string
	videoChannelID   string
}

type nextData struct {
	Props struct {
		PageProps struct {
			Data struct {
				Vod struct {
					ItemVcmID        stringOrNumber `json:"itemVcmId"`
					GalleryChannelID stringOrNumber `json:"galleryChannelId"`
					ChannelID        stringOrNumber `json:"channelId"`
				} `json:"vod"`
			} `json:"data"`
		} `json:"pageProps"`
	} `json:"props"`
}

type playlist struct {
	Media []struct {
		URL string `json:"url"`
	} `json:"media"`
}

type entitlements struct {
	Tickets []struct {
		Ticket string `json:"ticket"`
	} `json:"tickets"`
}

// Resolve fetches the episode page and walks the pipeline to a playable
// URL.
func (r *Resolver) Resolve(ctx context.Context, episodeURL string) (Result, error) {
	details, err := r.episodeDetails(ctx, episodeURL)
	if err != nil {
		return Result{}, err
	}

	hlsURL, err := r.playlistURL(ctx, details)
	if err != nil {
		return Result{}, err
	}

	// Minimum viable result in hand; everything past here only upgrades it.
	if ticketed, ok := r.entitle(ctx, hlsURL); ok {
		return Result{URL: ticketed, Ticketed: true}, nil
	}
	return Result{URL: hlsURL}, nil
}

// episodeDetails fetches the episode page and pulls the playback ids out
// of its embedded structured-data block.
func (r *Resolver) episodeDetails(ctx context.Context, episodeURL string) (playbackDetails, error) {
	markup, err := r.fetcher.Get(ctx, episodeURL)
	if err != nil {
		return playbackDetails{}, fmt.Errorf("fetch episode page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return playbackDetails{}, fmt.Errorf("parse episode page: %w", err)
	}

	script := doc.Find("script#__NEXT_DATA__").First()
	if script.Length() == 0 {
		return playbackDetails{}, fmt.Errorf("%w: no embedded data block", ErrNoPlaybackDetails)
	}

	var data nextData
	if err := json.Unmarshal([]byte(script.Text()), &data); err != nil {
		return playbackDetails{}, fmt.Errorf("%w: %v", ErrNoPlaybackDetails, err)
	}

	vod := data.Props.PageProps.Data.Vod
	d := playbackDetails{
		vcmID:            string(vod.ItemVcmID),
		galleryChannelID: string(vod.GalleryChannelID),
		videoChannelID:   string(vod.ChannelID),
	}
	if d.vcmID == "" || d.galleryChannelID == "" || d.videoChannelID == "" {
		return playbackDetails{}, fmt.Errorf("%w: incomplete identifiers", ErrNoPlaybackDetails)
	}

	return d, nil
}

// playlistURL fetches and decrypts the playlist and returns the first
// media entry's URL.
func (r *Resolver) playlistURL(ctx context.Context, d playbackDetails) (string, error) {
	ajaxURL := fmt.Sprintf(
		"%s/AjaxPage?jspName=playlist12.jsp&vcmid=%s&videoChannelId=%s&galleryChannelId=%s&consumer=responsive",
		r.baseURL, url.QueryEscape(d.vcmID), url.QueryEscape(d.videoChannelID), url.QueryEscape(d.galleryChannelID),
	)

	raw, err := r.fetcher.GetBytes(ctx, ajaxURL)
	if err != nil {
		return "", fmt.Errorf("fetch playlist: %w", err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return "", fmt.Errorf("%w: empty playlist response", ErrNoStream)
	}

	// The payload is binary-unsafe as text; a byte-per-character read is
	// the only interpretation the decrypt survives.
	text, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode playlist bytes: %w", err)
	}

	decrypted, err := mako.Decrypt(mako.Playlist, strings.TrimSpace(string(text)))
	if err != nil {
		return "", fmt.Errorf("decrypt playlist: %w", err)
	}

	var pl playlist
	if err := json.Unmarshal([]byte(decrypted), &pl); err != nil {
		return "", fmt.Errorf("parse playlist: %w", err)
	}
	if len(pl.Media) == 0 || pl.Media[0].URL == "" {
		return "", fmt.Errorf("%w: playlist has no media entries", ErrNoStream)
	}

	return pl.Media[0].URL, nil
}

// entitle asks the entitlement service for a ticket and appends it to the
// stream URL. Every failure path returns ok=false; the caller falls back
// to the unticketed URL.
func (r *Resolver) entitle(ctx context.Context, hlsURL string) (string, bool) {
	parsed, err := url.Parse(hlsURL)
	if err != nil {
		r.log.Warn("entitlement skipped", "error", err)
		return "", false
	}

	payload, err := json.Marshal(map[string]string{"lp": parsed.Path, "rv": "AKAMAI"})
	if err != nil {
		r.log.Warn("entitlement payload failed", "error", err)
		return "", false
	}

	encrypted, err := mako.Encrypt(mako.Entitlement, string(payload))
	if err != nil {
		r.log.Warn("entitlement encrypt failed", "error", err)
		return "", false
	}

	resp, err := r.fetcher.Post(ctx, r.entitlementURL, "text/plain;charset=UTF-8", encrypted)
	if err != nil {
		r.log.Warn("entitlement request failed", "error", err)
		return "", false
	}
	if strings.TrimSpace(resp) == "" {
		r.log.Debug("entitlement returned no ticket")
		return "", false
	}

	decrypted, err := mako.Decrypt(mako.Entitlement, strings.TrimSpace(resp))
	if err != nil {
		r.log.Warn("entitlement decrypt failed", "error", err)
		return "", false
	}

	var ent entitlements
	if err := json.Unmarshal([]byte(decrypted), &ent); err != nil {
		r.log.Warn("entitlement parse failed", "error", err)
		return "", false
	}
	if len(ent.Tickets) == 0 || ent.Tickets[0].Ticket == "" {
		r.log.Debug("entitlement response carried no tickets")
		return "", false
	}

	sep := "?"
	if strings.Contains(hlsURL, "?") {
		sep = "&"
	}
	return hlsURL + sep + ent.Tickets[0].Ticket, true
}

// stringOrNumber tolerates the portal emitting ids as either JSON
// strings or numbers.
type stringOrNumber string

func (s *stringOrNumber) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = stringOrNumber(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = stringOrNumber(num.String())
	return nil
}
