package hls

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jmagar/hlsgrab/internal/model"
)

// FetchFunc fetches a playlist body. It is only used when no captured bodies were supplied.
type FetchFunc func(ctx context.Context, url string) ([]byte, error)

// Resolver turns a catalog item's playlist URL into an ordered media segment list.
type Resolver struct {
	// SegmentExt is the segment-file extension that marks media playlist lines.
	SegmentExt string
	// Fetch is optional. Without it an empty captured set fails with ErrPlaylistUnavailable.
	Fetch FetchFunc
}

// NewResolver returns a Resolver for segments with extension ext.
func NewResolver(ext string, fetch FetchFunc) *Resolver {
	return &Resolver{SegmentExt: ext, Fetch: fetch}
}

// Resolve selects the media playlist for playlistURL.
//
// With captured bodies, only captured playlists are considered: a master playlist resolves
// to the highest-bandwidth variant whose body was captured, which is not necessarily the
// highest-bandwidth variant listed. With no captured bodies the playlists are fetched.
func (r *Resolver) Resolve(ctx context.Context, playlistURL string, captured map[string]string) (model.ResolvedPlaylist, error) {
	if len(captured) == 0 {
		return r.resolveByFetching(ctx, playlistURL)
	}

	body, ok := captured[playlistURL]
	if !ok {
		return model.ResolvedPlaylist{}, &model.PlaylistUnavailableError{URL: playlistURL, Known: knownURLs(captured)}
	}
	if IsMediaPlaylist(body, r.SegmentExt) {
		return r.media(playlistURL, body)
	}

	variants := ParseVariants(body, playlistURL)
	if len(variants) == 0 {
		// Neither segments nor variants: report it as an empty media playlist.
		return r.media(playlistURL, body)
	}
	candidates := make([]string, 0, len(variants))
	for _, v := range variants {
		if variantBody, ok := captured[v.URL]; ok {
			return r.media(v.URL, variantBody)
		}
		candidates = append(candidates, v.URL)
	}
	return model.ResolvedPlaylist{}, &model.NoCapturedVariantError{MasterURL: playlistURL, Candidates: candidates}
}

func (r *Resolver) resolveByFetching(ctx context.Context, playlistURL string) (model.ResolvedPlaylist, error) {
	if r.Fetch == nil {
		return model.ResolvedPlaylist{}, &model.PlaylistUnavailableError{URL: playlistURL}
	}
	raw, err := r.Fetch(ctx, playlistURL)
	if err != nil {
		return model.ResolvedPlaylist{}, fmt.Errorf("%w: %s: %w", model.ErrPlaylistUnavailable, playlistURL, err)
	}
	body := string(raw)
	if IsMediaPlaylist(body, r.SegmentExt) {
		return r.media(playlistURL, body)
	}

	variants := ParseVariants(body, playlistURL)
	if len(variants) == 0 {
		return r.media(playlistURL, body)
	}
	var errs []error
	for _, v := range variants {
		variantRaw, err := r.Fetch(ctx, v.URL)
		if err != nil {
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		return r.media(v.URL, string(variantRaw))
	}
	return model.ResolvedPlaylist{}, fmt.Errorf("%w: no variant of %s could be fetched: %w",
		model.ErrPlaylistUnavailable, playlistURL, errors.Join(errs...))
}

func (r *Resolver) media(effectiveURL, body string) (model.ResolvedPlaylist, error) {
	segs, err := ParseMediaSegments(body, effectiveURL, r.SegmentExt)
	if err != nil {
		return model.ResolvedPlaylist{}, err
	}
	resolved := model.ResolvedPlaylist{
		EffectiveURL: effectiveURL,
		Segments:     make([]string, len(segs)),
		Durations:    make([]float64, len(segs)),
	}
	for i, s := range segs {
		resolved.Segments[i] = s.URL
		resolved.Durations[i] = s.Duration
	}
	return resolved, nil
}

func knownURLs(captured map[string]string) []string {
	keys := make([]string, 0, len(captured))
	for k := range captured {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
