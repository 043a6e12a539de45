package api

import (
	"net/url"

	"github.com/rutapp/rut-server/internal/domain"
	domainerrors "github.com/rutapp/rut-server/internal/errors"
	"github.com/rutapp/rut-server/internal/normalize"
	"github.com/rutapp/rut-server/internal/store"
)

// SelectorParams carries the selector shared by list endpoints: By picks
// the selector and Q is its argument.
type SelectorParams struct {
	By   string
	Q    string
	Page int
}

func requireArg(by, q string) error {
	if q == "" {
		return domainerrors.Validationf("by=%s needs q", by)
	}
	return nil
}

// itemQuery builds the item selector named by p.
//
//	id, uiid, title: q as given
//	url:             q is base64 (URL-safe or standard); the decoded text is a
//	                 substring pattern, partial urls match
//	rut, tag:        q is a rut id or tag name
//	user:            q is a uname, flag optionally narrows to todo, doing or done
//	key:             q is the title keyword, from and source scope it
func itemQuery(p SelectorParams, flag, from, source string) (store.ItemQuery, error) {
	if err := requireArg(p.By, p.Q); err != nil {
		return nil, err
	}

	switch p.By {
	case "id":
		return store.ItemByID{ID: p.Q}, nil
	case "uiid":
		return store.ItemsByUIID{Pattern: p.Q}, nil
	case "title":
		return store.ItemsByTitle{Pattern: p.Q}, nil
	case "url":
		raw, err := normalize.DecodeBase64(p.Q)
		if err != nil {
			return nil, domainerrors.Validation("url selector must be base64 encoded")
		}
		return store.ItemsByURL{Pattern: normalize.Text(raw)}, nil
	case "rut":
		return store.ItemsInRut{RutID: p.Q}, nil
	case "tag":
		return store.ItemsWithTag{TName: normalize.TagName(p.Q), Page: p.Page}, nil
	case "user":
		var f domain.StarFlag
		if flag != "" {
			var ok bool
			if f, ok = domain.ParseStarFlag(flag); !ok {
				return nil, domainerrors.Validationf("unknown flag %q", flag)
			}
		}
		return store.ItemsStarredBy{UName: p.Q, Flag: f, Page: p.Page}, nil
	case "key":
		src := store.KeywordSource(from)
		switch src {
		case store.FromNone:
		case store.FromUser, store.FromTag:
			if source == "" {
				return nil, domainerrors.Validationf("from=%s needs source", from)
			}
			if src == store.FromTag {
				source = normalize.TagName(source)
			}
		default:
			return nil, domainerrors.Validationf("unknown keyword source %q", from)
		}
		return store.ItemsByKeyword{Keyword: p.Q, From: src, SourceID: source, Page: p.Page}, nil
	default:
		return nil, domainerrors.Validationf("unknown item selector %q", p.By)
	}
}

// rutQuery builds the rut selector named by p. by defaults to index.
func rutQuery(p SelectorParams, starred bool) (store.RutQuery, error) {
	switch p.By {
	case "", "index":
		return store.RutsIndex{Page: p.Page}, nil
	case "title":
		if err := requireArg(p.By, p.Q); err != nil {
			return nil, err
		}
		return store.RutsByTitle{Pattern: p.Q}, nil
	}

	if err := requireArg(p.By, p.Q); err != nil {
		return nil, err
	}
	switch p.By {
	case "user":
		return store.RutsByUser{UName: p.Q, Starred: starred, Page: p.Page}, nil
	case "item":
		return store.RutsWithItem{ItemID: p.Q, Page: p.Page}, nil
	case "tag":
		return store.RutsWithTag{TName: normalize.TagName(p.Q), Page: p.Page}, nil
	default:
		return nil, domainerrors.Validationf("unknown rut selector %q", p.By)
	}
}

// collectQuery builds the collect selector named by p.
func collectQuery(p SelectorParams) (store.CollectQuery, error) {
	if err := requireArg(p.By, p.Q); err != nil {
		return nil, err
	}

	switch p.By {
	case "rut":
		return store.CollectsInRut{RutID: p.Q}, nil
	case "item":
		return store.CollectsOfItem{ItemID: p.Q, Page: p.Page}, nil
	case "user":
		return store.CollectsByUser{UName: p.Q, Page: p.Page}, nil
	default:
		return nil, domainerrors.Validationf("unknown collect selector %q", p.By)
	}
}

// tagQuery builds the tag selector named by p. by defaults to index.
func tagQuery(p SelectorParams) (store.TagQuery, error) {
	if p.By == "" || p.By == "index" {
		return store.TagsIndex{}, nil
	}
	if err := requireArg(p.By, p.Q); err != nil {
		return nil, err
	}

	switch p.By {
	case "rut":
		return store.TagsOnRut{RutID: p.Q}, nil
	case "item":
		return store.TagsOnItem{ItemID: p.Q}, nil
	case "parent":
		return store.TagsUnder{PName: normalize.TagName(p.Q)}, nil
	case "user":
		return store.TagsStarredBy{UName: p.Q}, nil
	default:
		return nil, domainerrors.Validationf("unknown tag selector %q", p.By)
	}
}

// pathName decodes a tag name taken from the URL path. Router params may
// arrive still escaped when the name holds spaces or non-ASCII letters.
func pathName(raw string) string {
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}
