package geo

import (
	"context"
	"errors"
)

// ErrUnknown is returned by a Locator that has no position to offer.
var ErrUnknown = errors.New("location unknown")

// Locator resolves the observer's position.
type Locator interface {
	Locate(ctx context.Context) (*Location, error)
}

// Static always returns the same location, e.g. coordinates from the config
// file or a request.
type Static struct {
	Location Location
}

func (s Static) Locate(context.Context) (*Location, error) {
	loc := s.Location
	return &loc, nil
}

// Memo persists the last detected location between runs.
type Memo interface {
	LoadGeo() *Location
	SaveGeo(loc *Location) error
}

// IPLocator detects the location from the public IP, reusing a memoised
// result when one is available.
type IPLocator struct {
	Memo Memo
}

func (l IPLocator) Locate(ctx context.Context) (*Location, error) {
	if l.Memo != nil {
		if loc := l.Memo.LoadGeo(); loc != nil {
			return loc, nil
		}
	}
	loc, err := DetectLocation(ctx)
	if err != nil {
		return nil, err
	}
	if l.Memo != nil {
		_ = l.Memo.SaveGeo(loc)
	}
	return loc, nil
}

// Chain tries each locator in order and returns the first success.
type Chain []Locator

func (c Chain) Locate(ctx context.Context) (*Location, error) {
	errs := make([]error, 0, len(c))
	for _, l := range c {
		loc, err := l.Locate(ctx)
		if err == nil && loc != nil {
			return loc, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, ErrUnknown
	}
	return nil, errors.Join(append([]error{ErrUnknown}, errs...)...)
}
