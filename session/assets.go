package session

import (
	"github.com/pthm-cable/dotfield/atlas"
)

// loadAssets uploads the source image and any pattern atlases named in
// the config. A missing or broken source image falls back to the
// placeholder; a broken atlas keeps the generated or primary one.
func (s *Session) loadAssets() error {
	a := s.cfg.Assets

	img, placeholder, err := atlas.LoadOrPlaceholder(a.Image, a.Placeholder)
	if err != nil {
		return err
	}
	if err := s.compositor.SetImage(img); err != nil {
		return err
	}
	s.placeholder = placeholder

	if a.Pattern != "" {
		img, err := atlas.Load(a.Pattern)
		if err != nil {
			s.logger.Warn("pattern atlas unavailable, using generated dots", "path", a.Pattern, "error", err)
		} else if err := s.compositor.SetPatternAtlas(img, a.PatternColumns); err != nil {
			return err
		}
	}

	if a.AltPattern != "" {
		img, err := atlas.Load(a.AltPattern)
		if err != nil {
			s.logger.Warn("alt pattern atlas unavailable, using primary", "path", a.AltPattern, "error", err)
		} else if err := s.compositor.SetAltPatternAtlas(img, a.AltPatternColumns); err != nil {
			return err
		}
	}
	return nil
}
