package resources

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var localeFS embed.FS

// Localizer resolves text keys through a go-i18n bundle. The built-in
// messages cover the navigation chrome (back, home, failure notices);
// applications add their own with LoadMessageFile.
type Localizer struct {
	mu        sync.RWMutex
	bundle    *i18n.Bundle
	localizer *i18n.Localizer
	languages []string
}

// NewLocalizer creates a Localizer preferring languages in order. English is
// always the final fallback.
func NewLocalizer(languages ...string) (*Localizer, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files, err := fs.ReadDir(localeFS, "locales")
	if err != nil {
		return nil, fmt.Errorf("resources: read embedded locales: %w", err)
	}
	for _, f := range files {
		data, err := localeFS.ReadFile(path.Join("locales", f.Name()))
		if err != nil {
			return nil, fmt.Errorf("resources: read %s: %w", f.Name(), err)
		}
		if _, err := bundle.ParseMessageFileBytes(data, f.Name()); err != nil {
			return nil, fmt.Errorf("resources: parse %s: %w", f.Name(), err)
		}
	}

	for _, l := range languages {
		if _, err := language.Parse(l); err != nil {
			return nil, fmt.Errorf("resources: invalid language %q: %w", l, err)
		}
	}

	return &Localizer{
		bundle:    bundle,
		localizer: i18n.NewLocalizer(bundle, languages...),
		languages: languages,
	}, nil
}

// LoadMessageFile adds messages from a TOML message file named like
// "active.de.toml".
func (l *Localizer) LoadMessageFile(file string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.bundle.LoadMessageFile(file); err != nil {
		return fmt.Errorf("resources: load %s: %w", file, err)
	}
	return nil
}

// SetLanguages changes the preferred languages.
func (l *Localizer) SetLanguages(languages ...string) error {
	for _, lang := range languages {
		if _, err := language.Parse(lang); err != nil {
			return fmt.Errorf("resources: invalid language %q: %w", lang, err)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.localizer = i18n.NewLocalizer(l.bundle, languages...)
	l.languages = languages
	return nil
}

// Languages returns the preferred languages.
func (l *Localizer) Languages() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.languages...)
}

// Resolve returns the localized text for key.
func (l *Localizer) Resolve(key string) (Resource, error) {
	text, err := l.Localize(key, nil)
	if err != nil {
		return Resource{}, err
	}
	return Resource{Key: key, Kind: KindText, Text: text}, nil
}

// Localize renders key with template data.
func (l *Localizer) Localize(key string, data map[string]any) (string, error) {
	return l.localize(&i18n.LocalizeConfig{MessageID: key, TemplateData: data})
}

// LocalizeCount renders a plural message with {{.Count}} set to count.
func (l *Localizer) LocalizeCount(key string, count int) (string, error) {
	return l.localize(&i18n.LocalizeConfig{
		MessageID:    key,
		PluralCount:  count,
		TemplateData: map[string]any{"Count": count},
	})
}

func (l *Localizer) localize(cfg *i18n.LocalizeConfig) (string, error) {
	l.mu.RLock()
	text, err := l.localizer.Localize(cfg)
	l.mu.RUnlock()

	if err == nil || text != "" {
		return text, nil
	}

	var notFound *i18n.MessageNotFoundErr
	if errors.As(err, &notFound) {
		return "", fmt.Errorf("%w: message %q", ErrNotFound, cfg.MessageID)
	}
	return "", fmt.Errorf("resources: localize %q: %w", cfg.MessageID, err)
}
