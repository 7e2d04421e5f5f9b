// Package locale loads the embedded translation files and resolves the
// language of each request.
package locale

import (
	"io/fs"
	"strings"
	"sync"

	"github.com/authgate/authgate/logger"

	"github.com/gin-gonic/gin"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

// ContextKey is where LocalizerMiddleware stores the request language.
const ContextKey = "lang"

var (
	bundleMu   sync.RWMutex
	i18nBundle *i18n.Bundle
)

// InitLocalizer parses every file under translation/ in i18nFS.
func InitLocalizer(i18nFS fs.FS) error {
	bundle := i18n.NewBundle(language.MustParse("en-US"))
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	if err := parseTranslationFiles(i18nFS, bundle); err != nil {
		return err
	}

	bundleMu.Lock()
	i18nBundle = bundle
	bundleMu.Unlock()
	return nil
}

func createTemplateData(params []string, seperator ...string) map[string]any {
	sep := "=="
	if len(seperator) > 0 {
		sep = seperator[0]
	}

	templateData := make(map[string]any)
	for _, param := range params {
		parts := strings.SplitN(param, sep, 2)
		if len(parts) != 2 {
			continue
		}
		templateData[parts[0]] = parts[1]
	}
	return templateData
}

func localizerFor(lang string) *i18n.Localizer {
	bundleMu.RLock()
	defer bundleMu.RUnlock()
	if i18nBundle == nil {
		return nil
	}
	return i18n.NewLocalizer(i18nBundle, lang)
}

// I18n translates key for lang. params are "name==value" pairs. The key itself
// is returned when no bundle is loaded or the key is unknown.
func I18n(lang string, key string, params ...string) string {
	localizer := localizerFor(lang)
	if localizer == nil {
		return key
	}

	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: createTemplateData(params),
	})
	if err != nil {
		logger.Warningf("Failed to localize message %q: %v", key, err)
		return key
	}
	return msg
}

// LocalizerMiddleware picks the language from the lang cookie or the
// Accept-Language header and stores it in the request context.
func LocalizerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var lang string
		if cookie, err := c.Request.Cookie("lang"); err == nil {
			lang = cookie.Value
		} else {
			lang = c.GetHeader("Accept-Language")
		}

		c.Set(ContextKey, lang)
		c.Next()
	}
}

// Lang returns the request language stored by LocalizerMiddleware.
func Lang(c *gin.Context) string {
	return c.GetString(ContextKey)
}

func parseTranslationFiles(i18nFS fs.FS, bundle *i18n.Bundle) error {
	return fs.WalkDir(i18nFS, "translation",
		func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}

			data, err := fs.ReadFile(i18nFS, path)
			if err != nil {
				return err
			}

			_, err = bundle.ParseMessageFileBytes(data, path)
			return err
		})
}
