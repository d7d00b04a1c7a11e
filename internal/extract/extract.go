// Package extract turns raw HTML into trimmed markdown or plain text.
//
// Extraction runs in two passes: a readability pass that isolates the main
// article body, then an HTML to markdown conversion. Neither pass can fail
// the call; when readability finds nothing usable the whole document is
// treated as the main content.
package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"go.uber.org/zap"

	"github.com/young1lin/zaatar/internal/models"
	"github.com/young1lin/zaatar/pkg/logger"
)

var (
	markdownConverter = newConverter(converter.WithEscapeMode(converter.EscapeModeSmart))
	// Text output is prose, so markdown characters are left unescaped.
	textConverter = newConverter(converter.WithEscapeMode(converter.EscapeModeDisabled))
)

func newConverter(opts ...func(*converter.Converter) error) *converter.Converter {
	opts = append([]func(*converter.Converter) error{
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
		),
	}, opts...)
	return converter.NewConverter(opts...)
}

// ParseMode validates an extraction mode name. The empty string selects markdown.
func ParseMode(s string) (models.ExtractMode, error) {
	switch models.ExtractMode(s) {
	case "", models.ExtractMarkdown:
		return models.ExtractMarkdown, nil
	case models.ExtractText:
		return models.ExtractText, nil
	default:
		return "", fmt.Errorf("extractMode must be %q or %q, got %q", models.ExtractMarkdown, models.ExtractText, s)
	}
}

// Extract converts html to the requested mode.
func Extract(html string, mode models.ExtractMode) string {
	return ExtractWithURL(html, mode, nil)
}

// ExtractWithURL is Extract with a base URL used to absolutize relative links.
func ExtractWithURL(html string, mode models.ExtractMode, pageURL *url.URL) string {
	log := logger.Named("extract")

	article, plain, title := mainContent(html, pageURL, log)

	conv := markdownConverter
	if mode == models.ExtractText {
		stripped, err := stripDecorations(article)
		if err != nil {
			log.Debug("text rewrite failed, using readability text", zap.Error(err))
			return strings.TrimSpace(plain)
		}
		article = stripped
		conv = textConverter
	}

	md, err := conv.ConvertString(article)
	if err != nil {
		log.Debug("markdown conversion failed, using readability text", zap.Error(err))
		return strings.TrimSpace(plain)
	}
	md = strings.TrimSpace(md)

	// readability drops a heading that repeats the page title
	if title != "" && !strings.Contains(md, title) && hasHeading(html, title) {
		if mode == models.ExtractText {
			md = title + "\n\n" + md
		} else {
			md = "# " + title + "\n\n" + md
		}
		md = strings.TrimSpace(md)
	}
	return md
}

// mainContent returns the readable HTML fragment, its plain text and the
// article title. It falls back to the raw document, with no title, when
// readability errors, panics or finds no content.
func mainContent(html string, pageURL *url.URL, log *zap.Logger) (fragment, text, title string) {
	if pageURL == nil {
		pageURL = &url.URL{}
	}

	defer func() {
		if r := recover(); r != nil {
			log.Warn("readability panicked, using raw document", zap.Any("panic", r))
			fragment, text, title = html, html, ""
		}
	}()

	article, err := readability.FromReader(strings.NewReader(html), pageURL)
	if err != nil {
		log.Debug("readability failed, using raw document", zap.Error(err))
		return html, html, ""
	}
	if strings.TrimSpace(article.Content) == "" {
		return html, html, ""
	}
	return article.Content, article.TextContent, strings.TrimSpace(article.Title)
}

// hasHeading reports whether the raw document has an h1 or h2 reading title.
func hasHeading(html, title string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}
	found := false
	doc.Find("h1, h2").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		found = strings.TrimSpace(s.Text()) == title
		return !found
	})
	return found
}

// decorations are unwrapped to their text in text mode.
const decorations = "a, em, i, strong, b, u, mark"

// stripDecorations drops images and unwraps links and emphasis so the
// markdown converter emits plain prose.
func stripDecorations(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", err
	}

	doc.Find("img, picture, svg, video, audio, iframe").Remove()
	doc.Find(decorations).Each(func(_ int, s *goquery.Selection) {
		s.ReplaceWithSelection(s.Contents())
	})

	body := doc.Find("body")
	if body.Length() == 0 {
		return doc.Html()
	}
	return body.Html()
}
