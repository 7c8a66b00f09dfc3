package docfmt

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
)

var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
	),
)

// GenericMarkdown converts arbitrary HTML to markdown. It is the opt-in
// fallback for pages where no platform content container matched; the
// platform-aware formatter remains the default path.
func GenericMarkdown(htmlSrc, sourceURL string) (string, error) {
	if strings.TrimSpace(htmlSrc) == "" {
		return "", nil
	}
	out, err := mdConverter.ConvertString(htmlSrc, converter.WithDomain(sourceURL))
	if err != nil {
		return "", fmt.Errorf("docfmt: generic convert: %w", err)
	}
	return strings.TrimSpace(out), nil
}
