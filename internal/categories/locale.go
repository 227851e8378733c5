package categories

import (
	"github.com/AvnerAdda/shekelsync-sub000/internal/models"
	"golang.org/x/text/language"
)

// matcher resolves the Accept-Language header against the languages the
// category names are maintained in. Hebrew is the primary language of the
// source data, English names are optional.
var matcher = language.NewMatcher([]language.Tag{
	language.Hebrew,
	language.English,
})

// DisplayName returns the category name for the languages the client
// accepts. It falls back to the localized name when no English name is set.
func (n *Node) DisplayName(acceptLanguage string) string {
	tag, _ := language.MatchStrings(matcher, acceptLanguage)

	base, _ := tag.Base()
	if base.String() == "en" && n.NameEn != "" {
		return n.NameEn
	}

	return n.Name
}

// Localize sets the display name of every node in the forest for the
// languages the client accepts.
func (f *Forest) Localize(acceptLanguage string) {
	for _, kind := range models.Kinds {
		for _, root := range f.Roots(kind) {
			localize(root, acceptLanguage)
		}
	}
}

func localize(node *Node, acceptLanguage string) {
	node.Display = node.DisplayName(acceptLanguage)
	for _, child := range node.Children {
		localize(child, acceptLanguage)
	}
}
