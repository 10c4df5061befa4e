// Package inject places the audio player into a cloned page.
package inject

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/MrSnakeDoc/demogen/internal/domain"
	"github.com/MrSnakeDoc/demogen/internal/player"
)

const (
	// PlayerTag is the custom element the bootstrap script upgrades.
	PlayerTag = player.Tag
	// ConflictingWidget is the id of the legacy widget some partners still embed.
	ConflictingWidget = "legacy-audio-widget"

	bootstrapAttr = "data-demogen-bootstrap"
)

const (
	WarnNoPlacement = "no placement chosen, the page is shown without a player"
	WarnNoMatch     = "placement selector matched nothing, the page is shown without a player"
)

type Result struct {
	HTML    string `json:"html"`
	Placed  bool   `json:"placed"`
	Warning string `json:"warning,omitempty"`
}

// Injector is stateless and safe for concurrent use. Running it on its own
// output gives the same document.
type Injector struct {
	scriptURL string
}

// New returns an injector whose bootstrap tag loads scriptURL.
func New(scriptURL string) *Injector {
	return &Injector{scriptURL: scriptURL}
}

func (i *Injector) Inject(cloneHTML string, demo *domain.DemoConfig) (Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(cloneHTML))
	if err != nil {
		return Result{}, fmt.Errorf("inject: parse clone: %w", err)
	}

	head := doc.Find("head").First()

	if doc.Find("base[href]").Length() == 0 && demo.WebsiteURL != "" {
		head.PrependNodes(element(atom.Base, "base", "href", demo.WebsiteURL))
	}

	doc.Find("#" + ConflictingWidget).Remove()
	doc.Find(PlayerTag).Remove()

	if doc.Find("script["+bootstrapAttr+"]").Length() == 0 {
		head.AppendNodes(element(atom.Script, "script", "src", i.scriptURL, bootstrapAttr, "", "defer", ""))
	}

	res := Result{}
	switch target := locate(doc, demo.Placement); {
	case demo.Placement == nil:
		res.Warning = WarnNoPlacement
	case target == nil:
		res.Warning = WarnNoMatch
	default:
		node := playerNode(demo)
		if demo.Placement.Position == domain.PositionAfter {
			target.AfterNodes(node)
		} else {
			target.BeforeNodes(node)
		}
		res.Placed = true
	}

	out, err := doc.Html()
	if err != nil {
		return Result{}, fmt.Errorf("inject: render: %w", err)
	}
	res.HTML = out
	return res, nil
}

// locate returns the first element matching the placement, or nil.
func locate(doc *goquery.Document, p *domain.Placement) *goquery.Selection {
	if p == nil {
		return nil
	}
	target := doc.Find(p.Selector).First()
	if target.Length() == 0 {
		return nil
	}
	return target
}

func playerNode(demo *domain.DemoConfig) *html.Node {
	cfg := demo.PlayerConfig
	cfg.Normalize()
	return element(0, PlayerTag,
		"publication", demo.Publication,
		"playertype", cfg.PlayerType(),
		"colortype", cfg.ColorType,
		player.DemoAttr, "",
	)
}

// element builds an element node from key/value attribute pairs.
func element(a atom.Atom, tag string, kv ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: tag}
	for j := 0; j+1 < len(kv); j += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: kv[j], Val: kv[j+1]})
	}
	return n
}
